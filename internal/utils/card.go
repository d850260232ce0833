package utils

import "strings"

// MaskCardNumber hides all but the last four digits of a card number
func MaskCardNumber(cardNumber string) string {
	digits := strings.ReplaceAll(cardNumber, " ", "")
	if len(digits) <= 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}
