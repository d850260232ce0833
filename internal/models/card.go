package models

import (
	"math"
	"time"
)

// Supported card networks
const (
	CardTypeVisa       = "Visa"
	CardTypeMasterCard = "MasterCard"
	CardTypeAmex       = "American Express"
	CardTypeDiscover   = "Discover"
)

// MaxBalance is the largest balance a NUMERIC(14,2) column holds
const MaxBalance = 999999999999.99

// CardTypes lists every accepted card type
var CardTypes = []string{CardTypeVisa, CardTypeMasterCard, CardTypeAmex, CardTypeDiscover}

// Card represents a payment card owned by a user
type Card struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	CardNumber     string    `json:"card_number" db:"card_number"`
	CardHolderName string    `json:"card_holder_name" db:"card_holder_name"`
	ExpiryDate     string    `json:"expiry_date" db:"expiry_date"` // MM/YY
	CVV            string    `json:"-" db:"cvv"`                   // Hashed, not serialized
	CardType       string    `json:"card_type" db:"card_type"`
	Balance        float64   `json:"balance" db:"balance"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// CardUpdate holds the mutable card fields. Nil fields keep their stored value.
type CardUpdate struct {
	CardHolderName *string
	ExpiryDate     *string
	IsActive       *bool
}

// RoundBalance rounds an amount to whole cents, the precision balances are stored with
func RoundBalance(amount float64) float64 {
	return math.Round(amount*100) / 100
}
