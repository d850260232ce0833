package handler

type registerRequest struct {
	Username string `json:"username" validate:"minlentrim=3,max=255" message:"Username must be at least 3 characters" message_max:"Username must be at most 255 characters"`
	Email    string `json:"email" validate:"email,max=255" message:"Valid email is required"`
	Password string `json:"password" validate:"min=6,max=72" message:"Password must be at least 6 characters" message_max:"Password must be at most 72 characters"`
}

type loginRequest struct {
	Username string `json:"username" validate:"notblank" message:"Username is required"`
	Password string `json:"password" validate:"required" message:"Password is required"`
}

type createCardRequest struct {
	CardNumber     string   `json:"cardNumber" validate:"min=13,max=19" message:"Card number must be 13-19 digits"`
	CardHolderName string   `json:"cardHolderName" validate:"notblank,max=255" message:"Card holder name is required" message_max:"Card holder name must be at most 255 characters"`
	ExpiryDate     string   `json:"expiryDate" validate:"expiry" message:"Expiry date must be in MM/YY format"`
	CVV            string   `json:"cvv" validate:"min=3,max=4" message:"CVV must be 3-4 digits"`
	CardType       string   `json:"cardType" validate:"cardtype" message:"Invalid card type"`
	Balance        *float64 `json:"balance" validate:"omitempty,min=0,lte=999999999999.99" message:"Balance must be a non-negative number" message_lte:"Balance must not exceed 999999999999.99"`
}

// updateCardRequest fields left out or sent as null keep their stored value
type updateCardRequest struct {
	CardHolderName *string `json:"cardHolderName" validate:"omitempty,notblank,max=255" message:"Card holder name cannot be empty" message_max:"Card holder name must be at most 255 characters"`
	ExpiryDate     *string `json:"expiryDate" validate:"omitempty,expiry" message:"Expiry date must be in MM/YY format"`
	IsActive       *bool   `json:"isActive"`
}

type balanceRequest struct {
	Balance *float64 `json:"balance"`
}
