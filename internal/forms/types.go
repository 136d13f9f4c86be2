package forms

import (
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/everrest"
)

// SignUp is the registration form.
type SignUp struct {
	FirstName       string `json:"firstName" validate:"notblank"`
	LastName        string `json:"lastName" validate:"notblank"`
	Age             int    `json:"age" validate:"required,min=1"`
	Email           string `json:"email" validate:"notblank,email"`
	Password        string `json:"password" validate:"notblank"`
	ConfirmPassword string `json:"confirmPassword" validate:"notblank,eqfield=Password"`
	Phone           string `json:"phone" validate:"notblank"`
	Address         string `json:"address" validate:"notblank"`
	Zipcode         string `json:"zipcode" validate:"notblank"`
	Gender          string `json:"gender" validate:"notblank"`
	Avatar          string `json:"avatar,omitempty"`
}

// Request drops the confirmation field and trims the text fields.
func (s SignUp) Request() everrest.SignUpRequest {
	return everrest.SignUpRequest{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Age:       s.Age,
		Email:     strings.TrimSpace(s.Email),
		Password:  s.Password,
		Address:   strings.TrimSpace(s.Address),
		Phone:     strings.TrimSpace(s.Phone),
		Zipcode:   strings.TrimSpace(s.Zipcode),
		Avatar:    strings.TrimSpace(s.Avatar),
		Gender:    strings.TrimSpace(s.Gender),
	}
}

// SignIn is the login form.
type SignIn struct {
	Email    string `json:"email" validate:"notblank,email"`
	Password string `json:"password" validate:"notblank"`
}

// Payment is the card form shown before checkout. It is validated only and
// never forwarded.
type Payment struct {
	CardNumber string `json:"cardNumber" validate:"notblank,len=16,digits"`
	CardHolder string `json:"cardHolder" validate:"notblank"`
	Expiry     string `json:"expiry" validate:"notblank,expiry"`
	CVV        string `json:"cvv" validate:"notblank,len=3,digits"`
}
