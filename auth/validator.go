package auth

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// LoginRequest is the credential pair of one login attempt.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func ValidateLogin(req LoginRequest) error {
	return validate.Struct(req)
}
