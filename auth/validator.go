package auth

import (
	"chat-relay/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func ValidateRegister(req RegisterRequest) error {
	return validateStruct(req)
}

func ValidateLogin(req LoginRequest) error {
	return validateStruct(req)
}

// validateStruct reports the first failing field, wrapped in ErrInvalidRequest.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return fmt.Errorf("%w: %s failed on %s", errors.ErrInvalidRequest, first.Field(), first.Tag())
	}
	return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
}
