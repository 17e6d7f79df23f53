package services

import (
	"chat-relay/errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateCommand checks the struct tags of cmd and reports the first failure.
func validateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Errorf("%w: %s failed on %s", errors.ErrInvalidRequest, fieldErrs[0].Field(), fieldErrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
}

// validateContent rejects blank content and content longer than maxLength runes.
// A non-positive maxLength disables the length check.
func validateContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errors.ErrEmptyContent
	}
	if maxLength > 0 && utf8.RuneCountInString(content) > maxLength {
		return fmt.Errorf("%w: limit is %d characters", errors.ErrContentTooLong, maxLength)
	}
	return nil
}
