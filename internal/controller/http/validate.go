package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks request DTO struct tags
var validate = validator.New(validator.WithRequiredStructEnabled())

// validationMessage renders validator errors as one readable line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "uuid":
			parts = append(parts, fmt.Sprintf("%s must be a UUID", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds the maximum length", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
