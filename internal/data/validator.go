package data

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func ValidateStruct(s any) (map[string]string, error) {
	err := validate.Struct(s)
	if err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return nil, fmt.Errorf("invalid validation error: %w", err)
		}

		validationErrors := err.(validator.ValidationErrors)
		errorsMap := make(map[string]string)
		fields := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			errorsMap[fieldErr.Field()] = fmt.Sprintf("failed on '%s' tag", fieldErr.Tag())
			fields = append(fields, fieldErr.Field())
		}
		return errorsMap, fmt.Errorf("validation failed for %s", strings.Join(fields, ", "))
	}
	return nil, nil
}
