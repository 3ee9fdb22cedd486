package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,32}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("username", validateUsername)
}

// ValidationError represents validation error details
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ValidateStruct validates a struct and returns user-friendly error messages
func ValidateStruct(s interface{}) []ValidationError {
	var out []ValidationError

	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "body", Tag: "invalid", Message: err.Error()}}
	}
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Tag:     fe.Tag(),
			Value:   fe.Param(),
			Message: getErrorMessage(fe),
		})
	}
	return out
}

// ValidateUsername checks the characters and length allowed in usernames
func ValidateUsername(username string) bool {
	return usernamePattern.MatchString(username) && !strings.EqualFold(username, "admin") && !strings.EqualFold(username, "system")
}

func validateUsername(fl validator.FieldLevel) bool {
	return ValidateUsername(fl.Field().String())
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "min":
		return "Must be at least " + fe.Param() + " characters long"
	case "max":
		return "Must be at most " + fe.Param() + " characters long"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "username":
		return "Username must be 3-32 letters, digits, dots, dashes or underscores"
	default:
		return "Invalid value"
	}
}
