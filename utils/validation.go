package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	documentPatterns = map[string]*regexp.Regexp{
		"national_id":     regexp.MustCompile(`^[0-9]{12}$`),
		"tax_id":          regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`),
		"passport":        regexp.MustCompile(`^[A-Z][0-9]{7}$`),
		"driving_license": regexp.MustCompile(`^[A-Z0-9]{8,20}$`),
	}
)

func init() {
	validate = validator.New()
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateDocumentNumber checks a declared document number against the
// pattern for its document type. Unknown types never match.
func ValidateDocumentNumber(documentType, number string) bool {
	re, ok := documentPatterns[documentType]
	if !ok {
		return false
	}
	return re.MatchString(number)
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func FormatValidationError(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			field := strings.ToLower(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", field)
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
			case "len":
				errors[field] = fmt.Sprintf("%s must be exactly %s characters", field, fieldError.Param())
			case "numeric":
				errors[field] = fmt.Sprintf("%s must contain digits only", field)
			default:
				errors[field] = fmt.Sprintf("%s is invalid", field)
			}
		}
	}

	return errors
}
