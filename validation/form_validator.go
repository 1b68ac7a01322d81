package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/medicines-web/entities"
	"github.com/giygas/medicines-web/interfaces"
)

// MaxNameLength is the longest accepted medicine name, in characters
const MaxNameLength = 200

// FieldError reports which form field was rejected and why
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// FormValidatorImpl implements the interfaces.FormValidator interface
type FormValidatorImpl struct {
	strict bool
}

// NewFormValidator creates a form validator.
// In lenient mode the form is forwarded unchecked, an unparsable price included.
func NewFormValidator(strict bool) interfaces.FormValidator {
	return &FormValidatorImpl{strict: strict}
}

// ValidateCreate trims the name, parses the price and builds the backend request.
func (v *FormValidatorImpl) ValidateCreate(name, rawPrice string) (entities.CreateRequest, error) {
	name = strings.TrimFunc(name, isFormSpace)
	price := ParsePrice(rawPrice)

	request := entities.CreateRequest{
		Name:  name,
		Price: FormatPrice(price),
	}

	if !v.strict {
		return request, nil
	}

	if err := validateName(name); err != nil {
		return entities.CreateRequest{}, err
	}
	if err := validatePrice(price); err != nil {
		return entities.CreateRequest{}, err
	}

	return request, nil
}

func validateName(name string) error {
	if name == "" {
		return &FieldError{Field: "name", Message: "cannot be empty"}
	}

	if !utf8.ValidString(name) {
		return &FieldError{Field: "name", Message: "is not valid UTF-8"}
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return &FieldError{Field: "name", Message: fmt.Sprintf("too long: maximum %d characters", MaxNameLength)}
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return &FieldError{Field: "name", Message: "contains control characters"}
		}
	}

	return nil
}

func validatePrice(price float64) error {
	switch {
	case math.IsNaN(price):
		return &FieldError{Field: "price", Message: "must be a number"}
	case math.IsInf(price, 0):
		return &FieldError{Field: "price", Message: "must be finite"}
	case price < 0:
		return &FieldError{Field: "price", Message: "cannot be negative"}
	}
	return nil
}
