package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pauljones0/commodity-tracker/internal/models"
)

// Validator is a wrapper around the validator library.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator instance with the domain rules registered.
// "required" on the pricing union only rejects a nil union; an empty
// variant is a valid draft.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("deal_status", func(fl validator.FieldLevel) bool {
		return models.DealStatus(fl.Field().String()).IsValid()
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct based on its tags.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err != nil {
		return fmt.Errorf("validation failed: %s: %w", Describe(err), err)
	}
	return nil
}

// Describe turns validation errors into one readable line, e.g.
// "commodity type is required".
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "datetime":
		return name + " must be a date (YYYY-MM-DD)"
	case "gte":
		return name + " must be at least " + fe.Param()
	case "lte":
		return name + " must be at most " + fe.Param()
	case "deal_status":
		return name + " is not a known status"
	default:
		return name + " is invalid"
	}
}

// humanize splits a Go field name into lower-case words.
func humanize(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
			b.WriteByte(' ')
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
