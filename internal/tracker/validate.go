package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/projectie-app/projectie/internal/model"
)

// ErrInvalidInput wraps every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// NewValidator returns a validator with the model's custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("category", validateCategory)
	return v
}

func validateFrequency(fl validator.FieldLevel) bool {
	_, ok := model.Frequency(fl.Field().String()).Unit()
	return ok
}

func validateAccountType(fl validator.FieldLevel) bool {
	return model.AccountType(fl.Field().String()).Valid()
}

func validateCategory(fl validator.FieldLevel) bool {
	return model.IsCategory(fl.Field().String())
}

func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func checkRecurrence(t model.Transaction) error {
	if !t.IsRecurring {
		return nil
	}
	if _, ok := t.Frequency.Unit(); !ok {
		return fmt.Errorf("%w: recurring transaction needs a frequency", ErrInvalidInput)
	}
	if t.Interval < 1 {
		return fmt.Errorf("%w: recurring transaction needs an interval of at least 1", ErrInvalidInput)
	}
	return nil
}
