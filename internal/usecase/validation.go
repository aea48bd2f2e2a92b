package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags of v and reports the first failing field as
// ErrValidation.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("%w: %s failed %s", domainErrors.ErrValidation, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", domainErrors.ErrValidation, err)
}

// Credentials is the input of register and login.
type Credentials struct {
	Login    string `validate:"required,min=3,max=64"`
	Password string `validate:"required,min=1,max=72"`
}

// ProductInput is the input of a catalog upsert.
type ProductInput struct {
	ID          string `validate:"required,max=64"`
	Name        string `validate:"required,max=200"`
	AmountCents int64  `validate:"gt=0"`
	Currency    string `validate:"required,len=3,alpha"`
	Active      bool
}
