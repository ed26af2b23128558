package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"trip-planner/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator for request DTOs.
type Validator struct {
	validate *validator.Validate
}

var (
	once     sync.Once
	instance *Validator
)

// GetValidator returns the shared request validator.
func GetValidator() *Validator {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		instance = &Validator{validate: v}
	})
	return instance
}

// Validate checks the struct tags of req. Failures are reported as invalid arguments.
func (v *Validator) Validate(req interface{}) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return models.InvalidArgument("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param())
		}
		return models.InvalidArgument("%s failed on '%s'", fe.Field(), fe.Tag())
	}
	return models.InvalidArgument("invalid request: %v", err)
}
