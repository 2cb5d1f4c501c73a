package validation

import (
	"errors"
	"reflect"
	"regexp"
	"time"

	"barber-booking/internal/schedule"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := schedule.ParseDate(value, time.UTC)
		return err == nil
	})

	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := schedule.ParseClockToMinutes(value)
		return err == nil
	})

	// separators are allowed here and stripped before storage
	phoneRegex := regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,22}[0-9]$`)
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return phoneRegex.MatchString(value)
	})

	countryRegex := regexp.MustCompile(`^[A-Za-z]{2}$`)
	v.RegisterValidation("countrycode", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return countryRegex.MatchString(value)
	})

	codeRegex := regexp.MustCompile(`^[0-9]{6}$`)
	v.RegisterValidation("code6", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return codeRegex.MatchString(value)
	})

	v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Int, reflect.Int32, reflect.Int64:
		default:
			return false
		}
		return schedule.ValidDuration(int(fl.Field().Int()))
	})

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
