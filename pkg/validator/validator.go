package validator

import (
	"telehealth-service/pkg/timefmt"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// isodate: calendar date in YYYY-MM-DD
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return timefmt.IsDate(fl.Field().String())
	})
	// clock12: published slot such as "09:30 AM"
	_ = v.RegisterValidation("clock12", func(fl validator.FieldLevel) bool {
		return timefmt.IsSlot(fl.Field().String())
	})

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "isodate":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "clock12":
				errors[field] = field + " must be a time in hh:MM AM/PM format"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
