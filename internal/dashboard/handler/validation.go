package handler

import (
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
)

const periodTag = "dashboard_period"

// registerValidations adds the dashboard specific struct tags to val.
func registerValidations(val *validator.Validator) {
	// Only fails on an empty tag or nil func.
	_ = val.RegisterValidation(periodTag, func(fl govalidator.FieldLevel) bool {
		_, err := domain.ParsePeriod(fl.Field().String())
		return err == nil
	})
}
