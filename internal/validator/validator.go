// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"aktiva/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("depreciation_method", validateDepreciationMethod)
		_ = v.RegisterValidation("cadence", validateCadence)
		_ = v.RegisterValidation("execution_status", validateExecutionStatus)
	}
}

func validateDepreciationMethod(fl validator.FieldLevel) bool {
	return models.DepreciationMethod(fl.Field().String()).Valid()
}

func validateCadence(fl validator.FieldLevel) bool {
	return models.Cadence(fl.Field().String()).Valid()
}

func validateExecutionStatus(fl validator.FieldLevel) bool {
	switch models.ExecutionStatus(fl.Field().String()) {
	case models.ExecutionPending, models.ExecutionRunning, models.ExecutionCompleted,
		models.ExecutionFailed, models.ExecutionCancelled:
		return true
	}
	return false
}
