// Package errors provides custom error types for the Aktiva API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound      = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Asset category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategoryCode = &AppError{Code: "DUPLICATE_CATEGORY_CODE", Message: "A category with this code already exists", StatusCode: http.StatusConflict}
	ErrCategoryInUse         = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing assets", StatusCode: http.StatusConflict}
)

// Asset errors.
var (
	ErrAssetNotFound        = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrDuplicateAssetTag    = &AppError{Code: "DUPLICATE_ASSET_TAG", Message: "An asset with this tag already exists", StatusCode: http.StatusConflict}
	ErrSalvageExceedsPrice  = &AppError{Code: "SALVAGE_EXCEEDS_PRICE", Message: "Salvage value cannot exceed purchase price", StatusCode: http.StatusBadRequest}
	ErrAssetNotDepreciable  = &AppError{Code: "ASSET_NOT_DEPRECIABLE", Message: "Asset is missing the configuration required for depreciation", StatusCode: http.StatusBadRequest}
	ErrNoScheduleProjection = &AppError{Code: "NO_SCHEDULE_PROJECTION", Message: "No depreciation schedule can be projected for this asset", StatusCode: http.StatusNotFound}
)

// Depreciation run errors.
var (
	ErrExecutionNotFound        = &AppError{Code: "EXECUTION_NOT_FOUND", Message: "Depreciation execution not found", StatusCode: http.StatusNotFound}
	ErrExecutionNotCancellable  = &AppError{Code: "EXECUTION_NOT_CANCELLABLE", Message: "Execution is already in a terminal state", StatusCode: http.StatusConflict}
	ErrInvalidCalculationDate   = &AppError{Code: "INVALID_CALCULATION_DATE", Message: "Calculation date is invalid", StatusCode: http.StatusBadRequest}
	ErrAdjustmentExceedsBook    = &AppError{Code: "ADJUSTMENT_EXCEEDS_BOOK_VALUE", Message: "Adjustment would take book value below salvage", StatusCode: http.StatusBadRequest}
	ErrInvalidAdjustmentAmount  = &AppError{Code: "INVALID_ADJUSTMENT_AMOUNT", Message: "Adjustment amount must be positive", StatusCode: http.StatusBadRequest}
	ErrAssetFullyDepreciated    = &AppError{Code: "ASSET_FULLY_DEPRECIATED", Message: "Asset is already fully depreciated", StatusCode: http.StatusConflict}
	ErrConcurrentModification   = &AppError{Code: "CONCURRENT_MODIFICATION", Message: "Asset was modified by a concurrent run", StatusCode: http.StatusConflict}
)

// Schedule errors.
var (
	ErrScheduleNotFound     = &AppError{Code: "SCHEDULE_NOT_FOUND", Message: "Depreciation schedule not found", StatusCode: http.StatusNotFound}
	ErrInvalidCadence       = &AppError{Code: "INVALID_CADENCE", Message: "Unsupported schedule cadence", StatusCode: http.StatusBadRequest}
	ErrInvalidExecutionDay  = &AppError{Code: "INVALID_EXECUTION_DAY", Message: "Execution day must be between 1 and 31", StatusCode: http.StatusBadRequest}
	ErrDuplicateSchedule    = &AppError{Code: "DUPLICATE_SCHEDULE", Message: "A schedule with this name already exists", StatusCode: http.StatusConflict}
)

// IsAppError returns the AppError if err is one, nil otherwise.
func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
