package service

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one kind in the closed placement error taxonomy.
// The HTTP layer maps codes to status codes; the engine never does.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	CodeBookNotFound      ErrorCode = "BOOK_NOT_FOUND"
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	CodeDatabase          ErrorCode = "DATABASE_ERROR"
)

// OrderPlacementError is the only error type PlaceOrder returns. Every
// failure is categorized into exactly one code; nothing escapes raw.
type OrderPlacementError struct {
	Code    ErrorCode
	Message string

	// Set only for CodeInsufficientStock.
	BookTitle string
	Available int
	Requested int

	cause error
}

func (e *OrderPlacementError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OrderPlacementError) Unwrap() error {
	return e.cause
}

func newValidationError(format string, args ...interface{}) *OrderPlacementError {
	return &OrderPlacementError{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func newUserNotFoundError(userID string) *OrderPlacementError {
	return &OrderPlacementError{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("user not found: %s", userID),
	}
}

func newBookNotFoundError(bookID string) *OrderPlacementError {
	return &OrderPlacementError{
		Code:    CodeBookNotFound,
		Message: fmt.Sprintf("book not found: %s", bookID),
	}
}

func newInsufficientStockError(title string, available, requested int) *OrderPlacementError {
	return &OrderPlacementError{
		Code:      CodeInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock for %q: available=%d, requested=%d", title, available, requested),
		BookTitle: title,
		Available: available,
		Requested: requested,
	}
}

func newDatabaseError(cause error) *OrderPlacementError {
	return &OrderPlacementError{
		Code:    CodeDatabase,
		Message: "failed to place order due to database error",
		cause:   cause,
	}
}

// AsPlacementError extracts the taxonomy error from err, if any.
func AsPlacementError(err error) (*OrderPlacementError, bool) {
	var placementErr *OrderPlacementError
	if errors.As(err, &placementErr) {
		return placementErr, true
	}
	return nil, false
}
