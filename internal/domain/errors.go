package domain

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("access forbidden: you don't own this resource")
)

// Workflow errors
var (
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrPaymentAlreadyDecided   = errors.New("payment has already been reviewed")
	ErrDuplicatePendingPayment = errors.New("you already have a pending payment for this plan")
	ErrDecisionInProgress      = errors.New("another payment decision for this user is in progress")
	ErrReplyRequired           = errors.New("cannot mark as resolved/closed without replying to the ticket first")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidPriority         = errors.New("invalid priority")
	ErrInvalidCategory         = errors.New("invalid category")
	ErrTicketChanged           = errors.New("ticket status changed while replying")
)

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// ValidationError collects field errors for a single request
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a field error
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns the error only when at least one field failed
func (e *ValidationError) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsNotFound reports whether err is any of the not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}
