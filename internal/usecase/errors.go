package usecase

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeAnalysisService      = "ANALYSIS_SERVICE_ERROR"
	CodeLeadNotFound         = "LEAD_NOT_FOUND"
	CodeLeadNotAvailable     = "LEAD_NOT_AVAILABLE"
	CodeAlreadySold          = "ALREADY_SOLD"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodePersistence          = "PERSISTENCE_ERROR"
)

// DomainError is a business rule failure. The caller can act on Code.
type DomainError struct {
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure (external service, storage).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code carried by a DomainError or TechnicalError, or "".
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(fields []FieldError) *DomainError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Error())
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(parts, ", "),
		Fields:  fields,
	}
}

func newAnalysisServiceError(err error) *TechnicalError {
	return &TechnicalError{Code: CodeAnalysisService, Message: "lead analysis failed", Err: err}
}

func newPersistenceError(op string, err error) *TechnicalError {
	return &TechnicalError{Code: CodePersistence, Message: op, Err: err}
}
