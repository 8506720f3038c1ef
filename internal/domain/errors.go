package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidCourseStatus     = NewDomainError(ErrCodeValidation, "invalid course status")
	ErrInvalidAssigneeType     = NewDomainError(ErrCodeValidation, "invalid assignee type")
	ErrInvalidContentType      = NewDomainError(ErrCodeValidation, "invalid content type")
	ErrInvalidAssignmentType   = NewDomainError(ErrCodeValidation, "invalid assignment type")
	ErrInvalidIndexJobStatus   = NewDomainError(ErrCodeValidation, "invalid index job status")
	ErrInvalidScopeType        = NewDomainError(ErrCodeValidation, "invalid context scope type")
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidConversationRole = NewDomainError(ErrCodeValidation, "invalid conversation role")
)

// Not found errors
var (
	ErrCourseNotFound       = NewDomainError(ErrCodeNotFound, "course not found")
	ErrModuleNotFound       = NewDomainError(ErrCodeNotFound, "module not found")
	ErrLessonNotFound       = NewDomainError(ErrCodeNotFound, "lesson not found")
	ErrResourceNotFound     = NewDomainError(ErrCodeNotFound, "resource not found")
	ErrCollectionNotFound   = NewDomainError(ErrCodeNotFound, "collection not found")
	ErrProfileNotFound      = NewDomainError(ErrCodeNotFound, "profile not found")
	ErrOrganizationNotFound = NewDomainError(ErrCodeNotFound, "organization not found")
	ErrGroupNotFound        = NewDomainError(ErrCodeNotFound, "group not found")
	ErrAgentConfigNotFound  = NewDomainError(ErrCodeNotFound, "agent config not found")
	ErrConversationNotFound = NewDomainError(ErrCodeNotFound, "conversation not found")
	ErrAPIKeyNotFound       = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrOrganizationAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "organization already exists")
	ErrAPIKeyAlreadyExists       = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
)
