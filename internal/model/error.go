package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidObservation = "INVALID_OBSERVATION"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAmbiguousMatch     = "AMBIGUOUS_MATCH"
	ErrCodeIncomparablePrice  = "INCOMPARABLE_PRICE"
	ErrCodeEmptyInput         = "EMPTY_INPUT"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidObservation = NewDomainError(ErrCodeInvalidObservation, "Observation must have a name, URL and price")
	ErrInvalidCategory    = NewDomainError(ErrCodeInvalidCategory, "Invalid equipment type")
	ErrStorageUnavailable = NewDomainError(ErrCodeStorageUnavailable, "Equipment store is unavailable")
	ErrNotFound           = NewDomainError(ErrCodeNotFound, "No matching equipment found")
	ErrAmbiguousMatch     = NewDomainError(ErrCodeAmbiguousMatch, "Multiple matching records found, narrow the name or site")
	ErrIncomparablePrice  = NewDomainError(ErrCodeIncomparablePrice, "Prices could not be compared")
	ErrEmptyInput         = NewDomainError(ErrCodeEmptyInput, "Input is empty after trimming")
	ErrNameRequired       = NewDomainError(ErrCodeMissingField, "Equipment name is required")
	ErrSiteRequired       = NewDomainError(ErrCodeMissingField, "Name and site are required")
)
