package models

import "fmt"

// Error codes used in logs and internal error handling.
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeSiteUnavailable    = "SITE_UNAVAILABLE"
	ErrCodeResultsTimeout     = "RESULTS_TIMEOUT"
	ErrCodeBrowserLaunch      = "BROWSER_LAUNCH_FAILED"
	ErrCodeExtraction         = "EXTRACTION_FAILED"
	ErrCodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Fixed client-facing messages for /property-search input validation.
const (
	MsgNotJSON              = "Request must be JSON"
	MsgNoFormData           = "No form data provided"
	MsgPropertyTypeRequired = "Property type is required"
	MsgResultsTimeout       = "Timeout waiting for results"
	MsgNoRecords            = "No records found"
)

// SearchError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type SearchError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError creates a new SearchError.
func NewSearchError(code, message string, err error) *SearchError {
	return &SearchError{Code: code, Message: message, Err: err}
}

// ErrorResponse is the body of every 4xx rejection on the search endpoint
// and of the protective middleware.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetailResponse is the error body of the dataset API.
type DetailResponse struct {
	Detail string `json:"detail"`
}
