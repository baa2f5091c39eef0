package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRender represents browser rendering errors
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeDispatch represents URL dispatch errors
	ErrorTypeDispatch ErrorType = "dispatch"
	// ErrorTypeModelService represents model-number service errors
	ErrorTypeModelService ErrorType = "model_service"
	// ErrorTypeMatcher represents product matching/merging errors
	ErrorTypeMatcher ErrorType = "matcher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a scraper-specific error
type ScrapeError struct {
	Type    ErrorType
	Site    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Site, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Site, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeRender:
		return true
	case ErrorTypeModelService:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, site, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Site:    site,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(site, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, site, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(site, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, site, message, err)
}

// NewRender creates a new browser rendering error
func NewRender(site, message string, err error) *ScrapeError {
	return New(ErrorTypeRender, site, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(site string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, site, message, nil)
}

// NewDispatch creates a new dispatch error
func NewDispatch(message string, err error) *ScrapeError {
	return New(ErrorTypeDispatch, "", message, err)
}

// NewModelService creates a new model-number service error
func NewModelService(site, message string, err error) *ScrapeError {
	return New(ErrorTypeModelService, site, message, err)
}

// NewMatcher creates a new matcher error
func NewMatcher(message string, err error) *ScrapeError {
	return New(ErrorTypeMatcher, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(site, message string) *ScrapeError {
	return New(ErrorTypeValidation, site, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
