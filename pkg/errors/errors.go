package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch failures: transport errors, timeouts, bad statuses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML or price parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeExtraction represents a listing missing a required field
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypePersistence represents catalog read/write errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// IngestError is an error raised somewhere in the ingestion pipeline
type IngestError struct {
	Type    ErrorType
	Site    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Site, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Site, e.Message)
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *IngestError) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork
}

// New creates a new IngestError
func New(errType ErrorType, site, message string, err error) *IngestError {
	return &IngestError{
		Type:    errType,
		Site:    site,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(site, message string, err error) *IngestError {
	return New(ErrorTypeNetwork, site, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(site, message string, err error) *IngestError {
	return New(ErrorTypeParsing, site, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(site, message string) *IngestError {
	return New(ErrorTypeExtraction, site, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(site, message string, err error) *IngestError {
	return New(ErrorTypePersistence, site, message, err)
}

// NewCache creates a new cache error
func NewCache(site, message string, err error) *IngestError {
	return New(ErrorTypeCache, site, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(site, message string, err error) *IngestError {
	return New(ErrorTypePublisher, site, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *IngestError {
	return New(ErrorTypeConfiguration, "", message, err)
}
