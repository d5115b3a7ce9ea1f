package security

import (
	"errors"
	"fmt"
)

// ErrorSeverity represents the severity level of security events
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// TokenError represents errors related to token operations
type TokenError struct {
	Operation string
	Message   string
	Err       error
}

func NewTokenError(operation, message string) *TokenError {
	return &TokenError{
		Operation: operation,
		Message:   message,
	}
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("token %s failed: %s", e.Operation, e.Message)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

func (e *TokenError) WithCause(err error) *TokenError {
	e.Err = err
	return e
}

// CryptoError represents errors from cryptographic operations
type CryptoError struct {
	Operation string
	Message   string
	Err       error
}

func NewCryptoError(operation, message string) *CryptoError {
	return &CryptoError{
		Operation: operation,
		Message:   message,
	}
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto %s failed: %s", e.Operation, e.Message)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

func (e *CryptoError) WithCause(err error) *CryptoError {
	e.Err = err
	return e
}

// ListenerError represents failures of the local OAuth redirect listener
type ListenerError struct {
	Host    string
	Port    int
	Message string
	Err     error
}

func NewListenerError(host string, port int, message string) *ListenerError {
	return &ListenerError{
		Host:    host,
		Port:    port,
		Message: message,
	}
}

func (e *ListenerError) Error() string {
	if e.Port > 0 {
		return fmt.Sprintf("redirect listener on %s:%d: %s", e.Host, e.Port, e.Message)
	}
	return fmt.Sprintf("redirect listener on %s: %s", e.Host, e.Message)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

func (e *ListenerError) WithCause(err error) *ListenerError {
	e.Err = err
	return e
}

// ConfigError represents configuration loading and validation errors
type ConfigError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func NewConfigError(field, value, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("config %s=%s: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) WithCause(err error) *ConfigError {
	e.Err = err
	return e
}

// IsCriticalError determines if an error requires immediate attention
func IsCriticalError(err error) bool {
	// Crypto errors indicate a corrupted or foreign token file
	var cryptoErr *CryptoError
	return errors.As(err, &cryptoErr)
}
