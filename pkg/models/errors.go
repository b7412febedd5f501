package models

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrInvalidData      = errors.New("invalid data")
	ErrInsufficientData = errors.New("insufficient data")
	ErrConfiguration    = errors.New("configuration error")
)

// InvalidDataError reports a malformed column, a negative amount, an order
// dated after the analysis date or a dataset over the row limit.
type InvalidDataError struct {
	Field  string
	Reason string
}

func (e *InvalidDataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid data: %s", e.Reason)
	}
	return fmt.Sprintf("invalid data: %s: %s", e.Field, e.Reason)
}

func (e *InvalidDataError) Is(target error) bool { return target == ErrInvalidData }

// InsufficientDataError is returned only when nothing can be computed at all,
// i.e. there is not a single customer.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Reason
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// ConfigurationError reports an invalid option (strategy, k, horizon, logging...).
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
