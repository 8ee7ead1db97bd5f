package utils

import (
	"fmt"
)

var (
	ErrClosed            = fmt.Errorf("Connection closed")
	ErrNotFound          = fmt.Errorf("Not found")
	ErrParse             = fmt.Errorf("Parse error")
	ErrProtocolViolation = fmt.Errorf("Protocol violation")
)

type DetailedError interface {
	error
	Details() string
}

type detailedError struct {
	message string
	details string
}

func NewDetailedError(message, details string) error {
	return &detailedError{
		message: message,
		details: details,
	}
}

func (e *detailedError) Details() string {
	return e.details
}

func (e *detailedError) Error() string {
	return e.message
}
