package utils

import "errors"

// Sentinel errors shared across models and workflow. Handlers map each to a
// distinct HTTP status, so they must never be collapsed into a generic error.
var (
	ErrorRecordNotFound    = errors.New("record not found")
	ErrorValidation        = errors.New("validation failed")
	ErrorForbidden         = errors.New("not a party to this match")
	ErrorAttemptsExhausted = errors.New("maximum verification attempts exceeded")

	// ErrorDimensionMismatch is internal: embedding vectors of unequal length.
	// Scoring code degrades it to a zero image score instead of propagating.
	ErrorDimensionMismatch = errors.New("embedding dimension mismatch")
)
