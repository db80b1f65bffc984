package core

import (
	"errors"
	"regexp"
)

// ErrNotFound is a sentinel error for "not found" cases: unknown user, channel
// or bot ids encountered during rendering. Fatal for the single message being
// rendered, never for the whole digest.
var ErrNotFound = errors.New("not found")

// ErrUnrenderableMessage marks a message record that matches none of the known
// author-resolution shapes. Treated the same as a lookup failure.
var ErrUnrenderableMessage = errors.New("unrenderable message shape")

// ErrPartitionInfeasible means a single message alone cannot fit under the
// email size ceiling. Fatal for the whole digest run - no partial digest is
// emitted.
var ErrPartitionInfeasible = errors.New("partition infeasible")

// ErrEmptyDigest marks the caller-error precondition of rendering header text
// with no messages and no date fallback.
var ErrEmptyDigest = errors.New("no messages and no date hint")

// IsNotFoundError checks if an error is a "not found" error
// This function handles both the ErrNotFound sentinel error and string-based errors
// coming from external SDKs
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	// Check for the sentinel error
	if errors.Is(err, ErrNotFound) {
		return true
	}
	// Check for string-based errors from SDK responses
	return containsNotFound(err.Error())
}

// containsNotFound checks if an error message contains "not found"
func containsNotFound(errMsg string) bool {
	// Use case-insensitive matching for various "not found" formats
	return len(errMsg) > 0 && (regexp.MustCompile(`(?i)not found`).MatchString(errMsg))
}
