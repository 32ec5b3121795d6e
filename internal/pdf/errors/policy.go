package errors

import (
	"fmt"
	"strings"
)

// Policy decides what happens when a single content stream fails
type Policy int

const (
	// PolicySkip leaves the failing stream untouched and keeps tagging
	PolicySkip Policy = iota
	// PolicyAbort stops the whole run on the first failure
	PolicyAbort
)

// String returns the configuration name of the policy
func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "skip"
}

// ParsePolicy reads a policy name as used in configuration
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "skip", "continue":
		return PolicySkip, nil
	case "abort", "fail":
		return PolicyAbort, nil
	default:
		return PolicySkip, fmt.Errorf("unknown error policy %q (want skip or abort)", name)
	}
}

// ShouldAbort reports whether err ends the run under p. Unrecoverable
// errors always do.
func (p Policy) ShouldAbort(err *PDFError) bool {
	if err == nil {
		return false
	}
	return p == PolicyAbort || !err.Recoverable
}
