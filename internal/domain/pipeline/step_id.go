package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// stepIDPattern constrains IDs to colon-separated segments of word
// characters, dots, slashes, and dashes, e.g. "native:build" or
// "conda:install:cmake".
var stepIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_./-]*(?::[a-zA-Z0-9][a-zA-Z0-9_./-]*)*$`)

// StepID is the unique identifier of a step. The segment before the first
// colon names the owning area (backend, provider, campaign).
type StepID struct {
	value string
}

// NewStepID creates a validated StepID.
func NewStepID(value string) (StepID, error) {
	if value == "" {
		return StepID{}, fmt.Errorf("step ID cannot be empty")
	}
	if !stepIDPattern.MatchString(value) {
		return StepID{}, fmt.Errorf("invalid step ID %q", value)
	}
	return StepID{value: value}, nil
}

// MustNewStepID creates a StepID and panics on invalid input. Intended for
// compile-time-constant IDs.
func MustNewStepID(value string) StepID {
	id, err := NewStepID(value)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw ID.
func (id StepID) String() string {
	return id.value
}

// Area returns the segment before the first colon.
func (id StepID) Area() string {
	if i := strings.IndexByte(id.value, ':'); i >= 0 {
		return id.value[:i]
	}
	return id.value
}

// Equals compares two IDs.
func (id StepID) Equals(other StepID) bool {
	return id.value == other.value
}

// IsZero reports whether the ID is the zero value.
func (id StepID) IsZero() bool {
	return id.value == ""
}
