package pipeline

import (
	"fmt"
	"strings"
)

// ErrCode classifies step failures.
type ErrCode string

const (
	// ErrCodePrecondition marks a missing prerequisite the pipeline will
	// not install itself.
	ErrCodePrecondition ErrCode = "PRECONDITION_FAILED"

	// ErrCodeTool marks an external command that exited non-zero.
	ErrCodeTool ErrCode = "TOOL_FAILED"

	// ErrCodeArtifactMissing marks a build that reported success without
	// producing its expected artifact.
	ErrCodeArtifactMissing ErrCode = "ARTIFACT_MISSING"

	// ErrCodeCheck marks a failure while probing a step's status.
	ErrCodeCheck ErrCode = "CHECK_FAILED"

	// ErrCodeApply marks a failure while applying a step.
	ErrCodeApply ErrCode = "APPLY_FAILED"
)

// StepError is the pipeline's error type. Every fatal failure that reaches
// the caller is one of these, carrying a code, the offending step, and an
// optional remediation hint.
type StepError struct {
	Code       ErrCode
	Message    string
	StepID     StepID
	Suggestion string
	Underlying error
}

// Error renders the code, step, message, and underlying cause.
func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if !e.StepID.IsZero() {
		b.WriteString(" [" + e.StepID.String() + "]")
	}
	b.WriteString(": " + e.Message)
	if e.Underlying != nil {
		b.WriteString(": " + e.Underlying.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Format renders a multi-line, user-facing description including the
// suggestion when present.
func (e *StepError) Format() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Suggestion != "" {
		b.WriteString("\n  suggestion: " + e.Suggestion)
	}
	return b.String()
}

// WithStepID returns a copy attributed to the given step.
func (e *StepError) WithStepID(id StepID) *StepError {
	out := *e
	out.StepID = id
	return &out
}

// WithSuggestion returns a copy carrying a remediation hint.
func (e *StepError) WithSuggestion(suggestion string) *StepError {
	out := *e
	out.Suggestion = suggestion
	return &out
}

// NewToolError wraps a non-zero exit from an external command. The stderr
// tail is folded into the message so the failure is diagnosable from the
// run log alone.
func NewToolError(command string, exitCode int, stderr string) *StepError {
	msg := fmt.Sprintf("%s exited with code %d", command, exitCode)
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		msg += ": " + tail(trimmed, 400)
	}
	return &StepError{Code: ErrCodeTool, Message: msg}
}

// NewPreconditionError marks a missing prerequisite.
func NewPreconditionError(message string) *StepError {
	return &StepError{Code: ErrCodePrecondition, Message: message}
}

// NewArtifactMissingError marks a build whose expected output is absent.
// Distinct from a tool failure: the build command succeeded.
func NewArtifactMissingError(path string) *StepError {
	return &StepError{
		Code:    ErrCodeArtifactMissing,
		Message: fmt.Sprintf("expected build artifact %s not found", path),
	}
}

// NewCheckError wraps a failure during a step's status probe.
func NewCheckError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeCheck,
		Message:    fmt.Sprintf("checking step %s", stepID),
		Underlying: err,
	}
}

// NewApplyError wraps a failure during a step's apply. An underlying
// StepError keeps its own code so the taxonomy survives wrapping.
func NewApplyError(stepID string, err error) *StepError {
	if inner, ok := err.(*StepError); ok {
		if inner.StepID.IsZero() {
			return inner.WithStepID(MustNewStepID(stepID))
		}
		return inner
	}
	return &StepError{
		Code:       ErrCodeApply,
		Message:    fmt.Sprintf("applying step %s", stepID),
		StepID:     MustNewStepID(stepID),
		Underlying: err,
	}
}

// tail returns at most n trailing bytes of s, on a line boundary when one
// fits.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[len(s)-n:]
	if i := strings.IndexByte(cut, '\n'); i >= 0 && i < len(cut)-1 {
		cut = cut[i+1:]
	}
	return cut
}
