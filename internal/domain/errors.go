package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string { return e.Field + " " + e.Reason }

// ValidationError reports malformed, missing, or out-of-range inputs.
// It is recoverable and carries one entry per offending field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// UnknownModelError is returned when a caller selects a model that is not
// in the registry.
type UnknownModelError struct {
	Name  string
	Known []string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

// ArtifactLoadError means the scaler or a model could not be loaded. It is
// fatal at startup.
type ArtifactLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load artifact %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load artifact %s (%s): %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// InferenceError wraps a failure raised by a model while predicting. The
// computation is deterministic, so callers must not retry it.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model %q inference failed: %v", e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUnknownModel reports whether err is (or wraps) an *UnknownModelError.
func IsUnknownModel(err error) bool {
	var u *UnknownModelError
	return errors.As(err, &u)
}

// IsInference reports whether err is (or wraps) an *InferenceError.
func IsInference(err error) bool {
	var i *InferenceError
	return errors.As(err, &i)
}

// ErrorKind is a stable label for metrics and logs.
func ErrorKind(err error) string {
	var art *ArtifactLoadError
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsUnknownModel(err):
		return "unknown_model"
	case IsInference(err):
		return "inference"
	case errors.As(err, &art):
		return "artifact"
	default:
		return "internal"
	}
}
