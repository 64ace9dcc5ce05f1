// Package errors defines the error taxonomy for the cleaning pipeline.
//
// Every failure that aborts a run is a *PipelineError carrying a Type from
// the fixed set below plus enough context (row, question, label) to locate
// the offending cell in the raw workbook. The pipeline never skips bad data
// silently: anything unexpected becomes a PipelineError and stops the run.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies a pipeline failure
type ErrorType string

const (
	// ErrTypeLoad covers unreadable workbooks, missing sheets and
	// missing required columns.
	ErrTypeLoad ErrorType = "LOAD"
	// ErrTypeCodeframe covers structural problems in the codeframe
	// document itself (duplicate codes, unknown references).
	ErrTypeCodeframe ErrorType = "CODEFRAME"
	// ErrTypeConfig covers invalid run configuration.
	ErrTypeConfig ErrorType = "CONFIG"
	// ErrTypeMapping is raised when a response label has no code in the
	// codeframe and the unmapped-label policy is fail.
	ErrTypeMapping ErrorType = "MAPPING"
	// ErrTypeFilterAmbiguity is raised when a record matches no validation
	// outcome cleanly, for example an empty value in a key variable under
	// the fail policy.
	ErrTypeFilterAmbiguity ErrorType = "FILTER_AMBIGUITY"
	// ErrTypeDateOrder is raised when a completion date precedes the
	// survey start date.
	ErrTypeDateOrder ErrorType = "DATE_ORDER"
	// ErrTypeExport covers failures while writing output artifacts.
	ErrTypeExport ErrorType = "EXPORT"
)

// PipelineError is the error type used throughout the pipeline
type PipelineError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with PipelineError
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error. Well-known keys are "row",
// "column", "question", "label", "respondent_id", "file" and "sheet".
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewPipelineError creates a new pipeline error
func NewPipelineError(errType ErrorType, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the error types the stages raise

// NewLoadError creates an error for workbook reading failures
func NewLoadError(message string, cause error) *PipelineError {
	return NewPipelineError(ErrTypeLoad, message, cause)
}

// NewCodeframeError creates an error for codeframe document problems
func NewCodeframeError(message string, cause error) *PipelineError {
	return NewPipelineError(ErrTypeCodeframe, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *PipelineError {
	return NewPipelineError(ErrTypeConfig, message, cause)
}

// NewMappingError creates an error for a label with no code in the codeframe
func NewMappingError(question, label string) *PipelineError {
	return NewPipelineError(ErrTypeMapping,
		fmt.Sprintf("no code defined for response %q to %s", label, question), nil).
		WithContext("question", question).
		WithContext("label", label)
}

// NewFilterAmbiguityError creates an error for a record that cannot be
// classified as clean or rejected
func NewFilterAmbiguityError(respondentID, message string) *PipelineError {
	return NewPipelineError(ErrTypeFilterAmbiguity,
		fmt.Sprintf("respondent %s: %s", respondentID, message), nil).
		WithContext("respondent_id", respondentID)
}

// NewDateOrderError creates an error for a completion date before the
// survey start date
func NewDateOrderError(respondentID string, completed, start time.Time) *PipelineError {
	return NewPipelineError(ErrTypeDateOrder,
		fmt.Sprintf("respondent %s: completion date %s precedes survey start %s",
			respondentID, completed.Format("2006-01-02"), start.Format("2006-01-02")), nil).
		WithContext("respondent_id", respondentID)
}

// NewExportError creates an error for output writing failures
func NewExportError(message string, cause error) *PipelineError {
	return NewPipelineError(ErrTypeExport, message, cause)
}

// IsType reports whether err is (or wraps) a PipelineError of the given type
func IsType(err error, errType ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == errType
	}
	return false
}

// TypeOf returns the ErrorType of err, or an empty string if err is not a
// PipelineError
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}
