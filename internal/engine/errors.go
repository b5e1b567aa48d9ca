package engine

import (
	"errors"
	"fmt"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
)

// Pipeline stages.
const (
	StageOCR       = "ocr"
	StageStructure = "structure"
	StageValidate  = "validate"
	StageAppend    = "append"
	StageCategory  = "category"
)

// StageError reports which pipeline stage failed. Raw carries the input the
// stage rejected, if any: the classifier output for malformed JSON, the
// decoded document for other validation failures.
type StageError struct {
	Err   error
	Raw   any
	Stage string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed spreadsheet append.
type PersistenceError struct {
	Err    error
	Target string
}

func (e *PersistenceError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("spreadsheet append failed: %v", e.Err)
	}
	return fmt.Sprintf("spreadsheet append to %s failed: %v", e.Target, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{common.ErrPersistence, e.Err}
}

// ErrorPayload is the structured error returned across the tool boundary.
type ErrorPayload struct {
	Raw   any    `json:"raw,omitempty"`
	Error string `json:"error"`
}

// NewErrorPayload converts err into a payload, carrying the offending input
// when a stage recorded one.
func NewErrorPayload(err error) ErrorPayload {
	if err == nil {
		return ErrorPayload{}
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return ErrorPayload{Error: stageErr.Err.Error(), Raw: stageErr.Raw}
	}
	return ErrorPayload{Error: err.Error()}
}
