package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the pipeline and the store.
var (
	// ErrInput marks empty or invalid user input.
	ErrInput = errors.New("invalid input")
	// ErrConfiguration marks missing credentials or model list.
	ErrConfiguration = errors.New("configuration error")
	// ErrClassificationUnavailable means every model candidate failed.
	ErrClassificationUnavailable = errors.New("classification unavailable")
	// ErrMalformedResponse means the classifier output had no usable record.
	ErrMalformedResponse = errors.New("malformed classifier response")
	// ErrOwnerNotFound means a task append targeted a missing list or plan.
	ErrOwnerNotFound = errors.New("owner not found")
)

// ModelAttempt records one failed candidate call.
type ModelAttempt struct {
	Model string
	Err   error
}

// ClassificationError is returned when all candidates failed.
type ClassificationError struct {
	Attempts []ModelAttempt
}

func (e *ClassificationError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrClassificationUnavailable.Error()
	}
	models := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		models[i] = a.Model
	}
	return fmt.Sprintf("%s: tried %s: %v", ErrClassificationUnavailable, strings.Join(models, ", "), e.Last())
}

// Last returns the error from the final attempt.
func (e *ClassificationError) Last() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

func (e *ClassificationError) Is(target error) bool { return target == ErrClassificationUnavailable }
func (e *ClassificationError) Unwrap() error        { return e.Last() }

// MalformedResponseError describes why a raw response was rejected.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }
