// Package source supplies patient records to the check-in workflow.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/patient-checkin/model"
)

var (
	// ErrPatientNotFound means no patient matches the captured face.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrNoFace means the query carried no face signature.
	ErrNoFace = errors.New("no face signature in query")
)

// Query is a face-match lookup request.
type Query struct {
	Signature string
}

// PatientSource resolves a face match to exactly one patient.
type PatientSource interface {
	FetchPatient(ctx context.Context, q Query) (model.Patient, error)
}

// Result is the outcome of a single fetch: either Patient or Err is set.
type Result struct {
	Patient model.Patient
	Err     error
}

// UnknownFailure wraps a non-error value raised by a source.
type UnknownFailure struct {
	Value interface{}
}

func (u *UnknownFailure) Error() string {
	return fmt.Sprintf("unknown failure: %v", u.Value)
}

// Fetch runs src in its own goroutine and delivers exactly one Result on the
// returned channel. A panic inside the source is delivered as an
// *UnknownFailure.
func Fetch(ctx context.Context, src PatientSource, q Query) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- Result{Err: &UnknownFailure{Value: r}}
			}
		}()
		p, err := src.FetchPatient(ctx, q)
		if err != nil {
			out <- Result{Err: err}
			return
		}
		out <- Result{Patient: p}
	}()
	return out
}
