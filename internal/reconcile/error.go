package reconcile

import (
	"errors"
	"fmt"

	"github.com/isometry/calendly-webhook/internal/crm"
)

// ErrReconciliationPartialFailure marks a failure that left a created Lead without its comment.
var ErrReconciliationPartialFailure = errors.New("reconciliation partially applied")

// Stage names the reconciliation step an Error occurred in.
type Stage string

const (
	// StageResolve covers the lookup of the existing Lead or Customer.
	StageResolve Stage = "resolve"
	// StageCreate covers the creation of a new Lead.
	StageCreate Stage = "create"
	// StageComment covers attaching the note.
	StageComment Stage = "comment"
)

// Error is returned by Reconcile. Target is set once the record to comment on is known.
type Error struct {
	Stage  Stage
	Target *crm.EntityRef
	Cause  error
}

func (e *Error) Error() string {
	if e.Target != nil {
		return fmt.Sprintf("reconcile %s %s: %v", e.Stage, e.Target, e.Cause)
	}
	return fmt.Sprintf("reconcile %s: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
