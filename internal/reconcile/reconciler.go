// Package reconcile resolves the Lead or Customer a Calendly event belongs to and records the event on it.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/isometry/calendly-webhook/internal/crm"
	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/pkg/errors"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger instance for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithPhoneQuestion overrides the booking form question mapped to the Lead phone.
func WithPhoneQuestion(question string) Option {
	return func(r *Reconciler) {
		if question != "" {
			r.phoneQuestion = question
		}
	}
}

// WithActor overrides the identity records are created and commented as.
func WithActor(actor crm.Actor) Option {
	return func(r *Reconciler) {
		r.actor = actor
	}
}

// Reconciler applies Calendly events to a crm.Store.
type Reconciler struct {
	store         crm.Store
	logger        *slog.Logger
	phoneQuestion string
	actor         crm.Actor
}

// Result describes the outcome of a reconciliation.
type Result struct {
	Target  crm.EntityRef
	Created bool
	Comment *crm.Comment
}

// LogValue groups the result attributes for structured logging.
func (r *Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("target", r.Target.String()),
		slog.Bool("created", r.Created),
	}
	if r.Comment != nil {
		attrs = append(attrs, slog.String("comment", r.Comment.Name))
	}
	return slog.GroupValue(attrs...)
}

// NewReconciler creates a Reconciler writing to store.
func NewReconciler(store crm.Store, opts ...Option) *Reconciler {
	_inst := &Reconciler{
		store:         store,
		logger:        helpers.NewNoopLogger(),
		phoneQuestion: DefaultPhoneQuestion,
		actor:         crm.SystemActor,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

// Reconcile attaches a note describing payload to the Lead or Customer owning its email,
// creating a Lead when none exists. Lookup, creation and comment run in one store transaction
// when the store supports it.
func (r *Reconciler) Reconcile(ctx context.Context, payload models.EventPayload) (*Result, error) {
	logger := r.logger.With(slog.String("email", payload.Email))
	note := NewNote(payload, r.phoneQuestion)

	result := &Result{}
	apply := func(store crm.Store) error {
		*result = Result{}
		return r.apply(ctx, store, payload, note, result)
	}

	err := r.store.Transaction(ctx, apply)
	if errors.Is(err, crm.ErrTransactionsUnsupported) {
		logger.Debug("store does not support transactions. applying without one...")
		err = apply(r.store)
		var rErr *Error
		if errors.As(err, &rErr) && rErr.Stage == StageComment && result.Created {
			logger.Error("lead created without comment", slog.String("lead", result.Target.Name), slog.Any("error", err))
			rErr.Cause = fmt.Errorf("%w: %w", ErrReconciliationPartialFailure, rErr.Cause)
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info("event reconciled", slog.Any("result", result))
	return result, nil
}

func (r *Reconciler) apply(ctx context.Context, store crm.Store, payload models.EventPayload, note Note, result *Result) error {
	target, err := r.resolve(ctx, store, payload.Email)
	if err != nil {
		return &Error{Stage: StageResolve, Cause: err}
	}

	if target == nil {
		lead := &crm.Lead{
			EmailID:  payload.Email,
			LeadName: payload.Name,
			Phone:    note.Phone,
		}
		ref, err := store.CreateLead(ctx, r.actor, lead)
		if err != nil {
			return &Error{Stage: StageCreate, Cause: err}
		}
		r.logger.Debug("created lead", slog.String("lead", ref.Name))
		target = &ref
		result.Created = true
	}
	result.Target = *target

	comment, err := store.AddComment(ctx, *target, note.Text, r.actor)
	if err != nil {
		return &Error{Stage: StageComment, Target: target, Cause: err}
	}
	result.Comment = comment
	return nil
}

// resolve returns the record owning email, or nil when no Lead matches.
// A converted Lead resolves to the Customer created from it.
func (r *Reconciler) resolve(ctx context.Context, store crm.Store, email string) (*crm.EntityRef, error) {
	leadRef, err := store.FindLeadByEmail(ctx, email)
	if err != nil || leadRef == nil {
		return nil, err
	}

	lead, err := store.LoadLead(ctx, leadRef.Name)
	if err != nil {
		return nil, err
	}
	if lead.Status != crm.LeadStatusConverted {
		return leadRef, nil
	}

	customerRef, err := store.FindCustomerByLeadName(ctx, lead.Name)
	if err != nil {
		return nil, err
	}
	if customerRef == nil {
		return nil, errors.Wrapf(crm.ErrNotFound, "no customer for converted lead %s", lead.Name)
	}
	customer, err := store.LoadCustomer(ctx, customerRef.Name)
	if err != nil {
		return nil, err
	}
	ref := customer.Ref()
	return &ref, nil
}
