// Package crm models the Lead, Customer and Comment records that webhook events are reconciled into.
package crm

import (
	"context"
	"errors"
	"time"
)

// Doctype names the kind of record a Comment is attached to.
type Doctype string

const (
	// DoctypeLead identifies Lead records.
	DoctypeLead Doctype = "Lead"
	// DoctypeCustomer identifies Customer records.
	DoctypeCustomer Doctype = "Customer"
)

const (
	// LeadStatusLead is the initial status of a Lead.
	LeadStatusLead = "Lead"
	// LeadStatusConverted marks a Lead that has been promoted to a Customer.
	LeadStatusConverted = "Converted"
)

var (
	// ErrNotFound is returned when a record referenced by name does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPermissionDenied is returned when an actor may not perform an operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStoreUnavailable wraps failures of the underlying database.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrTransactionsUnsupported is returned by Store.Transaction when the store cannot group writes.
	ErrTransactionsUnsupported = errors.New("transactions not supported")
)

// EntityRef identifies a Lead or Customer by doctype and name.
type EntityRef struct {
	Doctype Doctype
	Name    string
}

func (r EntityRef) String() string {
	return string(r.Doctype) + "/" + r.Name
}

// Lead is a prospective customer.
type Lead struct {
	Name      string
	EmailID   string
	LeadName  string
	Phone     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref returns the EntityRef of the Lead.
func (l *Lead) Ref() EntityRef {
	return EntityRef{Doctype: DoctypeLead, Name: l.Name}
}

// Customer is a converted account. LeadName holds the name of the Lead it was converted from.
type Customer struct {
	Name         string
	CustomerName string
	LeadName     string
	EmailID      string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ref returns the EntityRef of the Customer.
func (c *Customer) Ref() EntityRef {
	return EntityRef{Doctype: DoctypeCustomer, Name: c.Name}
}

// Comment is an append-only audit entry attached to a Lead or Customer.
type Comment struct {
	Name             string
	ReferenceDoctype Doctype
	ReferenceName    string
	Content          string
	CommentBy        string
	CommentEmail     string
	CreatedAt        time.Time
}

// Ref returns the EntityRef of the record the Comment is attached to.
func (c *Comment) Ref() EntityRef {
	return EntityRef{Doctype: c.ReferenceDoctype, Name: c.ReferenceName}
}

// Actor is the identity a store operation is performed as.
type Actor struct {
	Name  string
	Email string
	// IgnorePermissions allows the actor to create records without an authenticated user.
	IgnorePermissions bool
}

// SystemActor is the identity webhook integrations act as.
var SystemActor = Actor{
	Name:              "Administrator",
	Email:             "Administrator",
	IgnorePermissions: true,
}

// Store is the record store the reconciler reads from and writes to.
// Find methods return a nil ref and no error when nothing matches.
type Store interface {
	FindLeadByEmail(ctx context.Context, email string) (*EntityRef, error)
	LoadLead(ctx context.Context, name string) (*Lead, error)
	FindCustomerByLeadName(ctx context.Context, leadName string) (*EntityRef, error)
	LoadCustomer(ctx context.Context, name string) (*Customer, error)
	CreateLead(ctx context.Context, actor Actor, lead *Lead) (EntityRef, error)
	AddComment(ctx context.Context, ref EntityRef, content string, author Actor) (*Comment, error)
	// Transaction runs fn against a Store bound to a single transaction.
	Transaction(ctx context.Context, fn func(Store) error) error
}
