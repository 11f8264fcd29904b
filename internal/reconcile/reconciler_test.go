package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/isometry/calendly-webhook/internal/crm"
	"github.com/isometry/calendly-webhook/internal/crm/crmtest"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPayload = models.EventPayload{
	Email: "a@x.com",
	Name:  "Jane",
	QuestionsAndAnswers: []models.QuestionAndAnswer{
		{Question: "Telefonnummer", Answer: "+491234"},
	},
	CancelURL:     "C",
	RescheduleURL: "R",
}

// nonTransactionalStore behaves like a store without transaction support whose comments can fail.
type nonTransactionalStore struct {
	*crm.GormStore
	commentErr error
}

func (s *nonTransactionalStore) Transaction(context.Context, func(crm.Store) error) error {
	return crm.ErrTransactionsUnsupported
}

func (s *nonTransactionalStore) AddComment(ctx context.Context, ref crm.EntityRef, content string, author crm.Actor) (*crm.Comment, error) {
	if s.commentErr != nil {
		return nil, s.commentErr
	}
	return s.GormStore.AddComment(ctx, ref, content, author)
}

func TestReconcile_CreatesLead(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	result, err := reconcile.NewReconciler(store).Reconcile(ctx, testPayload)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, crm.DoctypeLead, result.Target.Doctype)

	lead, err := store.LoadLead(ctx, result.Target.Name)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", lead.EmailID)
	assert.Equal(t, "Jane", lead.LeadName)
	assert.Equal(t, "+491234", lead.Phone)

	comments, err := store.ListComments(ctx, result.Target)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	content := comments[0].Content
	assert.Contains(t, content, "Jane created a new Event")
	assert.Contains(t, content, "Telefonnummer")
	assert.Contains(t, content, "+491234")
	assert.Contains(t, content, `<a href="C">Cancel</a>`)
	assert.Contains(t, content, `<a href="R">Reschedule</a>`)
	assert.Equal(t, "Administrator", comments[0].CommentBy)
	assert.Equal(t, result.Comment.Name, comments[0].Name)
}

func TestReconcile_ExistingLead(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	existing := &crm.Lead{EmailID: "a@x.com", LeadName: "Jane Doe", Phone: "+4900"}
	ref, err := store.CreateLead(ctx, crm.SystemActor, existing)
	require.NoError(t, err)

	result, err := reconcile.NewReconciler(store).Reconcile(ctx, testPayload)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, ref, result.Target)

	lead, err := store.LoadLead(ctx, ref.Name)
	require.NoError(t, err)
	assert.Equal(t, "+4900", lead.Phone, "existing leads are not updated")

	leads, err := store.ListLeadsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestReconcile_ConvertedLeadCommentsOnCustomer(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	lead := &crm.Lead{EmailID: "a@x.com", LeadName: "Jane"}
	leadRef, err := store.CreateLead(ctx, crm.SystemActor, lead)
	require.NoError(t, err)
	customer, err := store.ConvertLead(ctx, crm.SystemActor, lead.Name, "Jane GmbH")
	require.NoError(t, err)

	result, err := reconcile.NewReconciler(store).Reconcile(ctx, testPayload)
	require.NoError(t, err)
	assert.Equal(t, customer.Ref(), result.Target)

	customerComments, err := store.ListComments(ctx, customer.Ref())
	require.NoError(t, err)
	assert.Len(t, customerComments, 1)

	leadComments, err := store.ListComments(ctx, leadRef)
	require.NoError(t, err)
	assert.Empty(t, leadComments)
}

func TestReconcile_ConvertedLeadWithoutCustomer(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	_, err := store.CreateLead(ctx, crm.SystemActor, &crm.Lead{EmailID: "a@x.com", Status: crm.LeadStatusConverted})
	require.NoError(t, err)

	_, err = reconcile.NewReconciler(store).Reconcile(ctx, testPayload)
	assert.ErrorIs(t, err, crm.ErrNotFound)
	var rErr *reconcile.Error
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, reconcile.StageResolve, rErr.Stage)
}

func TestReconcile_RepeatedNewEmailCreatesOneLeadWhenSequential(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)
	r := reconcile.NewReconciler(store)

	first, err := r.Reconcile(ctx, testPayload)
	require.NoError(t, err)
	second, err := r.Reconcile(ctx, testPayload)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Target, second.Target)
}

func TestReconcile_NoUniquenessOnEmail(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	// Two deliveries that both observed "no lead" each create one; nothing deduplicates them.
	for i := 0; i < 2; i++ {
		_, err := store.CreateLead(ctx, crm.SystemActor, &crm.Lead{EmailID: "a@x.com", LeadName: "Jane"})
		require.NoError(t, err)
	}
	leads, err := store.ListLeadsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	result, err := reconcile.NewReconciler(store).Reconcile(ctx, testPayload)
	require.NoError(t, err)
	assert.False(t, result.Created)
}

func TestReconcile_TransactionRollsBackLeadOnCommentFailure(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	// A doctype the store cannot comment on fails the comment stage after the lead insert.
	r := reconcile.NewReconciler(&failingCommentStore{GormStore: store})
	_, err := r.Reconcile(ctx, testPayload)
	var rErr *reconcile.Error
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, reconcile.StageComment, rErr.Stage)
	assert.NotErrorIs(t, err, reconcile.ErrReconciliationPartialFailure)

	leads, err := store.ListLeadsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestReconcile_PartialFailureWithoutTransactions(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)
	errComment := errors.New("comment table locked")

	r := reconcile.NewReconciler(&nonTransactionalStore{GormStore: store, commentErr: errComment})
	_, err := r.Reconcile(ctx, testPayload)
	assert.ErrorIs(t, err, reconcile.ErrReconciliationPartialFailure)
	assert.ErrorIs(t, err, errComment)

	leads, err := store.ListLeadsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, leads, 1, "the lead insert is not undone")
}

func TestReconcile_WithoutTransactionsSucceeds(t *testing.T) {
	ctx := context.Background()
	store := crmtest.NewStore(t)

	result, err := reconcile.NewReconciler(&nonTransactionalStore{GormStore: store}).Reconcile(ctx, testPayload)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotNil(t, result.Comment)
}

func TestReconcile_UnprivilegedActor(t *testing.T) {
	store := crmtest.NewStore(t)

	r := reconcile.NewReconciler(store, reconcile.WithActor(crm.Actor{Name: "guest"}))
	_, err := r.Reconcile(context.Background(), testPayload)
	assert.ErrorIs(t, err, crm.ErrPermissionDenied)
	var rErr *reconcile.Error
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, reconcile.StageCreate, rErr.Stage)
}

// failingCommentStore keeps transactions but rejects every comment.
type failingCommentStore struct {
	*crm.GormStore
}

func (s *failingCommentStore) Transaction(ctx context.Context, fn func(crm.Store) error) error {
	return s.GormStore.Transaction(ctx, func(tx crm.Store) error {
		return fn(&failingCommentStore{GormStore: tx.(*crm.GormStore)})
	})
}

func (s *failingCommentStore) AddComment(ctx context.Context, ref crm.EntityRef, content string, author crm.Actor) (*crm.Comment, error) {
	return s.GormStore.AddComment(ctx, crm.EntityRef{Doctype: "Opportunity", Name: ref.Name}, content, author)
}
