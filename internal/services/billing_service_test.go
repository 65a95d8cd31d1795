package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duebook/internal/amqp"
	"duebook/internal/core"
	"duebook/internal/log"
	"duebook/internal/persistence/memory"
	"duebook/internal/store"
)

type failingRepo struct {
	loadErr error
	saveErr error
	saves   int
}

func (r *failingRepo) Load(context.Context) ([]core.Record, error) {
	return nil, r.loadErr
}

func (r *failingRepo) Save(context.Context, []core.Record) error {
	r.saves++
	return r.saveErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishRecordEvent(_ context.Context, evt amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func client(name string, next core.Date, amt string) store.NewRecord {
	return store.NewRecord{
		Name:        name,
		StartDate:   next,
		NextDueDate: next,
		Amount:      decimal.RequireFromString(amt),
	}
}

func newTestService(repo *memory.Store, pub Publisher) *BillingService {
	return NewBillingService(store.New(), repo, pub, log.Discard())
}

func TestBillingService_AddSavesAndPublishes(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)

	rec, err := svc.AddClient(ctx, client("Acme", core.NewDate(2025, 1, 15), "100"))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ID)
	assert.Equal(t, 1, repo.Saves())

	saved, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Acme", saved[0].Name)

	assert.Equal(t, []amqp.EventType{amqp.EventCreated}, pub.types())
}

func TestBillingService_RejectedOperationsDoNotSave(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.AddClient(ctx, client("", core.NewDate(2025, 1, 15), "100"))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.MarkPaid(ctx, 5)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.DeleteClient(ctx, 5)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.UpdateClient(ctx, 5, store.SetName("x"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, 0, repo.Saves())
	assert.Empty(t, pub.types())
}

func TestBillingService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)

	rec, err := svc.AddClient(ctx, client("Acme", core.NewDate(2025, 1, 31), "100"))
	require.NoError(t, err)

	next, err := svc.MarkPaid(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 2, 28), next)

	updated, err := svc.UpdateClient(ctx, rec.ID, store.SetAmount(decimal.RequireFromString("120")))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("120")))

	sum := svc.MonthSummary(2, 2025)
	assert.Equal(t, 1, sum.Count())
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("120")))

	require.NoError(t, svc.DeleteClient(ctx, rec.ID))
	assert.Empty(t, svc.Clients())

	assert.Equal(t, []amqp.EventType{
		amqp.EventCreated, amqp.EventPaid, amqp.EventUpdated, amqp.EventDeleted,
	}, pub.types())
	assert.Equal(t, 4, repo.Saves())
}

func TestBillingService_SaveFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{saveErr: errors.New("disk full")}
	svc := NewBillingService(store.New(), repo, nil, log.Discard())

	rec, err := svc.AddClient(ctx, client("Acme", core.NewDate(2025, 1, 15), "100"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.NotErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 1, rec.ID)

	got, err := svc.Client(1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, 1, repo.saves)
}

func TestBillingService_PublishFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(memory.New(), pub)

	_, err := svc.AddClient(ctx, client("Acme", core.NewDate(2025, 1, 15), "100"))
	assert.NoError(t, err)
	assert.Len(t, pub.types(), 1)
}

func TestBillingService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("restores records and id counter", func(t *testing.T) {
		repo := memory.New(
			core.Record{ID: 4, Name: "a", StartDate: core.NewDate(2025, 1, 1), NextDueDate: core.NewDate(2025, 2, 1), Amount: decimal.NewFromInt(1)},
			core.Record{ID: 9, Name: "b", StartDate: core.NewDate(2025, 1, 1), NextDueDate: core.NewDate(2025, 2, 1), Amount: decimal.NewFromInt(2)},
		)
		svc := newTestService(repo, nil)
		require.NoError(t, svc.Load(ctx))
		assert.Len(t, svc.Clients(), 2)

		rec, err := svc.AddClient(ctx, client("c", core.NewDate(2025, 3, 1), "3"))
		require.NoError(t, err)
		assert.Equal(t, 10, rec.ID)
	})

	t.Run("failure starts empty", func(t *testing.T) {
		repo := &failingRepo{loadErr: errors.New("corrupt row")}
		st := store.New()
		_, err := st.Create(client("stale", core.NewDate(2025, 1, 1), "1"))
		require.NoError(t, err)

		svc := NewBillingService(st, repo, nil, log.Discard())
		err = svc.Load(ctx)
		assert.ErrorIs(t, err, core.ErrPersistence)
		assert.Empty(t, svc.Clients())
		assert.Equal(t, 1, st.NextID())
	})
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &core.ValidationError{Field: "name", Err: core.ErrEmptyName}, log.ErrorTypeValidation},
		{"not found", fmt.Errorf("client 7: %w", core.ErrNotFound), log.ErrorTypeNotFound},
		{"persistence", &core.PersistenceError{Op: log.OpSave, Err: errors.New("disk full")}, log.ErrorTypePersistence},
		{"other", errors.New("boom"), log.ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}
