package services

import (
	"context"
	"errors"

	"duebook/internal/amqp"
	"duebook/internal/core"
	"duebook/internal/log"
	"duebook/internal/persistence"
	"duebook/internal/store"
)

// Publisher receives record events after each applied mutation.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, evt amqp.RecordEvent) error
}

// BillingService applies record operations to the in-memory store, saves a
// full snapshot after every mutation and publishes an event when a
// publisher is configured.
type BillingService struct {
	store     *store.Store
	repo      persistence.Repository
	publisher Publisher
	logger    *log.Logger
}

func NewBillingService(st *store.Store, repo persistence.Repository, publisher Publisher, logger *log.Logger) *BillingService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BillingService{
		store:     st,
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBilling),
	}
}

// Load replaces the store content with what the repository holds. On
// failure the store is left empty and a PersistenceError is returned.
func (s *BillingService) Load(ctx context.Context) error {
	records, err := s.repo.Load(ctx)
	if err == nil {
		err = s.store.Replace(records)
	}
	if err != nil {
		_ = s.store.Replace(nil)
		loadErr := &core.PersistenceError{Op: log.OpLoad, Err: err}
		s.logger.ErrorContext(ctx, "Failed to load records, starting empty",
			append(log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice(), "error_type", errorType(loadErr))...)
		return loadErr
	}

	s.logger.InfoContext(ctx, "Records loaded",
		log.FieldCount, len(records),
		"next_id", s.store.NextID())
	return nil
}

// AddClient creates a record. The returned error is a ValidationError when
// nothing was created, or a PersistenceError when the record exists in
// memory but could not be saved.
func (s *BillingService) AddClient(ctx context.Context, nr store.NewRecord) (core.Record, error) {
	id, err := s.store.Create(nr)
	if err != nil {
		s.logRejected(ctx, log.OpCreate, 0, err)
		return core.Record{}, err
	}
	rec, _ := s.store.Get(id)
	return rec, s.commit(ctx, log.OpCreate, amqp.EventCreated, rec)
}

func (s *BillingService) Client(id int) (core.Record, error) {
	return s.store.Get(id)
}

func (s *BillingService) Clients() []core.Record {
	return s.store.All()
}

func (s *BillingService) UpdateClient(ctx context.Context, id int, u store.Update) (core.Record, error) {
	if err := s.store.UpdateField(id, u); err != nil {
		s.logRejected(ctx, log.OpUpdate, id, err)
		return core.Record{}, err
	}
	rec, _ := s.store.Get(id)
	return rec, s.commit(ctx, log.OpUpdate, amqp.EventUpdated, rec)
}

func (s *BillingService) DeleteClient(ctx context.Context, id int) error {
	rec, err := s.store.Get(id)
	if err != nil {
		s.logRejected(ctx, log.OpDelete, id, err)
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	return s.commit(ctx, log.OpDelete, amqp.EventDeleted, rec)
}

// MarkPaid records a payment and returns the new next due date.
func (s *BillingService) MarkPaid(ctx context.Context, id int) (core.Date, error) {
	next, err := s.store.MarkPaid(id)
	if err != nil {
		s.logRejected(ctx, log.OpMarkPaid, id, err)
		return core.Date{}, err
	}
	rec, _ := s.store.Get(id)
	return next, s.commit(ctx, log.OpMarkPaid, amqp.EventPaid, rec)
}

func (s *BillingService) MonthSummary(month, year int) core.MonthSummary {
	return s.store.MonthSummary(month, year)
}

func (s *BillingService) commit(ctx context.Context, op string, evt amqp.EventType, rec core.Record) error {
	fields := log.NewFields().
		WithOperation(op).
		WithRecord(rec.ID, rec.Name)
	if evt != amqp.EventDeleted {
		fields.WithDue(rec.Amount.String(), rec.NextDueDate.String())
	}

	var saveErr error
	if err := s.repo.Save(ctx, s.store.All()); err != nil {
		saveErr = &core.PersistenceError{Op: log.OpSave, Err: err}
		s.logger.ErrorContext(ctx, "Change kept in memory but not saved",
			append(fields.WithError(err).ToSlice(), "error_type", errorType(saveErr))...)
	} else {
		s.logger.InfoContext(ctx, "Record change saved", fields.ToSlice()...)
	}

	s.publish(ctx, amqp.NewRecordEvent(evt, rec))
	return saveErr
}

func (s *BillingService) publish(ctx context.Context, evt amqp.RecordEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, evt); err != nil {
		// The change is already applied and saved
		s.logger.WarnContext(ctx, "Failed to publish record event",
			"type", evt.Type,
			log.FieldRecordID, evt.RecordID,
			log.FieldError, err)
	}
}

func (s *BillingService) logRejected(ctx context.Context, op string, id int, err error) {
	s.logger.WarnContext(ctx, "Operation rejected",
		log.FieldOperation, op,
		log.FieldRecordID, id,
		"error_type", errorType(err),
		log.FieldError, err)
}

// errorType maps an operation error to its log category.
func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrPersistence):
		return log.ErrorTypePersistence
	default:
		return log.ErrorTypeInternal
	}
}
