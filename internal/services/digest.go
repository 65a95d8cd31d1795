package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"duebook/internal/amqp"
	"duebook/internal/core"
	"duebook/internal/log"
	"duebook/internal/persistence"
	"duebook/internal/store"
)

// DueDigest summarizes what is owed as of a reference day.
type DueDigest struct {
	AsOf     core.Date
	Due      []core.Record // next due date on or before AsOf
	DueTotal decimal.Decimal
	Month    core.MonthSummary // the month containing AsOf
}

// BuildDigest computes the digest from the store content.
func BuildDigest(st *store.Store, asOf core.Date) DueDigest {
	due := st.DueBy(asOf)
	total := decimal.Zero
	for _, rec := range due {
		total = total.Add(rec.Amount)
	}
	return DueDigest{
		AsOf:     asOf,
		Due:      due,
		DueTotal: total,
		Month:    st.MonthSummary(asOf.Month(), asOf.Year()),
	}
}

// Message converts the digest to its wire form.
func (d DueDigest) Message() amqp.DigestMessage {
	entries := make([]amqp.DigestEntry, 0, len(d.Due))
	for _, rec := range d.Due {
		entries = append(entries, amqp.DigestEntry{
			RecordID:    rec.ID,
			Name:        rec.Name,
			Amount:      rec.Amount.String(),
			NextDueDate: rec.NextDueDate.String(),
		})
	}
	return amqp.DigestMessage{
		MessageID:  uuid.NewString(),
		Type:       amqp.EventDigest,
		AsOf:       d.AsOf.String(),
		Due:        entries,
		DueTotal:   d.DueTotal.String(),
		Month:      d.Month.Month,
		Year:       d.Month.Year,
		MonthTotal: d.Month.Total.String(),
		MonthCount: d.Month.Count(),
		Timestamp:  time.Now().UTC(),
	}
}

// DigestPublisher delivers a built digest.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, msg amqp.DigestMessage) error
}

// DigestProcessor reloads the records on every run and reports what is due.
// It never writes to storage.
type DigestProcessor struct {
	loader    persistence.RecordLoader
	publisher DigestPublisher
	logger    *log.Logger
}

func NewDigestProcessor(loader persistence.RecordLoader, publisher DigestPublisher, logger *log.Logger) *DigestProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DigestProcessor{
		loader:    loader,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentDigest),
	}
}

// Process builds the digest for the calendar day of now and publishes it.
func (p *DigestProcessor) Process(ctx context.Context, now time.Time) (DueDigest, error) {
	if p.loader == nil {
		return DueDigest{}, fmt.Errorf("processor not properly initialized")
	}

	records, err := p.loader.Load(ctx)
	if err != nil {
		return DueDigest{}, &core.PersistenceError{Op: log.OpLoad, Err: err}
	}
	st := store.New()
	if err := st.Replace(records); err != nil {
		return DueDigest{}, &core.PersistenceError{Op: log.OpLoad, Err: err}
	}

	digest := BuildDigest(st, core.DateOf(now))
	p.logger.InfoContext(ctx, "Due digest built",
		"as_of", digest.AsOf.String(),
		"due", len(digest.Due),
		"due_total", digest.DueTotal.StringFixed(2),
		log.FieldMonth, digest.Month.Month,
		log.FieldYear, digest.Month.Year,
		"month_total", digest.Month.Total.StringFixed(2))

	for _, rec := range digest.Due {
		p.logger.DebugContext(ctx, "Client payment due",
			log.NewFields().WithRecord(rec.ID, rec.Name).WithDue(rec.Amount.String(), rec.NextDueDate.String()).ToSlice()...)
	}

	if p.publisher == nil {
		return digest, nil
	}
	if err := p.publisher.PublishDigest(ctx, digest.Message()); err != nil {
		return digest, fmt.Errorf("publish digest: %w", err)
	}
	return digest, nil
}
