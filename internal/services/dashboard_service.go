package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"payboard/internal/core"
	"payboard/internal/metrics"
	"payboard/internal/store"
)

// EventPublisher announces appended records to the outside world.
type EventPublisher interface {
	PublishRecordAppended(ctx context.Context, seq int, r core.Record) error
}

// SubmitResult is the outcome of an accepted submission.
type SubmitResult struct {
	Record  core.Record
	Records []core.Record
}

// DashboardService owns the record sequence. It is the only writer: every
// append goes through Submit.
type DashboardService struct {
	store     store.RecordStore
	publisher EventPublisher
}

func NewDashboardService(s store.RecordStore, p EventPublisher) *DashboardService {
	return &DashboardService{store: s, publisher: p}
}

// Snapshot returns the current sequence.
func (s *DashboardService) Snapshot(ctx context.Context) ([]core.Record, error) {
	recs, err := s.store.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return recs, nil
}

// Submit validates raw form input and, when every field passes, appends the
// completed record. A rejected submission returns core.FieldErrors and
// leaves the sequence untouched.
func (s *DashboardService) Submit(ctx context.Context, in core.FormInput) (SubmitResult, error) {
	cand, err := core.ParseSubmission(in)
	if err != nil {
		var fe core.FieldErrors
		if errors.As(err, &fe) {
			metrics.RecordSubmissionRejected(fe.Fields())
		}
		return SubmitResult{}, err
	}

	rec := cand.Record()
	recs, err := s.store.Append(ctx, rec)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("append record: %w", err)
	}
	metrics.RecordSubmissionAccepted(len(recs))

	s.publish(ctx, len(recs), rec)

	return SubmitResult{Record: rec, Records: recs}, nil
}

// publish never fails the submission; the store already holds the record.
// Production wires an EventDispatcher here, which only enqueues.
func (s *DashboardService) publish(ctx context.Context, seq int, r core.Record) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordAppended(ctx, seq, r); err != nil {
		slog.WarnContext(ctx, "Record appended event not queued",
			"sequence", seq, "month", r.Month, "error", err)
	}
}
