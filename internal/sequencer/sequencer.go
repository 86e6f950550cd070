// Package sequencer submits tracked rows one by one (or with a small bound)
// and records each row's outcome.
package sequencer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/tracker"
)

var ErrNotRetryable = errors.New("row is not retry-eligible")

const (
	DefaultSuccessMessage = "성공"
	DefaultFailureMessage = "실패"
)

// Outcome is what a submitter learned about one row.
type Outcome struct {
	Success bool
	Status  int
	Message string
}

// Submitter sends one row to the destination.
type Submitter[T tracker.Record] interface {
	Submit(ctx context.Context, row tracker.Row[T]) Outcome
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc[T tracker.Record] func(ctx context.Context, row tracker.Row[T]) Outcome

func (f SubmitFunc[T]) Submit(ctx context.Context, row tracker.Row[T]) Outcome {
	return f(ctx, row)
}

type Sequencer[T tracker.Record] struct {
	tracker     *tracker.Tracker[T]
	submitter   Submitter[T]
	concurrency int
	logger      *logger.Logger
	name        string
}

// New returns a sequencer; concurrency below 1 means strictly sequential.
func New[T tracker.Record](t *tracker.Tracker[T], s Submitter[T], concurrency int, log *logger.Logger) *Sequencer[T] {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Sequencer[T]{tracker: t, submitter: s, concurrency: concurrency, logger: log}
}

// Named tags log lines with a batch name.
func (s *Sequencer[T]) Named(name string) *Sequencer[T] {
	s.name = name
	return s
}

// Submit uploads every complete row that has not succeeded yet.
func (s *Sequencer[T]) Submit(ctx context.Context) model.Summary {
	return s.run(ctx, s.tracker.Pending())
}

// RetryFailed re-submits every retry-eligible row.
func (s *Sequencer[T]) RetryFailed(ctx context.Context) model.Summary {
	return s.run(ctx, s.tracker.RetryEligible())
}

// RetryOne re-submits a single failed row.
func (s *Sequencer[T]) RetryOne(ctx context.Context, id uuid.UUID) (Outcome, error) {
	row, ok := s.tracker.Get(id)
	if !ok {
		return Outcome{}, errors.Wrapf(tracker.ErrRowNotFound, "id %s", id)
	}
	if !row.RetryEligible() {
		return Outcome{}, errors.Wrapf(ErrNotRetryable, "id %s status %q", id, row.Status)
	}
	return s.one(ctx, row)
}

func (s *Sequencer[T]) run(ctx context.Context, rows []tracker.Row[T]) model.Summary {
	var (
		mu      sync.Mutex
		summary model.Summary
	)
	record := func(out Outcome, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		if out.Success {
			summary.SuccessCount++
		} else {
			summary.FailCount++
		}
		mu.Unlock()
	}

	if s.concurrency == 1 {
		for _, row := range rows {
			record(s.one(ctx, row))
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, s.concurrency)
		for _, row := range rows {
			wg.Add(1)
			sem <- struct{}{}
			go func(row tracker.Row[T]) {
				defer func() {
					<-sem
					wg.Done()
				}()
				record(s.one(ctx, row))
			}(row)
		}
		wg.Wait()
	}

	s.logger.BatchSummary(s.name, summary.SuccessCount, summary.FailCount)
	s.tracker.Announce(summary)
	return summary
}

// one drives a single row through processing to success or error.
func (s *Sequencer[T]) one(ctx context.Context, row tracker.Row[T]) (Outcome, error) {
	if err := s.tracker.SetStatus(row.ID, model.StatusProcessing, ""); err != nil {
		// removed or claimed by another run meanwhile
		return Outcome{}, err
	}

	out := s.submitter.Submit(ctx, row)
	status := model.StatusSuccess
	if out.Success {
		if out.Message == "" {
			out.Message = DefaultSuccessMessage
		}
	} else {
		status = model.StatusError
		if out.Message == "" {
			out.Message = DefaultFailureMessage
		}
	}
	s.logger.RowResult(s.name, row.ID.String(), string(status), out.Message)

	if err := s.tracker.SetStatus(row.ID, status, out.Message); err != nil {
		return out, err
	}
	return out, nil
}
