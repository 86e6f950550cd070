package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/projector"
	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/tracker"
	"qp-hub-backend/pkg/utils"
)

// Batch is one uploaded entity collection, independent of its record type.
type Batch interface {
	ID() string
	Kind() model.Kind
	View(page, pageSize int) *model.BatchView
	Import(text string) (parsed, added int)
	AddJSON(raw []byte) (any, error)
	UpdateJSON(id uuid.UUID, raw []byte) (any, error)
	Remove(id uuid.UUID) error
	Clear()
	Submit(ctx context.Context, dest Destination) error
	RetryFailed(ctx context.Context, dest Destination) error
	RetryOne(ctx context.Context, dest Destination, id uuid.UUID) (any, error)
	Subscribe(fn func(tracker.Event)) func()
	Export() (header []string, rows [][]string)
	Running() bool
	Wait()
}

type session[T export.Entity] struct {
	id          string
	kind        model.Kind
	tracker     *tracker.Tracker[T]
	projector   projector.Projector[T]
	dedupe      func(T) string
	appendMode  bool
	submitter   func(Destination) sequencer.Submitter[T]
	concurrency int
	logger      *logger.Logger

	mu      sync.Mutex
	running bool
	last    *model.Summary
	wg      sync.WaitGroup
}

func (s *session[T]) ID() string       { return s.id }
func (s *session[T]) Kind() model.Kind { return s.kind }

func (s *session[T]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the current background run, if any, finishes.
func (s *session[T]) Wait() {
	s.wg.Wait()
}

// View returns one page; page 0 keeps the current page.
func (s *session[T]) View(page, pageSize int) *model.BatchView {
	if pageSize > 0 {
		s.tracker.SetPageSize(pageSize)
	}
	if page <= 0 {
		page = s.tracker.Pager().Current
	}
	rows, pager := s.tracker.Page(page)
	s.mu.Lock()
	running, last := s.running, s.last
	s.mu.Unlock()
	return &model.BatchView{
		ID:          s.id,
		Kind:        s.kind,
		Page:        pager.Current,
		PageSize:    pager.Size,
		TotalPages:  pager.TotalPages,
		Total:       s.tracker.Len(),
		Counts:      s.tracker.Counts(),
		Retryable:   len(s.tracker.RetryEligible()),
		Running:     running,
		LastSummary: last,
		Rows:        rows,
	}
}

// Import loads CSV text; users append with de-duplication, the other kinds replace.
func (s *session[T]) Import(text string) (int, int) {
	recs := s.projector.ParseText(text)
	if len(recs) == 0 {
		return 0, 0
	}
	if s.appendMode {
		return len(recs), len(s.tracker.Append(recs, s.dedupe))
	}
	return len(recs), len(s.tracker.Replace(recs))
}

func (s *session[T]) decode(raw []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, utils.NewValidationError("record", err.Error())
	}
	return rec, nil
}

func (s *session[T]) AddJSON(raw []byte) (any, error) {
	rec, err := s.decode(raw)
	if err != nil {
		return nil, err
	}
	return s.tracker.Add(rec), nil
}

func (s *session[T]) UpdateJSON(id uuid.UUID, raw []byte) (any, error) {
	rec, err := s.decode(raw)
	if err != nil {
		return nil, err
	}
	row, err := s.tracker.Update(id, rec)
	if err != nil {
		return nil, rowError(err)
	}
	return row, nil
}

func (s *session[T]) Remove(id uuid.UUID) error {
	return rowError(s.tracker.Remove(id))
}

func (s *session[T]) Clear() {
	s.tracker.Clear()
}

func (s *session[T]) Subscribe(fn func(tracker.Event)) func() {
	return s.tracker.Subscribe(fn)
}

func (s *session[T]) sequencer(dest Destination) *sequencer.Sequencer[T] {
	return sequencer.New[T](s.tracker, s.submitter(dest), s.concurrency, s.logger).Named(s.id)
}

// start launches run in the background unless one is already active.
func (s *session[T]) start(ctx context.Context, run func(context.Context) model.Summary) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return utils.NewConflictError("이미 전송이 진행 중입니다.")
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		summary := run(ctx)
		s.mu.Lock()
		s.running = false
		s.last = &summary
		s.mu.Unlock()
	}()
	return nil
}

func (s *session[T]) Submit(ctx context.Context, dest Destination) error {
	if len(s.tracker.Pending()) == 0 {
		return utils.NewRequiredError("전송할 데이터가 없습니다.")
	}
	seq := s.sequencer(dest)
	return s.start(ctx, seq.Submit)
}

func (s *session[T]) RetryFailed(ctx context.Context, dest Destination) error {
	if len(s.tracker.RetryEligible()) == 0 {
		return utils.NewRequiredError("재전송할 실패 항목이 없습니다.")
	}
	seq := s.sequencer(dest)
	return s.start(ctx, seq.RetryFailed)
}

func (s *session[T]) RetryOne(ctx context.Context, dest Destination, id uuid.UUID) (any, error) {
	if s.Running() {
		return nil, utils.NewConflictError("이미 전송이 진행 중입니다.")
	}
	if _, err := s.sequencer(dest).RetryOne(ctx, id); err != nil {
		return nil, rowError(err)
	}
	row, _ := s.tracker.Get(id)
	return row, nil
}

// Export returns the entity columns plus result and message for every row.
func (s *session[T]) Export() ([]string, [][]string) {
	return export.Results(s.kind, s.tracker.Rows())
}

func rowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tracker.ErrRowNotFound):
		return utils.NewNotFoundError("행")
	case errors.Is(err, tracker.ErrRowBusy):
		return utils.NewConflictError("전송 중인 행은 수정할 수 없습니다.")
	case errors.Is(err, sequencer.ErrNotRetryable):
		return utils.NewConflictError(fmt.Sprintf("재전송할 수 없는 행입니다: %v", err))
	}
	return err
}
