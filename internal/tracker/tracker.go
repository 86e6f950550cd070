// Package tracker owns one batch of records and their per-row upload state.
package tracker

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"qp-hub-backend/internal/model"
)

var (
	ErrRowNotFound       = errors.New("row not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRowBusy           = errors.New("row is being uploaded")
)

// Record is what a tracked row must be able to report about itself.
type Record interface {
	Complete() bool
	Identity() string
}

type Row[T Record] struct {
	ID      uuid.UUID    `json:"id"`
	Record  T            `json:"record"`
	Status  model.Status `json:"result"`
	Message string       `json:"resultMessage,omitempty"`
}

// RetryEligible is true for failed rows whose required fields are still present.
func (r Row[T]) RetryEligible() bool {
	return r.Status == model.StatusError && r.Record.Complete()
}

// Tracker is safe for concurrent use; listeners run outside the lock.
type Tracker[T Record] struct {
	mu     sync.RWMutex
	rows   []Row[T]
	pager  Pager
	subs   map[int]func(Event)
	nextID int
}

func New[T Record](pageSize int) *Tracker[T] {
	return &Tracker[T]{
		pager: NewPager(pageSize),
		subs:  make(map[int]func(Event)),
	}
}

// Subscribe registers fn for every change; call the returned func to stop.
func (t *Tracker[T]) Subscribe(fn func(Event)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Tracker[T]) emit(events ...Event) {
	t.mu.RLock()
	listeners := lo.Values(t.subs)
	t.mu.RUnlock()
	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

// Announce pushes a run summary to listeners.
func (t *Tracker[T]) Announce(s model.Summary) {
	t.emit(Event{Type: EventSummary, Summary: &s})
}

func newRow[T Record](rec T) Row[T] {
	return Row[T]{ID: uuid.New(), Record: rec}
}

// Append adds records to the end. With a non-nil key, records whose key
// matches an existing row are skipped. It returns the rows actually added.
func (t *Tracker[T]) Append(recs []T, key func(T) string) []Row[T] {
	t.mu.Lock()
	existing := map[string]struct{}{}
	if key != nil {
		for _, r := range t.rows {
			existing[key(r.Record)] = struct{}{}
		}
	}
	added := make([]Row[T], 0, len(recs))
	events := make([]Event, 0, len(recs))
	for _, rec := range recs {
		if key != nil {
			if _, dup := existing[key(rec)]; dup {
				continue
			}
		}
		row := newRow(rec)
		t.rows = append(t.rows, row)
		added = append(added, row)
		events = append(events, Event{Type: EventAdded, RecordID: row.ID.String(), Index: len(t.rows) - 1})
	}
	t.pager.Clamp(len(t.rows))
	t.mu.Unlock()
	t.emit(events...)
	return added
}

// Replace discards the current rows and loads recs.
func (t *Tracker[T]) Replace(recs []T) []Row[T] {
	t.mu.Lock()
	t.rows = lo.Map(recs, func(rec T, _ int) Row[T] { return newRow(rec) })
	t.pager.Current = 1
	added := append([]Row[T](nil), t.rows...)
	t.mu.Unlock()
	events := []Event{{Type: EventCleared}}
	for i, r := range added {
		events = append(events, Event{Type: EventAdded, RecordID: r.ID.String(), Index: i})
	}
	t.emit(events...)
	return added
}

// Add appends a single record, e.g. one entered by hand.
func (t *Tracker[T]) Add(rec T) Row[T] {
	return t.Append([]T{rec}, nil)[0]
}

func (t *Tracker[T]) Remove(id uuid.UUID) error {
	t.mu.Lock()
	idx := t.indexOf(id)
	if idx < 0 {
		t.mu.Unlock()
		return errors.Wrapf(ErrRowNotFound, "id %s", id)
	}
	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	t.pager.Clamp(len(t.rows))
	t.mu.Unlock()
	t.emit(Event{Type: EventRemoved, RecordID: id.String(), Index: idx})
	return nil
}

// Update swaps a row's record in place; its status and message are kept.
func (t *Tracker[T]) Update(id uuid.UUID, rec T) (Row[T], error) {
	t.mu.Lock()
	idx := t.indexOf(id)
	if idx < 0 {
		t.mu.Unlock()
		return Row[T]{}, errors.Wrapf(ErrRowNotFound, "id %s", id)
	}
	if t.rows[idx].Status == model.StatusProcessing {
		t.mu.Unlock()
		return Row[T]{}, errors.Wrapf(ErrRowBusy, "id %s", id)
	}
	t.rows[idx].Record = rec
	row := t.rows[idx]
	t.mu.Unlock()
	t.emit(Event{Type: EventUpdated, RecordID: id.String(), Index: idx, Status: row.Status})
	return row, nil
}

func (t *Tracker[T]) Clear() {
	t.mu.Lock()
	t.rows = nil
	t.pager.Current = 1
	t.mu.Unlock()
	t.emit(Event{Type: EventCleared})
}

func (t *Tracker[T]) indexOf(id uuid.UUID) int {
	_, idx, ok := lo.FindIndexOf(t.rows, func(r Row[T]) bool { return r.ID == id })
	if !ok {
		return -1
	}
	return idx
}

func (t *Tracker[T]) Get(id uuid.UUID) (Row[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.indexOf(id)
	if idx < 0 {
		return Row[T]{}, false
	}
	return t.rows[idx], true
}

// Rows returns a snapshot of every row in order.
func (t *Tracker[T]) Rows() []Row[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Row[T](nil), t.rows...)
}

func (t *Tracker[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Page moves to page n (clamped into range) and returns its slice.
func (t *Tracker[T]) Page(n int) ([]Row[T], Pager) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pager.Current = n
	t.pager.Clamp(len(t.rows))
	start, end := t.pager.Bounds(len(t.rows))
	return append([]Row[T](nil), t.rows[start:end]...), t.pager
}

// Pager returns the current pagination state, re-clamped to the row count.
func (t *Tracker[T]) Pager() Pager {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pager.Clamp(len(t.rows))
	return t.pager
}

func (t *Tracker[T]) SetPageSize(size int) {
	t.mu.Lock()
	t.pager.SetSize(size)
	t.pager.Clamp(len(t.rows))
	t.mu.Unlock()
}

func canTransition(from, to model.Status) bool {
	switch to {
	case model.StatusProcessing:
		return from == model.StatusUnsent || from == model.StatusError
	case model.StatusSuccess, model.StatusError:
		return from == model.StatusProcessing
	}
	return false
}

// SetStatus moves a row through '' -> processing -> success|error.
// Only error rows may re-enter processing.
func (t *Tracker[T]) SetStatus(id uuid.UUID, status model.Status, message string) error {
	t.mu.Lock()
	idx := t.indexOf(id)
	if idx < 0 {
		t.mu.Unlock()
		return errors.Wrapf(ErrRowNotFound, "id %s", id)
	}
	row := &t.rows[idx]
	if !canTransition(row.Status, status) {
		from := row.Status
		t.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "%q -> %q", from, status)
	}
	row.Status = status
	row.Message = message
	t.mu.Unlock()
	t.emit(Event{Type: EventStatus, RecordID: id.String(), Index: idx, Status: status, Message: message})
	return nil
}

// Pending returns complete rows that have not succeeded yet.
func (t *Tracker[T]) Pending() []Row[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Filter(t.rows, func(r Row[T], _ int) bool {
		return r.Status != model.StatusSuccess && r.Status != model.StatusProcessing && r.Record.Complete()
	})
}

func (t *Tracker[T]) RetryEligible() []Row[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Filter(t.rows, func(r Row[T], _ int) bool { return r.RetryEligible() })
}

// Counts tallies rows per status; unsent rows are keyed "unsent".
func (t *Tracker[T]) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := map[string]int{"unsent": 0, "processing": 0, "success": 0, "error": 0}
	for _, r := range t.rows {
		counts[StatusKey(r.Status)]++
	}
	return counts
}

func StatusKey(s model.Status) string {
	if s == model.StatusUnsent {
		return "unsent"
	}
	return string(s)
}
