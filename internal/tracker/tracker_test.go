package tracker

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qp-hub-backend/internal/model"
)

func users(n int) []model.User {
	out := make([]model.User, n)
	for i := range out {
		id := string(rune('a' + i))
		out[i] = model.User{Email: id + "@example.com", LoginID: id, Name: id}
	}
	return out
}

func byEmail(u model.User) string { return u.Email }

func TestAppend_DedupesAgainstExistingRows(t *testing.T) {
	tr := New[model.User](10)
	tr.Append(users(2), byEmail)

	added := tr.Append(users(3), byEmail)
	require.Len(t, added, 1)
	assert.Equal(t, "c@example.com", added[0].Record.Email)
	assert.Equal(t, 3, tr.Len())
}

func TestReplace_DiscardsPreviousRows(t *testing.T) {
	tr := New[model.User](10)
	tr.Append(users(3), nil)
	tr.Replace(users(1))
	rows := tr.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusUnsent, rows[0].Status)
}

func TestSetStatus_Transitions(t *testing.T) {
	tr := New[model.User](10)
	row := tr.Add(users(1)[0])

	require.ErrorIs(t, tr.SetStatus(row.ID, model.StatusSuccess, ""), ErrInvalidTransition)
	require.NoError(t, tr.SetStatus(row.ID, model.StatusProcessing, ""))
	require.NoError(t, tr.SetStatus(row.ID, model.StatusError, "boom"))

	got, ok := tr.Get(row.ID)
	require.True(t, ok)
	assert.Equal(t, "boom", got.Message)

	require.NoError(t, tr.SetStatus(row.ID, model.StatusProcessing, ""))
	require.NoError(t, tr.SetStatus(row.ID, model.StatusSuccess, "성공"))
	require.ErrorIs(t, tr.SetStatus(row.ID, model.StatusProcessing, ""), ErrInvalidTransition)

	require.ErrorIs(t, tr.SetStatus(uuid.New(), model.StatusProcessing, ""), ErrRowNotFound)
}

func TestRetryEligible(t *testing.T) {
	tr := New[model.User](10)
	rows := tr.Append([]model.User{
		{Email: "a@x", LoginID: "a", Name: "A"},
		{Email: "b@x", LoginID: "b", Name: "B"},
		{Email: "c@x", LoginID: "c"},
		{Email: "d@x", LoginID: "d", Name: "D"},
	}, nil)
	for _, r := range rows[:3] {
		require.NoError(t, tr.SetStatus(r.ID, model.StatusProcessing, ""))
	}
	require.NoError(t, tr.SetStatus(rows[0].ID, model.StatusError, "x"))
	require.NoError(t, tr.SetStatus(rows[1].ID, model.StatusSuccess, ""))
	require.NoError(t, tr.SetStatus(rows[2].ID, model.StatusError, "x"))

	eligible := tr.RetryEligible()
	require.Len(t, eligible, 1)
	assert.Equal(t, rows[0].ID, eligible[0].ID)

	assert.False(t, Row[model.User]{Status: model.StatusUnsent, Record: rows[3].Record}.RetryEligible())
	assert.False(t, Row[model.User]{Status: model.StatusProcessing, Record: rows[3].Record}.RetryEligible())
}

func TestPending_SkipsSucceededAndIncomplete(t *testing.T) {
	tr := New[model.User](10)
	rows := tr.Append(append(users(2), model.User{Email: "x@x"}), nil)
	require.NoError(t, tr.SetStatus(rows[0].ID, model.StatusProcessing, ""))
	require.NoError(t, tr.SetStatus(rows[0].ID, model.StatusSuccess, ""))

	pending := tr.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
}

func TestPage_ClampsAfterRemoval(t *testing.T) {
	tr := New[model.User](2)
	rows := tr.Append(users(10), nil)

	page, pager := tr.Page(5)
	require.Len(t, page, 2)
	assert.Equal(t, 5, pager.Current)
	assert.Equal(t, 5, pager.TotalPages)

	for _, r := range rows[:4] {
		require.NoError(t, tr.Remove(r.ID))
	}
	pager = tr.Pager()
	assert.Equal(t, 3, pager.TotalPages)
	assert.Equal(t, 3, pager.Current)

	page, pager = tr.Page(99)
	assert.Equal(t, 3, pager.Current)
	require.Len(t, page, 2)
	assert.Equal(t, rows[8].ID, page[0].ID)

	tr.Clear()
	page, pager = tr.Page(2)
	assert.Empty(t, page)
	assert.Equal(t, 1, pager.Current)
	assert.Equal(t, 1, pager.TotalPages)
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	tr := New[model.User](10)
	var (
		mu     sync.Mutex
		events []Event
	)
	cancel := tr.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	row := tr.Add(users(1)[0])
	require.NoError(t, tr.SetStatus(row.ID, model.StatusProcessing, ""))
	tr.Announce(model.Summary{SuccessCount: 1})
	cancel()
	tr.Clear()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, EventAdded, events[0].Type)
	assert.Equal(t, row.ID.String(), events[0].RecordID)
	assert.Equal(t, EventStatus, events[1].Type)
	assert.Equal(t, model.StatusProcessing, events[1].Status)
	assert.Equal(t, EventSummary, events[2].Type)
	assert.Equal(t, 1, events[2].Summary.SuccessCount)
}

func TestCounts(t *testing.T) {
	tr := New[model.User](10)
	rows := tr.Append(users(3), nil)
	require.NoError(t, tr.SetStatus(rows[0].ID, model.StatusProcessing, ""))
	counts := tr.Counts()
	assert.Equal(t, 2, counts["unsent"])
	assert.Equal(t, 1, counts["processing"])
	assert.Equal(t, 0, counts["error"])
}

func TestUpdate_KeepsStatus(t *testing.T) {
	tr := New[model.User](10)
	row := tr.Add(model.User{Email: "a@x", LoginID: "a"})
	require.NoError(t, tr.SetStatus(row.ID, model.StatusProcessing, ""))

	_, err := tr.Update(row.ID, model.User{Email: "a@x", LoginID: "a", Name: "A"})
	require.ErrorIs(t, err, ErrRowBusy)

	require.NoError(t, tr.SetStatus(row.ID, model.StatusError, "missing name"))
	updated, err := tr.Update(row.ID, model.User{Email: "a@x", LoginID: "a", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, updated.Status)
	assert.True(t, updated.RetryEligible())

	_, err = tr.Update(uuid.New(), model.User{})
	require.ErrorIs(t, err, ErrRowNotFound)
}
