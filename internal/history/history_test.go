// internal/history/history_test.go
package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithDB(mock, zap.NewNop()), mock
}

func testEvent() *schemas.ApplicationEvent {
	return &schemas.ApplicationEvent{
		ID:          "ev-1",
		JobTitle:    "Senior Go Engineer",
		Company:     "Initech",
		Location:    "Remote",
		Platform:    "greenhouse",
		URL:         "https://boards.greenhouse.io/initech/jobs/42",
		SubmittedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordInsertsEvent(t *testing.T) {
	store, mock := newMockStore(t)
	ev := testEvent()

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(ev.ID, ev.JobTitle, ev.Company, ev.Location, ev.Platform, ev.URL, ev.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Record(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStripsURLFragment(t *testing.T) {
	store, mock := newMockStore(t)
	ev := testEvent()
	ev.URL = "https://boards.greenhouse.io/initech/jobs/42#app"

	// Stored fragment-free so later HasApplied lookups match.
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(ev.ID, ev.JobTitle, ev.Company, ev.Location, ev.Platform,
			"https://boards.greenhouse.io/initech/jobs/42", ev.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Record(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDuplicateIDIsSilent(t *testing.T) {
	store, mock := newMockStore(t)
	ev := testEvent()

	// ON CONFLICT DO NOTHING: zero rows affected, no error.
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(ev.ID, ev.JobTitle, ev.Company, ev.Location, ev.Platform, ev.URL, ev.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	assert.NoError(t, store.Record(context.Background(), ev))
}

func TestRecordSurfacesDatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	ev := testEvent()

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(ev.ID, ev.JobTitle, ev.Company, ev.Location, ev.Platform, ev.URL, ev.SubmittedAt).
		WillReturnError(errors.New("connection reset"))

	err := store.Record(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record application")
}

func TestHasApplied(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("https://boards.greenhouse.io/initech/jobs/42").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	applied, err := store.HasApplied(context.Background(), "https://boards.greenhouse.io/initech/jobs/42#app")
	require.NoError(t, err)
	assert.True(t, applied, "fragment is stripped before lookup")
}

func TestHasAppliedFalse(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("https://initech.example/careers/7").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	applied, err := store.HasApplied(context.Background(), "https://initech.example/careers/7")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRecent(t *testing.T) {
	store, mock := newMockStore(t)
	submitted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, job_title`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "job_title", "company", "location", "platform", "url", "submitted_at"}).
			AddRow("ev-2", "Staff Engineer", "Globex", "", "lever", "https://jobs.lever.co/globex/1", submitted).
			AddRow("ev-1", "Senior Go Engineer", "Initech", "Remote", "greenhouse", "https://boards.greenhouse.io/initech/jobs/42", submitted.Add(-time.Hour)))

	events, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Staff Engineer", events[0].JobTitle)
	assert.Equal(t, "greenhouse", events[1].Platform)
}

func TestNilStoreIsInert(t *testing.T) {
	var store *Store

	assert.NoError(t, store.Record(context.Background(), testEvent()))

	applied, err := store.HasApplied(context.Background(), "https://initech.example/careers/7")
	assert.NoError(t, err)
	assert.False(t, applied)

	events, err := store.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, events)

	store.Close()
}

func TestOpenWithoutURLDisablesHistory(t *testing.T) {
	store, err := Open(context.Background(), config.HistoryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, store)
}
