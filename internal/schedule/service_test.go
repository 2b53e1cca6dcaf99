package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.Event{}))
	return NewService(db, zap.NewNop())
}

func TestAddValidation(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Add(Draft{Date: "2026-09-01"})
	require.Error(t, err)
	assert.Equal(t, "VAL_001", apperrors.GetCode(err))

	_, err = svc.Add(Draft{Title: "Blood test", Type: "surgery", Date: "2026-09-01"})
	require.Error(t, err)
	assert.Equal(t, "VAL_001", apperrors.GetCode(err))

	_, err = svc.Add(Draft{Title: "Blood test", Type: "test", Date: "01/09/2026"})
	require.Error(t, err)
	assert.Equal(t, "VAL_004", apperrors.GetCode(err))
}

func TestAddDefaultsType(t *testing.T) {
	svc := setupService(t)

	event, err := svc.Add(Draft{Title: "Dr. Patel follow-up", Date: "2026-09-01", Time: "10:30"})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "appointment", event.Type)
}

func TestUpdateAndToggle(t *testing.T) {
	svc := setupService(t)

	event, err := svc.Add(Draft{Title: "Checkup", Type: "checkup", Date: "2026-09-01", Time: "09:00"})
	require.NoError(t, err)

	updated, err := svc.Update(event.ID, Draft{
		Title: "Annual checkup", Type: "checkup", Date: "2026-09-02", Time: "11:00", Location: "City Clinic",
	})
	require.NoError(t, err)
	assert.Equal(t, event.ID, updated.ID)
	assert.Equal(t, "Annual checkup", updated.Title)
	assert.Equal(t, "2026-09-02", updated.Date)

	toggled, err := svc.ToggleReminder(event.ID)
	require.NoError(t, err)
	assert.True(t, toggled.ReminderEnabled)
	toggled, err = svc.ToggleReminder(event.ID)
	require.NoError(t, err)
	assert.False(t, toggled.ReminderEnabled)
}

func TestRemove(t *testing.T) {
	svc := setupService(t)

	event, err := svc.Add(Draft{Title: "Checkup", Date: "2026-09-01"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(event.ID))
	_, err = svc.Get(event.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	assert.ErrorIs(t, svc.Remove("missing"), apperrors.ErrEventNotFound)
}

func TestListSortedByDateThenTime(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Add(Draft{Title: "Later", Date: "2026-09-02", Time: "09:00"})
	require.NoError(t, err)
	_, err = svc.Add(Draft{Title: "Same day later", Date: "2026-09-01", Time: "14:00"})
	require.NoError(t, err)
	_, err = svc.Add(Draft{Title: "First", Date: "2026-09-01", Time: "08:00"})
	require.NoError(t, err)

	events, err := svc.List()
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "First", events[0].Title)
	assert.Equal(t, "Same day later", events[1].Title)
	assert.Equal(t, "Later", events[2].Title)
}

func TestWindowQueries(t *testing.T) {
	svc := setupService(t)

	// Tuesday 2026-09-01; the surrounding week is Mon 08-31 .. Sun 09-06
	ref := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	_, err := svc.Add(Draft{Title: "Today", Date: "2026-09-01", Time: "09:00"})
	require.NoError(t, err)
	_, err = svc.Add(Draft{Title: "This week", Date: "2026-09-05", Time: "10:00"})
	require.NoError(t, err)
	_, err = svc.Add(Draft{Title: "Last month", Date: "2026-08-31", Time: "10:00"})
	require.NoError(t, err)
	_, err = svc.Add(Draft{Title: "Next month", Date: "2026-10-01", Time: "10:00"})
	require.NoError(t, err)

	day, err := svc.Window("day", ref)
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "Today", day[0].Title)

	week, err := svc.Window("week", ref)
	require.NoError(t, err)
	require.Len(t, week, 3)
	assert.Equal(t, "Last month", week[0].Title)

	month, err := svc.Window("month", ref)
	require.NoError(t, err)
	require.Len(t, month, 2)

	_, err = svc.Window("year", ref)
	require.Error(t, err)
	assert.Equal(t, "VAL_001", apperrors.GetCode(err))
}
