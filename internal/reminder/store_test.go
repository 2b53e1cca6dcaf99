package reminder

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/meditrack/meditrack/internal/errors"
)

// fakeRemote records calls and can be told to fail.
type fakeRemote struct {
	fail bool

	created       []Draft
	updated       map[string]Draft
	deleted       []string
	toggled       map[string]bool
	whatsapp      map[string]bool
	whatsappPhone map[string]string
	fetched       []RemoteReminder
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		updated:       make(map[string]Draft),
		toggled:       make(map[string]bool),
		whatsapp:      make(map[string]bool),
		whatsappPhone: make(map[string]string),
	}
}

func (f *fakeRemote) CreateReminder(_ context.Context, draft Draft) (string, error) {
	if f.fail {
		return "", fmt.Errorf("connection refused")
	}
	f.created = append(f.created, draft)
	return fmt.Sprintf("rem-%d", len(f.created)), nil
}

func (f *fakeRemote) UpdateReminder(_ context.Context, remoteID string, draft Draft) error {
	if f.fail {
		return fmt.Errorf("connection refused")
	}
	f.updated[remoteID] = draft
	return nil
}

func (f *fakeRemote) DeleteReminder(_ context.Context, remoteID string) error {
	if f.fail {
		return fmt.Errorf("connection refused")
	}
	f.deleted = append(f.deleted, remoteID)
	return nil
}

func (f *fakeRemote) ToggleReminder(_ context.Context, remoteID string, enabled bool) error {
	if f.fail {
		return fmt.Errorf("connection refused")
	}
	f.toggled[remoteID] = enabled
	return nil
}

func (f *fakeRemote) EnableWhatsApp(_ context.Context, remoteID, phoneNumber string, enabled bool) error {
	if f.fail {
		return fmt.Errorf("connection refused")
	}
	f.whatsapp[remoteID] = enabled
	f.whatsappPhone[remoteID] = phoneNumber
	return nil
}

func (f *fakeRemote) FetchReminders(_ context.Context) ([]RemoteReminder, error) {
	if f.fail {
		return nil, fmt.Errorf("connection refused")
	}
	return f.fetched, nil
}

func setupStore(t *testing.T) (*Store, *fakeRemote) {
	t.Helper()
	remote := newFakeRemote()
	logger := zap.NewNop()
	return NewStore(remote, logger), remote
}

func TestStore_AddValidation(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, Draft{MedicationName: "", Time: "8:00 AM", Days: []string{"Mon"}})
	assert.ErrorIs(t, err, apperrors.ErrNameRequired)

	_, err = store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{}})
	assert.ErrorIs(t, err, apperrors.ErrDaysRequired)

	_, err = store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "25:00 AM", Days: []string{"Mon"}})
	require.Error(t, err)
	assert.Equal(t, "VAL_004", apperrors.GetCode(err))

	// Nothing was inserted
	assert.Empty(t, store.List())
}

func TestStore_AddAssignsSequentialIDs(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	r1, err := store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{"Mon"}})
	require.NoError(t, err)
	assert.Equal(t, 1, r1.ID)

	r2, err := store.Add(ctx, Draft{MedicationName: "Metformin", Time: "1:00 PM", Days: []string{"Mon", "Wed"}})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.ID)

	// IDs never shrink after a removal
	require.NoError(t, store.Remove(ctx, 1))
	r3, err := store.Add(ctx, Draft{MedicationName: "Atorvastatin", Time: "9:00 PM", Days: []string{"Fri"}})
	require.NoError(t, err)
	assert.Equal(t, 3, r3.ID)

	assert.Len(t, remote.created, 3)
}

func TestStore_AddKeepsLocalOnSyncFailure(t *testing.T) {
	store, remote := setupStore(t)
	remote.fail = true
	ctx := context.Background()

	rem, err := store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{"Mon"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsSync(err))
	assert.Equal(t, 1, rem.ID)
	assert.Empty(t, rem.RemoteID)

	// The reminder is present despite the failed sync
	assert.Len(t, store.List(), 1)
}

func TestStore_ListInsertionOrder(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := store.Add(ctx, Draft{MedicationName: name, Time: "8:00 AM", Days: []string{"Mon"}})
		require.NoError(t, err)
	}

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].MedicationName)
	assert.Equal(t, "B", list[1].MedicationName)
	assert.Equal(t, "C", list[2].MedicationName)
}

func TestStore_ToggleEnabled(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	rem, err := store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{"Mon"}})
	require.NoError(t, err)
	require.True(t, rem.Enabled)

	toggled, err := store.ToggleEnabled(ctx, rem.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)
	assert.Equal(t, false, remote.toggled[rem.RemoteID])

	toggled, err = store.ToggleEnabled(ctx, rem.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)
}

func TestStore_ToggleOptimisticOnSyncFailure(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	rem, err := store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{"Mon"}})
	require.NoError(t, err)

	remote.fail = true
	toggled, err := store.ToggleEnabled(ctx, rem.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsSync(err))
	// Local flip stands
	assert.False(t, toggled.Enabled)

	got, err := store.Get(rem.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
}

func TestStore_Update(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	rem, err := store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{"Mon"}})
	require.NoError(t, err)

	updated, err := store.Update(ctx, rem.ID, Draft{
		MedicationName: "Lisinopril 20mg",
		Time:           "9:30 AM",
		Days:           []string{"Mon", "Thu"},
	})
	require.NoError(t, err)
	assert.Equal(t, rem.ID, updated.ID)
	assert.Equal(t, rem.RemoteID, updated.RemoteID)
	assert.Equal(t, "Lisinopril 20mg", updated.MedicationName)
	assert.Equal(t, "9:30 AM", updated.Time.String())
	assert.Equal(t, []string{"Mon", "Thu"}, updated.Days)

	sent, ok := remote.updated[rem.RemoteID]
	require.True(t, ok)
	assert.Equal(t, "Lisinopril 20mg", sent.MedicationName)

	// Validation runs before any mutation
	_, err = store.Update(ctx, rem.ID, Draft{MedicationName: "", Time: "9:30 AM", Days: []string{"Mon"}})
	assert.ErrorIs(t, err, apperrors.ErrNameRequired)
	got, _ := store.Get(rem.ID)
	assert.Equal(t, "Lisinopril 20mg", got.MedicationName)
}

func TestStore_ToggleNotFound(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.ToggleEnabled(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrReminderNotFound)
}

func TestStore_RemoveCallsRemoteDelete(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	store.Replace([]Reminder{{
		ID:             1,
		RemoteID:       "abc",
		MedicationName: "Lisinopril",
		Time:           MustClockTime("8:00 AM"),
		Days:           []string{"Mon"},
		Enabled:        true,
	}})

	require.NoError(t, store.Remove(ctx, 1))
	assert.Equal(t, []string{"abc"}, remote.deleted)
	assert.Empty(t, store.List())
}

func TestStore_RemoveUnsyncedSkipsRemote(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	store.Replace([]Reminder{{
		ID:             1,
		MedicationName: "Lisinopril",
		Time:           MustClockTime("8:00 AM"),
		Days:           []string{"Mon"},
	}})

	require.NoError(t, store.Remove(ctx, 1))
	assert.Empty(t, remote.deleted)
}

func TestStore_SetWhatsApp(t *testing.T) {
	store, remote := setupStore(t)
	ctx := context.Background()

	rem, err := store.Add(ctx, Draft{MedicationName: "Metformin", Time: "1:00 PM", Days: []string{"Mon"}})
	require.NoError(t, err)

	// Enabling without a number is rejected before any mutation
	_, err = store.SetWhatsApp(ctx, rem.ID, true, "")
	assert.ErrorIs(t, err, apperrors.ErrPhoneRequired)
	got, _ := store.Get(rem.ID)
	assert.False(t, got.WhatsAppEnabled)

	updated, err := store.SetWhatsApp(ctx, rem.ID, true, "7400135663")
	require.NoError(t, err)
	assert.True(t, updated.WhatsAppEnabled)
	assert.Equal(t, "7400135663", updated.PhoneNumber)
	assert.Equal(t, true, remote.whatsapp[rem.RemoteID])
	assert.Equal(t, "7400135663", remote.whatsappPhone[rem.RemoteID])
}

func TestStore_Hydrate(t *testing.T) {
	store, remote := setupStore(t)
	remote.fetched = []RemoteReminder{
		{ID: "r1", Name: "Lisinopril", Times: []string{"8:00 AM"}, Days: []string{"Mon", "Tue"}, Enabled: true},
		{ID: "r2", Name: "Broken", Times: []string{"26:00"}, Enabled: true},
		{ID: "r3", Name: "Metformin", Times: []string{"1:00 PM"}, Enabled: false},
	}

	require.NoError(t, store.Hydrate(context.Background()))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, "r1", list[0].RemoteID)
	assert.Equal(t, 2, list[1].ID)
	assert.Equal(t, "Metformin", list[1].MedicationName)
	// Backend records without days default to daily
	assert.Len(t, list[1].Days, 7)
	assert.False(t, list[1].Enabled)
}

func TestStore_ChangeNotification(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	var changes int
	store.SetOnChange(func() { changes++ })

	rem, err := store.Add(ctx, Draft{MedicationName: "Lisinopril", Time: "8:00 AM", Days: []string{"Mon"}})
	require.NoError(t, err)
	_, err = store.ToggleEnabled(ctx, rem.ID)
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, rem.ID))

	assert.Equal(t, 3, changes)
}
