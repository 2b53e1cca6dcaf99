package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meditrack/meditrack/internal/config"
	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/metrics"
	"github.com/meditrack/meditrack/internal/reminder"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(config.RemoteConfig{
		BaseURL:        serverURL,
		Timeout:        5,
		RequestsPerSec: 100,
		Burst:          10,
	}, zap.NewNop()).WithMetrics(metrics.New())
}

func TestCreateReminderSendsPayloadAndReturnsID(t *testing.T) {
	var got createReminderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reminders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"_id": "remote-123"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	id, err := client.CreateReminder(context.Background(), reminder.Draft{
		MedicationName:  "Lisinopril",
		Time:            "8:00 AM",
		Days:            []string{"Mon", "Wed"},
		Dosage:          "10mg",
		WhatsAppEnabled: true,
		PhoneNumber:     "7400135663",
	})

	require.NoError(t, err)
	assert.Equal(t, "remote-123", id)
	assert.Equal(t, "Lisinopril", got.Name)
	assert.Equal(t, []string{"8:00 AM"}, got.Time)
	assert.Equal(t, []string{"Mon", "Wed"}, got.Days)
	assert.Equal(t, "daily", got.Frequency)
	assert.True(t, got.WhatsAppEnabled)
	assert.Equal(t, "7400135663", got.PhoneNumber)
}

func TestCreateReminderMissingIDIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "Lisinopril"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateReminder(context.Background(), reminder.Draft{MedicationName: "Lisinopril", Time: "8:00 AM"})

	require.Error(t, err)
	assert.Equal(t, "SYNC_002", apperrors.GetCode(err))
}

func TestServerErrorMessageIsSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "reminder name is required"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.ToggleReminder(context.Background(), "remote-123", true)

	require.Error(t, err)
	assert.Equal(t, "SYNC_002", apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "reminder name is required")
}

func TestServerErrorWithoutBodyUsesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.DeleteReminder(context.Background(), "remote-123")

	require.Error(t, err)
	assert.Equal(t, "SYNC_002", apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "server responded with status 500")
}

func TestTransportFailureIsSyncError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	err := client.DeleteReminder(context.Background(), "remote-123")

	require.Error(t, err)
	assert.Equal(t, "SYNC_001", apperrors.GetCode(err))
	assert.True(t, apperrors.IsSync(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(config.RemoteConfig{
		BaseURL:         server.URL,
		Timeout:         1,
		RequestsPerSec:  100,
		Burst:           10,
		BreakerFailures: 2,
	}, zap.NewNop()).WithMetrics(metrics.New())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		err := client.DeleteReminder(ctx, "remote-123")
		require.Error(t, err)
		assert.Equal(t, "SYNC_001", apperrors.GetCode(err))
	}

	err := client.DeleteReminder(ctx, "remote-123")
	require.Error(t, err)
	assert.Equal(t, "SYNC_003", apperrors.GetCode(err))
}

func TestToggleAndWhatsAppHitExpectedRoutes(t *testing.T) {
	var paths []string
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		methods = append(methods, r.Method)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	require.NoError(t, client.ToggleReminder(ctx, "abc", false))
	require.NoError(t, client.EnableWhatsApp(ctx, "abc", "7400135663", true))
	require.NoError(t, client.DeleteReminder(ctx, "abc"))

	assert.Equal(t, []string{"/reminders/abc/toggle", "/reminders/abc/whatsapp", "/reminders/abc"}, paths)
	assert.Equal(t, []string{http.MethodPatch, http.MethodPatch, http.MethodDelete}, methods)
}

func TestFetchRemindersDecodesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"_id":     "remote-1",
				"name":    "Metformin",
				"time":    []string{"1:00 PM"},
				"days":    []string{"Mon", "Tue"},
				"enabled": true,
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	records, err := client.FetchReminders(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "remote-1", records[0].ID)
	assert.Equal(t, "Metformin", records[0].Name)
	assert.Equal(t, []string{"1:00 PM"}, records[0].Times)
	assert.True(t, records[0].Enabled)
}

func TestSyncMetricsAreRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	m := metrics.New()
	client := newTestClient(t, server.URL).WithMetrics(m)

	_, err := client.FetchReminders(context.Background())
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.SyncAttempts)
	assert.Equal(t, int64(0), snap.SyncFailures)
}
