// Package sync is the remote REST collaborator. All calls are fallible and
// callers never roll back local state on failure; the client's job is to
// surface a typed, user-presentable error.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meditrack/meditrack/internal/config"
	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/metrics"
	"github.com/meditrack/meditrack/internal/reminder"
)

// Client talks to the reminder backend. It implements reminder.RemoteSyncer.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client for the configured backend base URL.
func NewClient(cfg config.RemoteConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "remote-sync",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		logger:  logger,
		metrics: metrics.Default(),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: breaker,
	}
}

// WithMetrics overrides the metrics sink, used by tests.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// do issues one JSON request and returns the response body. Non-2xx responses
// become SYNC_002 errors carrying the backend's message when it sent one.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(err, "SYNC_001", "could not reach the reminder backend")
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		c.logger.Debug("remote request", zap.String("method", method), zap.String("path", path))

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperrors.Wrap(err, "SYNC_001", "could not reach the reminder backend")
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, "SYNC_001", "could not read backend response")
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			message := fmt.Sprintf("server responded with status %d", resp.StatusCode)
			var envelope errorResponse
			if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
				message = envelope.Message
			}
			return nil, apperrors.New("SYNC_002", message)
		}

		return data, nil
	})

	if err != nil {
		c.metrics.RecordSync(false)
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperrors.Wrap(err, "SYNC_003", "reminder backend temporarily unavailable")
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "SYNC_001", "could not reach the reminder backend")
	}

	c.metrics.RecordSync(true)
	return body, nil
}

// CreateReminder mirrors a new reminder and returns the backend's ID.
func (c *Client) CreateReminder(ctx context.Context, draft reminder.Draft) (string, error) {
	frequency := draft.Frequency
	if frequency == "" {
		frequency = "daily"
	}

	req := createReminderRequest{
		Name:            draft.MedicationName,
		Dosage:          draft.Dosage,
		Time:            []string{draft.Time},
		Days:            draft.Days,
		Frequency:       frequency,
		StartDate:       time.Now().Format("2006-01-02"),
		Notes:           draft.Notes,
		WhatsAppEnabled: draft.WhatsAppEnabled,
		PhoneNumber:     draft.PhoneNumber,
	}

	body, err := c.do(ctx, http.MethodPost, "/reminders", req)
	if err != nil {
		return "", err
	}

	var created reminder.RemoteReminder
	if err := json.Unmarshal(body, &created); err != nil {
		return "", apperrors.Wrap(err, "SYNC_002", "backend returned an unexpected create response")
	}
	if created.ID == "" {
		return "", apperrors.New("SYNC_002", "backend did not assign a reminder id")
	}
	return created.ID, nil
}

// DeleteReminder removes a reminder on the backend.
func (c *Client) DeleteReminder(ctx context.Context, remoteID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/reminders/"+remoteID, nil)
	return err
}

// UpdateReminder replaces a reminder record on the backend.
func (c *Client) UpdateReminder(ctx context.Context, remoteID string, draft reminder.Draft) error {
	req := createReminderRequest{
		Name:            draft.MedicationName,
		Dosage:          draft.Dosage,
		Time:            []string{draft.Time},
		Days:            draft.Days,
		Frequency:       draft.Frequency,
		Notes:           draft.Notes,
		WhatsAppEnabled: draft.WhatsAppEnabled,
		PhoneNumber:     draft.PhoneNumber,
	}
	_, err := c.do(ctx, http.MethodPut, "/reminders/"+remoteID, req)
	return err
}

// ToggleReminder flips the enabled flag on the backend.
func (c *Client) ToggleReminder(ctx context.Context, remoteID string, enabled bool) error {
	_, err := c.do(ctx, http.MethodPatch, "/reminders/"+remoteID+"/toggle", toggleReminderRequest{Enabled: enabled})
	return err
}

// EnableWhatsApp stores the WhatsApp channel preference on the backend.
func (c *Client) EnableWhatsApp(ctx context.Context, remoteID, phoneNumber string, enabled bool) error {
	_, err := c.do(ctx, http.MethodPatch, "/reminders/"+remoteID+"/whatsapp", whatsAppRequest{
		PhoneNumber: phoneNumber,
		Enabled:     enabled,
	})
	return err
}

// FetchReminders lists every reminder the backend has.
func (c *Client) FetchReminders(ctx context.Context) ([]reminder.RemoteReminder, error) {
	body, err := c.do(ctx, http.MethodGet, "/reminders", nil)
	if err != nil {
		return nil, err
	}

	var records []reminder.RemoteReminder
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, apperrors.Wrap(err, "SYNC_002", "backend returned an unexpected list response")
	}
	return records, nil
}
