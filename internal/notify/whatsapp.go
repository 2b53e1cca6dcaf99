// Package notify implements the secondary WhatsApp notification channel.
package notify

import (
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/meditrack/meditrack/internal/config"
	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/metrics"
)

// messageCreator is the slice of the Twilio API the sender uses.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsAppSender sends reminder messages over Twilio's WhatsApp API. It
// implements scheduler.Notifier. Sends are best effort; the caller decides
// whether a failure matters.
type WhatsAppSender struct {
	api     messageCreator
	from    string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewWhatsAppSender creates a sender bound to the configured Twilio account.
// It returns an error when the channel is not configured, so callers can fall
// back to running without WhatsApp.
func NewWhatsAppSender(cfg config.WhatsAppConfig, logger *zap.Logger) (*WhatsAppSender, error) {
	if !cfg.Enabled {
		return nil, apperrors.ErrWhatsAppUnavailable
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, apperrors.New("FEAT_002", "WhatsApp channel requires account SID, auth token and sender number")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &WhatsAppSender{
		api:     client.Api,
		from:    cfg.FromNumber,
		logger:  logger,
		metrics: metrics.Default(),
	}, nil
}

// WithMetrics overrides the metrics sink, used by tests.
func (s *WhatsAppSender) WithMetrics(m *metrics.Metrics) *WhatsAppSender {
	s.metrics = m
	return s
}

// SendWhatsApp delivers one message to the given phone number.
func (s *WhatsAppSender) SendWhatsApp(to, body string) error {
	recipient := normalizeWhatsAppAddress(to)
	if recipient == "" {
		return apperrors.New("VAL_003", "recipient phone number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(normalizeWhatsAppAddress(s.from))
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.metrics.RecordWhatsApp(false)
		s.logger.Warn("whatsapp send failed", zap.String("to", recipient), zap.Error(err))
		return apperrors.Wrap(err, "FEAT_002", "could not deliver WhatsApp message")
	}

	s.metrics.RecordWhatsApp(true)
	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info("whatsapp message sent", zap.String("to", recipient), zap.String("sid", sid))
	return nil
}

// normalizeWhatsAppAddress produces the whatsapp:+E164 form Twilio expects.
func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
