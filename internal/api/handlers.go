package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/medication"
	"github.com/meditrack/meditrack/internal/reminder"
	"github.com/meditrack/meditrack/internal/schedule"
)

// reminderResponse wraps a reminder together with an optional sync warning.
// Local mutations are optimistic; a failed backend mirror still returns the
// mutated reminder.
func reminderResponse(c *fiber.Ctx, status int, rem reminder.Reminder, syncErr error) error {
	body := fiber.Map{"reminder": rem}
	if syncErr != nil {
		body["sync_error"] = syncErr.Error()
	}
	return c.Status(status).JSON(body)
}

// ==================== Reminders ====================

func (s *Server) handleListReminders(c *fiber.Ctx) error {
	return c.JSON(s.reminders.List())
}

func (s *Server) handleCreateReminder(c *fiber.Ctx) error {
	var draft reminder.Draft
	if err := c.BodyParser(&draft); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	rem, err := s.reminders.Add(c.Context(), draft)
	if err != nil && !apperrors.IsSync(err) {
		return s.writeError(c, err)
	}
	return reminderResponse(c, 201, rem, err)
}

func (s *Server) handleUpdateReminder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid reminder id"})
	}

	var draft reminder.Draft
	if err := c.BodyParser(&draft); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	rem, err := s.reminders.Update(c.Context(), id, draft)
	if err != nil && !apperrors.IsSync(err) {
		return s.writeError(c, err)
	}
	return reminderResponse(c, 200, rem, err)
}

func (s *Server) handleDeleteReminder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid reminder id"})
	}

	if err := s.reminders.Remove(c.Context(), id); err != nil {
		if apperrors.IsSync(err) {
			// Local delete stands; tell the caller the backend may lag.
			return c.JSON(fiber.Map{"sync_error": err.Error()})
		}
		return s.writeError(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleToggleReminder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid reminder id"})
	}

	rem, err := s.reminders.ToggleEnabled(c.Context(), id)
	if err != nil && !apperrors.IsSync(err) {
		return s.writeError(c, err)
	}
	return reminderResponse(c, 200, rem, err)
}

func (s *Server) handleReminderWhatsApp(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid reminder id"})
	}

	var req struct {
		Enabled     bool   `json:"enabled"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	rem, err := s.reminders.SetWhatsApp(c.Context(), id, req.Enabled, req.PhoneNumber)
	if err != nil && !apperrors.IsSync(err) {
		return s.writeError(c, err)
	}
	return reminderResponse(c, 200, rem, err)
}

// ==================== Alerts ====================

func (s *Server) handleActiveAlert(c *fiber.Ctx) error {
	rem, ok := s.presenter.Active()
	if !ok {
		return c.JSON(fiber.Map{"active": nil, "pending": s.presenter.Pending()})
	}
	return c.JSON(fiber.Map{"active": rem, "pending": s.presenter.Pending()})
}

func (s *Server) handleAlertTake(c *fiber.Ctx) error {
	rem, err := s.presenter.Take()
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"reminder": rem})
}

func (s *Server) handleAlertSnooze(c *fiber.Ctx) error {
	rem, err := s.presenter.Snooze()
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"reminder": rem})
}

func (s *Server) handleAlertDismiss(c *fiber.Ctx) error {
	rem, err := s.presenter.Dismiss()
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"reminder": rem})
}

func (s *Server) handleSnoozedAlerts(c *fiber.Ctx) error {
	if s.scheduler == nil {
		return c.JSON([]any{})
	}
	return c.JSON(s.scheduler.Snoozed())
}

// ==================== Medications ====================

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	meds, err := s.medications.List()
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(meds)
}

func (s *Server) handleCreateMedication(c *fiber.Ctx) error {
	var draft medication.Draft
	if err := c.BodyParser(&draft); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	med, err := s.medications.Add(draft)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(201).JSON(med)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	if err := s.medications.Remove(c.Params("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleTakeMedication(c *fiber.Ctx) error {
	med, err := s.medications.Take(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleSkipMedication(c *fiber.Ctx) error {
	med, err := s.medications.Skip(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleMedicationProgress(c *fiber.Ctx) error {
	progress, err := s.medications.Progress()
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(progress)
}

func (s *Server) handleMedicationHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	logs, err := s.medications.History(c.Params("id"), limit)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(logs)
}

// ==================== Schedule events ====================

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	events, err := s.events.List()
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(events)
}

func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var draft schedule.Draft
	if err := c.BodyParser(&draft); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	event, err := s.events.Add(draft)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(201).JSON(event)
}

func (s *Server) handleUpdateEvent(c *fiber.Ctx) error {
	var draft schedule.Draft
	if err := c.BodyParser(&draft); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	event, err := s.events.Update(c.Params("id"), draft)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(event)
}

func (s *Server) handleDeleteEvent(c *fiber.Ctx) error {
	if err := s.events.Remove(c.Params("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleToggleEvent(c *fiber.Ctx) error {
	event, err := s.events.ToggleReminder(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(event)
}

func (s *Server) handleEventWindow(c *fiber.Ctx) error {
	view := c.Query("view", "day")
	ref := time.Now()
	if date := c.Query("date"); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}
		ref = parsed
	}

	events, err := s.events.Window(view, ref)
	if err != nil {
		return s.writeError(c, err)
	}

	s.logger.Debug("event window query",
		zap.String("view", view), zap.Int("count", len(events)))
	return c.JSON(events)
}
