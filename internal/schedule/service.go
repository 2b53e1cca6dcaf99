// Package schedule manages medical events: checkups, tests, appointments and
// report pickups.
package schedule

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/store"
)

const dateLayout = "2006-01-02"

var eventTypes = map[string]bool{
	"checkup":     true,
	"test":        true,
	"appointment": true,
	"report":      true,
}

// Draft carries user input for a new or updated event.
type Draft struct {
	Title           string `json:"title"`
	Type            string `json:"type"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	ReminderEnabled bool   `json:"reminder_enabled"`
}

// Service handles medical event persistence and window queries.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a schedule service over the shared database.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func validateDraft(draft Draft) error {
	if draft.Title == "" {
		return apperrors.New("VAL_001", "event title is required")
	}
	if draft.Type != "" && !eventTypes[draft.Type] {
		return apperrors.New("VAL_001", "unknown event type "+draft.Type)
	}
	if _, err := time.Parse(dateLayout, draft.Date); err != nil {
		return apperrors.New("VAL_004", "event date must be YYYY-MM-DD")
	}
	return nil
}

// Add validates and inserts a new event.
func (s *Service) Add(draft Draft) (*store.Event, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	event := &store.Event{
		Title:           draft.Title,
		Type:            draft.Type,
		Date:            draft.Date,
		Time:            draft.Time,
		Location:        draft.Location,
		Description:     draft.Description,
		ReminderEnabled: draft.ReminderEnabled,
	}
	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Get returns one event by ID.
func (s *Service) Get(id string) (*store.Event, error) {
	var event store.Event
	if err := s.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Update replaces an event's fields from the draft, keeping its ID.
func (s *Service) Update(id string, draft Draft) (*store.Event, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	event, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	event.Title = draft.Title
	event.Type = draft.Type
	event.Date = draft.Date
	event.Time = draft.Time
	event.Location = draft.Location
	event.Description = draft.Description
	event.ReminderEnabled = draft.ReminderEnabled
	event.UpdatedAt = time.Now()

	if err := s.db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Remove deletes an event.
func (s *Service) Remove(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.db.Where("id = ?", id).Delete(&store.Event{}).Error
}

// ToggleReminder flips the event's reminder flag.
func (s *Service) ToggleReminder(id string) (*store.Event, error) {
	event, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	event.ReminderEnabled = !event.ReminderEnabled
	event.UpdatedAt = time.Now()
	if err := s.db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// List returns all events sorted by date then time.
func (s *Service) List() ([]store.Event, error) {
	var events []store.Event
	err := s.db.Order("date ASC, time ASC").Find(&events).Error
	return events, err
}

// Window returns events inside the day, week, or month containing ref,
// sorted by date then time. Weeks start on Monday.
func (s *Service) Window(view string, ref time.Time) ([]store.Event, error) {
	var start, end time.Time
	switch view {
	case "day":
		start = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
		end = start.AddDate(0, 0, 1)
	case "week":
		offset := int(ref.Weekday()) - int(time.Monday)
		if offset < 0 {
			offset += 7
		}
		start = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location()).AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case "month":
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		end = start.AddDate(0, 1, 0)
	default:
		return nil, apperrors.New("VAL_001", "view must be day, week or month")
	}

	var events []store.Event
	err := s.db.Where("date >= ? AND date < ?", start.Format(dateLayout), end.Format(dateLayout)).
		Order("date ASC, time ASC").
		Find(&events).Error
	return events, err
}
