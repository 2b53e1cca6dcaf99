package reminder

import (
	"time"
)

// Weekday abbreviations in schedule order.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayAbbrev returns the three-letter weekday abbreviation for t.
func DayAbbrev(t time.Time) string {
	return t.Weekday().String()[:3]
}

// ValidDay reports whether day is one of the seven weekday abbreviations.
func ValidDay(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Reminder is a per-weekday medication alarm. The ID is assigned locally and
// is unique within a client session; RemoteID is set once the backend has
// acknowledged the reminder.
type Reminder struct {
	ID              int       `json:"id"`
	RemoteID        string    `json:"remote_id,omitempty"`
	MedicationName  string    `json:"medication_name"`
	Time            ClockTime `json:"time"`
	Days            []string  `json:"days"`
	Enabled         bool      `json:"enabled"`
	WhatsAppEnabled bool      `json:"whatsapp_enabled"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
}

// ScheduledFor reports whether the reminder is scheduled on the given
// weekday abbreviation.
func (r Reminder) ScheduledFor(day string) bool {
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Draft is the caller-supplied shape for a new reminder, before the store
// assigns an ID.
type Draft struct {
	MedicationName  string   `json:"medication_name"`
	Time            string   `json:"time"`
	Days            []string `json:"days"`
	Dosage          string   `json:"dosage,omitempty"`
	Frequency       string   `json:"frequency,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	WhatsAppEnabled bool     `json:"whatsapp_enabled"`
	PhoneNumber     string   `json:"phone_number,omitempty"`
}

// RemoteReminder is a reminder record as the backend returns it.
type RemoteReminder struct {
	ID              string   `json:"_id"`
	Name            string   `json:"name"`
	Times           []string `json:"time"`
	Days            []string `json:"days"`
	Enabled         bool     `json:"enabled"`
	WhatsAppEnabled bool     `json:"whatsappEnabled"`
	PhoneNumber     string   `json:"phoneNumber"`
}
