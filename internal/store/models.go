package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Medication represents one medication on the dashboard list. The taken flag
// is the "today" state and resets at the daily rollover.
type Medication struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency string    `json:"frequency"`
	Time      string    `json:"time"`
	Taken     bool      `json:"taken"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntakeLog records one take/skip action for a medication.
type IntakeLog struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	MedicationID string    `gorm:"index:idx_med_recorded" json:"medication_id"`
	Action       string    `json:"action"` // taken, skipped
	RecordedAt   time.Time `gorm:"index:idx_med_recorded" json:"recorded_at"`
}

// Event represents a scheduled medical event (checkup, test, appointment,
// report pickup).
type Event struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	Title           string    `json:"title"`
	Type            string    `json:"type"`
	Date            string    `gorm:"index" json:"date"` // YYYY-MM-DD
	Time            string    `json:"time"`              // HH:MM, 24-hour
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	ReminderEnabled bool      `json:"reminder_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate hook for Medication
func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Frequency == "" {
		m.Frequency = "Once daily"
	}
	return nil
}

// BeforeCreate hook for IntakeLog
func (l *IntakeLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.RecordedAt.IsZero() {
		l.RecordedAt = time.Now()
	}
	return nil
}

// BeforeCreate hook for Event
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Type == "" {
		e.Type = "appointment"
	}
	return nil
}
