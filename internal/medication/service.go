// Package medication manages the dashboard medication list and intake
// tracking.
package medication

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/store"
)

// Progress summarizes today's intake.
type Progress struct {
	Total        int     `json:"total"`
	Taken        int     `json:"taken"`
	PercentTaken float64 `json:"percent_taken"`
}

// Draft carries user input for a new medication.
type Draft struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
}

// Service handles medication persistence and intake logging.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a medication service over the shared database.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// List returns all medications, oldest first so the dashboard order is
// stable.
func (s *Service) List() ([]store.Medication, error) {
	var meds []store.Medication
	err := s.db.Order("created_at ASC").Find(&meds).Error
	return meds, err
}

// Get returns one medication by ID.
func (s *Service) Get(id string) (*store.Medication, error) {
	var med store.Medication
	if err := s.db.First(&med, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMedicationNotFound
		}
		return nil, err
	}
	return &med, nil
}

// Add validates and inserts a new medication.
func (s *Service) Add(draft Draft) (*store.Medication, error) {
	if draft.Name == "" {
		return nil, apperrors.ErrNameRequired
	}

	med := &store.Medication{
		Name:      draft.Name,
		Dosage:    draft.Dosage,
		Frequency: draft.Frequency,
		Time:      draft.Time,
	}
	if err := s.db.Create(med).Error; err != nil {
		return nil, err
	}
	return med, nil
}

// Remove deletes a medication and its intake history.
func (s *Service) Remove(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.db.Where("medication_id = ?", id).Delete(&store.IntakeLog{}).Error; err != nil {
		return err
	}
	return s.db.Where("id = ?", id).Delete(&store.Medication{}).Error
}

// Take marks a medication as taken today and appends an intake log entry.
func (s *Service) Take(id string) (*store.Medication, error) {
	return s.record(id, "taken", true)
}

// Skip records a skipped dose without marking the medication taken.
func (s *Service) Skip(id string) (*store.Medication, error) {
	return s.record(id, "skipped", false)
}

func (s *Service) record(id, action string, taken bool) (*store.Medication, error) {
	med, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	med.Taken = taken
	med.UpdatedAt = time.Now()
	if err := s.db.Save(med).Error; err != nil {
		return nil, err
	}

	entry := &store.IntakeLog{MedicationID: id, Action: action}
	if err := s.db.Create(entry).Error; err != nil {
		s.logger.Warn("intake log write failed", zap.String("medication_id", id), zap.Error(err))
	}

	return med, nil
}

// Progress reports how much of today's list has been taken.
func (s *Service) Progress() (*Progress, error) {
	var total, taken int64
	if err := s.db.Model(&store.Medication{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&store.Medication{}).Where("taken = ?", true).Count(&taken).Error; err != nil {
		return nil, err
	}

	p := &Progress{Total: int(total), Taken: int(taken)}
	if total > 0 {
		p.PercentTaken = float64(taken) / float64(total) * 100
	}
	return p, nil
}

// History returns intake log entries for one medication, newest first.
func (s *Service) History(id string, limit int) ([]store.IntakeLog, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	query := s.db.Where("medication_id = ?", id).Order("recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var logs []store.IntakeLog
	err := query.Find(&logs).Error
	return logs, err
}

// ResetDaily clears every taken flag. The midnight job calls this so each day
// starts with a fresh checklist.
func (s *Service) ResetDaily() error {
	return s.db.Model(&store.Medication{}).Where("taken = ?", true).Update("taken", false).Error
}
