package reminder

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/meditrack/meditrack/internal/errors"
)

// RemoteSyncer mirrors store mutations to the reminder backend. All calls are
// fallible; the store never rolls back local state on a sync failure.
type RemoteSyncer interface {
	CreateReminder(ctx context.Context, draft Draft) (remoteID string, err error)
	UpdateReminder(ctx context.Context, remoteID string, draft Draft) error
	DeleteReminder(ctx context.Context, remoteID string) error
	ToggleReminder(ctx context.Context, remoteID string, enabled bool) error
	EnableWhatsApp(ctx context.Context, remoteID, phoneNumber string, enabled bool) error
	FetchReminders(ctx context.Context) ([]RemoteReminder, error)
}

// Store is the in-memory reminder collection, kept in insertion order. It is
// the single owner of reminder state; every mutation replaces the snapshot
// atomically and then notifies the change listener so timers can be rebuilt.
type Store struct {
	mu       sync.Mutex
	items    []Reminder
	remote   RemoteSyncer
	logger   *zap.Logger
	onChange func()
}

// NewStore creates an empty store. remote may be nil for offline use.
func NewStore(remote RemoteSyncer, logger *zap.Logger) *Store {
	return &Store{
		remote: remote,
		logger: logger,
	}
}

// SetOnChange registers the listener invoked after every successful local
// mutation. The listener runs outside the store lock.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// List returns the reminders in insertion order.
func (s *Store) List() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reminder, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the reminder with the given local ID.
func (s *Store) Get(id int) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return Reminder{}, apperrors.ErrReminderNotFound
}

// Add validates the draft, inserts it with the next sequential local ID, and
// attempts to mirror the creation to the backend. A sync failure is returned
// alongside the created reminder; the local insert stands either way.
func (s *Store) Add(ctx context.Context, draft Draft) (Reminder, error) {
	if draft.MedicationName == "" {
		return Reminder{}, apperrors.ErrNameRequired
	}
	if len(draft.Days) == 0 {
		return Reminder{}, apperrors.ErrDaysRequired
	}
	for _, d := range draft.Days {
		if !ValidDay(d) {
			return Reminder{}, apperrors.New("VAL_002", "unknown day "+d)
		}
	}
	ct, err := ParseClockTime(draft.Time)
	if err != nil {
		return Reminder{}, err
	}

	rem := Reminder{
		MedicationName:  draft.MedicationName,
		Time:            ct,
		Days:            append([]string(nil), draft.Days...),
		Enabled:         true,
		WhatsAppEnabled: draft.WhatsAppEnabled,
		PhoneNumber:     draft.PhoneNumber,
	}

	s.mu.Lock()
	rem.ID = s.nextIDLocked()
	next := make([]Reminder, len(s.items), len(s.items)+1)
	copy(next, s.items)
	s.items = append(next, rem)
	s.mu.Unlock()
	s.notify()

	var syncErr error
	if s.remote != nil {
		remoteID, err := s.remote.CreateReminder(ctx, draft)
		if err != nil {
			s.logger.Warn("reminder created locally but not synced",
				zap.Int("id", rem.ID), zap.Error(err))
			syncErr = apperrors.Wrap(err, "SYNC_001", "reminder saved locally but not synced to the backend")
		} else {
			rem.RemoteID = remoteID
			s.setRemoteID(rem.ID, remoteID)
		}
	}

	return rem, syncErr
}

// nextIDLocked computes max existing ID + 1, or 1 for an empty store.
func (s *Store) nextIDLocked() int {
	max := 0
	for _, r := range s.items {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

func (s *Store) setRemoteID(id int, remoteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Reminder, len(s.items))
	copy(next, s.items)
	for i := range next {
		if next[i].ID == id {
			next[i].RemoteID = remoteID
		}
	}
	s.items = next
}

// Update replaces an existing reminder's fields from the draft, keeping its
// local and remote IDs. Validation mirrors Add and runs before any mutation.
func (s *Store) Update(ctx context.Context, id int, draft Draft) (Reminder, error) {
	if draft.MedicationName == "" {
		return Reminder{}, apperrors.ErrNameRequired
	}
	if len(draft.Days) == 0 {
		return Reminder{}, apperrors.ErrDaysRequired
	}
	for _, d := range draft.Days {
		if !ValidDay(d) {
			return Reminder{}, apperrors.New("VAL_002", "unknown day "+d)
		}
	}
	ct, err := ParseClockTime(draft.Time)
	if err != nil {
		return Reminder{}, err
	}

	s.mu.Lock()
	idx := -1
	for i, r := range s.items {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Reminder{}, apperrors.ErrReminderNotFound
	}

	next := make([]Reminder, len(s.items))
	copy(next, s.items)
	next[idx].MedicationName = draft.MedicationName
	next[idx].Time = ct
	next[idx].Days = append([]string(nil), draft.Days...)
	next[idx].WhatsAppEnabled = draft.WhatsAppEnabled
	next[idx].PhoneNumber = draft.PhoneNumber
	s.items = next
	rem := next[idx]
	s.mu.Unlock()
	s.notify()

	var syncErr error
	if s.remote != nil && rem.RemoteID != "" {
		if err := s.remote.UpdateReminder(ctx, rem.RemoteID, draft); err != nil {
			s.logger.Warn("update applied locally but not synced",
				zap.Int("id", id), zap.String("remote_id", rem.RemoteID), zap.Error(err))
			syncErr = apperrors.Wrap(err, "SYNC_001", "update applied locally but not synced to the backend")
		}
	}

	return rem, syncErr
}

// ToggleEnabled flips the enabled flag. The local flip is applied
// optimistically; when the reminder is synced, the backend is told as well,
// and a failure there is surfaced without rolling back.
func (s *Store) ToggleEnabled(ctx context.Context, id int) (Reminder, error) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.items {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Reminder{}, apperrors.ErrReminderNotFound
	}

	next := make([]Reminder, len(s.items))
	copy(next, s.items)
	next[idx].Enabled = !next[idx].Enabled
	s.items = next
	rem := next[idx]
	s.mu.Unlock()
	s.notify()

	var syncErr error
	if s.remote != nil && rem.RemoteID != "" {
		if err := s.remote.ToggleReminder(ctx, rem.RemoteID, rem.Enabled); err != nil {
			s.logger.Warn("toggle applied locally but not synced",
				zap.Int("id", id), zap.String("remote_id", rem.RemoteID), zap.Error(err))
			syncErr = apperrors.Wrap(err, "SYNC_001", "toggle applied locally but the backend may not have it")
		}
	}

	return rem, syncErr
}

// Remove deletes the reminder locally and, when it has a remote ID, asks the
// backend to delete it too.
func (s *Store) Remove(ctx context.Context, id int) error {
	s.mu.Lock()
	idx := -1
	for i, r := range s.items {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrReminderNotFound
	}

	removed := s.items[idx]
	next := make([]Reminder, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	s.mu.Unlock()
	s.notify()

	if s.remote != nil && removed.RemoteID != "" {
		if err := s.remote.DeleteReminder(ctx, removed.RemoteID); err != nil {
			s.logger.Warn("reminder removed locally but remote delete failed",
				zap.Int("id", id), zap.String("remote_id", removed.RemoteID), zap.Error(err))
			return apperrors.Wrap(err, "SYNC_001", "reminder removed locally but the backend may still have it")
		}
	}

	return nil
}

// SetWhatsApp updates the WhatsApp channel settings. Enabling without a phone
// number on file is rejected before any state change.
func (s *Store) SetWhatsApp(ctx context.Context, id int, enabled bool, phoneNumber string) (Reminder, error) {
	if enabled && phoneNumber == "" {
		return Reminder{}, apperrors.ErrPhoneRequired
	}

	s.mu.Lock()
	idx := -1
	for i, r := range s.items {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Reminder{}, apperrors.ErrReminderNotFound
	}

	next := make([]Reminder, len(s.items))
	copy(next, s.items)
	next[idx].WhatsAppEnabled = enabled
	next[idx].PhoneNumber = phoneNumber
	s.items = next
	rem := next[idx]
	s.mu.Unlock()
	s.notify()

	var syncErr error
	if s.remote != nil && rem.RemoteID != "" {
		if err := s.remote.EnableWhatsApp(ctx, rem.RemoteID, phoneNumber, enabled); err != nil {
			s.logger.Warn("whatsapp setting applied locally but not synced",
				zap.Int("id", id), zap.Error(err))
			syncErr = apperrors.Wrap(err, "SYNC_001", "WhatsApp setting applied locally but not synced to the backend")
		}
	}

	return rem, syncErr
}

// Hydrate replaces the local collection with the backend's records, assigning
// fresh sequential local IDs in the order the backend returns them.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}

	records, err := s.remote.FetchReminders(ctx)
	if err != nil {
		return apperrors.Wrap(err, "SYNC_001", "could not load reminders from the backend")
	}

	items := make([]Reminder, 0, len(records))
	for _, rec := range records {
		timeStr := ""
		if len(rec.Times) > 0 {
			timeStr = rec.Times[0]
		}
		ct, err := ParseClockTime(timeStr)
		if err != nil {
			s.logger.Warn("skipping remote reminder with unparseable time",
				zap.String("remote_id", rec.ID), zap.String("time", timeStr))
			continue
		}
		days := rec.Days
		if len(days) == 0 {
			days = append([]string(nil), Weekdays...)
		}
		items = append(items, Reminder{
			ID:              len(items) + 1,
			RemoteID:        rec.ID,
			MedicationName:  rec.Name,
			Time:            ct,
			Days:            days,
			Enabled:         rec.Enabled,
			WhatsAppEnabled: rec.WhatsAppEnabled,
			PhoneNumber:     rec.PhoneNumber,
		})
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.notify()

	s.logger.Info("reminders hydrated from backend", zap.Int("count", len(items)))
	return nil
}

// Replace swaps in a full snapshot, used when restoring a cached hydration.
func (s *Store) Replace(items []Reminder) {
	next := make([]Reminder, len(items))
	copy(next, items)

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
	s.notify()
}
