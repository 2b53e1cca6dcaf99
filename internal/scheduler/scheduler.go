// Package scheduler derives one-shot timers from the reminder collection.
// The whole timer set is cancelled and rebuilt on every store or snooze-list
// change, so no stale timer outlives the state it was derived from.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meditrack/meditrack/internal/metrics"
	"github.com/meditrack/meditrack/internal/reminder"
)

// AlertSink receives fired reminders. Implemented by the alert presenter.
type AlertSink interface {
	Enqueue(rem reminder.Reminder)
}

// Notifier delivers the secondary WhatsApp channel, best effort.
type Notifier interface {
	SendWhatsApp(to, body string) error
}

// Vibrator triggers a device vibration. Unsupported devices return an error,
// which the scheduler treats as non-fatal.
type Vibrator func() error

// Snooze pairs a reminder with the absolute instant it should re-fire at.
type Snooze struct {
	Reminder reminder.Reminder `json:"reminder"`
	FireAt   time.Time         `json:"fire_at"`
}

// Scheduler owns the armed timer set. Reconcile rebuilds it from the current
// store snapshot plus the snooze list.
type Scheduler struct {
	store    *reminder.Store
	sink     AlertSink
	clock    Clock
	notifier Notifier
	vibrate  Vibrator
	logger   *zap.Logger
	metrics  *metrics.Metrics

	snoozeFor time.Duration
	cron      *cron.Cron
	midnight  func()

	mu      sync.Mutex
	timers  []Timer
	snoozed []Snooze
	gen     uint64
	running bool
	closed  bool
}

// New creates a scheduler. Call Start to arm timers and register for store
// changes; call Close on teardown so no timer fires against a dead presenter.
func New(store *reminder.Store, sink AlertSink, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:     store,
		sink:      sink,
		clock:     NewRealClock(),
		logger:    logger,
		metrics:   metrics.Default(),
		snoozeFor: 15 * time.Minute,
	}
}

// WithClock swaps the wall clock, used by tests.
func (s *Scheduler) WithClock(clock Clock) *Scheduler {
	s.clock = clock
	return s
}

// WithNotifier attaches the WhatsApp channel.
func (s *Scheduler) WithNotifier(n Notifier) *Scheduler {
	s.notifier = n
	return s
}

// WithVibrator attaches the vibration hook.
func (s *Scheduler) WithVibrator(v Vibrator) *Scheduler {
	s.vibrate = v
	return s
}

// WithSnoozeDuration overrides the default 15 minute snooze.
func (s *Scheduler) WithSnoozeDuration(d time.Duration) *Scheduler {
	if d > 0 {
		s.snoozeFor = d
	}
	return s
}

// WithMidnightJob runs fn right before each midnight reconcile, used for
// daily rollover work like clearing the dashboard's taken flags.
func (s *Scheduler) WithMidnightJob(fn func()) *Scheduler {
	s.midnight = fn
	return s
}

// WithMetrics overrides the metrics sink, used by tests.
func (s *Scheduler) WithMetrics(m *metrics.Metrics) *Scheduler {
	s.metrics = m
	return s
}

// Start subscribes to store changes, arms the initial timer set, and
// schedules a midnight reconcile so the next day's timers get armed.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is closed")
	}
	s.running = true
	s.mu.Unlock()

	s.store.SetOnChange(s.Reconcile)

	s.cron = cron.New()
	if _, err := s.cron.AddFunc("0 0 * * *", func() {
		if s.midnight != nil {
			s.midnight()
		}
		s.Reconcile()
	}); err != nil {
		return fmt.Errorf("failed to schedule midnight reconcile: %w", err)
	}
	s.cron.Start()

	s.Reconcile()
	s.logger.Info("scheduler started", zap.Duration("snooze", s.snoozeFor))
	return nil
}

// Reconcile cancels every armed timer and re-arms from the current store
// snapshot and snooze list. A reminder arms a timer only when it is enabled,
// scheduled for today's weekday, and its time of day has not yet passed;
// past-due reminders are not rolled over to the next day.
func (s *Scheduler) Reconcile() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	// Read under the scheduler lock: overlapping reconciles then arm from
	// snapshots in lock order, so a reconcile never re-arms from state
	// older than the timer set it just cancelled.
	snapshot := s.store.List()

	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.gen++
	gen := s.gen

	now := s.clock.Now()
	today := reminder.DayAbbrev(now)
	armed := 0

	exists := make(map[int]bool, len(snapshot))
	for _, rem := range snapshot {
		exists[rem.ID] = true
		if !rem.Enabled || !rem.ScheduledFor(today) {
			continue
		}
		at := rem.Time.At(now)
		if !at.After(now) {
			continue
		}
		rem := rem
		s.timers = append(s.timers, s.clock.AfterFunc(at.Sub(now), func() {
			s.fire(gen, rem, false)
		}))
		armed++
	}

	kept := s.snoozed[:0:0]
	var due []Snooze
	for _, sn := range s.snoozed {
		if !exists[sn.Reminder.ID] {
			continue
		}
		if !sn.FireAt.After(now) {
			// Came due between reconciles; deliver instead of dropping.
			due = append(due, sn)
			continue
		}
		sn := sn
		s.timers = append(s.timers, s.clock.AfterFunc(sn.FireAt.Sub(now), func() {
			s.fireSnooze(gen, sn)
		}))
		kept = append(kept, sn)
		armed++
	}
	s.snoozed = kept
	s.mu.Unlock()

	for _, sn := range due {
		// Entries consumed here are no longer on the snooze list, so this
		// reconcile must deliver them even if a newer one has started.
		s.deliver(sn.Reminder, true)
	}

	s.metrics.RecordReconcile(armed)
	s.logger.Debug("timers reconciled",
		zap.String("today", today), zap.Int("armed", armed))
}

// Snooze schedules rem to re-fire after the configured snooze duration and
// rebuilds the timer set.
func (s *Scheduler) Snooze(rem reminder.Reminder) {
	s.mu.Lock()
	sn := Snooze{Reminder: rem, FireAt: s.clock.Now().Add(s.snoozeFor)}
	s.snoozed = append(s.snoozed, sn)
	s.mu.Unlock()

	s.Reconcile()
	s.logger.Info("alert snoozed",
		zap.Int("id", rem.ID), zap.Time("fire_at", sn.FireAt))
}

// Snoozed returns a copy of the pending snooze entries.
func (s *Scheduler) Snoozed() []Snooze {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snooze, len(s.snoozed))
	copy(out, s.snoozed)
	return out
}

// stale reports whether a firing timer belongs to a superseded timer set.
func (s *Scheduler) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || gen != s.gen
}

func (s *Scheduler) fire(gen uint64, rem reminder.Reminder, snoozed bool) {
	if s.stale(gen) {
		return
	}
	s.deliver(rem, snoozed)
}

func (s *Scheduler) deliver(rem reminder.Reminder, snoozed bool) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	s.metrics.RecordTimerFired()
	s.logger.Info("reminder fired",
		zap.Int("id", rem.ID),
		zap.String("medication", rem.MedicationName),
		zap.Bool("snoozed", snoozed))

	if s.vibrate != nil {
		if err := s.vibrate(); err != nil {
			s.metrics.RecordVibrationFailure()
			s.logger.Debug("vibration unavailable", zap.Error(err))
		}
	}

	if rem.WhatsAppEnabled && rem.PhoneNumber != "" && s.notifier != nil {
		body := fmt.Sprintf("Time to take %s (%s)", rem.MedicationName, rem.Time)
		if err := s.notifier.SendWhatsApp(rem.PhoneNumber, body); err != nil {
			s.logger.Warn("whatsapp notification failed",
				zap.Int("id", rem.ID), zap.Error(err))
		}
	}

	s.sink.Enqueue(rem)
}

func (s *Scheduler) fireSnooze(gen uint64, sn Snooze) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	for i, cur := range s.snoozed {
		if cur.Reminder.ID == sn.Reminder.ID && cur.FireAt.Equal(sn.FireAt) {
			s.snoozed = append(s.snoozed[:i:i], s.snoozed[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.fire(gen, sn.Reminder, true)
}

// Close cancels all outstanding timers and stops the midnight job. The
// scheduler cannot be restarted afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.logger.Info("scheduler closed")
}
