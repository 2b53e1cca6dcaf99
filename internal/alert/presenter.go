// Package alert presents fired reminders one at a time. Simultaneous fires
// are queued, never dropped: clearing the active alert promotes the queue
// head.
package alert

import (
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/metrics"
	"github.com/meditrack/meditrack/internal/reminder"
)

// Snoozer re-arms a reminder after a snooze action. Implemented by the
// scheduler.
type Snoozer interface {
	Snooze(rem reminder.Reminder)
}

// State is the presenter state: Idle when no alert is showing, Alerting when
// one is.
type State string

const (
	StateIdle     State = "idle"
	StateAlerting State = "alerting"
)

// Presenter holds the active alert and the pending queue behind it.
type Presenter struct {
	mu      sync.Mutex
	active  *reminder.Reminder
	queue   []reminder.Reminder
	snoozer Snoozer
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an idle presenter.
func New(snoozer Snoozer, logger *zap.Logger) *Presenter {
	return &Presenter{
		snoozer: snoozer,
		logger:  logger,
		metrics: metrics.Default(),
	}
}

// WithMetrics overrides the metrics sink, used by tests.
func (p *Presenter) WithMetrics(m *metrics.Metrics) *Presenter {
	p.metrics = m
	return p
}

// SetSnoozer wires the snooze target after construction, breaking the
// presenter/scheduler construction cycle.
func (p *Presenter) SetSnoozer(s Snoozer) {
	p.mu.Lock()
	p.snoozer = s
	p.mu.Unlock()
}

// Enqueue surfaces a fired reminder. When another alert is already showing
// the reminder waits in FIFO order.
func (p *Presenter) Enqueue(rem reminder.Reminder) {
	p.mu.Lock()
	if p.active == nil {
		p.active = &rem
	} else {
		p.queue = append(p.queue, rem)
	}
	p.mu.Unlock()

	p.metrics.RecordAlertQueued()
	p.logger.Info("alert presented",
		zap.Int("id", rem.ID), zap.String("medication", rem.MedicationName))
}

// State returns the presenter state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return StateIdle
	}
	return StateAlerting
}

// Active returns the currently alerting reminder, if any.
func (p *Presenter) Active() (reminder.Reminder, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return reminder.Reminder{}, false
	}
	return *p.active, true
}

// Pending returns how many alerts are waiting behind the active one.
func (p *Presenter) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Take acknowledges the active alert. It does not mark the medication taken
// on the dashboard list; that lives in the medication package and callers
// reconcile the two explicitly.
func (p *Presenter) Take() (reminder.Reminder, error) {
	rem, err := p.clear()
	if err != nil {
		return reminder.Reminder{}, err
	}
	p.metrics.RecordAlertAction("take")
	p.logger.Info("alert taken", zap.Int("id", rem.ID))
	return rem, nil
}

// Snooze clears the active alert and schedules it to re-fire.
func (p *Presenter) Snooze() (reminder.Reminder, error) {
	p.mu.Lock()
	if p.active == nil {
		p.mu.Unlock()
		return reminder.Reminder{}, apperrors.ErrNoActiveAlert
	}
	rem := *p.active
	snoozer := p.snoozer
	p.promoteLocked()
	p.mu.Unlock()

	if snoozer != nil {
		snoozer.Snooze(rem)
	}
	p.metrics.RecordAlertAction("snooze")
	return rem, nil
}

// Dismiss clears the active alert with no further effect.
func (p *Presenter) Dismiss() (reminder.Reminder, error) {
	rem, err := p.clear()
	if err != nil {
		return reminder.Reminder{}, err
	}
	p.metrics.RecordAlertAction("dismiss")
	p.logger.Info("alert dismissed", zap.Int("id", rem.ID))
	return rem, nil
}

func (p *Presenter) clear() (reminder.Reminder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return reminder.Reminder{}, apperrors.ErrNoActiveAlert
	}
	rem := *p.active
	p.promoteLocked()
	return rem, nil
}

// promoteLocked clears the active slot and moves the queue head into it.
func (p *Presenter) promoteLocked() {
	p.active = nil
	if len(p.queue) > 0 {
		head := p.queue[0]
		p.queue = append(p.queue[:0:0], p.queue[1:]...)
		p.active = &head
	}
}
