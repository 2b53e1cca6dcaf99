package metrics

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	timersArmed   atomic.Int64
	reconciles    atomic.Int64
	timersFired   atomic.Int64

	alertsQueued    atomic.Int64
	alertsTaken     atomic.Int64
	alertsSnoozed   atomic.Int64
	alertsDismissed atomic.Int64

	syncAttempts atomic.Int64
	syncFailures atomic.Int64

	whatsappSent   atomic.Int64
	whatsappFailed atomic.Int64

	vibrationFailed atomic.Int64

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64

	endpointRequests map[string]*atomic.Int64
	endpointLock     sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime:        time.Now(),
		endpointRequests: make(map[string]*atomic.Int64),
	}
}

func (m *Metrics) RecordReconcile(armed int) {
	m.reconciles.Add(1)
	m.timersArmed.Add(int64(armed))
}

func (m *Metrics) RecordTimerFired() {
	m.timersFired.Add(1)
}

func (m *Metrics) RecordAlertQueued() {
	m.alertsQueued.Add(1)
}

func (m *Metrics) RecordAlertAction(action string) {
	switch action {
	case "take":
		m.alertsTaken.Add(1)
	case "snooze":
		m.alertsSnoozed.Add(1)
	case "dismiss":
		m.alertsDismissed.Add(1)
	}
}

func (m *Metrics) RecordSync(success bool) {
	m.syncAttempts.Add(1)
	if !success {
		m.syncFailures.Add(1)
	}
}

func (m *Metrics) RecordWhatsApp(success bool) {
	if success {
		m.whatsappSent.Add(1)
	} else {
		m.whatsappFailed.Add(1)
	}
}

func (m *Metrics) RecordVibrationFailure() {
	m.vibrationFailed.Add(1)
}

func (m *Metrics) RecordRequest(success bool) {
	m.requestsTotal.Add(1)
	if success {
		m.requestsSuccess.Add(1)
	} else {
		m.requestsFailed.Add(1)
	}
}

func (m *Metrics) RecordEndpoint(endpoint string) {
	m.endpointLock.Lock()
	defer m.endpointLock.Unlock()

	if m.endpointRequests[endpoint] == nil {
		m.endpointRequests[endpoint] = &atomic.Int64{}
	}
	m.endpointRequests[endpoint].Add(1)
}

type Snapshot struct {
	Uptime          time.Duration    `json:"uptime"`
	Reconciles      int64            `json:"reconciles"`
	TimersArmed     int64            `json:"timers_armed"`
	TimersFired     int64            `json:"timers_fired"`
	AlertsQueued    int64            `json:"alerts_queued"`
	AlertsTaken     int64            `json:"alerts_taken"`
	AlertsSnoozed   int64            `json:"alerts_snoozed"`
	AlertsDismissed int64            `json:"alerts_dismissed"`
	SyncAttempts    int64            `json:"sync_attempts"`
	SyncFailures    int64            `json:"sync_failures"`
	WhatsAppSent    int64            `json:"whatsapp_sent"`
	WhatsAppFailed  int64            `json:"whatsapp_failed"`
	VibrationFailed int64            `json:"vibration_failed"`
	RequestsTotal   int64            `json:"requests_total"`
	RequestsSuccess int64            `json:"requests_success"`
	RequestsFailed  int64            `json:"requests_failed"`
	SyncSuccessRate float64          `json:"sync_success_rate"`
	Endpoints       map[string]int64 `json:"endpoints"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:          time.Since(m.startTime),
		Reconciles:      m.reconciles.Load(),
		TimersArmed:     m.timersArmed.Load(),
		TimersFired:     m.timersFired.Load(),
		AlertsQueued:    m.alertsQueued.Load(),
		AlertsTaken:     m.alertsTaken.Load(),
		AlertsSnoozed:   m.alertsSnoozed.Load(),
		AlertsDismissed: m.alertsDismissed.Load(),
		SyncAttempts:    m.syncAttempts.Load(),
		SyncFailures:    m.syncFailures.Load(),
		WhatsAppSent:    m.whatsappSent.Load(),
		WhatsAppFailed:  m.whatsappFailed.Load(),
		VibrationFailed: m.vibrationFailed.Load(),
		RequestsTotal:   m.requestsTotal.Load(),
		RequestsSuccess: m.requestsSuccess.Load(),
		RequestsFailed:  m.requestsFailed.Load(),
		Endpoints:       make(map[string]int64),
	}

	if s.SyncAttempts > 0 {
		s.SyncSuccessRate = float64(s.SyncAttempts-s.SyncFailures) / float64(s.SyncAttempts) * 100
	}

	m.endpointLock.Lock()
	for k, v := range m.endpointRequests {
		s.Endpoints[k] = v.Load()
	}
	m.endpointLock.Unlock()

	return s
}

func (m *Metrics) Prometheus() string {
	var sb strings.Builder

	writeCounter := func(name, help string, value int64) {
		sb.WriteString("# HELP meditrack_" + name + " " + help + "\n")
		sb.WriteString("# TYPE meditrack_" + name + " counter\n")
		sb.WriteString("meditrack_" + name + " " + strconv.FormatInt(value, 10) + "\n\n")
	}

	sb.WriteString("# HELP meditrack_uptime_seconds Time since start\n")
	sb.WriteString("# TYPE meditrack_uptime_seconds gauge\n")
	sb.WriteString("meditrack_uptime_seconds " + strconv.FormatInt(int64(time.Since(m.startTime).Seconds()), 10) + "\n\n")

	writeCounter("reconciles_total", "Scheduler reconciliations", m.reconciles.Load())
	writeCounter("timers_armed_total", "Timers armed across reconciliations", m.timersArmed.Load())
	writeCounter("timers_fired_total", "Timers fired", m.timersFired.Load())
	writeCounter("alerts_queued_total", "Alerts queued on the presenter", m.alertsQueued.Load())
	writeCounter("alerts_taken_total", "Alerts acknowledged as taken", m.alertsTaken.Load())
	writeCounter("alerts_snoozed_total", "Alerts snoozed", m.alertsSnoozed.Load())
	writeCounter("alerts_dismissed_total", "Alerts dismissed", m.alertsDismissed.Load())
	writeCounter("sync_attempts_total", "Remote sync attempts", m.syncAttempts.Load())
	writeCounter("sync_failures_total", "Remote sync failures", m.syncFailures.Load())
	writeCounter("whatsapp_sent_total", "WhatsApp messages sent", m.whatsappSent.Load())
	writeCounter("whatsapp_failed_total", "WhatsApp messages failed", m.whatsappFailed.Load())
	writeCounter("requests_total", "HTTP API requests", m.requestsTotal.Load())
	writeCounter("requests_failed_total", "Failed HTTP API requests", m.requestsFailed.Load())

	m.endpointLock.Lock()
	for endpoint, count := range m.endpointRequests {
		sb.WriteString("# HELP meditrack_endpoint_requests_total Requests per endpoint\n")
		sb.WriteString("# TYPE meditrack_endpoint_requests_total counter\n")
		sb.WriteString("meditrack_endpoint_requests_total{endpoint=\"" + endpoint + "\"} " + strconv.FormatInt(count.Load(), 10) + "\n\n")
	}
	m.endpointLock.Unlock()

	return sb.String()
}

func GetSnapshot() *Snapshot {
	return Default().Snapshot()
}

func GetPrometheus() string {
	return Default().Prometheus()
}
