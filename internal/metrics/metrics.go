package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine holds the counters of the reminder and delivery tasks and of the
// access gate. A nil *Engine is valid and records nothing.
type Engine struct {
	remindersGenerated   prometheus.Counter
	notificationsSent    *prometheus.CounterVec
	tickFailures         *prometheus.CounterVec
	accessDenied         *prometheus.CounterVec
	pendingNotifications prometheus.Gauge
}

// NewEngine creates and registers the engine metrics on reg.
func NewEngine(reg prometheus.Registerer) (*Engine, error) {
	e := &Engine{
		remindersGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_generated_total",
			Help: "Expiry reminders created by the reminder evaluator.",
		}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notifications moved from Pending to Sent.",
		}, []string{"kind"}),
		tickFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "background_tick_failures_total",
			Help: "Background ticks that failed and will be retried.",
		}, []string{"task"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_denied_total",
			Help: "Mutations rejected by the access gate.",
		}, []string{"capability"}),
		pendingNotifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notifications_pending",
			Help: "Pending notifications seen by the last delivery tick.",
		}),
	}
	for _, c := range []prometheus.Collector{
		e.remindersGenerated, e.notificationsSent, e.tickFailures, e.accessDenied, e.pendingNotifications,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) RemindersGenerated(n int) {
	if e == nil || n <= 0 {
		return
	}
	e.remindersGenerated.Add(float64(n))
}

func (e *Engine) NotificationDelivered(kind string) {
	if e == nil {
		return
	}
	e.notificationsSent.WithLabelValues(kind).Inc()
}

func (e *Engine) TickFailed(task string) {
	if e == nil {
		return
	}
	e.tickFailures.WithLabelValues(task).Inc()
}

func (e *Engine) AccessDenied(capability string) {
	if e == nil {
		return
	}
	e.accessDenied.WithLabelValues(capability).Inc()
}

func (e *Engine) PendingNotifications(n int) {
	if e == nil {
		return
	}
	e.pendingNotifications.Set(float64(n))
}
