package observability

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values shared by the domain collectors.
const (
	OutcomeAccepted    = "accepted"
	OutcomeHoneypot    = "honeypot"
	OutcomeRateLimited = "rate_limited"
	OutcomeSent        = "sent"
	OutcomeFailed      = "failed"
)

var (
	// ContactSubmissions counts contact submissions by endpoint key and outcome.
	ContactSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact submissions by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// MailDeliveries counts background mail delivery attempts by outcome.
	MailDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_deliveries_total",
			Help: "Contact mail delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// TaskNotifications counts task notifications by task status ("done",
	// "failed") and delivery outcome ("sent", "failed").
	TaskNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_notifications_total",
			Help: "Task completion notifications by task status and delivery outcome.",
		},
		[]string{"status", "outcome"},
	)

	// BackgroundJobsInflight gauges background jobs currently running.
	BackgroundJobsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "background_jobs_inflight",
			Help: "Current number of running background jobs.",
		},
	)
)

func init() {
	prometheus.MustRegister(ContactSubmissions, MailDeliveries, TaskNotifications, BackgroundJobsInflight)
}
