package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики регистрируются в prometheus.DefaultRegisterer
// и отдаются через promhttp.Handler() на /metrics.
var (
	// TasksEnqueued — задачи, поставленные в очередь.
	TasksEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_tasks_enqueued_total",
		Help: "Total number of tasks added to a queue",
	}, []string{"queue"})

	// TasksFinished — задачи в терминальном состоянии.
	TasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_tasks_finished_total",
		Help: "Total number of tasks finished by outcome",
	}, []string{"queue", "status"})

	// TaskAttempts — попытки исходящих вызовов.
	TaskAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_task_attempts_total",
		Help: "Total number of outbound request attempts",
	}, []string{"queue", "outcome"})

	// TaskDuration — время от лиза до терминального исхода.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courier_task_duration_seconds",
		Help:    "Task execution time including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"queue"})

	// CallbackDeliveries — исходы доставки callback.
	CallbackDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_callback_deliveries_total",
		Help: "Total number of callback deliveries by outcome",
	}, []string{"outcome"})

	// BusySlots — занятые слоты пула.
	BusySlots = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "courier_busy_slots",
		Help: "Number of worker slots currently processing a job",
	}, []string{"queue"})

	// HTTPRequests — запросы к API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_http_requests_total",
		Help: "Total number of API requests",
	}, []string{"method", "status"})
)
