package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce     sync.Once
	messagesCounter     metric.Int64Counter
	repliesCounter      metric.Int64Counter
	deadlineOpsCounter  metric.Int64Counter
	remindersCounter    metric.Int64Counter
	jobRunsCounter      metric.Int64Counter
	jobDuration         metric.Float64Histogram
	sseConnectionsGauge metric.Int64ObservableGauge
	sseEventsCounter    metric.Int64Counter
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		messagesCounter, err = m.Int64Counter("hardcheck_messages_total", metric.WithDescription("Inbound chat messages by outcome (duplicate, ignored, replied)"))
		if err != nil {
			return
		}
		repliesCounter, err = m.Int64Counter("hardcheck_replies_total", metric.WithDescription("Outbound replies by status (sent, retried, failed)"))
		if err != nil {
			return
		}
		deadlineOpsCounter, err = m.Int64Counter("hardcheck_deadline_operations_total", metric.WithDescription("Deadline mutations (add, complete, remind, cleanup)"))
		if err != nil {
			return
		}
		remindersCounter, err = m.Int64Counter("hardcheck_reminders_sent_total", metric.WithDescription("Overdue reminders delivered"))
		if err != nil {
			return
		}
		jobRunsCounter, err = m.Int64Counter("hardcheck_job_runs_total", metric.WithDescription("Scheduled job runs"))
		if err != nil {
			return
		}
		jobDuration, err = m.Float64Histogram("hardcheck_job_duration_seconds", metric.WithDescription("Scheduled job duration in seconds"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("hardcheck_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("hardcheck_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
	})
	return err
}

// RecordMessage records one inbound message and what happened to it.
func RecordMessage(ctx context.Context, outcome, variant string) {
	if messagesCounter == nil {
		return
	}
	messagesCounter.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome), AttrVariant.String(variant)))
}

// RecordReply records one outbound send attempt result.
func RecordReply(ctx context.Context, status string) {
	if repliesCounter == nil {
		return
	}
	repliesCounter.Add(ctx, 1, metric.WithAttributes(AttrStatus.String(status)))
}

// RecordDeadlineOp records n deadline mutations of one kind.
func RecordDeadlineOp(ctx context.Context, op string, n int) {
	if deadlineOpsCounter == nil || n <= 0 {
		return
	}
	deadlineOpsCounter.Add(ctx, int64(n), metric.WithAttributes(AttrOperation.String(op)))
}

// RecordReminders records reminders delivered by a job.
func RecordReminders(ctx context.Context, job string, n int) {
	if remindersCounter == nil || n <= 0 {
		return
	}
	remindersCounter.Add(ctx, int64(n), metric.WithAttributes(AttrJob.String(job)))
}

// RecordJob records a scheduled or manual job run and its duration.
func RecordJob(ctx context.Context, job, status string, duration time.Duration) {
	if jobRunsCounter != nil {
		jobRunsCounter.Add(ctx, 1, metric.WithAttributes(AttrJob.String(job), AttrStatus.String(status)))
	}
	if jobDuration != nil {
		jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrJob.String(job)))
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// DeadlineCountFunc returns (active, overdue, completed) counts across all users.
type DeadlineCountFunc func() (active, overdue, completed int64)

// InitMetricsWithDeadlineCount creates instruments and optionally registers the hardcheck_deadlines
// gauge. Call after InitMeterProvider. If count is nil, the gauge is not reported.
func InitMetricsWithDeadlineCount(ctx context.Context, count DeadlineCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if count == nil {
		return nil
	}
	m := Meter()
	gauge, err := m.Int64ObservableGauge("hardcheck_deadlines", metric.WithDescription("Number of deadlines by state"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		active, overdue, completed := count()
		o.ObserveInt64(gauge, active, metric.WithAttributes(AttrStatus.String("active")))
		o.ObserveInt64(gauge, overdue, metric.WithAttributes(AttrStatus.String("overdue")))
		o.ObserveInt64(gauge, completed, metric.WithAttributes(AttrStatus.String("completed")))
		return nil
	}, gauge)
	return err
}
