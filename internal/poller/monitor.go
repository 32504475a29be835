package poller

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/partiu085-web/internal/backend"
)

// SchedulerSource is the live backend surface the monitor polls.
type SchedulerSource interface {
	SchedulerStatus(ctx context.Context) backend.SchedulerStatus
	ExecutionLogs(ctx context.Context) backend.LogsResponse
}

// StatusStore keeps the last good status across restarts. Optional.
type StatusStore interface {
	GetStatus(ctx context.Context) (*backend.SchedulerStatus, error)
	SetStatus(ctx context.Context, st backend.SchedulerStatus) error
}

// Monitor polls scheduler status and execution logs in the background and
// serves the latest values to page handlers.
type Monitor struct {
	source SchedulerSource
	store  StatusStore
	status *Poller[backend.SchedulerStatus]
	logs   *Poller[backend.LogsResponse]
	log    *slog.Logger
}

// NewMonitor constructs a Monitor. store may be nil.
func NewMonitor(source SchedulerSource, store StatusStore, interval time.Duration, log *slog.Logger) *Monitor {
	m := &Monitor{source: source, store: store, log: log}

	var onStatus func(context.Context, backend.SchedulerStatus)
	if store != nil {
		onStatus = func(ctx context.Context, st backend.SchedulerStatus) {
			if err := store.SetStatus(ctx, st); err != nil {
				log.Warn("status cache set failed", "err", err)
			}
		}
	}

	m.status = New[backend.SchedulerStatus]("scheduler-status", interval, source.SchedulerStatus, onStatus, log)
	m.logs = New[backend.LogsResponse]("execution-logs", interval, source.ExecutionLogs, nil, log)
	return m
}

// Run drives both pollers until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.status.Run(ctx)
		return nil
	})
	g.Go(func() error {
		m.logs.Run(ctx)
		return nil
	})
	return g.Wait()
}

// SchedulerStatus returns the latest polled status. Before the first poll it
// falls back to the stored snapshot and then to a live call.
func (m *Monitor) SchedulerStatus(ctx context.Context) backend.SchedulerStatus {
	if st, ok := m.status.Latest(); ok {
		return st
	}

	if m.store != nil {
		cached, err := m.store.GetStatus(ctx)
		if err != nil {
			m.log.Warn("status cache get failed", "err", err)
		}
		if cached != nil {
			return *cached
		}
	}

	return m.status.Refresh(ctx)
}

// ExecutionLogs returns the latest polled logs, fetching live before the first poll.
func (m *Monitor) ExecutionLogs(ctx context.Context) backend.LogsResponse {
	if logs, ok := m.logs.Latest(); ok {
		return logs
	}
	return m.logs.Refresh(ctx)
}

// StatusUpdatedAt reports when the status was last polled. It is zero until
// the first successful poll.
func (m *Monitor) StatusUpdatedAt() time.Time {
	return m.status.UpdatedAt()
}

// RefreshStatus polls the status immediately, e.g. after a control action.
func (m *Monitor) RefreshStatus(ctx context.Context) backend.SchedulerStatus {
	return m.status.Refresh(ctx)
}
