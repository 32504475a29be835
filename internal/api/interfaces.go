package api

import (
	"context"
	"time"

	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/destination"
	"github.com/neexbeast/partiu085-web/internal/offer"
	"github.com/neexbeast/partiu085-web/internal/storage"
)

// SearchBackend defines the search operations needed by the radar and results pages.
type SearchBackend interface {
	Execute(ctx context.Context, req backend.SearchRequest) backend.Status
	Results(ctx context.Context) backend.ResultsResponse
}

// AlertBackend defines the alert CRUD needed by the alerts page.
type AlertBackend interface {
	Alerts(ctx context.Context) backend.AlertsResponse
	AddAlert(ctx context.Context, in backend.AlertInput) backend.Status
	DeleteAlert(ctx context.Context, id string) backend.Status
}

// LabBackend defines the promo text processing and sharing operations.
type LabBackend interface {
	ProcessText(ctx context.Context, text, mode string) backend.TextResult
	SendOfferToTelegram(ctx context.Context, o offer.Offer) backend.Status
}

// SchedulerControl defines the scheduler actions available on the settings page.
type SchedulerControl interface {
	StartScheduler(ctx context.Context) backend.Status
	PauseScheduler(ctx context.Context) backend.Status
	RunSchedulerNow(ctx context.Context) backend.Status
}

// Backend is the full backend surface the handlers use.
// *backend.Client satisfies this interface.
type Backend interface {
	SearchBackend
	AlertBackend
	LabBackend
	SchedulerControl
}

// SchedulerMonitor serves scheduler status and execution logs.
type SchedulerMonitor interface {
	SchedulerStatus(ctx context.Context) backend.SchedulerStatus
	ExecutionLogs(ctx context.Context) backend.LogsResponse
	RefreshStatus(ctx context.Context) backend.SchedulerStatus
	StatusUpdatedAt() time.Time
}

// DestinationSearcher defines the autocomplete lookup and list refresh.
type DestinationSearcher interface {
	Search(ctx context.Context, input string, limit int) []destination.Destination
	Reload(ctx context.Context) []destination.Destination
}

// SearchHistory defines the search log operations. Optional.
type SearchHistory interface {
	RecordSearch(ctx context.Context, rec storage.SearchRecord) (int64, error)
	RecentSearches(ctx context.Context, iata string, limit int) ([]storage.SearchRecord, error)
}

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
