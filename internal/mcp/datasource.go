package mcp

import (
	"context"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/planner"
	"github.com/claude/kinetic/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process
// store) and HTTPClient (remote via REST API) satisfy this interface. ns is
// the identity the data belongs to; the remote client ignores it since the
// server resolves identity itself.
type DataSource interface {
	ListPrograms(ctx context.Context, ns string) ([]models.Program, error)
	GetProgram(ctx context.Context, ns, id string) (*models.Program, error)
	ListHistory(ctx context.Context, ns string) ([]models.CompletedWorkout, error)
	HistoryStats(ctx context.Context, ns string) (storage.HistoryStats, error)
	Today(ctx context.Context, ns string, day models.Date) (planner.TodayView, error)
	Month(ctx context.Context, ns string, year int, month time.Month, today models.Date) (planner.MonthView, error)
	Schedule(ctx context.Context, ns, programID string, start models.Date, weekdays planner.WeekdaySet) ([]models.ScheduledEntry, error)
}

// Local serves MCP from the in-process store.
type Local struct {
	*storage.Store
	*storage.Scheduler
}

// NewLocal combines a store and its scheduler into a DataSource.
func NewLocal(store *storage.Store, scheduler *storage.Scheduler) *Local {
	return &Local{Store: store, Scheduler: scheduler}
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)
