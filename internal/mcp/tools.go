package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/planner"
)

// defaultHistoryLimit caps get_history when no limit is given.
const defaultHistoryLimit = 10

// parseDay parses an optional YYYY-MM-DD, defaulting to today.
func parseDay(s string) (models.Date, error) {
	if s == "" {
		return models.Today(), nil
	}
	return models.ParseDate(s)
}

// parseWeekdays reads a weekday list, defaulting to Monday/Wednesday/Friday
// when empty.
func parseWeekdays(s string) (planner.WeekdaySet, error) {
	if strings.TrimSpace(s) == "" {
		return planner.DefaultWeekdays(), nil
	}
	return planner.ParseWeekdays(s)
}

// programSummary is the compact listing form of a program.
type programSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Days         int    `json:"days"`
	TrainingDays int    `json:"training_days"`
}

func summarize(programs []models.Program) []programSummary {
	out := make([]programSummary, len(programs))
	for i := range programs {
		p := &programs[i]
		out[i] = programSummary{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Days:         len(p.Workouts),
			TrainingDays: p.TrainingDays(),
		}
	}
	return out
}

// --- Tool definitions ---

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List saved workout programs with their IDs, number of workout days and training (non-rest) days."),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Get a workout program with every workout day and exercise prescription. Days without exercises are rest days."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Program ID (see list_programs)")),
)

var toolTodaysTraining = mcp.NewTool("todays_training",
	mcp.WithDescription("Scheduled workouts for a day that have not been completed yet. Status is nothing_scheduled, all_complete or outstanding."),
	mcp.WithString("date", mcp.Description("Day to check (YYYY-MM-DD). Defaults to today.")),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Completed workouts, newest first, with per-set results, intensity rating and notes, plus overall totals."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts to return. Defaults to 10.")),
)

var toolGetCalendar = mcp.NewTool("get_calendar",
	mcp.WithDescription("Month calendar of scheduled workouts, each flagged completed or not."),
	mcp.WithString("month", mcp.Description("Month as YYYY-MM. Defaults to the current month.")),
)

var toolScheduleProgram = mcp.NewTool("schedule_program",
	mcp.WithDescription("Place a program's training days on the calendar from a start date, one per selected weekday. Replaces the program's previous schedule."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program ID")),
	mcp.WithString("start_date", mcp.Description("First day to consider (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("weekdays", mcp.Description("Comma separated training weekdays, e.g. 'mon,wed,fri'. Defaults to mon,wed,fri.")),
)

// --- Tool handlers ---

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.ds.ListPrograms(ctx, IdentityFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summarize(programs))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	program, err := h.ds.GetProgram(ctx, IdentityFromContext(ctx), id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(program)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) todaysTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := parseDay(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	view, err := h.ds.Today(ctx, IdentityFromContext(ctx), day)
	if err != nil {
		h.log.Error("mcp todays_training", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	ns := IdentityFromContext(ctx)

	history, err := h.ds.ListHistory(ctx, ns)
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	stats, err := h.ds.HistoryStats(ctx, ns)
	if err != nil {
		h.log.Error("mcp get_history stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if len(history) > limit {
		history = history[:limit]
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"workouts": history,
		"stats":    stats,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	today := models.Today()
	year, month := today.Year(), today.Month()
	if v := req.GetString("month", ""); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			return mcp.NewToolResultError("month must be YYYY-MM"), nil
		}
		year, month = t.Year(), t.Month()
	}

	view, err := h.ds.Month(ctx, IdentityFromContext(ctx), year, month, today)
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) scheduleProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	start, err := parseDay(req.GetString("start_date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid start_date: " + err.Error()), nil
	}
	weekdays, err := parseWeekdays(req.GetString("weekdays", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid weekdays: " + err.Error()), nil
	}

	entries, err := h.ds.Schedule(ctx, IdentityFromContext(ctx), programID, start, weekdays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scheduling failed: %v", err)), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"scheduled": len(entries),
		"entries":   entries,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := h.ds.Today(ctx, IdentityFromContext(ctx), models.Today())
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, view)
}

func (h *handlers) programs(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	programs, err := h.ds.ListPrograms(ctx, IdentityFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, programs)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
