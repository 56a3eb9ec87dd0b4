// Package mcp exposes programs, the schedule and workout history to AI
// assistants over the Model Context Protocol.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const identityKey contextKey = iota

// DefaultIdentity is used when the transport supplies no identity.
const DefaultIdentity = "local"

// IdentityFromContext extracts the identity injected by the transport layer.
func IdentityFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey).(string); ok && id != "" {
		return id
	}
	return DefaultIdentity
}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Kinetic", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Kinetic workout planner. Read workout programs, today's scheduled training, the calendar and workout history, and schedule programs. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolTodaysTraining, Handler: h.todaysTraining},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetCalendar, Handler: h.getCalendar},
		server.ServerTool{Tool: toolScheduleProgram, Handler: h.scheduleProgram},
	)

	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resPrograms, Handler: h.programs},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"kinetic://today",
	"Today's Training",
	mcp.WithResourceDescription("Today's scheduled workouts that have not been completed yet, with their exercises"),
	mcp.WithMIMEType("application/json"),
)

var resPrograms = mcp.NewResource(
	"kinetic://programs",
	"Program Library",
	mcp.WithResourceDescription("All saved workout programs with their workout days"),
	mcp.WithMIMEType("application/json"),
)
