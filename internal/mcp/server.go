// Package mcp exposes the workout library over the Model Context
// Protocol, in read-only form: tools for listing and searching workouts,
// programs, sessions and the exercise catalog.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GhostGym", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Ghost Gym workout data server. Query workout templates, training programs, completed sessions, and the exercise catalog. All data is scoped to the authenticated user. Tools are read-only."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolSessionHistory, Handler: h.sessionHistory},
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
		server.ServerTool{Tool: toolListFavorites, Handler: h.listFavorites},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resWorkoutLibrary, Handler: h.workoutLibrary},
		server.ServerResource{Resource: resProgramLibrary, Handler: h.programLibrary},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resWorkoutLibrary = mcp.NewResource(
	"ghostgym://workout_library",
	"Workout Library",
	mcp.WithResourceDescription("The user's workout templates with exercise groups and prescriptions"),
	mcp.WithMIMEType("application/json"),
)

var resProgramLibrary = mcp.NewResource(
	"ghostgym://program_library",
	"Program Library",
	mcp.WithResourceDescription("The user's training programs with scheduled workouts"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"ghostgym://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Recently completed workout sessions with logged weights"),
	mcp.WithMIMEType("application/json"),
)
