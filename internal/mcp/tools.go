package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/remote"
)

// parseTags splits a comma-separated tag argument.
func parseTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List the user's workout templates. Supports substring search over name/description and tag filtering. Paginated, newest-modified first."),
	mcp.WithString("search", mcp.Description("Substring to match against workout name and description")),
	mcp.WithString("tags", mcp.Description("Comma-separated tags; workouts matching any tag are returned")),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
	mcp.WithNumber("page_size", mcp.Description("Results per page. Defaults to 50.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout template by ID, including exercise groups, slots, sets/reps/rest prescriptions and bonus exercises."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List the user's training programs: ordered workout schedules with duration and difficulty metadata."),
	mcp.WithString("search", mcp.Description("Substring to match against program name and description")),
	mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
	mcp.WithNumber("page_size", mcp.Description("Results per page. Defaults to 20.")),
)

var toolSessionHistory = mcp.NewTool("session_history",
	mcp.WithDescription("List completed workout sessions, newest first, with per-exercise logged weights and durations."),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name, target muscle group and equipment."),
	mcp.WithString("search", mcp.Description("Substring to match against exercise names")),
	mcp.WithString("muscle_group", mcp.Description("Target muscle group (e.g. Quadriceps, Biceps)")),
	mcp.WithString("equipment", mcp.Description("Primary equipment (e.g. Barbell, Dumbbell, Machine)")),
)

var toolListFavorites = mcp.NewTool("list_favorites",
	mcp.WithDescription("List the user's favorited exercise IDs."),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := store.ListOptions{
		Search:   req.GetString("search", ""),
		Tags:     parseTags(req.GetString("tags", "")),
		Page:     req.GetInt("page", 0),
		PageSize: req.GetInt("page_size", 0),
	}

	workouts, err := h.ds.ListWorkouts(ctx, opts)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	workout, err := h.ds.GetWorkout(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout", "id", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workout)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := store.ListOptions{
		Search:   req.GetString("search", ""),
		Tags:     parseTags(req.GetString("tags", "")),
		Page:     req.GetInt("page", 0),
		PageSize: req.GetInt("page_size", 0),
	}

	programs, err := h.ds.ListPrograms(ctx, opts)
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(programs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) sessionHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.ds.SessionHistory(ctx)
	if err != nil {
		h.log.Error("mcp session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := remote.ExerciseFilter{
		Search:      req.GetString("search", ""),
		MuscleGroup: req.GetString("muscle_group", ""),
		Equipment:   req.GetString("equipment", ""),
	}

	exercises, err := h.ds.ListExercises(ctx, filter)
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listFavorites(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := h.ds.ListFavorites(ctx)
	if err != nil {
		h.log.Error("mcp list_favorites", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(ids)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
