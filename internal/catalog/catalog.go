// Package catalog browses the exercise catalog: global entries merged
// with the user's custom exercises, filtered and ordered for pickers.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store/remote"
)

// Source is the catalog read/write surface. The remote client satisfies it.
type Source interface {
	ListExercises(ctx context.Context, f remote.ExerciseFilter) ([]models.Exercise, error)
	ListCustomExercises(ctx context.Context) ([]models.Exercise, error)
	CreateCustomExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error)
	ListFavorites(ctx context.Context) ([]string, error)
	AddFavorite(ctx context.Context, exerciseID string) error
	RemoveFavorite(ctx context.Context, exerciseID string) error
}

// Filter narrows a Browse call. Zero value matches everything.
type Filter struct {
	Search        string
	MuscleGroup   string
	Equipment     string
	Tier          int  // 0 = any
	Foundational  bool // only foundational entries
	FavoritesOnly bool
}

// Order selects the result ordering.
type Order int

const (
	// OrderName sorts alphabetically.
	OrderName Order = iota
	// OrderPopular sorts by popularity score, highest first.
	OrderPopular
	// OrderFoundational puts foundational lifts first, then by popularity.
	OrderFoundational
)

// Browser merges global and custom exercises at read time. It holds no
// cache of its own; the remote client's request cache already collapses
// repeated reads.
type Browser struct {
	source Source
}

// NewBrowser creates a Browser over the given source.
func NewBrowser(source Source) *Browser {
	return &Browser{source: source}
}

// Browse returns the merged catalog matching the filter in the given
// order. Custom entries shadow global entries with the same ID.
func (b *Browser) Browse(ctx context.Context, f Filter, order Order) ([]models.Exercise, error) {
	global, err := b.source.ListExercises(ctx, remote.ExerciseFilter{
		Search:      f.Search,
		MuscleGroup: f.MuscleGroup,
		Equipment:   f.Equipment,
	})
	if err != nil {
		return nil, err
	}
	custom, err := b.source.ListCustomExercises(ctx)
	if err != nil {
		return nil, err
	}

	merged := mergeByID(global, custom)

	var favorites map[string]bool
	if f.FavoritesOnly {
		ids, err := b.source.ListFavorites(ctx)
		if err != nil {
			return nil, err
		}
		favorites = make(map[string]bool, len(ids))
		for _, id := range ids {
			favorites[id] = true
		}
	}

	filtered := merged[:0]
	for _, e := range merged {
		if !matches(e, f, favorites) {
			continue
		}
		filtered = append(filtered, e)
	}

	sortExercises(filtered, order)
	return filtered, nil
}

// mergeByID appends custom entries, replacing any global entry sharing an
// ID. Result order is global-then-custom before sorting.
func mergeByID(global, custom []models.Exercise) []models.Exercise {
	byID := make(map[string]int, len(global))
	merged := make([]models.Exercise, len(global))
	copy(merged, global)
	for i, e := range merged {
		byID[e.ID] = i
	}
	for _, e := range custom {
		e.IsGlobal = false
		if i, ok := byID[e.ID]; ok {
			merged[i] = e
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

func matches(e models.Exercise, f Filter, favorites map[string]bool) bool {
	if f.Tier != 0 && e.ExerciseTier != f.Tier {
		return false
	}
	if f.Foundational && !e.IsFoundational {
		return false
	}
	if favorites != nil && !favorites[e.ID] {
		return false
	}
	// Server-side filters only apply to the global list; re-check them so
	// custom entries obey the same filter.
	if f.MuscleGroup != "" && !strings.EqualFold(e.TargetMuscleGroup, f.MuscleGroup) {
		return false
	}
	if f.Equipment != "" && !strings.EqualFold(e.PrimaryEquipment, f.Equipment) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func sortExercises(list []models.Exercise, order Order) {
	switch order {
	case OrderPopular:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].PopularityScore > list[j].PopularityScore
		})
	case OrderFoundational:
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].IsFoundational != list[j].IsFoundational {
				return list[i].IsFoundational
			}
			return list[i].PopularityScore > list[j].PopularityScore
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	}
}

// CreateCustom adds a user-authored exercise to the catalog.
func (b *Browser) CreateCustom(ctx context.Context, e models.Exercise) (*models.Exercise, error) {
	e.IsGlobal = false
	return b.source.CreateCustomExercise(ctx, e)
}

// ToggleFavorite flips the favorite state of an exercise and reports the
// new state. Both directions are idempotent server-side.
func (b *Browser) ToggleFavorite(ctx context.Context, exerciseID string) (favorited bool, err error) {
	ids, err := b.source.ListFavorites(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == exerciseID {
			return false, b.source.RemoveFavorite(ctx, exerciseID)
		}
	}
	return true, b.source.AddFavorite(ctx, exerciseID)
}
