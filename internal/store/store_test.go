package store

import (
	"strings"
	"testing"
)

// TestNewIDFormat verifies the three-part record ID scheme.
func TestNewIDFormat(t *testing.T) {
	id := NewID("workout")
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != "workout" {
		t.Fatalf("NewID() = %q", id)
	}
	if len(parts[2]) != 9 {
		t.Fatalf("suffix %q has length %d, want 9", parts[2], len(parts[2]))
	}
	if NewID("workout") == id {
		t.Fatal("two IDs collided")
	}
}

// TestWindow covers the pagination bounds including out-of-range pages.
func TestWindow(t *testing.T) {
	tests := []struct {
		name   string
		opts   ListOptions
		n      int
		lo, hi int
	}{
		{"defaults", ListOptions{}, 10, 0, 10},
		{"first page", ListOptions{Page: 1, PageSize: 3}, 10, 0, 3},
		{"middle page", ListOptions{Page: 2, PageSize: 3}, 10, 3, 6},
		{"partial last page", ListOptions{Page: 4, PageSize: 3}, 10, 9, 10},
		{"beyond the end", ListOptions{Page: 9, PageSize: 3}, 10, 10, 10},
		{"zero page treated as first", ListOptions{Page: 0, PageSize: 5}, 10, 0, 5},
		{"default size applies", ListOptions{Page: 2}, 30, 20, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.opts.Window(tt.n, 20)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("Window(%d) = [%d, %d), want [%d, %d)", tt.n, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}
