// Package local is the unauthenticated persistence adapter: every
// collection is one JSON array stored under a fixed key in a small sqlite
// database, read and rewritten whole on each mutation, mirroring the
// original browser key-value storage.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
	_ "modernc.org/sqlite"
)

const (
	keySessions = "gym_sessions"

	defaultWorkoutPageSize = 50
	defaultProgramPageSize = 20
)

// Store is the sqlite-backed local adapter. Every mutation rewrites a
// whole collection, so the lock serializes writers; concurrent writes
// would otherwise race on the read-modify-write and trip SQLITE_BUSY.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Compile-time check: Store satisfies the adapter interface.
var _ store.Adapter = (*Store)(nil)

// Open opens (or creates) the local database at dir/ghostgym.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "ghostgym.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening local db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		doc        TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating collections table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) readDoc(ctx context.Context, key string, v any) error {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM collections WHERE key = ?`, key).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil // empty collection
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func (s *Store) writeDoc(ctx context.Context, key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (key, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, string(doc))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// --- Workouts ---

func (s *Store) loadWorkouts(ctx context.Context) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := s.readDoc(ctx, store.CollectionWorkouts, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// ListWorkouts applies search, tag filter, then a page slice.
func (s *Store) ListWorkouts(ctx context.Context, opts store.ListOptions) ([]models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workouts, err := s.loadWorkouts(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Search != "" {
		q := strings.ToLower(opts.Search)
		filtered := workouts[:0:0]
		for _, w := range workouts {
			if matchesSearch(q, w.Name, w.Description, w.Tags) {
				filtered = append(filtered, w)
			}
		}
		workouts = filtered
	}

	if len(opts.Tags) > 0 {
		filtered := workouts[:0:0]
		for _, w := range workouts {
			if hasAnyTag(w.Tags, opts.Tags) {
				filtered = append(filtered, w)
			}
		}
		workouts = filtered
	}

	lo, hi := opts.Window(len(workouts), defaultWorkoutPageSize)
	return workouts[lo:hi], nil
}

// GetWorkout returns the workout with the given ID.
func (s *Store) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workouts, err := s.loadWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		if workouts[i].ID == id {
			return &workouts[i], nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateWorkout assigns an ID, stamps both dates, and prepends the record
// so lists come back newest first.
func (s *Store) CreateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	workouts, err := s.loadWorkouts(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w.ID = store.NewID("workout")
	w.CreatedDate = now
	w.ModifiedDate = now
	w.IsTemplate = true

	workouts = append([]models.Workout{w}, workouts...)
	if err := s.writeDoc(ctx, store.CollectionWorkouts, workouts); err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWorkout replaces the stored record, preserving created_date and
// advancing modified_date.
func (s *Store) UpdateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	workouts, err := s.loadWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		if workouts[i].ID == w.ID {
			w.CreatedDate = workouts[i].CreatedDate
			w.ModifiedDate = time.Now().UTC()
			workouts[i] = w
			if err := s.writeDoc(ctx, store.CollectionWorkouts, workouts); err != nil {
				return nil, err
			}
			return &w, nil
		}
	}
	return nil, store.ErrNotFound
}

// DeleteWorkout removes the record; missing IDs error without mutating
// the collection.
func (s *Store) DeleteWorkout(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	workouts, err := s.loadWorkouts(ctx)
	if err != nil {
		return err
	}
	for i := range workouts {
		if workouts[i].ID == id {
			workouts = append(workouts[:i], workouts[i+1:]...)
			return s.writeDoc(ctx, store.CollectionWorkouts, workouts)
		}
	}
	return store.ErrNotFound
}

// --- Programs ---

func (s *Store) loadPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := s.readDoc(ctx, store.CollectionPrograms, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// ListPrograms applies search, tag filter, then a page slice.
func (s *Store) ListPrograms(ctx context.Context, opts store.ListOptions) ([]models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Search != "" {
		q := strings.ToLower(opts.Search)
		filtered := programs[:0:0]
		for _, p := range programs {
			if matchesSearch(q, p.Name, p.Description, p.Tags) {
				filtered = append(filtered, p)
			}
		}
		programs = filtered
	}

	if len(opts.Tags) > 0 {
		filtered := programs[:0:0]
		for _, p := range programs {
			if hasAnyTag(p.Tags, opts.Tags) {
				filtered = append(filtered, p)
			}
		}
		programs = filtered
	}

	lo, hi := opts.Window(len(programs), defaultProgramPageSize)
	return programs[lo:hi], nil
}

// GetProgram returns the program with the given ID.
func (s *Store) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		if programs[i].ID == id {
			return &programs[i], nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateProgram assigns an ID, stamps both dates, and prepends the record.
func (s *Store) CreateProgram(ctx context.Context, p models.Program) (*models.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.ID = store.NewID("program")
	p.CreatedDate = now
	p.ModifiedDate = now
	if p.Workouts == nil {
		p.Workouts = []models.ProgramWorkout{}
	}

	programs = append([]models.Program{p}, programs...)
	if err := s.writeDoc(ctx, store.CollectionPrograms, programs); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProgram replaces the stored record, preserving created_date.
func (s *Store) UpdateProgram(ctx context.Context, p models.Program) (*models.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		if programs[i].ID == p.ID {
			p.CreatedDate = programs[i].CreatedDate
			p.ModifiedDate = time.Now().UTC()
			programs[i] = p
			if err := s.writeDoc(ctx, store.CollectionPrograms, programs); err != nil {
				return nil, err
			}
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

// DeleteProgram removes the record; missing IDs error.
func (s *Store) DeleteProgram(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return err
	}
	for i := range programs {
		if programs[i].ID == id {
			programs = append(programs[:i], programs[i+1:]...)
			return s.writeDoc(ctx, store.CollectionPrograms, programs)
		}
	}
	return store.ErrNotFound
}

// --- Sessions (resume support) ---

// SaveSession persists an active session snapshot for resume.
func (s *Store) SaveSession(ctx context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := map[string]models.Session{}
	if err := s.readDoc(ctx, keySessions, &sessions); err != nil {
		return err
	}
	sessions[sess.ID] = sess
	return s.writeDoc(ctx, keySessions, sessions)
}

// LoadSession restores a persisted session snapshot.
func (s *Store) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := map[string]models.Session{}
	if err := s.readDoc(ctx, keySessions, &sessions); err != nil {
		return nil, err
	}
	sess, ok := sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

// DeleteSession drops a persisted session snapshot (after completion).
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := map[string]models.Session{}
	if err := s.readDoc(ctx, keySessions, &sessions); err != nil {
		return err
	}
	if _, ok := sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(sessions, id)
	return s.writeDoc(ctx, keySessions, sessions)
}

// --- filters ---

func matchesSearch(q, name, description string, tags []string) bool {
	if strings.Contains(strings.ToLower(name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(description), q) {
		return true
	}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
