package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/testdocgen/internal/doctree"
	"github.com/google/uuid"
)

// RunStatus represents the state of a submitted test run.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusCollecting RunStatus = "collecting"
	StatusCompleted  RunStatus = "completed"
	StatusPartial    RunStatus = "partial"
	StatusFailed     RunStatus = "failed"
)

// Run tracks a test2json stream submitted for documentation.
type Run struct {
	mu sync.Mutex

	ID    string `json:"run_id"`
	Title string `json:"title"`

	Status RunStatus `json:"status"`
	Phase  string    `json:"phase"`

	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	events []byte
	tree   *doctree.Tree
	stats  Stats
	errors []string
}

// NewRun returns a queued run over the given event stream.
func NewRun(title string, events []byte) *Run {
	now := time.Now()
	return &Run{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Title:       title,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(events),
		CreatedAt:   now,
		UpdatedAt:   now,
		events:      events,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Completed returns a finished run other than exclude with the given content
// hash and title, or nil.
func (s *RunStore) Completed(hash, title, exclude string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		if id == exclude {
			continue
		}
		run.mu.Lock()
		done := run.tree != nil && run.ContentHash == hash && run.Title == title
		run.mu.Unlock()
		if done {
			return run
		}
	}
	return nil
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// AddError records an error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.UpdatedAt = time.Now()
}

// Events returns the raw event stream.
func (r *Run) Events() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

// SetResult stores the finished tree and drops the raw events.
func (r *Run) SetResult(tree *doctree.Tree, stats Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree = tree
	r.stats = stats
	r.events = nil
	r.UpdatedAt = time.Now()
}

// MarkDuplicate shares the result of an earlier run with identical input.
func (r *Run) MarkDuplicate(of *Run) {
	tree, stats := of.Result()
	r.SetResult(tree, stats)
	r.mu.Lock()
	r.DuplicateOf = of.ID
	r.mu.Unlock()
}

// Result returns the finished tree, or nil while the run is in flight.
// The tree must not be modified.
func (r *Run) Result() (*doctree.Tree, Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree, r.stats
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string    `json:"run_id"`
	Title       string    `json:"title"`
	Status      RunStatus `json:"status"`
	Phase       string    `json:"phase"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Stats       Stats     `json:"stats"`
	Errors      []string  `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]string, len(r.errors))
	copy(errs, r.errors)
	return RunSnapshot{
		ID:          r.ID,
		Title:       r.Title,
		Status:      r.Status,
		Phase:       r.Phase,
		DuplicateOf: r.DuplicateOf,
		Stats:       r.stats.Snapshot(),
		Errors:      errs,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
