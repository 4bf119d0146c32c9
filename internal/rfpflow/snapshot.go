package rfpflow

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"procurement-portal/internal/models"
)

// ErrNoWorkflow is returned by Repository.Load for an unknown key.
var ErrNoWorkflow = errors.New("rfpflow: no saved workflow")

// Snapshot is the serializable state of a Controller.
type Snapshot struct {
	State      State             `json:"state"`
	Categories []models.Category `json:"categories,omitempty"`
	Form       Form              `json:"form"`
	Draft      *models.RFP       `json:"draft,omitempty"`
	DraftIDs   []string          `json:"draftIds,omitempty"`
	Published  *models.RFP       `json:"published,omitempty"`
}

// PendingTimeout is how long an in-flight mark blocks other callers. It
// outlives the backend request timeout so a mark left by a crashed request
// expires on its own.
const PendingTimeout = 2 * time.Minute

// Repository persists snapshots between requests or process runs.
type Repository interface {
	Load(ctx context.Context, key string) (Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
	Delete(ctx context.Context, key string) error

	// Acquire marks key as having a backend call in flight. It returns
	// ErrBusy while another caller's mark is younger than PendingTimeout.
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// Exclusive runs fn while key is marked in flight. Controllers rebuilt per
// request cannot see each other's busy flag; the mark makes a second submit
// or publish of the same workflow fail with ErrBusy instead of reaching the
// backend twice.
func Exclusive(ctx context.Context, repo Repository, key string, fn func() error) error {
	if err := repo.Acquire(ctx, key); err != nil {
		return err
	}
	err := fn()
	if rerr := repo.Release(context.WithoutCancel(ctx), key); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.state,
		Categories: slices.Clone(c.categories),
		Form:       c.form,
		Draft:      c.draft,
		DraftIDs:   slices.Clone(c.draftIDs),
		Published:  c.published,
	}
}

// Restore replaces the controller state with snap. A snapshot that claims a
// state without the record that state needs falls back to editing.
func (c *Controller) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = snap.State
	c.categories = slices.Clone(snap.Categories)
	c.form = snap.Form
	c.draft = snap.Draft
	c.draftIDs = slices.Clone(snap.DraftIDs)
	c.published = snap.Published

	switch {
	case c.state == StateReviewing && (c.draft == nil || c.draft.ID == ""),
		c.state == StatePublished && c.published == nil,
		c.state != StateReviewing && c.state != StatePublished:
		c.state = StateEditing
		c.draft = nil
	}
}

// Open returns the controller saved under key, or a fresh one.
func Open(ctx context.Context, repo Repository, key string, backend Backend, opts ...Option) (*Controller, error) {
	c := NewController(backend, opts...)
	snap, err := repo.Load(ctx, key)
	if errors.Is(err, ErrNoWorkflow) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	c.Restore(snap)
	return c, nil
}

// Save stores the controller under key.
func Save(ctx context.Context, repo Repository, key string, c *Controller) error {
	return repo.Save(ctx, key, c.Snapshot())
}

// MemoryRepository keeps snapshots in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	snaps   map[string]Snapshot
	pending map[string]time.Time
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		snaps:   make(map[string]Snapshot),
		pending: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Load(_ context.Context, key string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snaps[key]
	if !ok {
		return Snapshot{}, ErrNoWorkflow
	}
	return snap, nil
}

func (r *MemoryRepository) Save(_ context.Context, key string, snap Snapshot) error {
	r.mu.Lock()
	r.snaps[key] = snap
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.snaps, key)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Acquire(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if since, ok := r.pending[key]; ok && now.Sub(since) < PendingTimeout {
		return ErrBusy
	}
	r.pending[key] = now
	return nil
}

func (r *MemoryRepository) Release(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
	return nil
}
