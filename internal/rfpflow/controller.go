// Package rfpflow drives the create, review and publish sequence for a single
// RFP draft.
package rfpflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"procurement-portal/internal/api"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/models"
)

type State string

const (
	StateEditing   State = "editing"
	StateReviewing State = "reviewing"
	StatePublished State = "published"
)

var (
	ErrBusy         = errors.New("rfpflow: another operation is in progress")
	ErrInvalidState = errors.New("rfpflow: operation not allowed in current state")
	ErrDetached     = errors.New("rfpflow: controller detached")

	errMissingDraftID = errors.New("backend returned a draft without an id")
)

// Backend is the part of the API client the workflow calls.
type Backend interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateRFP(ctx context.Context, req models.DraftRequest) (*models.RFP, error)
	PublishRFP(ctx context.Context, id string) (*models.RFP, error)
}

// Controller owns one draft from first submission until it is published.
// At most one backend call runs at a time.
type Controller struct {
	backend Backend
	logger  *slog.Logger

	mu         sync.Mutex
	state      State
	busy       bool
	detached   bool
	categories []models.Category
	form       Form
	draft      *models.RFP
	draftIDs   []string
	published  *models.RFP
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		logger:  logging.Discard(),
		state:   StateEditing,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.Component(c.logger, "rfpflow")
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Categories() []models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.categories)
}

// Form returns the last submitted form, used to prefill the editor.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Draft returns the server draft under review, or nil.
func (c *Controller) Draft() *models.RFP {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Published returns the published RFP once the workflow has finished.
func (c *Controller) Published() *models.RFP {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

// DraftIDs lists every draft created by this controller, oldest first.
func (c *Controller) DraftIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.draftIDs)
}

// Detach marks the owning view as gone. Results of calls still in flight are
// dropped and later calls fail with ErrDetached.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.detached = true
	c.mu.Unlock()
}

// begin claims the controller for one operation in state want.
func (c *Controller) begin(want State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.detached:
		return ErrDetached
	case c.busy:
		return ErrBusy
	case c.state != want:
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	c.busy = true
	return nil
}

// finish releases the controller. It reports false when the view detached
// while the call was running; the caller must not apply its result then.
// c.mu is held on a true return.
func (c *Controller) finish() bool {
	c.mu.Lock()
	c.busy = false
	if c.detached {
		c.mu.Unlock()
		return false
	}
	return true
}

// LoadCategories fetches the categories a draft may be filed under.
func (c *Controller) LoadCategories(ctx context.Context) ([]models.Category, error) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return nil, ErrDetached
	}
	c.mu.Unlock()

	categories, err := c.backend.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return nil, ErrDetached
	}
	c.categories = categories
	return slices.Clone(categories), nil
}

// SubmitDraft validates form and creates a server draft. On success the
// workflow moves to reviewing. Invalid input never reaches the backend.
func (c *Controller) SubmitDraft(ctx context.Context, form Form) (*models.RFP, error) {
	if err := c.begin(StateEditing); err != nil {
		return nil, err
	}

	c.mu.Lock()
	categories := c.categories
	c.mu.Unlock()

	req, verr := form.Validate(categories)
	var rfp *models.RFP
	var err error
	if verr == nil {
		rfp, err = c.backend.CreateRFP(ctx, req)
	}

	if !c.finish() {
		return nil, ErrDetached
	}
	defer c.mu.Unlock()

	c.form = form
	if verr != nil {
		return nil, verr
	}
	if err == nil && (rfp == nil || rfp.ID == "") {
		err = &api.Error{Op: "POST /rfp/create", Kind: api.KindServer, Err: errMissingDraftID}
	}
	if err != nil {
		c.logger.Warn("create draft failed", "error", err)
		return nil, err
	}

	c.state = StateReviewing
	c.draft = rfp
	c.draftIDs = append(c.draftIDs, rfp.ID)
	if len(c.draftIDs) > 1 {
		c.logger.Warn("additional server draft created", "draft_id", rfp.ID, "previous", c.draftIDs[:len(c.draftIDs)-1])
	} else {
		c.logger.Info("draft created", "draft_id", rfp.ID)
	}
	return rfp, nil
}

// Publish publishes the draft under review. A failure leaves the workflow in
// reviewing so the call can be retried.
func (c *Controller) Publish(ctx context.Context) (*models.RFP, error) {
	if err := c.begin(StateReviewing); err != nil {
		return nil, err
	}

	c.mu.Lock()
	draft := *c.draft
	c.mu.Unlock()

	rfp, err := c.backend.PublishRFP(ctx, draft.ID)

	if !c.finish() {
		return nil, ErrDetached
	}
	defer c.mu.Unlock()

	if err != nil {
		c.logger.Warn("publish failed", "draft_id", draft.ID, "error", err)
		return nil, err
	}

	if rfp == nil || rfp.ID == "" {
		rfp = &draft
	}
	rfp.Status = models.RFPPublished
	c.state = StatePublished
	c.published = rfp
	c.logger.Info("rfp published", "rfp_id", rfp.ID)
	return rfp, nil
}

// BackToEdit returns from review to the editor. The draft already created on
// the server is kept; submitting again creates another one.
func (c *Controller) BackToEdit() error {
	if err := c.begin(StateReviewing); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.state = StateEditing
	c.draft = nil
	return nil
}
