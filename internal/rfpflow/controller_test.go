package rfpflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-portal/internal/api"
	"procurement-portal/internal/models"
)

type fakeBackend struct {
	mu          sync.Mutex
	creates     []models.DraftRequest
	publishes   []string
	publishErrs []error
	statuses    map[string]models.RFPStatus

	createStarted chan struct{}
	releaseCreate chan struct{}
	calls         atomic.Int32

	// emptyCreate makes CreateRFP answer with a record that has no id.
	emptyCreate bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{statuses: make(map[string]models.RFPStatus)}
}

func (f *fakeBackend) ListCategories(ctx context.Context) ([]models.Category, error) {
	f.calls.Add(1)
	return testCategories, nil
}

func (f *fakeBackend) CreateRFP(ctx context.Context, req models.DraftRequest) (*models.RFP, error) {
	f.calls.Add(1)
	if f.createStarted != nil {
		f.createStarted <- struct{}{}
		<-f.releaseCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	if f.emptyCreate {
		return &models.RFP{Title: req.Title}, nil
	}
	id := fmt.Sprintf("rfp-%d", len(f.creates))
	f.statuses[id] = models.RFPDraft
	return &models.RFP{
		ID:              id,
		Title:           req.Title,
		LongDescription: "## Scope\n" + req.ShortDescription,
		Status:          models.RFPDraft,
	}, nil
}

func (f *fakeBackend) PublishRFP(ctx context.Context, id string) (*models.RFP, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes = append(f.publishes, id)
	if len(f.publishErrs) > 0 {
		err := f.publishErrs[0]
		f.publishErrs = f.publishErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.statuses[id] = models.RFPPublished
	return &models.RFP{ID: id, Status: models.RFPPublished}, nil
}

func loadedController(t *testing.T, fb *fakeBackend) *Controller {
	t.Helper()
	c := NewController(fb)
	_, err := c.LoadCategories(context.Background())
	require.NoError(t, err)
	return c
}

func TestSubmitDraft_FiltersBlankRequirements(t *testing.T) {
	fb := newFakeBackend()
	c := loadedController(t, fb)

	draft, err := c.SubmitDraft(context.Background(), validForm())
	require.NoError(t, err)

	require.Len(t, fb.creates, 1)
	assert.Equal(t, []string{"secure boot"}, fb.creates[0].TechnicalRequirements)
	assert.Equal(t, StateReviewing, c.State())
	assert.Equal(t, "rfp-1", draft.ID)
	assert.Contains(t, c.Draft().LongDescription, "## Scope")
}

func TestSubmitDraft_InvalidInputSendsNothing(t *testing.T) {
	for name, mutate := range map[string]func(f *Form){
		"negative budget":     func(f *Form) { f.Budget = "-5" },
		"weightage above 100": func(f *Form) { f.EvaluationMetrics[0].Weightage = "150" },
	} {
		t.Run(name, func(t *testing.T) {
			fb := newFakeBackend()
			c := loadedController(t, fb)
			form := validForm()
			mutate(&form)

			_, err := c.SubmitDraft(context.Background(), form)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)

			assert.Empty(t, fb.creates)
			assert.Equal(t, StateEditing, c.State())
			assert.Equal(t, form, c.Form(), "entered values are kept for the editor")
		})
	}
}

func TestSubmitThenPublish(t *testing.T) {
	fb := newFakeBackend()
	c := loadedController(t, fb)

	_, err := c.SubmitDraft(context.Background(), validForm())
	require.NoError(t, err)

	rfp, err := c.Publish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatePublished, c.State())
	assert.Equal(t, models.RFPPublished, rfp.Status)
	assert.Equal(t, models.RFPPublished, fb.statuses["rfp-1"])
	assert.Equal(t, []string{"rfp-1"}, fb.publishes)

	_, err = c.Publish(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.SubmitDraft(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPublish_FailureIsRetryable(t *testing.T) {
	fb := newFakeBackend()
	fb.publishErrs = []error{&api.Error{Kind: api.KindServer, StatusCode: 503}}
	c := loadedController(t, fb)

	_, err := c.SubmitDraft(context.Background(), validForm())
	require.NoError(t, err)

	_, err = c.Publish(context.Background())
	assert.Equal(t, api.KindServer, api.KindOf(err))
	assert.Equal(t, StateReviewing, c.State())
	assert.Equal(t, models.RFPDraft, fb.statuses["rfp-1"])

	_, err = c.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePublished, c.State())
	assert.Equal(t, []string{"rfp-1", "rfp-1"}, fb.publishes)
}

func TestBackToEdit_ResubmitCreatesSecondDraft(t *testing.T) {
	fb := newFakeBackend()
	c := loadedController(t, fb)

	_, err := c.SubmitDraft(context.Background(), validForm())
	require.NoError(t, err)
	require.NoError(t, c.BackToEdit())

	assert.Equal(t, StateEditing, c.State())
	assert.Nil(t, c.Draft())
	assert.Equal(t, "School network upgrade", c.Form().Title, "editor is prefilled")

	form := c.Form()
	form.Title = "School network upgrade, phase 1"
	draft, err := c.SubmitDraft(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, "rfp-2", draft.ID)
	assert.Len(t, fb.creates, 2)
	assert.Equal(t, []string{"rfp-1", "rfp-2"}, c.DraftIDs())
}

func TestBackToEdit_OnlyFromReview(t *testing.T) {
	c := loadedController(t, newFakeBackend())
	assert.ErrorIs(t, c.BackToEdit(), ErrInvalidState)

	_, err := c.Publish(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitDraft_ConcurrentCallIsBusy(t *testing.T) {
	fb := newFakeBackend()
	fb.createStarted = make(chan struct{})
	fb.releaseCreate = make(chan struct{})
	c := loadedController(t, fb)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitDraft(context.Background(), validForm())
		done <- err
	}()

	select {
	case <-fb.createStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("create was not called")
	}

	_, err := c.SubmitDraft(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Publish(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(fb.releaseCreate)
	require.NoError(t, <-done)
	assert.Len(t, fb.creates, 1)
}

func TestDetach_DiscardsInFlightResult(t *testing.T) {
	fb := newFakeBackend()
	fb.createStarted = make(chan struct{})
	fb.releaseCreate = make(chan struct{})
	c := loadedController(t, fb)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitDraft(context.Background(), validForm())
		done <- err
	}()

	<-fb.createStarted
	c.Detach()
	close(fb.releaseCreate)

	assert.ErrorIs(t, <-done, ErrDetached)
	assert.Equal(t, StateEditing, c.State())
	assert.Nil(t, c.Draft())

	before := fb.calls.Load()
	_, err := c.LoadCategories(context.Background())
	assert.ErrorIs(t, err, ErrDetached)
	assert.Equal(t, before, fb.calls.Load())
}

func TestSnapshotRoundTripThroughRepository(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	repo := NewMemoryRepository()

	c, err := Open(ctx, repo, "wf-1", fb)
	require.NoError(t, err)
	assert.Equal(t, StateEditing, c.State())

	_, err = c.LoadCategories(ctx)
	require.NoError(t, err)
	_, err = c.SubmitDraft(ctx, validForm())
	require.NoError(t, err)
	require.NoError(t, Save(ctx, repo, "wf-1", c))

	restored, err := Open(ctx, repo, "wf-1", fb)
	require.NoError(t, err)
	assert.Equal(t, StateReviewing, restored.State())
	assert.Equal(t, "rfp-1", restored.Draft().ID)
	assert.Len(t, restored.Categories(), 2)

	_, err = restored.Publish(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "wf-1"))
	_, err = repo.Load(ctx, "wf-1")
	assert.True(t, errors.Is(err, ErrNoWorkflow))
}

func TestRestore_InconsistentSnapshotFallsBackToEditing(t *testing.T) {
	c := NewController(newFakeBackend())
	c.Restore(Snapshot{State: StateReviewing})
	assert.Equal(t, StateEditing, c.State())

	c.Restore(Snapshot{State: "bogus"})
	assert.Equal(t, StateEditing, c.State())

	c.Restore(Snapshot{State: StateReviewing, Draft: &models.RFP{Title: "no id"}})
	assert.Equal(t, StateEditing, c.State())
	assert.Nil(t, c.Draft())
}

func TestSubmitDraft_DraftWithoutIDStaysEditing(t *testing.T) {
	fb := newFakeBackend()
	fb.emptyCreate = true
	c := loadedController(t, fb)

	draft, err := c.SubmitDraft(context.Background(), validForm())
	require.Error(t, err)
	assert.Nil(t, draft)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindServer, api.KindOf(err))
	assert.Equal(t, StateEditing, c.State())
	assert.Empty(t, c.DraftIDs())
	assert.Equal(t, validForm().Title, c.Form().Title)
}

func TestExclusive_SecondCallerIsBusy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	err := Exclusive(ctx, repo, "wf-1", func() error {
		inner := Exclusive(ctx, repo, "wf-1", func() error {
			t.Fatal("second caller must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrBusy)

		// другой ключ не блокируется
		return Exclusive(ctx, repo, "wf-2", func() error { return nil })
	})
	require.NoError(t, err)

	ran := false
	require.NoError(t, Exclusive(ctx, repo, "wf-1", func() error { ran = true; return nil }))
	assert.True(t, ran, "mark is released after the first caller")
}

func TestExclusive_ReturnsCallbackErrorAndReleases(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	boom := errors.New("boom")

	err := Exclusive(ctx, repo, "wf-1", func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, repo.Acquire(ctx, "wf-1"))
}

func TestMemoryRepository_StaleMarkExpires(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Acquire(ctx, "wf-1"))
	now = now.Add(PendingTimeout / 2)
	assert.ErrorIs(t, repo.Acquire(ctx, "wf-1"), ErrBusy)

	now = now.Add(PendingTimeout)
	assert.NoError(t, repo.Acquire(ctx, "wf-1"))
}
