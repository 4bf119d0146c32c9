package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"procurement-portal/internal/api"
	"procurement-portal/internal/database"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"
	"procurement-portal/internal/rfpflow"
	"procurement-portal/internal/routes"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 10

const msgStillProcessing = "Your previous request is still being processed."

// openWorkflow восстанавливает мастер RFP этого браузера с клиентом текущего запроса.
func (h *Handler) openWorkflow(c *gin.Context) (*rfpflow.Controller, string, error) {
	key := middleware.WorkflowKey(c)
	ctl, err := rfpflow.Open(c.Request.Context(), h.Workflows, key, middleware.ClientFrom(c),
		rfpflow.WithLogger(h.log(c).With("workflow", key)))
	if err != nil {
		return nil, "", fmt.Errorf("open workflow: %w", err)
	}
	return ctl, key, nil
}

func (h *Handler) saveWorkflow(c *gin.Context, key string, ctl *rfpflow.Controller) {
	if err := rfpflow.Save(c.Request.Context(), h.Workflows, key, ctl); err != nil {
		h.log(c).Error("save workflow failed", "workflow", key, "error", err)
	}
}

func (h *Handler) workflowUnavailable(c *gin.Context, err error) {
	h.log(c).Error("workflow unavailable", "error", err)
	redirectWithError(c, routes.OfficerHome, api.MsgUnexpected)
}

// exclusive выполняет fn под отметкой "запрос в полёте" для мастера этой
// сессии. Повторная отправка формы получает уведомление и до бэкенда не доходит.
func (h *Handler) exclusive(c *gin.Context, fn func()) {
	key := middleware.WorkflowKey(c)
	ran := false
	err := rfpflow.Exclusive(c.Request.Context(), h.Workflows, key, func() error {
		ran = true
		fn()
		return nil
	})
	switch {
	case errors.Is(err, rfpflow.ErrBusy):
		h.log(c).Info("duplicate workflow request refused", "workflow", key)
		redirectWithNotice(c, routes.RFPReview, msgStillProcessing)
	case err != nil && !ran:
		h.workflowUnavailable(c, err)
	case err != nil:
		h.log(c).Warn("release workflow failed", "workflow", key, "error", err)
	}
}

func (h *Handler) renderEditor(c *gin.Context, status int, ctl *rfpflow.Controller, form rfpflow.Form, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["form"] = form
	data["categories"] = ctl.Categories()
	if _, ok := data["problems"]; !ok {
		data["problems"] = map[string]string{}
	}
	render(c, status, "rfp_create.html", data)
}

func (h *Handler) ShowCreateRFP(c *gin.Context) {
	ctl, key, err := h.openWorkflow(c)
	if err != nil {
		h.workflowUnavailable(c, err)
		return
	}

	switch ctl.State() {
	case rfpflow.StateReviewing:
		redirect(c, routes.RFPReview)
		return
	case rfpflow.StatePublished:
		_ = h.Workflows.Delete(c.Request.Context(), key)
		ctl, _, err = h.openWorkflow(c)
		if err != nil {
			h.workflowUnavailable(c, err)
			return
		}
	}

	data := gin.H{}
	if _, err := ctl.LoadCategories(c.Request.Context()); err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
	}
	h.saveWorkflow(c, key, ctl)
	h.renderEditor(c, http.StatusOK, ctl, ctl.Form(), data)
}

func (h *Handler) SubmitDraft(c *gin.Context) {
	h.exclusive(c, func() { h.submitDraft(c) })
}

func (h *Handler) submitDraft(c *gin.Context) {
	ctl, key, err := h.openWorkflow(c)
	if err != nil {
		h.workflowUnavailable(c, err)
		return
	}
	if ctl.State() == rfpflow.StateReviewing {
		redirect(c, routes.RFPReview)
		return
	}

	var form rfpflow.Form
	if err := c.ShouldBind(&form); err != nil {
		h.renderEditor(c, http.StatusBadRequest, ctl, form, gin.H{"error": api.MsgInvalidInput})
		return
	}
	form.EvaluationMetrics = rfpflow.MetricsFromPairs(c.PostFormArray("metricName"), c.PostFormArray("metricWeightage"))

	ctx := c.Request.Context()
	if len(ctl.Categories()) == 0 {
		if _, err := ctl.LoadCategories(ctx); err != nil && sessionLost(c, err) {
			return
		}
	}

	draft, err := ctl.SubmitDraft(ctx, form)
	h.saveWorkflow(c, key, ctl)

	var verr *rfpflow.ValidationError
	switch {
	case errors.As(err, &verr):
		problems := make(map[string]string, len(verr.Problems))
		for _, p := range verr.Problems {
			if _, seen := problems[p.Field]; !seen {
				problems[p.Field] = p.Message
			}
		}
		h.renderEditor(c, http.StatusUnprocessableEntity, ctl, form, gin.H{
			"error":    "Please correct the highlighted fields.",
			"problems": problems,
		})
		return
	case err != nil:
		if sessionLost(c, err) {
			return
		}
		h.log(c).Warn("draft submission failed", "kind", api.KindOf(err).String(), "error", err)
		h.renderEditor(c, http.StatusOK, ctl, form, gin.H{"error": api.Message(err)})
		return
	}

	database.CreateAuditLog(middleware.CurrentUser(c), database.EntityRFP, draft.ID, database.ActionDraft, draft.Title)

	if ids := ctl.DraftIDs(); len(ids) > 1 {
		middleware.AddFlash(c, middleware.FlashNotice, fmt.Sprintf(
			"A new draft was created. %d earlier draft(s) remain unpublished on the server.", len(ids)-1))
	}
	redirect(c, routes.RFPReview)
}

func (h *Handler) ShowReview(c *gin.Context) {
	ctl, _, err := h.openWorkflow(c)
	if err != nil {
		h.workflowUnavailable(c, err)
		return
	}
	if ctl.State() != rfpflow.StateReviewing {
		redirect(c, routes.RFPCreate)
		return
	}

	form := ctl.Form()
	total := form.WeightageTotal()
	render(c, http.StatusOK, "rfp_review.html", gin.H{
		"draft":          ctl.Draft(),
		"form":           form,
		"weightageTotal": total,
		"weightageWarn":  hasMetrics(form) && math.Abs(total-100) > 0.001,
	})
}

func hasMetrics(form rfpflow.Form) bool {
	return slices.ContainsFunc(form.EvaluationMetrics, func(m rfpflow.MetricInput) bool {
		return strings.TrimSpace(m.Name) != ""
	})
}

func (h *Handler) BackToEdit(c *gin.Context) {
	ctl, key, err := h.openWorkflow(c)
	if err != nil {
		h.workflowUnavailable(c, err)
		return
	}
	if err := ctl.BackToEdit(); err != nil {
		redirect(c, routes.RFPCreate)
		return
	}
	h.saveWorkflow(c, key, ctl)
	redirect(c, routes.RFPCreate)
}

func (h *Handler) Publish(c *gin.Context) {
	h.exclusive(c, func() { h.publish(c) })
}

func (h *Handler) publish(c *gin.Context) {
	ctl, key, err := h.openWorkflow(c)
	if err != nil {
		h.workflowUnavailable(c, err)
		return
	}

	rfp, err := ctl.Publish(c.Request.Context())
	if errors.Is(err, rfpflow.ErrInvalidState) {
		redirect(c, routes.RFPCreate)
		return
	}
	if err != nil {
		h.saveWorkflow(c, key, ctl)
		h.failTo(c, err, routes.RFPReview)
		return
	}

	if err := h.Workflows.Delete(c.Request.Context(), key); err != nil {
		h.log(c).Warn("delete finished workflow failed", "workflow", key, "error", err)
	}
	database.CreateAuditLog(middleware.CurrentUser(c), database.EntityRFP, rfp.ID, database.ActionPublish, rfp.Title)
	redirectWithNotice(c, routes.RFPDetail(rfp.ID), "RFP published.")
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return page, limit
}

func (h *Handler) renderRFPList(c *gin.Context, tmpl string, params models.ListRFPsParams) {
	data := gin.H{"status": params.Status}
	result, err := middleware.ClientFrom(c).ListRFPs(c.Request.Context(), params)
	if err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
	} else {
		data["rfps"] = result.Data
		data["pagination"] = result.Pagination
		data["hasPrev"] = result.Pagination.CurrentPage > 1
		data["hasNext"] = result.Pagination.CurrentPage < result.Pagination.TotalPages
		data["prevPage"] = result.Pagination.CurrentPage - 1
		data["nextPage"] = result.Pagination.CurrentPage + 1
	}
	render(c, http.StatusOK, tmpl, data)
}

func (h *Handler) ListRFPs(c *gin.Context) {
	page, limit := pageParams(c)
	h.renderRFPList(c, "rfp_list.html", models.ListRFPsParams{Page: page, Limit: limit, Status: c.Query("status")})
}

func (h *Handler) ShowRFP(c *gin.Context) {
	rfp, err := middleware.ClientFrom(c).GetRFP(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failTo(c, err, routes.RFPList)
		return
	}
	render(c, http.StatusOK, "rfp_detail.html", gin.H{"rfp": rfp})
}
