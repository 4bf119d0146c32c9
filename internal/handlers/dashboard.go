package handlers

import (
	"net/http"

	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"

	"github.com/gin-gonic/gin"
)

const recentRFPs = 5

func (h *Handler) OfficerDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	client := middleware.ClientFrom(c)
	data := gin.H{"totalRFPs": 0, "publishedRFPs": 0}

	recent, err := client.ListRFPs(ctx, models.ListRFPsParams{Page: 1, Limit: recentRFPs})
	if err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
		render(c, http.StatusOK, "dashboard.html", data)
		return
	}
	data["recent"] = recent.Data
	data["totalRFPs"] = recent.Pagination.TotalItems

	published, err := client.ListRFPs(ctx, models.ListRFPsParams{Page: 1, Limit: 1, Status: string(models.RFPPublished)})
	if err == nil {
		data["publishedRFPs"] = published.Pagination.TotalItems
	} else if sessionLost(c, err) {
		return
	}

	render(c, http.StatusOK, "dashboard.html", data)
}

func (h *Handler) VendorDashboard(c *gin.Context) {
	user := middleware.CurrentUser(c)
	data := gin.H{"verified": user != nil && user.IsVerified, "openRFPs": 0}

	open, err := middleware.ClientFrom(c).ListRFPs(c.Request.Context(), models.ListRFPsParams{
		Page: 1, Limit: recentRFPs, Status: string(models.RFPPublished),
	})
	if err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
	} else {
		data["open"] = open.Data
		data["openRFPs"] = open.Pagination.TotalItems
	}

	render(c, http.StatusOK, "vendor_dashboard.html", data)
}
