package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"procurement-portal/internal/api"
	"procurement-portal/internal/database"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"
	"procurement-portal/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// заявки смотрим по опубликованным и закрытым RFP
const reviewableStatuses = "PUBLISHED,CLOSED"

func (h *Handler) ListBids(c *gin.Context) {
	ctx := c.Request.Context()
	client := middleware.ClientFrom(c)
	selected := c.Query("rfp")
	data := gin.H{"selected": selected}

	rfps, err := client.ListRFPs(ctx, models.ListRFPsParams{Page: 1, Limit: 100, Status: reviewableStatuses})
	if err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
		render(c, http.StatusOK, "bids.html", data)
		return
	}
	data["rfps"] = rfps.Data

	if selected != "" {
		bids, err := client.ListBids(ctx, selected)
		if err != nil {
			msg, ok := h.pageError(c, err)
			if !ok {
				return
			}
			data["error"] = msg
		}
		data["bids"] = bids
	}

	render(c, http.StatusOK, "bids.html", data)
}

func (h *Handler) ShowBid(c *gin.Context) {
	rfpID, bidID := c.Param("id"), c.Param("bidId")
	bid, err := middleware.ClientFrom(c).GetBid(c.Request.Context(), rfpID, bidID)
	if err != nil {
		h.failTo(c, err, routes.Bids)
		return
	}
	render(c, http.StatusOK, "bid_detail.html", gin.H{
		"bid":         bid,
		"rfpID":       rfpID,
		"documentURL": routes.BidDocument(rfpID, bidID),
	})
}

// документ заявки отдаём браузеру потоком из бэкенда
func (h *Handler) BidDocument(c *gin.Context) {
	rfpID, bidID := c.Param("id"), c.Param("bidId")
	doc, err := middleware.ClientFrom(c).BidDocument(c.Request.Context(), rfpID, bidID)
	if err != nil {
		h.failTo(c, err, routes.BidDetail(rfpID, bidID))
		return
	}
	defer doc.Body.Close()

	c.DataFromReader(http.StatusOK, doc.ContentLength, doc.ContentType, doc.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Filename),
	})
}

func (h *Handler) VendorRFPs(c *gin.Context) {
	page, limit := pageParams(c)
	h.renderRFPList(c, "vendor_rfps.html", models.ListRFPsParams{
		Page: page, Limit: limit, Status: string(models.RFPPublished),
	})
}

func (h *Handler) renderBidForm(c *gin.Context, status int, form models.BidForm, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["form"] = form
	if _, ok := data["problems"]; !ok {
		data["problems"] = map[string]string{}
	}

	rfps, err := middleware.ClientFrom(c).ListRFPs(c.Request.Context(), models.ListRFPsParams{
		Page: 1, Limit: 100, Status: string(models.RFPPublished),
	})
	if err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
	} else {
		data["rfps"] = rfps.Data
	}
	render(c, status, "bid_new.html", data)
}

func (h *Handler) ShowNewBid(c *gin.Context) {
	h.renderBidForm(c, http.StatusOK, models.BidForm{RFPID: c.Query("rfp")}, nil)
}

// заявка проверяется на нашей стороне и пишется в журнал поставщика:
// эндпоинта создания заявки у бэкенда нет
func (h *Handler) SubmitBid(c *gin.Context) {
	var form models.BidForm
	err := c.ShouldBind(&form)
	form.RFPID = strings.TrimSpace(form.RFPID)
	form.CostEstimate = strings.TrimSpace(form.CostEstimate)
	form.DeliveryTimeline = strings.TrimSpace(form.DeliveryTimeline)
	form.ProposalDetails = strings.TrimSpace(form.ProposalDetails)
	if _, invalid := formProblems(err); err == nil || invalid {
		// правила проверяем по тексту без пробелов по краям
		err = binding.Validator.ValidateStruct(&form)
	}

	if err != nil {
		problems, ok := formProblems(err)
		if !ok {
			h.renderBidForm(c, http.StatusBadRequest, form, gin.H{"error": api.MsgInvalidInput})
			return
		}
		h.renderBidForm(c, http.StatusUnprocessableEntity, form, gin.H{"problems": problems})
		return
	}

	details := fmt.Sprintf("cost=%s; timeline=%s", form.CostEstimate, form.DeliveryTimeline)
	database.CreateAuditLog(middleware.CurrentUser(c), database.EntityBid, form.RFPID, database.ActionSubmit, details)
	redirectWithNotice(c, routes.VendorBids, "Bid Submitted: Your bid has been successfully submitted for review.")
}

func (h *Handler) VendorBids(c *gin.Context) {
	user := middleware.CurrentUser(c)
	data := gin.H{}

	entries, err := database.ListAuditLogs(database.AuditFilter{
		UserID: user.ID,
		Entity: database.EntityBid,
		Action: database.ActionSubmit,
	}, 100)
	if err != nil {
		h.log(c).Error("list vendor bids failed", "user_id", user.ID, "error", err)
		data["error"] = "Unable to load your bids."
	}
	data["bids"] = entries

	render(c, http.StatusOK, "vendor_bids.html", data)
}
