package handlers

import (
	"net/http"

	"procurement-portal/internal/database"

	"github.com/gin-gonic/gin"
)

const activityLimit = 200

func (h *Handler) ListActivity(c *gin.Context) {
	filter := database.AuditFilter{
		Entity: c.Query("entity"),
		Action: c.Query("action"),
	}

	logs, err := database.ListAuditLogs(filter, activityLimit)
	data := gin.H{
		"logs":         logs,
		"filterEntity": filter.Entity,
		"filterAction": filter.Action,
	}
	if err != nil {
		h.log(c).Error("list activity failed", "error", err)
		data["error"] = "Unable to load activity."
	}

	render(c, http.StatusOK, "activity.html", data)
}
