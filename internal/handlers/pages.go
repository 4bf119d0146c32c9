package handlers

import (
	"net/http"

	"procurement-portal/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) IndexPage(c *gin.Context) {
	render(c, http.StatusOK, "index.html", gin.H{
		"isAuthed": middleware.HasToken(c),
	})
}

func (h *Handler) Profile(c *gin.Context) {
	render(c, http.StatusOK, "profile.html", gin.H{
		"user": middleware.CurrentUser(c),
	})
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
