package handlers

import (
	"net/http"

	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"

	"github.com/gin-gonic/gin"
)

// обёртка над c.HTML: в каждый шаблон текущий пользователь и flash-сообщения
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u := middleware.CurrentUser(c); u != nil {
		data["CurrentUser"] = u
		data["IsGPO"] = u.Role == models.RoleGPO
		data["IsVendor"] = u.Role == models.RoleVendor
	}
	data["Notices"] = middleware.Flashes(c, middleware.FlashNotice)
	data["Errors"] = middleware.Flashes(c, middleware.FlashError)

	c.HTML(status, tmpl, data)
}

func redirect(c *gin.Context, target string) {
	c.Redirect(http.StatusFound, target)
}

func redirectWithNotice(c *gin.Context, target, msg string) {
	middleware.AddFlash(c, middleware.FlashNotice, msg)
	redirect(c, target)
}

func redirectWithError(c *gin.Context, target, msg string) {
	middleware.AddFlash(c, middleware.FlashError, msg)
	redirect(c, target)
}
