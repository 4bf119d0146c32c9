package handlers

import (
	"log/slog"

	"procurement-portal/internal/api"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/routes"

	"github.com/gin-gonic/gin"
)

// логгер обработчиков с request id текущего запроса
func (h *Handler) log(c *gin.Context) *slog.Logger {
	return logging.Ctx(c.Request.Context(), h.Logger)
}

// токен отклонён бэкендом: store уже разлогинил и поставил уведомление,
// остаётся отправить браузер на /login
func sessionLost(c *gin.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	redirect(c, routes.Login)
	return true
}

// ошибку во flash и редирект на fallback
func (h *Handler) failTo(c *gin.Context, err error, fallback string) {
	if sessionLost(c, err) {
		return
	}
	h.log(c).Warn("backend request failed",
		"path", c.Request.URL.Path,
		"kind", api.KindOf(err).String(),
		"error", err,
	)
	redirectWithError(c, fallback, api.Message(err))
}

// pageError: текст ошибки для страницы, данные которой не загрузились.
// ok == false, если вместо этого уже сделан редирект.
func (h *Handler) pageError(c *gin.Context, err error) (msg string, ok bool) {
	if sessionLost(c, err) {
		return "", false
	}
	h.log(c).Warn("page data unavailable",
		"path", c.Request.URL.Path,
		"kind", api.KindOf(err).String(),
		"error", err,
	)
	return api.Message(err), true
}
