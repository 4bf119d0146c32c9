package middleware

import (
	"net/http"

	"procurement-portal/internal/guard"
	"procurement-portal/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Guard пускает только авторизованных; если роли заданы, то только с одной из них.
// Иначе редирект и Abort, обработчик не вызывается.
func Guard(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := SessionFrom(c)

		decision := guard.Evaluate(c.Request.Context(), store, roles)
		if decision.Redirects() {
			_ = sessions.Default(c).Save()
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
			return
		}

		c.Set(CurrentUserKey, store.User())
		c.Next()
	}
}
