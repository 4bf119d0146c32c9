package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	FlashNotice = "notice"
	FlashError  = "error"
)

// сообщение для следующей отрисованной страницы, без дублей
func AddFlash(c *gin.Context, kind, msg string) {
	sess := sessions.Default(c)
	for _, existing := range sess.Flashes(kind) {
		if s, ok := existing.(string); ok && s != msg {
			sess.AddFlash(s, kind)
		}
	}
	sess.AddFlash(msg, kind)
	_ = sess.Save()
}

// забираем накопленные сообщения данного вида
func Flashes(c *gin.Context, kind string) []string {
	sess := sessions.Default(c)
	raw := sess.Flashes(kind)
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save()

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}
