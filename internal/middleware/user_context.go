package middleware

import (
	"log/slog"
	"net/http"

	"procurement-portal/internal/api"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/models"
	"procurement-portal/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ключи контекста, которые ставят InjectSession и Guard
const (
	ClientKey      = "APIClient"
	SessionKey     = "Session"
	CurrentUserKey = "CurrentUser"
)

const RequestIDHeader = "X-Request-ID"

const (
	tokenKey       = "token"
	workflowKeyKey = "workflow_key"
)

// токен лежит в зашифрованной cookie сессии
type cookieTokens struct {
	sess sessions.Session
}

func (t cookieTokens) Load() (string, error) {
	token, _ := t.sess.Get(tokenKey).(string)
	return token, nil
}

func (t cookieTokens) Save(token string) error {
	t.sess.Set(tokenKey, token)
	return t.sess.Save()
}

func (t cookieTokens) Clear() error {
	t.sess.Delete(tokenKey)
	return t.sess.Save()
}

// InjectSession: на каждый запрос свой клиент бэкенда и своё хранилище сессии,
// оба привязаны к токену из cookie. Заодно проставляем request id.
func InjectSession(backendURL string, httpClient *http.Client, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		reqLogger := logging.Ctx(ctx, logger)
		sess := sessions.Default(c)

		client := api.NewClient(backendURL, httpClient, reqLogger)
		store := session.New(client, cookieTokens{sess: sess},
			session.WithLogger(reqLogger),
			session.WithNotifier(func(msg string) { AddFlash(c, FlashError, msg) }),
		)

		c.Set(ClientKey, client)
		c.Set(SessionKey, store)
		c.Next()
	}
}

func ClientFrom(c *gin.Context) *api.Client {
	return c.MustGet(ClientKey).(*api.Client)
}

func SessionFrom(c *gin.Context) *session.Store {
	return c.MustGet(SessionKey).(*session.Store)
}

// пользователь, которого пропустил Guard; на публичных страницах nil
func CurrentUser(c *gin.Context) *models.User {
	if u, ok := c.Get(CurrentUserKey); ok {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

// есть ли токен в cookie (без похода в бэкенд)
func HasToken(c *gin.Context) bool {
	token, _ := sessions.Default(c).Get(tokenKey).(string)
	return token != ""
}

// ключ черновика RFP для этого браузера, создаём при первом обращении
func WorkflowKey(c *gin.Context) string {
	sess := sessions.Default(c)
	if key, ok := sess.Get(workflowKeyKey).(string); ok && key != "" {
		return key
	}
	key := uuid.NewString()
	sess.Set(workflowKeyKey, key)
	_ = sess.Save()
	return key
}
