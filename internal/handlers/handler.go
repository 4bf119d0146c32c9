package handlers

import (
	"log/slog"

	"procurement-portal/internal/logging"
	"procurement-portal/internal/rfpflow"
)

// Handler обслуживает страницы портала. В бэкенд ходим через клиент,
// который middleware.InjectSession кладёт в каждый запрос.
type Handler struct {
	Workflows rfpflow.Repository
	Logger    *slog.Logger
}

func New(workflows rfpflow.Repository, logger *slog.Logger) *Handler {
	registerValidations()
	return &Handler{
		Workflows: workflows,
		Logger:    logging.Component(logger, "handlers"),
	}
}
