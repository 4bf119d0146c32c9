package handlers

import (
	"net/http"
	"strings"

	"procurement-portal/internal/api"
	"procurement-portal/internal/database"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"
	"procurement-portal/internal/routes"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := middleware.ClientFrom(c).ListCategories(c.Request.Context())
	data := gin.H{"categories": categories}
	if err != nil {
		msg, ok := h.pageError(c, err)
		if !ok {
			return
		}
		data["error"] = msg
	}
	render(c, http.StatusOK, "categories.html", data)
}

type categoryForm struct {
	Name        string `form:"name" binding:"notblank"`
	Description string `form:"description"`
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var form categoryForm
	if err := c.ShouldBind(&form); err != nil {
		msg := api.MsgInvalidInput
		if problems, ok := formProblems(err); ok {
			msg = problems["name"] + "."
		}
		redirectWithError(c, routes.Categories, msg)
		return
	}
	req := models.CreateCategoryRequest{
		Name:        strings.TrimSpace(form.Name),
		Description: strings.TrimSpace(form.Description),
	}

	category, err := middleware.ClientFrom(c).CreateCategory(c.Request.Context(), req)
	if err != nil {
		h.failTo(c, err, routes.Categories)
		return
	}

	database.CreateAuditLog(middleware.CurrentUser(c), database.EntityCategory, category.ID, database.ActionCreate, category.Name)
	redirectWithNotice(c, routes.Categories, "Category \""+category.Name+"\" created.")
}
