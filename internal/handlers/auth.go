package handlers

import (
	"errors"
	"net/http"
	"strings"

	"procurement-portal/internal/api"
	"procurement-portal/internal/database"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"
	"procurement-portal/internal/routes"
	"procurement-portal/internal/session"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ShowLogin(c *gin.Context) {
	if middleware.HasToken(c) {
		store := middleware.SessionFrom(c)
		if store.CheckAuth(c.Request.Context()) {
			if home := routes.HomeFor(store.User().Role); home != routes.Login {
				redirect(c, home)
				return
			}
			// роль порталу неизвестна: токен выбрасываем, иначе /login зациклится
			store.Logout()
		}
	}
	render(c, http.StatusOK, "login.html", gin.H{"error": "", "email": ""})
}

type loginForm struct {
	Email    string `form:"email" binding:"notblank"`
	Password string `form:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		msg := api.MsgInvalidInput
		if _, ok := formProblems(err); ok {
			msg = "Email and password are required."
		}
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": msg, "email": strings.TrimSpace(form.Email)})
		return
	}
	form.Email = strings.TrimSpace(form.Email)

	store := middleware.SessionFrom(c)
	landing, err := store.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		status, msg := http.StatusBadGateway, api.LoginMessage(err)
		switch {
		case errors.Is(err, session.ErrInProgress):
			status = http.StatusConflict
		case errors.Is(err, session.ErrUnsupportedRole):
			status, msg = http.StatusForbidden, api.MsgUnsupportedAcc
		case api.KindOf(err) == api.KindUnauthorized, api.KindOf(err) == api.KindValidation:
			status = http.StatusUnauthorized
		}
		render(c, status, "login.html", gin.H{
			"errorTitle": api.LoginFailedTitle,
			"error":      msg,
			"email":      form.Email,
		})
		return
	}

	database.CreateAuditLog(store.User(), database.EntitySession, "", database.ActionLogin, "")
	redirect(c, landing)
}

// logout под Guard, чтобы в журнале был пользователь
func (h *Handler) Logout(c *gin.Context) {
	database.CreateAuditLog(middleware.CurrentUser(c), database.EntitySession, "", database.ActionLogout, "")
	redirect(c, middleware.SessionFrom(c).Logout())
}

func (h *Handler) ShowRegister(c *gin.Context) {
	render(c, http.StatusOK, "register.html", gin.H{"error": "", "form": models.RegisterRequest{}})
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	err := c.ShouldBind(&req)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)

	if err != nil {
		problems, ok := formProblems(err)
		if !ok {
			render(c, http.StatusBadRequest, "register.html", gin.H{"error": api.MsgInvalidInput, "form": req})
			return
		}
		render(c, http.StatusUnprocessableEntity, "register.html", gin.H{
			"error":    "Please check your input and try again.",
			"problems": problems,
			"form":     req,
		})
		return
	}

	if err := middleware.ClientFrom(c).Register(c.Request.Context(), req); err != nil {
		h.log(c).Info("registration rejected", "email", req.Email, "kind", api.KindOf(err).String())
		render(c, http.StatusBadRequest, "register.html", gin.H{
			"errorTitle": "Registration failed",
			"error":      api.Message(err),
			"form":       req,
		})
		return
	}

	database.CreateAuditLog(&models.User{Email: req.Email}, database.EntityVendor, "", database.ActionRegister, req.CompanyName)
	redirectWithNotice(c, routes.Login, "Registration submitted! Your application is under review. We'll contact you soon.")
}

// подтверждение бизнеса по ссылке из письма
func (h *Handler) VerifyBusiness(c *gin.Context) {
	token := c.Param("token")
	if err := middleware.ClientFrom(c).VerifyBusiness(c.Request.Context(), token); err != nil {
		h.log(c).Info("business verification failed", "kind", api.KindOf(err).String())
		redirectWithError(c, routes.Index, "Verification failed: "+api.Message(err))
		return
	}
	redirectWithNotice(c, routes.Login, "Your business has been verified. Please log in.")
}

func (h *Handler) ShowVerificationRequest(c *gin.Context) {
	render(c, http.StatusOK, "verification_request.html", gin.H{"error": "", "number": ""})
}

func (h *Handler) RequestVerification(c *gin.Context) {
	var req models.VerificationRequest
	err := c.ShouldBind(&req)
	req.BusinessRegistrationNumber = strings.TrimSpace(req.BusinessRegistrationNumber)
	if err != nil {
		msg := api.MsgInvalidInput
		if problems, ok := formProblems(err); ok {
			msg = problems["businessRegistrationNumber"] + "."
		}
		render(c, http.StatusUnprocessableEntity, "verification_request.html", gin.H{
			"error":  msg,
			"number": req.BusinessRegistrationNumber,
		})
		return
	}

	if err := middleware.ClientFrom(c).RequestVerification(c.Request.Context(), req); err != nil {
		if sessionLost(c, err) {
			return
		}
		render(c, http.StatusBadRequest, "verification_request.html", gin.H{
			"error":  api.Message(err),
			"number": req.BusinessRegistrationNumber,
		})
		return
	}

	database.CreateAuditLog(middleware.CurrentUser(c), database.EntityVendor, "", database.ActionVerify, req.BusinessRegistrationNumber)
	redirectWithNotice(c, routes.VendorHome, "Verification requested. Check your email for the confirmation link.")
}
