package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"time"

	"procurement-portal/internal/api"
	"procurement-portal/internal/config"
	"procurement-portal/internal/handlers"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/models"
	"procurement-portal/internal/rfpflow"
	"procurement-portal/internal/routes"
	"procurement-portal/web"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
)

const sessionCookie = "portal_session"

func maskEmail(email string) string {
	runes := []rune(email)
	atIdx := -1
	for i, r := range runes {
		if r == '@' {
			atIdx = i
			break
		}
	}
	if atIdx <= 0 {
		return "***"
	}
	prefix := string(runes[:atIdx])
	domain := string(runes[atIdx:])
	if len([]rune(prefix)) <= 2 {
		return prefix + "***" + domain
	}
	return string(runes[0:2]) + "***" + domain
}

func maskPhone(phone string) string {
	runes := []rune(phone)
	n := len(runes)
	if n <= 4 {
		return "***"
	}
	masked := make([]rune, n)
	for i := range runes {
		if i >= n-2 {
			masked[i] = runes[i]
		} else {
			masked[i] = '*'
		}
	}
	return string(masked)
}

var md = goldmark.New()

// renderMarkdown рендерит описания от бэкенда; сырой HTML не пропускается.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

// formatMoney выводит сумму как $1,234,567.89; целые суммы без копеек.
func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := math.Round(v * 100)
	if math.Mod(cents, 100) == 0 {
		return sign + "$" + humanize.Comma(int64(cents/100))
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", cents/100)
}

// NewRouter собирает gin с сессиями, шаблонами и всеми маршрутами портала.
func NewRouter(cfg *config.Config, workflows rfpflow.Repository, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = logging.Discard()
	}

	r := gin.Default()

	r.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"maskEmail": maskEmail,
		"maskPhone": maskPhone,
		"markdown":  renderMarkdown,
		"date":      formatDate,
		"money":     formatMoney,
		"rfpURL":    routes.RFPDetail,
		"bidURL":    routes.BidDetail,
	}).ParseFS(web.Templates, "templates/*.html")))

	// cookie подписан и зашифрован: токен бэкенда не читается в браузере
	store := cookie.NewStore(cfg.SessionKeys())
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((12 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookie, store))

	r.Use(middleware.InjectSession(cfg.BackendURL, api.NewHTTPClient(cfg.RequestTimeout), logger))

	h := handlers.New(workflows, logger)

	r.GET(routes.Index, h.IndexPage)
	r.GET("/health", handlers.Health)

	// AUTH
	r.GET(routes.Login, h.ShowLogin)
	r.POST(routes.Login, h.Login)
	r.GET(routes.Register, h.ShowRegister)
	r.POST(routes.Register, h.Register)
	r.GET(routes.VerifyBusiness, h.VerifyBusiness)

	authed := r.Group("/")
	authed.Use(middleware.Guard())
	authed.GET(routes.Logout, h.Logout)
	authed.GET(routes.Profile, h.Profile)
	authed.GET(routes.RFPList, h.ListRFPs)
	authed.GET(routes.RFPList+"/:id", h.ShowRFP)

	// ЗАКУПЩИК (GPO)
	gpo := r.Group("/")
	gpo.Use(middleware.Guard(models.RoleGPO))
	gpo.GET(routes.OfficerHome, h.OfficerDashboard)
	gpo.GET(routes.Categories, h.ListCategories)
	gpo.POST(routes.Categories, h.CreateCategory)
	gpo.GET(routes.RFPCreate, h.ShowCreateRFP)
	gpo.POST(routes.RFPCreate, h.SubmitDraft)
	gpo.GET(routes.RFPReview, h.ShowReview)
	gpo.POST(routes.RFPBackToEdit, h.BackToEdit)
	gpo.POST(routes.RFPPublish, h.Publish)
	gpo.GET(routes.Bids, h.ListBids)
	gpo.GET(routes.RFPList+"/:id/bid/:bidId", h.ShowBid)
	gpo.GET(routes.RFPList+"/:id/bid/:bidId/document", h.BidDocument)
	gpo.GET(routes.Activity, h.ListActivity)

	// ПОСТАВЩИК
	vendor := r.Group("/")
	vendor.Use(middleware.Guard(models.RoleVendor))
	vendor.GET(routes.VendorHome, h.VendorDashboard)
	vendor.GET(routes.VendorRFPs, h.VendorRFPs)
	vendor.GET(routes.VendorBidNew, h.ShowNewBid)
	vendor.POST(routes.VendorBidNew, h.SubmitBid)
	vendor.GET(routes.VendorBids, h.VendorBids)
	vendor.GET(routes.Verification, h.ShowVerificationRequest)
	vendor.POST(routes.Verification, h.RequestVerification)

	return r
}
