// Package webui serves the dashboard pages locally: customer login and
// dashboard, the staff token page, and the QR-linked review form. Every
// handler is a thin rendering shell around the page controllers; the bearer
// session rides in role-scoped browser cookies.
package webui

import (
	"errors"
	"html/template"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const (
	// LoginPagePath is the customer login page route.
	LoginPagePath = "/frontend/login.html"
	// DashboardPagePath is the customer dashboard route.
	DashboardPagePath = "/frontend/dashboard.html"
	// AdminPagePath is the staff token-generation page route.
	AdminPagePath = "/frontend/admin.html"
	// ReviewFormPagePath matches the path embedded in QR-coded review links.
	ReviewFormPagePath = "/frontend/review-form.html"

	logoutRoutePath      = "/frontend/logout"
	redeemRoutePath      = "/frontend/redeem"
	adminLoginRoutePath  = "/frontend/admin-login"
	adminTokensRoutePath = "/frontend/admin-tokens"
	adminLogoutRoutePath = "/frontend/admin-logout"

	formFieldEmail      = "email"
	formFieldPassword   = "password"
	formFieldRedirect   = "redirect"
	formFieldRewardType = "reward_type"
	formFieldPlaceID    = "place_id"
	formFieldCount      = "count"
	formFieldToken      = "token"
	formFieldRating     = "rating"
	formFieldContent    = "content"

	queryParameterRedeemSuccess = "redeemed"
	queryParameterRedeemError   = "redeem_error"
	queryParameterLoginError    = "login_error"

	htmlContentType = "text/html; charset=utf-8"

	corsHeaderAuthorization = "Authorization"
	corsHeaderContentType   = "Content-Type"

	errorMessageMissingClient        = "webui: missing API client"
	errorMessageMissingSessionSecret = "webui: missing session secret"
)

var (
	// ErrMissingClient indicates the server was built without an API client.
	ErrMissingClient = errors.New(errorMessageMissingClient)
	// ErrMissingSessionSecret indicates the cookie signing secret was omitted.
	ErrMissingSessionSecret = errors.New(errorMessageMissingSessionSecret)

	defaultRewardTypes = []string{"free coffee", "free dessert", "10% discount"}
)

// Config captures everything the web UI needs to serve the dashboard pages.
type Config struct {
	Client        *apiclient.Client
	LinkBaseURL   string
	SessionSecret string
	RewardTypes   []string
	Logger        *zap.Logger
}

// Server renders the dashboard pages and proxies their actions to the API.
type Server struct {
	client      *apiclient.Client
	cookieStore sessions.Store
	linkBaseURL string
	rewardTypes []string
	logger      *zap.Logger

	loginTemplate      *template.Template
	dashboardTemplate  *template.Template
	adminTemplate      *template.Template
	reviewFormTemplate *template.Template
}

// NewServer builds the web UI server.
func NewServer(configuration Config) (*Server, error) {
	if configuration.Client == nil {
		return nil, ErrMissingClient
	}
	if strings.TrimSpace(configuration.SessionSecret) == "" {
		return nil, ErrMissingSessionSecret
	}

	pageLogger := configuration.Logger
	if pageLogger == nil {
		pageLogger = zap.NewNop()
	}

	rewardTypes := configuration.RewardTypes
	if len(rewardTypes) == 0 {
		rewardTypes = defaultRewardTypes
	}

	linkBaseURL := strings.TrimSpace(configuration.LinkBaseURL)
	if linkBaseURL == "" {
		linkBaseURL = configuration.Client.BaseURL()
	}

	return &Server{
		client:             configuration.Client,
		cookieStore:        sessions.NewCookieStore([]byte(configuration.SessionSecret)),
		linkBaseURL:        linkBaseURL,
		rewardTypes:        rewardTypes,
		logger:             pageLogger,
		loginTemplate:      template.Must(template.New("login").Parse(loginTemplateHTML)),
		dashboardTemplate:  template.Must(template.New("dashboard").Parse(dashboardTemplateHTML)),
		adminTemplate:      template.Must(template.New("admin").Parse(adminTemplateHTML)),
		reviewFormTemplate: template.Must(template.New("review_form").Parse(reviewFormTemplateHTML)),
	}, nil
}

// Router wires the page routes with CORS and request logging.
func (server *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(server.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{corsHeaderAuthorization, corsHeaderContentType},
		ExposeHeaders: []string{corsHeaderContentType},
	}))

	router.GET("/", func(ginContext *gin.Context) {
		ginContext.Redirect(302, LoginPagePath)
	})

	router.GET(LoginPagePath, server.renderLoginPage)
	router.POST(LoginPagePath, server.handleLoginSubmit)
	router.GET(logoutRoutePath, server.handleLogout)

	router.GET(DashboardPagePath, server.renderDashboardPage)
	router.POST(redeemRoutePath, server.handleRedeem)

	router.GET(AdminPagePath, server.renderAdminPage)
	router.POST(adminLoginRoutePath, server.handleAdminLogin)
	router.POST(adminTokensRoutePath, server.handleAdminTokens)
	router.GET(adminLogoutRoutePath, server.handleAdminLogout)

	router.GET(ReviewFormPagePath, server.renderReviewFormPage)
	router.POST(ReviewFormPagePath, server.handleReviewSubmit)

	return router
}

func (server *Server) requestSessions(ginContext *gin.Context) controller.SessionStore {
	return newCookieSessionStore(server.cookieStore, ginContext)
}

// navigationTarget maps a controller navigation effect onto a page route for
// the given role. The admin page hosts its own login form, so its login
// target is the admin page itself.
func navigationTarget(role session.Role, navigation controller.Navigation) string {
	switch navigation {
	case controller.NavigationDashboard:
		return DashboardPagePath
	case controller.NavigationLogin:
		if role == session.RoleAdmin {
			return AdminPagePath
		}
		return LoginPagePath
	default:
		return ""
	}
}

// localRedirectTarget accepts only same-site redirect targets; anything else
// falls back to the dashboard.
func localRedirectTarget(requested string) string {
	trimmed := strings.TrimSpace(requested)
	if strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "//") {
		return trimmed
	}
	return DashboardPagePath
}
