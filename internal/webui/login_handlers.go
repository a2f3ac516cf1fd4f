package webui

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const (
	customerLoginPageTitle = "Sign in"
	customerLoginHeading   = "Sign in to your dashboard"
)

type loginPageData struct {
	PageTitle      string
	Heading        string
	FormAction     string
	EmailPrefill   string
	RedirectTarget string
	ErrorMessage   string
	SuccessMessage string
}

func (server *Server) customerLoginController(ginContext *gin.Context) *controller.LoginController {
	return controller.NewLoginController(server.client, server.requestSessions(ginContext), session.RoleUser, server.logger)
}

func (server *Server) renderLoginPage(ginContext *gin.Context) {
	loginController := server.customerLoginController(ginContext)

	view := loginController.Restore(ginContext.Request.Context())
	if view.Navigate == controller.NavigationDashboard {
		ginContext.Redirect(http.StatusFound, DashboardPagePath)
		return
	}

	server.renderLoginTemplate(ginContext, loginPageData{
		PageTitle:      customerLoginPageTitle,
		Heading:        customerLoginHeading,
		FormAction:     LoginPagePath,
		EmailPrefill:   view.EmailPrefill,
		RedirectTarget: ginContext.Query(formFieldRedirect),
	})
}

func (server *Server) handleLoginSubmit(ginContext *gin.Context) {
	loginController := server.customerLoginController(ginContext)

	email := ginContext.PostForm(formFieldEmail)
	password := ginContext.PostForm(formFieldPassword)
	outcome := loginController.Submit(ginContext.Request.Context(), email, password)

	if !outcome.Success {
		server.renderLoginTemplate(ginContext, loginPageData{
			PageTitle:      customerLoginPageTitle,
			Heading:        customerLoginHeading,
			FormAction:     LoginPagePath,
			EmailPrefill:   email,
			RedirectTarget: ginContext.PostForm(formFieldRedirect),
			ErrorMessage:   outcome.Message,
		})
		return
	}

	requestedRedirect := ginContext.PostForm(formFieldRedirect)
	if requestedRedirect != "" {
		ginContext.Redirect(http.StatusFound, localRedirectTarget(requestedRedirect))
		return
	}
	ginContext.Redirect(http.StatusFound, navigationTarget(session.RoleUser, outcome.Navigate))
}

func (server *Server) handleLogout(ginContext *gin.Context) {
	loginController := server.customerLoginController(ginContext)

	navigation, logoutErr := loginController.Logout(ginContext.Request.Context())
	if logoutErr != nil {
		server.logger.Error("logout_failed", zap.Error(logoutErr))
	}
	target := navigationTarget(session.RoleUser, navigation)
	if target == "" {
		target = LoginPagePath
	}
	ginContext.Redirect(http.StatusFound, target)
}

func (server *Server) renderLoginTemplate(ginContext *gin.Context, pageData loginPageData) {
	ginContext.Header(corsHeaderContentType, htmlContentType)
	if renderErr := server.loginTemplate.Execute(ginContext.Writer, pageData); renderErr != nil {
		server.logger.Error("render_login_page", zap.Error(renderErr))
	}
}

// loginRedirectURL builds the login route carrying a redirect-back parameter.
func loginRedirectURL(returnTo string) string {
	redirectParameters := url.Values{}
	redirectParameters.Set(formFieldRedirect, returnTo)
	return LoginPagePath + "?" + redirectParameters.Encode()
}
