package webui

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const defaultTokenGenerationCount = 5

type adminPageData struct {
	Authenticated bool
	EmailPrefill  string
	LoginPath     string
	LogoutPath    string
	GeneratePath  string
	LoginError    string
	Places        controller.PlacesView
	Generation    controller.TokenGenerationView
}

func (server *Server) adminLoginController(ginContext *gin.Context) *controller.LoginController {
	return controller.NewLoginController(server.client, server.requestSessions(ginContext), session.RoleAdmin, server.logger)
}

func (server *Server) adminController(ginContext *gin.Context) *controller.AdminController {
	return controller.NewAdminController(server.client, server.requestSessions(ginContext), server.linkBaseURL, server.logger)
}

func (server *Server) renderAdminPage(ginContext *gin.Context) {
	pageData := server.buildAdminPageData(ginContext)
	pageData.LoginError = ginContext.Query(queryParameterLoginError)
	server.renderAdminTemplate(ginContext, pageData)
}

func (server *Server) handleAdminLogin(ginContext *gin.Context) {
	loginController := server.adminLoginController(ginContext)

	outcome := loginController.Submit(ginContext.Request.Context(), ginContext.PostForm(formFieldEmail), ginContext.PostForm(formFieldPassword))
	if !outcome.Success {
		redirectParameters := url.Values{}
		redirectParameters.Set(queryParameterLoginError, outcome.Message)
		ginContext.Redirect(http.StatusFound, AdminPagePath+"?"+redirectParameters.Encode())
		return
	}
	ginContext.Redirect(http.StatusFound, AdminPagePath)
}

func (server *Server) handleAdminTokens(ginContext *gin.Context) {
	adminController := server.adminController(ginContext)

	requestedCount, parseErr := strconv.Atoi(ginContext.PostForm(formFieldCount))
	if parseErr != nil || requestedCount <= 0 {
		requestedCount = defaultTokenGenerationCount
	}

	generation := adminController.GenerateTokens(ginContext.Request.Context(), ginContext.PostForm(formFieldPlaceID), requestedCount)
	if generation.ForcedLogout || generation.Navigate == controller.NavigationLogin {
		ginContext.Redirect(http.StatusFound, navigationTarget(session.RoleAdmin, controller.NavigationLogin))
		return
	}

	pageData := server.buildAdminPageData(ginContext)
	pageData.Generation = generation
	server.renderAdminTemplate(ginContext, pageData)
}

func (server *Server) handleAdminLogout(ginContext *gin.Context) {
	loginController := server.adminLoginController(ginContext)

	if _, logoutErr := loginController.Logout(ginContext.Request.Context()); logoutErr != nil {
		server.logger.Error("admin_logout_failed", zap.Error(logoutErr))
	}
	ginContext.Redirect(http.StatusFound, AdminPagePath)
}

func (server *Server) buildAdminPageData(ginContext *gin.Context) adminPageData {
	loginController := server.adminLoginController(ginContext)

	pageData := adminPageData{
		LoginPath:    adminLoginRoutePath,
		LogoutPath:   adminLogoutRoutePath,
		GeneratePath: adminTokensRoutePath,
	}

	view := loginController.Restore(ginContext.Request.Context())
	pageData.Authenticated = view.Authenticated
	pageData.EmailPrefill = view.EmailPrefill

	if view.Authenticated {
		pageData.Places = server.adminController(ginContext).LoadPlaces(ginContext.Request.Context())
		if pageData.Places.ForcedLogout {
			pageData.Authenticated = false
			pageData.Places = controller.PlacesView{}
		}
	}
	return pageData
}

func (server *Server) renderAdminTemplate(ginContext *gin.Context, pageData adminPageData) {
	ginContext.Header(corsHeaderContentType, htmlContentType)
	if renderErr := server.adminTemplate.Execute(ginContext.Writer, pageData); renderErr != nil {
		server.logger.Error("render_admin_page", zap.Error(renderErr))
	}
}
