package webui

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const redeemSuccessFlashMessage = "bonus redeemed, your balance will update shortly"

type dashboardPageData struct {
	View          controller.DashboardView
	RewardTypes   []string
	RedeemPath    string
	LogoutPath    string
	RedeemError   string
	RedeemSuccess string
}

func (server *Server) dashboardController(ginContext *gin.Context) *controller.DashboardController {
	return controller.NewDashboardController(server.client, server.requestSessions(ginContext), server.logger)
}

func (server *Server) renderDashboardPage(ginContext *gin.Context) {
	dashboardController := server.dashboardController(ginContext)

	view := dashboardController.Load(ginContext.Request.Context())
	if view.Navigate == controller.NavigationLogin {
		ginContext.Redirect(http.StatusFound, navigationTarget(session.RoleUser, view.Navigate))
		return
	}

	pageData := dashboardPageData{
		View:        view,
		RewardTypes: server.rewardTypes,
		RedeemPath:  redeemRoutePath,
		LogoutPath:  logoutRoutePath,
		RedeemError: ginContext.Query(queryParameterRedeemError),
	}
	if ginContext.Query(queryParameterRedeemSuccess) != "" {
		pageData.RedeemSuccess = redeemSuccessFlashMessage
	}

	ginContext.Header(corsHeaderContentType, htmlContentType)
	if renderErr := server.dashboardTemplate.Execute(ginContext.Writer, pageData); renderErr != nil {
		server.logger.Error("render_dashboard_page", zap.Error(renderErr))
	}
}

// handleRedeem follows the post-redirect-get pattern: the outcome rides back
// to the dashboard as a query parameter so a refresh never re-submits.
func (server *Server) handleRedeem(ginContext *gin.Context) {
	dashboardController := server.dashboardController(ginContext)

	outcome := dashboardController.Redeem(ginContext.Request.Context(), nil, ginContext.PostForm(formFieldRewardType))
	if outcome.ForcedLogout {
		ginContext.Redirect(http.StatusFound, navigationTarget(session.RoleUser, outcome.Navigate))
		return
	}

	redirectParameters := url.Values{}
	if outcome.Success {
		redirectParameters.Set(queryParameterRedeemSuccess, "1")
	} else {
		redirectParameters.Set(queryParameterRedeemError, outcome.Message)
	}
	ginContext.Redirect(http.StatusFound, DashboardPagePath+"?"+redirectParameters.Encode())
}
