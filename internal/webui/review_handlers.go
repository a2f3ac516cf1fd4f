package webui

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const starGlyph = "★"

type starOption struct {
	Value    int
	Glyph    string
	Selected bool
}

type reviewFormPageData struct {
	ReviewToken     string
	PlaceID         string
	Stars           []starOption
	SubmitPath      string
	DashboardPath   string
	BlockingError   string
	ErrorMessage    string
	SuccessMessage  string
	HideSubmit      bool
	RedirectSeconds int
	RedirectURL     string
}

func (server *Server) reviewFormController(ginContext *gin.Context) *controller.ReviewFormController {
	return controller.NewReviewFormController(server.client, server.requestSessions(ginContext), server.logger)
}

func (server *Server) renderReviewFormPage(ginContext *gin.Context) {
	formController := server.reviewFormController(ginContext)

	view := formController.Open(ginContext.Request.Context(), ginContext.Query(formFieldToken), ginContext.Query(formFieldPlaceID))
	if view.Navigate == controller.NavigationLogin {
		returnTo := ginContext.Request.URL.RequestURI()
		ginContext.Redirect(http.StatusFound, loginRedirectURL(returnTo))
		return
	}

	server.renderReviewFormTemplate(ginContext, reviewFormPageData{
		ReviewToken:   view.ReviewToken,
		PlaceID:       view.PlaceID,
		Stars:         buildStarOptions(view.Rating),
		SubmitPath:    ReviewFormPagePath,
		DashboardPath: DashboardPagePath,
		BlockingError: view.BlockingError,
	})
}

func (server *Server) handleReviewSubmit(ginContext *gin.Context) {
	formController := server.reviewFormController(ginContext)

	rating, ratingErr := strconv.Atoi(ginContext.PostForm(formFieldRating))
	if ratingErr != nil {
		rating = controller.DefaultReviewRating
	}

	reviewToken := ginContext.PostForm(formFieldToken)
	placeID := ginContext.PostForm(formFieldPlaceID)
	outcome := formController.Submit(ginContext.Request.Context(), nil, reviewToken, placeID, rating, ginContext.PostForm(formFieldContent))

	if outcome.ForcedLogout {
		ginContext.Redirect(http.StatusFound, navigationTarget(session.RoleUser, outcome.Navigate))
		return
	}

	pageData := reviewFormPageData{
		ReviewToken:   reviewToken,
		PlaceID:       placeID,
		Stars:         buildStarOptions(rating),
		SubmitPath:    ReviewFormPagePath,
		DashboardPath: DashboardPagePath,
		HideSubmit:    outcome.HideSubmit,
	}

	switch {
	case outcome.Success:
		pageData.SuccessMessage = outcome.Message
	case outcome.Cooldown:
		pageData.ErrorMessage = outcome.Message
	default:
		pageData.ErrorMessage = outcome.Message
	}

	if outcome.Navigate == controller.NavigationDashboard && outcome.RedirectAfter > 0 {
		pageData.RedirectSeconds = int(outcome.RedirectAfter.Seconds())
		pageData.RedirectURL = DashboardPagePath
	}

	server.renderReviewFormTemplate(ginContext, pageData)
}

func buildStarOptions(selectedRating int) []starOption {
	stars := make([]starOption, 0, 5)
	for starValue := 1; starValue <= 5; starValue++ {
		stars = append(stars, starOption{Value: starValue, Glyph: starGlyph, Selected: starValue == selectedRating})
	}
	return stars
}

func (server *Server) renderReviewFormTemplate(ginContext *gin.Context, pageData reviewFormPageData) {
	ginContext.Header(corsHeaderContentType, htmlContentType)
	if renderErr := server.reviewFormTemplate.Execute(ginContext.Writer, pageData); renderErr != nil {
		server.logger.Error("render_review_form_page", zap.Error(renderErr))
	}
}
