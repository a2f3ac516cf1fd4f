package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const (
	// DefaultReviewRating preselects the highest star.
	DefaultReviewRating = 5
	minimumReviewRating = 1
	maximumReviewRating = 5

	// successRedirectDelay routes back to the dashboard after a submitted
	// review; cooldownRedirectDelay does the same for the daily-limit path,
	// left a little longer so the message can be read.
	successRedirectDelay  = 3 * time.Second
	cooldownRedirectDelay = 5 * time.Second
)

// ReviewGateway is the review submission slice of the API client.
type ReviewGateway interface {
	SubmitReview(ctx context.Context, bearerToken string, submission model.ReviewSubmission) error
}

// ReviewFormController drives the token-gated review form reached through a
// QR code link.
type ReviewFormController struct {
	gateway ReviewGateway
	store   SessionStore
	logger  *zap.Logger
}

// NewReviewFormController builds the review form controller.
func NewReviewFormController(gateway ReviewGateway, store SessionStore, logger *zap.Logger) *ReviewFormController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewFormController{gateway: gateway, store: store, logger: logger}
}

// ReviewFormView is the page state derived from the link parameters and the
// stored customer session.
type ReviewFormView struct {
	ReviewToken   string
	PlaceID       string
	Rating        int
	BlockingError string
	Navigate      Navigation
	RedirectBack  bool
}

// Open validates the QR link parameters and the customer session. Both link
// parameters are required, with distinct messages; unauthenticated visitors
// are routed to login with a redirect-back marker.
func (formController *ReviewFormController) Open(ctx context.Context, linkToken string, linkPlaceID string) ReviewFormView {
	trimmedPlaceID := strings.TrimSpace(linkPlaceID)
	if trimmedPlaceID == "" {
		return ReviewFormView{BlockingError: messageLinkMissingPlace}
	}

	trimmedToken := strings.TrimSpace(linkToken)
	if trimmedToken == "" {
		return ReviewFormView{BlockingError: messageLinkMissingToken}
	}

	_, present, loadErr := formController.store.Load(ctx, session.RoleUser)
	if loadErr != nil {
		formController.logger.Warn("session_restore_failed", zap.Error(loadErr))
	}
	if !present {
		return ReviewFormView{Navigate: NavigationLogin, RedirectBack: true}
	}

	return ReviewFormView{ReviewToken: trimmedToken, PlaceID: trimmedPlaceID, Rating: DefaultReviewRating}
}

// ReviewSubmitOutcome is the result of one submit attempt. RedirectAfter is
// how long the surface shows the message before following Navigate.
type ReviewSubmitOutcome struct {
	Success       bool
	Cooldown      bool
	Message       string
	HideSubmit    bool
	ForcedLogout  bool
	Navigate      Navigation
	RedirectAfter time.Duration
}

// Submit posts the review. The control guard swallows double submits; the
// daily-limit rejection takes the cool-down path with a delayed dashboard
// redirect instead of an error banner, and a success hides the submit control
// before its own shorter redirect.
func (formController *ReviewFormController) Submit(ctx context.Context, control *ControlState, reviewToken string, placeID string, rating int, content string) ReviewSubmitOutcome {
	if control != nil && !control.Disarm() {
		return ReviewSubmitOutcome{Message: messageReviewInFlight}
	}

	storedSession, present, loadErr := formController.store.Load(ctx, session.RoleUser)
	if loadErr != nil || !present {
		if control != nil {
			control.Rearm()
		}
		return ReviewSubmitOutcome{ForcedLogout: true, Navigate: NavigationLogin, Message: messageSessionExpired}
	}

	submission := model.ReviewSubmission{
		Token:   reviewToken,
		PlaceID: placeID,
		Rating:  clampRating(rating),
		Content: content,
	}

	submitErr := formController.gateway.SubmitReview(ctx, storedSession.Token, submission)

	switch {
	case errors.Is(submitErr, apiclient.ErrReviewCooldown):
		if control != nil {
			control.Rearm()
		}
		return ReviewSubmitOutcome{Cooldown: true, Message: messageReviewCooldown, Navigate: NavigationDashboard, RedirectAfter: cooldownRedirectDelay}
	case errors.Is(submitErr, apiclient.ErrUnauthorized):
		if control != nil {
			control.Rearm()
		}
		if clearErr := formController.store.Clear(ctx, session.RoleUser); clearErr != nil {
			formController.logger.Error("forced_logout_clear_failed", zap.Error(clearErr))
		}
		return ReviewSubmitOutcome{ForcedLogout: true, Navigate: NavigationLogin, Message: messageSessionExpired}
	case errors.Is(submitErr, apiclient.ErrConnectionFailure):
		if control != nil {
			control.Rearm()
		}
		return ReviewSubmitOutcome{Message: messageConnectionFailed}
	case submitErr != nil:
		if control != nil {
			control.Rearm()
		}
		return ReviewSubmitOutcome{Message: submitErr.Error()}
	}

	return ReviewSubmitOutcome{
		Success:       true,
		Message:       messageReviewSubmitted,
		HideSubmit:    true,
		Navigate:      NavigationDashboard,
		RedirectAfter: successRedirectDelay,
	}
}

func clampRating(rating int) int {
	if rating < minimumReviewRating {
		return minimumReviewRating
	}
	if rating > maximumReviewRating {
		return maximumReviewRating
	}
	return rating
}
