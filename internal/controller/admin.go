package controller

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/qr"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

// AdminGateway is the staff-facing slice of the API client.
type AdminGateway interface {
	Places(ctx context.Context, bearerToken string) ([]model.Place, error)
	GenerateTokens(ctx context.Context, bearerToken string, placeID string, count int) (model.TokenBatch, error)
}

// AdminController drives the staff token-generation page: venue selection and
// minting QR-coded review tokens.
type AdminController struct {
	gateway     AdminGateway
	store       SessionStore
	logger      *zap.Logger
	linkBaseURL string
}

// NewAdminController builds the admin controller. linkBaseURL is the address
// embedded into generated review-form links.
func NewAdminController(gateway AdminGateway, store SessionStore, linkBaseURL string, logger *zap.Logger) *AdminController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminController{gateway: gateway, store: store, logger: logger, linkBaseURL: linkBaseURL}
}

// PlacesView is the venue selector state.
type PlacesView struct {
	Places       []model.Place
	ErrorMessage string
	ForcedLogout bool
	Navigate     Navigation
}

// LoadPlaces fills the venue selector. A 401 invalidates the session; other
// failures render an error state inside the selector only.
func (adminController *AdminController) LoadPlaces(ctx context.Context) PlacesView {
	storedSession, present, loadErr := adminController.store.Load(ctx, session.RoleAdmin)
	if loadErr != nil {
		adminController.logger.Warn("session_restore_failed", zap.Error(loadErr))
	}
	if !present {
		return PlacesView{Navigate: NavigationLogin}
	}

	places, placesErr := adminController.gateway.Places(ctx, storedSession.Token)
	if errors.Is(placesErr, apiclient.ErrUnauthorized) {
		adminController.clearAdminSession(ctx)
		return PlacesView{ForcedLogout: true, Navigate: NavigationLogin}
	}
	if placesErr != nil {
		adminController.logger.Warn("places_load_failed", zap.Error(placesErr))
		return PlacesView{ErrorMessage: messagePlacesLoadFailed}
	}
	return PlacesView{Places: places}
}

// TokenResult pairs one minted token with its customer link and QR image.
type TokenResult struct {
	Token         string
	ReviewFormURL string
	QRImageURL    string
}

// TokenGenerationView is the result panel under the generate button.
type TokenGenerationView struct {
	Results         []TokenResult
	ValidationError bool
	WarningMessage  string
	ErrorMessage    string
	ForcedLogout    bool
	Navigate        Navigation
}

// GenerateTokens mints review tokens for a venue. A missing venue selection is
// rejected before any call; an empty batch renders a warning, not an error.
func (adminController *AdminController) GenerateTokens(ctx context.Context, placeID string, count int) TokenGenerationView {
	trimmedPlaceID := strings.TrimSpace(placeID)
	if trimmedPlaceID == "" {
		return TokenGenerationView{ValidationError: true, ErrorMessage: messageSelectVenue}
	}

	storedSession, present, loadErr := adminController.store.Load(ctx, session.RoleAdmin)
	if loadErr != nil {
		adminController.logger.Warn("session_restore_failed", zap.Error(loadErr))
	}
	if !present {
		return TokenGenerationView{Navigate: NavigationLogin}
	}

	batch, generateErr := adminController.gateway.GenerateTokens(ctx, storedSession.Token, trimmedPlaceID, count)
	if errors.Is(generateErr, apiclient.ErrUnauthorized) {
		adminController.clearAdminSession(ctx)
		return TokenGenerationView{ForcedLogout: true, Navigate: NavigationLogin, ErrorMessage: messageSessionExpired}
	}
	if errors.Is(generateErr, apiclient.ErrConnectionFailure) {
		return TokenGenerationView{ErrorMessage: messageConnectionFailed}
	}
	if generateErr != nil {
		return TokenGenerationView{ErrorMessage: generateErr.Error()}
	}

	if len(batch.Tokens) == 0 {
		return TokenGenerationView{WarningMessage: messageNoTokensGenerated}
	}

	results := make([]TokenResult, 0, len(batch.Tokens))
	for _, mintedToken := range batch.Tokens {
		results = append(results, TokenResult{
			Token:         mintedToken,
			ReviewFormURL: qr.ReviewFormURL(adminController.linkBaseURL, mintedToken, trimmedPlaceID),
			QRImageURL:    qr.ReviewFormImageURL(adminController.linkBaseURL, mintedToken, trimmedPlaceID, qr.DefaultImageSizePixels),
		})
	}
	return TokenGenerationView{Results: results}
}

func (adminController *AdminController) clearAdminSession(ctx context.Context) {
	if clearErr := adminController.store.Clear(ctx, session.RoleAdmin); clearErr != nil {
		adminController.logger.Error("forced_logout_clear_failed", zap.Error(clearErr))
	}
}
