package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
)

const (
	loginPath       = "/login"
	placesPath      = "/places"
	adminTokensPath = "/admin/tokens"
	userStatsPath   = "/users/stats"
	bonusesPath     = "/bonuses"
	redeemBonusPath = "/bonuses/redeem"
	reviewsPath     = "/reviews"

	// reviewCooldownServerMessage is matched exactly; it routes the submission
	// into the cool-down flow instead of a generic error banner.
	reviewCooldownServerMessage = "too many reviews today"

	errorMessageReviewCooldown = "apiclient: review already submitted today"
)

// ErrReviewCooldown indicates the customer already reviewed this venue today.
var ErrReviewCooldown = errors.New(errorMessageReviewCooldown)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type generateTokensRequest struct {
	PlaceID string `json:"place_id"`
	Count   int    `json:"count"`
}

type redeemBonusRequest struct {
	RewardType string `json:"reward_type"`
}

// Login exchanges credentials for a bearer token. Both fields are validated
// locally first so an empty form never costs a round trip. A response without
// a token is treated as a failed login even on a success status.
func (client *Client) Login(ctx context.Context, email string, password string) (string, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return "", ErrMissingCredentials
	}

	var response loginResponse
	requestErr := client.send(ctx, http.MethodPost, loginPath, "", loginRequest{Email: email, Password: password}, &response)
	if requestErr != nil {
		return "", requestErr
	}
	if strings.TrimSpace(response.Token) == "" {
		return "", &APIError{StatusCode: http.StatusUnauthorized}
	}
	return response.Token, nil
}

// Places lists the venues available to the authenticated caller.
func (client *Client) Places(ctx context.Context, bearerToken string) ([]model.Place, error) {
	var places []model.Place
	if requestErr := client.send(ctx, http.MethodGet, placesPath, bearerToken, nil, &places); requestErr != nil {
		return nil, requestErr
	}
	return places, nil
}

// GenerateTokens asks the API to mint review tokens for a venue. The response
// is normalized so downstream rendering never branches on alternate key names.
func (client *Client) GenerateTokens(ctx context.Context, bearerToken string, placeID string, count int) (model.TokenBatch, error) {
	var wireBatch tokenBatchWire
	requestErr := client.send(ctx, http.MethodPost, adminTokensPath, bearerToken, generateTokensRequest{PlaceID: placeID, Count: count}, &wireBatch)
	if requestErr != nil {
		return model.TokenBatch{}, requestErr
	}
	return wireBatch.normalize(), nil
}

// UserStats fetches the customer's aggregated review and points figures.
// Missing fields decode to zero values, matching the rendering fallbacks.
func (client *Client) UserStats(ctx context.Context, bearerToken string) (model.UserStats, error) {
	var stats model.UserStats
	if requestErr := client.send(ctx, http.MethodGet, userStatsPath, bearerToken, nil, &stats); requestErr != nil {
		return model.UserStats{}, requestErr
	}
	return stats, nil
}

// Bonuses lists the customer's bonuses in canonical form. Rows from legacy API
// deployments are adapted at this boundary.
func (client *Client) Bonuses(ctx context.Context, bearerToken string) ([]model.Bonus, error) {
	var wireRecords []bonusWireRecord
	if requestErr := client.send(ctx, http.MethodGet, bonusesPath, bearerToken, nil, &wireRecords); requestErr != nil {
		return nil, requestErr
	}
	return normalizeBonuses(wireRecords), nil
}

// RedeemBonus exchanges accumulated points for the selected reward. The
// success body is not validated beyond its status.
func (client *Client) RedeemBonus(ctx context.Context, bearerToken string, rewardType string) error {
	return client.send(ctx, http.MethodPost, redeemBonusPath, bearerToken, redeemBonusRequest{RewardType: rewardType}, nil)
}

// SubmitReview posts one token-gated review. The daily-limit rejection is
// matched by its exact server message and surfaced as ErrReviewCooldown so the
// caller can take the cool-down path instead of showing an error banner.
func (client *Client) SubmitReview(ctx context.Context, bearerToken string, submission model.ReviewSubmission) error {
	requestErr := client.send(ctx, http.MethodPost, reviewsPath, bearerToken, submission, nil)
	if requestErr == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(requestErr, &apiErr) && apiErr.Message == reviewCooldownServerMessage {
		return ErrReviewCooldown
	}
	return requestErr
}
