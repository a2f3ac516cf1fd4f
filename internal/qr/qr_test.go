package qr_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/qr"
)

func TestReviewFormURLCarriesTokenAndPlace(testingT *testing.T) {
	formURL := qr.ReviewFormURL("http://localhost:8080/", "opaque token", "place-1")

	parsed, parseErr := url.Parse(formURL)
	require.NoError(testingT, parseErr)
	require.Equal(testingT, "/frontend/review-form.html", parsed.Path)
	require.Equal(testingT, "opaque token", parsed.Query().Get("token"))
	require.Equal(testingT, "place-1", parsed.Query().Get("place_id"))
	require.False(testingT, strings.Contains(formURL, "//frontend"))
}

func TestReviewFormURLOmitsEmptyPlace(testingT *testing.T) {
	formURL := qr.ReviewFormURL("http://localhost:8080", "token-1", "  ")

	parsed, parseErr := url.Parse(formURL)
	require.NoError(testingT, parseErr)
	require.False(testingT, parsed.Query().Has("place_id"))
}

func TestImageURLEncodesPayloadAndSize(testingT *testing.T) {
	imageURL := qr.ImageURL("http://localhost:8080/frontend/review-form.html?token=abc", 200)

	parsed, parseErr := url.Parse(imageURL)
	require.NoError(testingT, parseErr)
	require.Equal(testingT, "api.qrserver.com", parsed.Host)
	require.Equal(testingT, "200x200", parsed.Query().Get("size"))
	require.Equal(testingT, "http://localhost:8080/frontend/review-form.html?token=abc", parsed.Query().Get("data"))
}

func TestImageURLFallsBackToDefaultSize(testingT *testing.T) {
	imageURL := qr.ImageURL("payload", 0)

	parsed, parseErr := url.Parse(imageURL)
	require.NoError(testingT, parseErr)
	require.Equal(testingT, "150x150", parsed.Query().Get("size"))
}

func TestReviewFormImageURLComposes(testingT *testing.T) {
	imageURL := qr.ReviewFormImageURL("http://localhost:8080", "token-1", "place-1", 150)

	parsed, parseErr := url.Parse(imageURL)
	require.NoError(testingT, parseErr)

	payload, payloadErr := url.Parse(parsed.Query().Get("data"))
	require.NoError(testingT, payloadErr)
	require.Equal(testingT, "token-1", payload.Query().Get("token"))
	require.Equal(testingT, "place-1", payload.Query().Get("place_id"))
}
