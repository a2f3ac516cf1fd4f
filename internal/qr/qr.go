// Package qr builds review-form links and the third-party QR image URLs that
// encode them. The image service is a pure collaborator: the client constructs
// a URL and never decodes or validates the returned image.
package qr

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	qrImageServiceEndpoint = "https://api.qrserver.com/v1/create-qr-code/"
	reviewFormPagePath     = "/frontend/review-form.html"

	// DefaultImageSizePixels matches the QR size printed on receipts.
	DefaultImageSizePixels = 150

	queryParameterNameToken   = "token"
	queryParameterNamePlaceID = "place_id"
	queryParameterNameSize    = "size"
	queryParameterNameData    = "data"
	imageSizePattern          = "%dx%d"
)

// ReviewFormURL builds the customer-facing link for one review token. The
// token and place identifier ride as query parameters; both are opaque.
func ReviewFormURL(baseURL string, reviewToken string, placeID string) string {
	linkParameters := url.Values{}
	linkParameters.Set(queryParameterNameToken, reviewToken)
	if strings.TrimSpace(placeID) != "" {
		linkParameters.Set(queryParameterNamePlaceID, placeID)
	}
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + reviewFormPagePath + "?" + linkParameters.Encode()
}

// ImageURL wraps a payload into a QR image URL at the given square size.
// Non-positive sizes fall back to the default.
func ImageURL(payload string, sizePixels int) string {
	if sizePixels <= 0 {
		sizePixels = DefaultImageSizePixels
	}
	imageParameters := url.Values{}
	imageParameters.Set(queryParameterNameSize, fmt.Sprintf(imageSizePattern, sizePixels, sizePixels))
	imageParameters.Set(queryParameterNameData, payload)
	return qrImageServiceEndpoint + "?" + imageParameters.Encode()
}

// ReviewFormImageURL is the admin-page composition: a QR image whose payload
// is the review-form link itself.
func ReviewFormImageURL(baseURL string, reviewToken string, placeID string, sizePixels int) string {
	return ImageURL(ReviewFormURL(baseURL, reviewToken, placeID), sizePixels)
}
