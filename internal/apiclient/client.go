package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	headerNameAuthorization    = "Authorization"
	headerNameContentType      = "Content-Type"
	bearerSchemePrefix         = "Bearer "
	jsonContentType            = "application/json"
	responseBodyReadLimitBytes = 1 << 20

	errorMessageMissingBaseURL     = "apiclient: missing base URL"
	errorMessageUnauthorized       = "apiclient: unauthorized"
	errorMessageConnectionFailure  = "apiclient: connection failure"
	errorMessageBuildRequest       = "apiclient: build request"
	errorMessageMissingCredentials = "apiclient: email and password are required"
	genericFailureMessagePattern   = "request failed with status %d"
)

var (
	// ErrMissingBaseURL indicates the client was constructed without an API address.
	ErrMissingBaseURL = errors.New(errorMessageMissingBaseURL)
	// ErrUnauthorized indicates the API rejected the bearer credential. Callers
	// treat this uniformly: the stored session is invalid and must be cleared.
	ErrUnauthorized = errors.New(errorMessageUnauthorized)
	// ErrConnectionFailure indicates the request never produced an HTTP response.
	// Calls are single attempts; there is no retry or backoff behind this error.
	ErrConnectionFailure = errors.New(errorMessageConnectionFailure)
	// ErrMissingCredentials indicates login was attempted with an empty email or
	// password. No network call is issued in that case.
	ErrMissingCredentials = errors.New(errorMessageMissingCredentials)
)

// APIError carries a non-success response: the HTTP status plus the server's
// error message when one was supplied, verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

// Error renders the server message, falling back to a generic status line.
func (apiErr *APIError) Error() string {
	if strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fmt.Sprintf(genericFailureMessagePattern, apiErr.StatusCode)
}

// Unwrap maps 401 responses onto ErrUnauthorized so callers can branch with
// errors.Is without inspecting status codes.
func (apiErr *APIError) Unwrap() error {
	if apiErr.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// HTTPClient abstracts the transport so tests can stub network behavior.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client is the typed consumer of the external loyalty/review API. It owns the
// authenticated-request contract: attach the bearer credential, tolerate
// malformed response bodies, and surface every failure to the caller after a
// single attempt.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewClient builds a Client for the given API base URL.
func NewClient(baseURL string, httpClient HTTPClient, logger *zap.Logger) (*Client, error) {
	normalizedBaseURL := normalizeBaseURL(baseURL)
	if normalizedBaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: normalizedBaseURL, httpClient: httpClient, logger: logger}, nil
}

// BaseURL returns the normalized API address the client targets.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// send issues one request and decodes a success body into responseTarget. A
// bearer token is attached when provided; Content-Type is set only when a body
// is present. Non-success responses come back as *APIError.
func (client *Client) send(ctx context.Context, method string, path string, bearerToken string, requestBody any, responseTarget any) error {
	var bodyReader io.Reader
	if requestBody != nil {
		encodedBody, marshalErr := json.Marshal(requestBody)
		if marshalErr != nil {
			return fmt.Errorf("%s: %w", errorMessageBuildRequest, marshalErr)
		}
		bodyReader = bytes.NewReader(encodedBody)
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, joinBaseURL(client.baseURL, path), bodyReader)
	if requestErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildRequest, requestErr)
	}
	if requestBody != nil {
		request.Header.Set(headerNameContentType, jsonContentType)
	}
	if bearerToken != "" {
		request.Header.Set(headerNameAuthorization, bearerSchemePrefix+bearerToken)
	}

	response, doErr := client.httpClient.Do(request)
	if doErr != nil {
		client.logger.Warn("api_request_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(doErr),
		)
		return fmt.Errorf("%w: %v", ErrConnectionFailure, doErr)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	responseBody, _ := io.ReadAll(io.LimitReader(response.Body, responseBodyReadLimitBytes))

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			StatusCode: response.StatusCode,
			Message:    extractErrorMessage(responseBody),
		}
	}

	if responseTarget != nil {
		decodeJSONLeniently(responseBody, responseTarget)
	}
	return nil
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// extractErrorMessage pulls the server-supplied error string out of a failure
// body. Malformed bodies degrade to an empty message, never to a decode error.
func extractErrorMessage(responseBody []byte) string {
	var envelope errorEnvelope
	decodeJSONLeniently(responseBody, &envelope)
	return strings.TrimSpace(envelope.Error)
}

// decodeJSONLeniently is the safe-parse fallback: a malformed body leaves the
// target at its zero value instead of propagating a parse error.
func decodeJSONLeniently(responseBody []byte, target any) {
	if len(bytes.TrimSpace(responseBody)) == 0 {
		return
	}
	_ = json.Unmarshal(responseBody, target)
}
