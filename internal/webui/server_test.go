package webui_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/webui"
)

const (
	testCustomerEmail    = "customer@example.com"
	testAdminEmail       = "owner@example.com"
	testPassword         = "secret"
	testBearerToken      = "bearer-token-1"
	testSessionSecret    = "test-session-secret"
	customerCookieName   = "reviewloop_user"
	adminCookieName      = "reviewloop_admin"
	loginFormContentType = "application/x-www-form-urlencoded"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAPI is the loyalty backend the page server talks to. Behavior fields are
// read on every request, so a test can flip the backend into a failure mode
// between calls.
type fakeAPI struct {
	loginStatus        int
	loginErrorMessage  string
	everyoneIsExpired  bool
	stats              model.UserStats
	bonuses            []model.Bonus
	places             []model.Place
	mintedTokens       []string
	redeemStatus       int
	redeemErrorMessage string
	reviewStatus       int
	reviewErrorMessage string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		stats:  model.UserStats{TotalReviews: 7, AverageRating: 4.5, Points: 120, ActiveBonuses: 1},
		places: []model.Place{{ID: "place-1", Name: "Corner Cafe", Address: "1 Main St"}},
		bonuses: []model.Bonus{
			{RewardType: "free coffee", RequiredPoints: 50, QRToken: "bonus-qr-1", Used: false},
			{RewardType: "free dessert", RequiredPoints: 80, QRToken: "bonus-qr-2", Used: true},
		},
		mintedTokens: []string{"minted-1", "minted-2"},
	}
}

func (api *fakeAPI) start(testingT *testing.T) *httptest.Server {
	testingT.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", api.handleLogin)
	mux.HandleFunc("/users/stats", api.authenticated(func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusOK, api.stats)
	}))
	mux.HandleFunc("/bonuses", api.authenticated(func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusOK, api.bonuses)
	}))
	mux.HandleFunc("/bonuses/redeem", api.authenticated(func(responseWriter http.ResponseWriter, _ *http.Request) {
		if api.redeemStatus != 0 {
			writeJSON(responseWriter, api.redeemStatus, map[string]string{"error": api.redeemErrorMessage})
			return
		}
		writeJSON(responseWriter, http.StatusOK, map[string]string{"status": "ok"})
	}))
	mux.HandleFunc("/places", api.authenticated(func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusOK, api.places)
	}))
	mux.HandleFunc("/admin/tokens", api.authenticated(func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusOK, map[string]any{"tokens": api.mintedTokens})
	}))
	mux.HandleFunc("/reviews", api.authenticated(func(responseWriter http.ResponseWriter, _ *http.Request) {
		if api.reviewStatus != 0 {
			writeJSON(responseWriter, api.reviewStatus, map[string]string{"error": api.reviewErrorMessage})
			return
		}
		writeJSON(responseWriter, http.StatusCreated, map[string]string{"status": "created"})
	}))

	backend := httptest.NewServer(mux)
	testingT.Cleanup(backend.Close)
	return backend
}

func (api *fakeAPI) handleLogin(responseWriter http.ResponseWriter, request *http.Request) {
	if api.loginStatus != 0 {
		writeJSON(responseWriter, api.loginStatus, map[string]string{"error": api.loginErrorMessage})
		return
	}
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(request.Body).Decode(&credentials)
	if credentials.Password != testPassword {
		writeJSON(responseWriter, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(responseWriter, http.StatusOK, map[string]string{"token": testBearerToken})
}

func (api *fakeAPI) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(responseWriter http.ResponseWriter, request *http.Request) {
		if api.everyoneIsExpired || request.Header.Get("Authorization") != "Bearer "+testBearerToken {
			writeJSON(responseWriter, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(responseWriter, request)
	}
}

func writeJSON(responseWriter http.ResponseWriter, status int, payload any) {
	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(status)
	_ = json.NewEncoder(responseWriter).Encode(payload)
}

func newPageRouter(testingT *testing.T, backendURL string) *gin.Engine {
	testingT.Helper()

	client, clientErr := apiclient.NewClient(backendURL, nil, nil)
	require.NoError(testingT, clientErr)

	pageServer, serverErr := webui.NewServer(webui.Config{
		Client:        client,
		SessionSecret: testSessionSecret,
	})
	require.NoError(testingT, serverErr)
	return pageServer.Router()
}

func performGet(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func performPostForm(router *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", loginFormContentType)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func signInCustomer(testingT *testing.T, router *gin.Engine) []*http.Cookie {
	testingT.Helper()

	recorder := performPostForm(router, webui.LoginPagePath, url.Values{
		"email":    {testCustomerEmail},
		"password": {testPassword},
	}, nil)
	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.DashboardPagePath, recorder.Header().Get("Location"))

	cookies := recorder.Result().Cookies()
	require.NotEmpty(testingT, cookies)
	return cookies
}

func signInAdmin(testingT *testing.T, router *gin.Engine) []*http.Cookie {
	testingT.Helper()

	recorder := performPostForm(router, "/frontend/admin-login", url.Values{
		"email":    {testAdminEmail},
		"password": {testPassword},
	}, nil)
	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.AdminPagePath, recorder.Header().Get("Location"))

	cookies := recorder.Result().Cookies()
	require.NotEmpty(testingT, cookies)
	return cookies
}

func TestNewServerRequiresClient(testingT *testing.T) {
	_, serverErr := webui.NewServer(webui.Config{SessionSecret: testSessionSecret})
	require.ErrorIs(testingT, serverErr, webui.ErrMissingClient)
}

func TestNewServerRequiresSessionSecret(testingT *testing.T) {
	client, clientErr := apiclient.NewClient("http://localhost:8080", nil, nil)
	require.NoError(testingT, clientErr)

	_, serverErr := webui.NewServer(webui.Config{Client: client})
	require.ErrorIs(testingT, serverErr, webui.ErrMissingSessionSecret)
}

func TestRootRedirectsToLogin(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	recorder := performGet(router, "/", nil)
	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.LoginPagePath, recorder.Header().Get("Location"))
}

func TestCustomerLoginSetsRoleScopedCookie(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	cookies := signInCustomer(testingT, router)

	var foundCustomerCookie bool
	for _, cookie := range cookies {
		require.NotEqual(testingT, adminCookieName, cookie.Name)
		if cookie.Name == customerCookieName {
			foundCustomerCookie = true
			require.NotEmpty(testingT, cookie.Value)
		}
	}
	require.True(testingT, foundCustomerCookie)
}

func TestCustomerLoginRendersServerRejectionVerbatim(testingT *testing.T) {
	api := newFakeAPI()
	api.loginStatus = http.StatusUnauthorized
	api.loginErrorMessage = "invalid credentials"
	router := newPageRouter(testingT, api.start(testingT).URL)

	recorder := performPostForm(router, webui.LoginPagePath, url.Values{
		"email":    {testCustomerEmail},
		"password": {"wrong"},
	}, nil)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "invalid credentials")
	require.Contains(testingT, recorder.Body.String(), testCustomerEmail)
}

func TestCustomerLoginWithBlankFormNeverCallsBackend(testingT *testing.T) {
	api := newFakeAPI()
	api.loginStatus = http.StatusInternalServerError
	router := newPageRouter(testingT, api.start(testingT).URL)

	recorder := performPostForm(router, webui.LoginPagePath, url.Values{}, nil)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "fill in both email and password")
}

func TestCustomerLoginFollowsLocalRedirectTarget(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	returnTo := webui.ReviewFormPagePath + "?token=minted-1&place_id=place-1"
	recorder := performPostForm(router, webui.LoginPagePath, url.Values{
		"email":    {testCustomerEmail},
		"password": {testPassword},
		"redirect": {returnTo},
	}, nil)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, returnTo, recorder.Header().Get("Location"))
}

func TestCustomerLoginRejectsOffsiteRedirectTarget(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	recorder := performPostForm(router, webui.LoginPagePath, url.Values{
		"email":    {testCustomerEmail},
		"password": {testPassword},
		"redirect": {"//evil.example.com/phish"},
	}, nil)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.DashboardPagePath, recorder.Header().Get("Location"))
}

func TestDashboardWithoutSessionRedirectsToLogin(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	recorder := performGet(router, webui.DashboardPagePath, nil)
	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.LoginPagePath, recorder.Header().Get("Location"))
}

func TestDashboardRendersStatsAndBonusGroups(testingT *testing.T) {
	api := newFakeAPI()
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performGet(router, webui.DashboardPagePath, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	pageBody := recorder.Body.String()
	require.Contains(testingT, pageBody, testCustomerEmail)
	require.Contains(testingT, pageBody, ">120<")
	require.Contains(testingT, pageBody, "free coffee")
	require.Contains(testingT, pageBody, "free dessert")
	require.Contains(testingT, pageBody, "api.qrserver.com")
	require.Contains(testingT, pageBody, "bonus-qr-1")
}

func TestDashboardRendersEmptyStateNotices(testingT *testing.T) {
	api := newFakeAPI()
	api.bonuses = nil
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performGet(router, webui.DashboardPagePath, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "no bonuses yet")
	require.Contains(testingT, recorder.Body.String(), "no used bonuses")
}

func TestDashboardExpiredSessionForcesLogoutAndClearsCookie(testingT *testing.T) {
	api := newFakeAPI()
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	api.everyoneIsExpired = true
	recorder := performGet(router, webui.DashboardPagePath, cookies)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.LoginPagePath, recorder.Header().Get("Location"))

	var clearedCustomerCookie bool
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == customerCookieName {
			clearedCustomerCookie = cookie.MaxAge < 0
		}
	}
	require.True(testingT, clearedCustomerCookie)
}

func TestRedeemFollowsPostRedirectGet(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performPostForm(router, "/frontend/redeem", url.Values{
		"reward_type": {"free coffee"},
	}, cookies)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	location := recorder.Header().Get("Location")
	require.Contains(testingT, location, webui.DashboardPagePath)
	require.Contains(testingT, location, "redeemed=1")
}

func TestRedeemFailureCarriesServerMessage(testingT *testing.T) {
	api := newFakeAPI()
	api.redeemStatus = http.StatusBadRequest
	api.redeemErrorMessage = "not enough points"
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performPostForm(router, "/frontend/redeem", url.Values{
		"reward_type": {"free coffee"},
	}, cookies)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	redirectURL, parseErr := url.Parse(recorder.Header().Get("Location"))
	require.NoError(testingT, parseErr)
	require.Equal(testingT, "not enough points", redirectURL.Query().Get("redeem_error"))
}

func TestLogoutClearsSessionAndRoutesToLogin(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performGet(router, "/frontend/logout", cookies)
	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.LoginPagePath, recorder.Header().Get("Location"))

	var clearedCustomerCookie bool
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == customerCookieName {
			clearedCustomerCookie = cookie.MaxAge < 0
		}
	}
	require.True(testingT, clearedCustomerCookie)
}

func TestAdminPageShowsLoginFormWhenUnauthenticated(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	recorder := performGet(router, webui.AdminPagePath, nil)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "Staff sign-in")
	require.NotContains(testingT, recorder.Body.String(), "Generate review tokens")
}

func TestAdminPageListsVenuesAfterLogin(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInAdmin(testingT, router)

	recorder := performGet(router, webui.AdminPagePath, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	pageBody := recorder.Body.String()
	require.Contains(testingT, pageBody, testAdminEmail)
	require.Contains(testingT, pageBody, "Corner Cafe")
	require.Contains(testingT, pageBody, "Generate review tokens")
}

func TestAdminLoginFailureRidesBackAsQueryParameter(testingT *testing.T) {
	api := newFakeAPI()
	api.loginStatus = http.StatusUnauthorized
	api.loginErrorMessage = "invalid credentials"
	router := newPageRouter(testingT, api.start(testingT).URL)

	recorder := performPostForm(router, "/frontend/admin-login", url.Values{
		"email":    {testAdminEmail},
		"password": {"wrong"},
	}, nil)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	redirectURL, parseErr := url.Parse(recorder.Header().Get("Location"))
	require.NoError(testingT, parseErr)
	require.Equal(testingT, webui.AdminPagePath, redirectURL.Path)
	require.Equal(testingT, "invalid credentials", redirectURL.Query().Get("login_error"))
}

func TestAdminTokenGenerationRendersLinksAndQRCodes(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInAdmin(testingT, router)

	recorder := performPostForm(router, "/frontend/admin-tokens", url.Values{
		"place_id": {"place-1"},
		"count":    {"2"},
	}, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	pageBody := recorder.Body.String()
	require.Contains(testingT, pageBody, "minted-1")
	require.Contains(testingT, pageBody, "minted-2")
	require.Contains(testingT, pageBody, "review-form.html")
	require.Contains(testingT, pageBody, "api.qrserver.com")
}

func TestAdminTokenGenerationRequiresVenueSelection(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInAdmin(testingT, router)

	recorder := performPostForm(router, "/frontend/admin-tokens", url.Values{
		"count": {"2"},
	}, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "select a venue")
}

func TestAdminTokenGenerationWithExpiredSessionRedirectsToAdminPage(testingT *testing.T) {
	api := newFakeAPI()
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInAdmin(testingT, router)

	api.everyoneIsExpired = true
	recorder := performPostForm(router, "/frontend/admin-tokens", url.Values{
		"place_id": {"place-1"},
	}, cookies)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.AdminPagePath, recorder.Header().Get("Location"))
}

func TestReviewFormRejectsLinkWithoutVenue(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performGet(router, webui.ReviewFormPagePath+"?token=minted-1", cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "missing its venue")
}

func TestReviewFormRejectsDirectVisitWithoutToken(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performGet(router, webui.ReviewFormPagePath+"?place_id=place-1", cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "only reachable through a QR code link")
}

func TestReviewFormWithoutSessionRedirectsToLoginWithReturnTarget(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)

	recorder := performGet(router, webui.ReviewFormPagePath+"?token=minted-1&place_id=place-1", nil)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	redirectURL, parseErr := url.Parse(recorder.Header().Get("Location"))
	require.NoError(testingT, parseErr)
	require.Equal(testingT, webui.LoginPagePath, redirectURL.Path)
	require.Contains(testingT, redirectURL.Query().Get("redirect"), "token=minted-1")
}

func TestReviewFormPreselectsHighestStar(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performGet(router, webui.ReviewFormPagePath+"?token=minted-1&place_id=place-1", cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), `value="5" checked`)
}

func TestReviewSubmitSuccessHidesSubmitAndSchedulesRedirect(testingT *testing.T) {
	router := newPageRouter(testingT, newFakeAPI().start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performPostForm(router, webui.ReviewFormPagePath, url.Values{
		"token":    {"minted-1"},
		"place_id": {"place-1"},
		"rating":   {"4"},
		"content":  {"great service"},
	}, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	pageBody := recorder.Body.String()
	require.Contains(testingT, pageBody, "your review has been submitted")
	require.NotContains(testingT, pageBody, "Send review")
	require.Contains(testingT, pageBody, `content="3;url=`+webui.DashboardPagePath)
}

func TestReviewSubmitCooldownTakesDelayedDashboardRedirect(testingT *testing.T) {
	api := newFakeAPI()
	api.reviewStatus = http.StatusTooManyRequests
	api.reviewErrorMessage = "too many reviews today"
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	recorder := performPostForm(router, webui.ReviewFormPagePath, url.Values{
		"token":    {"minted-1"},
		"place_id": {"place-1"},
		"rating":   {"5"},
	}, cookies)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	pageBody := recorder.Body.String()
	require.Contains(testingT, pageBody, "already reviewed this venue today")
	require.Contains(testingT, pageBody, `content="5;url=`+webui.DashboardPagePath)
}

func TestReviewSubmitWithExpiredSessionRedirectsToLogin(testingT *testing.T) {
	api := newFakeAPI()
	router := newPageRouter(testingT, api.start(testingT).URL)
	cookies := signInCustomer(testingT, router)

	api.everyoneIsExpired = true
	recorder := performPostForm(router, webui.ReviewFormPagePath, url.Values{
		"token":    {"minted-1"},
		"place_id": {"place-1"},
		"rating":   {"5"},
	}, cookies)

	require.Equal(testingT, http.StatusFound, recorder.Code)
	require.Equal(testingT, webui.LoginPagePath, recorder.Header().Get("Location"))
}
