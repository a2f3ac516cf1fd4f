package controller

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

// LoginGateway is the credential exchange slice of the API client.
type LoginGateway interface {
	Login(ctx context.Context, email string, password string) (string, error)
}

// LoginController drives the login flow for one role. Admin and customer
// pages construct separate controllers so their sessions never mix.
type LoginController struct {
	gateway LoginGateway
	store   SessionStore
	role    session.Role
	logger  *zap.Logger
}

// NewLoginController builds a login controller scoped to a role.
func NewLoginController(gateway LoginGateway, store SessionStore, role session.Role, logger *zap.Logger) *LoginController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginController{gateway: gateway, store: store, role: role, logger: logger}
}

// LoginView is the initial page state derived from the stored session.
type LoginView struct {
	EmailPrefill  string
	Authenticated bool
	Navigate      Navigation
}

// LoginOutcome is the result of one submit attempt.
type LoginOutcome struct {
	Success         bool
	ValidationError bool
	Message         string
	Navigate        Navigation
}

// Restore reads the role slot optimistically: a present token authenticates
// the page immediately, and customers are forwarded straight to the dashboard
// the way a stored login skips the form.
func (loginController *LoginController) Restore(ctx context.Context) LoginView {
	storedSession, present, loadErr := loginController.store.Load(ctx, loginController.role)
	if loadErr != nil {
		loginController.logger.Warn("session_restore_failed", zap.Error(loadErr))
		return LoginView{}
	}
	if !present {
		return LoginView{}
	}

	view := LoginView{EmailPrefill: storedSession.Email, Authenticated: true}
	if loginController.role == session.RoleUser {
		view.Navigate = NavigationDashboard
	}
	return view
}

// Submit validates locally, exchanges credentials, and persists the session.
// Validation failures never reach the network; server failures surface the
// server's message verbatim when it sent one.
func (loginController *LoginController) Submit(ctx context.Context, email string, password string) LoginOutcome {
	trimmedEmail := strings.TrimSpace(email)
	if trimmedEmail == "" || strings.TrimSpace(password) == "" {
		return LoginOutcome{ValidationError: true, Message: messageValidationCredentials}
	}

	issuedToken, loginErr := loginController.gateway.Login(ctx, trimmedEmail, password)
	if loginErr != nil {
		return LoginOutcome{Message: loginFailureMessage(loginErr)}
	}

	newSession := session.Session{Token: issuedToken, Email: trimmedEmail, Role: loginController.role}
	if saveErr := loginController.store.Save(ctx, newSession); saveErr != nil {
		loginController.logger.Error("session_persist_failed", zap.Error(saveErr))
		return LoginOutcome{Message: loginFailureMessage(saveErr)}
	}

	outcome := LoginOutcome{Success: true}
	if loginController.role == session.RoleUser {
		outcome.Navigate = NavigationDashboard
	}
	return outcome
}

// Logout clears the role slot and routes back to the login page.
func (loginController *LoginController) Logout(ctx context.Context) (Navigation, error) {
	if clearErr := loginController.store.Clear(ctx, loginController.role); clearErr != nil {
		return NavigationNone, clearErr
	}
	return NavigationLogin, nil
}

func loginFailureMessage(loginErr error) string {
	if errors.Is(loginErr, apiclient.ErrMissingCredentials) {
		return messageValidationCredentials
	}
	if errors.Is(loginErr, apiclient.ErrConnectionFailure) {
		return messageConnectionFailed
	}

	var apiErr *apiclient.APIError
	if errors.As(loginErr, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return messageLoginFailed
}
