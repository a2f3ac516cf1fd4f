package webui

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const (
	adminCookieSessionName    = "reviewloop_admin"
	customerCookieSessionName = "reviewloop_user"

	cookieValueKeyToken = "token"
	cookieValueKeyEmail = "email"

	cookieSessionMaxAgeSeconds = 12 * 60 * 60

	errorMessageWriteCookie = "webui: write session cookie"
)

func cookieSessionName(role session.Role) string {
	if role == session.RoleAdmin {
		return adminCookieSessionName
	}
	return customerCookieSessionName
}

// cookieSessionStore adapts a gorilla cookie store to the controllers'
// SessionStore contract for the lifetime of one request. The browser cookie is
// the durable slot: admin and customer sessions live under different cookie
// names and never read each other.
type cookieSessionStore struct {
	cookieStore sessions.Store
	ginContext  *gin.Context
}

func newCookieSessionStore(cookieStore sessions.Store, ginContext *gin.Context) *cookieSessionStore {
	return &cookieSessionStore{cookieStore: cookieStore, ginContext: ginContext}
}

func (store *cookieSessionStore) Save(_ context.Context, currentSession session.Session) error {
	if validationErr := currentSession.Validate(); validationErr != nil {
		return validationErr
	}

	cookieSession, _ := store.cookieStore.Get(store.ginContext.Request, cookieSessionName(currentSession.Role))
	cookieSession.Values[cookieValueKeyToken] = currentSession.Token
	cookieSession.Values[cookieValueKeyEmail] = currentSession.Email
	cookieSession.Options.MaxAge = cookieSessionMaxAgeSeconds
	cookieSession.Options.HttpOnly = true
	cookieSession.Options.SameSite = http.SameSiteLaxMode
	if saveErr := cookieSession.Save(store.ginContext.Request, store.ginContext.Writer); saveErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteCookie, saveErr)
	}
	return nil
}

func (store *cookieSessionStore) Load(_ context.Context, role session.Role) (session.Session, bool, error) {
	if validationErr := session.ValidateRole(role); validationErr != nil {
		return session.Session{}, false, validationErr
	}

	cookieSession, _ := store.cookieStore.Get(store.ginContext.Request, cookieSessionName(role))
	storedToken, _ := cookieSession.Values[cookieValueKeyToken].(string)
	storedEmail, _ := cookieSession.Values[cookieValueKeyEmail].(string)

	restored := session.Session{Token: storedToken, Email: storedEmail, Role: role}
	if !restored.Present() {
		return session.Session{}, false, nil
	}
	return restored, true, nil
}

func (store *cookieSessionStore) Clear(_ context.Context, role session.Role) error {
	if validationErr := session.ValidateRole(role); validationErr != nil {
		return validationErr
	}

	cookieSession, _ := store.cookieStore.Get(store.ginContext.Request, cookieSessionName(role))
	delete(cookieSession.Values, cookieValueKeyToken)
	delete(cookieSession.Values, cookieValueKeyEmail)
	cookieSession.Options.MaxAge = -1
	if saveErr := cookieSession.Save(store.ginContext.Request, store.ginContext.Writer); saveErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteCookie, saveErr)
	}
	return nil
}
