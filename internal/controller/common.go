// Package controller holds the page controllers of the loyalty dashboard as
// pure view-state logic: each flow takes typed input, calls the API gateway,
// and returns a view plus navigation effects. Nothing here touches a renderer,
// so every flow is unit-testable without a live page.
package controller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

// Navigation is an effect asking the surface (web page or CLI) to move the
// user somewhere else. Surfaces map these onto their own routes.
type Navigation string

const (
	// NavigationNone keeps the user on the current page.
	NavigationNone Navigation = ""
	// NavigationLogin routes to the login page for the controller's role.
	NavigationLogin Navigation = "login"
	// NavigationDashboard routes to the customer dashboard.
	NavigationDashboard Navigation = "dashboard"
)

// Scheduler defers a task; the default implementation wraps time.AfterFunc.
// Tests substitute a synchronous scheduler to observe re-arm and redirect
// delays without sleeping.
type Scheduler func(delay time.Duration, task func())

func defaultScheduler(delay time.Duration, task func()) {
	time.AfterFunc(delay, task)
}

// ControlState models the enabled/disabled state of a triggering control. A
// started request always runs to completion; rapid repeated activations are
// guarded only by disabling the control, never by aborting in flight.
type ControlState struct {
	disabled atomic.Bool
}

// Disabled reports whether the control is currently disarmed.
func (control *ControlState) Disabled() bool {
	return control.disabled.Load()
}

// Disarm disables the control and reports whether this call won the guard.
func (control *ControlState) Disarm() bool {
	return control.disabled.CompareAndSwap(false, true)
}

// Rearm re-enables the control.
func (control *ControlState) Rearm() {
	control.disabled.Store(false)
}

// SessionStore is the durable role-scoped session persistence the controllers
// share. It is satisfied by *session.Store.
type SessionStore interface {
	Save(ctx context.Context, currentSession session.Session) error
	Load(ctx context.Context, role session.Role) (session.Session, bool, error)
	Clear(ctx context.Context, role session.Role) error
}

const (
	messageValidationCredentials = "fill in both email and password"
	messageLoginFailed           = "login failed"
	messageConnectionFailed      = "connection to the server failed"
	messageSessionExpired        = "session expired, sign in again"
	messageStatsLoadFailed       = "failed to load statistics"
	messageBonusesLoadFailed     = "failed to load bonuses"
	messageNoBonusesYet          = "no bonuses yet"
	messageNoUsedBonuses         = "no used bonuses"
	messagePlacesLoadFailed      = "failed to load venues"
	messageSelectVenue           = "select a venue"
	messageNoTokensGenerated     = "no tokens were generated"
	messageRedeemInFlight        = "redeem already in progress"
	messageBonusRedeemed         = "bonus redeemed"
	messageReviewSubmitted       = "thank you, your review has been submitted"
	messageReviewCooldown        = "you already reviewed this venue today, thank you"
	messageReviewInFlight        = "submission already in progress"
	messageLinkMissingPlace      = "the link is missing its venue, ask the staff for a new QR code"
	messageLinkMissingToken      = "this page is only reachable through a QR code link"
)
