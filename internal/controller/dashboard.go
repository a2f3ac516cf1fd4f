package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/qr"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const (
	// RedeemPointsThreshold is the minimum points balance at which the redeem
	// affordance arms.
	RedeemPointsThreshold = 50

	// redeemRearmDelay re-enables the redeem control after a redeem attempt,
	// successful or not.
	redeemRearmDelay = 2 * time.Second
	// redeemRefreshDelay lets the API settle before stats and bonuses reload.
	redeemRefreshDelay = time.Second
)

// DashboardGateway is the customer dashboard slice of the API client.
type DashboardGateway interface {
	UserStats(ctx context.Context, bearerToken string) (model.UserStats, error)
	Bonuses(ctx context.Context, bearerToken string) ([]model.Bonus, error)
	RedeemBonus(ctx context.Context, bearerToken string, rewardType string) error
}

// DashboardController drives the customer dashboard: stats, bonuses, redeem.
type DashboardController struct {
	gateway  DashboardGateway
	store    SessionStore
	logger   *zap.Logger
	schedule Scheduler
}

// NewDashboardController builds the customer dashboard controller.
func NewDashboardController(gateway DashboardGateway, store SessionStore, logger *zap.Logger) *DashboardController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardController{gateway: gateway, store: store, logger: logger, schedule: defaultScheduler}
}

// WithScheduler overrides the deferred-task scheduler, primarily for tests.
func (dashboardController *DashboardController) WithScheduler(schedule Scheduler) *DashboardController {
	dashboardController.schedule = schedule
	return dashboardController
}

// StatsRegion is the statistics card: either figures or its own error, never
// shared with the bonuses region.
type StatsRegion struct {
	Stats        model.UserStats
	RedeemArmed  bool
	ErrorMessage string
}

// BonusCard is one rendered bonus with its QR affordance.
type BonusCard struct {
	RewardType     string
	RequiredPoints int64
	QRToken        string
	QRImageURL     string
	Used           bool
}

// BonusesRegion splits bonuses into active and used groups. Empty groups get
// explicit empty-state messages rather than blank lists.
type BonusesRegion struct {
	Active            []BonusCard
	Used              []BonusCard
	ActiveEmptyNotice string
	UsedEmptyNotice   string
	ErrorMessage      string
}

// DashboardView is the full page state after load.
type DashboardView struct {
	Email        string
	Stats        StatsRegion
	Bonuses      BonusesRegion
	ForcedLogout bool
	Navigate     Navigation
}

// Load restores the session and fetches stats and bonuses as independent
// concurrent requests: one may fail while the other succeeds, each reporting
// into its own region. Any 401 invalidates the session and forces logout.
func (dashboardController *DashboardController) Load(ctx context.Context) DashboardView {
	storedSession, present, loadErr := dashboardController.store.Load(ctx, session.RoleUser)
	if loadErr != nil {
		dashboardController.logger.Warn("session_restore_failed", zap.Error(loadErr))
	}
	if !present {
		return DashboardView{Navigate: NavigationLogin}
	}

	var (
		waitGroup  sync.WaitGroup
		stats      model.UserStats
		statsErr   error
		bonuses    []model.Bonus
		bonusesErr error
	)

	waitGroup.Add(2)
	go func() {
		defer waitGroup.Done()
		stats, statsErr = dashboardController.gateway.UserStats(ctx, storedSession.Token)
	}()
	go func() {
		defer waitGroup.Done()
		bonuses, bonusesErr = dashboardController.gateway.Bonuses(ctx, storedSession.Token)
	}()
	waitGroup.Wait()

	if errors.Is(statsErr, apiclient.ErrUnauthorized) || errors.Is(bonusesErr, apiclient.ErrUnauthorized) {
		return dashboardController.forceLogout(ctx)
	}

	view := DashboardView{Email: storedSession.Email}

	if statsErr != nil {
		dashboardController.logger.Warn("stats_load_failed", zap.Error(statsErr))
		view.Stats = StatsRegion{ErrorMessage: messageStatsLoadFailed}
	} else {
		view.Stats = StatsRegion{Stats: stats, RedeemArmed: stats.Points >= RedeemPointsThreshold}
	}

	if bonusesErr != nil {
		dashboardController.logger.Warn("bonuses_load_failed", zap.Error(bonusesErr))
		view.Bonuses = BonusesRegion{ErrorMessage: messageBonusesLoadFailed}
	} else {
		view.Bonuses = dashboardController.buildBonusesRegion(bonuses)
	}

	return view
}

// RedeemOutcome is the result of one redeem attempt.
type RedeemOutcome struct {
	Success      bool
	Message      string
	ForcedLogout bool
	Navigate     Navigation
	RefreshDue   bool
}

// Redeem exchanges points for the selected reward. The triggering control is
// disarmed for the duration of the call and re-armed after a fixed delay
// regardless of outcome; a second activation while disarmed is a no-op.
func (dashboardController *DashboardController) Redeem(ctx context.Context, control *ControlState, rewardType string) RedeemOutcome {
	if control != nil && !control.Disarm() {
		return RedeemOutcome{Message: messageRedeemInFlight}
	}
	if control != nil {
		defer dashboardController.schedule(redeemRearmDelay, control.Rearm)
	}

	storedSession, present, loadErr := dashboardController.store.Load(ctx, session.RoleUser)
	if loadErr != nil || !present {
		return RedeemOutcome{ForcedLogout: true, Navigate: NavigationLogin, Message: messageSessionExpired}
	}

	redeemErr := dashboardController.gateway.RedeemBonus(ctx, storedSession.Token, rewardType)
	if errors.Is(redeemErr, apiclient.ErrUnauthorized) {
		forced := dashboardController.forceLogout(ctx)
		return RedeemOutcome{ForcedLogout: forced.ForcedLogout, Navigate: forced.Navigate, Message: messageSessionExpired}
	}
	if errors.Is(redeemErr, apiclient.ErrConnectionFailure) {
		return RedeemOutcome{Message: messageConnectionFailed}
	}
	if redeemErr != nil {
		return RedeemOutcome{Message: redeemErr.Error()}
	}

	return RedeemOutcome{Success: true, Message: messageBonusRedeemed, RefreshDue: true}
}

// RefreshDelay is how long the surface waits before reloading stats and
// bonuses after a successful redeem.
func (dashboardController *DashboardController) RefreshDelay() time.Duration {
	return redeemRefreshDelay
}

// Logout clears the customer session and routes to the login page.
func (dashboardController *DashboardController) Logout(ctx context.Context) (Navigation, error) {
	if clearErr := dashboardController.store.Clear(ctx, session.RoleUser); clearErr != nil {
		return NavigationNone, clearErr
	}
	return NavigationLogin, nil
}

func (dashboardController *DashboardController) forceLogout(ctx context.Context) DashboardView {
	if clearErr := dashboardController.store.Clear(ctx, session.RoleUser); clearErr != nil {
		dashboardController.logger.Error("forced_logout_clear_failed", zap.Error(clearErr))
	}
	return DashboardView{ForcedLogout: true, Navigate: NavigationLogin}
}

func (dashboardController *DashboardController) buildBonusesRegion(bonuses []model.Bonus) BonusesRegion {
	region := BonusesRegion{}
	for _, bonus := range bonuses {
		card := BonusCard{
			RewardType:     bonus.RewardType,
			RequiredPoints: bonus.RequiredPoints,
			QRToken:        bonus.QRToken,
			Used:           bonus.Used,
		}
		if !bonus.Used {
			card.QRImageURL = qr.ImageURL(bonus.QRToken, qr.DefaultImageSizePixels)
			region.Active = append(region.Active, card)
			continue
		}
		region.Used = append(region.Used, card)
	}
	if len(region.Active) == 0 {
		region.ActiveEmptyNotice = messageNoBonusesYet
	}
	if len(region.Used) == 0 {
		region.UsedEmptyNotice = messageNoUsedBonuses
	}
	return region
}
