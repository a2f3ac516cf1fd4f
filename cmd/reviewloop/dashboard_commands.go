package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
)

const (
	statsCommandUse     = "stats"
	statsCommandShort   = "Show review and points statistics"
	bonusesCommandUse   = "bonuses"
	bonusesCommandShort = "List active and used bonuses"
	redeemCommandUse    = "redeem"
	redeemCommandShort  = "Exchange points for a reward"

	flagNameRewardType  = "reward-type"
	flagUsageRewardType = "reward to redeem points for"

	statsLinePattern       = "reviews: %d\naverage rating: %.1f\npoints: %d\nactive bonuses: %d\n"
	redeemArmedLine        = "redeem available\n"
	redeemNotArmedLine     = "not enough points to redeem\n"
	bonusGroupActiveHeader = "active bonuses:\n"
	bonusGroupUsedHeader   = "used bonuses:\n"
	bonusActiveLinePattern = "  %s (%d points)\n    qr: %s\n"
	bonusUsedLinePattern   = "  %s (%d points) [used]\n"
	bonusEmptyLinePattern  = "  %s\n"
	redeemedMessage        = "bonus redeemed\n"

	errorMessageSessionRequired = "no stored session, run `reviewloop login` first"
)

func (application *CLIApplication) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   statsCommandUse,
		Short: statsCommandShort,
		RunE:  application.runStats,
	}
}

func (application *CLIApplication) runStats(command *cobra.Command, _ []string) error {
	view, viewErr := application.loadDashboard(command)
	if viewErr != nil {
		return viewErr
	}

	if view.Stats.ErrorMessage != "" {
		return errors.New(view.Stats.ErrorMessage)
	}

	fmt.Fprintf(command.OutOrStdout(), statsLinePattern,
		view.Stats.Stats.TotalReviews,
		view.Stats.Stats.AverageRating,
		view.Stats.Stats.Points,
		view.Stats.Stats.ActiveBonuses,
	)
	if view.Stats.RedeemArmed {
		fmt.Fprint(command.OutOrStdout(), redeemArmedLine)
	} else {
		fmt.Fprint(command.OutOrStdout(), redeemNotArmedLine)
	}
	return nil
}

func (application *CLIApplication) bonusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   bonusesCommandUse,
		Short: bonusesCommandShort,
		RunE:  application.runBonuses,
	}
}

func (application *CLIApplication) runBonuses(command *cobra.Command, _ []string) error {
	view, viewErr := application.loadDashboard(command)
	if viewErr != nil {
		return viewErr
	}

	if view.Bonuses.ErrorMessage != "" {
		return errors.New(view.Bonuses.ErrorMessage)
	}

	fmt.Fprint(command.OutOrStdout(), bonusGroupActiveHeader)
	if view.Bonuses.ActiveEmptyNotice != "" {
		fmt.Fprintf(command.OutOrStdout(), bonusEmptyLinePattern, view.Bonuses.ActiveEmptyNotice)
	}
	for _, card := range view.Bonuses.Active {
		fmt.Fprintf(command.OutOrStdout(), bonusActiveLinePattern, card.RewardType, card.RequiredPoints, card.QRImageURL)
	}

	fmt.Fprint(command.OutOrStdout(), bonusGroupUsedHeader)
	if view.Bonuses.UsedEmptyNotice != "" {
		fmt.Fprintf(command.OutOrStdout(), bonusEmptyLinePattern, view.Bonuses.UsedEmptyNotice)
	}
	for _, card := range view.Bonuses.Used {
		fmt.Fprintf(command.OutOrStdout(), bonusUsedLinePattern, card.RewardType, card.RequiredPoints)
	}
	return nil
}

func (application *CLIApplication) loadDashboard(command *cobra.Command) (controller.DashboardView, error) {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return controller.DashboardView{}, wiringErr
	}

	dashboardController := controller.NewDashboardController(commandWiring.client, commandWiring.store, commandWiring.logger)
	view := dashboardController.Load(command.Context())
	if view.Navigate == controller.NavigationLogin {
		return controller.DashboardView{}, errors.New(errorMessageSessionRequired)
	}
	return view, nil
}

func (application *CLIApplication) redeemCommand() *cobra.Command {
	redeemCommand := &cobra.Command{
		Use:   redeemCommandUse,
		Short: redeemCommandShort,
		RunE:  application.runRedeem,
	}
	redeemCommand.Flags().String(flagNameRewardType, "", flagUsageRewardType)
	return redeemCommand
}

func (application *CLIApplication) runRedeem(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	rewardType, _ := command.Flags().GetString(flagNameRewardType)

	dashboardController := controller.NewDashboardController(commandWiring.client, commandWiring.store, commandWiring.logger)
	outcome := dashboardController.Redeem(command.Context(), nil, rewardType)
	if outcome.ForcedLogout {
		return errors.New(errorMessageSessionRequired)
	}
	if !outcome.Success {
		return errors.New(outcome.Message)
	}

	fmt.Fprint(command.OutOrStdout(), redeemedMessage)
	return nil
}
