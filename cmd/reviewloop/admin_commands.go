package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
)

const (
	placesCommandUse   = "places"
	placesCommandShort = "List venues available to the staff account"
	tokensCommandUse   = "tokens"
	tokensCommandShort = "Mint QR-coded review tokens for a venue"

	flagNamePlaceID       = "place-id"
	flagNameTokenCount    = "count"
	flagNameLinkBase      = "link-base-url"
	flagUsagePlaceID      = "venue identifier"
	flagUsageTokenCount   = "number of tokens to mint"
	flagUsageLinkBase     = "base URL embedded into generated review links (defaults to the API base URL)"
	defaultTokenCount     = 5
	placeLinePattern      = "%s  %s  %s\n"
	tokenResultPattern    = "token: %s\n  link: %s\n  qr:   %s\n"
	tokensMintedPattern   = "minted %d tokens for venue %s\n"
	adminSessionErrorText = "no stored staff session, run `reviewloop login --admin` first"
)

func (application *CLIApplication) placesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   placesCommandUse,
		Short: placesCommandShort,
		RunE:  application.runPlaces,
	}
}

func (application *CLIApplication) runPlaces(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	adminController := controller.NewAdminController(commandWiring.client, commandWiring.store, commandWiring.client.BaseURL(), commandWiring.logger)
	view := adminController.LoadPlaces(command.Context())
	if view.ForcedLogout || view.Navigate == controller.NavigationLogin {
		return errors.New(adminSessionErrorText)
	}
	if view.ErrorMessage != "" {
		return errors.New(view.ErrorMessage)
	}

	for _, place := range view.Places {
		fmt.Fprintf(command.OutOrStdout(), placeLinePattern, place.ID, place.Name, place.Address)
	}
	return nil
}

func (application *CLIApplication) tokensCommand() *cobra.Command {
	tokensCommand := &cobra.Command{
		Use:   tokensCommandUse,
		Short: tokensCommandShort,
		RunE:  application.runTokens,
	}
	tokensCommand.Flags().String(flagNamePlaceID, "", flagUsagePlaceID)
	tokensCommand.Flags().Int(flagNameTokenCount, defaultTokenCount, flagUsageTokenCount)
	tokensCommand.Flags().String(flagNameLinkBase, "", flagUsageLinkBase)
	return tokensCommand
}

func (application *CLIApplication) runTokens(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	placeID, _ := command.Flags().GetString(flagNamePlaceID)
	tokenCount, _ := command.Flags().GetInt(flagNameTokenCount)
	linkBaseURL, _ := command.Flags().GetString(flagNameLinkBase)
	if linkBaseURL == "" {
		linkBaseURL = commandWiring.client.BaseURL()
	}

	adminController := controller.NewAdminController(commandWiring.client, commandWiring.store, linkBaseURL, commandWiring.logger)
	view := adminController.GenerateTokens(command.Context(), placeID, tokenCount)
	if view.ForcedLogout || view.Navigate == controller.NavigationLogin {
		return errors.New(adminSessionErrorText)
	}
	if view.ErrorMessage != "" {
		return errors.New(view.ErrorMessage)
	}
	if view.WarningMessage != "" {
		fmt.Fprintln(command.OutOrStdout(), view.WarningMessage)
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), tokensMintedPattern, len(view.Results), placeID)
	for _, result := range view.Results {
		fmt.Fprintf(command.OutOrStdout(), tokenResultPattern, result.Token, result.ReviewFormURL, result.QRImageURL)
	}
	return nil
}
