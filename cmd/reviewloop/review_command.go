package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
)

const (
	reviewCommandUse   = "review"
	reviewCommandShort = "Submit a token-gated review"

	flagNameReviewToken    = "token"
	flagNameReviewRating   = "rating"
	flagNameReviewContent  = "content"
	flagUsageReviewToken   = "review token from the QR link"
	flagUsageReviewRating  = "star rating between 1 and 5"
	flagUsageReviewContent = "review text"
)

func (application *CLIApplication) reviewCommand() *cobra.Command {
	reviewCommand := &cobra.Command{
		Use:   reviewCommandUse,
		Short: reviewCommandShort,
		RunE:  application.runReview,
	}
	reviewCommand.Flags().String(flagNameReviewToken, "", flagUsageReviewToken)
	reviewCommand.Flags().String(flagNamePlaceID, "", flagUsagePlaceID)
	reviewCommand.Flags().Int(flagNameReviewRating, controller.DefaultReviewRating, flagUsageReviewRating)
	reviewCommand.Flags().String(flagNameReviewContent, "", flagUsageReviewContent)
	return reviewCommand
}

func (application *CLIApplication) runReview(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	reviewToken, _ := command.Flags().GetString(flagNameReviewToken)
	placeID, _ := command.Flags().GetString(flagNamePlaceID)
	rating, _ := command.Flags().GetInt(flagNameReviewRating)
	content, _ := command.Flags().GetString(flagNameReviewContent)

	formController := controller.NewReviewFormController(commandWiring.client, commandWiring.store, commandWiring.logger)

	view := formController.Open(command.Context(), reviewToken, placeID)
	if view.BlockingError != "" {
		return errors.New(view.BlockingError)
	}
	if view.Navigate == controller.NavigationLogin {
		return errors.New(errorMessageSessionRequired)
	}

	outcome := formController.Submit(command.Context(), nil, reviewToken, placeID, rating, content)
	if outcome.ForcedLogout {
		return errors.New(errorMessageSessionRequired)
	}
	if outcome.Cooldown {
		fmt.Fprintln(command.OutOrStdout(), outcome.Message)
		return nil
	}
	if !outcome.Success {
		return errors.New(outcome.Message)
	}

	fmt.Fprintln(command.OutOrStdout(), outcome.Message)
	return nil
}
