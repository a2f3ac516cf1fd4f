package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/controller"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
)

const (
	loginCommandUse    = "login"
	loginCommandShort  = "Sign in and persist the bearer session"
	logoutCommandUse   = "logout"
	logoutCommandShort = "Discard the stored session"
	statusCommandUse   = "status"
	statusCommandShort = "Show which session slots hold a stored login"

	flagNameEmail     = "email"
	flagNamePassword  = "password"
	flagUsageEmail    = "account email"
	flagUsagePassword = "account password"

	signedInMessagePattern   = "signed in as %s (%s)\n"
	signedOutMessagePattern  = "signed out (%s)\n"
	slotPresentPattern       = "%-6s signed in as %s\n"
	slotAbsentPattern        = "%-6s no stored session\n"
	errorMessageLoginFailed  = "login failed"
	errorMessageReadSessions = "read stored sessions"
)

func (application *CLIApplication) loginCommand() *cobra.Command {
	loginCommand := &cobra.Command{
		Use:   loginCommandUse,
		Short: loginCommandShort,
		RunE:  application.runLogin,
	}
	loginCommand.Flags().String(flagNameEmail, "", flagUsageEmail)
	loginCommand.Flags().String(flagNamePassword, "", flagUsagePassword)
	return loginCommand
}

func (application *CLIApplication) runLogin(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	email, _ := command.Flags().GetString(flagNameEmail)
	password, _ := command.Flags().GetString(flagNamePassword)

	loginController := controller.NewLoginController(commandWiring.client, commandWiring.store, commandWiring.role, commandWiring.logger)
	outcome := loginController.Submit(command.Context(), email, password)
	if !outcome.Success {
		if outcome.Message != "" {
			return errors.New(outcome.Message)
		}
		return errors.New(errorMessageLoginFailed)
	}

	fmt.Fprintf(command.OutOrStdout(), signedInMessagePattern, email, commandWiring.role)
	return nil
}

func (application *CLIApplication) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   logoutCommandUse,
		Short: logoutCommandShort,
		RunE:  application.runLogout,
	}
}

func (application *CLIApplication) runLogout(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	loginController := controller.NewLoginController(commandWiring.client, commandWiring.store, commandWiring.role, commandWiring.logger)
	if _, logoutErr := loginController.Logout(command.Context()); logoutErr != nil {
		return logoutErr
	}

	fmt.Fprintf(command.OutOrStdout(), signedOutMessagePattern, commandWiring.role)
	return nil
}

func (application *CLIApplication) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   statusCommandUse,
		Short: statusCommandShort,
		RunE:  application.runStatus,
	}
}

func (application *CLIApplication) runStatus(command *cobra.Command, _ []string) error {
	commandWiring, wiringErr := application.buildCommandContext(command)
	if wiringErr != nil {
		return wiringErr
	}

	for _, role := range []session.Role{session.RoleUser, session.RoleAdmin} {
		storedSession, present, loadErr := commandWiring.store.Load(command.Context(), role)
		if loadErr != nil {
			return fmt.Errorf("%s: %w", errorMessageReadSessions, loadErr)
		}
		if present {
			fmt.Fprintf(command.OutOrStdout(), slotPresentPattern, role, storedSession.Email)
			continue
		}
		fmt.Fprintf(command.OutOrStdout(), slotAbsentPattern, role)
	}
	return nil
}
