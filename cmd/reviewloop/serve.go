package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/webui"
)

const (
	serveCommandUse   = "serve"
	serveCommandShort = "Serve the dashboard pages locally"
	serveCommandLong  = "Run the local web rendition of the loyalty dashboard: login, customer dashboard, staff token page, and the QR-linked review form"

	flagNameListenAddress       = "addr"
	flagNameSessionSecret       = "session-secret"
	flagUsageListenAddress      = "address for the dashboard server to listen on"
	flagUsageSessionSecret      = "secret used to sign browser session cookies"
	defaultListenAddress        = ":3000"
	environmentKeySessionSecret = "REVIEWLOOP_SESSION_SECRET"

	logEventListening         = "listening"
	logFieldAddress           = "addr"
	logFieldAPIBaseURL        = "api_base_url"
	loggerContextServer       = "server"
	readHeaderTimeoutSeconds  = 5
	missingSessionSecretError = "missing required configuration: session-secret"
)

func (application *CLIApplication) serveCommand() (*cobra.Command, error) {
	serveCommand := &cobra.Command{
		Use:   serveCommandUse,
		Short: serveCommandShort,
		Long:  serveCommandLong,
		RunE:  application.runServe,
	}

	serveFlags := serveCommand.Flags()
	serveFlags.String(flagNameListenAddress, defaultListenAddress, flagUsageListenAddress)
	serveFlags.String(flagNameSessionSecret, "", flagUsageSessionSecret)
	serveFlags.String(flagNameLinkBase, "", flagUsageLinkBase)

	application.configurationLoader.SetDefault(environmentKeySessionSecret, "")
	if bindErr := application.bindFlag(serveFlags, environmentKeySessionSecret, flagNameSessionSecret); bindErr != nil {
		return nil, bindErr
	}
	if environmentErr := application.applyEnvironmentConfiguration(serveFlags, environmentKeySessionSecret, flagNameSessionSecret); environmentErr != nil {
		return nil, environmentErr
	}

	return serveCommand, nil
}

func (application *CLIApplication) runServe(command *cobra.Command, _ []string) error {
	sessionSecret := strings.TrimSpace(application.configurationLoader.GetString(environmentKeySessionSecret))
	if sessionSecret == "" {
		return errors.New(missingSessionSecretError)
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, clientErr := apiclient.NewClient(application.resolveAPIBaseURL(), nil, logger)
	if clientErr != nil {
		return clientErr
	}

	linkBaseURL, _ := command.Flags().GetString(flagNameLinkBase)
	pageServer, serverErr := webui.NewServer(webui.Config{
		Client:        client,
		LinkBaseURL:   linkBaseURL,
		SessionSecret: sessionSecret,
		Logger:        logger,
	})
	if serverErr != nil {
		return serverErr
	}

	listenAddress, _ := command.Flags().GetString(flagNameListenAddress)
	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           pageServer.Router(),
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening,
		zap.String(logFieldAddress, listenAddress),
		zap.String(logFieldAPIBaseURL, client.BaseURL()),
	)
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}
	return nil
}
