// Command reviewloop is the loyalty dashboard client: it signs in against the
// external review API, keeps the bearer session in a local state database, and
// exposes every dashboard flow as a subcommand. `reviewloop serve` runs the
// browser-facing rendition of the same pages.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/apiclient"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/session"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
)

const (
	commandUseName          = "reviewloop"
	commandShortDescription = "Loyalty dashboard client"
	commandLongDescription  = "Sign in to the loyalty/review API, manage the stored session, and run every dashboard flow from the terminal or as a local web UI"

	flagNameAPIBaseURL        = "api-base-url"
	flagNameStateDatabasePath = "state-db"
	flagNameAdminRole         = "admin"
	flagNameVerbose           = "verbose"

	flagUsageAPIBaseURL        = "base URL of the loyalty API (empty applies the hostname heuristic)"
	flagUsageStateDatabasePath = "path of the local SQLite state database"
	flagUsageAdminRole         = "operate on the staff session slot instead of the customer slot"
	flagUsageVerbose           = "enable structured diagnostic logging"

	environmentKeyAPIBaseURL        = "REVIEWLOOP_API_BASE_URL"
	environmentKeyStateDatabasePath = "REVIEWLOOP_STATE_DB"

	defaultStateDirectoryName    = ".reviewloop"
	defaultStateDatabaseFileName = "state.db"

	loggerCreationErrorMessage    = "logger"
	commandInitializationFailure  = "failed to configure command"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
)

// DatabaseOpener opens the local state database.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// CLIApplication constructs and executes the reviewloop command tree.
type CLIApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewCLIApplication creates a CLIApplication with default dependencies.
func NewCLIApplication() *CLIApplication {
	return &CLIApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the state database opener dependency.
func (application *CLIApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *CLIApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the root Cobra command with every subcommand attached.
func (application *CLIApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:           commandUseName,
		Short:         commandShortDescription,
		Long:          commandLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if configurationErr := application.configureRootCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	rootCommand.AddCommand(
		application.loginCommand(),
		application.logoutCommand(),
		application.statusCommand(),
		application.statsCommand(),
		application.bonusesCommand(),
		application.redeemCommand(),
		application.placesCommand(),
		application.tokensCommand(),
		application.reviewCommand(),
	)

	serveCommand, serveErr := application.serveCommand()
	if serveErr != nil {
		return nil, serveErr
	}
	rootCommand.AddCommand(serveCommand)

	return rootCommand, nil
}

func (application *CLIApplication) configureRootCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyAPIBaseURL, "")
	application.configurationLoader.SetDefault(environmentKeyStateDatabasePath, "")
	application.configurationLoader.AutomaticEnv()

	persistentFlags := command.PersistentFlags()
	persistentFlags.String(flagNameAPIBaseURL, "", flagUsageAPIBaseURL)
	persistentFlags.String(flagNameStateDatabasePath, "", flagUsageStateDatabasePath)
	persistentFlags.Bool(flagNameAdminRole, false, flagUsageAdminRole)
	persistentFlags.Bool(flagNameVerbose, false, flagUsageVerbose)

	if bindErr := application.bindFlag(persistentFlags, environmentKeyAPIBaseURL, flagNameAPIBaseURL); bindErr != nil {
		return bindErr
	}
	if bindErr := application.bindFlag(persistentFlags, environmentKeyStateDatabasePath, flagNameStateDatabasePath); bindErr != nil {
		return bindErr
	}

	if environmentErr := application.applyEnvironmentConfiguration(persistentFlags, environmentKeyAPIBaseURL, flagNameAPIBaseURL); environmentErr != nil {
		return environmentErr
	}
	if environmentErr := application.applyEnvironmentConfiguration(persistentFlags, environmentKeyStateDatabasePath, flagNameStateDatabasePath); environmentErr != nil {
		return environmentErr
	}

	return nil
}

func (application *CLIApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}
	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}
	return nil
}

func (application *CLIApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}
	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}
	return nil
}

// commandContext is the shared wiring behind every subcommand: the typed API
// client, the durable session store, and the role slot the invocation targets.
type commandContext struct {
	client *apiclient.Client
	store  *session.Store
	role   session.Role
	logger *zap.Logger
}

func (application *CLIApplication) buildCommandContext(command *cobra.Command) (*commandContext, error) {
	logger, loggerErr := application.buildLogger(command)
	if loggerErr != nil {
		return nil, loggerErr
	}

	client, clientErr := apiclient.NewClient(application.resolveAPIBaseURL(), nil, logger)
	if clientErr != nil {
		return nil, clientErr
	}

	store, storeErr := application.openSessionStore()
	if storeErr != nil {
		return nil, storeErr
	}

	return &commandContext{
		client: client,
		store:  store,
		role:   application.resolveRole(command),
		logger: logger,
	}, nil
}

func (application *CLIApplication) buildLogger(command *cobra.Command) (*zap.Logger, error) {
	verbose, _ := command.Flags().GetBool(flagNameVerbose)
	if !verbose {
		return zap.NewNop(), nil
	}
	logger, loggerErr := zap.NewDevelopment()
	if loggerErr != nil {
		return nil, fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	return logger, nil
}

func (application *CLIApplication) resolveAPIBaseURL() string {
	configuredBaseURL := strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIBaseURL))
	if configuredBaseURL != "" {
		return configuredBaseURL
	}
	hostname, _ := os.Hostname()
	return apiclient.ResolveBaseURL(hostname)
}

func (application *CLIApplication) resolveStateDatabasePath() (string, error) {
	configuredPath := strings.TrimSpace(application.configurationLoader.GetString(environmentKeyStateDatabasePath))
	if configuredPath != "" {
		return configuredPath, nil
	}

	homeDirectory, homeErr := os.UserHomeDir()
	if homeErr != nil {
		return "", homeErr
	}
	stateDirectory := filepath.Join(homeDirectory, defaultStateDirectoryName)
	if directoryErr := os.MkdirAll(stateDirectory, 0o700); directoryErr != nil {
		return "", directoryErr
	}
	return filepath.Join(stateDirectory, defaultStateDatabaseFileName), nil
}

func (application *CLIApplication) openSessionStore() (*session.Store, error) {
	databasePath, pathErr := application.resolveStateDatabasePath()
	if pathErr != nil {
		return nil, pathErr
	}

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: databasePath,
	})
	if databaseErr != nil {
		return nil, databaseErr
	}
	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		return nil, migrateErr
	}

	return session.NewStore(database)
}

func (application *CLIApplication) resolveRole(command *cobra.Command) session.Role {
	adminSelected, _ := command.Flags().GetBool(flagNameAdminRole)
	if adminSelected {
		return session.RoleAdmin
	}
	return session.RoleUser
}

func main() {
	application := NewCLIApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		fmt.Fprintln(os.Stderr, executeErr)
		os.Exit(1)
	}
}
