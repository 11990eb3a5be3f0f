// Package cli assembles the tapsmith command-line application.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	setupcli "github.com/tyemirov/tapsmith/internal/tapsetup/cli"
	"github.com/tyemirov/tapsmith/internal/utils"
	"github.com/tyemirov/tapsmith/internal/version"
)

const (
	applicationNameConstant                            = "tapsmith"
	applicationShortDescriptionConstant                = "Provision Homebrew taps end to end"
	applicationLongDescriptionConstant                 = "tapsmith scaffolds a Homebrew tap, publishes it to GitHub, adds the first formula, and validates the result, persisting progress so interrupted runs resume where they stopped."
	configFileFlagNameConstant                         = "config"
	configFileFlagUsageConstant                        = "Optional path to a configuration file (YAML)."
	logLevelFlagNameConstant                           = "log-level"
	logLevelFlagUsageConstant                          = "Override the configured log level."
	logFormatFlagNameConstant                          = "log-format"
	logFormatFlagUsageConstant                         = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant                     = "common"
	commonLogLevelConfigKeyConstant                    = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant                   = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant                          = "TAPSMITH"
	configurationNameConstant                          = "config"
	configurationTypeConstant                          = "yaml"
	configurationLoadErrorTemplateConstant             = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant                = "unable to create logger: %w"
	setupConfigurationWarningMessageConstant           = "invalid setup configuration; using defaults"
	defaultConfigurationSearchPathConstant             = "."
	userConfigurationDirectoryNameConstant             = ".tapsmith"
	configurationSearchPathEnvironmentVariableConstant = "TAPSMITH_CONFIG_SEARCH_PATH"
	xdgConfigHomeEnvironmentVariableConstant           = "XDG_CONFIG_HOME"
	versionCommandUseConstant                          = "version"
	versionCommandShortConstant                        = "Print the application version"
	versionOutputTemplateConstant                      = "%s %s\n"
)

// Application wires the Cobra root command, configuration loader, and
// structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	versionResolver       func(context.Context) string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		logger:        zap.NewNop(),
	}
	application.versionResolver = version.Resolve

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.resolveConfigurationSearchPaths(),
	)
	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
	}
	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	application.rootCommand = rootCommand
	application.registerCommands()
	return application
}

// RootCommand exposes the assembled root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the root command.
func (application *Application) Execute() error {
	return application.rootCommand.Execute()
}

// Execute builds the application and runs it.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) registerCommands() {
	commandBuilder := &setupcli.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return application.logger },
		ConfigurationProvider: application.setupConfiguration,
	}

	setupCommand, setupError := commandBuilder.BuildSetupCommand()
	if setupError == nil {
		application.rootCommand.AddCommand(setupCommand)
	}
	resumeCommand, resumeError := commandBuilder.BuildResumeCommand()
	if resumeError == nil {
		application.rootCommand.AddCommand(resumeCommand)
	}

	application.rootCommand.AddCommand(&cobra.Command{
		Use:   versionCommandUseConstant,
		Short: versionCommandShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.versionResolver(command.Context()))
			return nil
		},
	})
}

func (application *Application) setupConfiguration() setupcli.CommandConfiguration {
	setupConfiguration, decodeError := application.configuration.SetupConfiguration(setupcli.DefaultCommandConfiguration())
	if decodeError != nil {
		application.logger.Warn(setupConfigurationWarningMessageConstant, zap.Error(decodeError))
		return setupcli.DefaultCommandConfiguration()
	}
	return setupConfiguration
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}

	if _, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration); loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	createdLogger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = createdLogger
	return nil
}

func (application *Application) resolveConfigurationSearchPaths() []string {
	overrideValue := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentVariableConstant))
	if len(overrideValue) > 0 {
		overridePaths := strings.FieldsFunc(overrideValue, func(candidate rune) bool {
			return candidate == os.PathListSeparator
		})
		cleanedPaths := make([]string, 0, len(overridePaths))
		for _, pathCandidate := range overridePaths {
			trimmedCandidate := strings.TrimSpace(pathCandidate)
			if len(trimmedCandidate) > 0 {
				cleanedPaths = append(cleanedPaths, trimmedCandidate)
			}
		}
		if len(cleanedPaths) > 0 {
			return cleanedPaths
		}
	}

	searchPaths := []string{defaultConfigurationSearchPathConstant}
	searchPaths = append(searchPaths, application.resolveUserConfigurationDirectoryPaths()...)
	return searchPaths
}

func (application *Application) resolveUserConfigurationDirectoryPaths() []string {
	userConfigurationDirectoryPaths := make([]string, 0, 3)

	appendConfigurationDirectory := func(baseDirectoryPath string) {
		trimmedBaseDirectoryPath := strings.TrimSpace(baseDirectoryPath)
		if len(trimmedBaseDirectoryPath) == 0 {
			return
		}
		candidateDirectoryPath := filepath.Join(trimmedBaseDirectoryPath, userConfigurationDirectoryNameConstant)
		for _, existingDirectoryPath := range userConfigurationDirectoryPaths {
			if existingDirectoryPath == candidateDirectoryPath {
				return
			}
		}
		userConfigurationDirectoryPaths = append(userConfigurationDirectoryPaths, candidateDirectoryPath)
	}

	appendConfigurationDirectory(os.Getenv(xdgConfigHomeEnvironmentVariableConstant))
	if userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir(); userConfigurationDirectoryError == nil {
		appendConfigurationDirectory(userConfigurationBaseDirectoryPath)
	}
	if userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir(); userHomeDirectoryError == nil {
		appendConfigurationDirectory(userHomeDirectoryPath)
	}
	return userConfigurationDirectoryPaths
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	rootCommand := command.Root()
	if rootCommand == nil {
		return false
	}
	flag := rootCommand.PersistentFlags().Lookup(flagName)
	return flag != nil && flag.Changed
}
