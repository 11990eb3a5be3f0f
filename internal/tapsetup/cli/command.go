// Package cli wires the tap provisioning pipeline into cobra commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/tapsmith/internal/tapsetup"
	"github.com/tyemirov/tapsmith/internal/utils/flags"
)

const (
	setupCommandUseConstant           = "setup"
	setupCommandShortConstant         = "Create and publish a Homebrew tap"
	setupCommandLongConstant          = "Setup scaffolds a Homebrew tap, creates its GitHub repository, adds the first formula, pushes, and validates the result. Progress is persisted so an interrupted run can be resumed."
	resumeCommandUseConstant          = "resume <run-id>"
	resumeCommandShortConstant        = "Resume a halted provisioning run"
	resumeCommandLongConstant         = "Resume re-runs a halted provisioning run from its persisted state, retrying the failed step and continuing from there. Steps that already succeeded are not repeated."
	applicationDirectoryNameConstant  = "tapsmith"
	noticeTemplateConstant            = "notice: %s\n"
	haltedTemplateConstant            = "run %s halted at step %s; resume with: tapsmith resume %s"
	resumeRunArgumentCountConstant    = 1
	resumeRunArgumentMissingConstant  = "resume requires exactly one run identifier"
)

// ErrLoggerProviderNotConfigured signals a builder without a logger provider.
var ErrLoggerProviderNotConfigured = errors.New("logger provider not configured")

// DependenciesResolver builds the collaborators the pipeline runs against.
type DependenciesResolver func(logger *zap.Logger, output io.Writer, editorCommand string) (tapsetup.Dependencies, error)

// CommandBuilder assembles the setup and resume commands.
type CommandBuilder struct {
	LoggerProvider        func() *zap.Logger
	ConfigurationProvider func() CommandConfiguration
	DependenciesResolver  DependenciesResolver
}

// BuildSetupCommand constructs the setup command.
func (builder *CommandBuilder) BuildSetupCommand() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}

	setupCommand := &cobra.Command{
		Use:   setupCommandUseConstant,
		Short: setupCommandShortConstant,
		Long:  setupCommandLongConstant,
		RunE:  builder.runSetup,
	}
	registerInputFlags(setupCommand)
	return setupCommand, nil
}

// BuildResumeCommand constructs the resume command.
func (builder *CommandBuilder) BuildResumeCommand() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}

	resumeCommand := &cobra.Command{
		Use:   resumeCommandUseConstant,
		Short: resumeCommandShortConstant,
		Long:  resumeCommandLongConstant,
		Args:  cobra.ExactArgs(resumeRunArgumentCountConstant),
		RunE:  builder.runResume,
	}
	registerInputFlags(resumeCommand)
	return resumeCommand, nil
}

func registerInputFlags(command *cobra.Command) {
	command.Flags().String(flags.OwnerFlagName, "", flags.OwnerFlagUsage)
	command.Flags().String(flags.TapFlagName, "", flags.TapFlagUsage)
	command.Flags().String(flags.RepositoryNameFlagName, "", flags.RepositoryNameFlagUsage)
	command.Flags().String(flags.VisibilityFlagName, "", flags.VisibilityFlagUsage)
	command.Flags().String(flags.BranchFlagName, "", flags.BranchFlagUsage)
	command.Flags().String(flags.FormulaModeFlagName, "", flags.FormulaModeFlagUsage)
	command.Flags().String(flags.FormulaURLFlagName, "", flags.FormulaURLFlagUsage)
	command.Flags().String(flags.FormulaNameFlagName, "", flags.FormulaNameFlagUsage)
	command.Flags().Bool(flags.DryRunFlagName, false, flags.DryRunFlagUsage)
	command.Flags().String(flags.StateDirectoryFlagName, "", flags.StateDirectoryFlagUsage)
}

func (builder *CommandBuilder) runSetup(command *cobra.Command, arguments []string) error {
	configuration := builder.configuration()
	candidateInputs, inputsError := collectInputs(command, configuration)
	if inputsError != nil {
		return inputsError
	}

	normalizedInputs, notices, normalizationError := tapsetup.NewRunInputs(candidateInputs)
	if normalizationError != nil {
		return normalizationError
	}
	printNotices(command, notices)

	stateStore, storeError := builder.stateStore(command, configuration)
	if storeError != nil {
		return storeError
	}
	state, createError := stateStore.Create(normalizedInputs)
	if createError != nil {
		return createError
	}

	return builder.execute(command, configuration, stateStore, state)
}

func (builder *CommandBuilder) runResume(command *cobra.Command, arguments []string) error {
	configuration := builder.configuration()
	runIdentifier := arguments[0]
	if len(runIdentifier) == 0 {
		return errors.New(resumeRunArgumentMissingConstant)
	}

	stateStore, storeError := builder.stateStore(command, configuration)
	if storeError != nil {
		return storeError
	}

	var providedInputs *tapsetup.RunInputs
	if inputFlagsChanged(command) {
		candidateInputs, inputsError := collectInputs(command, configuration)
		if inputsError != nil {
			return inputsError
		}
		normalizedInputs, notices, normalizationError := tapsetup.NewRunInputs(candidateInputs)
		if normalizationError != nil {
			return normalizationError
		}
		printNotices(command, notices)
		providedInputs = &normalizedInputs
	}

	dryRun, _, dryRunError := flags.BoolFlag(command, flags.DryRunFlagName)
	if dryRunError != nil {
		return dryRunError
	}

	state, resumeError := stateStore.Resume(runIdentifier, providedInputs, dryRun)
	if resumeError != nil {
		return resumeError
	}

	return builder.execute(command, configuration, stateStore, state)
}

func (builder *CommandBuilder) execute(command *cobra.Command, configuration CommandConfiguration, stateStore *tapsetup.StateStore, state *tapsetup.RunState) error {
	logger := builder.LoggerProvider()
	dependencies, dependenciesError := builder.resolveDependencies(logger, command.OutOrStdout(), configuration.EditorCommand)
	if dependenciesError != nil {
		return dependenciesError
	}

	runner, runnerError := tapsetup.NewRunner(tapsetup.RunnerOptions{
		Steps:  tapsetup.Pipeline(dependencies),
		Store:  stateStore,
		Logger: logger,
		Output: command.OutOrStdout(),
		Clock:  dependencies.Clock,
	})
	if runnerError != nil {
		return runnerError
	}

	outcome, runError := runner.Run(command.Context(), state)
	if runError != nil {
		if outcome.Status == tapsetup.RunStatusHalted {
			return fmt.Errorf("%s: %w", fmt.Sprintf(haltedTemplateConstant, state.RunIdentifier, outcome.FailedStep, state.RunIdentifier), runError)
		}
		return runError
	}
	return nil
}

func (builder *CommandBuilder) configuration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveDependencies(logger *zap.Logger, output io.Writer, editorCommand string) (tapsetup.Dependencies, error) {
	if builder.DependenciesResolver != nil {
		return builder.DependenciesResolver(logger, output, editorCommand)
	}
	return tapsetup.NewDefaultDependencies(logger, output, editorCommand)
}

func (builder *CommandBuilder) stateStore(command *cobra.Command, configuration CommandConfiguration) (*tapsetup.StateStore, error) {
	stateDirectory, _, flagError := flags.StringFlag(command, flags.StateDirectoryFlagName)
	if flagError != nil {
		return nil, flagError
	}
	if len(stateDirectory) == 0 {
		stateDirectory = configuration.StateDirectory
	}
	if len(stateDirectory) == 0 {
		userConfigDirectory, configDirectoryError := os.UserConfigDir()
		if configDirectoryError != nil {
			return nil, configDirectoryError
		}
		stateDirectory = filepath.Join(userConfigDirectory, applicationDirectoryNameConstant)
	}
	return tapsetup.NewStateStore(stateDirectory)
}

func collectInputs(command *cobra.Command, configuration CommandConfiguration) (tapsetup.RunInputs, error) {
	candidateInputs := tapsetup.RunInputs{
		Owner:          configuration.Owner,
		TapShortName:   configuration.Tap,
		RepositoryName: configuration.RepositoryName,
		Visibility:     tapsetup.Visibility(configuration.Visibility),
		BranchName:     configuration.Branch,
		FormulaMode:    tapsetup.FormulaMode(configuration.FormulaMode),
		FormulaURL:     configuration.FormulaURL,
		FormulaName:    configuration.FormulaName,
	}

	stringAssignments := []struct {
		flagName string
		assign   func(string)
	}{
		{flags.OwnerFlagName, func(value string) { candidateInputs.Owner = value }},
		{flags.TapFlagName, func(value string) { candidateInputs.TapShortName = value }},
		{flags.RepositoryNameFlagName, func(value string) { candidateInputs.RepositoryName = value }},
		{flags.VisibilityFlagName, func(value string) { candidateInputs.Visibility = tapsetup.Visibility(value) }},
		{flags.BranchFlagName, func(value string) { candidateInputs.BranchName = value }},
		{flags.FormulaModeFlagName, func(value string) { candidateInputs.FormulaMode = tapsetup.FormulaMode(value) }},
		{flags.FormulaURLFlagName, func(value string) { candidateInputs.FormulaURL = value }},
		{flags.FormulaNameFlagName, func(value string) { candidateInputs.FormulaName = value }},
	}
	for _, assignment := range stringAssignments {
		flagValue, flagChanged, flagError := flags.StringFlag(command, assignment.flagName)
		if flagError != nil {
			return tapsetup.RunInputs{}, flagError
		}
		if flagChanged {
			assignment.assign(flagValue)
		}
	}

	dryRun, _, dryRunError := flags.BoolFlag(command, flags.DryRunFlagName)
	if dryRunError != nil {
		return tapsetup.RunInputs{}, dryRunError
	}
	candidateInputs.DryRun = dryRun

	return candidateInputs, nil
}

func inputFlagsChanged(command *cobra.Command) bool {
	inputFlagNames := []string{
		flags.OwnerFlagName,
		flags.TapFlagName,
		flags.RepositoryNameFlagName,
		flags.VisibilityFlagName,
		flags.BranchFlagName,
		flags.FormulaModeFlagName,
		flags.FormulaURLFlagName,
		flags.FormulaNameFlagName,
	}
	for _, flagName := range inputFlagNames {
		if _, flagChanged, flagError := flags.StringFlag(command, flagName); flagError == nil && flagChanged {
			return true
		}
	}
	return false
}

func printNotices(command *cobra.Command, notices []string) {
	for _, notice := range notices {
		fmt.Fprintf(command.ErrOrStderr(), noticeTemplateConstant, notice)
	}
}
