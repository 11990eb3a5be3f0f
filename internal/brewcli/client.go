package brewcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	repositoryFlagConstant                  = "--repository"
	tapNewSubcommandConstant                = "tap-new"
	tapSubcommandConstant                   = "tap"
	createSubcommandConstant                = "create"
	auditSubcommandConstant                 = "audit"
	createTapFlagConstant                   = "--tap"
	createSetNameFlagConstant               = "--set-name"
	homebrewEditorEnvironmentNameConstant   = "HOMEBREW_EDITOR"
	editorEnvironmentNameConstant           = "EDITOR"
	defaultNonInteractiveEditorConstant     = "/usr/bin/true"
	tapIdentifierFieldNameConstant          = "tap_identifier"
	formulaURLFieldNameConstant             = "formula_url"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "brew executor not configured"
	emptyRepositoryRootMessageConstant      = "brew --repository returned empty output"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	repositoryRootOperationNameConstant     = OperationName("ResolveRepositoryRoot")
	tapNewOperationNameConstant             = OperationName("TapNew")
	registerTapOperationNameConstant        = OperationName("RegisterTap")
	listTapsOperationNameConstant           = OperationName("ListTaps")
	createFormulaOperationNameConstant      = OperationName("CreateFormula")
	auditFormulaOperationNameConstant       = OperationName("AuditFormula")
)

// OperationName describes a named Homebrew workflow supported by the client.
type OperationName string

// FormulaCreateOptions configures brew create invocations.
type FormulaCreateOptions struct {
	TapIdentifier string
	SourceURL     string
	FormulaName   string
	// EditorCommand replaces the interactive editor brew create opens. When
	// empty a no-op editor is substituted so the invocation never blocks.
	EditorCommand string
}

// BrewCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type BrewCommandExecutor interface {
	ExecuteBrew(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates Homebrew invocations through execshell.
type Client struct {
	executor BrewCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrEmptyRepositoryRoot indicates brew --repository produced no usable path.
	ErrEmptyRepositoryRoot = errors.New(emptyRepositoryRootMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for Homebrew operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// NewClient constructs a Homebrew client.
func NewClient(executor BrewCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// RepositoryRoot resolves the Homebrew installation root via brew --repository.
func (client *Client) RepositoryRoot(executionContext context.Context) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{repositoryFlagConstant},
	}

	executionResult, executionError := client.executor.ExecuteBrew(executionContext, commandDetails)
	if executionError != nil {
		return "", OperationError{Operation: repositoryRootOperationNameConstant, Cause: executionError}
	}

	repositoryRoot := strings.TrimSpace(executionResult.StandardOutput)
	if len(repositoryRoot) == 0 {
		return "", OperationError{Operation: repositoryRootOperationNameConstant, Cause: ErrEmptyRepositoryRoot}
	}

	return repositoryRoot, nil
}

// TapNew scaffolds a local tap repository via brew tap-new.
func (client *Client) TapNew(executionContext context.Context, tapIdentifier string) error {
	trimmedIdentifier := strings.TrimSpace(tapIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: tapIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{tapNewSubcommandConstant, trimmedIdentifier},
	}

	_, executionError := client.executor.ExecuteBrew(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: tapNewOperationNameConstant, Cause: executionError}
	}
	return nil
}

// RegisterTap registers the tap with the local Homebrew installation via brew tap.
func (client *Client) RegisterTap(executionContext context.Context, tapIdentifier string) error {
	trimmedIdentifier := strings.TrimSpace(tapIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: tapIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{tapSubcommandConstant, trimmedIdentifier},
	}

	_, executionError := client.executor.ExecuteBrew(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: registerTapOperationNameConstant, Cause: executionError}
	}
	return nil
}

// ListTaps enumerates the taps registered with the local installation.
func (client *Client) ListTaps(executionContext context.Context) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{tapSubcommandConstant},
	}

	executionResult, executionError := client.executor.ExecuteBrew(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listTapsOperationNameConstant, Cause: executionError}
	}

	lines := strings.Split(executionResult.StandardOutput, "\n")
	taps := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 0 {
			taps = append(taps, trimmed)
		}
	}
	return taps, nil
}

// CreateFormula generates a formula from a source tarball via brew create. The
// interactive editor brew create opens is replaced with a non-interactive
// command so the invocation completes without operator involvement.
func (client *Client) CreateFormula(executionContext context.Context, options FormulaCreateOptions) error {
	trimmedIdentifier := strings.TrimSpace(options.TapIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: tapIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedURL := strings.TrimSpace(options.SourceURL)
	if len(trimmedURL) == 0 {
		return InvalidInputError{FieldName: formulaURLFieldNameConstant, Message: requiredValueMessageConstant}
	}

	arguments := []string{
		createSubcommandConstant,
		createTapFlagConstant,
		trimmedIdentifier,
	}

	trimmedFormulaName := strings.TrimSpace(options.FormulaName)
	if len(trimmedFormulaName) > 0 {
		arguments = append(arguments, createSetNameFlagConstant, trimmedFormulaName)
	}

	arguments = append(arguments, trimmedURL)

	editorCommand := strings.TrimSpace(options.EditorCommand)
	if len(editorCommand) == 0 {
		editorCommand = defaultNonInteractiveEditorConstant
	}

	commandDetails := execshell.CommandDetails{
		Arguments: arguments,
		EnvironmentVariables: map[string]string{
			homebrewEditorEnvironmentNameConstant: editorCommand,
			editorEnvironmentNameConstant:         editorCommand,
		},
	}

	_, executionError := client.executor.ExecuteBrew(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: createFormulaOperationNameConstant, Cause: executionError}
	}
	return nil
}

// AuditFormula runs brew audit against a formula identifier.
func (client *Client) AuditFormula(executionContext context.Context, formulaIdentifier string) error {
	trimmedIdentifier := strings.TrimSpace(formulaIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: tapIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{auditSubcommandConstant, trimmedIdentifier},
	}

	_, executionError := client.executor.ExecuteBrew(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: auditFormulaOperationNameConstant, Cause: executionError}
	}
	return nil
}
