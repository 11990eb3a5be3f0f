package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	repoSubcommandConstant                    = "repo"
	viewSubcommandConstant                    = "view"
	createSubcommandConstant                  = "create"
	authSubcommandConstant                    = "auth"
	statusSubcommandConstant                  = "status"
	jsonFlagConstant                          = "--json"
	sourceFlagConstant                        = "--source"
	pushFlagConstant                          = "--push"
	remoteFlagConstant                        = "--remote"
	publicFlagConstant                        = "--public"
	privateFlagConstant                       = "--private"
	repoViewNameFieldConstant                 = "name"
	repoViewURLFieldsConstant                 = "sshUrl,url"
	repositoryFieldNameConstant               = "repository"
	sourcePathFieldNameConstant               = "source_path"
	requiredValueMessageConstant              = "value required"
	executorNotConfiguredMessageConstant      = "github cli executor not configured"
	operationErrorMessageTemplateConstant     = "%s operation failed"
	operationErrorWithCauseTemplateConstant   = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant     = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant         = "%s: %s"
	repositoryExistsOperationNameConstant     = OperationName("CheckRepositoryExists")
	repositoryURLsOperationNameConstant       = OperationName("ResolveRepositoryURLs")
	repositoryCreateOperationNameConstant     = OperationName("CreateRepository")
	authenticationStatusOperationNameConstant = OperationName("CheckAuthentication")
	repositoryMissingIndicatorNotFound        = "not found"
	repositoryMissingIndicatorUnresolved      = "could not resolve to a repository"
	repositoryMissingIndicatorStatusCode      = "404"
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryVisibility describes supported repository visibility levels.
type RepositoryVisibility string

// Supported repository visibility values.
const (
	RepositoryVisibilityPublic  RepositoryVisibility = RepositoryVisibility("public")
	RepositoryVisibilityPrivate RepositoryVisibility = RepositoryVisibility("private")
)

// RepositoryURLs contains the push-capable addresses resolved from GitHub.
type RepositoryURLs struct {
	SSHURL string
	WebURL string
}

// RepositoryCreateOptions configures repository creation parameters.
type RepositoryCreateOptions struct {
	Repository string
	SourcePath string
	RemoteName string
	Visibility RepositoryVisibility
	Push       bool
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
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

// OperationError wraps execution issues for GitHub CLI operations.
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

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// RepositoryExists reports whether the repository resolves on GitHub using gh repo view.
func (client *Client) RepositoryExists(executionContext context.Context, repository string) (bool, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return false, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewNameFieldConstant,
		},
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError == nil {
		return true, nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) && repositoryNotFound(commandFailure.Result) {
		return false, nil
	}

	return false, OperationError{Operation: repositoryExistsOperationNameConstant, Cause: executionError}
}

// ResolveRepositoryURLs retrieves the SSH and web URLs for a repository.
func (client *Client) ResolveRepositoryURLs(executionContext context.Context, repository string) (RepositoryURLs, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return RepositoryURLs{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewURLFieldsConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryURLs{}, OperationError{Operation: repositoryURLsOperationNameConstant, Cause: executionError}
	}

	var response struct {
		SSHURL string `json:"sshUrl"`
		WebURL string `json:"url"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryURLs{}, ResponseDecodingError{Operation: repositoryURLsOperationNameConstant, Cause: decodingError}
	}

	return RepositoryURLs{SSHURL: response.SSHURL, WebURL: response.WebURL}, nil
}

// CreateRepository creates the remote repository using gh repo create.
func (client *Client) CreateRepository(executionContext context.Context, options RepositoryCreateOptions) error {
	repositoryIdentifier := strings.TrimSpace(options.Repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	sourcePath := strings.TrimSpace(options.SourcePath)
	if len(sourcePath) == 0 {
		return InvalidInputError{FieldName: sourcePathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	arguments := []string{
		repoSubcommandConstant,
		createSubcommandConstant,
		repositoryIdentifier,
		sourceFlagConstant,
		sourcePath,
	}

	if options.Push {
		arguments = append(arguments, pushFlagConstant)
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) > 0 {
		arguments = append(arguments, remoteFlagConstant, remoteName)
	}

	switch options.Visibility {
	case RepositoryVisibilityPrivate:
		arguments = append(arguments, privateFlagConstant)
	default:
		arguments = append(arguments, publicFlagConstant)
	}

	commandDetails := execshell.CommandDetails{Arguments: arguments}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: repositoryCreateOperationNameConstant, Cause: executionError}
	}

	return nil
}

// CheckAuthentication verifies the GitHub CLI session using gh auth status.
func (client *Client) CheckAuthentication(executionContext context.Context) error {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{authSubcommandConstant, statusSubcommandConstant},
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: authenticationStatusOperationNameConstant, Cause: executionError}
	}
	return nil
}

func repositoryNotFound(result execshell.ExecutionResult) bool {
	combinedOutput := strings.ToLower(result.StandardError + " " + result.StandardOutput)
	return strings.Contains(combinedOutput, repositoryMissingIndicatorNotFound) ||
		strings.Contains(combinedOutput, repositoryMissingIndicatorUnresolved) ||
		strings.Contains(combinedOutput, repositoryMissingIndicatorStatusCode)
}
