package cli_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/tapsmith/internal/brewcli"
	"github.com/tyemirov/tapsmith/internal/execshell"
	"github.com/tyemirov/tapsmith/internal/githubcli"
	"github.com/tyemirov/tapsmith/internal/gitrepo"
	"github.com/tyemirov/tapsmith/internal/tapsetup"
	setupcli "github.com/tyemirov/tapsmith/internal/tapsetup/cli"
)

type passingExecutor struct{}

func (executor passingExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func (executor passingExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func (executor passingExecutor) ExecuteBrew(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

type passingGitHubService struct{}

func (service passingGitHubService) RepositoryExists(executionContext context.Context, repository string) (bool, error) {
	return false, nil
}

func (service passingGitHubService) ResolveRepositoryURLs(executionContext context.Context, repository string) (githubcli.RepositoryURLs, error) {
	return githubcli.RepositoryURLs{}, nil
}

func (service passingGitHubService) CreateRepository(executionContext context.Context, options githubcli.RepositoryCreateOptions) error {
	return nil
}

func (service passingGitHubService) CheckAuthentication(executionContext context.Context) error {
	return nil
}

type passingBrewService struct{}

func (service passingBrewService) RepositoryRoot(executionContext context.Context) (string, error) {
	return "/opt/homebrew", nil
}

func (service passingBrewService) TapNew(executionContext context.Context, tapIdentifier string) error {
	return nil
}

func (service passingBrewService) RegisterTap(executionContext context.Context, tapIdentifier string) error {
	return nil
}

func (service passingBrewService) ListTaps(executionContext context.Context) ([]string, error) {
	return nil, nil
}

func (service passingBrewService) CreateFormula(executionContext context.Context, options brewcli.FormulaCreateOptions) error {
	return nil
}

func (service passingBrewService) AuditFormula(executionContext context.Context, formulaIdentifier string) error {
	return nil
}

type idleGitService struct{}

func (service idleGitService) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	return "", nil
}

func (service idleGitService) RenameCurrentBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	return nil
}

func (service idleGitService) StageAll(executionContext context.Context, repositoryPath string) error {
	return nil
}

func (service idleGitService) CommitChanges(executionContext context.Context, repositoryPath string, commitMessage string) error {
	return nil
}

func (service idleGitService) PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error {
	return nil
}

func (service idleGitService) SyncStatus(executionContext context.Context, repositoryPath string) (gitrepo.BranchSyncStatus, error) {
	return gitrepo.BranchSyncStatus{}, nil
}

func (service idleGitService) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	return true, nil
}

type idleFileSystem struct{}

func (fileSystem idleFileSystem) DirectoryExists(path string) bool {
	return false
}

func (fileSystem idleFileSystem) FileExists(path string) bool {
	return false
}

func (fileSystem idleFileSystem) EnsureDirectory(path string) error {
	return nil
}

func (fileSystem idleFileSystem) WriteFile(path string, content []byte) error {
	return nil
}

func (fileSystem idleFileSystem) ListFormulaNames(directory string) ([]string, error) {
	return nil, nil
}

func stubDependenciesResolver(logger *zap.Logger, output io.Writer, editorCommand string) (tapsetup.Dependencies, error) {
	return tapsetup.Dependencies{
		Logger:        logger,
		Executor:      passingExecutor{},
		GitManager:    idleGitService{},
		GitHubClient:  passingGitHubService{},
		BrewClient:    passingBrewService{},
		FileSystem:    idleFileSystem{},
		Output:        output,
		Clock:         time.Now,
		EditorCommand: editorCommand,
	}, nil
}

func newTestBuilder() *setupcli.CommandBuilder {
	return &setupcli.CommandBuilder{
		LoggerProvider:        zap.NewNop,
		ConfigurationProvider: setupcli.DefaultCommandConfiguration,
		DependenciesResolver:  stubDependenciesResolver,
	}
}

func TestCommandBuilderRequiresLoggerProvider(testInstance *testing.T) {
	builder := &setupcli.CommandBuilder{}
	_, setupError := builder.BuildSetupCommand()
	require.ErrorIs(testInstance, setupError, setupcli.ErrLoggerProviderNotConfigured)
	_, resumeError := builder.BuildResumeCommand()
	require.ErrorIs(testInstance, resumeError, setupcli.ErrLoggerProviderNotConfigured)
}

func TestSetupCommandDryRunCompletes(testInstance *testing.T) {
	stateDirectory := testInstance.TempDir()
	setupCommand, buildError := newTestBuilder().BuildSetupCommand()
	require.NoError(testInstance, buildError)

	output := &strings.Builder{}
	setupCommand.SetOut(output)
	setupCommand.SetErr(io.Discard)
	setupCommand.SetArgs([]string{"--owner", "alice", "--tap", "tools", "--dry-run", "--state-dir", stateDirectory})

	require.NoError(testInstance, setupCommand.Execute())
	assert.Contains(testInstance, output.String(), "dry run")
	assert.Contains(testInstance, output.String(), "alice/homebrew-tools")
}

func TestSetupCommandRejectsMissingOwner(testInstance *testing.T) {
	setupCommand, buildError := newTestBuilder().BuildSetupCommand()
	require.NoError(testInstance, buildError)

	setupCommand.SetOut(io.Discard)
	setupCommand.SetErr(io.Discard)
	setupCommand.SetArgs([]string{"--tap", "tools", "--state-dir", testInstance.TempDir()})

	executionError := setupCommand.Execute()
	var invalidInputs tapsetup.InvalidInputsError
	require.ErrorAs(testInstance, executionError, &invalidInputs)
}

func TestResumeCommandRejectsMismatchedInputs(testInstance *testing.T) {
	stateDirectory := testInstance.TempDir()
	builder := newTestBuilder()

	setupCommand, buildError := builder.BuildSetupCommand()
	require.NoError(testInstance, buildError)
	setupOutput := &strings.Builder{}
	setupCommand.SetOut(setupOutput)
	setupCommand.SetErr(io.Discard)
	setupCommand.SetArgs([]string{"--owner", "alice", "--tap", "tools", "--dry-run", "--state-dir", stateDirectory})
	require.NoError(testInstance, setupCommand.Execute())

	stateStore, storeError := tapsetup.NewStateStore(stateDirectory)
	require.NoError(testInstance, storeError)
	runIdentifier := extractRunIdentifier(testInstance, setupOutput.String())
	_, loadError := stateStore.Load(runIdentifier)
	require.NoError(testInstance, loadError)

	resumeCommand, resumeBuildError := builder.BuildResumeCommand()
	require.NoError(testInstance, resumeBuildError)
	resumeCommand.SetOut(io.Discard)
	resumeCommand.SetErr(io.Discard)
	resumeCommand.SetArgs([]string{runIdentifier, "--owner", "alice", "--tap", "gadgets", "--state-dir", stateDirectory})

	executionError := resumeCommand.Execute()
	var mismatchError tapsetup.InputMismatchError
	require.ErrorAs(testInstance, executionError, &mismatchError)
}

func TestResumeCommandFinishesDryRunAgain(testInstance *testing.T) {
	stateDirectory := testInstance.TempDir()
	builder := newTestBuilder()

	setupCommand, buildError := builder.BuildSetupCommand()
	require.NoError(testInstance, buildError)
	setupOutput := &strings.Builder{}
	setupCommand.SetOut(setupOutput)
	setupCommand.SetErr(io.Discard)
	setupCommand.SetArgs([]string{"--owner", "alice", "--tap", "tools", "--dry-run", "--state-dir", stateDirectory})
	require.NoError(testInstance, setupCommand.Execute())

	runIdentifier := extractRunIdentifier(testInstance, setupOutput.String())
	resumeCommand, resumeBuildError := builder.BuildResumeCommand()
	require.NoError(testInstance, resumeBuildError)
	resumeOutput := &strings.Builder{}
	resumeCommand.SetOut(resumeOutput)
	resumeCommand.SetErr(io.Discard)
	resumeCommand.SetArgs([]string{runIdentifier, "--dry-run", "--state-dir", stateDirectory})

	require.NoError(testInstance, resumeCommand.Execute())
	assert.Contains(testInstance, resumeOutput.String(), runIdentifier)
}

func extractRunIdentifier(testInstance *testing.T, commandOutput string) string {
	testInstance.Helper()
	for _, outputLine := range strings.Split(commandOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if strings.HasPrefix(trimmedLine, "run") {
			lineFields := strings.Fields(trimmedLine)
			require.Len(testInstance, lineFields, 2)
			return lineFields[1]
		}
	}
	testInstance.Fatalf("run identifier not found in output: %s", commandOutput)
	return ""
}
