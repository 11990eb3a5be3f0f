package tapsetup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/tapsmith/internal/brewcli"
	"github.com/tyemirov/tapsmith/internal/execshell"
	"github.com/tyemirov/tapsmith/internal/githubcli"
	"github.com/tyemirov/tapsmith/internal/gitrepo"
)

const (
	rubyFormulaExtensionConstant = ".rb"
	formulaDirectoryPermConstant = 0o755
	formulaFilePermConstant      = 0o644
	tapLibraryDirectoryConstant  = "Library"
	tapTapsDirectoryConstant     = "Taps"
)

// ErrLoggerNotConfigured signals that dependency resolution was attempted
// without a logger.
var ErrLoggerNotConfigured = errors.New("logger not configured")

// BrewService is the Homebrew surface the pipeline steps use.
type BrewService interface {
	RepositoryRoot(executionContext context.Context) (string, error)
	TapNew(executionContext context.Context, tapIdentifier string) error
	RegisterTap(executionContext context.Context, tapIdentifier string) error
	ListTaps(executionContext context.Context) ([]string, error)
	CreateFormula(executionContext context.Context, options brewcli.FormulaCreateOptions) error
	AuditFormula(executionContext context.Context, formulaIdentifier string) error
}

// GitHubService is the GitHub CLI surface the pipeline steps use.
type GitHubService interface {
	RepositoryExists(executionContext context.Context, repository string) (bool, error)
	ResolveRepositoryURLs(executionContext context.Context, repository string) (githubcli.RepositoryURLs, error)
	CreateRepository(executionContext context.Context, options githubcli.RepositoryCreateOptions) error
	CheckAuthentication(executionContext context.Context) error
}

// GitService is the git surface the pipeline steps use.
type GitService interface {
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	RenameCurrentBranch(executionContext context.Context, repositoryPath string, branchName string) error
	StageAll(executionContext context.Context, repositoryPath string) error
	CommitChanges(executionContext context.Context, repositoryPath string, commitMessage string) error
	PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error
	SyncStatus(executionContext context.Context, repositoryPath string) (gitrepo.BranchSyncStatus, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
}

// CommandExecutor is the raw shell surface the preflight step probes with.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteBrew(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// FileSystem abstracts the filesystem reads and writes the steps perform.
type FileSystem interface {
	DirectoryExists(path string) bool
	FileExists(path string) bool
	EnsureDirectory(path string) error
	WriteFile(path string, content []byte) error
	ListFormulaNames(directory string) ([]string, error)
}

// OSFileSystem implements FileSystem against the real filesystem.
type OSFileSystem struct{}

// NewOSFileSystem constructs an OSFileSystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// DirectoryExists reports whether path exists and is a directory.
func (fileSystem *OSFileSystem) DirectoryExists(path string) bool {
	pathInformation, statError := os.Stat(path)
	return statError == nil && pathInformation.IsDir()
}

// FileExists reports whether path exists and is a regular file.
func (fileSystem *OSFileSystem) FileExists(path string) bool {
	pathInformation, statError := os.Stat(path)
	return statError == nil && pathInformation.Mode().IsRegular()
}

// EnsureDirectory creates the directory and its parents when missing.
func (fileSystem *OSFileSystem) EnsureDirectory(path string) error {
	return os.MkdirAll(path, formulaDirectoryPermConstant)
}

// WriteFile writes content to path.
func (fileSystem *OSFileSystem) WriteFile(path string, content []byte) error {
	return os.WriteFile(path, content, formulaFilePermConstant)
}

// ListFormulaNames returns the formula names of every Ruby file directly
// inside directory.
func (fileSystem *OSFileSystem) ListFormulaNames(directory string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(directory)
	if readError != nil {
		return nil, readError
	}
	formulaNames := []string{}
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		entryName := directoryEntry.Name()
		if formulaName, isRuby := strings.CutSuffix(entryName, rubyFormulaExtensionConstant); isRuby {
			formulaNames = append(formulaNames, formulaName)
		}
	}
	return formulaNames, nil
}

// Dependencies bundles the collaborators the pipeline steps run against.
type Dependencies struct {
	Logger        *zap.Logger
	Executor      CommandExecutor
	GitManager    GitService
	GitHubClient  GitHubService
	BrewClient    BrewService
	FileSystem    FileSystem
	Output        io.Writer
	Clock         func() time.Time
	EditorCommand string
}

// NewDefaultDependencies wires the production collaborators: an operating
// system command runner behind execshell.ShellExecutor and the git, GitHub,
// and Homebrew clients built on top of it.
func NewDefaultDependencies(logger *zap.Logger, output io.Writer, editorCommand string) (Dependencies, error) {
	if logger == nil {
		return Dependencies{}, ErrLoggerNotConfigured
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return Dependencies{}, executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return Dependencies{}, managerError
	}
	githubClient, githubClientError := githubcli.NewClient(shellExecutor)
	if githubClientError != nil {
		return Dependencies{}, githubClientError
	}
	brewClient, brewClientError := brewcli.NewClient(shellExecutor)
	if brewClientError != nil {
		return Dependencies{}, brewClientError
	}
	return Dependencies{
		Logger:        logger,
		Executor:      shellExecutor,
		GitManager:    repositoryManager,
		GitHubClient:  githubClient,
		BrewClient:    brewClient,
		FileSystem:    NewOSFileSystem(),
		Output:        output,
		Clock:         time.Now,
		EditorCommand: editorCommand,
	}, nil
}

// Pipeline builds the provisioning steps in execution order.
func Pipeline(dependencies Dependencies) []Step {
	return []Step{
		NewPreflightStep(dependencies.Executor, dependencies.GitHubClient),
		NewTapNewStep(dependencies.BrewClient, dependencies.FileSystem),
		NewRepoCreateStep(dependencies.GitHubClient, dependencies.GitManager),
		NewAddFormulaStep(dependencies.BrewClient, dependencies.FileSystem, dependencies.EditorCommand),
		NewCommitPushStep(dependencies.GitManager),
		NewValidateTapStep(dependencies.BrewClient),
	}
}

// TapDirectory returns the local checkout path Homebrew assigns to a tap.
func TapDirectory(brewRepositoryRoot string, owner string, repositoryName string) string {
	return filepath.Join(brewRepositoryRoot, tapLibraryDirectoryConstant, tapTapsDirectoryConstant, owner, repositoryName)
}
