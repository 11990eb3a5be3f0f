package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	gitStatusSubcommandConstant               = "status"
	gitStatusPorcelainFlagConstant            = "--porcelain"
	gitStatusShortBranchFlagConstant          = "-sb"
	gitRevParseSubcommandConstant             = "rev-parse"
	gitAbbrevRefFlagConstant                  = "--abbrev-ref"
	gitHeadReferenceConstant                  = "HEAD"
	gitBranchSubcommandConstant               = "branch"
	gitBranchMoveForceFlagConstant            = "-M"
	gitAddSubcommandConstant                  = "add"
	gitAddAllFlagConstant                     = "--all"
	gitCommitSubcommandConstant               = "commit"
	gitCommitMessageFlagConstant              = "--message"
	gitPushSubcommandConstant                 = "push"
	gitPushSetUpstreamFlagConstant            = "--set-upstream"
	gitRemoteSubcommandConstant               = "remote"
	gitRemoteGetURLSubcommandConstant         = "get-url"
	repositoryPathFieldNameConstant           = "repository_path"
	branchNameFieldNameConstant               = "branch_name"
	remoteNameFieldNameConstant               = "remote_name"
	commitMessageFieldNameConstant            = "commit_message"
	requiredValueMessageConstant              = "value required"
	executorNotConfiguredMessageConstant      = "git executor not configured"
	repositoryOperationErrorTemplateConstant  = "%s operation failed"
	repositoryOperationErrorWithCauseConstant = "%s operation failed: %s"
	invalidRepositoryInputTemplateConstant    = "%s: %s"
	nothingToCommitIndicatorConstant          = "nothing to commit"
	statusBranchHeaderPrefixConstant          = "## "
	statusUpstreamSeparatorConstant           = "..."
	statusAheadPrefixConstant                 = "ahead "
	statusBehindPrefixConstant                = "behind "
	worktreeStatusOperationNameConstant       = RepositoryOperationName("WorktreeStatus")
	syncStatusOperationNameConstant           = RepositoryOperationName("BranchSyncStatus")
	currentBranchOperationNameConstant        = RepositoryOperationName("GetCurrentBranch")
	renameBranchOperationNameConstant         = RepositoryOperationName("RenameCurrentBranch")
	getRemoteURLOperationNameConstant         = RepositoryOperationName("GetRemoteURL")
	stageAllOperationNameConstant             = RepositoryOperationName("StageAll")
	commitOperationNameConstant               = RepositoryOperationName("CommitChanges")
	pushOperationNameConstant                 = RepositoryOperationName("PushBranch")
)

// GitCommandExecutor exposes the subset of execshell functionality required by RepositoryManager.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager coordinates Git operations through execshell.
type RepositoryManager struct {
	executor GitCommandExecutor
}

var (
	// ErrGitExecutorNotConfigured indicates the RepositoryManager was constructed without a git executor.
	ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidRepositoryInputError indicates validation failures for repository operations.
type InvalidRepositoryInputError struct {
	FieldName string
	Message   string
}

// Error describes the validation failure.
func (inputError InvalidRepositoryInputError) Error() string {
	return fmt.Sprintf(invalidRepositoryInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// RepositoryOperationName captures descriptive names for repository operations.
type RepositoryOperationName string

// RepositoryOperationError wraps execution failures for git operations.
type RepositoryOperationError struct {
	Operation RepositoryOperationName
	Cause     error
}

// Error describes the repository operation failure.
func (operationError RepositoryOperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(repositoryOperationErrorTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(repositoryOperationErrorWithCauseConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying error.
func (operationError RepositoryOperationError) Unwrap() error {
	return operationError.Cause
}

// BranchSyncStatus summarizes how the local branch relates to its upstream.
type BranchSyncStatus struct {
	BranchName  string
	HasUpstream bool
	AheadCount  int
	BehindCount int
	Dirty       bool
}

// NewRepositoryManager constructs a RepositoryManager for the provided executor.
func NewRepositoryManager(executor GitCommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree returns true when the repository has no staged or unstaged changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	status, statusError := manager.WorktreeStatus(executionContext, repositoryPath)
	if statusError != nil {
		return false, statusError
	}
	return len(status) == 0, nil
}

// WorktreeStatus returns the porcelain status entries for the repository.
func (manager *RepositoryManager) WorktreeStatus(executionContext context.Context, repositoryPath string) ([]string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return nil, InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, RepositoryOperationError{Operation: worktreeStatusOperationNameConstant, Cause: executionError}
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		return nil, nil
	}

	lines := strings.Split(trimmedOutput, "\n")
	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 0 {
			entries = append(entries, trimmed)
		}
	}
	return entries, nil
}

// GetCurrentBranch resolves the current branch name.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", RepositoryOperationError{Operation: currentBranchOperationNameConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// RenameCurrentBranch forcibly renames the current branch.
func (manager *RepositoryManager) RenameCurrentBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedBranch := strings.TrimSpace(branchName)
	if len(trimmedBranch) == 0 {
		return InvalidRepositoryInputError{FieldName: branchNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitBranchMoveForceFlagConstant, trimmedBranch},
		WorkingDirectory: trimmedPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryOperationError{Operation: renameBranchOperationNameConstant, Cause: executionError}
	}
	return nil
}

// GetRemoteURL returns the configured remote URL for the given remote name.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return "", InvalidRepositoryInputError{FieldName: remoteNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemote},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", RepositoryOperationError{Operation: getRemoteURLOperationNameConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// StageAll stages every pending change in the repository.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitAddAllFlagConstant},
		WorkingDirectory: trimmedPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryOperationError{Operation: stageAllOperationNameConstant, Cause: executionError}
	}
	return nil
}

// CommitChanges records staged changes with the provided message. A commit with
// nothing staged is treated as success.
func (manager *RepositoryManager) CommitChanges(executionContext context.Context, repositoryPath string, commitMessage string) error {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedMessage := strings.TrimSpace(commitMessage)
	if len(trimmedMessage) == 0 {
		return InvalidRepositoryInputError{FieldName: commitMessageFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, trimmedMessage},
		WorkingDirectory: trimmedPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) && commitReportedNothingToCommit(commandFailure.Result) {
			return nil
		}
		return RepositoryOperationError{Operation: commitOperationNameConstant, Cause: executionError}
	}
	return nil
}

// PushBranch pushes the branch to the remote, optionally establishing the upstream.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandArguments := []string{gitPushSubcommandConstant}
	if setUpstream {
		trimmedRemote := strings.TrimSpace(remoteName)
		if len(trimmedRemote) == 0 {
			return InvalidRepositoryInputError{FieldName: remoteNameFieldNameConstant, Message: requiredValueMessageConstant}
		}
		trimmedBranch := strings.TrimSpace(branchName)
		if len(trimmedBranch) == 0 {
			return InvalidRepositoryInputError{FieldName: branchNameFieldNameConstant, Message: requiredValueMessageConstant}
		}
		commandArguments = append(commandArguments, gitPushSetUpstreamFlagConstant, trimmedRemote, trimmedBranch)
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        commandArguments,
		WorkingDirectory: trimmedPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryOperationError{Operation: pushOperationNameConstant, Cause: executionError}
	}
	return nil
}

// SyncStatus resolves the branch, upstream relationship, and divergence counts
// from git status -sb, falling back to rev-parse when the header lacks a branch.
func (manager *RepositoryManager) SyncStatus(executionContext context.Context, repositoryPath string) (BranchSyncStatus, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return BranchSyncStatus{}, InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	worktreeEntries, worktreeError := manager.WorktreeStatus(executionContext, trimmedPath)
	if worktreeError != nil {
		return BranchSyncStatus{}, worktreeError
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusShortBranchFlagConstant},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return BranchSyncStatus{}, RepositoryOperationError{Operation: syncStatusOperationNameConstant, Cause: executionError}
	}

	syncStatus := parseBranchHeader(executionResult.StandardOutput)
	syncStatus.Dirty = len(worktreeEntries) > 0

	if len(syncStatus.BranchName) == 0 {
		currentBranch, branchError := manager.GetCurrentBranch(executionContext, trimmedPath)
		if branchError != nil {
			return BranchSyncStatus{}, branchError
		}
		syncStatus.BranchName = currentBranch
	}

	return syncStatus, nil
}

func parseBranchHeader(statusOutput string) BranchSyncStatus {
	syncStatus := BranchSyncStatus{}

	firstLine := statusOutput
	if newlineIndex := strings.Index(firstLine, "\n"); newlineIndex >= 0 {
		firstLine = firstLine[:newlineIndex]
	}
	firstLine = strings.TrimSpace(firstLine)

	headerBody, hasHeader := strings.CutPrefix(firstLine, statusBranchHeaderPrefixConstant)
	if !hasHeader {
		return syncStatus
	}

	branchPart, upstreamPart, hasUpstream := strings.Cut(headerBody, statusUpstreamSeparatorConstant)
	syncStatus.BranchName = strings.TrimSpace(branchPart)
	if !hasUpstream {
		return syncStatus
	}
	syncStatus.HasUpstream = true

	bracketStart := strings.Index(upstreamPart, "[")
	bracketEnd := strings.Index(upstreamPart, "]")
	if bracketStart < 0 || bracketEnd <= bracketStart {
		return syncStatus
	}

	for _, divergenceEntry := range strings.Split(upstreamPart[bracketStart+1:bracketEnd], ",") {
		trimmedEntry := strings.TrimSpace(divergenceEntry)
		if countText, isAhead := strings.CutPrefix(trimmedEntry, statusAheadPrefixConstant); isAhead {
			syncStatus.AheadCount = parseDivergenceCount(countText)
			continue
		}
		if countText, isBehind := strings.CutPrefix(trimmedEntry, statusBehindPrefixConstant); isBehind {
			syncStatus.BehindCount = parseDivergenceCount(countText)
		}
	}

	return syncStatus
}

func parseDivergenceCount(countText string) int {
	parsedCount, parseError := strconv.Atoi(strings.TrimSpace(countText))
	if parseError != nil {
		return 0
	}
	return parsedCount
}

func commitReportedNothingToCommit(result execshell.ExecutionResult) bool {
	combinedOutput := strings.ToLower(result.StandardOutput + " " + result.StandardError)
	return strings.Contains(combinedOutput, nothingToCommitIndicatorConstant)
}
