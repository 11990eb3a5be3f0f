package gitrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/tapsmith/internal/execshell"
	"github.com/tyemirov/tapsmith/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/tap"
	testBranchNameConstant     = "main"
	testRemoteNameConstant     = "origin"
	testRemoteURLConstant      = "git@github.com:alice/homebrew-tools.git"
	testCommitMessageConstant  = "Update tap files"
)

type scriptedGitExecutor struct {
	recorded  []execshell.CommandDetails
	responses []scriptedGitResponse
}

type scriptedGitResponse struct {
	result execshell.ExecutionResult
	err    error
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recorded = append(executor.recorded, details)
	if len(executor.responses) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	next := executor.responses[0]
	executor.responses = executor.responses[1:]
	return next.result, next.err
}

func commandFailure(standardOutput string, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardOutput: standardOutput, StandardError: standardError},
	}
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	_, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
}

func TestWorktreeStatusParsesEntries(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: []scriptedGitResponse{
		{result: execshell.ExecutionResult{StandardOutput: " M Formula/tools.rb\n?? README.md\n"}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	entries, statusError := manager.WorktreeStatus(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, []string{"M Formula/tools.rb", "?? README.md"}, entries)
	require.Equal(testInstance, []string{"status", "--porcelain"}, executor.recorded[0].Arguments)
	require.Equal(testInstance, testRepositoryPathConstant, executor.recorded[0].WorkingDirectory)
}

func TestCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusOutput   string
		expectedResult bool
	}{
		{name: "clean_worktree", statusOutput: "", expectedResult: true},
		{name: "pending_changes", statusOutput: " M Formula/tools.rb\n", expectedResult: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			executor := &scriptedGitExecutor{responses: []scriptedGitResponse{
				{result: execshell.ExecutionResult{StandardOutput: testCase.statusOutput}},
			}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(subtest, creationError)

			clean, cleanError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			require.NoError(subtest, cleanError)
			require.Equal(subtest, testCase.expectedResult, clean)
		})
	}
}

func TestCommitChangesToleratesNothingToCommit(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: []scriptedGitResponse{
		{err: commandFailure("nothing to commit, working tree clean", "")},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitError := manager.CommitChanges(context.Background(), testRepositoryPathConstant, testCommitMessageConstant)
	require.NoError(testInstance, commitError)
}

func TestCommitChangesSurfacesFailures(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: []scriptedGitResponse{
		{err: commandFailure("", "fatal: unable to write commit")},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitError := manager.CommitChanges(context.Background(), testRepositoryPathConstant, testCommitMessageConstant)
	var operationError gitrepo.RepositoryOperationError
	require.ErrorAs(testInstance, commitError, &operationError)
}

func TestPushBranchSetsUpstreamWhenRequested(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	pushError := manager.PushBranch(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, testBranchNameConstant, true)
	require.NoError(testInstance, pushError)
	require.Equal(testInstance, []string{"push", "--set-upstream", testRemoteNameConstant, testBranchNameConstant}, executor.recorded[0].Arguments)
}

func TestGetRemoteURLTrimsOutput(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: []scriptedGitResponse{
		{result: execshell.ExecutionResult{StandardOutput: testRemoteURLConstant + "\n"}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	remoteURL, lookupError := manager.GetRemoteURL(context.Background(), testRepositoryPathConstant, testRemoteNameConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, testRemoteURLConstant, remoteURL)
}

func TestSyncStatusParsesDivergence(testInstance *testing.T) {
	testCases := []struct {
		name           string
		porcelain      string
		shortBranch    string
		expectedStatus gitrepo.BranchSyncStatus
	}{
		{
			name:        "clean_in_sync",
			shortBranch: "## main...origin/main\n",
			expectedStatus: gitrepo.BranchSyncStatus{
				BranchName:  "main",
				HasUpstream: true,
			},
		},
		{
			name:        "ahead_and_behind",
			porcelain:   " M Formula/tools.rb\n",
			shortBranch: "## main...origin/main [ahead 2, behind 1]\n",
			expectedStatus: gitrepo.BranchSyncStatus{
				BranchName:  "main",
				HasUpstream: true,
				AheadCount:  2,
				BehindCount: 1,
				Dirty:       true,
			},
		},
		{
			name:        "no_upstream",
			shortBranch: "## main\n",
			expectedStatus: gitrepo.BranchSyncStatus{
				BranchName: "main",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: []scriptedGitResponse{
				{result: execshell.ExecutionResult{StandardOutput: testCase.porcelain}},
				{result: execshell.ExecutionResult{StandardOutput: testCase.shortBranch}},
			}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			syncStatus, statusError := manager.SyncStatus(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, statusError)
			require.Equal(testInstance, testCase.expectedStatus, syncStatus)
		})
	}
}

func TestRenameCurrentBranchInvokesForcedMove(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	renameError := manager.RenameCurrentBranch(context.Background(), testRepositoryPathConstant, testBranchNameConstant)
	require.NoError(testInstance, renameError)
	require.Equal(testInstance, []string{"branch", "-M", testBranchNameConstant}, executor.recorded[0].Arguments)
}
