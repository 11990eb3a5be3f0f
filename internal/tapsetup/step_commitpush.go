package tapsetup

import (
	"context"
	"fmt"
)

const (
	tapCommitMessageConstant        = "Add formula"
	branchBehindTemplateConstant    = "branch %s is behind its upstream by %d commits; pull before resuming"
	worktreeNotSyncedTemplateFmtStr = "tap worktree at %s is not fully pushed"
)

// CommitPushStep commits any pending tap changes and pushes the branch to
// origin.
type CommitPushStep struct {
	gitManager GitService
}

// NewCommitPushStep constructs a CommitPushStep.
func NewCommitPushStep(gitManager GitService) *CommitPushStep {
	return &CommitPushStep{gitManager: gitManager}
}

// Name identifies the step.
func (step *CommitPushStep) Name() StepName {
	return StepNameCommitPush
}

// Requires declares the tap checkout produced by tap-new.
func (step *CommitPushStep) Requires() []string {
	return []string{ArtifactTapPath}
}

// Check reports AlreadyDone when the worktree is clean and the branch is
// fully pushed. A branch behind its upstream halts the run so the operator
// can reconcile out-of-band changes.
func (step *CommitPushStep) Check(executionContext context.Context, state *RunState) (CheckResult, error) {
	tapPath, _ := state.Artifact(ArtifactTapPath)
	syncStatus, statusError := step.gitManager.SyncStatus(executionContext, tapPath)
	if statusError != nil {
		return CheckNeedsApply, statusError
	}
	if syncStatus.BehindCount > 0 {
		return CheckNeedsApply, fmt.Errorf(branchBehindTemplateConstant, syncStatus.BranchName, syncStatus.BehindCount)
	}
	if !syncStatus.Dirty && syncStatus.AheadCount == 0 && syncStatus.HasUpstream {
		return CheckAlreadyDone, nil
	}
	return CheckNeedsApply, nil
}

// Apply stages, commits, and pushes whatever the earlier steps left in the
// tap. In dry-run mode only the target branch is recorded.
func (step *CommitPushStep) Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error) {
	if dryRun {
		return Artifacts{ArtifactBranchName: state.Inputs.BranchName}, nil
	}

	tapPath, _ := state.Artifact(ArtifactTapPath)
	syncStatus, statusError := step.gitManager.SyncStatus(executionContext, tapPath)
	if statusError != nil {
		return nil, statusError
	}
	if syncStatus.BehindCount > 0 {
		return nil, fmt.Errorf(branchBehindTemplateConstant, syncStatus.BranchName, syncStatus.BehindCount)
	}

	if syncStatus.Dirty {
		if stageError := step.gitManager.StageAll(executionContext, tapPath); stageError != nil {
			return nil, stageError
		}
		if commitError := step.gitManager.CommitChanges(executionContext, tapPath, tapCommitMessageConstant); commitError != nil {
			return nil, commitError
		}
		syncStatus, statusError = step.gitManager.SyncStatus(executionContext, tapPath)
		if statusError != nil {
			return nil, statusError
		}
		if syncStatus.BehindCount > 0 {
			return nil, fmt.Errorf(branchBehindTemplateConstant, syncStatus.BranchName, syncStatus.BehindCount)
		}
	}

	if syncStatus.AheadCount > 0 || !syncStatus.HasUpstream {
		pushError := step.gitManager.PushBranch(executionContext, tapPath, originRemoteNameConstant, syncStatus.BranchName, !syncStatus.HasUpstream)
		if pushError != nil {
			return nil, pushError
		}
	}

	return Artifacts{ArtifactBranchName: syncStatus.BranchName}, nil
}

// Validate confirms the worktree is clean and in sync with its upstream.
func (step *CommitPushStep) Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error {
	tapPath, _ := state.Artifact(ArtifactTapPath)
	worktreeClean, cleanError := step.gitManager.CheckCleanWorktree(executionContext, tapPath)
	if cleanError != nil {
		return cleanError
	}
	syncStatus, statusError := step.gitManager.SyncStatus(executionContext, tapPath)
	if statusError != nil {
		return statusError
	}
	if !worktreeClean || syncStatus.AheadCount > 0 || !syncStatus.HasUpstream {
		return fmt.Errorf(worktreeNotSyncedTemplateFmtStr, tapPath)
	}
	return nil
}
