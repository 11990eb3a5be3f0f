package tapsetup

import (
	"context"
	"fmt"
	"path/filepath"
)

const (
	gitDirectoryNameConstant       = ".git"
	tapDirectoryNotGitTemplateFmt  = "directory %s exists but is not a git repository"
	tapDirectoryMissingTemplateFmt = "tap directory %s was not created"
)

// TapNewStep scaffolds the local tap repository with brew tap-new.
type TapNewStep struct {
	brewClient BrewService
	fileSystem FileSystem
}

// NewTapNewStep constructs a TapNewStep.
func NewTapNewStep(brewClient BrewService, fileSystem FileSystem) *TapNewStep {
	return &TapNewStep{brewClient: brewClient, fileSystem: fileSystem}
}

// Name identifies the step.
func (step *TapNewStep) Name() StepName {
	return StepNameTapNew
}

// Requires lists no artifacts; the tap path is derived from brew itself.
func (step *TapNewStep) Requires() []string {
	return nil
}

// Check reports AlreadyDone when the tap checkout already exists as a git
// repository, and fails when the directory exists in a non-repository form.
func (step *TapNewStep) Check(executionContext context.Context, state *RunState) (CheckResult, error) {
	tapPath, pathError := step.tapPath(executionContext, state)
	if pathError != nil {
		return CheckNeedsApply, pathError
	}
	if !step.fileSystem.DirectoryExists(tapPath) {
		return CheckNeedsApply, nil
	}
	if !step.fileSystem.DirectoryExists(filepath.Join(tapPath, gitDirectoryNameConstant)) {
		return CheckNeedsApply, fmt.Errorf(tapDirectoryNotGitTemplateFmt, tapPath)
	}
	return CheckAlreadyDone, nil
}

// Apply runs brew tap-new; in dry-run mode it only records where the tap
// would live.
func (step *TapNewStep) Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error) {
	tapPath, pathError := step.tapPath(executionContext, state)
	if pathError != nil {
		return nil, pathError
	}
	if dryRun {
		return Artifacts{ArtifactTapPath: tapPath}, nil
	}
	if creationError := step.brewClient.TapNew(executionContext, state.Inputs.RepositorySlug()); creationError != nil {
		return nil, creationError
	}
	return Artifacts{ArtifactTapPath: tapPath}, nil
}

// Validate confirms the tap checkout exists as a git repository.
func (step *TapNewStep) Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error {
	tapPath := artifacts[ArtifactTapPath]
	if !step.fileSystem.DirectoryExists(tapPath) {
		return fmt.Errorf(tapDirectoryMissingTemplateFmt, tapPath)
	}
	if !step.fileSystem.DirectoryExists(filepath.Join(tapPath, gitDirectoryNameConstant)) {
		return fmt.Errorf(tapDirectoryNotGitTemplateFmt, tapPath)
	}
	return nil
}

func (step *TapNewStep) tapPath(executionContext context.Context, state *RunState) (string, error) {
	if recordedPath, found := state.Artifact(ArtifactTapPath); found {
		return recordedPath, nil
	}
	brewRepositoryRoot, rootError := step.brewClient.RepositoryRoot(executionContext)
	if rootError != nil {
		return "", rootError
	}
	return TapDirectory(brewRepositoryRoot, state.Inputs.Owner, state.Inputs.RepositoryName), nil
}
