package tapsetup

import (
	"context"
	"fmt"
	"strings"

	"github.com/tyemirov/tapsmith/internal/githubcli"
)

const (
	originRemoteNameConstant           = "origin"
	repositoryWebURLTemplateConstant   = "https://github.com/%s"
	gitSuffixConstant                  = ".git"
	sshRemoteURLTemplateConstant       = "git@github.com:%s.git"
	repositoryMissingAfterTemplateFmt  = "repository %s does not exist after creation"
	originMismatchTemplateConstant     = "origin remote %q does not point at %s"
	repositoryURLLookupTemplateFmtText = "could not resolve repository urls for %s: %w"
)

// RepoCreateStep creates the remote GitHub repository from the local tap and
// pushes the initial history.
type RepoCreateStep struct {
	githubClient GitHubService
	gitManager   GitService
}

// NewRepoCreateStep constructs a RepoCreateStep.
func NewRepoCreateStep(githubClient GitHubService, gitManager GitService) *RepoCreateStep {
	return &RepoCreateStep{githubClient: githubClient, gitManager: gitManager}
}

// Name identifies the step.
func (step *RepoCreateStep) Name() StepName {
	return StepNameRepoCreate
}

// Requires declares the tap checkout produced by tap-new.
func (step *RepoCreateStep) Requires() []string {
	return []string{ArtifactTapPath}
}

// Check reports AlreadyDone when the remote repository exists and is the
// origin of the local tap. A remote that exists without being connected to
// the tap is a conflict the run must not steamroll.
func (step *RepoCreateStep) Check(executionContext context.Context, state *RunState) (CheckResult, error) {
	repositorySlug := state.Inputs.RepositorySlug()
	repositoryExists, existsError := step.githubClient.RepositoryExists(executionContext, repositorySlug)
	if existsError != nil {
		return CheckNeedsApply, existsError
	}
	if !repositoryExists {
		return CheckNeedsApply, nil
	}

	tapPath, _ := state.Artifact(ArtifactTapPath)
	originURL, originError := step.gitManager.GetRemoteURL(executionContext, tapPath, originRemoteNameConstant)
	if originError != nil {
		return CheckNeedsApply, RemoteAlreadyExistsError{Repository: repositorySlug, OriginURL: ""}
	}
	if !remoteURLMatchesRepository(originURL, repositorySlug) {
		return CheckNeedsApply, RemoteAlreadyExistsError{Repository: repositorySlug, OriginURL: originURL}
	}
	return CheckAlreadyDone, nil
}

// Apply renames the local branch, creates the remote repository sourced from
// the tap checkout, and records its web URL. In dry-run mode only the URL is
// computed.
func (step *RepoCreateStep) Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error) {
	repositorySlug := state.Inputs.RepositorySlug()
	if dryRun {
		return Artifacts{ArtifactRepositoryURL: fmt.Sprintf(repositoryWebURLTemplateConstant, repositorySlug)}, nil
	}

	tapPath, _ := state.Artifact(ArtifactTapPath)
	if renameError := step.gitManager.RenameCurrentBranch(executionContext, tapPath, state.Inputs.BranchName); renameError != nil {
		return nil, renameError
	}

	visibility := githubcli.RepositoryVisibilityPublic
	if state.Inputs.Visibility == VisibilityPrivate {
		visibility = githubcli.RepositoryVisibilityPrivate
	}
	creationError := step.githubClient.CreateRepository(executionContext, githubcli.RepositoryCreateOptions{
		Repository: repositorySlug,
		SourcePath: tapPath,
		RemoteName: originRemoteNameConstant,
		Visibility: visibility,
		Push:       true,
	})
	if creationError != nil {
		return nil, creationError
	}

	repositoryURLs, urlError := step.githubClient.ResolveRepositoryURLs(executionContext, repositorySlug)
	if urlError != nil {
		return nil, fmt.Errorf(repositoryURLLookupTemplateFmtText, repositorySlug, urlError)
	}
	return Artifacts{ArtifactRepositoryURL: repositoryURLs.WebURL}, nil
}

// Validate confirms the remote exists and is wired as the tap's origin.
func (step *RepoCreateStep) Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error {
	repositorySlug := state.Inputs.RepositorySlug()
	repositoryExists, existsError := step.githubClient.RepositoryExists(executionContext, repositorySlug)
	if existsError != nil {
		return existsError
	}
	if !repositoryExists {
		return fmt.Errorf(repositoryMissingAfterTemplateFmt, repositorySlug)
	}

	tapPath, _ := state.Artifact(ArtifactTapPath)
	originURL, originError := step.gitManager.GetRemoteURL(executionContext, tapPath, originRemoteNameConstant)
	if originError != nil {
		return originError
	}
	if !remoteURLMatchesRepository(originURL, repositorySlug) {
		return fmt.Errorf(originMismatchTemplateConstant, originURL, repositorySlug)
	}
	return nil
}

// remoteURLMatchesRepository accepts both the https and ssh spellings of a
// repository remote, with or without the .git suffix.
func remoteURLMatchesRepository(remoteURL string, repositorySlug string) bool {
	normalizedRemote := strings.TrimSuffix(strings.TrimSpace(remoteURL), gitSuffixConstant)
	webURL := fmt.Sprintf(repositoryWebURLTemplateConstant, repositorySlug)
	sshURL := strings.TrimSuffix(fmt.Sprintf(sshRemoteURLTemplateConstant, repositorySlug), gitSuffixConstant)
	return normalizedRemote == webURL || normalizedRemote == sshURL
}
