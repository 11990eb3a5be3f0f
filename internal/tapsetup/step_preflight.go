package tapsetup

import (
	"context"
	"fmt"

	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	versionFlagConstant         = "--version"
	gitToolLabelConstant        = "git"
	githubCLIToolLabelConstant  = "gh"
	brewToolLabelConstant       = "brew"
	toolProbeFailedTemplateFmt  = "%s is installed but not responding: %w"
)

type toolProbe struct {
	toolLabel string
	execute   func(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// PreflightStep verifies that git, gh, and brew are installed and that the
// GitHub CLI is authenticated. Every probe is read-only, so the step runs the
// same way during a dry run.
type PreflightStep struct {
	executor     CommandExecutor
	githubClient GitHubService
}

// NewPreflightStep constructs a PreflightStep.
func NewPreflightStep(executor CommandExecutor, githubClient GitHubService) *PreflightStep {
	return &PreflightStep{executor: executor, githubClient: githubClient}
}

// Name identifies the step.
func (step *PreflightStep) Name() StepName {
	return StepNamePreflight
}

// Requires lists no artifacts; preflight runs first.
func (step *PreflightStep) Requires() []string {
	return nil
}

// Check always requests an apply so the environment is probed on every fresh
// attempt.
func (step *PreflightStep) Check(executionContext context.Context, state *RunState) (CheckResult, error) {
	return CheckNeedsApply, nil
}

// Apply probes every required tool and the GitHub CLI authentication state.
func (step *PreflightStep) Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error) {
	probes := []toolProbe{
		{toolLabel: gitToolLabelConstant, execute: step.executor.ExecuteGit},
		{toolLabel: githubCLIToolLabelConstant, execute: step.executor.ExecuteGitHubCLI},
		{toolLabel: brewToolLabelConstant, execute: step.executor.ExecuteBrew},
	}

	missingTools := []string{}
	for _, probe := range probes {
		_, probeError := probe.execute(executionContext, execshell.CommandDetails{Arguments: []string{versionFlagConstant}})
		if probeError == nil {
			continue
		}
		if execshell.IsExecutableNotFound(probeError) {
			missingTools = append(missingTools, probe.toolLabel)
			continue
		}
		return nil, fmt.Errorf(toolProbeFailedTemplateFmt, probe.toolLabel, probeError)
	}
	if len(missingTools) > 0 {
		return nil, MissingToolError{ToolNames: missingTools}
	}

	if authenticationError := step.githubClient.CheckAuthentication(executionContext); authenticationError != nil {
		return nil, AuthenticationError{Cause: authenticationError}
	}

	return Artifacts{}, nil
}

// Validate has nothing further to confirm; the apply is itself the check.
func (step *PreflightStep) Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error {
	return nil
}
