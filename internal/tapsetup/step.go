package tapsetup

import "context"

// StepName identifies one pipeline step.
type StepName string

// Pipeline step names in execution order.
const (
	StepNamePreflight  StepName = StepName("preflight")
	StepNameTapNew     StepName = StepName("tap-new")
	StepNameRepoCreate StepName = StepName("repo-create")
	StepNameAddFormula StepName = StepName("add-formula")
	StepNameCommitPush StepName = StepName("commit-push")
	StepNameValidate   StepName = StepName("validate")
)

// Artifact names produced by pipeline steps.
const (
	ArtifactTapPath       = "tap_path"
	ArtifactRepositoryURL = "repo_url"
	ArtifactFormulaName   = "formula_name"
	ArtifactFormulaPath   = "formula_path"
	ArtifactBranchName    = "branch"
	ArtifactTapIdentifier = "tap_identifier"
)

// PipelineStepNames lists every pipeline step in execution order.
var PipelineStepNames = []StepName{
	StepNamePreflight,
	StepNameTapNew,
	StepNameRepoCreate,
	StepNameAddFormula,
	StepNameCommitPush,
	StepNameValidate,
}

// CheckResult is the outcome of a side-effect-free idempotency probe.
type CheckResult int

// Check outcomes.
const (
	CheckNeedsApply CheckResult = iota
	CheckAlreadyDone
)

// Step is one unit of the provisioning pipeline. Check must be free of side
// effects; Apply with dryRun true computes artifacts without mutating
// anything; Validate confirms the outcome of a real apply.
type Step interface {
	Name() StepName
	Requires() []string
	Check(executionContext context.Context, state *RunState) (CheckResult, error)
	Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error)
	Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error
}
