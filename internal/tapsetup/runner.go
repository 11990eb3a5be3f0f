package tapsetup

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
)

const (
	runnerStepFieldNameConstant       = "step"
	runnerRunFieldNameConstant        = "run_id"
	runnerStepSkippedMessageConstant  = "step already satisfied"
	runnerStepSucceededMessage        = "step succeeded"
	runnerStepFailedMessageConstant   = "step failed"
	runnerStepFastPathMessageConstant = "step previously completed"
	runnerStepRequeuedMessageConstant = "discarding dry-run result; applying for real"
	runnerRunCompletedMessageConstant = "run completed"
	runnerRunHaltedMessageConstant    = "run halted"
)

// ErrStoreNotConfigured signals a runner built without a state store.
var ErrStoreNotConfigured = errors.New("state store not configured")

// ErrPipelineEmpty signals a runner built without steps.
var ErrPipelineEmpty = errors.New("pipeline has no steps")

// StatePersister is the persistence surface the runner drives.
type StatePersister interface {
	Save(state *RunState) error
	StatePath(runIdentifier string) string
}

// RunOutcome reports how a run ended.
type RunOutcome struct {
	Status     RunStatus
	FailedStep StepName
}

// Runner walks the pipeline over a run state, persisting after every status
// change so an interrupted run can resume from the record on disk.
type Runner struct {
	steps  []Step
	store  StatePersister
	logger *zap.Logger
	output io.Writer
	clock  func() time.Time
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Steps  []Step
	Store  StatePersister
	Logger *zap.Logger
	Output io.Writer
	Clock  func() time.Time
}

// NewRunner validates the options and constructs a Runner.
func NewRunner(options RunnerOptions) (*Runner, error) {
	if options.Store == nil {
		return nil, ErrStoreNotConfigured
	}
	if len(options.Steps) == 0 {
		return nil, ErrPipelineEmpty
	}
	runner := &Runner{
		steps:  options.Steps,
		store:  options.Store,
		logger: options.Logger,
		output: options.Output,
		clock:  options.Clock,
	}
	if runner.logger == nil {
		runner.logger = zap.NewNop()
	}
	if runner.output == nil {
		runner.output = io.Discard
	}
	if runner.clock == nil {
		runner.clock = time.Now
	}
	return runner, nil
}

// Run executes every remaining step of the pipeline. It returns a halted
// outcome together with the classified step error when a step fails, and a
// completed outcome after the final step succeeds.
func (runner *Runner) Run(executionContext context.Context, state *RunState) (RunOutcome, error) {
	state.Status = RunStatusInProgress
	if saveError := runner.store.Save(state); saveError != nil {
		return RunOutcome{}, saveError
	}

	for _, step := range runner.steps {
		record, found := state.StepRecord(step.Name())
		if !found {
			return RunOutcome{}, StateCorruptError{RunIdentifier: state.RunIdentifier, Cause: errors.New("state is missing a record for step " + string(step.Name()))}
		}
		if record.Status == StepStatusSucceeded || record.Status == StepStatusSkipped {
			// A success recorded by a dry-run apply never touched the outside
			// world, so a real run must perform the step again.
			if record.Status == StepStatusSucceeded && record.DryRun && !state.Inputs.DryRun {
				record.Status = StepStatusPending
				record.DryRun = false
				record.Artifacts = nil
				record.FinishedAt = ""
				runner.logger.Info(runnerStepRequeuedMessageConstant,
					zap.String(runnerRunFieldNameConstant, state.RunIdentifier),
					zap.String(runnerStepFieldNameConstant, string(step.Name())))
			} else {
				runner.logger.Debug(runnerStepFastPathMessageConstant,
					zap.String(runnerRunFieldNameConstant, state.RunIdentifier),
					zap.String(runnerStepFieldNameConstant, string(step.Name())))
				continue
			}
		}

		record.StartedAt = formatTimestamp(runner.clock())
		record.ErrorDetail = ""

		if dependencyError := runner.checkDependencies(step, state); dependencyError != nil {
			return runner.halt(state, record, dependencyError)
		}

		checkResult, checkError := step.Check(executionContext, state)
		if checkError != nil {
			return runner.halt(state, record, ApplyFailedError{StepName: step.Name(), Cause: checkError})
		}
		if checkResult == CheckAlreadyDone {
			// A dry-run apply computes the step's artifacts without mutating
			// anything, so later steps can still resolve their dependencies.
			artifacts, artifactError := step.Apply(executionContext, state, true)
			if artifactError != nil {
				return runner.halt(state, record, classifyApplyError(step.Name(), artifactError))
			}
			record.Artifacts = artifacts
			record.Status = StepStatusSkipped
			record.DryRun = false
			record.FinishedAt = formatTimestamp(runner.clock())
			runner.logger.Info(runnerStepSkippedMessageConstant,
				zap.String(runnerRunFieldNameConstant, state.RunIdentifier),
				zap.String(runnerStepFieldNameConstant, string(step.Name())))
			if saveError := runner.store.Save(state); saveError != nil {
				return RunOutcome{}, saveError
			}
			continue
		}

		artifacts, applyError := step.Apply(executionContext, state, state.Inputs.DryRun)
		if applyError != nil {
			return runner.halt(state, record, classifyApplyError(step.Name(), applyError))
		}

		if !state.Inputs.DryRun {
			if validateError := step.Validate(executionContext, state, artifacts); validateError != nil {
				return runner.halt(state, record, ValidateFailedError{StepName: step.Name(), Cause: validateError})
			}
		}

		record.Artifacts = artifacts
		record.Status = StepStatusSucceeded
		record.DryRun = state.Inputs.DryRun
		record.FinishedAt = formatTimestamp(runner.clock())
		runner.logger.Info(runnerStepSucceededMessage,
			zap.String(runnerRunFieldNameConstant, state.RunIdentifier),
			zap.String(runnerStepFieldNameConstant, string(step.Name())))
		if saveError := runner.store.Save(state); saveError != nil {
			return RunOutcome{}, saveError
		}
	}

	state.Status = RunStatusCompleted
	if saveError := runner.store.Save(state); saveError != nil {
		return RunOutcome{}, saveError
	}
	runner.logger.Info(runnerRunCompletedMessageConstant, zap.String(runnerRunFieldNameConstant, state.RunIdentifier))

	summary := BuildSummary(state, runner.store.StatePath(state.RunIdentifier))
	if writeError := summary.Write(runner.output); writeError != nil {
		return RunOutcome{}, writeError
	}
	return RunOutcome{Status: RunStatusCompleted}, nil
}

func (runner *Runner) checkDependencies(step Step, state *RunState) error {
	for _, artifactName := range step.Requires() {
		if _, found := state.Artifact(artifactName); !found {
			return MissingDependencyError{StepName: step.Name(), ArtifactName: artifactName}
		}
	}
	return nil
}

// halt records the failure on the step, marks the run halted, and persists
// before propagating so the state on disk always reflects the failure.
func (runner *Runner) halt(state *RunState, record *StepRecord, stepError error) (RunOutcome, error) {
	record.Status = StepStatusFailed
	record.ErrorDetail = stepError.Error()
	record.FinishedAt = formatTimestamp(runner.clock())
	state.Status = RunStatusHalted
	runner.logger.Error(runnerStepFailedMessageConstant,
		zap.String(runnerRunFieldNameConstant, state.RunIdentifier),
		zap.String(runnerStepFieldNameConstant, string(record.Name)),
		zap.Error(stepError))
	if saveError := runner.store.Save(state); saveError != nil {
		return RunOutcome{}, errors.Join(stepError, saveError)
	}
	runner.logger.Warn(runnerRunHaltedMessageConstant, zap.String(runnerRunFieldNameConstant, state.RunIdentifier))
	return RunOutcome{Status: RunStatusHalted, FailedStep: record.Name}, stepError
}

// classifyApplyError preserves already-classified failures and wraps the rest.
func classifyApplyError(stepName StepName, applyError error) error {
	var missingTool MissingToolError
	if errors.As(applyError, &missingTool) {
		return applyError
	}
	var authentication AuthenticationError
	if errors.As(applyError, &authentication) {
		return applyError
	}
	var remoteConflict RemoteAlreadyExistsError
	if errors.As(applyError, &remoteConflict) {
		return applyError
	}
	return ApplyFailedError{StepName: stepName, Cause: applyError}
}
