package tapsetup

import "time"

// CurrentSchemaVersion is written into every persisted state file.
const CurrentSchemaVersion = 1

// StepStatus tracks the lifecycle of a single pipeline step.
type StepStatus string

// Step statuses. Transitions are monotonic: pending may become succeeded,
// skipped, or failed; failed may become succeeded or skipped on a retry;
// succeeded and skipped are terminal.
const (
	StepStatusPending   StepStatus = StepStatus("pending")
	StepStatusSucceeded StepStatus = StepStatus("succeeded")
	StepStatusSkipped   StepStatus = StepStatus("skipped")
	StepStatusFailed    StepStatus = StepStatus("failed")
)

// RunStatus tracks the overall run lifecycle.
type RunStatus string

// Run statuses.
const (
	RunStatusInProgress RunStatus = RunStatus("in_progress")
	RunStatusCompleted  RunStatus = RunStatus("completed")
	RunStatusHalted     RunStatus = RunStatus("halted")
)

// Artifacts holds the named values a step produced for later steps and the
// final summary.
type Artifacts map[string]string

// StepRecord is the persisted outcome of one pipeline step.
type StepRecord struct {
	Name        StepName   `json:"name"`
	Status      StepStatus `json:"status"`
	DryRun      bool       `json:"dry_run,omitempty"`
	ErrorDetail string     `json:"error,omitempty"`
	Artifacts   Artifacts  `json:"artifacts,omitempty"`
	StartedAt   string     `json:"started_at,omitempty"`
	FinishedAt  string     `json:"finished_at,omitempty"`
}

// RunState is the persisted record of a provisioning run. The file on disk is
// the single source of truth; no progress is kept anywhere else.
type RunState struct {
	SchemaVersion int           `json:"schema_version"`
	RunIdentifier string        `json:"run_id"`
	Inputs        RunInputs     `json:"inputs"`
	Status        RunStatus     `json:"status"`
	Steps         []*StepRecord `json:"steps"`
	StartedAt     string        `json:"started_at"`
	UpdatedAt     string        `json:"updated_at"`
}

// NewRunState builds the initial state for a run with every known step
// recorded as pending.
func NewRunState(runIdentifier string, inputs RunInputs, currentTime time.Time) *RunState {
	timestamp := formatTimestamp(currentTime)
	state := &RunState{
		SchemaVersion: CurrentSchemaVersion,
		RunIdentifier: runIdentifier,
		Inputs:        inputs,
		Status:        RunStatusInProgress,
		StartedAt:     timestamp,
		UpdatedAt:     timestamp,
	}
	state.EnsureStepRecords(PipelineStepNames)
	return state
}

// EnsureStepRecords appends pending records for the provided step names that
// are missing, preserving existing records and their order.
func (state *RunState) EnsureStepRecords(stepNames []StepName) {
	for _, stepName := range stepNames {
		if _, found := state.StepRecord(stepName); found {
			continue
		}
		state.Steps = append(state.Steps, &StepRecord{Name: stepName, Status: StepStatusPending})
	}
}

// StepRecord returns the record for the named step.
func (state *RunState) StepRecord(stepName StepName) (*StepRecord, bool) {
	for _, record := range state.Steps {
		if record.Name == stepName {
			return record, true
		}
	}
	return nil, false
}

// Artifact looks up a named artifact across every recorded step.
func (state *RunState) Artifact(artifactName string) (string, bool) {
	for _, record := range state.Steps {
		if artifactValue, found := record.Artifacts[artifactName]; found {
			return artifactValue, true
		}
	}
	return "", false
}

func formatTimestamp(currentTime time.Time) string {
	return currentTime.UTC().Format(time.RFC3339)
}
