package tapsetup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	runsDirectoryNameConstant       = "runs"
	stateFileNameConstant           = "state.json"
	stateFileTemporaryGlobConstant  = "state-*.json"
	stateDirectoryPermConstant      = 0o755
	stateFilePermConstant           = 0o644
	stateIndentConstant             = "  "
	ownerMismatchFieldConstant      = "owner"
	tapMismatchFieldConstant        = "tap"
	repositoryMismatchFieldConstant = "repo_name"
	visibilityMismatchFieldConstant = "visibility"
	branchMismatchFieldConstant     = "branch"
	formulaModeMismatchConstant     = "formula_mode"
	formulaURLMismatchConstant      = "formula_url"
	formulaNameMismatchConstant     = "formula_name"
)

// ErrStateDirectoryNotConfigured signals a store built without a base directory.
var ErrStateDirectoryNotConfigured = errors.New("state directory not configured")

// StateStore persists run state under <base>/runs/<run-id>/state.json. Every
// save writes a temporary file in the destination directory and renames it
// into place so readers never observe a partial file.
type StateStore struct {
	baseDirectory string
	clock         func() time.Time
}

// NewStateStore constructs a StateStore rooted at baseDirectory.
func NewStateStore(baseDirectory string) (*StateStore, error) {
	if len(baseDirectory) == 0 {
		return nil, ErrStateDirectoryNotConfigured
	}
	return &StateStore{baseDirectory: baseDirectory, clock: time.Now}, nil
}

// StatePath returns the on-disk location of a run's state file.
func (store *StateStore) StatePath(runIdentifier string) string {
	return filepath.Join(store.baseDirectory, runsDirectoryNameConstant, runIdentifier, stateFileNameConstant)
}

// Create mints a run identifier, builds the initial state, and persists it.
func (store *StateStore) Create(inputs RunInputs) (*RunState, error) {
	state := NewRunState(uuid.NewString(), inputs, store.clock())
	if saveError := store.Save(state); saveError != nil {
		return nil, saveError
	}
	return state, nil
}

// Load reads and decodes the persisted state for a run identifier. Records
// for steps added after the state was written are filled in as pending.
func (store *StateStore) Load(runIdentifier string) (*RunState, error) {
	stateContent, readError := os.ReadFile(store.StatePath(runIdentifier))
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, runIdentifier)
		}
		return nil, readError
	}

	state := &RunState{}
	if decodeError := json.Unmarshal(stateContent, state); decodeError != nil {
		return nil, StateCorruptError{RunIdentifier: runIdentifier, Cause: decodeError}
	}
	if len(state.RunIdentifier) == 0 || len(state.Steps) == 0 {
		return nil, StateCorruptError{RunIdentifier: runIdentifier, Cause: errors.New("state file is missing required fields")}
	}

	state.EnsureStepRecords(PipelineStepNames)
	return state, nil
}

// Resume loads a run and verifies that any explicitly provided inputs match
// the stored ones. The dry-run flag is taken from the current invocation.
func (store *StateStore) Resume(runIdentifier string, providedInputs *RunInputs, dryRun bool) (*RunState, error) {
	state, loadError := store.Load(runIdentifier)
	if loadError != nil {
		return nil, loadError
	}
	if providedInputs != nil {
		if mismatchError := compareInputs(state.Inputs, *providedInputs); mismatchError != nil {
			return nil, mismatchError
		}
	}
	state.Inputs.DryRun = dryRun
	return state, nil
}

// Save atomically persists the state and refreshes its updated timestamp.
func (store *StateStore) Save(state *RunState) error {
	state.UpdatedAt = formatTimestamp(store.clock())

	encodedState, encodeError := json.MarshalIndent(state, "", stateIndentConstant)
	if encodeError != nil {
		return encodeError
	}

	statePath := store.StatePath(state.RunIdentifier)
	stateDirectory := filepath.Dir(statePath)
	if directoryError := os.MkdirAll(stateDirectory, stateDirectoryPermConstant); directoryError != nil {
		return directoryError
	}

	temporaryFile, temporaryError := os.CreateTemp(stateDirectory, stateFileTemporaryGlobConstant)
	if temporaryError != nil {
		return temporaryError
	}
	temporaryPath := temporaryFile.Name()

	if _, writeError := temporaryFile.Write(encodedState); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return writeError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return closeError
	}
	if permissionError := os.Chmod(temporaryPath, stateFilePermConstant); permissionError != nil {
		os.Remove(temporaryPath)
		return permissionError
	}
	if renameError := os.Rename(temporaryPath, statePath); renameError != nil {
		os.Remove(temporaryPath)
		return renameError
	}
	return nil
}

func compareInputs(storedInputs RunInputs, providedInputs RunInputs) error {
	if storedInputs.EquivalentTo(providedInputs) {
		return nil
	}
	comparisons := []struct {
		fieldName     string
		storedValue   string
		providedValue string
	}{
		{ownerMismatchFieldConstant, storedInputs.Owner, providedInputs.Owner},
		{tapMismatchFieldConstant, storedInputs.TapShortName, providedInputs.TapShortName},
		{repositoryMismatchFieldConstant, storedInputs.RepositoryName, providedInputs.RepositoryName},
		{visibilityMismatchFieldConstant, string(storedInputs.Visibility), string(providedInputs.Visibility)},
		{branchMismatchFieldConstant, storedInputs.BranchName, providedInputs.BranchName},
		{formulaModeMismatchConstant, string(storedInputs.FormulaMode), string(providedInputs.FormulaMode)},
		{formulaURLMismatchConstant, storedInputs.FormulaURL, providedInputs.FormulaURL},
		{formulaNameMismatchConstant, storedInputs.FormulaName, providedInputs.FormulaName},
	}
	for _, comparison := range comparisons {
		if comparison.storedValue != comparison.providedValue {
			return InputMismatchError{
				FieldName:     comparison.fieldName,
				StoredValue:   comparison.storedValue,
				ProvidedValue: comparison.providedValue,
			}
		}
	}
	return InputMismatchError{FieldName: "inputs", StoredValue: fmt.Sprintf("%+v", storedInputs), ProvidedValue: fmt.Sprintf("%+v", providedInputs)}
}
