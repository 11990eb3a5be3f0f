package tapsetup

import (
	"errors"
	"fmt"
	"strings"
)

const (
	stateNotFoundMessageConstant        = "run state not found"
	stateCorruptTemplateConstant        = "run state for %s is corrupt: %v"
	missingToolsTemplateConstant        = "required tools not found: %s"
	authenticationTemplateConstant      = "github cli is not authenticated: %v"
	applyFailedTemplateConstant         = "step %s failed: %v"
	validateFailedTemplateConstant      = "step %s validation failed: %v"
	missingDependencyTemplateConstant   = "step %s requires artifact %q which no earlier step produced"
	inputMismatchTemplateConstant       = "stored run was created with different inputs (%s: stored %q, provided %q)"
	remoteAlreadyExistsTemplateConstant = "repository %s already exists and is not connected to the local tap (origin: %q)"
	toolNameSeparatorConstant           = ", "
)

// ErrStateNotFound reports that no persisted state exists for a run
// identifier.
var ErrStateNotFound = errors.New(stateNotFoundMessageConstant)

// StateCorruptError reports persisted state that could not be decoded.
type StateCorruptError struct {
	RunIdentifier string
	Cause         error
}

// Error describes the corrupt state file.
func (corruptError StateCorruptError) Error() string {
	return fmt.Sprintf(stateCorruptTemplateConstant, corruptError.RunIdentifier, corruptError.Cause)
}

// Unwrap exposes the decoding failure.
func (corruptError StateCorruptError) Unwrap() error {
	return corruptError.Cause
}

// MissingToolError reports executables the preflight step could not find.
type MissingToolError struct {
	ToolNames []string
}

// Error lists the missing executables.
func (toolError MissingToolError) Error() string {
	return fmt.Sprintf(missingToolsTemplateConstant, strings.Join(toolError.ToolNames, toolNameSeparatorConstant))
}

// AuthenticationError reports a failed GitHub CLI authentication check.
type AuthenticationError struct {
	Cause error
}

// Error describes the authentication failure.
func (authError AuthenticationError) Error() string {
	return fmt.Sprintf(authenticationTemplateConstant, authError.Cause)
}

// Unwrap exposes the underlying command failure.
func (authError AuthenticationError) Unwrap() error {
	return authError.Cause
}

// ApplyFailedError wraps a failure raised while a step attempted to make
// progress.
type ApplyFailedError struct {
	StepName StepName
	Cause    error
}

// Error identifies the failing step.
func (applyError ApplyFailedError) Error() string {
	return fmt.Sprintf(applyFailedTemplateConstant, applyError.StepName, applyError.Cause)
}

// Unwrap exposes the step failure.
func (applyError ApplyFailedError) Unwrap() error {
	return applyError.Cause
}

// ValidateFailedError reports a step whose apply finished but whose outcome
// could not be confirmed.
type ValidateFailedError struct {
	StepName StepName
	Cause    error
}

// Error identifies the step that failed validation.
func (validateError ValidateFailedError) Error() string {
	return fmt.Sprintf(validateFailedTemplateConstant, validateError.StepName, validateError.Cause)
}

// Unwrap exposes the validation failure.
func (validateError ValidateFailedError) Unwrap() error {
	return validateError.Cause
}

// MissingDependencyError reports a step whose declared artifact requirements
// were not satisfied by any earlier step.
type MissingDependencyError struct {
	StepName     StepName
	ArtifactName string
}

// Error names the step and the missing artifact.
func (dependencyError MissingDependencyError) Error() string {
	return fmt.Sprintf(missingDependencyTemplateConstant, dependencyError.StepName, dependencyError.ArtifactName)
}

// InputMismatchError reports a resume attempt whose inputs differ from the
// stored ones.
type InputMismatchError struct {
	FieldName     string
	StoredValue   string
	ProvidedValue string
}

// Error describes the conflicting field.
func (mismatchError InputMismatchError) Error() string {
	return fmt.Sprintf(inputMismatchTemplateConstant, mismatchError.FieldName, mismatchError.StoredValue, mismatchError.ProvidedValue)
}

// RemoteAlreadyExistsError reports a remote repository that exists but is not
// the local tap's origin, which provisioning must not overwrite.
type RemoteAlreadyExistsError struct {
	Repository string
	OriginURL  string
}

// Error describes the conflicting remote.
func (remoteError RemoteAlreadyExistsError) Error() string {
	return fmt.Sprintf(remoteAlreadyExistsTemplateConstant, remoteError.Repository, remoteError.OriginURL)
}
