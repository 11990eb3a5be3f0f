package tapsetup

import (
	"context"
	"fmt"
)

const (
	tapNotRegisteredTemplateConstant  = "tap %s is not registered with brew"
	formulaIdentifierTemplateConstant = "%s/%s"
)

// ValidateTapStep registers the tap with brew and confirms brew can see it.
type ValidateTapStep struct {
	brewClient BrewService
}

// NewValidateTapStep constructs a ValidateTapStep.
func NewValidateTapStep(brewClient BrewService) *ValidateTapStep {
	return &ValidateTapStep{brewClient: brewClient}
}

// Name identifies the step.
func (step *ValidateTapStep) Name() StepName {
	return StepNameValidate
}

// Requires lists no artifacts; registration needs only the run inputs.
func (step *ValidateTapStep) Requires() []string {
	return nil
}

// Check always requests an apply: this step is the final confirmation and is
// never satisfied by an earlier observation.
func (step *ValidateTapStep) Check(executionContext context.Context, state *RunState) (CheckResult, error) {
	return CheckNeedsApply, nil
}

// Apply registers the tap; in dry-run mode it only records the identifier
// operators would pass to brew tap.
func (step *ValidateTapStep) Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error) {
	tapIdentifier := state.Inputs.PreferredTapIdentifier()
	if dryRun {
		return Artifacts{ArtifactTapIdentifier: tapIdentifier}, nil
	}
	if registrationError := step.brewClient.RegisterTap(executionContext, tapIdentifier); registrationError != nil {
		return nil, registrationError
	}
	return Artifacts{ArtifactTapIdentifier: tapIdentifier}, nil
}

// Validate confirms the tap appears in brew's registered tap list under one
// of its accepted identifiers, then audits generated formulas.
func (step *ValidateTapStep) Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error {
	registeredTaps, listError := step.brewClient.ListTaps(executionContext)
	if listError != nil {
		return listError
	}
	tapListed := false
	for _, candidateIdentifier := range state.Inputs.TapIdentifierCandidates() {
		for _, registeredTap := range registeredTaps {
			if registeredTap == candidateIdentifier {
				tapListed = true
				break
			}
		}
	}
	if !tapListed {
		return fmt.Errorf(tapNotRegisteredTemplateConstant, state.Inputs.PreferredTapIdentifier())
	}

	// Stub formulas carry placeholder fields and would never pass an audit.
	if state.Inputs.FormulaMode != FormulaModeBrewCreate {
		return nil
	}
	formulaName, formulaNameRecorded := state.Artifact(ArtifactFormulaName)
	if !formulaNameRecorded {
		return nil
	}
	formulaIdentifier := fmt.Sprintf(formulaIdentifierTemplateConstant, state.Inputs.PreferredTapIdentifier(), formulaName)
	return step.brewClient.AuditFormula(executionContext, formulaIdentifier)
}
