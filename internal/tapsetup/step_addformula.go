package tapsetup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tyemirov/tapsmith/internal/brewcli"
)

const (
	formulaDirectoryNameConstant     = "Formula"
	formulaFileTemplateConstant      = "%s.rb"
	formulaNameUnderivableMessage    = "could not derive a formula name from the source url; pass one explicitly"
	formulaFileMissingTemplateFmt    = "formula file %s was not created"
	formulaAmbiguousCountTemplateFmt = "expected one formula in %s, found %d"
	formulaStubTemplateConstant      = `class %s < Formula
  desc "TODO: one-line description"
  homepage "https://github.com/%s"
  url "TODO: https://example.com/archive.tar.gz"
  sha256 "TODO"
  license "TODO"

  def install
    # TODO: install the software
  end

  test do
    system "false"
  end
end
`
)

// AddFormulaStep places the first formula into the tap, either as an editable
// stub or through brew create against a source url.
type AddFormulaStep struct {
	brewClient    BrewService
	fileSystem    FileSystem
	editorCommand string
}

// NewAddFormulaStep constructs an AddFormulaStep.
func NewAddFormulaStep(brewClient BrewService, fileSystem FileSystem, editorCommand string) *AddFormulaStep {
	return &AddFormulaStep{brewClient: brewClient, fileSystem: fileSystem, editorCommand: editorCommand}
}

// Name identifies the step.
func (step *AddFormulaStep) Name() StepName {
	return StepNameAddFormula
}

// Requires declares the tap checkout produced by tap-new.
func (step *AddFormulaStep) Requires() []string {
	return []string{ArtifactTapPath}
}

// Check reports AlreadyDone when the tap already contains the expected
// formula file, or any formula at all in brew-create mode.
func (step *AddFormulaStep) Check(executionContext context.Context, state *RunState) (CheckResult, error) {
	tapPath, _ := state.Artifact(ArtifactTapPath)
	formulaDirectory := filepath.Join(tapPath, formulaDirectoryNameConstant)

	if state.Inputs.FormulaMode == FormulaModeStub {
		stubName, nameError := step.formulaName(state)
		if nameError != nil {
			return CheckNeedsApply, nameError
		}
		stubPath := filepath.Join(formulaDirectory, fmt.Sprintf(formulaFileTemplateConstant, stubName))
		if step.fileSystem.FileExists(stubPath) {
			return CheckAlreadyDone, nil
		}
		return CheckNeedsApply, nil
	}

	if !step.fileSystem.DirectoryExists(formulaDirectory) {
		return CheckNeedsApply, nil
	}
	formulaNames, listError := step.fileSystem.ListFormulaNames(formulaDirectory)
	if listError != nil {
		return CheckNeedsApply, listError
	}
	if len(formulaNames) > 0 {
		return CheckAlreadyDone, nil
	}
	return CheckNeedsApply, nil
}

// Apply writes the stub or runs brew create, then records the formula name
// and location. In dry-run mode only the expected location is computed.
func (step *AddFormulaStep) Apply(executionContext context.Context, state *RunState, dryRun bool) (Artifacts, error) {
	tapPath, _ := state.Artifact(ArtifactTapPath)
	formulaDirectory := filepath.Join(tapPath, formulaDirectoryNameConstant)

	formulaName, nameError := step.formulaName(state)
	if nameError != nil {
		return nil, nameError
	}
	formulaPath := filepath.Join(formulaDirectory, fmt.Sprintf(formulaFileTemplateConstant, formulaName))

	if dryRun {
		return Artifacts{ArtifactFormulaName: formulaName, ArtifactFormulaPath: formulaPath}, nil
	}

	if state.Inputs.FormulaMode == FormulaModeStub {
		if directoryError := step.fileSystem.EnsureDirectory(formulaDirectory); directoryError != nil {
			return nil, directoryError
		}
		if !step.fileSystem.FileExists(formulaPath) {
			stubContent := fmt.Sprintf(formulaStubTemplateConstant, rubyClassName(formulaName), state.Inputs.RepositorySlug())
			if writeError := step.fileSystem.WriteFile(formulaPath, []byte(stubContent)); writeError != nil {
				return nil, writeError
			}
		}
		return Artifacts{ArtifactFormulaName: formulaName, ArtifactFormulaPath: formulaPath}, nil
	}

	creationError := step.brewClient.CreateFormula(executionContext, brewcli.FormulaCreateOptions{
		TapIdentifier: state.Inputs.PreferredTapIdentifier(),
		SourceURL:     state.Inputs.FormulaURL,
		FormulaName:   formulaName,
		EditorCommand: step.editorCommand,
	})
	if creationError != nil {
		return nil, creationError
	}
	return Artifacts{ArtifactFormulaName: formulaName, ArtifactFormulaPath: formulaPath}, nil
}

// Validate confirms the recorded formula file exists and, in brew-create
// mode, that the tap holds exactly one formula.
func (step *AddFormulaStep) Validate(executionContext context.Context, state *RunState, artifacts Artifacts) error {
	formulaPath := artifacts[ArtifactFormulaPath]
	if !step.fileSystem.FileExists(formulaPath) {
		return fmt.Errorf(formulaFileMissingTemplateFmt, formulaPath)
	}
	if state.Inputs.FormulaMode == FormulaModeBrewCreate {
		formulaDirectory := filepath.Dir(formulaPath)
		formulaNames, listError := step.fileSystem.ListFormulaNames(formulaDirectory)
		if listError != nil {
			return listError
		}
		if len(formulaNames) != 1 {
			return fmt.Errorf(formulaAmbiguousCountTemplateFmt, formulaDirectory, len(formulaNames))
		}
	}
	return nil
}

func (step *AddFormulaStep) formulaName(state *RunState) (string, error) {
	if len(state.Inputs.FormulaName) > 0 {
		return state.Inputs.FormulaName, nil
	}
	if state.Inputs.FormulaMode == FormulaModeStub {
		return state.Inputs.TapShortName, nil
	}
	derivedName := DeriveFormulaNameFromURL(state.Inputs.FormulaURL)
	if len(derivedName) == 0 {
		return "", InvalidInputsError{Message: formulaNameUnderivableMessage}
	}
	return derivedName, nil
}

// rubyClassName converts a formula name into the CamelCase class name
// Homebrew expects, treating hyphens, underscores, and dots as separators.
func rubyClassName(formulaName string) string {
	separators := func(candidate rune) bool {
		return candidate == '-' || candidate == '_' || candidate == '.'
	}
	nameParts := strings.FieldsFunc(formulaName, separators)
	classNameBuilder := &strings.Builder{}
	for _, namePart := range nameParts {
		partRunes := []rune(namePart)
		classNameBuilder.WriteString(strings.ToUpper(string(partRunes[0])))
		classNameBuilder.WriteString(string(partRunes[1:]))
	}
	return classNameBuilder.String()
}
