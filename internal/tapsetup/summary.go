package tapsetup

import (
	"fmt"
	"io"
	"strings"
)

const (
	summaryHeaderConstant             = "Tap provisioning complete"
	summaryDryRunHeaderConstant       = "Tap provisioning plan (dry run)"
	summaryLineTemplateConstant       = "  %-12s %s\n"
	summaryRunLabelConstant           = "run"
	summaryRepositoryLabelConstant    = "repository"
	summaryTapPathLabelConstant       = "tap path"
	summaryStatePathLabelConstant     = "state"
	summaryFormulaLabelConstant       = "formula"
	summaryBranchLabelConstant        = "branch"
	summaryInstallHintTemplate        = "\nInstall with:\n  brew tap %s\n  brew install %s\n"
	summaryStepsHeaderConstant        = "\nSteps:\n"
	summaryStepLineTemplateConstant   = "  %-12s %s\n"
	summaryValueMissingConstant       = "-"
	summaryRepositoryWebURLTemplate   = "https://github.com/%s"
	summaryFormulaLocationTemplateFmt = "%s (%s)"
)

// Summary is the human-facing report of a finished run.
type Summary struct {
	RunIdentifier   string
	DryRun          bool
	RepositorySlug  string
	RepositoryURL   string
	TapPath         string
	StatePath       string
	FormulaName     string
	FormulaPath     string
	BranchName      string
	TapIdentifier   string
	StepStatuses    []StepStatusLine
	InstallHintName string
}

// StepStatusLine pairs a step with its recorded status for display.
type StepStatusLine struct {
	Name   StepName
	Status StepStatus
}

// BuildSummary assembles the report from the final run state.
func BuildSummary(state *RunState, statePath string) Summary {
	summary := Summary{
		RunIdentifier:  state.RunIdentifier,
		DryRun:         state.Inputs.DryRun,
		RepositorySlug: state.Inputs.RepositorySlug(),
		StatePath:      statePath,
		TapIdentifier:  state.Inputs.PreferredTapIdentifier(),
	}

	if repositoryURL, found := state.Artifact(ArtifactRepositoryURL); found {
		summary.RepositoryURL = repositoryURL
	} else {
		summary.RepositoryURL = fmt.Sprintf(summaryRepositoryWebURLTemplate, summary.RepositorySlug)
	}
	summary.TapPath, _ = state.Artifact(ArtifactTapPath)
	summary.FormulaName, _ = state.Artifact(ArtifactFormulaName)
	summary.FormulaPath, _ = state.Artifact(ArtifactFormulaPath)
	summary.BranchName, _ = state.Artifact(ArtifactBranchName)
	summary.InstallHintName = summary.FormulaName

	for _, record := range state.Steps {
		summary.StepStatuses = append(summary.StepStatuses, StepStatusLine{Name: record.Name, Status: record.Status})
	}
	return summary
}

// Write renders the summary to the provided writer.
func (summary Summary) Write(output io.Writer) error {
	reportBuilder := &strings.Builder{}

	header := summaryHeaderConstant
	if summary.DryRun {
		header = summaryDryRunHeaderConstant
	}
	fmt.Fprintf(reportBuilder, "%s\n", header)
	fmt.Fprintf(reportBuilder, summaryLineTemplateConstant, summaryRunLabelConstant, summary.RunIdentifier)
	fmt.Fprintf(reportBuilder, summaryLineTemplateConstant, summaryRepositoryLabelConstant, orMissing(summary.RepositoryURL))
	fmt.Fprintf(reportBuilder, summaryLineTemplateConstant, summaryTapPathLabelConstant, orMissing(summary.TapPath))
	fmt.Fprintf(reportBuilder, summaryLineTemplateConstant, summaryBranchLabelConstant, orMissing(summary.BranchName))
	fmt.Fprintf(reportBuilder, summaryLineTemplateConstant, summaryFormulaLabelConstant, formulaLocation(summary.FormulaName, summary.FormulaPath))
	fmt.Fprintf(reportBuilder, summaryLineTemplateConstant, summaryStatePathLabelConstant, orMissing(summary.StatePath))

	fmt.Fprint(reportBuilder, summaryStepsHeaderConstant)
	for _, statusLine := range summary.StepStatuses {
		fmt.Fprintf(reportBuilder, summaryStepLineTemplateConstant, statusLine.Name, statusLine.Status)
	}

	if !summary.DryRun && len(summary.InstallHintName) > 0 {
		fmt.Fprintf(reportBuilder, summaryInstallHintTemplate, summary.TapIdentifier, summary.InstallHintName)
	}

	_, writeError := io.WriteString(output, reportBuilder.String())
	return writeError
}

func orMissing(value string) string {
	if len(value) == 0 {
		return summaryValueMissingConstant
	}
	return value
}

func formulaLocation(formulaName string, formulaPath string) string {
	if len(formulaName) == 0 {
		return summaryValueMissingConstant
	}
	if len(formulaPath) == 0 {
		return formulaName
	}
	return fmt.Sprintf(summaryFormulaLocationTemplateFmt, formulaName, formulaPath)
}
