// Package flags provides flag names and lookup helpers shared by the
// provisioning commands.
package flags

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// OwnerFlagName exposes the GitHub account flag name.
	OwnerFlagName = "owner"
	// OwnerFlagUsage describes the GitHub account flag purpose.
	OwnerFlagUsage = "GitHub user or organization that owns the tap"
	// TapFlagName exposes the tap short name flag name.
	TapFlagName = "tap"
	// TapFlagUsage describes the tap short name flag purpose.
	TapFlagUsage = "Tap short name without the homebrew- prefix"
	// RepositoryNameFlagName exposes the repository name flag name.
	RepositoryNameFlagName = "repo-name"
	// RepositoryNameFlagUsage describes the repository name flag purpose.
	RepositoryNameFlagUsage = "Repository name (defaults to homebrew-<tap>)"
	// VisibilityFlagName exposes the repository visibility flag name.
	VisibilityFlagName = "visibility"
	// VisibilityFlagUsage describes the repository visibility flag purpose.
	VisibilityFlagUsage = "Repository visibility: public or private"
	// BranchFlagName exposes the branch flag name.
	BranchFlagName = "branch"
	// BranchFlagUsage describes the branch flag purpose.
	BranchFlagUsage = "Branch name for the initial push"
	// FormulaModeFlagName exposes the formula mode flag name.
	FormulaModeFlagName = "formula-mode"
	// FormulaModeFlagUsage describes the formula mode flag purpose.
	FormulaModeFlagUsage = "Formula creation mode: stub or brew-create"
	// FormulaURLFlagName exposes the formula source url flag name.
	FormulaURLFlagName = "formula-url"
	// FormulaURLFlagUsage describes the formula source url flag purpose.
	FormulaURLFlagUsage = "Source tarball url for brew-create mode"
	// FormulaNameFlagName exposes the formula name flag name.
	FormulaNameFlagName = "formula-name"
	// FormulaNameFlagUsage describes the formula name flag purpose.
	FormulaNameFlagUsage = "Formula name override"
	// DryRunFlagName exposes the dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the dry-run flag purpose.
	DryRunFlagUsage = "Plan the run without mutating anything"
	// StateDirectoryFlagName exposes the state directory flag name.
	StateDirectoryFlagName = "state-dir"
	// StateDirectoryFlagUsage describes the state directory flag purpose.
	StateDirectoryFlagUsage = "Directory holding run state files"
)

// ErrFlagNotDefined indicates that the requested flag is not present on the command.
var ErrFlagNotDefined = errors.New("flag not defined")

// BoolFlag returns the flag's boolean value and whether it was set explicitly.
func BoolFlag(command *cobra.Command, name string) (bool, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return false, false, ErrFlagNotDefined
	}
	value, valueError := flagSet.GetBool(name)
	if valueError != nil {
		return false, false, valueError
	}
	return value, flag.Changed, nil
}

// StringFlag returns the flag's string value and whether it was set explicitly.
func StringFlag(command *cobra.Command, name string) (string, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return "", false, ErrFlagNotDefined
	}
	value, valueError := flagSet.GetString(name)
	if valueError != nil {
		return "", false, valueError
	}
	return value, flag.Changed, nil
}

func locateFlag(command *cobra.Command, name string) (*pflag.FlagSet, *pflag.Flag) {
	if command == nil {
		return nil, nil
	}

	candidateSets := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if root := command.Root(); root != nil {
		candidateSets = append(candidateSets, root.PersistentFlags())
	}

	for _, candidateSet := range candidateSets {
		if candidateSet == nil {
			continue
		}
		if flag := candidateSet.Lookup(name); flag != nil {
			return candidateSet, flag
		}
	}
	return nil, nil
}
