package cli

import "strings"

const (
	defaultVisibilityConstant    = "public"
	defaultBranchConstant        = "main"
	defaultFormulaModeConstant   = "stub"
	defaultEditorCommandConstant = "/usr/bin/true"
)

// CommandConfiguration captures configurable defaults for the provisioning
// commands.
type CommandConfiguration struct {
	Owner          string `mapstructure:"owner"`
	Tap            string `mapstructure:"tap"`
	RepositoryName string `mapstructure:"repo_name"`
	Visibility     string `mapstructure:"visibility"`
	Branch         string `mapstructure:"branch"`
	FormulaMode    string `mapstructure:"formula_mode"`
	FormulaURL     string `mapstructure:"formula_url"`
	FormulaName    string `mapstructure:"formula_name"`
	StateDirectory string `mapstructure:"state_dir"`
	EditorCommand  string `mapstructure:"editor_command"`
}

// DefaultCommandConfiguration returns baseline values for the provisioning
// commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Visibility:    defaultVisibilityConstant,
		Branch:        defaultBranchConstant,
		FormulaMode:   defaultFormulaModeConstant,
		EditorCommand: defaultEditorCommandConstant,
	}
}

// Sanitize trims whitespace from configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Owner = strings.TrimSpace(configuration.Owner)
	sanitized.Tap = strings.TrimSpace(configuration.Tap)
	sanitized.RepositoryName = strings.TrimSpace(configuration.RepositoryName)
	sanitized.Visibility = strings.TrimSpace(configuration.Visibility)
	sanitized.Branch = strings.TrimSpace(configuration.Branch)
	sanitized.FormulaMode = strings.TrimSpace(configuration.FormulaMode)
	sanitized.FormulaURL = strings.TrimSpace(configuration.FormulaURL)
	sanitized.FormulaName = strings.TrimSpace(configuration.FormulaName)
	sanitized.StateDirectory = strings.TrimSpace(configuration.StateDirectory)
	sanitized.EditorCommand = strings.TrimSpace(configuration.EditorCommand)
	return sanitized
}
