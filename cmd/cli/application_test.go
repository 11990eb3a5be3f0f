package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/tapsmith/cmd/cli"
	setupcli "github.com/tyemirov/tapsmith/internal/tapsetup/cli"
)

const (
	testConfigurationFileNameConstant          = "config.yaml"
	testConfigurationSearchPathEnvironmentName = "TAPSMITH_CONFIG_SEARCH_PATH"
	testVersionCommandNameConstant             = "version"
	testVersionOutputPrefixConstant            = "tapsmith "
	testValidConfigurationDocumentConstant     = "common:\n  log_level: warn\n  log_format: console\n"
	testInvalidConfigurationDocumentConstant   = "common:\n  log_level: shouting\n"
	testMalformedConfigurationDocumentConstant = "common: [\n"
)

func writeTestConfiguration(testInstance *testing.T, configurationContent string) string {
	testInstance.Helper()

	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o644))
	return configurationDirectory
}

func executeApplicationCommand(application *cli.Application, arguments ...string) (string, error) {
	outputBuffer := &bytes.Buffer{}
	rootCommand := application.RootCommand()
	rootCommand.SetOut(outputBuffer)
	rootCommand.SetErr(outputBuffer)
	rootCommand.SetArgs(arguments)
	executionError := rootCommand.Execute()
	return outputBuffer.String(), executionError
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := cli.NewApplication()

	registeredCommandNames := map[string]bool{}
	for _, registeredCommand := range application.RootCommand().Commands() {
		registeredCommandNames[registeredCommand.Name()] = true
	}

	for _, expectedCommandName := range []string{"setup", "resume", testVersionCommandNameConstant} {
		require.True(testInstance, registeredCommandNames[expectedCommandName], expectedCommandName)
	}
}

func TestApplicationVersionCommand(testInstance *testing.T) {
	testInstance.Setenv(testConfigurationSearchPathEnvironmentName, testInstance.TempDir())

	commandOutput, executionError := executeApplicationCommand(cli.NewApplication(), testVersionCommandNameConstant)

	require.NoError(testInstance, executionError)
	require.True(testInstance, strings.HasPrefix(commandOutput, testVersionOutputPrefixConstant))
	require.Greater(testInstance, len(strings.TrimSpace(commandOutput)), len(strings.TrimSpace(testVersionOutputPrefixConstant)))
}

func TestApplicationConfigurationFileHandling(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		configurationContent string
		expectedErrorText    string
	}{
		{
			name:                 "valid_configuration_accepted",
			configurationContent: testValidConfigurationDocumentConstant,
		},
		{
			name:                 "unknown_log_level_rejected",
			configurationContent: testInvalidConfigurationDocumentConstant,
			expectedErrorText:    "unable to create logger",
		},
		{
			name:                 "malformed_document_rejected",
			configurationContent: testMalformedConfigurationDocumentConstant,
			expectedErrorText:    "unable to load configuration",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			configurationDirectory := writeTestConfiguration(subtest, testCase.configurationContent)
			subtest.Setenv(testConfigurationSearchPathEnvironmentName, configurationDirectory)

			_, executionError := executeApplicationCommand(cli.NewApplication(), testVersionCommandNameConstant)

			if len(testCase.expectedErrorText) == 0 {
				require.NoError(subtest, executionError)
				return
			}
			require.Error(subtest, executionError)
			require.Contains(subtest, executionError.Error(), testCase.expectedErrorText)
		})
	}
}

func TestApplicationLogFlagOverridesConfiguration(testInstance *testing.T) {
	configurationDirectory := writeTestConfiguration(testInstance, testInvalidConfigurationDocumentConstant)
	testInstance.Setenv(testConfigurationSearchPathEnvironmentName, configurationDirectory)

	_, executionError := executeApplicationCommand(cli.NewApplication(), "--log-level", "debug", testVersionCommandNameConstant)

	require.NoError(testInstance, executionError)
}

func TestApplicationConfigurationSetupSection(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		setupSection          map[string]any
		expectedConfiguration func(setupcli.CommandConfiguration) setupcli.CommandConfiguration
		expectError           bool
	}{
		{
			name:                  "empty_section_returns_base",
			expectedConfiguration: func(base setupcli.CommandConfiguration) setupcli.CommandConfiguration { return base },
		},
		{
			name: "overrides_applied_over_base",
			setupSection: map[string]any{
				"owner":      "alice",
				"branch":     "trunk",
				"visibility": "private",
			},
			expectedConfiguration: func(base setupcli.CommandConfiguration) setupcli.CommandConfiguration {
				base.Owner = "alice"
				base.Branch = "trunk"
				base.Visibility = "private"
				return base
			},
		},
		{
			name:         "unexpected_structure_rejected",
			setupSection: map[string]any{"owner": map[string]any{"nested": true}},
			expectError:  true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			applicationConfiguration := cli.ApplicationConfiguration{Setup: testCase.setupSection}

			decodedConfiguration, decodeError := applicationConfiguration.SetupConfiguration(setupcli.DefaultCommandConfiguration())

			if testCase.expectError {
				require.Error(subtest, decodeError)
				return
			}
			require.NoError(subtest, decodeError)
			require.Equal(subtest, testCase.expectedConfiguration(setupcli.DefaultCommandConfiguration()), decodedConfiguration)
		})
	}
}
