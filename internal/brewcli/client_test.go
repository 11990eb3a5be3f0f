package brewcli_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/tapsmith/internal/brewcli"
	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	testTapIdentifierConstant = "alice/homebrew-tools"
	testFormulaURLConstant    = "https://example.com/tools-1.2.0.tar.gz"
	testFormulaNameConstant   = "tools"
	testBrewRootConstant      = "/opt/homebrew"
)

type scriptedBrewExecutor struct {
	recorded  []execshell.CommandDetails
	responses []scriptedBrewResponse
}

type scriptedBrewResponse struct {
	result execshell.ExecutionResult
	err    error
}

func (executor *scriptedBrewExecutor) ExecuteBrew(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recorded = append(executor.recorded, details)
	if len(executor.responses) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	next := executor.responses[0]
	executor.responses = executor.responses[1:]
	return next.result, next.err
}

func TestNewClientRequiresExecutor(testInstance *testing.T) {
	_, creationError := brewcli.NewClient(nil)
	require.ErrorIs(testInstance, creationError, brewcli.ErrExecutorNotConfigured)
}

func TestRepositoryRootTrimsOutput(testInstance *testing.T) {
	executor := &scriptedBrewExecutor{responses: []scriptedBrewResponse{
		{result: execshell.ExecutionResult{StandardOutput: testBrewRootConstant + "\n"}},
	}}
	client, creationError := brewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	repositoryRoot, rootError := client.RepositoryRoot(context.Background())
	require.NoError(testInstance, rootError)
	require.Equal(testInstance, testBrewRootConstant, repositoryRoot)
	require.Equal(testInstance, []string{"--repository"}, executor.recorded[0].Arguments)
}

func TestRepositoryRootRejectsEmptyOutput(testInstance *testing.T) {
	executor := &scriptedBrewExecutor{responses: []scriptedBrewResponse{
		{result: execshell.ExecutionResult{StandardOutput: "  \n"}},
	}}
	client, creationError := brewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	_, rootError := client.RepositoryRoot(context.Background())
	require.ErrorIs(testInstance, rootError, brewcli.ErrEmptyRepositoryRoot)
}

func TestTapNewBuildsArguments(testInstance *testing.T) {
	executor := &scriptedBrewExecutor{}
	client, creationError := brewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	tapError := client.TapNew(context.Background(), testTapIdentifierConstant)
	require.NoError(testInstance, tapError)
	require.Equal(testInstance, []string{"tap-new", testTapIdentifierConstant}, executor.recorded[0].Arguments)
}

func TestListTapsParsesLines(testInstance *testing.T) {
	executor := &scriptedBrewExecutor{responses: []scriptedBrewResponse{
		{result: execshell.ExecutionResult{StandardOutput: "homebrew/core\nalice/tools\n\n"}},
	}}
	client, creationError := brewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	taps, listError := client.ListTaps(context.Background())
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{"homebrew/core", "alice/tools"}, taps)
}

func TestCreateFormulaSuppressesInteractiveEditor(testInstance *testing.T) {
	executor := &scriptedBrewExecutor{}
	client, creationError := brewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	createError := client.CreateFormula(context.Background(), brewcli.FormulaCreateOptions{
		TapIdentifier: testTapIdentifierConstant,
		SourceURL:     testFormulaURLConstant,
		FormulaName:   testFormulaNameConstant,
	})
	require.NoError(testInstance, createError)
	require.Equal(testInstance, []string{"create", "--tap", testTapIdentifierConstant, "--set-name", testFormulaNameConstant, testFormulaURLConstant}, executor.recorded[0].Arguments)
	require.Equal(testInstance, "/usr/bin/true", executor.recorded[0].EnvironmentVariables["HOMEBREW_EDITOR"])
	require.Equal(testInstance, "/usr/bin/true", executor.recorded[0].EnvironmentVariables["EDITOR"])
}

func TestCreateFormulaHonorsEditorOverride(testInstance *testing.T) {
	executor := &scriptedBrewExecutor{}
	client, creationError := brewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	createError := client.CreateFormula(context.Background(), brewcli.FormulaCreateOptions{
		TapIdentifier: testTapIdentifierConstant,
		SourceURL:     testFormulaURLConstant,
		EditorCommand: "/bin/cat",
	})
	require.NoError(testInstance, createError)
	require.Equal(testInstance, "/bin/cat", executor.recorded[0].EnvironmentVariables["HOMEBREW_EDITOR"])
}

func TestCreateFormulaValidatesInputs(testInstance *testing.T) {
	client, creationError := brewcli.NewClient(&scriptedBrewExecutor{})
	require.NoError(testInstance, creationError)

	createError := client.CreateFormula(context.Background(), brewcli.FormulaCreateOptions{TapIdentifier: testTapIdentifierConstant})
	var invalidInput brewcli.InvalidInputError
	require.ErrorAs(testInstance, createError, &invalidInput)
	require.Equal(testInstance, "formula_url", invalidInput.FieldName)
}
