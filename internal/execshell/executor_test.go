package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testRunnerFailureMessageConstant             = "runner failure"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
				return
			}
			require.ErrorIs(testInstance, creationError, testCase.expectError)
		})
	}
}

func TestShellExecutorExecute(testInstance *testing.T) {
	testCases := []struct {
		name            string
		executionResult execshell.ExecutionResult
		executionError  error
		expectFailure   bool
		expectExecution bool
	}{
		{
			name:            testExecutionSuccessCaseNameConstant,
			executionResult: execshell.ExecutionResult{ExitCode: 0},
		},
		{
			name:            testExecutionFailureCaseNameConstant,
			executionResult: execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorOutputConstant},
			expectFailure:   true,
		},
		{
			name:            testExecutionRunnerErrorCaseNameConstant,
			executionError:  errors.New(testRunnerFailureMessageConstant),
			expectExecution: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commandRunner := &recordingCommandRunner{executionResult: testCase.executionResult, executionError: testCase.executionError}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), commandRunner)
			require.NoError(testInstance, creationError)

			command := execshell.ShellCommand{
				Name: execshell.CommandGit,
				Details: execshell.CommandDetails{
					Arguments:        []string{testCommandArgumentConstant},
					WorkingDirectory: testWorkingDirectoryConstant,
				},
			}

			result, executionError := executor.Execute(context.Background(), command)
			require.Len(testInstance, commandRunner.recordedCommands, 1)

			switch {
			case testCase.expectFailure:
				var commandFailure execshell.CommandFailedError
				require.ErrorAs(testInstance, executionError, &commandFailure)
				require.Equal(testInstance, testCase.executionResult.ExitCode, commandFailure.Result.ExitCode)
			case testCase.expectExecution:
				var commandExecution execshell.CommandExecutionError
				require.ErrorAs(testInstance, executionError, &commandExecution)
				require.EqualError(testInstance, commandExecution.Cause, testRunnerFailureMessageConstant)
			default:
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.executionResult, result)
			}
		})
	}
}

func TestShellExecutorCommandWrappers(testInstance *testing.T) {
	testCases := []struct {
		name                string
		execute             func(*execshell.ShellExecutor, context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
		expectedCommandName execshell.CommandName
	}{
		{
			name:                string(execshell.CommandGit),
			execute:             (*execshell.ShellExecutor).ExecuteGit,
			expectedCommandName: execshell.CommandGit,
		},
		{
			name:                string(execshell.CommandGitHub),
			execute:             (*execshell.ShellExecutor).ExecuteGitHubCLI,
			expectedCommandName: execshell.CommandGitHub,
		},
		{
			name:                string(execshell.CommandBrew),
			execute:             (*execshell.ShellExecutor).ExecuteBrew,
			expectedCommandName: execshell.CommandBrew,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commandRunner := &recordingCommandRunner{}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), commandRunner)
			require.NoError(testInstance, creationError)

			_, executionError := testCase.execute(executor, context.Background(), execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}})
			require.NoError(testInstance, executionError)
			require.Len(testInstance, commandRunner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedCommandName, commandRunner.recordedCommands[0].Name)
		})
	}
}
