// Package version resolves the application version from build metadata, with
// a git describe fallback for source builds.
package version

import (
	"context"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/tapsmith/internal/execshell"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "(devel)"
	gitDescribeSubcommandConstant  = "describe"
	gitTagsFlagConstant            = "--tags"
	gitDirtyFlagConstant           = "--dirty"
	gitAlwaysFlagConstant          = "--always"
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

type runtimeBuildInfoProvider struct{}

func (provider runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

// GitExecutor runs git commands for the describe fallback.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	gitExecutor       GitExecutor
}

// NewDetector constructs a Detector with the supplied collaborators or
// sensible defaults.
func NewDetector(buildInfoProvider BuildInfoProvider, gitExecutor GitExecutor) *Detector {
	if buildInfoProvider == nil {
		buildInfoProvider = runtimeBuildInfoProvider{}
	}
	return &Detector{buildInfoProvider: buildInfoProvider, gitExecutor: gitExecutor}
}

// ResolveVersion returns the module version recorded at build time, falling
// back to git describe for source builds and to a fixed marker when neither
// source is available.
func (detector *Detector) ResolveVersion(executionContext context.Context) string {
	if buildInfo, available := detector.buildInfoProvider.Read(); available {
		moduleVersion := strings.TrimSpace(buildInfo.Main.Version)
		if len(moduleVersion) > 0 && moduleVersion != buildInfoDevelVersionValue {
			return moduleVersion
		}
	}

	if detector.gitExecutor != nil {
		describeResult, describeError := detector.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments: []string{gitDescribeSubcommandConstant, gitTagsFlagConstant, gitDirtyFlagConstant, gitAlwaysFlagConstant},
		})
		if describeError == nil {
			describedVersion := strings.TrimSpace(describeResult.StandardOutput)
			if len(describedVersion) > 0 {
				return describedVersion
			}
		}
	}

	return unknownVersionFallbackConstant
}

// Resolve reports the version using default collaborators.
func Resolve(executionContext context.Context) string {
	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	if executorError != nil {
		return NewDetector(nil, nil).ResolveVersion(executionContext)
	}
	return NewDetector(nil, shellExecutor).ResolveVersion(executionContext)
}
