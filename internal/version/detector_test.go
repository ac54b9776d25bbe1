package version_test

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/version"
)

const (
	testWorkspaceDirectoryConstant = "/workspace/plugin"
	testRepositoryRootConstant     = "/workspace"
)

type stubBuildInfoProvider struct {
	moduleVersion string
	available     bool
}

func (provider stubBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	if !provider.available {
		return nil, false
	}
	return &debug.BuildInfo{Main: debug.Module{Version: provider.moduleVersion}}, true
}

type gitResponse struct {
	output         string
	executionError error
}

type recordingGitExecutor struct {
	mutex     sync.Mutex
	responses map[string]gitResponse
	commands  []execshell.ShellCommand
}

func (executor *recordingGitExecutor) Execute(_ context.Context, shellCommand execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.commands = append(executor.commands, shellCommand)

	response, known := executor.responses[joinArguments(shellCommand.Details.Arguments)]
	if !known {
		return execshell.ExecutionResult{}, errors.New("unexpected git invocation")
	}
	return execshell.ExecutionResult{StandardOutput: response.output}, response.executionError
}

func (executor *recordingGitExecutor) invocations() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	invocations := make([]string, 0, len(executor.commands))
	for _, command := range executor.commands {
		invocations = append(invocations, joinArguments(command.Details.Arguments))
	}
	return invocations
}

func joinArguments(arguments []string) string {
	return strings.Join(arguments, " ")
}

func TestDetectorVersionSources(testInstance *testing.T) {
	failure := errors.New("not a git repository")
	testCases := []struct {
		name                string
		buildInfo           stubBuildInfoProvider
		responses           map[string]gitResponse
		expectedVersion     string
		expectedInvocations []string
	}{
		{
			name:            "release_build_info",
			buildInfo:       stubBuildInfoProvider{moduleVersion: "v1.2.3", available: true},
			expectedVersion: "v1.2.3",
		},
		{
			name:      "exact_tag",
			buildInfo: stubBuildInfoProvider{moduleVersion: "(devel)", available: true},
			responses: map[string]gitResponse{
				"rev-parse --show-toplevel":     {output: testRepositoryRootConstant + "\n"},
				"describe --tags --exact-match": {output: "v0.9.0\n"},
			},
			expectedVersion:     "v0.9.0",
			expectedInvocations: []string{"rev-parse --show-toplevel", "describe --tags --exact-match"},
		},
		{
			name:      "long_describe",
			buildInfo: stubBuildInfoProvider{moduleVersion: "devel", available: true},
			responses: map[string]gitResponse{
				"rev-parse --show-toplevel":      {output: testRepositoryRootConstant},
				"describe --tags --exact-match":  {executionError: errors.New("no tag")},
				"describe --tags --long --dirty": {output: "v0.9.0-1-gabcdef"},
			},
			expectedVersion:     "v0.9.0-1-gabcdef",
			expectedInvocations: []string{"rev-parse --show-toplevel", "describe --tags --exact-match", "describe --tags --long --dirty"},
		},
		{
			name:      "build_info_unavailable",
			buildInfo: stubBuildInfoProvider{},
			responses: map[string]gitResponse{
				"rev-parse --show-toplevel":     {output: testRepositoryRootConstant},
				"describe --tags --exact-match": {output: "v2.0.0"},
			},
			expectedVersion:     "v2.0.0",
			expectedInvocations: []string{"rev-parse --show-toplevel", "describe --tags --exact-match"},
		},
		{
			name:      "all_sources_fail",
			buildInfo: stubBuildInfoProvider{moduleVersion: "(devel)", available: true},
			responses: map[string]gitResponse{
				"rev-parse --show-toplevel":      {executionError: failure},
				"describe --tags --exact-match":  {executionError: failure},
				"describe --tags --long --dirty": {executionError: failure},
			},
			expectedVersion:     version.UnknownVersion,
			expectedInvocations: []string{"rev-parse --show-toplevel", "describe --tags --exact-match", "describe --tags --long --dirty"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingGitExecutor{responses: testCase.responses}
			detector, creationError := version.NewDetector(version.Dependencies{
				BuildInfoProvider: testCase.buildInfo,
				CommandExecutor:   executor,
				WorkingDirectory:  testWorkspaceDirectoryConstant,
			})
			require.NoError(testInstance, creationError)

			require.Equal(testInstance, testCase.expectedVersion, detector.Version(context.Background()))
			if len(testCase.expectedInvocations) == 0 {
				require.Empty(testInstance, executor.invocations())
				return
			}
			require.Equal(testInstance, testCase.expectedInvocations, executor.invocations())
		})
	}
}

func TestDetectorRunsGitNonInteractivelyFromRepositoryRoot(testInstance *testing.T) {
	executor := &recordingGitExecutor{responses: map[string]gitResponse{
		"rev-parse --show-toplevel":     {output: testRepositoryRootConstant},
		"describe --tags --exact-match": {output: "v3.1.0"},
	}}
	detector, creationError := version.NewDetector(version.Dependencies{
		BuildInfoProvider: stubBuildInfoProvider{},
		CommandExecutor:   executor,
		WorkingDirectory:  "  " + testWorkspaceDirectoryConstant + "  ",
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, "v3.1.0", detector.Version(context.Background()))

	require.Len(testInstance, executor.commands, 2)
	require.Equal(testInstance, testWorkspaceDirectoryConstant, executor.commands[0].Details.WorkingDirectory)
	require.Equal(testInstance, testRepositoryRootConstant, executor.commands[1].Details.WorkingDirectory)
	for _, command := range executor.commands {
		require.Equal(testInstance, execshell.CommandName("git"), command.Name)
		require.Equal(testInstance, "0", command.Details.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
	}
}

func TestDetectorFallsBackToWorkingDirectoryOutsideCheckout(testInstance *testing.T) {
	executor := &recordingGitExecutor{responses: map[string]gitResponse{
		"rev-parse --show-toplevel":      {output: "   "},
		"describe --tags --exact-match":  {executionError: errors.New("no tag")},
		"describe --tags --long --dirty": {output: "v0.1.0-4-g1234567-dirty"},
	}}
	detector, creationError := version.NewDetector(version.Dependencies{
		BuildInfoProvider: stubBuildInfoProvider{},
		CommandExecutor:   executor,
		WorkingDirectory:  testWorkspaceDirectoryConstant,
	})
	require.NoError(testInstance, creationError)

	require.Equal(testInstance, "v0.1.0-4-g1234567-dirty", detector.Version(context.Background()))
	require.Equal(testInstance, testWorkspaceDirectoryConstant, executor.commands[2].Details.WorkingDirectory)
}

func TestDetectorLogsResolvedSource(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	resolved := version.Detect(context.Background(), version.Dependencies{
		BuildInfoProvider: stubBuildInfoProvider{moduleVersion: "v1.0.0", available: true},
		CommandExecutor:   &recordingGitExecutor{},
		Logger:            zap.New(observerCore),
	})
	require.Equal(testInstance, "v1.0.0", resolved)

	entries := observedLogs.FilterMessage("version_resolved").All()
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, "build_info", entries[0].ContextMap()["source"])
}

func TestNilDetectorReportsUnknown(testInstance *testing.T) {
	var detector *version.Detector
	require.Equal(testInstance, version.UnknownVersion, detector.Version(context.Background()))
}

var _ version.CommandExecutor = (*recordingGitExecutor)(nil)
