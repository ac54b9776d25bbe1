package version

import (
	"context"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/tyemirov/wpforge/internal/execshell"
)

const (
	// UnknownVersion is reported when no source yields a version.
	UnknownVersion = "unknown"

	gitCommandNameConstant                    = execshell.CommandName("git")
	gitTerminalPromptEnvironmentNameConstant  = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentValueConstant = "0"
	buildInfoSourceNameConstant               = "build_info"
	exactTagSourceNameConstant                = "git_exact_tag"
	describeSourceNameConstant                = "git_describe"
	versionResolvedMessageConstant            = "version_resolved"
	versionSourceFieldNameConstant            = "source"
	versionFieldNameConstant                  = "version"
)

var (
	repositoryRootArguments = []string{"rev-parse", "--show-toplevel"}
	exactTagArguments       = []string{"describe", "--tags", "--exact-match"}
	describeArguments       = []string{"describe", "--tags", "--long", "--dirty"}
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// CommandExecutor runs the git lookups used when build metadata carries no release version.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
	CommandExecutor   CommandExecutor
	WorkingDirectory  string
	Logger            *zap.Logger
}

// versionSource yields a version string or an empty string when it has nothing to offer.
type versionSource struct {
	name    string
	resolve func(executionContext context.Context, repositoryRoot string) string
}

// Detector walks an ordered list of version sources and keeps the first answer.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	commandExecutor   CommandExecutor
	workingDirectory  string
	logger            *zap.Logger
}

// NewDetector constructs a Detector, defaulting to runtime build info and git on the host.
func NewDetector(dependencies Dependencies) (*Detector, error) {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	executor := dependencies.CommandExecutor
	if executor == nil {
		shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner(), false)
		if creationError != nil {
			return nil, creationError
		}
		executor = shellExecutor
	}

	workingDirectory := strings.TrimSpace(dependencies.WorkingDirectory)
	if len(workingDirectory) == 0 {
		if currentDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
			workingDirectory = currentDirectory
		}
	}

	return &Detector{
		buildInfoProvider: provider,
		commandExecutor:   executor,
		workingDirectory:  workingDirectory,
		logger:            logger,
	}, nil
}

// Detect resolves the application version, returning UnknownVersion when the detector cannot be built.
func Detect(executionContext context.Context, dependencies Dependencies) string {
	detector, detectorError := NewDetector(dependencies)
	if detectorError != nil {
		return UnknownVersion
	}
	return detector.Version(executionContext)
}

// Version returns the module version from build info, then an exact git tag, then git describe output.
func (detector *Detector) Version(executionContext context.Context) string {
	if detector == nil {
		return UnknownVersion
	}

	repositoryRoot := ""
	repositoryRootResolved := false
	for _, source := range detector.sources() {
		if source.name != buildInfoSourceNameConstant && !repositoryRootResolved {
			repositoryRoot = detector.resolveRepositoryRoot(executionContext)
			repositoryRootResolved = true
		}
		if resolved := source.resolve(executionContext, repositoryRoot); len(resolved) > 0 {
			detector.logger.Debug(versionResolvedMessageConstant, zap.String(versionSourceFieldNameConstant, source.name), zap.String(versionFieldNameConstant, resolved))
			return resolved
		}
	}
	return UnknownVersion
}

func (detector *Detector) sources() []versionSource {
	return []versionSource{
		{name: buildInfoSourceNameConstant, resolve: func(context.Context, string) string { return detector.versionFromBuildInfo() }},
		{name: exactTagSourceNameConstant, resolve: detector.gitOutputSource(exactTagArguments)},
		{name: describeSourceNameConstant, resolve: detector.gitOutputSource(describeArguments)},
	}
}

// versionFromBuildInfo ignores "(devel)" and other values that are not semantic versions.
func (detector *Detector) versionFromBuildInfo() string {
	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return ""
	}

	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if !semver.IsValid(trimmedVersion) {
		return ""
	}
	return trimmedVersion
}

func (detector *Detector) gitOutputSource(arguments []string) func(context.Context, string) string {
	return func(executionContext context.Context, repositoryRoot string) string {
		output, gitError := detector.git(executionContext, repositoryRoot, arguments)
		if gitError != nil {
			return ""
		}
		return output
	}
}

// resolveRepositoryRoot falls back to the working directory outside a git checkout.
func (detector *Detector) resolveRepositoryRoot(executionContext context.Context) string {
	if len(detector.workingDirectory) == 0 {
		return ""
	}
	topLevel, gitError := detector.git(executionContext, detector.workingDirectory, repositoryRootArguments)
	if gitError != nil || len(topLevel) == 0 {
		return detector.workingDirectory
	}
	return topLevel
}

func (detector *Detector) git(executionContext context.Context, workingDirectory string, arguments []string) (string, error) {
	executionResult, executionError := detector.commandExecutor.Execute(executionContext, execshell.ShellCommand{
		Name: gitCommandNameConstant,
		Details: execshell.CommandDetails{
			Arguments:            append([]string(nil), arguments...),
			WorkingDirectory:     workingDirectory,
			EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentValueConstant},
		},
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
