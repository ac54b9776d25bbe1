package taskrunner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/cache"
	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/project"
	"github.com/tyemirov/wpforge/internal/recipe"
	"github.com/tyemirov/wpforge/internal/transforms"
)

const (
	defaultRootConstant              = "."
	defaultPackageFileConstant       = "package.json"
	cacheDirectoryNameConstant       = "wpforge"
	cacheFileNameConstant            = "transforms.db"
	projectCacheDirectoryConstant    = ".wpforge"
	rootResolveErrorTemplate         = "taskrunner.dependencies.root: %w"
	metadataErrorTemplate            = "taskrunner.dependencies.metadata: %w"
	recipeErrorTemplate              = "taskrunner.dependencies.recipe: %w"
	shellExecutorErrorTemplate       = "taskrunner.dependencies.shell_executor: %w"
	cacheErrorTemplate               = "taskrunner.dependencies.cache: %w"
	catalogErrorTemplate             = "taskrunner.dependencies.catalog: %w"
	registryErrorTemplate            = "taskrunner.dependencies.registry: %w"
	dependenciesResolvedEventMessage = "task_runner_dependencies_resolved"
	rootFieldConstant                = "root"
	packageFieldConstant             = "package"
	versionFieldConstant             = "version"
	recipeFieldConstant              = "recipe"
	cacheFieldConstant               = "cache"
	embeddedRecipeLabelConstant      = "embedded"
	disabledCacheLabelConstant       = "disabled"
)

// DependenciesConfig captures providers required to build runner dependencies.
type DependenciesConfig struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	CommandRunner                execshell.CommandRunner
}

// DependenciesOptions allows per-command overrides when resolving runner dependencies.
type DependenciesOptions struct {
	Command      *cobra.Command
	Output       io.Writer
	Errors       io.Writer
	Root         string
	PackageFile  string
	CachePath    string
	TasksFile    string
	Parallelism  int
	DisableCache bool
}

// DependenciesResult exposes resolved collaborators along with the runner wrapper.
type DependenciesResult struct {
	Runner   Dependencies
	Recipe   recipe.Configuration
	Metadata project.Metadata
	Root     string
	Catalog  *transforms.Catalog
	Cache    *cache.Store
}

// Close releases the transform cache.
func (result DependenciesResult) Close() error {
	return result.Cache.Close()
}

// BuildDependencies loads project metadata and the task recipe, opens the transform cache,
// and registers every recipe task against the transform catalog.
func BuildDependencies(config DependenciesConfig, options DependenciesOptions) (DependenciesResult, error) {
	logger := resolveLogger(config.LoggerProvider)
	humanReadable := false
	if config.HumanReadableLoggingProvider != nil {
		humanReadable = config.HumanReadableLoggingProvider()
	}

	root, rootError := resolveRoot(options.Root)
	if rootError != nil {
		return DependenciesResult{}, fmt.Errorf(rootResolveErrorTemplate, rootError)
	}

	packageFile := resolveRelative(root, options.PackageFile, defaultPackageFileConstant)
	metadata, metadataError := project.LoadMetadata(packageFile)
	if metadataError != nil {
		return DependenciesResult{}, fmt.Errorf(metadataErrorTemplate, metadataError)
	}

	recipeConfiguration, recipeLabel, recipeError := loadRecipe(options.TasksFile)
	if recipeError != nil {
		return DependenciesResult{}, fmt.Errorf(recipeErrorTemplate, recipeError)
	}

	commandRunner := config.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadable)
	if executorError != nil {
		return DependenciesResult{}, fmt.Errorf(shellExecutorErrorTemplate, executorError)
	}

	var store *cache.Store
	cacheLabel := disabledCacheLabelConstant
	if !options.DisableCache {
		cachePath := resolveCachePath(root, options.CachePath)
		openedStore, cacheError := cache.Open(cachePath)
		if cacheError != nil {
			return DependenciesResult{}, fmt.Errorf(cacheErrorTemplate, cacheError)
		}
		store = openedStore
		cacheLabel = cachePath
	}

	outputWriter := resolveWriter(options.Output, options.Command, true)
	errorWriter := resolveWriter(options.Errors, options.Command, false)

	catalog, catalogError := transforms.NewCatalog(transforms.Dependencies{
		Logger:          logger,
		CommandExecutor: shellExecutor,
		Cache:           store,
		Root:            root,
		Metadata:        metadata,
		Output:          outputWriter,
		Workers:         options.Parallelism,
	})
	if catalogError != nil {
		_ = store.Close()
		return DependenciesResult{}, fmt.Errorf(catalogErrorTemplate, catalogError)
	}

	registry, registryError := recipe.BuildRegistry(recipeConfiguration, catalog)
	if registryError != nil {
		_ = store.Close()
		return DependenciesResult{}, fmt.Errorf(registryErrorTemplate, registryError)
	}

	logger.Debug(
		dependenciesResolvedEventMessage,
		zap.String(rootFieldConstant, root),
		zap.String(packageFieldConstant, metadata.Name),
		zap.String(versionFieldConstant, metadata.Version),
		zap.String(recipeFieldConstant, recipeLabel),
		zap.String(cacheFieldConstant, cacheLabel),
	)

	return DependenciesResult{
		Runner: Dependencies{
			Registry:    registry,
			Logger:      logger,
			Parallelism: options.Parallelism,
			Output:      outputWriter,
			Errors:      errorWriter,
		},
		Recipe:   recipeConfiguration,
		Metadata: metadata,
		Root:     root,
		Catalog:  catalog,
		Cache:    store,
	}, nil
}

// LoadRecipe reads tasksFile, or the built-in recipe when tasksFile is blank.
func LoadRecipe(tasksFile string) (recipe.Configuration, error) {
	configuration, _, loadError := loadRecipe(tasksFile)
	return configuration, loadError
}

func loadRecipe(tasksFile string) (recipe.Configuration, string, error) {
	trimmedPath := strings.TrimSpace(tasksFile)
	if len(trimmedPath) == 0 {
		configuration, embeddedError := recipe.EmbeddedConfiguration()
		return configuration, embeddedRecipeLabelConstant, embeddedError
	}
	configuration, loadError := recipe.LoadConfiguration(trimmedPath)
	return configuration, trimmedPath, loadError
}

func resolveRoot(root string) (string, error) {
	trimmedRoot := strings.TrimSpace(root)
	if len(trimmedRoot) == 0 {
		trimmedRoot = defaultRootConstant
	}
	return filepath.Abs(trimmedRoot)
}

func resolveRelative(root string, candidate string, fallback string) string {
	trimmedCandidate := strings.TrimSpace(candidate)
	if len(trimmedCandidate) == 0 {
		trimmedCandidate = fallback
	}
	if filepath.IsAbs(trimmedCandidate) {
		return trimmedCandidate
	}
	return filepath.Join(root, trimmedCandidate)
}

// resolveCachePath prefers the user cache directory so globbing tasks never see the database.
func resolveCachePath(root string, configured string) string {
	if len(strings.TrimSpace(configured)) > 0 {
		return resolveRelative(root, configured, "")
	}
	userCacheDirectory, cacheDirectoryError := os.UserCacheDir()
	if cacheDirectoryError != nil || len(userCacheDirectory) == 0 {
		return filepath.Join(root, projectCacheDirectoryConstant, cacheFileNameConstant)
	}
	return filepath.Join(userCacheDirectory, cacheDirectoryNameConstant, cacheFileNameConstant)
}

func resolveLogger(provider func() *zap.Logger) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveWriter(provided io.Writer, command *cobra.Command, useStdout bool) io.Writer {
	if provided != nil {
		return provided
	}
	if command != nil {
		if useStdout {
			if writer := command.OutOrStdout(); writer != nil && writer != io.Discard {
				return writer
			}
		} else {
			if writer := command.ErrOrStderr(); writer != nil && writer != io.Discard {
				return writer
			}
		}
	}
	if useStdout {
		return os.Stdout
	}
	return os.Stderr
}
