package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	taskscmd "github.com/tyemirov/wpforge/cmd/cli/tasks"
	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/utils"
	flagutils "github.com/tyemirov/wpforge/internal/utils/flags"
)

const (
	applicationNameConstant             = "wpforge"
	applicationShortDescriptionConstant = "Build orchestrator for WordPress plugins"
	applicationLongDescriptionConstant  = "wpforge compiles styles, minifies scripts, generates translation templates and packages a WordPress plugin by running a dependency-ordered task recipe."
	configFileFlagNameConstant          = "config"
	configFileFlagUsageConstant         = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant            = "log-level"
	logLevelFlagUsageConstant           = "Override the configured log level."
	logFormatFlagNameConstant           = "log-format"
	logFormatFlagUsageConstant          = "Override the configured log format (structured or console)."
	versionFlagNameConstant             = "version"
	versionFlagUsageConstant            = "Print the wpforge version and exit."
	scaffoldFlagNameConstant            = "init"
	scaffoldFlagUsageConstant           = "Write the embedded default configuration to local (./config.yaml) or user ($HOME/.wpforge/config.yaml)."
	scaffoldForceFlagNameConstant       = "force"
	scaffoldForceFlagUsageConstant      = "Overwrite an existing configuration file when initializing."
	loggerSyncErrorTemplateConstant     = "unable to flush logger: %w"
	rootCommandInvokedMessageConstant   = "root_command_invoked"
	commandNameFieldConstant            = "command_name"
	argumentCountFieldConstant          = "argument_count"
)

// Application owns the command tree together with the configuration and loggers it resolves before each command.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         loggerOutputsFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	rootFlags             rootFlagValues
	versionResolver       func(context.Context) string
	exitFunction          func(int)
	commandRunner         execshell.CommandRunner
}

// rootFlagValues receives the flags bound directly on the root command.
type rootFlagValues struct {
	configurationFilePath string
	logLevel              string
	logFormat             string
	printVersion          bool
	scaffoldScope         string
	scaffoldForced        bool
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		logger:        zap.NewNop(),
		consoleLogger: zap.NewNop(),
		exitFunction:  os.Exit,
		commandRunner: execshell.NewOSCommandRunner(),
	}
	application.versionResolver = application.resolveVersion
	application.configurationLoader = newConfigurationLoader()

	rootCommand := &cobra.Command{
		Use:               applicationNameConstant,
		Short:             applicationShortDescriptionConstant,
		Long:              applicationLongDescriptionConstant,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: application.prepareCommand,
		RunE:              application.runRootCommand,
	}
	rootCommand.SetContext(context.Background())
	application.bindRootFlags(rootCommand)
	application.addTaskCommands(rootCommand)

	application.rootCommand = rootCommand
	return application
}

func (application *Application) bindRootFlags(rootCommand *cobra.Command) {
	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&application.rootFlags.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.rootFlags.logLevel, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlags.StringVar(&application.rootFlags.logFormat, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	flagutils.BindExecutionFlags(rootCommand, flagutils.DefaultExecutionFlagDefinitions())

	localFlags := rootCommand.Flags()
	localFlags.BoolVar(&application.rootFlags.printVersion, versionFlagNameConstant, false, versionFlagUsageConstant)
	localFlags.StringVar(&application.rootFlags.scaffoldScope, scaffoldFlagNameConstant, scaffoldScopeLocalConstant, scaffoldFlagUsageConstant)
	localFlags.Lookup(scaffoldFlagNameConstant).NoOptDefVal = scaffoldScopeLocalConstant
	localFlags.BoolVar(&application.rootFlags.scaffoldForced, scaffoldForceFlagNameConstant, false, scaffoldForceFlagUsageConstant)
}

func (application *Application) addTaskCommands(rootCommand *cobra.Command) {
	configurationProvider := func() taskscmd.CommandConfiguration { return application.configuration.Project }

	builders := []interface {
		Build() (*cobra.Command, error)
	}{
		&taskscmd.RunCommandBuilder{
			LoggerProvider:               func() *zap.Logger { return application.logger },
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			ConfigurationProvider:        configurationProvider,
			CommandRunner:                application.commandRunner,
		},
		&taskscmd.ListCommandBuilder{ConfigurationProvider: configurationProvider},
		&taskscmd.PlanCommandBuilder{ConfigurationProvider: configurationProvider},
	}
	for _, builder := range builders {
		if subcommand, buildError := builder.Build(); buildError == nil {
			rootCommand.AddCommand(subcommand)
		}
	}
}

// prepareCommand resolves configuration and loggers before any command body runs.
func (application *Application) prepareCommand(command *cobra.Command, _ []string) error {
	if initializationError := application.initializeConfiguration(command); initializationError != nil {
		return initializationError
	}
	if application.rootFlags.printVersion {
		application.printVersion(command)
		application.exitFunction(0)
	}
	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if command.Flags().Changed(scaffoldFlagNameConstant) {
		return application.scaffoldConfiguration(application.rootFlags.scaffoldScope, application.rootFlags.scaffoldForced)
	}

	application.logger.Debug(
		rootCommandInvokedMessageConstant,
		zap.String(commandNameFieldConstant, command.Name()),
		zap.Int(argumentCountFieldConstant, len(arguments)),
	)
	return command.Help()
}

// Execute runs the command tree and flushes the loggers afterwards.
// An interrupt cancels the running tasks instead of killing the process mid-write.
func (application *Application) Execute() error {
	executionContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	application.rootCommand.SetArgs(os.Args[1:])
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLoggers(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}
