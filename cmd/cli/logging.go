package cli

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/utils"
)

const (
	loggerCreationErrorTemplateConstant             = "unable to create logger: %w"
	configurationInitializedMessageConstant         = "configuration_initialized"
	configurationInitializedConsoleTemplateConstant = "configuration initialized | log level=%s | log format=%s | config file=%s"
	configurationLogLevelFieldConstant              = "log_level"
	configurationLogFormatFieldConstant             = "log_format"
)

// unsyncableOutputErrors are returned by Sync on terminals and pipes and carry no lost output.
var unsyncableOutputErrors = []error{syscall.ENOTSUP, syscall.EINVAL, syscall.EBADF, syscall.ENOTTY}

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

func (application *Application) createLoggers() error {
	loggerOutputs, creationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if creationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, creationError)
	}
	application.logger = nopIfNil(loggerOutputs.DiagnosticLogger)
	application.consoleLogger = nopIfNil(loggerOutputs.ConsoleLogger)
	return nil
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

func (application *Application) logConfigurationInitialization() {
	common := application.configuration.Common
	if !strings.EqualFold(strings.TrimSpace(common.LogLevel), string(utils.LogLevelDebug)) {
		return
	}
	configFile := application.configurationMetadata.ConfigFileUsed
	if application.humanReadableLoggingEnabled() {
		application.consoleLogger.Debug(fmt.Sprintf(configurationInitializedConsoleTemplateConstant, common.LogLevel, common.LogFormat, configFile))
		return
	}
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, common.LogFormat),
		zap.String(configurationFileFieldConstant, configFile),
	)
}

func (application *Application) flushLoggers() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if logger == nil {
			continue
		}
		if syncError := logger.Sync(); syncError != nil && !isUnsyncableOutput(syncError) {
			return syncError
		}
	}
	return nil
}

func isUnsyncableOutput(syncError error) bool {
	for _, candidate := range unsyncableOutputErrors {
		if errors.Is(syncError, candidate) {
			return true
		}
	}
	return false
}
