package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	scaffoldScopeLocalConstant                = "local"
	scaffoldScopeUserConstant                 = "user"
	scaffoldDirectoryPermissionConstant       = 0o755
	scaffoldFilePermissionConstant            = 0o600
	scaffoldUnsupportedScopeTemplateConstant  = "unsupported initialization scope %q"
	scaffoldLocationErrorTemplateConstant     = "unable to resolve %s configuration directory: %w"
	scaffoldEmptyContentMessageConstant       = "embedded configuration content is unavailable"
	scaffoldDirectoryErrorTemplateConstant    = "unable to ensure configuration directory %s: %w"
	scaffoldExistingFileTemplateConstant      = "configuration file already exists at %s (use --force to overwrite)"
	scaffoldExistingDirectoryTemplateConstant = "configuration path %s is a directory"
	scaffoldWriteErrorTemplateConstant        = "unable to write configuration file %s: %w"
	scaffoldCreatedMessageConstant            = "configuration_file_created"
	configurationFileFieldConstant            = "config_file"
)

// scaffoldDirectoryResolvers maps an --init scope to the directory receiving config.yaml.
var scaffoldDirectoryResolvers = map[string]func() (string, error){
	scaffoldScopeLocalConstant: os.Getwd,
	scaffoldScopeUserConstant: func() (string, error) {
		homeDirectory, homeDirectoryError := os.UserHomeDir()
		if homeDirectoryError != nil {
			return "", homeDirectoryError
		}
		return filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant), nil
	},
}

// scaffoldConfiguration writes the embedded default configuration for scope. An existing file is kept unless forced.
func (application *Application) scaffoldConfiguration(scope string, forced bool) error {
	normalizedScope := strings.ToLower(strings.TrimSpace(scope))
	if len(normalizedScope) == 0 {
		normalizedScope = scaffoldScopeLocalConstant
	}
	resolveDirectory, supported := scaffoldDirectoryResolvers[normalizedScope]
	if !supported {
		return fmt.Errorf(scaffoldUnsupportedScopeTemplateConstant, strings.TrimSpace(scope))
	}
	directory, directoryError := resolveDirectory()
	if directoryError != nil {
		return fmt.Errorf(scaffoldLocationErrorTemplateConstant, normalizedScope, directoryError)
	}

	content, _ := EmbeddedDefaultConfiguration()
	if len(content) == 0 {
		return errors.New(scaffoldEmptyContentMessageConstant)
	}

	filePath := filepath.Join(directory, configurationFileNameConstant)
	if writeError := writeScaffold(directory, filePath, content, forced); writeError != nil {
		return writeError
	}
	application.logger.Info(scaffoldCreatedMessageConstant, zap.String(configurationFileFieldConstant, filePath))
	return nil
}

func writeScaffold(directory string, filePath string, content []byte, forced bool) error {
	if createError := os.MkdirAll(directory, scaffoldDirectoryPermissionConstant); createError != nil {
		return fmt.Errorf(scaffoldDirectoryErrorTemplateConstant, directory, createError)
	}

	existing, statError := os.Stat(filePath)
	switch {
	case statError == nil && existing.IsDir():
		return fmt.Errorf(scaffoldExistingDirectoryTemplateConstant, filePath)
	case statError == nil && !forced:
		return fmt.Errorf(scaffoldExistingFileTemplateConstant, filePath)
	case statError != nil && !errors.Is(statError, os.ErrNotExist):
		return fmt.Errorf(scaffoldWriteErrorTemplateConstant, filePath, statError)
	}

	if writeError := os.WriteFile(filePath, content, scaffoldFilePermissionConstant); writeError != nil {
		return fmt.Errorf(scaffoldWriteErrorTemplateConstant, filePath, writeError)
	}
	return nil
}
