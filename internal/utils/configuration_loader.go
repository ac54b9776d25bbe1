package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	embeddedConfigurationErrorTemplate   = "failed to read embedded configuration: %w"
	configurationReadErrorTemplate       = "failed to read configuration %s: %w"
	configurationSearchErrorTemplate     = "failed to search configuration: %w"
	configurationDecodeErrorTemplate     = "failed to decode configuration: %w"
	environmentKeySeparatorConstant      = "_"
	configurationKeySeparatorConstant    = "."
	userConfigurationDirectoryConstant   = ".wpforge"
	xdgConfigurationHomeEnvironmentName  = "XDG_CONFIG_HOME"
	xdgConfigurationDefaultDirectoryName = ".config"
	workingDirectorySearchPathConstant   = "."
)

// LoadedConfiguration reports where configuration values were read from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers defaults, embedded configuration, a config file and environment variables.
type ConfigurationLoader struct {
	configurationName     string
	configurationType     string
	environmentPrefix     string
	searchPaths           []string
	embeddedConfiguration []byte
	embeddedType          string
}

// NewConfigurationLoader constructs a loader. Nil searchPaths selects the working directory,
// the XDG configuration directory and the home directory, in that order.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	if searchPaths == nil {
		searchPaths = defaultSearchPaths()
	}
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers configuration bytes applied beneath any config file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(contents []byte, configurationType string) {
	loader.embeddedConfiguration = append([]byte(nil), contents...)
	loader.embeddedType = configurationType
}

// LoadConfiguration decodes the layered configuration into target.
// An explicit configurationFilePath wins over the search paths.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	instance := viper.New()
	instance.SetConfigName(loader.configurationName)
	instance.SetConfigType(loader.configurationType)
	instance.SetEnvPrefix(loader.environmentPrefix)
	instance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	instance.AutomaticEnv()

	for key, value := range defaultValues {
		instance.SetDefault(key, value)
	}

	if len(loader.embeddedConfiguration) > 0 {
		if len(loader.embeddedType) > 0 {
			instance.SetConfigType(loader.embeddedType)
		}
		if mergeError := instance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationErrorTemplate, mergeError)
		}
		instance.SetConfigType(loader.configurationType)
	}

	trimmedPath := strings.TrimSpace(configurationFilePath)
	if len(trimmedPath) > 0 {
		instance.SetConfigFile(trimmedPath)
		if mergeError := instance.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplate, trimmedPath, mergeError)
		}
	} else {
		for _, searchPath := range loader.searchPaths {
			instance.AddConfigPath(searchPath)
		}
		if mergeError := instance.MergeInConfig(); mergeError != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &notFound) {
				return LoadedConfiguration{}, fmt.Errorf(configurationSearchErrorTemplate, mergeError)
			}
		}
	}

	if decodeError := instance.Unmarshal(target); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplate, decodeError)
	}
	return LoadedConfiguration{ConfigFileUsed: instance.ConfigFileUsed()}, nil
}

func defaultSearchPaths() []string {
	searchPaths := []string{workingDirectorySearchPathConstant}
	homeDirectory, homeError := os.UserHomeDir()
	xdgConfigurationHome := strings.TrimSpace(os.Getenv(xdgConfigurationHomeEnvironmentName))
	if len(xdgConfigurationHome) == 0 && homeError == nil {
		xdgConfigurationHome = filepath.Join(homeDirectory, xdgConfigurationDefaultDirectoryName)
	}
	if len(xdgConfigurationHome) > 0 {
		searchPaths = append(searchPaths, filepath.Join(xdgConfigurationHome, userConfigurationDirectoryConstant))
	}
	if homeError == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, userConfigurationDirectoryConstant))
	}
	return searchPaths
}
