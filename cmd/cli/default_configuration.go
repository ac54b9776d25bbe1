package cli

import _ "embed"

const embeddedConfigurationTypeConstant = "yaml"

//go:embed config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the built-in configuration and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	configurationCopy := make([]byte, len(embeddedDefaultConfiguration))
	copy(configurationCopy, embeddedDefaultConfiguration)
	return configurationCopy, embeddedConfigurationTypeConstant
}
