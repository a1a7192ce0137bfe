package cli

import _ "embed"

//go:embed config/config.yaml
var embeddedDefaultConfiguration []byte

const embeddedConfigurationTypeConstant = "yaml"

// EmbeddedDefaultConfiguration returns the built-in default configuration and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfiguration...), embeddedConfigurationTypeConstant
}
