package helpers

import "github.com/Jeffail/gabs"

// config saves the bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) {
	json, err := gabs.ParseJSONFile(path)

	if err != nil {
		panic(err)
	}

	config = json
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	return config
}

// GetConfigString reads a string value at $path, or $fallback if unset
func GetConfigString(path string, fallback string) string {
	if config == nil || !config.ExistsP(path) {
		return fallback
	}
	if value, ok := config.Path(path).Data().(string); ok && value != "" {
		return value
	}
	return fallback
}
