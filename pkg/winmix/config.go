package winmix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nik9play/winmix/pkg/winmix/util"
)

// Config holds everything that changes how sessions are enumerated
type Config struct {
	// AllEndpoints enumerates sessions on every active output device instead of just the default one
	AllEndpoints bool

	// Exclude lists executable names (e.g. "steam.exe") whose sessions are never returned
	Exclude []string

	// Language is used by front ends for their messages, "auto" picks the system language
	Language string
}

const (
	configName = "winmix"
	configPath = "."
	configType = "yaml"

	configKeyEndpoints = "endpoints"
	configKeyExclude   = "exclude"
	configKeyLanguage  = "language"

	endpointsDefault = "default"
	endpointsAll     = "all"

	defaultLanguage = "auto"
)

// DefaultConfig returns the configuration used when no config file exists
func DefaultConfig() *Config {
	return &Config{
		AllEndpoints: false,
		Exclude:      []string{},
		Language:     defaultLanguage,
	}
}

// LoadConfig reads the config file at the given path. With an empty path, winmix.yaml
// is looked up in the working directory and defaults are used if it doesn't exist.
func LoadConfig(logger *zap.SugaredLogger, path string) (*Config, error) {
	logger = logger.Named("config")

	v := initializeViper(path)

	if path != "" && !util.FileExists(path) {
		logger.Warnw("Config file not found", "path", path)
		return nil, fmt.Errorf("config file doesn't exist: %s", path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warnw("Viper failed to read config", "error", err)
			return nil, fmt.Errorf("read config: %w", err)
		}

		logger.Debugw("No config file found, using defaults", "reminder", "this is fine")
	}

	config := populateFromViper(logger, v)

	logger.Debugw("Loaded config",
		"allEndpoints", config.AllEndpoints,
		"exclude", config.Exclude,
		"language", config.Language)

	return config, nil
}

func initializeViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configPath)
	}

	v.SetDefault(configKeyEndpoints, endpointsDefault)
	v.SetDefault(configKeyExclude, []string{})
	v.SetDefault(configKeyLanguage, defaultLanguage)

	return v
}

func populateFromViper(logger *zap.SugaredLogger, v *viper.Viper) *Config {
	config := DefaultConfig()

	switch endpoints := strings.ToLower(v.GetString(configKeyEndpoints)); endpoints {
	case endpointsAll:
		config.AllEndpoints = true
	case endpointsDefault:
		config.AllEndpoints = false
	default:
		logger.Warnw("Invalid endpoints value specified, using default",
			"invalidValue", endpoints,
			"defaultValue", endpointsDefault)
	}

	config.Exclude = v.GetStringSlice(configKeyExclude)
	config.Language = v.GetString(configKeyLanguage)

	return config
}
