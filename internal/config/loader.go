package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".bonsai"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for bonsai settings.
const envPrefix = "BONSAI"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Load loads configuration from env files, the config file, env vars and
// defaults, in increasing order of precedence for env vars over the file.
// When envFiles is empty, a .env file in the working directory is loaded if
// present. Variables already set in the environment are not overridden.
// If configPath is non-empty it is used as the explicit config file path;
// otherwise .bonsai.yaml is searched in CWD and $HOME. A missing config
// file is not an error.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.pretty", false)

	viperCfg.SetDefault("parse.mode", DefaultParseMode)

	viperCfg.SetDefault("resolve.search_paths", []string{})
	viperCfg.SetDefault("resolve.cache_size", DefaultCacheSize)

	viperCfg.SetDefault("batch.parallel", true)
	viperCfg.SetDefault("batch.workers", 0)

	viperCfg.SetDefault("build.metadata", true)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.format", DefaultLogFormat)
	viperCfg.SetDefault("log.file", "")
}
