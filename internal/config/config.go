package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/alecacerestel/AppASO/internal/load"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	config := GetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/appaso/")
	viper.AddConfigPath("$HOME/.appaso/")

	viper.SetEnvPrefix("APPASO")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig validates the loaded configuration.
func validateConfig(config *Config) error {
	if _, err := config.Pipeline.Cutoff(); err != nil {
		return fmt.Errorf("invalid cutoff date %q: %w", config.Pipeline.CutoffDate, err)
	}
	if config.Pipeline.PreStage == "" || config.Pipeline.PostStage == "" {
		return fmt.Errorf("stage labels must not be empty")
	}
	if config.Lake.Format != load.FormatCSV && config.Lake.Format != load.FormatParquet {
		return fmt.Errorf("invalid lake format: %s (must be csv or parquet)", config.Lake.Format)
	}
	for _, dataType := range schema.DataTypes() {
		if config.Workbook.Sheets[dataType] == "" {
			return fmt.Errorf("no worksheet configured for data type %s", dataType)
		}
	}
	if config.Warehouse.Enabled && config.Warehouse.DatabaseURL == "" {
		return fmt.Errorf("warehouse enabled but database_url is empty")
	}
	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}
	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}
	return nil
}

// Watch starts watching the configuration file for changes.
func Watch(config *Config, callback func(*Config)) error {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := GetDefaults()
		if err := viper.Unmarshal(newConfig); err != nil {
			return
		}
		if err := validateConfig(newConfig); err != nil {
			return
		}
		callback(newConfig)
	})
	return nil
}
