// Config loading for the lnrsdb CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Keys recognized in config.yaml.
	cfgKeyDataDir     = "data_dir"
	cfgKeyDBFile      = "db_file"
	cfgKeyLogLevel    = "log_level"
	cfgKeyLogFormat   = "log_format"
	cfgKeyRetainCount = "retain_count"
	cfgKeyVerifyTable = "verify_table"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# lnrsdb configuration

# Data directory holding the database file, snapshots, and logs
# (overridable by --data-dir flag or LNRS_DATA_DIR)
# data_dir:

# Database file name inside the data directory
# db_file: lnrs.db

# Snapshots kept by 'snapshot cleanup', most recent first
# retain_count: 10

# Logging: level (debug, info, warn, error) and format (text, json)
# log_level: info
# log_format: text

# Table counted to verify a restored database
# verify_table: measure
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run; a missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
