// Root command for the lnrsdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stevecrawshaw/lnrsdb/internal/paths"
	"github.com/stevecrawshaw/lnrsdb/pkg/lnrs"
)

// Exit codes: 0 success, 1 user error, 2 system error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// cfg holds the parsed config.yaml. Set by PersistentPreRunE so every
// subcommand can read it.
var cfg *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "lnrsdb",
	Short: "lnrsdb manages a Local Nature Recovery Strategy database",
	Long: `lnrsdb is the operator tool for an embedded LNRS database: it creates
and seeds the database, cascade deletes records under immediate foreign-key
checking, and manages full-file snapshots with restore.`,
	Version:      lnrs.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadDotEnv()

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		cfg, err = loadConfig(configDir)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/data)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv loads a .env file from the working directory when one exists.
// A missing file is normal; a malformed one only warns.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
}

// resolveConfigDir returns the configuration directory following the
// precedence chain: --config-dir flag > LNRS_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory following the precedence chain:
// --data-dir flag > config.yaml data_dir > LNRS_DATA_DIR env > $(CWD)/data.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, cfg.GetString(cfgKeyDataDir))
}
