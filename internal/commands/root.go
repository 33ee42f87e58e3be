// internal/commands/root.go
package crossbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mwiater/crossbench/internal/appconfig"
	"github.com/mwiater/crossbench/internal/logging"
	"github.com/mwiater/crossbench/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crossbench",
	Short: "crossbench: compile, run and compare equivalent programs across toolchains",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(); err != nil {
			return err
		}
		used, err := ensureConfigLoaded(cmd)
		if err != nil {
			return err
		}

		cfg := appconfig.Default()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = used
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetDebug(currentConfig.Debug)
		logging.SetRunID(newRunID())
		return nil
	},
}

var newRunID = func() string { return uuid.NewString()[:8] }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., "+appconfig.DefaultConfigPath+")")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("mode", appconfig.ModeCompare, "orchestration mode: compare or optdiff")
	rootCmd.PersistentFlags().StringP("output", "o", "", "ledger path (default results.csv, or llvm-pipeline-results.csv in optdiff mode)")
	rootCmd.PersistentFlags().String("ledger-backend", appconfig.BackendCSV, "ledger backend: csv or sqlite")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus textfile metrics here after a run")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("ledgerBackend", rootCmd.PersistentFlags().Lookup("ledger-backend"))
	_ = viper.BindPFlag("metricsFile", rootCmd.PersistentFlags().Lookup("metrics-file"))

	viper.SetEnvPrefix("CROSSBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// loadDotEnv loads a .env file from the working directory when one exists.
func loadDotEnv() error {
	if !util.FileExists(".env") {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ensureConfigLoaded validates and reads the config file and returns its path.
// A missing default config falls back to built-in defaults; a missing explicit
// one is an error.
func ensureConfigLoaded(cmd *cobra.Command) (string, error) {
	if cfgFile == "" {
		return "", nil
	}
	if !util.FileExists(cfgFile) {
		if flag := cmd.Flag("config"); flag != nil && flag.Changed {
			return "", fmt.Errorf("no configuration file found at %q", cfgFile)
		}
		logging.LogDebug("no config at %s, using defaults", cfgFile)
		viper.SetConfigType("json")
		if err := viper.ReadConfig(strings.NewReader("{}")); err != nil {
			return "", fmt.Errorf("failed to reset config: %w", err)
		}
		return "", nil
	}
	if err := appconfig.ValidateFile(cfgFile); err != nil {
		return "", fmt.Errorf("config file %q: %w", cfgFile, err)
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfgFile, nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
