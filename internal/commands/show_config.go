// internal/commands/show_config.go
package crossbench

import (
	"github.com/mwiater/crossbench/internal/appconfig"
	"github.com/spf13/cobra"
)

var showConfigFile string

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long: `Show config settings ensuring that the JSON config is loaded properly and overridden by flags and CROSSBENCH_* environment variables.
With --file, the named file is validated and shown on its own, on top of the built-in defaults only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showConfigFile != "" {
			cfg, err := appconfig.Load(showConfigFile)
			if err != nil {
				return err
			}
			appconfig.ShowConfig(cmd.OutOrStdout(), cfg.ConfigPath, &cfg, cfg.Debug)
			return nil
		}
		cfg := GetConfig()
		verbose := cfg != nil && cfg.Debug
		file := ""
		if cfg != nil {
			file = cfg.ConfigPath
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), file, cfg, verbose)
		return nil
	},
}

func init() {
	showConfigCmd.Flags().StringVar(&showConfigFile, "file", "", "validate and show this config file without flag or environment overrides")
	showCmd.AddCommand(showConfigCmd)
}
