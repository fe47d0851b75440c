package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"intercom-cli/internal/config"
	"intercom-cli/internal/logging"
)

var cfgFile string
var jsonOutput bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "intercom-cli",
	Short: "Browse intercom cameras and doors with an offline cache",
	Long: `Lists the cameras and doors of an intercom backend. Results are cached
locally and served from the cache until an explicit refresh, so the lists
stay available when the backend cannot be reached.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		settings := config.Load()
		logging.Init(logging.Config{
			Level:     settings.LogLevel,
			Format:    settings.LogFormat,
			Timestamp: true,
		})
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.intercom-cli.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}
