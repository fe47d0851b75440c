package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"intercom-cli/internal/client"
	"intercom-cli/internal/config"
)

// Variables to hold flag values
var (
	host     string
	cacheDir string
	noProbe  bool
)

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Point the CLI at an intercom backend",
	Long: `Checks that the backend is reachable and saves its base URL (and
optionally a cache directory) to the config file for future commands.

Example:
  intercom-cli configure --host "http://cars.cit.rubetek.ru/api/rubetek"`,
	Run: func(cmd *cobra.Command, args []string) {
		// Clean up input host (remove trailing slash if present)
		host = strings.TrimRight(host, "/")

		if !noProbe {
			fmt.Printf("Checking %s ...\n", host)
			if !client.NewDialProbe(host, config.Load().ProbeTimeout).Reachable() {
				log.Fatalf("Fatal: %s is not reachable (use --no-probe to save anyway)", host)
			}
		}

		if err := config.SaveBaseURL(host, cacheDir); err != nil {
			log.Fatalf("Failed to save configuration file: %v", err)
		}

		fmt.Printf("Configuration saved. You can now run commands like 'intercom-cli cameras list'.\n")
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().StringVar(&host, "host", "", "API Base URL (e.g. http://cars.cit.rubetek.ru/api/rubetek)")
	configureCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the local cache")
	configureCmd.Flags().BoolVar(&noProbe, "no-probe", false, "Save without checking that the host is reachable")

	_ = configureCmd.MarkFlagRequired("host")
}
