// Package cmd implements the command-line interface of torrent-resolver.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felipemarinho97/torrent-resolver/config"
	"github.com/felipemarinho97/torrent-resolver/logging"
)

// rootCmd serves the HTTP API when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "torrent-resolver",
	Short: "Resolve movies and episodes to ranked torrents and debrid stream links",
	Long: "torrent-resolver finds torrents for a movie, series episode or anime episode, " +
		"ranks them and turns the chosen one into a direct link through a debrid service.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		handleErr(err)
	}
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr, _ = cmd.Flags().GetString("listen")
	}
	if cmd.Flags().Changed("metrics") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics")
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabaseDSN, _ = cmd.Flags().GetString("db")
	}
	return cfg
}

func handleErr(err error) {
	if err != nil {
		logging.Error().Err(err).Msg("Command failed")
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("listen", "", "Address of the HTTP API (LISTEN_ADDR)")
	rootCmd.PersistentFlags().String("metrics", "", "Address of the Prometheus endpoint (METRICS_ADDR)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN (DATABASE_DSN)")
}
