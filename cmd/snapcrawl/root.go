package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapcrawl",
		Short: "Bounded same-origin crawler that snapshots every page it visits",
		Long: `snapcrawl renders pages in Chrome, waits until each page settles,
and captures its markup together with a full-page screenshot.

Captures are POSTed to a configured endpoint, retried once through an
optional relay, and written to disk when neither accepts them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: config.yaml in current or XDG config directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
