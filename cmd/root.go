// Package cmd defines the renderfeed command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renderfeed",
		Short: "Fetch script-rendered feeds through headless browsers",
		Long: `renderfeed retrieves RSS and Atom feeds from pages that only render
their content after JavaScript execution. Pages are loaded through a pool of
headless Chrome instances and the resulting XML is normalized into a single
feed document with cleaned titles, extracted links and parsed dates.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")

	cmd.AddCommand(newFetchCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
