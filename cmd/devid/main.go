// Package main implements the devid CLI, the front-end command that
// drives a DisContext through one invocation of the Device Identity
// Subsystem: load the registry, scan the system, and either report
// what it found or mutate the registry to match.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError.Sprintf("devid: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		outputFormat string
		metricsAddr  string
		stopMetrics  func()
	)

	rootCmd := &cobra.Command{
		Use:   "devid",
		Short: "Inspect and repair the LVM2 device identity registry",
		Long: `devid drives the Device Identity Subsystem: it enumerates block
devices, pairs them against a persisted devices file, filters out
devices that should never be considered (multipath legs, unreadable
sysfs entries), reads PVID labels, and reconciles the registry against
what it observes.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			stopMetrics = startMetricsServer(metricsAddr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			stopMetrics()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a devid TOML config file (built-in defaults if unset)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to expose Prometheus metrics on for this invocation (e.g. :9469); unset disables it")

	rootCmd.AddCommand(newCheckCmd(&configPath, &outputFormat))
	rootCmd.AddCommand(newResolveCmd(&configPath, &outputFormat))
	rootCmd.AddCommand(newListCmd(&configPath, &outputFormat))
	rootCmd.AddCommand(newAddCmd(&configPath))
	rootCmd.AddCommand(newRemoveCmd(&configPath))
	rootCmd.AddCommand(newImportCmd(&configPath, &outputFormat))
	rootCmd.AddCommand(newValidateCmd(&configPath))
	rootCmd.AddCommand(newScanRenamesCmd(&configPath))

	return rootCmd
}
