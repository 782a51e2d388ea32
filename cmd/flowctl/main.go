// Command flowctl is the operator CLI for this substrate: validate an
// extension manifest against its own schema, check two manifests for
// send/receive compatibility, and drive one command end-to-end through
// an in-process loopback scheduler.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "flowctl",
		Short:         "Operator CLI for schema, compatibility and send-path checks",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	flags := pflag.NewFlagSet("flowctl", pflag.ContinueOnError)
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().AddFlagSet(flags)

	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newSendCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
