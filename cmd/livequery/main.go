package main

import (
	"fmt"
	"os"

	_ "github.com/autom8ter/livequery/kv/badger"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "livequery",
		Short:         "serve, seed and query live document collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "path to a config file (yaml or json)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.AddCommand(serveCmd(), seedCmd(), queryCmd())
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
