package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/commands/server"
)

// version is set during the build.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "escrowd",
		Short:         "Escrow ABCI Application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	server.AddPersistentFlags(root, filepath.Join(os.ExpandEnv("$HOME"), ".escrowd"))
	root.AddCommand(
		initCmd(),
		server.StartCmd(app.GenerateApp),
		keysCmd(),
		txCmd(),
		queryCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the app version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}
