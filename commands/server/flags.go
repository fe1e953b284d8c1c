package server

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/weave-escrow/errors"
)

const (
	// FlagHome is the directory holding the genesis, the keys and the
	// database.
	FlagHome = "home"
	// FlagLogLevel filters the log output.
	FlagLogLevel = "log-level"
)

// AddPersistentFlags registers the flags shared by all commands.
func AddPersistentFlags(root *cobra.Command, defaultHome string) {
	root.PersistentFlags().String(FlagHome, defaultHome, "directory to store files under")
	root.PersistentFlags().String(FlagLogLevel, "info", "log level: debug, info, error or none")
}

// Home returns the home directory set on the command line.
func Home(cmd *cobra.Command) string {
	home, err := cmd.Flags().GetString(FlagHome)
	if err != nil || home == "" {
		return filepath.Join(os.ExpandEnv("$HOME"), ".escrowd")
	}
	return home
}

// Logger returns a logger writing to stdout, filtered with the level set on
// the command line.
func Logger(cmd *cobra.Command) (log.Logger, error) {
	lvl, err := cmd.Flags().GetString(FlagLogLevel)
	if err != nil {
		lvl = "info"
	}
	allowed, err := log.AllowLevel(lvl)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	return log.NewFilter(logger, allowed), nil
}

// GenesisFile returns the path of the genesis file under home.
func GenesisFile(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}
