package server

import (
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/weave-escrow/errors"
)

const (
	flagBind  = "bind"
	flagDebug = "debug"
)

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(home string, logger log.Logger, debug bool) (abci.Application, error)

// StartCmd runs the application as an ABCI socket server until the
// process receives a termination signal.
func StartCmd(gen AppGenerator) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the abci server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := Logger(cmd)
			if err != nil {
				return err
			}
			addr, err := cmd.Flags().GetString(flagBind)
			if err != nil {
				return err
			}
			debug, err := cmd.Flags().GetBool(flagDebug)
			if err != nil {
				return err
			}

			app, err := gen(Home(cmd), logger, debug)
			if err != nil {
				return err
			}

			logger.Info("Starting ABCI app", "bind", addr)
			svr, err := server.NewServer(addr, "socket", app)
			if err != nil {
				return errors.Wrapf(errors.ErrInput, "creating listener: %s", err)
			}
			svr.SetLogger(logger.With("module", "abci-server"))
			if err := svr.Start(); err != nil {
				return errors.Wrapf(errors.ErrInput, "start server: %s", err)
			}

			// Wait forever
			cmn.TrapSignal(func() {
				// Cleanup
				svr.Stop()
			})
			return nil
		},
	}
	cmd.Flags().String(flagBind, "tcp://localhost:26658", "address server listens on")
	cmd.Flags().Bool(flagDebug, false, "call stack returned on error")
	return cmd
}
