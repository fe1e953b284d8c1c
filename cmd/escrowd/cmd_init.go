package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	escrowapp "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/commands/server"
)

const (
	flagTickers     = "tickers"
	flagDecimals    = "decimals"
	flagSupply      = "supply"
	flagNative      = "native"
	flagAccountRent = "account-rent"
	flagRecordRent  = "record-rent"
)

func initCmd() *cobra.Command {
	cmd := server.InitCmd(genInitOptions, escrowapp.Initializers())
	cmd.Use = "init <owner>"
	cmd.Short = "Initialize a genesis funding the owner, a key name or an address"
	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().String(flagTickers, "AAA,BBB", "comma separated tickers of the mints to create")
	cmd.Flags().Uint32(flagDecimals, 6, "decimals of every mint")
	cmd.Flags().Uint64(flagSupply, 1000000000, "token amount issued to the owner for every mint")
	cmd.Flags().Uint64(flagNative, 1000000, "native balance of the owner")
	cmd.Flags().Uint64(flagAccountRent, 10, "native rent of a token account")
	cmd.Flags().Uint64(flagRecordRent, 10, "native rent of an escrow record")
	return cmd
}

func genInitOptions(cmd *cobra.Command, args []string) (json.RawMessage, error) {
	owner, err := resolveAddress(server.Home(cmd), args[0])
	if err != nil {
		return nil, err
	}
	decimals, _ := cmd.Flags().GetUint32(flagDecimals)
	return escrowapp.GenInitOptions(escrowapp.InitOptions{
		Owner:       owner,
		Tickers:     strings.Split(flagString(cmd, flagTickers), ","),
		Decimals:    decimals,
		Supply:      flagUint64(cmd, flagSupply),
		Native:      flagUint64(cmd, flagNative),
		AccountRent: flagUint64(cmd, flagAccountRent),
		RecordRent:  flagUint64(cmd, flagRecordRent),
	})
}
