package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iov-one/weave-escrow/commands/server"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/token"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read the committed state of the local ledger",
	}

	esc := &cobra.Command{
		Use:   "escrow",
		Short: "Print the escrow of a maker and seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			maker, err := resolveAddress(server.Home(cmd), flagString(cmd, flagMaker))
			if err != nil {
				return errors.Wrap(err, flagMaker)
			}
			l, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer l.Close()

			addr, e, err := loadEscrow(l, maker, flagUint64(cmd, flagSeed))
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Address string      `json:"address"`
				Escrow  interface{} `json:"escrow"`
			}{addr.String(), e})
		},
	}
	esc.Flags().String(flagMaker, "", "key name or address of the maker")
	esc.Flags().Uint64(flagSeed, 0, "seed of the escrow")

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Print the native balance of an owner, or its token balance for a ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveAddress(server.Home(cmd), flagString(cmd, flagOwner))
			if err != nil {
				return errors.Wrap(err, flagOwner)
			}
			l, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer l.Close()

			ticker := flagString(cmd, flagTicker)
			if ticker == "" {
				var w cash.Wallet
				if err := l.query("/wallets", owner, &w); err != nil && !errors.ErrNotFound.Is(err) {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), w.Balance)
				return nil
			}

			mint, err := token.MintAddress(ticker)
			if err != nil {
				return err
			}
			addr, err := token.AssociatedAddress(owner, mint)
			if err != nil {
				return err
			}
			var acc token.Account
			if err := l.query("/accounts", addr, &acc); err != nil {
				return errors.Wrapf(err, "account %s", addr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), acc.Amount)
			return nil
		},
	}
	balance.Flags().String(flagOwner, "", "key name or address of the owner")
	balance.Flags().String(flagTicker, "", "ticker of the token, native coins if empty")

	cmd.AddCommand(esc, balance)
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
