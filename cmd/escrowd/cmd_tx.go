package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/commands/server"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/token"
)

const (
	flagKey     = "key"
	flagMaker   = "maker"
	flagOwner   = "owner"
	flagSeed    = "seed"
	flagMintX   = "mint-x"
	flagMintY   = "mint-y"
	flagAmountX = "amount-x"
	flagAmountY = "amount-y"
	flagTicker  = "ticker"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Sign a transaction and apply it to the local ledger",
	}
	cmd.PersistentFlags().String(flagKey, "", "name of the signing key")

	open := &cobra.Command{
		Use:   "open",
		Short: "Deposit amount x of mint x, asking amount y of mint y in return",
		RunE:  runOpen,
	}
	open.Flags().Uint64(flagSeed, 0, "seed allowing many escrows per maker")
	open.Flags().String(flagMintX, "", "ticker of the deposited asset")
	open.Flags().String(flagMintY, "", "ticker of the requested asset")
	open.Flags().Uint64(flagAmountX, 0, "deposited amount")
	open.Flags().Uint64(flagAmountY, 0, "requested amount")

	settle := &cobra.Command{
		Use:   "settle",
		Short: "Pay the maker and receive the escrow deposit",
		RunE:  runSettle,
	}
	settle.Flags().String(flagMaker, "", "key name or address of the maker")
	settle.Flags().Uint64(flagSeed, 0, "seed of the escrow")

	cancel := &cobra.Command{
		Use:   "cancel",
		Short: "Return the escrow deposit to its maker",
		RunE:  runCancel,
	}
	cancel.Flags().Uint64(flagSeed, 0, "seed of the escrow")

	account := &cobra.Command{
		Use:   "create-account",
		Short: "Create the token account of an owner, paid by the signer",
		RunE:  runCreateAccount,
	}
	account.Flags().String(flagTicker, "", "ticker of the account asset")
	account.Flags().String(flagOwner, "", "key name or address of the owner, the signer if empty")

	cmd.AddCommand(open, settle, cancel, account)
	return cmd
}

func runOpen(cmd *cobra.Command, args []string) error {
	key, err := loadKey(server.Home(cmd), flagString(cmd, flagKey))
	if err != nil {
		return err
	}
	mintX, err := token.MintAddress(flagString(cmd, flagMintX))
	if err != nil {
		return errors.Wrap(err, flagMintX)
	}
	mintY, err := token.MintAddress(flagString(cmd, flagMintY))
	if err != nil {
		return errors.Wrap(err, flagMintY)
	}
	msg := &escrow.OpenMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Maker:    key.PublicKey().Address(),
		MintX:    mintX,
		MintY:    mintY,
		Seed:     flagUint64(cmd, flagSeed),
		AmountX:  flagUint64(cmd, flagAmountX),
		AmountY:  flagUint64(cmd, flagAmountY),
	}
	return submit(cmd, msg, flagString(cmd, flagKey))
}

func runSettle(cmd *cobra.Command, args []string) error {
	home := server.Home(cmd)
	key, err := loadKey(home, flagString(cmd, flagKey))
	if err != nil {
		return err
	}
	maker, err := resolveAddress(home, flagString(cmd, flagMaker))
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
	msg := &escrow.SettleMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Taker:    key.PublicKey().Address(),
		Maker:    maker,
		Escrow:   addr,
		MintX:    e.MintX,
		MintY:    e.MintY,
	}
	res, err := l.submit(msg, key)
	if err != nil {
		return err
	}
	printTags(cmd, res)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	key, err := loadKey(server.Home(cmd), flagString(cmd, flagKey))
	if err != nil {
		return err
	}
	maker := key.PublicKey().Address()
	cond, _, err := escrow.Condition(maker, flagUint64(cmd, flagSeed))
	if err != nil {
		return err
	}
	msg := &escrow.CancelMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Maker:    maker,
		Escrow:   cond.Address(),
	}
	return submit(cmd, msg, flagString(cmd, flagKey))
}

func runCreateAccount(cmd *cobra.Command, args []string) error {
	home := server.Home(cmd)
	key, err := loadKey(home, flagString(cmd, flagKey))
	if err != nil {
		return err
	}
	owner := key.PublicKey().Address()
	if o := flagString(cmd, flagOwner); o != "" {
		if owner, err = resolveAddress(home, o); err != nil {
			return errors.Wrap(err, flagOwner)
		}
	}
	mint, err := token.MintAddress(flagString(cmd, flagTicker))
	if err != nil {
		return err
	}
	msg := &token.CreateAccountMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Payer:    key.PublicKey().Address(),
		Owner:    owner,
		Mint:     mint,
	}
	return submit(cmd, msg, flagString(cmd, flagKey))
}

func submit(cmd *cobra.Command, msg weave.Msg, keyName string) error {
	key, err := loadKey(server.Home(cmd), keyName)
	if err != nil {
		return err
	}
	l, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := l.submit(msg, key)
	if err != nil {
		return err
	}
	printTags(cmd, res)
	return nil
}

func loadEscrow(l *ledger, maker weave.Address, seed uint64) (weave.Address, *escrow.Escrow, error) {
	cond, _, err := escrow.Condition(maker, seed)
	if err != nil {
		return nil, nil, err
	}
	addr := cond.Address()
	var e escrow.Escrow
	if err := l.query("/escrows", addr, &e); err != nil {
		return nil, nil, errors.Wrapf(err, "escrow %s", addr)
	}
	return addr, &e, nil
}

func printTags(cmd *cobra.Command, res *abci.ResponseDeliverTx) {
	for _, t := range res.Tags {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", t.Key, t.Value)
	}
}

// resolveAddress accepts the name of a local key or an address.
func resolveAddress(home, s string) (weave.Address, error) {
	if isKeyName(s) {
		if path, err := keyFile(home, s); err == nil {
			if _, err := os.Stat(path); err == nil {
				key, err := loadKey(home, s)
				if err != nil {
					return nil, err
				}
				return key.PublicKey().Address(), nil
			}
		}
	}
	addr, err := weave.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return addr, addr.Validate()
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func flagUint64(cmd *cobra.Command, name string) uint64 {
	v, _ := cmd.Flags().GetUint64(name)
	return v
}
