package token

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

const optKey = "token"

// GenesisMint is used to parse the mints from the genesis file.
type GenesisMint struct {
	Ticker    string        `json:"ticker"`
	Decimals  uint32        `json:"decimals"`
	Authority weave.Address `json:"authority"`
}

// GenesisAccount is used to parse the funded accounts from the genesis
// file. Genesis accounts pay no rent.
type GenesisAccount struct {
	Owner  weave.Address `json:"owner"`
	Ticker string        `json:"ticker"`
	Amount uint64        `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis saves the configuration, the mints and the accounts.
func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	if err := gconf.InitConfig(db, opts, confPkg, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var state struct {
		Mints    []GenesisMint    `json:"mints"`
		Accounts []GenesisAccount `json:"accounts"`
	}
	if err := opts.ReadOptions(optKey, &state); err != nil {
		return errors.Wrapf(errors.ErrInput, "token genesis: %s", err)
	}

	mints := NewMintBucket()
	supply := make(map[string]*Mint)
	for _, gm := range state.Mints {
		mint := &Mint{
			Metadata:  &weave.Metadata{Schema: 1},
			Ticker:    gm.Ticker,
			Decimals:  gm.Decimals,
			Authority: gm.Authority,
		}
		if err := mint.Validate(); err != nil {
			return errors.Wrapf(err, "mint %s", gm.Ticker)
		}
		if _, ok := supply[gm.Ticker]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "mint %s", gm.Ticker)
		}
		supply[gm.Ticker] = mint
	}

	accounts := NewAccountBucket()
	for i, ga := range state.Accounts {
		mint, ok := supply[ga.Ticker]
		if !ok {
			return errors.Wrapf(errors.ErrNotFound, "account %d: mint %s", i, ga.Ticker)
		}
		mintAddr, err := MintAddress(ga.Ticker)
		if err != nil {
			return err
		}
		addr, err := AssociatedAddress(ga.Owner, mintAddr)
		if err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if mint.Supply+ga.Amount < mint.Supply {
			return errors.Wrapf(errors.ErrOverflow, "mint %s", ga.Ticker)
		}
		mint.Supply += ga.Amount
		acc := &Account{
			Metadata: &weave.Metadata{Schema: 1},
			Mint:     mintAddr,
			Owner:    ga.Owner,
			Amount:   ga.Amount,
		}
		if err := accounts.Put(db, addr, acc); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}

	for ticker, mint := range supply {
		addr, err := MintAddress(ticker)
		if err != nil {
			return err
		}
		if err := mints.Put(db, addr, mint); err != nil {
			return errors.Wrapf(err, "mint %s", ticker)
		}
	}
	return nil
}
