package app

import (
	"encoding/json"
	"path/filepath"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/token"
)

// InitOptions describes the development genesis written by the init
// command.
type InitOptions struct {
	// Owner receives native coins and the initial supply of every mint. It
	// is also the authority of every mint.
	Owner weave.Address
	// Tickers are the mints created at genesis.
	Tickers []string
	// Decimals of every created mint.
	Decimals uint32
	// Supply is the token amount issued to the owner for every mint.
	Supply uint64
	// Native is the native coin balance of the owner, used to pay rent.
	Native      uint64
	AccountRent uint64
	RecordRent  uint64
}

// GenInitOptions will produce the app state for one rich account, to use
// for dev mode.
func GenInitOptions(opts InitOptions) (json.RawMessage, error) {
	if err := opts.Owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	if len(opts.Tickers) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "tickers")
	}

	type dict map[string]interface{}
	meta := &weave.Metadata{Schema: 1}

	var (
		mints    []token.GenesisMint
		accounts []token.GenesisAccount
	)
	for _, ticker := range opts.Tickers {
		if _, err := token.MintAddress(ticker); err != nil {
			return nil, errors.Wrapf(err, "ticker %q", ticker)
		}
		mints = append(mints, token.GenesisMint{
			Ticker:    ticker,
			Decimals:  opts.Decimals,
			Authority: opts.Owner,
		})
		accounts = append(accounts, token.GenesisAccount{
			Owner:  opts.Owner,
			Ticker: ticker,
			Amount: opts.Supply,
		})
	}

	return json.Marshal(dict{
		"cash": []cash.GenesisAccount{
			{Address: opts.Owner, Balance: opts.Native},
		},
		"token": dict{
			"mints":    mints,
			"accounts": accounts,
		},
		"conf": dict{
			"token": dict{
				"metadata":     meta,
				"account_rent": opts.AccountRent,
			},
			"escrow": dict{
				"metadata":    meta,
				"record_rent": opts.RecordRent,
			},
		},
	})
}

// GenerateApp is used to create the application for the start command.
// The database is kept under home, an empty home gives an in memory
// database.
func GenerateApp(home string, logger log.Logger, debug bool) (abci.Application, error) {
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "abci.db")
	}
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return nil, err
	}
	return Application(kv, logger, debug)
}
