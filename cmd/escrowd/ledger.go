package main

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	escrowapp "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/commands/server"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store/iavl"
	"github.com/iov-one/weave-escrow/x/sigs"
)

// ledger executes transactions against the application database kept in
// the home directory, one block per transaction. It is meant for local
// development without a tendermint node.
type ledger struct {
	kv  *iavl.CommitStore
	app app.BaseApp
}

func openLedger(cmd *cobra.Command) (*ledger, error) {
	home := server.Home(cmd)
	logger, err := server.Logger(cmd)
	if err != nil {
		return nil, err
	}
	kv, err := escrowapp.CommitKVStore(filepath.Join(home, "abci.db"))
	if err != nil {
		return nil, err
	}
	a, err := escrowapp.Application(kv, logger, false)
	if err != nil {
		kv.Close()
		return nil, err
	}
	l := &ledger{kv: kv, app: a}
	if a.GetChainID() == "" {
		if err := l.initChain(server.GenesisFile(home)); err != nil {
			kv.Close()
			return nil, err
		}
	}
	return l, nil
}

// initChain loads the genesis into a fresh database.
func (l *ledger) initChain(genesisFile string) (err error) {
	gen, err := app.LoadGenesis(genesisFile)
	if err != nil {
		return errors.Wrap(err, "run init first")
	}
	state, err := json.Marshal(gen.AppState)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	defer errors.Recover(&err)
	l.app.InitChain(abci.RequestInitChain{ChainId: gen.ChainID, AppStateBytes: state})

	// Commit the genesis state so that it can be queried.
	header := abci.Header{ChainID: gen.ChainID, Height: 1, Time: time.Now().UTC()}
	l.app.BeginBlock(abci.RequestBeginBlock{Header: header})
	l.app.EndBlock(abci.RequestEndBlock{Height: header.Height})
	l.app.Commit()
	return nil
}

func (l *ledger) Close() {
	l.kv.Close()
}

// submit signs msg with key and runs it in a new block. The block is only
// committed if the transaction succeeds.
func (l *ledger) submit(msg weave.Msg, key crypto.PrivateKey) (*abci.ResponseDeliverTx, error) {
	info, err := l.kv.LatestVersion()
	if err != nil {
		return nil, err
	}
	header := abci.Header{
		ChainID: l.app.GetChainID(),
		Height:  info.Version + 1,
		Time:    time.Now().UTC(),
	}
	l.app.BeginBlock(abci.RequestBeginBlock{Header: header})

	seq, err := sigs.NextSequence(l.app.DeliverStore(), key.PublicKey())
	if err != nil {
		return nil, err
	}
	tx := &app.Tx{Msg: msg}
	sig, err := sigs.SignTx(key, tx, l.app.GetChainID(), seq)
	if err != nil {
		return nil, err
	}
	tx.Signatures = []*sigs.StdSignature{sig}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}

	if res := l.app.CheckTx(raw); res.Code != errors.SuccessABCICode {
		return nil, errors.Wrap(errors.ABCIError(res.Code, res.Log), "check")
	}
	res := l.app.DeliverTx(raw)
	if res.Code != errors.SuccessABCICode {
		return nil, errors.Wrap(errors.ABCIError(res.Code, res.Log), "deliver")
	}
	l.app.EndBlock(abci.RequestEndBlock{Height: header.Height})
	l.app.Commit()
	return &res, nil
}

// query loads a single model from the committed state.
func (l *ledger) query(path string, key []byte, obj weave.Persistent) error {
	res := l.app.Query(abci.RequestQuery{Path: path, Data: key})
	if res.Code != errors.SuccessABCICode {
		return errors.ABCIError(res.Code, res.Log)
	}
	return app.UnmarshalOneResult(res.Value, obj)
}
