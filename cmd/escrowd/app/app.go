/*
Package app wires the escrow extension together with signature
verification, native coins and the token service into an ABCI
application.
*/
package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store/iavl"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/iov-one/weave-escrow/x/token"
	"github.com/iov-one/weave-escrow/x/utils"
)

// Name is returned by the ABCI Info call.
const Name = "escrowd"

// Authenticator returns the authentication used by every handler:
// public key signatures and the derived authority an escrow grants itself
// while moving its vault.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, escrow.Authenticate{})
}

// CashControl returns a controller for native coins, used to pay rent.
func CashControl() cash.Controller {
	return cash.NewController(cash.NewBucket())
}

// TokenControl returns the token service.
func TokenControl(authFn x.Authenticator) token.Controller {
	return token.NewController(authFn, CashControl())
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching token and escrow messages.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	tokens := TokenControl(authFn)
	token.RegisterRoutes(r, authFn, tokens)
	escrow.RegisterRoutes(r, authFn, tokens, CashControl())
	return r
}

// QueryRouter returns a query router, allowing access to "/escrows",
// "/mints", "/accounts", "/wallets" and "/auth"
func QueryRouter() weave.QueryRouter {
	r := weave.NewQueryRouter()
	r.RegisterAll(
		escrow.RegisterQuery,
		token.RegisterQuery,
		cash.RegisterQuery,
		sigs.RegisterQuery,
	)
	return r
}

// Stack wires up the router with the decorator chain. This can be passed
// into BaseApp.
func Stack() weave.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}

// Initializers returns the genesis loaders of every extension.
func Initializers() weave.Initializer {
	return app.ChainInitializers(
		cash.Initializer{},
		token.Initializer{},
		escrow.Initializer{},
	)
}

// Application constructs the ABCI application over the given store.
func Application(kv weave.CommitKVStore, logger log.Logger, debug bool) (app.BaseApp, error) {
	store, err := app.NewStoreApp(Name, kv, QueryRouter(), context.Background())
	if err != nil {
		return app.BaseApp{}, err
	}
	store = store.WithInit(Initializers()).WithLogger(logger)
	return app.NewBaseApp(store, app.TxDecoder, Stack(), debug), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path. An empty path gives an in memory store.
func CommitKVStore(dbPath string) (*iavl.CommitStore, error) {
	if dbPath == "" {
		return iavl.MemCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "database path %q", dbPath)
	}
	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}
