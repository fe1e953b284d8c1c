package escrow

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/token"
)

const (
	accountRent = 10
	recordRent  = 7
	nativeFunds = 1000
)

type router map[string]weave.Handler

func (r router) Handle(m weave.Msg, h weave.Handler) { r[m.Path()] = h }

// fixture is a ledger with two mints, A with 6 decimals and B with 2
// decimals. The maker holds 500 A and the taker holds 200 B. Both have an
// account for each mint.
type fixture struct {
	db      weave.CacheableKVStore
	ctxAuth *weavetest.CtxAuth
	tokens  token.BaseController
	bank    cash.BaseController
	router  router
	issuer  weave.Condition
	maker   weave.Condition
	taker   weave.Condition
	mintA   weave.Address
	mintB   weave.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      store.MemStore(),
		ctxAuth: &weavetest.CtxAuth{Key: "auth"},
		bank:    cash.NewController(cash.NewBucket()),
		router:  router{},
		issuer:  weavetest.NewCondition(),
		maker:   weavetest.NewCondition(),
		taker:   weavetest.NewCondition(),
	}
	auth := x.ChainAuth(f.ctxAuth, Authenticate{})
	f.tokens = token.NewController(auth, f.bank)
	RegisterRoutes(f.router, auth, f.tokens, f.bank)

	assert.Nil(t, gconf.Save(f.db, "token", &token.Configuration{
		Metadata:    &weave.Metadata{Schema: 1},
		AccountRent: accountRent,
	}))
	f.configure(t, false)

	f.mintA = f.createMint(t, "AAA", 6)
	f.mintB = f.createMint(t, "BBB", 2)
	for _, owner := range []weave.Condition{f.maker, f.taker} {
		assert.Nil(t, f.bank.IssueCoins(f.db, owner.Address(), nativeFunds))
		ctx := f.ctxAuth.SetConditions(context.Background(), owner)
		for _, mint := range []weave.Address{f.mintA, f.mintB} {
			_, err := f.tokens.InitAccount(ctx, f.db, owner.Address(), owner.Address(), mint)
			assert.Nil(t, err)
		}
	}
	f.fund(t, f.maker, f.mintA, 500)
	f.fund(t, f.taker, f.mintB, 200)
	return f
}

func (f *fixture) configure(t *testing.T, allowZeroAmountY bool) {
	t.Helper()
	assert.Nil(t, gconf.Save(f.db, confPkg, &Configuration{
		Metadata:         &weave.Metadata{Schema: 1},
		RecordRent:       recordRent,
		AllowZeroAmountY: allowZeroAmountY,
	}))
}

func (f *fixture) createMint(t *testing.T, ticker string, decimals uint32) weave.Address {
	t.Helper()
	addr, err := token.MintAddress(ticker)
	assert.Nil(t, err)
	assert.Nil(t, token.NewMintBucket().Put(f.db, addr, &token.Mint{
		Metadata:  &weave.Metadata{Schema: 1},
		Ticker:    ticker,
		Decimals:  decimals,
		Authority: f.issuer.Address(),
	}))
	return addr
}

func (f *fixture) fund(t *testing.T, owner weave.Condition, mint weave.Address, amount uint64) {
	t.Helper()
	ctx := f.ctxAuth.SetConditions(context.Background(), f.issuer)
	assert.Nil(t, f.tokens.MintTo(ctx, f.db, mint, f.account(t, owner.Address(), mint), amount))
}

func (f *fixture) account(t *testing.T, owner, mint weave.Address) weave.Address {
	t.Helper()
	addr, err := token.AssociatedAddress(owner, mint)
	assert.Nil(t, err)
	return addr
}

func (f *fixture) balance(t *testing.T, owner weave.Condition, mint weave.Address) uint64 {
	t.Helper()
	bal, err := f.tokens.Balance(f.db, f.account(t, owner.Address(), mint))
	assert.Nil(t, err)
	return bal
}

func (f *fixture) native(t *testing.T, addr weave.Address) uint64 {
	t.Helper()
	bal, err := f.bank.Balance(f.db, addr)
	assert.Nil(t, err)
	return bal
}

func (f *fixture) escrowAddress(t *testing.T, seed uint64) weave.Address {
	t.Helper()
	cond, _, err := Condition(f.maker.Address(), seed)
	assert.Nil(t, err)
	return cond.Address()
}

// deliver processes the message the way the application does: a check on
// a throw away cache, then a deliver committed only on success.
func (f *fixture) deliver(t *testing.T, msg weave.Msg, signers ...weave.Condition) (*weave.DeliverResult, error) {
	t.Helper()
	ctx := f.ctxAuth.SetConditions(context.Background(), signers...)
	tx := &weavetest.Tx{Msg: msg}
	h := f.router[msg.Path()]

	check := f.db.CacheWrap()
	_, err := h.Check(ctx, check, tx)
	check.Discard()
	if err != nil {
		return nil, err
	}

	cache := f.db.CacheWrap()
	res, err := h.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	assert.Nil(t, cache.Write())
	return res, nil
}

func (f *fixture) openMsg(seed, amountX, amountY uint64) *OpenMsg {
	return &OpenMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Maker:    f.maker.Address(),
		MintX:    f.mintA,
		MintY:    f.mintB,
		Seed:     seed,
		AmountX:  amountX,
		AmountY:  amountY,
	}
}

func (f *fixture) settleMsg(t *testing.T, taker weave.Condition, seed uint64) *SettleMsg {
	return &SettleMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Taker:    taker.Address(),
		Maker:    f.maker.Address(),
		Escrow:   f.escrowAddress(t, seed),
		MintX:    f.mintA,
		MintY:    f.mintB,
	}
}

func (f *fixture) cancelMsg(t *testing.T, seed uint64) *CancelMsg {
	return &CancelMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Maker:    f.maker.Address(),
		Escrow:   f.escrowAddress(t, seed),
	}
}

// assertClosed ensures neither the record nor the vault of an escrow exist.
func (f *fixture) assertClosed(t *testing.T, seed uint64) {
	t.Helper()
	addr := f.escrowAddress(t, seed)
	ok, err := NewBucket().Has(f.db, addr)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
	_, err = f.tokens.Account(f.db, f.account(t, addr, f.mintA))
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, uint64(0), f.native(t, addr))
}

func TestOpenCancelRoundTrip(t *testing.T) {
	cases := map[string]struct {
		seed    uint64
		amountX uint64
		amountY uint64
	}{
		"smallest":           {seed: 0, amountX: 1, amountY: 1},
		"whole balance":      {seed: 1, amountX: 500, amountY: 50},
		"large seed":         {seed: 1<<64 - 1, amountX: 100, amountY: 1 << 40},
		"asking for nothing": {seed: 42, amountX: 3, amountY: 0},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			f.configure(t, tc.amountY == 0)
			makerNative := f.native(t, f.maker.Address())

			res, err := f.deliver(t, f.openMsg(tc.seed, tc.amountX, tc.amountY), f.maker)
			assert.Nil(t, err)
			addr := f.escrowAddress(t, tc.seed)
			assert.Equal(t, addr, weave.Address(res.Data))

			_, e, err := NewBucket().GetEscrow(f.db, f.maker.Address(), tc.seed)
			assert.Nil(t, err)
			assert.Equal(t, tc.amountX, e.AmountX)
			assert.Equal(t, tc.amountY, e.AmountY)
			assert.Equal(t, tc.seed, e.Seed)
			assert.Equal(t, f.account(t, addr, f.mintA), e.Vault)

			vault, err := f.tokens.Account(f.db, e.Vault)
			assert.Nil(t, err)
			assert.Equal(t, tc.amountX, vault.Amount)
			assert.Equal(t, addr, vault.Owner)
			assert.Equal(t, 500-tc.amountX, f.balance(t, f.maker, f.mintA))
			assert.Equal(t, makerNative-recordRent-accountRent, f.native(t, f.maker.Address()))

			_, err = f.deliver(t, f.cancelMsg(t, tc.seed), f.maker)
			assert.Nil(t, err)

			assert.Equal(t, uint64(500), f.balance(t, f.maker, f.mintA))
			assert.Equal(t, makerNative, f.native(t, f.maker.Address()))
			f.assertClosed(t, tc.seed)
		})
	}
}

func TestSettle(t *testing.T) {
	f := newFixture(t)
	makerNative := f.native(t, f.maker.Address())
	takerNative := f.native(t, f.taker.Address())

	_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
	assert.Nil(t, err)
	vault := f.account(t, f.escrowAddress(t, 1), f.mintA)
	bal, err := f.tokens.Balance(f.db, vault)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), bal)

	res, err := f.deliver(t, f.settleMsg(t, f.taker, 1), f.taker)
	assert.Nil(t, err)

	assert.Equal(t, uint64(400), f.balance(t, f.maker, f.mintA))
	assert.Equal(t, uint64(50), f.balance(t, f.maker, f.mintB))
	assert.Equal(t, uint64(100), f.balance(t, f.taker, f.mintA))
	assert.Equal(t, uint64(150), f.balance(t, f.taker, f.mintB))
	assert.Equal(t, makerNative, f.native(t, f.maker.Address()))
	assert.Equal(t, takerNative, f.native(t, f.taker.Address()))
	f.assertClosed(t, 1)

	want := []weave.Tag{
		{Key: "escrow", Value: f.escrowAddress(t, 1).String()},
		{Key: "action", Value: "settle"},
		{Key: "maker", Value: f.maker.Address().String()},
		{Key: "taker", Value: f.taker.Address().String()},
	}
	assert.Equal(t, want, res.Tags)

	// Closed escrows cannot be settled or cancelled again.
	_, err = f.deliver(t, f.settleMsg(t, f.taker, 1), f.taker)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.deliver(t, f.cancelMsg(t, 1), f.maker)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestAnyoneCanTake(t *testing.T) {
	f := newFixture(t)
	carol := weavetest.NewCondition()
	assert.Nil(t, f.bank.IssueCoins(f.db, carol.Address(), nativeFunds))
	ctx := f.ctxAuth.SetConditions(context.Background(), carol)
	for _, mint := range []weave.Address{f.mintA, f.mintB} {
		_, err := f.tokens.InitAccount(ctx, f.db, carol.Address(), carol.Address(), mint)
		assert.Nil(t, err)
	}
	f.fund(t, carol, f.mintB, 50)

	_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
	assert.Nil(t, err)
	_, err = f.deliver(t, f.settleMsg(t, carol, 1), carol)
	assert.Nil(t, err)

	assert.Equal(t, uint64(100), f.balance(t, carol, f.mintA))
	assert.Equal(t, uint64(0), f.balance(t, carol, f.mintB))
	assert.Equal(t, uint64(50), f.balance(t, f.maker, f.mintB))
	assert.Equal(t, uint64(200), f.balance(t, f.taker, f.mintB))
	f.assertClosed(t, 1)
}

func TestSeeds(t *testing.T) {
	f := newFixture(t)

	_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
	assert.Nil(t, err)
	_, err = f.deliver(t, f.openMsg(1, 10, 5), f.maker)
	assert.IsErr(t, errors.ErrDuplicate, err)
	_, err = f.deliver(t, f.openMsg(2, 10, 5), f.maker)
	assert.Nil(t, err)
	assert.Equal(t, uint64(390), f.balance(t, f.maker, f.mintA))

	// Closing one escrow leaves the other one untouched.
	_, err = f.deliver(t, f.settleMsg(t, f.taker, 1), f.taker)
	assert.Nil(t, err)
	f.assertClosed(t, 1)
	_, e, err := NewBucket().GetEscrow(f.db, f.maker.Address(), 2)
	assert.Nil(t, err)
	assert.Equal(t, uint64(10), e.AmountX)
	bal, err := f.tokens.Balance(f.db, e.Vault)
	assert.Nil(t, err)
	assert.Equal(t, uint64(10), bal)

	// A seed can be reused once its escrow is closed.
	_, err = f.deliver(t, f.openMsg(1, 20, 5), f.maker)
	assert.Nil(t, err)
}

func TestMissingEscrow(t *testing.T) {
	f := newFixture(t)

	_, err := f.deliver(t, f.settleMsg(t, f.taker, 9), f.taker)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.deliver(t, f.cancelMsg(t, 9), f.maker)
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Equal(t, uint64(500), f.balance(t, f.maker, f.mintA))
	assert.Equal(t, uint64(0), f.balance(t, f.maker, f.mintB))
	assert.Equal(t, uint64(200), f.balance(t, f.taker, f.mintB))
}

func TestOpenFailures(t *testing.T) {
	unknownMint, err := token.MintAddress("ZZZ")
	assert.Nil(t, err)

	cases := map[string]struct {
		signer  func(*fixture) weave.Condition
		msg     func(*fixture) *OpenMsg
		wantErr *errors.Error
	}{
		"maker must sign": {
			signer:  func(f *fixture) weave.Condition { return f.taker },
			msg:     func(f *fixture) *OpenMsg { return f.openMsg(1, 100, 50) },
			wantErr: errors.ErrUnauthorized,
		},
		"insufficient deposit": {
			msg:     func(f *fixture) *OpenMsg { return f.openMsg(1, 501, 50) },
			wantErr: errors.ErrInsufficientAmount,
		},
		"zero amount x": {
			msg:     func(f *fixture) *OpenMsg { return f.openMsg(1, 0, 50) },
			wantErr: errors.ErrAmount,
		},
		"zero amount y is not allowed": {
			msg:     func(f *fixture) *OpenMsg { return f.openMsg(1, 100, 0) },
			wantErr: errors.ErrAmount,
		},
		"unknown mint": {
			msg: func(f *fixture) *OpenMsg {
				msg := f.openMsg(1, 100, 50)
				msg.MintY = unknownMint
				return msg
			},
			wantErr: errors.ErrNotFound,
		},
		"maker holds no asset x": {
			msg: func(f *fixture) *OpenMsg {
				msg := f.openMsg(1, 100, 50)
				msg.MintX, msg.MintY = f.mintB, f.mintA
				return msg
			},
			wantErr: errors.ErrInsufficientAmount,
		},
		"missing metadata": {
			msg: func(f *fixture) *OpenMsg {
				msg := f.openMsg(1, 100, 50)
				msg.Metadata = nil
				return msg
			},
			wantErr: errors.ErrMetadata,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			signer := f.maker
			if tc.signer != nil {
				signer = tc.signer(f)
			}
			makerNative := f.native(t, f.maker.Address())

			_, err := f.deliver(t, tc.msg(f), signer)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}

			// Nothing is left behind.
			f.assertClosed(t, 1)
			assert.Equal(t, uint64(500), f.balance(t, f.maker, f.mintA))
			assert.Equal(t, makerNative, f.native(t, f.maker.Address()))
		})
	}
}

func TestOpenWithoutRent(t *testing.T) {
	f := newFixture(t)
	poor := weavetest.NewCondition()
	assert.Nil(t, f.bank.IssueCoins(f.db, poor.Address(), 2*accountRent))
	ctx := f.ctxAuth.SetConditions(context.Background(), poor)
	for _, mint := range []weave.Address{f.mintA, f.mintB} {
		_, err := f.tokens.InitAccount(ctx, f.db, poor.Address(), poor.Address(), mint)
		assert.Nil(t, err)
	}
	f.fund(t, poor, f.mintA, 100)

	msg := f.openMsg(1, 100, 50)
	msg.Maker = poor.Address()
	_, err := f.deliver(t, msg, poor)
	assert.IsErr(t, errors.ErrInsufficientAmount, err)
	assert.Equal(t, uint64(100), f.balance(t, poor, f.mintA))
}

func TestOpenCreatesMakerAccount(t *testing.T) {
	f := newFixture(t)
	mintC := f.createMint(t, "CCC", 0)
	makerNative := f.native(t, f.maker.Address())

	msg := f.openMsg(1, 100, 50)
	msg.MintY = mintC
	_, err := f.deliver(t, msg, f.maker)
	assert.Nil(t, err)

	acc, err := f.tokens.Account(f.db, f.account(t, f.maker.Address(), mintC))
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), acc.Amount)
	assert.Equal(t, makerNative-recordRent-2*accountRent, f.native(t, f.maker.Address()))
}

func TestVaultTakeOver(t *testing.T) {
	f := newFixture(t)
	vault := f.account(t, f.escrowAddress(t, 1), f.mintA)

	// Anyone can create the vault account before the escrow is opened.
	ctx := f.ctxAuth.SetConditions(context.Background(), f.taker)
	_, err := f.tokens.InitAccount(ctx, f.db, f.taker.Address(), f.escrowAddress(t, 1), f.mintA)
	assert.Nil(t, err)

	_, err = f.deliver(t, f.openMsg(1, 100, 50), f.maker)
	assert.Nil(t, err)
	bal, err := f.tokens.Balance(f.db, vault)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), bal)

	// A vault that already holds tokens cannot be used.
	_, err = f.deliver(t, f.cancelMsg(t, 1), f.maker)
	assert.Nil(t, err)
	_, err = f.tokens.InitAccount(ctx, f.db, f.taker.Address(), f.escrowAddress(t, 1), f.mintA)
	assert.Nil(t, err)
	f.fund(t, f.taker, f.mintA, 1)
	assert.Nil(t, f.tokens.TransferChecked(ctx, f.db, f.account(t, f.taker.Address(), f.mintA), vault, f.mintA, 1, 6))

	_, err = f.deliver(t, f.openMsg(1, 100, 50), f.maker)
	assert.IsErr(t, errors.ErrState, err)
}

func TestSettleFailures(t *testing.T) {
	cases := map[string]struct {
		signer  func(*fixture) weave.Condition
		msg     func(*testing.T, *fixture) *SettleMsg
		setup   func(*testing.T, *fixture)
		wantErr *errors.Error
	}{
		"taker must sign": {
			signer:  func(f *fixture) weave.Condition { return f.maker },
			wantErr: errors.ErrUnauthorized,
		},
		"insufficient payment": {
			setup: func(t *testing.T, f *fixture) {
				ctx := f.ctxAuth.SetConditions(context.Background(), f.taker)
				assert.Nil(t, f.tokens.TransferChecked(ctx, f.db,
					f.account(t, f.taker.Address(), f.mintB),
					f.account(t, f.maker.Address(), f.mintB),
					f.mintB, 151, 2))
			},
			wantErr: errors.ErrInsufficientAmount,
		},
		"taker has no asset x account": {
			setup: func(t *testing.T, f *fixture) {
				ctx := f.ctxAuth.SetConditions(context.Background(), f.taker)
				assert.Nil(t, f.tokens.CloseAccount(ctx, f.db, f.account(t, f.taker.Address(), f.mintA), f.taker.Address()))
			},
			wantErr: errors.ErrNotFound,
		},
		"maker does not match the record": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				msg := f.settleMsg(t, f.taker, 1)
				msg.Maker = f.taker.Address()
				return msg
			},
			wantErr: errors.ErrState,
		},
		"asset x does not match the record": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				msg := f.settleMsg(t, f.taker, 1)
				msg.MintX = f.mintB
				return msg
			},
			wantErr: errors.ErrCurrency,
		},
		"asset y does not match the record": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				msg := f.settleMsg(t, f.taker, 1)
				msg.MintY = f.mintA
				return msg
			},
			wantErr: errors.ErrCurrency,
		},
		"forged vault reference": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				msg := f.settleMsg(t, f.taker, 1)
				msg.Vault = f.account(t, f.maker.Address(), f.mintA)
				return msg
			},
			wantErr: errors.ErrState,
		},
		"forged destination reference": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				msg := f.settleMsg(t, f.taker, 1)
				msg.MakerY = f.account(t, f.taker.Address(), f.mintB)
				return msg
			},
			wantErr: errors.ErrState,
		},
		"stale escrow reference": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				return f.settleMsg(t, f.taker, 2)
			},
			wantErr: errors.ErrNotFound,
		},
		"all references given": {
			msg: func(t *testing.T, f *fixture) *SettleMsg {
				msg := f.settleMsg(t, f.taker, 1)
				msg.Vault = f.account(t, f.escrowAddress(t, 1), f.mintA)
				msg.TakerX = f.account(t, f.taker.Address(), f.mintA)
				msg.TakerY = f.account(t, f.taker.Address(), f.mintB)
				msg.MakerY = f.account(t, f.maker.Address(), f.mintB)
				return msg
			},
			wantErr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
			assert.Nil(t, err)
			if tc.setup != nil {
				tc.setup(t, f)
			}
			signer := f.taker
			if tc.signer != nil {
				signer = tc.signer(f)
			}
			msg := f.settleMsg(t, f.taker, 1)
			if tc.msg != nil {
				msg = tc.msg(t, f)
			}
			makerY := f.balance(t, f.maker, f.mintB)
			takerY := f.balance(t, f.taker, f.mintB)

			_, err = f.deliver(t, msg, signer)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				f.assertClosed(t, 1)
				return
			}

			// No leg of the swap was executed.
			_, e, err := NewBucket().GetEscrow(f.db, f.maker.Address(), 1)
			assert.Nil(t, err)
			bal, err := f.tokens.Balance(f.db, e.Vault)
			assert.Nil(t, err)
			assert.Equal(t, uint64(100), bal)
			assert.Equal(t, makerY, f.balance(t, f.maker, f.mintB))
			assert.Equal(t, takerY, f.balance(t, f.taker, f.mintB))
		})
	}
}

func TestCancelFailures(t *testing.T) {
	cases := map[string]struct {
		signer  func(*fixture) weave.Condition
		msg     func(*testing.T, *fixture) *CancelMsg
		wantErr *errors.Error
	}{
		"only the maker can cancel": {
			signer:  func(f *fixture) weave.Condition { return f.taker },
			wantErr: errors.ErrUnauthorized,
		},
		"declared maker is not the record maker": {
			signer: func(f *fixture) weave.Condition { return f.taker },
			msg: func(t *testing.T, f *fixture) *CancelMsg {
				msg := f.cancelMsg(t, 1)
				msg.Maker = f.taker.Address()
				return msg
			},
			wantErr: errors.ErrUnauthorized,
		},
		"forged vault reference": {
			msg: func(t *testing.T, f *fixture) *CancelMsg {
				msg := f.cancelMsg(t, 1)
				msg.Vault = f.account(t, f.taker.Address(), f.mintA)
				return msg
			},
			wantErr: errors.ErrState,
		},
		"forged destination reference": {
			msg: func(t *testing.T, f *fixture) *CancelMsg {
				msg := f.cancelMsg(t, 1)
				msg.MakerX = f.account(t, f.taker.Address(), f.mintA)
				return msg
			},
			wantErr: errors.ErrState,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
			assert.Nil(t, err)
			signer := f.maker
			if tc.signer != nil {
				signer = tc.signer(f)
			}
			msg := f.cancelMsg(t, 1)
			if tc.msg != nil {
				msg = tc.msg(t, f)
			}

			_, err = f.deliver(t, msg, signer)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, uint64(400), f.balance(t, f.maker, f.mintA))
			assert.Equal(t, uint64(0), f.balance(t, f.taker, f.mintA))
		})
	}
}

func TestForgedRecord(t *testing.T) {
	cases := map[string]struct {
		forge func(*testing.T, *fixture, *Escrow)
	}{
		"seed of another escrow": {
			forge: func(t *testing.T, f *fixture, e *Escrow) {
				_, bump, err := Condition(f.maker.Address(), 2)
				assert.Nil(t, err)
				e.Seed, e.Bump = 2, bump
			},
		},
		"maker of another escrow": {
			forge: func(t *testing.T, f *fixture, e *Escrow) {
				_, bump, err := Condition(f.taker.Address(), 1)
				assert.Nil(t, err)
				e.Maker, e.Bump = f.taker.Address(), bump
			},
		},
		"bump that does not reproduce the address": {
			forge: func(t *testing.T, f *fixture, e *Escrow) {
				e.Bump--
			},
		},
		"vault not owned by the escrow": {
			forge: func(t *testing.T, f *fixture, e *Escrow) {
				e.Vault = f.account(t, f.maker.Address(), f.mintA)
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
			assert.Nil(t, err)
			addr, e, err := NewBucket().GetEscrow(f.db, f.maker.Address(), 1)
			assert.Nil(t, err)
			tc.forge(t, f, e)
			assert.Nil(t, NewBucket().Put(f.db, addr, e))

			msg := f.settleMsg(t, f.taker, 1)
			msg.Maker = e.Maker
			_, err = f.deliver(t, msg, f.taker)
			assert.IsErr(t, errors.ErrState, err)

			cancel := f.cancelMsg(t, 1)
			cancel.Maker = e.Maker
			_, err = f.deliver(t, cancel, f.maker, f.taker)
			assert.IsErr(t, errors.ErrState, err)

			assert.Equal(t, uint64(0), f.balance(t, f.taker, f.mintA))
		})
	}
}

func TestVaultAuthority(t *testing.T) {
	f := newFixture(t)
	_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
	assert.Nil(t, err)
	_, err = f.deliver(t, f.openMsg(2, 100, 50), f.maker)
	assert.Nil(t, err)

	vault := f.account(t, f.escrowAddress(t, 1), f.mintA)
	makerA := f.account(t, f.maker.Address(), f.mintA)
	other, _, err := Condition(f.maker.Address(), 2)
	assert.Nil(t, err)
	own, _, err := Condition(f.maker.Address(), 1)
	assert.Nil(t, err)

	cases := map[string]struct {
		ctx     weave.Context
		wantErr *errors.Error
	}{
		"maker": {
			ctx:     f.ctxAuth.SetConditions(context.Background(), f.maker),
			wantErr: errors.ErrUnauthorized,
		},
		"authority of another escrow": {
			ctx:     withEscrow(context.Background(), other),
			wantErr: errors.ErrUnauthorized,
		},
		"escrow authority": {
			ctx:     withEscrow(context.Background(), own),
			wantErr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := f.db.CacheWrap()
			defer db.Discard()
			err := f.tokens.TransferChecked(tc.ctx, db, vault, makerA, f.mintA, 100, 6)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestTags(t *testing.T) {
	f := newFixture(t)
	res, err := f.deliver(t, f.openMsg(5, 100, 50), f.maker)
	assert.Nil(t, err)
	addr := f.escrowAddress(t, 5)
	assert.Equal(t, []weave.Tag{
		{Key: "escrow", Value: addr.String()},
		{Key: "action", Value: "open"},
		{Key: "maker", Value: f.maker.Address().String()},
	}, res.Tags)

	res, err = f.deliver(t, f.cancelMsg(t, 5), f.maker)
	assert.Nil(t, err)
	assert.Equal(t, "cancel", res.Tags[1].Value)
}

func TestVaultDonation(t *testing.T) {
	cases := map[string]struct {
		msg       func(*testing.T, *fixture) weave.Msg
		signer    func(*fixture) weave.Condition
		wantMaker uint64
		wantTaker uint64
	}{
		"settle gives the donation to the taker": {
			msg:       func(t *testing.T, f *fixture) weave.Msg { return f.settleMsg(t, f.taker, 1) },
			signer:    func(f *fixture) weave.Condition { return f.taker },
			wantMaker: 400,
			wantTaker: 105,
		},
		"cancel gives the donation to the maker": {
			msg:       func(t *testing.T, f *fixture) weave.Msg { return f.cancelMsg(t, 1) },
			signer:    func(f *fixture) weave.Condition { return f.maker },
			wantMaker: 505,
			wantTaker: 0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.deliver(t, f.openMsg(1, 100, 50), f.maker)
			assert.Nil(t, err)

			// Anyone can send tokens to the vault.
			vault := f.account(t, f.escrowAddress(t, 1), f.mintA)
			ctx := f.ctxAuth.SetConditions(context.Background(), f.issuer)
			assert.Nil(t, f.tokens.MintTo(ctx, f.db, f.mintA, vault, 5))

			_, e, err := NewBucket().GetEscrow(f.db, f.maker.Address(), 1)
			assert.Nil(t, err)
			assert.Equal(t, uint64(100), e.AmountX)

			_, err = f.deliver(t, tc.msg(t, f), tc.signer(f))
			assert.Nil(t, err)

			assert.Equal(t, tc.wantMaker, f.balance(t, f.maker, f.mintA))
			assert.Equal(t, tc.wantTaker, f.balance(t, f.taker, f.mintA))
			f.assertClosed(t, 1)
		})
	}
}
