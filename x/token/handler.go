package token

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x"
)

const (
	createMintCost    int64 = 100
	createAccountCost int64 = 50
	mintToCost        int64 = 10
	transferCost      int64 = 10
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(&CreateMintMsg{}, CreateMintHandler{auth: auth, bucket: NewMintBucket()})
	r.Handle(&CreateAccountMsg{}, CreateAccountHandler{auth: auth, ctrl: ctrl})
	r.Handle(&MintToMsg{}, MintToHandler{auth: auth, ctrl: ctrl})
	r.Handle(&TransferMsg{}, TransferHandler{auth: auth, ctrl: ctrl})
}

// CreateMintHandler registers a new asset type.
type CreateMintHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ weave.Handler = CreateMintHandler{}

// Check verifies the mint can be created.
func (h CreateMintHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createMintCost}, nil
}

// Deliver stores the new mint with zero supply.
func (h CreateMintHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, addr, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	mint := &Mint{
		Metadata:  &weave.Metadata{Schema: 1},
		Ticker:    msg.Ticker,
		Decimals:  msg.Decimals,
		Authority: msg.Authority,
	}
	if err := h.bucket.Put(db, addr, mint); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: addr}, nil
}

func (h CreateMintHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMintMsg, weave.Address, error) {
	var msg CreateMintMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Authority) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "authority signature required")
	}
	addr, err := MintAddress(msg.Ticker)
	if err != nil {
		return nil, nil, err
	}
	switch ok, err := h.bucket.Has(db, addr); {
	case err != nil:
		return nil, nil, err
	case ok:
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "mint %s", msg.Ticker)
	}
	return &msg, addr, nil
}

// CreateAccountHandler creates an associated token account.
type CreateAccountHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = CreateAccountHandler{}

// Check verifies the payer signed the message.
func (h CreateAccountHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createAccountCost}, nil
}

// Deliver creates the account, paid by the payer.
func (h CreateAccountHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	addr, err := h.ctrl.InitAccount(ctx, db, msg.Payer, msg.Owner, msg.Mint)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: addr}, nil
}

func (h CreateAccountHandler) validate(ctx weave.Context, tx weave.Tx) (*CreateAccountMsg, error) {
	var msg CreateAccountMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Payer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "payer signature required")
	}
	return &msg, nil
}

// MintToHandler issues tokens.
type MintToHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = MintToHandler{}

// Check verifies the mint authority signed the message.
func (h MintToHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: mintToCost}, nil
}

// Deliver issues the tokens to the associated account of the owner.
func (h MintToHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr, err := AssociatedAddress(msg.Owner, msg.Mint)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.MintTo(ctx, db, msg.Mint, addr, msg.Amount); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h MintToHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*MintToMsg, error) {
	var msg MintToMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	m, err := h.ctrl.Mint(db, msg.Mint)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, m.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "mint authority signature required")
	}
	return &msg, nil
}

// TransferHandler moves tokens between associated accounts.
type TransferHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = TransferHandler{}

// Check verifies the sender signed the message.
func (h TransferHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: transferCost}, nil
}

// Deliver moves the tokens from the sender to the recipient.
func (h TransferHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	from, err := AssociatedAddress(msg.Sender, msg.Mint)
	if err != nil {
		return nil, err
	}
	to, err := AssociatedAddress(msg.Recipient, msg.Mint)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.TransferChecked(ctx, db, from, to, msg.Mint, msg.Amount, msg.Decimals); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h TransferHandler) validate(ctx weave.Context, tx weave.Tx) (*TransferMsg, error) {
	var msg TransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Sender) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "sender signature required")
	}
	return &msg, nil
}
