package token

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
)

// Controller is the token transfer service. Every operation moving tokens
// out of an account requires the owner of that account to be
// authenticated in the context.
type Controller interface {
	// Balance returns the amount held by given account.
	Balance(db weave.ReadOnlyKVStore, account weave.Address) (uint64, error)
	// Account loads the account stored at given address.
	Account(db weave.ReadOnlyKVStore, account weave.Address) (*Account, error)
	// Mint loads the mint stored at given address.
	Mint(db weave.ReadOnlyKVStore, mint weave.Address) (*Mint, error)
	// InitAccount creates the associated account of owner for mint. The
	// payer deposits the account rent.
	InitAccount(ctx weave.Context, db weave.KVStore, payer, owner, mint weave.Address) (weave.Address, error)
	// TransferChecked moves amount from one account to another. It fails
	// if the declared mint or decimals do not match the accounts.
	TransferChecked(ctx weave.Context, db weave.KVStore, from, to, mint weave.Address, amount uint64, decimals uint32) error
	// CloseAccount removes an empty account and returns its rent to
	// destination.
	CloseAccount(ctx weave.Context, db weave.KVStore, account, destination weave.Address) error
	// MintTo issues new tokens to given account.
	MintTo(ctx weave.Context, db weave.KVStore, mint, account weave.Address, amount uint64) error
}

// BaseController is the default Controller implementation.
type BaseController struct {
	auth     x.Authenticator
	mints    orm.ModelBucket
	accounts orm.ModelBucket
	bank     cash.Controller
}

var _ Controller = BaseController{}

// NewController returns a controller authorizing account owners with given
// authenticator and paying rent with given bank.
func NewController(auth x.Authenticator, bank cash.Controller) BaseController {
	return BaseController{
		auth:     auth,
		mints:    NewMintBucket(),
		accounts: NewAccountBucket(),
		bank:     bank,
	}
}

// Balance returns the amount held by given account.
func (c BaseController) Balance(db weave.ReadOnlyKVStore, account weave.Address) (uint64, error) {
	acc, err := c.Account(db, account)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// Account loads the account stored at given address.
func (c BaseController) Account(db weave.ReadOnlyKVStore, account weave.Address) (*Account, error) {
	var acc Account
	if err := c.accounts.One(db, account, &acc); err != nil {
		return nil, errors.Wrapf(err, "account %s", account)
	}
	return &acc, nil
}

// Mint loads the mint stored at given address.
func (c BaseController) Mint(db weave.ReadOnlyKVStore, mint weave.Address) (*Mint, error) {
	var m Mint
	if err := c.mints.One(db, mint, &m); err != nil {
		return nil, errors.Wrapf(err, "mint %s", mint)
	}
	return &m, nil
}

// InitAccount creates the associated account of owner for mint and
// returns its address.
func (c BaseController) InitAccount(ctx weave.Context, db weave.KVStore, payer, owner, mint weave.Address) (weave.Address, error) {
	if !c.auth.HasAddress(ctx, payer) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "payer %s", payer)
	}
	if _, err := c.Mint(db, mint); err != nil {
		return nil, err
	}
	addr, err := AssociatedAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	switch ok, err := c.accounts.Has(db, addr); {
	case err != nil:
		return nil, err
	case ok:
		return nil, errors.Wrapf(errors.ErrDuplicate, "account %s", addr)
	}

	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if conf.AccountRent > 0 {
		if err := c.bank.MoveCoins(db, payer, addr, conf.AccountRent); err != nil {
			return nil, errors.Wrapf(err, "rent of account %s", addr)
		}
	}

	acc := &Account{
		Metadata: &weave.Metadata{Schema: 1},
		Mint:     mint,
		Owner:    owner,
	}
	if err := c.accounts.Put(db, addr, acc); err != nil {
		return nil, errors.Wrapf(err, "account %s", addr)
	}
	return addr, nil
}

// TransferChecked moves amount of mint from one account to another. The
// owner of the source account must be authenticated. Both accounts must
// hold the declared mint, and decimals must match its precision.
func (c BaseController) TransferChecked(ctx weave.Context, db weave.KVStore, from, to, mint weave.Address, amount uint64, decimals uint32) error {
	src, err := c.Account(db, from)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if !src.Mint.Equals(mint) {
		return errors.Wrapf(errors.ErrCurrency, "source %s holds mint %s, not %s", from, src.Mint, mint)
	}
	m, err := c.Mint(db, mint)
	if err != nil {
		return err
	}
	if m.Decimals != decimals {
		return errors.Wrapf(errors.ErrCurrency, "mint %s has %d decimals, not %d", mint, m.Decimals, decimals)
	}
	if !c.auth.HasAddress(ctx, src.Owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "owner of source %s", from)
	}
	dest, err := c.Account(db, to)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !dest.Mint.Equals(mint) {
		return errors.Wrapf(errors.ErrCurrency, "destination %s holds mint %s, not %s", to, dest.Mint, mint)
	}
	if src.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "source %s: have %d, need %d", from, src.Amount, amount)
	}
	if from.Equals(to) {
		return nil
	}
	if dest.Amount+amount < dest.Amount {
		return errors.Wrapf(errors.ErrOverflow, "destination %s", to)
	}

	src.Amount -= amount
	dest.Amount += amount
	if err := c.accounts.Put(db, from, src); err != nil {
		return errors.Wrapf(err, "source %s", from)
	}
	if err := c.accounts.Put(db, to, dest); err != nil {
		return errors.Wrapf(err, "destination %s", to)
	}
	return nil
}

// CloseAccount removes an empty account. The owner must be authenticated.
// The native rent held at the account address goes to destination.
func (c BaseController) CloseAccount(ctx weave.Context, db weave.KVStore, account, destination weave.Address) error {
	acc, err := c.Account(db, account)
	if err != nil {
		return err
	}
	if !c.auth.HasAddress(ctx, acc.Owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "owner of account %s", account)
	}
	if acc.Amount != 0 {
		return errors.Wrapf(errors.ErrState, "account %s holds %d", account, acc.Amount)
	}
	if err := c.accounts.Delete(db, account); err != nil {
		return errors.Wrapf(err, "account %s", account)
	}
	if _, err := c.bank.Drain(db, account, destination); err != nil {
		return errors.Wrapf(err, "rent of account %s", account)
	}
	return nil
}

// MintTo issues amount of new tokens to given account. The mint authority
// must be authenticated.
func (c BaseController) MintTo(ctx weave.Context, db weave.KVStore, mint, account weave.Address, amount uint64) error {
	m, err := c.Mint(db, mint)
	if err != nil {
		return err
	}
	if !c.auth.HasAddress(ctx, m.Authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "authority of mint %s", mint)
	}
	acc, err := c.Account(db, account)
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(mint) {
		return errors.Wrapf(errors.ErrCurrency, "account %s holds mint %s, not %s", account, acc.Mint, mint)
	}
	if m.Supply+amount < m.Supply || acc.Amount+amount < acc.Amount {
		return errors.Wrapf(errors.ErrOverflow, "mint %s", mint)
	}
	m.Supply += amount
	acc.Amount += amount
	if err := c.mints.Put(db, mint, m); err != nil {
		return err
	}
	return c.accounts.Put(db, account, acc)
}
