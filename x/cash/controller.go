package cash

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Controller moves native coins between addresses.
type Controller interface {
	Balance(db weave.ReadOnlyKVStore, addr weave.Address) (uint64, error)
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount uint64) error
	IssueCoins(db weave.KVStore, dest weave.Address, amount uint64) error
	Drain(db weave.KVStore, src, dest weave.Address) (uint64, error)
}

// BaseController is the default Controller implementation.
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a controller using given bucket.
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the native balance of given address.
func (c BaseController) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (uint64, error) {
	return c.bucket.Balance(db, addr)
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't have sufficient coins, it fails.
func (c BaseController) MoveCoins(db weave.KVStore, src, dest weave.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "non-positive amount")
	}
	if src.Equals(dest) {
		return nil
	}

	have, err := c.bucket.Balance(db, src)
	if err != nil {
		return err
	}
	if have < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "native balance of %s: have %d, need %d", src, have, amount)
	}
	got, err := c.bucket.Balance(db, dest)
	if err != nil {
		return err
	}
	if got+amount < got {
		return errors.Wrapf(errors.ErrOverflow, "native balance of %s", dest)
	}

	if err := c.bucket.setBalance(db, src, have-amount); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := c.bucket.setBalance(db, dest, got+amount); err != nil {
		return errors.Wrap(err, "recipient")
	}
	return nil
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db weave.KVStore, dest weave.Address, amount uint64) error {
	got, err := c.bucket.Balance(db, dest)
	if err != nil {
		return err
	}
	if got+amount < got {
		return errors.Wrapf(errors.ErrOverflow, "native balance of %s", dest)
	}
	return c.bucket.setBalance(db, dest, got+amount)
}

// Drain moves the whole balance of src to dest and returns the moved
// amount. Draining an empty address is a no-op.
func (c BaseController) Drain(db weave.KVStore, src, dest weave.Address) (uint64, error) {
	have, err := c.bucket.Balance(db, src)
	if err != nil || have == 0 {
		return 0, err
	}
	if err := c.MoveCoins(db, src, dest, have); err != nil {
		return 0, err
	}
	return have, nil
}
