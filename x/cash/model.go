/*
Package cash keeps native coin balances. Native coins pay the storage rent
of every account an extension creates. The rent is held at the address of
the created account and returned when that account is closed.
*/
package cash

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
	amino "github.com/tendermint/go-amino"
)

// BucketName is where we store the balances
const BucketName = "cash"

var cdc = amino.NewCodec()

// Wallet is the native coin balance of a single address.
type Wallet struct {
	Metadata *weave.Metadata `json:"metadata"`
	Balance  uint64          `json:"balance"`
}

var _ orm.Model = (*Wallet)(nil)

// Marshal serializes the wallet with amino.
func (w *Wallet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(w)
}

// Unmarshal loads the wallet from its amino representation.
func (w *Wallet) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, w)
}

// Validate returns an error if the wallet cannot be stored. Empty wallets
// are never stored.
func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if w.Balance == 0 {
		return errors.Wrap(errors.ErrEmpty, "balance")
	}
	return nil
}

// Bucket stores wallets by their owner address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName, &Wallet{}),
	}
}

// Balance returns the balance at given address. Unknown addresses hold
// nothing.
func (b Bucket) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (uint64, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return w.Balance, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// setBalance stores the new balance, removing the wallet when it is empty.
func (b Bucket) setBalance(db weave.KVStore, addr weave.Address, balance uint64) error {
	if balance == 0 {
		ok, err := b.Has(db, addr)
		if err != nil || !ok {
			return err
		}
		return b.Delete(db, addr)
	}
	return b.Put(db, addr, &Wallet{
		Metadata: &weave.Metadata{Schema: 1},
		Balance:  balance,
	})
}
