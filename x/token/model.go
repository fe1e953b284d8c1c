package token

import (
	"regexp"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

const (
	// MaxDecimals is the greatest supported precision of a mint.
	MaxDecimals = 18

	mintBucketName    = "mints"
	accountBucketName = "accounts"
)

var isTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,5}$`).MatchString

// Mint describes an asset type. Its address identifies the asset in every
// account holding it.
type Mint struct {
	Metadata  *weave.Metadata `json:"metadata"`
	Ticker    string          `json:"ticker"`
	Decimals  uint32          `json:"decimals"`
	Authority weave.Address   `json:"authority"`
	Supply    uint64          `json:"supply"`
}

var _ orm.Model = (*Mint)(nil)

// Marshal serializes the mint with amino.
func (m *Mint) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

// Unmarshal loads the mint from its amino representation.
func (m *Mint) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// Validate returns an error if the mint cannot be stored.
func (m *Mint) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInput, "ticker %q", m.Ticker)
	}
	if m.Decimals > MaxDecimals {
		return errors.Wrapf(errors.ErrInput, "decimals %d", m.Decimals)
	}
	return errors.Wrap(m.Authority.Validate(), "authority")
}

// MintAddress returns the address identifying the mint with given ticker.
func MintAddress(ticker string) (weave.Address, error) {
	if !isTicker(ticker) {
		return nil, errors.Wrapf(errors.ErrInput, "ticker %q", ticker)
	}
	cond, _, err := weave.FindDerivedCondition("token", "mint", []byte(ticker))
	if err != nil {
		return nil, err
	}
	return cond.Address(), nil
}

// Account holds an amount of a single asset type on behalf of its owner.
// Only the owner can authorize transfers out of the account.
type Account struct {
	Metadata *weave.Metadata `json:"metadata"`
	Mint     weave.Address   `json:"mint"`
	Owner    weave.Address   `json:"owner"`
	Amount   uint64          `json:"amount"`
}

var _ orm.Model = (*Account)(nil)

// Marshal serializes the account with amino.
func (a *Account) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

// Unmarshal loads the account from its amino representation.
func (a *Account) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

// Validate returns an error if the account cannot be stored.
func (a *Account) Validate() error {
	if err := a.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := a.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return errors.Wrap(a.Owner.Validate(), "owner")
}

// AssociatedAddress returns the address of the account of given owner for
// given mint. Every owner has at most one associated account per mint.
func AssociatedAddress(owner, mint weave.Address) (weave.Address, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	if err := mint.Validate(); err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	cond, _, err := weave.FindDerivedCondition("token", "assoc", owner, mint)
	if err != nil {
		return nil, err
	}
	return cond.Address(), nil
}

// NewMintBucket returns the bucket storing mints by their address.
func NewMintBucket() orm.ModelBucket {
	return orm.NewModelBucket(mintBucketName, &Mint{})
}

// NewAccountBucket returns the bucket storing accounts by their address.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket(accountBucketName, &Account{})
}

// RegisterQuery will register the buckets as "/mints" and "/accounts"
func RegisterQuery(qr weave.QueryRouter) {
	NewMintBucket().Register("", qr)
	NewAccountBucket().Register("", qr)
}
