package token

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

var _ weave.Msg = (*CreateMintMsg)(nil)

// CreateMintMsg registers a new asset type.
type CreateMintMsg struct {
	Metadata  *weave.Metadata `json:"metadata"`
	Ticker    string          `json:"ticker"`
	Decimals  uint32          `json:"decimals"`
	Authority weave.Address   `json:"authority"`
}

// Path returns the routing path for this message.
func (CreateMintMsg) Path() string {
	return "token/create_mint"
}

// Validate ensures the mint can be created.
func (m *CreateMintMsg) Validate() error {
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

var _ weave.Msg = (*CreateAccountMsg)(nil)

// CreateAccountMsg creates the associated account of an owner for a mint.
type CreateAccountMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Payer    weave.Address   `json:"payer"`
	Owner    weave.Address   `json:"owner"`
	Mint     weave.Address   `json:"mint"`
}

// Path returns the routing path for this message.
func (CreateAccountMsg) Path() string {
	return "token/create_account"
}

// Validate ensures all addresses are present.
func (m *CreateAccountMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return errors.Wrap(m.Mint.Validate(), "mint")
}

var _ weave.Msg = (*MintToMsg)(nil)

// MintToMsg issues new tokens to the associated account of the owner.
type MintToMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Mint     weave.Address   `json:"mint"`
	Owner    weave.Address   `json:"owner"`
	Amount   uint64          `json:"amount"`
}

// Path returns the routing path for this message.
func (MintToMsg) Path() string {
	return "token/mint_to"
}

// Validate ensures the issue is well formed.
func (m *MintToMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	return nil
}

var _ weave.Msg = (*TransferMsg)(nil)

// TransferMsg moves tokens between the associated accounts of the sender
// and the recipient.
type TransferMsg struct {
	Metadata  *weave.Metadata `json:"metadata"`
	Sender    weave.Address   `json:"sender"`
	Recipient weave.Address   `json:"recipient"`
	Mint      weave.Address   `json:"mint"`
	Amount    uint64          `json:"amount"`
	Decimals  uint32          `json:"decimals"`
}

// Path returns the routing path for this message.
func (TransferMsg) Path() string {
	return "token/transfer"
}

// Validate ensures the transfer is well formed.
func (m *TransferMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := m.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	return nil
}
