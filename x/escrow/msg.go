package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

var _ weave.Msg = (*OpenMsg)(nil)

// OpenMsg deposits AmountX of MintX into a new escrow asking for AmountY of
// MintY in return.
type OpenMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Maker    weave.Address   `json:"maker"`
	MintX    weave.Address   `json:"mint_x"`
	MintY    weave.Address   `json:"mint_y"`
	Seed     uint64          `json:"seed"`
	AmountX  uint64          `json:"amount_x"`
	AmountY  uint64          `json:"amount_y"`
}

// Path returns the routing path for this message.
func (OpenMsg) Path() string {
	return "escrow/open"
}

// Validate ensures the escrow can be opened. A zero AmountY is checked
// against the configuration by the handler.
func (m *OpenMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.MintX.Validate(); err != nil {
		return errors.Wrap(err, "mint x")
	}
	if err := m.MintY.Validate(); err != nil {
		return errors.Wrap(err, "mint y")
	}
	if m.AmountX == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount x")
	}
	return nil
}

var _ weave.Msg = (*SettleMsg)(nil)

// SettleMsg fulfills an escrow. Amounts are always taken from the stored
// record. Vault and the token account references are optional and, when
// given, must be the ones derived from the record.
type SettleMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Taker    weave.Address   `json:"taker"`
	Maker    weave.Address   `json:"maker"`
	Escrow   weave.Address   `json:"escrow"`
	MintX    weave.Address   `json:"mint_x"`
	MintY    weave.Address   `json:"mint_y"`
	Vault    weave.Address   `json:"vault,omitempty"`
	// TakerX receives the vault content.
	TakerX weave.Address `json:"taker_x,omitempty"`
	// TakerY pays AmountY.
	TakerY weave.Address `json:"taker_y,omitempty"`
	// MakerY receives AmountY.
	MakerY weave.Address `json:"maker_y,omitempty"`
}

// Path returns the routing path for this message.
func (SettleMsg) Path() string {
	return "escrow/settle"
}

// Validate ensures all mandatory addresses are present.
func (m *SettleMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Taker.Validate(); err != nil {
		return errors.Wrap(err, "taker")
	}
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.Escrow.Validate(); err != nil {
		return errors.Wrap(err, "escrow")
	}
	if err := m.MintX.Validate(); err != nil {
		return errors.Wrap(err, "mint x")
	}
	if err := m.MintY.Validate(); err != nil {
		return errors.Wrap(err, "mint y")
	}
	return validateOptional(map[string]weave.Address{
		"vault":   m.Vault,
		"taker x": m.TakerX,
		"taker y": m.TakerY,
		"maker y": m.MakerY,
	})
}

var _ weave.Msg = (*CancelMsg)(nil)

// CancelMsg returns the deposit of an escrow to its maker.
type CancelMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Maker    weave.Address   `json:"maker"`
	Escrow   weave.Address   `json:"escrow"`
	Vault    weave.Address   `json:"vault,omitempty"`
	// MakerX receives the vault content.
	MakerX weave.Address `json:"maker_x,omitempty"`
}

// Path returns the routing path for this message.
func (CancelMsg) Path() string {
	return "escrow/cancel"
}

// Validate ensures all mandatory addresses are present.
func (m *CancelMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.Escrow.Validate(); err != nil {
		return errors.Wrap(err, "escrow")
	}
	return validateOptional(map[string]weave.Address{
		"vault":   m.Vault,
		"maker x": m.MakerX,
	})
}

func validateOptional(refs map[string]weave.Address) error {
	for name, a := range refs {
		if len(a) == 0 {
			continue
		}
		if err := a.Validate(); err != nil {
			return errors.Wrap(err, name)
		}
	}
	return nil
}

// matchRef returns an error if an account reference was given and it is
// not the derived one.
func matchRef(name string, given, derived weave.Address) error {
	if len(given) == 0 || given.Equals(derived) {
		return nil
	}
	return errors.Wrapf(errors.ErrState, "%s %s, expected %s", name, given, derived)
}
