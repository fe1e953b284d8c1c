/*
Package escrow implements a two-party asset swap.

A maker opens an escrow by depositing AmountX of MintX into a vault and
declaring the AmountY of MintY wanted in return. Any taker can settle the
escrow, paying the maker and receiving the vault content in one step. Until
then the maker can cancel and get the deposit back.

The escrow record is stored at an address derived from the maker and a seed.
No key pair exists for that address. The vault is a token account owned by
it, so only this extension, rebuilding the derived condition from the stored
bump, can move tokens out of the vault.
*/
package escrow

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

const (
	// BucketName is where we store the escrows
	BucketName = "escrows"

	// RecordSize is the length of a serialized escrow record.
	RecordSize = discriminatorSize + 4*weave.AddressLength + 3*8 + 1

	discriminatorSize = 8

	conditionExt = "escrow"
	conditionTyp = "record"
)

// discriminator prefixes every serialized record, so that raw bytes read
// from the store can be told apart from any other model.
var discriminator = func() []byte {
	h := sha256.Sum256([]byte("escrow:record"))
	return h[:discriminatorSize]
}()

// Escrow is an open swap offer. All fields are set when the escrow is
// opened and never change.
type Escrow struct {
	// Maker deposited AmountX and receives AmountY on settle.
	Maker weave.Address `json:"maker"`
	// Vault is the token account holding the deposit. Its owner is the
	// address of this record.
	Vault weave.Address `json:"vault"`
	MintX weave.Address `json:"mint_x"`
	MintY weave.Address `json:"mint_y"`
	// AmountX is the deposit. It equals the vault balance for the whole
	// life of the record.
	AmountX uint64 `json:"amount_x"`
	AmountY uint64 `json:"amount_y"`
	// Seed allows a maker to run many escrows at once.
	Seed uint64 `json:"seed"`
	// Bump is the derivation value of the record address.
	Bump uint8 `json:"bump"`
}

var _ orm.Model = (*Escrow)(nil)

// Marshal writes the record using a fixed layout:
//
//	discriminator(8) maker(32) vault(32) mint_x(32) mint_y(32)
//	amount_x(8) amount_y(8) seed(8) bump(1)
//
// Integers are little endian.
func (e *Escrow) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	raw := make([]byte, 0, RecordSize)
	raw = append(raw, discriminator...)
	raw = append(raw, e.Maker...)
	raw = append(raw, e.Vault...)
	raw = append(raw, e.MintX...)
	raw = append(raw, e.MintY...)

	var num [8]byte
	for _, n := range []uint64{e.AmountX, e.AmountY, e.Seed} {
		binary.LittleEndian.PutUint64(num[:], n)
		raw = append(raw, num[:]...)
	}
	raw = append(raw, e.Bump)
	return raw, nil
}

// Unmarshal reads a record written by Marshal.
func (e *Escrow) Unmarshal(raw []byte) error {
	if len(raw) != RecordSize {
		return errors.Wrapf(errors.ErrModel, "escrow record of %d bytes", len(raw))
	}
	if !bytes.Equal(raw[:discriminatorSize], discriminator) {
		return errors.Wrap(errors.ErrType, "not an escrow record")
	}
	raw = raw[discriminatorSize:]

	addr := func() weave.Address {
		a := make(weave.Address, weave.AddressLength)
		copy(a, raw)
		raw = raw[weave.AddressLength:]
		return a
	}
	e.Maker = addr()
	e.Vault = addr()
	e.MintX = addr()
	e.MintY = addr()

	e.AmountX = binary.LittleEndian.Uint64(raw[0:8])
	e.AmountY = binary.LittleEndian.Uint64(raw[8:16])
	e.Seed = binary.LittleEndian.Uint64(raw[16:24])
	e.Bump = raw[24]
	return nil
}

// Validate returns an error if the record cannot be stored.
func (e *Escrow) Validate() error {
	if err := e.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := e.Vault.Validate(); err != nil {
		return errors.Wrap(err, "vault")
	}
	if err := e.MintX.Validate(); err != nil {
		return errors.Wrap(err, "mint x")
	}
	if err := e.MintY.Validate(); err != nil {
		return errors.Wrap(err, "mint y")
	}
	if e.AmountX == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount x")
	}
	return nil
}

// Authority rebuilds the derived condition of this record from the maker,
// the seed and the stored bump. This condition owns the vault.
func (e *Escrow) Authority() (weave.Condition, error) {
	cond, err := weave.CreateDerivedCondition(conditionExt, conditionTyp, e.Bump, e.Maker, encodeSeed(e.Seed))
	if err != nil {
		return nil, errors.Wrap(errors.ErrState, err.Error())
	}
	return cond, nil
}

// Condition returns the derived condition and its bump for an escrow of
// given maker and seed. The address of that condition is the key of the
// escrow record.
func Condition(maker weave.Address, seed uint64) (weave.Condition, uint8, error) {
	if err := maker.Validate(); err != nil {
		return nil, 0, errors.Wrap(err, "maker")
	}
	return weave.FindDerivedCondition(conditionExt, conditionTyp, maker, encodeSeed(seed))
}

func encodeSeed(seed uint64) []byte {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], seed)
	return raw[:]
}

// Bucket stores escrow records under their derived address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName, &Escrow{}),
	}
}

// GetEscrow loads the escrow of given maker and seed.
func (b Bucket) GetEscrow(db weave.ReadOnlyKVStore, maker weave.Address, seed uint64) (weave.Address, *Escrow, error) {
	cond, _, err := Condition(maker, seed)
	if err != nil {
		return nil, nil, err
	}
	addr := cond.Address()
	var e Escrow
	if err := b.One(db, addr, &e); err != nil {
		return nil, nil, errors.Wrapf(err, "escrow %s", addr)
	}
	return addr, &e, nil
}

// Verify ensures the record stored at addr was derived from its own maker,
// seed and bump. It returns the derived condition authorizing the vault.
func (e *Escrow) Verify(addr weave.Address) (weave.Condition, error) {
	cond, err := e.Authority()
	if err != nil {
		return nil, err
	}
	if !cond.Address().Equals(addr) {
		return nil, errors.Wrapf(errors.ErrState, "escrow %s does not match the derived address %s", addr, cond.Address())
	}
	return cond, nil
}
