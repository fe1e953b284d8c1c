package escrow

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func newRecord(t *testing.T, seed uint64) (weave.Address, *Escrow) {
	t.Helper()
	maker := weavetest.NewCondition().Address()
	cond, bump, err := Condition(maker, seed)
	assert.Nil(t, err)
	return cond.Address(), &Escrow{
		Maker:   maker,
		Vault:   weavetest.NewCondition().Address(),
		MintX:   weavetest.NewCondition().Address(),
		MintY:   weavetest.NewCondition().Address(),
		AmountX: 100,
		AmountY: 50,
		Seed:    seed,
		Bump:    bump,
	}
}

func TestRecordLayout(t *testing.T) {
	_, e := newRecord(t, 0x0102030405060708)
	raw, err := e.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, RecordSize, len(raw))
	assert.Equal(t, 161, RecordSize)

	assert.Equal(t, discriminator, raw[:8])
	assert.Equal(t, []byte(e.Maker), raw[8:40])
	assert.Equal(t, []byte(e.Vault), raw[40:72])
	assert.Equal(t, []byte(e.MintX), raw[72:104])
	assert.Equal(t, []byte(e.MintY), raw[104:136])
	assert.Equal(t, uint64(100), binary.LittleEndian.Uint64(raw[136:144]))
	assert.Equal(t, uint64(50), binary.LittleEndian.Uint64(raw[144:152]))
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, raw[152:160])
	assert.Equal(t, e.Bump, raw[160])

	var got Escrow
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, e, &got)
}

func TestRecordUnmarshalErrors(t *testing.T) {
	_, e := newRecord(t, 1)
	raw, err := e.Marshal()
	assert.Nil(t, err)

	cases := map[string]struct {
		raw     []byte
		wantErr *errors.Error
	}{
		"empty": {
			raw:     nil,
			wantErr: errors.ErrModel,
		},
		"truncated": {
			raw:     raw[:RecordSize-1],
			wantErr: errors.ErrModel,
		},
		"trailing data": {
			raw:     append(append([]byte{}, raw...), 0),
			wantErr: errors.ErrModel,
		},
		"another model": {
			raw:     append(bytes.Repeat([]byte{0}, 8), raw[8:]...),
			wantErr: errors.ErrType,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got Escrow
			if err := got.Unmarshal(tc.raw); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestRecordValidation(t *testing.T) {
	cases := map[string]struct {
		modify  func(*Escrow)
		wantErr *errors.Error
	}{
		"valid": {
			modify:  func(*Escrow) {},
			wantErr: nil,
		},
		"zero amount y": {
			modify:  func(e *Escrow) { e.AmountY = 0 },
			wantErr: nil,
		},
		"zero amount x": {
			modify:  func(e *Escrow) { e.AmountX = 0 },
			wantErr: errors.ErrAmount,
		},
		"missing maker": {
			modify:  func(e *Escrow) { e.Maker = nil },
			wantErr: errors.ErrInput,
		},
		"short vault": {
			modify:  func(e *Escrow) { e.Vault = e.Vault[:20] },
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, e := newRecord(t, 3)
			tc.modify(e)
			if err := e.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if _, err := e.Marshal(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected marshal error: %+v", err)
			}
		})
	}
}

func TestEscrowAddress(t *testing.T) {
	maker := weavetest.NewCondition().Address()

	a1, b1, err := Condition(maker, 1)
	assert.Nil(t, err)
	a2, b2, err := Condition(maker, 1)
	assert.Nil(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)

	other, _, err := Condition(maker, 2)
	assert.Nil(t, err)
	if other.Address().Equals(a1.Address()) {
		t.Fatal("different seeds must give different escrows")
	}
	another, _, err := Condition(weavetest.NewCondition().Address(), 1)
	assert.Nil(t, err)
	if another.Address().Equals(a1.Address()) {
		t.Fatal("different makers must give different escrows")
	}

	_, _, err = Condition(weave.Address("short"), 1)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestBucket(t *testing.T) {
	db := store.MemStore()
	b := NewBucket()
	addr, e := newRecord(t, 7)

	_, _, err := b.GetEscrow(db, e.Maker, 7)
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Nil(t, b.Put(db, addr, e))
	got, loaded, err := b.GetEscrow(db, e.Maker, 7)
	assert.Nil(t, err)
	assert.Equal(t, addr, got)
	assert.Equal(t, e, loaded)

	cond, err := loaded.Verify(addr)
	assert.Nil(t, err)
	assert.Equal(t, addr, cond.Address())
	_, err = loaded.Verify(weavetest.NewCondition().Address())
	assert.IsErr(t, errors.ErrState, err)

	_, _, err = b.GetEscrow(db, e.Maker, 8)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestGenesis(t *testing.T) {
	var opts weave.Options
	genesis := `{"conf": {"escrow": {"metadata": {"schema": 1}, "record_rent": 3, "allow_zero_amount_y": true}}}`
	assert.Nil(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	assert.Nil(t, Initializer{}.FromGenesis(opts, db))
	conf, err := loadConf(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), conf.RecordRent)
	assert.Equal(t, true, conf.AllowZeroAmountY)

	err = Initializer{}.FromGenesis(weave.Options{}, store.MemStore())
	assert.IsErr(t, errors.ErrNotFound, err)
}
