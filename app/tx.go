package app

import (
	amino "github.com/tendermint/go-amino"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/iov-one/weave-escrow/x/token"
)

// Tx is the transaction carried by the chain: one message and the
// signatures authorizing it.
type Tx struct {
	Msg        weave.Msg            `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

var _ sigs.SignedTx = (*Tx)(nil)

// GetMsg returns the single message of this transaction.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "msg")
	}
	return tx.Msg, nil
}

// GetSignatures returns the signatures of this transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes signed by every signer: the transaction
// serialized without its signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	bz, err := Codec.MarshalBinaryBare(&Tx{Msg: tx.Msg})
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return bz, nil
}

// Marshal serializes the transaction with the application codec.
func (tx *Tx) Marshal() ([]byte, error) {
	return Codec.MarshalBinaryBare(tx)
}

// Codec serializes transactions and knows every message of the
// application.
var Codec = MakeCodec()

// MakeCodec returns a codec with all messages registered.
func MakeCodec() *amino.Codec {
	cdc := amino.NewCodec()
	cdc.RegisterInterface((*weave.Msg)(nil), nil)
	token.RegisterCodec(cdc)
	escrow.RegisterCodec(cdc)
	return cdc
}

// TxDecoder parses transactions serialized with Codec.
func TxDecoder(bz []byte) (weave.Tx, error) {
	var tx Tx
	if err := Codec.UnmarshalBinaryBare(bz, &tx); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode transaction: %s", err)
	}
	return &tx, nil
}
