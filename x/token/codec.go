package token

import (
	amino "github.com/tendermint/go-amino"
)

// cdc serializes the models and the configuration of this extension.
var cdc = amino.NewCodec()

// RegisterCodec registers all messages of this extension, so they can be
// carried by a transaction.
func RegisterCodec(c *amino.Codec) {
	c.RegisterConcrete(&CreateMintMsg{}, "token/create_mint", nil)
	c.RegisterConcrete(&CreateAccountMsg{}, "token/create_account", nil)
	c.RegisterConcrete(&MintToMsg{}, "token/mint_to", nil)
	c.RegisterConcrete(&TransferMsg{}, "token/transfer", nil)
}
