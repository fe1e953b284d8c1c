package escrow

import (
	amino "github.com/tendermint/go-amino"
)

// cdc serializes the configuration of this extension. Escrow records use
// their own fixed layout.
var cdc = amino.NewCodec()

// RegisterCodec registers all messages of this extension, so they can be
// carried by a transaction.
func RegisterCodec(c *amino.Codec) {
	c.RegisterConcrete(&OpenMsg{}, "escrow/open", nil)
	c.RegisterConcrete(&SettleMsg{}, "escrow/settle", nil)
	c.RegisterConcrete(&CancelMsg{}, "escrow/cancel", nil)
}
