package escrow

import (
	"context"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/x"
)

type contextKey int // local to the escrow module

const (
	contextKeyEscrow contextKey = iota
)

// withEscrow is a private method, as only this module can grant the
// authority of an escrow
func withEscrow(ctx weave.Context, cond weave.Condition) weave.Context {
	return context.WithValue(ctx, contextKeyEscrow, cond)
}

// Authenticate gets the escrow authority granted by this module, if any.
type Authenticate struct {
}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the escrow condition set on this context
func (a Authenticate) GetConditions(ctx weave.Context) []weave.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyEscrow).(weave.Condition)
	if val == nil {
		return nil
	}
	return []weave.Condition{val}
}

// HasAddress returns true iff this address is in GetConditions
func (a Authenticate) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
