/*
Package weavetest provides helpers to test handlers and decorators without
running a full application: signer conditions, a context based
authenticator, transaction and message mocks, and a recording handler.
*/
package weavetest

import (
	"context"
	"fmt"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
)

// NewKey returns a new random ed25519 key.
func NewKey() crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signer condition of a new random key.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convinience only string type keys are allowed.
	Key string
}

// SetConditions returns a context that authenticates all given conditions.
func (a *CtxAuth) SetConditions(ctx weave.Context, permissions ...weave.Condition) weave.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

// GetConditions returns conditions previously set on this context.
func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]weave.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []weave.Condition got %T", ctx.Value(a.Key)))
	}
	return conds
}

// HasAddress returns true if any of the set conditions has given address.
func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// Tx represents a weave transaction with a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg weave.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ weave.Tx = (*Tx)(nil)

// GetMsg returns the message or the configured error.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg represents a weave message routed by its path.
type Msg struct {
	// RoutePath returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by Validate.
	Err error
}

var _ weave.Msg = (*Msg)(nil)

// Path returns the configured route.
func (m *Msg) Path() string {
	return m.RoutePath
}

// Validate returns the configured error.
func (m *Msg) Validate() error {
	return m.Err
}

// Handler implements a mock of weave.Handler. It counts calls and returns
// the configured results. When Write is set, both Check and Deliver write
// it as a key and value to the store before returning.
type Handler struct {
	calls int

	// CheckResult is returned by Check method.
	CheckResult weave.CheckResult
	// CheckErr if set is returned by Check method.
	CheckErr error
	// DeliverResult is returned by Deliver method.
	DeliverResult weave.DeliverResult
	// DeliverErr if set is returned by Deliver method.
	DeliverErr error
	// Write if set, is written to the store on every call.
	Write []byte
}

var _ weave.Handler = (*Handler)(nil)

// Check counts the call and returns the configured result.
func (h *Handler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	h.calls++
	if h.Write != nil {
		if err := db.Set(h.Write, h.Write); err != nil {
			return nil, err
		}
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

// Deliver counts the call, optionally writes to the store and returns the
// configured result.
func (h *Handler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.calls++
	if h.Write != nil {
		if err := db.Set(h.Write, h.Write); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

// CallCount returns the number of Check and Deliver calls.
func (h *Handler) CallCount() int {
	return h.calls
}

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions.
type Auth struct {
	// Signer represents an authentication of a single signer. This is a
	// convenience attribute when creating an authentication method for a
	// single signer. When authenticating all signers, this field is
	// merged with Signers.
	Signer weave.Condition
	// Signers represents an authentication of multiple signers.
	Signers []weave.Condition
}

// GetConditions returns all configured signers.
func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	return append(a.Signers, a.Signer)
}

// HasAddress returns true if any of the signers has given address.
func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
