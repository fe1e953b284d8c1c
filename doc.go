/*
Package weave defines interfaces used throughout the escrow application, such
as: storage, transactions, handlers, conditions and derived addresses.

An extension is a set of handlers that process messages. Handlers receive the
context of the call (who signed, which block, which logger), a KVStore that
represents the ledger state and the transaction. All state transitions of one
transaction happen on a cache wrap of the store and are committed only when
the whole transaction succeeded.

Addresses are digests of conditions. A condition is either a public key
(see package crypto) or a condition derived from a set of seeds. Derived
conditions have no private key and can only be granted by the extension that
is able to recompute them.
*/
package weave
