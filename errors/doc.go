/*
Package errors implements the error taxonomy of the escrow application.

Every failure returned to a caller wraps one of the registered root errors.
The root error carries the code returned over ABCI, wrapping layers carry the
human readable context (usually the implicated account):

	errors.Wrapf(errors.ErrInsufficientAmount, "account %s", addr)

Use ErrXyz.Is(err) to test an error kind. Wrapping attaches a stack trace
once, at the innermost frame. Format with %+v to print it.

The escrow operations map their failures as follows:

	ErrUnauthorized        caller or authority does not control an account
	ErrInsufficientAmount  balance lower than the requested transfer
	ErrCurrency            declared mint does not match an account
	ErrDuplicate           escrow already open for the same maker and seed
	ErrState               referenced accounts do not match the derived ones
	ErrNotFound            record or account does not exist
*/
package errors
