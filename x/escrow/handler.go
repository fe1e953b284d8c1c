package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/token"
)

const (
	openEscrowCost   int64 = 300
	settleEscrowCost int64 = 100
	cancelEscrowCost int64 = 50
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, tokens token.Controller, bank cash.Controller) {
	bucket := NewBucket()
	r.Handle(&OpenMsg{}, OpenHandler{auth: auth, bucket: bucket, tokens: tokens, bank: bank})
	r.Handle(&SettleMsg{}, SettleHandler{auth: auth, bucket: bucket, tokens: tokens, bank: bank})
	r.Handle(&CancelMsg{}, CancelHandler{auth: auth, bucket: bucket, tokens: tokens, bank: bank})
}

// RegisterQuery will register this bucket as "/escrows"
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("", qr)
}

// OpenHandler creates an escrow and moves the deposit into its vault.
type OpenHandler struct {
	auth   x.Authenticator
	bucket Bucket
	tokens token.Controller
	bank   cash.Controller
}

var _ weave.Handler = OpenHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h OpenHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: openEscrowCost}, nil
}

// Deliver stores the escrow record, creates the vault owned by the escrow
// address and moves AmountX from the maker into the vault.
func (h OpenHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, addr, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}

	if conf.RecordRent > 0 {
		if err := h.bank.MoveCoins(db, msg.Maker, addr, conf.RecordRent); err != nil {
			return nil, errors.Wrapf(err, "rent of escrow %s", addr)
		}
	}
	if err := h.bucket.Put(db, addr, record); err != nil {
		return nil, errors.Wrapf(err, "escrow %s", addr)
	}
	if err := h.openVault(ctx, db, record.Maker, addr, record.MintX, record.Vault); err != nil {
		return nil, err
	}

	// The maker is paid into this account on settle.
	makerY, err := token.AssociatedAddress(msg.Maker, msg.MintY)
	if err != nil {
		return nil, err
	}
	switch _, err := h.tokens.Account(db, makerY); {
	case errors.ErrNotFound.Is(err):
		if _, err := h.tokens.InitAccount(ctx, db, msg.Maker, msg.Maker, msg.MintY); err != nil {
			return nil, errors.Wrap(err, "maker y account")
		}
	case err != nil:
		return nil, err
	}

	makerX, err := token.AssociatedAddress(msg.Maker, msg.MintX)
	if err != nil {
		return nil, err
	}
	if err := transferChecked(ctx, db, h.tokens, makerX, record.Vault, record.MintX, record.AmountX); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}

	weave.GetLogger(ctx).With("module", "escrow").Info("escrow opened",
		"escrow", addr, "maker", msg.Maker, "seed", msg.Seed)
	return &weave.DeliverResult{
		Data: addr,
		Tags: tags("open", addr, msg.Maker),
	}, nil
}

// validate does all common pre-processing between Check and Deliver. It
// returns the record to be stored at the returned address.
func (h OpenHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*OpenMsg, weave.Address, *Escrow, error) {
	var msg OpenMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "maker signature required")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.AmountY == 0 && !conf.AllowZeroAmountY {
		return nil, nil, nil, errors.Wrap(errors.ErrAmount, "zero amount y")
	}

	cond, bump, err := Condition(msg.Maker, msg.Seed)
	if err != nil {
		return nil, nil, nil, err
	}
	addr := cond.Address()
	switch ok, err := h.bucket.Has(db, addr); {
	case err != nil:
		return nil, nil, nil, err
	case ok:
		return nil, nil, nil, errors.Wrapf(errors.ErrDuplicate, "escrow %s for seed %d", addr, msg.Seed)
	}

	for _, mint := range []weave.Address{msg.MintX, msg.MintY} {
		if _, err := h.tokens.Mint(db, mint); err != nil {
			return nil, nil, nil, err
		}
	}
	vault, err := token.AssociatedAddress(addr, msg.MintX)
	if err != nil {
		return nil, nil, nil, err
	}

	record := &Escrow{
		Maker:   msg.Maker,
		Vault:   vault,
		MintX:   msg.MintX,
		MintY:   msg.MintY,
		AmountX: msg.AmountX,
		AmountY: msg.AmountY,
		Seed:    msg.Seed,
		Bump:    bump,
	}
	return &msg, addr, record, nil
}

// openVault creates the token account of the escrow, paid by the maker.
// Anyone can create an associated account, so an empty account found at
// the vault address is taken over.
func (h OpenHandler) openVault(ctx weave.Context, db weave.KVStore, maker, escrow, mint, vault weave.Address) error {
	_, err := h.tokens.InitAccount(ctx, db, maker, escrow, mint)
	if err == nil {
		return nil
	}
	if !errors.ErrDuplicate.Is(err) {
		return errors.Wrap(err, "vault")
	}
	acc, err := h.tokens.Account(db, vault)
	if err != nil {
		return errors.Wrap(err, "vault")
	}
	if acc.Amount != 0 {
		return errors.Wrapf(errors.ErrState, "vault %s is not empty", vault)
	}
	return nil
}

// SettleHandler pays the maker and gives the vault content to the taker.
type SettleHandler struct {
	auth   x.Authenticator
	bucket Bucket
	tokens token.Controller
	bank   cash.Controller
}

var _ weave.Handler = SettleHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h SettleHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: settleEscrowCost}, nil
}

// Deliver moves AmountY from the taker to the maker and the vault content
// to the taker. The vault and the escrow record are closed and their rent
// returned to the maker.
func (h SettleHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	e := s.record

	takerY, err := token.AssociatedAddress(msg.Taker, e.MintY)
	if err != nil {
		return nil, err
	}
	makerY, err := token.AssociatedAddress(e.Maker, e.MintY)
	if err != nil {
		return nil, err
	}
	if err := transferChecked(ctx, db, h.tokens, takerY, makerY, e.MintY, e.AmountY); err != nil {
		return nil, errors.Wrap(err, "payment")
	}

	takerX, err := token.AssociatedAddress(msg.Taker, e.MintX)
	if err != nil {
		return nil, err
	}
	if err := s.release(ctx, db, h.tokens, takerX); err != nil {
		return nil, err
	}
	if err := s.close(ctx, db, h.bucket, h.tokens, h.bank); err != nil {
		return nil, err
	}

	weave.GetLogger(ctx).With("module", "escrow").Info("escrow settled",
		"escrow", s.addr, "maker", e.Maker, "seed", e.Seed, "taker", msg.Taker)
	return &weave.DeliverResult{
		Tags: append(tags("settle", s.addr, e.Maker), weave.Tag{Key: "taker", Value: msg.Taker.String()}),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h SettleHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*SettleMsg, *settlement, error) {
	var msg SettleMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	// Anyone can take the offer.
	if !h.auth.HasAddress(ctx, msg.Taker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "taker signature required")
	}
	s, err := loadSettlement(db, h.bucket, msg.Escrow)
	if err != nil {
		return nil, nil, err
	}
	e := s.record
	if !e.Maker.Equals(msg.Maker) {
		return nil, nil, errors.Wrapf(errors.ErrState, "escrow %s belongs to maker %s", msg.Escrow, e.Maker)
	}
	if !e.MintX.Equals(msg.MintX) {
		return nil, nil, errors.Wrapf(errors.ErrCurrency, "escrow %s holds mint %s, not %s", msg.Escrow, e.MintX, msg.MintX)
	}
	if !e.MintY.Equals(msg.MintY) {
		return nil, nil, errors.Wrapf(errors.ErrCurrency, "escrow %s asks for mint %s, not %s", msg.Escrow, e.MintY, msg.MintY)
	}

	if err := matchRef("vault", msg.Vault, e.Vault); err != nil {
		return nil, nil, err
	}
	refs := []struct {
		name        string
		given       weave.Address
		owner, mint weave.Address
	}{
		{"taker x", msg.TakerX, msg.Taker, e.MintX},
		{"taker y", msg.TakerY, msg.Taker, e.MintY},
		{"maker y", msg.MakerY, e.Maker, e.MintY},
	}
	for _, r := range refs {
		derived, err := token.AssociatedAddress(r.owner, r.mint)
		if err != nil {
			return nil, nil, err
		}
		if err := matchRef(r.name, r.given, derived); err != nil {
			return nil, nil, err
		}
	}
	return &msg, s, nil
}

// CancelHandler returns the vault content to the maker.
type CancelHandler struct {
	auth   x.Authenticator
	bucket Bucket
	tokens token.Controller
	bank   cash.Controller
}

var _ weave.Handler = CancelHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h CancelHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: cancelEscrowCost}, nil
}

// Deliver moves the vault content back to the maker and closes the vault
// and the escrow record.
func (h CancelHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	e := s.record

	makerX, err := token.AssociatedAddress(e.Maker, e.MintX)
	if err != nil {
		return nil, err
	}
	if err := s.release(ctx, db, h.tokens, makerX); err != nil {
		return nil, err
	}
	if err := s.close(ctx, db, h.bucket, h.tokens, h.bank); err != nil {
		return nil, err
	}

	weave.GetLogger(ctx).With("module", "escrow").Info("escrow cancelled",
		"escrow", s.addr, "maker", e.Maker, "seed", e.Seed)
	return &weave.DeliverResult{
		Tags: tags("cancel", s.addr, e.Maker),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CancelHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*settlement, error) {
	var msg CancelMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	s, err := loadSettlement(db, h.bucket, msg.Escrow)
	if err != nil {
		return nil, err
	}
	e := s.record
	// Only the maker can cancel.
	if !h.auth.HasAddress(ctx, e.Maker) || !e.Maker.Equals(msg.Maker) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "maker %s signature required", e.Maker)
	}
	if err := matchRef("vault", msg.Vault, e.Vault); err != nil {
		return nil, err
	}
	makerX, err := token.AssociatedAddress(e.Maker, e.MintX)
	if err != nil {
		return nil, err
	}
	if err := matchRef("maker x", msg.MakerX, makerX); err != nil {
		return nil, err
	}
	return s, nil
}

// settlement is an escrow record loaded from the store and verified
// against its derived authority.
type settlement struct {
	addr      weave.Address
	record    *Escrow
	authority weave.Condition
}

// loadSettlement loads the record stored at addr. It fails unless the
// record was derived from its own maker, seed and bump and its vault is the
// account of that derived address.
func loadSettlement(db weave.ReadOnlyKVStore, bucket Bucket, addr weave.Address) (*settlement, error) {
	var e Escrow
	if err := bucket.One(db, addr, &e); err != nil {
		return nil, errors.Wrapf(err, "escrow %s", addr)
	}
	authority, err := e.Verify(addr)
	if err != nil {
		return nil, err
	}
	vault, err := token.AssociatedAddress(addr, e.MintX)
	if err != nil {
		return nil, err
	}
	if !vault.Equals(e.Vault) {
		return nil, errors.Wrapf(errors.ErrState, "vault %s is not owned by escrow %s", e.Vault, addr)
	}
	return &settlement{addr: addr, record: &e, authority: authority}, nil
}

// release moves the whole vault content to given account, authorized by
// the escrow.
func (s *settlement) release(ctx weave.Context, db weave.KVStore, tokens token.Controller, to weave.Address) error {
	amount, err := tokens.Balance(db, s.record.Vault)
	if err != nil {
		return errors.Wrap(err, "vault")
	}
	ctx = withEscrow(ctx, s.authority)
	if err := transferChecked(ctx, db, tokens, s.record.Vault, to, s.record.MintX, amount); err != nil {
		return errors.Wrapf(err, "release of vault %s", s.record.Vault)
	}
	return nil
}

// close removes the vault and the record. All rent goes to the maker.
func (s *settlement) close(ctx weave.Context, db weave.KVStore, bucket Bucket, tokens token.Controller, bank cash.Controller) error {
	ctx = withEscrow(ctx, s.authority)
	if err := tokens.CloseAccount(ctx, db, s.record.Vault, s.record.Maker); err != nil {
		return errors.Wrapf(err, "close vault %s", s.record.Vault)
	}
	if err := bucket.Delete(db, s.addr); err != nil {
		return errors.Wrapf(err, "escrow %s", s.addr)
	}
	if _, err := bank.Drain(db, s.addr, s.record.Maker); err != nil {
		return errors.Wrapf(err, "rent of escrow %s", s.addr)
	}
	return nil
}

// transferChecked moves amount using the precision declared by the mint.
func transferChecked(ctx weave.Context, db weave.KVStore, tokens token.Controller, from, to, mint weave.Address, amount uint64) error {
	m, err := tokens.Mint(db, mint)
	if err != nil {
		return err
	}
	return tokens.TransferChecked(ctx, db, from, to, mint, amount, m.Decimals)
}

func tags(action string, escrow, maker weave.Address) []weave.Tag {
	return []weave.Tag{
		{Key: "escrow", Value: escrow.String()},
		{Key: "action", Value: action},
		{Key: "maker", Value: maker.String()},
	}
}
