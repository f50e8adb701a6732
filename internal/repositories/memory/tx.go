package memory

import (
	"context"
	"iter"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"
	"upipay/internal/repositories"

	"github.com/shopspring/decimal"
)

type stagedWallet struct {
	wallet      *models.Wallet
	readVersion int64
	created     bool
}

// txStore is the view handed to a unit of work. Nothing it writes reaches
// the parent Store until commit.
type txStore struct {
	base    *Store
	parties []*models.Party
	wallets map[string]*stagedWallet
	entries []*models.Transaction
}

func newTx(base *Store) *txStore {
	return &txStore{base: base, wallets: make(map[string]*stagedWallet)}
}

func (t *txStore) Parties() repositories.PartyRepository { return &txPartyRepo{t: t} }

func (t *txStore) Wallets() repositories.WalletRepository { return &txWalletRepo{t: t} }

func (t *txStore) Ledger() repositories.LedgerRepository { return &txLedgerRepo{t: t} }

func (t *txStore) Ping(ctx context.Context) error { return t.base.Ping(ctx) }

// ExecuteInTransaction joins the enclosing unit of work.
func (t *txStore) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	return fn(t)
}

// stage returns the working copy of a wallet, reading it from the parent
// store on first touch.
func (t *txStore) stage(address string) (*stagedWallet, error) {
	if st, ok := t.wallets[address]; ok {
		return st, nil
	}
	w, ok := t.base.wallet(address)
	if !ok {
		return nil, apperrors.WalletNotFound(address)
	}
	st := &stagedWallet{wallet: w, readVersion: w.Version}
	t.wallets[address] = st
	return st, nil
}

func (t *txStore) stagedParty(match func(*models.Party) bool) *models.Party {
	for _, p := range t.parties {
		if match(p) {
			cp := *p
			return &cp
		}
	}
	return nil
}

type txPartyRepo struct{ t *txStore }

func (r *txPartyRepo) Create(ctx context.Context, party *models.Party) error {
	if ok, _ := r.ExistsByPhone(ctx, party.Phone); ok {
		return apperrors.DuplicateContact(party.Phone)
	}
	if ok, _ := r.ExistsByAddress(ctx, party.Address); ok {
		return apperrors.DuplicateAddress(party.Address)
	}
	r.t.parties = append(r.t.parties, party)
	return nil
}

func (r *txPartyRepo) GetByAddress(ctx context.Context, address string) (*models.Party, error) {
	if p := r.t.stagedParty(func(p *models.Party) bool { return p.Address == address }); p != nil {
		return p, nil
	}
	return r.t.base.Parties().GetByAddress(ctx, address)
}

func (r *txPartyRepo) GetByPhone(ctx context.Context, phone string) (*models.Party, error) {
	if p := r.t.stagedParty(func(p *models.Party) bool { return p.Phone == phone }); p != nil {
		return p, nil
	}
	return r.t.base.Parties().GetByPhone(ctx, phone)
}

func (r *txPartyRepo) ExistsByAddress(ctx context.Context, address string) (bool, error) {
	if r.t.stagedParty(func(p *models.Party) bool { return p.Address == address }) != nil {
		return true, nil
	}
	return r.t.base.Parties().ExistsByAddress(ctx, address)
}

func (r *txPartyRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	if r.t.stagedParty(func(p *models.Party) bool { return p.Phone == phone }) != nil {
		return true, nil
	}
	return r.t.base.Parties().ExistsByPhone(ctx, phone)
}

// IncrementTokenVersion is not journaled; token revocation takes effect
// immediately.
func (r *txPartyRepo) IncrementTokenVersion(ctx context.Context, address string) error {
	return r.t.base.Parties().IncrementTokenVersion(ctx, address)
}

type txWalletRepo struct{ t *txStore }

func (r *txWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	_ = wallet.BeforeCreate(nil)
	if _, ok := r.t.wallets[wallet.Address]; ok {
		return apperrors.DuplicateAddress(wallet.Address)
	}
	if _, ok := r.t.base.wallet(wallet.Address); ok {
		return apperrors.DuplicateAddress(wallet.Address)
	}
	r.t.wallets[wallet.Address] = &stagedWallet{wallet: wallet, created: true}
	return nil
}

func (r *txWalletRepo) GetByAddress(_ context.Context, address string) (*models.Wallet, error) {
	st, err := r.t.stage(address)
	if err != nil {
		return nil, err
	}
	cp := *st.wallet
	return &cp, nil
}

func (r *txWalletRepo) GetForUpdate(ctx context.Context, address string) (*models.Wallet, error) {
	return r.GetByAddress(ctx, address)
}

func (r *txWalletRepo) Adjust(ctx context.Context, address string, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	st, err := r.t.stage(address)
	if err != nil {
		return decimal.Zero, err
	}
	next := st.wallet.Balance.Add(delta)
	if next.IsNegative() {
		return st.wallet.Balance, apperrors.InsufficientFunds(address, delta.Neg(), st.wallet.Balance)
	}
	st.wallet.Balance = next
	st.wallet.Version++
	return next, nil
}

// TotalBalance reports committed balances only.
func (r *txWalletRepo) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	return r.t.base.Wallets().TotalBalance(ctx)
}

type txLedgerRepo struct{ t *txStore }

func (r *txLedgerRepo) Record(_ context.Context, entry *models.Transaction) error {
	r.t.entries = append(r.t.entries, entry)
	return nil
}

// History reports committed entries only.
func (r *txLedgerRepo) History(ctx context.Context, address string) iter.Seq2[models.Transaction, error] {
	return r.t.base.Ledger().History(ctx, address)
}
