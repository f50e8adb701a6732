// Package memory is an in-process Store used by the service and handler tests.
// The server always runs against Postgres.
//
// Writes made inside ExecuteInTransaction are staged in a journal and applied
// under the store's write lock at commit. Commit re-validates every staged
// wallet against the version it was read at, so two units of work that raced
// past the lock manager cannot both commit.
package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"
	"upipay/internal/repositories"

	"github.com/shopspring/decimal"
)

var _ repositories.Store = (*Store)(nil)

// Store keeps parties, wallets and ledger entries in maps guarded by one
// RWMutex.
type Store struct {
	mu       sync.RWMutex
	parties  map[string]*models.Party
	phones   map[string]string
	wallets  map[string]*models.Wallet
	entries  []models.Transaction
	partyID  uint
	walletID uint
	sequence int64
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		parties: make(map[string]*models.Party),
		phones:  make(map[string]string),
		wallets: make(map[string]*models.Wallet),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Tests use it to produce equal
// timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Parties() repositories.PartyRepository { return &partyRepo{s: s} }

func (s *Store) Wallets() repositories.WalletRepository { return &walletRepo{s: s} }

func (s *Store) Ledger() repositories.LedgerRepository { return &ledgerRepo{s: s} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *txStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, st := range tx.wallets {
		if st.created {
			if _, ok := s.wallets[addr]; ok {
				return apperrors.DuplicateAddress(addr)
			}
			continue
		}
		cur, ok := s.wallets[addr]
		if !ok {
			return apperrors.WalletNotFound(addr)
		}
		if cur.Version != st.readVersion {
			return repositories.ErrConcurrentUpdate
		}
		if st.wallet.Balance.IsNegative() {
			return apperrors.InsufficientFunds(addr, st.wallet.Balance.Neg(), cur.Balance)
		}
	}
	for _, p := range tx.parties {
		if err := s.checkUniqueLocked(p); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	for _, p := range tx.parties {
		s.insertPartyLocked(p, now)
	}
	for addr, st := range tx.wallets {
		if st.created {
			s.insertWalletLocked(st.wallet, now)
			continue
		}
		w := *st.wallet
		w.UpdatedAt = now
		s.wallets[addr] = &w
		*st.wallet = w
	}
	for _, e := range tx.entries {
		s.appendEntryLocked(e)
	}
	return nil
}

func (s *Store) checkUniqueLocked(p *models.Party) error {
	if _, ok := s.phones[p.Phone]; ok {
		return apperrors.DuplicateContact(p.Phone)
	}
	if _, ok := s.parties[p.Address]; ok {
		return apperrors.DuplicateAddress(p.Address)
	}
	return nil
}

func (s *Store) insertPartyLocked(p *models.Party, now time.Time) {
	s.partyID++
	p.ID = s.partyID
	if p.TokenVersion == 0 {
		p.TokenVersion = 1
	}
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Wallet = nil
	s.parties[p.Address] = &stored
	s.phones[p.Phone] = p.Address
}

func (s *Store) insertWalletLocked(w *models.Wallet, now time.Time) {
	s.walletID++
	w.ID = s.walletID
	w.CreatedAt, w.UpdatedAt = now, now
	stored := *w
	s.wallets[w.Address] = &stored
}

func (s *Store) appendEntryLocked(e *models.Transaction) {
	repositories.PrepareEntry(e, s.now())
	s.sequence++
	e.Sequence = s.sequence
	s.entries = append(s.entries, *e)
}

func (s *Store) party(address string) (*models.Party, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[address]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *Store) wallet(address string) (*models.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[address]
	if !ok {
		return nil, false
	}
	cp := *w
	return &cp, true
}

// history snapshots matching entries at call time, newest first.
func (s *Store) history(address string) []models.Transaction {
	s.mu.RLock()
	out := make([]models.Transaction, 0)
	for i := range s.entries {
		if s.entries[i].Involves(address) {
			out = append(out, s.entries[i])
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b models.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Sequence, a.Sequence)
	})
	return out
}

func historySeq(snapshot func() []models.Transaction) iter.Seq2[models.Transaction, error] {
	return func(yield func(models.Transaction, error) bool) {
		for _, e := range snapshot() {
			if !yield(e, nil) {
				return
			}
		}
	}
}

type partyRepo struct{ s *Store }

func (r *partyRepo) Create(_ context.Context, party *models.Party) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkUniqueLocked(party); err != nil {
		return err
	}
	r.s.insertPartyLocked(party, r.s.now().UTC())
	return nil
}

func (r *partyRepo) GetByAddress(_ context.Context, address string) (*models.Party, error) {
	p, ok := r.s.party(address)
	if !ok {
		return nil, apperrors.PartyNotFound(address)
	}
	return p, nil
}

func (r *partyRepo) GetByPhone(_ context.Context, phone string) (*models.Party, error) {
	r.s.mu.RLock()
	addr, ok := r.s.phones[phone]
	r.s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrPartyNotFound
	}
	p, ok := r.s.party(addr)
	if !ok {
		return nil, apperrors.ErrPartyNotFound
	}
	return p, nil
}

func (r *partyRepo) ExistsByAddress(_ context.Context, address string) (bool, error) {
	_, ok := r.s.party(address)
	return ok, nil
}

func (r *partyRepo) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.phones[phone]
	return ok, nil
}

func (r *partyRepo) IncrementTokenVersion(_ context.Context, address string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.parties[address]
	if !ok {
		return apperrors.PartyNotFound(address)
	}
	p.TokenVersion++
	return nil
}

type walletRepo struct{ s *Store }

func (r *walletRepo) Create(_ context.Context, wallet *models.Wallet) error {
	_ = wallet.BeforeCreate(nil)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.wallets[wallet.Address]; ok {
		return apperrors.DuplicateAddress(wallet.Address)
	}
	r.s.insertWalletLocked(wallet, r.s.now().UTC())
	return nil
}

func (r *walletRepo) GetByAddress(_ context.Context, address string) (*models.Wallet, error) {
	w, ok := r.s.wallet(address)
	if !ok {
		return nil, apperrors.WalletNotFound(address)
	}
	return w, nil
}

func (r *walletRepo) GetForUpdate(ctx context.Context, address string) (*models.Wallet, error) {
	return r.GetByAddress(ctx, address)
}

func (r *walletRepo) Adjust(_ context.Context, address string, delta decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[address]
	if !ok {
		return decimal.Zero, apperrors.WalletNotFound(address)
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return w.Balance, apperrors.InsufficientFunds(address, delta.Neg(), w.Balance)
	}
	w.Balance = next
	w.Version++
	w.UpdatedAt = r.s.now().UTC()
	return next, nil
}

func (r *walletRepo) TotalBalance(context.Context) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := decimal.Zero
	for _, w := range r.s.wallets {
		total = total.Add(w.Balance)
	}
	return total, nil
}

type ledgerRepo struct{ s *Store }

func (r *ledgerRepo) Record(_ context.Context, entry *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendEntryLocked(entry)
	return nil
}

func (r *ledgerRepo) History(_ context.Context, address string) iter.Seq2[models.Transaction, error] {
	return historySeq(func() []models.Transaction { return r.s.history(address) })
}
