package dashboard

import (
	"sync"
	"time"

	"hft-ui-go/internal/models"
)

// Slot names one independently refreshed part of the dashboard state.
type Slot string

const (
	SlotAccounts  Slot = "accounts"
	SlotAccount   Slot = "account"
	SlotPositions Slot = "positions"
	SlotOrders    Slot = "orders"
	SlotTrades    Slot = "trades"
	SlotStatus    Slot = "status"
	SlotEquity    Slot = "equity"
)

// Snapshot is an immutable view of the dashboard state. Slices and maps in a
// Snapshot are never modified after it is handed out.
type Snapshot struct {
	Version         uint64
	Accounts        []string
	SelectedAccount string
	Tab             Tab
	Account         models.Account
	Positions       []models.Position
	Orders          []models.Order
	Trades          []models.Trade
	Statuses        []models.AccountStatus
	Equity          []models.EquityPoint
	Notifications   []Notification
	// Errors holds the last read failure per slot, cleared by the next success.
	Errors      map[Slot]string
	RefreshedAt map[Slot]time.Time
}

// Store is the state container behind the dashboard. Every slot has exactly
// one writer; each write replaces the slot wholesale and publishes a new
// version to subscribers.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// NewStore creates an empty store showing the dashboard tab.
func NewStore() *Store {
	return &Store{
		snap: Snapshot{
			Tab:         TabDashboard,
			Errors:      map[Slot]string{},
			RefreshedAt: map[Slot]time.Time{},
		},
		now:  time.Now,
		subs: make(map[chan struct{}]struct{}),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Selection returns the selected account and the active tab.
func (s *Store) Selection() (string, Tab) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.SelectedAccount, s.snap.Tab
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees one pending signal, then reads the
// latest Snapshot. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// update applies fn under the write lock and publishes the result.
// fn returns false to signal that nothing changed.
func (s *Store) update(fn func(snap *Snapshot) bool) bool {
	s.mu.Lock()
	changed := fn(&s.snap)
	if changed {
		s.snap.Version++
	}
	s.mu.Unlock()

	if changed {
		s.publish()
	}
	return changed
}

// apply writes a slot fetched for account. Responses for an account that is
// no longer selected are dropped.
func (s *Store) apply(account string, slot Slot, fn func(snap *Snapshot)) bool {
	now := s.now()
	return s.update(func(snap *Snapshot) bool {
		if account != snap.SelectedAccount {
			return false
		}
		fn(snap)
		snap.RefreshedAt = withTime(snap.RefreshedAt, slot, now)
		if _, failed := snap.Errors[slot]; failed {
			snap.Errors = withoutError(snap.Errors, slot)
		}
		return true
	})
}

// SetAccounts replaces the list of known accounts.
func (s *Store) SetAccounts(accounts []string) {
	now := s.now()
	s.update(func(snap *Snapshot) bool {
		snap.Accounts = accounts
		snap.RefreshedAt = withTime(snap.RefreshedAt, SlotAccounts, now)
		snap.Errors = withoutError(snap.Errors, SlotAccounts)
		return true
	})
}

// Select makes account the selected one. Data of the previous account is
// discarded. It reports whether the selection changed.
func (s *Store) Select(account string) bool {
	return s.update(func(snap *Snapshot) bool {
		if snap.SelectedAccount == account {
			return false
		}
		accounts, notifications := snap.Accounts, snap.Notifications
		tab, version := snap.Tab, snap.Version
		*snap = Snapshot{
			Version:         version,
			Accounts:        accounts,
			SelectedAccount: account,
			Tab:             tab,
			Notifications:   notifications,
			Errors:          map[Slot]string{},
			RefreshedAt:     map[Slot]time.Time{},
		}
		return true
	})
}

// SetTab switches the active tab. It reports whether the tab changed.
func (s *Store) SetTab(tab Tab) bool {
	return s.update(func(snap *Snapshot) bool {
		if snap.Tab == tab {
			return false
		}
		snap.Tab = tab
		return true
	})
}

func (s *Store) SetAccount(account string, a models.Account) bool {
	return s.apply(account, SlotAccount, func(snap *Snapshot) { snap.Account = a })
}

func (s *Store) SetPositions(account string, positions []models.Position) bool {
	return s.apply(account, SlotPositions, func(snap *Snapshot) { snap.Positions = positions })
}

func (s *Store) SetOrders(account string, orders []models.Order) bool {
	return s.apply(account, SlotOrders, func(snap *Snapshot) { snap.Orders = orders })
}

func (s *Store) SetTrades(account string, trades []models.Trade) bool {
	return s.apply(account, SlotTrades, func(snap *Snapshot) { snap.Trades = trades })
}

func (s *Store) SetStatuses(account string, statuses []models.AccountStatus) bool {
	return s.apply(account, SlotStatus, func(snap *Snapshot) { snap.Statuses = statuses })
}

func (s *Store) SetEquity(account string, points []models.EquityPoint) bool {
	return s.apply(account, SlotEquity, func(snap *Snapshot) { snap.Equity = points })
}

// RecordError keeps err as the diagnostic for slot. The slot value is left
// untouched.
func (s *Store) RecordError(account string, slot Slot, err error) {
	s.update(func(snap *Snapshot) bool {
		if slot != SlotAccounts && account != snap.SelectedAccount {
			return false
		}
		errs := make(map[Slot]string, len(snap.Errors)+1)
		for k, v := range snap.Errors {
			errs[k] = v
		}
		errs[slot] = err.Error()
		snap.Errors = errs
		return true
	})
}

func (s *Store) setNotifications(list []Notification) {
	s.update(func(snap *Snapshot) bool {
		snap.Notifications = list
		return true
	})
}

func withTime(m map[Slot]time.Time, slot Slot, t time.Time) map[Slot]time.Time {
	out := make(map[Slot]time.Time, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[slot] = t
	return out
}

func withoutError(m map[Slot]string, slot Slot) map[Slot]string {
	out := make(map[Slot]string, len(m))
	for k, v := range m {
		if k != slot {
			out[k] = v
		}
	}
	return out
}
