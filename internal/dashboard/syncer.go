package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/hftapi"
	"hft-ui-go/internal/models"

	"go.uber.org/zap"
)

var (
	ErrNoAccount      = errors.New("no account selected")
	ErrNotCancellable = errors.New("order is already filled or cancelled")
	ErrUnknownTab     = errors.New("unknown tab")
	ErrInvalidOrder   = errors.New("invalid order")
)

// Journal records the place/cancel requests submitted from the dashboard.
type Journal interface {
	Record(ctx context.Context, action *models.OrderAction) error
}

// Ticker is the part of time.Ticker the sync loop uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Syncer keeps the Store in step with the backend by polling it.
type Syncer struct {
	logger   *zap.Logger
	cfg      *config.Dashboard
	client   hftapi.ClientInterface
	store    *Store
	notifier *Notifier
	journal  Journal

	newTicker func(time.Duration) Ticker
	now       func() time.Time

	changes chan struct{} // selection changed: restart the poll timer
	kick    chan struct{} // out-of-cycle refresh
	reads   sync.WaitGroup
}

// NewSyncer creates a new sync loop. journal may be nil.
func NewSyncer(logger *zap.Logger, cfg *config.Dashboard, client hftapi.ClientInterface, store *Store, notifier *Notifier, journal Journal) *Syncer {
	return &Syncer{
		logger:    logger.Named("syncer"),
		cfg:       cfg,
		client:    client,
		store:     store,
		notifier:  notifier,
		journal:   journal,
		newTicker: newTimeTicker,
		now:       time.Now,
		changes:   make(chan struct{}, 1),
		kick:      make(chan struct{}, 1),
	}
}

// Run loads the account list and polls until ctx is cancelled. Reads run in
// their own goroutines; the loop never waits for a response, so a slow
// endpoint delays only its own slot.
func (s *Syncer) Run(ctx context.Context) {
	s.logger.Info("Starting sync loop",
		zap.Duration("poll_interval", s.cfg.PollInterval),
		zap.Duration("equity_interval", s.cfg.EquityInterval))
	defer s.reads.Wait()

	if err := s.ReloadAccounts(ctx); err != nil {
		s.logger.Error("Failed to load accounts", zap.Error(err))
	}
	// restart below already covers the initial selection
	select {
	case <-s.changes:
	default:
	}

	var poll, equity Ticker
	stop := func() {
		if poll != nil {
			poll.Stop()
			poll = nil
		}
		if equity != nil {
			equity.Stop()
			equity = nil
		}
	}
	defer func() { stop() }()

	// At most one poll ticker is live; every selection change replaces it.
	restart := func() {
		stop()
		account, tab := s.store.Selection()
		if account == "" {
			return
		}
		poll = s.newTicker(s.cfg.PollInterval)
		s.refresh(ctx, account, tab)
		if tab == TabEquity {
			equity = s.newTicker(s.cfg.EquityInterval)
			s.refreshEquity(ctx, account)
		}
	}
	restart()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping sync loop")
			return
		case <-s.changes:
			restart()
		case <-tickerC(poll):
			if account, tab := s.store.Selection(); account != "" {
				s.refresh(ctx, account, tab)
			}
		case <-tickerC(equity):
			if account, _ := s.store.Selection(); account != "" {
				s.refreshEquity(ctx, account)
			}
		case <-s.kick:
			if account, tab := s.store.Selection(); account != "" {
				s.refresh(ctx, account, tab)
			}
		}
	}
}

func tickerC(t Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// ReloadAccounts fetches the account list. When the current selection is not
// in the list, the first account is selected.
func (s *Syncer) ReloadAccounts(ctx context.Context) error {
	accounts, err := s.client.ListAccounts(ctx)
	if err != nil {
		s.store.RecordError("", SlotAccounts, err)
		return err
	}
	s.store.SetAccounts(accounts)
	s.logger.Info("Loaded accounts", zap.Strings("accounts", accounts))

	if len(accounts) == 0 {
		return nil
	}
	current, _ := s.store.Selection()
	for _, a := range accounts {
		if a == current {
			return nil
		}
	}
	return s.SelectAccount(accounts[0])
}

// SelectAccount switches the dashboard to account.
func (s *Syncer) SelectAccount(account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return ErrNoAccount
	}
	if s.store.Select(account) {
		s.logger.Info("Account selected", zap.String("account_id", account))
		signal(s.changes)
	}
	return nil
}

// SetTab switches the active tab, which changes the read window.
func (s *Syncer) SetTab(tab Tab) error {
	tab, err := ParseTab(string(tab))
	if err != nil {
		return err
	}
	if s.store.SetTab(tab) {
		s.logger.Debug("Tab changed", zap.String("tab", string(tab)))
		signal(s.changes)
	}
	return nil
}

// Refresh requests an immediate read cycle outside the poll cadence.
func (s *Syncer) Refresh() {
	signal(s.kick)
}

func (s *Syncer) limitFor(tab Tab) int {
	if tab.History() {
		return s.cfg.HistoryLimit
	}
	return s.cfg.OverviewLimit
}

// spawn runs read in its own goroutine. Run waits for spawned reads before
// returning.
func (s *Syncer) spawn(read func()) {
	s.reads.Add(1)
	go func() {
		defer s.reads.Done()
		read()
	}()
}

// refresh starts the five reads and returns without waiting for them. Each
// read writes only its own slot; a failure leaves the slot at its last-known
// value. Results for an account that is no longer selected are dropped by
// the store.
func (s *Syncer) refresh(ctx context.Context, account string, tab Tab) {
	limit := s.limitFor(tab)
	l := s.logger.With(zap.String("account_id", account), zap.Int("limit", limit))
	l.Debug("Refreshing")

	s.spawn(func() {
		trades, err := s.client.GetTrades(ctx, limit, account)
		if err != nil {
			s.readFailed(l, account, SlotTrades, err, func() { s.store.SetTrades(account, []models.Trade{}) })
			return
		}
		s.store.SetTrades(account, trades)
	})

	s.spawn(func() {
		orders, err := s.client.GetOrders(ctx, limit, account)
		if err != nil {
			s.readFailed(l, account, SlotOrders, err, func() { s.store.SetOrders(account, []models.Order{}) })
			return
		}
		s.store.SetOrders(account, orders)
	})

	s.spawn(func() {
		positions, err := s.client.GetPositions(ctx, account)
		if err != nil {
			s.readFailed(l, account, SlotPositions, err, func() { s.store.SetPositions(account, []models.Position{}) })
			return
		}
		s.store.SetPositions(account, positions)
	})

	s.spawn(func() {
		snapshot, err := s.client.GetAccount(ctx, account)
		if err != nil {
			s.readFailed(l, account, SlotAccount, err, nil)
			return
		}
		s.store.SetAccount(account, *snapshot)
	})

	s.spawn(func() {
		statuses, err := s.client.GetAccountStatus(ctx, account)
		if err != nil {
			s.readFailed(l, account, SlotStatus, err, func() { s.store.SetStatuses(account, []models.AccountStatus{}) })
			return
		}
		s.store.SetStatuses(account, statuses)
	})
}

func (s *Syncer) refreshEquity(ctx context.Context, account string) {
	s.spawn(func() {
		points, err := s.client.GetEquityHistory(ctx, s.cfg.EquityLimit, account)
		if err != nil {
			s.readFailed(s.logger.With(zap.String("account_id", account)), account, SlotEquity, err,
				func() { s.store.SetEquity(account, []models.EquityPoint{}) })
			return
		}
		s.store.SetEquity(account, points)
	})
}

// readFailed records a read failure. A list that came back in the wrong shape
// is shown as empty; any other failure keeps the last-known value.
func (s *Syncer) readFailed(l *zap.Logger, account string, slot Slot, err error, clear func()) {
	if errors.Is(err, context.Canceled) {
		return
	}
	l.Warn("Read failed", zap.String("slot", string(slot)), zap.Error(err))
	if clear != nil && hftapi.IsShapeError(err) {
		clear()
	}
	s.store.RecordError(account, slot, err)
}

// OrderForm is the order entry as typed by the user.
type OrderForm struct {
	Symbol    string           `json:"symbol"`
	Direction models.Direction `json:"direction"`
	Offset    models.Offset    `json:"offset"`
	Price     float64          `json:"price"`
	Volume    int64            `json:"volume"`
}

// Validate checks the form before anything is sent.
func (f OrderForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Symbol) == "":
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	case !f.Direction.Valid():
		return fmt.Errorf("%w: direction %q", ErrInvalidOrder, f.Direction)
	case !f.Offset.Valid():
		return fmt.Errorf("%w: offset %q", ErrInvalidOrder, f.Offset)
	case math.IsNaN(f.Price) || math.IsInf(f.Price, 0) || f.Price < 0:
		return fmt.Errorf("%w: price %v", ErrInvalidOrder, f.Price)
	case f.Volume <= 0:
		return fmt.Errorf("%w: volume must be positive", ErrInvalidOrder)
	}
	return nil
}

// PlaceOrder submits form for the selected account. The order list is not
// touched locally; a successful submission triggers an immediate refresh.
func (s *Syncer) PlaceOrder(ctx context.Context, form OrderForm) error {
	if err := form.Validate(); err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	account, _ := s.store.Selection()
	if account == "" {
		s.notifier.Error("Select an account first")
		return ErrNoAccount
	}

	req := models.OrderRequest{
		Symbol:    strings.TrimSpace(form.Symbol),
		Direction: form.Direction,
		Offset:    form.Offset,
		Price:     form.Price,
		Volume:    form.Volume,
		AccountID: account,
	}
	_, err := s.client.PlaceOrder(ctx, req)

	s.record(ctx, &models.OrderAction{
		Kind:      models.ActionPlace,
		AccountID: account,
		Symbol:    req.Symbol,
		Direction: req.Direction,
		Offset:    req.Offset,
		Price:     req.Price,
		Volume:    req.Volume,
	}, err)

	if err != nil {
		s.notifier.Error("Order failed")
		return err
	}
	s.notifier.Success("Order sent")
	s.Refresh()
	return nil
}

// CancelOrder requests cancellation of order. Filled and cancelled orders are
// refused without contacting the backend.
func (s *Syncer) CancelOrder(ctx context.Context, order models.Order) error {
	if !order.Cancellable() {
		return ErrNotCancellable
	}
	account := order.AccountID
	if account == "" {
		account, _ = s.store.Selection()
	}

	req := models.CancelRequest{
		ClientID:  order.ClientID.String(),
		Symbol:    order.Symbol,
		AccountID: account,
	}
	_, err := s.client.CancelOrder(ctx, req)

	s.record(ctx, &models.OrderAction{
		Kind:      models.ActionCancel,
		AccountID: account,
		ClientID:  req.ClientID,
		Symbol:    req.Symbol,
	}, err)

	if err != nil {
		s.notifier.Error("Cancel failed")
		return err
	}
	s.notifier.Success("Cancel request sent")
	s.Refresh()
	return nil
}

func (s *Syncer) record(ctx context.Context, action *models.OrderAction, err error) {
	if s.journal == nil {
		return
	}
	action.Success = err == nil
	if err != nil {
		action.Message = err.Error()
	}
	action.Timestamp = s.now().UnixMilli()
	if jerr := s.journal.Record(ctx, action); jerr != nil {
		s.logger.Error("Failed to journal order action", zap.String("kind", action.Kind), zap.Error(jerr))
	}
}
