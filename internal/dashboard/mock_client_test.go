package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/hftapi"
	"hft-ui-go/internal/models"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockClient is a mock implementation of the hftapi.ClientInterface.
type MockClient struct {
	mock.Mock

	mu    sync.Mutex
	calls map[string]int
	seen  map[string]bool
}

func (m *MockClient) called(method string, args ...interface{}) mock.Arguments {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
		m.seen = make(map[string]bool)
	}
	m.calls[method]++
	m.seen[callKey(method, args[1:]...)] = true
	m.mu.Unlock()
	return m.MethodCalled(method, args...)
}

func callKey(method string, args ...interface{}) string {
	return fmt.Sprint(append([]interface{}{method}, args...)...)
}

// saw reports whether method was invoked with args, ignoring the context.
func (m *MockClient) saw(method string, args ...interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[callKey(method, args...)]
}

// count returns how often method was invoked.
func (m *MockClient) count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

var _ hftapi.ClientInterface = (*MockClient)(nil)

func (m *MockClient) ListAccounts(ctx context.Context) ([]string, error) {
	args := m.called("ListAccounts", ctx)
	accounts, _ := args.Get(0).([]string)
	return accounts, args.Error(1)
}

func (m *MockClient) GetAccountStatus(ctx context.Context, accountID string) ([]models.AccountStatus, error) {
	args := m.called("GetAccountStatus", ctx, accountID)
	statuses, _ := args.Get(0).([]models.AccountStatus)
	return statuses, args.Error(1)
}

func (m *MockClient) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.called("GetAccount", ctx, accountID)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *MockClient) GetPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	args := m.called("GetPositions", ctx, accountID)
	positions, _ := args.Get(0).([]models.Position)
	return positions, args.Error(1)
}

func (m *MockClient) GetTrades(ctx context.Context, limit int, accountID string) ([]models.Trade, error) {
	args := m.called("GetTrades", ctx, limit, accountID)
	trades, _ := args.Get(0).([]models.Trade)
	return trades, args.Error(1)
}

func (m *MockClient) GetOrders(ctx context.Context, limit int, accountID string) ([]models.Order, error) {
	args := m.called("GetOrders", ctx, limit, accountID)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *MockClient) GetEquityHistory(ctx context.Context, limit int, accountID string) ([]models.EquityPoint, error) {
	args := m.called("GetEquityHistory", ctx, limit, accountID)
	points, _ := args.Get(0).([]models.EquityPoint)
	return points, args.Error(1)
}

func (m *MockClient) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.ActionResult, error) {
	args := m.called("PlaceOrder", ctx, req)
	result, _ := args.Get(0).(*models.ActionResult)
	return result, args.Error(1)
}

func (m *MockClient) CancelOrder(ctx context.Context, req models.CancelRequest) (*models.ActionResult, error) {
	args := m.called("CancelOrder", ctx, req)
	result, _ := args.Get(0).(*models.ActionResult)
	return result, args.Error(1)
}

// fakeTicker only ticks when the test sends on ch.
type fakeTicker struct {
	ch    chan time.Time
	d     time.Duration
	stops atomic.Int32
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stops.Add(1) }

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *tickerFactory) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time), d: d}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *tickerFactory) get(i int) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[i]
}

// fakeJournal collects recorded actions.
type fakeJournal struct {
	mu      sync.Mutex
	actions []models.OrderAction
}

func (j *fakeJournal) Record(_ context.Context, action *models.OrderAction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.actions = append(j.actions, *action)
	return nil
}

func (j *fakeJournal) all() []models.OrderAction {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]models.OrderAction(nil), j.actions...)
}

func testDashboardConfig() *config.Dashboard {
	return &config.Dashboard{
		PollInterval:    3 * time.Second,
		EquityInterval:  10 * time.Second,
		NotificationTTL: 3 * time.Second,
		OverviewLimit:   10,
		HistoryLimit:    100,
		EquityLimit:     100,
	}
}

// setupSyncer wires a Syncer with a mock client, fake tickers and a
// notifier whose timers never fire on their own.
func setupSyncer() (*Syncer, *MockClient, *tickerFactory, *fakeJournal) {
	cfg := testDashboardConfig()
	store := NewStore()
	notifier := NewNotifier(cfg.NotificationTTL, store)
	notifier.afterFunc = func(time.Duration, func()) {}

	client := new(MockClient)
	journal := &fakeJournal{}
	factory := &tickerFactory{}

	s := NewSyncer(zap.NewNop(), cfg, client, store, notifier, journal)
	s.newTicker = factory.New
	return s, client, factory, journal
}

// stubReads makes every read succeed with the given data for any account.
func stubReads(client *MockClient, trades []models.Trade, orders []models.Order) {
	client.On("GetTrades", mock.Anything, mock.Anything, mock.Anything).Return(trades, nil)
	client.On("GetOrders", mock.Anything, mock.Anything, mock.Anything).Return(orders, nil)
	client.On("GetPositions", mock.Anything, mock.Anything).Return([]models.Position{{Symbol: "ag2606", LongTotal: 1}}, nil)
	client.On("GetAccount", mock.Anything, mock.Anything).Return(&models.Account{Balance: 1000}, nil)
	client.On("GetAccountStatus", mock.Anything, mock.Anything).Return([]models.AccountStatus{{Source: "CTP", Code: "0"}}, nil)
}
