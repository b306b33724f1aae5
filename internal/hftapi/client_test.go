package hftapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL + "/api"),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return c, server
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func TestListAccounts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/account/list", r.URL.Path)
		writeJSON(w, `["acc-1","acc-2"]`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1", "acc-2"}, accounts)
}

func TestGetTrades_QueryParameters(t *testing.T) {
	t.Run("WithAccount", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/trades/", r.URL.Path)
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Equal(t, "acc-1", r.URL.Query().Get("account_id"))
			writeJSON(w, `[{"symbol":"ag2606","direction":"B","offset":"O","price":5000,"volume":1,"trade_time":1767323045000}]`)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		trades, err := c.GetTrades(context.Background(), 10, "acc-1")
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "ag2606", trades[0].Symbol)
		assert.Equal(t, models.DirectionBuy, trades[0].Direction)
		assert.Equal(t, models.FlexInt(1), trades[0].Volume)
	})

	t.Run("WithoutAccount", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/orders/", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			_, present := r.URL.Query()["account_id"]
			assert.False(t, present, "empty account id must not be sent")
			writeJSON(w, `[]`)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		orders, err := c.GetOrders(context.Background(), 100, "")
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestGetTrades_FloatVolume(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"ag2606","volume":1.0,"price":5000.0},{"symbol":"rb2610","volume":"2","price":3500}]`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	trades, err := c.GetTrades(context.Background(), 10, "acc-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, models.FlexInt(1), trades[0].Volume)
	assert.Equal(t, models.FlexInt(2), trades[1].Volume)
}

func TestRateLimiterWaitIsTransportError(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, `[]`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, c.limiter.Allow(), "drain the only token")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetOrders(ctx, 10, "acc-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, IsShapeError(err))
	assert.Equal(t, 0, calls, "nothing is sent while throttled")
}

func TestGetAccountAndPositions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/account/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acc-1", r.URL.Query().Get("account_id"))
		writeJSON(w, `{"account_id":"acc-1","balance":1000000.5,"available":800000,"margin":200000.5,"pnl":-1200}`)
	})
	mux.HandleFunc("/api/positions/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"ag2606","long_total":2,"long_td":1,"long_yd":1,"long_price":5000.5,"short_total":0}]`)
	})
	mux.HandleFunc("/api/account/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"source":"CTP","code":0,"msg":"ok"}]`)
	})
	mux.HandleFunc("/api/equity/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		writeJSON(w, `[{"timestamp":"2026-01-02 03:04:05.000001","balance":1000}]`)
	})
	c, server := setupTestServer(mux)
	defer server.Close()
	ctx := context.Background()

	account, err := c.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 1000000.5, account.Balance)
	assert.Equal(t, -1200.0, account.PnL)

	positions, err := c.GetPositions(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Len(t, positions[0].Legs(), 1)

	statuses, err := c.GetAccountStatus(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Online())

	points, err := c.GetEquityHistory(ctx, 100, "acc-1")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1000.0, points[0].Balance)
}

func TestTransportError(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"boom"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	_, err := c.GetPositions(context.Background(), "acc-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "failed to fetch positions")
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, 1, calls, "failed requests are not retried")
}

func TestNetworkError(t *testing.T) {
	c, server := setupTestServer(http.NotFoundHandler())
	server.Close()

	_, err := c.ListAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, IsShapeError(err))
}

func TestShapeError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"detail":"not a list"}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	trades, err := c.GetTrades(context.Background(), 10, "acc-1")
	require.Error(t, err)
	assert.Nil(t, trades)
	assert.True(t, IsShapeError(err))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestNullListIsEmpty(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `null`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	orders, err := c.GetOrders(context.Background(), 10, "acc-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"symbol":"ag2606","direction":"B","offset":"O","price":5000,"volume":1,"account_id":"acc-1"}`, string(raw))

		writeJSON(w, `{"status":"success","message":"Order sent to engine"}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	result, err := c.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol: "ag2606", Direction: models.DirectionBuy, Offset: models.OffsetOpen,
		Price: 5000, Volume: 1, AccountID: "acc-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
}

func TestPlaceOrder_EngineDown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Engine not connected"})
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	_, err := c.PlaceOrder(context.Background(), models.OrderRequest{Symbol: "ag2606"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to place order")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestCancelOrder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/orders/202601020304050607", r.URL.Path)
		assert.Equal(t, "ag2606", r.URL.Query().Get("symbol"))
		assert.Equal(t, "acc-1", r.URL.Query().Get("account_id"))
		writeJSON(w, `{"status":"success","message":"Cancel request sent to engine"}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	result, err := c.CancelOrder(context.Background(), models.CancelRequest{
		ClientID: "202601020304050607", Symbol: "ag2606", AccountID: "acc-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
}

func TestNewClient(t *testing.T) {
	t.Run("Throttled", func(t *testing.T) {
		c := NewClient(&config.API{BaseURL: "http://localhost:8866/api", RateLimit: 5, RateLimitBurst: 2}, zap.NewNop())
		assert.NotNil(t, c)
		assert.Equal(t, rate.Limit(5), c.limiter.Limit())
		assert.Equal(t, 2, c.limiter.Burst())
		assert.Equal(t, "http://localhost:8866/api", c.client.BaseURL)
	})

	t.Run("Unthrottled", func(t *testing.T) {
		c := NewClient(&config.API{BaseURL: "http://localhost:8866/api/"}, zap.NewNop())
		assert.Equal(t, rate.Inf, c.limiter.Limit())
		assert.Equal(t, 1, c.limiter.Burst())
		assert.Equal(t, "http://localhost:8866/api", c.client.BaseURL, "trailing slash is trimmed")
	})
}
