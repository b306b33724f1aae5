package hftapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientInterface defines the backend operations the dashboard consumes.
type ClientInterface interface {
	ListAccounts(ctx context.Context) ([]string, error)
	GetAccountStatus(ctx context.Context, accountID string) ([]models.AccountStatus, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	GetPositions(ctx context.Context, accountID string) ([]models.Position, error)
	GetTrades(ctx context.Context, limit int, accountID string) ([]models.Trade, error)
	GetOrders(ctx context.Context, limit int, accountID string) ([]models.Order, error)
	GetEquityHistory(ctx context.Context, limit int, accountID string) ([]models.EquityPoint, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.ActionResult, error)
	CancelOrder(ctx context.Context, req models.CancelRequest) (*models.ActionResult, error)
}

// Client is a client for the dashboard backend REST API.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new backend API client.
func NewClient(cfg *config.API, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Named("resty").Sugar())
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	// A non-positive rate disables client-side throttling.
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	logger.Info("Using backend API", zap.String("base_url", cfg.BaseURL))

	return &Client{
		client:  client,
		logger:  logger.Named("hftapi"),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// doRequest executes exactly one request. There is no retry: the polling
// loop re-issues reads on its own cadence.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter wait failed: %w", ErrTransport, err)
	}

	c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+path))
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode(), Body: truncate(resp.String(), 256)}
	}
	return resp.Body(), nil
}

// decode unmarshals body into out, turning type mismatches into a ShapeError.
func decode(path string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &ShapeError{Path: path, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.client.R()
	for k, v := range params {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}
	body, err := c.doRequest(ctx, http.MethodGet, path, req)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func accountParam(accountID string) map[string]string {
	return map[string]string{"account_id": accountID}
}

func limitParams(limit int, accountID string) map[string]string {
	return map[string]string{"limit": strconv.Itoa(limit), "account_id": accountID}
}

// ListAccounts fetches the identifiers of all accounts known to the backend.
func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.get(ctx, "/account/list", nil, &accounts); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts list: %w", err)
	}
	return accounts, nil
}

// GetAccountStatus fetches gateway connectivity for an account (all accounts when empty).
func (c *Client) GetAccountStatus(ctx context.Context, accountID string) ([]models.AccountStatus, error) {
	var statuses []models.AccountStatus
	if err := c.get(ctx, "/account/status", accountParam(accountID), &statuses); err != nil {
		return nil, fmt.Errorf("failed to fetch account status: %w", err)
	}
	return statuses, nil
}

// GetAccount fetches the funds snapshot of an account.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	if err := c.get(ctx, "/account/", accountParam(accountID), &account); err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return &account, nil
}

// GetPositions fetches the open positions of an account.
func (c *Client) GetPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	var positions []models.Position
	if err := c.get(ctx, "/positions/", accountParam(accountID), &positions); err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	return positions, nil
}

// GetTrades fetches at most limit recent trades, most recent first.
func (c *Client) GetTrades(ctx context.Context, limit int, accountID string) ([]models.Trade, error) {
	var trades []models.Trade
	if err := c.get(ctx, "/trades/", limitParams(limit, accountID), &trades); err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	return trades, nil
}

// GetOrders fetches at most limit recent orders, most recent first.
func (c *Client) GetOrders(ctx context.Context, limit int, accountID string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.get(ctx, "/orders/", limitParams(limit, accountID), &orders); err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

// GetEquityHistory fetches the last limit equity samples in chronological order.
func (c *Client) GetEquityHistory(ctx context.Context, limit int, accountID string) ([]models.EquityPoint, error) {
	var points []models.EquityPoint
	if err := c.get(ctx, "/equity/history", limitParams(limit, accountID), &points); err != nil {
		return nil, fmt.Errorf("failed to fetch equity history: %w", err)
	}
	return points, nil
}

// PlaceOrder submits a new order. The backend only acknowledges forwarding it.
func (c *Client) PlaceOrder(ctx context.Context, order models.OrderRequest) (*models.ActionResult, error) {
	const path = "/orders/"
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(order)

	body, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		c.logger.Error("Failed to place order", zap.Error(err), zap.String("symbol", order.Symbol))
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	var result models.ActionResult
	if err := decode(path, body, &result); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	c.logger.Info("Order sent", zap.Any("order", order), zap.String("status", result.Status))
	return &result, nil
}

// CancelOrder requests cancellation of the order identified by ClientID.
func (c *Client) CancelOrder(ctx context.Context, cancel models.CancelRequest) (*models.ActionResult, error) {
	const path = "/orders/{client_id}"
	req := c.client.R().
		SetPathParam("client_id", cancel.ClientID).
		SetQueryParam("symbol", cancel.Symbol)
	if cancel.AccountID != "" {
		req.SetQueryParam("account_id", cancel.AccountID)
	}

	body, err := c.doRequest(ctx, http.MethodDelete, path, req)
	if err != nil {
		c.logger.Error("Failed to cancel order", zap.Error(err), zap.String("client_id", cancel.ClientID))
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	var result models.ActionResult
	if err := decode(path, body, &result); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	c.logger.Info("Cancel request sent", zap.String("client_id", cancel.ClientID), zap.String("symbol", cancel.Symbol))
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
