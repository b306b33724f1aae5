package models

// Account is the funds snapshot of one trading account.
type Account struct {
	AccountID string  `json:"account_id"`
	Balance   float64 `json:"balance"`
	Available float64 `json:"available"`
	Margin    float64 `json:"margin"`
	PnL       float64 `json:"pnl"`
}

// AccountStatus is the connectivity state of one gateway of an account.
type AccountStatus struct {
	AccountID string     `json:"account_id"`
	Source    string     `json:"source"`
	Code      FlexString `json:"code"`
	Msg       string     `json:"msg"`
}

// Online reports whether the gateway is connected.
func (s AccountStatus) Online() bool {
	return s.Code == StatusCodeConnected || s.Code == StatusCodeReady
}

// Position holds both legs of a symbol, split into today/yesterday volume.
type Position struct {
	AccountID  string  `json:"account_id"`
	Symbol     string  `json:"symbol"`
	SymbolID   FlexInt `json:"symbol_id"`
	LongTd     FlexInt `json:"long_td"`
	LongYd     FlexInt `json:"long_yd"`
	LongTotal  FlexInt `json:"long_total"`
	LongPrice  float64 `json:"long_price"`
	LongPnL    float64 `json:"long_pnl"`
	ShortTd    FlexInt `json:"short_td"`
	ShortYd    FlexInt `json:"short_yd"`
	ShortTotal FlexInt `json:"short_total"`
	ShortPrice float64 `json:"short_price"`
	ShortPnL   float64 `json:"short_pnl"`
	PnL        float64 `json:"pnl"`
}

// PositionLeg is one side of a Position.
type PositionLeg struct {
	Symbol    string
	Direction Direction
	Total     int64
	Today     int64
	Yesterday int64
	AvgPrice  float64
	PnL       float64
}

// Legs returns the long leg then the short leg, each only if it holds volume.
func (p Position) Legs() []PositionLeg {
	legs := make([]PositionLeg, 0, 2)
	if p.LongTotal > 0 {
		legs = append(legs, PositionLeg{
			Symbol: p.Symbol, Direction: DirectionBuy,
			Total: p.LongTotal.Int64(), Today: p.LongTd.Int64(), Yesterday: p.LongYd.Int64(),
			AvgPrice: p.LongPrice, PnL: p.LongPnL,
		})
	}
	if p.ShortTotal > 0 {
		legs = append(legs, PositionLeg{
			Symbol: p.Symbol, Direction: DirectionSell,
			Total: p.ShortTotal.Int64(), Today: p.ShortTd.Int64(), Yesterday: p.ShortYd.Int64(),
			AvgPrice: p.ShortPrice, PnL: p.ShortPnL,
		})
	}
	return legs
}

// Order is an order as tracked by the backend, keyed by ClientID.
type Order struct {
	AccountID    string      `json:"account_id"`
	ClientID     FlexString  `json:"client_id"`
	OrderRef     FlexString  `json:"order_ref"`
	Symbol       string      `json:"symbol"`
	Direction    Direction   `json:"direction"`
	Offset       Offset      `json:"offset"`
	Status       OrderStatus `json:"status"`
	LimitPrice   float64     `json:"limit_price"`
	VolumeTotal  FlexInt     `json:"volume_total"`
	VolumeTraded FlexInt     `json:"volume_traded"`
	Msg          string      `json:"msg"`
	InsertTime   Timestamp   `json:"insert_time"`
}

// Cancellable reports whether a cancel request makes sense for the order.
func (o Order) Cancellable() bool {
	return !o.Status.Terminal()
}

// Trade is a single fill.
type Trade struct {
	AccountID string     `json:"account_id"`
	ClientID  FlexString `json:"client_id"`
	TradeID   FlexString `json:"trade_id"`
	OrderRef  FlexString `json:"order_ref"`
	Symbol    string     `json:"symbol"`
	Direction Direction  `json:"direction"`
	Offset    Offset     `json:"offset"`
	Price     float64    `json:"price"`
	Volume    FlexInt    `json:"volume"`
	TradeTime Timestamp  `json:"trade_time"`
}

// EquityPoint is one sample of the account equity curve.
type EquityPoint struct {
	AccountID string    `json:"account_id"`
	Timestamp Timestamp `json:"timestamp"`
	Balance   float64   `json:"balance"`
	Available float64   `json:"available"`
	PnL       float64   `json:"pnl"`
}

// OrderRequest is the body of POST /orders/.
type OrderRequest struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Offset    Offset    `json:"offset"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	AccountID string    `json:"account_id"`
}

// CancelRequest identifies the order to cancel.
type CancelRequest struct {
	ClientID  string
	Symbol    string
	AccountID string
}

// ActionResult is the backend acknowledgement of a place or cancel request.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
