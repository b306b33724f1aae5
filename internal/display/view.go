package display

import (
	"sort"
	"time"

	"hft-ui-go/internal/dashboard"
	"hft-ui-go/internal/models"
)

// OverviewRows is how many orders and trades the dashboard tab shows.
const OverviewRows = 10

// View is the fully formatted dashboard, ready for a template or JSON.
type View struct {
	Version         uint64                   `json:"version"`
	Accounts        []string                 `json:"accounts"`
	SelectedAccount string                   `json:"selected_account"`
	Tab             string                   `json:"tab"`
	Tabs            []string                 `json:"tabs"`
	Account         AccountView              `json:"account"`
	Statuses        []StatusRow              `json:"statuses"`
	Positions       []PositionRow            `json:"positions"`
	Orders          []OrderRow               `json:"orders"`
	Trades          []TradeRow               `json:"trades"`
	Equity          []EquityRow              `json:"equity"`
	Notifications   []dashboard.Notification `json:"notifications"`
	Errors          map[string]string        `json:"errors"`
	RefreshedAt     string                   `json:"refreshed_at"`
}

type AccountView struct {
	Balance     string `json:"balance"`
	Available   string `json:"available"`
	Margin      string `json:"margin"`
	PnL         string `json:"pnl"`
	PnLPositive bool   `json:"pnl_positive"`
}

type StatusRow struct {
	Source string `json:"source"`
	Code   string `json:"code"`
	Label  string `json:"label"`
	Online bool   `json:"online"`
	Msg    string `json:"msg"`
}

// PositionRow is one leg of a position.
type PositionRow struct {
	Symbol      string `json:"symbol"`
	Direction   string `json:"direction"`
	Side        string `json:"side"`
	Total       int64  `json:"total"`
	Today       int64  `json:"today"`
	Yesterday   int64  `json:"yesterday"`
	AvgPrice    string `json:"avg_price"`
	PnL         string `json:"pnl"`
	PnLPositive bool   `json:"pnl_positive"`
}

type OrderRow struct {
	ClientID     string `json:"client_id"`
	AccountID    string `json:"account_id"`
	Symbol       string `json:"symbol"`
	Direction    string `json:"direction"`
	Offset       string `json:"offset"`
	Action       string `json:"action"`
	Price        string `json:"price"`
	VolumeTotal  int64  `json:"volume_total"`
	VolumeTraded int64  `json:"volume_traded"`
	Status       string `json:"status"`
	StatusLabel  string `json:"status_label"`
	StatusShort  string `json:"status_short"`
	Time         string `json:"time"`
	Msg          string `json:"msg"`
	Cancellable  bool   `json:"cancellable"`
}

type TradeRow struct {
	TradeID   string `json:"trade_id"`
	ClientID  string `json:"client_id"`
	Symbol    string `json:"symbol"`
	Direction string `json:"direction"`
	Action    string `json:"action"`
	Price     string `json:"price"`
	Volume    int64  `json:"volume"`
	Time      string `json:"time"`
}

// EquityRow is one point of the equity chart. Unix is zero when the
// timestamp could not be parsed.
type EquityRow struct {
	Time    string  `json:"time"`
	Unix    int64   `json:"unix"`
	Balance float64 `json:"balance"`
	Label   string  `json:"label"`
}

// PositionRows splits positions into their long and short legs.
func PositionRows(positions []models.Position) []PositionRow {
	rows := make([]PositionRow, 0, len(positions)*2)
	for _, p := range positions {
		for _, leg := range p.Legs() {
			rows = append(rows, PositionRow{
				Symbol:      leg.Symbol,
				Direction:   string(leg.Direction),
				Side:        DirectionLabel(leg.Direction),
				Total:       leg.Total,
				Today:       leg.Today,
				Yesterday:   leg.Yesterday,
				AvgPrice:    Fixed(leg.AvgPrice, 3),
				PnL:         Fixed(leg.PnL, 2),
				PnLPositive: leg.PnL >= 0,
			})
		}
	}
	return rows
}

// OrderRows formats orders in the order received.
func OrderRows(orders []models.Order, loc *time.Location) []OrderRow {
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, OrderRow{
			ClientID:     o.ClientID.String(),
			AccountID:    o.AccountID,
			Symbol:       o.Symbol,
			Direction:    string(o.Direction),
			Offset:       string(o.Offset),
			Action:       ActionLabel(o.Direction, o.Offset),
			Price:        Price(o.LimitPrice),
			VolumeTotal:  o.VolumeTotal.Int64(),
			VolumeTraded: o.VolumeTraded.Int64(),
			Status:       string(o.Status),
			StatusLabel:  OrderStatusLabel(o.Status),
			StatusShort:  OrderStatusShort(o.Status),
			Time:         DateTime(o.InsertTime, loc),
			Msg:          o.Msg,
			Cancellable:  o.Cancellable(),
		})
	}
	return rows
}

// TradeRows formats trades in the order received.
func TradeRows(trades []models.Trade, loc *time.Location) []TradeRow {
	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, TradeRow{
			TradeID:   t.TradeID.String(),
			ClientID:  t.ClientID.String(),
			Symbol:    t.Symbol,
			Direction: string(t.Direction),
			Action:    ActionLabel(t.Direction, t.Offset),
			Price:     Price(t.Price),
			Volume:    t.Volume.Int64(),
			Time:      DateTime(t.TradeTime, loc),
		})
	}
	return rows
}

func EquityRows(points []models.EquityPoint, loc *time.Location) []EquityRow {
	rows := make([]EquityRow, 0, len(points))
	for _, p := range points {
		row := EquityRow{
			Time:    DateTime(p.Timestamp, loc),
			Balance: p.Balance,
			Label:   Currency(p.Balance),
		}
		if t, ok := p.Timestamp.Time(); ok {
			row.Unix = t.UnixMilli()
		}
		rows = append(rows, row)
	}
	return rows
}

func StatusRows(statuses []models.AccountStatus) []StatusRow {
	rows := make([]StatusRow, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, StatusRow{
			Source: s.Source,
			Code:   s.Code.String(),
			Label:  ConnectivityLabel(s.Code),
			Online: s.Online(),
			Msg:    s.Msg,
		})
	}
	return rows
}

// BuildView formats snap for display in loc. On the dashboard tab only the
// first OverviewRows orders and trades are kept; the backend returns them
// most recent first.
func BuildView(snap dashboard.Snapshot, loc *time.Location) View {
	orders, trades := snap.Orders, snap.Trades
	if snap.Tab == dashboard.TabDashboard {
		if len(orders) > OverviewRows {
			orders = orders[:OverviewRows]
		}
		if len(trades) > OverviewRows {
			trades = trades[:OverviewRows]
		}
	}

	tabs := make([]string, 0, len(dashboard.Tabs))
	for _, t := range dashboard.Tabs {
		tabs = append(tabs, string(t))
	}

	errs := make(map[string]string, len(snap.Errors))
	for slot, msg := range snap.Errors {
		errs[string(slot)] = msg
	}

	accounts := snap.Accounts
	if accounts == nil {
		accounts = []string{}
	}
	notifications := snap.Notifications
	if notifications == nil {
		notifications = []dashboard.Notification{}
	}

	return View{
		Version:         snap.Version,
		Accounts:        accounts,
		SelectedAccount: snap.SelectedAccount,
		Tab:             string(snap.Tab),
		Tabs:            tabs,
		Account: AccountView{
			Balance:     Currency(snap.Account.Balance),
			Available:   Currency(snap.Account.Available),
			Margin:      Currency(snap.Account.Margin),
			PnL:         SignedCurrency(snap.Account.PnL),
			PnLPositive: snap.Account.PnL >= 0,
		},
		Statuses:      StatusRows(snap.Statuses),
		Positions:     PositionRows(snap.Positions),
		Orders:        OrderRows(orders, loc),
		Trades:        TradeRows(trades, loc),
		Equity:        EquityRows(snap.Equity, loc),
		Notifications: notifications,
		Errors:        errs,
		RefreshedAt:   lastRefresh(snap.RefreshedAt, loc),
	}
}

func lastRefresh(times map[dashboard.Slot]time.Time, loc *time.Location) string {
	if len(times) == 0 {
		return "-"
	}
	all := make([]time.Time, 0, len(times))
	for _, t := range times {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].After(all[j]) })
	if loc == nil {
		loc = time.Local
	}
	return all[0].In(loc).Format(DateTimeLayout)
}
