package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/dashboard"
	"hft-ui-go/internal/display"
	"hft-ui-go/internal/hftapi"
	"hft-ui-go/internal/models"
)

var errUsage = errors.New("usage: hftctl <accounts|status|account|positions|orders|trades|equity|place|cancel> [flags]")

// App runs one command against the backend.
type App struct {
	client hftapi.ClientInterface
	cfg    *config.Config
	out    io.Writer
	loc    *time.Location
}

type command func(ctx context.Context, fs *flag.FlagSet, args []string) error

func (a *App) commands() map[string]command {
	return map[string]command{
		"accounts":  a.accounts,
		"status":    a.status,
		"account":   a.account,
		"positions": a.positions,
		"orders":    a.orders,
		"trades":    a.trades,
		"equity":    a.equity,
		"place":     a.place,
		"cancel":    a.cancel,
	}
}

// Run dispatches args[0] to its command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := a.commands()[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return cmd(ctx, fs, args[1:])
}

func (a *App) location() *time.Location {
	if a.loc != nil {
		return a.loc
	}
	return time.Local
}

func (a *App) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

func row(w io.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

func (a *App) accounts(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	accounts, err := a.client.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, id := range accounts {
		fmt.Fprintln(a.out, id)
	}
	return nil
}

func (a *App) status(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	statuses, err := a.client.GetAccountStatus(ctx, *account)
	if err != nil {
		return err
	}
	w := a.table("SOURCE", "STATE", "CODE", "MESSAGE")
	for _, s := range display.StatusRows(statuses) {
		row(w, s.Source, s.Label, s.Code, display.Dash(s.Msg))
	}
	return w.Flush()
}

func (a *App) account(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snap, err := a.client.GetAccount(ctx, *account)
	if err != nil {
		return err
	}
	w := a.table("BALANCE", "AVAILABLE", "MARGIN", "PNL")
	row(w, display.Currency(snap.Balance), display.Currency(snap.Available),
		display.Currency(snap.Margin), display.SignedCurrency(snap.PnL))
	return w.Flush()
}

func (a *App) positions(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positions, err := a.client.GetPositions(ctx, *account)
	if err != nil {
		return err
	}
	w := a.table("SYMBOL", "SIDE", "TOTAL", "TODAY", "YESTERDAY", "AVG PRICE", "PNL")
	for _, p := range display.PositionRows(positions) {
		row(w, p.Symbol, p.Side, p.Total, p.Today, p.Yesterday, p.AvgPrice, p.PnL)
	}
	return w.Flush()
}

func (a *App) orders(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	limit := fs.Int("limit", a.cfg.Dashboard.HistoryLimit, "number of orders")
	if err := fs.Parse(args); err != nil {
		return err
	}
	orders, err := a.client.GetOrders(ctx, *limit, *account)
	if err != nil {
		return err
	}
	w := a.table("TIME", "CLIENT ID", "SYMBOL", "ACTION", "PRICE", "TRADED", "STATUS")
	for _, o := range display.OrderRows(orders, a.location()) {
		row(w, o.Time, o.ClientID, o.Symbol, o.Action, o.Price,
			fmt.Sprintf("%d/%d", o.VolumeTraded, o.VolumeTotal), o.StatusLabel)
	}
	return w.Flush()
}

func (a *App) trades(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	limit := fs.Int("limit", a.cfg.Dashboard.HistoryLimit, "number of trades")
	if err := fs.Parse(args); err != nil {
		return err
	}
	trades, err := a.client.GetTrades(ctx, *limit, *account)
	if err != nil {
		return err
	}
	w := a.table("TIME", "TRADE ID", "SYMBOL", "ACTION", "PRICE", "VOLUME")
	for _, t := range display.TradeRows(trades, a.location()) {
		row(w, t.Time, t.TradeID, t.Symbol, t.Action, t.Price, t.Volume)
	}
	return w.Flush()
}

func (a *App) equity(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	limit := fs.Int("limit", a.cfg.Dashboard.EquityLimit, "number of points")
	if err := fs.Parse(args); err != nil {
		return err
	}
	points, err := a.client.GetEquityHistory(ctx, *limit, *account)
	if err != nil {
		return err
	}
	w := a.table("TIME", "BALANCE")
	for _, p := range display.EquityRows(points, a.location()) {
		row(w, p.Time, p.Label)
	}
	return w.Flush()
}

func (a *App) place(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id (required)")
	symbol := fs.String("symbol", "", "instrument symbol")
	direction := fs.String("direction", "B", "B (buy) or S (sell)")
	offset := fs.String("offset", "O", "O (open), C (close) or T (close today)")
	price := fs.Float64("price", 0, "limit price")
	volume := fs.Int64("volume", 1, "volume")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return dashboard.ErrNoAccount
	}

	form := dashboard.OrderForm{
		Symbol:    *symbol,
		Direction: models.Direction(strings.ToUpper(*direction)),
		Offset:    models.Offset(strings.ToUpper(*offset)),
		Price:     *price,
		Volume:    *volume,
	}
	if err := form.Validate(); err != nil {
		return err
	}
	result, err := a.client.PlaceOrder(ctx, models.OrderRequest{
		Symbol:    strings.TrimSpace(form.Symbol),
		Direction: form.Direction,
		Offset:    form.Offset,
		Price:     form.Price,
		Volume:    form.Volume,
		AccountID: *account,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order sent: %s %s %d @ %s (%s)\n",
		display.ActionLabel(form.Direction, form.Offset), form.Symbol, form.Volume,
		display.Price(form.Price), display.Dash(result.Status))
	return nil
}

func (a *App) cancel(ctx context.Context, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "account id")
	symbol := fs.String("symbol", "", "instrument symbol")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *symbol == "" {
		return errors.New("usage: hftctl cancel -symbol <symbol> [-account <id>] <client_id>")
	}
	clientID := fs.Arg(0)

	// Refuse orders the backend already reports as filled or cancelled.
	orders, err := a.client.GetOrders(ctx, a.cfg.Dashboard.HistoryLimit, *account)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.ClientID.String() == clientID && !o.Cancellable() {
			return fmt.Errorf("%w: %s is %s", dashboard.ErrNotCancellable, clientID, display.OrderStatusLabel(o.Status))
		}
	}

	result, err := a.client.CancelOrder(ctx, models.CancelRequest{ClientID: clientID, Symbol: *symbol, AccountID: *account})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Cancel request sent: %s (%s)\n", clientID, display.Dash(result.Status))
	return nil
}
