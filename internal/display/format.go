// Package display turns backend records into the text shown to the user.
// Nothing here is stored; every function is applied when a view is built.
package display

import (
	"math"
	"strings"
	"time"

	"hft-ui-go/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DateTimeLayout is the layout of every timestamp shown on the dashboard.
const DateTimeLayout = "2006-01-02 15:04:05"

// Currency formats v as yuan with two decimals and grouped thousands,
// e.g. ¥1,234.50 or -¥12.30.
func Currency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "¥0.00"
	}
	s := "¥" + humanize.FormatFloat("#,###.##", math.Abs(v))
	if v < 0 && s != "¥0.00" {
		return "-" + s
	}
	return s
}

// SignedCurrency is Currency with an explicit plus sign for gains.
func SignedCurrency(v float64) string {
	if v > 0 && Currency(v) != "¥0.00" {
		return "+" + Currency(v)
	}
	return Currency(v)
}

// Price shows a price with at most three decimals and no trailing zeros.
func Price(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).Round(3).String()
}

// Fixed shows v with exactly places decimals.
func Fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// DateTime renders ts in loc. An empty timestamp renders as "-", one that
// cannot be parsed is shown as received.
func DateTime(ts models.Timestamp, loc *time.Location) string {
	if ts.IsZero() {
		return "-"
	}
	t, ok := ts.Time()
	if !ok {
		return ts.String()
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateTimeLayout)
}

var directionLabels = map[models.Direction]string{
	models.DirectionBuy:  "Buy",
	models.DirectionSell: "Sell",
}

var offsetLabels = map[models.Offset]string{
	models.OffsetOpen:       "Open",
	models.OffsetClose:      "Close",
	models.OffsetCloseToday: "Close Today",
}

var orderStatusLabels = map[models.OrderStatus][2]string{
	models.OrderStatusFilled:    {"Filled", "Done"},
	models.OrderStatusAccepted:  {"Accepted", "Sent"},
	models.OrderStatusCancelled: {"Cancelled", "Canceled"},
}

// DirectionLabel names a direction code. Unknown codes are shown as is.
func DirectionLabel(d models.Direction) string {
	if l, ok := directionLabels[d]; ok {
		return l
	}
	return string(d)
}

// OffsetLabel names an offset code. Anything that is not open or
// close-today is a close.
func OffsetLabel(o models.Offset) string {
	if l, ok := offsetLabels[o]; ok {
		return l
	}
	return offsetLabels[models.OffsetClose]
}

// ActionLabel combines direction and offset, e.g. "Buy Open".
func ActionLabel(d models.Direction, o models.Offset) string {
	return DirectionLabel(d) + " " + OffsetLabel(o)
}

// OrderStatusLabel names an order status. Unknown codes are pending.
func OrderStatusLabel(s models.OrderStatus) string {
	if l, ok := orderStatusLabels[s]; ok {
		return l[0]
	}
	return "Pending"
}

// OrderStatusShort is the compact status used in narrow tables.
func OrderStatusShort(s models.OrderStatus) string {
	if l, ok := orderStatusLabels[s]; ok {
		return l[1]
	}
	return "Pending"
}

// ConnectivityLabel names an account-status code.
func ConnectivityLabel(code models.FlexString) string {
	if code == models.StatusCodeConnected || code == models.StatusCodeReady {
		return "Online"
	}
	return "Offline"
}

// Dash replaces an empty value with "-".
func Dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
