package display

import (
	"math"
	"testing"
	"time"

	"hft-ui-go/internal/models"

	"github.com/stretchr/testify/assert"
)

var shanghai = time.FixedZone("CST", 8*3600)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "¥0.00"},
		{1234.5, "¥1,234.50"},
		{1234567.891, "¥1,234,567.89"},
		{-12.3, "-¥12.30"},
		{-0.001, "¥0.00"},
		{math.NaN(), "¥0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Currency(tt.in), "Currency(%v)", tt.in)
	}

	assert.Equal(t, "+¥5.00", SignedCurrency(5))
	assert.Equal(t, "-¥5.00", SignedCurrency(-5))
	assert.Equal(t, "¥0.00", SignedCurrency(0))
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "5000", Price(5000))
	assert.Equal(t, "4990.5", Price(4990.50))
	assert.Equal(t, "4990.123", Price(4990.1234))
	assert.Equal(t, "0.3", Price(0.1+0.2))
	assert.Equal(t, "-", Price(math.Inf(1)))

	assert.Equal(t, "1.500", Fixed(1.5, 3))
	assert.Equal(t, "-2.35", Fixed(-2.345, 2))
	assert.Equal(t, "-", Fixed(math.NaN(), 2))
}

func TestDateTime(t *testing.T) {
	assert.Equal(t, "-", DateTime(models.Timestamp{}, shanghai))
	assert.Equal(t, "2026-01-01 08:00:00", DateTime(models.ParseTimestamp("1767225600000"), shanghai))
	assert.Equal(t, "2026-01-01 08:00:00", DateTime(models.ParseTimestamp("1767225600"), shanghai))
	assert.Equal(t, "09:15:00", DateTime(models.ParseTimestamp("09:15:00"), shanghai), "unparseable values are shown as received")
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Buy", DirectionLabel(models.DirectionBuy))
	assert.Equal(t, "Sell", DirectionLabel(models.DirectionSell))
	assert.Equal(t, "X", DirectionLabel("X"))

	assert.Equal(t, "Open", OffsetLabel(models.OffsetOpen))
	assert.Equal(t, "Close Today", OffsetLabel(models.OffsetCloseToday))
	assert.Equal(t, "Close", OffsetLabel(models.OffsetClose))
	assert.Equal(t, "Close", OffsetLabel("?"))
	assert.Equal(t, "Sell Close Today", ActionLabel(models.DirectionSell, models.OffsetCloseToday))

	statuses := []struct {
		code  models.OrderStatus
		label string
		short string
	}{
		{"0", "Filled", "Done"},
		{"3", "Accepted", "Sent"},
		{"5", "Cancelled", "Canceled"},
		{"1", "Pending", "Pending"},
		{"", "Pending", "Pending"},
	}
	for _, tt := range statuses {
		assert.Equal(t, tt.label, OrderStatusLabel(tt.code), "status %q", tt.code)
		assert.Equal(t, tt.short, OrderStatusShort(tt.code), "status %q", tt.code)
	}

	assert.Equal(t, "Online", ConnectivityLabel("0"))
	assert.Equal(t, "Online", ConnectivityLabel("3"))
	assert.Equal(t, "Offline", ConnectivityLabel("2"))

	assert.Equal(t, "-", Dash(" "))
	assert.Equal(t, "ok", Dash("ok"))
}
