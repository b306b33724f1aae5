package dashboard

import (
	"fmt"
	"strings"
)

// Tab is a page of the dashboard.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabTrades    Tab = "trades"
	TabOrders    Tab = "orders"
	TabEquity    Tab = "equity"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabDashboard, TabTrades, TabOrders, TabEquity}

// ParseTab converts a tab name, case-insensitively.
func ParseTab(name string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Tabs {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, name)
}

// History reports whether the tab lists the long trade/order history.
func (t Tab) History() bool {
	return t == TabTrades || t == TabOrders
}
