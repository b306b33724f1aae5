package models

// Direction is the side of an order or trade.
type Direction string

const (
	DirectionBuy  Direction = "B"
	DirectionSell Direction = "S"
)

// Valid reports whether d is one of the known sides.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Offset is the position effect of an order.
type Offset string

const (
	OffsetOpen       Offset = "O"
	OffsetClose      Offset = "C"
	OffsetCloseToday Offset = "T"
)

// Valid reports whether o is one of the known offsets.
func (o Offset) Valid() bool {
	return o == OffsetOpen || o == OffsetClose || o == OffsetCloseToday
}

// OrderStatus is the backend order state code. Unknown codes mean pending.
type OrderStatus string

const (
	OrderStatusFilled    OrderStatus = "0"
	OrderStatusAccepted  OrderStatus = "3"
	OrderStatusCancelled OrderStatus = "5"
)

// UnmarshalJSON accepts the code as a string or a number.
func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var f FlexString
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	*s = OrderStatus(f)
	return nil
}

// Terminal reports whether the order can no longer change (filled or cancelled).
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// Connectivity codes reported by /account/status that mean the gateway is up.
const (
	StatusCodeConnected = "0"
	StatusCodeReady     = "3"
)
