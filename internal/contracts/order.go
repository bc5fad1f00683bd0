package contracts

// Order is the net trade a rebalance implies for one account and symbol
type Order struct {
	Account string    `json:"account" yaml:"account"`
	Symbol  string    `json:"symbol" yaml:"symbol"`
	Side    OrderSide `json:"side" yaml:"side"` // BUY or SELL
	Qty     float64   `json:"qty" yaml:"qty"`
	Price   float64   `json:"price" yaml:"price"`
	Value   float64   `json:"value" yaml:"value"` // Qty × Price
}

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// IsBuy checks if the order is a buy
func (o *Order) IsBuy() bool {
	return o.Side == OrderSideBuy
}
