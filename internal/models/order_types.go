package models

import "time"

// OrderStatus is the fixed fulfilment progression of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderProcessing     OrderStatus = "processing"
	OrderShipped        OrderStatus = "shipped"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// next maps each status to its forward successor. Cancellation is handled
// separately since it is reachable from every non-terminal state.
var next = map[OrderStatus]OrderStatus{
	OrderPending:        OrderProcessing,
	OrderProcessing:     OrderShipped,
	OrderShipped:        OrderOutForDelivery,
	OrderOutForDelivery: OrderDelivered,
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether the progression allows moving from s to
// target: one step forward at a time, or cancellation at any point before
// delivery.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !target.Valid() || s.Terminal() {
		return false
	}
	if target == OrderCancelled {
		return true
	}
	return next[s] == target
}

// Order is the model for the 'orders' table: an immutable snapshot created
// at checkout. Only Status is ever mutated afterwards. Money fields are
// integer minor currency units; the ship_* columns freeze the shipping
// address at order time.
type Order struct {
	ID     int64       `json:"id" db:"id"`
	UserID int64       `json:"userId" db:"user_id"`
	Status OrderStatus `json:"status" db:"status"`

	Subtotal     int64 `json:"subtotal" db:"subtotal"`
	ShippingCost int64 `json:"shippingCost" db:"shipping_cost"`
	TaxAmount    int64 `json:"taxAmount" db:"tax_amount"`
	TotalAmount  int64 `json:"totalAmount" db:"total_amount"`

	ShipRecipient string  `json:"shipRecipient" db:"ship_recipient"`
	ShipPhone     string  `json:"shipPhone" db:"ship_phone"`
	ShipLine1     string  `json:"shipLine1" db:"ship_line1"`
	ShipLine2     *string `json:"shipLine2,omitempty" db:"ship_line2"`
	ShipCity      string  `json:"shipCity" db:"ship_city"`
	ShipState     string  `json:"shipState" db:"ship_state"`
	ShipPostcode  string  `json:"shipPostcode" db:"ship_postcode"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is the model for the 'order_items' table. UnitPrice and
// SalePrice are copied at creation time and never recomputed from the
// catalog.
type OrderItem struct {
	ID        int64   `json:"id" db:"id"`
	OrderID   int64   `json:"orderId" db:"order_id"`
	ProductID *int64  `json:"productId,omitempty" db:"product_id"`
	VariantID *int64  `json:"variantId,omitempty" db:"variant_id"`
	Name      string  `json:"name" db:"name"`
	SKU       *string `json:"sku,omitempty" db:"sku"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice int64   `json:"unitPrice" db:"unit_price"`
	SalePrice *int64  `json:"salePrice,omitempty" db:"sale_price"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
