package domain

import (
	"time"
)

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusInvoiced    OrderStatus = "invoiced"
	OrderStatusProcessing  OrderStatus = "processing"
	OrderStatusApproved    OrderStatus = "approved"
	OrderStatusCanceled    OrderStatus = "canceled"
	OrderStatusUnavailable OrderStatus = "unavailable"
	OrderStatusCreated     OrderStatus = "created"
)

// Order represents a customer order header
type Order struct {
	ID                 string      `json:"order_id" csv:"order_id" validate:"required"`
	CustomerID         string      `json:"customer_id" csv:"customer_id" validate:"required"`
	Status             OrderStatus `json:"order_status" csv:"order_status" validate:"required"`
	PurchaseTimestamp  time.Time   `json:"order_purchase_timestamp" csv:"order_purchase_timestamp"`
	DeliveredTimestamp *time.Time  `json:"order_delivered_customer_date,omitempty" csv:"order_delivered_customer_date"`
}

// IsDelivered reports whether the order reached the customer
func (o Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// OrderItem represents a single line item within an order.
// One order may carry multiple items; revenue per item is price plus freight.
type OrderItem struct {
	OrderID      string  `json:"order_id" csv:"order_id" validate:"required"`
	ProductID    string  `json:"product_id" csv:"product_id" validate:"required"`
	Price        float64 `json:"price" csv:"price" validate:"min=0"`
	FreightValue float64 `json:"freight_value" csv:"freight_value" validate:"min=0"`
}

// Revenue returns the item's revenue contribution (price + freight)
func (oi OrderItem) Revenue() float64 {
	return oi.Price + oi.FreightValue
}

// Product represents a catalog product
type Product struct {
	ID       string `json:"product_id" csv:"product_id" validate:"required"`
	Category string `json:"product_category_name,omitempty" csv:"product_category_name"`
}

// UncategorizedLabel is substituted for a missing product category.
// Rows with no category are never dropped.
const UncategorizedLabel = "uncategorized"

// CategoryOrDefault returns the product category, or UncategorizedLabel when absent
func (p Product) CategoryOrDefault() string {
	if p.Category == "" {
		return UncategorizedLabel
	}
	return p.Category
}

// Customer represents a customer with geographic attributes
type Customer struct {
	ID    string `json:"customer_id" csv:"customer_id" validate:"required"`
	State string `json:"customer_state" csv:"customer_state" validate:"required"`
	City  string `json:"customer_city" csv:"customer_city"`
}

// Review score bounds for the fixed 1-5 scale
const (
	MinReviewScore = 1
	MaxReviewScore = 5
)

// Review represents customer feedback on an order.
// At most one review per order in the common case; absence is a valid state.
type Review struct {
	OrderID string `json:"order_id" csv:"order_id" validate:"required"`
	Score   int    `json:"review_score" csv:"review_score" validate:"min=1,max=5"`
}

// RawSets bundles the five raw record sets for one analysis run.
// Loaded once per run and treated as immutable for the run's duration.
type RawSets struct {
	Orders     []Order
	OrderItems []OrderItem
	Products   []Product
	Customers  []Customer
	Reviews    []Review
}

// AnalysisRow is one denormalized record: a single order item enriched with
// order, product, customer and review attributes. It is the sole input shape
// consumed by the metrics engine.
type AnalysisRow struct {
	OrderID            string      `json:"order_id"`
	CustomerID         string      `json:"customer_id"`
	Status             OrderStatus `json:"order_status"`
	PurchaseTimestamp  time.Time   `json:"order_purchase_timestamp"`
	DeliveredTimestamp *time.Time  `json:"order_delivered_customer_date,omitempty"`
	ProductID          string      `json:"product_id"`
	Category           string      `json:"product_category_name"`
	CustomerState      string      `json:"customer_state"`
	CustomerCity       string      `json:"customer_city"`
	Price              float64     `json:"price"`
	FreightValue       float64     `json:"freight_value"`
	ReviewScore        *int        `json:"review_score,omitempty"`
}

// Revenue returns the row's revenue contribution (price + freight)
func (r AnalysisRow) Revenue() float64 {
	return r.Price + r.FreightValue
}

// IsDelivered reports whether the underlying order was delivered
func (r AnalysisRow) IsDelivered() bool {
	return r.Status == OrderStatusDelivered
}

// DeliveryDays returns the whole days between purchase and delivery,
// or nil when the order has not been delivered yet.
func (r AnalysisRow) DeliveryDays() *float64 {
	if r.DeliveredTimestamp == nil {
		return nil
	}
	days := r.DeliveredTimestamp.Sub(r.PurchaseTimestamp).Hours() / 24
	return &days
}
