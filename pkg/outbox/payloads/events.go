package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a cart is converted into an order.
type OrderCreatedEvent struct {
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	CartID     uuid.UUID       `json:"cart_id"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	PlacedAt   time.Time       `json:"placed_at"`
}

// OrderPaymentStatusChangedEvent records a settled payment.
type OrderPaymentStatusChangedEvent struct {
	OrderID    int64               `json:"order_id"`
	CustomerID int64               `json:"customer_id"`
	From       enums.PaymentStatus `json:"from"`
	To         enums.PaymentStatus `json:"to"`
}

// CartExpiredEvent is emitted when an abandoned cart is purged.
type CartExpiredEvent struct {
	CartID    uuid.UUID `json:"cart_id"`
	CreatedAt time.Time `json:"created_at"`
	ItemCount int64     `json:"item_count"`
}

// ProductPriceChangedEvent is emitted when a product's unit price is updated.
type ProductPriceChangedEvent struct {
	ProductID int64           `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}
