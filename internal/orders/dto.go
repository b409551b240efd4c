package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Viewer identifies who is reading orders.
type Viewer struct {
	UserID  int64
	IsStaff bool
}

// ProductSummary is the compact product shown on an order line.
type ProductSummary struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderItemDTO is one order line. UnitPrice is the price captured at checkout.
type OrderItemDTO struct {
	ID         int64           `json:"id"`
	Product    ProductSummary  `json:"product"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// OrderDTO is the order payload.
type OrderDTO struct {
	ID                 int64               `json:"id"`
	CustomerID         int64               `json:"customer"`
	PlacedAt           time.Time           `json:"placed_at"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentStatusLabel string              `json:"payment_status_label"`
	Items              []OrderItemDTO      `json:"items"`
	TotalPrice         decimal.Decimal     `json:"total_price"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps a persisted order with its items.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                 order.ID,
		CustomerID:         order.CustomerID,
		PlacedAt:           order.PlacedAt,
		PaymentStatus:      order.PaymentStatus,
		PaymentStatusLabel: order.PaymentStatus.Label(),
		Items:              make([]OrderItemDTO, 0, len(order.Items)),
		TotalPrice:         decimal.Zero,
	}
	for _, item := range order.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		summary := ProductSummary{ID: item.ProductID}
		if item.Product != nil {
			summary.Title = item.Product.Title
			summary.UnitPrice = item.Product.UnitPrice
		}
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:         item.ID,
			Product:    summary,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			TotalPrice: line,
		})
		dto.TotalPrice = dto.TotalPrice.Add(line)
	}
	return dto
}
