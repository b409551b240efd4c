package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is a placed purchase.
type Order struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID    int64               `gorm:"column:customer_id;not null"`
	Customer      *Customer           `gorm:"foreignKey:CustomerID"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'P'"`
	PlacedAt      time.Time           `gorm:"column:placed_at;autoCreateTime"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem stores the unit price captured when the order was placed.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(6,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}

func (OrderItem) TableName() string { return "order_items" }
