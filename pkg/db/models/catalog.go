package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection groups products for browsing.
type Collection struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title             string    `gorm:"column:title;not null"`
	FeaturedProductID *int64    `gorm:"column:featured_product_id"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Collection) TableName() string { return "collections" }

// Promotion is a discount that can be attached to many products.
type Promotion struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Description string    `gorm:"column:description;not null"`
	Discount    float64   `gorm:"column:discount;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Promotion) TableName() string { return "promotions" }

// Product is a sellable catalog entry.
type Product struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Title        string          `gorm:"column:title;not null"`
	Slug         string          `gorm:"column:slug;not null"`
	Description  *string         `gorm:"column:description"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(6,2);not null"`
	Inventory    int             `gorm:"column:inventory;not null"`
	LastUpdate   time.Time       `gorm:"column:last_update;autoUpdateTime"`
	CollectionID int64           `gorm:"column:collection_id;not null"`
	Collection   *Collection     `gorm:"foreignKey:CollectionID"`
	Promotions   []Promotion     `gorm:"many2many:product_promotions;joinForeignKey:ProductID;joinReferences:PromotionID"`
}

func (Product) TableName() string { return "products" }

// Review is a free-form product review left by a visitor.
type Review struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID   int64     `gorm:"column:product_id;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null"`
	Date        time.Time `gorm:"column:date;autoCreateTime"`
}

func (Review) TableName() string { return "reviews" }
