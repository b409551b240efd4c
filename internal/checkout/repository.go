package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartLine is a cart item joined with its product's current unit price.
type CartLine struct {
	ProductID int64           `gorm:"column:product_id"`
	Quantity  int             `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price"`
}

// Repository exposes the cart reads and writes checkout needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockCart(ctx context.Context, cartID uuid.UUID) (bool, error)
	CartLines(ctx context.Context, cartID uuid.UUID) ([]CartLine, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) (DeletedCart, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockCart takes a row lock on the cart for the rest of the transaction and
// reports whether it exists. Item inserts need a key-share lock on the parent
// cart, so concurrent adds wait until checkout commits or rolls back.
func (r *repository) LockCart(ctx context.Context, cartID uuid.UUID) (bool, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", cartID).
		Limit(1).
		Find(&carts).Error
	return len(carts) > 0, err
}

// CartLines reads the cart's items priced at the product's unit price as of now.
func (r *repository) CartLines(ctx context.Context, cartID uuid.UUID) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items ci").
		Select("ci.product_id, ci.quantity, p.unit_price").
		Joins("JOIN products p ON p.id = ci.product_id").
		Where("ci.cart_id = ?", cartID).
		Order("ci.id ASC").
		Scan(&lines).Error
	return lines, err
}

// DeletedCart counts the rows DeleteCart removed.
type DeletedCart struct {
	Carts int64
	Items int64
}

// DeleteCart removes the cart and its items.
func (r *repository) DeleteCart(ctx context.Context, cartID uuid.UUID) (DeletedCart, error) {
	var out DeletedCart
	items := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	if items.Error != nil {
		return out, items.Error
	}
	out.Items = items.RowsAffected
	carts := r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{})
	out.Carts = carts.RowsAffected
	return out, carts.Error
}
