package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartItemRepository manages persistent cart items.
type CartItemRepository struct {
	db *gorm.DB
}

// NewCartItemRepository binds the repository to the provided DB handle.
func NewCartItemRepository(db *gorm.DB) *CartItemRepository {
	return &CartItemRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *CartItemRepository) WithTx(tx *gorm.DB) ItemRepository {
	if tx == nil {
		return r
	}
	return &CartItemRepository{db: tx}
}

func (r *CartItemRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

// ErrQuantityLimit is returned when merging would push a line past MaxQuantity.
var ErrQuantityLimit = errors.New("cart line quantity limit reached")

// Increment adds quantity to the (cart, product) line, creating it when
// missing. The insert and the increment are one statement, so concurrent adds
// to the same line never lose an update. A merge that would exceed MaxQuantity
// leaves the line untouched and returns ErrQuantityLimit.
func (r *CartItemRepository) Increment(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartItem, error) {
	row := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	res := r.db.WithContext(ctx).
		Omit("Product").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
			// written as a subtraction so the guard itself cannot overflow int4
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_items.quantity <= ? - excluded.quantity", MaxQuantity),
			}},
		}).
		Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrQuantityLimit
	}

	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartItemRepository) List(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *CartItemRepository) Find(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ? AND id = ?", cartID, itemID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartItemRepository) SetQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		UpdateColumn("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *CartItemRepository) Delete(ctx context.Context, cartID uuid.UUID, itemID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
