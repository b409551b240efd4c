package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRecordRepository persists carts.
type CartRecordRepository struct {
	db *gorm.DB
}

// NewCartRecordRepository binds the repository to the provided DB handle.
func NewCartRecordRepository(db *gorm.DB) *CartRecordRepository {
	return &CartRecordRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *CartRecordRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &CartRecordRepository{db: tx}
}

// Create inserts an empty cart with a fresh id.
func (r *CartRecordRepository) Create(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{ID: uuid.New()}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// FindWithItems loads the cart, its items and their products.
func (r *CartRecordRepository) FindWithItems(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRecordRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Delete removes the cart and its items.
func (r *CartRecordRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id = ?", id).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// ListStale returns the oldest carts created before cutoff.
func (r *CartRecordRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]StaleCart, error) {
	var rows []StaleCart
	err := r.db.WithContext(ctx).
		Table("carts c").
		Select("c.id, c.created_at, COUNT(ci.id) AS item_count").
		Joins("LEFT JOIN cart_items ci ON ci.cart_id = c.id").
		Where("c.created_at < ?", cutoff).
		Group("c.id, c.created_at").
		Order("c.created_at ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
