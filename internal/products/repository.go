package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product with its promotions.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Promotions", func(db *gorm.DB) *gorm.DB { return db.Order("promotions.id ASC") }).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of products matching the filters and the total count.
func (r *Repository) List(ctx context.Context, input ListProductsInput) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, input.Filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := input.Page.Normalize()
	var rows []models.Product
	err := r.filtered(ctx, input.Filters).
		Preload("Promotions", func(db *gorm.DB) *gorm.DB { return db.Order("promotions.id ASC") }).
		Order(orderClause(input.Ordering)).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) filtered(ctx context.Context, filter ProductListFilters) *gorm.DB {
	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.CollectionID != nil {
		qb = qb.Where("collection_id = ?", *filter.CollectionID)
	}
	if filter.PriceGT != nil {
		qb = qb.Where("unit_price > ?", *filter.PriceGT)
	}
	if filter.PriceLT != nil {
		qb = qb.Where("unit_price < ?", *filter.PriceLT)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", pattern, pattern)
	}
	return qb
}

// CollectionExists reports whether the collection id refers to a stored row.
func (r *Repository) CollectionExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Collection{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// FindPromotions loads the promotions with the given ids.
func (r *Repository) FindPromotions(ctx context.Context, ids []int64) ([]models.Promotion, error) {
	if len(ids) == 0 {
		return []models.Promotion{}, nil
	}
	var rows []models.Promotion
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error
	return rows, err
}

// CreateProduct inserts a new product row with its promotion links.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates the product columns; associations are left alone.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Promotions", "Collection").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ReplacePromotions swaps the product's promotion links.
func (r *Repository) ReplacePromotions(ctx context.Context, product *models.Product, promotions []models.Promotion) error {
	return r.db.WithContext(ctx).Model(product).Association("Promotions").Replace(promotions)
}

// CountOrderItems counts the order items that reference the product.
func (r *Repository) CountOrderItems(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

// DeleteProduct removes a product and the rows that only exist for it. Cart
// items and reviews go with the product; collections featuring it are unset.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Exec("DELETE FROM product_promotions WHERE product_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Collection{}).
		Where("featured_product_id = ?", id).
		Update("featured_product_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Product{}).Error
}
