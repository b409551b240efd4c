package collections

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists collections.
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

const listWithCountsQuery = `
SELECT c.id, c.title, c.featured_product_id, COUNT(p.id) AS product_count
FROM collections c
LEFT JOIN products p ON p.collection_id = c.id
`

// ListWithCounts returns every collection ordered by title with its product count.
func (r *Repository) ListWithCounts(ctx context.Context) ([]collectionRow, error) {
	var rows []collectionRow
	err := r.db.WithContext(ctx).
		Raw(listWithCountsQuery + "GROUP BY c.id, c.title, c.featured_product_id ORDER BY c.title ASC, c.id ASC").
		Scan(&rows).Error
	return rows, err
}

// FindByID loads a collection.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Collection, error) {
	var c models.Collection
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountProducts counts the products that reference the collection.
func (r *Repository) CountProducts(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("collection_id = ?", id).
		Count(&count).Error
	return count, err
}

// ProductExists reports whether the product id refers to a stored product.
func (r *Repository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a collection.
func (r *Repository) Create(ctx context.Context, c *models.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Save persists every column of the collection.
func (r *Repository) Save(ctx context.Context, c *models.Collection) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete removes the collection row.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Collection{})
	return res.RowsAffected, res.Error
}
