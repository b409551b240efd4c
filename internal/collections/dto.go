package collections

import "github.com/angelmondragon/storefront-backend/pkg/db/models"

// CollectionDTO is the collection payload with its computed product count.
type CollectionDTO struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product_id"`
	ProductCount      int64  `json:"product_count"`
}

// CreateCollectionInput holds the validated payload to create a collection.
type CreateCollectionInput struct {
	Title             string `json:"title" validate:"required,max=255"`
	FeaturedProductID *int64 `json:"featured_product_id,omitempty"`
}

// UpdateCollectionInput holds optional mutations. ClearFeatured unsets the
// featured product even when FeaturedProductID is nil.
type UpdateCollectionInput struct {
	Title             *string `json:"title,omitempty" validate:"omitempty,max=255"`
	FeaturedProductID *int64  `json:"featured_product_id,omitempty"`
	ClearFeatured     bool    `json:"clear_featured,omitempty"`
}

// collectionRow is the list projection with the aggregated product count.
type collectionRow struct {
	ID                int64
	Title             string
	FeaturedProductID *int64
	ProductCount      int64
}

func (r collectionRow) toDTO() CollectionDTO {
	return CollectionDTO{
		ID:                r.ID,
		Title:             r.Title,
		FeaturedProductID: r.FeaturedProductID,
		ProductCount:      r.ProductCount,
	}
}

func newCollectionDTO(c *models.Collection, count int64) *CollectionDTO {
	return &CollectionDTO{
		ID:                c.ID,
		Title:             c.Title,
		FeaturedProductID: c.FeaturedProductID,
		ProductCount:      count,
	}
}
