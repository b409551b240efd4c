package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID              int64                 `json:"id"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	Description     *string               `json:"description,omitempty"`
	Inventory       int                   `json:"inventory"`
	InventoryStatus enums.InventoryStatus `json:"inventory_status"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	CollectionID    int64                 `json:"collection"`
	PromotionIDs    []int64               `json:"promotions"`
	LastUpdate      time.Time             `json:"last_update"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	promotionIDs := make([]int64, 0, len(product.Promotions))
	for _, promo := range product.Promotions {
		promotionIDs = append(promotionIDs, promo.ID)
	}
	return &ProductDTO{
		ID:              product.ID,
		Title:           product.Title,
		Slug:            product.Slug,
		Description:     product.Description,
		Inventory:       product.Inventory,
		InventoryStatus: enums.InventoryStatusFor(product.Inventory),
		UnitPrice:       product.UnitPrice.Round(2),
		CollectionID:    product.CollectionID,
		PromotionIDs:    promotionIDs,
		LastUpdate:      product.LastUpdate,
	}
}
