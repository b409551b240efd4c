package cart

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductSummary is the product subset embedded in cart items.
type ProductSummary struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CartItemDTO is a cart line with its computed total.
type CartItemDTO struct {
	ID         int64           `json:"id"`
	Product    ProductSummary  `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartDTO is the cart with its items and grand total.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	Items      []CartItemDTO   `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// MaxQuantity is the largest quantity a cart line can hold (the INTEGER column).
const MaxQuantity = math.MaxInt32

// AddItemInput adds quantity of a product to a cart.
type AddItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=2147483647"`
}

// UpdateItemInput sets the quantity of an existing line.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=2147483647"`
}

func newCartItemDTO(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:       item.ID,
		Quantity: item.Quantity,
	}
	if item.Product != nil {
		dto.Product = ProductSummary{
			ID:        item.Product.ID,
			Title:     item.Product.Title,
			UnitPrice: item.Product.UnitPrice.Round(2),
		}
	} else {
		dto.Product = ProductSummary{ID: item.ProductID}
	}
	dto.TotalPrice = dto.Product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	return dto
}

func newCartDTO(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:         cart.ID,
		Items:      make([]CartItemDTO, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
	}
	for i := range cart.Items {
		line := newCartItemDTO(&cart.Items[i])
		dto.Items = append(dto.Items, line)
		dto.TotalPrice = dto.TotalPrice.Add(line.TotalPrice)
	}
	dto.TotalPrice = dto.TotalPrice.Round(2)
	return dto
}
