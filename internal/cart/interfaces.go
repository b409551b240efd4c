package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the cart persistence surface required by the service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context) (*models.Cart, error)
	FindWithItems(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]StaleCart, error)
}

// ItemRepository defines the cart item persistence surface.
type ItemRepository interface {
	WithTx(tx *gorm.DB) ItemRepository
	ProductExists(ctx context.Context, productID int64) (bool, error)
	Increment(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartItem, error)
	List(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	Find(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartItem, error)
	SetQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (int64, error)
	Delete(ctx context.Context, cartID uuid.UUID, itemID int64) (int64, error)
}

// StaleCart is a cart past its retention window.
type StaleCart struct {
	ID        uuid.UUID
	CreatedAt time.Time
	ItemCount int64
}
