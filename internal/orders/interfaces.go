package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, *pagination.Cursor, error)
	UpdatePaymentStatus(ctx context.Context, id int64, from, to enums.PaymentStatus) (bool, error)
	CountItems(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// ListQuery narrows the order listing. A nil CustomerID lists every order.
type ListQuery struct {
	CustomerID *int64
	Limit      int
	Cursor     *pagination.Cursor
}

// customerLookup resolves the caller's customer without creating one.
type customerLookup interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Customer, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
