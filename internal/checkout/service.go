package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts carts into orders.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

// Input identifies the caller and the cart being checked out.
type Input struct {
	UserID int64
	CartID uuid.UUID
}

// Result is the placed order.
type Result struct {
	Order           *orders.OrderDTO
	CustomerCreated bool
}

// ServiceParams groups checkout dependencies.
type ServiceParams struct {
	TxRunner  txRunner
	Repo      Repository
	Orders    orders.Repository
	Customers *customers.Repository
	Outbox    outboxPublisher
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	repo      Repository
	orders    orders.Repository
	customers *customers.Repository
	outbox    outboxPublisher
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:        params.TxRunner,
		repo:      params.Repo,
		orders:    params.Orders,
		customers: params.Customers,
		outbox:    params.Outbox,
		logg:      params.Logger,
	}, nil
}

// Execute places an order from the cart. Either every write commits, the order,
// its items, the cart removal and the order_created event, or none does.
func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart_id is required")
	}

	var (
		placed  *models.Order
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		exists, err := repo.LockCart(ctx, input.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}

		customer, isNew, err := s.customers.WithTx(tx).GetOrCreateByUserID(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get or create customer")
		}
		created = isNew

		order, err := ordersRepo.CreateOrder(ctx, &models.Order{
			CustomerID:    customer.ID,
			PaymentStatus: enums.PaymentStatusPending,
			PlacedAt:      time.Now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		lines, err := repo.CartLines(ctx, input.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart items")
		}
		if len(lines) == 0 && s.logg != nil {
			s.logg.Warn(s.logg.WithCartID(ctx, input.CartID.String()), "checkout of empty cart")
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
			})
			total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		deleted, err := repo.DeleteCart(ctx, input.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		if deleted.Carts == 0 {
			// another checkout consumed the cart first
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		if deleted.Items != int64(len(lines)) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed during checkout").
				WithDetails(map[string]any{"ordered_lines": len(lines), "cart_lines": deleted.Items})
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   strconv.FormatInt(order.ID, 10),
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			OccurredAt:    order.PlacedAt,
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				CustomerID: customer.ID,
				CartID:     input.CartID,
				ItemCount:  len(items),
				Total:      total,
				PlacedAt:   order.PlacedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
		}

		order.Items = items
		placed = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout failed")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, input.UserID), placed.ID)
		s.logg.Info(s.logg.WithField(logCtx, "item_count", len(placed.Items)), "order placed")
	}

	fresh, err := s.orders.FindByID(ctx, placed.ID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "reload placed order")
		}
		return &Result{Order: orders.NewOrderDTO(placed), CustomerCreated: created}, nil
	}
	return &Result{Order: orders.NewOrderDTO(fresh), CustomerCreated: created}, nil
}
