package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const deleteGuardMessage = "order cannot be deleted because it includes one or more items"

// Service exposes order reads and staff-only order management.
type Service interface {
	List(ctx context.Context, viewer Viewer, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, viewer Viewer, id int64) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status enums.PaymentStatus) (*OrderDTO, error)
	Delete(ctx context.Context, id int64) error
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Customers customerLookup
	TxRunner  txRunner
	Outbox    outboxEmitter
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	customers customerLookup
	tx        txRunner
	outbox    outboxEmitter
	logg      *logger.Logger
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lookup required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:      params.Repo,
		customers: params.Customers,
		tx:        params.TxRunner,
		outbox:    params.Outbox,
		logg:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, viewer Viewer, params pagination.Params) (*OrderList, error) {
	query := ListQuery{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	if !viewer.IsStaff {
		customerID, ok, err := s.customerFor(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &OrderList{Orders: []OrderDTO{}}, nil
		}
		query.CustomerID = &customerID
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows))}
	for i := range rows {
		out.Orders = append(out.Orders, *NewOrderDTO(&rows[i]))
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, viewer Viewer, id int64) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsStaff {
		customerID, ok, err := s.customerFor(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		if !ok || order.CustomerID != customerID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return NewOrderDTO(order), nil
}

// UpdatePaymentStatus settles a pending order and records the change in the outbox.
func (s *service) UpdatePaymentStatus(ctx context.Context, id int64, status enums.PaymentStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_status must be one of P, C, F")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		from := order.PaymentStatus
		if !from.CanTransitionTo(status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "payment status cannot change from %s to %s", from.Label(), status.Label()).
				WithDetails(map[string]any{"from": from, "to": status})
		}
		changed, err := txRepo.UpdatePaymentStatus(ctx, id, from, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status changed concurrently")
		}
		order.PaymentStatus = status

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   strconv.FormatInt(order.ID, 10),
			Data: payloads.OrderPaymentStatusChangedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				From:       from,
				To:         status,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit payment status change")
		}
		updated = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, updated.ID)
		s.logg.Info(s.logg.WithField(logCtx, "payment_status", string(status)), "order payment status updated")
	}
	return NewOrderDTO(updated), nil
}

// Delete removes an order that has no items. Orders with items are protected.
func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountItems(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order items")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, deleteGuardMessage).
				WithDetails(map[string]any{"item_count": count})
		}
		deleted, err := txRepo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.New(pkgerrors.CodeConflict, deleteGuardMessage)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
}

func (s *service) customerFor(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	customer, err := s.customers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve customer")
	}
	return customer.ID, true, nil
}

func (s *service) load(ctx context.Context, repo Repository, id int64) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
