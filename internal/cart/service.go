package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart and cart item operations.
type Service interface {
	CreateCart(ctx context.Context) (*CartDTO, error)
	GetCart(ctx context.Context, id uuid.UUID) (*CartDTO, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*CartItemDTO, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItemDTO, error)
	GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (*CartItemDTO, error)
	UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, input UpdateItemInput) (*CartItemDTO, error)
	RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error

	HandleItemRequest(ctx context.Context, req ItemRequest) (*ItemResult, error)
}

type service struct {
	carts CartRepository
	items ItemRepository
	tx    txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(carts CartRepository, items ItemRepository, tx txRunner) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{carts: carts, items: items, tx: tx}, nil
}

func (s *service) CreateCart(ctx context.Context) (*CartDTO, error) {
	cart, err := s.carts.Create(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return newCartDTO(cart), nil
}

func (s *service) GetCart(ctx context.Context, id uuid.UUID) (*CartDTO, error) {
	cart, err := s.carts.FindWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCartNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return newCartDTO(cart), nil
}

func (s *service) DeleteCart(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.carts.WithTx(tx).Delete(ctx, id)
		affected = n
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	if affected == 0 {
		return errCartNotFound()
	}
	return nil
}

// AddItem merges quantity into the (cart, product) line.
func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*CartItemDTO, error) {
	if err := checkQuantity(input.Quantity); err != nil {
		return nil, err
	}
	ok, err := s.items.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if !ok {
		return nil, errProductMissing()
	}
	if err := s.ensureCart(ctx, cartID); err != nil {
		return nil, err
	}

	item, err := s.items.Increment(ctx, cartID, input.ProductID, input.Quantity)
	if err != nil {
		if errors.Is(err, ErrQuantityLimit) || db.IsNumericOutOfRange(err) {
			return nil, errQuantityTooLarge()
		}
		// cart or product removed between the checks and the upsert
		if db.IsForeignKeyViolation(err) {
			if exists, _ := s.carts.Exists(ctx, cartID); !exists {
				return nil, errCartNotFound()
			}
			return nil, errProductMissing()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart item")
	}
	dto := newCartItemDTO(item)
	return &dto, nil
}

func (s *service) ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItemDTO, error) {
	if err := s.ensureCart(ctx, cartID); err != nil {
		return nil, err
	}
	rows, err := s.items.List(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	out := make([]CartItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newCartItemDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (*CartItemDTO, error) {
	item, err := s.items.Find(ctx, cartID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errItemNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	dto := newCartItemDTO(item)
	return &dto, nil
}

// UpdateItemQuantity replaces the line quantity.
func (s *service) UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, input UpdateItemInput) (*CartItemDTO, error) {
	if err := checkQuantity(input.Quantity); err != nil {
		return nil, err
	}
	affected, err := s.items.SetQuantity(ctx, cartID, itemID, input.Quantity)
	if err != nil {
		if db.IsNumericOutOfRange(err) {
			return nil, errQuantityTooLarge()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if affected == 0 {
		return nil, errItemNotFound()
	}
	return s.GetItem(ctx, cartID, itemID)
}

func (s *service) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	affected, err := s.items.Delete(ctx, cartID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if affected == 0 {
		return errItemNotFound()
	}
	return nil
}

func (s *service) ensureCart(ctx context.Context, cartID uuid.UUID) error {
	ok, err := s.carts.Exists(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart")
	}
	if !ok {
		return errCartNotFound()
	}
	return nil
}

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > MaxQuantity {
		return errQuantityTooLarge()
	}
	return nil
}

func errQuantityTooLarge() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the line limit").
		WithDetails(map[string]any{"max_quantity": MaxQuantity})
}

func errCartNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
}

func errItemNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func errProductMissing() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "product does not exist").
		WithDetails(map[string]string{"product_id": "product does not exist"})
}
