package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ItemRequestKind selects the cart item operation.
type ItemRequestKind int

const (
	ItemRequestRead ItemRequestKind = iota + 1
	ItemRequestAdd
	ItemRequestUpdate
	ItemRequestRemove
)

func (k ItemRequestKind) String() string {
	switch k {
	case ItemRequestRead:
		return "read"
	case ItemRequestAdd:
		return "add"
	case ItemRequestUpdate:
		return "update"
	case ItemRequestRemove:
		return "remove"
	}
	return fmt.Sprintf("ItemRequestKind(%d)", int(k))
}

// ItemRequest is a decoded cart item call. Which fields are meaningful
// depends on Kind:
//
//	Read    ItemID, or zero to list every item
//	Add     ProductID, Quantity (a delta)
//	Update  ItemID, Quantity (absolute)
//	Remove  ItemID
type ItemRequest struct {
	Kind      ItemRequestKind
	CartID    uuid.UUID
	ItemID    int64
	ProductID int64
	Quantity  int
}

// ItemResult carries either one item or a listing.
type ItemResult struct {
	Item  *CartItemDTO
	Items []CartItemDTO
}

// HandleItemRequest dispatches req to the matching cart operation.
func (s *service) HandleItemRequest(ctx context.Context, req ItemRequest) (*ItemResult, error) {
	switch req.Kind {
	case ItemRequestRead:
		if req.ItemID == 0 {
			items, err := s.ListItems(ctx, req.CartID)
			if err != nil {
				return nil, err
			}
			return &ItemResult{Items: items}, nil
		}
		item, err := s.GetItem(ctx, req.CartID, req.ItemID)
		if err != nil {
			return nil, err
		}
		return &ItemResult{Item: item}, nil
	case ItemRequestAdd:
		item, err := s.AddItem(ctx, req.CartID, AddItemInput{ProductID: req.ProductID, Quantity: req.Quantity})
		if err != nil {
			return nil, err
		}
		return &ItemResult{Item: item}, nil
	case ItemRequestUpdate:
		item, err := s.UpdateItemQuantity(ctx, req.CartID, req.ItemID, UpdateItemInput{Quantity: req.Quantity})
		if err != nil {
			return nil, err
		}
		return &ItemResult{Item: item}, nil
	case ItemRequestRemove:
		if err := s.RemoveItem(ctx, req.CartID, req.ItemID); err != nil {
			return nil, err
		}
		return &ItemResult{}, nil
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported cart item request %s", req.Kind)
}
