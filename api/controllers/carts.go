package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type cartStore interface {
	CreateCart(ctx context.Context) (*cart.CartDTO, error)
	GetCart(ctx context.Context, id uuid.UUID) (*cart.CartDTO, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error
}

type cartItemHandler interface {
	HandleItemRequest(ctx context.Context, req cart.ItemRequest) (*cart.ItemResult, error)
}

func CartCreate(svc cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		c, err := svc.CreateCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, c)
	}
}

func CartGet(svc cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.GetCart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func CartDelete(svc cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCart(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=2147483647"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=2147483647"`
}

// CartItems serves every /carts/{id}/items route. The request is decoded
// into a cart.ItemRequest and the service dispatches on its Kind.
func CartItems(svc cartItemHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}

		req, err := decodeItemRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(logg.WithCartID(ctx, req.CartID.String()), map[string]any{"cart_item_op": req.Kind.String()})
		}

		result, err := svc.HandleItemRequest(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch {
		case req.Kind == cart.ItemRequestRemove:
			responses.WriteNoContent(w)
		case req.Kind == cart.ItemRequestAdd:
			responses.WriteSuccessStatus(w, http.StatusCreated, result.Item)
		case result.Item != nil:
			responses.WriteSuccess(w, result.Item)
		default:
			items := result.Items
			if items == nil {
				items = []cart.CartItemDTO{}
			}
			responses.WriteSuccess(w, items)
		}
	}
}

func decodeItemRequest(r *http.Request) (cart.ItemRequest, error) {
	cartID, err := parseUUIDParam(r, "id")
	if err != nil {
		return cart.ItemRequest{}, err
	}
	req := cart.ItemRequest{CartID: cartID}

	hasItem := chi.URLParam(r, "itemID") != ""
	if hasItem {
		if req.ItemID, err = parseIDParam(r, "itemID"); err != nil {
			return cart.ItemRequest{}, err
		}
	}

	switch {
	case r.Method == http.MethodGet:
		req.Kind = cart.ItemRequestRead
	case r.Method == http.MethodPost && !hasItem:
		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return cart.ItemRequest{}, err
		}
		req.Kind = cart.ItemRequestAdd
		req.ProductID = body.ProductID
		req.Quantity = body.Quantity
	case r.Method == http.MethodPatch && hasItem:
		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return cart.ItemRequest{}, err
		}
		req.Kind = cart.ItemRequestUpdate
		req.Quantity = body.Quantity
	case r.Method == http.MethodDelete && hasItem:
		req.Kind = cart.ItemRequestRemove
	default:
		return cart.ItemRequest{}, pkgerrors.Newf(pkgerrors.CodeValidation, "method %s not supported on cart items", r.Method)
	}
	return req, nil
}
