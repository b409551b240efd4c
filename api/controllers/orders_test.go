package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubCheckout struct {
	input  checkout.Input
	result *checkout.Result
	err    error
}

func (s *stubCheckout) Execute(ctx context.Context, input checkout.Input) (*checkout.Result, error) {
	s.input = input
	return s.result, s.err
}

func TestOrderCheckoutCreatesOrder(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCheckout{result: &checkout.Result{Order: &orders.OrderDTO{
		ID:            11,
		PaymentStatus: enums.PaymentStatusPending,
		TotalPrice:    decimal.RequireFromString("25.00"),
	}}}

	resp := serve(t, http.MethodPost, "/orders", OrderCheckout(svc, nil), "/orders", `{"cart_id":"`+cartID.String()+`"}`, 7, false)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.UserID != 7 || svc.input.CartID != cartID {
		t.Fatalf("unexpected checkout input %+v", svc.input)
	}
	var dto orders.OrderDTO
	decodeData(t, resp, &dto)
	if dto.ID != 11 || !dto.TotalPrice.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected order %+v", dto)
	}
}

func TestOrderCheckoutRequiresUser(t *testing.T) {
	svc := &stubCheckout{}
	resp := serve(t, http.MethodPost, "/orders", OrderCheckout(svc, nil), "/orders", `{"cart_id":"`+uuid.NewString()+`"}`, 0, false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderCheckoutValidatesCartID(t *testing.T) {
	svc := &stubCheckout{}
	resp := serve(t, http.MethodPost, "/orders", OrderCheckout(svc, nil), "/orders", `{}`, 7, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	resp = serve(t, http.MethodPost, "/orders", OrderCheckout(svc, nil), "/orders", `{"cart_id":"nope"}`, 7, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed uuid, got %d", resp.Code)
	}
}

func TestOrderCheckoutMissingCart(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")}
	resp := serve(t, http.MethodPost, "/orders", OrderCheckout(svc, nil), "/orders", `{"cart_id":"`+uuid.NewString()+`"}`, 7, false)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

type stubOrders struct {
	viewer orders.Viewer
	params pagination.Params
	status enums.PaymentStatus
	list   *orders.OrderList
	order  *orders.OrderDTO
	err    error
}

func (s *stubOrders) List(ctx context.Context, viewer orders.Viewer, params pagination.Params) (*orders.OrderList, error) {
	s.viewer, s.params = viewer, params
	return s.list, s.err
}

func (s *stubOrders) Get(ctx context.Context, viewer orders.Viewer, id int64) (*orders.OrderDTO, error) {
	s.viewer = viewer
	return s.order, s.err
}

func (s *stubOrders) UpdatePaymentStatus(ctx context.Context, id int64, status enums.PaymentStatus) (*orders.OrderDTO, error) {
	s.status = status
	return s.order, s.err
}

func (s *stubOrders) Delete(ctx context.Context, id int64) error { return s.err }

func TestOrderListPassesViewerAndCursor(t *testing.T) {
	svc := &stubOrders{list: &orders.OrderList{Orders: []orders.OrderDTO{}, NextCursor: "abc"}}
	resp := serve(t, http.MethodGet, "/orders", OrderList(svc, nil), "/orders?limit=10&cursor=xyz", "", 5, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.viewer != (orders.Viewer{UserID: 5, IsStaff: true}) {
		t.Fatalf("unexpected viewer %+v", svc.viewer)
	}
	if svc.params.Limit != 10 || svc.params.Cursor != "xyz" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
	var list orders.OrderList
	decodeData(t, resp, &list)
	if list.NextCursor != "abc" {
		t.Fatalf("unexpected cursor %q", list.NextCursor)
	}
}

func TestOrderGetHiddenOrder(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	resp := serve(t, http.MethodGet, "/orders/{id}", OrderGet(svc, nil), "/orders/3", "", 5, false)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderUpdatePaymentStatus(t *testing.T) {
	svc := &stubOrders{order: &orders.OrderDTO{ID: 3, PaymentStatus: enums.PaymentStatusComplete}}
	resp := serve(t, http.MethodPatch, "/orders/{id}/payment-status", OrderUpdatePaymentStatus(svc, nil), "/orders/3/payment-status", `{"payment_status":"C"}`, 1, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.status != enums.PaymentStatusComplete {
		t.Fatalf("unexpected status %q", svc.status)
	}

	resp = serve(t, http.MethodPatch, "/orders/{id}/payment-status", OrderUpdatePaymentStatus(svc, nil), "/orders/3/payment-status", `{"payment_status":"X"}`, 1, true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	conflict := &stubOrders{err: pkgerrors.New(pkgerrors.CodeStateConflict, "payment status cannot change from C to P")}
	resp = serve(t, http.MethodPatch, "/orders/{id}/payment-status", OrderUpdatePaymentStatus(conflict, nil), "/orders/3/payment-status", `{"payment_status":"P"}`, 1, true)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderDeleteConflict(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeConflict, "order cannot be deleted because it includes one or more items")}
	resp := serve(t, http.MethodDelete, "/orders/{id}", OrderDelete(svc, nil), "/orders/3", "", 1, true)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	ok := &stubOrders{}
	resp = serve(t, http.MethodDelete, "/orders/{id}", OrderDelete(ok, nil), "/orders/3", "", 1, true)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}
