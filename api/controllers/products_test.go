package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubProducts struct {
	listInput   productsvc.ListProductsInput
	createInput productsvc.CreateProductInput
	product     *productsvc.ProductDTO
	err         error
}

func (s *stubProducts) ListProducts(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	s.listInput = input
	return &productsvc.ProductListResult{Results: []productsvc.ProductDTO{}}, s.err
}

func (s *stubProducts) GetProduct(ctx context.Context, id int64) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProducts) CreateProduct(ctx context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	s.createInput = input
	return s.product, s.err
}

func (s *stubProducts) UpdateProduct(ctx context.Context, id int64, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProducts) DeleteProduct(ctx context.Context, id int64) error { return s.err }

func TestProductListParsesFilters(t *testing.T) {
	svc := &stubProducts{}
	target := "/products?collection_id=3&unit_price__gt=5&unit_price__lt=20.5&search=%20mug%20&ordering=-unit_price&page=2&page_size=10"
	resp := serve(t, http.MethodGet, "/products", ProductList(svc, nil), target, "", 0, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	in := svc.listInput
	if in.Filters.CollectionID == nil || *in.Filters.CollectionID != 3 {
		t.Fatalf("unexpected collection filter %v", in.Filters.CollectionID)
	}
	if in.Filters.PriceGT == nil || !in.Filters.PriceGT.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected price gt %v", in.Filters.PriceGT)
	}
	if in.Filters.PriceLT == nil || !in.Filters.PriceLT.Equal(decimal.RequireFromString("20.5")) {
		t.Fatalf("unexpected price lt %v", in.Filters.PriceLT)
	}
	if in.Filters.Search != "mug" {
		t.Fatalf("unexpected search %q", in.Filters.Search)
	}
	if in.Ordering != "-unit_price" || in.Page.Number != 2 || in.Page.Size != 10 {
		t.Fatalf("unexpected ordering/page %q %+v", in.Ordering, in.Page)
	}
}

func TestProductListRejectsBadPrice(t *testing.T) {
	svc := &stubProducts{}
	resp := serve(t, http.MethodGet, "/products", ProductList(svc, nil), "/products?unit_price__gt=cheap", "", 0, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductCreateDecodesPrice(t *testing.T) {
	svc := &stubProducts{product: &productsvc.ProductDTO{ID: 1}}
	body := `{"title":"Mug","unit_price":"10.00","inventory":4,"collection":2,"promotions":[1,2]}`
	resp := serve(t, http.MethodPost, "/products", ProductCreate(svc, nil), "/products", body, 1, true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.createInput.UnitPrice.Equal(decimal.NewFromInt(10)) || svc.createInput.CollectionID != 2 {
		t.Fatalf("unexpected input %+v", svc.createInput)
	}
	if len(svc.createInput.PromotionIDs) != 2 {
		t.Fatalf("expected promotions, got %v", svc.createInput.PromotionIDs)
	}
}

func TestProductDeleteGuard(t *testing.T) {
	svc := &stubProducts{err: pkgerrors.New(pkgerrors.CodeConflict, "product cannot be deleted because it is associated with an order item")}
	resp := serve(t, http.MethodDelete, "/products/{id}", ProductDelete(svc, nil), "/products/42", "", 1, true)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	apiErr := decodeError(t, resp)
	if apiErr.Message != "product cannot be deleted because it is associated with an order item" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestProductGetInvalidID(t *testing.T) {
	svc := &stubProducts{}
	resp := serve(t, http.MethodGet, "/products/{id}", ProductGet(svc, nil), "/products/abc", "", 0, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
