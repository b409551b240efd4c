package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubCustomers struct {
	userID int64
	update customers.UpdateCustomerInput
	page   pagination.Page
}

func (s *stubCustomers) Me(ctx context.Context, userID int64) (*customers.CustomerDTO, error) {
	s.userID = userID
	return &customers.CustomerDTO{ID: 1, UserID: userID, Membership: enums.MembershipBronze}, nil
}

func (s *stubCustomers) UpdateMe(ctx context.Context, userID int64, input customers.UpdateCustomerInput) (*customers.CustomerDTO, error) {
	s.userID, s.update = userID, input
	return &customers.CustomerDTO{ID: 1, UserID: userID, Phone: input.Phone}, nil
}

func (s *stubCustomers) GetAddress(ctx context.Context, userID int64) (*customers.AddressDTO, error) {
	return &customers.AddressDTO{Street: "1 Main", City: "Springfield", Zip: "12345"}, nil
}

func (s *stubCustomers) UpsertAddress(ctx context.Context, userID int64, input customers.AddressInput) (*customers.AddressDTO, error) {
	return &customers.AddressDTO{Street: input.Street, City: input.City, Zip: input.Zip}, nil
}

func (s *stubCustomers) List(ctx context.Context, page pagination.Page) (*customers.CustomerListResult, error) {
	s.page = page
	return &customers.CustomerListResult{Results: []customers.CustomerDTO{}}, nil
}

func (s *stubCustomers) Get(ctx context.Context, id int64) (*customers.CustomerDTO, error) {
	return &customers.CustomerDTO{ID: id}, nil
}

func (s *stubCustomers) Update(ctx context.Context, id int64, input customers.UpdateCustomerInput) (*customers.CustomerDTO, error) {
	return &customers.CustomerDTO{ID: id}, nil
}

func TestCustomerMeUsesContextUser(t *testing.T) {
	svc := &stubCustomers{}
	resp := serve(t, http.MethodGet, "/customers/me", CustomerMe(svc, nil), "/customers/me", "", 12, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.userID != 12 {
		t.Fatalf("expected user 12, got %d", svc.userID)
	}

	resp = serve(t, http.MethodGet, "/customers/me", CustomerMe(svc, nil), "/customers/me", "", 0, false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCustomerUpdateMeValidatesMembership(t *testing.T) {
	svc := &stubCustomers{}
	resp := serve(t, http.MethodPut, "/customers/me", CustomerUpdateMe(svc, nil), "/customers/me", `{"phone":"555","membership":"Z"}`, 12, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = serve(t, http.MethodPut, "/customers/me", CustomerUpdateMe(svc, nil), "/customers/me", `{"phone":"555","birth_date":"1990-04-01","membership":"G"}`, 12, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.update.Membership != "G" || svc.update.BirthDate == nil || *svc.update.BirthDate != "1990-04-01" {
		t.Fatalf("unexpected update %+v", svc.update)
	}
}

func TestCustomerAddressPut(t *testing.T) {
	svc := &stubCustomers{}
	resp := serve(t, http.MethodPut, "/customers/me/address", CustomerAddressPut(svc, nil), "/customers/me/address", `{"street":"1 Main","city":"Springfield"}`, 12, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing zip, got %d", resp.Code)
	}

	resp = serve(t, http.MethodPut, "/customers/me/address", CustomerAddressPut(svc, nil), "/customers/me/address", `{"street":"1 Main","city":"Springfield","zip":"02134"}`, 12, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var addr customers.AddressDTO
	decodeData(t, resp, &addr)
	if addr.Zip != "02134" {
		t.Fatalf("zip should keep its leading zero, got %q", addr.Zip)
	}
}

func TestCustomerListPagination(t *testing.T) {
	svc := &stubCustomers{}
	resp := serve(t, http.MethodGet, "/customers", CustomerList(svc, nil), "/customers?page=3&page_size=5", "", 1, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.page != (pagination.Page{Number: 3, Size: 5}) {
		t.Fatalf("unexpected page %+v", svc.page)
	}
}
