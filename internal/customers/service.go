package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes customer profile operations.
type Service interface {
	Me(ctx context.Context, userID int64) (*CustomerDTO, error)
	UpdateMe(ctx context.Context, userID int64, input UpdateCustomerInput) (*CustomerDTO, error)
	GetAddress(ctx context.Context, userID int64) (*AddressDTO, error)
	UpsertAddress(ctx context.Context, userID int64, input AddressInput) (*AddressDTO, error)

	List(ctx context.Context, page pagination.Page) (*CustomerListResult, error)
	Get(ctx context.Context, id int64) (*CustomerDTO, error)
	Update(ctx context.Context, id int64, input UpdateCustomerInput) (*CustomerDTO, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs a customer service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Me returns the caller's customer profile, creating it on first access.
func (s *service) Me(ctx context.Context, userID int64) (*CustomerDTO, error) {
	customer, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newCustomerDTO(customer), nil
}

func (s *service) UpdateMe(ctx context.Context, userID int64, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, customer, input)
}

func (s *service) GetAddress(ctx context.Context, userID int64) (*AddressDTO, error) {
	customer, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer.Address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return newAddressDTO(customer.Address), nil
}

func (s *service) UpsertAddress(ctx context.Context, userID int64, input AddressInput) (*AddressDTO, error) {
	street := strings.TrimSpace(input.Street)
	city := strings.TrimSpace(input.City)
	zip := strings.TrimSpace(input.Zip)
	if street == "" || city == "" || zip == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street, city and zip are required")
	}
	customer, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	address := &models.Address{CustomerID: customer.ID, Street: street, City: city, Zip: zip}
	if err := s.repo.UpsertAddress(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert address")
	}
	return newAddressDTO(address), nil
}

func (s *service) List(ctx context.Context, page pagination.Page) (*CustomerListResult, error) {
	rows, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	page = page.Normalize()
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newCustomerDTO(&rows[i]))
	}
	return &CustomerListResult{Count: total, Page: page.Number, PageSize: page.Size, Results: out}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*CustomerDTO, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newCustomerDTO(customer), nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, customer, input)
}

func (s *service) applyUpdate(ctx context.Context, customer *models.Customer, input UpdateCustomerInput) (*CustomerDTO, error) {
	birthDate, err := parseBirthDate(input.BirthDate)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "birth_date must be formatted as YYYY-MM-DD")
	}
	if birthDate != nil && birthDate.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "birth_date cannot be in the future")
	}
	membership := customer.Membership
	if input.Membership != "" {
		parsed, err := enums.ParseMembership(input.Membership)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "membership must be one of G, S, B")
		}
		membership = parsed
	}

	customer.Phone = strings.TrimSpace(input.Phone)
	customer.BirthDate = birthDate
	customer.Membership = membership
	if err := s.repo.SaveProfile(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return newCustomerDTO(customer), nil
}

func (s *service) getOrCreate(ctx context.Context, userID int64) (*models.Customer, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	customer, created, err := s.repo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get or create customer")
	}
	if created && s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, userID), "customer profile created")
	}
	return customer, nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}
