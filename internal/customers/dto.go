package customers

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const birthDateLayout = "2006-01-02"

// CustomerDTO is the customer payload.
type CustomerDTO struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	FirstName  string           `json:"first_name,omitempty"`
	LastName   string           `json:"last_name,omitempty"`
	Phone      string           `json:"phone"`
	BirthDate  *string          `json:"birth_date"`
	Membership enums.Membership `json:"membership"`
	Address    *AddressDTO      `json:"address,omitempty"`
}

// AddressDTO is the address payload.
type AddressDTO struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

// UpdateCustomerInput is a full replacement of the editable profile fields.
// A nil BirthDate clears it.
type UpdateCustomerInput struct {
	Phone      string  `json:"phone" validate:"max=255"`
	BirthDate  *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Membership string  `json:"membership" validate:"omitempty,oneof=G S B"`
}

// AddressInput replaces the customer's address.
type AddressInput struct {
	Street string `json:"street" validate:"required,max=255"`
	City   string `json:"city" validate:"required,max=255"`
	Zip    string `json:"zip" validate:"required,max=20"`
}

// CustomerListResult is one page of customers.
type CustomerListResult struct {
	Count    int64         `json:"count"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Results  []CustomerDTO `json:"results"`
}

func newCustomerDTO(c *models.Customer) *CustomerDTO {
	dto := &CustomerDTO{
		ID:         c.ID,
		UserID:     c.UserID,
		Phone:      c.Phone,
		Membership: c.Membership,
	}
	if c.User != nil {
		dto.FirstName = c.User.FirstName
		dto.LastName = c.User.LastName
	}
	if c.BirthDate != nil {
		formatted := c.BirthDate.Format(birthDateLayout)
		dto.BirthDate = &formatted
	}
	if c.Address != nil {
		dto.Address = newAddressDTO(c.Address)
	}
	return dto
}

func newAddressDTO(a *models.Address) *AddressDTO {
	return &AddressDTO{Street: a.Street, City: a.City, Zip: a.Zip}
}

func parseBirthDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(birthDateLayout, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
