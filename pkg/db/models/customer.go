package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Customer is the shopping profile of a user, one per user.
type Customer struct {
	ID         int64            `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64            `gorm:"column:user_id;not null;uniqueIndex"`
	User       *User            `gorm:"foreignKey:UserID"`
	Phone      string           `gorm:"column:phone;not null;default:''"`
	BirthDate  *time.Time       `gorm:"column:birth_date;type:date"`
	Membership enums.Membership `gorm:"column:membership;not null;default:'B'"`
	Address    *Address         `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (Customer) TableName() string { return "customers" }

// Address belongs to exactly one customer.
type Address struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID int64  `gorm:"column:customer_id;not null;uniqueIndex"`
	Street     string `gorm:"column:street;not null"`
	City       string `gorm:"column:city;not null"`
	Zip        string `gorm:"column:zip;not null"`
}

func (Address) TableName() string { return "addresses" }
