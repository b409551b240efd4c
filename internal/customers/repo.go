package customers

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository persists customers and their addresses.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// GetOrCreateByUserID returns the user's customer row, inserting one with the
// default membership when it does not exist yet. Safe under concurrent calls
// for the same user.
func (r *Repository) GetOrCreateByUserID(ctx context.Context, userID int64) (*models.Customer, bool, error) {
	row := models.Customer{UserID: userID, Membership: enums.DefaultMembership}
	res := r.db.WithContext(ctx).
		Omit("User", "Address").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	customer, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return customer, res.RowsAffected > 0, nil
}

// FindByUserID loads the customer owned by the user.
func (r *Repository) FindByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Address").
		First(&customer, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByID loads a customer by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Address").
		First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns customers ordered by their user's first and last name.
func (r *Repository) List(ctx context.Context, page pagination.Page) ([]models.Customer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var rows []models.Customer
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users u ON u.id = customers.user_id").
		Order("u.first_name ASC").
		Order("u.last_name ASC").
		Order("customers.id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&rows).Error
	return rows, total, err
}

// SaveProfile persists the editable customer columns.
func (r *Repository) SaveProfile(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"phone":      customer.Phone,
			"birth_date": customer.BirthDate,
			"membership": customer.Membership,
		}).Error
}

// UpsertAddress writes the single address row of a customer.
func (r *Repository) UpsertAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"street", "city", "zip"}),
		}).
		Create(address).Error
}

// FindAddress loads the customer's address.
func (r *Repository) FindAddress(ctx context.Context, customerID int64) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &address, nil
}
