package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// PromotionDTO is the promotion payload.
type PromotionDTO struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Discount    float64   `json:"discount"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreatePromotionInput holds a new promotion.
type CreatePromotionInput struct {
	Description string  `json:"description" validate:"required,max=255"`
	Discount    float64 `json:"discount" validate:"gte=0"`
}

// Repository persists promotions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Create(ctx context.Context, p *models.Promotion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Delete unlinks the promotion from products and removes it.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_promotions WHERE promotion_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Promotion{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// Service exposes promotion management.
type Service interface {
	List(ctx context.Context) ([]PromotionDTO, error)
	Create(ctx context.Context, input CreatePromotionInput) (*PromotionDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]PromotionDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	out := make([]PromotionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreatePromotionInput) (*PromotionDTO, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.Discount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	p := &models.Promotion{Description: description, Discount: input.Discount}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert promotion")
	}
	dto := toDTO(p)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	return nil
}

func toDTO(p *models.Promotion) PromotionDTO {
	return PromotionDTO{ID: p.ID, Description: p.Description, Discount: p.Discount, CreatedAt: p.CreatedAt}
}
