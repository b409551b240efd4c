package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ReviewDTO is the review payload.
type ReviewDTO struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// ReviewInput is used for create and full update.
type ReviewInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

// Service manages reviews nested under a product.
type Service interface {
	List(ctx context.Context, productID int64) ([]ReviewDTO, error)
	Get(ctx context.Context, productID, id int64) (*ReviewDTO, error)
	Create(ctx context.Context, productID int64, input ReviewInput) (*ReviewDTO, error)
	Update(ctx context.Context, productID, id int64, input ReviewInput) (*ReviewDTO, error)
	Delete(ctx context.Context, productID, id int64) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, productID int64) ([]ReviewDTO, error) {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, productID, id int64) (*ReviewDTO, error) {
	review, err := s.load(ctx, productID, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(review)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, productID int64, input ReviewInput) (*ReviewDTO, error) {
	name, description, err := normalize(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	review := &models.Review{ProductID: productID, Name: name, Description: description}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
	}
	dto := toDTO(review)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, productID, id int64, input ReviewInput) (*ReviewDTO, error) {
	name, description, err := normalize(input)
	if err != nil {
		return nil, err
	}
	review, err := s.load(ctx, productID, id)
	if err != nil {
		return nil, err
	}
	review.Name = name
	review.Description = description
	if err := s.repo.Save(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	dto := toDTO(review)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, productID, id int64) error {
	affected, err := s.repo.Delete(ctx, productID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, productID, id int64) (*models.Review, error) {
	review, err := s.repo.Find(ctx, productID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func (s *service) ensureProduct(ctx context.Context, productID int64) error {
	ok, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func normalize(input ReviewInput) (string, string, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if name == "" || description == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "name and description are required")
	}
	return name, description, nil
}

func toDTO(r *models.Review) ReviewDTO {
	return ReviewDTO{ID: r.ID, ProductID: r.ProductID, Name: r.Name, Description: r.Description, Date: r.Date}
}
