package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

const deleteGuardMessage = "collection cannot be deleted because it includes one or more products"

// Service exposes collection management.
type Service interface {
	List(ctx context.Context) ([]CollectionDTO, error)
	Get(ctx context.Context, id int64) (*CollectionDTO, error)
	Create(ctx context.Context, input CreateCollectionInput) (*CollectionDTO, error)
	Update(ctx context.Context, id int64, input UpdateCollectionInput) (*CollectionDTO, error)
	Delete(ctx context.Context, id int64) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a collection service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]CollectionDTO, error) {
	rows, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collections")
	}
	out := make([]CollectionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*CollectionDTO, error) {
	c, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	return newCollectionDTO(c, count), nil
}

func (s *service) Create(ctx context.Context, input CreateCollectionInput) (*CollectionDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := s.ensureProduct(ctx, input.FeaturedProductID); err != nil {
		return nil, err
	}
	c := &models.Collection{Title: title, FeaturedProductID: input.FeaturedProductID}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert collection")
	}
	return newCollectionDTO(c, 0), nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateCollectionInput) (*CollectionDTO, error) {
	c, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		c.Title = title
	}
	switch {
	case input.ClearFeatured:
		c.FeaturedProductID = nil
	case input.FeaturedProductID != nil:
		if err := s.ensureProduct(ctx, input.FeaturedProductID); err != nil {
			return nil, err
		}
		c.FeaturedProductID = input.FeaturedProductID
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update collection")
	}
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	return newCollectionDTO(c, count), nil
}

// Delete refuses to remove a collection that still has products. The check
// and the delete share a transaction; a concurrent insert that slips past the
// check is caught by the foreign key and reported the same way.
func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, txRepo, id); err != nil {
			return err
		}
		count, err := txRepo.CountProducts(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, deleteGuardMessage).
				WithDetails(map[string]any{"product_count": count})
		}
		if _, err := txRepo.Delete(ctx, id); err != nil {
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.New(pkgerrors.CodeConflict, deleteGuardMessage)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete collection")
}

func (s *service) load(ctx context.Context, repo *Repository, id int64) (*models.Collection, error) {
	c, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}
	return c, nil
}

func (s *service) ensureProduct(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.ProductExists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup featured product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "featured product does not exist")
	}
	return nil
}
