package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const deleteGuardMessage = "product cannot be deleted because it is associated with an order item"

// MinUnitPrice is the lowest accepted unit price.
var MinUnitPrice = decimal.NewFromInt(1)

// maxUnitPrice is the largest value numeric(6,2) can hold.
var maxUnitPrice = decimal.RequireFromString("9999.99")

// Service exposes catalog product operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, id int64) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title        string
	Slug         string
	Description  *string
	UnitPrice    decimal.Decimal
	Inventory    int
	CollectionID int64
	PromotionIDs []int64
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Title        *string
	Slug         *string
	Description  *string
	UnitPrice    *decimal.Decimal
	Inventory    *int
	CollectionID *int64
	PromotionIDs *[]int64
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// service implements the product service.
type service struct {
	repo     *Repository
	dbClient txRunner
	outbox   outboxEmitter
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient txRunner, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, dbClient: dbClient, outbox: emitter}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if gt, lt := input.Filters.PriceGT, input.Filters.PriceLT; gt != nil && lt != nil && !gt.LessThan(*lt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price__gt must be below unit_price__lt")
	}
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := input.Page.Normalize()
	results := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		results = append(results, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		HasNext:  page.HasNext(len(rows), total),
		Results:  results,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// CreateProduct inserts the product and links its promotions.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := validateUnitPrice(input.UnitPrice); err != nil {
		return nil, err
	}
	if input.Inventory < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory cannot be negative")
	}
	if err := s.ensureCollection(ctx, input.CollectionID); err != nil {
		return nil, err
	}
	promotions, err := s.resolvePromotions(ctx, input.PromotionIDs)
	if err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	product := &models.Product{
		Title:        title,
		Slug:         slug,
		Description:  input.Description,
		UnitPrice:    input.UnitPrice,
		Inventory:    input.Inventory,
		CollectionID: input.CollectionID,
		Promotions:   promotions,
	}
	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(product), nil
}

// UpdateProduct applies the provided fields. A unit price change queues a
// product_price_changed event in the same transaction.
func (s *service) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*ProductDTO, error) {
	if input.UnitPrice != nil {
		if err := validateUnitPrice(*input.UnitPrice); err != nil {
			return nil, err
		}
	}
	if input.Inventory != nil && *input.Inventory < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory cannot be negative")
	}
	if input.CollectionID != nil {
		if err := s.ensureCollection(ctx, *input.CollectionID); err != nil {
			return nil, err
		}
	}
	var promotions []models.Promotion
	if input.PromotionIDs != nil {
		resolved, err := s.resolvePromotions(ctx, *input.PromotionIDs)
		if err != nil {
			return nil, err
		}
		promotions = resolved
	}

	var updated *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		oldPrice := product.UnitPrice

		if err := applyUpdateToProduct(product, input); err != nil {
			return err
		}
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if input.PromotionIDs != nil {
			if err := txRepo.ReplacePromotions(ctx, product, promotions); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace promotions")
			}
			product.Promotions = promotions
		}

		if !oldPrice.Equal(product.UnitPrice) {
			event := outbox.DomainEvent{
				EventType:     enums.EventProductPriceChanged,
				AggregateType: enums.AggregateProduct,
				AggregateID:   strconv.FormatInt(product.ID, 10),
				Data: payloads.ProductPriceChangedEvent{
					ProductID: product.ID,
					OldPrice:  oldPrice,
					NewPrice:  product.UnitPrice,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit price change")
			}
		}
		updated = product
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return NewProductDTO(updated), nil
}

// DeleteProduct refuses to remove products that order history points at.
func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, txRepo, id); err != nil {
			return err
		}
		count, err := txRepo.CountOrderItems(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order items")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, deleteGuardMessage).
				WithDetails(map[string]any{"order_item_count": count})
		}
		return txRepo.DeleteProduct(ctx, id)
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
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
}

func (s *service) load(ctx context.Context, repo *Repository, id int64) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ensureCollection(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "collection is required")
	}
	ok, err := s.repo.CollectionExists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup collection")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "collection does not exist")
	}
	return nil
}

func (s *service) resolvePromotions(ctx context.Context, ids []int64) ([]models.Promotion, error) {
	unique := dedupeIDs(ids)
	promotions, err := s.repo.FindPromotions(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup promotions")
	}
	if len(promotions) != len(unique) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one or more promotions do not exist")
	}
	return promotions, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		product.Title = title
	}
	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if slug == "" {
			slug = Slugify(product.Title)
		}
		product.Slug = slug
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.UnitPrice != nil {
		product.UnitPrice = *input.UnitPrice
	}
	if input.Inventory != nil {
		product.Inventory = *input.Inventory
	}
	if input.CollectionID != nil {
		product.CollectionID = *input.CollectionID
		product.Collection = nil
	}
	return nil
}

func validateUnitPrice(price decimal.Decimal) error {
	if price.LessThan(MinUnitPrice) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unit_price must be at least %s", MinUnitPrice.StringFixed(2))
	}
	if price.GreaterThan(maxUnitPrice) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unit_price must not exceed %s", maxUnitPrice.StringFixed(2))
	}
	if !price.Equal(price.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit_price allows at most 2 decimal places")
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the title and joins its words with dashes.
func Slugify(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
