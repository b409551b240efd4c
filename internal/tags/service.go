package tags

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Content types that can carry tags, mapped to their tables.
var contentTables = map[string]string{
	"product":    "products",
	"collection": "collections",
}

// TagDTO is the tag payload.
type TagDTO struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// CreateTagInput creates a tag.
type CreateTagInput struct {
	Label string `json:"label" validate:"required,max=255"`
}

// ObjectRef identifies a taggable object.
type ObjectRef struct {
	ContentType string `json:"content_type" validate:"required"`
	ObjectID    int64  `json:"object_id" validate:"required,gt=0"`
}

// TagObjectInput attaches a tag to an object.
type TagObjectInput struct {
	TagID int64 `json:"tag_id" validate:"required,gt=0"`
	ObjectRef
}

// Service manages tags and tagged items.
type Service interface {
	ListTags(ctx context.Context) ([]TagDTO, error)
	CreateTag(ctx context.Context, input CreateTagInput) (*TagDTO, error)
	Tag(ctx context.Context, input TagObjectInput) error
	TagsFor(ctx context.Context, ref ObjectRef) ([]TagDTO, error)
	Untag(ctx context.Context, input TagObjectInput) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tag repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListTags(ctx context.Context) ([]TagDTO, error) {
	rows, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tags")
	}
	return toDTOs(rows), nil
}

func (s *service) CreateTag(ctx context.Context, input CreateTagInput) (*TagDTO, error) {
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	tag := &models.Tag{Label: label}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert tag")
	}
	return &TagDTO{ID: tag.ID, Label: tag.Label}, nil
}

func (s *service) Tag(ctx context.Context, input TagObjectInput) error {
	contentType, err := s.resolveObject(ctx, input.ObjectRef)
	if err != nil {
		return err
	}
	ok, err := s.repo.TagExists(ctx, input.TagID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tag")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "tag does not exist")
	}
	item := &models.TaggedItem{TagID: input.TagID, ContentType: contentType, ObjectID: input.ObjectID}
	if err := s.repo.Attach(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach tag")
	}
	return nil
}

func (s *service) TagsFor(ctx context.Context, ref ObjectRef) ([]TagDTO, error) {
	contentType, err := normalizeContentType(ref.ContentType)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TagsFor(ctx, contentType, ref.ObjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list object tags")
	}
	return toDTOs(rows), nil
}

func (s *service) Untag(ctx context.Context, input TagObjectInput) error {
	contentType, err := normalizeContentType(input.ContentType)
	if err != nil {
		return err
	}
	affected, err := s.repo.Detach(ctx, input.TagID, contentType, input.ObjectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach tag")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tagged item not found")
	}
	return nil
}

func (s *service) resolveObject(ctx context.Context, ref ObjectRef) (string, error) {
	contentType, err := normalizeContentType(ref.ContentType)
	if err != nil {
		return "", err
	}
	ok, err := s.repo.ObjectExists(ctx, contentTables[contentType], ref.ObjectID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tagged object")
	}
	if !ok {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "%s does not exist", contentType)
	}
	return contentType, nil
}

func normalizeContentType(value string) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(value))
	if _, ok := contentTables[contentType]; !ok {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported content type %q", value)
	}
	return contentType, nil
}

func toDTOs(rows []models.Tag) []TagDTO {
	out := make([]TagDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, TagDTO{ID: row.ID, Label: row.Label})
	}
	return out
}
