package tags

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists tags and their attachments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var rows []models.Tag
	err := r.db.WithContext(ctx).Order("label ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateTag(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *Repository) TagExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ObjectExists checks the row referenced by a tagged item.
func (r *Repository) ObjectExists(ctx context.Context, table string, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Attach links the tag to the object; attaching twice is a no-op.
func (r *Repository) Attach(ctx context.Context, item *models.TaggedItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag_id"}, {Name: "content_type"}, {Name: "object_id"}},
			DoNothing: true,
		}).
		Create(item).Error
}

// TagsFor returns the tags attached to the object.
func (r *Repository) TagsFor(ctx context.Context, contentType string, objectID int64) ([]models.Tag, error) {
	var rows []models.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN tagged_items ti ON ti.tag_id = tags.id").
		Where("ti.content_type = ? AND ti.object_id = ?", contentType, objectID).
		Order("tags.label ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Detach(ctx context.Context, tagID int64, contentType string, objectID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tag_id = ? AND content_type = ? AND object_id = ?", tagID, contentType, objectID).
		Delete(&models.TaggedItem{})
	return res.RowsAffected, res.Error
}
