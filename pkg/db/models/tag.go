package models

// Tag is a label that can be attached to any catalog object.
type Tag struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Label string `gorm:"column:label;not null"`
}

func (Tag) TableName() string { return "tags" }

// TaggedItem links a tag to an object identified by its content type and id.
type TaggedItem struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TagID       int64  `gorm:"column:tag_id;not null;uniqueIndex:ux_tagged_items_tag_object,priority:1"`
	Tag         *Tag   `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
	ContentType string `gorm:"column:content_type;not null;uniqueIndex:ux_tagged_items_tag_object,priority:2"`
	ObjectID    int64  `gorm:"column:object_id;not null;uniqueIndex:ux_tagged_items_tag_object,priority:3"`
}

func (TaggedItem) TableName() string { return "tagged_items" }
