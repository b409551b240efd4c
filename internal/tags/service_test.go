package tags

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestTaggingLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	collection := &models.Collection{Title: "Garden"}
	require.NoError(t, conn.Create(collection).Error)
	product := &models.Product{Title: "Rake", Slug: "rake", UnitPrice: decimal.NewFromInt(15), CollectionID: collection.ID}
	require.NoError(t, conn.Create(product).Error)

	outdoor, err := svc.CreateTag(ctx, CreateTagInput{Label: "outdoor"})
	require.NoError(t, err)
	tools, err := svc.CreateTag(ctx, CreateTagInput{Label: "tools"})
	require.NoError(t, err)

	ref := ObjectRef{ContentType: "Product", ObjectID: product.ID}
	require.NoError(t, svc.Tag(ctx, TagObjectInput{TagID: tools.ID, ObjectRef: ref}))
	require.NoError(t, svc.Tag(ctx, TagObjectInput{TagID: outdoor.ID, ObjectRef: ref}))
	require.NoError(t, svc.Tag(ctx, TagObjectInput{TagID: outdoor.ID, ObjectRef: ref}), "tagging twice is idempotent")

	got, err := svc.TagsFor(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, []TagDTO{{ID: outdoor.ID, Label: "outdoor"}, {ID: tools.ID, Label: "tools"}}, got)

	collectionTags, err := svc.TagsFor(ctx, ObjectRef{ContentType: "collection", ObjectID: collection.ID})
	require.NoError(t, err)
	require.Empty(t, collectionTags)

	require.NoError(t, svc.Untag(ctx, TagObjectInput{TagID: tools.ID, ObjectRef: ref}))
	require.True(t, pkgerrors.IsCode(svc.Untag(ctx, TagObjectInput{TagID: tools.ID, ObjectRef: ref}), pkgerrors.CodeNotFound))

	err = svc.Tag(ctx, TagObjectInput{TagID: outdoor.ID, ObjectRef: ObjectRef{ContentType: "product", ObjectID: 999}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	err = svc.Tag(ctx, TagObjectInput{TagID: 999, ObjectRef: ref})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.TagsFor(ctx, ObjectRef{ContentType: "order", ObjectID: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	all, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
