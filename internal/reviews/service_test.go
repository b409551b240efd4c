package reviews

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestReviewsNestedUnderProduct(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	collection := &models.Collection{Title: "Books"}
	require.NoError(t, conn.Create(collection).Error)
	book := &models.Product{Title: "Novel", Slug: "novel", UnitPrice: decimal.NewFromInt(12), CollectionID: collection.ID}
	other := &models.Product{Title: "Atlas", Slug: "atlas", UnitPrice: decimal.NewFromInt(30), CollectionID: collection.ID}
	require.NoError(t, conn.Create(book).Error)
	require.NoError(t, conn.Create(other).Error)

	created, err := svc.Create(ctx, book.ID, ReviewInput{Name: "Ann", Description: "Loved it"})
	require.NoError(t, err)
	require.Equal(t, book.ID, created.ProductID)
	require.False(t, created.Date.IsZero())

	_, err = svc.Get(ctx, other.ID, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "review must be scoped to its product")

	updated, err := svc.Update(ctx, book.ID, created.ID, ReviewInput{Name: "Ann", Description: "Still love it"})
	require.NoError(t, err)
	require.Equal(t, "Still love it", updated.Description)

	list, err := svc.List(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.List(ctx, 9999)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Create(ctx, 9999, ReviewInput{Name: "x", Description: "y"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Create(ctx, book.ID, ReviewInput{Name: " ", Description: "y"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, other.ID, created.ID), pkgerrors.CodeNotFound))
	require.NoError(t, svc.Delete(ctx, book.ID, created.ID))
	list, err = svc.List(ctx, book.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
