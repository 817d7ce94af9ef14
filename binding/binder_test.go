package binding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/binding"
	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore/memstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

const testGlobalID = "liff-user-abc"

func testClaims() binding.Claims {
	return binding.Claims{SubjectID: testSubjectID, ShopID: testShopID}
}

func TestBindWritesBothViews(t *testing.T) {
	ctx := context.Background()
	binder, err := binding.NewBinder(memstore.New())
	require.NoError(t, err)

	require.NoError(t, binder.Bind(ctx, testGlobalID, testClaims(), "Somchai"))

	byOwner, err := binder.ShopsForOwner(ctx, testGlobalID)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	require.Equal(t, testShopID, byOwner[0].ShopID)
	require.Equal(t, testSubjectID, byOwner[0].LocalID)
	require.Equal(t, "Somchai", byOwner[0].DisplayName)
	require.True(t, byOwner[0].Active)

	byShop, err := binder.OwnersForShop(ctx, testShopID)
	require.NoError(t, err)
	require.Len(t, byShop, 1)
	require.Equal(t, testGlobalID, byShop[0].GlobalID)
	require.Equal(t, testSubjectID, byShop[0].LocalID)
}

func TestBindIsIdempotent(t *testing.T) {
	ctx := context.Background()
	binder, err := binding.NewBinder(memstore.New())
	require.NoError(t, err)

	// A redelivered handoff re-runs the same write.
	require.NoError(t, binder.Bind(ctx, testGlobalID, testClaims(), "Somchai"))
	require.NoError(t, binder.Bind(ctx, testGlobalID, testClaims(), "Somchai"))

	byOwner, err := binder.ShopsForOwner(ctx, testGlobalID)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)

	byShop, err := binder.OwnersForShop(ctx, testShopID)
	require.NoError(t, err)
	require.Len(t, byShop, 1)
}

func TestBindConflictOnDifferentLocalID(t *testing.T) {
	ctx := context.Background()
	binder, err := binding.NewBinder(memstore.New())
	require.NoError(t, err)

	require.NoError(t, binder.Bind(ctx, testGlobalID, testClaims(), "Somchai"))

	other := binding.Claims{SubjectID: "U_consumer_2", ShopID: testShopID}
	err = binder.Bind(ctx, testGlobalID, other, "Somchai")
	require.ErrorIs(t, err, interrors.ErrBindingConflict)

	// The original mapping survives.
	byOwner, err := binder.ShopsForOwner(ctx, testGlobalID)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	require.Equal(t, testSubjectID, byOwner[0].LocalID)
}

func TestBindMultipleShopsPerOwner(t *testing.T) {
	ctx := context.Background()
	binder, err := binding.NewBinder(memstore.New())
	require.NoError(t, err)

	require.NoError(t, binder.Bind(ctx, testGlobalID, binding.Claims{SubjectID: testSubjectID, ShopID: "shop_00001"}, "Somchai"))
	require.NoError(t, binder.Bind(ctx, testGlobalID, binding.Claims{SubjectID: testSubjectID, ShopID: "shop_00002"}, "Somchai"))

	byOwner, err := binder.ShopsForOwner(ctx, testGlobalID)
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
}

func TestBindRejectsIncompleteClaims(t *testing.T) {
	binder, err := binding.NewBinder(memstore.New())
	require.NoError(t, err)

	err = binder.Bind(context.Background(), testGlobalID, binding.Claims{ShopID: testShopID}, "x")
	require.ErrorIs(t, err, interrors.ErrTokenInvalid)

	err = binder.Bind(context.Background(), "", testClaims(), "x")
	require.Error(t, err)
}
