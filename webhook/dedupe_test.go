package webhook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore/memstore"
	"github.com/chonlathan-cloud/lineoa-public-mirror/webhook"
)

// brokenStore fails every operation, exercising the fail-open path.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string, string) (docstore.Document, error) {
	return nil, docstore.ErrNotFound
}

func (brokenStore) Put(context.Context, string, string, docstore.Document) error {
	return context.DeadlineExceeded
}

func (brokenStore) Delete(context.Context, string, string) error {
	return context.DeadlineExceeded
}

func (brokenStore) Query(context.Context, string, docstore.Filter) ([]docstore.Keyed, error) {
	return nil, context.DeadlineExceeded
}

func (brokenStore) Update(context.Context, string, string, docstore.UpdateFunc) error {
	return context.DeadlineExceeded
}

func TestSeenFirstDeliveryIsNew(t *testing.T) {
	deduper, err := webhook.NewDeduper(memstore.New())
	require.NoError(t, err)

	require.False(t, deduper.Seen(context.Background(), testShopID, "evt-1"))
	require.True(t, deduper.Seen(context.Background(), testShopID, "evt-1"))
}

func TestSeenScopedPerShop(t *testing.T) {
	deduper, err := webhook.NewDeduper(memstore.New())
	require.NoError(t, err)

	require.False(t, deduper.Seen(context.Background(), "shop_00001", "evt-1"))
	require.False(t, deduper.Seen(context.Background(), "shop_00002", "evt-1"))
}

func TestSeenEmptyEventIDAlwaysNew(t *testing.T) {
	deduper, err := webhook.NewDeduper(memstore.New())
	require.NoError(t, err)

	require.False(t, deduper.Seen(context.Background(), testShopID, ""))
	require.False(t, deduper.Seen(context.Background(), testShopID, ""))
}

func TestSeenFailsOpenOnStoreErrors(t *testing.T) {
	deduper, err := webhook.NewDeduper(brokenStore{})
	require.NoError(t, err)

	require.False(t, deduper.Seen(context.Background(), testShopID, "evt-1"))
	require.False(t, deduper.Seen(context.Background(), testShopID, "evt-1"))
}
