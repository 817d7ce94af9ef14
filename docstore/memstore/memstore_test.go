package memstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore/memstore"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	err := store.Put(ctx, "shops", "shop_00001", docstore.Document{"name": "ร้านป้าศรี"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "shops", "shop_00001")
	require.NoError(t, err)
	require.Equal(t, "ร้านป้าศรี", doc["name"])

	err = store.Delete(ctx, "shops", "shop_00001")
	require.NoError(t, err)

	_, err = store.Get(ctx, "shops", "shop_00001")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetUnknownCollection(t *testing.T) {
	store := memstore.New()

	_, err := store.Get(context.Background(), "missing", "key")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, store.Put(ctx, "shops", "s1", docstore.Document{"name": "before"}))

	doc, err := store.Get(ctx, "shops", "s1")
	require.NoError(t, err)
	doc["name"] = "after"

	again, err := store.Get(ctx, "shops", "s1")
	require.NoError(t, err)
	require.Equal(t, "before", again["name"])
}

func TestQueryWithFilter(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, store.Put(ctx, "owners", "a", docstore.Document{"shop_id": "shop_00001", "active": true}))
	require.NoError(t, store.Put(ctx, "owners", "b", docstore.Document{"shop_id": "shop_00002", "active": true}))
	require.NoError(t, store.Put(ctx, "owners", "c", docstore.Document{"shop_id": "shop_00001", "active": false}))

	results, err := store.Query(ctx, "owners", func(doc docstore.Document) bool {
		return doc["shop_id"] == "shop_00001"
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	all, err := store.Query(ctx, "owners", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestUpdateCreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	err := store.Update(ctx, "counters", "shops", func(doc docstore.Document) (docstore.Document, error) {
		require.Nil(t, doc)
		return docstore.Document{"next": int64(1)}, nil
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "counters", "shops")
	require.NoError(t, err)
	require.Equal(t, int64(1), doc["next"])
}

func TestUpdateIsAtomicPerKey(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "counters", "shops", func(doc docstore.Document) (docstore.Document, error) {
				var n int64
				if doc != nil {
					n = doc["next"].(int64)
				}
				return docstore.Document{"next": n + 1}, nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := store.Get(ctx, "counters", "shops")
	require.NoError(t, err)
	require.Equal(t, int64(workers), doc["next"])
}

func TestEmptyCollectionOrKeyRejected(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	require.Error(t, store.Put(ctx, "", "k", docstore.Document{}))
	require.Error(t, store.Put(ctx, "c", "", docstore.Document{}))
	_, err := store.Get(ctx, "", "k")
	require.Error(t, err)
}
