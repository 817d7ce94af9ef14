package shops_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore/memstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
	"github.com/chonlathan-cloud/lineoa-public-mirror/shops"
)

func TestCounterAllocatorSequence(t *testing.T) {
	allocator, err := shops.NewCounterAllocator(memstore.New())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		id, err := allocator.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"shop_00001", "shop_00002", "shop_00003"}[i-1], id)
	}
}

func TestCounterAllocatorConcurrentUniqueness(t *testing.T) {
	allocator, err := shops.NewCounterAllocator(memstore.New())
	require.NoError(t, err)

	const workers = 32
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			id, err := allocator.Next(context.Background())
			require.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, workers)
}

func TestUUIDAllocator(t *testing.T) {
	allocator := shops.UUIDAllocator{}

	a, err := allocator.Next(context.Background())
	require.NoError(t, err)
	b, err := allocator.Next(context.Background())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(a, "shop_"))
	require.NotEqual(t, a, b)
}

func TestRepoCreateAndGet(t *testing.T) {
	repo, err := shops.NewRepo(memstore.New())
	require.NoError(t, err)

	created := &shops.Shop{
		ID:          "shop_00001",
		Name:        "ร้านป้าศรี",
		ContactName: "สมชาย ใจดี",
		Phone:       "0812345678",
		Location:    &shops.Location{Lat: 13.7563, Lng: 100.5018, Address: "Bangkok"},
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), created))

	got, err := repo.Get(context.Background(), "shop_00001")
	require.NoError(t, err)
	require.Equal(t, created.Name, got.Name)
	require.Equal(t, created.ContactName, got.ContactName)
	require.Equal(t, created.Phone, got.Phone)
	require.False(t, got.Online)
	require.NotNil(t, got.Location)
	require.Equal(t, created.Location.Address, got.Location.Address)
	require.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestRepoOnlineShopHasNoLocation(t *testing.T) {
	repo, err := shops.NewRepo(memstore.New())
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), &shops.Shop{
		ID:     "shop_00002",
		Name:   "ร้านออนไลน์ของฉัน",
		Online: true,
	}))

	got, err := repo.Get(context.Background(), "shop_00002")
	require.NoError(t, err)
	require.True(t, got.Online)
	require.Nil(t, got.Location)
}

func TestRepoGetUnknownShop(t *testing.T) {
	repo, err := shops.NewRepo(memstore.New())
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), "shop_99999")
	require.ErrorIs(t, err, interrors.ErrShopNotFound)
}
