package destination_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/partiu085-web/internal/destination"
)

func sampleList() []destination.Destination {
	return []destination.Destination{
		{IATA: "MIA", City: "Miami", Country: "EUA"},
		{IATA: "LIS", City: "Lisboa", Country: "Portugal"},
		{IATA: "MAD", City: "Madri", Country: "Espanha"},
		{IATA: "DXB", City: "Dubai", Country: "Emirados Árabes"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- ActiveTerm / Search ----

func TestActiveTerm(t *testing.T) {
	assert.Equal(t, "MIA", destination.ActiveTerm("mia"))
	assert.Equal(t, "LI", destination.ActiveTerm("MIA, li"))
	assert.Equal(t, "", destination.ActiveTerm("MIA, "))
	assert.Equal(t, "", destination.ActiveTerm(""))
}

func TestSearch_ByIATA(t *testing.T) {
	list := []destination.Destination{
		{IATA: "MIA", City: "Miami"},
		{IATA: "LIS", City: "Lisboa"},
	}

	got := destination.Search(list, "MIA", 0)

	require.Len(t, got, 1)
	assert.Equal(t, "MIA", got[0].IATA)
	assert.Equal(t, "Miami", got[0].City)
}

func TestSearch_ByCityAndCountry(t *testing.T) {
	got := destination.Search(sampleList(), "lisb", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "LIS", got[0].IATA)

	got = destination.Search(sampleList(), "espanha", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "MAD", got[0].IATA)
}

func TestSearch_UsesTermAfterLastComma(t *testing.T) {
	got := destination.Search(sampleList(), "MIA, dub", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "DXB", got[0].IATA)
}

func TestSearch_EmptyTerm(t *testing.T) {
	assert.Empty(t, destination.Search(sampleList(), "", 0))
	assert.Empty(t, destination.Search(sampleList(), "MIA,  ", 0))
}

func TestSearch_CapsResults(t *testing.T) {
	var list []destination.Destination
	for i := 0; i < 30; i++ {
		list = append(list, destination.Destination{IATA: fmt.Sprintf("A%02d", i), City: "Aracaju"})
	}

	assert.Len(t, destination.Search(list, "A", 0), destination.DefaultLimit)
	assert.Len(t, destination.Search(list, "A", 2), destination.MinLimit)
	assert.Len(t, destination.Search(list, "A", 8), 8)
	assert.Len(t, destination.Search(list, "A", 50), destination.MaxLimit)
}

// ---- Complete / Terms ----

func TestComplete(t *testing.T) {
	assert.Equal(t, "MIA, ", destination.Complete("mi", "MIA"))
	assert.Equal(t, "MIA, LIS, ", destination.Complete("MIA, li", "LIS"))
	assert.Equal(t, "MIA, LIS, DXB, ", destination.Complete("mia,lis, du", "DXB"))
	assert.Equal(t, "MIA, LIS, ", destination.Complete("MIA, ", "LIS"))
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"MIA", "LIS"}, destination.Terms(" mia, lis, "))
	assert.Nil(t, destination.Terms(" , "))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Miami (EUA)", destination.Destination{City: "Miami", Country: "EUA"}.Label())
	assert.Equal(t, "Miami", destination.Destination{City: "Miami"}.Label())
}

// ---- Catalog ----

type mockListCache struct {
	mu   sync.Mutex
	list []destination.Destination
	err     error
	sets    int
	deletes int
}

func (m *mockListCache) GetDestinations(_ context.Context) ([]destination.Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list, m.err
}

func (m *mockListCache) SetDestinations(_ context.Context, list []destination.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = list
	m.sets++
	return nil
}

func (m *mockListCache) DeleteDestinations(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = nil
	m.deletes++
	return nil
}

func TestCatalog_LoadsOnce(t *testing.T) {
	calls := 0
	load := func(_ context.Context) []destination.Destination {
		calls++
		return sampleList()
	}
	c := destination.NewCatalog(load, nil, discardLogger())

	for i := 0; i < 3; i++ {
		assert.Len(t, c.All(context.Background()), 4)
	}
	assert.Equal(t, 1, calls)
}

func TestCatalog_RetriesAfterEmptyLoad(t *testing.T) {
	calls := 0
	load := func(_ context.Context) []destination.Destination {
		calls++
		if calls == 1 {
			return nil
		}
		return sampleList()
	}
	c := destination.NewCatalog(load, nil, discardLogger())

	assert.Empty(t, c.All(context.Background()))
	assert.Len(t, c.All(context.Background()), 4)
	assert.Equal(t, 2, calls)
}

func TestCatalog_PrefersCache(t *testing.T) {
	cache := &mockListCache{list: sampleList()[:1]}
	load := func(_ context.Context) []destination.Destination {
		t.Fatal("backend should not be called on cache hit")
		return nil
	}
	c := destination.NewCatalog(load, cache, discardLogger())

	got := c.All(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "MIA", got[0].IATA)
}

func TestCatalog_PopulatesCacheOnMiss(t *testing.T) {
	cache := &mockListCache{err: fmt.Errorf("redis down")}
	c := destination.NewCatalog(func(_ context.Context) []destination.Destination { return sampleList() }, cache, discardLogger())

	assert.Len(t, c.All(context.Background()), 4)
	assert.Equal(t, 1, cache.sets)
}

func TestCatalog_Search(t *testing.T) {
	c := destination.NewCatalog(func(_ context.Context) []destination.Destination { return sampleList() }, nil, discardLogger())

	got := c.Search(context.Background(), "MIA", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Miami", got[0].City)
}

func TestCatalog_ConcurrentCallersShareLoad(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(_ context.Context) []destination.Destination {
		calls.Add(1)
		<-release
		return sampleList()
	}
	c := destination.NewCatalog(load, nil, discardLogger())

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = len(c.All(context.Background()))
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{4, 4, 4, 4, 4}, results)
}

func TestCatalog_FailingLoadDoesNotQueueCallers(t *testing.T) {
	load := func(_ context.Context) []destination.Destination {
		time.Sleep(200 * time.Millisecond)
		return nil
	}
	c := destination.NewCatalog(load, nil, discardLogger())

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Empty(t, c.Search(context.Background(), "MIA", 0))
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 600*time.Millisecond)
}

func TestCatalog_Reload(t *testing.T) {
	var calls atomic.Int32
	load := func(_ context.Context) []destination.Destination {
		if calls.Add(1) == 1 {
			return sampleList()[:2]
		}
		return sampleList()
	}
	cache := &mockListCache{}
	c := destination.NewCatalog(load, cache, discardLogger())

	assert.Len(t, c.All(context.Background()), 2)
	assert.Len(t, c.Reload(context.Background()), 4)
	assert.Len(t, c.All(context.Background()), 4)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, cache.deletes)
	assert.Equal(t, 2, cache.sets)
}
