package mapper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/datastore/entities"
)

func setupService(t *testing.T) (*Service, *datastore.Store) {
	t.Helper()

	settings := &conf.DatabaseSettings{Type: "sqlite"}
	settings.SQLite.Path = t.TempDir() + "/test.db"

	store, err := datastore.Open(settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(store.Mappings), store
}

func seedMappings(t *testing.T, store *datastore.Store, rows map[string][]string) {
	t.Helper()

	var mappings []entities.ConceptMapping
	for providerID, canonicalIDs := range rows {
		for _, canonicalID := range canonicalIDs {
			mappings = append(mappings, entities.ConceptMapping{
				ProviderConceptID: providerID,
				CanonicalID:       canonicalID,
			})
		}
	}
	require.NoError(t, store.Mappings.ReplaceAll(context.Background(), mappings))
}

func writeMappingFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mapping.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveOneFanOut(t *testing.T) {
	t.Parallel()
	service, store := setupService(t)
	ctx := context.Background()

	seedMappings(t, store, map[string][]string{
		"/m/01yrx":   {"Q146", "Q25265"},
		"/m/0cnyhnx": {"Q8441"},
	})

	ids, err := service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Q146", "Q25265"}, ids)

	ids, err = service.ResolveOne(ctx, "/m/0cnyhnx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q8441"}, ids)
}

func TestResolveOneMiss(t *testing.T) {
	t.Parallel()
	service, store := setupService(t)
	ctx := context.Background()

	seedMappings(t, store, map[string][]string{"/m/01yrx": {"Q146"}})

	_, err := service.ResolveOne(ctx, "/m/unmapped")
	assert.ErrorIs(t, err, ErrMappingMiss)
}

func TestResolveOneServesFromCache(t *testing.T) {
	t.Parallel()
	service, store := setupService(t)
	ctx := context.Background()

	seedMappings(t, store, map[string][]string{"/m/01yrx": {"Q146"}})

	ids, err := service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)
	require.Equal(t, []string{"Q146"}, ids)

	// Empty the table behind the service's back. The cached entry keeps
	// serving until the next reload flushes it.
	seedMappings(t, store, map[string][]string{})

	ids, err = service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q146"}, ids)
}

func TestResolveOneCachesMisses(t *testing.T) {
	t.Parallel()
	service, store := setupService(t)
	ctx := context.Background()

	_, err := service.ResolveOne(ctx, "/m/01yrx")
	require.ErrorIs(t, err, ErrMappingMiss)

	// A mapping added behind the service's back is not seen: the miss is
	// cached and keeps short-circuiting the lookup.
	seedMappings(t, store, map[string][]string{"/m/01yrx": {"Q146"}})

	_, err = service.ResolveOne(ctx, "/m/01yrx")
	assert.ErrorIs(t, err, ErrMappingMiss)
}

func TestResolveBatchMixesCachedAndFetched(t *testing.T) {
	t.Parallel()
	service, store := setupService(t)
	ctx := context.Background()

	seedMappings(t, store, map[string][]string{
		"/m/01yrx":   {"Q146", "Q25265"},
		"/m/0cnyhnx": {"Q8441"},
	})

	// Warm the cache for one ID, then resolve a batch spanning cached,
	// uncached and unmapped IDs.
	_, err := service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)

	resolved, err := service.ResolveBatch(ctx, []string{"/m/01yrx", "/m/0cnyhnx", "/m/unmapped"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.ElementsMatch(t, []string{"Q146", "Q25265"}, resolved["/m/01yrx"])
	assert.Equal(t, []string{"Q8441"}, resolved["/m/0cnyhnx"])
	assert.NotContains(t, resolved, "/m/unmapped")
}

func TestLoadFileReplacesTable(t *testing.T) {
	t.Parallel()
	service, _ := setupService(t)
	ctx := context.Background()

	first := writeMappingFile(t, "# freebase to wikidata\n"+
		"/m/01yrx\thttp://www.wikidata.org/entity/Q146\n"+
		"/m/0cnyhnx\tQ8441\n")

	rows, err := service.LoadFile(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	count, err := service.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ids, err := service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q146"}, ids)
}

func TestLoadFileFlushesCache(t *testing.T) {
	t.Parallel()
	service, _ := setupService(t)
	ctx := context.Background()

	first := writeMappingFile(t, "/m/01yrx\tQ146\n")
	_, err := service.LoadFile(ctx, first)
	require.NoError(t, err)

	// Warm the cache, including a cached miss.
	ids, err := service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)
	require.Equal(t, []string{"Q146"}, ids)
	_, err = service.ResolveOne(ctx, "/m/0cnyhnx")
	require.ErrorIs(t, err, ErrMappingMiss)

	second := writeMappingFile(t, "/m/01yrx\tQ3003035\n/m/0cnyhnx\tQ8441\n")
	_, err = service.LoadFile(ctx, second)
	require.NoError(t, err)

	ids, err = service.ResolveOne(ctx, "/m/01yrx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q3003035"}, ids, "reload must invalidate cached fan-outs")

	ids, err = service.ResolveOne(ctx, "/m/0cnyhnx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q8441"}, ids, "reload must invalidate cached misses")
}

func TestLoadFileMalformedLoadsNothing(t *testing.T) {
	t.Parallel()
	service, _ := setupService(t)
	ctx := context.Background()

	path := writeMappingFile(t, "/m/01yrx\tQ146\nnot a mapping line\n")
	_, err := service.LoadFile(ctx, path)
	require.Error(t, err)

	count, err := service.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
