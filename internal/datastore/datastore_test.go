package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/datastore/repository"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/review"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	settings := &conf.DatabaseSettings{Type: "sqlite"}
	settings.SQLite.Path = t.TempDir() + "/test.db"

	store, err := Open(settings)
	require.NoError(t, err, "failed to open in-memory database")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedLabelBatch(t *testing.T, store *Store, sha1 string, uploaderID int64, priority int, providerName string, state review.State, conceptIDs ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Images.GetOrCreate(ctx, sha1, uploaderID, priority)
	require.NoError(t, err)
	prov, err := store.Providers.GetOrCreate(ctx, providerName)
	require.NoError(t, err)

	createdAt := time.Now().UTC()
	labels := make([]entities.Label, 0, len(conceptIDs))
	for _, conceptID := range conceptIDs {
		labels = append(labels, entities.Label{
			ImageSHA1:  sha1,
			ProviderID: prov.ID,
			ConceptID:  conceptID,
			Confidence: 0.9,
			State:      state,
			CreatedAt:  createdAt,
		})
	}
	_, err = store.Labels.InsertBatch(ctx, labels)
	require.NoError(t, err)
}

func TestProviderGetOrCreate(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Providers.GetOrCreate(ctx, "google-cloud-vision")
	require.NoError(t, err)
	second, err := store.Providers.GetOrCreate(ctx, "google-cloud-vision")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same name must keep the same ID")

	other, err := store.Providers.GetOrCreate(ctx, "random-wikidata")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = store.Providers.GetByName(ctx, "unknown")
	assert.ErrorIs(t, err, repository.ErrProviderNotFound)
}

func TestProviderGetByID(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.Providers.GetOrCreate(ctx, "google-cloud-vision")
	require.NoError(t, err)

	found, err := store.Providers.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "google-cloud-vision", found.Name)

	_, err = store.Providers.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, repository.ErrProviderNotFound)
}

func TestStorePing(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	assert.NoError(t, store.Ping(context.Background(), time.Second))
}

func TestProviderGetOrCreateRejectsEmptyName(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	_, err := store.Providers.GetOrCreate(context.Background(), "  ")
	require.Error(t, err)

	var enhanced *errors.EnhancedError
	require.ErrorAs(t, err, &enhanced)
	assert.Equal(t, errors.CategoryValidation, enhanced.GetCategory())
}

func TestImageGetOrCreateKeepsExistingRow(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.Images.GetOrCreate(ctx, "da39a3ee5e6b4b0d3255bfef95601890afd80709", 42, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.UploaderID)
	assert.Equal(t, 7, created.Priority)

	again, err := store.Images.GetOrCreate(ctx, "da39a3ee5e6b4b0d3255bfef95601890afd80709", 99, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), again.UploaderID, "existing row must not be overwritten")
	assert.Equal(t, 7, again.Priority)
}

func TestImageSetPriority(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Images.GetOrCreate(ctx, "aaaa", 1, 0)
	require.NoError(t, err)

	require.NoError(t, store.Images.SetPriority(ctx, "aaaa", 5))
	image, err := store.Images.GetBySHA1(ctx, "aaaa")
	require.NoError(t, err)
	assert.Equal(t, 5, image.Priority)

	err = store.Images.SetPriority(ctx, "missing", 5)
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}

func TestLabelInsertBatchIgnoresDuplicates(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "img1", 1, 0, "google-cloud-vision", review.StateUnreviewed, "Q146", "Q144")

	prov, err := store.Providers.GetByName(ctx, "google-cloud-vision")
	require.NoError(t, err)

	inserted, err := store.Labels.InsertBatch(ctx, []entities.Label{
		{ImageSHA1: "img1", ProviderID: prov.ID, ConceptID: "Q146", State: review.StateUnreviewed, CreatedAt: time.Now().UTC()},
		{ImageSHA1: "img1", ProviderID: prov.ID, ConceptID: "Q42", State: review.StateUnreviewed, CreatedAt: time.Now().UTC()},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted, "only the new triple should insert")

	labels, err := store.Labels.GetByImage(ctx, "img1")
	require.NoError(t, err)
	assert.Len(t, labels, 3)
}

func TestLabelSameConceptFromTwoProviders(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "img1", 1, 0, "google-cloud-vision", review.StateUnreviewed, "Q146")
	seedLabelBatch(t, store, "img1", 1, 0, "random-wikidata", review.StateUnreviewed, "Q146")

	labels, err := store.Labels.GetByImage(ctx, "img1")
	require.NoError(t, err)
	require.Len(t, labels, 2, "the triple differs by provider, both rows must exist")
	require.NotNil(t, labels[0].Provider)
	require.NotNil(t, labels[1].Provider)
	assert.NotEqual(t, labels[0].Provider.Name, labels[1].Provider.Name)
}

func TestLabelGetStateSmallestRowWins(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "img1", 1, 0, "google-cloud-vision", review.StateWithheldPopular, "Q146")
	seedLabelBatch(t, store, "img1", 1, 0, "random-wikidata", review.StateUnreviewed, "Q146")

	state, err := store.Labels.GetState(ctx, "img1", "Q146")
	require.NoError(t, err)
	assert.Equal(t, review.StateWithheldPopular, state)

	_, err = store.Labels.GetState(ctx, "img1", "Q999")
	assert.ErrorIs(t, err, repository.ErrLabelNotFound)
}

func TestLabelUpdateStateIf(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "img1", 1, 0, "google-cloud-vision", review.StateUnreviewed, "Q146")

	reviewedAt := time.Now().UTC()
	rows, err := store.Labels.UpdateStateIf(ctx, "img1", "Q146", review.StateUnreviewed, review.StateAccepted, 7, reviewedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	state, err := store.Labels.GetState(ctx, "img1", "Q146")
	require.NoError(t, err)
	assert.Equal(t, review.StateAccepted, state)

	labels, err := store.Labels.GetByImage(ctx, "img1")
	require.NoError(t, err)
	require.Len(t, labels, 1)
	require.NotNil(t, labels[0].ReviewerID)
	assert.Equal(t, int64(7), *labels[0].ReviewerID)
	require.NotNil(t, labels[0].ReviewedAt)

	// Stale precondition: the row is no longer unreviewed.
	rows, err = store.Labels.UpdateStateIf(ctx, "img1", "Q146", review.StateUnreviewed, review.StateRejected, 8, reviewedAt)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestListImagesWithStatesOrdering(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "low", 1, 0, "google-cloud-vision", review.StateUnreviewed, "Q1")
	seedLabelBatch(t, store, "high", 2, 10, "google-cloud-vision", review.StateUnreviewed, "Q2")
	seedLabelBatch(t, store, "mid", 3, 5, "google-cloud-vision", review.StateUnreviewed, "Q3")
	seedLabelBatch(t, store, "reviewed", 4, 20, "google-cloud-vision", review.StateAccepted, "Q4")

	sha1s, err := store.Labels.ListImagesWithStates(ctx, []review.State{review.StateUnreviewed}, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid", "low"}, sha1s)

	sha1s, err = store.Labels.ListImagesWithStates(ctx, []review.State{review.StateUnreviewed}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid"}, sha1s)
}

func TestListImagesWithStatesUploaderFilter(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "mine", 7, 0, "google-cloud-vision", review.StateUnreviewed, "Q1")
	seedLabelBatch(t, store, "withheld", 7, 0, "google-cloud-vision", review.StateWithheldPopular, "Q2")
	seedLabelBatch(t, store, "theirs", 8, 0, "google-cloud-vision", review.StateUnreviewed, "Q3")

	uploader := int64(7)
	states := []review.State{review.StateUnreviewed, review.StateWithheldPopular}
	sha1s, err := store.Labels.ListImagesWithStates(ctx, states, 10, &uploader)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mine", "withheld"}, sha1s)

	count, err := store.Labels.CountImagesWithStates(ctx, states, uploader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = store.Labels.CountImagesWithStates(ctx, states, 9)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountByState(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	seedLabelBatch(t, store, "img1", 1, 0, "google-cloud-vision", review.StateUnreviewed, "Q1", "Q2")
	seedLabelBatch(t, store, "img2", 1, 0, "google-cloud-vision", review.StateWithheldAll, "Q3")

	counts, err := store.Labels.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[review.StateUnreviewed])
	assert.Equal(t, int64(1), counts[review.StateWithheldAll])
	assert.Zero(t, counts[review.StateAccepted])
}

func TestSafetyUpsertOverwrites(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Safety.Upsert(ctx, &entities.SafetyAnnotation{
		ImageSHA1: "img1", Adult: 2, Racy: 3,
	}))
	require.NoError(t, store.Safety.Upsert(ctx, &entities.SafetyAnnotation{
		ImageSHA1: "img1", Adult: 5, Violence: 1,
	}))

	annotation, err := store.Safety.GetByImage(ctx, "img1")
	require.NoError(t, err)
	assert.Equal(t, 5, annotation.Adult)
	assert.Equal(t, 1, annotation.Violence)
	assert.Zero(t, annotation.Racy, "upsert replaces the whole score set")

	_, err = store.Safety.GetByImage(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSafetyAnnotationNotFound)
}

func TestMappingReplaceAllAndResolve(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Mappings.ReplaceAll(ctx, []entities.ConceptMapping{
		{ProviderConceptID: "/m/01yrx", CanonicalID: "Q146"},
		{ProviderConceptID: "/m/01yrx", CanonicalID: "Q25265"},
		{ProviderConceptID: "/m/0bt9lr", CanonicalID: "Q144"},
	}))

	ids, err := store.Mappings.Resolve(ctx, "/m/01yrx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q146", "Q25265"}, ids)

	resolved, err := store.Mappings.ResolveBatch(ctx, []string{"/m/01yrx", "/m/0bt9lr", "/m/unmapped"})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.NotContains(t, resolved, "/m/unmapped")

	// A reload fully replaces the previous table.
	require.NoError(t, store.Mappings.ReplaceAll(ctx, []entities.ConceptMapping{
		{ProviderConceptID: "/m/0bt9lr", CanonicalID: "Q144"},
	}))
	ids, err = store.Mappings.Resolve(ctx, "/m/01yrx")
	require.NoError(t, err)
	assert.Empty(t, ids)

	count, err := store.Mappings.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	sentinel := errors.NewStd("boom")
	err := store.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Images.GetOrCreate(ctx, "img1", 1, 0); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.Images.GetBySHA1(ctx, "img1")
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}
