package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	require.NotNil(t, m.Datastore)
	require.NotNil(t, m.Labeling)

	m.Datastore.RecordDbOperation("label_insert_batch", "labels", "success")
	m.Datastore.RecordTransaction("committed")
	m.Labeling.RecordLabelsIngested("google-cloud-vision", "unreviewed", 3)
	m.Labeling.RecordReviewDecision("applied")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["datastore_db_operations_total"])
	assert.True(t, names["datastore_db_transactions_total"])
	assert.True(t, names["labeling_labels_ingested_total"])
	assert.True(t, names["labeling_review_decisions_total"])
}
