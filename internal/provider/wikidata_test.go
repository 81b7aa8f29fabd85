package provider

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireolabs/machinevision/internal/conf"
)

func setupWikidata(t *testing.T) *Wikidata {
	t.Helper()

	client := NewWikidata(&conf.WikidataSettings{
		Endpoint:       "https://wikidata.test/w/api.php",
		TimeoutSeconds: 5,
	})
	httpmock.ActivateNonDefault(client.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestWikidataAnnotate(t *testing.T) {
	client := setupWikidata(t)

	httpmock.RegisterResponder(http.MethodGet, "https://wikidata.test/w/api.php",
		httpmock.NewStringResponder(http.StatusOK, `{
			"query": {
				"random": [
					{"id": 1, "title": "Q146"},
					{"id": 2, "title": "Q144"}
				]
			}
		}`))

	annotation, err := client.Annotate(context.Background(), "https://example.test/cat.jpg")
	require.NoError(t, err)
	require.Len(t, annotation.Suggestions, 2)
	assert.Equal(t, "Q146", annotation.Suggestions[0].ProviderConceptID)
	assert.Equal(t, "Q144", annotation.Suggestions[1].ProviderConceptID)
	assert.Zero(t, annotation.Safety.Adult, "test provider reports no safety signal")
}

func TestWikidataAnnotateServerError(t *testing.T) {
	client := setupWikidata(t)

	httpmock.RegisterResponder(http.MethodGet, "https://wikidata.test/w/api.php",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	_, err := client.Annotate(context.Background(), "https://example.test/cat.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestWikidataAnnotateMalformedBody(t *testing.T) {
	client := setupWikidata(t)

	httpmock.RegisterResponder(http.MethodGet, "https://wikidata.test/w/api.php",
		httpmock.NewStringResponder(http.StatusOK, "not json"))

	_, err := client.Annotate(context.Background(), "https://example.test/cat.jpg")
	require.Error(t, err)
}

func TestWikidataIsCanonical(t *testing.T) {
	t.Parallel()

	client := NewWikidata(&conf.WikidataSettings{})
	assert.True(t, client.Canonical())
	assert.Equal(t, WikidataName, client.Name())
}
