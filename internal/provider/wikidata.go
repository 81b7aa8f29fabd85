package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/review"
)

const (
	// WikidataName is the stable storage name for the random-item test
	// provider.
	WikidataName = "random-wikidata"

	wikidataDefaultEndpoint = "https://www.wikidata.org/w/api.php"
	wikidataUserAgent       = "machinevision https://github.com/vireolabs/machinevision"
	wikidataSuggestionCount = 3
)

// Wikidata is a test provider that suggests random Wikidata items. Its
// suggestions are already in canonical identifier space and bypass the
// concept mapper.
type Wikidata struct {
	endpoint string
	client   *http.Client
}

// NewWikidata builds the random-item test provider.
func NewWikidata(settings *conf.WikidataSettings) *Wikidata {
	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = wikidataDefaultEndpoint
	}
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Wikidata{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name implements Client.
func (w *Wikidata) Name() string {
	return WikidataName
}

type wikidataRandomResponse struct {
	Query struct {
		Random []struct {
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query"`
}

// Annotate implements Client. The image URL is ignored: the provider
// returns random items regardless of content, with zero safety scores.
func (w *Wikidata) Annotate(ctx context.Context, imageURL string) (*Annotation, error) {
	url := fmt.Sprintf("%s?action=query&format=json&list=random&rnnamespace=0&rnlimit=%d",
		w.endpoint, wikidataSuggestionCount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageProvider).
			Context("operation", "wikidata_request").
			Build()
	}
	req.Header.Set("User-Agent", wikidataUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryNetwork).
			Context("operation", "wikidata_fetch").
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("wikidata API returned status %d", resp.StatusCode).
			Category(errors.CategoryImageProvider).
			Context("operation", "wikidata_fetch").
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryNetwork).
			Context("operation", "wikidata_read").
			Build()
	}

	var decoded wikidataRandomResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageProvider).
			Context("operation", "wikidata_decode").
			Build()
	}

	annotation := &Annotation{Safety: review.Scores{}}
	for _, item := range decoded.Query.Random {
		annotation.Suggestions = append(annotation.Suggestions, Suggestion{
			ProviderConceptID: item.Title,
			Confidence:        0,
		})
	}
	return annotation, nil
}

// Canonical reports that this provider's concept IDs need no mapping.
func (w *Wikidata) Canonical() bool {
	return true
}
