package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	contractx "github.com/nvejas/citeline/agent/contract"
)

type ElasticConfig struct {
	Addresses []string `split_words:"true" required:"true"`
	Username  string   `split_words:"true"`
	Password  string   `split_words:"true"`
	Index     string   `split_words:"true" default:"documents"`
	Size      int      `split_words:"true" default:"8"`
}

// Elastic retrieves from an Elasticsearch index with a multi_match over
// title and content, titles weighted double.
type Elastic struct {
	client *elasticsearch.Client
	index  string
	size   int

	now func() time.Time
}

var _ contractx.Searcher = (*Elastic)(nil)

type ElasticOption func(*Elastic)

func WithElasticNow(now func() time.Time) ElasticOption {
	return func(e *Elastic) {
		if now != nil {
			e.now = now
		}
	}
}

func NewElastic(cfg ElasticConfig, opts ...ElasticOption) (*Elastic, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch addresses are required")
	}
	index := strings.TrimSpace(cfg.Index)
	if index == "" {
		index = "documents"
	}
	size := cfg.Size
	if size <= 0 {
		size = 8
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	e := &Elastic{
		client: client,
		index:  index,
		size:   size,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e, nil
}

func (e *Elastic) Lookup(ctx context.Context, query string) ([]contractx.SearchResult, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content"},
			},
		},
	}
	body, _ := json.Marshal(queryBody)

	from := 0
	size := e.size
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search query failed: %s", contractx.ErrBackendUnavailable, res.Status())
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Title   string `json:"title"`
					URL     string `json:"url"`
					Content string `json:"content"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", contractx.ErrMalformedResponse, err)
	}

	fetchedAt := e.now().UTC()
	results := make([]contractx.SearchResult, 0, len(payload.Hits.Hits))
	for _, hit := range payload.Hits.Hits {
		link := strings.TrimSpace(hit.Source.URL)
		if link == "" {
			return nil, fmt.Errorf("%w: search hit without a url", contractx.ErrMalformedResponse)
		}
		results = append(results, contractx.SearchResult{
			Title:     hit.Source.Title,
			URL:       link,
			Snippet:   hit.Source.Content,
			Score:     hit.Score,
			FetchedAt: fetchedAt,
		})
	}
	return results, nil
}
