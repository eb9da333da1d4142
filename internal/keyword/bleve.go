// Package keyword provides the Bleve implementation of Index.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/yomogi/seiri/internal/models"
)

// bleveTweet is the indexed projection of a tweet. Hashtags are joined
// into one text field so "#MachineLearning" terms are searchable.
type bleveTweet struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Hashtags string `json:"hashtags"`
	Lang     string `json:"lang"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index
// is opened and reused so that re-running process updates it in place.
// If the index mapping changes in code, remove the index directory to
// force a full rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): tweet text is
	// short and multilingual, stemming hurts more than it helps.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("hashtags", textFieldMapping)
	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("lang", keywordFieldMapping)
	im.AddDocumentMapping("tweet", docMapping)
	im.DefaultType = "tweet"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes one tweet by its ID.
func (b *BleveIndex) Index(ctx context.Context, t *models.Tweet) error {
	return b.index.Index(t.ID, bleveTweet{
		ID:       t.ID,
		Text:     t.Text,
		Hashtags: strings.Join(t.Hashtags, " "),
		Lang:     t.Lang,
	})
}

// IndexBatch indexes tweets through a Bleve batch, which is much faster
// than per-document Index calls for a full archive run.
func (b *BleveIndex) IndexBatch(ctx context.Context, tweets []*models.Tweet) error {
	batch := b.index.NewBatch()
	for _, t := range tweets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(t.ID, bleveTweet{
			ID:       t.ID,
			Text:     t.Text,
			Hashtags: strings.Join(t.Hashtags, " "),
			Lang:     t.Lang,
		}); err != nil {
			return fmt.Errorf("batch index tweet %s: %w", t.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// Search runs a match query over text and hashtags and returns up to
// query.Limit results. When query.Lang is set, results are restricted to
// that language.
func (b *BleveIndex) Search(ctx context.Context, query *models.SearchQuery) ([]*Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	textQuery := bleve.NewMatchQuery(query.Query)
	textQuery.SetField("text")
	tagQuery := bleve.NewMatchQuery(query.Query)
	tagQuery.SetField("hashtags")
	var q blevequery.Query = bleve.NewDisjunctionQuery(textQuery, tagQuery)

	if query.Lang != "" {
		langQuery := bleve.NewTermQuery(query.Lang)
		langQuery.SetField("lang")
		q = bleve.NewConjunctionQuery(q, langQuery)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = query.Limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a tweet from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed tweets.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
