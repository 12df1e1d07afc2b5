package repo

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/smallnest/ragpipe"
)

// Bleve is a chunk repository whose keyword search runs through an in-memory
// bleve full-text index, giving proper analysis and BM25-style ranking
// instead of Memory's token-overlap heuristic. Storage and dense search are
// delegated to an embedded Memory.
type Bleve struct {
	*Memory
	index bleve.Index
}

type bleveDoc struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
}

// NewBleve builds a repository with a fresh memory-only bleve index.
func NewBleve() (*Bleve, error) {
	mapping := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", bleve.NewTextFieldMapping())
	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	doc.AddFieldMappingsAt("document_id", idField)
	mapping.DefaultMapping = doc

	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindInternal, err, "creating bleve index")
	}
	return &Bleve{Memory: NewMemory(), index: index}, nil
}

// Insert stores chunks and indexes their text.
func (b *Bleve) Insert(ctx context.Context, chunks []ragpipe.Chunk) error {
	if err := b.Memory.Insert(ctx, chunks); err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, c := range chunks {
		text := c.FTSToken
		if text == "" {
			text = c.Text
		}
		if err := batch.Index(c.ID, bleveDoc{Text: text, DocumentID: c.DocumentID}); err != nil {
			return ragpipe.WrapError(ragpipe.KindInternal, err, "indexing chunk %s", c.ID)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return ragpipe.WrapError(ragpipe.KindInternal, err, "writing bleve batch")
	}
	return nil
}

// KeywordSearch ranks chunks with the bleve index.
func (b *Bleve) KeywordSearch(ctx context.Context, queryText string, limit int, documentID string) ([]ragpipe.ScoredChunk, error) {
	mq := bleve.NewMatchQuery(queryText)
	mq.SetField("text")
	var q query.Query = mq
	if documentID != "" {
		tq := bleve.NewTermQuery(documentID)
		tq.SetField("document_id")
		q = bleve.NewConjunctionQuery(mq, tq)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "bleve search")
	}
	ids := make([]string, 0, len(res.Hits))
	scores := make(map[string]float64, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
		scores[hit.ID] = hit.Score
	}
	chunks, err := b.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ragpipe.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}
	out := make([]ragpipe.ScoredChunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, ragpipe.ScoredChunk{Chunk: c, Score: scores[id]})
		}
	}
	return out, nil
}
