package retrieve

import (
	"context"

	"github.com/smallnest/ragpipe"
)

// ParentDocument searches small child chunks for precision and returns their
// larger parent chunks for context. A parent is scored by its best-matching
// child. Children with no parent pass through as themselves, and a corpus
// indexed without parent links degrades to plain dense retrieval.
type ParentDocument struct {
	Repo     ragpipe.ChunkRepository
	Embedder ragpipe.Embedder
}

// Retrieve searches twice TopK children and maps them up to parents.
func (p *ParentDocument) Retrieve(ctx context.Context, query string, opts Options) ([]ragpipe.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return []ragpipe.RetrievalResult{}, nil
	}
	vec, err := queryVector(ctx, query, opts, p.Embedder)
	if err != nil {
		return nil, err
	}
	children, err := p.Repo.DenseSearch(ctx, vec, 2*opts.TopK, opts.DocumentID)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "dense child search")
	}

	parentScore := make(map[string]float64)
	parentChildren := make(map[string][]string)
	var parentIDs []string
	var orphans []ragpipe.RetrievalResult

	for _, child := range children {
		pid := child.Chunk.ParentID
		if pid == "" {
			orphans = append(orphans, ragpipe.RetrievalResult{Chunk: child.Chunk, Score: child.Score})
			continue
		}
		cur, seen := parentScore[pid]
		if !seen {
			parentIDs = append(parentIDs, pid)
		}
		if !seen || child.Score > cur {
			parentScore[pid] = child.Score
		}
		parentChildren[pid] = append(parentChildren[pid], child.Chunk.ID)
	}

	if len(parentIDs) == 0 {
		ragpipe.SortResults(orphans)
		return ragpipe.Truncate(orphans, opts.TopK), nil
	}

	parents, err := p.Repo.ByIDs(ctx, parentIDs)
	if err != nil {
		return nil, ragpipe.WrapError(ragpipe.KindExternal, err, "loading parent chunks")
	}

	out := orphans
	for _, parent := range parents {
		out = append(out, ragpipe.RetrievalResult{
			Chunk: parent,
			Score: parentScore[parent.ID],
			Metadata: map[string]any{
				"child_ids": parentChildren[parent.ID],
			},
		})
	}
	ragpipe.SortResults(out)
	return ragpipe.Truncate(out, opts.TopK), nil
}
