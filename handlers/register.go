package handlers

import (
	"github.com/smallnest/ragpipe"
	"github.com/smallnest/ragpipe/augment"
	"github.com/smallnest/ragpipe/pipeline"
)

// Deps carries the external ports the handlers share. Any field may be nil;
// a handler that needs a missing dependency fails its node with invalid
// config instead of panicking.
type Deps struct {
	Docs      ragpipe.DocumentLoader
	Embedder  ragpipe.Embedder
	LLM       ragpipe.LLM
	Repo      ragpipe.ChunkRepository
	Service   ragpipe.RerankService
	Scorer    ragpipe.CrossScorer
	Augmentor *augment.Augmentor
}

// RegisterAll binds a handler for every pipeline kind onto reg. When Deps
// has an LLM but no Augmentor, an augmentor over that LLM is created.
func RegisterAll(reg *pipeline.Registry, deps Deps) {
	aug := deps.Augmentor
	if aug == nil {
		aug = augment.New(deps.LLM)
	}
	reg.Register(pipeline.KindLoader, &Loader{Docs: deps.Docs})
	reg.Register(pipeline.KindSplitter, &Splitter{Embedder: deps.Embedder})
	reg.Register(pipeline.KindEmbedder, &Embedder{Embedder: deps.Embedder})
	reg.Register(pipeline.KindVectorDB, &VectorDB{Repo: deps.Repo})
	reg.Register(pipeline.KindRetriever, &Retriever{Repo: deps.Repo, Embedder: deps.Embedder, Augmentor: aug})
	reg.Register(pipeline.KindReranker, &Reranker{Service: deps.Service, Scorer: deps.Scorer})
	reg.Register(pipeline.KindLLM, &LLM{Model: deps.LLM})
	reg.Register(pipeline.KindAugmentor, &Augmentor{Augmentor: aug})
}
