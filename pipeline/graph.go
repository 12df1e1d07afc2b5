package pipeline

import "time"

// Kind names a stage type. The set is closed: the validator rejects any
// other value at admission time.
type Kind string

const (
	KindLoader    Kind = "loader"
	KindSplitter  Kind = "splitter"
	KindEmbedder  Kind = "embedder"
	KindVectorDB  Kind = "vector_db"
	KindRetriever Kind = "retriever"
	KindReranker  Kind = "reranker"
	KindLLM       Kind = "llm"
	KindAugmentor Kind = "augmentor"
)

// Valid reports whether k belongs to the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case KindLoader, KindSplitter, KindEmbedder, KindVectorDB,
		KindRetriever, KindReranker, KindLLM, KindAugmentor:
		return true
	}
	return false
}

// RateGated reports whether nodes of this kind call external model services
// and must pass the engine's shared rate gate.
func (k Kind) RateGated() bool {
	return k == KindEmbedder || k == KindLLM || k == KindReranker
}

// DefaultTimeout is the per-invocation deadline applied when the node config
// does not set timeout_sec.
func (k Kind) DefaultTimeout() time.Duration {
	switch k {
	case KindLoader:
		return 5 * time.Second
	case KindSplitter:
		return 60 * time.Second
	default:
		return 30 * time.Second
	}
}

// Node is one stage of a pipeline. Config is interpreted by the handler
// registered for Kind; the engine never looks inside it. Nodes are immutable
// after submission.
type Node struct {
	ID     string         `json:"id"`
	Kind   Kind           `json:"kind"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge is a directed dependency: Target consumes Source's output.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is a fully materialized pipeline. Nodes is keyed by node ID; Edges
// keeps submission order so validation reports problems deterministically.
type Graph struct {
	Nodes map[string]Node `json:"nodes"`
	Edges []Edge          `json:"edges"`
}

// NewGraph returns an empty graph ready for AddNode / AddEdge.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]Node)}
}

// AddNode inserts a node, replacing any previous node with the same ID.
func (g *Graph) AddNode(id string, kind Kind, config map[string]any) *Graph {
	if g.Nodes == nil {
		g.Nodes = make(map[string]Node)
	}
	g.Nodes[id] = Node{ID: id, Kind: kind, Config: config}
	return g
}

// AddEdge connects source to target.
func (g *Graph) AddEdge(source, target string) *Graph {
	g.Edges = append(g.Edges, Edge{Source: source, Target: target})
	return g
}

// Successors returns the adjacency list of the graph.
func (g *Graph) Successors() map[string][]string {
	out := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}
	return out
}

// Parents returns the reverse adjacency list of the graph.
func (g *Graph) Parents() map[string][]string {
	out := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.Target] = append(out[e.Target], e.Source)
	}
	return out
}
