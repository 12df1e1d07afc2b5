package handlers

import "github.com/smallnest/ragpipe"

// previewLen caps the text preview carried alongside loaded documents.
const previewLen = 200

// LoaderOutput is the loader handler's result.
type LoaderOutput struct {
	Text        string         `json:"text"`
	TextPreview string         `json:"text_preview"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SplitterOutput is the splitter handler's result.
type SplitterOutput struct {
	Chunks   []ragpipe.Chunk `json:"chunks"`
	Count    int             `json:"count"`
	Strategy string          `json:"strategy"`
}

// EmbedderOutput is the embedder handler's result. Chunks is populated only
// when the node config asks for embeddings to be attached.
type EmbedderOutput struct {
	Dimensions int             `json:"dimensions"`
	Count      int             `json:"count"`
	Vectors    [][]float32     `json:"vectors"`
	Chunks     []ragpipe.Chunk `json:"chunks,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
}

// RetrieverOutput is the retriever handler's result. Augmentation records
// which query-side wrappers ran and what they produced.
type RetrieverOutput struct {
	Results      []ragpipe.RetrievalResult `json:"results"`
	Count        int                       `json:"count"`
	Strategy     string                    `json:"strategy"`
	Augmentation map[string]any            `json:"augmentation,omitempty"`
}

// RerankerOutput is the reranker handler's result.
type RerankerOutput struct {
	Results []ragpipe.RetrievalResult `json:"results"`
	Count   int                       `json:"count"`
}

// LLMOutput is the llm handler's result.
type LLMOutput struct {
	Response string         `json:"response"`
	Model    string         `json:"model,omitempty"`
	Usage    map[string]int `json:"usage,omitempty"`
}

// VectorDBOutput is the vector_db handler's result. Inserted counts stored
// chunks in insert mode; Chunks carries the fetched rows in select mode.
type VectorDBOutput struct {
	Inserted int             `json:"inserted"`
	Chunks   []ragpipe.Chunk `json:"chunks,omitempty"`
}

// AugmentorOutput is the augmentor handler's result. Queries is set for the
// multi_query operation, Text for hyde and expansion.
type AugmentorOutput struct {
	Operation string   `json:"operation"`
	Queries   []string `json:"queries,omitempty"`
	Text      string   `json:"text,omitempty"`
}
