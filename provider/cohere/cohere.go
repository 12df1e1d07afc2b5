// Package cohere implements the RerankService port over the Cohere-style
// rerank HTTP API.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smallnest/ragpipe"
)

const defaultBaseURL = "https://api.cohere.com"

// Service calls the /v1/rerank endpoint.
type Service struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// Options configures the service.
type Options struct {
	APIKey string

	// BaseURL defaults to the Cohere API; point it elsewhere for
	// compatible endpoints or tests.
	BaseURL string

	// Model defaults to rerank-english-v3.0.
	Model string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// New builds a rerank service client.
func New(opts Options) *Service {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = "rerank-english-v3.0"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{apiKey: opts.APIKey, baseURL: baseURL, model: model, client: client}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores docs against query and returns the topK best, as indices
// into docs.
func (s *Service) Rerank(ctx context.Context, query string, docs []string, topK int) ([]ragpipe.RerankedDoc, error) {
	body, err := json.Marshal(rerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: docs,
		TopN:      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling rerank service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank service returned %d: %s", resp.StatusCode, msg)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	out := make([]ragpipe.RerankedDoc, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, ragpipe.RerankedDoc{Index: r.Index, Score: r.RelevanceScore})
	}
	return out, nil
}
