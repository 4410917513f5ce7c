// Package ollama provides an invoice extractor using a local Ollama
// multimodal model.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vendoriq/vendoriq/internal/adapters/driven/extraction"
	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2-vision"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama extractor.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the multimodal model to use (default: llama3.2-vision).
	Model string

	// Timeout is the request timeout. Local inference is slow, so the
	// default is generous (300s).
	Timeout time.Duration
}

// Extractor extracts structured invoice data via a local Ollama model.
type Extractor struct {
	client  *http.Client
	baseURL string
	model   string
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewExtractor creates a new Ollama extractor.
func NewExtractor(cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Extractor{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Extract sends the document to the local model and parses the structured
// response.
func (e *Extractor) Extract(ctx context.Context, fileName string, fileContent []byte) (*domain.InvoiceRecord, error) {
	if len(fileContent) == 0 {
		return nil, domain.NewMalformedError("empty document: " + fileName)
	}

	reqBody := generateRequest{
		Model:  e.model,
		Prompt: extraction.Prompt,
		Images: []string{base64.StdEncoding.EncodeToString(fileContent)},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.NewMalformedError("marshal request: " + err.Error())
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, domain.NewTransientError("create request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewTransientError("send request: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, domain.NewTransientError(fmt.Sprintf("ollama error (status %d)", resp.StatusCode))
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, domain.NewTransientError(fmt.Sprintf("ollama error (status %d): %s", resp.StatusCode, string(body)))
		}
		return nil, domain.NewMalformedError(fmt.Sprintf("ollama error (status %d): %s", resp.StatusCode, string(body)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, domain.NewMalformedError("decode response: " + err.Error())
	}

	return extraction.ParsePayload(genResp.Response)
}
