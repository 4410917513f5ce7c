// Package gemini provides an invoice extractor backed by the Gemini
// generative language API.
package gemini

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
	"github.com/vendoriq/vendoriq/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel       = "gemini-2.0-flash"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxAttempts = 3

	// baseBackoff is the first retry delay; it doubles per attempt.
	baseBackoff = 2 * time.Second
)

// Config holds configuration for the Gemini extractor.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL.
	BaseURL string

	// Model is the generative model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// MaxAttempts bounds in-call retries on transient failures (default: 3).
	MaxAttempts int
}

// Extractor extracts structured invoice data from PDF bytes via Gemini.
type Extractor struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewExtractor creates a new Gemini extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	return &Extractor{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

// Extract sends the document to Gemini and parses the structured response.
// Transient upstream failures are retried in-call with doubling backoff;
// the returned error carries the retryable classification for the caller's
// own orchestration.
func (e *Extractor) Extract(ctx context.Context, fileName string, fileContent []byte) (*domain.InvoiceRecord, error) {
	if len(fileContent) == 0 {
		return nil, domain.NewMalformedError("empty document: " + fileName)
	}

	var lastErr error
	backoff := baseBackoff
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			logger.Debug("Gemini retry %d/%d for %s after %v", attempt, e.maxAttempts, fileName, backoff)
			select {
			case <-ctx.Done():
				return nil, domain.NewTransientError(ctx.Err().Error())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		record, err := e.generate(ctx, fileContent)
		if err == nil {
			return record, nil
		}
		lastErr = err
		if !domain.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (e *Extractor) generate(ctx context.Context, fileContent []byte) (*domain.InvoiceRecord, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(fileContent),
				}},
				{Text: extraction.Prompt},
			},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.NewMalformedError("marshal request: " + err.Error())
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, domain.NewTransientError("create request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewTransientError("send request: " + err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransientError("read response: " + err.Error())
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.NewTransientError("gemini rate limited")
	case resp.StatusCode >= 500:
		return nil, domain.NewTransientError(fmt.Sprintf("gemini error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewMalformedError(fmt.Sprintf("gemini error (status %d): %s", resp.StatusCode, string(body)))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, domain.NewMalformedError("decode response: " + err.Error())
	}
	if genResp.Error != nil {
		return nil, domain.NewTransientError("gemini error: " + genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, domain.NewMalformedError("gemini returned no candidates")
	}

	return extraction.ParsePayload(genResp.Candidates[0].Content.Parts[0].Text)
}
