package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyProcessing indicates the advisory concurrency guard tripped:
	// another run appears to be driving the same document. Callers skip the
	// document rather than fail the batch.
	ErrAlreadyProcessing = errors.New("already processing")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	// Retryable after backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrCredentialMissing indicates no usable remote store credential was
	// supplied. Fatal for the whole sync run.
	ErrCredentialMissing = errors.New("credential missing")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Indexing and semantic search are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractorUnavailable indicates the OCR/LLM extractor is not
	// configured.
	ErrExtractorUnavailable = errors.New("extractor unavailable")
)

// ExtractionError reports a failed OCR/LLM extraction together with the
// collaborator's own retry hint. Malformed output (invalid JSON, no text
// found) is not retryable; timeouts, 5xx responses and rate limits are.
type ExtractionError struct {
	Message   string
	Retryable bool
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// NewTransientError classifies a network/timeout/5xx failure (retryable).
func NewTransientError(message string) *ExtractionError {
	return &ExtractionError{Message: message, Retryable: true}
}

// NewMalformedError classifies unparseable collaborator output
// (not retryable).
func NewMalformedError(message string) *ExtractionError {
	return &ExtractionError{Message: message, Retryable: false}
}

// IsRetryable reports whether a pipeline failure should be retried.
// Unclassified errors default to retryable; only an explicit non-retryable
// classification (malformed response) turns retries off.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var xe *ExtractionError
	if errors.As(err, &xe) {
		return xe.Retryable
	}
	return true
}
