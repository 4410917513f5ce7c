// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the status store, the remote file store, the
// OCR/LLM extractor, the embedding service and the vector store.
package driven
