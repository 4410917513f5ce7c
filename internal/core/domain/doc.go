// Package domain contains the core business entities for the invoice
// pipeline: document lifecycle status, extracted invoice records, knowledge
// chunks and the error taxonomy. It has no I/O and no dependencies on
// adapters.
package domain
