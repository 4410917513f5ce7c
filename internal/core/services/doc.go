// Package services implements the application's use cases on top of the
// driven ports: the extraction pipeline, sync and retry orchestration,
// incremental indexing, semantic search, status reporting and spend
// analytics.
package services
