// Command vendoriq is the invoice processing and knowledge indexing
// pipeline: CLI and HTTP API in one binary.
package main

import (
	"fmt"
	"os"
	"time"

	ollamaembed "github.com/vendoriq/vendoriq/internal/adapters/driven/embedding/ollama"
	"github.com/vendoriq/vendoriq/internal/adapters/driven/embedding/openai"
	"github.com/vendoriq/vendoriq/internal/adapters/driven/extraction/gemini"
	ollamaextract "github.com/vendoriq/vendoriq/internal/adapters/driven/extraction/ollama"
	"github.com/vendoriq/vendoriq/internal/adapters/driven/filestore/drive"
	"github.com/vendoriq/vendoriq/internal/adapters/driven/storage/sqlite"
	"github.com/vendoriq/vendoriq/internal/adapters/driving/cli"
	"github.com/vendoriq/vendoriq/internal/adapters/driving/httpapi"
	"github.com/vendoriq/vendoriq/internal/config"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/services"
	"github.com/vendoriq/vendoriq/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vendoriq: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("VENDORIQ_CONFIG"))
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.Data.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	statusStore := store.StatusStore()
	vectorStore := store.VectorStore()

	extractor, err := buildExtractor(cfg)
	if err != nil {
		logger.Warn("Extractor not configured: %v", err)
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		logger.Warn("Embedding service not configured: %v", err)
	}

	factory := drive.NewFactory(drive.Config{
		ClientID:       cfg.Drive.ClientID,
		ClientSecret:   cfg.Drive.ClientSecret,
		RootFolderName: cfg.Drive.RootFolderName,
		RateLimit: drive.RateLimitConfig{
			RequestsPerSecond: cfg.Drive.RequestsPerSec,
			BurstSize:         cfg.Drive.Burst,
		},
	})

	indexer := services.NewIncrementalIndexer(vectorStore, embedder)
	pipeline := services.NewExtractionPipeline(statusStore, extractor, indexer)

	syncer := services.NewSyncService(factory, pipeline, cfg.Pipeline.VendorConcurrency)
	retryer := services.NewRetryService(statusStore, factory, pipeline, cfg.Pipeline.MaxRetries)
	status := services.NewStatusService(statusStore, vectorStore, cfg.Pipeline.MaxRetries)
	analytics := services.NewAnalyticsService(vectorStore)
	searcher := services.NewSearchService(vectorStore, embedder)

	server := httpapi.NewServer(cfg.Server.Addr, httpapi.Services{
		Syncer:    syncer,
		Retryer:   retryer,
		Status:    status,
		Analytics: analytics,
		Searcher:  searcher,
	})

	cli.Execute(cli.Services{
		Syncer:    syncer,
		Retryer:   retryer,
		Status:    status,
		Analytics: analytics,
		Searcher:  searcher,
		Serve:     server.Run,
	})
	return nil
}

// buildExtractor selects the extraction backend. A missing key is not fatal
// here: read-only commands still work, and the pipeline reports the
// extractor as unavailable if asked to run.
func buildExtractor(cfg *config.Config) (driven.Extractor, error) {
	switch cfg.Extractor.Provider {
	case "ollama":
		return ollamaextract.NewExtractor(ollamaextract.Config{
			BaseURL: cfg.Extractor.BaseURL,
			Model:   cfg.Extractor.Model,
		}), nil
	default:
		ex, err := gemini.NewExtractor(gemini.Config{
			APIKey:  cfg.Extractor.APIKey,
			BaseURL: cfg.Extractor.BaseURL,
			Model:   cfg.Extractor.Model,
		})
		if err != nil {
			return nil, err
		}
		return ex, nil
	}
}

func buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    60 * time.Second,
		}), nil
	default:
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}
