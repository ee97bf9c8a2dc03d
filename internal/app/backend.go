// Package app wires the processing backend shared by the API server and the
// command line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"timesheet-ai/internal/activity"
	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/config"
	"timesheet-ai/internal/llm"
	"timesheet-ai/internal/service"
	"timesheet-ai/internal/vectorstore"
)

// Backend is the configured processing pipeline.
type Backend struct {
	Processor *service.Processor
	// Client is nil in offline mode.
	Client *llm.Client
	// Memory and Store are nil when activity memory is disabled or could
	// not be reached at startup.
	Memory *activity.Memory
	Store  *vectorstore.QdrantStore
}

// NewBackend builds the processor for cfg. Activity memory is optional: when
// Qdrant or the embeddings server cannot be reached the backend runs without
// it and logs a warning. A failed model autoload is fatal since every run
// would fail afterwards.
func NewBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	if cfg.MemoryEnabled() {
		memory, store, err := newMemory(ctx, cfg)
		if err != nil {
			slog.Warn("Activity memory disabled", "error", err)
		} else {
			b.Memory, b.Store = memory, store
			slog.Info("Activity memory ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)
		}
	}

	// nil interfaces, not typed nil pointers, select the fallbacks
	var hints batch.HintProvider
	var remember service.ActivityMemory
	if b.Memory != nil {
		hints = b.Memory
		remember = b.Memory
	}

	if cfg.LLMProvider == llm.ProviderOffline {
		b.Processor = service.NewProcessor(nil, remember)
		slog.Info("Processing backend configured", "mode", b.Processor.Mode())
		return b, nil
	}

	if cfg.LLMProvider == llm.ProviderLocal && cfg.LLMAutoload {
		loader := llm.NewModelLoader(cfg.LLMBaseURL)
		if err := loader.LoadModel(ctx, cfg.LLMModelName); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to load model %s: %w", cfg.LLMModelName, err)
		}
		slog.Info("Model loaded", "model", cfg.LLMModelName)
	}

	b.Client = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)
	orchestrator := batch.NewOrchestrator(b.Client, hints, cfg.LLMModelName)
	b.Processor = service.NewProcessor(orchestrator, remember)

	slog.Info("Processing backend configured",
		"mode", b.Processor.Mode(),
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModelName,
		"timeout", cfg.LLMTimeout,
	)
	return b, nil
}

func newMemory(ctx context.Context, cfg *config.Config) (*activity.Memory, *vectorstore.QdrantStore, error) {
	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	if _, err := embedder.EmbedTexts(ctx, []string{"test"}); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to validate embedding client: %w", err)
	}

	memory := activity.NewMemory(embedder, store, cfg.QdrantCollection, cfg.QdrantVectorSize)
	if err := memory.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	return memory, store, nil
}

// Close releases the vector store connection.
func (b *Backend) Close() error {
	if b.Store != nil {
		return b.Store.Close()
	}
	return nil
}
