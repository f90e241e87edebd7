package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ReferenceRetriever returns reference guidance for a domain, or "" when none is stored.
type ReferenceRetriever interface {
	Retrieve(ctx context.Context, domain string) (string, error)
}

type referenceRetriever struct {
	embedder Embedder
	store    ReferenceStore
	prompts  *PromptBuilder
	topK     int
}

func NewReferenceRetriever(embedder Embedder, store ReferenceStore, prompts *PromptBuilder, topK int) ReferenceRetriever {
	if topK <= 0 {
		topK = 3
	}
	return &referenceRetriever{
		embedder: embedder,
		store:    store,
		prompts:  prompts,
		topK:     topK,
	}
}

// Retrieve implements ReferenceRetriever.
func (r *referenceRetriever) Retrieve(ctx context.Context, domain string) (string, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, r.prompts.BuildRetrievalQuery(domain))
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, domain, r.topK)
	if err != nil {
		return "", fmt.Errorf("failed to search references: %w", err)
	}

	return FormatReferenceContext(results), nil
}

// ReferenceIngestor chunks reference documents and stores their embeddings.
type ReferenceIngestor struct {
	embedder  Embedder
	store     ReferenceStore
	chunker   TextChunker
	chunkSize int
	overlap   int
	log       *zap.Logger
}

func NewReferenceIngestor(embedder Embedder, store ReferenceStore, chunker TextChunker, log *zap.Logger) *ReferenceIngestor {
	return &ReferenceIngestor{
		embedder:  embedder,
		store:     store,
		chunker:   chunker,
		chunkSize: 1000,
		overlap:   200,
		log:       log,
	}
}

// Ingest replaces all chunks of source with freshly embedded ones and returns how many were stored.
func (i *ReferenceIngestor) Ingest(ctx context.Context, domain, source, text string) (int, error) {
	chunks := i.chunker.ChunkText(text, i.chunkSize, i.overlap)
	if len(chunks) == 0 {
		return 0, ErrNoTextContent
	}

	type embeddedChunk struct {
		chunk     ReferenceChunk
		embedding []float32
	}

	embedded := make([]embeddedChunk, 0, len(chunks))
	for idx, chunk := range chunks {
		embedding, err := i.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			i.log.Warn("failed to embed chunk", zap.String("source", source), zap.Int("chunk", idx), zap.Error(err))
			continue
		}
		embedded = append(embedded, embeddedChunk{
			chunk:     ReferenceChunk{Domain: domain, Source: source, Index: idx, Text: chunk},
			embedding: embedding,
		})
	}

	// Existing chunks survive when nothing could be embedded.
	if len(embedded) == 0 {
		return 0, fmt.Errorf("no chunks embedded for %s", source)
	}

	if err := i.store.DeleteSource(ctx, source); err != nil {
		return 0, err
	}

	stored := 0
	for _, e := range embedded {
		if err := i.store.UpsertChunk(ctx, e.chunk, e.embedding); err != nil {
			i.log.Warn("failed to store chunk", zap.String("source", source), zap.Int("chunk", e.chunk.Index), zap.Error(err))
			continue
		}
		stored++
	}

	if stored == 0 {
		return 0, fmt.Errorf("no chunks stored for %s", source)
	}

	return stored, nil
}
