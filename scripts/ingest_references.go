package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/services"
)

const referenceRoot = "./reference_docs"

// Ingests reference_docs/<domain>/*.pdf into Qdrant so screening prompts can
// carry per-domain reference guidance.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	catalog, err := services.NewSkillCatalog(cfg.Domains)
	if err != nil {
		log.Fatal("invalid domain table", zap.Error(err))
	}

	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}

	store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Fatal("failed to initialize qdrant", zap.Error(err))
	}
	if err := store.InitCollection(ctx); err != nil {
		log.Fatal("failed to initialize collection", zap.Error(err))
	}

	extractor := services.NewTextExtractor()
	ingestor := services.NewReferenceIngestor(gemini, store, services.NewTextChunker(), log)

	successCount, failCount := 0, 0

	for _, domain := range catalog.Domains() {
		paths, err := filepath.Glob(filepath.Join(referenceRoot, domain, "*.pdf"))
		if err != nil {
			log.Fatal("invalid reference path", zap.Error(err))
		}
		if len(paths) == 0 {
			log.Info("no reference documents", zap.String("domain", domain))
			continue
		}

		for _, path := range paths {
			docLog := log.With(zap.String("domain", domain), zap.String("path", path))

			text, err := extractor.ExtractFile(path)
			if err != nil {
				docLog.Error("failed to extract text", zap.Error(err))
				failCount++
				continue
			}

			source := domain + "/" + filepath.Base(path)
			stored, err := ingestor.Ingest(ctx, domain, source, text)
			if err != nil {
				docLog.Error("failed to ingest document", zap.Error(err))
				failCount++
				continue
			}

			docLog.Info("document ingested", zap.Int("chunks", stored))
			successCount++
		}
	}

	log.Info("ingestion summary", zap.Int("successful", successCount), zap.Int("failed", failCount))

	if failCount > 0 {
		os.Exit(1)
	}
}
