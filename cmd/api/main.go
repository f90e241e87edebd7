package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/handlers"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := services.NewSkillCatalog(cfg.Domains)
	if err != nil {
		log.Fatal("invalid domain table", zap.Error(err))
	}

	storage := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.ReportPath)
	if err := storage.EnsureDirs(); err != nil {
		log.Fatal("failed to create storage directories", zap.Error(err))
	}

	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		EmbedModel:        cfg.Gemini.EmbedModel,
		Temperature:       cfg.Gemini.Temperature,
		MaxRetries:        cfg.Gemini.MaxRetries,
		RetryInitialDelay: cfg.Gemini.RetryInitialDelay,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}

	deps := services.ScreenerDeps{
		Catalog:   catalog,
		Gateway:   gemini,
		Extractor: services.NewTextExtractor(),
		Storage:   storage,
		Log:       log,
	}

	if cfg.Qdrant.Enabled {
		store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			log.Fatal("failed to initialize qdrant", zap.Error(err))
		}
		if err := store.InitCollection(ctx); err != nil {
			log.Fatal("failed to initialize qdrant collection", zap.Error(err))
		}
		deps.Retriever = services.NewReferenceRetriever(gemini, store, services.NewPromptBuilder(catalog), cfg.Qdrant.TopK)
		log.Info("reference guidance enabled", zap.String("collection", cfg.Qdrant.Collection))
	}

	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		deps.Jobs = repositories.NewScreeningJobRepository(db)
		deps.Records = repositories.NewScreeningRecordRepository(db)
	}

	if cfg.Broker.Enabled {
		publisher, err := services.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			log.Fatal("failed to connect to broker", zap.Error(err))
		}
		defer publisher.Close()
		deps.Publisher = publisher
	}

	var archive services.ReportArchive
	if cfg.Archive.Enabled {
		archive, err = services.NewS3Archive(ctx, services.ArchiveOptions{
			Bucket:    cfg.Archive.Bucket,
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Prefix:    cfg.Archive.Prefix,
		})
		if err != nil {
			log.Fatal("failed to initialize report archive", zap.Error(err))
		}
		log.Info("report archive enabled", zap.String("bucket", cfg.Archive.Bucket))
	}

	screener := services.NewScreenerService(deps)

	var worker services.Worker
	if deps.Jobs != nil {
		worker = services.NewWorker(deps.Jobs, screener, cfg.Worker.Concurrency, cfg.Worker.PollInterval, log)
		worker.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Resume Screening API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 10,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.Router{
		Meta:      handlers.NewMetaHandler(catalog, "index.html"),
		Analyze:   handlers.NewAnalyzeHandler(screener, catalog, storage, cfg.Storage.MaxFileSize, log),
		Report:    handlers.NewReportHandler(services.NewReportRenderer(), storage, archive, log),
		Screening: handlers.NewScreeningHandler(deps.Jobs, deps.Records, worker, catalog, storage, cfg.Storage.MaxFileSize, log),
	}.Register(app)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		if worker != nil {
			worker.Stop()
		}
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("resume screening API starting",
		zap.String("addr", addr),
		zap.Strings("domains", catalog.Domains()),
		zap.Bool("history", deps.Jobs != nil),
	)

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
