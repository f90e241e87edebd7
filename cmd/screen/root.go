package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type options struct {
	domain string
	dir    string
	out    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Screen a folder of PDF resumes against a domain",
		Long: `screen reads every PDF in a folder, asks Gemini to screen it against the
required skills of the chosen domain and writes one DOCX report per resume.

Domain and folder are asked for interactively when not given as flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.domain, "domain", "d", "", "domain to screen for (fullstack, networking, iot, datasci, ...)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "folder containing the PDF resumes")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "folder the reports are written to")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog, err := services.NewSkillCatalog(cfg.Domains)
	if err != nil {
		return err
	}

	if opts.domain == "" {
		if opts.domain, err = askDomain(catalog); err != nil {
			return err
		}
	}
	if opts.dir == "" {
		if opts.dir, err = askFolder(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	if !catalog.Has(opts.domain) {
		fmt.Fprintln(out, "❌ Invalid domain!")
		return fmt.Errorf("%w: %q", services.ErrUnknownDomain, opts.domain)
	}

	resumes, err := findResumes(opts.dir)
	if err != nil {
		fmt.Fprintf(out, "\n❌ Error: %v\n", err)
		return err
	}
	if len(resumes) == 0 {
		fmt.Fprintln(out, "❌ No PDF files found!")
		return services.ErrNoResumeFiles
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	screener, cleanup, err := buildScreener(ctx, cfg, catalog, log)
	if err != nil {
		return err
	}
	defer cleanup()

	return screenFolder(ctx, out, screener, services.NewReportRenderer(), opts.domain, resumes, opts.out)
}

// buildScreener wires the optional integrations the same way the API does.
func buildScreener(ctx context.Context, cfg *config.Config, catalog *services.SkillCatalog, log *zap.Logger) (services.ScreenerService, func(), error) {
	cleanup := func() {}

	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		EmbedModel:        cfg.Gemini.EmbedModel,
		Temperature:       cfg.Gemini.Temperature,
		MaxRetries:        cfg.Gemini.MaxRetries,
		RetryInitialDelay: cfg.Gemini.RetryInitialDelay,
	}, log)
	if err != nil {
		return nil, cleanup, err
	}

	deps := services.ScreenerDeps{
		Catalog:   catalog,
		Gateway:   gemini,
		Extractor: services.NewTextExtractor(),
		Log:       log,
	}

	if cfg.Qdrant.Enabled {
		store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Retriever = services.NewReferenceRetriever(gemini, store, services.NewPromptBuilder(catalog), cfg.Qdrant.TopK)
	}

	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Records = repositories.NewScreeningRecordRepository(db)
	}

	if cfg.Broker.Enabled {
		publisher, err := services.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Publisher = publisher
		cleanup = func() { publisher.Close() }
	}

	return services.NewScreenerService(deps), cleanup, nil
}

func askDomain(catalog *services.SkillCatalog) (string, error) {
	selectDomain := promptui.Select{
		Label: "Select Domain",
		Items: catalog.Domains(),
	}

	_, domain, err := selectDomain.Run()
	return domain, err
}

func askFolder() (string, error) {
	folderPrompt := promptui.Prompt{
		Label: "Enter Resume Folder Path",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("folder path is required")
			}
			return nil
		},
	}

	folder, err := folderPrompt.Run()
	return strings.TrimSpace(folder), err
}
