package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/screentrans/internal"
	"codeberg.org/snonux/screentrans/internal/archive"
	"codeberg.org/snonux/screentrans/internal/batch"
	"codeberg.org/snonux/screentrans/internal/capture"
	"codeberg.org/snonux/screentrans/internal/cli"
	"codeberg.org/snonux/screentrans/internal/config"
	"codeberg.org/snonux/screentrans/internal/history"
	"codeberg.org/snonux/screentrans/internal/logging"
	"codeberg.org/snonux/screentrans/internal/models"
	"codeberg.org/snonux/screentrans/internal/ocr"
	"codeberg.org/snonux/screentrans/internal/pipeline"
	"codeberg.org/snonux/screentrans/internal/present"
	"codeberg.org/snonux/screentrans/internal/translation"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runCommand(ctx, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, flags *cli.Flags) error {
	historyDB := internal.ExpandHome(flags.HistoryDB)

	// Handle --archive flag
	if flags.Archive {
		path, err := archive.ArchiveHistory(historyDB)
		if err != nil {
			return fmt.Errorf("failed to archive history: %w", err)
		}
		fmt.Printf("History archived to: %s\n", path)
		return nil
	}

	// Handle --history flag
	if flags.ShowHistory > 0 {
		return showHistory(historyDB, flags.ShowHistory)
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if flags.Verbose {
		cfg.LogLevel = "debug"
	}
	log := logging.NewLogger("screentrans", cfg.LogLevel)

	// Handle --list-models flag
	if flags.ListModels {
		return listModels(ctx, cfg)
	}

	deps, cleanup, err := buildDeps(ctx, cfg, flags, historyDB, log)
	if err != nil {
		return err
	}
	defer cleanup()

	coord := pipeline.New(cfg, deps)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Run(runCtx)
	}()

	err = dispatch(ctx, coord, cfg, flags, log)

	cancel()
	<-done
	present.PrintStats(os.Stdout, coord.Stats())
	return err
}

// buildDeps creates the pipeline collaborators. cleanup closes the history
// store once the coordinator has stopped.
func buildDeps(ctx context.Context, cfg config.Config, flags *cli.Flags, historyDB string, log *logging.Logger) (pipeline.Deps, func(), error) {
	cleanup := func() {}

	var source capture.Source
	if flags.ImagePath != "" {
		source = capture.NewFileSource(internal.ExpandHome(flags.ImagePath))
	} else {
		source = capture.NewScreenSource(cfg.OffsetX, cfg.OffsetY, cfg.Scale)
	}

	recognizer := ocr.NewTesseractBackend(internal.ExpandHome(flags.TessdataPrefix))
	if err := recognizer.Available(); err != nil {
		return pipeline.Deps{}, cleanup, fmt.Errorf("text recognition unavailable: %w", err)
	}

	backend, err := translation.NewBackend(ctx, translation.BackendConfig{
		Provider: cfg.Provider,
		APIKey:   cli.GetAPIKey(cfg.Provider),
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
	})
	if err != nil {
		return pipeline.Deps{}, cleanup, fmt.Errorf("failed to create translator: %w", err)
	}

	presenters := present.Multi{present.NewConsole(os.Stdout, flags.Verbose)}
	if !flags.NoHistory {
		store, err := history.Open(historyDB, log.With("component", "history"))
		if err != nil {
			log.Warn("history disabled", "error", err)
		} else {
			presenters = append(presenters, store)
			cleanup = func() { store.Close() }
		}
	}

	log.Debug("pipeline ready",
		"source", fmt.Sprintf("%T", source),
		"recognizer", recognizer.Name(),
		"translator", backend.Name(),
		"model", translation.ModelOf(backend),
		"target", cfg.TargetLanguage)

	return pipeline.Deps{
		Source:     source,
		Recognizer: recognizer,
		Translator: backend,
		Presenter:  presenters,
		Log:        log,
	}, cleanup, nil
}

// dispatch feeds requests to the coordinator according to the flags
func dispatch(ctx context.Context, coord *pipeline.Coordinator, cfg config.Config, flags *cli.Flags, log *logging.Logger) error {
	switch {
	case flags.BatchFile != "":
		entries, err := batch.ReadBatchFile(flags.BatchFile)
		if err != nil {
			return err
		}
		_, err = batch.Process(ctx, coord, entries, os.Stdout)
		return err

	case flags.Region != "":
		region, err := capture.ParseRegion(flags.Region)
		if err != nil {
			return err
		}
		return translateOnce(ctx, coord, region)

	case flags.ImagePath != "":
		// The whole image
		return translateOnce(ctx, coord, capture.Region{})

	default:
		return interactive(ctx, coord, os.Stdin, os.Stdout, log)
	}
}

func translateOnce(ctx context.Context, coord *pipeline.Coordinator, region capture.Region) error {
	out, err := coord.SubmitAndWait(ctx, region)
	if err != nil {
		return err
	}
	if out.State == pipeline.StateFailed && out.Payload != nil {
		return out.Payload.Err
	}
	return nil
}

func listModels(ctx context.Context, cfg config.Config) error {
	baseURL := cfg.BaseURL
	switch cfg.Provider {
	case config.ProviderGemini:
		return fmt.Errorf("model listing is only supported for openai and deepseek")
	case config.ProviderDeepSeek:
		if baseURL == "" {
			baseURL = translation.DeepSeekBaseURL
		}
	}

	lister := models.NewLister(cli.GetAPIKey(cfg.Provider), baseURL)
	return lister.ListAvailableModels(ctx, os.Stdout)
}

func showHistory(path string, limit int) error {
	store, err := history.Open(path, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No history yet")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %-6s %s -> %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.State,
			rec.SourceLanguage, rec.TargetLanguage)
		fmt.Printf("  %s\n", internal.Truncate(internal.SingleLine(rec.SourceText), 100))
		if rec.TranslatedText != "" {
			fmt.Printf("  %s\n", internal.Truncate(internal.SingleLine(rec.TranslatedText), 100))
		}
		if rec.Error != "" {
			fmt.Printf("  Error: %s\n", rec.Error)
		}
	}

	sum, err := store.Summary()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d results stored, %d failed, %d from cache\n", sum.Total, sum.Failed, sum.Cached)
	return nil
}
