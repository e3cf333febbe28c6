package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/config"
	"github.com/tatianab/langquest/internal/engine"
	"github.com/tatianab/langquest/internal/oracle"
	"github.com/tatianab/langquest/internal/reminder"
	"github.com/tatianab/langquest/internal/store"
	"github.com/tatianab/langquest/internal/tui"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closer.Close()

	catalogs, err := loadCatalogs(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	cat, ok := catalogs.Get(cfg.Language)
	if !ok {
		return fmt.Errorf("no content for language %q (have %v)", cfg.Language, catalogs.Languages())
	}

	st, err := store.NewByEngine(cfg.Store, cfg.StorePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gemini, err := oracle.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("creating narrator: %w", err)
	}
	defer gemini.Close()

	eng := engine.New(catalogs, st, gemini, gemini, engine.Options{
		OracleTimeout: cfg.OracleTimeout,
		HistoryWindow: cfg.HistoryWindow,
		DueLimit:      cfg.DueLimit,
		Logger:        logger,
	})

	program := tui.NewProgram(eng, cat, "")

	reminders := reminder.New(st, reminder.NotifierFunc(func(ref store.SaveRef, due int) {
		program.Send(tui.ReminderMsg{Profile: ref.Profile, Language: ref.Language, Due: due})
	}), cfg.ReminderInterval, reminder.WithLogger(logger))
	if err := reminders.Start(); err != nil {
		return fmt.Errorf("starting reminders: %w", err)
	}
	defer reminders.Stop()

	logger.Info("starting", "language", cfg.Language, "store", cfg.Store, "model", cfg.Model)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func loadCatalogs(dir string) (*catalog.Registry, error) {
	if dir == "" {
		return catalog.Builtin()
	}
	return catalog.Load(dir)
}
