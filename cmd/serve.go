package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/engine"
	"Picture-Story/server/internal/generators"
	"Picture-Story/server/internal/interfaces"
	"Picture-Story/server/internal/storage"
	"Picture-Story/server/internal/web"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	generator, err := engine.NewStoryGenerator(ctx, cfg.Generation)
	if err != nil {
		return fmt.Errorf("failed to create story generator: %w", err)
	}
	narrator := generators.NewNarrator(cfg.Narration)

	journal := openJournal(cfg.Journal)
	defer journal.Close()

	hub := web.NewProgressHub()
	storyEngine := engine.NewStoryEngine(generator, narrator,
		engine.WithJournal(journal),
		engine.WithProgress(hub),
		engine.WithJournalTimeout(cfg.Journal.WriteTimeout.Std()),
	)

	pages, err := web.NewPages()
	if err != nil {
		return err
	}

	router := web.NewRouter(cfg, web.Dependencies{
		Runner:   storyEngine,
		Journal:  journal,
		Hub:      hub,
		Pages:    pages,
		Provider: generator.Provider(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("Server starting", "addr", server.Addr, "provider", generator.Provider(), "journal", cfg.Journal.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	slog.Info("Server stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openJournal falls back to a no-op journal when the configured backend is
// unreachable. History is optional and never blocks startup.
func openJournal(cfg config.JournalConfig) interfaces.Journal {
	journal, err := storage.NewJournal(cfg)
	if err != nil {
		slog.Warn("Journal unavailable, history disabled", "driver", cfg.Driver, "error", err)
		return storage.NopJournal{}
	}
	return journal
}
