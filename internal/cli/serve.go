package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stillhq/still/internal/cache"
	"github.com/stillhq/still/internal/config"
	"github.com/stillhq/still/internal/forum"
	"github.com/stillhq/still/internal/freshness"
	"github.com/stillhq/still/internal/llm"
	"github.com/stillhq/still/internal/server"
	"github.com/stillhq/still/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

// openStore picks the content store: the remote forum API when configured,
// otherwise local sqlite.
func openStore(cfg config.ForumConfig) (forum.Store, func(), string, error) {
	if cfg.APIURL != "" {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		return forum.NewClient(cfg.APIURL, cfg.APIKey, timeout), func() {}, cfg.APIURL, nil
	}

	path := cfg.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, "", fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("open database: %w", err)
	}
	return db, func() { db.Close() }, path, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, closeStore, storeDesc, err := openStore(cfg.Forum)
	if err != nil {
		return err
	}
	defer closeStore()

	var llmClient llm.Client
	if c, err := llm.NewClient(cfg.LLM); err != nil {
		fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), classification falls back to heuristics\n", err)
	} else {
		llmClient = c
		fmt.Fprintf(os.Stderr, "  llm: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	}

	classifier := llm.NewClassifier(llmClient)
	var verifier *llm.Verifier
	if llmClient != nil {
		verifier = llm.NewVerifier(llmClient)
	}

	engine := freshness.NewEngine(st)
	scheduler := freshness.NewScheduler(engine, st)
	if cfg.Scheduler.Enabled {
		scheduler.Start(cfg.Scheduler.IntervalMinutes)
		defer scheduler.Stop()
	}

	srv := server.New(st, engine, scheduler, cache.NewDefault(), classifier, verifier, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "still serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  store: %s\n", storeDesc)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
