package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stillhq/still/internal/config"
	"github.com/stillhq/still/internal/freshness"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc [threadID]",
	Short: "Recalculate freshness states once, for one thread or all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRecalc,
}

func runRecalc(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, closeStore, _, err := openStore(cfg.Forum)
	if err != nil {
		return err
	}
	defer closeStore()

	engine := freshness.NewEngine(st)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if len(args) == 1 {
		if err := engine.RecalculateThreadFreshness(ctx, args[0]); err != nil {
			return fmt.Errorf("recalculate thread %s: %w", args[0], err)
		}
		fmt.Printf("thread %s recalculated\n", args[0])
		return nil
	}

	scheduler := freshness.NewScheduler(engine, st)
	if err := scheduler.TriggerManual(ctx); err != nil {
		return fmt.Errorf("recalculate all threads: %w", err)
	}
	fmt.Println("batch recalculation complete")
	return nil
}
