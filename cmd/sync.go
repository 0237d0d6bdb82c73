package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"roombook/api"
	"roombook/progress"

	"github.com/spf13/cobra"
)

func adminSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import class schedules from the university timetable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			guard, closeGuard := syncGuard(ctx)
			defer closeGuard()

			syncClient := *client
			syncClient.Timeout = cfg.SyncTimeout

			var result api.SyncResult
			op := &progress.Operation{Guard: guard, Stages: progress.SyncStages}
			live := isTerminal(os.Stdout) && !outputJSON

			var backendErr error
			err := op.Run(ctx,
				func(ctx context.Context) error {
					res, err := syncClient.SyncClassSchedules(ctx)
					if err == nil {
						result = res
					}
					return err
				},
				func(s progress.Snapshot) {
					if live {
						fmt.Printf("\r%s %-40s", progressBar(s.Progress, 30), s.Message)
					}
				},
				func(err error) {
					backendErr = err
				},
			)
			if live {
				fmt.Println()
			}
			if errors.Is(err, progress.ErrInProgress) {
				return fmt.Errorf("%w; try again when it finishes", err)
			}
			if err != nil {
				return err
			}
			if backendErr != nil {
				return fmt.Errorf("schedule sync failed: %w", backendErr)
			}

			if outputJSON {
				return writeJSON(result)
			}
			if result.Message != "" {
				fmt.Println(result.Message)
			}
			fmt.Printf("Imported %d, skipped %d.\n", result.Imported, result.Skipped)
			return nil
		},
	}

	return cmd
}

// syncGuard shares the in-progress flag through redis when it is configured
// and reachable, and falls back to the process guard otherwise.
func syncGuard(ctx context.Context) (progress.Guard, func()) {
	if cfg.RedisAddr == "" {
		return progress.ProcessGuard(), func() {}
	}
	rdb := progress.DialRedis(ctx, cfg.RedisAddr)
	if rdb == nil {
		logger.Warn("redis unreachable, sync guard is local to this process", "addr", cfg.RedisAddr)
		return progress.ProcessGuard(), func() {}
	}
	ttl := cfg.SyncTimeout + time.Minute
	return progress.NewRedisGuard(rdb, progress.DefaultRedisGuardKey, ttl), func() { _ = rdb.Close() }
}
