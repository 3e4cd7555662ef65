package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-verifier/internal/app"
	"github.com/joseph-ayodele/kyc-verifier/internal/async"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/export"
	"github.com/joseph-ayodele/kyc-verifier/internal/ingest"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var (
		dir     string
		output  string
		initial bool
		inmem   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Verify persons as their documents land in an inbox directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				return errors.New("--dir is required")
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, repo, err := repository.InitDatabase(ctx, cfg.Database, inmem, logger)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer repository.Close(db, logger)

			proc, err := app.NewProcessor(cfg, repo, nil, logger)
			if err != nil {
				return err
			}

			// latest result per person, rewritten to output after every job
			var (
				mu     sync.Mutex
				latest = map[string]entity.PersonResult{}
			)
			var q async.Queue = async.NewProcessorQueue(proc, logger,
				async.WithWorkers(cfg.Queue.Workers),
				async.WithQueueSize(cfg.Queue.Size),
				async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
				async.WithResultHandler(func(job async.Job, res entity.PersonResult, err error) {
					if output == "" || res.PersonID == "" {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					latest[res.PersonID] = res
					if err := export.SaveResults(output, sortedResults(latest)); err != nil {
						logger.Error("watch.results.write_failed", "path", output, "trace_id", job.TraceID, "err", err)
					}
				}),
			)

			persons, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
				Root:        dir,
				InitialScan: initial,
				Debounce:    cfg.Queue.WatchDebounce,
				Logger:      logger,
			})
			if err != nil {
				q.Shutdown(ctx)
				return err
			}
			logger.Info("watch.started", "dir", dir, "initial_scan", initial)

			for persons != nil || errs != nil {
				select {
				case p, ok := <-persons:
					if !ok {
						persons = nil
						continue
					}
					if err := q.Enqueue(ctx, async.Job{Person: p, TraceID: uuid.NewString()}); err != nil {
						logger.Warn("watch.enqueue.failed", "person_id", p.PersonID, "err", err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					logger.Error("watch.error", "err", err)
				}
			}

			// ctx is already done; give in-flight persons their full timeout
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Queue.ProcessTimeout)
			defer cancel()
			q.Shutdown(drainCtx)
			logger.Info("watch.stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "inbox directory; each sub-directory is a person (required)")
	cmd.Flags().StringVar(&output, "output", "", "keep a results JSON file up to date")
	cmd.Flags().BoolVar(&initial, "initial-scan", true, "process persons already complete at startup")
	cmd.Flags().BoolVar(&inmem, "inmem", false, "store verification records in an in-memory SQLite database")
	return cmd
}

func sortedResults(m map[string]entity.PersonResult) []entity.PersonResult {
	out := make([]entity.PersonResult, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out
}
