package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-verifier/internal/app"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/pipeline"
	"github.com/joseph-ayodele/kyc-verifier/internal/export"
	"github.com/joseph-ayodele/kyc-verifier/internal/ingest"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

func newBatchCmd(root *rootOptions) *cobra.Command {
	var (
		input   string
		output  string
		xlsx    string
		inmem   bool
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Verify every person in a dataset directory or ZIP archive",
		Example: "  kycverify batch --input dataset/ --output results.json\n" +
			"  kycverify batch --input dataset.zip --output results.json --xlsx report.xlsx --inmem",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("--input is required")
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			start := time.Now()

			scan, cleanup, err := ingest.OpenDataset(input, logger)
			if err != nil {
				return fmt.Errorf("open dataset %s: %w", input, err)
			}
			defer cleanup()
			for _, p := range scan.Incomplete {
				logger.Warn("batch.person.skipped", "person_id", p.PersonID, "missing", p.Missing())
			}
			logger.Info("batch.scan.done",
				"persons", scan.Stats.Persons,
				"complete", scan.Stats.Complete,
				"incomplete", scan.Stats.Incomplete,
				"images", scan.Stats.Images,
			)

			var store pipeline.Store
			if !noStore {
				db, repo, err := repository.InitDatabase(ctx, cfg.Database, inmem, logger)
				if err != nil {
					return fmt.Errorf("init database: %w", err)
				}
				defer repository.Close(db, logger)
				store = repo
			}

			proc, err := app.NewProcessor(cfg, store, nil, logger)
			if err != nil {
				return err
			}
			results, err := app.ProcessAll(ctx, proc, scan.Persons, cfg.Queue, nil, logger)
			if err != nil {
				logger.Warn("batch.interrupted", "processed", len(results), "err", err)
			}

			if err := export.SaveResults(output, results); err != nil {
				return fmt.Errorf("write results: %w", err)
			}
			if xlsx != "" {
				data, err := export.NewService(nil, logger).ResultsXLSX(results)
				if err != nil {
					return err
				}
				if err := export.SaveBytes(xlsx, data); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}

			sum := export.Summarize(results)
			logger.Info("batch.done",
				"total", sum.Total, "verified", sum.Verified, "failed", sum.Failed,
				"output", output, "duration_ms", time.Since(start).Milliseconds())
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d persons. Verified: %d, Failed: %d\n", sum.Total, sum.Verified, sum.Failed)
			fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", filepath.Clean(output))
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "dataset directory or .zip archive (required)")
	cmd.Flags().StringVar(&output, "output", "results.json", "results JSON path")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write an XLSX report to this path")
	cmd.Flags().BoolVar(&inmem, "inmem", false, "store verification records in an in-memory SQLite database")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist verification records")
	return cmd
}
