package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-verifier/internal/evaluate"
)

const detailPreview = 5

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var groundTruth, predictions, output string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score predictions against ground truth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if groundTruth == "" || predictions == "" {
				return errors.New("--ground-truth and --predictions are required")
			}
			_, logger, err := root.load()
			if err != nil {
				return err
			}

			gt, err := evaluate.LoadRecords(groundTruth)
			if err != nil {
				return err
			}
			pred, err := evaluate.LoadRecords(predictions)
			if err != nil {
				return err
			}
			rep, err := evaluate.Evaluate(gt, pred)
			if err != nil {
				return err
			}
			if err := evaluate.SaveReport(output, rep); err != nil {
				return err
			}
			logger.Info("evaluate.done",
				"overall_accuracy", rep.OverallAccuracy,
				"person_level_accuracy", rep.PersonLevelAccuracy,
				"details", len(rep.Details),
				"output", output,
			)
			printReport(cmd.OutOrStdout(), rep)
			fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&groundTruth, "ground-truth", "", "ground truth JSON (required)")
	cmd.Flags().StringVar(&predictions, "predictions", "", "predictions JSON, e.g. results.json (required)")
	cmd.Flags().StringVar(&output, "output", "logs/metrics/evaluation_report.json", "report JSON path")
	return cmd
}

func printReport(w io.Writer, rep evaluate.Report) {
	c := rep.Counts
	fmt.Fprintf(w, "Ground truth persons: %d, predictions: %d, matched: %d, missing: %d\n",
		c.GTCount, c.PredCount, c.MatchedPersons, c.MissingPreds)
	fmt.Fprintf(w, "Overall rule accuracy: %.2f%% (%d/%d)\n",
		rep.OverallAccuracy*100, c.CorrectRuleChecks, c.TotalRuleChecks)
	fmt.Fprintf(w, "Person-level accuracy: %.2f%% (%d/%d)\n",
		rep.PersonLevelAccuracy*100, c.CorrectPersons, c.GTCount)

	keys := make([]string, 0, len(rep.RuleAccuracy))
	for k := range rep.RuleAccuracy {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		fmt.Fprintln(w, "\nPer-rule accuracy:")
	}
	for _, k := range keys {
		ra := rep.RuleAccuracy[k]
		fmt.Fprintf(w, "  %-8s %6.2f%% (%d/%d)\n", k, ra.Accuracy*100, ra.Correct, ra.Total)
	}

	if len(rep.Details) == 0 {
		return
	}
	fmt.Fprintf(w, "\nMismatches (%d, showing up to %d):\n", len(rep.Details), detailPreview)
	for i, d := range rep.Details {
		if i == detailPreview {
			break
		}
		switch {
		case d.Message != "":
			fmt.Fprintf(w, "  %s [%s] %s\n", d.PersonID, d.Type, d.Message)
		case len(d.RuleMismatches) > 0:
			fmt.Fprintf(w, "  %s [%s] %d rule(s)\n", d.PersonID, d.Type, len(d.RuleMismatches))
		default:
			fmt.Fprintf(w, "  %s [%s] expected %s, got %s\n", d.PersonID, d.Type, d.GTNormalized, d.PredNormalized)
		}
	}
}
