package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-verifier/internal/app"
)

func newOCRCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ocr <image>",
		Short: "Print the OCR text of one document image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			res, err := app.NewTextProvider(cfg.OCR, logger).Recognize(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("ocr %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "engine=%s confidence=%.2f lines=%d words=%d duration=%s\n\n",
				res.Engine, res.Confidence, res.Lines, res.Words, res.Duration)
			fmt.Fprintln(out, res.RawText)
			return nil
		},
	}
}
