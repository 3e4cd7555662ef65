package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-verifier/internal/app"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/extract"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/pipeline"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var (
		extraction string
		personID   string
		save       bool
		inmem      bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the cross-document rules on an already extracted person",
		Long: "Reads either {\"person_id\": ..., \"extraction\": {...}} or a bare extraction keyed by\n" +
			"document type, normalizes every field and prints the verification result as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if extraction == "" {
				return errors.New("--extraction is required")
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			id, ext, err := readExtraction(extraction)
			if err != nil {
				return err
			}
			if personID != "" {
				id = personID
			}
			if id == "" {
				id = strings.TrimSuffix(filepath.Base(extraction), filepath.Ext(extraction))
			}

			engine, err := app.NewEngine(cfg.Verify, logger)
			if err != nil {
				return err
			}
			var opts []pipeline.Option
			if save {
				db, repo, err := repository.InitDatabase(ctx, cfg.Database, inmem, logger)
				if err != nil {
					return fmt.Errorf("init database: %w", err)
				}
				defer repository.Close(db, logger)
				opts = append(opts, pipeline.WithStore(repo))
			}
			proc := pipeline.NewProcessor(logger, nil, nil, engine, opts...)

			res, err := proc.VerifyExtraction(ctx, id, extract.PostProcessPerson(ext))
			if err != nil && res.PersonID == "" {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if encErr := enc.Encode(res); encErr != nil {
				return encErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&extraction, "extraction", "", "extraction JSON file (required)")
	cmd.Flags().StringVar(&personID, "person-id", "", "person id (defaults to the file's person_id or name)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the verification record")
	cmd.Flags().BoolVar(&inmem, "inmem", false, "with --save, use an in-memory SQLite database")
	return cmd
}

func readExtraction(path string) (string, entity.PersonExtraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read extraction: %w", err)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("decode extraction %s: %w", path, err)
	}

	var (
		id  string
		ext entity.PersonExtraction
	)
	if raw, ok := envelope["extraction"]; ok {
		if rawID, ok := envelope["person_id"]; ok {
			if err := json.Unmarshal(rawID, &id); err != nil {
				return "", nil, fmt.Errorf("decode person_id: %w", err)
			}
		}
		data = raw
	}
	if err := json.Unmarshal(data, &ext); err != nil {
		return "", nil, fmt.Errorf("decode extraction %s: %w", path, err)
	}
	for dt := range ext {
		if !dt.Valid() {
			return "", nil, fmt.Errorf("unknown document type %q", dt)
		}
	}
	return strings.TrimSpace(id), ext, nil
}
