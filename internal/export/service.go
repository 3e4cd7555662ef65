package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

const (
	SheetSummary = "Summary"
	SheetDetails = "Details"
	SheetFields  = "Fields"
)

// Service produces XLSX verification reports, either from in-memory results
// or from stored verifications.
type Service struct {
	repo   repository.VerificationRepository
	logger *slog.Logger
}

// NewService accepts a nil repository when only in-memory exports are needed.
func NewService(repo repository.VerificationRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ResultsXLSX renders results as workbook bytes.
func (s *Service) ResultsXLSX(results []entity.PersonResult) ([]byte, error) {
	start := time.Now()
	f, err := BuildWorkbook(results)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"persons", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// StoredXLSX exports the most recent stored verifications with the given status.
func (s *Service) StoredXLSX(ctx context.Context, status constants.OverallStatus, limit int) ([]byte, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("export: no repository configured")
	}
	recs, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	results := make([]entity.PersonResult, 0, len(recs))
	for _, r := range recs {
		results = append(results, entity.NewPersonResult(r.PersonID, r.Extraction, r.Outcome, nil))
	}
	return s.ResultsXLSX(results)
}

// BuildWorkbook lays out one Summary row per person, one Details row per
// rule verdict and one Fields row per extracted value.
func BuildWorkbook(results []entity.PersonResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetDetails, SheetFields} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	idx, _ := f.GetSheetIndex(SheetSummary)
	f.SetActiveSheet(idx)

	summary := []any{"Person ID", "Overall Status"}
	for _, id := range constants.RuleIDs {
		summary = append(summary, string(id))
	}
	summary = append(summary, "Extracted Fields", "OCR Engines", "Errors")
	if err := writeRow(f, SheetSummary, 1, summary); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetDetails, 1, []any{"Person ID", "Rule", "Status", "Reason"}); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetFields, 1, []any{"Person ID", "Document", "Field", "Value", "Confidence", "Source"}); err != nil {
		return nil, err
	}

	detailRow, fieldRow := 2, 2
	for i, r := range results {
		row := []any{r.PersonID, string(r.OverallStatus)}
		for _, id := range constants.RuleIDs {
			status := ""
			if res, ok := r.VerificationResults[id]; ok {
				status = string(res.Status)
			}
			row = append(row, status)
		}
		row = append(row, r.ExtractedData.Count(), joinNonEmpty(r.OCREnginesUsed), joinNonEmpty(r.Errors))
		if err := writeRow(f, SheetSummary, i+2, row); err != nil {
			return nil, err
		}

		for _, id := range constants.RuleIDs {
			res, ok := r.VerificationResults[id]
			if !ok {
				continue
			}
			if err := writeRow(f, SheetDetails, detailRow, []any{r.PersonID, string(id), string(res.Status), res.Reason}); err != nil {
				return nil, err
			}
			detailRow++
		}

		for _, dt := range r.ExtractedData.DocumentOrder() {
			fields := r.ExtractedData[dt]
			for _, name := range constants.FieldNames {
				fv, ok := fields[name]
				if !ok || !fv.NonEmpty() {
					continue
				}
				if err := writeRow(f, SheetFields, fieldRow, []any{
					r.PersonID, string(dt), string(name), displayValue(fv), string(fv.Confidence), string(fv.Source),
				}); err != nil {
					return nil, err
				}
				fieldRow++
			}
		}
	}

	_ = f.SetColWidth(SheetSummary, "A", "B", 16)
	_ = f.SetColWidth(SheetSummary, "C", "I", 24)
	_ = f.SetColWidth(SheetDetails, "A", "C", 24)
	_ = f.SetColWidth(SheetDetails, "D", "D", 90)
	_ = f.SetColWidth(SheetFields, "A", "C", 18)
	_ = f.SetColWidth(SheetFields, "D", "D", 60)
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func displayValue(f entity.ExtractedField) string {
	if f.Address == nil {
		return truncate(f.StringValue(), 140)
	}
	a := f.Address
	var parts []string
	for _, p := range []*string{a.House, a.Street, a.City, a.State, a.Pincode} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return truncate(joinNonEmpty(parts), 140)
}

func joinNonEmpty(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
