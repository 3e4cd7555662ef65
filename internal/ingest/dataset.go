// Package ingest discovers persons and their document images in a dataset
// directory, a ZIP archive or a watched inbox.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// DirStats summarizes a dataset scan.
type DirStats struct {
	Persons    uint32
	Complete   uint32
	Incomplete uint32
	Images     uint32
	Ignored    uint32
}

type ScanResult struct {
	Persons    []entity.PersonDocuments // all three documents present, sorted by id
	Incomplete []entity.PersonDocuments // skipped for missing documents
	Stats      DirStats
}

// ScanDataset treats every non-hidden sub-directory of root as a person. An
// image whose file stem ends with a document-type key ("p1_government_id.png")
// is that document.
func ScanDataset(root string, logger *slog.Logger) (ScanResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return ScanResult{}, errors.New("dataset root is required")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return ScanResult{}, fmt.Errorf("read dataset: %w", err)
	}

	var res ScanResult
	for _, e := range entries {
		if !e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		person, stats, err := ScanPerson(filepath.Join(root, e.Name()), logger)
		if err != nil {
			return res, err
		}
		res.Stats.Persons++
		res.Stats.Images += stats.Images
		res.Stats.Ignored += stats.Ignored

		if person.Complete() {
			res.Persons = append(res.Persons, person)
			res.Stats.Complete++
			continue
		}
		res.Incomplete = append(res.Incomplete, person)
		res.Stats.Incomplete++
		logger.Warn("ingest.person.incomplete",
			"person_id", person.PersonID,
			"found", len(person.Documents),
			"missing", person.Missing(),
		)
	}
	entity.SortPersons(res.Persons)
	entity.SortPersons(res.Incomplete)

	logger.Info("ingest.scan.done",
		"root", root,
		"persons", res.Stats.Persons,
		"complete", res.Stats.Complete,
		"incomplete", res.Stats.Incomplete,
	)
	return res, nil
}

// ScanPerson maps the images directly inside dir to document types. When
// several images match one type the first by name wins.
func ScanPerson(dir string, logger *slog.Logger) (entity.PersonDocuments, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return entity.PersonDocuments{}, DirStats{}, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return entity.PersonDocuments{}, DirStats{}, fmt.Errorf("read person dir: %w", err)
	}

	person := entity.PersonDocuments{
		PersonID:  filepath.Base(abs),
		Dir:       abs,
		Documents: make(map[constants.DocumentType]string, len(constants.DocumentTypes)),
	}
	var stats DirStats
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !constants.IsImageExt(ext) {
			stats.Ignored++
			continue
		}
		stats.Images++
		dt, ok := DocumentTypeForFile(e.Name())
		if !ok {
			stats.Ignored++
			continue
		}
		if prev, dup := person.Documents[dt]; dup {
			logger.Warn("ingest.person.duplicate_document",
				"person_id", person.PersonID, "document_type", dt, "kept", prev, "ignored", e.Name())
			continue
		}
		person.Documents[dt] = filepath.Join(abs, e.Name())
	}
	return person, stats, nil
}

// DocumentTypeForFile matches the file stem's suffix against the document
// type keys, case-insensitively.
func DocumentTypeForFile(name string) (constants.DocumentType, bool) {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	for _, dt := range constants.DocumentTypes {
		if strings.HasSuffix(stem, string(dt)) {
			return dt, true
		}
	}
	return "", false
}

// IsHidden reports whether a file or directory name starts with '.'.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
