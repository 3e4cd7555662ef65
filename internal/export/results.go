package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// Summary is the batch tally printed after a run.
type Summary struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
}

func Summarize(results []entity.PersonResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OverallStatus == constants.StatusVerified {
			s.Verified++
		}
	}
	s.Failed = s.Total - s.Verified
	return s
}

// WriteResultsJSON encodes results as an indented JSON array. A nil slice is
// written as [].
func WriteResultsJSON(w io.Writer, results []entity.PersonResult) error {
	if results == nil {
		results = []entity.PersonResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

// SaveResults writes the JSON results file, creating parent directories.
func SaveResults(path string, results []entity.PersonResult) error {
	return writeFile(path, func(w io.Writer) error { return WriteResultsJSON(w, results) })
}

// SaveBytes writes an already rendered report.
func SaveBytes(path string, data []byte) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadResultsJSON loads a results file written by SaveResults.
func ReadResultsJSON(path string) ([]entity.PersonResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []entity.PersonResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
