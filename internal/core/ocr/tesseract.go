package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

const EngineTesseract = "tesseract"

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // page segmentation mode; 0 leaves the engine default
	OEM         int // 1 = LSTM; 0 leaves the engine default
}

// Tesseract runs the tesseract CLI in TSV mode and rebuilds the text line by
// line, taking the mean word confidence from the same pass.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	return newTesseract(cfg, execRunner{}, logger)
}

func newTesseract(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (t *Tesseract) Recognize(ctx context.Context, path string) (TextResult, error) {
	start := time.Now()
	res := TextResult{Engine: EngineTesseract}

	if !constants.IsImageExt(filepath.Ext(path)) {
		err := fmt.Errorf("unsupported extension: %q", filepath.Ext(path))
		res.Error = err.Error()
		return res, err
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, t.args(path)...)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = strings.TrimSpace(string(errb))
		if res.Error == "" {
			res.Error = err.Error()
		}
		return res, fmt.Errorf("tesseract: %w", err)
	}

	page := parseTSV(string(out))
	res.RawText = Normalize(strings.Join(page.lines, "\n"))
	res.Lines = len(page.lines)
	res.Words = page.words
	res.Success = res.RawText != ""
	res.Confidence = blendConfidence(page.meanConf, heuristicConfidence(res.RawText))

	t.logger.Info("ocr.recognize.ok",
		"path", path,
		"engine", EngineTesseract,
		"lines", res.Lines,
		"words", res.Words,
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (t *Tesseract) args(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return append(args, "tsv")
}

type tsvPage struct {
	lines    []string
	words    int
	meanConf float32 // 0..1, 0 when no word carried a confidence
}

type lineKey struct{ page, block, par, line int }

// parseTSV groups word rows (level 5) by page, block, paragraph and line.
// Columns: level page_num block_num par_num line_num word_num left top width
// height conf text.
func parseTSV(out string) tsvPage {
	words := make(map[lineKey][]string)
	var keys []lineKey
	var sum float64
	var n, count int

	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		k := lineKey{atoi(cols[1]), atoi(cols[2]), atoi(cols[3]), atoi(cols[4])}
		if _, seen := words[k]; !seen {
			keys = append(keys, k)
		}
		words[k] = append(words[k], text)
		count++

		if c, err := strconv.ParseFloat(cols[10], 64); err == nil && c >= 0 {
			sum += c
			n++
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.page != b.page {
			return a.page < b.page
		}
		if a.block != b.block {
			return a.block < b.block
		}
		if a.par != b.par {
			return a.par < b.par
		}
		return a.line < b.line
	})

	page := tsvPage{words: count}
	for _, k := range keys {
		page.lines = append(page.lines, strings.Join(words[k], " "))
	}
	if n > 0 {
		page.meanConf = float32(sum / float64(n) / 100.0)
	}
	return page
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
