package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	stdout, stderr string
	err            error
	name           string
	args           []string
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.name, s.args = name, args
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func tsv(rows ...string) string {
	header := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext"
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func TestTesseractRecognize(t *testing.T) {
	runner := &stubRunner{stdout: tsv(
		"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t",
		"5\t1\t1\t1\t2\t1\t10\t40\t50\t20\t80\tDOB:",
		"5\t1\t1\t1\t2\t2\t70\t40\t90\t20\t90\t15/08/1990",
		"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t96\tName:",
		"5\t1\t1\t1\t1\t2\t70\t10\t60\t20\t94\tLalita",
		"5\t1\t1\t1\t1\t3\t140\t10\t80\t20\t-1\t ",
	)}
	tess := newTesseract(Config{PSM: 6}, runner, nil)

	res, err := tess.Recognize(context.Background(), "/data/p1/p1_government_id.PNG")
	require.NoError(t, err)

	assert.Equal(t, "tesseract", runner.name)
	assert.Equal(t, []string{"/data/p1/p1_government_id.PNG", "stdout", "-l", "eng", "--psm", "6", "tsv"}, runner.args)

	assert.True(t, res.Success)
	assert.Equal(t, EngineTesseract, res.Engine)
	assert.Equal(t, "Name: Lalita\nDOB: 15/08/1990", res.RawText)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, 4, res.Words)
	assert.Greater(t, res.Confidence, float32(0.6))
	assert.LessOrEqual(t, res.Confidence, float32(1.0))
}

func TestTesseractRecognizeNoText(t *testing.T) {
	tess := newTesseract(Config{}, &stubRunner{stdout: tsv()}, nil)

	res, err := tess.Recognize(context.Background(), "scan.jpg")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.RawText)
}

func TestTesseractRecognizeFailure(t *testing.T) {
	tess := newTesseract(Config{}, &stubRunner{stderr: "Error opening data file", err: errors.New("exit status 1")}, nil)

	res, err := tess.Recognize(context.Background(), "scan.jpg")
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Error opening data file", res.Error)
}

func TestTesseractRejectsUnsupportedExtension(t *testing.T) {
	runner := &stubRunner{}
	_, err := newTesseract(Config{}, runner, nil).Recognize(context.Background(), "statement.pdf")
	require.Error(t, err)
	assert.Empty(t, runner.name, "binary must not run")
}

func TestNormalize(t *testing.T) {
	in := "Name:\tLalita   Sharma  \r\n-----\r\n\r\n\r\n\r\nDOB: 01/02/1990\x0c"
	assert.Equal(t, "Name: Lalita Sharma\n\nDOB: 01/02/1990", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestHeuristicConfidence(t *testing.T) {
	plain := heuristicConfidence("hello")
	id := heuristicConfidence("Income Tax Department\nName: A B\nDOB 01/02/1990\nABCDE1234F\nPune 411001")
	assert.InDelta(t, 0.2, plain, 1e-6)
	assert.Greater(t, id, plain)
	assert.LessOrEqual(t, id, float32(1.0))

	assert.InDelta(t, 0.5, blendConfidence(0, 0.5), 1e-6)
	assert.InDelta(t, 0.7*0.9+0.3*0.5, blendConfidence(0.9, 0.5), 1e-6)
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 4}
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, _ = b.Write([]byte("defg"))
	assert.Equal(t, 4, n, "writes always report full length")
	assert.Equal(t, "abcd", string(b.buf))
	assert.Equal(t, 3, b.dropped)
	assert.Contains(t, b.String(), "3 bytes truncated")
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, _, err := execRunner{}.Run(context.Background(), "kycverify-no-such-ocr-binary", slog.Default())
	assert.ErrorIs(t, err, ErrEngineMissing)
}
