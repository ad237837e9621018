// Package report renders the aggregate result lines to the console or a
// file, in plain text, JSON, or CSV. Plain text is written verbatim;
// JSON and CSV are structured outputs, so any ANSI color sequences are
// stripped before serialization.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/Kuraiyume/Akari/internal/filesys"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want txt, json, or csv)", s)
	}
}

var _ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Writer renders result lines to their destination. The zero value is
// not usable; construct with New.
type Writer struct {
	fs     filesys.FileOps
	stdout io.Writer
}

// New creates a Writer over the OS filesystem and stdout.
func New() *Writer {
	return &Writer{
		fs:     filesys.OS(),
		stdout: os.Stdout,
	}
}

// NewWithDeps creates a Writer with injected filesystem and console
// writer, used by tests.
func NewWithDeps(fs filesys.FileOps, stdout io.Writer) *Writer {
	return &Writer{
		fs:     fs,
		stdout: stdout,
	}
}

// Write emits lines to dest in the given format. An empty dest means
// stdout. Files are overwritten if present, created if absent; the write
// is atomic so a crash never leaves a half-written report.
func (w *Writer) Write(lines []string, dest string, format Format) error {
	data, err := Render(lines, format)
	if err != nil {
		return err
	}

	if dest == "" {
		_, err := w.stdout.Write(data)
		return err
	}
	return filesys.AtomicWrite(w.fs, dest, data, 0o644)
}

// Render encodes lines in the given format and returns the raw bytes.
func Render(lines []string, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return renderJSON(lines)
	case FormatCSV:
		return renderCSV(lines)
	default:
		return renderText(lines), nil
	}
}

func renderText(lines []string) []byte {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func renderJSON(lines []string) ([]byte, error) {
	data, err := json.MarshalIndent(stripColors(lines), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func renderCSV(lines []string) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	for _, line := range stripColors(lines) {
		if err := cw.Write([]string{line}); err != nil {
			return nil, fmt.Errorf("encoding CSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("encoding CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// stripColors removes ANSI escape sequences. Console markup is purely
// cosmetic and has no place in structured output.
func stripColors(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = _ansiPattern.ReplaceAllString(line, "")
	}
	return out
}
