package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kuraiyume/Akari/internal/filesys"
	"github.com/Kuraiyume/Akari/internal/mocks"
	"github.com/Kuraiyume/Akari/internal/report"
)

var resultLines = []string{
	"A records for example.com:",
	"93.184.216.34",
	"No MX records found for example.com.",
	`TXT, with "quotes" and, commas`,
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"txt", "json", "csv"} {
		f, err := report.ParseFormat(ok)
		require.NoError(t, err)
		require.Equal(t, report.Format(ok), f)
	}
	_, err := report.ParseFormat("yaml")
	require.Error(t, err)
}

func TestRenderTextVerbatim(t *testing.T) {
	data, err := report.Render(resultLines, report.FormatText)
	require.NoError(t, err)
	require.Equal(t,
		"A records for example.com:\n"+
			"93.184.216.34\n"+
			"No MX records found for example.com.\n"+
			"TXT, with \"quotes\" and, commas\n",
		string(data))
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := report.Render(resultLines, report.FormatJSON)
	require.NoError(t, err)

	var back []string
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, resultLines, back)
}

func TestCSVRoundTrip(t *testing.T) {
	data, err := report.Render(resultLines, report.FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(resultLines))
	for i, row := range rows {
		require.Len(t, row, 1)
		require.Equal(t, resultLines[i], row[0])
	}
}

func TestStructuredFormatsStripANSI(t *testing.T) {
	colored := []string{"\x1b[31mThe domain nonexist.invalid does not exist.\x1b[0m"}

	data, err := report.Render(colored, report.FormatJSON)
	require.NoError(t, err)
	var back []string
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, []string{"The domain nonexist.invalid does not exist."}, back)

	data, err = report.Render(colored, report.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "The domain nonexist.invalid does not exist.\n", string(data))

	// Plain text stays verbatim, markup included.
	data, err = report.Render(colored, report.FormatText)
	require.NoError(t, err)
	require.Equal(t, colored[0]+"\n", string(data))
}

func TestWriteToStdout(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewWithDeps(filesys.OS(), &buf)

	require.NoError(t, w.Write(resultLines, "", report.FormatText))
	require.Equal(t, "A records for example.com:\n93.184.216.34\nNo MX records found for example.com.\nTXT, with \"quotes\" and, commas\n", buf.String())
}

func TestWriteToFileOverwrites(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	w := report.NewWithDeps(filesys.OS(), &bytes.Buffer{})
	require.NoError(t, w.Write(resultLines, dest, report.FormatJSON))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	var back []string
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, resultLines, back)
}

func TestWriteFileCreateFailure(t *testing.T) {
	fs := new(mocks.MockFileOps)
	fs.On("CreateTemp", ".", ".akari-*").Return(nil, errors.New("read-only filesystem"))

	w := report.NewWithDeps(fs, &bytes.Buffer{})
	err := w.Write(resultLines, "out.txt", report.FormatText)
	require.ErrorContains(t, err, "read-only filesystem")
	fs.AssertExpectations(t)
}
