package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DefaultNAValues are the cell values treated as missing when reading CSV.
// They match the defaults of pandas.read_csv so datasets prepared with
// pandas are interpreted the same way.
var DefaultNAValues = []string{
	"",
	"#N/A",
	"#N/A N/A",
	"#NA",
	"-1.#IND",
	"-1.#QNAN",
	"-NaN",
	"-nan",
	"1.#IND",
	"1.#QNAN",
	"<NA>",
	"N/A",
	"NA",
	"NULL",
	"NaN",
	"None",
	"n/a",
	"nan",
	"null",
}

// readConfig holds ReadCSV settings.
type readConfig struct {
	naValues map[string]bool
}

// ReadOption configures ReadCSV.
type ReadOption func(*readConfig)

// WithNAValues replaces the set of cell values treated as missing.
// The empty string is always treated as missing.
func WithNAValues(values []string) ReadOption {
	return func(c *readConfig) {
		c.naValues = map[string]bool{"": true}
		for _, v := range values {
			c.naValues[v] = true
		}
	}
}

// ReadCSV parses comma-separated data with a header row.
//
// The input must be valid UTF-8; a leading byte order mark is removed and
// every other byte is kept as is. Blank lines are skipped. A quote inside an
// unquoted field is an ordinary character, but a quoted field still open at
// the end of the input is an error. Empty header cells are named
// "Unnamed: N" and duplicated header names get ".1", ".2", ... suffixes.
// Records shorter than the header are padded with missing fields; longer
// records are an error.
func ReadCSV(r io.Reader, opts ...ReadOption) (*Table, error) {
	cfg := &readConfig{}
	WithNAValues(DefaultNAValues)(cfg)
	for _, opt := range opts {
		opt(cfg)
	}

	data, err := io.ReadAll(transform.NewReader(r, encoding.UTF8Validator))
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return nil, fmt.Errorf("%w: line %d", ErrInvalidEncoding, bytes.Count(data, []byte{'\n'})+1)
	}
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	lastLine, lastCol := reader.FieldPos(len(header) - 1)

	t := New(dedupColumns(header))
	width := len(t.columns)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		lastLine, lastCol = reader.FieldPos(len(record) - 1)

		if len(record) > width {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: expected %d fields in line %d, saw %d",
				ErrTooManyFields, width, line, len(record))
		}

		row := make([]Field, width)
		for i, v := range record {
			if cfg.naValues[v] {
				continue
			}
			row[i] = Present(v)
		}
		t.rows = append(t.rows, row)
	}

	if err := checkLastQuote(data, lastLine, lastCol); err != nil {
		return nil, err
	}

	return t, nil
}

// utf8BOM is the UTF-8 encoded byte order mark.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// checkLastQuote reports a quoted field that is never closed. Such a field
// swallows the rest of the input, so only the last field read can be one.
// line and col are its 1-based position as reported by csv.Reader.FieldPos.
func checkLastQuote(data []byte, line, col int) error {
	offset := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(data[offset:], '\n')
		if i < 0 {
			return nil
		}
		offset += i + 1
	}
	offset += col - 1

	if offset >= len(data) || data[offset] != '"' || quoteClosed(data[offset:]) {
		return nil
	}
	return &csv.ParseError{StartLine: line, Line: line, Column: col, Err: csv.ErrQuote}
}

// quoteClosed reports whether the quoted field starting at s[0] has a
// closing quote. Doubled quotes inside the field are escapes.
func quoteClosed(s []byte) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '"' {
			i++
			continue
		}
		return true
	}
	return false
}

// ReadFile opens path and parses it with ReadCSV.
func ReadFile(path string, opts ...ReadOption) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the artifact store
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the header and all rows as comma-separated data with "\n"
// line endings and no index column. Missing fields are written as empty cells.
//
// A field is quoted only when it contains a comma, a double quote or a line
// break, the minimal quoting pandas uses. Leading spaces stay unquoted.
func (t *Table) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeRecord(bw, t.columns)

	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, f := range row {
			record[i] = f.Value
			if !f.Valid {
				record[i] = ""
			}
		}
		writeRecord(bw, record)
	}

	return bw.Flush()
}

// writeRecord writes one line. Write errors are sticky in bufio.Writer and
// surface from Flush.
func writeRecord(w *bufio.Writer, record []string) {
	for i, field := range record {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		if !strings.ContainsAny(field, ",\"\r\n") {
			_, _ = w.WriteString(field)
			continue
		}
		_ = w.WriteByte('"')
		_, _ = w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('\n')
}

// WriteFile writes the table to path. The data is written to a temporary
// file in the same directory and renamed into place, so a failed write
// never leaves a truncated file at path.
func (t *Table) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if err := t.WriteCSV(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil { //nolint:gosec // output is a shared dataset
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// dedupColumns names empty header cells and makes duplicated names unique,
// following the pandas convention ("a", "a.1", "a.2").
func dedupColumns(header []string) []string {
	names := make([]string, len(header))
	counts := make(map[string]int, len(header))

	for i, col := range header {
		if col == "" {
			col = fmt.Sprintf("Unnamed: %d", i)
		}
		cur := counts[col]
		for cur > 0 {
			counts[col] = cur + 1
			col = fmt.Sprintf("%s.%d", col, cur)
			cur = counts[col]
		}
		names[i] = col
		counts[col] = cur + 1
	}

	return names
}
