// Package tabular reads uploaded CSV and XLSX sheets into string rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is a supported sheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrUnsupported is returned for content that is neither text nor a workbook.
var ErrUnsupported = errors.New("unsupported file format")

// Detect sniffs data and returns its format. Workbooks are only accepted
// when allowXLSX is set.
func Detect(filename string, data []byte, allowXLSX bool) (Format, error) {
	mtype := mimetype.Detect(data)
	if allowXLSX && mtype.Is(xlsxMIME) {
		return FormatXLSX, nil
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return FormatCSV, nil
		}
	}
	// Latin-1 exports can sniff as octet-stream.
	if mtype.Is("application/octet-stream") &&
		strings.EqualFold(filepath.Ext(filename), ".csv") &&
		!bytes.ContainsRune(data, 0) {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mtype.String())
}

// DecodeText returns data as UTF-8. A UTF-8 byte order mark is stripped and
// content that is not valid UTF-8 is read as Latin-1.
func DecodeText(data []byte) []byte {
	if utf8.Valid(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err == nil {
			return out
		}
		return data
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return data
	}
	return out
}

// NewCSVReader decodes data and returns a lenient reader over it.
func NewCSVReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(DecodeText(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r
}

// ReadRows returns every row of the first sheet of data.
func ReadRows(format Format, data []byte) ([][]string, error) {
	switch format {
	case FormatCSV:
		rows, err := NewCSVReader(data).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		return rows, nil
	case FormatXLSX:
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("read sheet: %w", err)
		}
		return rows, nil
	default:
		return nil, ErrUnsupported
	}
}

// Header maps normalized column names to their index. The first occurrence
// of a name wins.
type Header map[string]int

// NewHeader builds a Header from a header row.
func NewHeader(row []string) Header {
	h := make(Header, len(row))
	for i, name := range row {
		key := normalize(name)
		if _, ok := h[key]; !ok && key != "" {
			h[key] = i
		}
	}
	return h
}

// Index returns the position of the first candidate present in the header.
func (h Header) Index(candidates ...string) (int, bool) {
	for _, c := range candidates {
		if i, ok := h[normalize(c)]; ok {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the trimmed value at i, or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}
