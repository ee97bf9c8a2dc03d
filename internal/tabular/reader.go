package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/xuri/excelize/v2"
)

// MaxUploadBytes is the size ceiling for an uploaded file.
const MaxUploadBytes = 10 << 20

var (
	// ErrTooLarge is returned when the input exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedFormat is returned for file types that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmpty is returned when the file has no header or no data rows.
	ErrEmpty = errors.New("file is empty")
	// ErrParse is returned when the content cannot be parsed.
	ErrParse = errors.New("failed to parse file")
)

// Sheet is a raw column-oriented table as read from a file.
type Sheet struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Read parses a CSV or XLSX file, optionally gzip or zstd compressed, into a
// Sheet. The format is chosen from the file name extension.
func Read(name string, r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrTooLarge, MaxUploadBytes>>20)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	name = strings.ToLower(filepath.Base(name))
	switch filepath.Ext(name) {
	case ".gz":
		data, err = gunzip(data)
		name = strings.TrimSuffix(name, ".gz")
	case ".zst":
		data, err = unzstd(data)
		name = strings.TrimSuffix(name, ".zst")
	}
	if errors.Is(err, ErrTooLarge) {
		return nil, fmt.Errorf("%w: limit is %d MB after decompression", ErrTooLarge, MaxUploadBytes>>20)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var sheet *Sheet
	switch filepath.Ext(name) {
	case ".csv", ".txt", "":
		sheet, err = readCSV(data)
	case ".xlsx", ".xlsm":
		sheet, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}

	if len(sheet.Header) == 0 || len(sheet.Rows) == 0 {
		return nil, ErrEmpty
	}
	return sheet, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = zr.Close()
	}()
	return readLimited(zr)
}

func unzstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readLimited(dec)
}

// readLimited applies the size ceiling to decompressed content as well.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func readCSV(data []byte) (*Sheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return sheetFromRecords(records), nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the
// header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte(","))
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func readXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return sheetFromRecords(records), nil
}

// sheetFromRecords treats the first non-blank record as the header and drops
// blank rows.
func sheetFromRecords(records [][]string) *Sheet {
	sheet := &Sheet{}
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		if sheet.Header == nil {
			sheet.Header = make([]string, len(rec))
			for i, h := range rec {
				sheet.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		row := make([]string, len(sheet.Header))
		copy(row, rec)
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
