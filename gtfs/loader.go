package gtfs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

const rawInputPreviewBytes = 500

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func init() {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.TrimLeadingSpace = true
		return r
	})
}

// ParseRawRecords reads comma-delimited CSV with a header row. Lines holding
// only whitespace are skipped, and header names and values are trimmed,
// including spaces before a quoted field. Rows whose field count does not
// match the header fail the whole parse.
func ParseRawRecords(r io.Reader) ([]RawRecord, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rows, err := gocsv.CSVToMaps(bytes.NewReader(dropBlankLines(blob)))
	if err != nil {
		return nil, err
	}
	out := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := make(RawRecord, len(row))
		for k, v := range row {
			rec[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		out = append(out, rec)
	}
	return out, nil
}

// dropBlankLines removes lines that are empty after trimming whitespace.
// A blank line inside a quoted multi-line field is removed as well.
func dropBlankLines(blob []byte) []byte {
	out := make([]byte, 0, len(blob))
	for len(blob) > 0 {
		line := blob
		if i := bytes.IndexByte(blob, '\n'); i >= 0 {
			line, blob = blob[:i+1], blob[i+1:]
		} else {
			blob = nil
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out = append(out, line...)
	}
	return out
}

// ProcessRoutes parses and validates a routes.txt blob. It never panics and
// never returns an error: blob-level failures yield Success=false with exactly
// one ValidationError, row failures are collected and skipped.
func ProcessRoutes(blob []byte, source string) ProcessedResult {
	res := ProcessedResult{
		Routes:            []Route{},
		Errors:            []ValidationError{},
		SourceDescription: source,
	}

	blob = bytes.TrimPrefix(blob, utf8BOM)
	if len(bytes.TrimSpace(blob)) == 0 {
		log.Printf("[routes] %s: routes CSV is empty or was not loaded", source)
		res.Errors = append(res.Errors, ValidationError{Details: "Embedded CSV data not found or empty."})
		return res
	}

	records, err := ParseRawRecords(bytes.NewReader(blob))
	if err != nil {
		log.Printf("[routes] %s: critical error parsing routes CSV: %v", source, err)
		res.Errors = append(res.Errors, ValidationError{
			RawInput: preview(blob),
			Details:  fmt.Sprintf("CSV parsing failed: %v", err),
		})
		return res
	}

	for i, rec := range records {
		route, ferrs := ValidateRoute(rec)
		if len(ferrs) > 0 {
			res.Errors = append(res.Errors, ValidationError{Row: i + 1, Record: rec, Fields: ferrs})
			continue
		}
		res.Routes = append(res.Routes, route)
	}
	res.Success = true

	if len(res.Errors) > 0 {
		log.Printf("[routes] %s: %d validation errors, %d routes accepted", source, len(res.Errors), len(res.Routes))
	} else {
		log.Printf("[routes] %s: successfully processed %d routes", source, len(res.Routes))
	}
	return res
}

// LoadRoutesFile processes routes.txt from disk. An unreadable file is a
// blob-level failure. cachePath may be empty to disable the result cache.
func LoadRoutesFile(path, cachePath string) ProcessedResult {
	blob, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[routes] cannot read %s: %v", path, err)
		return ProcessedResult{
			Routes:            []Route{},
			Errors:            []ValidationError{{Details: fmt.Sprintf("reading routes file failed: %v", err)}},
			SourceDescription: path,
		}
	}
	return ProcessRoutesCached(blob, path, cachePath)
}

func preview(blob []byte) string {
	if len(blob) > rawInputPreviewBytes {
		blob = blob[:rawInputPreviewBytes]
	}
	return strings.ToValidUTF8(string(blob), "")
}
