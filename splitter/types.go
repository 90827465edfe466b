package splitter

import (
	"bytes"
	"context"
	"errors"
	"time"
)

var (
	// ErrSourceDirNotFound is fatal for a scan.
	ErrSourceDirNotFound = errors.New("source directory not found")
	// ErrEmptyFile and ErrUnreadableFile skip a single file.
	ErrEmptyFile      = errors.New("file is empty")
	ErrUnreadableFile = errors.New("file is unreadable")
)

// Part accumulates the header and data lines of one output file.
type Part struct {
	Ordinal   int
	DataLines int
	buf       bytes.Buffer
}

func newPart(ordinal int, header []byte) *Part {
	p := &Part{Ordinal: ordinal}
	p.buf.Write(header)
	return p
}

// Size is the accumulated byte size including the header.
func (p *Part) Size() int64 { return int64(p.buf.Len()) }

// Bytes returns the part contents; valid until the next append.
func (p *Part) Bytes() []byte { return p.buf.Bytes() }

func (p *Part) append(line []byte) {
	p.buf.Write(line)
	p.DataLines++
}

// PartInfo describes a written part.
type PartInfo struct {
	Source    string `json:"source"`
	Name      string `json:"name"`
	Ordinal   int    `json:"ordinal"`
	Bytes     int64  `json:"bytes"`
	DataLines int    `json:"data_lines"`
}

// FileResult is the outcome for one directory entry that was considered.
type FileResult struct {
	Source  string
	Size    int64
	Parts   []PartInfo
	Skipped bool
	Reason  string
}

// ScanResult collects every considered file of one scan, in listing order.
type ScanResult struct {
	RunID string
	Files []FileResult
}

// PartCount is the number of parts written during the scan.
func (r *ScanResult) PartCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Parts)
	}
	return n
}

// SplitCount is the number of files that produced at least one part.
func (r *ScanResult) SplitCount() int {
	n := 0
	for _, f := range r.Files {
		if len(f.Parts) > 0 {
			n++
		}
	}
	return n
}

// PartEvent is published for every written part.
type PartEvent struct {
	RunID string    `json:"run_id"`
	Part  PartInfo  `json:"part"`
	Time  time.Time `json:"time"`
}

// Notifier is told about each part after it was written.
type Notifier interface {
	PartCreated(ctx context.Context, ev PartEvent) error
}

// Metrics receives splitter counters.
type Metrics interface {
	PartWritten(bytes int64)
	FileSplit()
	FileSkipped(reason string)
}

type nopNotifier struct{}

func (nopNotifier) PartCreated(context.Context, PartEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) PartWritten(int64)  {}
func (nopMetrics) FileSplit()         {}
func (nopMetrics) FileSkipped(string) {}
