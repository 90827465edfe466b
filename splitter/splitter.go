package splitter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/google/uuid"
)

// splitPartPattern matches names produced by an earlier split, e.g. stop_times.3.txt.
var splitPartPattern = regexp.MustCompile(`(?i)\.\d+\.txt$`)

// Options configures a Splitter.
type Options struct {
	SourceDir string
	Threshold datasize.ByteSize
	ChunkSize datasize.ByteSize
}

// DefaultOptions returns the stock settings: src/gtfs/, 45 MiB parts, 64 KiB reads.
func DefaultOptions() Options {
	return Options{
		SourceDir: "src/gtfs/",
		Threshold: 45 * datasize.MB,
		ChunkSize: 64 * datasize.KB,
	}
}

// Option customises a Splitter.
type Option func(*Splitter)

// WithSink replaces the default DirSink on SourceDir.
func WithSink(sink PartSink) Option {
	return func(s *Splitter) { s.sink = sink }
}

func WithNotifier(n Notifier) Option {
	return func(s *Splitter) { s.notifier = n }
}

func WithMetrics(m Metrics) Option {
	return func(s *Splitter) { s.metrics = m }
}

// Splitter scans a directory and splits oversized files. It processes one
// file and one part at a time and is not safe for concurrent Scan calls.
type Splitter struct {
	opts     Options
	sink     PartSink
	notifier Notifier
	metrics  Metrics
	runID    string
}

// New creates a Splitter. Zero Threshold or ChunkSize fall back to DefaultOptions.
func New(opts Options, options ...Option) *Splitter {
	def := DefaultOptions()
	if opts.SourceDir == "" {
		opts.SourceDir = def.SourceDir
	}
	if opts.Threshold == 0 {
		opts.Threshold = def.Threshold
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = def.ChunkSize
	}
	s := &Splitter{
		opts:     opts,
		notifier: nopNotifier{},
		metrics:  nopMetrics{},
		runID:    uuid.New().String(),
	}
	for _, o := range options {
		o(s)
	}
	if s.sink == nil {
		s.sink = NewDirSink(opts.SourceDir)
	}
	return s
}

// RunID identifies this splitter's scans in logs and events.
func (s *Splitter) RunID() string { return s.runID }

// IsSplitPart reports whether name looks like an earlier split output.
func IsSplitPart(name string) bool {
	return splitPartPattern.MatchString(filepath.Base(name))
}

// Scan splits every oversized .txt file in SourceDir, in directory listing
// order. A missing directory returns ErrSourceDirNotFound. Empty or unreadable
// files are logged and skipped; any other error stops the scan.
func (s *Splitter) Scan(ctx context.Context) (*ScanResult, error) {
	dir := s.opts.SourceDir
	log.Printf("[splitter] scanning %s for .txt files over %s (run %s)", dir, s.opts.Threshold.HumanReadable(), s.runID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	res := &ScanResult{RunID: s.runID}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			log.Printf("[splitter] skipping %s: %v", entry.Name(), err)
			if strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
				res.Files = append(res.Files, s.skip(path, 0, fmt.Sprintf("%v: %v", ErrUnreadableFile, err)))
			}
			continue
		}
		name := info.Name()
		if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(name), ".txt") {
			continue
		}

		if IsSplitPart(name) {
			log.Printf("[splitter] skipping already split file: %s", name)
			res.Files = append(res.Files, s.skip(path, info.Size(), "already split"))
			continue
		}

		sizeMB := float64(info.Size()) / float64(datasize.MB)
		if info.Size() <= int64(s.opts.Threshold) {
			log.Printf("[splitter] file %s is %.0fMB, no splitting needed", name, sizeMB)
			res.Files = append(res.Files, s.skip(path, info.Size(), "under threshold"))
			continue
		}

		log.Printf("[splitter] file %s is %.0fMB and needs splitting", name, sizeMB)
		fr, err := s.SplitFile(ctx, path)
		if err != nil {
			if errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrUnreadableFile) {
				log.Printf("[splitter] skipping %s: %v", name, err)
				res.Files = append(res.Files, s.skip(path, info.Size(), err.Error()))
				continue
			}
			return res, err
		}
		res.Files = append(res.Files, *fr)
	}

	log.Printf("[splitter] scan complete: %d file(s) split into %d part(s)", res.SplitCount(), res.PartCount())
	return res, nil
}

func (s *Splitter) skip(path string, size int64, reason string) FileResult {
	s.metrics.FileSkipped(reason)
	return FileResult{Source: path, Size: size, Skipped: true, Reason: reason}
}
