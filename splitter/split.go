package splitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PartName returns the output name of part ordinal for the file base name.
func PartName(name string, ordinal int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s.%d%s", strings.TrimSuffix(name, ext), ordinal, ext)
}

// SplitFile splits the file at path into parts written to the sink.
// It splits unconditionally; Scan applies the size threshold.
func (s *Splitter) SplitFile(ctx context.Context, path string) (*FileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, path, err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	res, err := s.splitStream(ctx, f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	res.Source = path
	res.Size = size
	if len(res.Parts) > 0 {
		s.metrics.FileSplit()
	}
	return res, nil
}

// partWriter owns the part being filled for one source file.
type partWriter struct {
	s       *Splitter
	name    string
	header  []byte
	next    int
	current *Part
	res     *FileResult
}

func (w *partWriter) add(ctx context.Context, line []byte) error {
	if w.current != nil && w.current.DataLines > 0 &&
		w.current.Size()+int64(len(line)) > int64(w.s.opts.Threshold) {
		if err := w.flush(ctx); err != nil {
			return err
		}
	}
	if w.current == nil {
		w.current = newPart(w.next, w.header)
		w.next++
	}
	w.current.append(line)
	return nil
}

// flush writes the current part if it holds at least one data line.
func (w *partWriter) flush(ctx context.Context) error {
	p := w.current
	w.current = nil
	if p == nil || p.DataLines == 0 {
		return nil
	}

	name := PartName(w.name, p.Ordinal)
	if err := w.s.sink.WritePart(ctx, name, p.Bytes()); err != nil {
		return fmt.Errorf("writing part %s: %w", name, err)
	}

	info := PartInfo{
		Source:    w.name,
		Name:      name,
		Ordinal:   p.Ordinal,
		Bytes:     p.Size(),
		DataLines: p.DataLines,
	}
	w.res.Parts = append(w.res.Parts, info)
	w.s.metrics.PartWritten(info.Bytes)
	log.Printf("[splitter] created %s (%d bytes, %d lines)", name, info.Bytes, info.DataLines)

	ev := PartEvent{RunID: w.s.runID, Part: info, Time: time.Now().UTC()}
	if err := w.s.notifier.PartCreated(ctx, ev); err != nil {
		log.Printf("[splitter] WARNING: notify %s failed: %v", name, err)
	}
	return nil
}

// splitStream reads r in ChunkSize reads. The first line, terminator
// included, becomes the header of every part. A partial line at a chunk
// boundary is carried into the next chunk; at EOF it is the last line.
func (s *Splitter) splitStream(ctx context.Context, r io.Reader, name string) (*FileResult, error) {
	w := &partWriter{s: s, name: name, res: &FileResult{}}
	chunk := make([]byte, int(s.opts.ChunkSize))

	var (
		total      int64
		haveHeader bool
		leftover   []byte
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			data := chunk[:n]

			if !haveHeader {
				i := bytes.IndexByte(data, '\n')
				if i < 0 {
					w.header = append(w.header, data...)
					data = nil
				} else {
					w.header = append(w.header, data[:i+1]...)
					haveHeader = true
					data = data[i+1:]
				}
			}

			for haveHeader && len(data) > 0 {
				i := bytes.IndexByte(data, '\n')
				if i < 0 {
					leftover = append(leftover, data...)
					break
				}
				line := data[:i+1]
				if len(leftover) > 0 {
					line = append(leftover, line...)
					leftover = nil
				}
				if err := w.add(ctx, line); err != nil {
					return nil, err
				}
				data = data[i+1:]
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, name, readErr)
		}
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	if !haveHeader {
		log.Printf("[splitter] %s has a header but no data lines, nothing to write", name)
		return w.res, nil
	}
	if len(leftover) > 0 {
		if err := w.add(ctx, leftover); err != nil {
			return nil, err
		}
	}
	if err := w.flush(ctx); err != nil {
		return nil, err
	}
	return w.res, nil
}
