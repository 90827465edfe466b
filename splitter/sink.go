package splitter

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-routes/storage"
)

// PartSink receives finished parts. WritePart must not retain data.
type PartSink interface {
	WritePart(ctx context.Context, name string, data []byte) error
}

// DirSink writes parts next to their source, replacing existing files atomically.
type DirSink struct {
	store *storage.LocalStorage
	dir   string
}

// NewDirSink returns a sink writing into dir. The directory is created on first write.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

func (d *DirSink) WritePart(ctx context.Context, name string, data []byte) error {
	if d.store == nil {
		st, err := storage.NewLocalStorage(d.dir)
		if err != nil {
			return err
		}
		d.store = st
	}
	return d.store.Put(ctx, name, bytes.NewReader(data))
}

// StorageSink mirrors parts into an object store under Prefix.
type StorageSink struct {
	Store  storage.ObjectStorage
	Prefix string
}

// Key is the object key used for a part name.
func (s *StorageSink) Key(name string) string {
	prefix := strings.Trim(s.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (s *StorageSink) WritePart(ctx context.Context, name string, data []byte) error {
	return s.Store.Put(ctx, s.Key(name), bytes.NewReader(data))
}

// Missing lists the keys of parts in res that the store does not hold.
func (s *StorageSink) Missing(ctx context.Context, res *ScanResult) ([]string, error) {
	keys, err := s.Store.ListObjects(ctx, strings.Trim(s.Prefix, "/"))
	if err != nil {
		return nil, fmt.Errorf("listing mirrored parts: %w", err)
	}
	have := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		have[k] = struct{}{}
	}

	var missing []string
	for _, f := range res.Files {
		for _, p := range f.Parts {
			key := s.Key(p.Name)
			if _, ok := have[key]; !ok {
				missing = append(missing, key)
			}
		}
	}
	return missing, nil
}

// MultiSink writes each part to every sink in order and stops at the first error.
type MultiSink []PartSink

func (m MultiSink) WritePart(ctx context.Context, name string, data []byte) error {
	for i, sink := range m {
		if err := sink.WritePart(ctx, name, data); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}
