package gtfs

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"
)

// schemaVersion is mixed into Checksum. Bump it whenever ValidateRoute or
// the cached types change so results produced by older rules are rebuilt.
const schemaVersion uint32 = 2

// snapshot is the on-disk cache payload.
type snapshot struct {
	Checksum          uint64
	Routes            []cachedRoute
	Errors            []ValidationError
	Success           bool
	SourceDescription string
}

// cachedRoute stores the optional Route fields with explicit presence flags,
// since gob does not transmit a pointer to a zero value.
type cachedRoute struct {
	Route        Route
	AgencyID     string
	HasAgencyID  bool
	SortOrder    int
	HasSortOrder bool
}

func toCachedRoute(r Route) cachedRoute {
	c := cachedRoute{Route: r}
	c.Route.AgencyID, c.Route.RouteSortOrder = nil, nil
	if r.AgencyID != nil {
		c.AgencyID, c.HasAgencyID = *r.AgencyID, true
	}
	if r.RouteSortOrder != nil {
		c.SortOrder, c.HasSortOrder = *r.RouteSortOrder, true
	}
	return c
}

func (c cachedRoute) route() Route {
	r := c.Route
	if c.HasAgencyID {
		agency := c.AgencyID
		r.AgencyID = &agency
	}
	if c.HasSortOrder {
		order := c.SortOrder
		r.RouteSortOrder = &order
	}
	return r
}

// Checksum identifies a routes.txt blob, under the current validation
// rules, in the cache.
func Checksum(blob []byte) uint64 {
	return checksumWithVersion(blob, schemaVersion)
}

func checksumWithVersion(blob []byte, version uint32) uint64 {
	return murmur3.Sum64WithSeed(blob, version)
}

// SerializeResult encodes a ProcessedResult with gob and compresses it with snappy.
//
// Example:
//
//	res := gtfs.ProcessRoutes(blob, "routes.txt")
//	data, err := gtfs.SerializeResult(res, gtfs.Checksum(blob))
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("/cache/routes.gob.sz", data, 0644)
func SerializeResult(res ProcessedResult, checksum uint64) ([]byte, error) {
	snap := snapshot{
		Checksum:          checksum,
		Routes:            make([]cachedRoute, 0, len(res.Routes)),
		Errors:            res.Errors,
		Success:           res.Success,
		SourceDescription: res.SourceDescription,
	}
	for _, r := range res.Routes {
		snap.Routes = append(snap.Routes, toCachedRoute(r))
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to encode routes result: %w", err)
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}

// DeserializeResult decodes bytes produced by SerializeResult and returns the
// result with the checksum it was stored under.
func DeserializeResult(data []byte) (ProcessedResult, uint64, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return ProcessedResult{}, 0, fmt.Errorf("failed to decompress routes result: %w", err)
	}
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return ProcessedResult{}, 0, fmt.Errorf("failed to decode routes result: %w", err)
	}

	res := ProcessedResult{
		Routes:            make([]Route, 0, len(snap.Routes)),
		Errors:            snap.Errors,
		Success:           snap.Success,
		SourceDescription: snap.SourceDescription,
	}
	for _, c := range snap.Routes {
		res.Routes = append(res.Routes, c.route())
	}
	// gob drops empty slices
	if res.Errors == nil {
		res.Errors = []ValidationError{}
	}
	return res, snap.Checksum, nil
}

// SerializeResultToFile writes a ProcessedResult to path.
func SerializeResultToFile(res ProcessedResult, checksum uint64, path string) error {
	data, err := SerializeResult(res, checksum)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DeserializeResultFromFile reads a ProcessedResult written by SerializeResultToFile.
func DeserializeResultFromFile(path string) (ProcessedResult, uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProcessedResult{}, 0, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeResult(data)
}

// ProcessRoutesCached behaves like ProcessRoutes but reuses the result stored
// at cachePath when it was produced from an identical blob. Successful results
// are written back; cache problems are logged and never fail the load.
func ProcessRoutesCached(blob []byte, source, cachePath string) ProcessedResult {
	if cachePath == "" {
		return ProcessRoutes(blob, source)
	}
	sum := Checksum(blob)
	cached, cachedSum, err := DeserializeResultFromFile(cachePath)
	switch {
	case err == nil && cachedSum == sum:
		log.Printf("[routes] %s: using cached result from %s (%d routes)", source, cachePath, len(cached.Routes))
		cached.SourceDescription = source
		return cached
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		log.Printf("[routes] ignoring unreadable cache %s: %v", cachePath, err)
	}

	res := ProcessRoutes(blob, source)
	if res.Success {
		if err := SerializeResultToFile(res, sum, cachePath); err != nil {
			log.Printf("[routes] cannot write cache %s: %v", cachePath, err)
		}
	}
	return res
}
