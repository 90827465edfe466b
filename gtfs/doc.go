/*
Package gtfs provides GTFS routes.txt loading, validation and indexing.

This package is data-source agnostic - it accepts raw CSV bytes or an
io.Reader and builds typed records plus an in-memory index. It does NOT
decide where the bytes come from; the embedded copy lives in package data.

# Basic Usage

	res := gtfs.ProcessRoutes(data.RoutesCSV, data.RoutesSource)
	if !res.Success {
	    // the blob itself was missing or unparseable; res.Errors has one entry
	}
	index := gtfs.NewRouteIndex(res.Routes)
	route, ok := index.Get("A")

# Error Model

Row failures never abort a batch. Every row that breaks the schema is
recorded as a ValidationError holding the raw record and the failing
fields, and processing continues with the next row. Only a blob that is
empty or not parseable as CSV turns Success to false.

# Index Semantics

NewRouteIndex is a single pass in list order, so when two rows share a
route_id the later row wins in the index while the list keeps both.

# Performance: Cache the Result

Parse once at startup and keep the result in memory. ProcessRoutesCached
stores the processed result on disk (gob, snappy-compressed) keyed by a
checksum of the input, so restarts with unchanged data skip validation.
*/
package gtfs
