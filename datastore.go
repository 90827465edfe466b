// Package gtfsroutes serves the validated routes.txt records of a GTFS feed
// over a small read-only JSON API.
package gtfsroutes

import (
	"log"

	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"
)

// LoadFailedMessage is the DataStore error shown when routes.txt could not be processed.
const LoadFailedMessage = "Failed to load or process routes data. Check logs for details."

// DataStore is what consumers of the loaded routes see: the ordered list,
// the route_id index and an error indicator ("" when loading succeeded).
type DataStore struct {
	Routes     []gtfs.Route
	ByID       *gtfs.RouteIndex
	Error      string
	Duplicates []string
	Result     gtfs.ProcessedResult
}

// NewDataStore builds the store from a processed result. Row errors are
// logged as warnings and do not set Error.
func NewDataStore(res gtfs.ProcessedResult) *DataStore {
	ds := &DataStore{
		Routes: res.Routes,
		ByID:   gtfs.NewRouteIndex(res.Routes),
		Result: res,
	}
	if ds.Routes == nil {
		ds.Routes = []gtfs.Route{}
	}

	if !res.Success {
		ds.Error = LoadFailedMessage
		for _, e := range res.Errors {
			log.Printf("[routes] ERROR: %s: %s", res.SourceDescription, e.Error())
		}
		return ds
	}

	if len(res.Errors) > 0 {
		log.Printf("[routes] WARNING: %d row(s) in %s failed validation", len(res.Errors), res.SourceDescription)
		for _, e := range res.Errors {
			log.Printf("[routes] WARNING: %s", e.Error())
		}
	}

	ds.Duplicates = gtfs.Duplicates(res.Routes)
	if len(ds.Duplicates) > 0 {
		log.Printf("[routes] WARNING: duplicate route_id values, last occurrence wins: %v", ds.Duplicates)
	}
	return ds
}

// Route looks a route up by route_id.
func (ds *DataStore) Route(routeID string) (gtfs.Route, bool) {
	return ds.ByID.Get(routeID)
}
