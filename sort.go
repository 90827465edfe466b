package gtfsroutes

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"
)

// SortKeys lists the columns SortRoutes accepts.
var SortKeys = []string{"route_id", "route_short_name", "route_long_name", "route_type", "route_sort_order", "agency_id"}

// SortRoutes returns a stably sorted copy of routes. Routes without a
// route_sort_order sort after those with one, in either direction.
func SortRoutes(routes []gtfs.Route, key string, desc bool) ([]gtfs.Route, error) {
	compare, ok := comparators[key]
	if !ok {
		return nil, fmt.Errorf("unknown sort key %q (want one of %s)", key, strings.Join(SortKeys, ", "))
	}
	out := slices.Clone(routes)
	slices.SortStableFunc(out, func(a, b gtfs.Route) int {
		if key == "route_sort_order" {
			if c, done := compareMissing(a.RouteSortOrder == nil, b.RouteSortOrder == nil); done {
				return c
			}
		}
		c := compare(a, b)
		if desc {
			return -c
		}
		return c
	})
	return out, nil
}

var comparators = map[string]func(a, b gtfs.Route) int{
	"route_id":         func(a, b gtfs.Route) int { return cmp.Compare(a.RouteID, b.RouteID) },
	"route_short_name": func(a, b gtfs.Route) int { return cmp.Compare(a.RouteShortName, b.RouteShortName) },
	"route_long_name":  func(a, b gtfs.Route) int { return cmp.Compare(a.RouteLongName, b.RouteLongName) },
	"route_type":       func(a, b gtfs.Route) int { return cmp.Compare(a.RouteType, b.RouteType) },
	"agency_id":        func(a, b gtfs.Route) int { return cmp.Compare(a.Agency(), b.Agency()) },
	"route_sort_order": func(a, b gtfs.Route) int { return cmp.Compare(*a.RouteSortOrder, *b.RouteSortOrder) },
}

// compareMissing orders absent values last; done is false when both are present.
func compareMissing(aMissing, bMissing bool) (int, bool) {
	switch {
	case aMissing && bMissing:
		return 0, true
	case aMissing:
		return 1, true
	case bMissing:
		return -1, true
	}
	return 0, false
}
