package gtfs

import (
	"encoding/json"
	"sort"
)

// RouteIndex maps route_id to Route for constant-time lookup.
// It is read-only after construction and safe for concurrent reads.
type RouteIndex struct {
	byID map[string]Route
}

// NewRouteIndex builds the index in a single pass over routes. When a
// route_id repeats, the later route overwrites the earlier one.
func NewRouteIndex(routes []Route) *RouteIndex {
	byID := make(map[string]Route, len(routes))
	for _, r := range routes {
		byID[r.RouteID] = r
	}
	return &RouteIndex{byID: byID}
}

func (x *RouteIndex) Get(routeID string) (Route, bool) {
	if x == nil {
		return Route{}, false
	}
	r, ok := x.byID[routeID]
	return r, ok
}

func (x *RouteIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byID)
}

// IDs returns all indexed route_ids in ascending order.
func (x *RouteIndex) IDs() []string {
	if x == nil {
		return []string{}
	}
	keys := make([]string, 0, len(x.byID))
	for k := range x.byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the index as a route_id -> route object.
func (x *RouteIndex) MarshalJSON() ([]byte, error) {
	if x == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(x.byID)
}

// Duplicates returns route_ids that occur more than once, in order of first repeat.
func Duplicates(routes []Route) []string {
	seen := make(map[string]int, len(routes))
	var dups []string
	for _, r := range routes {
		seen[r.RouteID]++
		if seen[r.RouteID] == 2 {
			dups = append(dups, r.RouteID)
		}
	}
	return dups
}
