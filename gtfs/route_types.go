package gtfs

import "fmt"

var routeTypeNames = map[int]string{
	0:  "Tram/Streetcar/Light Rail",
	1:  "Subway/Metro",
	2:  "Rail",
	3:  "Bus",
	4:  "Ferry",
	5:  "Cable Tram",
	6:  "Aerial Lift",
	7:  "Funicular",
	11: "Trolleybus",
	12: "Monorail",
}

// RouteTypeName returns a human-readable name for a GTFS route_type.
func RouteTypeName(routeType int) string {
	if name, ok := routeTypeNames[routeType]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", routeType)
}
