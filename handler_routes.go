package gtfsroutes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-routes/metrics"
)

type routesAPI struct {
	ds      *DataStore
	metrics *metrics.Collector
}

func (a *routesAPI) count(handler string) {
	if a.metrics != nil {
		a.metrics.RequestInc(handler)
	}
}

// routeView is a Route as rendered by the API.
type routeView struct {
	gtfs.Route
	RouteTypeName string `json:"route_type_name"`
}

func newRouteView(r gtfs.Route) routeView {
	return routeView{Route: r, RouteTypeName: gtfs.RouteTypeName(r.RouteType)}
}

type routesResponse struct {
	Data   []routeView `json:"data"`
	Count  int         `json:"count"`
	Source string      `json:"source"`
}

// handleListRoutes serves GET /api/routes?sort=<column>&order=asc|desc&route_type=<n>.
func (a *routesAPI) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	a.count("routes")
	if a.ds.Error != "" {
		writeError(w, http.StatusServiceUnavailable, a.ds.Error)
		return
	}

	q := r.URL.Query()
	routes := a.ds.Routes

	if v := strings.TrimSpace(q.Get("route_type")); v != "" {
		rt, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "route_type must be an integer")
			return
		}
		filtered := make([]gtfs.Route, 0, len(routes))
		for _, route := range routes {
			if route.RouteType == rt {
				filtered = append(filtered, route)
			}
		}
		routes = filtered
	}

	if key := strings.TrimSpace(q.Get("sort")); key != "" {
		var desc bool
		switch strings.ToLower(q.Get("order")) {
		case "", "asc":
		case "desc":
			desc = true
		default:
			writeError(w, http.StatusBadRequest, "order must be asc or desc")
			return
		}
		sorted, err := SortRoutes(routes, key, desc)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		routes = sorted
	}

	resp := routesResponse{
		Data:   make([]routeView, 0, len(routes)),
		Count:  len(routes),
		Source: a.ds.Result.SourceDescription,
	}
	for _, route := range routes {
		resp.Data = append(resp.Data, newRouteView(route))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *routesAPI) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	a.count("route")
	if a.ds.Error != "" {
		writeError(w, http.StatusServiceUnavailable, a.ds.Error)
		return
	}
	id := r.PathValue("id")
	route, ok := a.ds.Route(id)
	if !ok {
		writeError(w, http.StatusNotFound, "route "+strconv.Quote(id)+" not found")
		return
	}
	writeJSON(w, http.StatusOK, newRouteView(route))
}

type routeIDsResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// handleRouteIDs serves the sorted route_ids of every indexed route.
func (a *routesAPI) handleRouteIDs(w http.ResponseWriter, r *http.Request) {
	a.count("route_ids")
	if a.ds.Error != "" {
		writeError(w, http.StatusServiceUnavailable, a.ds.Error)
		return
	}
	ids := a.ds.ByID.IDs()
	writeJSON(w, http.StatusOK, routeIDsResponse{IDs: ids, Count: len(ids)})
}

// handleRouteIndex serves the route_id -> route lookup table.
func (a *routesAPI) handleRouteIndex(w http.ResponseWriter, r *http.Request) {
	a.count("route_index")
	if a.ds.Error != "" {
		writeError(w, http.StatusServiceUnavailable, a.ds.Error)
		return
	}
	writeJSON(w, http.StatusOK, a.ds.ByID)
}

type routeErrorsResponse struct {
	Success bool                   `json:"success"`
	Source  string                 `json:"source"`
	Error   string                 `json:"error,omitempty"`
	Errors  []gtfs.ValidationError `json:"errors"`
}

// handleRouteErrors exposes rejected rows, or the blob failure when loading failed.
func (a *routesAPI) handleRouteErrors(w http.ResponseWriter, r *http.Request) {
	a.count("route_errors")
	errs := a.ds.Result.Errors
	if errs == nil {
		errs = []gtfs.ValidationError{}
	}
	writeJSON(w, http.StatusOK, routeErrorsResponse{
		Success: a.ds.Result.Success,
		Source:  a.ds.Result.SourceDescription,
		Error:   a.ds.Error,
		Errors:  errs,
	})
}
