package gtfsroutes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/theoremus-urban-solutions/gtfs-routes/data"
	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-routes/metrics"
)

func newTestServer(t *testing.T, ds *DataStore) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	m := metrics.NewCollector()
	srv := httptest.NewServer(NewHandler(ds, m))
	t.Cleanup(srv.Close)
	return srv, m
}

func embeddedStore() *DataStore {
	return NewDataStore(gtfs.ProcessRoutes(data.RoutesCSV, data.RoutesSource))
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("GET %s: expected application/json, got %q", url, ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			t.Fatalf("GET %s: invalid JSON %q: %v", url, body, err)
		}
	}
	return resp.StatusCode
}

type listResponse struct {
	Data []struct {
		RouteID       string `json:"route_id"`
		RouteType     int    `json:"route_type"`
		RouteTypeName string `json:"route_type_name"`
		RouteColor    string `json:"route_color"`
	} `json:"data"`
	Count  int    `json:"count"`
	Source string `json:"source"`
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, embeddedStore())

	var h healthResponse
	if code := getJSON(t, srv.URL+"/api/health", &h); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if h.Status != "ok" || h.Routes != 16 || h.Source != data.RoutesSource {
		t.Errorf("unexpected health: %+v", h)
	}
	t.Logf("✓ health: %+v", h)
}

func TestListRoutes(t *testing.T) {
	srv, m := newTestServer(t, embeddedStore())

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
		wantFirst string
	}{
		{"all routes in file order", "", http.StatusOK, 16, "1"},
		{"filter buses", "?route_type=3", http.StatusOK, 2, "M15"},
		{"sort by id desc", "?sort=route_id&order=desc", http.StatusOK, 16, "SI"},
		{"sort order puts blanks last", "?sort=route_sort_order&order=desc", http.StatusOK, 16, "SI"},
		{"unknown sort key", "?sort=route_color", http.StatusBadRequest, 0, ""},
		{"bad order", "?sort=route_id&order=up", http.StatusBadRequest, 0, ""},
		{"bad route_type", "?route_type=bus", http.StatusBadRequest, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp listResponse
			code := getJSON(t, srv.URL+"/api/routes"+tt.query, &resp)
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, code)
			}
			if code != http.StatusOK {
				return
			}
			if resp.Count != tt.wantCount || len(resp.Data) != tt.wantCount {
				t.Fatalf("expected %d routes, got count=%d len=%d", tt.wantCount, resp.Count, len(resp.Data))
			}
			if resp.Data[0].RouteID != tt.wantFirst {
				t.Errorf("expected first route %s, got %s", tt.wantFirst, resp.Data[0].RouteID)
			}
		})
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("routes")); got != float64(len(tests)) {
		t.Errorf("expected %d counted requests, got %v", len(tests), got)
	}
}

func TestListRoutes_RouteTypeName(t *testing.T) {
	srv, _ := newTestServer(t, embeddedStore())

	var resp listResponse
	getJSON(t, srv.URL+"/api/routes?route_type=2", &resp)
	if len(resp.Data) != 1 {
		t.Fatalf("expected one rail route, got %d", len(resp.Data))
	}
	if resp.Data[0].RouteTypeName != gtfs.RouteTypeName(2) {
		t.Errorf("expected %q, got %q", gtfs.RouteTypeName(2), resp.Data[0].RouteTypeName)
	}
}

func TestGetRoute(t *testing.T) {
	srv, _ := newTestServer(t, embeddedStore())

	var route map[string]any
	if code := getJSON(t, srv.URL+"/api/routes/SBS-M15", &route); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if route["route_color"] != "00AEEF" {
		t.Errorf("expected normalized color, got %v", route["route_color"])
	}
	if _, ok := route["route_sort_order"]; ok {
		t.Error("expected route_sort_order to be omitted")
	}

	var e errorResponse
	if code := getJSON(t, srv.URL+"/api/routes/Q99", &e); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if !strings.Contains(e.Error, "Q99") {
		t.Errorf("expected route id in error, got %q", e.Error)
	}
}

func TestRouteIDsAndIndex(t *testing.T) {
	csv := "route_id,route_short_name,route_long_name,route_type,route_sort_order\n" +
		"B,B,Bravo,3,0\n" +
		"A,A,Alpha,1,\n"
	srv, m := newTestServer(t, NewDataStore(gtfs.ProcessRoutes([]byte(csv), "inline")))

	var ids routeIDsResponse
	if code := getJSON(t, srv.URL+"/api/routes/ids", &ids); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if ids.Count != 2 || len(ids.IDs) != 2 || ids.IDs[0] != "A" || ids.IDs[1] != "B" {
		t.Errorf("expected sorted ids [A B], got %+v", ids)
	}

	var index map[string]map[string]any
	if code := getJSON(t, srv.URL+"/api/routes/index", &index); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(index) != 2 || index["A"]["route_long_name"] != "Alpha" {
		t.Errorf("unexpected index %+v", index)
	}
	if v, ok := index["B"]["route_sort_order"]; !ok || v != float64(0) {
		t.Errorf("expected route_sort_order 0 for B, got %v (present=%v)", v, ok)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("route_ids")); got != 1 {
		t.Errorf("expected 1 route_ids request, got %v", got)
	}
	t.Logf("✓ ids and index served for %d routes", ids.Count)
}

func TestRouteIDs_FailedLoad(t *testing.T) {
	srv, _ := newTestServer(t, NewDataStore(gtfs.ProcessRoutes([]byte("   "), "blank")))
	for _, path := range []string{"/api/routes/ids", "/api/routes/index"} {
		var e errorResponse
		if code := getJSON(t, srv.URL+path, &e); code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, code)
		}
	}
}

func TestRouteErrors(t *testing.T) {
	csv := "route_id,route_short_name,route_long_name,route_type,route_color\n" +
		"A,A,Alpha,3,ZZZZZZ\n" +
		"B,B,Bravo,3,112233\n"
	srv, _ := newTestServer(t, NewDataStore(gtfs.ProcessRoutes([]byte(csv), "inline")))

	var resp routeErrorsResponse
	if code := getJSON(t, srv.URL+"/api/routes/errors", &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !resp.Success || len(resp.Errors) != 1 {
		t.Fatalf("expected one row error, got %+v", resp)
	}
	if resp.Errors[0].Row != 1 {
		t.Errorf("expected row 1, got %d", resp.Errors[0].Row)
	}
}

func TestFailedLoad(t *testing.T) {
	srv, _ := newTestServer(t, NewDataStore(gtfs.ProcessRoutes([]byte("   "), "blank")))

	var e errorResponse
	if code := getJSON(t, srv.URL+"/api/routes", &e); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if e.Error != LoadFailedMessage {
		t.Errorf("expected %q, got %q", LoadFailedMessage, e.Error)
	}

	var h healthResponse
	getJSON(t, srv.URL+"/api/health", &h)
	if h.Status != "degraded" {
		t.Errorf("expected degraded health, got %q", h.Status)
	}

	var errs routeErrorsResponse
	getJSON(t, srv.URL+"/api/routes/errors", &errs)
	if errs.Success || len(errs.Errors) != 1 || errs.Errors[0].Details == "" {
		t.Errorf("expected the blob failure, got %+v", errs)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, embeddedStore())
	getJSON(t, srv.URL+"/api/health", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `gtfs_api_requests_total{handler="health"} 1`) {
		t.Errorf("expected health request counter in output")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, embeddedStore())
	resp, err := http.Post(srv.URL+"/api/routes", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}
