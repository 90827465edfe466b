// Package metrics exposes Prometheus counters for route loading, the HTTP
// API and the file splitter on a private registry.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"
)

type Collector struct {
	reg *prometheus.Registry

	RoutesLoaded      prometheus.Gauge
	RouteErrors       prometheus.Gauge
	DuplicateRouteIDs prometheus.Gauge
	LoadSuccess       prometheus.Gauge

	Requests *prometheus.CounterVec // handler label

	PartsWritten prometheus.Counter
	PartBytes    prometheus.Counter
	FilesSplit   prometheus.Counter
	FilesSkipped *prometheus.CounterVec // reason label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RoutesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfs_routes_loaded",
			Help: "Number of valid routes in the last load.",
		}),
		RouteErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfs_route_errors",
			Help: "Number of rejected routes.txt rows in the last load.",
		}),
		DuplicateRouteIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfs_route_duplicate_ids",
			Help: "Number of route_id values that occur more than once.",
		}),
		LoadSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfs_routes_load_success",
			Help: "1 if routes.txt could be parsed, 0 otherwise.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfs_api_requests_total",
			Help: "API requests by handler.",
		}, []string{"handler"}),
		PartsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_split_parts_written_total",
			Help: "Total split parts written.",
		}),
		PartBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_split_part_bytes_total",
			Help: "Total bytes written to split parts.",
		}),
		FilesSplit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_split_files_total",
			Help: "Total source files split.",
		}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfs_split_files_skipped_total",
			Help: "Source files not split, by reason.",
		}, []string{"reason"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_split_nats_published_total",
			Help: "Total part events published to NATS.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_split_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfs_split_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.RoutesLoaded, c.RouteErrors, c.DuplicateRouteIDs, c.LoadSuccess,
		c.Requests,
		c.PartsWritten, c.PartBytes, c.FilesSplit, c.FilesSkipped,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)
	return c
}

// ObserveLoad records the outcome of a routes.txt load.
func (c *Collector) ObserveLoad(res gtfs.ProcessedResult, duplicates int) {
	c.RoutesLoaded.Set(float64(len(res.Routes)))
	c.RouteErrors.Set(float64(len(res.Errors)))
	c.DuplicateRouteIDs.Set(float64(duplicates))
	if res.Success {
		c.LoadSuccess.Set(1)
	} else {
		c.LoadSuccess.Set(0)
	}
}

func (c *Collector) RequestInc(handler string) { c.Requests.WithLabelValues(handler).Inc() }

func (c *Collector) PartWritten(bytes int64) {
	c.PartsWritten.Inc()
	c.PartBytes.Add(float64(bytes))
}

func (c *Collector) FileSplit() { c.FilesSplit.Inc() }

// FileSkipped counts a skipped file. Error reasons are collapsed to keep
// label cardinality bounded.
func (c *Collector) FileSkipped(reason string) {
	switch reason {
	case "already split", "under threshold":
	default:
		reason = "error"
	}
	c.FilesSkipped.WithLabelValues(reason).Inc()
}

func (c *Collector) NotifyPublished() { c.NATSPublished.Inc() }
func (c *Collector) NotifyFailed()    { c.NATSPublishErrs.Inc() }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
