package gtfsroutes

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-routes/metrics"
)

var (
	server *http.Server
)

// NewHandler builds the API routes. m may be nil, which disables request
// counting and /metrics.
func NewHandler(ds *DataStore, m *metrics.Collector) http.Handler {
	api := &routesAPI{ds: ds, metrics: m}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", api.handleHealth)
	mux.HandleFunc("GET /api/routes", api.handleListRoutes)
	mux.HandleFunc("GET /api/routes/errors", api.handleRouteErrors)
	mux.HandleFunc("GET /api/routes/ids", api.handleRouteIDs)
	mux.HandleFunc("GET /api/routes/index", api.handleRouteIndex)
	mux.HandleFunc("GET /api/routes/{id}", api.handleGetRoute)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}

func StartServer(port int, ds *DataStore, m *metrics.Collector) {
	addr := fmt.Sprintf(":%d", port)
	server = &http.Server{
		Addr:              addr,
		Handler:           NewHandler(ds, m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("[server] listening on %s", addr)
}

func HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("[server] shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("[server] shutdown error: %v", err)
		} else {
			log.Printf("[server] shut down successfully")
		}
	}
}
