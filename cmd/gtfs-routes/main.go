package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	gtfsroutes "github.com/theoremus-urban-solutions/gtfs-routes"
	"github.com/theoremus-urban-solutions/gtfs-routes/config"
	"github.com/theoremus-urban-solutions/gtfs-routes/data"
	"github.com/theoremus-urban-solutions/gtfs-routes/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-routes/internal"
	"github.com/theoremus-urban-solutions/gtfs-routes/metrics"
	"github.com/theoremus-urban-solutions/gtfs-routes/store"
)

func main() {
	internal.InitLogging()
	if err := config.LoadAppConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("config: %v", err)
		}
		log.Printf("[config] %v; using defaults and environment", err)
	}
	cfg := config.Config

	var res gtfs.ProcessedResult
	if cfg.Routes.Source != "" {
		res = gtfs.LoadRoutesFile(cfg.Routes.Source, cfg.Routes.CachePath)
	} else {
		res = gtfs.ProcessRoutesCached(data.RoutesCSV, data.RoutesSource, cfg.Routes.CachePath)
	}
	ds := gtfsroutes.NewDataStore(res)

	m := metrics.NewCollector()
	m.ObserveLoad(res, len(ds.Duplicates))

	if cfg.Database.URL != "" && ds.Error == "" {
		if err := syncRoutes(cfg.Database.URL, ds.Routes); err != nil {
			log.Printf("[store] WARNING: route sync failed: %v", err)
		}
	}

	if cfg.Metrics.Addr != "" {
		m.Serve(cfg.Metrics.Addr)
	}

	gtfsroutes.StartServer(cfg.Server.Port, ds, m)
	gtfsroutes.HandleGracefulShutdown()
}

func syncRoutes(dsn string, routes []gtfs.Route) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Ping(ctx, db); err != nil {
		return err
	}

	rs := store.NewRouteStore(db)
	if err := rs.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := rs.SyncRoutes(ctx, routes)
	if err != nil {
		return err
	}
	total, err := rs.CountRoutes(ctx)
	if err != nil {
		return err
	}
	log.Printf("[store] synced %d routes (%d in table)", n, total)
	return nil
}
