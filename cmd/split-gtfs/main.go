package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-routes/config"
	"github.com/theoremus-urban-solutions/gtfs-routes/internal"
	"github.com/theoremus-urban-solutions/gtfs-routes/metrics"
	"github.com/theoremus-urban-solutions/gtfs-routes/splitter"
	"github.com/theoremus-urban-solutions/gtfs-routes/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	internal.InitLogging()
	if err := config.LoadAppConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		log.Printf("[config] %v; using defaults and environment", err)
	}
	cfg := config.Config

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewCollector()
	if cfg.Metrics.Addr != "" {
		srv := m.Serve(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var sink splitter.PartSink = splitter.NewDirSink(cfg.Splitter.SourceDir)
	var mirror *splitter.StorageSink
	if s3cfg := cfg.Splitter.S3; s3cfg.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, s3cfg.Bucket, storage.S3Config{
			Region:       s3cfg.Region,
			Endpoint:     s3cfg.Endpoint,
			UsePathStyle: s3cfg.UsePathStyle,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		mirror = &splitter.StorageSink{Store: s3, Prefix: s3cfg.Prefix}
		sink = splitter.MultiSink{sink, mirror}
		log.Printf("[splitter] mirroring parts to s3://%s/%s", s3cfg.Bucket, s3cfg.Prefix)
	}

	options := []splitter.Option{splitter.WithSink(sink), splitter.WithMetrics(m)}
	if cfg.NATS.URL != "" {
		n, err := splitter.NewNATSNotifier(cfg.NATS.URL, cfg.NATS.SubjectPrefix, m)
		if err != nil {
			log.Printf("[splitter] WARNING: part events disabled: %v", err)
		} else {
			defer n.Close()
			options = append(options, splitter.WithNotifier(n))
		}
	}

	s := splitter.New(splitter.Options{
		SourceDir: cfg.Splitter.SourceDir,
		Threshold: cfg.Splitter.Threshold,
		ChunkSize: cfg.Splitter.ChunkSize,
	}, options...)

	res, err := s.Scan(ctx)
	if err != nil {
		if errors.Is(err, splitter.ErrSourceDirNotFound) {
			fmt.Fprintf(os.Stderr, "Error: The directory %s was not found.\n", cfg.Splitter.SourceDir)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}

	if mirror != nil && res.PartCount() > 0 {
		missing, err := mirror.Missing(ctx, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if len(missing) > 0 {
			fmt.Fprintf(os.Stderr, "Error: %d part(s) missing from s3://%s: %v\n", len(missing), cfg.Splitter.S3.Bucket, missing)
			return 1
		}
		log.Printf("[splitter] verified %d part(s) in s3://%s/%s", res.PartCount(), cfg.Splitter.S3.Bucket, cfg.Splitter.S3.Prefix)
	}
	return 0
}
