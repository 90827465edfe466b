package config

import "github.com/c2h5oh/datasize"

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// RoutesConfig selects where routes.txt is loaded from
type RoutesConfig struct {
	// Source is an optional routes.txt path overriding the embedded copy.
	Source string `yaml:"source"`
	// CachePath is an optional file holding the processed result between runs.
	CachePath string `yaml:"cachePath"`
}

// S3Config mirrors split parts to an S3 bucket when Bucket is set
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `yaml:"usePathStyle"`
}

// SplitterConfig contains the oversized-file splitter settings
type SplitterConfig struct {
	SourceDir string            `yaml:"sourceDir" validate:"required"`
	Threshold datasize.ByteSize `yaml:"threshold" validate:"gt=0"`
	ChunkSize datasize.ByteSize `yaml:"chunkSize" validate:"gt=0"`
	S3        S3Config          `yaml:"s3"`
}

// NATSConfig enables split part events when URL is set
type NATSConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// DatabaseConfig enables the Postgres route store when URL is set
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// MetricsConfig contains the standalone metrics listener address
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Routes   RoutesConfig   `yaml:"routes"`
	Splitter SplitterConfig `yaml:"splitter"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}
