package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/c2h5oh/datasize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = 16181
	DefaultSourceDir     = "src/gtfs/"
	DefaultThreshold     = 45 * datasize.MB
	DefaultChunkSize     = 64 * datasize.KB
	DefaultSubjectPrefix = "gtfs.split"
)

// Config is the global application configuration
var Config = Defaults()

// SearchPaths are tried in order by LoadAppConfig.
var SearchPaths = []string{"config.yml", "./config/config.yml"}

// Defaults returns the configuration used when no file sets a value.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: DefaultPort},
		Splitter: SplitterConfig{
			SourceDir: DefaultSourceDir,
			Threshold: DefaultThreshold,
			ChunkSize: DefaultChunkSize,
		},
		NATS: NATSConfig{SubjectPrefix: DefaultSubjectPrefix},
	}
}

// LoadAppConfig loads config.yml, applies environment overrides and validates the result.
// When no config file exists Config still receives defaults plus environment overrides and
// the returned error wraps fs.ErrNotExist, so callers may treat it as non-fatal.
func LoadAppConfig() error {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	var data []byte
	var err error
	for _, p := range SearchPaths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	missing := err != nil
	if missing && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, perr := Parse(data)
	if perr != nil {
		return perr
	}
	if err := applyEnv(&cfg); err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	Config = cfg
	if missing {
		return fmt.Errorf("config file not found in %v: %w", SearchPaths, fs.ErrNotExist)
	}
	return nil
}

// Parse decodes YAML on top of Defaults. Empty input yields the defaults.
func Parse(data []byte) (AppConfig, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Splitter.SourceDir == "" {
		cfg.Splitter.SourceDir = DefaultSourceDir
	}
	if cfg.Splitter.Threshold == 0 {
		cfg.Splitter.Threshold = DefaultThreshold
	}
	if cfg.Splitter.ChunkSize == 0 {
		cfg.Splitter.ChunkSize = DefaultChunkSize
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = DefaultSubjectPrefix
	}
	return cfg, nil
}

// Validate checks struct tags on every section.
func Validate(cfg AppConfig) error {
	v := validator.New()
	return v.Struct(cfg)
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ROUTES_SOURCE"); v != "" {
		cfg.Routes.Source = v
	}
	if v := os.Getenv("ROUTES_CACHE_PATH"); v != "" {
		cfg.Routes.CachePath = v
	}
	if v := os.Getenv("SPLIT_SOURCE_DIR"); v != "" {
		cfg.Splitter.SourceDir = v
	}
	if v := os.Getenv("SPLIT_THRESHOLD"); v != "" {
		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(v)); err != nil || size == 0 {
			return fmt.Errorf("invalid SPLIT_THRESHOLD: %q", v)
		}
		cfg.Splitter.Threshold = size
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return nil
}
