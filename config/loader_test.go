package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// chdirTemp moves into a fresh directory and restores cwd and Config afterwards.
func chdirTemp(t *testing.T) string {
	t.Helper()
	origConfig := Config
	origDir, _ := os.Getwd()
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		Config = origConfig
		_ = os.Chdir(origDir)
	})
	return tmpDir
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := chdirTemp(t)
	content := `
server:
  port: 8080
routes:
  source: data/routes.txt
splitter:
  sourceDir: feeds/
  threshold: 10MB
  chunkSize: 4KB
nats:
  url: nats://127.0.0.1:4222
`
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if err := LoadAppConfig(); err != nil {
		t.Fatalf("Failed to load config.yml: %v", err)
	}

	if Config.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", Config.Server.Port)
	}
	if Config.Routes.Source != "data/routes.txt" {
		t.Errorf("Expected routes source, got %q", Config.Routes.Source)
	}
	if Config.Splitter.Threshold != 10*datasize.MB {
		t.Errorf("Expected 10MB threshold, got %v", Config.Splitter.Threshold)
	}
	if Config.Splitter.ChunkSize != 4*datasize.KB {
		t.Errorf("Expected 4KB chunk size, got %v", Config.Splitter.ChunkSize)
	}
	if Config.NATS.SubjectPrefix != DefaultSubjectPrefix {
		t.Errorf("Expected default subject prefix, got %q", Config.NATS.SubjectPrefix)
	}

	t.Logf("✓ Loaded config with splitter dir: %s", Config.Splitter.SourceDir)
}

func TestConfig_MissingFile(t *testing.T) {
	chdirTemp(t)

	err := LoadAppConfig()
	if err == nil {
		t.Fatal("Loading non-existent config should return error")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Missing config should wrap fs.ErrNotExist, got %v", err)
	}
	if Config.Splitter.Threshold != DefaultThreshold {
		t.Errorf("Defaults should still apply, got threshold %v", Config.Splitter.Threshold)
	}
	if Config.Splitter.SourceDir != DefaultSourceDir {
		t.Errorf("Expected default source dir, got %q", Config.Splitter.SourceDir)
	}

	t.Logf("✓ Missing config returns error: %v", err)
}

func TestConfig_InvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("invalid: yaml: content: [[["), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	err := LoadAppConfig()
	if err == nil {
		t.Error("Loading invalid YAML should return error")
	}
	if errors.Is(err, fs.ErrNotExist) {
		t.Error("Invalid YAML must not look like a missing file")
	}

	t.Logf("✓ Invalid YAML returns error: %v", err)
}

func TestConfig_EmptyFile(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if err := LoadAppConfig(); err != nil {
		t.Fatalf("Empty config should fall back to defaults: %v", err)
	}
	if Config.Server.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, Config.Server.Port)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SPLIT_SOURCE_DIR", "/data/gtfs")
	t.Setenv("SPLIT_THRESHOLD", "1MB")
	t.Setenv("DATABASE_URL", "postgres://localhost/routes")

	_ = LoadAppConfig()

	if Config.Server.Port != 9090 {
		t.Errorf("Expected PORT override, got %d", Config.Server.Port)
	}
	if Config.Splitter.SourceDir != "/data/gtfs" {
		t.Errorf("Expected SPLIT_SOURCE_DIR override, got %q", Config.Splitter.SourceDir)
	}
	if Config.Splitter.Threshold != datasize.MB {
		t.Errorf("Expected 1MB threshold, got %v", Config.Splitter.Threshold)
	}
	if Config.Database.URL != "postgres://localhost/routes" {
		t.Errorf("Expected DATABASE_URL override, got %q", Config.Database.URL)
	}
}

func TestConfig_InvalidEnvPort(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "not-a-port")

	err := LoadAppConfig()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected PORT parse error, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*AppConfig) {}, wantErr: false},
		{name: "port out of range", mutate: func(c *AppConfig) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad nats url", mutate: func(c *AppConfig) { c.NATS.URL = "not a url" }, wantErr: true},
		{name: "bad s3 endpoint", mutate: func(c *AppConfig) { c.Splitter.S3.Endpoint = "::" }, wantErr: true},
		{name: "empty source dir", mutate: func(c *AppConfig) { c.Splitter.SourceDir = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_YAMLMarshaling(t *testing.T) {
	original := Defaults()
	original.Routes.Source = "routes.txt"
	original.Splitter.S3.Bucket = "gtfs-parts"

	data, err := yaml.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Failed to unmarshal config: %v", err)
	}
	if parsed.Routes.Source != original.Routes.Source || parsed.Splitter.S3.Bucket != "gtfs-parts" {
		t.Error("Marshaling/unmarshaling should preserve data")
	}
	if parsed.Splitter.Threshold != original.Splitter.Threshold {
		t.Errorf("Threshold changed across round trip: %v != %v", parsed.Splitter.Threshold, original.Splitter.Threshold)
	}

	t.Log("✓ YAML marshaling works")
}
