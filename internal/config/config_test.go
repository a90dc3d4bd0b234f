package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/adjuster/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "adjuster"
user = "adjuster"
password = "adjuster"
ssl_mode = "disable"
max_open_conns = 25
max_idle_conns = 5
conn_max_lifetime = "15m"
conn_timeout = "5s"

[storage]
container_name = "claims"
connection_string = "DefaultEndpointsProtocol=http;AccountName=adjusterstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/adjusterstore;"

[broker]
url = "nats://localhost:4222"
stream = "CLAIMS"
subject_prefix = "claim-facts"

[model]
url = "http://localhost:11434"
chat_model = "llama3.1"
embed_model = "nomic-embed-text"

[pipeline]
max_qa_retries = 2
confidence_threshold = 3
max_tool_rounds = 3

[api]
base_path = "/api"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

// minimalConfig provides the minimum fields required for validation to pass
// (db name, db user, storage connection string). Everything else defaults.
const minimalConfig = `
shutdown_timeout = "30s"

[server]
port = 8080

[database]
name = "adjuster"
user = "adjuster"

[storage]
connection_string = "conn"

[api]
base_path = "/api"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Database.AppName != "adjuster" {
		t.Errorf("db app_name default: got %s, want adjuster", cfg.Database.AppName)
	}
	if cfg.Storage.ContainerName != "claims" {
		t.Errorf("storage container: got %s, want claims", cfg.Storage.ContainerName)
	}
	if cfg.Broker.Stream != "CLAIMS" {
		t.Errorf("broker stream: got %s, want CLAIMS", cfg.Broker.Stream)
	}
	if cfg.Model.ChatModel != "llama3.1" {
		t.Errorf("chat model: got %s, want llama3.1", cfg.Model.ChatModel)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.API.OpenAPI.Title != "Adjuster API" {
		t.Errorf("openapi title default: got %s, want Adjuster API", cfg.API.OpenAPI.Title)
	}
	if cfg.API.OpenAPI.Description == "" {
		t.Error("openapi description should have a default")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("ADJUSTER_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("ADJUSTER_VERSION", "2.0.0")
	t.Setenv("ADJUSTER_SERVER_PORT", "3000")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("ADJUSTER_DB_NAME", "testdb")
	t.Setenv("ADJUSTER_DB_USER", "testuser")
	t.Setenv("ADJUSTER_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `server = {{`)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestEnvFromEnvVar(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("ADJUSTER_ENV", "production")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestShutdownTimeoutDuration(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
}

func TestServerAddr(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
}

func TestPaginationDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default_page_size: got %d, want 20", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max_page_size: got %d, want 100", cfg.API.Pagination.MaxPageSize)
	}
}

func TestPaginationEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("ADJUSTER_PAGINATION_DEFAULT_PAGE_SIZE", "10")
	t.Setenv("ADJUSTER_PAGINATION_MAX_PAGE_SIZE", "200")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.Pagination.DefaultPageSize != 10 {
		t.Errorf("pagination default_page_size: got %d, want 10", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 200 {
		t.Errorf("pagination max_page_size: got %d, want 200", cfg.API.Pagination.MaxPageSize)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 50MB", "50MB", 50 * 1024 * 1024},
		{"valid 10MB", "10MB", 10 * 1024 * 1024},
		{"valid 1GB", "1GB", 1024 * 1024 * 1024},
		{"invalid falls back to 50MB", "bad", 50 * 1024 * 1024},
		{"empty falls back to 50MB", "", 50 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			got := cfg.MaxUploadSizeBytes()
			if got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServerValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name: "invalid port",
			config: `
shutdown_timeout = "30s"

[server]
port = 99999

[database]
name = "adjuster"
user = "adjuster"

[storage]
connection_string = "conn"
`,
			wantErr: "invalid port",
		},
		{
			name: "invalid read_timeout",
			config: `
shutdown_timeout = "30s"

[server]
read_timeout = "bad"

[database]
name = "adjuster"
user = "adjuster"

[storage]
connection_string = "conn"
`,
			wantErr: "invalid read_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestModelDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Model.URL != "http://localhost:11434" {
		t.Errorf("model url: got %s, want http://localhost:11434", cfg.Model.URL)
	}
	if cfg.Model.ChatModel != "llama3.1" {
		t.Errorf("chat model: got %s, want llama3.1", cfg.Model.ChatModel)
	}
	if cfg.Model.EmbedModel != "nomic-embed-text" {
		t.Errorf("embed model: got %s, want nomic-embed-text", cfg.Model.EmbedModel)
	}
}

func TestModelEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("ADJUSTER_MODEL_URL", "http://model-host:11434")
	t.Setenv("ADJUSTER_MODEL_CHAT_MODEL", "mistral")
	t.Setenv("ADJUSTER_MODEL_TEMPERATURE", "0.7")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Model.URL != "http://model-host:11434" {
		t.Errorf("model url: got %s, want http://model-host:11434", cfg.Model.URL)
	}
	if cfg.Model.ChatModel != "mistral" {
		t.Errorf("chat model: got %s, want mistral", cfg.Model.ChatModel)
	}
	if cfg.Model.Temperature != 0.7 {
		t.Errorf("temperature: got %v, want 0.7", cfg.Model.Temperature)
	}
}

func TestBrokerDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Broker.URL != "nats://localhost:4222" {
		t.Errorf("broker url: got %s, want nats://localhost:4222", cfg.Broker.URL)
	}
	if cfg.Broker.Stream != "CLAIMS" {
		t.Errorf("broker stream: got %s, want CLAIMS", cfg.Broker.Stream)
	}
	if cfg.Broker.SubjectPrefix != "claim-facts" {
		t.Errorf("broker subject prefix: got %s, want claim-facts", cfg.Broker.SubjectPrefix)
	}
}

func TestPipelineDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Pipeline.MaxQARetries != 2 {
		t.Errorf("max_qa_retries: got %d, want 2", cfg.Pipeline.MaxQARetries)
	}
	if cfg.Pipeline.ConfidenceThreshold != 3 {
		t.Errorf("confidence_threshold: got %d, want 3", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.MaxToolRounds != 3 {
		t.Errorf("max_tool_rounds: got %d, want 3", cfg.Pipeline.MaxToolRounds)
	}
	if cfg.Pipeline.Sources != 3 {
		t.Errorf("sources: got %d, want 3", cfg.Pipeline.Sources)
	}
	if d := cfg.Pipeline.ModelTimeoutDuration(); d != 2*time.Minute {
		t.Errorf("model timeout: got %v, want 2m", d)
	}
}

func TestPipelineEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("ADJUSTER_PIPELINE_MAX_QA_RETRIES", "4")
	t.Setenv("ADJUSTER_PIPELINE_CONFIDENCE_THRESHOLD", "4")
	t.Setenv("ADJUSTER_PIPELINE_RESERVE_URL", "http://reserve:9000/predict")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Pipeline.MaxQARetries != 4 {
		t.Errorf("max_qa_retries: got %d, want 4", cfg.Pipeline.MaxQARetries)
	}
	if cfg.Pipeline.ConfidenceThreshold != 4 {
		t.Errorf("confidence_threshold: got %d, want 4", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.ReserveURL != "http://reserve:9000/predict" {
		t.Errorf("reserve_url: got %s", cfg.Pipeline.ReserveURL)
	}
}

func TestPipelineValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name: "threshold out of range",
			config: `
[database]
name = "adjuster"
user = "adjuster"

[storage]
connection_string = "conn"

[pipeline]
confidence_threshold = 9
`,
			wantErr: "confidence_threshold",
		},
		{
			name: "bad model timeout",
			config: `
[database]
name = "adjuster"
user = "adjuster"

[storage]
connection_string = "conn"

[pipeline]
model_timeout = "forever"
`,
			wantErr: "invalid model_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
