package vidqueue_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/vidqueue"
)

func TestDefaultConfig(t *testing.T) {
	cfg := vidqueue.DefaultConfig()

	if cfg.Consumer.BatchTimeout != 25*time.Second {
		t.Errorf("BatchTimeout = %v, want 25s", cfg.Consumer.BatchTimeout)
	}
	if cfg.API.CaptionLanguage != "en" {
		t.Errorf("CaptionLanguage = %q, want %q", cfg.API.CaptionLanguage, "en")
	}
	if cfg.Queue.Backend != vidqueue.BackendCloudflare {
		t.Errorf("Backend = %q, want %q", cfg.Queue.Backend, vidqueue.BackendCloudflare)
	}
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidqueue.yaml")
	doc := `
api:
  account_id: acct-from-file
  rate_limit: 2.5
queue:
  backend: redis
  batch_size: 25
consumer:
  poll_interval: 10s
  retry_delay: 1m
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CF_STREAM_KEY", "secret")
	t.Setenv("VIDQUEUE_BATCH_SIZE", "50")

	cfg, err := vidqueue.LoadConfig(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.API.AccountID != "acct-from-file" {
		t.Errorf("AccountID = %q", cfg.API.AccountID)
	}
	if cfg.API.Token != "secret" {
		t.Errorf("Token = %q, want env value", cfg.API.Token)
	}
	if cfg.API.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.API.RateLimit)
	}
	if cfg.Queue.Backend != vidqueue.BackendRedis {
		t.Errorf("Backend = %q", cfg.Queue.Backend)
	}
	if cfg.Queue.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want env override 50", cfg.Queue.BatchSize)
	}
	if cfg.Consumer.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.Consumer.PollInterval)
	}
	// Untouched fields keep their defaults.
	if cfg.Consumer.BatchTimeout != 25*time.Second {
		t.Errorf("BatchTimeout = %v, want default", cfg.Consumer.BatchTimeout)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("CF_QUEUE_ID=queue-from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CF_QUEUE_ID", "")
	os.Unsetenv("CF_QUEUE_ID")
	t.Cleanup(func() { os.Unsetenv("CF_QUEUE_ID") })

	cfg, err := vidqueue.LoadConfig("", envPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Queue.QueueID != "queue-from-dotenv" {
		t.Errorf("QueueID = %q, want value from env file", cfg.Queue.QueueID)
	}
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	t.Setenv("VIDQUEUE_CONCURRENCY", "many")
	if _, err := vidqueue.LoadConfig("", filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatal("expected error for non-numeric concurrency")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := vidqueue.DefaultConfig()
	valid.API.AccountID = "acct"
	valid.API.Token = "token"
	valid.Queue.QueueID = "q"

	tests := []struct {
		name    string
		mutate  func(c *vidqueue.Config)
		wantErr error
	}{
		{"valid cloudflare", func(_ *vidqueue.Config) {}, nil},
		{"missing account", func(c *vidqueue.Config) { c.API.AccountID = "" }, vidqueue.ErrMissingSetting},
		{"missing token", func(c *vidqueue.Config) { c.API.Token = "" }, vidqueue.ErrMissingSetting},
		{"missing queue id", func(c *vidqueue.Config) { c.Queue.QueueID = "" }, vidqueue.ErrMissingSetting},
		{"memory needs no queue id", func(c *vidqueue.Config) {
			c.Queue.Backend = vidqueue.BackendMemory
			c.Queue.QueueID = ""
		}, nil},
		{"unknown backend", func(c *vidqueue.Config) { c.Queue.Backend = "sqs" }, vidqueue.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
