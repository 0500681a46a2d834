package vidqueue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Queue backends understood by cmd/vidqueue.
const (
	BackendCloudflare = "cloudflare"
	BackendRedis      = "redis"
	BackendMemory     = "memory"
)

// Config holds configuration for a vidqueue deployment.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Queue    QueueConfig    `yaml:"queue"`
	Consumer ConsumerConfig `yaml:"consumer"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// APIConfig describes the media-processing API and the account used to
// reach it.
type APIConfig struct {
	// BaseURL is the accounts root, e.g.
	// https://api.cloudflare.com/client/v4/accounts.
	BaseURL string `yaml:"base_url"`

	// AccountID is the account tag appended to BaseURL.
	AccountID string `yaml:"account_id"`

	// Token is the bearer token sent with every request.
	Token string `yaml:"token"`

	// Timeout bounds a single outbound call.
	Timeout time.Duration `yaml:"timeout"`

	// RateLimit caps outbound requests per second. Zero disables it.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token-bucket burst. Defaults to 1 when RateLimit
	// is set.
	RateBurst int `yaml:"rate_burst"`

	// CaptionLanguage is used when a captions job carries no language.
	CaptionLanguage string `yaml:"caption_language"`
}

// QueueConfig selects and configures the queue transport.
type QueueConfig struct {
	// Backend is one of "cloudflare", "redis" or "memory".
	Backend string `yaml:"backend"`

	// QueueID identifies the Cloudflare queue.
	QueueID string `yaml:"queue_id"`

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string `yaml:"redis_addr"`

	// RedisPrefix namespaces every Redis key.
	RedisPrefix string `yaml:"redis_prefix"`

	// BatchSize is the maximum number of messages pulled per pass.
	BatchSize int `yaml:"batch_size"`

	// VisibilityTimeout is how long a pulled message stays leased.
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"`

	// MaxAttempts dead-letters a message after this many deliveries.
	// Only the redis backend enforces it. Zero means unlimited.
	MaxAttempts int `yaml:"max_attempts"`
}

// ConsumerConfig controls the pull/process/report loop.
type ConsumerConfig struct {
	// Concurrency is the number of jobs handled at once within a batch.
	Concurrency int `yaml:"concurrency"`

	// PollInterval is the pause between passes when the queue is empty.
	PollInterval time.Duration `yaml:"poll_interval"`

	// BatchTimeout is the execution budget for one pass. Jobs not started
	// when it expires are left for redelivery.
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// HTTPConfig controls the inbound HTTP listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:         "https://api.cloudflare.com/client/v4/accounts",
			Timeout:         30 * time.Second,
			CaptionLanguage: "en",
		},
		Queue: QueueConfig{
			Backend:           BackendCloudflare,
			RedisAddr:         "localhost:6379",
			RedisPrefix:       "vidqueue:",
			BatchSize:         10,
			VisibilityTimeout: 2 * time.Minute,
		},
		Consumer: ConsumerConfig{
			Concurrency:  4,
			PollInterval: 30 * time.Second,
			BatchTimeout: 25 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":8787",
		},
	}
}

// LoadConfig builds a Config from defaults, an optional YAML file, any
// .env files and finally the process environment. An empty path skips
// the YAML layer. Missing .env files are ignored.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("vidqueue: read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("vidqueue: parse config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("vidqueue: load env file %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables. The CF_* names
// match the ones used by the Workers deployment.
func (c *Config) applyEnv() error {
	setString(&c.API.BaseURL, "CF_API")
	setString(&c.API.AccountID, "CF_ACCT_TAG")
	setString(&c.API.Token, "CF_STREAM_KEY")
	setString(&c.Queue.QueueID, "CF_QUEUE_ID")
	setString(&c.API.CaptionLanguage, "VIDQUEUE_CAPTION_LANGUAGE")
	setString(&c.Queue.Backend, "VIDQUEUE_QUEUE_BACKEND")
	setString(&c.Queue.RedisAddr, "VIDQUEUE_REDIS_ADDR")
	setString(&c.Queue.RedisPrefix, "VIDQUEUE_REDIS_PREFIX")
	setString(&c.HTTP.Addr, "VIDQUEUE_HTTP_ADDR")

	if err := setInt(&c.Queue.BatchSize, "VIDQUEUE_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Queue.MaxAttempts, "VIDQUEUE_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setInt(&c.Consumer.Concurrency, "VIDQUEUE_CONCURRENCY"); err != nil {
		return err
	}
	if err := setDuration(&c.Consumer.PollInterval, "VIDQUEUE_POLL_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&c.Consumer.BatchTimeout, "VIDQUEUE_BATCH_TIMEOUT"); err != nil {
		return err
	}
	return nil
}

// Validate reports settings that would make the configured backend or the
// media API unusable.
func (c Config) Validate() error {
	if c.API.AccountID == "" {
		return fmt.Errorf("%w: api.account_id (CF_ACCT_TAG)", ErrMissingSetting)
	}
	if c.API.Token == "" {
		return fmt.Errorf("%w: api.token (CF_STREAM_KEY)", ErrMissingSetting)
	}

	switch c.Queue.Backend {
	case BackendCloudflare:
		if c.Queue.QueueID == "" {
			return fmt.Errorf("%w: queue.queue_id (CF_QUEUE_ID)", ErrMissingSetting)
		}
	case BackendRedis:
		if c.Queue.RedisAddr == "" {
			return fmt.Errorf("%w: queue.redis_addr", ErrMissingSetting)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Queue.Backend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("vidqueue: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("vidqueue: %s: %w", key, err)
	}
	*dst = d
	return nil
}
