// Package config loads listsvc configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   Server       `yaml:"server"`
	Database Database     `yaml:"database"`
	Redis    RedisConfig  `yaml:"redis"`
	Kafka    Kafka        `yaml:"kafka"`
	Queue    Queue        `yaml:"queue"`
	Timeouts Timeouts     `yaml:"timeouts"`
	Cache    Cache        `yaml:"cache"`
	Notify   Notify       `yaml:"notify"`
	Auth     Auth         `yaml:"auth"`
	Logging  Logging      `yaml:"logging"`
	Policy   PolicyConfig `yaml:"policy"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database selects the durable store. Driver is pgx, postgres or sqlite.
type Database struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	TxTimeout    time.Duration `yaml:"tx_timeout"`
}

// RedisConfig configures the lookaside cache. An empty URL selects the
// in-process cache.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type Kafka struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	ConsumerGroup     string   `yaml:"consumer_group"`
	ClientID          string   `yaml:"client_id"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

// Queue selects the durability queue backend: memory or kafka.
type Queue struct {
	Backend    string `yaml:"backend"`
	Shards     int    `yaml:"shards"`
	ShardDepth int    `yaml:"shard_depth"`
}

type Timeouts struct {
	Cache   time.Duration `yaml:"cache"`
	Store   time.Duration `yaml:"store"`
	Enqueue time.Duration `yaml:"enqueue"`
	Apply   time.Duration `yaml:"apply"`
}

type Cache struct {
	TombstoneTTL time.Duration `yaml:"tombstone_ttl"`
}

// Notify configures the duplicate-attempt channel. An empty webhook URL
// logs notifications instead.
type Notify struct {
	SlackWebhookURL string        `yaml:"slack_webhook_url"`
	BufferSize      int           `yaml:"buffer_size"`
	SendTimeout     time.Duration `yaml:"send_timeout"`
}

type Auth struct {
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PolicyConfig points at an optional YAML permission table.
type PolicyConfig struct {
	File string `yaml:"file"`
}

// Default returns a configuration suitable for local development.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Database: Database{
			Driver:       "sqlite",
			DSN:          "file:listsvc.db?_pragma=busy_timeout(5000)",
			MaxOpenConns: 10,
			TxTimeout:    5 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
		Kafka: Kafka{
			Brokers:           []string{"localhost:9092"},
			Topic:             "list-durability-jobs",
			ConsumerGroup:     "listsvc-workers",
			ClientID:          "listsvc",
			Partitions:        12,
			ReplicationFactor: 1,
		},
		Queue:    Queue{Backend: "memory", Shards: 8, ShardDepth: 256},
		Timeouts: Timeouts{Cache: 250 * time.Millisecond, Store: 2 * time.Second, Enqueue: time.Second, Apply: 5 * time.Second},
		Cache:    Cache{TombstoneTTL: 10 * time.Minute},
		Notify:   Notify{BufferSize: 128, SendTimeout: 5 * time.Second},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "listsvc",
			Audience:      "listsvc",
			TokenTTL:      time.Hour,
		},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load layers the YAML file at path (if any) and then the environment over
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a config from defaults and environment variables only.
func FromEnv() (Config, error) {
	return Load("")
}

// Validate rejects combinations the service cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "pgx", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Queue.Backend {
	case "memory":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return fmt.Errorf("kafka queue requires brokers and topic")
		}
	default:
		return fmt.Errorf("unsupported queue backend %q", c.Queue.Backend)
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth.jwt_signing_key is required")
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}
	e.str("LISTSVC_ADDR", &cfg.Server.Addr)
	e.str("DATABASE_DRIVER", &cfg.Database.Driver)
	e.str("DATABASE_URL", &cfg.Database.DSN)
	e.str("REDIS_URL", &cfg.Redis.URL)
	e.list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	e.str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	e.str("KAFKA_CONSUMER_GROUP", &cfg.Kafka.ConsumerGroup)
	e.str("QUEUE_BACKEND", &cfg.Queue.Backend)
	e.integer("QUEUE_SHARDS", &cfg.Queue.Shards)
	e.duration("CACHE_TIMEOUT", &cfg.Timeouts.Cache)
	e.duration("STORE_TIMEOUT", &cfg.Timeouts.Store)
	e.duration("ENQUEUE_TIMEOUT", &cfg.Timeouts.Enqueue)
	e.duration("TOMBSTONE_TTL", &cfg.Cache.TombstoneTTL)
	e.str("SLACK_WEBHOOK_URL", &cfg.Notify.SlackWebhookURL)
	e.str("JWT_SIGNING_KEY", &cfg.Auth.JWTSigningKey)
	e.str("LOG_LEVEL", &cfg.Logging.Level)
	e.str("LOG_FORMAT", &cfg.Logging.Format)
	e.str("POLICY_FILE", &cfg.Policy.File)
	return e.err
}

// envReader applies variables that are set and keeps the first parse error.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok && v != "" {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}
