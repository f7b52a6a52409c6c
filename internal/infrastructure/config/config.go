package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend  BackendConfig
	Session  SessionConfig
	Workflow WorkflowConfig

	Mongo MongoConfig
	Redis RedisConfig
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:5000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
}

// SessionConfig selects where the session survives a restart. The memory
// store is lost with the process, so Restore only finds a session when
// SESSION_STORE is redis or mongo.
type SessionConfig struct {
	Store     string `env:"SESSION_STORE,      default=memory"`
	Secret    string `env:"SESSION_SECRET"`
	KeyPrefix string `env:"SESSION_KEY_PREFIX, default=portal:session:"`
}

type WorkflowConfig struct {
	NoticeTTL           time.Duration `env:"NOTICE_TTL,                  default=10s"`
	RedirectDelay       time.Duration `env:"REGISTRATION_REDIRECT_DELAY, default=2s"`
	PendingPollSchedule string        `env:"PENDING_POLL_SCHEDULE,       default=@every 30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=intbank_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// PersistsSession reports whether the configured store outlives the process.
func (c *Config) PersistsSession() bool {
	return c.Session.Store != StoreMemory
}

// IsDevelopment enables pretty console logging.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	switch cfg.Session.Store {
	case StoreMemory, StoreRedis, StoreMongo:
	default:
		return nil, fmt.Errorf("config: SESSION_STORE must be memory, redis or mongo, got %q", cfg.Session.Store)
	}
	return &cfg, nil
}
