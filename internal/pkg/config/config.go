package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends selectable through KV_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	LogPretty bool          `env:"LOG_PRETTY, default=false"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`

	KV           KVConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	LoginWorkers int `env:"LOGIN_WORKERS, default=4"`
	Admin        AdminConfig
}

type KVConfig struct {
	Backend   string `env:"KV_BACKEND,   default=memory"`
	Namespace string `env:"KV_NAMESPACE, default=skillhub"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=skillhub"`
	Collection string `env:"MONGO_COLLECTION, default=kv_entries"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// AdminConfig describes the default administrator seeded on startup.
type AdminConfig struct {
	Seed     bool   `env:"SEED_ADMIN,     default=true"`
	Email    string `env:"ADMIN_EMAIL,    default=admin@skillhub.com"`
	Name     string `env:"ADMIN_NAME,     default=SkillHub Administrator"`
	Password string `env:"ADMIN_PASSWORD"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file from the working directory, then the
// process environment, which takes precedence.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.KV.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("config: KV_BACKEND must be memory, redis or mongo, got %q", c.KV.Backend)
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("config: JWT_SECRET is required outside development")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	return nil
}
