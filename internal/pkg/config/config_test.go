package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: port=%s env=%s", cfg.Port, cfg.Env)
	}
	if cfg.KV.Backend != BackendMemory || cfg.KV.Namespace != "skillhub" {
		t.Fatalf("unexpected kv defaults: %+v", cfg.KV)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected development secret fallback")
	}
	if !cfg.Admin.Seed || cfg.Admin.Email != "admin@skillhub.com" {
		t.Fatalf("unexpected admin defaults: %+v", cfg.Admin)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":           "production",
		"JWT_SECRET":    "s3cret",
		"KV_BACKEND":    "redis",
		"REDIS_ADDR":    "cache:6379",
		"REDIS_DB":      "2",
		"TOKEN_TTL":     "1h",
		"LOGIN_WORKERS": "8",
		"SEED_ADMIN":    "false",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.KV.Backend != BackendRedis || cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis config: %+v %+v", cfg.KV, cfg.Redis)
	}
	if cfg.TokenTTL != time.Hour || cfg.LoginWorkers != 8 || cfg.Admin.Seed {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"KV_BACKEND": "sqlite"}},
		{"missing secret in production", map[string]string{"ENV": "production"}},
		{"non-positive ttl", map[string]string{"TOKEN_TTL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
