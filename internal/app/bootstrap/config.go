package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zoramarket/cart-service/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	StorageBackendAuto     = "auto"
	StorageBackendMemory   = "memory"
	StorageBackendRedis    = "redis"
	StorageBackendPostgres = "postgres"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	RemoteCartURL string

	MaxDBConns            int32
	KafkaTopicCartUpdated string
	EventQueueSize        int

	StorageBackend     string
	StorageKey         string
	SnapshotTTL        time.Duration
	VendorFixturesPath string
	VendorCacheTTL     time.Duration
	RemoteCartTimeout  time.Duration
	SettleTimeout      time.Duration
	EngineIdleTTL      time.Duration
	MaxEngines         int

	SessionJWTSecret    string
	SessionTrustGateway bool

	Pricing domain.PricingPolicy
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Cart struct {
		StorageBackend     string `yaml:"storage_backend"`
		StorageKey         string `yaml:"storage_key"`
		SnapshotTTLHours   int    `yaml:"snapshot_ttl_hours"`
		VendorFixturesPath string `yaml:"vendor_fixtures_path"`
		VendorCacheSeconds int    `yaml:"vendor_cache_seconds"`
		SettleTimeoutMS    int    `yaml:"settle_timeout_ms"`
		EngineIdleMinutes  int    `yaml:"engine_idle_minutes"`
		MaxEngines         int    `yaml:"max_engines"`
	} `yaml:"cart"`
	Session struct {
		TrustGateway bool `yaml:"trust_gateway"`
	} `yaml:"session"`
	Pricing struct {
		FreeDeliveryThreshold *float64 `yaml:"free_delivery_threshold"`
		DeliveryFee           *float64 `yaml:"delivery_fee"`
		ServiceFee            *float64 `yaml:"service_fee"`
		Currency              string   `yaml:"currency"`
	} `yaml:"pricing"`
	Dependencies struct {
		PostgresURL           string   `yaml:"postgres_url"`
		RedisURL              string   `yaml:"redis_url"`
		KafkaBrokers          []string `yaml:"kafka_brokers"`
		KafkaTopicCartUpdated string   `yaml:"kafka_topic_cart_updated"`
		RemoteCartURL         string   `yaml:"remote_cart_url"`
		RemoteCartTimeoutMS   int      `yaml:"remote_cart_timeout_ms"`
	} `yaml:"dependencies"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "cart-service",
		HTTPPort:              8080,
		GRPCPort:              9090,
		MaxDBConns:            20,
		KafkaTopicCartUpdated: "cart.updated",
		EventQueueSize:        256,
		StorageBackend:        StorageBackendAuto,
		StorageKey:            "cart-storage",
		VendorFixturesPath:    "configs/vendors.yaml",
		VendorCacheTTL:        10 * time.Minute,
		RemoteCartTimeout:     5 * time.Second,
		SettleTimeout:         2 * time.Second,
		EngineIdleTTL:         30 * time.Minute,
		MaxEngines:            10000,
		Pricing:               domain.DefaultPricingPolicy(),
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Cart.StorageBackend != "" {
			cfg.StorageBackend = f.Cart.StorageBackend
		}
		if f.Cart.StorageKey != "" {
			cfg.StorageKey = f.Cart.StorageKey
		}
		if f.Cart.SnapshotTTLHours > 0 {
			cfg.SnapshotTTL = time.Duration(f.Cart.SnapshotTTLHours) * time.Hour
		}
		if f.Cart.VendorFixturesPath != "" {
			cfg.VendorFixturesPath = f.Cart.VendorFixturesPath
		}
		if f.Cart.VendorCacheSeconds > 0 {
			cfg.VendorCacheTTL = time.Duration(f.Cart.VendorCacheSeconds) * time.Second
		}
		if f.Cart.SettleTimeoutMS > 0 {
			cfg.SettleTimeout = time.Duration(f.Cart.SettleTimeoutMS) * time.Millisecond
		}
		if f.Cart.EngineIdleMinutes > 0 {
			cfg.EngineIdleTTL = time.Duration(f.Cart.EngineIdleMinutes) * time.Minute
		}
		if f.Cart.MaxEngines > 0 {
			cfg.MaxEngines = f.Cart.MaxEngines
		}
		cfg.SessionTrustGateway = f.Session.TrustGateway
		if f.Pricing.FreeDeliveryThreshold != nil {
			cfg.Pricing.FreeDeliveryThreshold = *f.Pricing.FreeDeliveryThreshold
		}
		if f.Pricing.DeliveryFee != nil {
			cfg.Pricing.DeliveryFee = *f.Pricing.DeliveryFee
		}
		if f.Pricing.ServiceFee != nil {
			cfg.Pricing.ServiceFee = *f.Pricing.ServiceFee
		}
		if f.Pricing.Currency != "" {
			cfg.Pricing.Currency = f.Pricing.Currency
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaTopicCartUpdated != "" {
			cfg.KafkaTopicCartUpdated = f.Dependencies.KafkaTopicCartUpdated
		}
		if f.Dependencies.RemoteCartURL != "" {
			cfg.RemoteCartURL = f.Dependencies.RemoteCartURL
		}
		if f.Dependencies.RemoteCartTimeoutMS > 0 {
			cfg.RemoteCartTimeout = time.Duration(f.Dependencies.RemoteCartTimeoutMS) * time.Millisecond
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicCartUpdated = envOrDefault("KAFKA_TOPIC_CART_UPDATED", cfg.KafkaTopicCartUpdated)
	cfg.RemoteCartURL = envOrDefault("REMOTE_CART_URL", cfg.RemoteCartURL)
	cfg.SessionJWTSecret = strings.TrimSpace(envOrDefault("SESSION_JWT_SECRET", cfg.SessionJWTSecret))
	cfg.SessionTrustGateway = envBool("SESSION_TRUST_GATEWAY", cfg.SessionTrustGateway)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(envOrDefault("STORAGE_BACKEND", cfg.StorageBackend)))
	cfg.VendorFixturesPath = envOrDefault("VENDOR_FIXTURES_PATH", cfg.VendorFixturesPath)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.EventQueueSize = envInt("EVENT_QUEUE_SIZE", cfg.EventQueueSize)
	cfg.VendorCacheTTL = time.Duration(envInt("VENDOR_CACHE_SECONDS", int(cfg.VendorCacheTTL.Seconds()))) * time.Second
	cfg.SnapshotTTL = time.Duration(envInt("SNAPSHOT_TTL_HOURS", int(cfg.SnapshotTTL.Hours()))) * time.Hour
	cfg.EngineIdleTTL = time.Duration(envInt("ENGINE_IDLE_MINUTES", int(cfg.EngineIdleTTL.Minutes()))) * time.Minute
	cfg.MaxEngines = envInt("MAX_ENGINES", cfg.MaxEngines)
	cfg.Pricing.FreeDeliveryThreshold = envFloat("FREE_DELIVERY_THRESHOLD", cfg.Pricing.FreeDeliveryThreshold)
	cfg.Pricing.DeliveryFee = envFloat("DELIVERY_FEE", cfg.Pricing.DeliveryFee)
	cfg.Pricing.ServiceFee = envFloat("SERVICE_FEE", cfg.Pricing.ServiceFee)
	cfg.Pricing.Currency = strings.ToUpper(strings.TrimSpace(envOrDefault("CURRENCY", cfg.Pricing.Currency)))

	if cfg.SessionJWTSecret == "" && !cfg.SessionTrustGateway {
		return Config{}, fmt.Errorf("session tokens need SESSION_JWT_SECRET or an explicit session.trust_gateway")
	}
	if cfg.SessionJWTSecret != "" && cfg.SessionTrustGateway {
		return Config{}, fmt.Errorf("SESSION_JWT_SECRET and session.trust_gateway are mutually exclusive")
	}
	if cfg.EngineIdleTTL < 0 || cfg.MaxEngines < 0 {
		return Config{}, fmt.Errorf("engine idle ttl and max engines must not be negative")
	}
	if err := cfg.Pricing.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid pricing policy: %w", err)
	}
	switch cfg.StorageBackend {
	case StorageBackendAuto, StorageBackendMemory:
	case StorageBackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("storage backend redis requires REDIS_URL")
		}
	case StorageBackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("storage backend postgres requires DB_URL/POSTGRES_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return cfg, nil
}

// ResolvedStorageBackend maps "auto" to the most durable configured store.
func (c Config) ResolvedStorageBackend() string {
	if c.StorageBackend != StorageBackendAuto {
		return c.StorageBackend
	}
	switch {
	case c.RedisURL != "":
		return StorageBackendRedis
	case c.DatabaseURL != "":
		return StorageBackendPostgres
	default:
		return StorageBackendMemory
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
