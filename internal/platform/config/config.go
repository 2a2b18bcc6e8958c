package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration for the ledger service.
// Built from environment variables so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// InitialOwner is granted the Owner role on every component at startup.
	InitialOwner string

	// PostgresDSN enables the postgres identity-binding store when set;
	// empty keeps the in-memory store.
	PostgresDSN string

	// RedisURL enables the redis verification cache when set.
	RedisURL string

	// KafkaBrokers enables the Kafka event sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	Token TokenConfig
	Caps  Caps

	// VerificationCacheTTL bounds staleness of cached verification results.
	VerificationCacheTTL time.Duration
}

// TokenConfig carries the token metadata published by the ledger.
type TokenConfig struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Caps are the fixed registration limits that bound iteration cost of
// verification and compliance checks. Enforced at registration time.
type Caps struct {
	MaxClaimTopics       int
	MaxTrustedIssuers    int
	MaxIssuerClaimTopics int
	MaxComplianceModules int
}

// Defaults chosen to keep per-transfer work small and predictable.
const (
	defaultMaxClaimTopics       = 15
	defaultMaxTrustedIssuers    = 50
	defaultMaxIssuerClaimTopics = 15
	defaultMaxComplianceModules = 25
)

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("VERILEDGER_ADDR", ":8080"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		InitialOwner:  envOr("VERILEDGER_OWNER", "owner"),
		PostgresDSN:   os.Getenv("VERILEDGER_POSTGRES_DSN"),
		RedisURL:      os.Getenv("VERILEDGER_REDIS_URL"),
		KafkaTopic:    envOr("VERILEDGER_KAFKA_TOPIC", "veriledger.events"),
		Token: TokenConfig{
			Name:     envOr("VERILEDGER_TOKEN_NAME", "Veriledger Token"),
			Symbol:   envOr("VERILEDGER_TOKEN_SYMBOL", "VLT"),
			Decimals: uint8(envIntOr("VERILEDGER_TOKEN_DECIMALS", 0)),
		},
		Caps: Caps{
			MaxClaimTopics:       envIntOr("VERILEDGER_MAX_CLAIM_TOPICS", defaultMaxClaimTopics),
			MaxTrustedIssuers:    envIntOr("VERILEDGER_MAX_TRUSTED_ISSUERS", defaultMaxTrustedIssuers),
			MaxIssuerClaimTopics: envIntOr("VERILEDGER_MAX_ISSUER_CLAIM_TOPICS", defaultMaxIssuerClaimTopics),
			MaxComplianceModules: envIntOr("VERILEDGER_MAX_COMPLIANCE_MODULES", defaultMaxComplianceModules),
		},
		VerificationCacheTTL: envDurationOr("VERILEDGER_VERIFICATION_CACHE_TTL", 5*time.Minute),
	}

	if brokers := os.Getenv("VERILEDGER_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
