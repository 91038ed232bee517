package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Built once in main from the
// environment so the rest of the code receives plain values.
type Server struct {
	Addr            string
	DatabaseURL     string
	JWTSigningKey   string
	AdminToken      string
	RateCardPath    string
	CertSigningSeed string
	Redis           RedisConfig
	Kafka           KafkaConfig
	Auditors        []AuditorConfig
	Fusion          FusionDefaults
}

// RedisConfig configures the optional redis-backed idempotency index.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional settlement ledger topic.
type KafkaConfig struct {
	Brokers     []string
	LedgerTopic string
}

// AuditorConfig describes one matcher backend.
type AuditorConfig struct {
	ID          string
	URL         string
	Reliability float64
}

// FusionDefaults carries the tunable fusion parameters. They are copied into
// the fusion engine's own config struct at wiring time so the engine stays
// free of environment concerns.
type FusionDefaults struct {
	TopK               int
	MinBackends        int
	ConfidenceDiscount float64
	NoiseFloor         float64
	BackendTimeout     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ATTRIBUNE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	rateCardPath := os.Getenv("RATE_CARD_PATH")
	if rateCardPath == "" {
		rateCardPath = "ratecard.yaml"
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   jwtSigningKey,
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		RateCardPath:    rateCardPath,
		CertSigningSeed: os.Getenv("CERT_SIGNING_SEED"),
		Fusion: FusionDefaults{
			TopK:               envInt("MATCH_TOP_K", 20),
			MinBackends:        envInt("FUSION_MIN_BACKENDS", 2),
			ConfidenceDiscount: envFloat("FUSION_CONFIDENCE_DISCOUNT", 0.5),
			NoiseFloor:         envFloat("FUSION_NOISE_FLOOR", 0.01),
			BackendTimeout:     envDuration("MATCH_BACKEND_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     envList("KAFKA_BROKERS"),
			LedgerTopic: envString("KAFKA_LEDGER_TOPIC", "attribune.ledger"),
		},
		Auditors: parseAuditors(os.Getenv("AUDITOR_BACKENDS")),
	}
}

// parseAuditors reads "id=url@reliability,id=url@reliability". Reliability
// defaults to 1.0 when omitted.
func parseAuditors(raw string) []AuditorConfig {
	if raw == "" {
		return nil
	}
	var auditors []AuditorConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, rest, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		url, relRaw, hasRel := strings.Cut(rest, "@")
		reliability := 1.0
		if hasRel {
			if parsed, err := strconv.ParseFloat(relRaw, 64); err == nil {
				reliability = parsed
			}
		}
		auditors = append(auditors, AuditorConfig{
			ID:          strings.TrimSpace(id),
			URL:         strings.TrimSpace(url),
			Reliability: reliability,
		})
	}
	return auditors
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
