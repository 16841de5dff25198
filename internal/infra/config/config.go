package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"

	domainavailability "rentshare/internal/domain/availability"
	domainpricing "rentshare/internal/domain/pricing"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	ChatStoreMemory = "memory"
	ChatStoreScylla = "scylla"

	NotificationsInline = "inline"
	NotificationsKafka  = "kafka"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	LogLevel           slog.Level
	HTTPAddr           string
	CORSOrigins        []string
	Storage            string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaConsumerGroup string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	ChatStore          string
	Scylla             Scylla
	DiscountTiers      []domainpricing.DiscountTier
	Currency           string
	LifecycleCron      string
	Location           *time.Location
	SearchHorizonDays  int
	NotificationsMode  string
	ContentFilterWords []string
	ItemsFixtures      string
	S3                 S3
}

// S3 configures item photo uploads. An empty Endpoint disables them.
type S3 struct {
	Endpoint      string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func (s S3) Enabled() bool { return s.Endpoint != "" }

// Scylla configures the chat store when CHAT_STORE=scylla.
type Scylla struct {
	Hosts             []string
	Keyspace          string
	Username          string
	Password          string
	Consistency       gocql.Consistency
	Timeout           time.Duration
	ReplicationFactor int
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:        splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Storage:            strings.ToLower(getEnv("STORAGE", StorageMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "rentshare"),
		KafkaBrokers:       splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "rentshare-notifications"),
		ChatStore:          strings.ToLower(getEnv("CHAT_STORE", ChatStoreMemory)),
		Currency:           strings.ToUpper(getEnv("CURRENCY", "USD")),
		LifecycleCron:      getEnv("LIFECYCLE_CRON", "@daily"),
		NotificationsMode:  strings.ToLower(getEnv("NOTIFICATIONS_MODE", NotificationsInline)),
		ContentFilterWords: splitAndTrim(os.Getenv("CONTENT_FILTER_WORDS")),
		ItemsFixtures:      os.Getenv("ITEMS_FIXTURES"),
	}

	level, err := parseLevelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	tiers, err := parseTiers(os.Getenv("DISCOUNT_TIERS"))
	if err != nil {
		return Config{}, err
	}
	cfg.DiscountTiers = tiers

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	horizon, err := parseIntEnv("SEARCH_HORIZON_DAYS", domainavailability.DefaultHorizonDays)
	if err != nil {
		return Config{}, err
	}
	if horizon < 1 {
		return Config{}, fmt.Errorf("SEARCH_HORIZON_DAYS must be positive")
	}
	cfg.SearchHorizonDays = horizon

	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3 = S3{
		Endpoint:      strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		UseSSL:        useSSL,
		AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("S3_SECRET_KEY"),
		Bucket:        strings.TrimSpace(getEnv("S3_BUCKET", "rentshare-photos")),
		PublicBaseURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")),
	}

	scylla, err := loadScylla()
	if err != nil {
		return Config{}, err
	}
	cfg.Scylla = scylla

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE=mongo")
		}
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when STORAGE=mongo")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	switch c.ChatStore {
	case ChatStoreMemory, ChatStoreScylla:
	default:
		return fmt.Errorf("unknown CHAT_STORE %q", c.ChatStore)
	}
	switch c.NotificationsMode {
	case NotificationsInline:
	case NotificationsKafka:
		if c.Storage != StorageMongo {
			return fmt.Errorf("NOTIFICATIONS_MODE=kafka requires STORAGE=mongo")
		}
	default:
		return fmt.Errorf("unknown NOTIFICATIONS_MODE %q", c.NotificationsMode)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a three letter code")
	}
	return nil
}

func loadScylla() (Scylla, error) {
	cfg := Scylla{
		Hosts:    splitAndTrim(getEnv("SCYLLA_HOSTS", "localhost")),
		Keyspace: strings.TrimSpace(getEnv("SCYLLA_KEYSPACE", "rentshare_chat")),
		Username: strings.TrimSpace(os.Getenv("SCYLLA_USERNAME")),
		Password: strings.TrimSpace(os.Getenv("SCYLLA_PASSWORD")),
	}
	rf, err := parseIntEnv("SCYLLA_REPLICATION_FACTOR", 1)
	if err != nil {
		return Scylla{}, err
	}
	if rf < 1 {
		rf = 1
	}
	cfg.ReplicationFactor = rf

	timeout, err := parseDurationEnv("SCYLLA_TIMEOUT", 5*time.Second)
	if err != nil {
		return Scylla{}, err
	}
	cfg.Timeout = timeout

	consistency, err := parseConsistency(getEnv("SCYLLA_CONSISTENCY", "quorum"))
	if err != nil {
		return Scylla{}, err
	}
	cfg.Consistency = consistency
	return cfg, nil
}

// parseTiers reads a JSON list like [{"min_days":7,"percentage":10}]. Empty
// input yields the default tiers.
func parseTiers(raw string) ([]domainpricing.DiscountTier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domainpricing.DefaultTiers(), nil
	}
	var tiers []domainpricing.DiscountTier
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		return nil, fmt.Errorf("invalid DISCOUNT_TIERS: %w", err)
	}
	if err := domainpricing.ValidateTiers(tiers); err != nil {
		return nil, fmt.Errorf("invalid DISCOUNT_TIERS: %w", err)
	}
	return tiers, nil
}

func parseConsistency(raw string) (gocql.Consistency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "any":
		return gocql.Any, nil
	case "one":
		return gocql.One, nil
	case "two":
		return gocql.Two, nil
	case "three":
		return gocql.Three, nil
	case "quorum":
		return gocql.Quorum, nil
	case "all":
		return gocql.All, nil
	case "local_quorum":
		return gocql.LocalQuorum, nil
	case "each_quorum":
		return gocql.EachQuorum, nil
	case "local_one":
		return gocql.LocalOne, nil
	default:
		return gocql.Quorum, fmt.Errorf("invalid SCYLLA_CONSISTENCY: %q", raw)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s boolean: %w", key, err)
	}
	return v, nil
}

func parseLevelEnv(key string, def slog.Level) (slog.Level, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return level, nil
}
