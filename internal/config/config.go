package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me"

// Closed-ticket reply policies.
const (
	ClosedReplyReject = "reject"
	ClosedReplyReopen = "reopen"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// JWTSecret подписывает session-токены; загружается один раз при старте, без ротации.
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int

	AdminHome  string
	ClientHome string

	AllowAdminSelfRegister bool
	ClosedReplyPolicy      string
	AutoCloseAfter         time.Duration

	CORSOrigins []string

	// SearchServiceURL: если задан, тикеты отправляются в search-service (POST /search/index/ticket).
	SearchServiceURL string
	KafkaBrokers     []string
	KafkaTopicTicket string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	ttl, err := getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	autoClose, err := getEnvDuration("TICKET_AUTOCLOSE_AFTER", 0)
	if err != nil {
		return nil, err
	}
	cost, err := getEnvInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppHost:                getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:               firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:                 getEnv("APP_ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		JWTSecret:              getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:             ttl,
		BcryptCost:             cost,
		AdminHome:              getEnv("ADMIN_HOME", "/admin/dashboard"),
		ClientHome:             getEnv("CLIENT_HOME", "/client/dashboard"),
		AllowAdminSelfRegister: getEnvBool("ALLOW_ADMIN_SELF_REGISTER", false),
		ClosedReplyPolicy:      strings.ToLower(getEnv("TICKET_CLOSED_REPLY_POLICY", ClosedReplyReject)),
		AutoCloseAfter:         autoClose,
		CORSOrigins:            splitList(getEnv("CORS_ORIGINS", "")),
		SearchServiceURL:       getEnv("SEARCH_SERVICE_URL", ""),
		KafkaBrokers:           splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket:       getEnv("KAFKA_TOPIC_TICKET", "backoffice.tickets"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "backoffice")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("config: in production JWT_SECRET must be set")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST %d out of range [4,31]", c.BcryptCost)
	}
	switch c.ClosedReplyPolicy {
	case ClosedReplyReject, ClosedReplyReopen:
	default:
		return fmt.Errorf("config: TICKET_CLOSED_REPLY_POLICY must be %q or %q", ClosedReplyReject, ClosedReplyReopen)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SecureCookies: Secure-флаг на session cookie только в production.
func (c *Config) SecureCookies() bool {
	return c.IsProduction()
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
