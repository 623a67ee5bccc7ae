package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	// SessionSigningKey signs the wizard session cookie.
	SessionSigningKey string
	SessionTTL        time.Duration
	SecureCookies     bool

	// AdminToken guards the operator endpoints; empty leaves them unmounted.
	AdminToken string

	Redis         RedisConfig
	Postgres      PostgresConfig
	Registration  Registration
	Collaborators Collaborators
	Twilio        TwilioConfig
	Kafka         KafkaConfig
	RateLimit     RateLimitConfig
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the Postgres draft backend.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Registration holds the wizard's feature flags and limits.
type Registration struct {
	// DraftBackend is one of memory, redis or postgres.
	DraftBackend      string
	DraftTTL          time.Duration
	PhoneVerification bool
	Referral          bool
	Payment           bool
	Plans             []string
	MaxUploadBytes    int64
	SessionIdleTTL    time.Duration
	Language          string
}

// Collaborators are the base URLs of the remote services the wizard calls.
type Collaborators struct {
	ReferenceURL  string
	MembersURL    string
	UploadURL     string
	PaymentURL    string
	APIKey        string
	Timeout       time.Duration
	ReferenceTTL  time.Duration
	PaymentReturn string
}

// TwilioConfig enables OTP delivery through Twilio Verify when all fields are set.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	ServiceSID string
}

// Enabled reports whether Twilio credentials are configured.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.ServiceSID != ""
}

// RateLimitConfig bounds session creation per client IP and verification
// code sends per phone. A zero limit disables the rule.
type RateLimitConfig struct {
	SessionLimit  int
	SessionWindow time.Duration
	OTPLimit      int
	OTPWindow     time.Duration
}

// KafkaConfig enables the lifecycle event sink when brokers are listed.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Server {
	_ = godotenv.Load()

	signingKey := os.Getenv("SESSION_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}
	env := getEnv("ENVIRONMENT", "local")

	return Server{
		Addr:              getEnv("MEMBERSHIP_ADDR", ":8080"),
		Environment:       env,
		SessionSigningKey: signingKey,
		SessionTTL:        getDuration("SESSION_TTL", 7*24*time.Hour),
		SecureCookies:     getBool("SECURE_COOKIES", env != "local"),
		AdminToken:        os.Getenv("ADMIN_API_TOKEN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Registration: Registration{
			DraftBackend:      strings.ToLower(getEnv("DRAFT_BACKEND", "memory")),
			DraftTTL:          getDuration("DRAFT_TTL", 7*24*time.Hour),
			PhoneVerification: getBool("REGISTRATION_PHONE_VERIFICATION", false),
			Referral:          getBool("REGISTRATION_REFERRAL", false),
			Payment:           getBool("REGISTRATION_PAYMENT", false),
			Plans:             getList("REGISTRATION_PLANS", []string{"annual", "lifetime"}),
			MaxUploadBytes:    int64(getInt("REGISTRATION_MAX_UPLOAD_BYTES", 5<<20)),
			SessionIdleTTL:    getDuration("REGISTRATION_SESSION_IDLE_TTL", 30*time.Minute),
			Language:          getEnv("REGISTRATION_LANGUAGE", "en"),
		},
		Collaborators: Collaborators{
			ReferenceURL:  os.Getenv("REFERENCE_DATA_URL"),
			MembersURL:    os.Getenv("MEMBERS_URL"),
			UploadURL:     os.Getenv("UPLOAD_URL"),
			PaymentURL:    os.Getenv("PAYMENT_URL"),
			APIKey:        os.Getenv("COLLABORATOR_API_KEY"),
			Timeout:       getDuration("COLLABORATOR_TIMEOUT", 10*time.Second),
			ReferenceTTL:  getDuration("REFERENCE_DATA_CACHE_TTL", time.Hour),
			PaymentReturn: os.Getenv("PAYMENT_RETURN_URL"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			ServiceSID: os.Getenv("TWILIO_VERIFY_SERVICE_SID"),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_LIFECYCLE_TOPIC", "membership.registration.lifecycle"),
		},
		RateLimit: RateLimitConfig{
			SessionLimit:  getInt("RATELIMIT_SESSION_LIMIT", 20),
			SessionWindow: getDuration("RATELIMIT_SESSION_WINDOW", time.Minute),
			OTPLimit:      getInt("RATELIMIT_OTP_LIMIT", 5),
			OTPWindow:     getDuration("RATELIMIT_OTP_WINDOW", time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; !dup {
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
