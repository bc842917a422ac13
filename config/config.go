package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrEmptySecret is returned when no signing secret is configured
	ErrEmptySecret = errors.New("credentials secret must not be empty")

	// ErrNonPositiveTTL is returned when the token TTL is zero or negative
	ErrNonPositiveTTL = errors.New("credentials token ttl must be positive")

	// ErrTTLPrecision is returned when the token TTL is not a whole number of milliseconds
	ErrTTLPrecision = errors.New("credentials token ttl must be a whole number of milliseconds")

	// ErrPrefixLength is returned when the scheme prefix length disagrees with the prefix
	ErrPrefixLength = errors.New("credentials scheme prefix length does not match scheme prefix")

	// ErrInvalidCredentialSetting is returned when a credentials variable cannot be parsed
	ErrInvalidCredentialSetting = errors.New("invalid credentials setting")
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Credentials   CredentialsConfig
	Directory     DirectoryConfig
	Login         LoginConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// CredentialsConfig holds the bearer token settings. It is built once at
// startup and shared read-only by every request.
type CredentialsConfig struct {
	Secret             []byte
	TTL                time.Duration
	HeaderName         string
	SchemePrefix       string
	SchemePrefixLength int
	// TrustTokenRoles makes the loader take roles from the token claim instead
	// of the directory record.
	TrustTokenRoles bool
}

// DirectoryConfig holds user directory lookup settings
type DirectoryConfig struct {
	LookupTimeout time.Duration
}

// LoginConfig holds failed login throttling settings. A zero limit disables
// its window; both zero disables throttling.
type LoginConfig struct {
	MaxAttemptsPerMinute int
	MaxAttemptsPerHour   int
	AttemptRetention     time.Duration
	CleanupInterval      time.Duration
}

// AuditConfig holds security audit trail settings
type AuditConfig struct {
	Enabled     bool
	BufferSize  int
	WorkerCount int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel          string
	LogFormat         string // json or console
	TracingEnabled    bool
	TracingSampleRate float64
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	creds, err := loadCredentialsConfig()
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins:  getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*"}),
		},
		Database:    loadDatabaseConfig(),
		Credentials: creds,
		Directory: DirectoryConfig{
			LookupTimeout: getEnvAsDuration("DIRECTORY_LOOKUP_TIMEOUT", 2*time.Second),
		},
		Login: LoginConfig{
			MaxAttemptsPerMinute: getEnvAsInt("LOGIN_MAX_ATTEMPTS_PER_MINUTE", 5),
			MaxAttemptsPerHour:   getEnvAsInt("LOGIN_MAX_ATTEMPTS_PER_HOUR", 20),
			AttemptRetention:     getEnvAsDuration("LOGIN_ATTEMPT_RETENTION", 24*time.Hour),
			CleanupInterval:      getEnvAsDuration("LOGIN_CLEANUP_INTERVAL", time.Hour),
		},
		Audit: AuditConfig{
			Enabled:     getEnvAsBool("AUDIT_ENABLED", true),
			BufferSize:  getEnvAsInt("AUDIT_BUFFER_SIZE", 1000),
			WorkerCount: getEnvAsInt("AUDIT_WORKER_COUNT", 2),
		},
		Observability: ObservabilityConfig{
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			LogFormat:         getEnv("LOG_FORMAT", "json"),
			TracingEnabled:    getEnvAsBool("TRACING_ENABLED", false),
			TracingSampleRate: getEnvAsFloat("TRACING_SAMPLE_RATE", 0.1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadCredentials loads and validates only the token settings. Tools that
// sign or inspect tokens use it without needing a database configuration.
func LoadCredentials() (CredentialsConfig, error) {
	_ = godotenv.Load(".env")

	creds, err := loadCredentialsConfig()
	if err != nil {
		return CredentialsConfig{}, fmt.Errorf("credentials validation failed: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return CredentialsConfig{}, fmt.Errorf("credentials validation failed: %w", err)
	}
	return creds, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if err := c.Credentials.Validate(); err != nil {
		return err
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// Validate checks the credentials invariants. A failure here is fatal at startup.
func (c *CredentialsConfig) Validate() error {
	if len(c.Secret) == 0 {
		return ErrEmptySecret
	}
	if c.TTL <= 0 {
		return fmt.Errorf("%w: got %s", ErrNonPositiveTTL, c.TTL)
	}
	// Tokens carry millisecond timestamps, so a finer TTL would be truncated.
	if c.TTL < time.Millisecond || c.TTL%time.Millisecond != 0 {
		return fmt.Errorf("%w: got %s", ErrTTLPrecision, c.TTL)
	}
	if c.HeaderName == "" {
		return fmt.Errorf("credentials header name is required")
	}
	if c.SchemePrefixLength != len(c.SchemePrefix) {
		return fmt.Errorf("%w: prefix %q has length %d, configured %d",
			ErrPrefixLength, c.SchemePrefix, len(c.SchemePrefix), c.SchemePrefixLength)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "kanban"),
		Password:        getEnv("DB_PASSWORD", "kanban"),
		Database:        getEnv("DB_NAME", "kanban_board"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadCredentialsConfig loads token settings. The prefix length defaults to
// the length of the configured prefix. Unlike the other sections a malformed
// value is an error rather than a silent fallback to the default.
func loadCredentialsConfig() (CredentialsConfig, error) {
	prefix := getEnv("AUTH_SCHEME_PREFIX", "Bearer ")

	ttl, err := lookupDuration("JWT_TTL", 10*time.Hour)
	if err != nil {
		return CredentialsConfig{}, err
	}
	prefixLength, err := lookupInt("AUTH_SCHEME_PREFIX_LENGTH", len(prefix))
	if err != nil {
		return CredentialsConfig{}, err
	}
	trustRoles, err := lookupBool("CREDENTIALS_TRUST_TOKEN_ROLES", false)
	if err != nil {
		return CredentialsConfig{}, err
	}

	return CredentialsConfig{
		Secret:             []byte(os.Getenv("JWT_SECRET")),
		TTL:                ttl,
		HeaderName:         getEnv("AUTH_HEADER_NAME", "Authorization"),
		SchemePrefix:       prefix,
		SchemePrefixLength: prefixLength,
		TrustTokenRoles:    trustRoles,
	}, nil
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice splits a comma separated value, dropping empty entries
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// lookupDuration, lookupInt and lookupBool are the strict variants used for
// the credentials section.
func lookupDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidCredentialSetting, key, valueStr)
	}
	return value, nil
}

func lookupInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidCredentialSetting, key, valueStr)
	}
	return value, nil
}

func lookupBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidCredentialSetting, key, valueStr)
	}
	return value, nil
}
