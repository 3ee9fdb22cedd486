// ==============================================
// Configuration for the betting portal server
// Loaded from the environment (optionally a .env file)
// ==============================================

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ==============================================
// Main Configuration Structure
// ==============================================

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Storage  StorageConfig
	Media    MediaConfig
	Security SecurityConfig
	Ledger   LedgerConfig
	Admin    AdminConfig
	Log      LogConfig
}

type AppConfig struct {
	Name          string
	Environment   string
	Port          string
	Debug         bool
	StaticDir     string
	CanonicalHost string
}

// IsProduction enables HTTPS/WWW redirects and static file serving
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// ==============================================
// Server Configuration
// ==============================================

type ServerConfig struct {
	HTTP      HTTPConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     bool
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageSize  int64
	SendBuffer      int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// ==============================================
// Storage Configuration
// ==============================================

type StorageConfig struct {
	Driver  string // file, redis or mongo
	DataDir string
	Redis   RedisConfig
	MongoDB MongoConfig
}

type RedisConfig struct {
	URL    string
	Prefix string
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// ==============================================
// Image hosting (receipts, banners)
// ==============================================

type MediaConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	MaxBytes  int64
}

// Enabled is false when no image host is configured; images are then kept
// inline as data URIs.
func (m MediaConfig) Enabled() bool {
	return m.Endpoint != "" && m.AccessKey != "" && m.SecretKey != "" && m.Bucket != ""
}

// ==============================================
// Security Configuration
// ==============================================

type SecurityConfig struct {
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	BcryptCost int
}

type JWTConfig struct {
	Secret          string
	ExpiryHour      int
	AdminExpiryHour int
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// ==============================================
// Ledger Configuration
// ==============================================

type LedgerConfig struct {
	// DailyWithdrawLimit applies when the config bag has no dailyWithdrawLimit; 0 disables it
	DailyWithdrawLimit float64
	MinAmount          float64
}

type AdminConfig struct {
	Username string
	Password string
	Name     string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// ==============================================
// Loading
// ==============================================

func Load() *Config {
	return &Config{
		App:      loadAppConfig(),
		Server:   loadServerConfig(),
		Storage:  loadStorageConfig(),
		Media:    loadMediaConfig(),
		Security: loadSecurityConfig(),
		Ledger:   loadLedgerConfig(),
		Admin:    loadAdminConfig(),
		Log:      loadLogConfig(),
	}
}

func loadAppConfig() AppConfig {
	return AppConfig{
		Name:          getEnv("APP_NAME", "Bet Portal"),
		Environment:   getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "3000"),
		Debug:         getEnvAsBool("DEBUG", false),
		StaticDir:     getEnv("STATIC_DIR", "public"),
		CanonicalHost: getEnv("CANONICAL_HOST", ""),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		HTTP: HTTPConfig{
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", "30s"),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", "30s"),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", "60s"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", "10s"),
			MaxBodyBytes:    getEnvAsInt64("HTTP_MAX_BODY_BYTES", 10<<20),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER", 1024),
			CheckOrigin:     getEnvAsBool("WS_CHECK_ORIGIN", false),
			PingPeriod:      getEnvAsDuration("WS_PING_PERIOD", "54s"),
			PongWait:        getEnvAsDuration("WS_PONG_WAIT", "60s"),
			WriteWait:       getEnvAsDuration("WS_WRITE_WAIT", "10s"),
			MaxMessageSize:  getEnvAsInt64("WS_MAX_MESSAGE_SIZE", 64<<10),
			SendBuffer:      getEnvAsInt("WS_SEND_BUFFER", 256),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvAsSlice("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
			AllowedMethods:   getEnvAsSlice("CORS_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:   getEnvAsSlice("CORS_HEADERS", "Origin,Content-Type,Accept,Authorization,X-Requested-With"),
			AllowCredentials: getEnvAsBool("CORS_CREDENTIALS", true),
			MaxAge:           getEnvAsDuration("CORS_MAX_AGE", "12h"),
		},
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:  strings.ToLower(getEnv("STORE_DRIVER", "file")),
		DataDir: getEnv("DATA_DIR", "data"),
		Redis: RedisConfig{
			URL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Prefix: getEnv("REDIS_PREFIX", "betportal:"),
		},
		MongoDB: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "betportal"),
			ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", "10s"),
		},
	}
}

func loadMediaConfig() MediaConfig {
	return MediaConfig{
		Endpoint:  getEnv("IMAGE_HOST_ENDPOINT", ""),
		AccessKey: getEnv("IMAGE_HOST_ACCESS_KEY", ""),
		SecretKey: getEnv("IMAGE_HOST_SECRET_KEY", ""),
		Bucket:    getEnv("IMAGE_HOST_BUCKET", "receipts"),
		UseSSL:    getEnvAsBool("IMAGE_HOST_USE_SSL", true),
		PublicURL: getEnv("IMAGE_HOST_PUBLIC_URL", ""),
		MaxBytes:  getEnvAsInt64("IMAGE_MAX_BYTES", 5<<20),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me"),
			ExpiryHour:      getEnvAsInt("JWT_EXPIRY_HOUR", 24),
			AdminExpiryHour: getEnvAsInt("ADMIN_JWT_EXPIRY_HOUR", 8),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvAsFloat64("RATE_LIMIT_RPS", 20),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
	}
}

func loadLedgerConfig() LedgerConfig {
	return LedgerConfig{
		DailyWithdrawLimit: getEnvAsFloat64("DAILY_WITHDRAW_LIMIT", 0),
		MinAmount:          getEnvAsFloat64("MIN_REQUEST_AMOUNT", 0),
	}
}

func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Username: getEnv("ADMIN_USERNAME", ""),
		Password: getEnv("ADMIN_PASSWORD", ""),
		Name:     getEnv("ADMIN_NAME", "Soporte"),
	}
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		Output: getEnv("LOG_OUTPUT", "stdout"),
	}
}

// ==============================================
// Helper Functions
// ==============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "redis", "mongo":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "file" && c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required for the file store")
	}
	if c.App.IsProduction() && c.Security.JWT.Secret == "change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Ledger.DailyWithdrawLimit < 0 {
		return fmt.Errorf("DAILY_WITHDRAW_LIMIT cannot be negative")
	}
	return nil
}

// ==============================================
// Environment-specific Configuration
// ==============================================

func (c *Config) ApplyEnvironmentOverrides() {
	switch c.App.Environment {
	case "development":
		c.App.Debug = true
		c.Server.CORS.AllowedOrigins = append(c.Server.CORS.AllowedOrigins, "http://127.0.0.1:3000")
	case "production":
		c.App.Debug = false
		c.Server.WebSocket.CheckOrigin = true
	}
}
