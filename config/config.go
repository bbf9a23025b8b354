package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Store selection: mysql, postgres, sqlite or mongo
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	// MongoDB
	MongoURI      string
	MongoDatabase string
	// Redis for the token blacklist
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Uploads
	UploadDir   string
	UploadMaxMB int
}

// Supported values of AppConfig.DBDriver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// envBindings maps config keys to the environment variables that override them, in priority order.
var envBindings = map[string][]string{
	"app.port":                  {"APP_PORT", "PORT"},
	"app.jwt_secret":            {"JWT_SECRET"},
	"app.token_ttl_hours":       {"TOKEN_TTL_HOURS"},
	"app.rate_limit_per_minute": {"RATE_LIMIT_PER_MINUTE"},
	"app.allowed_origins":       {"CORS_ALLOWED_ORIGINS"},
	"gin.mode":                  {"GIN_MODE"},
	"gin.path":                  {"GIN_PATH", "GIN_LOG_PATH"},
	"database.driver":           {"DB_DRIVER"},
	"database.uri":              {"DATABASE_URI"},
	"database.host":             {"DB_HOST"},
	"database.port":             {"DB_PORT"},
	"database.user":             {"DB_USER"},
	"database.password":         {"DB_PASSWORD"},
	"database.name":             {"DB_NAME"},
	"database.sslmode":          {"DB_SSLMODE"},
	"mongo.uri":                 {"MONGODB_SERVER_URL", "MONGO_URI"},
	"mongo.database":            {"MONGODB_DATABASE"},
	"redis.host":                {"REDIS_HOST"},
	"redis.port":                {"REDIS_PORT"},
	"redis.db":                  {"REDIS_DB"},
	"redis.password":            {"REDIS_PASSWORD"},
	"log.level":                 {"LOG_LEVEL"},
	"log.path":                  {"LOG_PATH"},
	"log.max_size_mb":           {"LOG_MAX_SIZE_MB"},
	"log.max_backups":           {"LOG_MAX_BACKUPS"},
	"log.max_age_days":          {"LOG_MAX_AGE_DAYS"},
	"log.compress":              {"LOG_COMPRESS"},
	"upload.dir":                {"UPLOAD_DIR"},
	"upload.max_mb":             {"UPLOAD_MAX_MB"},
}

// Load loads the application configuration. It should be called once during boot.
// Precedence: defaults -> config/config.json -> .env -> environment variables.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	c, err := Parse(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.Lock()
	ok := loaded
	c := cfg
	mu.Unlock()
	if !ok {
		return Load()
	}
	return c
}

// Set replaces the cached configuration. Used by tools and tests that build their own config.
func Set(c AppConfig) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	loaded = true
}

// Parse reads the optional JSON file at path, applies defaults and environment overrides and validates the result.
func Parse(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	applyDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return AppConfig{}, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
			}
		}
	}

	c := AppConfig{
		AppPort:            v.GetString("app.port"),
		JWTSecret:          v.GetString("app.jwt_secret"),
		TokenTTLHours:      v.GetInt("app.token_ttl_hours"),
		RateLimitPerMinute: v.GetInt("app.rate_limit_per_minute"),
		AllowedOrigins:     stringList(v, "app.allowed_origins"),
		GinMode:            v.GetString("gin.mode"),
		GinPath:            v.GetString("gin.path"),
		DBDriver:           strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:        v.GetString("database.uri"),
		DBHost:             v.GetString("database.host"),
		DBPort:             v.GetString("database.port"),
		DBUser:             v.GetString("database.user"),
		DBPassword:         v.GetString("database.password"),
		DBName:             v.GetString("database.name"),
		DBSSLMode:          v.GetString("database.sslmode"),
		MongoURI:           v.GetString("mongo.uri"),
		MongoDatabase:      v.GetString("mongo.database"),
		RedisHost:          v.GetString("redis.host"),
		RedisPort:          v.GetInt("redis.port"),
		RedisDB:            v.GetInt("redis.db"),
		RedisPassword:      v.GetString("redis.password"),
		LogLevel:           v.GetString("log.level"),
		LogPath:            v.GetString("log.path"),
		LogMaxSizeMB:       v.GetInt("log.max_size_mb"),
		LogMaxBackups:      v.GetInt("log.max_backups"),
		LogMaxAgeDays:      v.GetInt("log.max_age_days"),
		LogCompress:        v.GetBool("log.compress"),
		UploadDir:          v.GetString("upload.dir"),
		UploadMaxMB:        v.GetInt("upload.max_mb"),
	}

	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// Validate ensures that required configuration values are present.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in environment variables")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_SERVER_URL is required when DB_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// applyDefaults sets sane defaults for values not provided elsewhere.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "4444")
	v.SetDefault("app.token_ttl_hours", 24*30)
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.path", "logs/go_gin.log")
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "blog")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("mongo.database", "blog")
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_mb", 10)
}

// stringList reads a list value that may come from JSON (array) or env (comma separated).
func stringList(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case string:
		return splitAndTrim(raw)
	case []string:
		return raw
	case []any:
		res := make([]string, 0, len(raw))
		for _, it := range raw {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}
	return nil
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
