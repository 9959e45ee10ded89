package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends selectable with STORE_BACKEND.
const (
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment `yaml:"-"`

	// Server configuration
	ServerPort     string        `yaml:"server_port"`
	ServerHost     string        `yaml:"server_host"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Timezone       string        `yaml:"timezone"`
	LogLevel       string        `yaml:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Record store
	StoreBackend string `yaml:"store_backend"`
	DBHost       string `yaml:"db_host"`
	DBPort       string `yaml:"db_port"`
	DBUser       string `yaml:"db_user"`
	DBPassword   string `yaml:"-"`
	DBName       string `yaml:"db_name"`
	DBSSLMode    string `yaml:"db_ssl_mode"`
	SQLitePath   string `yaml:"sqlite_path"`

	FirestoreProjectID       string `yaml:"firestore_project_id"`
	FirestoreCredentialsFile string `yaml:"firestore_credentials_file"`

	MongoURI      string `yaml:"-"`
	MongoDatabase string `yaml:"mongo_database"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`
	RedisURL      string `yaml:"-"`

	// JWT configuration
	JWTSecret string `yaml:"-"`

	// School meal API. Missing values are reported per request, not at startup.
	NEISAPIKey     string `yaml:"-"`
	NEISOfficeCode string `yaml:"neis_office_code"`
	NEISSchoolCode string `yaml:"neis_school_code"`
	NEISBaseURL    string `yaml:"neis_base_url"`

	OpenAIAPIKey string `yaml:"-"`
	OpenAIURL    string `yaml:"openai_url"`

	AdminUIDs []string `yaml:"admin_uids"`

	MenuCacheTTL    time.Duration `yaml:"menu_cache_ttl"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	ChatRateLimit   int           `yaml:"chat_rate_limit"`
	ProxyRateLimit  int           `yaml:"proxy_rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`

	// Snack photo archive; disabled when the bucket is empty.
	S3BucketName string `yaml:"s3_bucket_name"`
	S3Endpoint   string `yaml:"s3_endpoint"`
	AWSRegion    string `yaml:"aws_region"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		ServerPort:      "8080",
		ServerHost:      "0.0.0.0",
		AllowedOrigins:  []string{"*"},
		Timezone:        "Asia/Seoul",
		LogLevel:        "info",
		RequestTimeout:  30 * time.Second,
		StoreBackend:    StorePostgres,
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "postgres",
		DBName:          "babcheck",
		DBSSLMode:       "disable",
		SQLitePath:      "babcheck.db",
		MongoDatabase:   "babcheck",
		RedisHost:       "localhost",
		RedisPort:       "6379",
		MenuCacheTTL:    6 * time.Hour,
		SessionTTL:      24 * time.Hour,
		ChatRateLimit:   30,
		ProxyRateLimit:  60,
		RateLimitWindow: time.Minute,
		AWSRegion:       "ap-northeast-2",
	}
}

// LoadConfig builds the configuration from, in increasing precedence,
// defaults, the YAML file named by CONFIG_FILE, Docker secrets and
// environment variables.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	if env == Development || env == Test {
		// A missing .env is normal outside a developer checkout.
		_ = godotenv.Load()
	}

	cfg := Defaults()
	cfg.Env = env

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	src := source{useSecrets: env != CI}
	if err := src.apply(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}
	if cfg.JWTSecret == "" && (env == Development || env == Test) {
		cfg.JWTSecret = "development-secret"
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// source resolves a setting from the environment first, then from Docker
// secrets. CI reads the environment only.
type source struct {
	useSecrets bool
	errs       []string
}

func (s *source) lookup(envKey, secret string) (string, bool) {
	if v, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if s.useSecrets && secret != "" {
		if v := readSecret(secret); v != "" {
			return v, true
		}
	}
	return "", false
}

func (s *source) str(dst *string, envKey, secret string) {
	if v, ok := s.lookup(envKey, secret); ok {
		*dst = v
	}
}

func (s *source) list(dst *[]string, envKey string) {
	if v, ok := s.lookup(envKey, ""); ok {
		*dst = SplitList(v)
	}
}

func (s *source) integer(dst *int, envKey string) {
	v, ok := s.lookup(envKey, "")
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.errs = append(s.errs, fmt.Sprintf("%s must be an integer, got %q", envKey, v))
		return
	}
	*dst = n
}

func (s *source) duration(dst *time.Duration, envKey string) {
	v, ok := s.lookup(envKey, "")
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		s.errs = append(s.errs, fmt.Sprintf("%s must be a duration, got %q", envKey, v))
		return
	}
	*dst = d
}

func (s *source) apply(cfg *Config) error {
	s.str(&cfg.ServerPort, "SERVER_PORT", "server_port")
	s.str(&cfg.ServerHost, "SERVER_HOST", "server_host")
	s.list(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")
	s.str(&cfg.Timezone, "TIMEZONE", "")
	s.str(&cfg.LogLevel, "LOG_LEVEL", "")
	s.duration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")

	s.str(&cfg.StoreBackend, "STORE_BACKEND", "")
	s.str(&cfg.DBHost, "DB_HOST", "db_host")
	s.str(&cfg.DBPort, "DB_PORT", "db_port")
	s.str(&cfg.DBUser, "DB_USER", "db_user")
	s.str(&cfg.DBPassword, "DB_PASSWORD", "db_password")
	s.str(&cfg.DBName, "DB_NAME", "db_name")
	s.str(&cfg.DBSSLMode, "DB_SSL_MODE", "db_ssl_mode")
	s.str(&cfg.SQLitePath, "SQLITE_PATH", "")

	s.str(&cfg.FirestoreProjectID, "FIRESTORE_PROJECT_ID", "")
	s.str(&cfg.FirestoreCredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS", "")
	s.str(&cfg.MongoURI, "MONGODB_URI", "mongodb_uri")
	s.str(&cfg.MongoDatabase, "MONGODB_DATABASE", "")

	s.str(&cfg.RedisHost, "REDIS_HOST", "redis_host")
	s.str(&cfg.RedisPort, "REDIS_PORT", "redis_port")
	s.str(&cfg.RedisPassword, "REDIS_PASSWORD", "redis_password")
	s.integer(&cfg.RedisDB, "REDIS_DB")
	s.str(&cfg.RedisURL, "REDIS_URL", "redis_url")

	s.str(&cfg.JWTSecret, "JWT_SECRET", "jwt_secret")

	s.str(&cfg.NEISAPIKey, EnvNEISAPIKey, "neis_api_key")
	s.str(&cfg.NEISOfficeCode, EnvNEISOfficeCode, "")
	s.str(&cfg.NEISSchoolCode, EnvNEISSchoolCode, "")
	s.str(&cfg.NEISBaseURL, "NEIS_BASE_URL", "")
	s.str(&cfg.OpenAIAPIKey, EnvOpenAIAPIKey, "openai_api_key")
	s.str(&cfg.OpenAIURL, "OPENAI_API_URL", "")

	s.list(&cfg.AdminUIDs, "ADMIN_UIDS")

	s.duration(&cfg.MenuCacheTTL, "MENU_CACHE_TTL")
	s.duration(&cfg.SessionTTL, "SESSION_TTL")
	s.integer(&cfg.ChatRateLimit, "CHAT_RATE_LIMIT")
	s.integer(&cfg.ProxyRateLimit, "PROXY_RATE_LIMIT")
	s.duration(&cfg.RateLimitWindow, "RATE_LIMIT_WINDOW")

	s.str(&cfg.S3BucketName, "S3_BUCKET_NAME", "")
	s.str(&cfg.S3Endpoint, "S3_ENDPOINT", "")
	s.str(&cfg.AWSRegion, "AWS_REGION", "")

	if len(s.errs) > 0 {
		return fmt.Errorf("%s", strings.Join(s.errs, "; "))
	}
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// SplitList splits a comma separated value, trimming entries and dropping
// empty ones.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Environment variable names the proxies report when unset.
const (
	EnvNEISAPIKey     = "NEIS_API_KEY"
	EnvNEISOfficeCode = "NEIS_ATPT_OFCDC_SC_CODE"
	EnvNEISSchoolCode = "NEIS_SD_SCHUL_CODE"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
)

// MissingNEIS names the school meal settings that are not set, in a fixed
// order. Empty means the meal proxy can run.
func (c *Config) MissingNEIS() []string {
	var missing []string
	if c.NEISAPIKey == "" {
		missing = append(missing, EnvNEISAPIKey)
	}
	if c.NEISOfficeCode == "" {
		missing = append(missing, EnvNEISOfficeCode)
	}
	if c.NEISSchoolCode == "" {
		missing = append(missing, EnvNEISSchoolCode)
	}
	return missing
}

// MissingOpenAI names the language model settings that are not set.
func (c *Config) MissingOpenAI() []string {
	if c.OpenAIAPIKey == "" {
		return []string{EnvOpenAIAPIKey}
	}
	return nil
}

// IsAdmin reports whether uid is on the ADMIN_UIDS allow-list.
func (c *Config) IsAdmin(uid string) bool {
	if uid == "" {
		return false
	}
	for _, admin := range c.AdminUIDs {
		if admin == uid {
			return true
		}
	}
	return false
}

// Location returns the timezone used for "today". Hosts without zone data
// fall back to a fixed KST offset.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}
