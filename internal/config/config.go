package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`
	MaxConnections int      `yaml:"max_connections"`
	LogLevel       string   `yaml:"log_level"`
	CORSOrigins    []string `yaml:"cors_origins"`
	FrontendURL    string   `yaml:"frontend_url"`

	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	JWTSecret string `yaml:"jwt_secret"`
	// SecretKey is the 64-hex-char AES-256 key for stored calendar credentials.
	SecretKey string `yaml:"secret_key"`

	OpenAIKey     string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURI  string `yaml:"google_redirect_uri"`
	GoogleCalendarID   string `yaml:"google_calendar_id"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:       ":8080",
		MaxConnections:   256,
		LogLevel:         "info",
		CORSOrigins:      []string{"*"},
		FrontendURL:      "http://localhost:3000",
		DBPort:           5432,
		DBSSLMode:        "disable",
		OpenAIModel:      "gpt-4o-mini",
		GoogleCalendarID: "primary",
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then environment variables. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("FRONTEND_URL", &c.FrontendURL)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}

	str("DB_HOST", &c.DBHost)
	str("DB_USER", &c.DBUser)
	str("DB_PASSWORD", &c.DBPassword)
	str("DB_NAME", &c.DBName)
	str("DB_SSLMODE", &c.DBSSLMode)

	str("JWT_SECRET", &c.JWTSecret)
	str("SECRET_KEY", &c.SecretKey)

	str("OPENAI_API_KEY", &c.OpenAIKey)
	str("OPENAI_MODEL", &c.OpenAIModel)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)

	str("GOOGLE_CLIENT_ID", &c.GoogleClientID)
	str("GOOGLE_CLIENT_SECRET", &c.GoogleClientSecret)
	str("GOOGLE_REDIRECT_URI", &c.GoogleRedirectURI)
	str("GOOGLE_CALENDAR_ID", &c.GoogleCalendarID)

	if err := num("DB_PORT", &c.DBPort); err != nil {
		return err
	}
	return num("MAX_CONNECTIONS", &c.MaxConnections)
}

// Validate reports every missing or malformed setting at once so startup
// fails before serving anything.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"DB_HOST":              c.DBHost,
		"DB_NAME":              c.DBName,
		"JWT_SECRET":           c.JWTSecret,
		"SECRET_KEY":           c.SecretKey,
		"OPENAI_API_KEY":       c.OpenAIKey,
		"GOOGLE_CLIENT_ID":     c.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": c.GoogleClientSecret,
		"GOOGLE_REDIRECT_URI":  c.GoogleRedirectURI,
	}
	for _, key := range []string{
		"DB_HOST", "DB_NAME", "JWT_SECRET", "SECRET_KEY",
		"OPENAI_API_KEY", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URI",
	} {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if c.SecretKey != "" && len(c.SecretKey) != 64 {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be 64 hex characters, got %d", len(c.SecretKey)))
	}
	if c.MaxConnections <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONNECTIONS must be positive, got %d", c.MaxConnections))
	}
	return errors.Join(errs...)
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
