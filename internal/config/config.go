package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type ServerConfig struct {
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	MaxImageBytes int           `yaml:"maxImageBytes"`
	CORSOrigins   []string      `yaml:"corsOrigins"`
}

// ProviderConfig selects the AI provider. An empty APIKey leaves the relay
// running but answering every analysis with a configuration error.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	BucketName string `yaml:"bucketName"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"useSSL"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type EventsConfig struct {
	Driver   string         `yaml:"driver"` // "", mysql or postgres
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Events   EventsConfig   `yaml:"events"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8080,
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  90 * time.Second,
			IdleTimeout:   60 * time.Second,
			MaxImageBytes: 10 << 20,
		},
		Provider: ProviderConfig{Name: ProviderGemini},
		Events: EventsConfig{
			NATS: NATSConfig{Subject: "plantmd.analysis.events"},
		},
	}
}

// Load reads the YAML file at path, then applies .env and environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config: %s not found, using defaults and environment", path)
	default:
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := envInt("PORT"); ok {
		c.Server.Port = v
	}
	if v, ok := envInt("MAX_IMAGE_BYTES"); ok {
		c.Server.MaxImageBytes = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString(&c.Provider.APIKey, "API_KEY")
	setString(&c.Provider.Name, "AI_PROVIDER")
	setString(&c.Provider.Model, "AI_MODEL")
	setString(&c.Provider.BaseURL, "AI_BASE_URL")

	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		c.Archive.Enabled = true
		c.Archive.Endpoint = v
	}
	setString(&c.Archive.AccessKey, "ARCHIVE_ACCESS_KEY")
	setString(&c.Archive.SecretKey, "ARCHIVE_SECRET_KEY")
	setString(&c.Archive.BucketName, "ARCHIVE_BUCKET")
	setString(&c.Archive.Region, "ARCHIVE_REGION")
	if v, err := strconv.ParseBool(os.Getenv("ARCHIVE_USE_SSL")); err == nil {
		c.Archive.UseSSL = v
	}

	setString(&c.Events.Driver, "EVENTS_DRIVER")
	setString(&c.Events.Database.DSN, "EVENTS_DSN")
	setString(&c.Events.NATS.URL, "NATS_URL")
	setString(&c.Events.NATS.Subject, "NATS_SUBJECT")

	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	c.Events.Driver = strings.ToLower(strings.TrimSpace(c.Events.Driver))
}

// Validate checks the configuration. A missing provider key is allowed.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Provider.Name {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("provider.name must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.Provider.Name)
	}
	switch c.Events.Driver {
	case "", DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("events.driver must be empty, %q or %q, got %q", DriverMySQL, DriverPostgres, c.Events.Driver)
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.BucketName == "") {
		return fmt.Errorf("archive.endpoint and archive.bucketName are required when the archive is enabled")
	}
	if c.Events.NATS.URL != "" && c.Events.NATS.Subject == "" {
		return fmt.Errorf("events.nats.subject is required when events.nats.url is set")
	}
	return nil
}

// MySQLDSN builds the MySQL DSN unless one is set explicitly.
func (c *Config) MySQLDSN() string {
	db := c.Events.Database
	if db.DSN != "" {
		return db.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)
}

// PostgresDSN builds the lib/pq connection string unless one is set explicitly.
func (c *Config) PostgresDSN() string {
	db := c.Events.Database
	if db.DSN != "" {
		return db.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		db.Host,
		db.Port,
		db.User,
		db.Password,
		db.Name,
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: not a number", key, v)
		return 0, false
	}
	return n, true
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
