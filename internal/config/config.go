package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Store   StoreConfig
	Cache   CacheConfig
	MySQL   MySQLConfig
	Gateway GatewayConfig
	Economy EconomyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"gm-economy-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	// HostKeys is a comma-separated static host key list, used when no
	// MySQL host_keys table is available.
	HostKeys string `envconfig:"HOST_KEYS" default:""`
}

// StoreConfig holds economy store settings.
type StoreConfig struct {
	// Type selects the store backend: jsonfile, sqlite, or mysql.
	Type string `envconfig:"STORE_TYPE" default:"jsonfile"`
	// Dir is the data directory for the jsonfile backend.
	Dir string `envconfig:"STORE_DIR" default:"./data"`
	// Path is the database file for the sqlite backend.
	Path string `envconfig:"STORE_PATH" default:"./data/economy.db"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// MySQLConfig holds MySQL connection settings (host keys and the mysql
// store backend).
type MySQLConfig struct {
	Enabled  bool   `envconfig:"MYSQL_ENABLED" default:"false"`
	Host     string `envconfig:"MYSQL_HOST" default:"localhost"`
	Port     int    `envconfig:"MYSQL_PORT" default:"3306"`
	Name     string `envconfig:"MYSQL_NAME" default:"gmeconomy"`
	User     string `envconfig:"MYSQL_USER" default:"root"`
	Password string `envconfig:"MYSQL_PASS" default:""`
}

// GatewayConfig holds settings for the bot gateway collaborator.
type GatewayConfig struct {
	BaseURL string        `envconfig:"GATEWAY_BASE_URL" default:"http://localhost:9090"`
	Token   string        `envconfig:"GATEWAY_TOKEN" default:""`
	Timeout time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
}

// EconomyConfig holds economy display settings.
type EconomyConfig struct {
	Currency        string        `envconfig:"ECONOMY_CURRENCY" default:"DM"`
	AnnounceChannel int64         `envconfig:"ECONOMY_ANNOUNCE_CHANNEL" default:"0"`
	HostPing        string        `envconfig:"ECONOMY_HOST_PING" default:""`
	SyncInterval    time.Duration `envconfig:"ECONOMY_SYNC_INTERVAL" default:"5m"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (m *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		m.User, m.Password, m.Host, m.Port, m.Name)
}

// HostKeyList splits the static host key setting into a list.
func (a *AppConfig) HostKeyList() []string {
	if a.HostKeys == "" {
		return nil
	}
	keys := strings.Split(a.HostKeys, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
