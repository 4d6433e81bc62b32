package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shouni/go-utils/envutil"
	"gopkg.in/yaml.v2"
)

// Defaults
const (
	DefaultConfigPath     = "configs/config.yaml"
	DefaultProvider       = ProviderGemini
	DefaultGeminiModel    = "gemini-2.5-flash-lite"
	DefaultNationality    = "Indian"
	DefaultTTSBaseURL     = "https://translate.google.com/translate_tts"
	DefaultMaxUploadBytes = 32 << 20
)

// Story generation providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Journal drivers
const (
	JournalNone  = "none"
	JournalRedis = "redis"
	JournalMySQL = "mysql"
)

type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Generation GenerationConfig `yaml:"generation" toml:"generation"`
	Narration  NarrationConfig  `yaml:"narration" toml:"narration"`
	Journal    JournalConfig    `yaml:"journal" toml:"journal"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

type ServerConfig struct {
	Host            string   `yaml:"host" toml:"host"`
	Port            int      `yaml:"port" toml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	AllowedOrigins  []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GenerationConfig struct {
	Provider    string   `yaml:"provider" toml:"provider"`
	APIKey      string   `yaml:"api_key" toml:"api_key"`
	Model       string   `yaml:"model" toml:"model"`
	BaseURL     string   `yaml:"base_url" toml:"base_url"`
	Nationality string   `yaml:"nationality" toml:"nationality"`
	Timeout     Duration `yaml:"timeout" toml:"timeout"`
}

type NarrationConfig struct {
	BaseURL       string   `yaml:"base_url" toml:"base_url"`
	Timeout       Duration `yaml:"timeout" toml:"timeout"`
	ChunkInterval Duration `yaml:"chunk_interval" toml:"chunk_interval"`
	ChunkBurst    int      `yaml:"chunk_burst" toml:"chunk_burst"`
}

type JournalConfig struct {
	Driver       string      `yaml:"driver" toml:"driver"`
	MaxEntries   int         `yaml:"max_entries" toml:"max_entries"`
	TTL          Duration    `yaml:"ttl" toml:"ttl"`
	WriteTimeout Duration    `yaml:"write_timeout" toml:"write_timeout"`
	Redis        RedisConfig `yaml:"redis" toml:"redis"`
	MySQL        MySQLConfig `yaml:"mysql" toml:"mysql"`
}

type RedisConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	PoolSize int    `yaml:"pool_size" toml:"pool_size"`
	Key      string `yaml:"key" toml:"key"`
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MySQLConfig struct {
	Host            string   `yaml:"host" toml:"host"`
	Port            int      `yaml:"port" toml:"port"`
	Username        string   `yaml:"username" toml:"username"`
	Password        string   `yaml:"password" toml:"password"`
	Database        string   `yaml:"database" toml:"database"`
	MaxOpenConns    int      `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime" toml:"conn_max_lifetime"`
}

// DSN returns the go-sql-driver data source name
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

type RateLimitConfig struct {
	Enabled           bool     `yaml:"enabled" toml:"enabled"`
	RequestsPerMinute float64  `yaml:"requests_per_minute" toml:"requests_per_minute"`
	Burst             int      `yaml:"burst" toml:"burst"`
	IdleTTL           Duration `yaml:"idle_ttl" toml:"idle_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration(60 * time.Second),
			WriteTimeout:    Duration(180 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
			MaxUploadBytes:  DefaultMaxUploadBytes,
			AllowedOrigins:  []string{"*"},
		},
		Generation: GenerationConfig{
			Provider:    DefaultProvider,
			Model:       DefaultGeminiModel,
			Nationality: DefaultNationality,
			Timeout:     Duration(120 * time.Second),
		},
		Narration: NarrationConfig{
			BaseURL:       DefaultTTSBaseURL,
			Timeout:       Duration(30 * time.Second),
			ChunkInterval: Duration(200 * time.Millisecond),
			ChunkBurst:    1,
		},
		Journal: JournalConfig{
			Driver:       JournalNone,
			MaxEntries:   1000,
			TTL:          Duration(7 * 24 * time.Hour),
			WriteTimeout: Duration(3 * time.Second),
			Redis: RedisConfig{
				Host:     "localhost",
				Port:     6379,
				PoolSize: 10,
				Key:      "picture-story:journal",
			},
			MySQL: MySQLConfig{
				Host:            "localhost",
				Port:            3306,
				Username:        "root",
				Database:        "picture_story",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: Duration(time.Hour),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 6,
			Burst:             3,
			IdleTTL:           Duration(10 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadDotEnv loads variables from .env style files into the process
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML or TOML file, chosen by extension,
// on top of Default and then applies environment overrides. A missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := unmarshal(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() error {
	c.Generation.Provider = strings.ToLower(envutil.GetEnv("STORY_PROVIDER", c.Generation.Provider))
	c.Generation.Model = envutil.GetEnv("STORY_MODEL", c.Generation.Model)
	c.Generation.Nationality = envutil.GetEnv("STORY_NATIONALITY", c.Generation.Nationality)

	switch c.Generation.Provider {
	case ProviderOpenAI:
		c.Generation.APIKey = envutil.GetEnv("OPENAI_API_KEY", c.Generation.APIKey)
		c.Generation.BaseURL = envutil.GetEnv("OPENAI_BASE_URL", c.Generation.BaseURL)
		if c.Generation.Model == DefaultGeminiModel {
			c.Generation.Model = ""
		}
	default:
		c.Generation.APIKey = envutil.GetEnv("GOOGLE_API_KEY", c.Generation.APIKey)
	}

	c.Server.Host = envutil.GetEnv("HOST", c.Server.Host)
	if port := envutil.GetEnv("PORT", ""); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}

	c.Journal.Driver = strings.ToLower(envutil.GetEnv("JOURNAL_DRIVER", c.Journal.Driver))
	c.Journal.Redis.Password = envutil.GetEnv("REDIS_PASSWORD", c.Journal.Redis.Password)
	c.Journal.MySQL.Password = envutil.GetEnv("MYSQL_PASSWORD", c.Journal.MySQL.Password)

	c.Logging.Level = envutil.GetEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envutil.GetEnv("LOG_FORMAT", c.Logging.Format)
	return nil
}

// Validate reports the first configuration problem that prevents startup
func (c *Config) Validate() error {
	switch c.Generation.Provider {
	case ProviderGemini:
		if c.Generation.APIKey == "" {
			return errors.New("GOOGLE_API_KEY is not set")
		}
	case ProviderOpenAI:
		if c.Generation.APIKey == "" {
			return errors.New("OPENAI_API_KEY is not set")
		}
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}

	switch c.Journal.Driver {
	case JournalNone, JournalRedis, JournalMySQL, "":
	default:
		return fmt.Errorf("unknown journal driver %q", c.Journal.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Narration.ChunkInterval < 0 || c.Narration.ChunkBurst <= 0 {
		return errors.New("narration requires a non-negative chunk_interval and a positive chunk_burst")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate_limit requires positive requests_per_minute and burst")
	}
	return nil
}
