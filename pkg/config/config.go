package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string         `yaml:"environment" default:"production" validate:"required"`
	Server      ServerConfig   `yaml:"server"`
	Log         LogConfig      `yaml:"log"`
	Upstream    UpstreamConfig `yaml:"upstream"`
	Tickers     TickersConfig  `yaml:"tickers"`
	CORS        CORSConfig     `yaml:"cors"`
	Refresh     RefreshConfig  `yaml:"refresh"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Redis       RedisConfig    `yaml:"redis"`
	Kafka       KafkaConfig    `yaml:"kafka"`
	Stream      StreamConfig   `yaml:"stream"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"5000" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"180s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout" validate:"required"`
}

type UpstreamConfig struct {
	BaseURL   string        `yaml:"base_url" default:"https://query1.finance.yahoo.com/v8/finance/chart" validate:"required,url"`
	UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
}

// TickersConfig is the static ticker table. Order of ADRs and Macro is the fetch order.
type TickersConfig struct {
	VIX    string        `yaml:"vix" default:"^VIX" validate:"required"`
	Gold   string        `yaml:"gold" default:"GC=F" validate:"required"`
	Iron   string        `yaml:"iron" default:"HG=F" validate:"required"`
	WinFut string        `yaml:"winfut" default:"^BVSP" validate:"required"`
	ADRs   []string      `yaml:"adrs" validate:"required,dive,required"`
	Macro  []MacroTicker `yaml:"macro" validate:"required,dive"`
}

type MacroTicker struct {
	Key    string `yaml:"key" validate:"required"`
	Symbol string `yaml:"symbol" validate:"required"`
}

// CORSConfig keeps the allow-list verbatim. The "*" entry makes every origin allowed.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" validate:"required"`
	AllowMethods string   `yaml:"allow_methods" default:"GET, POST, OPTIONS"`
	AllowHeaders string   `yaml:"allow_headers" default:"Content-Type"`
}

// RefreshConfig.Interval of zero disables the background loop.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
}

type MetricsConfig struct {
	Disabled      bool          `yaml:"disabled"`
	Path          string        `yaml:"path" default:"/metrics"`
	SlowThreshold time.Duration `yaml:"slow_threshold" default:"5s"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host" default:"localhost"`
	Port     int           `yaml:"port" default:"6379"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix" default:"adrfeed"`
	Key      string        `yaml:"key" default:"snapshot"`
	TTL      time.Duration `yaml:"ttl"`
}

// KafkaConfig.RequiredAcks of 0 is indistinguishable from unset and becomes -1.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" default:"adrfeed.quotes"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type StreamConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Path         string        `yaml:"path" default:"/api/stream"`
	PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

var validate = validator.New()

// DefaultADRs lists the ADR tickers fetched in closing-price mode.
func DefaultADRs() []string {
	return []string{"VALE", "ITUB", "PBR", "PBR-A", "BBD", "BBDO", "ABEV", "ERJ"}
}

// DefaultMacro lists the macro indicators in fetch order.
func DefaultMacro() []MacroTicker {
	return []MacroTicker{
		{Key: "ewz", Symbol: "EWZ"},
		{Key: "sp500", Symbol: "^GSPC"},
		{Key: "oil", Symbol: "CL=F"},
		{Key: "dxy", Symbol: "DX-Y.NYB"},
	}
}

// DefaultAllowOrigins is the deployment allow-list, wildcard included.
func DefaultAllowOrigins() []string {
	return []string{
		"https://calculadora-adrs.vercel.app",
		"https://calculadora-adrs-production.vercel.app",
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"*",
	}
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file, applies defaults and validates.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config and overrides it with environment variables.
// PORT is the only supported override.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid PORT: %q", v)
		}
		c.Server.Port = p
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Tickers.Macro))
	for _, m := range c.Tickers.Macro {
		if _, dup := seen[m.Key]; dup {
			return fmt.Errorf("tickers.macro: duplicate key %q", m.Key)
		}
		seen[m.Key] = struct{}{}
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if len(c.Tickers.ADRs) == 0 {
		c.Tickers.ADRs = DefaultADRs()
	}
	if len(c.Tickers.Macro) == 0 {
		c.Tickers.Macro = DefaultMacro()
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = DefaultAllowOrigins()
	}
	return nil
}
