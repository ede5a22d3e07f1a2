package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookstream/pkg/bitstamp"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Bitstamp BitstampConfig `mapstructure:"bitstamp"`
	Render   RenderConfig   `mapstructure:"render"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type BitstampConfig struct {
	Symbol string     `mapstructure:"symbol"` // market symbol, e.g. "btcusd"; lowercased for the channel name
	REST   RESTConfig `mapstructure:"rest"`
	WS     WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ValidateSymbol bool          `mapstructure:"validate_symbol"` // check the symbol against trading-pairs-info before dialing
}

type WSConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	FrameBuffer      int           `mapstructure:"frame_buffer"`
}

type RenderConfig struct {
	Depth int `mapstructure:"depth"` // ask levels printed per book
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// WSOptions converts the WebSocket settings for the transport session.
func (c WSConfig) WSOptions() bitstamp.WSOptions {
	return bitstamp.WSOptions{
		HandshakeTimeout: c.HandshakeTimeout,
		WriteTimeout:     c.WriteTimeout,
		FrameBuffer:      c.FrameBuffer,
	}
}

func setDefaults(v *viper.Viper) {
	ws := bitstamp.DefaultWSOptions()

	v.SetDefault("bitstamp.symbol", bitstamp.DefaultSymbol)
	v.SetDefault("bitstamp.rest.base_url", bitstamp.DefaultRESTURL)
	v.SetDefault("bitstamp.rest.timeout", 10*time.Second)
	v.SetDefault("bitstamp.rest.validate_symbol", false)
	v.SetDefault("bitstamp.ws.url", bitstamp.DefaultWSURL)
	v.SetDefault("bitstamp.ws.handshake_timeout", ws.HandshakeTimeout)
	v.SetDefault("bitstamp.ws.write_timeout", ws.WriteTimeout)
	v.SetDefault("bitstamp.ws.frame_buffer", ws.FrameBuffer)

	v.SetDefault("render.depth", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.create_db", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "bookstream")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 4)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
}

// Load builds the configuration from defaults, an optional config.yaml,
// environment variables (e.g., BITSTAMP_WS_URL) and command-line flags,
// later sources winning.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("bookstream", pflag.ContinueOnError)
	fs.StringP("symbol", "s", bitstamp.DefaultSymbol, "market symbol to subscribe to")
	configFile := fs.StringP("config", "c", "", "path to a config.yaml file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlag("bitstamp.symbol", fs.Lookup("symbol")); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetConfigType("yaml")
	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config") // config.yaml
		v.AddConfigPath(".")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
	}

	// Support environment variables with dot notation (e.g., BITSTAMP_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the collector cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bitstamp.Symbol) == "" {
		return errors.New("config: bitstamp.symbol is empty")
	}
	u, err := url.Parse(c.Bitstamp.WS.URL)
	if err != nil {
		return fmt.Errorf("config: bitstamp.ws.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("config: bitstamp.ws.url must use ws or wss, got %q", c.Bitstamp.WS.URL)
	}
	if c.Render.Depth <= 0 {
		return fmt.Errorf("config: render.depth must be positive, got %d", c.Render.Depth)
	}
	return nil
}
