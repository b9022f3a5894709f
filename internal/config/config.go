// Package config resolves settings for the mock kernel and the verifier.
// Values come from flags, BRIO_* environment variables, an optional config file
// in the XDG config dir and finally built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"brio/devkit/internal/xdg"

	"github.com/spf13/viper"
)

// Keys shared by flags, env vars and the config file.
const (
	KeyHost        = "host"
	KeyPort        = "port"
	KeyPath        = "path"
	KeyLogLevel    = "log-level"
	KeyVerbose     = "verbose"
	KeyMode        = "mode"
	KeyWelcome     = "welcome"
	KeyGRPCAddr    = "grpc-addr"
	KeyURL         = "url"
	KeyTimeout     = "timeout"
	KeyHealthAddr  = "health-addr"
	KeyTaskContent = "task-content"
	KeyQuerySQL    = "query-sql"
)

const (
	EnvPrefix = "BRIO"
	fileName  = "devkit"
)

// Defaults match the endpoint the kernel binds in development.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 9090
	DefaultPath        = "/ws"
	DefaultWelcome     = "Mock Kernel Initialized. Welcome to Brio TUI."
	DefaultTimeout     = 10 * time.Second
	DefaultTaskContent = "Verify protocol integrity via script"
	DefaultQuerySQL    = "SELECT * FROM tasks WHERE content LIKE '%Verify%'"
)

// Mode selects the response shape of the mock kernel.
type Mode string

const (
	// ModeLegacy answers task and query with log lines only.
	ModeLegacy Mode = "legacy"
	// ModeKernel answers every request with a status response like the real kernel.
	ModeKernel Mode = "kernel"
)

// Endpoint is the WebSocket address both tools agree on.
type Endpoint struct {
	Host string
	Port int
	Path string
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the ws:// URL of the endpoint.
func (e Endpoint) URL() string {
	u := url.URL{Scheme: "ws", Host: e.Address(), Path: e.Path}
	return u.String()
}

// MockConfig holds mock kernel settings.
type MockConfig struct {
	Mode    Mode
	Welcome string
	// GRPCAddr enables the gRPC health service when non-empty.
	GRPCAddr string
}

// VerifyConfig holds verifier settings.
type VerifyConfig struct {
	// URL overrides the endpoint when non-empty.
	URL         string
	Timeout     time.Duration
	HealthAddr  string
	TaskContent string
	QuerySQL    string
}

// Config is the resolved configuration.
type Config struct {
	LogLevel string
	Verbose  bool
	Endpoint Endpoint
	Mock     MockConfig
	Verify   VerifyConfig
}

// VerifyURL returns the URL the verifier should dial.
func (c Config) VerifyURL() string {
	if strings.TrimSpace(c.Verify.URL) != "" {
		return strings.TrimSpace(c.Verify.URL)
	}
	return c.Endpoint.URL()
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LogLevel: "info",
		Endpoint: Endpoint{Host: DefaultHost, Port: DefaultPort, Path: DefaultPath},
		Mock:     MockConfig{Mode: ModeLegacy, Welcome: DefaultWelcome},
		Verify: VerifyConfig{
			Timeout:     DefaultTimeout,
			TaskContent: DefaultTaskContent,
			QuerySQL:    DefaultQuerySQL,
		},
	}
}

// NewViper returns a viper instance with defaults and BRIO_* env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// SetDefaults registers Default() under the config keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyHost, d.Endpoint.Host)
	v.SetDefault(KeyPort, d.Endpoint.Port)
	v.SetDefault(KeyPath, d.Endpoint.Path)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyMode, string(d.Mock.Mode))
	v.SetDefault(KeyWelcome, d.Mock.Welcome)
	v.SetDefault(KeyGRPCAddr, "")
	v.SetDefault(KeyURL, "")
	v.SetDefault(KeyTimeout, d.Verify.Timeout)
	v.SetDefault(KeyHealthAddr, "")
	v.SetDefault(KeyTaskContent, d.Verify.TaskContent)
	v.SetDefault(KeyQuerySQL, d.Verify.QuerySQL)
}

// ReadFile merges devkit.{yaml,json,toml} from the XDG config dir into v.
// A missing file is not an error.
func ReadFile(v *viper.Viper) error {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return err
	}
	v.SetConfigName(fileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// Load resolves and validates a Config from v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		Verbose:  v.GetBool(KeyVerbose),
		Endpoint: Endpoint{
			Host: strings.TrimSpace(v.GetString(KeyHost)),
			Port: v.GetInt(KeyPort),
			Path: strings.TrimSpace(v.GetString(KeyPath)),
		},
		Mock: MockConfig{
			Mode:     Mode(strings.ToLower(strings.TrimSpace(v.GetString(KeyMode)))),
			Welcome:  v.GetString(KeyWelcome),
			GRPCAddr: strings.TrimSpace(v.GetString(KeyGRPCAddr)),
		},
		Verify: VerifyConfig{
			URL:         strings.TrimSpace(v.GetString(KeyURL)),
			Timeout:     v.GetDuration(KeyTimeout),
			HealthAddr:  strings.TrimSpace(v.GetString(KeyHealthAddr)),
			TaskContent: v.GetString(KeyTaskContent),
			QuerySQL:    v.GetString(KeyQuerySQL),
		},
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks ranges and formats.
func (c Config) Validate() error {
	if c.Endpoint.Host == "" {
		return errors.New("host is required")
	}
	if c.Endpoint.Port < 0 || c.Endpoint.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", c.Endpoint.Port)
	}
	if !strings.HasPrefix(c.Endpoint.Path, "/") {
		return fmt.Errorf("invalid path %q: must begin with /", c.Endpoint.Path)
	}
	switch c.Mock.Mode {
	case ModeLegacy, ModeKernel:
	default:
		return fmt.Errorf("invalid mode %q: use %s or %s", c.Mock.Mode, ModeLegacy, ModeKernel)
	}
	if c.Verify.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Verify.Timeout)
	}
	if c.Verify.URL != "" {
		u, err := url.Parse(c.Verify.URL)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("invalid url %q: scheme must be ws or wss", c.Verify.URL)
		}
	}
	return nil
}
