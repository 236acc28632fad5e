package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default configuration values (production)
const (
	DefaultDomain        = "eggcombat.qzz.io"
	DefaultSTUN          = "stun:stun.l.google.com:19302"
	DefaultTickRate      = 60
	DefaultSmoothingRate = 10.0
	DefaultListenAddr    = ":8080"
	DefaultEnvFile       = ".env"
	configName           = "eggcombat"
)

var (
	ErrRelayWithoutTURN     = errors.New("force relay requires a TURN server")
	ErrInvalidTickRate      = errors.New("tick rate must be between 1 and 240")
	ErrInvalidSmoothingRate = errors.New("smoothing rate must be positive")
)

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"domain":         "DOMAIN",
	"signaling_url":  "SIGNALING_URL",
	"stun_server":    "STUN_SERVER",
	"turn_server":    "TURN_SERVER",
	"turn_username":  "TURN_USERNAME",
	"turn_password":  "TURN_PASSWORD",
	"force_relay":    "FORCE_RELAY",
	"room_prefix":    "ROOM_PREFIX",
	"tick_rate":      "TICK_RATE",
	"smoothing_rate": "SMOOTHING_RATE",
	"listen_addr":    "LISTEN_ADDR",
}

// Config holds application configuration
type Config struct {
	// Domain is the backend server domain
	Domain string `mapstructure:"domain"`

	// SignalingURL defaults to wss://<domain>/ws
	SignalingURL string `mapstructure:"signaling_url"`

	// ICE servers for WebRTC
	STUNServer string `mapstructure:"stun_server"`
	TURNServer string `mapstructure:"turn_server"`
	TURNUser   string `mapstructure:"turn_username"`
	TURNPass   string `mapstructure:"turn_password"`
	ForceRelay bool   `mapstructure:"force_relay"`

	RoomPrefix    string  `mapstructure:"room_prefix"`
	TickRate      int     `mapstructure:"tick_rate"`
	SmoothingRate float64 `mapstructure:"smoothing_rate"`

	// ListenAddr is used by the signaling server only.
	ListenAddr string `mapstructure:"listen_addr"`
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain       string
	SignalingURL string
	STUNServer   string
	TURNServer   string
	TURNUser     string
	TURNPass     string
	ForceRelay   bool
	ListenAddr   string

	// ConfigFile points at an explicit YAML file; otherwise eggcombat.yaml is
	// looked up in the working directory and the user config directory.
	ConfigFile string

	// EnvFile is an optional dotenv file, DefaultEnvFile when empty.
	EnvFile string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. .env file
// 4. eggcombat.yaml
// 5. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	v := viper.New()

	v.SetDefault("domain", DefaultDomain)
	v.SetDefault("stun_server", DefaultSTUN)
	v.SetDefault("room_prefix", roomcode.DefaultPrefix)
	v.SetDefault("tick_rate", DefaultTickRate)
	v.SetDefault("smoothing_rate", DefaultSmoothingRate)
	v.SetDefault("listen_addr", DefaultListenAddr)

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}
	if err := mergeEnvFile(v, opts.EnvFile); err != nil {
		return nil, err
	}

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	setFlag(v, "domain", opts.Domain)
	setFlag(v, "signaling_url", opts.SignalingURL)
	setFlag(v, "stun_server", opts.STUNServer)
	setFlag(v, "turn_server", opts.TURNServer)
	setFlag(v, "turn_username", opts.TURNUser)
	setFlag(v, "turn_password", opts.TURNPass)
	setFlag(v, "listen_addr", opts.ListenAddr)
	if opts.ForceRelay {
		v.Set("force_relay", true)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.SignalingURL == "" {
		cfg.SignalingURL = fmt.Sprintf("wss://%s/ws", cfg.Domain)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, configName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// mergeEnvFile layers dotenv values above the config file without touching the
// process environment.
func mergeEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		path = DefaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	layer := make(map[string]any)
	for key, env := range envKeys {
		if val, ok := values[env]; ok {
			layer[key] = val
		}
	}
	if len(layer) == 0 {
		return nil
	}
	return v.MergeConfigMap(layer)
}

func setFlag(v *viper.Viper, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// Validate checks values that would otherwise fail much later at runtime.
func (c *Config) Validate() error {
	if c.ForceRelay && strings.TrimSpace(c.TURNServer) == "" {
		return ErrRelayWithoutTURN
	}
	if c.TickRate < 1 || c.TickRate > 240 {
		return fmt.Errorf("%w: got %d", ErrInvalidTickRate, c.TickRate)
	}
	if c.SmoothingRate <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidSmoothingRate, c.SmoothingRate)
	}
	return nil
}

// GetRoomLink returns the shareable URL for a room code
func (c *Config) GetRoomLink(code roomcode.Code) string {
	return fmt.Sprintf("https://%s/r/%s", c.Domain, code)
}

// Namespace returns the address namespace rooms are registered under.
func (c *Config) Namespace() roomcode.Namespace {
	return roomcode.Namespace{Prefix: c.RoomPrefix}
}

// TickInterval is the simulation/render period.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	host := strings.TrimPrefix(c.TURNServer, "turn:")
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", host),
		fmt.Sprintf("turn:%s:3478?transport=tcp", host),
		fmt.Sprintf("turns:%s:5349?transport=tcp", host),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
