package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyBackendURL        = "backend_url"
	KeyKeepAliveInterval = "keepalive_interval"
	KeyRequestTimeout    = "request_timeout"
	KeyTheme             = "theme"
	KeyRenderMarkdown    = "render_markdown"
	KeyDebug             = "debug"
)

// EnvPrefix prefixes environment overrides, e.g. SSE_CHAT_BACKEND_URL
const EnvPrefix = "SSE_CHAT"

const dirName = ".sse-chat"

// Config is a resolved view of the configuration
type Config struct {
	BackendURL        string        `mapstructure:"backend_url"`
	KeepAliveInterval time.Duration `mapstructure:"keepalive_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Theme             string        `mapstructure:"theme"`
	RenderMarkdown    bool          `mapstructure:"render_markdown"`
	Debug             bool          `mapstructure:"debug"`
}

// Manager handles configuration persistence
type Manager struct {
	dir        string
	configPath string
	v          *viper.Viper
}

// NewManager creates a config manager. An empty path selects
// ~/.sse-chat/config.json.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, dirName, "config.json")
	}

	// Create config directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBackendURL, "http://localhost:3417")
	v.SetDefault(KeyKeepAliveInterval, 10*time.Second)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyTheme, "auto")
	v.SetDefault(KeyRenderMarkdown, true)
	v.SetDefault(KeyDebug, false)

	m := &Manager{dir: dir, configPath: path, v: v}

	// Load existing config if it exists
	if err := m.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return m, nil
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	if _, err := os.Stat(m.configPath); err != nil {
		return err
	}
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	if err := m.v.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// BindFlag lets a command line flag override key
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for %s", key)
	}
	return m.v.BindPFlag(key, flag)
}

// Dir returns the directory holding the config file
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the config file path
func (m *Manager) Path() string {
	return m.configPath
}

// Get returns the resolved configuration
func (m *Manager) Get() (Config, error) {
	var c Config
	if err := m.v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}

// BackendURL returns the backend base URL
func (m *Manager) BackendURL() string {
	return m.v.GetString(KeyBackendURL)
}

// KeepAliveInterval returns the keep-alive period
func (m *Manager) KeepAliveInterval() time.Duration {
	return m.v.GetDuration(KeyKeepAliveInterval)
}

// RequestTimeout returns the timeout of non-streaming requests
func (m *Manager) RequestTimeout() time.Duration {
	return m.v.GetDuration(KeyRequestTimeout)
}

// Theme returns the TUI theme name
func (m *Manager) Theme() string {
	return m.v.GetString(KeyTheme)
}

// RenderMarkdown reports whether answers are rendered as markdown
func (m *Manager) RenderMarkdown() bool {
	return m.v.GetBool(KeyRenderMarkdown)
}

// Debug reports whether trace logging is on
func (m *Manager) Debug() bool {
	return m.v.GetBool(KeyDebug)
}

// Set changes key in memory; call Save to persist it
func (m *Manager) Set(key string, value any) {
	m.v.Set(key, value)
}

// SetBackendURL updates the backend URL and saves the config
func (m *Manager) SetBackendURL(url string) error {
	m.v.Set(KeyBackendURL, url)
	return m.Save()
}
