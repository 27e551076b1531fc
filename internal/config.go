package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Text service backends.
const (
	BackendMock   = "mock"
	BackendOpenAI = "openai"
	BackendHTTP   = "http"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Auth        AuthConfig        `yaml:"auth"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Assets      AssetsConfig      `yaml:"assets"`
	Topics      TopicsConfig      `yaml:"topics"`
	TextService TextServiceConfig `yaml:"text_service"`
	Editor      EditorConfig      `yaml:"editor"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	if err := c.TextService.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds the application-state database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AssetsConfig holds the directory cover images are stored in.
type AssetsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// TopicsConfig points at an optional YAML topic catalog. When Path is empty
// the built-in catalog is used and nothing is watched.
type TopicsConfig struct {
	Path string `yaml:"path"`
}

// TextServiceConfig selects and tunes the text generation backend.
//
// Backend is one of:
//   - "mock" (default): deterministic local rewrites, no network.
//   - "openai": chat completions via go-openai; Endpoint overrides the base URL.
//   - "http": POSTs the request contract to Endpoint.
type TextServiceConfig struct {
	Backend       string        `yaml:"backend"`
	Endpoint      string        `yaml:"endpoint"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

// Validate validates the text service configuration.
func (c *TextServiceConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMock
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMock, BackendOpenAI, BackendHTTP)),
		validation.Field(&c.Endpoint, validation.When(c.Backend == BackendHTTP, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RatePerSecond, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Backend == BackendOpenAI && c.APIKey == "" {
		return fmt.Errorf("text_service: backend is %q but api_key is empty", BackendOpenAI)
	}
	return nil
}

// EditorConfig holds editor session tuning.
type EditorConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl"`
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.AutosaveDelay, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		SQLite: SQLiteConfig{
			Path: "./pensieri.db",
		},
		Assets: AssetsConfig{
			Path: "./assets",
		},
		TextService: TextServiceConfig{
			Backend:       BackendMock,
			Model:         "gpt-4o-mini",
			Timeout:       60 * time.Second,
			RatePerSecond: 2,
			Burst:         5,
		},
		Editor: EditorConfig{
			SessionTTL:    24 * time.Hour,
			AutosaveDelay: 5 * time.Second,
		},
	}
}
