package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/neuralnotes/internal/graph"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/store"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Graph  GraphConfig       `yaml:"graph"`
	Links  LinksConfig       `yaml:"links"`
	Import ImportConfig      `yaml:"import"`
	Mirror MirrorConfig      `yaml:"mirror"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.SQLite, &c.Auth, &c.Graph, &c.Import, &c.Mirror} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
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

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
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

// GraphConfig sizes layouts and tunes the simulation. Zero simulation
// constants fall back to graph.DefaultParams.
type GraphConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Frames       int     `yaml:"frames"`
	FPS          int     `yaml:"fps"`
	graph.Params `yaml:",inline"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Frames, validation.Min(0), validation.Max(100000)),
		validation.Field(&c.FPS, validation.Required, validation.Min(1), validation.Max(120)),
	); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	p := &c.Params
	if err := validation.ValidateStruct(p,
		validation.Field(&p.Repulsion, validation.Min(0.0)),
		validation.Field(&p.Centering, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.Damping, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.Padding, validation.Min(0.0)),
		validation.Field(&p.WallImpulse, validation.Min(0.0)),
		validation.Field(&p.HitRadius, validation.Min(0.0)),
		validation.Field(&p.LabelBudget, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	return nil
}

// Defaults converts the section into the note service's layout defaults.
func (c *GraphConfig) Defaults() noteservice.GraphDefaults {
	d := noteservice.DefaultGraph()
	d.Width, d.Height = c.Width, c.Height
	if c.Frames > 0 {
		d.Frames = c.Frames
	}
	d.Params = c.Params
	return d
}

// LinksConfig controls link maintenance.
type LinksConfig struct {
	// AutoResolve replaces a note's links with the resolution of its
	// content whenever the content changes.
	AutoResolve bool `yaml:"auto_resolve"`
}

// ImportConfig controls imports.
type ImportConfig struct {
	DefaultVaultName string `yaml:"default_vault_name"`
	MaxUploadMB      int    `yaml:"max_upload_mb"`
	Theme            string `yaml:"theme"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultVaultName, validation.Required),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(1), validation.Max(1024)),
	)
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *ImportConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Options converts the section into importer options.
func (c *ImportConfig) Options() []importer.Option {
	opts := []importer.Option{importer.WithDefaultVaultName(c.DefaultVaultName)}
	if c.Theme != "" {
		opts = append(opts, importer.WithTheme(c.Theme))
	}
	return opts
}

// MirrorConfig keeps a vault in sync with a folder while the server runs.
// Disabled when Path is empty.
type MirrorConfig struct {
	Path    string `yaml:"path"`
	VaultID string `yaml:"vault_id"`
}

// Validate validates the mirror configuration.
func (c *MirrorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.VaultID, validation.When(c.Path != "", validation.Required)),
	)
}

// Enabled reports whether a folder is mirrored.
func (c *MirrorConfig) Enabled() bool {
	return c.Path != ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./neuralnotes.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Graph: GraphConfig{
			Width:  960,
			Height: 640,
			Frames: 300,
			FPS:    30,
			Params: graph.DefaultParams(),
		},
		Import: ImportConfig{
			DefaultVaultName: importer.DefaultVaultName,
			MaxUploadMB:      50,
			Theme:            store.DefaultTheme,
		},
	}
}
