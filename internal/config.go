package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pocketnotes/internal/device"
	"github.com/starford/pocketnotes/internal/vault"
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
	App        ApplicationConfig `yaml:"app" toml:"app"`
	Device     DeviceConfig      `yaml:"device" toml:"device"`
	Collection CollectionConfig  `yaml:"collection" toml:"collection"`
	Extract    ExtractConfig     `yaml:"extract" toml:"extract"`
	Export     ExportConfig      `yaml:"export" toml:"export"`
	Auth       AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if err := c.Collection.Validate(); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	if err := c.Extract.Validate(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level" toml:"log_level"`
	LogFormat string     `yaml:"log_format" toml:"log_format"`
	HTTP      HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
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

// DeviceConfig describes how to find the reader and where its files live.
// A non-empty Path skips detection under MountRoots.
type DeviceConfig struct {
	Name       string   `yaml:"name" toml:"name"`
	Path       string   `yaml:"path" toml:"path"`
	MountRoots []string `yaml:"mount_roots" toml:"mount_roots"`
	BooksDir   string   `yaml:"books_dir" toml:"books_dir"`
	NotesDir   string   `yaml:"notes_dir" toml:"notes_dir"`
}

// Validate validates the device configuration.
func (c *DeviceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.When(c.Path == "", validation.Required)),
		validation.Field(&c.BooksDir, validation.Required),
		validation.Field(&c.NotesDir, validation.Required),
	)
}

// CollectionConfig locates the local copy of books, bookmark exports and
// the snapshot. BooksDir, NotesDir and a relative Snapshot are resolved
// against BaseDir.
type CollectionConfig struct {
	BaseDir  string `yaml:"base_dir" toml:"base_dir"`
	BooksDir string `yaml:"books_dir" toml:"books_dir"`
	NotesDir string `yaml:"notes_dir" toml:"notes_dir"`
	Snapshot string `yaml:"snapshot" toml:"snapshot"`
	Update   bool   `yaml:"update" toml:"update"`
}

// Validate validates the collection configuration.
func (c *CollectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseDir, validation.Required),
		validation.Field(&c.BooksDir, validation.Required),
		validation.Field(&c.NotesDir, validation.Required),
		validation.Field(&c.Snapshot, validation.Required),
	)
}

// SnapshotPath returns the snapshot database path.
func (c *CollectionConfig) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot) {
		return c.Snapshot
	}
	return filepath.Join(c.BaseDir, c.Snapshot)
}

// ExtractConfig controls how notes are read from bookmark exports.
type ExtractConfig struct {
	// Tags is the ordered vocabulary searched for in highlights.
	Tags []string `yaml:"tags" toml:"tags"`
	// Colors maps a highlight color class to its semantic tag.
	Colors map[string]string `yaml:"colors" toml:"colors"`
}

// Validate validates the extract configuration.
func (c *ExtractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Colors, validation.Required),
	)
}

// ExportConfig controls the vault pages.
type ExportConfig struct {
	Format           string `yaml:"format" toml:"format"`
	VaultPath        string `yaml:"vault_path" toml:"vault_path"`
	SortByPage       bool   `yaml:"sort_by_page" toml:"sort_by_page"`
	OverwriteForeign bool   `yaml:"overwrite_foreign" toml:"overwrite_foreign"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required, validation.In(vault.FormatObsidian)),
	)
}

// Enabled reports whether a vault is configured.
func (c *ExportConfig) Enabled() bool {
	return c.VaultPath != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
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

// DefaultColors maps the reader's highlight colors to semantic tags.
func DefaultColors() map[string]string {
	return map[string]string{
		"bm-color-magenta": "key_idea",
		"bm-color-red":     "key_idea",
		"bm-color-yellow":  "standard",
		"bm-color-green":   "look_into",
		"bm-color-cian":    "summary",
		"bm-color-blue":    "summary",
		"bm-color-note":    "none",
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	user := os.Getenv("USER")
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Device: DeviceConfig{
			Name:       device.DefaultName,
			MountRoots: []string{"/Volumes", filepath.Join("/media", user), filepath.Join("/run/media", user)},
			BooksDir:   device.DefaultBooksDir,
			NotesDir:   device.DefaultNotesDir,
		},
		Collection: CollectionConfig{
			BaseDir:  ".",
			BooksDir: "books",
			NotesDir: "PBcloud_files",
			Snapshot: "pocketnotes.db",
			Update:   true,
		},
		Extract: ExtractConfig{
			Tags:   []string{"machine learning", "AI"},
			Colors: DefaultColors(),
		},
		Export: ExportConfig{
			Format:     vault.FormatObsidian,
			SortByPage: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
