// Package config provides configuration management for the macro service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"mousemacros/internal/logging"
)

// SubVariantCount is the number of sub-variant slots per main variant.
const SubVariantCount = 10

// Config represents the application configuration
type Config struct {
	// General contains general application settings
	General GeneralConfig `json:"general"`

	// Input contains input backend settings
	Input InputConfig `json:"input"`

	// Macros contains the motion and click presets
	Macros MacroConfig `json:"macros"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// APIEnabled enables the local HTTP/WebSocket bridge
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the bridge (default: 18090)
	APIPort int `json:"api_port"`

	// APIToken is an optional authentication token for API requests
	APIToken string `json:"api_token,omitempty"`

	// LogLevel is a zerolog level name
	LogLevel string `json:"log_level"`

	// StartOnBoot determines if app starts on system boot
	StartOnBoot bool `json:"start_on_boot"`

	// ShowTray shows the system tray menu
	ShowTray bool `json:"show_tray"`

	// ScriptActive enables gated mouse_move and mouse_click runs
	ScriptActive bool `json:"script_active"`

	// ClickActive additionally enables gated mouse_click runs
	ClickActive bool `json:"click_active"`
}

// InputConfig contains input backend settings
type InputConfig struct {
	// DeviceGlob selects the evdev devices to listen on (Linux)
	DeviceGlob string `json:"device_glob"`

	// UinputPath is the uinput device used for injection (Linux)
	UinputPath string `json:"uinput_path"`

	// HoldIntervalMs is the polling period of hold loops
	HoldIntervalMs int `json:"hold_interval_ms"`

	// ClickPressMs is how long a synthesized click holds the button
	ClickPressMs int `json:"click_press_ms"`

	// GrabDevices takes exclusive access to the input devices (Linux)
	GrabDevices bool `json:"grab_devices"`
}

// SubVariant is one motion preset.
type SubVariant struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Sensitivity int    `json:"sensitivity"`
	Times       uint   `json:"times"`
	Rate        uint   `json:"rate"`
}

// Click is a click preset.
type Click struct {
	Times uint `json:"times"`
	Rate  uint `json:"rate"`
}

// MainVariant groups a click preset with ten motion presets.
type MainVariant struct {
	ID               int          `json:"id"`
	Title            string       `json:"title"`
	ActiveSubVariant int          `json:"active_sub_variant"`
	Main             SubVariant   `json:"main"`
	Click            Click        `json:"click"`
	SubVariants      []SubVariant `json:"sub_variants"`
}

// MacroConfig holds every main variant and which one is active.
type MacroConfig struct {
	ActiveMainVariant int           `json:"active_main_variant"`
	MainVariants      []MainVariant `json:"main_variants"`
}

// DefaultSubVariant returns the preset stored in slot id.
func DefaultSubVariant(id int) SubVariant {
	return SubVariant{
		ID:          id,
		Title:       fmt.Sprintf("variant%d", id),
		Sensitivity: 1,
		Times:       10,
		Rate:        10,
	}
}

// DefaultMainVariant returns a main variant with default presets.
func DefaultMainVariant(id int, title string) MainVariant {
	subs := make([]SubVariant, SubVariantCount)
	for i := range subs {
		subs[i] = DefaultSubVariant(i)
	}
	return MainVariant{
		ID:          id,
		Title:       title,
		Main:        DefaultSubVariant(0),
		Click:       Click{Times: 5, Rate: 15},
		SubVariants: subs,
	}
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			APIEnabled: true,
			APIPort:    18090,
			LogLevel:     "info",
			ShowTray:     true,
			ScriptActive: true,
			ClickActive:  true,
		},
		Input: InputConfig{
			DeviceGlob:     "/dev/input/event*",
			UinputPath:     "/dev/uinput",
			HoldIntervalMs: 10,
			ClickPressMs:   20,
		},
		Macros: MacroConfig{
			MainVariants: []MainVariant{DefaultMainVariant(0, "Main")},
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Macros.MainVariants = make([]MainVariant, len(c.Macros.MainVariants))
	for i, v := range c.Macros.MainVariants {
		v.SubVariants = append([]SubVariant(nil), v.SubVariants...)
		out.Macros.MainVariants[i] = v
	}
	return &out
}

// ActiveVariant returns the active main variant, or the default one if the
// active id is missing.
func (c *Config) ActiveVariant() MainVariant {
	for _, v := range c.Macros.MainVariants {
		if v.ID == c.Macros.ActiveMainVariant {
			return v
		}
	}
	return DefaultMainVariant(0, "Main")
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  []func(*Config)
	lastSaved  []byte
	log        zerolog.Logger
}

// NewManager creates a configuration manager for the per-user config file.
func NewManager(log zerolog.Logger) (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath, log), nil
}

// NewManagerAt creates a configuration manager for the file at path.
func NewManagerAt(path string, log zerolog.Logger) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
		log:        logging.Subsystem(log, "config"),
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "mousemacros")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "mousemacros")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "mousemacros")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the file the manager reads and writes.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", m.configPath, err)
	}
	normalize(cfg)

	m.mu.Lock()
	m.config = cfg
	callbacks := m.callbacks()
	m.mu.Unlock()

	notify(callbacks, cfg.Clone())
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	m.log.Debug().Str("path", m.configPath).Int("bytes", len(data)).Msg("saving configuration")
	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	m.lastSaved = data
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Clone()
}

// Set replaces the configuration
func (m *Manager) Set(config *Config) {
	cfg := config.Clone()
	normalize(cfg)

	m.mu.Lock()
	m.config = cfg
	callbacks := m.callbacks()
	m.mu.Unlock()

	notify(callbacks, cfg.Clone())
}

// Update applies fn to a copy of the configuration and stores the result.
func (m *Manager) Update(fn func(*Config)) {
	cfg := m.Get()
	fn(cfg)
	m.Set(cfg)
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = append(m.onChanged, fn)
}

func (m *Manager) callbacks() []func(*Config) {
	return slices.Clone(m.onChanged)
}

func notify(callbacks []func(*Config), cfg *Config) {
	for _, fn := range callbacks {
		fn(cfg)
	}
}

// normalize fills zero values a hand-edited file may leave behind.
func normalize(cfg *Config) {
	def := DefaultConfig()
	if cfg.General.APIPort <= 0 {
		cfg.General.APIPort = def.General.APIPort
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = def.General.LogLevel
	}
	if cfg.Input.DeviceGlob == "" {
		cfg.Input.DeviceGlob = def.Input.DeviceGlob
	}
	if cfg.Input.UinputPath == "" {
		cfg.Input.UinputPath = def.Input.UinputPath
	}
	if cfg.Input.HoldIntervalMs <= 0 {
		cfg.Input.HoldIntervalMs = def.Input.HoldIntervalMs
	}
	if cfg.Input.ClickPressMs <= 0 {
		cfg.Input.ClickPressMs = def.Input.ClickPressMs
	}
	if len(cfg.Macros.MainVariants) == 0 {
		cfg.Macros = def.Macros
	}
}
