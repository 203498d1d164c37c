package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	appName          = "yamireader"
	settingsFileName = "settings.json"
)

// ReaderSettings holds the persisted reader typography and display settings.
type ReaderSettings struct {
	FontSize        float64 `json:"font_size_px"`
	LineHeight      float64 `json:"line_height_px"`
	Padding         float64 `json:"padding_dp"`
	LetterSpacing   float64 `json:"letter_spacing_px"`
	NightMode       bool    `json:"night_mode"`
	BackgroundColor string  `json:"background_color,omitempty"` // "" means theme default
	LoadImages      bool    `json:"load_images"`
	VerticalMode    bool    `json:"vertical_mode"`
}

// DefaultReaderSettings returns the settings used when nothing is stored.
func DefaultReaderSettings() ReaderSettings {
	return ReaderSettings{
		FontSize:   24,
		LineHeight: 43,
		Padding:    16,
	}
}

// SettingsFile stores ReaderSettings as JSON on disk.
type SettingsFile struct {
	mu   sync.Mutex
	path string
}

// NewSettingsFile returns a settings store backed by settings.json in dir.
func NewSettingsFile(dir string) *SettingsFile {
	return &SettingsFile{path: filepath.Join(dir, settingsFileName)}
}

// Path returns the settings file location.
func (s *SettingsFile) Path() string {
	return s.path
}

// Get loads the stored settings. The bool is false when no file exists yet.
// Fields missing from the file keep their default values.
func (s *SettingsFile) Get() (ReaderSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultReaderSettings(), false, nil
		}
		return DefaultReaderSettings(), false, fmt.Errorf("reading settings: %w", err)
	}

	settings := DefaultReaderSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultReaderSettings(), false, fmt.Errorf("parsing settings: %w", err)
	}
	return settings, true, nil
}

// Put writes settings to disk, replacing the previous file atomically.
func (s *SettingsFile) Put(settings ReaderSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// DataDir returns the data directory for persistent storage.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			dir = filepath.Join(appData, appName)
		} else {
			dir = filepath.Join(home, "."+appName)
		}
	default: // Linux, BSD, etc.
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			dir = filepath.Join(xdgData, appName)
		} else {
			dir = filepath.Join(home, ".local", "share", appName)
		}
	}

	return dir, nil
}

// ConfigDir returns the directory holding settings.json.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			dir = filepath.Join(appData, appName)
		} else {
			dir = filepath.Join(home, "."+appName)
		}
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			dir = filepath.Join(xdgConfig, appName)
		} else {
			dir = filepath.Join(home, ".config", appName)
		}
	}

	return dir, nil
}
