package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ConfigPathEnvVar names an alternative .env file when none sits next to the executable.
	ConfigPathEnvVar = "WIN_DIALOG_SHOT"

	DefaultHotkey             = "Ctrl+Alt+S"
	DefaultOverlayDelaySec    = 0.1
	DefaultCaptureDeadlineSec = 10
)

// DefaultBackground is white.
var DefaultBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// LoadOptions carries command-line overrides; empty fields keep the env value.
type LoadOptions struct {
	HotkeyOverride     string
	BackgroundOverride string
	NoOverlay          bool
}

type Config struct {
	Hotkey              string
	Background          color.RGBA
	UseOverlay          bool
	OverlayDelay        time.Duration
	EnableFileLogging   bool
	EnableTray          bool
	EnableNotifications bool
	CaptureDeadline     time.Duration
	EnvPath             string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use WIN_DIALOG_SHOT env var as a path to a config file
	// Real environment variables win over both.
	envPath := resolveEnvPath()
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
	}

	bgValue := getEnvWithDefault("BACKGROUND_COLOR", "")
	if v := strings.TrimSpace(opts.BackgroundOverride); v != "" {
		bgValue = v
	}
	background := DefaultBackground
	if bgValue != "" {
		c, err := ParseColor(bgValue)
		if err != nil {
			return nil, fmt.Errorf("BACKGROUND_COLOR: %w", err)
		}
		background = c
	}

	useOverlay, err := parseBool("USE_OVERLAY", true)
	if err != nil {
		return nil, err
	}
	if opts.NoOverlay {
		useOverlay = false
	}
	enableTray, err := parseBool("ENABLE_TRAY", true)
	if err != nil {
		return nil, err
	}
	enableNotifications, err := parseBool("ENABLE_NOTIFICATIONS", true)
	if err != nil {
		return nil, err
	}
	enableFileLogging, err := parseBool("ENABLE_FILE_LOGGING", false)
	if err != nil {
		return nil, err
	}

	delaySec := DefaultOverlayDelaySec
	if v := os.Getenv("OVERLAY_DELAY_SEC"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("OVERLAY_DELAY_SEC: invalid value %q", v)
		}
		delaySec = f
	}

	deadlineSec := DefaultCaptureDeadlineSec
	if v := os.Getenv("CAPTURE_DEADLINE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			deadlineSec = n
		}
	}

	hotkey := getEnvWithDefault("HOTKEY", DefaultHotkey)
	if v := strings.TrimSpace(opts.HotkeyOverride); v != "" {
		hotkey = v
	}

	return &Config{
		Hotkey:              hotkey,
		Background:          background,
		UseOverlay:          useOverlay,
		OverlayDelay:        time.Duration(delaySec * float64(time.Second)),
		EnableFileLogging:   enableFileLogging,
		EnableTray:          enableTray,
		EnableNotifications: enableNotifications,
		CaptureDeadline:     time.Duration(deadlineSec) * time.Second,
		EnvPath:             envPath,
	}, nil
}

// ParseColor accepts "R,G,B" with components 0-255 or "#rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 {
			return color.RGBA{}, fmt.Errorf("invalid colour %q: expected #rrggbb", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}

	parts := strings.Split(strings.Trim(s, "()"), ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: expected R,G,B", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return color.RGBA{}, fmt.Errorf("invalid colour %q: component %q out of range 0-255", s, strings.TrimSpace(p))
		}
		rgb[i] = uint8(n)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

// FormatColor renders c the way ParseColor reads it.
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

func parseBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
