// Package config reads the application settings from .env files and the
// process environment.
package config

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vkwizard/vkwizard/gpu"
	"github.com/vkwizard/vkwizard/instance"
)

// Environment keys.
const (
	EnvMode          = "VKWIZARD_ENV"
	EnvAppName       = "VKWIZARD_APP_NAME"
	EnvAppVersion    = "VKWIZARD_APP_VERSION"
	EnvEngineName    = "VKWIZARD_ENGINE_NAME"
	EnvEngineVersion = "VKWIZARD_ENGINE_VERSION"
	EnvValidation    = "VKWIZARD_VALIDATION"
	EnvWidth         = "VKWIZARD_WIDTH"
	EnvHeight        = "VKWIZARD_HEIGHT"
	EnvWindowTitle   = "VKWIZARD_WINDOW_TITLE"
	EnvLogLevel      = "VKWIZARD_LOG_LEVEL"
)

const (
	DefaultAppName     = "vkwizard"
	DefaultEngineName  = "vkwizard"
	DefaultWidth       = 1920
	DefaultHeight      = 1080
	DefaultWindowTitle = "vkwizard"
	DefaultLogLevel    = logrus.InfoLevel

	// Production turns validation off by default.
	Production = "production"
)

var (
	DefaultAppVersion    = gpu.MakeVersion(1, 0, 0)
	DefaultEngineVersion = gpu.MakeVersion(1, 0, 0)
)

type Config struct {
	Mode string

	AppName       string
	AppVersion    gpu.Version
	EngineName    string
	EngineVersion gpu.Version

	Validation bool

	Width       uint32
	Height      uint32
	WindowTitle string

	LogLevel logrus.Level
}

// Default returns the settings used when nothing is configured. Validation
// is on unless mode is Production.
func Default(mode string) Config {
	return Config{
		Mode:          mode,
		AppName:       DefaultAppName,
		AppVersion:    DefaultAppVersion,
		EngineName:    DefaultEngineName,
		EngineVersion: DefaultEngineVersion,
		Validation:    mode != Production,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		WindowTitle:   DefaultWindowTitle,
		LogLevel:      DefaultLogLevel,
	}
}

// Load reads files into the environment, never overriding variables that
// are already set, and builds a Config from it.
func Load(files ...string) (Config, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, errors.Wrap(err, "load env files")
		}
	}
	envy.Reload()

	cfg := Default(envy.Get(EnvMode, "development"))
	cfg.AppName = envy.Get(EnvAppName, cfg.AppName)
	cfg.EngineName = envy.Get(EnvEngineName, cfg.EngineName)
	cfg.WindowTitle = envy.Get(EnvWindowTitle, cfg.WindowTitle)

	var err error
	if cfg.AppVersion, err = version(EnvAppVersion, cfg.AppVersion); err != nil {
		return Config{}, err
	}
	if cfg.EngineVersion, err = version(EnvEngineVersion, cfg.EngineVersion); err != nil {
		return Config{}, err
	}
	if cfg.Validation, err = boolean(EnvValidation, cfg.Validation); err != nil {
		return Config{}, err
	}
	if cfg.Width, err = dimension(EnvWidth, cfg.Width); err != nil {
		return Config{}, err
	}
	if cfg.Height, err = dimension(EnvHeight, cfg.Height); err != nil {
		return Config{}, err
	}
	if v, ok := lookup(EnvLogLevel); ok {
		if cfg.LogLevel, err = logrus.ParseLevel(v); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", EnvLogLevel)
		}
	}
	return cfg, nil
}

func lookup(key string) (string, bool) {
	v, err := envy.MustGet(key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func boolean(key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.Wrapf(err, "parse %s", key)
	}
	return b, nil
}

func dimension(key string, def uint32) (uint32, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return def, errors.Wrapf(err, "parse %s", key)
	}
	if n == 0 {
		return def, errors.Newf("parse %s: must be positive", key)
	}
	return uint32(n), nil
}

// Largest values that survive packing into a gpu.Version.
var (
	versionParts  = [3]string{"major", "minor", "patch"}
	versionLimits = [3]uint64{0x7f, 0x3ff, 0xfff}
)

// version parses "major.minor.patch"; missing trailing parts are zero.
func version(key string, def gpu.Version) (gpu.Version, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	parts := strings.Split(v, ".")
	if len(parts) > 3 {
		return def, errors.Newf("parse %s: %q is not a version", key, v)
	}
	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return def, errors.Wrapf(err, "parse %s", key)
		}
		if n > versionLimits[i] {
			return def, errors.Newf("parse %s: %s %d exceeds %d", key, versionParts[i], n, versionLimits[i])
		}
		nums[i] = uint32(n)
	}
	return gpu.MakeVersion(nums[0], nums[1], nums[2]), nil
}

// Instance returns the instance settings for the given platform surface
// extensions.
func (c Config) Instance(surfaceExtensions []string) instance.Config {
	cfg := instance.DefaultConfig()
	cfg.ApplicationName = c.AppName
	cfg.ApplicationVersion = c.AppVersion
	cfg.EngineName = c.EngineName
	cfg.EngineVersion = c.EngineVersion
	cfg.RequiredExtensions = surfaceExtensions
	cfg.Validation = c.Validation
	return cfg
}

// Extent returns the configured size for a window that reports none.
func (c Config) Extent() gpu.Extent2D {
	return gpu.Extent2D{Width: c.Width, Height: c.Height}
}

// DrawableExtent returns the drawable size of a window, falling back to the
// configured size while either dimension is still zero.
func (c Config) DrawableExtent(width, height int32) gpu.Extent2D {
	if width <= 0 || height <= 0 {
		return c.Extent()
	}
	return gpu.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// Logger returns a logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}
