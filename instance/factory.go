package instance

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkwizard/vkwizard/gpu"
)

const (
	ValidationLayer                 = "VK_LAYER_KHRONOS_validation"
	DebugUtilsExtension             = "VK_EXT_debug_utils"
	PortabilityEnumerationExtension = "VK_KHR_portability_enumeration"

	DefaultApplicationName = "vkwizard"
	DefaultEngineName      = "vkwizard"
)

var (
	DefaultApplicationVersion = gpu.MakeVersion(1, 0, 0)
	DefaultEngineVersion      = gpu.MakeVersion(1, 0, 0)
	DefaultAPIVersion         = gpu.Vulkan1_3
)

// Config describes the instance to create. Every field is read; use
// DefaultConfig and override rather than starting from the zero value.
type Config struct {
	// ApplicationName, ApplicationVersion, EngineName and EngineVersion are
	// reported to the driver only.
	ApplicationName    string
	ApplicationVersion gpu.Version
	EngineName         string
	EngineVersion      gpu.Version

	// APIVersion is the highest API version the application uses.
	APIVersion gpu.Version

	// RequiredExtensions are the platform surface extensions demanded by the
	// windowing layer. Any one missing fails Create.
	RequiredExtensions []string

	// Validation enables ValidationLayers and DebugExtensions and installs a
	// debug messenger.
	Validation       bool
	ValidationLayers []string
	DebugExtensions  []string
}

// DefaultConfig returns a Config with validation off and no platform
// extensions.
func DefaultConfig() Config {
	return Config{
		ApplicationName:    DefaultApplicationName,
		ApplicationVersion: DefaultApplicationVersion,
		EngineName:         DefaultEngineName,
		EngineVersion:      DefaultEngineVersion,
		APIVersion:         DefaultAPIVersion,
		Validation:         false,
		ValidationLayers:   []string{ValidationLayer},
		DebugExtensions:    []string{DebugUtilsExtension},
	}
}

type Factory struct {
	library *Library
	config  Config
	log     logrus.FieldLogger
}

func NewFactory(library *Library, config Config, log logrus.FieldLogger) *Factory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Factory{library: library, config: config, log: log}
}

// CreateInfo resolves the configuration against the driver's tables. It
// fails on the first missing extension or layer without touching the
// backend.
func (f *Factory) CreateInfo() (gpu.InstanceCreateInfo, error) {
	cfg := f.config
	info := gpu.InstanceCreateInfo{
		ApplicationName:    cfg.ApplicationName,
		ApplicationVersion: cfg.ApplicationVersion,
		EngineName:         cfg.EngineName,
		EngineVersion:      cfg.EngineVersion,
		APIVersion:         cfg.APIVersion,
	}

	extensions := append([]string(nil), cfg.RequiredExtensions...)
	if cfg.Validation {
		extensions = append(extensions, cfg.DebugExtensions...)
	}
	if missing := f.library.MissingExtensions(extensions); len(missing) > 0 {
		available := f.library.Extensions()
		f.log.WithFields(logrus.Fields{
			"missing":   missing,
			"available": available,
		}).Warn("instance extension check failed")
		err := gpu.MissingCapability(gpu.CapabilityInstanceExtension, missing[0])
		return info, errors.WithDetailf(err, "supported instance extensions: %s", strings.Join(available, ", "))
	}
	info.EnabledExtensions = dedupe(extensions)

	if cfg.Validation {
		if missing := f.library.MissingLayers(cfg.ValidationLayers); len(missing) > 0 {
			err := gpu.MissingCapability(gpu.CapabilityLayer, missing[0])
			return info, errors.WithHint(err, "install the LunarG Vulkan SDK or disable validation")
		}
		info.EnabledLayers = dedupe(cfg.ValidationLayers)
		info.DebugMessenger = len(cfg.DebugExtensions) > 0
	}

	if f.library.HasExtension(PortabilityEnumerationExtension) {
		info.EnabledExtensions = dedupe(append(info.EnabledExtensions, PortabilityEnumerationExtension))
		info.EnumeratePortability = true
	}

	return info, nil
}

// Create builds the instance. The caller owns the result and must destroy
// it after every object derived from it.
func (f *Factory) Create() (gpu.Instance, error) {
	info, err := f.CreateInfo()
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}

	f.log.WithFields(logrus.Fields{
		"application": info.ApplicationName,
		"api":         info.APIVersion,
		"extensions":  info.EnabledExtensions,
		"layers":      info.EnabledLayers,
	}).Info("creating instance")

	inst, err := f.library.Backend().CreateInstance(info)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	return inst, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
