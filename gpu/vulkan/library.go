// Package vulkan implements the gpu interfaces on top of vkngwrapper.
//
// The loader is obtained from SDL, so SDL must be initialised with a
// Vulkan-capable window before NewLibrary is called, and every call must
// come from the thread that owns that window.
package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkwizard/vkwizard/gpu"
)

type Library struct {
	driver core1_0.GlobalDriver
	log    logrus.FieldLogger
}

// NewLibrary loads the driver through SDL's vkGetInstanceProcAddr.
func NewLibrary(log logrus.FieldLogger) (*Library, error) {
	return NewLibraryFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr(), log)
}

func NewLibraryFromProcAddr(procAddr unsafe.Pointer, log logrus.FieldLogger) (*Library, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	driver, err := core.CreateDriverFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan driver")
	}
	return &Library{driver: driver, log: log}, nil
}

func (l *Library) InstanceExtensions() ([]string, error) {
	extensions, _, err := l.driver.AvailableExtensions()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	return names, nil
}

func (l *Library) InstanceLayers() ([]string, error) {
	layers, _, err := l.driver.AvailableLayers()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	return names, nil
}

func (l *Library) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	options := core1_0.InstanceCreateInfo{
		ApplicationName:       info.ApplicationName,
		ApplicationVersion:    common.Version(info.ApplicationVersion),
		EngineName:            info.EngineName,
		EngineVersion:         common.Version(info.EngineVersion),
		APIVersion:            common.APIVersion(info.APIVersion),
		EnabledExtensionNames: info.EnabledExtensions,
		EnabledLayerNames:     info.EnabledLayers,
	}
	if info.EnumeratePortability {
		options.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	inst := &Instance{log: l.log}
	if info.DebugMessenger {
		// Chained so messages from vkCreateInstance itself are reported.
		options.Next = inst.messengerInfo()
	}

	driver, _, err := l.driver.CreateInstance(nil, options)
	if err != nil {
		return nil, err
	}
	inst.driver = driver
	inst.surfaces = khr_surface.CreateExtensionDriverFromCoreDriver(driver)

	if info.DebugMessenger {
		inst.debug = ext_debug_utils.CreateExtensionDriverFromCoreDriver(driver)
		inst.messenger, _, err = inst.debug.CreateDebugUtilsMessenger(nil, inst.messengerInfo())
		if err != nil {
			driver.DestroyInstance(nil)
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}
	return inst, nil
}

// Close drops the driver. The loader itself stays owned by SDL.
func (l *Library) Close() {
	l.driver = nil
}
