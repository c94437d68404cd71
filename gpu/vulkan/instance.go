package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkwizard/vkwizard/gpu"
)

type Instance struct {
	driver    core1_0.CoreInstanceDriver
	surfaces  khr_surface.ExtensionDriver
	debug     ext_debug_utils.ExtensionDriver
	messenger ext_debug_utils.DebugUtilsMessenger
	log       logrus.FieldLogger
}

func (i *Instance) messengerInfo() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityInfo,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    i.logDebug,
	}
}

func (i *Instance) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	entry := i.log.WithFields(logrus.Fields{
		"source": "validation",
		"type":   msgType.String(),
		"id":     data.MessageIDName,
	})
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		entry.Error(data.Message)
	case severity&ext_debug_utils.SeverityWarning != 0:
		entry.Warn(data.Message)
	default:
		entry.Debug(data.Message)
	}
	return false
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	handles, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]gpu.PhysicalDevice, len(handles))
	for idx, handle := range handles {
		devices[idx] = &PhysicalDevice{instance: i, handle: handle}
	}
	return devices, nil
}

// CreateSDLSurface creates a presentation surface for window. The caller
// destroys it before the instance.
func (i *Instance) CreateSDLSurface(window *sdl.Window) (*Surface, error) {
	handle, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surfaces, window)
	if err != nil {
		return nil, errors.Wrap(err, "create sdl surface")
	}
	return &Surface{handle: handle, driver: i.surfaces}, nil
}

func (i *Instance) Destroy() {
	if i.messenger.Initialized() {
		i.debug.DestroyDebugUtilsMessenger(i.messenger, nil)
	}
	i.driver.DestroyInstance(nil)
}

type Surface struct {
	handle khr_surface.Surface
	driver khr_surface.ExtensionDriver
}

func (s *Surface) Destroy() {
	s.driver.DestroySurface(s.handle, nil)
}

func surfaceHandle(surface gpu.Surface) (khr_surface.Surface, error) {
	s, ok := surface.(*Surface)
	if !ok {
		return khr_surface.Surface{}, errors.Newf("surface %T was not created by the vulkan backend", surface)
	}
	return s.handle, nil
}
