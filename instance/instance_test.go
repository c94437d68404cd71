package instance_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vkwizard/vkwizard/gpu"
	"github.com/vkwizard/vkwizard/gpu/gputest"
	"github.com/vkwizard/vkwizard/instance"
)

func newFactory(c *qt.C, lib *gputest.Library, cfg instance.Config) *instance.Factory {
	library, err := instance.Open(lib)
	c.Assert(err, qt.IsNil)
	log, _ := test.NewNullLogger()
	return instance.NewFactory(library, cfg, log)
}

func TestLibrarySnapshot(t *testing.T) {
	c := qt.New(t)
	lib := gputest.NewLibrary()
	lib.Extensions = []string{"VK_KHR_xlib_surface", "VK_KHR_surface"}

	library, err := instance.Open(lib)
	c.Assert(err, qt.IsNil)
	c.Assert(library.Extensions(), qt.DeepEquals, []string{"VK_KHR_surface", "VK_KHR_xlib_surface"})
	c.Assert(library.HasLayer(gputest.ValidationLayer), qt.IsTrue)
	c.Assert(library.MissingExtensions([]string{"VK_KHR_surface", "VK_KHR_win32_surface"}), qt.DeepEquals, []string{"VK_KHR_win32_surface"})

	// later changes to the loader are not observed
	lib.Extensions = nil
	c.Assert(library.HasExtension("VK_KHR_surface"), qt.IsTrue)

	library.Close()
	library.Close()
	c.Assert(lib.Journal.Events(), qt.DeepEquals, []string{"close library"})
}

func TestOpenEnumerationFailure(t *testing.T) {
	c := qt.New(t)
	lib := gputest.NewLibrary()
	lib.FailExtensions = errors.New("loader gone")

	_, err := instance.Open(lib)
	c.Assert(err, qt.ErrorMatches, "enumerate instance extensions: loader gone")
}

func TestCreateFailsFastOnMissingExtension(t *testing.T) {
	c := qt.New(t)
	lib := gputest.NewLibrary()
	cfg := instance.DefaultConfig()
	cfg.RequiredExtensions = []string{gputest.SurfaceExtension, "VK_KHR_win32_surface"}

	_, err := newFactory(c, lib, cfg).Create()
	c.Assert(errors.Is(err, gpu.ErrMissingRequiredCapability), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `create instance: missing required instance extension VK_KHR_win32_surface`)

	var capErr *gpu.CapabilityError
	c.Assert(errors.As(err, &capErr), qt.IsTrue)
	c.Assert(capErr.Name, qt.Equals, "VK_KHR_win32_surface")
	c.Assert(lib.Journal.Events(), qt.HasLen, 0)
}

func TestMissingExtensionReportsSupported(t *testing.T) {
	c := qt.New(t)
	lib := gputest.NewLibrary()
	library, err := instance.Open(lib)
	c.Assert(err, qt.IsNil)
	log, hook := test.NewNullLogger()
	cfg := instance.DefaultConfig()
	cfg.RequiredExtensions = []string{"VK_KHR_win32_surface"}

	_, err = instance.NewFactory(library, cfg, log).Create()
	c.Assert(errors.FlattenDetails(err), qt.Equals,
		"supported instance extensions: VK_EXT_debug_utils, VK_KHR_surface, VK_KHR_xlib_surface")

	entry := hook.LastEntry()
	c.Assert(entry, qt.IsNotNil)
	c.Assert(entry.Level, qt.Equals, logrus.WarnLevel)
	c.Assert(entry.Data["missing"], qt.DeepEquals, []string{"VK_KHR_win32_surface"})
	c.Assert(entry.Data["available"], qt.DeepEquals, library.Extensions())
}

func TestCreateMissingValidationLayer(t *testing.T) {
	c := qt.New(t)
	lib := gputest.NewLibrary()
	lib.Layers = nil
	cfg := instance.DefaultConfig()
	cfg.Validation = true

	_, err := newFactory(c, lib, cfg).Create()
	c.Assert(errors.Is(err, gpu.ErrMissingRequiredCapability), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `.*layer VK_LAYER_KHRONOS_validation`)
	c.Assert(errors.FlattenHints(err), qt.Contains, "LunarG")
}

func TestCreateInfo(t *testing.T) {
	tests := []struct {
		name       string
		validation bool
		loaderExts []string
		wantExts   []string
		wantLayers []string
		wantPort   bool
	}{{
		name:       "plain",
		loaderExts: []string{gputest.SurfaceExtension, gputest.XlibExtension},
		wantExts:   []string{gputest.SurfaceExtension, gputest.XlibExtension},
	}, {
		name:       "validation",
		validation: true,
		loaderExts: []string{gputest.SurfaceExtension, gputest.XlibExtension, instance.DebugUtilsExtension},
		wantExts:   []string{gputest.SurfaceExtension, gputest.XlibExtension, instance.DebugUtilsExtension},
		wantLayers: []string{instance.ValidationLayer},
	}, {
		name:       "portability",
		loaderExts: []string{gputest.SurfaceExtension, gputest.XlibExtension, instance.PortabilityEnumerationExtension},
		wantExts:   []string{gputest.SurfaceExtension, gputest.XlibExtension, instance.PortabilityEnumerationExtension},
		wantPort:   true,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			lib := gputest.NewLibrary()
			lib.Extensions = test.loaderExts
			cfg := instance.DefaultConfig()
			cfg.Validation = test.validation
			cfg.RequiredExtensions = []string{gputest.SurfaceExtension, gputest.XlibExtension, gputest.SurfaceExtension}

			inst, err := newFactory(c, lib, cfg).Create()
			c.Assert(err, qt.IsNil)
			defer inst.Destroy()

			got := lib.LastInstance
			c.Assert(got.EnabledExtensions, qt.DeepEquals, test.wantExts)
			if test.wantLayers == nil {
				c.Assert(got.EnabledLayers, qt.HasLen, 0)
			} else {
				c.Assert(got.EnabledLayers, qt.DeepEquals, test.wantLayers)
			}
			c.Assert(got.DebugMessenger, qt.Equals, test.validation)
			c.Assert(got.EnumeratePortability, qt.Equals, test.wantPort)
			c.Assert(got.APIVersion, qt.Equals, gpu.Vulkan1_3)
			c.Assert(got.ApplicationName, qt.Equals, instance.DefaultApplicationName)
		})
	}
}

func TestCreateBackendFailure(t *testing.T) {
	c := qt.New(t)
	lib := gputest.NewLibrary()
	lib.FailCreateInstance = errors.New("VK_ERROR_INCOMPATIBLE_DRIVER")

	_, err := newFactory(c, lib, instance.DefaultConfig()).Create()
	c.Assert(err, qt.ErrorMatches, "create instance: VK_ERROR_INCOMPATIBLE_DRIVER")
}

func TestNilLoggerUsesStandard(t *testing.T) {
	c := qt.New(t)
	library, err := instance.Open(gputest.NewLibrary())
	c.Assert(err, qt.IsNil)
	logrus.SetLevel(logrus.PanicLevel)
	defer logrus.SetLevel(logrus.InfoLevel)

	inst, err := instance.NewFactory(library, instance.DefaultConfig(), nil).Create()
	c.Assert(err, qt.IsNil)
	inst.Destroy()
}
