// Command vkinfo prints the loader's instance extensions and layers, and every
// physical device with the reasons it would or would not be selected, as JSON.
package main

import (
	"context"
	"encoding/json"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkwizard/vkwizard/config"
	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu/vulkan"
	"github.com/vkwizard/vkwizard/instance"
)

func run(cfg config.Config, log logrus.FieldLogger) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}
	defer sdl.Quit()
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return errors.Wrap(err, "load vulkan loader")
	}
	defer sdl.VulkanUnloadLibrary()

	backend, err := vulkan.NewLibrary(log)
	if err != nil {
		return err
	}
	lib, err := instance.Open(backend)
	if err != nil {
		return err
	}
	defer lib.Close()

	inst, err := instance.NewFactory(lib, cfg.Instance(nil), log).Create()
	if err != nil {
		return err
	}
	defer inst.Destroy()

	out, err := buildReport(context.Background(), lib, inst, device.DefaultRequirement())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func main() {
	runtime.LockOSThread()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("%+v", err)
	}
	log := cfg.Logger()
	log.SetOutput(os.Stderr)
	if err := run(cfg, log); err != nil {
		log.Fatalf("%+v", err)
	}
}
