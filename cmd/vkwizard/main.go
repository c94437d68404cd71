// Command vkwizard opens a window, negotiates a device and swapchain for it
// and keeps them alive until the window is closed.
package main

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkwizard/vkwizard/bootstrap"
	"github.com/vkwizard/vkwizard/config"
	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu"
	"github.com/vkwizard/vkwizard/gpu/vulkan"
)

type application struct {
	cfg    config.Config
	log    *logrus.Logger
	window *sdl.Window
	ctx    *bootstrap.Context
}

func (app *application) Run() error {
	if err := app.initWindow(); err != nil {
		return err
	}
	defer app.cleanup()

	if err := app.initVulkan(); err != nil {
		return err
	}
	return app.mainLoop()
}

func (app *application) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow(app.cfg.WindowTitle, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(app.cfg.Width), int32(app.cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	app.window = window
	return nil
}

func (app *application) initVulkan() error {
	lib, err := vulkan.NewLibrary(app.log)
	if err != nil {
		return err
	}

	width, height := app.window.VulkanGetDrawableSize()
	opts := bootstrap.Options{
		Instance:    app.cfg.Instance(app.window.VulkanGetInstanceExtensions()),
		Requirement: device.DefaultRequirement(),
		Extent:      app.cfg.DrawableExtent(width, height),
		Log:         app.log,
	}

	app.ctx, err = bootstrap.Run(lib, app.createSurface, opts)
	if err != nil {
		return err
	}

	sc := app.ctx.Swapchain
	app.log.WithFields(logrus.Fields{
		"device":  app.ctx.Physical.Name,
		"format":  sc.Format,
		"present": sc.PresentMode,
		"extent":  sc.Extent,
		"images":  len(sc.Images),
		"sharing": sc.Sharing,
	}).Info("ready")
	for _, timing := range app.ctx.Timings {
		app.log.WithField("elapsed", timing.Elapsed).Debugf("stage %s", timing.Stage)
	}
	return nil
}

func (app *application) createSurface(inst gpu.Instance) (gpu.Surface, bool, error) {
	surface, err := inst.(*vulkan.Instance).CreateSDLSurface(app.window)
	if err != nil {
		return nil, false, err
	}
	return surface, true, nil
}

func (app *application) mainLoop() error {
appLoop:
	for {
		switch e := sdl.WaitEvent().(type) {
		case *sdl.QuitEvent:
			break appLoop
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
				break appLoop
			}
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				app.log.WithFields(logrus.Fields{
					"width":  e.Data1,
					"height": e.Data2,
				}).Warn("window resized; the swapchain keeps its negotiated extent until restart")
			}
		}
	}
	return nil
}

func (app *application) cleanup() {
	if app.ctx != nil {
		if err := app.ctx.Close(); err != nil {
			app.log.WithError(err).Error("release")
		}
	}
	if app.window != nil {
		app.window.Destroy()
	}
	sdl.Quit()
}

func main() {
	runtime.LockOSThread()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("%+v", err)
	}
	app := &application{cfg: cfg, log: cfg.Logger()}
	if err := app.Run(); err != nil {
		app.log.Fatalf("%+v", err)
	}
}
