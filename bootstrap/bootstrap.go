// Package bootstrap runs the whole negotiation pipeline, from the loaded
// driver to a swapchain with image views, and owns everything it creates.
package bootstrap

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"

	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu"
	"github.com/vkwizard/vkwizard/instance"
	"github.com/vkwizard/vkwizard/swapchain"
)

const (
	StageLibrary   = "library"
	StageInstance  = "instance"
	StageSurface   = "surface"
	StageSelect    = "physical device"
	StageQueues    = "queue families"
	StageDevice    = "logical device"
	StageSwapchain = "swapchain"
)

// SurfaceFunc creates the presentation surface for inst. When owned is
// true the bootstrap destroys the surface on release; otherwise the
// caller keeps it.
type SurfaceFunc func(inst gpu.Instance) (surface gpu.Surface, owned bool, err error)

type Options struct {
	Instance    instance.Config
	Requirement device.Requirement

	// Extent is the desired swapchain size, used only when the surface
	// does not dictate one.
	Extent gpu.Extent2D

	Log logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		Instance:    instance.DefaultConfig(),
		Requirement: device.DefaultRequirement(),
		Extent:      gpu.Extent2D{Width: 1920, Height: 1080},
	}
}

// Timing is how long one stage took.
type Timing struct {
	Stage   string
	Elapsed time.Duration
}

// Context holds every object the pipeline created. Close releases them in
// reverse creation order.
type Context struct {
	Library    *instance.Library
	Instance   gpu.Instance
	Surface    gpu.Surface
	Physical   *device.Descriptor
	Assignment device.Assignment
	Device     *device.Device
	Swapchain  *swapchain.Config

	Timings []Timing

	log      logrus.FieldLogger
	releases []func()
	closed   bool
}

// Run executes every stage in order. If one fails, everything created so
// far is released and the error names the stage.
func Run(lib gpu.Library, surfaceFn SurfaceFunc, opts Options) (*Context, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Context{log: log}
	if err := c.run(lib, surfaceFn, opts); err != nil {
		c.release()
		return nil, err
	}
	return c, nil
}

func (c *Context) run(lib gpu.Library, surfaceFn SurfaceFunc, opts Options) error {
	c.push(lib.Close)

	err := c.stage(StageLibrary, func() (err error) {
		c.Library, err = instance.Open(lib)
		return err
	})
	if err != nil {
		return err
	}

	err = c.stage(StageInstance, func() (err error) {
		c.Instance, err = instance.NewFactory(c.Library, opts.Instance, c.log).Create()
		return err
	})
	if err != nil {
		return err
	}
	c.push(c.Instance.Destroy)

	err = c.stage(StageSurface, func() error {
		surface, owned, err := surfaceFn(c.Instance)
		if err != nil {
			return err
		}
		c.Surface = surface
		if owned {
			c.push(surface.Destroy)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = c.stage(StageSelect, func() (err error) {
		c.Physical, err = device.NewSelector(opts.Requirement, c.log).Select(c.Instance)
		return err
	})
	if err != nil {
		return err
	}

	err = c.stage(StageQueues, func() (err error) {
		c.Assignment, err = device.Resolve(c.Physical, c.Surface)
		return err
	})
	if err != nil {
		return err
	}

	err = c.stage(StageDevice, func() (err error) {
		c.Device, err = device.NewFactory(opts.Requirement, c.log).Create(c.Physical, c.Assignment)
		return err
	})
	if err != nil {
		return err
	}
	c.push(c.Device.Destroy)

	err = c.stage(StageSwapchain, func() (err error) {
		c.Swapchain, err = swapchain.NewNegotiator(c.log).Negotiate(c.Device, c.Surface, opts.Extent)
		return err
	})
	if err != nil {
		return err
	}
	c.push(c.Swapchain.Destroy)
	return nil
}

func (c *Context) stage(name string, fn func() error) error {
	start := hrtime.Now()
	err := fn()
	elapsed := hrtime.Since(start)
	c.Timings = append(c.Timings, Timing{Stage: name, Elapsed: elapsed})

	log := c.log.WithFields(logrus.Fields{"stage": name, "elapsed": elapsed})
	if err != nil {
		log.WithError(err).Error("stage failed")
		return errors.Wrap(err, name)
	}
	log.Debug("stage complete")
	return nil
}

func (c *Context) push(fn func()) {
	c.releases = append(c.releases, fn)
}

func (c *Context) release() {
	for i := len(c.releases) - 1; i >= 0; i-- {
		c.releases[i]()
	}
	c.releases = nil
}

// Close waits for the device to go idle, then releases everything Run
// created. Only the first call has any effect.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.Device != nil {
		if err = c.Device.Handle().WaitIdle(); err != nil {
			c.log.WithError(err).Warn("device did not go idle before release")
			err = errors.Wrap(err, "wait for device idle")
		}
	}
	c.release()
	return err
}
