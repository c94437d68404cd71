package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu"
)

// Config is a negotiated swapchain with one view per image. It is tied to
// the surface extent it was built for and must be destroyed and negotiated
// again when that changes.
type Config struct {
	Format      gpu.SurfaceFormat
	PresentMode gpu.PresentMode
	Extent      gpu.Extent2D
	ImageCount  uint32

	Sharing       gpu.SharingMode
	QueueFamilies []int

	Swapchain gpu.Swapchain
	Images    []gpu.Image
	Views     []gpu.ImageView

	destroyed bool
}

// Destroy releases the views, then the swapchain. Later calls do nothing.
func (c *Config) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	destroyViews(c.Views)
	c.Swapchain.Destroy()
}

func destroyViews(views []gpu.ImageView) {
	for i := len(views) - 1; i >= 0; i-- {
		views[i].Destroy()
	}
}

// vulkanClip maps OpenGL clip space onto Vulkan's: Y points down and depth
// runs from 0 to 1.
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective returns a projection matrix for the swapchain's aspect ratio
// in Vulkan clip space. fovY is in radians.
func (c *Config) Perspective(fovY, near, far float32) mgl32.Mat4 {
	aspect := float32(1)
	if c.Extent.Height > 0 {
		aspect = float32(c.Extent.Width) / float32(c.Extent.Height)
	}
	return vulkanClip.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

type Negotiator struct {
	log logrus.FieldLogger
}

func NewNegotiator(log logrus.FieldLogger) *Negotiator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Negotiator{log: log}
}

// Negotiate resolves a configuration for presenting dev's images on
// surface and builds it. desired is only used when the surface leaves the
// extent up to the swapchain.
func (n *Negotiator) Negotiate(dev *device.Device, surface gpu.Surface, desired gpu.Extent2D) (*Config, error) {
	snap, err := FetchSnapshot(dev.Physical.Handle(), surface)
	if err != nil {
		return nil, err
	}

	format, err := ChooseSurfaceFormat(snap.Formats)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Format:      format,
		PresentMode: ChoosePresentMode(snap.PresentModes),
		Extent:      ChooseExtent(snap.Capabilities, desired),
		ImageCount:  ChooseImageCount(snap.Capabilities),
	}
	cfg.Sharing, cfg.QueueFamilies = ChooseSharing(dev.Assignment)

	n.log.WithFields(logrus.Fields{
		"format":  cfg.Format,
		"present": cfg.PresentMode,
		"extent":  cfg.Extent,
		"images":  cfg.ImageCount,
		"sharing": cfg.Sharing,
	}).Info("creating swapchain")

	cfg.Swapchain, err = dev.Handle().CreateSwapchain(gpu.SwapchainCreateInfo{
		Surface:            surface,
		MinImageCount:      cfg.ImageCount,
		ImageFormat:        cfg.Format.Format,
		ImageColorSpace:    cfg.Format.ColorSpace,
		ImageExtent:        cfg.Extent,
		ImageArrayLayers:   1,
		ImageUsage:         gpu.ImageUsageColorAttachment,
		SharingMode:        cfg.Sharing,
		QueueFamilyIndices: cfg.QueueFamilies,
		PreTransform:       gpu.TransformIdentity,
		CompositeAlpha:     gpu.CompositeAlphaOpaque,
		PresentMode:        cfg.PresentMode,
		Clipped:            true,
	})
	if err != nil {
		return nil, creationFailure(err, "create swapchain")
	}

	cfg.Images, err = cfg.Swapchain.Images()
	if err != nil {
		cfg.Swapchain.Destroy()
		return nil, creationFailure(err, "get swapchain images")
	}

	for i, image := range cfg.Images {
		view, err := dev.Handle().CreateImageView(gpu.ImageViewCreateInfo{
			Image:    image,
			ViewType: gpu.ImageViewType2D,
			Format:   cfg.Format.Format,
			Components: gpu.ComponentMapping{
				R: gpu.ComponentSwizzleIdentity,
				G: gpu.ComponentSwizzleIdentity,
				B: gpu.ComponentSwizzleIdentity,
				A: gpu.ComponentSwizzleIdentity,
			},
			SubresourceRange: gpu.ImageSubresourceRange{
				AspectMask: gpu.ImageAspectColor,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			destroyViews(cfg.Views)
			cfg.Swapchain.Destroy()
			return nil, creationFailure(errors.Wrapf(err, "image %d", i), "create image view")
		}
		cfg.Views = append(cfg.Views, view)
	}
	return cfg, nil
}

func creationFailure(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), gpu.ErrSwapchainCreationFailure)
}
