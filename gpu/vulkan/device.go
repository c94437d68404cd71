package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkwizard/vkwizard/gpu"
)

type Device struct {
	driver     core1_0.CoreDeviceDriver
	swapchains khr_swapchain.ExtensionDriver
}

func newDevice(driver core1_0.CoreDeviceDriver) *Device {
	return &Device{
		driver:     driver,
		swapchains: khr_swapchain.CreateExtensionDriverFromCoreDriver(driver),
	}
}

func (d *Device) Queue(family, index int) (gpu.Queue, bool) {
	q := d.driver.GetQueue(family, index)
	if !q.Initialized() {
		return nil, false
	}
	return &Queue{handle: q, family: family, index: index}, true
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	surface, err := surfaceHandle(info.Surface)
	if err != nil {
		return nil, err
	}
	handle, _, err := d.swapchains.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    int(info.MinImageCount),
		ImageFormat:      core1_0.Format(info.ImageFormat),
		ImageColorSpace:  khr_surface.ColorSpace(info.ImageColorSpace),
		ImageExtent:      toExtent(info.ImageExtent),
		ImageArrayLayers: int(info.ImageArrayLayers),
		ImageUsage:       core1_0.ImageUsageFlags(info.ImageUsage),

		ImageSharingMode:   core1_0.SharingMode(info.SharingMode),
		QueueFamilyIndices: info.QueueFamilyIndices,

		PreTransform:   khr_surface.SurfaceTransformFlags(info.PreTransform),
		CompositeAlpha: khr_surface.CompositeAlphaFlags(info.CompositeAlpha),
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        info.Clipped,
	})
	if err != nil {
		return nil, err
	}
	return &Swapchain{device: d, handle: handle, format: info.ImageFormat}, nil
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	image, ok := info.Image.(*Image)
	if !ok {
		return nil, errors.Newf("image %T was not created by the vulkan backend", info.Image)
	}
	handle, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image.handle,
		ViewType: core1_0.ImageViewType(info.ViewType),
		Format:   core1_0.Format(info.Format),
		Components: core1_0.ComponentMapping{
			R: core1_0.ComponentSwizzle(info.Components.R),
			G: core1_0.ComponentSwizzle(info.Components.G),
			B: core1_0.ComponentSwizzle(info.Components.B),
			A: core1_0.ComponentSwizzle(info.Components.A),
		},
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectFlags(info.SubresourceRange.AspectMask),
			BaseMipLevel:   int(info.SubresourceRange.BaseMipLevel),
			LevelCount:     int(info.SubresourceRange.LevelCount),
			BaseArrayLayer: int(info.SubresourceRange.BaseArrayLayer),
			LayerCount:     int(info.SubresourceRange.LayerCount),
		},
	})
	if err != nil {
		return nil, err
	}
	return &ImageView{device: d, handle: handle}, nil
}

func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}

func (d *Device) Destroy() {
	d.driver.DestroyDevice(nil)
}

type Queue struct {
	handle core1_0.Queue
	family int
	index  int
}

func (q *Queue) FamilyIndex() int { return q.family }
func (q *Queue) Index() int       { return q.index }

// Handle returns the queue for command submission.
func (q *Queue) Handle() core1_0.Queue { return q.handle }

type Swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
	format gpu.Format
}

func (s *Swapchain) Images() ([]gpu.Image, error) {
	handles, _, err := s.device.swapchains.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, err
	}
	images := make([]gpu.Image, len(handles))
	for i, handle := range handles {
		images[i] = &Image{handle: handle, format: s.format}
	}
	return images, nil
}

func (s *Swapchain) Handle() khr_swapchain.Swapchain { return s.handle }

func (s *Swapchain) Destroy() {
	s.device.swapchains.DestroySwapchain(s.handle, nil)
}

type Image struct {
	handle core1_0.Image
	format gpu.Format
}

func (i *Image) Format() gpu.Format { return i.format }

type ImageView struct {
	device *Device
	handle core1_0.ImageView
}

func (v *ImageView) Handle() core1_0.ImageView { return v.handle }

func (v *ImageView) Destroy() {
	v.device.driver.DestroyImageView(v.handle, nil)
}
