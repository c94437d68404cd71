// Package gputest provides a scriptable in-memory gpu backend.
//
// Devices, queue families, surfaces and their capabilities are plain
// exported fields, so a test builds exactly the host it wants to negotiate
// against. Every create and destroy call is appended to a shared Journal,
// which lets tests assert release order.
package gputest

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vkwizard/vkwizard/gpu"
)

const (
	SwapchainExtension = "VK_KHR_swapchain"
	SurfaceExtension   = "VK_KHR_surface"
	XlibExtension      = "VK_KHR_xlib_surface"
	ValidationLayer    = "VK_LAYER_KHRONOS_validation"
)

// Journal records lifecycle events in call order.
type Journal struct {
	mu     sync.Mutex
	events []string
}

func (j *Journal) record(format string, args ...interface{}) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *Journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = nil
}

type Library struct {
	Extensions []string
	Layers     []string
	Devices    []*PhysicalDevice

	FailExtensions     error
	FailCreateInstance error
	FailEnumerate      error

	// LastInstance is the create info of the most recent CreateInstance call.
	LastInstance gpu.InstanceCreateInfo

	Journal *Journal
	closed  bool
}

// NewLibrary returns a loader offering the surface extensions and the
// validation layer, exposing devices in the given order.
func NewLibrary(devices ...*PhysicalDevice) *Library {
	journal := &Journal{}
	for _, d := range devices {
		d.journal = journal
	}
	return &Library{
		Extensions: []string{SurfaceExtension, XlibExtension, "VK_EXT_debug_utils"},
		Layers:     []string{ValidationLayer},
		Devices:    devices,
		Journal:    journal,
	}
}

func (l *Library) InstanceExtensions() ([]string, error) {
	if l.FailExtensions != nil {
		return nil, l.FailExtensions
	}
	return append([]string(nil), l.Extensions...), nil
}

func (l *Library) InstanceLayers() ([]string, error) {
	return append([]string(nil), l.Layers...), nil
}

func (l *Library) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	l.LastInstance = info
	if l.FailCreateInstance != nil {
		return nil, l.FailCreateInstance
	}
	l.Journal.record("create instance")
	return &Instance{lib: l}, nil
}

func (l *Library) Close() {
	if l.closed {
		l.Journal.record("double close library")
		return
	}
	l.closed = true
	l.Journal.record("close library")
}

type Instance struct {
	lib       *Library
	destroyed bool
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	if i.lib.FailEnumerate != nil {
		return nil, i.lib.FailEnumerate
	}
	devices := make([]gpu.PhysicalDevice, len(i.lib.Devices))
	for idx, d := range i.lib.Devices {
		d.journal = i.lib.Journal
		devices[idx] = d
	}
	return devices, nil
}

func (i *Instance) Destroy() {
	if i.destroyed {
		i.lib.Journal.record("double destroy instance")
		return
	}
	i.destroyed = true
	i.lib.Journal.record("destroy instance")
}

type Surface struct {
	Name      string
	journal   *Journal
	destroyed bool
}

// NewSurface returns a surface that records its destruction in journal.
// A nil journal is allowed.
func NewSurface(name string, journal *Journal) *Surface {
	return &Surface{Name: name, journal: journal}
}

func (s *Surface) Destroy() {
	if s.destroyed {
		s.journal.record("double destroy surface %s", s.Name)
		return
	}
	s.destroyed = true
	s.journal.record("destroy surface %s", s.Name)
}

type PhysicalDevice struct {
	Props        gpu.PhysicalDeviceProperties
	Families     []gpu.QueueFamily
	ExtensionSet []string
	FeatureSet   gpu.FeatureSet

	Capabilities gpu.SurfaceCapabilities
	Formats      []gpu.SurfaceFormat
	PresentModes []gpu.PresentMode

	FailProperties  error
	FailSurface     error
	FailCreateDev   error
	FailSwapchain   error
	FailImages      error
	FailImageViewAt int

	// DropQueues lists families whose queues the device will not hand out.
	DropQueues []int

	LastDevice    gpu.DeviceCreateInfo
	LastSwapchain gpu.SwapchainCreateInfo

	present map[*Surface]map[int]bool
	journal *Journal
}

// NewDevice returns a Vulkan 1.3 device with swapchain support, the
// geometry shader feature and a single graphics+compute+transfer family
// that presents to nothing until SetPresent is called.
func NewDevice(name string, typ gpu.DeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: gpu.PhysicalDeviceProperties{
			Name:              name,
			VendorID:          0x10de,
			DeviceID:          0x2204,
			Type:              typ,
			APIVersion:        gpu.MakeVersion(1, 3, 250),
			DriverVersion:     gpu.MakeVersion(535, 0, 0),
			PipelineCacheUUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
			Limits:            gpu.Limits{MaxImageDimension2D: 16384},
		},
		Families: []gpu.QueueFamily{
			{Index: 0, Flags: gpu.QueueGraphics | gpu.QueueCompute | gpu.QueueTransfer, QueueCount: 16},
		},
		ExtensionSet: []string{SwapchainExtension},
		FeatureSet:   gpu.Features(gpu.FeatureGeometryShader, gpu.FeatureSamplerAnisotropy),
		Capabilities: gpu.SurfaceCapabilities{
			MinImageCount:           2,
			MaxImageCount:           8,
			CurrentExtent:           gpu.Extent2D{Width: 1920, Height: 1080},
			MinImageExtent:          gpu.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:          gpu.Extent2D{Width: 16384, Height: 16384},
			MaxImageArrayLayers:     1,
			SupportedTransforms:     gpu.TransformIdentity,
			CurrentTransform:        gpu.TransformIdentity,
			SupportedCompositeAlpha: gpu.CompositeAlphaOpaque,
			SupportedUsage:          gpu.ImageUsageColorAttachment | gpu.ImageUsageTransferDst,
		},
		Formats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		},
		PresentModes:    []gpu.PresentMode{gpu.PresentModeFIFO},
		FailImageViewAt: -1,
		present:         map[*Surface]map[int]bool{},
	}
}

// SetPresent marks the given families as able to present to surface.
func (d *PhysicalDevice) SetPresent(surface *Surface, families ...int) *PhysicalDevice {
	if d.present == nil {
		d.present = map[*Surface]map[int]bool{}
	}
	if d.present[surface] == nil {
		d.present[surface] = map[int]bool{}
	}
	for _, f := range families {
		d.present[surface][f] = true
	}
	return d
}

func (d *PhysicalDevice) Properties() (gpu.PhysicalDeviceProperties, error) {
	if d.FailProperties != nil {
		return gpu.PhysicalDeviceProperties{}, d.FailProperties
	}
	return d.Props, nil
}

func (d *PhysicalDevice) QueueFamilies() ([]gpu.QueueFamily, error) {
	return append([]gpu.QueueFamily(nil), d.Families...), nil
}

func (d *PhysicalDevice) Extensions() ([]string, error) {
	return append([]string(nil), d.ExtensionSet...), nil
}

func (d *PhysicalDevice) Features() (gpu.FeatureSet, error) {
	return d.FeatureSet, nil
}

func (d *PhysicalDevice) surface(surface gpu.Surface) (*Surface, error) {
	if d.FailSurface != nil {
		return nil, d.FailSurface
	}
	s, ok := surface.(*Surface)
	if !ok {
		return nil, errors.Newf("gputest: foreign surface %T", surface)
	}
	return s, nil
}

func (d *PhysicalDevice) SurfaceSupport(family int, surface gpu.Surface) (bool, error) {
	s, err := d.surface(surface)
	if err != nil {
		return false, err
	}
	if family < 0 || family >= len(d.Families) {
		return false, errors.Newf("gputest: queue family %d out of range", family)
	}
	return d.present[s][family], nil
}

func (d *PhysicalDevice) SurfaceCapabilities(surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	if _, err := d.surface(surface); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	return d.Capabilities, nil
}

func (d *PhysicalDevice) SurfaceFormats(surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	if _, err := d.surface(surface); err != nil {
		return nil, err
	}
	return append([]gpu.SurfaceFormat(nil), d.Formats...), nil
}

func (d *PhysicalDevice) SurfacePresentModes(surface gpu.Surface) ([]gpu.PresentMode, error) {
	if _, err := d.surface(surface); err != nil {
		return nil, err
	}
	return append([]gpu.PresentMode(nil), d.PresentModes...), nil
}

func (d *PhysicalDevice) CreateDevice(info gpu.DeviceCreateInfo) (gpu.Device, error) {
	d.LastDevice = info
	if d.FailCreateDev != nil {
		return nil, d.FailCreateDev
	}
	dev := &Device{physical: d, journal: d.journal}
	for _, request := range info.QueueRequests {
		if dropped(d.DropQueues, request.FamilyIndex) {
			continue
		}
		for i := range request.Priorities {
			dev.queues = append(dev.queues, &Queue{family: request.FamilyIndex, index: i})
		}
	}
	d.journal.record("create device %s", d.Props.Name)
	return dev, nil
}

func dropped(families []int, family int) bool {
	for _, f := range families {
		if f == family {
			return true
		}
	}
	return false
}

type Queue struct {
	family int
	index  int
}

func (q *Queue) FamilyIndex() int { return q.family }
func (q *Queue) Index() int       { return q.index }

type Device struct {
	physical  *PhysicalDevice
	journal   *Journal
	queues    []*Queue
	views     int
	destroyed bool
}

func (d *Device) Queue(family, index int) (gpu.Queue, bool) {
	for _, q := range d.queues {
		if q.family == family && q.index == index {
			return q, true
		}
	}
	return nil, false
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	d.physical.LastSwapchain = info
	if d.physical.FailSwapchain != nil {
		return nil, d.physical.FailSwapchain
	}
	images := make([]gpu.Image, info.MinImageCount)
	for i := range images {
		images[i] = &Image{format: info.ImageFormat, index: i}
	}
	d.journal.record("create swapchain")
	return &Swapchain{images: images, journal: d.journal, failImages: d.physical.FailImages}, nil
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	img, ok := info.Image.(*Image)
	if !ok {
		return nil, errors.Newf("gputest: foreign image %T", info.Image)
	}
	if d.views == d.physical.FailImageViewAt {
		return nil, errors.Newf("gputest: image view %d rejected", d.views)
	}
	d.views++
	d.journal.record("create image view %d", img.index)
	return &ImageView{Info: info, index: img.index, journal: d.journal}, nil
}

func (d *Device) WaitIdle() error {
	d.journal.record("wait idle")
	return nil
}

func (d *Device) Destroy() {
	if d.destroyed {
		d.journal.record("double destroy device")
		return
	}
	d.destroyed = true
	d.journal.record("destroy device %s", d.physical.Props.Name)
}

type Image struct {
	format gpu.Format
	index  int
}

func (i *Image) Format() gpu.Format { return i.format }

type Swapchain struct {
	images     []gpu.Image
	journal    *Journal
	failImages error
	destroyed  bool
}

func (s *Swapchain) Images() ([]gpu.Image, error) {
	if s.failImages != nil {
		return nil, s.failImages
	}
	return append([]gpu.Image(nil), s.images...), nil
}

func (s *Swapchain) Destroy() {
	if s.destroyed {
		s.journal.record("double destroy swapchain")
		return
	}
	s.destroyed = true
	s.journal.record("destroy swapchain")
}

type ImageView struct {
	Info      gpu.ImageViewCreateInfo
	index     int
	journal   *Journal
	destroyed bool
}

func (v *ImageView) Destroy() {
	if v.destroyed {
		v.journal.record("double destroy image view %d", v.index)
		return
	}
	v.destroyed = true
	v.journal.record("destroy image view %d", v.index)
}
