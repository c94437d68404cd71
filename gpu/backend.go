// Package gpu holds the backend-neutral vocabulary shared by the bootstrap
// stages: the value types they negotiate over, the handles a backend hands
// out, and the error kinds every stage reports with.
//
// Handles form a strict ownership tree. Image views and swapchains belong to
// a Device, a Device to the PhysicalDevice it was created from, physical
// devices and surfaces to an Instance, and an Instance to its Library.
// Each handle must be destroyed exactly once, children before parents.
package gpu

// Library is the loaded driver entry point.
type Library interface {
	InstanceExtensions() ([]string, error)
	InstanceLayers() ([]string, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
	Close()
}

type InstanceCreateInfo struct {
	ApplicationName    string
	ApplicationVersion Version
	EngineName         string
	EngineVersion      Version
	APIVersion         Version

	EnabledExtensions []string
	EnabledLayers     []string

	// EnumeratePortability lists portability-subset implementations
	// (MoltenVK) alongside conformant devices.
	EnumeratePortability bool

	// DebugMessenger installs a debug-utils messenger at creation time.
	// EnabledExtensions must already contain the debug-utils extension.
	DebugMessenger bool
}

type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, error)
	Destroy()
}

// Surface is a presentable target created by the windowing layer.
type Surface interface {
	Destroy()
}

type PhysicalDevice interface {
	Properties() (PhysicalDeviceProperties, error)
	QueueFamilies() ([]QueueFamily, error)
	Extensions() ([]string, error)
	Features() (FeatureSet, error)

	// SurfaceSupport reports whether the queue family can present to surface.
	// Support is specific to the (device, family, surface) triple.
	SurfaceSupport(family int, surface Surface) (bool, error)
	SurfaceCapabilities(surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(surface Surface) ([]SurfaceFormat, error)
	SurfacePresentModes(surface Surface) ([]PresentMode, error)

	CreateDevice(info DeviceCreateInfo) (Device, error)
}

type QueueRequest struct {
	FamilyIndex int
	Priorities  []float32
}

type DeviceCreateInfo struct {
	QueueRequests     []QueueRequest
	EnabledExtensions []string
	EnabledFeatures   FeatureSet
}

type Device interface {
	// Queue returns the queue created at (family, index), or false if the
	// device has none there.
	Queue(family, index int) (Queue, bool)
	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	WaitIdle() error
	Destroy()
}

type Queue interface {
	FamilyIndex() int
	Index() int
}

type SwapchainCreateInfo struct {
	Surface Surface

	MinImageCount    uint32
	ImageFormat      Format
	ImageColorSpace  ColorSpace
	ImageExtent      Extent2D
	ImageArrayLayers uint32
	ImageUsage       ImageUsage

	SharingMode        SharingMode
	QueueFamilyIndices []int

	PreTransform   SurfaceTransform
	CompositeAlpha CompositeAlpha
	PresentMode    PresentMode
	Clipped        bool
}

type Swapchain interface {
	Images() ([]Image, error)
	Destroy()
}

type Image interface {
	Format() Format
}

type ImageViewType int32

const (
	ImageViewType1D ImageViewType = iota
	ImageViewType2D
	ImageViewType3D
	ImageViewTypeCube
)

type ComponentSwizzle int32

const (
	ComponentSwizzleIdentity ComponentSwizzle = iota
	ComponentSwizzleZero
	ComponentSwizzleOne
	ComponentSwizzleR
	ComponentSwizzleG
	ComponentSwizzleB
	ComponentSwizzleA
)

type ComponentMapping struct {
	R, G, B, A ComponentSwizzle
}

type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = 1 << iota
	ImageAspectDepth
	ImageAspectStencil
)

type ImageSubresourceRange struct {
	AspectMask     ImageAspect
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

type ImageViewCreateInfo struct {
	Image            Image
	ViewType         ImageViewType
	Format           Format
	Components       ComponentMapping
	SubresourceRange ImageSubresourceRange
}

type ImageView interface {
	Destroy()
}
