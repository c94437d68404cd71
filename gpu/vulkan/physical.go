package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkwizard/vkwizard/gpu"
)

type PhysicalDevice struct {
	instance *Instance
	handle   core1_0.PhysicalDevice
}

func (p *PhysicalDevice) Properties() (gpu.PhysicalDeviceProperties, error) {
	props, err := p.instance.driver.GetPhysicalDeviceProperties(p.handle)
	if err != nil {
		return gpu.PhysicalDeviceProperties{}, err
	}
	return gpu.PhysicalDeviceProperties{
		Name:              props.DriverName,
		VendorID:          uint32(props.VendorID),
		DeviceID:          uint32(props.DeviceID),
		Type:              gpu.DeviceType(props.DriverType),
		APIVersion:        gpu.Version(props.APIVersion),
		DriverVersion:     gpu.Version(props.DriverVersion),
		PipelineCacheUUID: props.PipelineCacheUUID,
		Limits: gpu.Limits{
			MaxImageDimension2D: uint32(props.Limits.MaxImageDimension2D),
		},
	}, nil
}

func (p *PhysicalDevice) QueueFamilies() ([]gpu.QueueFamily, error) {
	props := p.instance.driver.GetPhysicalDeviceQueueFamilyProperties(p.handle)
	families := make([]gpu.QueueFamily, len(props))
	for idx, family := range props {
		families[idx] = gpu.QueueFamily{
			Index:      idx,
			Flags:      gpu.QueueFlags(family.QueueFlags),
			QueueCount: int(family.QueueCount),
		}
	}
	return families, nil
}

func (p *PhysicalDevice) Extensions() ([]string, error) {
	extensions, _, err := p.instance.driver.EnumerateDeviceExtensionProperties(p.handle)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	return names, nil
}

func (p *PhysicalDevice) Features() (gpu.FeatureSet, error) {
	return fromFeatures(p.instance.driver.GetPhysicalDeviceFeatures(p.handle)), nil
}

func (p *PhysicalDevice) SurfaceSupport(family int, surface gpu.Surface) (bool, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return false, err
	}
	supported, _, err := p.instance.surfaces.GetPhysicalDeviceSurfaceSupport(handle, p.handle, family)
	return supported, err
}

func (p *PhysicalDevice) SurfaceCapabilities(surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	caps, _, err := p.instance.surfaces.GetPhysicalDeviceSurfaceCapabilities(handle, p.handle)
	if err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	return gpu.SurfaceCapabilities{
		MinImageCount:           uint32(caps.MinImageCount),
		MaxImageCount:           uint32(caps.MaxImageCount),
		CurrentExtent:           fromExtent(caps.CurrentExtent),
		MinImageExtent:          fromExtent(caps.MinImageExtent),
		MaxImageExtent:          fromExtent(caps.MaxImageExtent),
		MaxImageArrayLayers:     uint32(caps.MaxImageArrayLayers),
		SupportedTransforms:     gpu.SurfaceTransform(caps.SupportedTransforms),
		CurrentTransform:        gpu.SurfaceTransform(caps.CurrentTransform),
		SupportedCompositeAlpha: gpu.CompositeAlpha(caps.SupportedCompositeAlpha),
		SupportedUsage:          gpu.ImageUsage(caps.SupportedUsageFlags),
	}, nil
}

func (p *PhysicalDevice) SurfaceFormats(surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return nil, err
	}
	formats, _, err := p.instance.surfaces.GetPhysicalDeviceSurfaceFormats(handle, p.handle)
	if err != nil {
		return nil, err
	}
	out := make([]gpu.SurfaceFormat, len(formats))
	for i, f := range formats {
		out[i] = gpu.SurfaceFormat{Format: gpu.Format(f.Format), ColorSpace: gpu.ColorSpace(f.ColorSpace)}
	}
	return out, nil
}

func (p *PhysicalDevice) SurfacePresentModes(surface gpu.Surface) ([]gpu.PresentMode, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return nil, err
	}
	modes, _, err := p.instance.surfaces.GetPhysicalDeviceSurfacePresentModes(handle, p.handle)
	if err != nil {
		return nil, err
	}
	out := make([]gpu.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = gpu.PresentMode(m)
	}
	return out, nil
}

func (p *PhysicalDevice) CreateDevice(info gpu.DeviceCreateInfo) (gpu.Device, error) {
	queues := make([]core1_0.DeviceQueueCreateInfo, len(info.QueueRequests))
	for i, request := range info.QueueRequests {
		queues[i] = core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: request.FamilyIndex,
			QueuePriorities:  request.Priorities,
		}
	}

	driver, _, err := p.instance.driver.CreateDevice(p.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queues,
		EnabledFeatures:       toFeatures(info.EnabledFeatures),
		EnabledExtensionNames: info.EnabledExtensions,
	})
	if err != nil {
		return nil, err
	}
	return newDevice(driver), nil
}

// fromExtent maps vkng's -1 "undefined" dimensions onto gpu.UndefinedExtent.
func fromExtent(e core1_0.Extent2D) gpu.Extent2D {
	dim := func(v int) uint32 {
		if v < 0 {
			return gpu.UndefinedExtent
		}
		return uint32(v)
	}
	return gpu.Extent2D{Width: dim(e.Width), Height: dim(e.Height)}
}

func toExtent(e gpu.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: int(e.Width), Height: int(e.Height)}
}

func featureFields(f *core1_0.PhysicalDeviceFeatures) []*bool {
	// Indexed by gpu.Feature.
	return []*bool{
		&f.RobustBufferAccess,
		&f.FullDrawIndexUint32,
		&f.ImageCubeArray,
		&f.IndependentBlend,
		&f.GeometryShader,
		&f.TessellationShader,
		&f.SampleRateShading,
		&f.DualSrcBlend,
		&f.LogicOp,
		&f.MultiDrawIndirect,
		&f.DrawIndirectFirstInstance,
		&f.DepthClamp,
		&f.DepthBiasClamp,
		&f.FillModeNonSolid,
		&f.DepthBounds,
		&f.WideLines,
		&f.LargePoints,
		&f.AlphaToOne,
		&f.MultiViewport,
		&f.SamplerAnisotropy,
		&f.ShaderFloat64,
		&f.ShaderInt64,
		&f.ShaderInt16,
	}
}

func fromFeatures(f *core1_0.PhysicalDeviceFeatures) gpu.FeatureSet {
	var set gpu.FeatureSet
	if f == nil {
		return set
	}
	for i, field := range featureFields(f) {
		if *field {
			set = set.With(gpu.Feature(i))
		}
	}
	return set
}

func toFeatures(set gpu.FeatureSet) *core1_0.PhysicalDeviceFeatures {
	f := &core1_0.PhysicalDeviceFeatures{}
	for i, field := range featureFields(f) {
		*field = set.Has(gpu.Feature(i))
	}
	return f
}
