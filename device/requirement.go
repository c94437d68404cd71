package device

import (
	"github.com/vkwizard/vkwizard/gpu"
)

const (
	SwapchainExtension         = "VK_KHR_swapchain"
	PortabilitySubsetExtension = "VK_KHR_portability_subset"
)

// Requirement is the fixed suitability filter. A device meets all of it or
// is excluded.
type Requirement struct {
	// QueueFlags must all be present on one queue family. Graphics is
	// always required whether or not it is listed here.
	QueueFlags    gpu.QueueFlags
	MinAPIVersion gpu.Version
	Extensions    []string
	Features      gpu.FeatureSet
}

func DefaultRequirement() Requirement {
	return Requirement{
		QueueFlags:    gpu.QueueGraphics,
		MinAPIVersion: gpu.Vulkan1_3,
		Extensions:    []string{SwapchainExtension},
		Features:      gpu.Features(gpu.FeatureGeometryShader),
	}
}

// Check returns one error per unmet clause, each marked
// gpu.ErrMissingRequiredCapability. A nil result means d is suitable.
func (r Requirement) Check(d *Descriptor) []error {
	var unmet []error

	flags := r.QueueFlags | gpu.QueueGraphics
	if !d.HasQueueFamily(flags) {
		unmet = append(unmet, gpu.MissingCapability(gpu.CapabilityQueue, flags.String()))
	}
	if !d.APIVersion.AtLeast(r.MinAPIVersion) {
		unmet = append(unmet, gpu.MissingCapability(gpu.CapabilityAPIVersion,
			r.MinAPIVersion.String()+" (device has "+d.APIVersion.String()+")"))
	}
	for _, ext := range r.Extensions {
		if !d.HasExtension(ext) {
			unmet = append(unmet, gpu.MissingCapability(gpu.CapabilityDeviceExtension, ext))
		}
	}
	for _, f := range d.Features.Missing(r.Features) {
		unmet = append(unmet, gpu.MissingCapability(gpu.CapabilityFeature, f.String()))
	}
	return unmet
}

func (r Requirement) Satisfied(d *Descriptor) bool {
	return len(r.Check(d)) == 0
}
