// Package swapchain negotiates a presentation configuration between a
// logical device and a surface and builds the swapchain and its views.
package swapchain

import (
	"github.com/cockroachdb/errors"

	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu"
)

const (
	PreferredFormat      = gpu.FormatB8G8R8A8SRGB
	PreferredColorSpace  = gpu.ColorSpaceSRGBNonlinear
	PreferredPresentMode = gpu.PresentModeMailbox

	// TargetImageCount is clamped into the surface's image count range.
	TargetImageCount uint32 = 3
)

// Snapshot is what the surface supports for one physical device at one
// point in time. It is fetched fresh for every negotiation.
type Snapshot struct {
	Capabilities gpu.SurfaceCapabilities
	Formats      []gpu.SurfaceFormat
	PresentModes []gpu.PresentMode
}

func FetchSnapshot(pd gpu.PhysicalDevice, surface gpu.Surface) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Capabilities, err = pd.SurfaceCapabilities(surface); err != nil {
		return snap, errors.Wrap(err, "query surface capabilities")
	}
	if snap.Formats, err = pd.SurfaceFormats(surface); err != nil {
		return snap, errors.Wrap(err, "query surface formats")
	}
	if snap.PresentModes, err = pd.SurfacePresentModes(surface); err != nil {
		return snap, errors.Wrap(err, "query surface present modes")
	}
	return snap, nil
}

// ChooseSurfaceFormat returns the preferred sRGB pair wherever it appears
// in formats, or else the first pair.
func ChooseSurfaceFormat(formats []gpu.SurfaceFormat) (gpu.SurfaceFormat, error) {
	if len(formats) == 0 {
		return gpu.SurfaceFormat{}, gpu.MissingCapability(gpu.CapabilitySurfaceFormat, "of any kind")
	}
	for _, f := range formats {
		if f.Format == PreferredFormat && f.ColorSpace == PreferredColorSpace {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode returns mailbox when offered and FIFO otherwise. FIFO
// is always available.
func ChoosePresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, m := range modes {
		if m == PreferredPresentMode {
			return m
		}
	}
	return gpu.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent when it is fixed and
// clamps desired into the supported range otherwise.
func ChooseExtent(caps gpu.SurfaceCapabilities, desired gpu.Extent2D) gpu.Extent2D {
	if caps.HasFixedExtent() {
		return caps.CurrentExtent
	}
	return gpu.Extent2D{
		Width:  clamp(desired.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(desired.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount clamps TargetImageCount into [MinImageCount,
// MaxImageCount]. A zero maximum is unbounded.
func ChooseImageCount(caps gpu.SurfaceCapabilities) uint32 {
	count := TargetImageCount
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSharing returns exclusive sharing for a shared family and
// concurrent sharing over both families otherwise.
func ChooseSharing(a device.Assignment) (gpu.SharingMode, []int) {
	if a.Shared() {
		return gpu.SharingModeExclusive, nil
	}
	return gpu.SharingModeConcurrent, []int{a.Graphics, a.Present}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
