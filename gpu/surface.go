package gpu

import "fmt"

// Format mirrors the VkFormat values this package negotiates over.
type Format int32

const (
	FormatUndefined              Format = 0
	FormatR8G8B8A8UNorm          Format = 37
	FormatR8G8B8A8SRGB           Format = 43
	FormatB8G8R8A8UNorm          Format = 44
	FormatB8G8R8A8SRGB           Format = 50
	FormatA2B10G10R10UNormPack32 Format = 64
	FormatR16G16B16A16SFloat     Format = 97
)

var formatNames = map[Format]string{
	FormatUndefined:              "UNDEFINED",
	FormatR8G8B8A8UNorm:          "R8G8B8A8_UNORM",
	FormatR8G8B8A8SRGB:           "R8G8B8A8_SRGB",
	FormatB8G8R8A8UNorm:          "B8G8R8A8_UNORM",
	FormatB8G8R8A8SRGB:           "B8G8R8A8_SRGB",
	FormatA2B10G10R10UNormPack32: "A2B10G10R10_UNORM_PACK32",
	FormatR16G16B16A16SFloat:     "R16G16B16A16_SFLOAT",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear      ColorSpace = 0
	ColorSpaceDisplayP3Nonlinear ColorSpace = 1000104001
	ColorSpaceExtendedSRGBLinear ColorSpace = 1000104002
	ColorSpaceHDR10ST2084        ColorSpace = 1000104008
)

var colorSpaceNames = map[ColorSpace]string{
	ColorSpaceSRGBNonlinear:      "SRGB_NONLINEAR",
	ColorSpaceDisplayP3Nonlinear: "DISPLAY_P3_NONLINEAR",
	ColorSpaceExtendedSRGBLinear: "EXTENDED_SRGB_LINEAR",
	ColorSpaceHDR10ST2084:        "HDR10_ST2084",
}

func (c ColorSpace) String() string {
	if name, ok := colorSpaceNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ColorSpace(%d)", int32(c))
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

func (f SurfaceFormat) String() string {
	return f.Format.String() + "/" + f.ColorSpace.String()
}

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "IMMEDIATE"
	case PresentModeMailbox:
		return "MAILBOX"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFO_RELAXED"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

type SharingMode int32

const (
	SharingModeExclusive SharingMode = iota
	SharingModeConcurrent
)

func (m SharingMode) String() string {
	if m == SharingModeConcurrent {
		return "CONCURRENT"
	}
	return "EXCLUSIVE"
}

// SurfaceTransform mirrors VkSurfaceTransformFlagBitsKHR.
type SurfaceTransform uint32

const (
	TransformIdentity SurfaceTransform = 1 << iota
	TransformRotate90
	TransformRotate180
	TransformRotate270
)

// CompositeAlpha mirrors VkCompositeAlphaFlagBitsKHR.
type CompositeAlpha uint32

const (
	CompositeAlphaOpaque CompositeAlpha = 1 << iota
	CompositeAlphaPreMultiplied
	CompositeAlphaPostMultiplied
	CompositeAlphaInherit
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc     ImageUsage = 0x01
	ImageUsageTransferDst     ImageUsage = 0x02
	ImageUsageColorAttachment ImageUsage = 0x10
)

// SurfaceCapabilities is the backend-neutral VkSurfaceCapabilitiesKHR.
// A MaxImageCount of zero means the surface places no upper bound.
type SurfaceCapabilities struct {
	MinImageCount uint32
	MaxImageCount uint32

	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D

	MaxImageArrayLayers     uint32
	SupportedTransforms     SurfaceTransform
	CurrentTransform        SurfaceTransform
	SupportedCompositeAlpha CompositeAlpha
	SupportedUsage          ImageUsage
}

// HasFixedExtent reports whether the surface dictates the swapchain extent.
func (c SurfaceCapabilities) HasFixedExtent() bool {
	return c.CurrentExtent.Width != UndefinedExtent
}
