package gpu

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Version is a packed major.minor.patch version in the Vulkan layout.
type Version uint32

func MakeVersion(major, minor, patch uint32) Version {
	return Version(major<<22 | (minor&0x3ff)<<12 | patch&0xfff)
}

var (
	Vulkan1_0 = MakeVersion(1, 0, 0)
	Vulkan1_1 = MakeVersion(1, 1, 0)
	Vulkan1_2 = MakeVersion(1, 2, 0)
	Vulkan1_3 = MakeVersion(1, 3, 0)
)

func (v Version) Major() uint32 { return uint32(v) >> 22 & 0x7f }
func (v Version) Minor() uint32 { return uint32(v) >> 12 & 0x3ff }
func (v Version) Patch() uint32 { return uint32(v) & 0xfff }

// AtLeast compares major, minor and patch, ignoring the variant bits.
func (v Version) AtLeast(other Version) bool {
	if v.Major() != other.Major() {
		return v.Major() > other.Major()
	}
	if v.Minor() != other.Minor() {
		return v.Minor() > other.Minor()
	}
	return v.Patch() >= other.Patch()
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

var deviceTypeNames = map[DeviceType]string{
	DeviceTypeOther:         "other",
	DeviceTypeIntegratedGPU: "integrated",
	DeviceTypeDiscreteGPU:   "discrete",
	DeviceTypeVirtualGPU:    "virtual",
	DeviceTypeCPU:           "cpu",
}

func (t DeviceType) String() string {
	if name, ok := deviceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DeviceType(%d)", int(t))
}

func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// QueueFlags mirror VkQueueFlagBits.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
)

func (f QueueFlags) Has(other QueueFlags) bool {
	return f&other == other
}

func (f QueueFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, bit := range []struct {
		flag QueueFlags
		name string
	}{
		{QueueGraphics, "graphics"},
		{QueueCompute, "compute"},
		{QueueTransfer, "transfer"},
		{QueueSparseBinding, "sparse-binding"},
	} {
		if f&bit.flag != 0 {
			names = append(names, bit.name)
		}
	}
	return strings.Join(names, "|")
}

func (f QueueFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// QueueFamily is one entry of a physical device's queue family table.
type QueueFamily struct {
	Index      int
	Flags      QueueFlags
	QueueCount int
}

func (q QueueFamily) String() string {
	return fmt.Sprintf("{Index: %d Flags: %s Count: %d}", q.Index, q.Flags, q.QueueCount)
}

type Extent2D struct {
	Width  uint32
	Height uint32
}

// UndefinedExtent is the sentinel a surface reports as its current extent
// when the swapchain is allowed to pick one.
const UndefinedExtent = ^uint32(0)

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

type Limits struct {
	MaxImageDimension2D uint32
}

type PhysicalDeviceProperties struct {
	Name              string
	VendorID          uint32
	DeviceID          uint32
	Type              DeviceType
	APIVersion        Version
	DriverVersion     Version
	PipelineCacheUUID uuid.UUID
	Limits            Limits
}
