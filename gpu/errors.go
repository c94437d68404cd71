package gpu

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Stage errors are marked with one of these; test with errors.Is.
var (
	ErrMissingRequiredCapability = errors.New("missing required capability")
	ErrNoSuitableDevice          = errors.New("no suitable physical device")
	ErrNoQueueFamily             = errors.New("no usable queue family")
	ErrQueueRetrievalFailure     = errors.New("queue retrieval failure")
	ErrSwapchainCreationFailure  = errors.New("swapchain creation failure")

	// Sub-kinds of ErrNoQueueFamily. NoQueueFamily attaches the parent mark.
	ErrNoGraphicsQueueFamily = errors.New("no graphics-capable queue family")
	ErrNoPresentQueueFamily  = errors.New("no queue family can present to the surface")
)

// NoQueueFamily reports that device lacks the family kind, one of
// ErrNoGraphicsQueueFamily or ErrNoPresentQueueFamily. The result matches
// kind and ErrNoQueueFamily, never the other sub-kind.
func NoQueueFamily(kind error, device string) error {
	return errors.Mark(errors.Wrapf(kind, "device %q", device), ErrNoQueueFamily)
}

type CapabilityKind string

const (
	CapabilityInstanceExtension CapabilityKind = "instance extension"
	CapabilityLayer             CapabilityKind = "layer"
	CapabilityDeviceExtension   CapabilityKind = "device extension"
	CapabilityFeature           CapabilityKind = "device feature"
	CapabilityAPIVersion        CapabilityKind = "api version"
	CapabilityQueue             CapabilityKind = "queue capability"
	CapabilitySurfaceFormat     CapabilityKind = "surface format"
)

// CapabilityError names the one capability that was required but absent.
type CapabilityError struct {
	Kind CapabilityKind
	Name string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("missing required %s %s", e.Kind, e.Name)
}

// MissingCapability builds an ErrMissingRequiredCapability error for name.
func MissingCapability(kind CapabilityKind, name string) error {
	return errors.Mark(&CapabilityError{Kind: kind, Name: name}, ErrMissingRequiredCapability)
}
