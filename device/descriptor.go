// Package device selects a physical device, resolves its graphics and
// present queue families for a surface, and creates the logical device.
package device

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/vkwizard/vkwizard/gpu"
)

// Descriptor is an immutable view of one physical device, queried fresh on
// every run.
type Descriptor struct {
	gpu.PhysicalDeviceProperties

	QueueFamilies []gpu.QueueFamily
	Extensions    []string
	Features      gpu.FeatureSet

	handle gpu.PhysicalDevice
}

// Describe queries everything selection and queue resolution look at.
func Describe(pd gpu.PhysicalDevice) (*Descriptor, error) {
	props, err := pd.Properties()
	if err != nil {
		return nil, errors.Wrap(err, "query properties")
	}
	families, err := pd.QueueFamilies()
	if err != nil {
		return nil, errors.Wrapf(err, "query queue families of %q", props.Name)
	}
	extensions, err := pd.Extensions()
	if err != nil {
		return nil, errors.Wrapf(err, "query extensions of %q", props.Name)
	}
	features, err := pd.Features()
	if err != nil {
		return nil, errors.Wrapf(err, "query features of %q", props.Name)
	}
	sort.Strings(extensions)

	return &Descriptor{
		PhysicalDeviceProperties: props,
		QueueFamilies:            families,
		Extensions:               extensions,
		Features:                 features,
		handle:                   pd,
	}, nil
}

func (d *Descriptor) Handle() gpu.PhysicalDevice { return d.handle }

func (d *Descriptor) HasExtension(name string) bool {
	for _, ext := range d.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// HasQueueFamily reports whether a single family carries all of flags.
func (d *Descriptor) HasQueueFamily(flags gpu.QueueFlags) bool {
	for _, family := range d.QueueFamilies {
		if family.Flags.Has(flags) {
			return true
		}
	}
	return false
}

func (d *Descriptor) String() string {
	return d.Name + " (" + d.Type.String() + ", Vulkan " + d.APIVersion.String() + ")"
}
