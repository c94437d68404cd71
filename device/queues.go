package device

import (
	"github.com/cockroachdb/errors"

	"github.com/vkwizard/vkwizard/gpu"
)

// Assignment names the queue families used for graphics and presentation.
type Assignment struct {
	Graphics int
	Present  int
}

// Shared reports whether one family serves both roles.
func (a Assignment) Shared() bool { return a.Graphics == a.Present }

// Families returns the distinct families, graphics first.
func (a Assignment) Families() []int {
	if a.Shared() {
		return []int{a.Graphics}
	}
	return []int{a.Graphics, a.Present}
}

// Resolve picks queue families on d for presenting to surface. The first
// family that does both is preferred. Otherwise the first graphics family
// and the first presenting family are returned separately.
func Resolve(d *Descriptor, surface gpu.Surface) (Assignment, error) {
	pd := d.Handle()
	present := make([]bool, len(d.QueueFamilies))
	for i, family := range d.QueueFamilies {
		ok, err := pd.SurfaceSupport(family.Index, surface)
		if err != nil {
			return Assignment{}, errors.Wrapf(err, "query present support of %q family %d", d.Name, family.Index)
		}
		present[i] = ok
		if ok && family.Flags.Has(gpu.QueueGraphics) {
			return Assignment{Graphics: family.Index, Present: family.Index}, nil
		}
	}

	graphics, presenting := -1, -1
	for i, family := range d.QueueFamilies {
		if graphics < 0 && family.Flags.Has(gpu.QueueGraphics) {
			graphics = family.Index
		}
		if presenting < 0 && present[i] {
			presenting = family.Index
		}
	}
	switch {
	case graphics < 0:
		return Assignment{}, gpu.NoQueueFamily(gpu.ErrNoGraphicsQueueFamily, d.Name)
	case presenting < 0:
		return Assignment{}, gpu.NoQueueFamily(gpu.ErrNoPresentQueueFamily, d.Name)
	}
	return Assignment{Graphics: graphics, Present: presenting}, nil
}
