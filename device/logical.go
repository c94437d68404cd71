package device

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkwizard/vkwizard/gpu"
)

// QueuePriority is used for every queue the factory requests.
const QueuePriority = 1.0

// Queue is a device queue tagged with where it came from.
type Queue struct {
	Family int
	Index  int
	Handle gpu.Queue
}

// Device is a logical device with its graphics and present queues.
type Device struct {
	Physical   *Descriptor
	Assignment Assignment

	handle    gpu.Device
	queues    []Queue
	destroyed bool
}

func (d *Device) Handle() gpu.Device { return d.handle }

// Queues returns one queue per distinct assigned family.
func (d *Device) Queues() []Queue { return append([]Queue(nil), d.queues...) }

func (d *Device) queue(family int) Queue {
	for _, q := range d.queues {
		if q.Family == family {
			return q
		}
	}
	return Queue{Family: family}
}

func (d *Device) GraphicsQueue() Queue { return d.queue(d.Assignment.Graphics) }

func (d *Device) PresentQueue() Queue { return d.queue(d.Assignment.Present) }

// Destroy releases the device. Later calls do nothing.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	d.handle.Destroy()
}

type Factory struct {
	requirement Requirement
	log         logrus.FieldLogger
}

func NewFactory(requirement Requirement, log logrus.FieldLogger) *Factory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Factory{requirement: requirement, log: log}
}

// CreateInfo builds the device request: one queue at QueuePriority per
// distinct family, exactly the required extensions and features, plus the
// portability subset when the device advertises it. The portability subset
// is the only extension ever added beyond the requirement, since Vulkan
// mandates enabling it on devices that expose it.
func (f *Factory) CreateInfo(d *Descriptor, a Assignment) gpu.DeviceCreateInfo {
	var info gpu.DeviceCreateInfo
	for _, family := range a.Families() {
		info.QueueRequests = append(info.QueueRequests, gpu.QueueRequest{
			FamilyIndex: family,
			Priorities:  []float32{QueuePriority},
		})
	}
	info.EnabledExtensions = append(info.EnabledExtensions, f.requirement.Extensions...)
	if d.HasExtension(PortabilitySubsetExtension) {
		info.EnabledExtensions = append(info.EnabledExtensions, PortabilitySubsetExtension)
	}
	info.EnabledFeatures = f.requirement.Features
	return info
}

// Create builds the logical device for d and retrieves queue 0 of every
// assigned family. If any queue is missing the device is destroyed before
// returning.
func (f *Factory) Create(d *Descriptor, a Assignment) (*Device, error) {
	info := f.CreateInfo(d, a)
	f.log.WithFields(logrus.Fields{
		"device":     d.Name,
		"graphics":   a.Graphics,
		"present":    a.Present,
		"extensions": info.EnabledExtensions,
		"features":   info.EnabledFeatures,
	}).Info("creating logical device")

	handle, err := d.Handle().CreateDevice(info)
	if err != nil {
		return nil, errors.Wrapf(err, "create logical device on %q", d.Name)
	}

	dev := &Device{Physical: d, Assignment: a, handle: handle}
	for _, family := range a.Families() {
		q, ok := handle.Queue(family, 0)
		if !ok || q == nil {
			handle.Destroy()
			err := errors.Newf("device %q returned no queue (family %d, index 0)", d.Name, family)
			return nil, errors.Mark(err, gpu.ErrQueueRetrievalFailure)
		}
		dev.queues = append(dev.queues, Queue{Family: family, Index: 0, Handle: q})
	}
	return dev, nil
}
