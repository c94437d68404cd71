package device_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu"
	"github.com/vkwizard/vkwizard/gpu/gputest"
)

func newInstance(c *qt.C, devices ...*gputest.PhysicalDevice) (*gputest.Library, gpu.Instance) {
	lib := gputest.NewLibrary(devices...)
	inst, err := lib.CreateInstance(gpu.InstanceCreateInfo{})
	c.Assert(err, qt.IsNil)
	lib.Journal.Reset()
	return lib, inst
}

func newSelector() *device.Selector {
	log, _ := test.NewNullLogger()
	return device.NewSelector(device.DefaultRequirement(), log)
}

func describe(c *qt.C, pd *gputest.PhysicalDevice) *device.Descriptor {
	newInstance(c, pd)
	d, err := device.Describe(pd)
	c.Assert(err, qt.IsNil)
	return d
}

func TestScore(t *testing.T) {
	c := qt.New(t)
	integrated := describe(c, gputest.NewDevice("igpu", gpu.DeviceTypeIntegratedGPU))
	discrete := describe(c, gputest.NewDevice("dgpu", gpu.DeviceTypeDiscreteGPU))

	c.Assert(device.Score(integrated), qt.Equals, uint64(16384))
	c.Assert(device.Score(discrete), qt.Equals, uint64(16384+device.DiscreteBonus))
}

func TestSelectPrefersDiscrete(t *testing.T) {
	c := qt.New(t)
	igpu := gputest.NewDevice("igpu", gpu.DeviceTypeIntegratedGPU)
	igpu.Props.Limits.MaxImageDimension2D = 16384
	dgpu := gputest.NewDevice("dgpu", gpu.DeviceTypeDiscreteGPU)
	dgpu.Props.Limits.MaxImageDimension2D = 16384
	_, inst := newInstance(c, igpu, dgpu)

	d, err := newSelector().Select(inst)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Name, qt.Equals, "dgpu")
	c.Assert(d.Handle(), qt.Equals, gpu.PhysicalDevice(dgpu))
}

func TestSelectTieKeepsEnumerationOrder(t *testing.T) {
	c := qt.New(t)
	_, inst := newInstance(c,
		gputest.NewDevice("first", gpu.DeviceTypeDiscreteGPU),
		gputest.NewDevice("second", gpu.DeviceTypeDiscreteGPU),
	)

	d, err := newSelector().Select(inst)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Name, qt.Equals, "first")
}

func TestSelectSkipsUnsuitable(t *testing.T) {
	c := qt.New(t)
	noSwapchain := gputest.NewDevice("no-swapchain", gpu.DeviceTypeDiscreteGPU)
	noSwapchain.ExtensionSet = nil
	old := gputest.NewDevice("old", gpu.DeviceTypeDiscreteGPU)
	old.Props.APIVersion = gpu.MakeVersion(1, 2, 198)
	noGeometry := gputest.NewDevice("no-geometry", gpu.DeviceTypeDiscreteGPU)
	noGeometry.FeatureSet = gpu.Features(gpu.FeatureSamplerAnisotropy)
	computeOnly := gputest.NewDevice("compute-only", gpu.DeviceTypeDiscreteGPU)
	computeOnly.Families = []gpu.QueueFamily{{Index: 0, Flags: gpu.QueueCompute, QueueCount: 4}}
	ok := gputest.NewDevice("ok", gpu.DeviceTypeIntegratedGPU)
	_, inst := newInstance(c, noSwapchain, old, noGeometry, computeOnly, ok)

	ranking, err := newSelector().Rank(inst)
	c.Assert(err, qt.IsNil)
	c.Assert(ranking.Candidates, qt.HasLen, 1)
	c.Assert(ranking.Candidates[0].Name, qt.Equals, "ok")
	c.Assert(ranking.Rejected, qt.HasLen, 4)

	want := []string{
		"missing required device extension VK_KHR_swapchain",
		`missing required api version 1.3.0 \(device has 1.2.198\)`,
		"missing required device feature geometryShader",
		"missing required queue capability graphics",
	}
	for i, r := range ranking.Rejected {
		c.Assert(r.Index, qt.Equals, i)
		c.Assert(r.Reasons, qt.HasLen, 1)
		c.Assert(r.Reasons[0], qt.ErrorMatches, want[i])
		c.Assert(errors.Is(r.Reasons[0], gpu.ErrMissingRequiredCapability), qt.IsTrue)
	}
}

func TestSelectNoSuitableDevice(t *testing.T) {
	c := qt.New(t)
	cpu := gputest.NewDevice("llvmpipe", gpu.DeviceTypeCPU)
	cpu.ExtensionSet = nil
	_, inst := newInstance(c, cpu)

	_, err := newSelector().Select(inst)
	c.Assert(errors.Is(err, gpu.ErrNoSuitableDevice), qt.IsTrue)
	c.Assert(errors.FlattenDetails(err), qt.Contains, "llvmpipe")
}

func TestSelectEmptyInstance(t *testing.T) {
	c := qt.New(t)
	_, inst := newInstance(c)

	_, err := newSelector().Select(inst)
	c.Assert(errors.Is(err, gpu.ErrNoSuitableDevice), qt.IsTrue)
}

func TestSelectQueryFailureRejectsDevice(t *testing.T) {
	c := qt.New(t)
	broken := gputest.NewDevice("broken", gpu.DeviceTypeDiscreteGPU)
	broken.FailProperties = errors.New("VK_ERROR_DEVICE_LOST")
	_, inst := newInstance(c, broken, gputest.NewDevice("fine", gpu.DeviceTypeIntegratedGPU))

	ranking, err := newSelector().Rank(inst)
	c.Assert(err, qt.IsNil)
	c.Assert(ranking.Rejected, qt.HasLen, 1)
	c.Assert(ranking.Rejected[0].Descriptor, qt.IsNil)
	c.Assert(ranking.Rejected[0].Reasons[0], qt.ErrorMatches, "query properties: VK_ERROR_DEVICE_LOST")

	best, ok := ranking.Best()
	c.Assert(ok, qt.IsTrue)
	c.Assert(best.Name, qt.Equals, "fine")
}

func TestSelectEnumerationFailure(t *testing.T) {
	c := qt.New(t)
	lib, inst := newInstance(c)
	lib.FailEnumerate = errors.New("VK_ERROR_INITIALIZATION_FAILED")

	_, err := newSelector().Select(inst)
	c.Assert(err, qt.ErrorMatches, "enumerate physical devices: VK_ERROR_INITIALIZATION_FAILED")
}

func TestResolve(t *testing.T) {
	graphics := gpu.QueueGraphics | gpu.QueueCompute | gpu.QueueTransfer
	tests := []struct {
		name     string
		families []gpu.QueueFamily
		present  []int
		want     device.Assignment
		wantErr  error
		otherErr error
	}{{
		name:     "combined",
		families: []gpu.QueueFamily{{Index: 0, Flags: graphics}},
		present:  []int{0},
		want:     device.Assignment{Graphics: 0, Present: 0},
	}, {
		name: "combined preferred over earlier split",
		families: []gpu.QueueFamily{
			{Index: 0, Flags: graphics},
			{Index: 1, Flags: gpu.QueueTransfer},
			{Index: 2, Flags: graphics},
		},
		present: []int{1, 2},
		want:    device.Assignment{Graphics: 2, Present: 2},
	}, {
		name: "split",
		families: []gpu.QueueFamily{
			{Index: 0, Flags: graphics},
			{Index: 1, Flags: gpu.QueueTransfer},
		},
		present: []int{1},
		want:    device.Assignment{Graphics: 0, Present: 1},
	}, {
		name:     "no graphics",
		families: []gpu.QueueFamily{{Index: 0, Flags: gpu.QueueCompute}},
		present:  []int{0},
		wantErr:  gpu.ErrNoGraphicsQueueFamily,
		otherErr: gpu.ErrNoPresentQueueFamily,
	}, {
		name:     "no present",
		families: []gpu.QueueFamily{{Index: 0, Flags: graphics}},
		wantErr:  gpu.ErrNoPresentQueueFamily,
		otherErr: gpu.ErrNoGraphicsQueueFamily,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			surface := gputest.NewSurface("window", nil)
			pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
			pd.Families = test.families
			pd.SetPresent(surface, test.present...)
			d := describe(c, pd)

			got, err := device.Resolve(d, surface)
			if test.wantErr != nil {
				c.Assert(errors.Is(err, test.wantErr), qt.IsTrue)
				c.Assert(errors.Is(err, gpu.ErrNoQueueFamily), qt.IsTrue)
				c.Assert(errors.Is(err, test.otherErr), qt.IsFalse)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, test.want)
		})
	}
}

func TestResolveIsSurfaceSpecific(t *testing.T) {
	c := qt.New(t)
	a := gputest.NewSurface("a", nil)
	b := gputest.NewSurface("b", nil)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
	pd.SetPresent(a, 0)
	d := describe(c, pd)

	_, err := device.Resolve(d, a)
	c.Assert(err, qt.IsNil)
	_, err = device.Resolve(d, b)
	c.Assert(errors.Is(err, gpu.ErrNoPresentQueueFamily), qt.IsTrue)
}

func TestResolveQueryFailure(t *testing.T) {
	c := qt.New(t)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
	pd.FailSurface = errors.New("VK_ERROR_SURFACE_LOST_KHR")
	d := describe(c, pd)

	_, err := device.Resolve(d, gputest.NewSurface("window", nil))
	c.Assert(err, qt.ErrorMatches, `query present support of "gpu" family 0: VK_ERROR_SURFACE_LOST_KHR`)
}

func TestAssignment(t *testing.T) {
	c := qt.New(t)
	shared := device.Assignment{Graphics: 1, Present: 1}
	c.Assert(shared.Shared(), qt.IsTrue)
	c.Assert(shared.Families(), qt.DeepEquals, []int{1})

	split := device.Assignment{Graphics: 0, Present: 2}
	c.Assert(split.Shared(), qt.IsFalse)
	c.Assert(split.Families(), qt.DeepEquals, []int{0, 2})
}

func newFactory() *device.Factory {
	log, _ := test.NewNullLogger()
	return device.NewFactory(device.DefaultRequirement(), log)
}

func TestCreateShared(t *testing.T) {
	c := qt.New(t)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
	d := describe(c, pd)

	dev, err := newFactory().Create(d, device.Assignment{Graphics: 0, Present: 0})
	c.Assert(err, qt.IsNil)
	c.Assert(pd.LastDevice.QueueRequests, qt.DeepEquals, []gpu.QueueRequest{
		{FamilyIndex: 0, Priorities: []float32{1}},
	})
	c.Assert(pd.LastDevice.EnabledExtensions, qt.DeepEquals, []string{device.SwapchainExtension})
	c.Assert(pd.LastDevice.EnabledFeatures, qt.Equals, gpu.Features(gpu.FeatureGeometryShader))

	c.Assert(dev.Queues(), qt.HasLen, 1)
	c.Assert(dev.GraphicsQueue(), qt.Equals, dev.PresentQueue())
	c.Assert(dev.GraphicsQueue().Family, qt.Equals, 0)
	c.Assert(dev.GraphicsQueue().Handle, qt.IsNotNil)

	dev.Destroy()
	dev.Destroy()
}

func TestCreateSplit(t *testing.T) {
	c := qt.New(t)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
	pd.Families = append(pd.Families, gpu.QueueFamily{Index: 1, Flags: gpu.QueueTransfer, QueueCount: 1})
	pd.ExtensionSet = append(pd.ExtensionSet, device.PortabilitySubsetExtension)
	d := describe(c, pd)

	dev, err := newFactory().Create(d, device.Assignment{Graphics: 0, Present: 1})
	c.Assert(err, qt.IsNil)
	defer dev.Destroy()

	c.Assert(pd.LastDevice.QueueRequests, qt.DeepEquals, []gpu.QueueRequest{
		{FamilyIndex: 0, Priorities: []float32{1}},
		{FamilyIndex: 1, Priorities: []float32{1}},
	})
	c.Assert(pd.LastDevice.EnabledExtensions, qt.DeepEquals, []string{
		device.SwapchainExtension, device.PortabilitySubsetExtension,
	})
	c.Assert(dev.GraphicsQueue().Family, qt.Equals, 0)
	c.Assert(dev.PresentQueue().Family, qt.Equals, 1)
	c.Assert(dev.PresentQueue().Handle.FamilyIndex(), qt.Equals, 1)
}

func TestCreateInfoAddsOnlyPortabilitySubset(t *testing.T) {
	c := qt.New(t)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeIntegratedGPU)
	pd.ExtensionSet = append(pd.ExtensionSet, "VK_KHR_maintenance1", device.PortabilitySubsetExtension, "VK_EXT_memory_budget")
	pd.FeatureSet = gpu.Features(gpu.AllFeatures()...)
	d := describe(c, pd)

	info := newFactory().CreateInfo(d, device.Assignment{Graphics: 0, Present: 0})
	c.Assert(info.EnabledExtensions, qt.DeepEquals, []string{
		device.SwapchainExtension, device.PortabilitySubsetExtension,
	})
	c.Assert(info.EnabledFeatures, qt.Equals, gpu.Features(gpu.FeatureGeometryShader))
}

func TestCreateQueueRetrievalFailure(t *testing.T) {
	c := qt.New(t)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
	pd.Families = append(pd.Families, gpu.QueueFamily{Index: 1, Flags: gpu.QueueTransfer, QueueCount: 1})
	pd.DropQueues = []int{1}
	lib, _ := newInstance(c, pd)
	d, err := device.Describe(pd)
	c.Assert(err, qt.IsNil)

	_, err = newFactory().Create(d, device.Assignment{Graphics: 0, Present: 1})
	c.Assert(errors.Is(err, gpu.ErrQueueRetrievalFailure), qt.IsTrue)
	c.Assert(lib.Journal.Events(), qt.DeepEquals, []string{"create device gpu", "destroy device gpu"})
}

func TestCreateBackendFailure(t *testing.T) {
	c := qt.New(t)
	pd := gputest.NewDevice("gpu", gpu.DeviceTypeDiscreteGPU)
	pd.FailCreateDev = errors.New("VK_ERROR_FEATURE_NOT_PRESENT")
	d := describe(c, pd)

	_, err := newFactory().Create(d, device.Assignment{})
	c.Assert(err, qt.ErrorMatches, `create logical device on "gpu": VK_ERROR_FEATURE_NOT_PRESENT`)
}
