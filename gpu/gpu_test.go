package gpu_test

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/vkwizard/vkwizard/gpu"
)

func TestVersion(t *testing.T) {
	c := qt.New(t)
	v := gpu.MakeVersion(1, 3, 250)
	c.Assert(v.Major(), qt.Equals, uint32(1))
	c.Assert(v.Minor(), qt.Equals, uint32(3))
	c.Assert(v.Patch(), qt.Equals, uint32(250))
	c.Assert(v.String(), qt.Equals, "1.3.250")

	c.Assert(v.AtLeast(gpu.Vulkan1_3), qt.IsTrue)
	c.Assert(gpu.Vulkan1_3.AtLeast(gpu.Vulkan1_3), qt.IsTrue)
	c.Assert(gpu.MakeVersion(1, 2, 999).AtLeast(gpu.Vulkan1_3), qt.IsFalse)
	c.Assert(gpu.MakeVersion(2, 0, 0).AtLeast(gpu.Vulkan1_3), qt.IsTrue)
}

func TestQueueFlags(t *testing.T) {
	c := qt.New(t)
	flags := gpu.QueueGraphics | gpu.QueueTransfer
	c.Assert(flags.Has(gpu.QueueGraphics), qt.IsTrue)
	c.Assert(flags.Has(gpu.QueueGraphics|gpu.QueueCompute), qt.IsFalse)
	c.Assert(flags.String(), qt.Equals, "graphics|transfer")
	c.Assert(gpu.QueueFlags(0).String(), qt.Equals, "none")
}

func TestFeatureSet(t *testing.T) {
	c := qt.New(t)
	have := gpu.Features(gpu.FeatureGeometryShader, gpu.FeatureSamplerAnisotropy)
	want := gpu.Features(gpu.FeatureGeometryShader, gpu.FeatureTessellationShader, gpu.FeatureWideLines)

	c.Assert(have.Contains(gpu.Features(gpu.FeatureGeometryShader)), qt.IsTrue)
	c.Assert(have.Contains(want), qt.IsFalse)
	c.Assert(have.Missing(want), qt.DeepEquals, []gpu.Feature{gpu.FeatureTessellationShader, gpu.FeatureWideLines})
	c.Assert(have.Missing(0), qt.HasLen, 0)
	c.Assert(have.String(), qt.Equals, "[geometryShader samplerAnisotropy]")
	c.Assert(gpu.Feature(200).String(), qt.Equals, "Feature(200)")
	c.Assert(gpu.AllFeatures(), qt.HasLen, int(gpu.FeatureShaderInt16)+1)

	out, err := json.Marshal(have)
	c.Assert(err, qt.IsNil)
	c.Assert(string(out), qt.Equals, `["geometryShader","samplerAnisotropy"]`)
}

func TestSurfaceCapabilities(t *testing.T) {
	c := qt.New(t)
	caps := gpu.SurfaceCapabilities{CurrentExtent: gpu.Extent2D{Width: 800, Height: 600}}
	c.Assert(caps.HasFixedExtent(), qt.IsTrue)
	caps.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}
	c.Assert(caps.HasFixedExtent(), qt.IsFalse)
}

func TestErrorKinds(t *testing.T) {
	c := qt.New(t)
	err := gpu.MissingCapability(gpu.CapabilityDeviceExtension, "VK_KHR_swapchain")
	c.Assert(err, qt.ErrorMatches, "missing required device extension VK_KHR_swapchain")
	c.Assert(errors.Is(err, gpu.ErrMissingRequiredCapability), qt.IsTrue)
	c.Assert(errors.Is(err, gpu.ErrNoSuitableDevice), qt.IsFalse)

	wrapped := errors.Wrap(err, "select")
	var capErr *gpu.CapabilityError
	c.Assert(errors.As(wrapped, &capErr), qt.IsTrue)
	c.Assert(capErr.Kind, qt.Equals, gpu.CapabilityDeviceExtension)

	c.Assert(errors.Is(gpu.ErrNoPresentQueueFamily, gpu.ErrNoGraphicsQueueFamily), qt.IsFalse)
	c.Assert(errors.Is(gpu.ErrNoQueueFamily, gpu.ErrNoGraphicsQueueFamily), qt.IsFalse)
}

func TestNoQueueFamily(t *testing.T) {
	c := qt.New(t)
	present := errors.Wrap(gpu.NoQueueFamily(gpu.ErrNoPresentQueueFamily, "gpu"), "queue families")
	c.Assert(present, qt.ErrorMatches, `queue families: device "gpu": no queue family can present to the surface`)
	c.Assert(errors.Is(present, gpu.ErrNoPresentQueueFamily), qt.IsTrue)
	c.Assert(errors.Is(present, gpu.ErrNoQueueFamily), qt.IsTrue)
	c.Assert(errors.Is(present, gpu.ErrNoGraphicsQueueFamily), qt.IsFalse)

	graphics := gpu.NoQueueFamily(gpu.ErrNoGraphicsQueueFamily, "gpu")
	c.Assert(errors.Is(graphics, gpu.ErrNoGraphicsQueueFamily), qt.IsTrue)
	c.Assert(errors.Is(graphics, gpu.ErrNoQueueFamily), qt.IsTrue)
	c.Assert(errors.Is(graphics, gpu.ErrNoPresentQueueFamily), qt.IsFalse)
}
