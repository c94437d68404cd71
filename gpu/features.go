package gpu

import (
	"fmt"
	"strings"
)

// Feature names one boolean of VkPhysicalDeviceFeatures.
type Feature uint8

const (
	FeatureRobustBufferAccess Feature = iota
	FeatureFullDrawIndexUint32
	FeatureImageCubeArray
	FeatureIndependentBlend
	FeatureGeometryShader
	FeatureTessellationShader
	FeatureSampleRateShading
	FeatureDualSrcBlend
	FeatureLogicOp
	FeatureMultiDrawIndirect
	FeatureDrawIndirectFirstInstance
	FeatureDepthClamp
	FeatureDepthBiasClamp
	FeatureFillModeNonSolid
	FeatureDepthBounds
	FeatureWideLines
	FeatureLargePoints
	FeatureAlphaToOne
	FeatureMultiViewport
	FeatureSamplerAnisotropy
	FeatureShaderFloat64
	FeatureShaderInt64
	FeatureShaderInt16

	featureCount
)

var featureNames = [featureCount]string{
	"robustBufferAccess",
	"fullDrawIndexUint32",
	"imageCubeArray",
	"independentBlend",
	"geometryShader",
	"tessellationShader",
	"sampleRateShading",
	"dualSrcBlend",
	"logicOp",
	"multiDrawIndirect",
	"drawIndirectFirstInstance",
	"depthClamp",
	"depthBiasClamp",
	"fillModeNonSolid",
	"depthBounds",
	"wideLines",
	"largePoints",
	"alphaToOne",
	"multiViewport",
	"samplerAnisotropy",
	"shaderFloat64",
	"shaderInt64",
	"shaderInt16",
}

func (f Feature) String() string {
	if f < featureCount {
		return featureNames[f]
	}
	return fmt.Sprintf("Feature(%d)", int(f))
}

// AllFeatures lists every known feature in declaration order.
func AllFeatures() []Feature {
	all := make([]Feature, 0, featureCount)
	for f := Feature(0); f < featureCount; f++ {
		all = append(all, f)
	}
	return all
}

// FeatureSet is an immutable set of features.
type FeatureSet uint64

func Features(features ...Feature) FeatureSet {
	var s FeatureSet
	for _, f := range features {
		s |= 1 << f
	}
	return s
}

func (s FeatureSet) Has(f Feature) bool {
	return s&(1<<f) != 0
}

func (s FeatureSet) With(features ...Feature) FeatureSet {
	return s | Features(features...)
}

// Missing returns the features of required that s lacks.
func (s FeatureSet) Missing(required FeatureSet) []Feature {
	var missing []Feature
	for _, f := range required.List() {
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func (s FeatureSet) Contains(required FeatureSet) bool {
	return s&required == required
}

func (s FeatureSet) List() []Feature {
	var list []Feature
	for f := Feature(0); f < featureCount; f++ {
		if s.Has(f) {
			list = append(list, f)
		}
	}
	return list
}

func (s FeatureSet) String() string {
	list := s.List()
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = f.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func (s FeatureSet) MarshalJSON() ([]byte, error) {
	list := s.List()
	quoted := make([]string, len(list))
	for i, f := range list {
		quoted[i] = fmt.Sprintf("%q", f.String())
	}
	return []byte("[" + strings.Join(quoted, ",") + "]"), nil
}
