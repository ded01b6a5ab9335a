package descriptors_test

import (
	"testing"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors/headless"
	"github.com/stretchr/testify/require"
)

const testSafeFrames = 3

type env struct {
	device   *headless.Device
	clock    *core.FrameCounter
	deletion *descriptors.DeletionQueue
	usage    *descriptors.TypesUsageCache
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := core.NewFrameCounter()
	return &env{
		device:   headless.NewDevice(headless.DefaultLimits()),
		clock:    clock,
		deletion: descriptors.NewDeletionQueue(clock, testSafeFrames),
		usage:    descriptors.NewTypesUsageCache(),
	}
}

func (e *env) advance(frames int) {
	for i := 0; i < frames; i++ {
		e.clock.Advance()
	}
}

func decl(binding uint32, t descriptors.DescriptorType, count uint32) descriptors.DescriptorDeclaration {
	return descriptors.DescriptorDeclaration{Binding: binding, Type: t, Count: count}
}

func info(t *testing.T, decls ...descriptors.DescriptorDeclaration) *descriptors.ShaderDescriptorInfo {
	t.Helper()
	i, err := descriptors.NewShaderDescriptorInfo(decls...)
	require.NoError(t, err)
	return i
}

// signature builds a one-group signature visible from the vertex and fragment stages.
func signature(t *testing.T, decls ...descriptors.DescriptorDeclaration) *descriptors.LayoutSignature {
	t.Helper()
	s := descriptors.NewLayoutSignature()
	require.NoError(t, s.AddBindings(descriptors.ShaderStageVertex|descriptors.ShaderStageFragment, 0, info(t, decls...)))
	return s
}

func (e *env) compile(t *testing.T, s *descriptors.LayoutSignature) *descriptors.CompiledLayout {
	t.Helper()
	l := descriptors.NewCompiledLayout(e.device, e.deletion, e.usage, s)
	require.NoError(t, l.Compile())
	return l
}

func materialSignature(t *testing.T) *descriptors.LayoutSignature {
	return signature(t,
		decl(0, descriptors.DescriptorTypeUniformBuffer, 1),
		decl(1, descriptors.DescriptorTypeCombinedImageSampler, 2),
	)
}
