package descriptors_test

import (
	"testing"

	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageID_EqualHistogramsShareID(t *testing.T) {
	cache := descriptors.NewTypesUsageCache()

	a := signature(t,
		decl(0, descriptors.DescriptorTypeUniformBuffer, 1),
		decl(1, descriptors.DescriptorTypeSampledImage, 1),
	)
	// same per-type counts, different slots and group split
	b := descriptors.NewLayoutSignature()
	require.NoError(t, b.AddBindings(descriptors.ShaderStageFragment, 0, info(t, decl(3, descriptors.DescriptorTypeSampledImage, 1))))
	require.NoError(t, b.AddBindings(descriptors.ShaderStageVertex, 2, info(t, decl(0, descriptors.DescriptorTypeUniformBuffer, 1))))

	assert.Equal(t, a.ComputeUsageID(cache), b.ComputeUsageID(cache))
	assert.NotZero(t, a.UsageID())
	assert.False(t, a.Equals(b))
	assert.Equal(t, 1, cache.Len())
}

func TestUsageID_DistinctHistogramsNeverCollide(t *testing.T) {
	cache := descriptors.NewTypesUsageCache()
	seen := make(map[uint32]descriptors.TypesHistogram)

	for ty := descriptors.DescriptorType(0); ty < descriptors.DescriptorTypeCount; ty++ {
		for count := uint32(1); count <= 4; count++ {
			s := signature(t, decl(0, ty, count))
			id := s.ComputeUsageID(cache)
			if prev, dup := seen[id]; dup {
				t.Fatalf("usage id %d shared by %v and %v", id, prev, s.Types())
			}
			seen[id] = s.Types()
		}
	}
	assert.Len(t, seen, int(descriptors.DescriptorTypeCount)*4)
}

func TestUsageID_Idempotent(t *testing.T) {
	cache := descriptors.NewTypesUsageCache()
	s := materialSignature(t)
	id := s.ComputeUsageID(cache)

	cache.Reset()
	// already assigned, the cache is not consulted again
	assert.Equal(t, id, s.ComputeUsageID(cache))
	assert.Equal(t, 0, cache.Len())
}

func TestUsageID_DefaultCacheIsShared(t *testing.T) {
	assert.Same(t, descriptors.DefaultTypesUsageCache(), descriptors.DefaultTypesUsageCache())
}

func TestAddBindings_GrowsGroups(t *testing.T) {
	s := descriptors.NewLayoutSignature()
	require.NoError(t, s.AddBindings(descriptors.ShaderStageCompute, 2, info(t, decl(0, descriptors.DescriptorTypeStorageBuffer, 1))))

	assert.Equal(t, 3, s.SetCount())
	assert.Empty(t, s.Sets()[0].Bindings)
	assert.Empty(t, s.Sets()[1].Bindings)
	require.Len(t, s.Sets()[2].Bindings, 1)
	assert.Equal(t, descriptors.ShaderStageCompute, s.Sets()[2].Bindings[0].Stages)
	assert.Equal(t, uint32(1), s.TypesUsed(descriptors.DescriptorTypeStorageBuffer))
}

func TestAddBindings_RejectsNegativeGroup(t *testing.T) {
	s := descriptors.NewLayoutSignature()
	err := s.AddBindings(descriptors.ShaderStageVertex, -1, info(t, decl(0, descriptors.DescriptorTypeUniformBuffer, 1)))
	assert.ErrorIs(t, err, descriptors.ErrInvalidDescriptor)
}

func TestAddBindings_MergesStagesOfSharedBinding(t *testing.T) {
	s := descriptors.NewLayoutSignature()
	ubo := info(t, decl(0, descriptors.DescriptorTypeUniformBuffer, 1))
	require.NoError(t, s.AddBindings(descriptors.ShaderStageVertex, 0, ubo))
	require.NoError(t, s.AddBindings(descriptors.ShaderStageFragment, 0, ubo))

	require.Len(t, s.Sets()[0].Bindings, 1)
	assert.Equal(t, descriptors.ShaderStageVertex|descriptors.ShaderStageFragment, s.Sets()[0].Bindings[0].Stages)
	assert.Equal(t, uint32(1), s.TypesUsed(descriptors.DescriptorTypeUniformBuffer))

	err := s.AddBindings(descriptors.ShaderStageFragment, 0, info(t, decl(0, descriptors.DescriptorTypeStorageBuffer, 1)))
	assert.ErrorIs(t, err, descriptors.ErrConflictingBinding)
}

func TestAddBindings_HistogramCountsElements(t *testing.T) {
	s := signature(t,
		decl(0, descriptors.DescriptorTypeCombinedImageSampler, 4),
		decl(1, descriptors.DescriptorTypeCombinedImageSampler, 1),
	)
	assert.Equal(t, uint32(5), s.TypesUsed(descriptors.DescriptorTypeCombinedImageSampler))
	types := s.Types()
	assert.Equal(t, uint32(5), types.Total())
}

func TestAddStage_SplitsBySet(t *testing.T) {
	s := descriptors.NewLayoutSignature()
	stage := info(t,
		descriptors.DescriptorDeclaration{Binding: 0, Type: descriptors.DescriptorTypeUniformBuffer, Count: 1, Set: 1},
		descriptors.DescriptorDeclaration{Binding: 0, Type: descriptors.DescriptorTypeSampler, Count: 1, Set: 0},
		descriptors.DescriptorDeclaration{Binding: 1, Type: descriptors.DescriptorTypeSampledImage, Count: 1, Set: 1},
	)
	require.NoError(t, s.AddStage(descriptors.ShaderStageFragment, stage))

	require.Equal(t, 2, s.SetCount())
	assert.Len(t, s.Sets()[0].Bindings, 1)
	assert.Len(t, s.Sets()[1].Bindings, 2)
}

func TestEquals(t *testing.T) {
	cache := descriptors.NewTypesUsageCache()
	a := materialSignature(t)
	b := materialSignature(t)
	a.ComputeUsageID(cache)
	b.ComputeUsageID(cache)

	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equals(nil))

	c := signature(t,
		decl(0, descriptors.DescriptorTypeUniformBuffer, 1),
		decl(1, descriptors.DescriptorTypeCombinedImageSampler, 3),
	)
	c.ComputeUsageID(cache)
	assert.False(t, a.Equals(c))
	assert.NotEqual(t, a.Hash(), c.Hash())

	// same bindings, different stage visibility
	d := descriptors.NewLayoutSignature()
	require.NoError(t, d.AddBindings(descriptors.ShaderStageCompute, 0, info(t,
		decl(0, descriptors.DescriptorTypeUniformBuffer, 1),
		decl(1, descriptors.DescriptorTypeCombinedImageSampler, 2),
	)))
	d.ComputeUsageID(cache)
	assert.Equal(t, a.UsageID(), d.UsageID())
	assert.False(t, a.Equals(d))
}

func TestHash_IndependentOfStageOrder(t *testing.T) {
	cache := descriptors.NewTypesUsageCache()
	ub := info(t, decl(0, descriptors.DescriptorTypeUniformBuffer, 1))

	a := descriptors.NewLayoutSignature()
	require.NoError(t, a.AddBindings(descriptors.ShaderStageFragment, 0, ub))
	require.NoError(t, a.AddBindings(descriptors.ShaderStageVertex, 0, ub))
	require.NoError(t, a.AddBindings(descriptors.ShaderStageVertex, 0, ub))
	b := descriptors.NewLayoutSignature()
	require.NoError(t, b.AddBindings(descriptors.ShaderStageVertex|descriptors.ShaderStageFragment, 0, ub))
	a.ComputeUsageID(cache)
	b.ComputeUsageID(cache)

	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Key(descriptors.HashByStructure), b.Key(descriptors.HashByStructure))
}

func TestKeyFollowsPolicy(t *testing.T) {
	s := materialSignature(t)
	s.ComputeUsageID(descriptors.NewTypesUsageCache())

	assert.Equal(t, s.UsageID(), s.Key(descriptors.HashByUsageID))
	assert.Equal(t, s.Hash(), s.Key(descriptors.HashByStructure))

	p, err := descriptors.ParseHashPolicy("structure")
	require.NoError(t, err)
	assert.Equal(t, descriptors.HashByStructure, p)
	_, err = descriptors.ParseHashPolicy("crc")
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	s := materialSignature(t)
	c := s.Clone()
	require.NoError(t, c.AddBindings(descriptors.ShaderStageFragment, 0, info(t, decl(5, descriptors.DescriptorTypeSampler, 1))))

	assert.Len(t, s.Sets()[0].Bindings, 2)
	assert.Len(t, c.Sets()[0].Bindings, 3)
	assert.Zero(t, s.TypesUsed(descriptors.DescriptorTypeSampler))
}

func TestNewShaderDescriptorInfo_Validates(t *testing.T) {
	_, err := descriptors.NewShaderDescriptorInfo(decl(0, descriptors.DescriptorTypeCount, 1))
	assert.ErrorIs(t, err, descriptors.ErrUnknownDescriptorType)

	_, err = descriptors.NewShaderDescriptorInfo(decl(0, descriptors.DescriptorTypeSampler, 0))
	assert.ErrorIs(t, err, descriptors.ErrInvalidDescriptor)

	_, err = descriptors.NewShaderDescriptorInfo(descriptors.DescriptorDeclaration{Type: descriptors.DescriptorTypeSampler, Count: 1, Set: -2})
	assert.ErrorIs(t, err, descriptors.ErrInvalidDescriptor)

	many := make([]descriptors.DescriptorDeclaration, descriptors.MaxDescriptorsPerStage+1)
	for i := range many {
		many[i] = decl(uint32(i), descriptors.DescriptorTypeSampler, 1)
	}
	_, err = descriptors.NewShaderDescriptorInfo(many...)
	assert.ErrorIs(t, err, descriptors.ErrInvalidDescriptor)
}

func TestDescriptorTypeTraits(t *testing.T) {
	assert.Equal(t, descriptors.InfoKindImage, descriptors.DescriptorTypeInputAttachment.Info())
	assert.Equal(t, descriptors.InfoKindTexelView, descriptors.DescriptorTypeStorageTexelBuffer.Info())
	assert.Equal(t, descriptors.InfoKindBuffer, descriptors.DescriptorTypeStorageBufferDynamic.Info())
	assert.True(t, descriptors.DescriptorTypeUniformBufferDynamic.HasDynamicOffset())
	assert.False(t, descriptors.DescriptorTypeUniformBuffer.HasDynamicOffset())
	assert.Equal(t, "combined_image_sampler", descriptors.DescriptorTypeCombinedImageSampler.String())
	assert.False(t, descriptors.DescriptorType(42).Valid())
	assert.Equal(t, descriptors.InfoKind(0), descriptors.DescriptorType(42).Info())
}
