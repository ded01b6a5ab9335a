package descriptors

import (
	"fmt"
)

// DescriptorType is the closed set of descriptor kinds a binding can hold.
// The numeric values follow VkDescriptorType.
type DescriptorType uint32

const (
	DescriptorTypeSampler DescriptorType = iota
	DescriptorTypeCombinedImageSampler
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
	DescriptorTypeUniformTexelBuffer
	DescriptorTypeStorageTexelBuffer
	DescriptorTypeUniformBuffer
	DescriptorTypeStorageBuffer
	DescriptorTypeUniformBufferDynamic
	DescriptorTypeStorageBufferDynamic
	DescriptorTypeInputAttachment

	DescriptorTypeCount
)

// InfoKind tells which resource-info array a descriptor type writes into.
type InfoKind uint8

const (
	InfoKindImage InfoKind = iota + 1
	InfoKindBuffer
	InfoKindTexelView
)

type descriptorTypeTraits struct {
	name          string
	info          InfoKind
	dynamicOffset bool
}

var descriptorTypeTable = [DescriptorTypeCount]descriptorTypeTraits{
	DescriptorTypeSampler:              {"sampler", InfoKindImage, false},
	DescriptorTypeCombinedImageSampler: {"combined_image_sampler", InfoKindImage, false},
	DescriptorTypeSampledImage:         {"sampled_image", InfoKindImage, false},
	DescriptorTypeStorageImage:         {"storage_image", InfoKindImage, false},
	DescriptorTypeUniformTexelBuffer:   {"uniform_texel_buffer", InfoKindTexelView, false},
	DescriptorTypeStorageTexelBuffer:   {"storage_texel_buffer", InfoKindTexelView, false},
	DescriptorTypeUniformBuffer:        {"uniform_buffer", InfoKindBuffer, false},
	DescriptorTypeStorageBuffer:        {"storage_buffer", InfoKindBuffer, false},
	DescriptorTypeUniformBufferDynamic: {"uniform_buffer_dynamic", InfoKindBuffer, true},
	DescriptorTypeStorageBufferDynamic: {"storage_buffer_dynamic", InfoKindBuffer, true},
	DescriptorTypeInputAttachment:      {"input_attachment", InfoKindImage, false},
}

func init() {
	// every enumerator needs an entry, a missing one is a programming error
	for t, traits := range descriptorTypeTable {
		if traits.info == 0 || traits.name == "" {
			panic(fmt.Sprintf("descriptor type %d has no traits entry", t))
		}
	}
}

func (t DescriptorType) Valid() bool {
	return t < DescriptorTypeCount
}

func (t DescriptorType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("descriptor_type(%d)", uint32(t))
	}
	return descriptorTypeTable[t].name
}

// Info returns the resource-info array the type is written through.
func (t DescriptorType) Info() InfoKind {
	if !t.Valid() {
		return 0
	}
	return descriptorTypeTable[t].info
}

// HasDynamicOffset reports whether the binding takes an offset at bind time.
func (t DescriptorType) HasDynamicOffset() bool {
	return t.Valid() && descriptorTypeTable[t].dynamicOffset
}

// ShaderStage is a bitmask of pipeline stages. Bits match VkShaderStageFlagBits.
type ShaderStage uint32

const (
	ShaderStageVertex                 ShaderStage = 0x01
	ShaderStageTessellationControl    ShaderStage = 0x02
	ShaderStageTessellationEvaluation ShaderStage = 0x04
	ShaderStageGeometry               ShaderStage = 0x08
	ShaderStageFragment               ShaderStage = 0x10
	ShaderStageCompute                ShaderStage = 0x20

	ShaderStageAllGraphics ShaderStage = 0x1f
)

// TypesHistogram counts descriptors per type across a whole layout.
type TypesHistogram [DescriptorTypeCount]uint32

func (h *TypesHistogram) Total() uint32 {
	var total uint32
	for _, c := range h {
		total += c
	}
	return total
}

/**
 * @brief A single descriptor as reported by shader reflection.
 */
type DescriptorDeclaration struct {
	/** @brief The binding slot inside its set. */
	Binding uint32
	/** @brief The kind of descriptor. */
	Type DescriptorType
	/** @brief The number of array elements (1 for non-arrays). */
	Count uint32
	/** @brief The descriptor set (binding group) the declaration belongs to. */
	Set int
}

// MaxDescriptorsPerStage bounds the declarations one shader stage can carry.
const MaxDescriptorsPerStage = 64

/**
 * @brief The ordered list of descriptors a single shader stage uses.
 */
type ShaderDescriptorInfo struct {
	Descriptors []DescriptorDeclaration
}

// NewShaderDescriptorInfo validates reflection output. Unknown descriptor types
// are rejected here so nothing downstream has to deal with them.
func NewShaderDescriptorInfo(decls ...DescriptorDeclaration) (*ShaderDescriptorInfo, error) {
	if len(decls) > MaxDescriptorsPerStage {
		return nil, fmt.Errorf("%w: %d descriptors declared, max is %d", ErrInvalidDescriptor, len(decls), MaxDescriptorsPerStage)
	}
	for i, d := range decls {
		if !d.Type.Valid() {
			return nil, fmt.Errorf("%w: declaration %d uses %s", ErrUnknownDescriptorType, i, d.Type)
		}
		if d.Count == 0 {
			return nil, fmt.Errorf("%w: declaration %d (binding %d) has zero elements", ErrInvalidDescriptor, i, d.Binding)
		}
		if d.Set < 0 {
			return nil, fmt.Errorf("%w: declaration %d has negative set index %d", ErrInvalidDescriptor, i, d.Set)
		}
	}
	out := make([]DescriptorDeclaration, len(decls))
	copy(out, decls)
	return &ShaderDescriptorInfo{Descriptors: out}, nil
}

// Counts returns how many image, buffer and texel-view infos the descriptors need.
func (info *ShaderDescriptorInfo) Counts() (images, buffers, texels int) {
	for _, d := range info.Descriptors {
		switch d.Type.Info() {
		case InfoKindImage:
			images += int(d.Count)
		case InfoKindBuffer:
			buffers += int(d.Count)
		case InfoKindTexelView:
			texels += int(d.Count)
		}
	}
	return images, buffers, texels
}

/**
 * @brief Per-pipeline descriptor limits reported by the physical device.
 */
type DeviceLimits struct {
	MaxSamplers              uint32
	MaxUniformBuffers        uint32
	MaxUniformBuffersDynamic uint32
	MaxStorageBuffers        uint32
	MaxStorageBuffersDynamic uint32
	MaxSampledImages         uint32
	MaxStorageImages         uint32
	MaxInputAttachments      uint32
}

type limitCategory struct {
	name  string
	types []DescriptorType
	limit func(DeviceLimits) uint32
}

var limitCategories = []limitCategory{
	{"samplers", []DescriptorType{DescriptorTypeSampler, DescriptorTypeCombinedImageSampler}, func(l DeviceLimits) uint32 { return l.MaxSamplers }},
	{"uniform buffers", []DescriptorType{DescriptorTypeUniformBuffer, DescriptorTypeUniformBufferDynamic}, func(l DeviceLimits) uint32 { return l.MaxUniformBuffers }},
	{"dynamic uniform buffers", []DescriptorType{DescriptorTypeUniformBufferDynamic}, func(l DeviceLimits) uint32 { return l.MaxUniformBuffersDynamic }},
	{"storage buffers", []DescriptorType{DescriptorTypeStorageBuffer, DescriptorTypeStorageBufferDynamic}, func(l DeviceLimits) uint32 { return l.MaxStorageBuffers }},
	{"dynamic storage buffers", []DescriptorType{DescriptorTypeStorageBufferDynamic}, func(l DeviceLimits) uint32 { return l.MaxStorageBuffersDynamic }},
	{"sampled images", []DescriptorType{DescriptorTypeCombinedImageSampler, DescriptorTypeSampledImage, DescriptorTypeUniformTexelBuffer}, func(l DeviceLimits) uint32 { return l.MaxSampledImages }},
	{"storage images", []DescriptorType{DescriptorTypeStorageImage, DescriptorTypeStorageTexelBuffer}, func(l DeviceLimits) uint32 { return l.MaxStorageImages }},
	{"input attachments", []DescriptorType{DescriptorTypeInputAttachment}, func(l DeviceLimits) uint32 { return l.MaxInputAttachments }},
}

// CheckLimits fails with ErrDeviceLimitExceeded on the first category whose
// total goes over what the device allows.
func (l DeviceLimits) CheckLimits(h *TypesHistogram) error {
	for _, c := range limitCategories {
		var used uint32
		for _, t := range c.types {
			used += h[t]
		}
		if allowed := c.limit(l); used > allowed {
			return fmt.Errorf("%w: %s uses %d, device allows %d", ErrDeviceLimitExceeded, c.name, used, allowed)
		}
	}
	return nil
}
