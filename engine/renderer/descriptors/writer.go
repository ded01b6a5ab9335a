package descriptors

import (
	"fmt"
)

// NoDynamicOffset marks bindings without a dynamic offset slot.
const NoDynamicOffset = -1

/**
 * @brief One descriptor write, pointing into the writer's resource-info arrays.
 *
 * Exactly one of ImageInfo, BufferInfo and TexelViews is set, depending on Type.
 */
type WriteOp[I, B, T any] struct {
	Binding    uint32
	Type       DescriptorType
	Count      uint32
	ImageInfo  []I
	BufferInfo []B
	TexelViews []T
}

// SetupWrites emits one write per descriptor of info. Each write gets a
// window of Count elements from the info array matching its type, and the
// arrays are consumed in declaration order. dynamicSlots is indexed like
// info.Descriptors: dynamic-offset bindings get dense slot indices in
// declaration order, others get NoDynamicOffset. The number of dynamic
// offset slots is returned.
//
// writes and dynamicSlots must hold len(info.Descriptors) entries and the
// info arrays must be large enough, see ShaderDescriptorInfo.Counts.
func SetupWrites[I, B, T any](info *ShaderDescriptorInfo, writes []WriteOp[I, B, T], images []I, buffers []B, texels []T, dynamicSlots []int) int {
	dynamicOffsetIndex := 0
	for i, d := range info.Descriptors {
		w := &writes[i]
		*w = WriteOp[I, B, T]{
			Binding: d.Binding,
			Type:    d.Type,
			Count:   d.Count,
		}
		dynamicSlots[i] = NoDynamicOffset

		switch d.Type.Info() {
		case InfoKindImage:
			w.ImageInfo = images[:d.Count:d.Count]
			images = images[d.Count:]
		case InfoKindBuffer:
			// vkCmdBindDescriptorSets takes one offset per array element
			if d.Type.HasDynamicOffset() {
				dynamicSlots[i] = dynamicOffsetIndex
				dynamicOffsetIndex += int(d.Count)
			}
			w.BufferInfo = buffers[:d.Count:d.Count]
			buffers = buffers[d.Count:]
		case InfoKindTexelView:
			w.TexelViews = texels[:d.Count:d.Count]
			texels = texels[d.Count:]
		default:
			// NewShaderDescriptorInfo rejects these; getting here means the
			// binding contract was bypassed.
			panic(fmt.Sprintf("%s: %s at binding %d", ErrUnknownDescriptorType, d.Type, d.Binding))
		}
	}
	return dynamicOffsetIndex
}

// BindingWriter owns the write list and resource-info arrays for one
// descriptor set shape and tracks what changed since the last flush. I, B and
// T are the native image-info, buffer-info and texel-view types.
type BindingWriter[I comparable, B comparable, T comparable] struct {
	info           *ShaderDescriptorInfo
	writes         []WriteOp[I, B, T]
	images         []I
	buffers        []B
	texels         []T
	dynamicSlots   []int
	dynamicOffsets []uint32
	byBinding      map[uint32]int
	dirty          bool
}

// NewBindingWriter builds the writer for one descriptor set. Every
// descriptor of info must target the same set with a distinct binding index,
// writes are addressed by binding alone.
func NewBindingWriter[I comparable, B comparable, T comparable](info *ShaderDescriptorInfo) (*BindingWriter[I, B, T], error) {
	for i, d := range info.Descriptors {
		if d.Set != info.Descriptors[0].Set {
			return nil, fmt.Errorf("%w: a binding writer covers one set, declaration %d targets set %d after set %d",
				ErrInvalidDescriptor, i, d.Set, info.Descriptors[0].Set)
		}
	}
	nImages, nBuffers, nTexels := info.Counts()
	w := &BindingWriter[I, B, T]{
		info:         info,
		writes:       make([]WriteOp[I, B, T], len(info.Descriptors)),
		images:       make([]I, nImages),
		buffers:      make([]B, nBuffers),
		texels:       make([]T, nTexels),
		dynamicSlots: make([]int, len(info.Descriptors)),
		byBinding:    make(map[uint32]int, len(info.Descriptors)),
	}
	slots := SetupWrites(info, w.writes, w.images, w.buffers, w.texels, w.dynamicSlots)
	w.dynamicOffsets = make([]uint32, slots)
	for i, d := range info.Descriptors {
		if _, dup := w.byBinding[d.Binding]; dup {
			return nil, fmt.Errorf("%w: binding %d declared twice in set %d", ErrInvalidDescriptor, d.Binding, d.Set)
		}
		w.byBinding[d.Binding] = i
	}
	return w, nil
}

func (w *BindingWriter[I, B, T]) lookup(binding, element uint32, kind InfoKind) (int, error) {
	i, ok := w.byBinding[binding]
	if !ok {
		return 0, fmt.Errorf("%w: no descriptor at binding %d", ErrInvalidDescriptor, binding)
	}
	d := w.info.Descriptors[i]
	if d.Type.Info() != kind {
		return 0, fmt.Errorf("%w: binding %d is a %s", ErrInvalidDescriptor, binding, d.Type)
	}
	if element >= d.Count {
		return 0, fmt.Errorf("%w: element %d out of range for binding %d (count %d)", ErrInvalidDescriptor, element, binding, d.Count)
	}
	return i, nil
}

// WriteImage sets an image-like descriptor. It reports whether the value changed.
func (w *BindingWriter[I, B, T]) WriteImage(binding, element uint32, info I) (bool, error) {
	i, err := w.lookup(binding, element, InfoKindImage)
	if err != nil {
		return false, err
	}
	return w.mark(assign(&w.writes[i].ImageInfo[element], info)), nil
}

// WriteBuffer sets a buffer descriptor. It reports whether the value changed.
func (w *BindingWriter[I, B, T]) WriteBuffer(binding, element uint32, info B) (bool, error) {
	i, err := w.lookup(binding, element, InfoKindBuffer)
	if err != nil {
		return false, err
	}
	return w.mark(assign(&w.writes[i].BufferInfo[element], info)), nil
}

// WriteTexelView sets a texel buffer view. It reports whether the value changed.
func (w *BindingWriter[I, B, T]) WriteTexelView(binding, element uint32, view T) (bool, error) {
	i, err := w.lookup(binding, element, InfoKindTexelView)
	if err != nil {
		return false, err
	}
	return w.mark(assign(&w.writes[i].TexelViews[element], view)), nil
}

// WriteDynamicBuffer sets a dynamic buffer descriptor and the offset used at
// bind time. Changing only the offset does not dirty the set.
func (w *BindingWriter[I, B, T]) WriteDynamicBuffer(binding, element uint32, info B, offset uint32) (bool, error) {
	i, err := w.lookup(binding, element, InfoKindBuffer)
	if err != nil {
		return false, err
	}
	slot := w.dynamicSlots[i]
	if slot == NoDynamicOffset {
		return false, fmt.Errorf("%w: binding %d has no dynamic offset", ErrInvalidDescriptor, binding)
	}
	w.dynamicOffsets[slot+int(element)] = offset
	return w.mark(assign(&w.writes[i].BufferInfo[element], info)), nil
}

func assign[V comparable](dst *V, v V) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

func (w *BindingWriter[I, B, T]) mark(changed bool) bool {
	w.dirty = w.dirty || changed
	return changed
}

// Writes is the full write list, ready for the native update call.
func (w *BindingWriter[I, B, T]) Writes() []WriteOp[I, B, T] {
	return w.writes
}

// DynamicSlot returns the dynamic offset slot of the descriptor at position i.
func (w *BindingWriter[I, B, T]) DynamicSlot(i int) int {
	return w.dynamicSlots[i]
}

// DynamicOffsets is the offset array to pass when binding the set.
func (w *BindingWriter[I, B, T]) DynamicOffsets() []uint32 {
	return w.dynamicOffsets
}

// IsDirty reports whether any descriptor changed since the last ClearDirty.
func (w *BindingWriter[I, B, T]) IsDirty() bool {
	return w.dirty
}

func (w *BindingWriter[I, B, T]) ClearDirty() {
	w.dirty = false
}
