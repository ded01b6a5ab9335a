package descriptors

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"slices"
)

// HashPolicy selects how pool chains are keyed.
type HashPolicy uint8

const (
	// HashByUsageID keys chains by the dense usage ID: every layout with the
	// same per-type histogram shares pools.
	HashByUsageID HashPolicy = iota
	// HashByStructure keys chains by the full structural hash.
	HashByStructure
)

func ParseHashPolicy(s string) (HashPolicy, error) {
	switch s {
	case "usage_id", "":
		return HashByUsageID, nil
	case "structure":
		return HashByStructure, nil
	}
	return HashByUsageID, fmt.Errorf("unknown hash policy '%s'", s)
}

/**
 * @brief The bindings of one descriptor set (binding group).
 */
type SetLayout struct {
	Bindings []LayoutBinding
}

// LayoutSignature is the binding shape of a pipeline: its groups, the per-type
// histogram and the deduplicated usage ID. The structural hash is derived from
// the final binding lists, so the order stages were added in does not matter.
type LayoutSignature struct {
	sets    []SetLayout
	types   TypesHistogram
	usageID uint32
}

func NewLayoutSignature() *LayoutSignature {
	return &LayoutSignature{}
}

// AddBindings appends the descriptors of info to group set, visible from stage.
func (ls *LayoutSignature) AddBindings(stage ShaderStage, set int, info *ShaderDescriptorInfo) error {
	if set < 0 {
		return fmt.Errorf("%w: negative set index %d", ErrInvalidDescriptor, set)
	}
	for len(ls.sets) <= set {
		ls.sets = append(ls.sets, SetLayout{})
	}
	group := &ls.sets[set]

	for _, d := range info.Descriptors {
		if !d.Type.Valid() {
			return fmt.Errorf("%w: binding %d uses %s", ErrUnknownDescriptorType, d.Binding, d.Type)
		}
		binding := LayoutBinding{
			Binding: d.Binding,
			Type:    d.Type,
			Count:   d.Count,
			Stages:  stage,
		}

		if idx := slices.IndexFunc(group.Bindings, func(b LayoutBinding) bool { return b.Binding == d.Binding }); idx >= 0 {
			existing := &group.Bindings[idx]
			if existing.Type != d.Type || existing.Count != d.Count {
				return fmt.Errorf("%w: set %d binding %d is %s[%d], redeclared as %s[%d]",
					ErrConflictingBinding, set, d.Binding, existing.Type, existing.Count, d.Type, d.Count)
			}
			existing.Stages |= stage
		} else {
			group.Bindings = append(group.Bindings, binding)
			ls.types[d.Type] += d.Count
		}
	}
	// a new binding changes the histogram, so any cached ID is stale
	ls.usageID = 0
	return nil
}

// AddStage splits reflection output by set index and adds each group.
func (ls *LayoutSignature) AddStage(stage ShaderStage, info *ShaderDescriptorInfo) error {
	bySet := make(map[int][]DescriptorDeclaration)
	var order []int
	for _, d := range info.Descriptors {
		if _, seen := bySet[d.Set]; !seen {
			order = append(order, d.Set)
		}
		bySet[d.Set] = append(bySet[d.Set], d)
	}
	for _, set := range order {
		if err := ls.AddBindings(stage, set, &ShaderDescriptorInfo{Descriptors: bySet[set]}); err != nil {
			return err
		}
	}
	return nil
}

func hashBinding(seed uint32, set int, b LayoutBinding) uint32 {
	var buf [20]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(set))
	binary.LittleEndian.PutUint32(buf[4:], b.Binding)
	binary.LittleEndian.PutUint32(buf[8:], uint32(b.Type))
	binary.LittleEndian.PutUint32(buf[12:], b.Count)
	binary.LittleEndian.PutUint32(buf[16:], uint32(b.Stages))
	return crc32.Update(seed, crc32.IEEETable, buf[:])
}

// ComputeUsageID assigns the usage ID from cache. It does nothing when an ID
// is already assigned.
func (ls *LayoutSignature) ComputeUsageID(cache *TypesUsageCache) uint32 {
	if ls.usageID != 0 {
		return ls.usageID
	}
	ls.usageID = cache.ID(ls.types)
	return ls.usageID
}

func (ls *LayoutSignature) UsageID() uint32 {
	return ls.usageID
}

// Hash is the CRC-32 of every group's binding list. Signatures that are
// Equals hash the same.
func (ls *LayoutSignature) Hash() uint32 {
	var hash uint32
	for set, group := range ls.sets {
		for _, b := range group.Bindings {
			hash = hashBinding(hash, set, b)
		}
	}
	return hash
}

func (ls *LayoutSignature) Types() TypesHistogram {
	return ls.types
}

// TypesUsed returns the number of descriptors of type t across all groups.
func (ls *LayoutSignature) TypesUsed(t DescriptorType) uint32 {
	if !t.Valid() {
		return 0
	}
	return ls.types[t]
}

func (ls *LayoutSignature) SetCount() int {
	return len(ls.sets)
}

func (ls *LayoutSignature) Sets() []SetLayout {
	return ls.sets
}

// Key is the pool chain lookup key under policy.
func (ls *LayoutSignature) Key(policy HashPolicy) uint32 {
	if policy == HashByStructure {
		return ls.Hash()
	}
	return ls.usageID
}

// Equals compares usage IDs and the exact binding lists of every group.
func (ls *LayoutSignature) Equals(other *LayoutSignature) bool {
	if other == nil {
		return false
	}
	if ls.usageID != other.usageID || len(ls.sets) != len(other.sets) {
		return false
	}
	for i := range ls.sets {
		if !slices.Equal(ls.sets[i].Bindings, other.sets[i].Bindings) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy that can be mutated independently.
func (ls *LayoutSignature) Clone() *LayoutSignature {
	out := &LayoutSignature{
		sets:    make([]SetLayout, len(ls.sets)),
		types:   ls.types,
		usageID: ls.usageID,
	}
	for i, s := range ls.sets {
		out.sets[i].Bindings = slices.Clone(s.Bindings)
	}
	return out
}
