package types

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// AttrPair is one typed attribute entry. Attributes are stored as ordered
// pair lists rather than maps so that producers control ordering and the
// diffing fast path (same keys, same order) stays cheap.
type AttrPair[K comparable, V any] struct {
	Attr  K
	Value V
}

// StringAttr builds a string attribute pair.
func StringAttr(a StringAttribute, v string) AttrPair[StringAttribute, string] {
	return AttrPair[StringAttribute, string]{Attr: a, Value: v}
}

// BoolAttr builds a bool attribute pair.
func BoolAttr(a BoolAttribute, v bool) AttrPair[BoolAttribute, bool] {
	return AttrPair[BoolAttribute, bool]{Attr: a, Value: v}
}

// FloatAttr builds a float attribute pair.
func FloatAttr(a FloatAttribute, v float64) AttrPair[FloatAttribute, float64] {
	return AttrPair[FloatAttribute, float64]{Attr: a, Value: v}
}

// IntAttr builds an int attribute pair.
func IntAttr(a IntAttribute, v int32) AttrPair[IntAttribute, int32] {
	return AttrPair[IntAttribute, int32]{Attr: a, Value: v}
}

// IntListAttr builds an int-list attribute pair.
func IntListAttr(a IntListAttribute, v []int32) AttrPair[IntListAttribute, []int32] {
	return AttrPair[IntListAttribute, []int32]{Attr: a, Value: v}
}

// StringListAttr builds a string-list attribute pair.
func StringListAttr(a StringListAttribute, v []string) AttrPair[StringListAttribute, []string] {
	return AttrPair[StringListAttribute, []string]{Attr: a, Value: v}
}

// NodeData is the full serialized state of one node as carried by a
// TreeUpdate. It is a value type; the tree snapshots and replaces whole
// NodeData records during an update.
type NodeData struct {
	ID    NodeID
	Role  Role
	State State

	StringAttributes     []AttrPair[StringAttribute, string]
	BoolAttributes       []AttrPair[BoolAttribute, bool]
	FloatAttributes      []AttrPair[FloatAttribute, float64]
	IntAttributes        []AttrPair[IntAttribute, int32]
	IntListAttributes    []AttrPair[IntListAttribute, []int32]
	StringListAttributes []AttrPair[StringListAttribute, []string]

	ChildIDs       []NodeID
	RelativeBounds RelativeBounds
}

func findAttr[K comparable, V any](pairs []AttrPair[K, V], attr K) (V, bool) {
	for _, p := range pairs {
		if p.Attr == attr {
			return p.Value, true
		}
	}
	var zero V
	return zero, false
}

func setAttr[K comparable, V any](pairs []AttrPair[K, V], attr K, v V) []AttrPair[K, V] {
	for i, p := range pairs {
		if p.Attr == attr {
			pairs[i].Value = v
			return pairs
		}
	}
	return append(pairs, AttrPair[K, V]{Attr: attr, Value: v})
}

// GetStringAttribute returns the attribute value and whether it is present.
func (d *NodeData) GetStringAttribute(a StringAttribute) (string, bool) {
	return findAttr(d.StringAttributes, a)
}

// StringAttributeOr returns the attribute value or def when absent.
func (d *NodeData) StringAttributeOr(a StringAttribute, def string) string {
	if v, ok := findAttr(d.StringAttributes, a); ok {
		return v
	}
	return def
}

// GetBoolAttribute returns the attribute value and whether it is present.
func (d *NodeData) GetBoolAttribute(a BoolAttribute) (bool, bool) {
	return findAttr(d.BoolAttributes, a)
}

// BoolAttributeOr returns the attribute value or def when absent.
func (d *NodeData) BoolAttributeOr(a BoolAttribute, def bool) bool {
	if v, ok := findAttr(d.BoolAttributes, a); ok {
		return v
	}
	return def
}

// GetFloatAttribute returns the attribute value and whether it is present.
func (d *NodeData) GetFloatAttribute(a FloatAttribute) (float64, bool) {
	return findAttr(d.FloatAttributes, a)
}

// GetIntAttribute returns the attribute value and whether it is present.
func (d *NodeData) GetIntAttribute(a IntAttribute) (int32, bool) {
	return findAttr(d.IntAttributes, a)
}

// IntAttributeOr returns the attribute value or def when absent.
func (d *NodeData) IntAttributeOr(a IntAttribute, def int32) int32 {
	if v, ok := findAttr(d.IntAttributes, a); ok {
		return v
	}
	return def
}

// HasIntAttribute reports presence of the attribute.
func (d *NodeData) HasIntAttribute(a IntAttribute) bool {
	_, ok := findAttr(d.IntAttributes, a)
	return ok
}

// GetIntListAttribute returns the attribute value and whether it is present.
func (d *NodeData) GetIntListAttribute(a IntListAttribute) ([]int32, bool) {
	return findAttr(d.IntListAttributes, a)
}

// GetStringListAttribute returns the attribute value and whether it is present.
func (d *NodeData) GetStringListAttribute(a StringListAttribute) ([]string, bool) {
	return findAttr(d.StringListAttributes, a)
}

// AddStringAttribute appends or replaces the attribute. Used by builders and
// tests; the engine itself only replaces whole records.
func (d *NodeData) AddStringAttribute(a StringAttribute, v string) {
	d.StringAttributes = setAttr(d.StringAttributes, a, v)
}

// AddBoolAttribute appends or replaces the attribute.
func (d *NodeData) AddBoolAttribute(a BoolAttribute, v bool) {
	d.BoolAttributes = setAttr(d.BoolAttributes, a, v)
}

// AddFloatAttribute appends or replaces the attribute.
func (d *NodeData) AddFloatAttribute(a FloatAttribute, v float64) {
	d.FloatAttributes = setAttr(d.FloatAttributes, a, v)
}

// AddIntAttribute appends or replaces the attribute.
func (d *NodeData) AddIntAttribute(a IntAttribute, v int32) {
	d.IntAttributes = setAttr(d.IntAttributes, a, v)
}

// AddIntListAttribute appends or replaces the attribute.
func (d *NodeData) AddIntListAttribute(a IntListAttribute, v []int32) {
	d.IntListAttributes = setAttr(d.IntListAttributes, a, v)
}

// AddStringListAttribute appends or replaces the attribute.
func (d *NodeData) AddStringListAttribute(a StringListAttribute, v []string) {
	d.StringListAttributes = setAttr(d.StringListAttributes, a, v)
}

// HasState reports whether the state bit is set.
func (d *NodeData) HasState(s State) bool { return d.State.Has(s) }

// Equal reports deep equality of two node records, attribute order included.
func (d *NodeData) Equal(o *NodeData) bool {
	if d.ID != o.ID || d.Role != o.Role || d.State != o.State {
		return false
	}
	if !slices.Equal(d.StringAttributes, o.StringAttributes) ||
		!slices.Equal(d.BoolAttributes, o.BoolAttributes) ||
		!slices.Equal(d.FloatAttributes, o.FloatAttributes) ||
		!slices.Equal(d.IntAttributes, o.IntAttributes) {
		return false
	}
	eqIntList := func(a, b AttrPair[IntListAttribute, []int32]) bool {
		return a.Attr == b.Attr && slices.Equal(a.Value, b.Value)
	}
	eqStrList := func(a, b AttrPair[StringListAttribute, []string]) bool {
		return a.Attr == b.Attr && slices.Equal(a.Value, b.Value)
	}
	return slices.EqualFunc(d.IntListAttributes, o.IntListAttributes, eqIntList) &&
		slices.EqualFunc(d.StringListAttributes, o.StringListAttributes, eqStrList) &&
		slices.Equal(d.ChildIDs, o.ChildIDs) &&
		d.RelativeBounds == o.RelativeBounds
}

// Hash returns a content digest of the record. Two records with equal
// hashes are treated as identical; the digest covers every field in a
// canonical binary encoding.
func (d *NodeData) Hash() uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:8], v)
		h.Write(buf[:8])
	}
	writeStr := func(s string) {
		writeU32(uint32(len(s)))
		h.WriteString(s)
	}

	writeU32(uint32(d.ID))
	writeU32(uint32(d.Role))
	writeU32(uint32(d.State))
	for _, p := range d.StringAttributes {
		writeU32(uint32(p.Attr))
		writeStr(p.Value)
	}
	for _, p := range d.BoolAttributes {
		writeU32(uint32(p.Attr))
		if p.Value {
			writeU32(1)
		} else {
			writeU32(0)
		}
	}
	for _, p := range d.FloatAttributes {
		writeU32(uint32(p.Attr))
		writeU64(uint64(int64(p.Value * 1e6)))
	}
	for _, p := range d.IntAttributes {
		writeU32(uint32(p.Attr))
		writeU32(uint32(p.Value))
	}
	for _, p := range d.IntListAttributes {
		writeU32(uint32(p.Attr))
		writeU32(uint32(len(p.Value)))
		for _, v := range p.Value {
			writeU32(uint32(v))
		}
	}
	for _, p := range d.StringListAttributes {
		writeU32(uint32(p.Attr))
		writeU32(uint32(len(p.Value)))
		for _, v := range p.Value {
			writeStr(v)
		}
	}
	writeU32(uint32(len(d.ChildIDs)))
	for _, id := range d.ChildIDs {
		writeU32(uint32(id))
	}
	writeU32(uint32(d.RelativeBounds.OffsetContainerID))
	writeU64(uint64(int64(d.RelativeBounds.Bounds.X * 1e3)))
	writeU64(uint64(int64(d.RelativeBounds.Bounds.Y * 1e3)))
	writeU64(uint64(int64(d.RelativeBounds.Bounds.Width * 1e3)))
	writeU64(uint64(int64(d.RelativeBounds.Bounds.Height * 1e3)))
	return h.Sum64()
}

// Clone returns a deep copy; list-valued attribute slices are copied.
func (d *NodeData) Clone() NodeData {
	out := *d
	out.StringAttributes = slices.Clone(d.StringAttributes)
	out.BoolAttributes = slices.Clone(d.BoolAttributes)
	out.FloatAttributes = slices.Clone(d.FloatAttributes)
	out.IntAttributes = slices.Clone(d.IntAttributes)
	out.IntListAttributes = slices.Clone(d.IntListAttributes)
	for i, p := range out.IntListAttributes {
		out.IntListAttributes[i].Value = slices.Clone(p.Value)
	}
	out.StringListAttributes = slices.Clone(d.StringListAttributes)
	for i, p := range out.StringListAttributes {
		out.StringListAttributes[i].Value = slices.Clone(p.Value)
	}
	out.ChildIDs = slices.Clone(d.ChildIDs)
	return out
}

func (d *NodeData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%d %s", d.ID, d.Role)
	if d.State != 0 {
		fmt.Fprintf(&b, " states=%s", d.State)
	}
	if name, ok := d.GetStringAttribute(StringAttrName); ok {
		fmt.Fprintf(&b, " name=%q", name)
	}
	if len(d.ChildIDs) > 0 {
		fmt.Fprintf(&b, " child_ids=%v", d.ChildIDs)
	}
	return b.String()
}
