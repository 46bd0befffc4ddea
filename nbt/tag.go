package nbt

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrDuplicateName is returned when adding a child to a compound that
	// already holds a child with the same name.
	ErrDuplicateName = errors.New("nbt: duplicate name in compound")
	// ErrElementType is returned when a list child does not match the
	// list's element type, or a list child carries a name.
	ErrElementType = errors.New("nbt: list element type mismatch")
	// ErrAttached is returned when inserting a tag that already has a
	// parent, or that would become its own ancestor.
	ErrAttached = errors.New("nbt: tag already attached")
	// ErrNotContainer is returned when a container operation is used on a
	// tag of the wrong type.
	ErrNotContainer = errors.New("nbt: wrong container type")
)

// Tag is one node of an NBT tree. Scalar and array tags are immutable once
// created. List and Compound tags are changed only through their own
// methods, which keep compound names unique and list children homogeneous.
//
// A Tag inserted into a container remembers its parent. The parent link is
// used only by Path; equality and traversal never follow it.
type Tag struct {
	typ    Type
	name   string
	parent *Tag

	num   int64
	flt   float64
	str   string
	bytes []byte
	ints  []int32
	longs []int64

	elem     Type
	children []*Tag
	index    map[string]int
}

func NewByte(name string, v int8) *Tag     { return &Tag{typ: TypeByte, name: name, num: int64(v)} }
func NewShort(name string, v int16) *Tag   { return &Tag{typ: TypeShort, name: name, num: int64(v)} }
func NewInt(name string, v int32) *Tag     { return &Tag{typ: TypeInt, name: name, num: int64(v)} }
func NewLong(name string, v int64) *Tag    { return &Tag{typ: TypeLong, name: name, num: v} }
func NewFloat(name string, v float32) *Tag { return &Tag{typ: TypeFloat, name: name, flt: float64(v)} }
func NewDouble(name string, v float64) *Tag {
	return &Tag{typ: TypeDouble, name: name, flt: v}
}

// NewString returns a string tag. Encoding fails with stream.ErrInvalidData
// unless name and v are valid UTF-8.
func NewString(name, v string) *Tag { return &Tag{typ: TypeString, name: name, str: v} }

// NewByteArray returns a byte array tag. The tag takes ownership of v.
func NewByteArray(name string, v []byte) *Tag {
	return &Tag{typ: TypeByteArray, name: name, bytes: v}
}

// NewIntArray returns an int array tag. The tag takes ownership of v.
func NewIntArray(name string, v []int32) *Tag {
	return &Tag{typ: TypeIntArray, name: name, ints: v}
}

// NewLongArray returns a long array tag. The tag takes ownership of v.
func NewLongArray(name string, v []int64) *Tag {
	return &Tag{typ: TypeLongArray, name: name, longs: v}
}

// NewEnd returns an End tag. End tags only appear at the top level.
func NewEnd() *Tag { return &Tag{typ: TypeEnd} }

// NewCompound returns a compound holding children in order.
func NewCompound(name string, children ...*Tag) (*Tag, error) {
	t := &Tag{typ: TypeCompound, name: name, index: make(map[string]int, len(children))}
	for _, c := range children {
		if err := t.Add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewList returns a list of element type elem holding children in order.
// elem may be TypeEnd for a list whose element type is not yet known; the
// first appended child then fixes it.
func NewList(name string, elem Type, children ...*Tag) (*Tag, error) {
	if !elem.Valid() {
		return nil, fmt.Errorf("new list: element %v: %w", elem, ErrElementType)
	}
	t := &Tag{typ: TypeList, name: name, elem: elem}
	for _, c := range children {
		if err := t.Append(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustCompound is like NewCompound but panics on error.
func MustCompound(name string, children ...*Tag) *Tag {
	t, err := NewCompound(name, children...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustList is like NewList but panics on error.
func MustList(name string, elem Type, children ...*Tag) *Tag {
	t, err := NewList(name, elem, children...)
	if err != nil {
		panic(err)
	}
	return t
}

// Type returns the type of the tag. A nil tag has type TypeEnd.
func (t *Tag) Type() Type {
	if t == nil {
		return TypeEnd
	}
	return t.typ
}

// Name returns the name of the tag. List children have no name.
func (t *Tag) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Int returns the value of a Byte, Short, Int or Long tag widened to int64.
func (t *Tag) Int() (int64, bool) {
	switch t.Type() {
	case TypeByte, TypeShort, TypeInt, TypeLong:
		return t.num, true
	}
	return 0, false
}

// Float returns the value of a Float or Double tag widened to float64.
func (t *Tag) Float() (float64, bool) {
	switch t.Type() {
	case TypeFloat, TypeDouble:
		return t.flt, true
	}
	return 0, false
}

// Text returns the value of a String tag.
func (t *Tag) Text() (string, bool) {
	if t.Type() != TypeString {
		return "", false
	}
	return t.str, true
}

// ByteArray returns the value of a ByteArray tag, or nil.
func (t *Tag) ByteArray() []byte {
	if t.Type() != TypeByteArray {
		return nil
	}
	return t.bytes
}

// IntArray returns the value of an IntArray tag, or nil.
func (t *Tag) IntArray() []int32 {
	if t.Type() != TypeIntArray {
		return nil
	}
	return t.ints
}

// LongArray returns the value of a LongArray tag, or nil.
func (t *Tag) LongArray() []int64 {
	if t.Type() != TypeLongArray {
		return nil
	}
	return t.longs
}

// Value returns the payload of a scalar or array tag as its exact Go type
// (int8, int16, int32, int64, float32, float64, string, []byte, []int32,
// []int64). Containers and End return nil.
func (t *Tag) Value() any {
	switch t.Type() {
	case TypeByte:
		return int8(t.num)
	case TypeShort:
		return int16(t.num)
	case TypeInt:
		return int32(t.num)
	case TypeLong:
		return t.num
	case TypeFloat:
		return float32(t.flt)
	case TypeDouble:
		return t.flt
	case TypeString:
		return t.str
	case TypeByteArray:
		return t.bytes
	case TypeIntArray:
		return t.ints
	case TypeLongArray:
		return t.longs
	}
	return nil
}

// ElemType returns the element type of a list.
func (t *Tag) ElemType() Type {
	if t.Type() != TypeList {
		return TypeEnd
	}
	return t.elem
}

// Len returns the number of children of a container, or the number of
// elements of an array. Other tags have length 0.
func (t *Tag) Len() int {
	switch t.Type() {
	case TypeList, TypeCompound:
		return len(t.children)
	case TypeByteArray:
		return len(t.bytes)
	case TypeIntArray:
		return len(t.ints)
	case TypeLongArray:
		return len(t.longs)
	}
	return 0
}

// Children returns the children of a container in order. The returned
// slice is a copy; the tags are not.
func (t *Tag) Children() []*Tag {
	if !t.Type().Container() {
		return nil
	}
	return slices.Clone(t.children)
}

// At returns the i-th child of a container, or nil if out of range.
func (t *Tag) At(i int) *Tag {
	if !t.Type().Container() || i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

// Get returns the child of a compound named name, or nil.
func (t *Tag) Get(name string) *Tag {
	if t.Type() != TypeCompound {
		return nil
	}
	if i, ok := t.index[name]; ok {
		return t.children[i]
	}
	return nil
}

// Has reports whether a compound holds a child named name.
func (t *Tag) Has(name string) bool {
	return t.Get(name) != nil
}

// Names returns the names of a compound's children in order.
func (t *Tag) Names() []string {
	if t.Type() != TypeCompound {
		return nil
	}
	names := make([]string, len(t.children))
	for i, c := range t.children {
		names[i] = c.name
	}
	return names
}

// checkAttach verifies that c may become a child of t.
func (t *Tag) checkAttach(c *Tag) error {
	if c == nil {
		return fmt.Errorf("attach nil tag: %w", ErrNotContainer)
	}
	if c.parent != nil {
		return fmt.Errorf("attach %q: %w", c.name, ErrAttached)
	}
	for p := t; p != nil; p = p.parent {
		if p == c {
			return fmt.Errorf("attach %q to its own descendant: %w", c.name, ErrAttached)
		}
	}
	if c.typ == TypeEnd {
		return fmt.Errorf("attach TAG_End: %w", ErrElementType)
	}
	return nil
}

// Add appends c to a compound. It fails with ErrDuplicateName if a child
// with the same name exists. On a list, Add is Append.
func (t *Tag) Add(c *Tag) error {
	switch t.Type() {
	case TypeList:
		return t.Append(c)
	case TypeCompound:
	default:
		return fmt.Errorf("add to %v: %w", t.Type(), ErrNotContainer)
	}
	if err := t.checkAttach(c); err != nil {
		return err
	}
	if _, ok := t.index[c.name]; ok {
		return fmt.Errorf("add %q: %w", c.name, ErrDuplicateName)
	}
	t.attach(c)
	return nil
}

// Put adds c to a compound, replacing and detaching any child with the same
// name. The replacement keeps the position of the child it replaces.
func (t *Tag) Put(c *Tag) error {
	if t.Type() != TypeCompound {
		return fmt.Errorf("put into %v: %w", t.Type(), ErrNotContainer)
	}
	if err := t.checkAttach(c); err != nil {
		return err
	}
	if i, ok := t.index[c.name]; ok {
		t.children[i].parent = nil
		t.children[i] = c
		c.parent = t
		return nil
	}
	t.attach(c)
	return nil
}

func (t *Tag) attach(c *Tag) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[c.name] = len(t.children)
	t.children = append(t.children, c)
	c.parent = t
}

// Remove detaches and returns the child of a compound named name.
func (t *Tag) Remove(name string) *Tag {
	if t.Type() != TypeCompound {
		return nil
	}
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.RemoveAt(i)
}

// RemoveAt detaches and returns the i-th child of a container.
func (t *Tag) RemoveAt(i int) *Tag {
	c := t.At(i)
	if c == nil {
		return nil
	}
	t.children = slices.Delete(t.children, i, i+1)
	c.parent = nil
	if t.typ == TypeCompound {
		delete(t.index, c.name)
		for j := i; j < len(t.children); j++ {
			t.index[t.children[j].name] = j
		}
	}
	return c
}

// Rename changes the name of a compound's child.
func (t *Tag) Rename(from, to string) error {
	if t.Type() != TypeCompound {
		return fmt.Errorf("rename in %v: %w", t.Type(), ErrNotContainer)
	}
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("rename %q: no such child", from)
	}
	if from == to {
		return nil
	}
	if _, ok := t.index[to]; ok {
		return fmt.Errorf("rename %q to %q: %w", from, to, ErrDuplicateName)
	}
	delete(t.index, from)
	t.index[to] = i
	t.children[i].name = to
	return nil
}

// Append appends an unnamed child to a list. The child must match the
// list's element type; an empty list of element type TypeEnd adopts the
// type of its first child.
func (t *Tag) Append(c *Tag) error {
	if t.Type() != TypeList {
		return fmt.Errorf("append to %v: %w", t.Type(), ErrNotContainer)
	}
	if err := t.checkAttach(c); err != nil {
		return err
	}
	if c.name != "" {
		return fmt.Errorf("append named tag %q to list: %w", c.name, ErrElementType)
	}
	if t.elem == TypeEnd && len(t.children) == 0 {
		t.elem = c.typ
	}
	if c.typ != t.elem {
		return fmt.Errorf("append %v to list of %v: %w", c.typ, t.elem, ErrElementType)
	}
	t.children = append(t.children, c)
	c.parent = t
	return nil
}

// SetElemType changes the element type of an empty list.
func (t *Tag) SetElemType(elem Type) error {
	if t.Type() != TypeList {
		return fmt.Errorf("set element type of %v: %w", t.Type(), ErrNotContainer)
	}
	if !elem.Valid() || len(t.children) != 0 && elem != t.elem {
		return fmt.Errorf("set element type %v: %w", elem, ErrElementType)
	}
	t.elem = elem
	return nil
}

// Path returns a dotted path from the root of the tree to t, with list
// positions in brackets, for example "Level.Entities[2].id".
func (t *Tag) Path() string {
	if t == nil {
		return ""
	}
	p := t.parent
	if p == nil {
		return t.name
	}
	base := p.Path()
	if p.typ == TypeList {
		return fmt.Sprintf("%s[%d]", base, slices.Index(p.children, t))
	}
	if base == "" {
		return t.name
	}
	return base + "." + t.name
}

// Clone returns a deep, detached copy of t.
func (t *Tag) Clone() *Tag {
	if t == nil {
		return nil
	}
	c := &Tag{
		typ:   t.typ,
		name:  t.name,
		num:   t.num,
		flt:   t.flt,
		str:   t.str,
		bytes: slices.Clone(t.bytes),
		ints:  slices.Clone(t.ints),
		longs: slices.Clone(t.longs),
		elem:  t.elem,
	}
	if t.typ == TypeCompound {
		c.index = make(map[string]int, len(t.children))
	}
	for _, child := range t.children {
		cc := child.Clone()
		if c.typ == TypeCompound {
			c.index[cc.name] = len(c.children)
		}
		c.children = append(c.children, cc)
		cc.parent = c
	}
	return c
}

// Equal reports whether t and o are structurally equal: same type, name,
// value, list element type and children in the same order. Parents are
// ignored. Floats compare by bit pattern, so NaN equals itself.
func (t *Tag) Equal(o *Tag) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.typ != o.typ || t.name != o.name {
		return false
	}
	switch t.typ {
	case TypeByte, TypeShort, TypeInt, TypeLong:
		return t.num == o.num
	case TypeFloat:
		return math.Float32bits(float32(t.flt)) == math.Float32bits(float32(o.flt))
	case TypeDouble:
		return math.Float64bits(t.flt) == math.Float64bits(o.flt)
	case TypeString:
		return t.str == o.str
	case TypeByteArray:
		return bytes.Equal(t.bytes, o.bytes)
	case TypeIntArray:
		return slices.Equal(t.ints, o.ints)
	case TypeLongArray:
		return slices.Equal(t.longs, o.longs)
	case TypeList, TypeCompound:
		if t.typ == TypeList && t.elem != o.elem || len(t.children) != len(o.children) {
			return false
		}
		for i, c := range t.children {
			if !c.Equal(o.children[i]) {
				return false
			}
		}
	}
	return true
}
