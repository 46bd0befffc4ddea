// Package nbt implements the little-endian named binary tag format used for
// Bedrock world records: a mutable Tag tree, its binary codec and the
// persisted file layout used by level.dat.
package nbt

import "fmt"

// Type is the type byte that precedes every tag on the wire.
type Type byte

const (
	TypeEnd Type = iota
	TypeByte
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeByteArray
	TypeString
	TypeList
	TypeCompound
	TypeIntArray
	TypeLongArray
)

var typeNames = [...]string{
	TypeEnd:       "TAG_End",
	TypeByte:      "TAG_Byte",
	TypeShort:     "TAG_Short",
	TypeInt:       "TAG_Int",
	TypeLong:      "TAG_Long",
	TypeFloat:     "TAG_Float",
	TypeDouble:    "TAG_Double",
	TypeByteArray: "TAG_Byte_Array",
	TypeString:    "TAG_String",
	TypeList:      "TAG_List",
	TypeCompound:  "TAG_Compound",
	TypeIntArray:  "TAG_Int_Array",
	TypeLongArray: "TAG_Long_Array",
}

// Valid reports whether t is one of the thirteen known types.
func (t Type) Valid() bool {
	return t <= TypeLongArray
}

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("TAG_Unknown(%d)", byte(t))
}

// Container reports whether tags of type t hold child tags.
func (t Type) Container() bool {
	return t == TypeList || t == TypeCompound
}
