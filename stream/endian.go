package stream

import (
	"encoding/binary"
	"unsafe"
)

// Engine combines binary.ByteOrder and binary.AppendByteOrder. Both
// binary.LittleEndian and binary.BigEndian satisfy it.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Bedrock world data is little-endian throughout.
var LittleEndian Engine = binary.LittleEndian

// BigEndian is used by a few record ids and by Java edition data.
var BigEndian Engine = binary.BigEndian

// HostEndian returns the byte order of the machine the program runs on.
func HostEndian() Engine {
	var i uint16 = 0x0100
	if *(*byte)(unsafe.Pointer(&i)) == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// NeedsSwap reports whether values in byte order e differ in layout from
// native values on this machine. The Reader and Writer never need this
// themselves, since the Engine decodes byte by byte, but callers that
// reinterpret raw memory do.
func NeedsSwap(e Engine) bool {
	return e.String() != HostEndian().String()
}
