package nbt

import (
	"strconv"
	"strings"
)

// String formats t in the stringified NBT notation, for example
// {name:"minecraft:stone",version:18090528,states:{}}.
func (t *Tag) String() string {
	var sb strings.Builder
	t.format(&sb)
	return sb.String()
}

func (t *Tag) format(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	switch t.typ {
	case TypeEnd:
		sb.WriteString("END")
	case TypeByte:
		sb.WriteString(strconv.FormatInt(t.num, 10) + "b")
	case TypeShort:
		sb.WriteString(strconv.FormatInt(t.num, 10) + "s")
	case TypeInt:
		sb.WriteString(strconv.FormatInt(t.num, 10))
	case TypeLong:
		sb.WriteString(strconv.FormatInt(t.num, 10) + "L")
	case TypeFloat:
		sb.WriteString(strconv.FormatFloat(t.flt, 'g', -1, 32) + "f")
	case TypeDouble:
		sb.WriteString(strconv.FormatFloat(t.flt, 'g', -1, 64) + "d")
	case TypeString:
		sb.WriteString(strconv.Quote(t.str))
	case TypeByteArray:
		sb.WriteString("[B;")
		for i, v := range t.bytes {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(int(int8(v))) + "b")
		}
		sb.WriteByte(']')
	case TypeIntArray:
		sb.WriteString("[I;")
		for i, v := range t.ints {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(int64(v), 10))
		}
		sb.WriteByte(']')
	case TypeLongArray:
		sb.WriteString("[L;")
		for i, v := range t.longs {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(v, 10) + "L")
		}
		sb.WriteByte(']')
	case TypeList:
		sb.WriteByte('[')
		for i, c := range t.children {
			if i > 0 {
				sb.WriteByte(',')
			}
			c.format(sb)
		}
		sb.WriteByte(']')
	case TypeCompound:
		sb.WriteByte('{')
		for i, c := range t.children {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(formatName(c.name))
			sb.WriteByte(':')
			c.format(sb)
		}
		sb.WriteByte('}')
	}
}

func formatName(name string) string {
	if name == "" {
		return `""`
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '.' || r == '+' || r == '-') {
			return strconv.Quote(name)
		}
	}
	return name
}
