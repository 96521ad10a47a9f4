// Package fieldvalue models decoded entity field values.
//
// Value is a closed set of nine variants. The interface is sealed by an
// unexported method, so every variant lives in this package and every switch
// over Kind must handle all of them.
package fieldvalue

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a Value variant.
type Kind uint8

const (
	KindI64 Kind = iota + 1
	KindU64
	KindF32
	KindBool
	KindVector2
	KindVector3
	KindVector4
	KindQAngle
	KindString
)

// Kinds lists every variant in declaration order.
var Kinds = []Kind{
	KindI64, KindU64, KindF32, KindBool,
	KindVector2, KindVector3, KindVector4, KindQAngle, KindString,
}

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindI64:
		return "I64"
	case KindU64:
		return "U64"
	case KindF32:
		return "F32"
	case KindBool:
		return "Bool"
	case KindVector2:
		return "Vector2"
	case KindVector3:
		return "Vector3"
	case KindVector4:
		return "Vector4"
	case KindQAngle:
		return "QAngle"
	case KindString:
		return "String"
	default:
		panic(fmt.Sprintf("fieldvalue: unknown kind %d", k))
	}
}

// ParseKind resolves a variant name.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Value is a decoded field value.
type Value interface {
	Kind() Kind
	// String renders the display form.
	String() string
	sealed()
}

type (
	I64     int64
	U64     uint64
	F32     float32
	Bool    bool
	Vector2 [2]float32
	Vector3 [3]float32
	Vector4 [4]float32
	// QAngle holds pitch, yaw and roll in degrees.
	QAngle [3]float32
	String string
)

func (I64) Kind() Kind { return KindI64 }
func (U64) Kind() Kind { return KindU64 }
func (F32) Kind() Kind { return KindF32 }
func (Bool) Kind() Kind { return KindBool }
func (Vector2) Kind() Kind { return KindVector2 }
func (Vector3) Kind() Kind { return KindVector3 }
func (Vector4) Kind() Kind { return KindVector4 }
func (QAngle) Kind() Kind { return KindQAngle }
func (String) Kind() Kind { return KindString }

func (v I64) String() string { return strconv.FormatInt(int64(v), 10) }
func (v U64) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v F32) String() string { return formatFloat(float32(v)) }
func (v Bool) String() string { return strconv.FormatBool(bool(v)) }
func (v Vector2) String() string { return formatFloats(v[:]) }
func (v Vector3) String() string { return formatFloats(v[:]) }
func (v Vector4) String() string { return formatFloats(v[:]) }
func (v QAngle) String() string { return formatFloats(v[:]) }
func (v String) String() string { return string(v) }

func (I64) sealed() {}
func (U64) sealed() {}
func (F32) sealed() {}
func (Bool) sealed() {}
func (Vector2) sealed() {}
func (Vector3) sealed() {}
func (Vector4) sealed() {}
func (QAngle) sealed() {}
func (String) sealed() {}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func formatFloats(fs []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range fs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatFloat(f))
	}
	b.WriteByte(']')
	return b.String()
}
