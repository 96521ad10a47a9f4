package recording

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldvalue"
)

// Version is the only document version this package reads.
const Version = 1

// Op names.
const (
	OpCreate      = "create"
	OpSet         = "set"
	OpBaseline    = "baseline"
	OpDelete      = "delete"
	OpTableCreate = "table_create"
	OpTableSet    = "table_set"
)

// Document is the JSON form of a recording.
type Document struct {
	Version     int          `json:"version"`
	Seekable    bool         `json:"seekable"`
	Nodes       []NodeDoc    `json:"nodes"`
	Serializers []Serializer `json:"serializers"`
	Frames      []Frame      `json:"frames"`
}

// NodeDoc declares one schema node. Children are indices into Document.Nodes.
type NodeDoc struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Children     []int32 `json:"children,omitempty"`
	DynamicArray bool    `json:"dynamic_array,omitempty"`
}

// Serializer names a root node.
type Serializer struct {
	Name string `json:"name"`
	Root int32  `json:"root"`
}

// Frame holds the ops applied at one tick.
type Frame struct {
	Tick int32 `json:"tick"`
	Ops  []Op  `json:"ops"`
}

// Op is one state change. Which fields are meaningful depends on Op.
type Op struct {
	Op       string    `json:"op"`
	Entity   int32     `json:"entity,omitempty"`
	Class    string    `json:"class,omitempty"`
	Path     []int     `json:"path,omitempty"`
	Value    *ValueDoc `json:"value,omitempty"`
	Table    string    `json:"table,omitempty"`
	Item     int       `json:"item,omitempty"`
	String   []byte    `json:"string,omitempty"`
	UserData []byte    `json:"user_data,omitempty"`
}

// ValueDoc is a tagged field value, e.g. {"kind":"Vector3","value":[1,2,3]}.
type ValueDoc struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// NewValueDoc encodes v.
func NewValueDoc(v fieldvalue.Value) (*ValueDoc, error) {
	var raw any
	switch x := v.(type) {
	case fieldvalue.I64:
		raw = int64(x)
	case fieldvalue.U64:
		raw = uint64(x)
	case fieldvalue.F32:
		raw = float32(x)
	case fieldvalue.Bool:
		raw = bool(x)
	case fieldvalue.Vector2:
		raw = x[:]
	case fieldvalue.Vector3:
		raw = x[:]
	case fieldvalue.Vector4:
		raw = x[:]
	case fieldvalue.QAngle:
		raw = x[:]
	case fieldvalue.String:
		raw = string(x)
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return &ValueDoc{Kind: v.Kind().String(), Value: b}, nil
}

// Decode converts the document value into a field value.
func (d ValueDoc) Decode() (fieldvalue.Value, error) {
	kind, ok := fieldvalue.ParseKind(d.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown value kind %q", d.Kind)
	}
	switch kind {
	case fieldvalue.KindI64:
		var v int64
		err := unmarshalValue(d, &v)
		return fieldvalue.I64(v), err
	case fieldvalue.KindU64:
		var v uint64
		err := unmarshalValue(d, &v)
		return fieldvalue.U64(v), err
	case fieldvalue.KindF32:
		var v float32
		err := unmarshalValue(d, &v)
		return fieldvalue.F32(v), err
	case fieldvalue.KindBool:
		var v bool
		err := unmarshalValue(d, &v)
		return fieldvalue.Bool(v), err
	case fieldvalue.KindVector2:
		var v [2]float32
		err := unmarshalFloats(d, v[:])
		return fieldvalue.Vector2(v), err
	case fieldvalue.KindVector3:
		var v [3]float32
		err := unmarshalFloats(d, v[:])
		return fieldvalue.Vector3(v), err
	case fieldvalue.KindVector4:
		var v [4]float32
		err := unmarshalFloats(d, v[:])
		return fieldvalue.Vector4(v), err
	case fieldvalue.KindQAngle:
		var v [3]float32
		err := unmarshalFloats(d, v[:])
		return fieldvalue.QAngle(v), err
	case fieldvalue.KindString:
		var v string
		err := unmarshalValue(d, &v)
		return fieldvalue.String(v), err
	default:
		panic(fmt.Sprintf("unhandled value kind %s", kind))
	}
}

func unmarshalValue(d ValueDoc, dst any) error {
	if err := json.Unmarshal(d.Value, dst); err != nil {
		return fmt.Errorf("decode %s value: %w", d.Kind, err)
	}
	return nil
}

func unmarshalFloats(d ValueDoc, dst []float32) error {
	var fs []float32
	if err := unmarshalValue(d, &fs); err != nil {
		return err
	}
	if len(fs) != len(dst) {
		return fmt.Errorf("decode %s value: got %d components, want %d", d.Kind, len(fs), len(dst))
	}
	copy(dst, fs)
	return nil
}
