// Package recording reads pre-decoded replay dumps: a JSON document holding
// the schema arena, the class serializers and per-tick state changes. It
// implements the parser collaborator the inspector consumes, so tools and
// tests can run against real state without a demo wire decoder.
package recording

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/entity"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldpath"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldvalue"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/schema"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/stringtable"
	"github.com/louisbranch/demoscope/internal/services/inspector/parser"
)

var (
	// ErrNotSeekable indicates a backwards seek on a forward-only recording.
	ErrNotSeekable = errors.New("recording is not seekable")
	// ErrTickPastEnd indicates a target after the last recorded tick.
	ErrTickPastEnd = errors.New("tick is past the end of the recording")
	// ErrTickBeforeStart indicates a target before tick -1.
	ErrTickBeforeStart = errors.New("tick is before the start of the recording")
	// ErrTotalTicksUnknown indicates a forward-only recording, whose length
	// is not known up front.
	ErrTotalTicksUnknown = errors.New("total ticks unknown")
)

// Open reads a recording document from r.
func Open(r io.ReadSeeker) (parser.Parser, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind recording: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return Parse(data)
}

var _ parser.Opener = Open

// Parse decodes and validates a recording document.
func Parse(data []byte) (*Recording, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	return Compile(doc)
}

// Compile validates doc and returns a recording positioned before its first
// tick. Every frame is replayed once, so later seeks cannot fail on content.
func Compile(doc Document) (*Recording, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported recording version %d", doc.Version)
	}

	arena := schema.NewArena()
	for _, n := range doc.Nodes {
		children := make([]schema.NodeID, len(n.Children))
		for i, c := range n.Children {
			children[i] = schema.NodeID(c)
		}
		arena.Add(schema.Node{VarName: n.Name, VarType: n.Type, Children: children, DynamicArray: n.DynamicArray})
	}
	if err := arena.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	serializers := make(map[string]schema.Serializer, len(doc.Serializers))
	for _, s := range doc.Serializers {
		if _, ok := serializers[s.Name]; ok {
			return nil, fmt.Errorf("duplicate serializer %q", s.Name)
		}
		if _, ok := arena.Node(schema.NodeID(s.Root)); !ok {
			return nil, fmt.Errorf("serializer %q root %d is not a node", s.Name, s.Root)
		}
		serializers[s.Name] = schema.Serializer{Name: s.Name, Arena: arena, Root: schema.NodeID(s.Root)}
	}

	frames := make([]frame, 0, len(doc.Frames))
	last := int32(-1)
	for i, f := range doc.Frames {
		if f.Tick <= last {
			return nil, fmt.Errorf("frame %d: tick %d is not after tick %d", i, f.Tick, last)
		}
		last = f.Tick
		ops := make([]op, 0, len(f.Ops))
		for j, o := range f.Ops {
			compiled, err := compileOp(o, serializers)
			if err != nil {
				return nil, fmt.Errorf("frame %d (tick %d) op %d: %w", i, f.Tick, j, err)
			}
			ops = append(ops, compiled)
		}
		frames = append(frames, frame{tick: f.Tick, ops: ops})
	}

	rec := &Recording{seekable: doc.Seekable, frames: frames, state: newState()}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Recording is a parser over a compiled document.
type Recording struct {
	seekable bool
	frames   []frame
	state    *state
}

// Tick returns the current tick.
func (r *Recording) Tick() int32 {
	return r.state.tick
}

// TotalTicks returns the last recorded tick.
func (r *Recording) TotalTicks() (int32, error) {
	if !r.seekable {
		return 0, ErrTotalTicksUnknown
	}
	return r.lastTick(), nil
}

// RunToTick applies every frame up to and including target. Seeking
// backwards replays from the start.
func (r *Recording) RunToTick(target int32) error {
	if target == r.state.tick {
		return nil
	}
	if target < -1 {
		return fmt.Errorf("%w: %d", ErrTickBeforeStart, target)
	}
	if target > r.lastTick() {
		return fmt.Errorf("%w: %d > %d", ErrTickPastEnd, target, r.lastTick())
	}

	next := r.state
	if target < r.state.tick {
		if !r.seekable {
			return fmt.Errorf("%w: cannot rewind from %d to %d", ErrNotSeekable, r.state.tick, target)
		}
		next = newState()
	}
	if err := next.advance(r.frames, target); err != nil {
		return err
	}
	r.state = next
	return nil
}

// Entities returns the entity container once any frame has been applied.
func (r *Recording) Entities() (*entity.Container, bool) {
	if r.state.entities == nil {
		return nil, false
	}
	return r.state.entities, true
}

// StringTables returns the string tables once any frame has been applied.
func (r *Recording) StringTables() (*stringtable.Tables, bool) {
	if r.state.tables == nil {
		return nil, false
	}
	return r.state.tables, true
}

func (r *Recording) lastTick() int32 {
	if len(r.frames) == 0 {
		return -1
	}
	return r.frames[len(r.frames)-1].tick
}

func (r *Recording) validate() error {
	probe := newState()
	return probe.advance(r.frames, r.lastTick())
}

type frame struct {
	tick int32
	ops  []op
}

type op struct {
	kind       string
	entity     int32
	serializer schema.Serializer
	hasClass   bool
	path       fieldpath.Path
	hasPath    bool
	value      fieldvalue.Value
	table      string
	item       int
	str        []byte
	userData   []byte
}

func compileOp(o Op, serializers map[string]schema.Serializer) (op, error) {
	c := op{kind: o.Op, entity: o.Entity, table: o.Table, item: o.Item, str: o.String, userData: o.UserData}
	if o.Class != "" {
		s, ok := serializers[o.Class]
		if !ok {
			return op{}, fmt.Errorf("unknown serializer %q", o.Class)
		}
		c.serializer = s
		c.hasClass = true
	}
	if len(o.Path) > 0 {
		p, err := fieldpath.FromInts(o.Path)
		if err != nil {
			return op{}, err
		}
		c.path = p
		c.hasPath = true
	}
	if o.Value != nil {
		v, err := o.Value.Decode()
		if err != nil {
			return op{}, err
		}
		c.value = v
	}

	switch o.Op {
	case OpCreate:
		if !c.hasClass {
			return op{}, errors.New("create requires a class")
		}
	case OpSet:
		if !c.hasPath || c.value == nil {
			return op{}, errors.New("set requires a path and a value")
		}
	case OpBaseline:
		if c.hasPath != (c.value != nil) {
			return op{}, errors.New("baseline path and value go together")
		}
	case OpDelete:
	case OpTableCreate, OpTableSet:
		if o.Table == "" {
			return op{}, fmt.Errorf("%s requires a table", o.Op)
		}
		if o.Op == OpTableSet && o.Item < 0 {
			return op{}, fmt.Errorf("table_set item %d is negative", o.Item)
		}
	default:
		return op{}, fmt.Errorf("unknown op %q", o.Op)
	}
	return c, nil
}
