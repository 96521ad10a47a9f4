// Package entity holds the live and baseline entity state owned by the parser.
//
// Mutators (Set, Delete, Put*, Remove) are for the parser collaborator only;
// the inspector reads through Get, Each and the Container lookups.
package entity

import (
	"sort"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldpath"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldvalue"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/schema"
)

type field struct {
	path  fieldpath.Path
	value fieldvalue.Value
}

// Entity is a networked game object: an index, its class serializer, and the
// fields that currently hold a value.
type Entity struct {
	Index      int32
	Serializer schema.Serializer

	keys   []uint64
	fields map[uint64]field
}

// New returns an entity with no fields.
func New(index int32, s schema.Serializer) *Entity {
	return &Entity{Index: index, Serializer: s, fields: make(map[uint64]field)}
}

// Set stores v at p. An existing field keeps its position in iteration order.
func (e *Entity) Set(p fieldpath.Path, v fieldvalue.Value) {
	if e.fields == nil {
		e.fields = make(map[uint64]field)
	}
	k := p.Key()
	if _, ok := e.fields[k]; !ok {
		e.keys = append(e.keys, k)
	}
	e.fields[k] = field{path: p, value: v}
}

// Delete removes the field at p. It reports whether a field was removed.
func (e *Entity) Delete(p fieldpath.Path) bool {
	k := p.Key()
	if _, ok := e.fields[k]; !ok {
		return false
	}
	delete(e.fields, k)
	for i, existing := range e.keys {
		if existing == k {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of stored fields.
func (e *Entity) Len() int {
	return len(e.keys)
}

// Get returns the value stored under key.
func (e *Entity) Get(key uint64) (fieldvalue.Value, bool) {
	f, ok := e.fields[key]
	if !ok {
		return nil, false
	}
	return f.value, true
}

// Path returns the field path stored under key.
func (e *Entity) Path(key uint64) (fieldpath.Path, bool) {
	f, ok := e.fields[key]
	if !ok {
		return fieldpath.Path{}, false
	}
	return f.path, true
}

// Keys returns the field keys in iteration order.
func (e *Entity) Keys() []uint64 {
	out := make([]uint64, len(e.keys))
	copy(out, e.keys)
	return out
}

// Each calls fn for every field in insertion order until fn returns false.
func (e *Entity) Each(fn func(key uint64, v fieldvalue.Value) bool) {
	for _, k := range e.keys {
		if !fn(k, e.fields[k].value) {
			return
		}
	}
}

// Clone returns a deep copy of the field store. Values are immutable and
// shared.
func (e *Entity) Clone() *Entity {
	c := New(e.Index, e.Serializer)
	c.keys = append(c.keys, e.keys...)
	for k, f := range e.fields {
		c.fields[k] = f
	}
	return c
}

// Container holds the live entities and the per-index baselines.
type Container struct {
	live      map[int32]*Entity
	baselines map[int32]*Entity
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{
		live:      make(map[int32]*Entity),
		baselines: make(map[int32]*Entity),
	}
}

// Get returns the live entity at index.
func (c *Container) Get(index int32) (*Entity, bool) {
	e, ok := c.live[index]
	return e, ok
}

// Baseline returns the baseline entity at index.
func (c *Container) Baseline(index int32) (*Entity, bool) {
	e, ok := c.baselines[index]
	return e, ok
}

// Indices returns the live entity indices in ascending order.
func (c *Container) Indices() []int32 {
	return sortedKeys(c.live)
}

// BaselineIndices returns the baseline entity indices in ascending order.
func (c *Container) BaselineIndices() []int32 {
	return sortedKeys(c.baselines)
}

// Put stores a live entity, replacing any entity at the same index.
func (c *Container) Put(e *Entity) {
	c.live[e.Index] = e
}

// PutBaseline stores a baseline entity.
func (c *Container) PutBaseline(e *Entity) {
	c.baselines[e.Index] = e
}

// Remove deletes the live entity at index.
func (c *Container) Remove(index int32) bool {
	if _, ok := c.live[index]; !ok {
		return false
	}
	delete(c.live, index)
	return true
}

func sortedKeys(m map[int32]*Entity) []int32 {
	out := make([]int32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
