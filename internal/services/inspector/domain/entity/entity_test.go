package entity

import (
	"reflect"
	"testing"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldpath"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldvalue"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/schema"
)

func TestEntityInsertionOrder(t *testing.T) {
	e := New(3, schema.Serializer{Name: "CPawn"})
	paths := []fieldpath.Path{
		fieldpath.MustNew(2),
		fieldpath.MustNew(0),
		fieldpath.MustNew(1, 4),
	}
	for i, p := range paths {
		e.Set(p, fieldvalue.I64(i))
	}
	// overwrite keeps position
	e.Set(paths[0], fieldvalue.I64(99))

	var got []string
	e.Each(func(key uint64, v fieldvalue.Value) bool {
		p, ok := e.Path(key)
		if !ok {
			t.Fatalf("missing path for key %d", key)
		}
		got = append(got, p.String()+"="+v.String())
		return true
	})
	want := []string{"2=99", "0=1", "1/4=2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("iteration = %v, want %v", got, want)
	}
	if e.Len() != 3 {
		t.Fatalf("len = %d", e.Len())
	}
}

func TestEntityDelete(t *testing.T) {
	e := New(1, schema.Serializer{})
	a, b := fieldpath.MustNew(0), fieldpath.MustNew(1)
	e.Set(a, fieldvalue.Bool(true))
	e.Set(b, fieldvalue.Bool(false))

	if !e.Delete(a) {
		t.Fatal("expected delete to report removal")
	}
	if e.Delete(a) {
		t.Fatal("second delete should be a no-op")
	}
	if _, ok := e.Get(a.Key()); ok {
		t.Fatal("deleted field still readable")
	}
	if keys := e.Keys(); len(keys) != 1 || keys[0] != b.Key() {
		t.Fatalf("keys = %v", keys)
	}
}

func TestEntityEachStops(t *testing.T) {
	e := New(1, schema.Serializer{})
	e.Set(fieldpath.MustNew(0), fieldvalue.I64(1))
	e.Set(fieldpath.MustNew(1), fieldvalue.I64(2))
	calls := 0
	e.Each(func(uint64, fieldvalue.Value) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestEntityClone(t *testing.T) {
	e := New(1, schema.Serializer{})
	e.Set(fieldpath.MustNew(0), fieldvalue.I64(1))
	c := e.Clone()
	c.Set(fieldpath.MustNew(1), fieldvalue.I64(2))
	if e.Len() != 1 {
		t.Fatalf("clone mutated source: len = %d", e.Len())
	}
}

func TestContainer(t *testing.T) {
	c := NewContainer()
	c.Put(New(7, schema.Serializer{Name: "B"}))
	c.Put(New(2, schema.Serializer{Name: "A"}))
	c.PutBaseline(New(5, schema.Serializer{Name: "C"}))

	if got := c.Indices(); !reflect.DeepEqual(got, []int32{2, 7}) {
		t.Fatalf("indices = %v", got)
	}
	if got := c.BaselineIndices(); !reflect.DeepEqual(got, []int32{5}) {
		t.Fatalf("baseline indices = %v", got)
	}
	if _, ok := c.Get(5); ok {
		t.Fatal("baseline index should not be live")
	}
	if e, ok := c.Baseline(5); !ok || e.Serializer.Name != "C" {
		t.Fatalf("baseline = %v, %v", e, ok)
	}
	if !c.Remove(7) || c.Remove(7) {
		t.Fatal("remove should succeed once")
	}
}
