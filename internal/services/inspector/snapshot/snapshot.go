// Package snapshot builds flat, caller-owned views of entity and string table
// state. Builders never mutate their input and never return memory that
// aliases it.
package snapshot

import (
	"fmt"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/entity"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldvalue"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/schema"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/stringtable"
)

// FieldRecord is a resolved view of one entity field.
type FieldRecord struct {
	RawPath      []byte
	NamedPath    []string
	Value        string
	DeclaredType string
	RuntimeKind  string
}

// ItemRecord is a copied view of one string table item. Nil means absent.
type ItemRecord struct {
	Index    int
	String   []byte
	UserData []byte
}

// Entity returns one record per stored field of e, in the entity's iteration
// order. It serves live and baseline entities alike.
func Entity(e *entity.Entity) []FieldRecord {
	out := make([]FieldRecord, 0, e.Len())
	e.Each(func(key uint64, v fieldvalue.Value) bool {
		p, ok := e.Path(key)
		if !ok {
			panic(fmt.Sprintf("entity %d: field key %#x has no path", e.Index, key))
		}
		named, declared := schema.Resolve(e.Serializer, p)
		out = append(out, FieldRecord{
			RawPath:      p.Segments(),
			NamedPath:    named,
			Value:        v.String(),
			DeclaredType: declared,
			RuntimeKind:  v.Kind().String(),
		})
		return true
	})
	return out
}

// Table returns one record per populated item slot of t, in index order.
// Slots the parser never wrote are skipped.
func Table(t *stringtable.Table) []ItemRecord {
	out := make([]ItemRecord, 0, t.Len())
	t.Each(func(index int, it *stringtable.Item) {
		if it == nil {
			return
		}
		rec := ItemRecord{Index: index}
		if s, ok := it.String(); ok {
			rec.String = s
		}
		if ud, ok := it.UserData(); ok {
			rec.UserData = ud
		}
		out = append(out, rec)
	})
	return out
}
