package recording

import (
	"fmt"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/entity"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/schema"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/stringtable"
)

// state is the mutable replay state. A fresh state sits at tick -1 with
// neither entities nor tables.
type state struct {
	tick     int32
	applied  int
	entities *entity.Container
	tables   *stringtable.Tables
}

func newState() *state {
	return &state{tick: -1}
}

// advance applies the frames after the current position up to target.
func (s *state) advance(frames []frame, target int32) error {
	for s.applied < len(frames) && frames[s.applied].tick <= target {
		f := frames[s.applied]
		if s.entities == nil {
			s.entities = entity.NewContainer()
			s.tables = stringtable.NewTables()
		}
		for i, o := range f.ops {
			if err := s.apply(o); err != nil {
				return fmt.Errorf("tick %d op %d: %w", f.tick, i, err)
			}
		}
		s.applied++
	}
	s.tick = target
	return nil
}

func (s *state) apply(o op) error {
	switch o.kind {
	case OpCreate:
		s.entities.Put(entity.New(o.entity, o.serializer))
	case OpSet:
		e, ok := s.entities.Get(o.entity)
		if !ok {
			return fmt.Errorf("set on missing entity %d", o.entity)
		}
		if err := checkPath(e.Serializer, o); err != nil {
			return err
		}
		e.Set(o.path, o.value)
	case OpBaseline:
		e, ok := s.entities.Baseline(o.entity)
		if !ok {
			if !o.hasClass {
				return fmt.Errorf("baseline %d does not exist and names no class", o.entity)
			}
			e = entity.New(o.entity, o.serializer)
			s.entities.PutBaseline(e)
		}
		if o.hasPath {
			if err := checkPath(e.Serializer, o); err != nil {
				return err
			}
			e.Set(o.path, o.value)
		}
	case OpDelete:
		if !s.entities.Remove(o.entity) {
			return fmt.Errorf("delete of missing entity %d", o.entity)
		}
	case OpTableCreate:
		s.tables.Create(o.table)
	case OpTableSet:
		t, ok := s.tables.Find(o.table)
		if !ok {
			return fmt.Errorf("table_set on missing table %q", o.table)
		}
		t.Put(o.item, stringtable.NewItem(o.str, o.userData))
	default:
		return fmt.Errorf("unknown op %q", o.kind)
	}
	return nil
}

func checkPath(s schema.Serializer, o op) error {
	if _, _, err := schema.Lookup(s, o.path); err != nil {
		return err
	}
	return nil
}
