// Package parser declares what the inspector needs from the replay parser
// that owns entity and string table state.
package parser

import (
	"io"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/entity"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/stringtable"
)

// Parser is a replay stream positioned at some tick.
type Parser interface {
	// Tick returns the current tick; -1 before the first tick is applied.
	Tick() int32
	// TotalTicks returns the last tick of the stream.
	TotalTicks() (int32, error)
	// RunToTick advances (or rewinds) state so that Tick() == target. On
	// error the previous state is left intact.
	RunToTick(target int32) error
	// Entities returns the entity container, absent before the parser has
	// seen any entity state.
	Entities() (*entity.Container, bool)
	// StringTables returns the string tables, absent before the parser has
	// seen any table state.
	StringTables() (*stringtable.Tables, bool)
}

// Opener constructs a Parser over a seekable byte source.
type Opener func(r io.ReadSeeker) (Parser, error)
