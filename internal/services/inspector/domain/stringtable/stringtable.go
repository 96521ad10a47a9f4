// Package stringtable models the named string tables carried by a replay.
package stringtable

// Item is one slot of a string table. Both payloads are optional.
type Item struct {
	str      []byte
	userData []byte
}

// NewItem builds an item from owned copies of s and userData. A nil slice
// means the payload is absent.
func NewItem(s, userData []byte) *Item {
	return &Item{str: clone(s), userData: clone(userData)}
}

// String returns a copy of the string payload.
func (it *Item) String() ([]byte, bool) {
	if it.str == nil {
		return nil, false
	}
	return clone(it.str), true
}

// UserData returns an independent copy of the user-data payload.
func (it *Item) UserData() ([]byte, bool) {
	if it.userData == nil {
		return nil, false
	}
	return clone(it.userData), true
}

// SetString replaces the string payload. Parser only.
func (it *Item) SetString(s []byte) {
	it.str = clone(s)
}

// SetUserData replaces the user-data payload. Parser only.
func (it *Item) SetUserData(b []byte) {
	it.userData = clone(b)
}

// Table is a named, ordered list of items.
type Table struct {
	name  string
	items []*Item
}

// NewTable returns an empty table.
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of item slots.
func (t *Table) Len() int {
	return len(t.items)
}

// Item returns the item at index. Slots that were never written are absent.
func (t *Table) Item(index int) (*Item, bool) {
	if index < 0 || index >= len(t.items) || t.items[index] == nil {
		return nil, false
	}
	return t.items[index], true
}

// Each calls fn for every item slot in index order. Unwritten slots are passed
// as nil.
func (t *Table) Each(fn func(index int, it *Item)) {
	for i, it := range t.items {
		fn(i, it)
	}
}

// Put stores it at index, growing the table as needed. Parser only.
func (t *Table) Put(index int, it *Item) {
	if index < 0 {
		return
	}
	for len(t.items) <= index {
		t.items = append(t.items, nil)
	}
	t.items[index] = it
}

// Tables is the ordered set of string tables of a session.
type Tables struct {
	tables []*Table
}

// NewTables returns an empty set.
func NewTables() *Tables {
	return &Tables{}
}

// Find returns the table named exactly name.
func (ts *Tables) Find(name string) (*Table, bool) {
	for _, t := range ts.tables {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// List returns the tables in creation order.
func (ts *Tables) List() []*Table {
	out := make([]*Table, len(ts.tables))
	copy(out, ts.tables)
	return out
}

// Create returns the table named name, creating it if needed. Parser only.
func (ts *Tables) Create(name string) *Table {
	if t, ok := ts.Find(name); ok {
		return t
	}
	t := NewTable(name)
	ts.tables = append(ts.tables, t)
	return t
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
