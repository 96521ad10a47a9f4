package snapshot

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/handle"
)

// HandleTypePrefix marks declared types whose values are entity handles.
const HandleTypePrefix = "CHandle"

// EmptyString is shown for an item without a string payload.
const EmptyString = "<empty>"

// SortByPath orders records by raw path; a record whose path is a prefix of
// another comes first.
func SortByPath(records []FieldRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return bytes.Compare(records[i].RawPath, records[j].RawPath) < 0
	})
}

// JoinedNamedPath renders the named path as "a.b.c".
func (r FieldRecord) JoinedNamedPath() string {
	return strings.Join(r.NamedPath, ".")
}

// JoinedRawPath renders every raw segment right-aligned to width 4.
func (r FieldRecord) JoinedRawPath() string {
	var b strings.Builder
	for _, seg := range r.RawPath {
		fmt.Fprintf(&b, "%4d", seg)
	}
	return b.String()
}

// SlashPath renders the raw path as "1/0/12".
func (r FieldRecord) SlashPath() string {
	b := make([]byte, 0, len(r.RawPath)*4)
	for i, seg := range r.RawPath {
		if i > 0 {
			b = append(b, '/')
		}
		b = strconv.AppendUint(b, uint64(seg), 10)
	}
	return string(b)
}

// Depth returns the number of path segments.
func (r FieldRecord) Depth() int {
	return len(r.RawPath)
}

// HandleLink interprets the record as an entity handle. linked reports
// whether the declared type is a handle type; valid reports whether the value
// points at an entity, in which case index is that entity.
func (r FieldRecord) HandleLink() (index int32, linked bool, valid bool) {
	if !strings.HasPrefix(r.DeclaredType, HandleTypePrefix) {
		return 0, false, false
	}
	h, ok := parseHandle(r.Value)
	if !ok || !handle.IsValid(h) {
		return 0, true, false
	}
	return handle.ToIndex(h), true, true
}

func parseHandle(v string) (uint32, bool) {
	if u, err := strconv.ParseUint(v, 10, 32); err == nil {
		return uint32(u), true
	}
	if i, err := strconv.ParseInt(v, 10, 32); err == nil {
		return uint32(int32(i)), true
	}
	return 0, false
}

// DisplayString returns the string payload as text, or EmptyString.
func (r ItemRecord) DisplayString() string {
	if r.String == nil {
		return EmptyString
	}
	return string(r.String)
}

// HexUserData renders user data as space separated two-digit hex bytes.
func (r ItemRecord) HexUserData() string {
	if len(r.UserData) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(r.UserData) * 3)
	for i, c := range r.UserData {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}
