package schema

import (
	"fmt"
	"strconv"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/fieldpath"
)

// ResolveError describes a field path that does not fit its serializer.
type ResolveError struct {
	Serializer string
	Path       string
	Depth      int
	Reason     string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve field path %s in %s at depth %d: %s", e.Path, e.Serializer, e.Depth, e.Reason)
}

// Resolve walks s along p and returns the named path and the declared type of
// the final node.
//
// The first segment always selects a child of the root. After that, each
// segment is interpreted by the shape of the node reached so far: under a
// dynamic array it is an element index (rendered in decimal and descending
// into the element schema), otherwise it is a child ordinal (rendered as the
// child's name).
//
// Resolve panics with *ResolveError when p does not fit s.
func Resolve(s Serializer, p fieldpath.Path) ([]string, string) {
	named, typ, err := Lookup(s, p)
	if err != nil {
		panic(err)
	}
	return named, typ
}

// Lookup is Resolve for paths that have not been checked yet. It returns a
// *ResolveError instead of panicking.
func Lookup(s Serializer, p fieldpath.Path) ([]string, string, error) {
	fail := func(depth int, format string, args ...any) ([]string, string, error) {
		return nil, "", &ResolveError{Serializer: s.Name, Path: p.String(), Depth: depth, Reason: fmt.Sprintf(format, args...)}
	}
	if p.Len() == 0 {
		return fail(0, "empty path")
	}
	if _, ok := s.RootNode(); !ok {
		return fail(0, "serializer has no root node")
	}

	named := make([]string, 0, p.Len())
	current, ok := s.Arena.Child(s.Root, int(p.At(0)))
	if !ok {
		return fail(0, "root has no child %d", p.At(0))
	}
	node, ok := s.Arena.Node(current)
	if !ok {
		return fail(0, "node %d is not in the arena", current)
	}
	named = append(named, node.VarName)

	for depth := 1; depth < p.Len(); depth++ {
		seg := p.At(depth)
		label := ""
		if node.DynamicArray {
			if len(node.Children) != 1 {
				return fail(depth, "dynamic array %s has %d element schemas", node.VarName, len(node.Children))
			}
			current = node.Children[0]
			label = strconv.Itoa(int(seg))
		} else {
			child, ok := s.Arena.Child(current, int(seg))
			if !ok {
				return fail(depth, "%s has no child %d", node.VarName, seg)
			}
			current = child
		}
		if node, ok = s.Arena.Node(current); !ok {
			return fail(depth, "node %d is not in the arena", current)
		}
		if label == "" {
			label = node.VarName
		}
		named = append(named, label)
	}

	return named, node.VarType, nil
}
