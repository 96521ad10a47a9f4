package filter

import "github.com/louisbranch/demoscope/internal/services/inspector/snapshot"

// EntityResolver exposes an entity list item to Evaluate.
func EntityResolver(index int32, name string) Resolver {
	return func(field string) (any, bool) {
		switch field {
		case "index":
			return int64(index), true
		case "name":
			return name, true
		default:
			return nil, false
		}
	}
}

// RecordResolver exposes a field record to Evaluate.
func RecordResolver(r snapshot.FieldRecord) Resolver {
	return func(field string) (any, bool) {
		switch field {
		case "name":
			return r.JoinedNamedPath(), true
		case "path":
			return r.SlashPath(), true
		case "type":
			return r.DeclaredType, true
		case "kind":
			return r.RuntimeKind, true
		case "value":
			return r.Value, true
		case "depth":
			return int64(r.Depth()), true
		default:
			return nil, false
		}
	}
}

