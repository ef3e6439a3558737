package payload

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Resolve walks doc along a dotted path such as "lead.contact.email".
//
// Every segment is an object key. Arrays are never indexed, so "items.0" on
// an array is absent. A JSON null at the end of the path is treated as
// absent. Resolve never panics, whatever the shape of doc.
func Resolve(doc Value, path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}

	current := doc
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return Value{}, false
		}
		next, ok := current.Field(segment)
		if !ok {
			return Value{}, false
		}
		current = next
	}

	if current.IsNull() {
		return Value{}, false
	}
	return current, true
}

// Paths lists the dotted paths of every leaf in doc, sorted. Arrays and
// empty objects count as leaves.
func Paths(doc Value) []string {
	var out []string
	collectPaths(doc, "", &out)
	sort.Strings(out)
	return out
}

func collectPaths(v Value, prefix string, out *[]string) {
	obj, ok := v.v.(map[string]any)
	if !ok || len(obj) == 0 {
		if prefix != "" {
			*out = append(*out, prefix)
		}
		return
	}
	for key, child := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		collectPaths(Value{v: child}, path, out)
	}
}

// Example builds a nested object from dotted paths, e.g.
// {"lead.name": "x"} becomes {"lead": {"name": "x"}}. When one path is a
// prefix of another the deeper path wins.
func Example(fields map[string]any) Value {
	root := map[string]any{}

	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		segments := strings.Split(p, ".")
		if !validSegments(segments) {
			continue
		}
		node := root
		for _, s := range segments[:len(segments)-1] {
			child, ok := node[s].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[s] = child
			}
			node = child
		}
		last := segments[len(segments)-1]
		if _, isObject := node[last].(map[string]any); isObject {
			continue
		}
		node[last] = fields[p]
	}

	return Value{v: root}
}

func validSegments(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return true
}

// ValidPath reports whether path has no empty segments.
func ValidPath(path string) bool {
	return path != "" && validSegments(strings.Split(path, "."))
}

// String renders a scalar value as text. Objects, arrays and null are not
// scalars and report false.
func String(v Value) (string, bool) {
	switch t := v.v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	}
	return "", false
}
