package msgdef

import "strings"

// keywords is the set of reserved words a normalized field or constant name
// must not collide with: Python's keyword list, as used by the reference
// rosbags implementation.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// normalizeFieldName appends an underscore to names that collide with a
// reserved word in keywords, leaving every other name untouched.
func normalizeFieldName(name string) string {
	if keywords[name] {
		return name + "_"
	}
	return name
}

// normalizeMsgType inserts the "msg" path segment a bare or ROS1-style
// message typename is missing, e.g. "std_msgs/Header" -> "std_msgs/msg/Header".
func normalizeMsgType(name string) string {
	parts := strings.Split(name, "/")
	base := parts[len(parts)-1]
	parent := parts[:len(parts)-1]
	if len(parent) > 0 && parent[len(parent)-1] == "msg" {
		return name
	}
	out := make([]string, 0, len(parent)+2)
	out = append(out, parent...)
	out = append(out, "msg", base)
	return strings.Join(out, "/")
}

// normalizeFieldType resolves a field descriptor's NAME reference (direct or
// nested inside an ARRAY/SEQUENCE) to a fully-qualified message typename,
// using names declared alongside typename in the same batch. A bare name
// first matches another message in the batch by its leaf name, then the
// literal "Header" shorthand, then a same-package sibling, and finally falls
// back to inserting the missing "msg" segment.
func normalizeFieldType(typename string, field Field, names []string) Field {
	if field.Kind == FieldBase {
		return field
	}

	leafToFull := make(map[string]string, len(names))
	for _, n := range names {
		segs := strings.Split(n, "/")
		leafToFull[segs[len(segs)-1]] = n
	}

	inner := &field
	if field.Kind == FieldArray || field.Kind == FieldSequence {
		inner = field.Inner
	}
	if inner.Kind == FieldBase {
		return field
	}

	name := inner.Name
	switch {
	case leafToFull[name] != "":
		name = leafToFull[name]
	case name == "Header":
		name = HeaderFQN
	case !strings.Contains(name, "/"):
		segs := strings.Split(typename, "/")
		owner := strings.Join(segs[:len(segs)-1], "/")
		name = owner + "/" + name
	case !strings.Contains(name, "/msg/"):
		name = normalizeMsgType(name)
	}

	resolved := Field{Kind: FieldName, Name: name}
	if field.Kind == FieldName {
		return resolved
	}
	out := field
	out.Inner = &resolved
	return out
}
