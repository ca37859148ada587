package msgdef

// BaseName is one of the closed set of built-in scalar type names.
type BaseName string

// The closed set of base type names reachable from the MSG grammar.
const (
	Bool    BaseName = "bool"
	Octet   BaseName = "octet"
	Int8    BaseName = "int8"
	Int16   BaseName = "int16"
	Int32   BaseName = "int32"
	Int64   BaseName = "int64"
	Uint8   BaseName = "uint8"
	Uint16  BaseName = "uint16"
	Uint32  BaseName = "uint32"
	Uint64  BaseName = "uint64"
	Float32 BaseName = "float32"
	Float64 BaseName = "float64"
	String  BaseName = "string"
)

var baseTypes = map[BaseName]bool{
	Bool: true, Octet: true, Int8: true, Int16: true, Int32: true, Int64: true,
	Uint8: true, Uint16: true, Uint32: true, Uint64: true,
	Float32: true, Float64: true, String: true,
}

// Special short names that expand to a canonical fully-qualified name at
// parse time.
const (
	HeaderFQN   = "std_msgs/msg/Header"
	TimeFQN     = "builtin_interfaces/msg/Time"
	DurationFQN = "builtin_interfaces/msg/Duration"
)

// legacy aliases rewritten at parse time, and the two short names that
// expand to a canonical FQN instead of a base type.
var typeAliases = map[string]string{
	"byte":     string(Octet),
	"char":     string(Uint8),
	"time":     TimeFQN,
	"duration": DurationFQN,
}

// FieldKind discriminates the four Field variants.
type FieldKind int

const (
	// FieldBase is a scalar or string field: BASE(base_name, string_bound).
	FieldBase FieldKind = iota + 1
	// FieldName references another message type: NAME(fully_qualified_name).
	FieldName
	// FieldArray is a fixed-length array: ARRAY(inner, length), length >= 1.
	FieldArray
	// FieldSequence is a variable-length sequence: SEQUENCE(inner, bound),
	// bound == 0 means unbounded.
	FieldSequence
)

// Field is a tagged sum over the four field descriptor variants. Exactly
// the fields relevant to Kind are meaningful; the zero value of the rest is
// ignored.
type Field struct {
	Kind FieldKind

	// FieldBase
	Base        BaseName
	StringBound int

	// FieldName
	Name string

	// FieldArray / FieldSequence
	Inner  *Field
	Length int // FieldArray
	Bound  int // FieldSequence, 0 == unbounded
}

// ConstKind discriminates the four constant value shapes.
type ConstKind int

const (
	ConstInt ConstKind = iota + 1
	ConstFloat
	ConstBool
	ConstString
)

// Constant is the (name, base_type_name, value) triple of §3.
type Constant struct {
	Name string
	Base BaseName
	Kind ConstKind

	Int    int64
	Float  float64
	Bool   bool
	String string
}

// NamedField pairs a normalized field name with its descriptor.
type NamedField struct {
	Name  string
	Field Field
}

// Message is the (constants, fields) pair of §3; both lists preserve
// declaration order.
type Message struct {
	Constants []Constant
	Fields    []NamedField
}

// Dictionary maps fully-qualified type name to its message descriptor, the
// output shape of a single parse (§6 Outputs: "Type dictionary").
type Dictionary map[string]Message
