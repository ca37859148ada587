// Package structural computes the RIHS01 structural hash: a SHA-256 digest
// of a canonical JSON rendering of a message's field layout, tagging each
// field with a type id rather than a textual type name so that two
// independently-authored but structurally identical messages hash the same.
package structural

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/ternaris-go/typesys/diag"
	"github.com/ternaris-go/typesys/msgdef"
)

// tidmap gives the base type id contributing to type_id alongside the
// container increment. float128 and bounded_string are carried for parity
// with the sibling IDL type system even though no MSG base type produces
// them.
var tidmap = map[msgdef.BaseName]int{
	"int8": 2, "uint8": 3, "int16": 4, "uint16": 5,
	"int32": 6, "uint32": 7, "int64": 8, "uint64": 9,
	"float32": 10, "float64": 11, "float128": 12, "char": 13,
	msgdef.Bool: 15, msgdef.Octet: 16, msgdef.String: 17,
	"bounded_string": 21,
}

const nestedTypeID = 1

const (
	incrementScalar   = 0
	incrementSequence = 48
	incrementArray    = 96
	// incrementUnboundedArray applies to an ARRAY whose length is 0.
	incrementUnboundedArray = 144
)

// Store is the read side of typestore.Store this package depends on.
type Store interface {
	Get(typename string) (msgdef.Message, error)
}

type fieldType struct {
	TypeID         int    `json:"type_id"`
	Capacity       int    `json:"capacity"`
	StringCapacity int    `json:"string_capacity"`
	NestedTypeName string `json:"nested_type_name"`
}

type fieldDesc struct {
	Name string    `json:"name"`
	Type fieldType `json:"type"`
}

type structDesc struct {
	TypeName string      `json:"type_name"`
	Fields   []fieldDesc `json:"fields"`
}

type hashDoc struct {
	TypeDescription            structDesc   `json:"type_description"`
	ReferencedTypeDescriptions []structDesc `json:"referenced_type_descriptions"`
}

// Generate returns the RIHS01_<hex> structural hash for typename.
func Generate(typename string, store Store, logger diag.Logger) (string, error) {
	cache := make(map[string]*structDesc)
	if err := getStruct(typename, store, cache); err != nil {
		return "", err
	}

	referenced := make([]string, 0, len(cache))
	for name := range cache {
		if name != typename {
			referenced = append(referenced, name)
		}
	}
	sort.Strings(referenced)

	doc := hashDoc{TypeDescription: *cache[typename], ReferencedTypeDescriptions: []structDesc{}}
	for _, name := range referenced {
		doc.ReferencedTypeDescriptions = append(doc.ReferencedTypeDescriptions, *cache[name])
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	hash := "RIHS01_" + hex.EncodeToString(sum[:])

	logger.Debug("generated structural hash", map[string]interface{}{"type": typename, "hash": hash})
	return hash, nil
}

// getStruct memoizes the struct description for typename. A nil sentinel is
// stored before recursing so a self-referential type graph is caught as an
// InvariantViolation on re-entry instead of silently contributing an empty
// struct description to the hash.
func getStruct(typename string, store Store, cache map[string]*structDesc) error {
	if existing, ok := cache[typename]; ok {
		if existing == nil {
			return diag.NewInvariantViolation("cyclic type graph detected while computing structural hash", typename)
		}
		return nil
	}
	cache[typename] = nil

	msg, err := store.Get(typename)
	if err != nil {
		delete(cache, typename)
		return err
	}

	desc := structDesc{TypeName: typename}
	if len(msg.Fields) == 0 {
		desc.Fields = []fieldDesc{{
			Name: "structure_needs_at_least_one_member",
			Type: fieldType{TypeID: tidmap[msgdef.Uint8]},
		}}
	} else {
		for _, f := range msg.Fields {
			fd, err := getField(f.Name, f.Field, store, cache)
			if err != nil {
				return err
			}
			desc.Fields = append(desc.Fields, fd)
		}
	}
	cache[typename] = &desc
	return nil
}

func getField(name string, field msgdef.Field, store Store, cache map[string]*structDesc) (fieldDesc, error) {
	increment := incrementScalar
	capacity := 0
	inner := field

	switch field.Kind {
	case msgdef.FieldArray:
		increment = incrementArray
		if field.Length == 0 {
			increment = incrementUnboundedArray
		}
		capacity = field.Length
		inner = *field.Inner
	case msgdef.FieldSequence:
		increment = incrementSequence
		capacity = field.Bound
		inner = *field.Inner
	}

	t := fieldType{Capacity: capacity}
	switch inner.Kind {
	case msgdef.FieldName:
		t.TypeID = increment + nestedTypeID
		t.NestedTypeName = inner.Name
		if err := getStruct(inner.Name, store, cache); err != nil {
			return fieldDesc{}, err
		}
	case msgdef.FieldBase:
		if inner.Base == msgdef.String {
			t.StringCapacity = inner.StringBound
		}
		t.TypeID = increment + tidmap[inner.Base]
	default:
		return fieldDesc{}, diag.NewInvariantViolation("array/sequence inner field is itself an array or sequence", name)
	}

	return fieldDesc{Name: name, Type: t}, nil
}
