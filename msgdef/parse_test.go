package msgdef

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMinimalScalar(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nint32 x\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg, ok := dict["pkg/msg/Foo"]
	if !ok {
		t.Fatalf("dictionary missing pkg/msg/Foo, got %v", dict)
	}
	want := []NamedField{{Name: "x", Field: Field{Kind: FieldBase, Base: Int32}}}
	if diff := cmp.Diff(want, msg.Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHeaderAutoResolution(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nHeader h\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := dict["pkg/msg/Foo"]
	if len(msg.Fields) != 1 || msg.Fields[0].Field.Kind != FieldName || msg.Fields[0].Field.Name != HeaderFQN {
		t.Fatalf("field = %+v, want NAME(%s)", msg.Fields, HeaderFQN)
	}
}

func TestParseBoundedStringConstant(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nstring GREET=hello world  \n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := dict["pkg/msg/Foo"]
	if len(msg.Constants) != 1 {
		t.Fatalf("Constants = %+v, want 1 entry", msg.Constants)
	}
	c := msg.Constants[0]
	if c.Name != "GREET" || c.Base != String || c.Kind != ConstString || c.String != "hello world" {
		t.Errorf("Constant = %+v, want (GREET, string, %q)", c, "hello world")
	}
}

func TestParseArrayVsSequence(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nuint8[4] a\nuint8[] b\nuint8[<=4] c\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := dict["pkg/msg/Foo"]
	if len(msg.Fields) != 3 {
		t.Fatalf("Fields = %+v, want 3 entries", msg.Fields)
	}
	base := Field{Kind: FieldBase, Base: Uint8}
	want := []NamedField{
		{Name: "a", Field: Field{Kind: FieldArray, Inner: &base, Length: 4}},
		{Name: "b", Field: Field{Kind: FieldSequence, Inner: &base, Bound: 0}},
		{Name: "c", Field: Field{Kind: FieldSequence, Inner: &base, Bound: 4}},
	}
	if diff := cmp.Diff(want, msg.Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBoundedStringField(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nstring<=10 name\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := dict["pkg/msg/Foo"]
	want := []NamedField{{Name: "name", Field: Field{Kind: FieldBase, Base: String, StringBound: 10}}}
	if diff := cmp.Diff(want, msg.Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeywordCollision(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nint32 class\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := dict["pkg/msg/Foo"]
	if len(msg.Fields) != 1 || msg.Fields[0].Name != "class_" {
		t.Fatalf("Fields = %+v, want field named class_", msg.Fields)
	}
}

func TestParseSiblingReference(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nBar b\n" + "================================================================================\n" + "MSG: pkg/Bar\nint32 x\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foo, ok := dict["pkg/msg/Foo"]
	if !ok {
		t.Fatalf("dictionary missing pkg/msg/Foo: %v", dict)
	}
	if len(foo.Fields) != 1 || foo.Fields[0].Field.Name != "pkg/msg/Bar" {
		t.Fatalf("Foo.Fields = %+v, want NAME(pkg/msg/Bar)", foo.Fields)
	}
	if _, ok := dict["pkg/msg/Bar"]; !ok {
		t.Fatalf("dictionary missing pkg/msg/Bar: %v", dict)
	}
}

func TestParseFloatAndBoolConstants(t *testing.T) {
	dict, err := Parse("MSG: pkg/Foo\nfloat64 PI=3.14\nbool FLAG=true\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := dict["pkg/msg/Foo"]
	if len(msg.Constants) != 2 {
		t.Fatalf("Constants = %+v, want 2 entries", msg.Constants)
	}
	if msg.Constants[0].Kind != ConstFloat || msg.Constants[0].Float != 3.14 {
		t.Errorf("PI constant = %+v", msg.Constants[0])
	}
	if msg.Constants[1].Kind != ConstBool || msg.Constants[1].Bool != true {
		t.Errorf("FLAG constant = %+v", msg.Constants[1])
	}
}

func TestParseInvalidInputFails(t *testing.T) {
	if _, err := Parse("not a message definition"); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}
