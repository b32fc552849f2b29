package lower

import (
	stderrors "errors"
	"testing"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/sig"
)

func testRegistry() Registry {
	return NewRegistry([]*sig.RecordDecl{
		{Name: "Vec3", HasLayout: true, Fields: []sig.RecordField{
			{Name: "x", Type: sig.Scalar("f32")},
			{Name: "y", Type: sig.Scalar("f32")},
			{Name: "z", Type: sig.Scalar("f32")},
		}},
		{Name: "Raw", Fields: []sig.RecordField{
			{Name: "p", Type: sig.Scalar("u64")},
		}},
		{Name: "Tokenizer", Opaque: true},
	})
}

func TestLowerScalars(t *testing.T) {
	reg := testRegistry()
	cases := []struct {
		name  string
		wantC string
	}{
		{"i32", "int32_t"},
		{"u8", "uint8_t"},
		{"f64", "double"},
		{"bool", "bool"},
		{"usize", "size_t"},
	}
	for _, tc := range cases {
		l, err := Lower(sig.Scalar(tc.name), reg)
		if err != nil {
			t.Errorf("Lower(%s): %v", tc.name, err)
			continue
		}
		if l.C != tc.wantC || l.Recipe != RecipeIdentity || l.HasLen {
			t.Errorf("Lower(%s) = %+v, want C=%s identity", tc.name, l, tc.wantC)
		}
	}
}

func TestLowerSlice(t *testing.T) {
	reg := testRegistry()

	l, err := Lower(sig.Slice(sig.Scalar("i32"), false), reg)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.C != "const int32_t*" || !l.HasLen || l.Recipe != RecipePtrLen {
		t.Errorf("slice<i32> = %+v", l)
	}
	if l.Zig != "[*]const i32" {
		t.Errorf("zig spelling = %q", l.Zig)
	}

	m, err := Lower(sig.Slice(sig.Scalar("u8"), true), reg)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if m.C != "uint8_t*" || m.Zig != "[*]u8" {
		t.Errorf("mut_slice<u8> = %+v", m)
	}
}

func TestLowerText(t *testing.T) {
	l, err := Lower(sig.Text(false), testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.C != "const uint8_t*" || !l.HasLen || l.Recipe != RecipePtrLen {
		t.Errorf("str = %+v", l)
	}
}

func TestLowerFixedArray(t *testing.T) {
	l, err := Lower(sig.FixedArray(sig.Scalar("f32"), 4), testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.Recipe != RecipeArrayPtr || l.ArrayLen != 4 || l.HasLen {
		t.Errorf("[f32; 4] = %+v", l)
	}
	if l.Zig != "*const [4]f32" {
		t.Errorf("zig spelling = %q", l.Zig)
	}
}

func TestLowerRecordWithLayout(t *testing.T) {
	l, err := Lower(sig.Record("Vec3"), testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.C != "Vec3" || l.Recipe != RecipeRecordValue {
		t.Errorf("Vec3 = %+v", l)
	}
}

func TestLowerRecordMissingLayout(t *testing.T) {
	_, err := Lower(sig.Record("Raw"), testRegistry())
	if err == nil {
		t.Fatal("expected missing-layout error")
	}
	var lerr *errors.Error
	if !stderrors.As(err, &lerr) {
		t.Fatalf("error type = %T", err)
	}
	if lerr.Kind != errors.KindMissingLayout {
		t.Errorf("kind = %v", lerr.Kind)
	}
}

func TestLowerRecordNotDeclared(t *testing.T) {
	_, err := Lower(sig.Record("Ghost"), testRegistry())
	var lerr *errors.Error
	if !stderrors.As(err, &lerr) || lerr.Kind != errors.KindTypeNotDeclared {
		t.Errorf("err = %v", err)
	}
}

func TestLowerOpaqueHandle(t *testing.T) {
	l, err := Lower(sig.Record("Tokenizer"), testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.Recipe != RecipeHandle || l.C != "void*" {
		t.Errorf("opaque = %+v", l)
	}

	// A reference to an opaque record lowers the same way.
	r, err := Lower(sig.Reference(sig.Record("Tokenizer")), testRegistry())
	if err != nil {
		t.Fatalf("Lower ref: %v", err)
	}
	if r.Recipe != RecipeHandle {
		t.Errorf("ref to opaque = %+v", r)
	}
}

func TestLowerReferences(t *testing.T) {
	reg := testRegistry()

	l, err := Lower(sig.Reference(sig.Record("Vec3")), reg)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.C != "const Vec3*" || l.Recipe != RecipeRefPtr {
		t.Errorf("&Vec3 = %+v", l)
	}

	m, err := Lower(sig.MutReference(sig.Record("Vec3")), reg)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if m.C != "Vec3*" {
		t.Errorf("&mut Vec3 = %+v", m)
	}
}

func TestLowerOption(t *testing.T) {
	l, err := Lower(sig.Option(sig.Scalar("i64")), testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.Recipe != RecipeNullable || l.C != "const int64_t*" {
		t.Errorf("option<i64> = %+v", l)
	}
}

func TestLowerGenericParamRejected(t *testing.T) {
	_, err := Lower(sig.GenericParam("T"), testRegistry())
	if err == nil {
		t.Fatal("generic param must not lower")
	}
}

func TestLowerNestedSliceRejected(t *testing.T) {
	inner := sig.Slice(sig.Scalar("u8"), false)
	_, err := Lower(sig.Slice(inner, false), testRegistry())
	var lerr *errors.Error
	if !stderrors.As(err, &lerr) || lerr.Kind != errors.KindUnsupportedType {
		t.Errorf("err = %v", err)
	}
}

func TestLowerReturnRejectsViews(t *testing.T) {
	reg := testRegistry()
	if _, err := LowerReturn(sig.Slice(sig.Scalar("u8"), false), reg); err == nil {
		t.Error("returning a slice should fail")
	}
	if _, err := LowerReturn(sig.Scalar("u64"), reg); err != nil {
		t.Errorf("returning a scalar should lower: %v", err)
	}
}

func TestLowerVoid(t *testing.T) {
	l, err := Lower(sig.Void, testRegistry())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if l.C != "void" || l.Go != "" {
		t.Errorf("void = %+v", l)
	}
}
