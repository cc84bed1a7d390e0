package compiler

import (
	"strings"
	"testing"

	"goshade/pkg/bytecode"
)

func TestSymbolTableGlobals(t *testing.T) {
	s := NewSymbolTable()

	a := s.DefineGlobal("light_dir", bytecode.TypeVec3)
	b := s.DefineGlobal("intensity", bytecode.TypeF32)
	c := s.DefineGlobal("brightness", bytecode.TypeF32)

	// One 4-byte slot per name, handed out in definition order.
	if a.Offset != 0 || b.Offset != 4 || c.Offset != 8 {
		t.Errorf("offsets = %d, %d, %d; want 0, 4, 8", a.Offset, b.Offset, c.Offset)
	}
	if !a.Static || !b.Static || !c.Static {
		t.Error("globals must be marked static")
	}
	if s.StaticSectionSize() != 12 {
		t.Errorf("StaticSectionSize() = %d, want 12", s.StaticSectionSize())
	}

	sym, ok := s.LookupGlobal("intensity")
	if !ok || sym.Offset != 4 || sym.Type != bytecode.TypeF32 {
		t.Errorf("LookupGlobal(intensity) = %+v, %v", sym, ok)
	}
	if _, ok := s.LookupGlobal("missing"); ok {
		t.Error("LookupGlobal(missing) found something")
	}
}

func TestSymbolTableGlobalsCopy(t *testing.T) {
	s := NewSymbolTable()
	s.DefineGlobal("u", bytecode.TypeF32)

	snapshot := s.Globals()
	s.DefineGlobal("v", bytecode.TypeF32)

	if len(snapshot) != 1 {
		t.Error("Globals() must return a copy, not the live table")
	}
}

func TestSymbolTableString(t *testing.T) {
	s := NewSymbolTable()
	if !strings.Contains(s.String(), "(empty)") {
		t.Errorf("empty dump = %q", s.String())
	}

	s.DefineGlobal("b", bytecode.TypeF32)
	s.DefineGlobal("a", bytecode.TypeF32)
	dump := s.String()
	// Listed in offset order, not name order.
	if strings.Index(dump, "b") > strings.Index(dump, "a ") {
		t.Errorf("dump not in offset order:\n%s", dump)
	}
}

func TestFrameLocals(t *testing.T) {
	f := newFrame()

	x := f.allocate("x", bytecode.TypeF32)
	y := f.allocate("y", bytecode.TypeVec3)

	// Local offsets start at zero in every frame.
	if x.Offset != 0 || y.Offset != 4 {
		t.Errorf("offsets = %d, %d; want 0, 4", x.Offset, y.Offset)
	}
	if x.Static || y.Static {
		t.Error("locals must not be marked static")
	}
	if f.size != 8 {
		t.Errorf("frame size = %d, want 8", f.size)
	}

	sym, ok := f.lookup("y")
	if !ok || sym.Type != bytecode.TypeVec3 {
		t.Errorf("lookup(y) = %+v, %v", sym, ok)
	}

	// A second frame starts fresh.
	g := newFrame()
	if z := g.allocate("z", bytecode.TypeF32); z.Offset != 0 {
		t.Errorf("new frame first offset = %d, want 0", z.Offset)
	}
}
