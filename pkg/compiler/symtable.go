package compiler

import (
	"fmt"
	"sort"
	"strings"

	"goshade/pkg/bytecode"
)

// slotSize is the storage granted to every declared name: one 4-byte slot
// (one VM cell), regardless of declared type width.
const slotSize = 4

// SymbolTable owns the global (static section) allocations for one
// compilation. Offsets are handed out append-only, in declaration order,
// in-parameters before out-parameters; the front-end guarantees name
// uniqueness, so no re-validation happens here.
type SymbolTable struct {
	globals    map[string]bytecode.SymbolMeta
	staticSize int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: make(map[string]bytecode.SymbolMeta)}
}

// DefineGlobal assigns the next static-section offset to name.
func (s *SymbolTable) DefineGlobal(name string, kind bytecode.TypeKind) bytecode.SymbolMeta {
	sym := bytecode.SymbolMeta{Offset: s.staticSize, Static: true, Type: kind}
	s.globals[name] = sym
	s.staticSize += slotSize
	return sym
}

// LookupGlobal returns the symbol and whether it was found.
func (s *SymbolTable) LookupGlobal(name string) (bytecode.SymbolMeta, bool) {
	sym, ok := s.globals[name]
	return sym, ok
}

// StaticSectionSize is the byte extent of all global allocations so far.
func (s *SymbolTable) StaticSectionSize() int {
	return s.staticSize
}

// Globals returns a copy of the global table for the compiled artifact.
func (s *SymbolTable) Globals() map[string]bytecode.SymbolMeta {
	out := make(map[string]bytecode.SymbolMeta, len(s.globals))
	for name, sym := range s.globals {
		out[name] = sym
	}
	return out
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.globals) == 0 {
		sb.WriteString("Globals: (empty)\n")
		return sb.String()
	}
	sb.WriteString("Globals:\n")
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return s.globals[names[i]].Offset < s.globals[names[j]].Offset
	})
	for _, name := range names {
		sym := s.globals[name]
		fmt.Fprintf(&sb, "  %-20s  Offset: %d (Type: %s)\n", name, sym.Offset, sym.Type)
	}
	return sb.String()
}

// frame tracks one function's local allocations during code generation.
// Local offsets restart at zero for every function and grow by one slot per
// new name; parameters occupy the first slots.
type frame struct {
	symbols map[string]bytecode.SymbolMeta
	size    int // bytes allocated so far, params included
}

func newFrame() *frame {
	return &frame{symbols: make(map[string]bytecode.SymbolMeta)}
}

// allocate assigns the next local offset to name. Callers must have
// checked that name is not already present.
func (f *frame) allocate(name string, kind bytecode.TypeKind) bytecode.SymbolMeta {
	sym := bytecode.SymbolMeta{Offset: f.size, Static: false, Type: kind}
	f.symbols[name] = sym
	f.size += slotSize
	return sym
}

// lookup returns the local symbol and whether it was found.
func (f *frame) lookup(name string) (bytecode.SymbolMeta, bool) {
	sym, ok := f.symbols[name]
	return sym, ok
}
