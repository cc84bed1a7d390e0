package bytecode

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is the current artifact format version. Increment on
// incompatible changes to the encoding or the metadata layout.
const FormatVersion uint16 = 1

// Magic bytes for compiled shader files: "GSBC" (GoShade ByteCode).
var Magic = []byte{'G', 'S', 'B', 'C'}

// WorkingMargin is added to the static section size to obtain the minimum
// stack size a VM must allocate for a program.
const WorkingMargin = 1024

// TypeKind is the declared type of a parameter, local or function result.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeF32
	TypeVec3
)

func (t TypeKind) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeF32:
		return "float"
	case TypeVec3:
		return "vec3"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(t))
	}
}

// SymbolMeta records where a declared name lives. Offsets are byte-granular
// and 4-byte aligned; one 4-byte slot per name (a slot is one VM cell).
// Created once per name and never mutated afterwards.
type SymbolMeta struct {
	Offset int      `cbor:"offset"`
	Static bool     `cbor:"static"` // static section vs. stack-local
	Type   TypeKind `cbor:"type"`
}

// FuncMeta records a function's entry point and frame layout. Addr is the
// instruction index of the first emitted instruction and never changes once
// generation of the function has begun.
type FuncMeta struct {
	Addr      int                   `cbor:"addr"`
	Params    []TypeKind            `cbor:"params"` // in declaration order
	FrameSize int                   `cbor:"frame_size"` // bytes, params included
	Result    TypeKind              `cbor:"result"`
	Symbols   map[string]SymbolMeta `cbor:"symbols"`
}

// Program is the compiled unit handed to a VM: the instruction stream plus
// the metadata a host needs to drive it. Append-only during generation,
// immutable afterwards.
type Program struct {
	Version uint16 `cbor:"version"`

	Code []Word `cbor:"code"`

	Globals map[string]SymbolMeta `cbor:"globals"`
	Funcs   map[string]FuncMeta   `cbor:"funcs"`

	// InParams and OutParams list the declared parameter names in
	// declaration order, for hosts driving the static section by name.
	InParams  []string `cbor:"in_params"`
	OutParams []string `cbor:"out_params"`

	// StaticSectionSize is the byte extent of global in/out storage.
	// MinStackSize = StaticSectionSize + WorkingMargin; the VM must
	// allocate at least this much.
	StaticSectionSize int `cbor:"static_section_size"`
	MinStackSize      int `cbor:"min_stack_size"`
}

// NewProgram returns an empty program ready for code generation.
func NewProgram() *Program {
	return &Program{
		Version: FormatVersion,
		Globals: make(map[string]SymbolMeta),
		Funcs:   make(map[string]FuncMeta),
	}
}

// Emit appends one instruction word and returns its index.
func (p *Program) Emit(op Opcode, imm uint16) int {
	p.Code = append(p.Code, Pack(op, imm))
	return len(p.Code) - 1
}

// EmitPlain appends an instruction word with a zero immediate.
func (p *Program) EmitPlain(op Opcode) int {
	return p.Emit(op, 0)
}

// EmitFloat appends a CONST.F32 instruction followed by its raw operand word.
func (p *Program) EmitFloat(f float32) {
	p.EmitPlain(OpConstF32)
	p.Code = append(p.Code, PackFloat(f))
}

// cborEncMode uses canonical options so equal programs encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes the program to its on-disk form (magic + CBOR body).
func (p *Program) Marshal() ([]byte, error) {
	body, err := cborEncMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal program: %w", err)
	}
	return append(append([]byte{}, Magic...), body...), nil
}

// Unmarshal deserializes a program written by Marshal.
func Unmarshal(data []byte) (*Program, error) {
	if !bytes.HasPrefix(data, Magic) {
		return nil, fmt.Errorf("bytecode: bad magic, not a compiled shader")
	}
	var p Program
	if err := cbor.Unmarshal(data[len(Magic):], &p); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	if p.Version != FormatVersion {
		return nil, fmt.Errorf("bytecode: unsupported format version %d", p.Version)
	}
	return &p, nil
}

// Save writes the program to path.
func (p *Program) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a program written by Save.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bytecode: cannot read %s: %w", path, err)
	}
	return Unmarshal(data)
}
