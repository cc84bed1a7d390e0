package bytecode

import "fmt"

// Opcode identifies one VM instruction. Tags must stay below 1<<16 so they
// fit the low half of an instruction word.
type Opcode uint16

const (
	// Integer arithmetic. Reserved: the front-end's type system is
	// float-only, so no emitting path exists yet.
	OpAddI32 Opcode = iota
	OpSubI32
	OpMulI32
	OpDivI32

	// Float arithmetic. Pop two, push result (left operand pushed first).
	OpAddF32
	OpSubF32
	OpMulF32
	OpDivF32

	// OpConstF32 is followed by one raw word holding the IEEE-754 bit
	// pattern of the constant to push.
	OpConstF32
	// OpVoid pushes the empty value.
	OpVoid

	// Memory. Immediates are byte offsets, frame-relative for the local
	// pair and static-section-relative for the global pair.
	OpMov4  // pop, store to local slot
	OpLoad4 // push local slot
	OpMov4Global
	OpLoad4Global

	// Control.
	OpRet  // immediate = frame size in bytes to reclaim
	OpCall // immediate = entry address (instruction index)
	OpJmp
	OpJmpIf

	// OpCallBuiltin invokes a native function from the builtin registry.
	// Immediate = registry index; arguments are on the evaluation stack.
	OpCallBuiltin

	opcodeCount // sentinel, keep last
)

// OpcodeInfo describes an opcode for the disassembler and decode validation.
type OpcodeInfo struct {
	Name     string
	HasImm   bool // immediate field is meaningful
	Trailing int  // raw operand words following the instruction word
}

var opcodeInfoTable = [opcodeCount]OpcodeInfo{
	OpAddI32: {Name: "ADD.I32"},
	OpSubI32: {Name: "SUB.I32"},
	OpMulI32: {Name: "MUL.I32"},
	OpDivI32: {Name: "DIV.I32"},

	OpAddF32: {Name: "ADD.F32"},
	OpSubF32: {Name: "SUB.F32"},
	OpMulF32: {Name: "MUL.F32"},
	OpDivF32: {Name: "DIV.F32"},

	OpConstF32: {Name: "CONST.F32", Trailing: 1},
	OpVoid:     {Name: "VOID"},

	OpMov4:        {Name: "MOV4", HasImm: true},
	OpLoad4:       {Name: "LOAD4", HasImm: true},
	OpMov4Global:  {Name: "MOV4.G", HasImm: true},
	OpLoad4Global: {Name: "LOAD4.G", HasImm: true},

	OpRet:  {Name: "RET", HasImm: true},
	OpCall: {Name: "CALL", HasImm: true},
	OpJmp:  {Name: "JMP", HasImm: true},
	OpJmpIf: {Name: "JMPIF", HasImm: true},

	OpCallBuiltin: {Name: "CALL.B", HasImm: true},
}

// Valid reports whether op is a defined opcode tag.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

// Info returns the metadata for op.
func (op Opcode) Info() OpcodeInfo {
	if !op.Valid() {
		return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%04X)", uint16(op))}
	}
	return opcodeInfoTable[op]
}

func (op Opcode) String() string {
	return op.Info().Name
}

// Trailing returns how many raw operand words follow op's instruction word.
// Consumers must skip these when walking the stream by instruction.
func (op Opcode) Trailing() int {
	return op.Info().Trailing
}
