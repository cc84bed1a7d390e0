package bytecode

import (
	"fmt"
	"math"
)

// Word is one 32-bit cell of the instruction stream: opcode tag in bits
// 0-15, immediate in bits 16-31. Raw operand words (e.g. the float payload
// after CONST.F32) occupy a whole Word with no tag.
type Word uint32

// Pack builds an instruction word from an opcode and its immediate.
func Pack(op Opcode, imm uint16) Word {
	return Word(uint32(op) | uint32(imm)<<16)
}

// PackPlain builds an instruction word with a zero immediate.
func PackPlain(op Opcode) Word {
	return Pack(op, 0)
}

// PackFloat builds the raw operand word for a float constant. The bit
// pattern is preserved exactly; no rounding or reinterpretation happens.
func PackFloat(f float32) Word {
	return Word(math.Float32bits(f))
}

// Decode splits an instruction word into opcode and immediate, rejecting
// out-of-range tags. Raw operand words must never be passed here; callers
// track trailing-word counts via Opcode.Trailing.
func (w Word) Decode() (Opcode, uint16, error) {
	op := Opcode(w & 0xFFFF)
	if !op.Valid() {
		return 0, 0, fmt.Errorf("bytecode: invalid opcode tag 0x%04X", uint16(op))
	}
	return op, uint16(w >> 16), nil
}

// Float32 reinterprets a raw operand word as its IEEE-754 value.
func (w Word) Float32() float32 {
	return math.Float32frombits(uint32(w))
}
