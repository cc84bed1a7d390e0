package bytecode

import (
	"math"
	"testing"
)

func TestPackDecode(t *testing.T) {
	tests := []struct {
		name string
		op   Opcode
		imm  uint16
	}{
		{"AddF32", OpAddF32, 0},
		{"Mov4WithOffset", OpMov4, 8},
		{"RetWithFrameSize", OpRet, 12},
		{"CallWithAddr", OpCall, 7},
		{"MaxImmediate", OpLoad4Global, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Pack(tt.op, tt.imm)
			op, imm, err := w.Decode()
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if op != tt.op || imm != tt.imm {
				t.Errorf("Decode() = (%s, %d), want (%s, %d)", op, imm, tt.op, tt.imm)
			}
		})
	}
}

func TestDecodeRejectsInvalidTag(t *testing.T) {
	bad := []Word{
		Word(uint32(opcodeCount)),         // first unassigned tag
		Word(0xFFFF),                      // max tag
		Word(uint32(0x1234)<<16 | 0xABCD), // garbage with a plausible immediate
	}
	for _, w := range bad {
		if _, _, err := w.Decode(); err == nil {
			t.Errorf("Decode(%#08x): expected error for invalid tag", uint32(w))
		}
	}
}

func TestPackFloatBitPattern(t *testing.T) {
	// 3.5 is 0x40600000 in IEEE-754 single precision.
	w := PackFloat(3.5)
	if uint32(w) != 0x40600000 {
		t.Errorf("PackFloat(3.5) = %#08x, want 0x40600000", uint32(w))
	}
	if got := w.Float32(); got != 3.5 {
		t.Errorf("Float32() = %v, want 3.5", got)
	}
}

func TestPackFloatRoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.25, 1e-20, float32(math.Inf(1))}
	for _, f := range values {
		if got := PackFloat(f).Float32(); got != f {
			t.Errorf("round trip %v: got %v", f, got)
		}
	}
	// NaN keeps its bit pattern even though NaN != NaN.
	nan := PackFloat(float32(math.NaN()))
	if !math.IsNaN(float64(nan.Float32())) {
		t.Error("NaN round trip lost NaN-ness")
	}
}

func TestOpcodeInfo(t *testing.T) {
	if got := OpConstF32.Trailing(); got != 1 {
		t.Errorf("CONST.F32 trailing = %d, want 1", got)
	}
	if got := OpAddF32.Trailing(); got != 0 {
		t.Errorf("ADD.F32 trailing = %d, want 0", got)
	}
	if OpMulF32.String() != "MUL.F32" {
		t.Errorf("String() = %q", OpMulF32.String())
	}
	if Opcode(0xFFFF).Valid() {
		t.Error("0xFFFF reported valid")
	}
	if name := Opcode(0xFFFF).String(); name != "UNKNOWN(0xFFFF)" {
		t.Errorf("unknown opcode String() = %q", name)
	}
}
