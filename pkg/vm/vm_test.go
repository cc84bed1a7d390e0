package vm

import (
	"math"
	"strings"
	"testing"

	"goshade/pkg/builtins"
	"goshade/pkg/bytecode"
	"goshade/pkg/compiler"
)

// newMachine compiles src against the default registry and returns a ready VM.
func newMachine(t *testing.T, src string) *VM {
	t.Helper()
	reg := builtins.Default()
	prog, err := compiler.Compile(src, ".", reg)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return New(prog, reg)
}

// runFloat invokes main() and fails unless the result is a float.
func runFloat(t *testing.T, m *VM) float32 {
	t.Helper()
	v, err := m.Invoke("main")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if v.Kind != bytecode.TypeF32 {
		t.Fatalf("result kind = %s, want float", v.Kind)
	}
	return v.F
}

func approx(t *testing.T, got, want float32) {
	t.Helper()
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want float32
	}{
		// Operands are variables so nothing folds away at compile time.
		{"Add", `in float a; in float b; float main() { return a + b; }`, 7},
		{"Sub", `in float a; in float b; float main() { return a - b; }`, -1},
		{"Mul", `in float a; in float b; float main() { return a * b; }`, 12},
		{"Div", `in float a; in float b; float main() { return a / b; }`, 0.75},
		{"Precedence", `in float a; in float b; float main() { return a + b * b; }`, 19},
		{"UnaryMinus", `in float a; in float b; float main() { return -a; }`, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, tt.src)
			if err := m.SetFloat("a", 3); err != nil {
				t.Fatal(err)
			}
			if err := m.SetFloat("b", 4); err != nil {
				t.Fatal(err)
			}
			approx(t, runFloat(t, m), tt.want)
		})
	}
}

func TestFoldedConstantsExecute(t *testing.T) {
	m := newMachine(t, `float main() { return 2.0 + 3.0 * 4.0; }`)
	approx(t, runFloat(t, m), 14)
}

func TestOutParameters(t *testing.T) {
	src := `in vec3 light_dir;
out float brightness;

float main() {
    brightness = dot(normalize(vec3(0.0, 1.0, 0.0)), normalize(light_dir));
    return brightness;
}
`
	m := newMachine(t, src)
	if err := m.SetVec3("light_dir", 0, 2, 0); err != nil {
		t.Fatal(err)
	}

	approx(t, runFloat(t, m), 1)

	got, err := m.GetFloat("brightness")
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, 1)
}

func TestOutParametersPersistAcrossInvokes(t *testing.T) {
	src := `in float u;
out float doubled;
float main() {
    doubled = u + u;
    return doubled;
}
`
	m := newMachine(t, src)

	for _, u := range []float32{1, 2.5, -3} {
		if err := m.SetFloat("u", u); err != nil {
			t.Fatal(err)
		}
		approx(t, runFloat(t, m), 2*u)
		got, err := m.GetFloat("doubled")
		if err != nil {
			t.Fatal(err)
		}
		approx(t, got, 2*u)
	}
}

func TestLocals(t *testing.T) {
	src := `in float u;
float main() {
    a = u * 2.0;
    b = a + 1.0;
    a = b - u;
    return a;
}
`
	m := newMachine(t, src)
	if err := m.SetFloat("u", 10); err != nil {
		t.Fatal(err)
	}
	// a=20, b=21, a=11
	approx(t, runFloat(t, m), 11)
}

func TestUserFunctionCall(t *testing.T) {
	src := `float double_it(float x) { return x + x; }
float main() { return double_it(21.0); }
`
	m := newMachine(t, src)
	approx(t, runFloat(t, m), 42)
}

func TestNestedCalls(t *testing.T) {
	src := `float add(float a, float b) { return a + b; }
float scale(float x, float k) {
    tmp = add(x, x);
    return tmp * k;
}
float main() { return scale(add(1.0, 2.0), 10.0); }
`
	m := newMachine(t, src)
	// add(1,2)=3, scale(3,10): tmp=6, 6*10=60
	approx(t, runFloat(t, m), 60)
}

func TestFunctionArguments(t *testing.T) {
	src := `in float u;
float main(float x, float y) { return x - y + u; }
`
	m := newMachine(t, src)
	if err := m.SetFloat("u", 100); err != nil {
		t.Fatal(err)
	}

	v, err := m.Invoke("main", builtins.Float(7), builtins.Float(3))
	if err != nil {
		t.Fatal(err)
	}
	approx(t, v.F, 104)
}

func TestImplicitVoidReturn(t *testing.T) {
	src := `out float y;
void setup() { y = 5.0; }
`
	m := newMachine(t, src)
	v, err := m.Invoke("setup")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != bytecode.TypeVoid {
		t.Errorf("result kind = %s, want void", v.Kind)
	}
	got, err := m.GetFloat("y")
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, 5)
}

func TestVectors(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		m := newMachine(t, `float main() { return length(vec3(3.0, 0.0, 4.0)); }`)
		approx(t, runFloat(t, m), 5)
	})

	t.Run("ScalarTimesVector", func(t *testing.T) {
		src := `out vec3 c;
float main() {
    c = 2.0 * vec3(1.0, 2.0, 3.0);
    return 0.0;
}
`
		m := newMachine(t, src)
		runFloat(t, m)
		v, err := m.GetVec3("c")
		if err != nil {
			t.Fatal(err)
		}
		if v != (builtins.Vec3{2, 4, 6}) {
			t.Errorf("c = %v, want vec3(2, 4, 6)", v)
		}
	})

	t.Run("VectorArithmeticChain", func(t *testing.T) {
		src := `float main() {
    v = vec3(1.0, 2.0, 3.0) + vec3(3.0, 2.0, 1.0);
    w = v - vec3(4.0, 4.0, 0.0);
    return length(w);
}
`
		m := newMachine(t, src)
		// v=(4,4,4), w=(0,0,4)
		approx(t, runFloat(t, m), 4)
	})

	t.Run("NegatedVector", func(t *testing.T) {
		src := `in vec3 v;
float main() { return dot(-v, v); }
`
		m := newMachine(t, src)
		if err := m.SetVec3("v", 1, 2, 2); err != nil {
			t.Fatal(err)
		}
		approx(t, runFloat(t, m), -9)
	})
}

func TestBuiltinRuntimeError(t *testing.T) {
	src := `in vec3 v;
float main() { return length(normalize(v)); }
`
	m := newMachine(t, src)
	if err := m.SetVec3("v", 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	_, err := m.Invoke("main")
	if err == nil || !strings.Contains(err.Error(), "normalize") {
		t.Errorf("error = %v, want normalize failure", err)
	}
}

func TestRuntimeDivisionByZero(t *testing.T) {
	// Constant folding rejects literal zero divisors; a zero arriving
	// through an in-parameter reaches the float divide and yields +Inf,
	// matching IEEE semantics.
	src := `in float d;
float main() { return 1.0 / d; }
`
	m := newMachine(t, src)
	if err := m.SetFloat("d", 0); err != nil {
		t.Fatal(err)
	}
	got := runFloat(t, m)
	if !math.IsInf(float64(got), 1) {
		t.Errorf("1/0 = %v, want +Inf", got)
	}
}

func TestInvokeErrors(t *testing.T) {
	m := newMachine(t, `float main() { return 0.0; }`)

	t.Run("UnknownFunction", func(t *testing.T) {
		if _, err := m.Invoke("nope"); err == nil {
			t.Error("expected error for unknown function")
		}
	})

	t.Run("WrongArity", func(t *testing.T) {
		if _, err := m.Invoke("main", builtins.Float(1)); err == nil {
			t.Error("expected error for extra argument")
		}
	})

	t.Run("UnknownGlobal", func(t *testing.T) {
		if err := m.SetFloat("nope", 1); err == nil {
			t.Error("expected error for unknown global")
		}
		if _, err := m.Get("nope"); err == nil {
			t.Error("expected error for unknown global")
		}
	})

	t.Run("GlobalTypeMismatch", func(t *testing.T) {
		m := newMachine(t, `in vec3 v; float main() { return length(v); }`)
		if err := m.SetFloat("v", 1); err == nil {
			t.Error("expected error setting float into vec3 global")
		}
	})
}

func TestStepBudget(t *testing.T) {
	// A hand-built endless loop; the compiler never emits JMP today but
	// the interpreter executes it.
	prog := bytecode.NewProgram()
	prog.Emit(bytecode.OpJmp, 0)
	prog.MinStackSize = bytecode.WorkingMargin
	prog.Funcs["main"] = bytecode.FuncMeta{Addr: 0, Result: bytecode.TypeVoid}

	m := New(prog, builtins.Default())
	m.MaxSteps = 1000
	_, err := m.Invoke("main")
	if err == nil || !strings.Contains(err.Error(), "step budget") {
		t.Errorf("error = %v, want step budget error", err)
	}
}

func TestReservedOpcodeRejected(t *testing.T) {
	prog := bytecode.NewProgram()
	prog.EmitPlain(bytecode.OpAddI32)
	prog.MinStackSize = bytecode.WorkingMargin
	prog.Funcs["main"] = bytecode.FuncMeta{Addr: 0, Result: bytecode.TypeVoid}

	m := New(prog, builtins.Default())
	_, err := m.Invoke("main")
	if err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Errorf("error = %v, want reserved opcode error", err)
	}
}

func TestCorruptArtifactRejected(t *testing.T) {
	prog := bytecode.NewProgram()
	prog.Code = append(prog.Code, bytecode.Word(0xFFFF)) // invalid tag
	prog.MinStackSize = bytecode.WorkingMargin
	prog.Funcs["main"] = bytecode.FuncMeta{Addr: 0, Result: bytecode.TypeVoid}

	m := New(prog, builtins.Default())
	if _, err := m.Invoke("main"); err == nil {
		t.Error("expected decode error for invalid opcode tag")
	}
}

func TestArtifactRoundTripExecutes(t *testing.T) {
	reg := builtins.Default()
	src := `in float u;
float main() { return u * u; }
`
	prog, err := compiler.Compile(src, ".", reg)
	if err != nil {
		t.Fatal(err)
	}

	data, err := prog.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := bytecode.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	m := New(loaded, reg)
	if err := m.SetFloat("u", 6); err != nil {
		t.Fatal(err)
	}
	approx(t, runFloat(t, m), 36)
}
