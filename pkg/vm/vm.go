// Package vm executes compiled shader programs. The machine is a flat
// region of 4-byte cells: the static section (global in/out parameters)
// sits at the base, and the evaluation stack with function frames grows
// above it. One cell holds one runtime value.
package vm

import (
	"fmt"

	"goshade/pkg/builtins"
	"goshade/pkg/bytecode"
)

// cellSize converts the byte-granular offsets and sizes of the compiled
// artifact into cell indices.
const cellSize = 4

// DefaultMaxSteps bounds one Invoke. Generated code has no loops today,
// but the encoding reserves jumps, so a corrupt artifact could spin.
const DefaultMaxSteps = 1 << 20

type frame struct {
	retPC int
	fp    int
}

// VM executes one compiled program. It is not safe for concurrent use; a
// host running shaders in parallel creates one VM per goroutine.
type VM struct {
	prog *bytecode.Program
	reg  *builtins.Registry

	mem []builtins.Value // static section + stack, one value per cell

	staticCells int
	pc          int
	sp          int // next free cell
	fp          int // base of the current frame
	frames      []frame

	// MaxSteps bounds a single Invoke; 0 means DefaultMaxSteps.
	MaxSteps int

	// entries maps entry addresses back to function metadata so CALL can
	// locate the callee's parameter count.
	entries map[int]bytecode.FuncMeta
}

// New builds a VM for prog, allocating the minimum stack the artifact
// requires.
func New(prog *bytecode.Program, reg *builtins.Registry) *VM {
	entries := make(map[int]bytecode.FuncMeta, len(prog.Funcs))
	for _, fm := range prog.Funcs {
		entries[fm.Addr] = fm
	}
	return &VM{
		prog:        prog,
		reg:         reg,
		mem:         make([]builtins.Value, prog.MinStackSize/cellSize),
		staticCells: prog.StaticSectionSize / cellSize,
		entries:     entries,
	}
}

// global resolves a declared in/out parameter name.
func (m *VM) global(name string) (bytecode.SymbolMeta, error) {
	sym, ok := m.prog.Globals[name]
	if !ok {
		return bytecode.SymbolMeta{}, fmt.Errorf("vm: no such global %q", name)
	}
	return sym, nil
}

// Set writes a value to a declared in/out parameter.
func (m *VM) Set(name string, v builtins.Value) error {
	sym, err := m.global(name)
	if err != nil {
		return err
	}
	if sym.Type != v.Kind {
		return fmt.Errorf("vm: global %q is %s, got %s", name, sym.Type, v.Kind)
	}
	m.mem[sym.Offset/cellSize] = v
	return nil
}

// SetFloat writes a float in-parameter.
func (m *VM) SetFloat(name string, f float32) error {
	return m.Set(name, builtins.Float(f))
}

// SetVec3 writes a vec3 in-parameter.
func (m *VM) SetVec3(name string, x, y, z float32) error {
	return m.Set(name, builtins.NewVec3(x, y, z))
}

// Get reads a declared in/out parameter, typically an out after Invoke.
func (m *VM) Get(name string) (builtins.Value, error) {
	sym, err := m.global(name)
	if err != nil {
		return builtins.Value{}, err
	}
	return m.mem[sym.Offset/cellSize], nil
}

// GetFloat reads a float out-parameter.
func (m *VM) GetFloat(name string) (float32, error) {
	v, err := m.Get(name)
	if err != nil {
		return 0, err
	}
	if v.Kind != bytecode.TypeF32 {
		return 0, fmt.Errorf("vm: global %q holds %s, not float", name, v.Kind)
	}
	return v.F, nil
}

// GetVec3 reads a vec3 out-parameter.
func (m *VM) GetVec3(name string) (builtins.Vec3, error) {
	v, err := m.Get(name)
	if err != nil {
		return builtins.Vec3{}, err
	}
	if v.Kind != bytecode.TypeVec3 {
		return builtins.Vec3{}, fmt.Errorf("vm: global %q holds %s, not vec3", name, v.Kind)
	}
	return v.V, nil
}

func (m *VM) push(v builtins.Value) error {
	if m.sp >= len(m.mem) {
		return fmt.Errorf("vm: stack overflow at pc %d", m.pc)
	}
	m.mem[m.sp] = v
	m.sp++
	return nil
}

func (m *VM) pop() (builtins.Value, error) {
	if m.sp <= m.staticCells {
		return builtins.Value{}, fmt.Errorf("vm: stack underflow at pc %d", m.pc)
	}
	m.sp--
	return m.mem[m.sp], nil
}

func (m *VM) popFloat() (float32, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if v.Kind != bytecode.TypeF32 {
		return 0, fmt.Errorf("vm: expected float on stack at pc %d, got %s", m.pc, v.Kind)
	}
	return v.F, nil
}

// Invoke runs the named function with the given arguments and returns its
// result. In-parameters set earlier and out-parameters written by the
// shader persist in the static section across invocations.
func (m *VM) Invoke(name string, args ...builtins.Value) (builtins.Value, error) {
	fm, ok := m.prog.Funcs[name]
	if !ok {
		return builtins.Value{}, fmt.Errorf("vm: no such function %q", name)
	}
	if len(args) != len(fm.Params) {
		return builtins.Value{}, fmt.Errorf("vm: %q takes %d argument(s), got %d",
			name, len(fm.Params), len(args))
	}

	m.sp = m.staticCells
	m.fp = m.staticCells
	m.frames = m.frames[:0]
	m.pc = fm.Addr

	for i, arg := range args {
		if arg.Kind != fm.Params[i] {
			return builtins.Value{}, fmt.Errorf("vm: %q argument %d: want %s, got %s",
				name, i+1, fm.Params[i], arg.Kind)
		}
		if err := m.push(arg); err != nil {
			return builtins.Value{}, err
		}
	}

	return m.run()
}

// run is the fetch/decode/execute loop. It returns when the entry
// function's RET executes with no frame to return to.
func (m *VM) run() (builtins.Value, error) {
	maxSteps := m.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return builtins.Value{}, fmt.Errorf("vm: step budget exceeded (%d)", maxSteps)
		}
		if m.pc < 0 || m.pc >= len(m.prog.Code) {
			return builtins.Value{}, fmt.Errorf("vm: pc %d outside code", m.pc)
		}

		op, imm, err := m.prog.Code[m.pc].Decode()
		if err != nil {
			return builtins.Value{}, err
		}

		switch op {
		case bytecode.OpAddF32, bytecode.OpSubF32, bytecode.OpMulF32, bytecode.OpDivF32:
			b, err := m.popFloat()
			if err != nil {
				return builtins.Value{}, err
			}
			a, err := m.popFloat()
			if err != nil {
				return builtins.Value{}, err
			}
			var v float32
			switch op {
			case bytecode.OpAddF32:
				v = a + b
			case bytecode.OpSubF32:
				v = a - b
			case bytecode.OpMulF32:
				v = a * b
			case bytecode.OpDivF32:
				v = a / b
			}
			if err := m.push(builtins.Float(v)); err != nil {
				return builtins.Value{}, err
			}

		case bytecode.OpConstF32:
			if m.pc+1 >= len(m.prog.Code) {
				return builtins.Value{}, fmt.Errorf("vm: truncated CONST.F32 at pc %d", m.pc)
			}
			if err := m.push(builtins.Float(m.prog.Code[m.pc+1].Float32())); err != nil {
				return builtins.Value{}, err
			}
			m.pc++ // skip the raw operand word

		case bytecode.OpVoid:
			if err := m.push(builtins.Void()); err != nil {
				return builtins.Value{}, err
			}

		case bytecode.OpMov4:
			v, err := m.pop()
			if err != nil {
				return builtins.Value{}, err
			}
			idx := m.fp + int(imm)/cellSize
			if idx >= len(m.mem) {
				return builtins.Value{}, fmt.Errorf("vm: local store past stack at pc %d", m.pc)
			}
			m.mem[idx] = v
			// A store to a fresh local slot reserves it; the stack
			// pointer must stay above every live local.
			if idx >= m.sp {
				m.sp = idx + 1
			}

		case bytecode.OpLoad4:
			idx := m.fp + int(imm)/cellSize
			if idx >= m.sp {
				return builtins.Value{}, fmt.Errorf("vm: local load past stack at pc %d", m.pc)
			}
			if err := m.push(m.mem[idx]); err != nil {
				return builtins.Value{}, err
			}

		case bytecode.OpMov4Global:
			v, err := m.pop()
			if err != nil {
				return builtins.Value{}, err
			}
			idx := int(imm) / cellSize
			if idx >= m.staticCells {
				return builtins.Value{}, fmt.Errorf("vm: global store past static section at pc %d", m.pc)
			}
			m.mem[idx] = v

		case bytecode.OpLoad4Global:
			idx := int(imm) / cellSize
			if idx >= m.staticCells {
				return builtins.Value{}, fmt.Errorf("vm: global load past static section at pc %d", m.pc)
			}
			if err := m.push(m.mem[idx]); err != nil {
				return builtins.Value{}, err
			}

		case bytecode.OpRet:
			result, err := m.pop()
			if err != nil {
				return builtins.Value{}, err
			}
			frameCells := int(imm) / cellSize
			if m.fp+frameCells != m.sp {
				return builtins.Value{}, fmt.Errorf("vm: frame size mismatch at pc %d (imm %d, live %d cells)",
					m.pc, imm, m.sp-m.fp)
			}
			m.sp = m.fp
			if len(m.frames) == 0 {
				return result, nil
			}
			fr := m.frames[len(m.frames)-1]
			m.frames = m.frames[:len(m.frames)-1]
			m.fp = fr.fp
			m.pc = fr.retPC
			if err := m.push(result); err != nil {
				return builtins.Value{}, err
			}
			continue

		case bytecode.OpCall:
			fm, ok := m.entries[int(imm)]
			if !ok {
				return builtins.Value{}, fmt.Errorf("vm: CALL to unknown address %d at pc %d", imm, m.pc)
			}
			m.frames = append(m.frames, frame{retPC: m.pc + 1, fp: m.fp})
			// Arguments were pushed left-to-right; they become the
			// callee's first locals in place.
			m.fp = m.sp - len(fm.Params)
			if m.fp < m.staticCells {
				return builtins.Value{}, fmt.Errorf("vm: missing call arguments at pc %d", m.pc)
			}
			m.pc = fm.Addr
			continue

		case bytecode.OpJmp:
			m.pc = int(imm)
			continue

		case bytecode.OpJmpIf:
			c, err := m.popFloat()
			if err != nil {
				return builtins.Value{}, err
			}
			if c != 0 {
				m.pc = int(imm)
				continue
			}

		case bytecode.OpCallBuiltin:
			b, ok := m.reg.At(int(imm))
			if !ok {
				return builtins.Value{}, fmt.Errorf("vm: CALL.B with unknown index %d at pc %d", imm, m.pc)
			}
			args := make([]builtins.Value, len(b.Params))
			for i := len(args) - 1; i >= 0; i-- {
				v, err := m.pop()
				if err != nil {
					return builtins.Value{}, err
				}
				if v.Kind != b.Params[i] {
					return builtins.Value{}, fmt.Errorf("vm: %s argument %d: want %s, got %s",
						b.Name, i+1, b.Params[i], v.Kind)
				}
				args[i] = v
			}
			result, err := b.Fn(args)
			if err != nil {
				return builtins.Value{}, fmt.Errorf("vm: %s: %w", b.Name, err)
			}
			if err := m.push(result); err != nil {
				return builtins.Value{}, err
			}

		case bytecode.OpAddI32, bytecode.OpSubI32, bytecode.OpMulI32, bytecode.OpDivI32:
			// Reserved: the front-end is float-only and no emitting path
			// exists.
			return builtins.Value{}, fmt.Errorf("vm: reserved opcode %s at pc %d", op, m.pc)

		default:
			return builtins.Value{}, fmt.Errorf("vm: unhandled opcode %s at pc %d", op, m.pc)
		}

		m.pc++
	}
}
