package bytecode

import (
	"fmt"
	"sort"
	"strings"
)

// Disassemble returns a human-readable listing of the whole program:
// header, global symbol table and one line per instruction, with function
// entry points annotated and raw float operands shown inline.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "; goshade bytecode v%d\n", p.Version)
	fmt.Fprintf(&sb, "; static section: %d bytes, min stack: %d bytes\n",
		p.StaticSectionSize, p.MinStackSize)

	if len(p.Globals) > 0 {
		sb.WriteString("; globals:\n")
		names := make([]string, 0, len(p.Globals))
		for name := range p.Globals {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return p.Globals[names[i]].Offset < p.Globals[names[j]].Offset
		})
		for _, name := range names {
			g := p.Globals[name]
			fmt.Fprintf(&sb, ";   +%-4d %-6s %s\n", g.Offset, g.Type, name)
		}
	}
	sb.WriteString("\n")

	// Entry-point annotations, in address order.
	entries := make(map[int]string, len(p.Funcs))
	for name, f := range p.Funcs {
		entries[f.Addr] = name
	}

	for i := 0; i < len(p.Code); {
		if name, ok := entries[i]; ok {
			f := p.Funcs[name]
			fmt.Fprintf(&sb, "%s:    ; %s, %d param(s), frame %d bytes\n",
				name, f.Result, len(f.Params), f.FrameSize)
		}

		op, imm, err := p.Code[i].Decode()
		if err != nil {
			fmt.Fprintf(&sb, "%04d  ???   ; %v\n", i, err)
			i++
			continue
		}

		info := op.Info()
		switch {
		case op == OpConstF32 && i+1 < len(p.Code):
			fmt.Fprintf(&sb, "%04d  %-10s %v\n", i, info.Name, p.Code[i+1].Float32())
		case info.HasImm:
			fmt.Fprintf(&sb, "%04d  %-10s %d\n", i, info.Name, imm)
		default:
			fmt.Fprintf(&sb, "%04d  %s\n", i, info.Name)
		}
		i += 1 + op.Trailing()
	}

	return sb.String()
}
