package compiler

// Fold rewrites the program in place, replacing constant subexpressions
// with literal results before code generation. A failed fold (division by
// a provably-zero constant) aborts the pipeline; codegen never runs on a
// tree a failed fold touched.
func Fold(prog *Program) error {
	for _, fn := range prog.Functions {
		for _, stmt := range fn.Body {
			switch s := stmt.(type) {
			case *Assignment:
				folded, err := foldExpr(s.Value)
				if err != nil {
					return err
				}
				s.Value = folded
			case *ReturnStmt:
				folded, err := foldExpr(s.Expr)
				if err != nil {
					return err
				}
				s.Expr = folded
			}
		}
	}
	return nil
}

// foldExpr returns the (possibly replaced) expression with all constant
// subtrees evaluated.
func foldExpr(e Expr) (Expr, error) {
	switch n := e.(type) {
	case *BinaryExpr:
		left, err := foldExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := foldExpr(n.Right)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right

		ll, lok := left.(*Literal)
		rl, rok := right.(*Literal)
		if !lok || !rok {
			return n, nil
		}

		var v float32
		switch n.Op {
		case PLUS:
			v = ll.Value + rl.Value
		case MINUS:
			v = ll.Value - rl.Value
		case STAR:
			v = ll.Value * rl.Value
		case SLASH:
			if rl.Value == 0 {
				return nil, foldingError(n.Line, "division by constant zero")
			}
			v = ll.Value / rl.Value
		default:
			return n, nil
		}
		return &Literal{Value: v, Line: n.Line}, nil

	case *UnaryExpr:
		right, err := foldExpr(n.Right)
		if err != nil {
			return nil, err
		}
		n.Right = right
		if lit, ok := right.(*Literal); ok && n.Op == MINUS {
			return &Literal{Value: -lit.Value, Line: n.Line}, nil
		}
		return n, nil

	case *FunctionCall:
		for i, arg := range n.Args {
			folded, err := foldExpr(arg)
			if err != nil {
				return nil, err
			}
			n.Args[i] = folded
		}
		return n, nil

	default:
		return e, nil
	}
}
