package orb

// ---- numeric and predicate primitives ----------------------------------
//
// Arithmetic promotes to float as soon as one operand is a float. All
// primitives validate their arguments eagerly and prefix failures with the
// operation name.

func registerCorePrimitives(rt *Runtime) {
	rt.AddPrimitive("+", opAdd)
	rt.AddPrimitive("-", opSub)
	rt.AddPrimitive("*", opMul)
	rt.AddPrimitive("/", opDiv)

	rt.AddPrimitive("=", opEqual)
	rt.AddPrimitive("!=", opNotEqual)
	rt.AddPrimitive("<", compareOp("<", func(c int) bool { return c < 0 }))
	rt.AddPrimitive(">", compareOp(">", func(c int) bool { return c > 0 }))
	rt.AddPrimitive("<=", compareOp("<=", func(c int) bool { return c <= 0 }))
	rt.AddPrimitive(">=", compareOp(">=", func(c int) bool { return c >= 0 }))

	rt.AddPrimitive("integer?", typePredicate("integer?", VTInt))
	rt.AddPrimitive("float?", typePredicate("float?", VTFloat))
	rt.AddPrimitive("string?", typePredicate("string?", VTStr))
	rt.AddPrimitive("boolean?", typePredicate("boolean?", VTBool))
	rt.AddPrimitive("symbol?", typePredicate("symbol?", VTSymbol))
	rt.AddPrimitive("map?", typePredicate("map?", VTMap))
	rt.AddPrimitive("vector?", typePredicate("vector?", VTVector))
	rt.AddPrimitive("list?", typePredicate("list?", VTList))
	rt.AddPrimitive("object?", typePredicate("object?", VTObject))
	rt.AddPrimitive("fn?", func(_ *Runtime, args []Value, _ *Env) (Value, error) {
		if len(args) != 1 {
			return Nil, evalErrf("fn?: expected one argument")
		}
		return Bool(isCallable(args[0])), nil
	})
}

func requireNumbers(op string, args []Value) error {
	for _, a := range args {
		if !isNumber(a) {
			return evalErrf("%s: argument is not a number: %s", op, FormatValue(a))
		}
	}
	return nil
}

func anyFloat(args []Value) bool {
	for _, a := range args {
		if a.Tag == VTFloat {
			return true
		}
	}
	return false
}

func opAdd(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if err := requireNumbers("+", args); err != nil {
		return Nil, err
	}
	if anyFloat(args) {
		acc := 0.0
		for _, a := range args {
			acc += numAsFloat(a)
		}
		return Float(acc), nil
	}
	var acc int64
	for _, a := range args {
		acc += a.Data.(int64)
	}
	return Int(acc), nil
}

func opSub(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) == 0 {
		return Nil, evalErrf("-: need at least one argument")
	}
	if err := requireNumbers("-", args); err != nil {
		return Nil, err
	}
	if anyFloat(args) {
		acc := numAsFloat(args[0])
		if len(args) == 1 {
			return Float(-acc), nil
		}
		for _, a := range args[1:] {
			acc -= numAsFloat(a)
		}
		return Float(acc), nil
	}
	acc := args[0].Data.(int64)
	if len(args) == 1 {
		return Int(-acc), nil
	}
	for _, a := range args[1:] {
		acc -= a.Data.(int64)
	}
	return Int(acc), nil
}

func opMul(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if err := requireNumbers("*", args); err != nil {
		return Nil, err
	}
	if anyFloat(args) {
		acc := 1.0
		for _, a := range args {
			acc *= numAsFloat(a)
		}
		return Float(acc), nil
	}
	var acc int64 = 1
	for _, a := range args {
		acc *= a.Data.(int64)
	}
	return Int(acc), nil
}

// opDiv: integer division by zero is an error; float division follows IEEE
// (inf/nan pass through).
func opDiv(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) < 2 {
		return Nil, evalErrf("/: need at least two arguments")
	}
	if err := requireNumbers("/", args); err != nil {
		return Nil, err
	}
	if anyFloat(args) {
		acc := numAsFloat(args[0])
		for _, a := range args[1:] {
			acc /= numAsFloat(a)
		}
		return Float(acc), nil
	}
	acc := args[0].Data.(int64)
	for _, a := range args[1:] {
		d := a.Data.(int64)
		if d == 0 {
			return Nil, evalErrf("/: integer division by zero")
		}
		acc /= d
	}
	return Int(acc), nil
}

// opEqual is value equality: numbers are equal only when sub-tag and
// stored value agree, so (= 1 1.0) is false. The ordering operators
// promote; equality does not.
func opEqual(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) < 2 {
		return Nil, evalErrf("=: need at least two arguments")
	}
	for i := 1; i < len(args); i++ {
		if !valueEqual(args[0], args[i]) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func opNotEqual(rt *Runtime, args []Value, env *Env) (Value, error) {
	v, err := opEqual(rt, args, env)
	if err != nil {
		return Nil, evalErrf("!=: need at least two arguments")
	}
	return Bool(!v.Data.(bool)), nil
}

// compareNumOrStr orders two numbers (promoting) or two strings.
func compareNumOrStr(op string, a, b Value) (int, error) {
	if isNumber(a) && isNumber(b) {
		af, bf := numAsFloat(a), numAsFloat(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Tag == VTStr && b.Tag == VTStr {
		as, bs := a.Data.(string), b.Data.(string)
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, evalErrf("%s: arguments must be two numbers or two strings", op)
}

func compareOp(op string, keep func(int) bool) PrimitiveFn {
	return func(_ *Runtime, args []Value, _ *Env) (Value, error) {
		if len(args) < 2 {
			return Nil, evalErrf("%s: need at least two arguments", op)
		}
		for i := 1; i < len(args); i++ {
			c, err := compareNumOrStr(op, args[i-1], args[i])
			if err != nil {
				return Nil, err
			}
			if !keep(c) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	}
}

func typePredicate(name string, tag ValueTag) PrimitiveFn {
	return func(_ *Runtime, args []Value, _ *Env) (Value, error) {
		if len(args) != 1 {
			return Nil, evalErrf("%s: expected one argument", name)
		}
		return Bool(args[0].Tag == tag), nil
	}
}
