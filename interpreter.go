// interpreter.go: the tree-walking evaluator.
//
// eval dispatches on value shape: most variants are self-evaluating,
// symbols resolve through the environment, and lists are either special
// forms (quote, def, set, if, fn, begin, cond) or applications. User
// functions are tagged lists (procedure PARAMS (BODY…) ENV-MAP); keeping
// them in the list representation keeps apply's dispatch to a single head
// check. Application evaluates the operator and then each argument strictly
// left to right.
//
// Errors are explicit (Value, error) returns all the way up; the public
// entries in runtime.go convert them into fail-shaped results.
package orb

import "strings"

// Env is an environment frame: a persistent map from symbol to value. def
// replaces the map held in the frame; closures capture the map value, so a
// capture is immune to later defs while set (an in-cell replace) stays
// visible through shared cells.
type Env struct {
	vars Map
}

func (e *Env) lookup(name string) (Value, bool) {
	return e.vars.tryGet(Sym(name))
}

// def adds or replaces a binding in this frame.
func (e *Env) def(name string, v Value) {
	e.vars = e.vars.insert(Sym(name), v)
}

// set replaces an existing binding in place; reports whether it was found.
func (e *Env) set(name string, v Value) bool {
	return e.vars.tryReplace(Sym(name), v)
}

// procedureTag heads the list encoding of user-defined functions.
const procedureTag = "procedure"

func isCompoundProcedure(v Value) bool {
	l, ok := v.asList()
	if !ok {
		return false
	}
	head, ok := l.first()
	if !ok {
		return false
	}
	name, ok := head.symName()
	return ok && name == procedureTag && l.size() == 4
}

// isCallable reports whether apply accepts v as an operator that is a
// function (primitive or compound).
func isCallable(v Value) bool {
	return v.Tag == VTFunc || isCompoundProcedure(v)
}

func (rt *Runtime) eval(v Value, env *Env) (Value, error) {
	switch v.Tag {
	case VTSymbol:
		name := v.Data.(string)
		if strings.HasPrefix(name, ":") {
			return v, nil
		}
		if val, ok := env.lookup(name); ok {
			return val, nil
		}
		return Nil, evalErrf("eval: symbol not found: %s", name)
	case VTList:
		return rt.evalForm(v.Data.(List), env)
	default:
		return v, nil
	}
}

func (rt *Runtime) evalForm(l List, env *Env) (Value, error) {
	head, ok := l.first()
	if !ok {
		return Nil, evalErrf("eval: cannot evaluate an empty application")
	}
	if name, isSym := head.symName(); isSym {
		switch name {
		case "quote":
			return rt.evalQuote(l)
		case "def":
			return rt.evalDef(l, env, false)
		case "set":
			return rt.evalDef(l, env, true)
		case "if":
			return rt.evalIf(l, env)
		case "fn":
			return rt.evalFn(l, env)
		case "begin":
			return rt.evalBegin(l.toSlice()[1:], env)
		case "cond":
			return rt.evalCond(l, env)
		}
	}
	return rt.evalApplication(l, env)
}

func (rt *Runtime) evalQuote(l List) (Value, error) {
	v, ok := l.nth(1)
	if !ok {
		return Nil, evalErrf("eval: quote was not followed by an element")
	}
	return v, nil
}

// evalDef handles both def and set: identical shapes, set requires the key
// to exist and replaces the shared cell in place.
func (rt *Runtime) evalDef(l List, env *Env, replace bool) (Value, error) {
	elems := l.toSlice()
	op := "def"
	if replace {
		op = "set"
	}
	if len(elems) != 3 {
		return Nil, evalErrf("%s: expected a symbol and a value", op)
	}
	name, ok := elems[1].symName()
	if !ok {
		return Nil, evalErrf("%s: value to assign to was not a symbol", op)
	}
	val, err := rt.eval(elems[2], env)
	if err != nil {
		return Nil, err
	}
	if replace {
		if !env.set(name, val) {
			return Nil, evalErrf("set: symbol not bound: %s", name)
		}
	} else {
		env.def(name, val)
	}
	return Nil, nil
}

func (rt *Runtime) evalIf(l List, env *Env) (Value, error) {
	elems := l.toSlice()
	if len(elems) < 3 || len(elems) > 4 {
		return Nil, evalErrf("if: expected a predicate, a consequent and an optional alternative")
	}
	pred, err := rt.eval(elems[1], env)
	if err != nil {
		return Nil, err
	}
	if truthy(pred) {
		return rt.eval(elems[2], env)
	}
	if len(elems) == 4 {
		return rt.eval(elems[3], env)
	}
	return Nil, nil
}

// evalFn captures the defining environment's map into the procedure list:
// (procedure PARAMS (BODY…) ENV-MAP).
func (rt *Runtime) evalFn(l List, env *Env) (Value, error) {
	elems := l.toSlice()
	if len(elems) < 3 {
		return Nil, evalErrf("fn: expected a parameter list and a body")
	}
	if _, ok := elems[1].asList(); !ok {
		return Nil, evalErrf("fn: parameters must be a list")
	}
	body := rt.lists.newListFromSlice(elems[2:])
	proc := rt.lists.newListFromSlice([]Value{
		Sym(procedureTag),
		elems[1],
		ListVal(body),
		MapVal(env.vars),
	})
	return ListVal(proc), nil
}

func (rt *Runtime) evalBegin(forms []Value, env *Env) (Value, error) {
	if len(forms) == 0 {
		return Nil, evalErrf("begin: empty sequence")
	}
	var out Value
	var err error
	for _, f := range forms {
		out, err = rt.eval(f, env)
		if err != nil {
			return Nil, err
		}
	}
	return out, nil
}

// evalCond walks the clauses as nested if would: first truthy predicate
// wins, else must be the last clause, and running past the end without an
// else is an error.
func (rt *Runtime) evalCond(l List, env *Env) (Value, error) {
	clauses := l.toSlice()[1:]
	for i, clause := range clauses {
		cl, ok := clause.asList()
		if !ok {
			return Nil, evalErrf("cond: clause is not a list")
		}
		elems := cl.toSlice()
		if len(elems) == 0 {
			return Nil, evalErrf("cond: empty clause")
		}
		if name, isSym := elems[0].symName(); isSym && name == "else" {
			if i != len(clauses)-1 {
				return Nil, evalErrf("cond: else clause must be last")
			}
			return rt.evalBegin(elems[1:], env)
		}
		pred, err := rt.eval(elems[0], env)
		if err != nil {
			return Nil, err
		}
		if truthy(pred) {
			return rt.evalBegin(elems[1:], env)
		}
	}
	return Nil, evalErrf("cond: no matching clause and no else clause")
}

func (rt *Runtime) evalApplication(l List, env *Env) (Value, error) {
	head, _ := l.first()
	op, err := rt.eval(head, env)
	if err != nil {
		return Nil, err
	}
	rest := l.toSlice()[1:]
	args := make([]Value, 0, len(rest))
	for _, a := range rest {
		v, err := rt.eval(a, env)
		if err != nil {
			return Nil, err
		}
		args = append(args, v)
	}
	return rt.apply(op, args, env)
}

func (rt *Runtime) apply(op Value, args []Value, env *Env) (Value, error) {
	switch {
	case op.Tag == VTFunc:
		return op.Data.(PrimitiveFn)(rt, args, env)

	case isCompoundProcedure(op):
		return rt.applyCompound(op, args)

	case op.Tag == VTMap:
		if len(args) != 1 {
			return Nil, evalErrf("apply: map lookup takes exactly one key")
		}
		v, _ := op.Data.(Map).tryGet(args[0])
		return v, nil

	case op.Tag == VTVector:
		if len(args) != 1 || args[0].Tag != VTInt {
			return Nil, evalErrf("apply: vector index must be a single integer")
		}
		vec := op.Data.(*Vector)
		i := args[0].Data.(int64)
		if i < 0 || i >= int64(vec.Len()) {
			return Nil, evalErrf("apply: vector index out of range: %d", i)
		}
		return vec.At(int(i)), nil

	default:
		return Nil, evalErrf("apply: value is not callable: %s", FormatValue(op))
	}
}

// applyCompound binds parameters positionally into a fresh frame derived
// from the captured environment and evaluates the body as begin.
func (rt *Runtime) applyCompound(op Value, args []Value) (Value, error) {
	elems := op.Data.(List).toSlice() // (procedure params body env)
	paramsList, _ := elems[1].asList()
	params := paramsList.toSlice()
	bodyList, ok := elems[2].asList()
	if !ok {
		return Nil, evalErrf("apply: malformed procedure body")
	}
	captured, ok := elems[3].asMap()
	if !ok {
		return Nil, evalErrf("apply: malformed procedure environment")
	}
	if len(params) != len(args) {
		return Nil, evalErrf("apply: procedure expects %d arguments, got %d", len(params), len(args))
	}
	frame := captured
	for i, p := range params {
		name, ok := p.symName()
		if !ok {
			return Nil, evalErrf("apply: procedure parameter is not a symbol: %s", FormatValue(p))
		}
		frame = frame.insert(Sym(name), args[i])
	}
	local := &Env{vars: frame}
	return rt.evalBegin(bodyList.toSlice(), local)
}
