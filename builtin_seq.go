package orb

// ---- sequence and collection primitives --------------------------------
//
// first returns Nil past the end of a sequence and next returns an empty
// list or vector there; constructors build new
// persistent versions and never touch their inputs. iter and map accept
// optional leading decomposition symbols: (iter a b coll f) feeds the
// callback batches of two, padding the last batch with nil. Map collections
// take no decomposition symbols; their callback receives (key value).

func registerSeqPrimitives(rt *Runtime) {
	rt.AddPrimitive("first", opFirst)
	rt.AddPrimitive("next", opNext)
	rt.AddPrimitive("fnext", chained(opNext, opFirst))
	rt.AddPrimitive("nnext", chained(opNext, opNext))
	rt.AddPrimitive("ffirst", chained(opFirst, opFirst))
	rt.AddPrimitive("nfirst", chained(opFirst, opNext))

	rt.AddPrimitive("cons", opCons)
	rt.AddPrimitive("conj", opConj)
	rt.AddPrimitive("count", opCount)

	rt.AddPrimitive("make-map", opMakeMap)
	rt.AddPrimitive("make-vector", opMakeVector)
	rt.AddPrimitive("insert", opInsert)
	rt.AddPrimitive("remove", opRemove)
	rt.AddPrimitive("keys", opKeys)
	rt.AddPrimitive("vals", opVals)

	rt.AddPrimitive("range", opRange)
	rt.AddPrimitive("iter", opIterate)
	rt.AddPrimitive("map", opMapCollect)
}

func opFirst(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 1 {
		return Nil, evalErrf("first: expected one argument")
	}
	switch v := args[0]; v.Tag {
	case VTList:
		if e, ok := v.Data.(List).first(); ok {
			return e, nil
		}
		return Nil, nil
	case VTVector:
		vec := v.Data.(*Vector)
		if vec.Len() > 0 {
			return vec.At(0), nil
		}
		return Nil, nil
	case VTNil:
		return Nil, nil
	default:
		return Nil, evalErrf("first: argument is not a list or vector: %s", FormatValue(v))
	}
}

func opNext(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 1 {
		return Nil, evalErrf("next: expected one argument")
	}
	switch v := args[0]; v.Tag {
	case VTList:
		return ListVal(v.Data.(List).rest()), nil
	case VTVector:
		vec := v.Data.(*Vector)
		if vec.Len() == 0 {
			return Vec(), nil
		}
		return VecFromSlice(vec.elems[1:]), nil
	case VTNil:
		return Nil, nil
	default:
		return Nil, evalErrf("next: argument is not a list or vector: %s", FormatValue(v))
	}
}

// chained composes two single-argument accessors, e.g. fnext = first∘next.
func chained(inner, outer PrimitiveFn) PrimitiveFn {
	return func(rt *Runtime, args []Value, env *Env) (Value, error) {
		v, err := inner(rt, args, env)
		if err != nil {
			return Nil, err
		}
		return outer(rt, []Value{v}, env)
	}
}

func opCons(rt *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 2 {
		return Nil, evalErrf("cons: expected a value and a collection")
	}
	v, coll := args[0], args[1]
	switch coll.Tag {
	case VTList:
		return ListVal(coll.Data.(List).prepend(v)), nil
	case VTVector:
		return VecConsFront(v, coll.Data.(*Vector)), nil
	case VTNil:
		return ListVal(rt.lists.newListFromSlice([]Value{v})), nil
	default:
		return Nil, evalErrf("cons: second argument is not a list or vector: %s", FormatValue(coll))
	}
}

func opConj(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 2 {
		return Nil, evalErrf("conj: expected a collection and a value")
	}
	coll, v := args[0], args[1]
	switch coll.Tag {
	case VTList:
		return ListVal(coll.Data.(List).appendIter([]Value{v})), nil
	case VTVector:
		return VecConsBack(coll.Data.(*Vector), v), nil
	default:
		return Nil, evalErrf("conj: first argument is not a list or vector: %s", FormatValue(coll))
	}
}

func opCount(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 1 {
		return Nil, evalErrf("count: expected one argument")
	}
	switch v := args[0]; v.Tag {
	case VTList:
		return Int(int64(v.Data.(List).size())), nil
	case VTVector:
		return Int(int64(v.Data.(*Vector).Len())), nil
	case VTMap:
		return Int(int64(v.Data.(Map).size())), nil
	case VTNumberArray:
		return Int(int64(v.Data.(*NumberArray).Len())), nil
	case VTStr:
		return Int(int64(len(v.Data.(string)))), nil
	case VTNil:
		return Int(0), nil
	default:
		return Nil, evalErrf("count: argument is not countable: %s", FormatValue(v))
	}
}

func opMakeVector(_ *Runtime, args []Value, _ *Env) (Value, error) {
	return VecFromSlice(args), nil
}

func opMakeMap(rt *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args)%2 != 0 {
		return Nil, evalErrf("make-map: expected an even number of arguments")
	}
	pairs := make([][2]Value, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, [2]Value{args[i], args[i+1]})
	}
	return MapVal(rt.maps.newMapFromPairs(pairs)), nil
}

func opInsert(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) < 3 || (len(args)-1)%2 != 0 {
		return Nil, evalErrf("insert: expected a map and key/value pairs")
	}
	m, ok := args[0].asMap()
	if !ok {
		return Nil, evalErrf("insert: first argument is not a map: %s", FormatValue(args[0]))
	}
	for i := 1; i < len(args); i += 2 {
		m = m.insert(args[i], args[i+1])
	}
	return MapVal(m), nil
}

func opRemove(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) < 2 {
		return Nil, evalErrf("remove: expected a map and at least one key")
	}
	m, ok := args[0].asMap()
	if !ok {
		return Nil, evalErrf("remove: first argument is not a map: %s", FormatValue(args[0]))
	}
	for _, k := range args[1:] {
		m = m.remove(k)
	}
	return MapVal(m), nil
}

func opKeys(rt *Runtime, args []Value, _ *Env) (Value, error) {
	return mapColumn(rt, "keys", args, func(k, _ Value) Value { return k })
}

func opVals(rt *Runtime, args []Value, _ *Env) (Value, error) {
	return mapColumn(rt, "vals", args, func(_, v Value) Value { return v })
}

func mapColumn(rt *Runtime, op string, args []Value, pick func(k, v Value) Value) (Value, error) {
	if len(args) != 1 {
		return Nil, evalErrf("%s: expected one argument", op)
	}
	m, ok := args[0].asMap()
	if !ok {
		return Nil, evalErrf("%s: argument is not a map: %s", op, FormatValue(args[0]))
	}
	var out []Value
	m.each(func(k, v Value) bool {
		out = append(out, pick(k, v))
		return true
	})
	return ListVal(rt.lists.newListFromSlice(out)), nil
}

// opRange builds an inclusive-exclusive numeric list: (range end),
// (range start end) or (range start inc end). Any float argument promotes
// the whole range; a zero increment is rejected.
func opRange(rt *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return Nil, evalErrf("range: need 1 - 3 numeric arguments")
	}
	if err := requireNumbers("range", args); err != nil {
		return Nil, err
	}
	var start, inc, end Value
	switch len(args) {
	case 1:
		start, inc, end = Int(0), Int(1), args[0]
	case 2:
		start, inc, end = args[0], Int(1), args[1]
	default:
		start, inc, end = args[0], args[1], args[2]
	}
	if anyFloat([]Value{start, inc, end}) {
		s, i, e := numAsFloat(start), numAsFloat(inc), numAsFloat(end)
		if i == 0 {
			return Nil, evalErrf("range: increment must not be zero")
		}
		var out []Value
		for x := s; (i > 0 && x < e) || (i < 0 && x > e); x += i {
			out = append(out, Float(x))
		}
		return ListVal(rt.lists.newListFromSlice(out)), nil
	}
	s, i, e := start.Data.(int64), inc.Data.(int64), end.Data.(int64)
	if i == 0 {
		return Nil, evalErrf("range: increment must not be zero")
	}
	var out []Value
	for x := s; (i > 0 && x < e) || (i < 0 && x > e); x += i {
		out = append(out, Int(x))
	}
	return ListVal(rt.lists.newListFromSlice(out)), nil
}

// iterContext validates the shared (iter …)/(map …) argument shape and
// returns the batch width, the collection and the callback.
func iterContext(op string, args []Value) (int, Value, Value, error) {
	if len(args) < 2 {
		return 0, Nil, Nil, evalErrf("%s: need at least a collection and a function", op)
	}
	symcount := len(args) - 2
	for i := 0; i < symcount; i++ {
		if args[i].Tag != VTSymbol {
			return 0, Nil, Nil, evalErrf("%s: parameters prior to the collection must be symbols", op)
		}
	}
	coll := args[len(args)-2]
	fn := args[len(args)-1]
	switch coll.Tag {
	case VTList, VTVector, VTMap:
	default:
		return 0, Nil, Nil, evalErrf("%s: second to last argument must be a list, vector or map", op)
	}
	if !isCallable(fn) {
		return 0, Nil, Nil, evalErrf("%s: last argument must be a function", op)
	}
	if coll.Tag == VTMap && symcount != 0 {
		return 0, Nil, Nil, evalErrf("%s: a map collection does not accept decomposition symbols", op)
	}
	return symcount, coll, fn, nil
}

func collElems(coll Value) []Value {
	if coll.Tag == VTList {
		return coll.Data.(List).toSlice()
	}
	return coll.Data.(*Vector).elems
}

// applyBatches feeds elems to fn in batches of width, padding the final
// batch with nil.
func applyBatches(rt *Runtime, env *Env, fn Value, elems []Value, width int, collect func(Value)) error {
	if width == 0 {
		width = 1
	}
	for at := 0; at < len(elems); at += width {
		batch := make([]Value, width)
		for i := 0; i < width; i++ {
			if at+i < len(elems) {
				batch[i] = elems[at+i]
			} else {
				batch[i] = Nil
			}
		}
		v, err := rt.apply(fn, batch, env)
		if err != nil {
			return err
		}
		if collect != nil {
			collect(v)
		}
	}
	return nil
}

func opIterate(rt *Runtime, args []Value, env *Env) (Value, error) {
	symcount, coll, fn, err := iterContext("iter", args)
	if err != nil {
		return Nil, err
	}
	if coll.Tag == VTMap {
		var ierr error
		coll.Data.(Map).each(func(k, v Value) bool {
			_, ierr = rt.apply(fn, []Value{k, v}, env)
			return ierr == nil
		})
		return Nil, ierr
	}
	if err := applyBatches(rt, env, fn, collElems(coll), symcount, nil); err != nil {
		return Nil, err
	}
	return Nil, nil
}

// opMapCollect is iter that collects: lists collect into a list, vectors
// into a vector. For map collections the callback must return a two-element
// list/vector (one new pair) or a map (merged wholesale).
func opMapCollect(rt *Runtime, args []Value, env *Env) (Value, error) {
	symcount, coll, fn, err := iterContext("map", args)
	if err != nil {
		return Nil, err
	}
	if coll.Tag == VTMap {
		out := rt.maps.newMap()
		var ierr error
		coll.Data.(Map).each(func(k, v Value) bool {
			applied, aerr := rt.apply(fn, []Value{k, v}, env)
			if aerr != nil {
				ierr = aerr
				return false
			}
			out, ierr = mergePair(out, applied)
			return ierr == nil
		})
		if ierr != nil {
			return Nil, ierr
		}
		return MapVal(out), nil
	}
	var results []Value
	if err := applyBatches(rt, env, fn, collElems(coll), symcount, func(v Value) {
		results = append(results, v)
	}); err != nil {
		return Nil, err
	}
	if coll.Tag == VTList {
		return ListVal(rt.lists.newListFromSlice(results)), nil
	}
	return VecFromSlice(results), nil
}

func mergePair(out Map, applied Value) (Map, error) {
	switch applied.Tag {
	case VTList:
		elems := applied.Data.(List).toSlice()
		if len(elems) != 2 {
			return out, evalErrf("map: callback result list did not contain two elements")
		}
		return out.insert(elems[0], elems[1]), nil
	case VTVector:
		vec := applied.Data.(*Vector)
		if vec.Len() != 2 {
			return out, evalErrf("map: callback result vector did not contain two elements")
		}
		return out.insert(vec.At(0), vec.At(1)), nil
	case VTMap:
		applied.Data.(Map).each(func(k, v Value) bool {
			out = out.insert(k, v)
			return true
		})
		return out, nil
	default:
		return out, evalErrf("map: callback did not return a mappable value: %s", FormatValue(applied))
	}
}
