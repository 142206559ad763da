// runtime.go: the embeddable runtime instance and its public surface.
//
// A Runtime owns the two container pools, the root environment and the
// output sink. Everything is single-threaded: parsing and evaluation never
// suspend, and collection runs only from the public entry points between
// evaluations, so evaluator temporaries need no rooting.
//
// The root set of a collection is the current root environment plus every
// handle with a positive root refcount: parse trees and evaluation results
// handed to the embedder are retained automatically (release them with
// Value.Release when holding them across collections is no longer needed).
package orb

import (
	"io"
	"os"
	"strings"
)

// Version of the runtime, reported by the CLI.
const Version = "0.3.0"

type Runtime struct {
	lists *listPool[Value]
	maps  *mapPool
	env   *Env
	out   io.Writer
}

// New constructs a runtime with the default environment populated.
func New() *Runtime {
	rt := &Runtime{
		lists: newListPool[Value](),
		maps:  newMapPool(),
		out:   os.Stdout,
	}
	rt.env = &Env{vars: rt.maps.newMap()}
	registerCorePrimitives(rt)
	registerSeqPrimitives(rt)
	registerIOPrimitives(rt)
	return rt
}

// AddPrimitive registers a primitive procedure in the environment.
func (rt *Runtime) AddPrimitive(name string, fn PrimitiveFn) {
	rt.env.def(name, Fn(fn))
}

// Parse converts source text into a value tree wrapped in (begin …). The
// returned handle is rooted until released.
func (rt *Runtime) Parse(src string) (Value, error) {
	v, err := rt.parseSource(src)
	if err != nil {
		return Nil, err
	}
	rt.retainValue(v)
	return v, nil
}

// Eval evaluates a parsed tree against the runtime's current environment.
// The result handle is rooted until released.
func (rt *Runtime) Eval(v Value) (Value, error) {
	out, err := rt.eval(v, rt.env)
	if err != nil {
		return Nil, err
	}
	rt.retainValue(out)
	return out, nil
}

// ReadEval composes Parse and Eval.
func (rt *Runtime) ReadEval(src string) (Value, error) {
	tree, err := rt.Parse(src)
	if err != nil {
		return Nil, err
	}
	out, err := rt.Eval(tree)
	tree.Release()
	return out, err
}

// SetOutput redirects the printing primitives.
func (rt *Runtime) SetOutput(w io.Writer) { rt.out = w }

// Get looks up a value by '/'-separated symbolic path, walking into nested
// maps.
func (rt *Runtime) Get(path string) (Value, bool) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return Nil, false
	}
	v, ok := rt.env.lookup(parts[0])
	if !ok {
		return Nil, false
	}
	for _, p := range parts[1:] {
		m, isMap := v.asMap()
		if !isMap {
			return Nil, false
		}
		v, ok = m.tryGet(Sym(p))
		if !ok {
			return Nil, false
		}
	}
	return v, true
}

// SetArgs binds a map at sys/args whose keys are the integers 0..n-1 and
// whose values are the tokens with backslashes normalized to slashes.
func (rt *Runtime) SetArgs(argv []string) {
	args := rt.maps.newMap()
	for i, a := range argv {
		args = args.insert(Int(int64(i)), Str(strings.ReplaceAll(a, `\`, "/")))
	}
	sys := rt.maps.newMap()
	if prev, ok := rt.env.lookup("sys"); ok {
		if m, isMap := prev.asMap(); isMap {
			sys = m
		}
	}
	rt.env.def("sys", MapVal(sys.insert(Sym("args"), MapVal(args))))
}

// EachBinding visits every binding of the root environment.
func (rt *Runtime) EachBinding(f func(name string, v Value)) {
	rt.env.vars.each(func(k, v Value) bool {
		if name, ok := k.symName(); ok {
			f(name, v)
		}
		return true
	})
}

// NewList builds a rooted list value in this runtime's pool.
func (rt *Runtime) NewList(elems ...Value) Value {
	v := ListVal(rt.lists.newListFromSlice(elems))
	rt.retainValue(v)
	return v
}

// NewMap builds a rooted empty map value in this runtime's pool.
func (rt *Runtime) NewMap() Value {
	v := MapVal(rt.maps.newMap())
	rt.retainValue(v)
	return v
}

func (rt *Runtime) retainValue(v Value) {
	switch v.Tag {
	case VTList:
		rt.lists.retain(v.Data.(List).head)
	case VTMap:
		rt.maps.retain(v.Data.(Map).root)
	}
}

// --- collection -----------------------------------------------------------

// GC forces a collection. The documented sequence: clear mark state and the
// collision sub-pool's roots, drop dead root rows, mark transitively from
// the root environment and the root tables (crossing pools through the
// values held in cells), then sweep every box and finally the collision
// sub-pool. No other pool entry point runs during this sequence.
func (rt *Runtime) GC() {
	rt.maps.gcBegin()
	rt.lists.markAllEmpty()
	rt.lists.sweepDeadRoots()

	visited := make(map[*mapNode]struct{})
	visitedNodes := make(map[*listNode[Value]]struct{})

	var markValue func(Value)
	markChain := func(head *listNode[Value]) {
		for n := head; n != nil; n = n.next {
			if _, seen := visitedNodes[n]; seen {
				return
			}
			visitedNodes[n] = struct{}{}
			rt.lists.nodes.markIfContains(n, &rt.lists.markHint)
			markValue(n.data)
		}
	}
	markValue = func(v Value) {
		switch v.Tag {
		case VTList:
			markChain(v.Data.(List).head)
		case VTMap:
			rt.maps.markNode(v.Data.(Map).root, visited, markValue)
		case VTVector:
			for _, e := range v.Data.(*Vector).elems {
				markValue(e)
			}
		}
	}

	rt.maps.markNode(rt.env.vars.root, visited, markValue)
	for root := range rt.maps.roots {
		rt.maps.markNode(root, visited, markValue)
	}
	for head := range rt.lists.roots {
		markChain(head)
	}

	rt.maps.gcEnd()
	rt.lists.sweep()
}

// ReservedBytes reports the total slab memory held by the pools.
func (rt *Runtime) ReservedBytes() int {
	return int(rt.lists.reservedBytes() + rt.maps.reservedBytes())
}

// LiveBytes reports the memory of currently reserved cells.
func (rt *Runtime) LiveBytes() int {
	return int(rt.lists.liveBytes() + rt.maps.liveBytes())
}
