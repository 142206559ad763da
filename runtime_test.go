package orb

import (
	"bytes"
	"strings"
	"testing"
)

func TestRuntimeParseEvalSplit(t *testing.T) {
	rt := New()
	tree, err := rt.Parse("(+ 1 2)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, err := rt.Eval(tree)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	wantInt(t, v, 3)
	tree.Release()
	v.Release()
}

func TestRuntimeStatePersists(t *testing.T) {
	rt := New()
	if _, err := rt.ReadEval("(def counter 10)"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	v, err := rt.ReadEval("(+ counter 1)")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	wantInt(t, v, 11)
}

func TestRuntimeParseErrorShape(t *testing.T) {
	rt := New()
	_, err := rt.ReadEval("(((")
	if err == nil {
		t.Fatalf("want scope error")
	}
	if _, ok := err.(*ScopeError); !ok {
		t.Fatalf("want *ScopeError, got %#v", err)
	}
	// The caret renderer names the position.
	msg := WrapErrorWithSource(err, "(((").Error()
	if !strings.Contains(msg, "SCOPE ERROR") || !strings.Contains(msg, "^") {
		t.Fatalf("got %q", msg)
	}
}

func TestRuntimeAddPrimitive(t *testing.T) {
	rt := New()
	rt.AddPrimitive("twice", func(_ *Runtime, args []Value, _ *Env) (Value, error) {
		if len(args) != 1 || args[0].Tag != VTInt {
			return Nil, evalErrf("twice: expected one integer")
		}
		return Int(args[0].Data.(int64) * 2), nil
	})
	v, err := rt.ReadEval("(twice 21)")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	wantInt(t, v, 42)
}

func TestRuntimeGet(t *testing.T) {
	rt := New()
	if _, err := rt.ReadEval("(def cfg {:inner {:depth 3}})"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	v, ok := rt.Get("cfg/:inner/:depth")
	if !ok {
		t.Fatalf("path lookup failed")
	}
	wantInt(t, v, 3)

	if _, ok := rt.Get("cfg/:missing"); ok {
		t.Fatalf("lookup of absent path must fail")
	}
	if _, ok := rt.Get("nosuch"); ok {
		t.Fatalf("lookup of absent binding must fail")
	}
}

func TestRuntimeSetArgs(t *testing.T) {
	rt := New()
	rt.SetArgs([]string{`scripts\main.orb`, "-v"})

	v, ok := rt.Get("sys/args")
	if !ok {
		t.Fatalf("sys/args not bound")
	}
	m, isMap := v.asMap()
	if !isMap {
		t.Fatalf("sys/args is not a map")
	}
	first, ok := m.tryGet(Int(0))
	if !ok {
		t.Fatalf("argv[0] missing")
	}
	// Backslashes normalize to slashes.
	wantStr(t, first, "scripts/main.orb")
	second, _ := m.tryGet(Int(1))
	wantStr(t, second, "-v")

	// Accessible from programs too.
	out, err := rt.ReadEval("((sys :args) 1)")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	wantStr(t, out, "-v")
}

func TestRuntimeSetOutput(t *testing.T) {
	var buf bytes.Buffer
	rt := New()
	rt.SetOutput(&buf)
	if _, err := rt.ReadEval(`(println "redirected")`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if buf.String() != "redirected\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRuntimeMemoryAccounting(t *testing.T) {
	rt := New()
	if rt.ReservedBytes() == 0 || rt.LiveBytes() == 0 {
		t.Fatalf("a fresh runtime owns its environment")
	}
	before := rt.LiveBytes()
	if _, err := rt.ReadEval("(def data (range 0 1 1000))"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if rt.LiveBytes() <= before {
		t.Fatalf("allocation must grow live bytes")
	}
}

func TestRuntimeGCReclaimsGarbage(t *testing.T) {
	rt := New()
	// Evaluate and release a large intermediate result.
	v, err := rt.ReadEval("(range 0 1 2000)")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	v.Release()
	before := rt.LiveBytes()
	rt.GC()
	if rt.LiveBytes() >= before {
		t.Fatalf("collection must reclaim the released range")
	}
}

func TestRuntimeGCKeepsEnvironment(t *testing.T) {
	rt := New()
	if _, err := rt.ReadEval("(def keep '(1 2 3)) (def m {:k keep})"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	rt.GC()
	v, err := rt.ReadEval("(first keep)")
	if err != nil {
		t.Fatalf("eval after gc: %v", err)
	}
	wantInt(t, v, 1)
	v, err = rt.ReadEval("(first (m :k))")
	if err != nil {
		t.Fatalf("eval after gc: %v", err)
	}
	wantInt(t, v, 1)
}

func TestRuntimeGCIdempotent(t *testing.T) {
	rt := New()
	kept, err := rt.ReadEval("(def xs (range 0 1 100)) xs")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	rt.GC()
	live := rt.LiveBytes()
	rt.GC()
	if rt.LiveBytes() != live {
		t.Fatalf("gc();gc() changed live bytes: %d != %d", rt.LiveBytes(), live)
	}

	// Handles in the root set stay valid.
	if kept.Data.(List).size() != 100 {
		t.Fatalf("rooted handle invalidated by collection")
	}
}

func TestRuntimeGCKeepsClosures(t *testing.T) {
	rt := New()
	if _, err := rt.ReadEval("(def add (fn (a) (fn (b) (+ a b)))) (def add3 (add 3))"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	rt.GC()
	v, err := rt.ReadEval("(add3 4)")
	if err != nil {
		t.Fatalf("eval after gc: %v", err)
	}
	wantInt(t, v, 7)
}

func TestRuntimeEachBinding(t *testing.T) {
	rt := New()
	if _, err := rt.ReadEval("(def marker 123)"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	found := false
	rt.EachBinding(func(name string, v Value) {
		if name == "marker" {
			found = true
			wantInt(t, v, 123)
		}
	})
	if !found {
		t.Fatalf("EachBinding did not visit marker")
	}
}

func TestRuntimeEvalErrorIsFailShaped(t *testing.T) {
	rt := New()
	_, err := rt.ReadEval("(+ 1 'x)")
	if err == nil {
		t.Fatalf("want error")
	}
	if _, ok := err.(*EvalError); !ok {
		t.Fatalf("want *EvalError, got %#v", err)
	}
	if !strings.HasPrefix(err.Error(), "+:") {
		t.Fatalf("primitive failures name the operation, got %q", err.Error())
	}
}

func TestRuntimeNewListNewMap(t *testing.T) {
	rt := New()
	l := rt.NewList(Int(1), Int(2))
	m := rt.NewMap()

	rt.GC()
	if l.Data.(List).size() != 2 {
		t.Fatalf("explicitly constructed list must survive collection")
	}
	if _, ok := m.asMap(); !ok {
		t.Fatalf("map handle lost")
	}
	l.Release()
	m.Release()
}
