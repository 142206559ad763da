// object.go: opaque native handles.
//
// Objects wrap host values the language cannot inspect. The capability
// surface is deliberately small: render to a string and duplicate the
// handle. Equality is handle identity; two objects are the same only when
// they are the same *Object. Programs should not use objects as map keys.
package orb

import "github.com/google/uuid"

// ObjectCaps is implemented by host values exposed to programs.
type ObjectCaps interface {
	ToString() string
	CloneHandle() ObjectCaps
}

type Object struct {
	id   string
	caps ObjectCaps
}

// NewObject wraps a host capability value into a handle with a fresh
// identity.
func NewObject(caps ObjectCaps) *Object {
	return &Object{id: uuid.NewString(), caps: caps}
}

func (o *Object) ID() string       { return o.id }
func (o *Object) Caps() ObjectCaps { return o.caps }

func (o *Object) String() string {
	if o.caps == nil {
		return "<object " + o.id + ">"
	}
	return o.caps.ToString()
}

// Copy duplicates the underlying handle into a new identity.
func (o *Object) Copy() *Object {
	var caps ObjectCaps
	if o.caps != nil {
		caps = o.caps.CloneHandle()
	}
	return &Object{id: uuid.NewString(), caps: caps}
}
