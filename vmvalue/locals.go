package vmvalue

import "fmt"

// Locals is the fixed-size frame-local variable slots a Frame owns for the
// duration of a function call. Slots start Invalid; CopyLoc/MoveLoc/StLoc
// enforce the move discipline described in §4.B: MoveLoc leaves its slot
// Invalid, CopyLoc and MoveLoc require the slot not be Invalid, and StLoc
// overwrites whatever the slot holds.
type Locals struct {
	slots []Value
}

// NewLocals allocates a Locals with n slots, all Invalid.
func NewLocals(n int) *Locals {
	slots := make([]Value, n)
	for i := range slots {
		slots[i] = NewInvalid()
	}
	return &Locals{slots: slots}
}

func (l *Locals) checkIndex(idx int) error {
	if idx < 0 || idx >= len(l.slots) {
		return fmt.Errorf("vmvalue: local index %d out of bounds (%d locals)", idx, len(l.slots))
	}
	return nil
}

// CopyLoc returns a copy of the value at idx. The slot must not be
// Invalid. No resource check is made, here or in the interpreter's CopyLoc
// handler: a struct value is copied like any other.
func (l *Locals) CopyLoc(idx int) (Value, error) {
	if err := l.checkIndex(idx); err != nil {
		return Value{}, err
	}
	v := l.slots[idx]
	if v.IsInvalid() {
		return Value{}, fmt.Errorf("vmvalue: CopyLoc on invalid local %d", idx)
	}
	return v, nil
}

// MoveLoc takes the value out of idx, leaving the slot Invalid.
func (l *Locals) MoveLoc(idx int) (Value, error) {
	if err := l.checkIndex(idx); err != nil {
		return Value{}, err
	}
	v := l.slots[idx]
	if v.IsInvalid() {
		return Value{}, fmt.Errorf("vmvalue: MoveLoc on invalid local %d", idx)
	}
	l.slots[idx] = NewInvalid()
	return v, nil
}

// StLoc stores v into idx, discarding whatever was previously there. The
// interpreter is responsible for running any necessary resource-drop check
// before calling this for a slot that isn't already Invalid.
func (l *Locals) StLoc(idx int, v Value) error {
	if err := l.checkIndex(idx); err != nil {
		return err
	}
	l.slots[idx] = v
	return nil
}

// Peek returns the value at idx without consuming it, used by
// LocalReference.Read/Write and by the interpreter's frame-borrow release
// scan to inspect a slot without disturbing it.
func (l *Locals) Peek(idx int) (Value, error) {
	if err := l.checkIndex(idx); err != nil {
		return Value{}, err
	}
	return l.slots[idx], nil
}

// Len reports the number of local slots.
func (l *Locals) Len() int { return len(l.slots) }

// LocalReference is a reference into a frame's own Locals, optionally
// projected through a chain of struct field indices. It is self-contained
// (holds a *Locals pointer directly) since Locals never leaves the
// vmvalue/interpreter boundary, unlike GlobalReference which must cross
// into the data cache.
type LocalReference struct {
	locals    *Locals
	index     int
	fieldPath []int
}

func (LocalReference) isReference() {}

// LocalsPtr, Index and FieldPath expose a LocalReference's internals so the
// interpreter can extend the field path (MutBorrowField/ImmBorrowField
// chained onto an existing local borrow) without vmvalue needing to know
// about that opcode itself.
func (r LocalReference) LocalsPtr() *Locals  { return r.locals }
func (r LocalReference) Index() int          { return r.index }
func (r LocalReference) FieldPath() []int    { return r.fieldPath }

// NewLocalReference constructs a reference to locals[index], optionally
// narrowed to a nested field via fieldPath (each element a struct field
// index, applied left to right), matching MutBorrowField/ImmBorrowField
// chaining onto an existing BorrowLoc result.
func NewLocalReference(locals *Locals, index int, fieldPath ...int) Value {
	return Value{
		kind: KindLocalReference,
		ref:  LocalReference{locals: locals, index: index, fieldPath: fieldPath},
	}
}

// Read dereferences the local reference, following any field path.
func (r LocalReference) Read() (Value, error) {
	v, err := r.locals.Peek(r.index)
	if err != nil {
		return Value{}, err
	}
	return navigateFieldPath(v, r.fieldPath)
}

// Write stores newVal through the reference, following any field path by
// rebuilding the struct spine rather than mutating shared Value copies.
func (r LocalReference) Write(newVal Value) error {
	if len(r.fieldPath) == 0 {
		return r.locals.StLoc(r.index, newVal)
	}
	root, err := r.locals.Peek(r.index)
	if err != nil {
		return err
	}
	updated, err := withFieldPath(root, r.fieldPath, newVal)
	if err != nil {
		return err
	}
	return r.locals.StLoc(r.index, updated)
}

func navigateFieldPath(v Value, path []int) (Value, error) {
	for _, idx := range path {
		s, err := v.AsStruct()
		if err != nil {
			return Value{}, err
		}
		if idx < 0 || idx >= len(s.Fields) {
			return Value{}, fmt.Errorf("vmvalue: field index %d out of bounds", idx)
		}
		v = s.Fields[idx]
	}
	return v, nil
}

func withFieldPath(v Value, path []int, newVal Value) (Value, error) {
	if len(path) == 0 {
		return newVal, nil
	}
	s, err := v.AsStruct()
	if err != nil {
		return Value{}, err
	}
	idx := path[0]
	if idx < 0 || idx >= len(s.Fields) {
		return Value{}, fmt.Errorf("vmvalue: field index %d out of bounds", idx)
	}
	fields := make([]Value, len(s.Fields))
	copy(fields, s.Fields)
	updatedField, err := withFieldPath(fields[idx], path[1:], newVal)
	if err != nil {
		return Value{}, err
	}
	fields[idx] = updatedField
	return NewStruct(fields), nil
}

// AccessPath names a resource slot in global storage: the account it lives
// under plus the serialized struct-tag path, matching the original
// AccessPath(address, Vec<u8>) pair.
type AccessPath struct {
	Address Address
	Path    string
}

func (a AccessPath) String() string {
	return fmt.Sprintf("%x/%s", a.Address, a.Path)
}

// GlobalReference points at a resource slot in the data cache, identified
// only by its AccessPath (plus an optional field path for nested borrows)
// so that vmvalue never needs to import the data cache package; the
// interpreter, which holds both a vmvalue stack and a data cache handle,
// mediates the actual Read/Write.
type GlobalReference struct {
	Path      AccessPath
	FieldPath []int
}

func (GlobalReference) isReference() {}

// NewGlobalReference constructs a reference to the resource at path,
// optionally narrowed to a nested field.
func NewGlobalReference(path AccessPath, fieldPath ...int) Value {
	return Value{
		kind: KindGlobalReference,
		ref:  GlobalReference{Path: path, FieldPath: fieldPath},
	}
}

// NavigateFieldPath and WithFieldPath are exported so the interpreter can
// apply a GlobalReference's field path against the value it reads from, or
// writes back to, the data cache.
func NavigateFieldPath(v Value, path []int) (Value, error) { return navigateFieldPath(v, path) }
func WithFieldPath(v Value, path []int, newVal Value) (Value, error) {
	return withFieldPath(v, path, newVal)
}
