// Package vmvalue implements the Value Model (§4.B): the tagged Value
// union, the Locals array with its Invalid-sentinel discipline, local and
// global references, and the canonical simple_serialize encoding.
//
// Grounded on the teacher's core/vm operand typing (the Stack/uint256.Int
// pattern used throughout the EVM interpreter) adapted to a heterogeneous
// tagged union rather than a fixed 256-bit word, since a resource-oriented
// value set mixes bools, 64-bit integers, 32-byte addresses, byte arrays,
// strings and nested structs on one operand stack.
package vmvalue

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindU64
	KindAddress
	KindByteArray
	KindString
	KindStruct
	KindLocalReference
	KindGlobalReference
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindBool:
		return "Bool"
	case KindU64:
		return "U64"
	case KindAddress:
		return "Address"
	case KindByteArray:
		return "ByteArray"
	case KindString:
		return "String"
	case KindStruct:
		return "Struct"
	case KindLocalReference:
		return "LocalReference"
	case KindGlobalReference:
		return "GlobalReference"
	default:
		return "Unknown"
	}
}

// Address is the fixed-width account address, reusing the teacher's
// common.Address byte layout (left-padded to 32 bytes here, since resource
// addresses are wider than Ethereum's 20-byte accounts).
type Address [32]byte

// AsCommonHash reinterprets the address as a common.Hash, the width the
// teacher's own common package already provides, avoiding a hand-rolled
// 32-byte fixed-array type.
func (a Address) AsCommonHash() common.Hash {
	return common.Hash(a)
}

// Struct is an ordered tuple of field values. Move-style structs have no
// field names at the VM layer; field access is by declared index, resolved
// by the loader (out of scope here, consumed only as a FieldDef index).
type Struct struct {
	Fields []Value
}

// Value is the tagged union every operand stack slot and local variable
// slot holds. Exactly one of the typed fields is meaningful, selected by
// Kind; this mirrors the teacher's preference for a single concrete struct
// over an interface type when the variant set is small, closed and hot.
type Value struct {
	kind    Kind
	boolean bool
	u64     uint64
	address Address
	bytes   []byte
	str     string
	strct   *Struct
	ref     Reference
}

// Reference is implemented by LocalReference and GlobalReference, the two
// ways a Value can point at storage it does not own.
type Reference interface {
	isReference()
}

func (Invalid) isReference() {}

// Invalid is a placeholder type satisfying the Reference interface. No
// constructor in this package assigns it: Value.ref is nil whenever Kind
// is not one of the reference kinds.
type Invalid struct{}

// Constructors mirror the original Value::bool/u64/address/... associated
// functions.

func NewBool(b bool) Value             { return Value{kind: KindBool, boolean: b} }
func NewU64(n uint64) Value            { return Value{kind: KindU64, u64: n} }
func NewAddress(a Address) Value       { return Value{kind: KindAddress, address: a} }
func NewByteArray(b []byte) Value      { return Value{kind: KindByteArray, bytes: b} }
func NewString(s string) Value         { return Value{kind: KindString, str: s} }
func NewStruct(fields []Value) Value   { return Value{kind: KindStruct, strct: &Struct{Fields: fields}} }

// NewInvalid returns the sentinel value stored in a Locals slot that has
// been moved out of or never initialized.
func NewInvalid() Value { return Value{kind: KindInvalid} }

func (v Value) Kind() Kind { return v.kind }

// IsInvalid reports whether v is the Locals sentinel, the only check
// CopyLoc/MoveLoc/BorrowLoc need before touching a slot.
func (v Value) IsInvalid() bool { return v.kind == KindInvalid }

// AsBool, AsU64, etc. extract the typed payload, returning an error if Kind
// does not match — this is the equivalent of the original's pattern match
// panicking with an invariant violation on a type mismatch, surfaced here
// as a regular Go error; the interpreter's asVMStatus turns such a plain
// error into an UnknownInvariantViolationError status.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("vmvalue: expected Bool, got %s", v.kind)
	}
	return v.boolean, nil
}

func (v Value) AsU64() (uint64, error) {
	if v.kind != KindU64 {
		return 0, fmt.Errorf("vmvalue: expected U64, got %s", v.kind)
	}
	return v.u64, nil
}

func (v Value) AsAddress() (Address, error) {
	if v.kind != KindAddress {
		return Address{}, fmt.Errorf("vmvalue: expected Address, got %s", v.kind)
	}
	return v.address, nil
}

func (v Value) AsByteArray() ([]byte, error) {
	if v.kind != KindByteArray {
		return nil, fmt.Errorf("vmvalue: expected ByteArray, got %s", v.kind)
	}
	return v.bytes, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("vmvalue: expected String, got %s", v.kind)
	}
	return v.str, nil
}

func (v Value) AsStruct() (*Struct, error) {
	if v.kind != KindStruct {
		return nil, fmt.Errorf("vmvalue: expected Struct, got %s", v.kind)
	}
	return v.strct, nil
}

func (v Value) AsReference() (Reference, error) {
	switch v.kind {
	case KindLocalReference, KindGlobalReference:
		return v.ref, nil
	default:
		return nil, fmt.Errorf("vmvalue: expected a reference, got %s", v.kind)
	}
}

// Equals implements the VM's structural equality (Eq/Neq opcodes): values
// of different kinds are never equal, and comparing two values of the same
// non-comparable kind (references, Invalid) returns an error rather than
// dereferencing.
func (v Value) Equals(other Value) (bool, error) {
	if v.kind != other.kind {
		return false, nil
	}
	switch v.kind {
	case KindBool:
		return v.boolean == other.boolean, nil
	case KindU64:
		return v.u64 == other.u64, nil
	case KindAddress:
		return v.address == other.address, nil
	case KindByteArray:
		return string(v.bytes) == string(other.bytes), nil
	case KindString:
		return v.str == other.str, nil
	case KindStruct:
		if len(v.strct.Fields) != len(other.strct.Fields) {
			return false, nil
		}
		for i := range v.strct.Fields {
			eq, err := v.strct.Fields[i].Equals(other.strct.Fields[i])
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("vmvalue: equality undefined for %s", v.kind)
	}
}
