// Package interpreter implements the Interpreter Core (§4.D): the operand
// and call stacks, the Frame state machine, the opcode dispatch loop, and
// derive_type_tag. It is the one package that holds both a vmvalue stack
// and a datacache handle, so it mediates every GlobalReference read/write
// rather than letting those packages depend on each other directly.
//
// Grounded directly on the teacher's core/vm interpreter loop shape
// (jump-table-free switch dispatch, charge-then-execute per opcode,
// ErrStackOverflow/ErrStackUnderflow sentinel pattern), cross-checked
// against original_source's interpreter.rs execute_code_unit match for
// exact per-opcode semantics.
package interpreter

import (
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

// OperandStack is the per-frame-call-stack-wide value stack every opcode
// pushes to and pops from, bounded by the schedule's OperandStackLimit.
type OperandStack struct {
	values []vmvalue.Value
	limit  int
}

// NewOperandStack allocates an empty operand stack bounded at limit.
func NewOperandStack(limit int) *OperandStack {
	return &OperandStack{limit: limit}
}

// Push appends v, erroring with CallStackOverflow (message "operand stack
// overflow") if the stack is already at its limit; vmerrors has no
// separate status code for an operand-stack overflow.
func (s *OperandStack) Push(v vmvalue.Value) error {
	if len(s.values) >= s.limit {
		return vmerrors.New(vmerrors.CallStackOverflow).WithMessage("operand stack overflow")
	}
	s.values = append(s.values, v)
	return nil
}

// Pop removes and returns the top value, erroring with EmptyValueStack if
// the stack is empty — this should never happen if the bytecode verifier
// did its job, hence the InvariantViolation status type.
func (s *OperandStack) Pop() (vmvalue.Value, error) {
	if len(s.values) == 0 {
		return vmvalue.Value{}, vmerrors.New(vmerrors.EmptyValueStack)
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Peek returns the top value without removing it.
func (s *OperandStack) Peek() (vmvalue.Value, error) {
	if len(s.values) == 0 {
		return vmvalue.Value{}, vmerrors.New(vmerrors.EmptyValueStack)
	}
	return s.values[len(s.values)-1], nil
}

// Len reports the current depth of the stack.
func (s *OperandStack) Len() int { return len(s.values) }

// PopAsBool, PopAsU64, etc. are Pop composed with the matching vmvalue
// accessor, used pervasively by the opcode handlers.
func (s *OperandStack) PopAsBool() (bool, error) {
	v, err := s.Pop()
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func (s *OperandStack) PopAsU64() (uint64, error) {
	v, err := s.Pop()
	if err != nil {
		return 0, err
	}
	return v.AsU64()
}

func (s *OperandStack) PopAsAddress() (vmvalue.Address, error) {
	v, err := s.Pop()
	if err != nil {
		return vmvalue.Address{}, err
	}
	return v.AsAddress()
}

func (s *OperandStack) PopAsReference() (vmvalue.Reference, error) {
	v, err := s.Pop()
	if err != nil {
		return nil, err
	}
	return v.AsReference()
}
