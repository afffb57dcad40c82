package interpreter

import "github.com/tzakian/libra/vmerrors"

// Sentinel errors for the call-stack bookkeeping, matching the teacher's
// habit (core/vm's ErrStackOverflow, ErrStackUnderflow) of package-level
// vars for the handful of conditions every caller needs to compare
// against directly, layered over the shared vmerrors.VMStatus model so
// executor code can still branch on StatusType.
var (
	ErrCallStackOverflow = vmerrors.New(vmerrors.CallStackOverflow).WithMessage("call stack overflow")
	ErrEmptyCallStack    = vmerrors.New(vmerrors.UnreachableError).WithMessage("pop from empty call stack")
)
