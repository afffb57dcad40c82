package interpreter

import (
	"github.com/tzakian/libra/opcode"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

// CallTarget names a callee the way a Call instruction's constant pool
// entry would: by the module that defines it and the function's name
// within that module. Module loading is an explicit Non-goal, so nothing
// here resolves a CallTarget on its own; a ModuleCache does that.
type CallTarget struct {
	Module string
	Name   string
}

// NativeFunction is a function implemented directly in Go rather than in
// bytecode, dispatched by (module, name) the same way a non-native callee
// is, but invoked in-process instead of through a pushed Frame.
type NativeFunction func(in *Interpreter, typeActuals []TypeTag, args []vmvalue.Value) ([]vmvalue.Value, error)

// FunctionRef is what a ModuleCache hands back for a CallTarget: either a
// NativeFunction to invoke directly, or a Function to push as a new frame.
// Exactly one of the two is set.
type FunctionRef struct {
	Native   NativeFunction
	Function *Function
}

// ModuleCache is the consumed interface the Call opcode resolves callees
// through. It stands in for the module loader named as an explicit
// Non-goal: this runtime never parses or verifies module bytecode, but
// still needs somewhere to ask "what does (module, name) refer to" so Call
// can be implemented against already-resolved functions. Callers (the
// executor, tests, the fuzzer) populate one however they see fit, typically
// by registering Function/NativeFunction values ahead of time.
type ModuleCache interface {
	ResolveFunction(target CallTarget) (FunctionRef, error)
}

// TypeActual is one entry of a Call instruction's type-actual list: either
// a type fixed at the call site, or a reference to the calling frame's own
// Nth type-formal instantiation, resolved against it the way derive_type_tag
// resolves a type-parameter signature token against the enclosing
// function's type actuals.
type TypeActual struct {
	Formal bool
	Index  int
	Tag    TypeTag
}

// ConcreteTypeActual is a type-actual already fixed at the call site.
func ConcreteTypeActual(tag TypeTag) TypeActual { return TypeActual{Tag: tag} }

// FormalTypeActual refers to the calling frame's own type-actual at index.
func FormalTypeActual(index int) TypeActual { return TypeActual{Formal: true, Index: index} }

// ResolveTypeActuals substitutes every formal reference in actuals against
// callerActuals, the enclosing frame's own instantiation, producing the
// concrete TypeTag list the callee frame is instantiated with.
func ResolveTypeActuals(actuals []TypeActual, callerActuals []TypeTag) ([]TypeTag, error) {
	if len(actuals) == 0 {
		return nil, nil
	}
	resolved := make([]TypeTag, len(actuals))
	for i, a := range actuals {
		if !a.Formal {
			resolved[i] = a.Tag
			continue
		}
		if a.Index < 0 || a.Index >= len(callerActuals) {
			return nil, vmerrors.New(vmerrors.VerifierInvariantViolation).WithMessage("type-formal index out of range in Call instruction")
		}
		resolved[i] = callerActuals[a.Index]
	}
	return resolved, nil
}

// AccountFactory is the account module's make entrypoint, invoked by the
// CreateAccount opcode with gas metering disabled around the call itself
// (the opcode that triggers it is still charged normally). It mirrors the
// re-entrant call the original makes into the account module rather than
// fabricating account state inline.
type AccountFactory interface {
	Make(addr vmvalue.Address) (vmvalue.Value, error)
}

// executeCall resolves instr's callee through the interpreter's
// ModuleCache, pops its arguments off the operand stack, and either invokes
// it as a native function (pushing its results straight back onto the
// operand stack) or pushes a new Frame for the call stack to pick up on the
// next iteration of Run's loop. Frame suspension/resumption and
// CallStackOverflow are entirely handled by the existing CallStack.Push.
func (in *Interpreter) executeCall(frame *Frame, instr Instruction) error {
	if instr.Callee == nil {
		return vmerrors.New(vmerrors.VerifierInvariantViolation).WithMessage("Call instruction has no callee")
	}
	if in.moduleCache == nil {
		return vmerrors.New(vmerrors.MissingDependency).WithMessage("no module cache configured to resolve Call")
	}
	if err := in.chargeInstr(opcode.Call, 1); err != nil {
		return err
	}

	fnRef, err := in.moduleCache.ResolveFunction(*instr.Callee)
	if err != nil {
		return err
	}

	typeActuals, err := ResolveTypeActuals(instr.TypeActuals, frame.TypeActuals)
	if err != nil {
		return err
	}

	args := make([]vmvalue.Value, instr.ArgCount)
	for i := instr.ArgCount - 1; i >= 0; i-- {
		v, err := in.operands.Pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	if fnRef.Native != nil {
		results, err := fnRef.Native(in, typeActuals, args)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := in.operands.Push(r); err != nil {
				return err
			}
		}
		return nil
	}

	if fnRef.Function == nil {
		return vmerrors.New(vmerrors.VerifierInvariantViolation).WithMessage("resolved Call target is neither native nor has a body")
	}

	return in.calls.Push(NewFrame(fnRef.Function, args, typeActuals))
}
