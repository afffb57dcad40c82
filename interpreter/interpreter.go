package interpreter

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/gas"
	"github.com/tzakian/libra/opcode"
	"github.com/tzakian/libra/params"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

// TypeTag is the runtime type descriptor derive_type_tag produces for a
// Value, used by opcodes (none in this opcode set directly, but relied on
// by native functions and the access-path hashing for structs) that need
// to know a value's shape without a static type environment.
type TypeTag struct {
	Kind   vmvalue.Kind
	Fields []TypeTag // populated only for KindStruct
}

// DeriveTypeTag walks v recursively, erroring with VMMaxTypeDepthReached if
// it would recurse past params.NativeTypeTagDepthCap — the depth cap named
// in the design notes as the implementer's defense against malformed
// deeply-nested struct signatures, since the original left the recursion
// unbounded. Strings and references (at any depth) are refused with
// VerifierInvariantViolation.
func DeriveTypeTag(v vmvalue.Value) (TypeTag, error) {
	return deriveTypeTag(v, 0)
}

func deriveTypeTag(v vmvalue.Value, depth int) (TypeTag, error) {
	if depth > params.NativeTypeTagDepthCap {
		return TypeTag{}, vmerrors.New(vmerrors.VMMaxTypeDepthReached)
	}
	switch v.Kind() {
	case vmvalue.KindString, vmvalue.KindLocalReference, vmvalue.KindGlobalReference:
		return TypeTag{}, vmerrors.New(vmerrors.VerifierInvariantViolation).WithMessage("cannot derive a type tag for " + v.Kind().String())
	}
	if v.Kind() != vmvalue.KindStruct {
		return TypeTag{Kind: v.Kind()}, nil
	}
	s, err := v.AsStruct()
	if err != nil {
		return TypeTag{}, err
	}
	fields := make([]TypeTag, 0, len(s.Fields))
	for _, f := range s.Fields {
		ft, err := deriveTypeTag(f, depth+1)
		if err != nil {
			return TypeTag{}, err
		}
		fields = append(fields, ft)
	}
	return TypeTag{Kind: vmvalue.KindStruct, Fields: fields}, nil
}

// Interpreter owns the operand stack, the call stack, the data cache
// handle for the in-flight transaction, and the gas schedule it charges
// against. One Interpreter serves exactly one transaction's script
// execution, matching the executor's "data cache/events are lent
// exclusively per invocation" design decision (§9 open question).
type Interpreter struct {
	operands       *OperandStack
	calls          *CallStack
	cache          *datacache.TransactionDataCache
	schedule       *gas.Schedule
	gasUsed        gas.GasUnits
	gasBudget      gas.GasUnits
	sender         vmvalue.Address
	gasPrice       gas.GasPrice
	maxGas         gas.GasUnits
	seqNum         uint64
	moduleCache    ModuleCache
	accountFactory AccountFactory
}

// Config bundles the per-transaction context the interpreter needs to
// service GetTxn* opcodes, mirroring the teacher's vm.Config/BlockContext
// split between "how to run" and "what transaction is running". ModuleCache
// and AccountFactory are optional: a script that never executes a Call or
// CreateAccount opcode can leave them nil.
type Config struct {
	Sender         vmvalue.Address
	SeqNum         uint64
	GasPrice       gas.GasPrice
	MaxGasUnits    gas.GasUnits
	ModuleCache    ModuleCache
	AccountFactory AccountFactory
}

// New constructs an Interpreter for one transaction, given the data cache
// the executor opened for it and the gas schedule in effect.
func New(cache *datacache.TransactionDataCache, schedule *gas.Schedule, cfg Config) *Interpreter {
	return &Interpreter{
		operands:       NewOperandStack(schedule.OperandStackLimit),
		calls:          NewCallStack(schedule.CallStackLimit),
		cache:          cache,
		schedule:       schedule,
		gasBudget:      cfg.MaxGasUnits,
		maxGas:         cfg.MaxGasUnits,
		sender:         cfg.Sender,
		gasPrice:       cfg.GasPrice,
		seqNum:         cfg.SeqNum,
		moduleCache:    cfg.ModuleCache,
		accountFactory: cfg.AccountFactory,
	}
}

// GasUsed reports the running total of gas charged so far.
func (in *Interpreter) GasUsed() gas.GasUnits { return in.gasUsed }

// charge deducts cost from the remaining budget, erroring OutOfGas if the
// budget would go negative, matching the "charge before executing" rule
// every opcode in §4.D follows.
func (in *Interpreter) charge(cost gas.GasUnits) error {
	remaining, err := in.gasBudget.Sub(cost)
	if err != nil {
		in.gasBudget = gas.NewGasUnits(0)
		return vmerrors.New(vmerrors.OutOfGas)
	}
	in.gasBudget = remaining
	used, err := in.gasUsed.Add(cost)
	if err != nil {
		return vmerrors.New(vmerrors.ArithmeticOverflow)
	}
	in.gasUsed = used
	return nil
}

// chargeInstr charges the schedule's fixed+per-unit cost for op against a
// value of the given memory size in words.
func (in *Interpreter) chargeInstr(op opcode.OpCode, sizeWords uint64) error {
	cost := in.schedule.CostTable.Cost(op)
	return in.charge(cost.Total(gas.NewMemorySize(sizeWords)))
}

// Run executes fn to completion (normal Ret or a propagated error),
// returning the values left on the operand stack by the function's final
// Ret, matching interpeter_entrypoint's role as the script body driver.
func (in *Interpreter) Run(fn *Function, args []vmvalue.Value) (returned []vmvalue.Value, status *vmerrors.VMStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = in.coreDump(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := in.calls.Push(NewFrame(fn, args, nil)); err != nil {
		return nil, asVMStatus(err)
	}

	for in.calls.Depth() > 0 {
		frame, err := in.calls.Top()
		if err != nil {
			return nil, in.coreDump(err)
		}
		if frame.PC >= len(frame.Function.Code) {
			return nil, in.coreDump(fmt.Errorf("pc %d past end of code (len %d)", frame.PC, len(frame.Function.Code)))
		}
		instr := frame.Function.Code[frame.PC]
		frame.PC++

		ret, done, err := in.step(frame, instr)
		if err != nil {
			return nil, asVMStatus(err)
		}
		if done {
			in.releaseFrameBorrows(frame)
			frame.State = FrameReturned
			if _, err := in.calls.Pop(); err != nil {
				return nil, in.coreDump(err)
			}
			if in.calls.Depth() == 0 {
				return ret, nil
			}
			for _, v := range ret {
				if err := in.operands.Push(v); err != nil {
					return nil, asVMStatus(err)
				}
			}
		}
	}
	return nil, vmerrors.New(vmerrors.UnreachableError)
}

// releaseFrameBorrows scans a popped frame's locals for GlobalReference
// values and releases their borrow against the data cache, approximating
// the original's Rc<RefCell<>> drop-based release (see design notes: Go
// has no deterministic destructor, so the interpreter does this explicitly
// at the one point a frame's locals are known dead).
func (in *Interpreter) releaseFrameBorrows(frame *Frame) {
	for i := 0; i < frame.Locals.Len(); i++ {
		v, err := frame.Locals.Peek(i)
		if err != nil || v.Kind() != vmvalue.KindGlobalReference {
			continue
		}
		ref, err := v.AsReference()
		if err != nil {
			continue
		}
		if gr, ok := ref.(vmvalue.GlobalReference); ok {
			in.cache.ReleaseGlobal(gr.Path)
		}
	}
}

// coreDump emits a structured diagnostic of interpreter state on an
// InvariantViolation, mirroring §4.D's "Failure semantics": these
// conditions should be unreachable if every other layer holds its
// invariants, so the best the interpreter can do is log everything needed
// to reproduce the bug.
func (in *Interpreter) coreDump(cause error) *vmerrors.VMStatus {
	log.Error("movevm: invariant violation, dumping interpreter state",
		"cause", cause,
		"callStackDepth", in.calls.Depth(),
		"operandStackDepth", in.operands.Len(),
		"gasUsed", in.gasUsed.Get(),
		"dump", spew.Sdump(in.calls.Frames()),
	)
	return vmerrors.New(vmerrors.UnknownInvariantViolationError).WithMessage(cause.Error())
}

func asVMStatus(err error) *vmerrors.VMStatus {
	if s, ok := err.(*vmerrors.VMStatus); ok {
		return s
	}
	return vmerrors.New(vmerrors.UnknownInvariantViolationError).WithMessage(err.Error())
}
