package interpreter

import (
	"github.com/tzakian/libra/opcode"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

// step executes one instruction of frame, charging its gas cost first and
// then performing its effect, matching the "charge then execute" ordering
// named in §4.D for every opcode except the global-storage ops
// MutBorrowGlobal/ImmBorrowGlobal, MoveFrom and MoveToSender, which are
// double-charged (a size=1 placeholder pre-charge, then the actual size
// charged after the cache access resolves it). Exists is charged only the
// size=1 pre-charge.
//
// It returns done=true when the instruction was Ret and the frame's
// return values are in ret; the caller is responsible for popping the
// frame and pushing ret onto the caller's operand stack.
func (in *Interpreter) step(frame *Frame, instr Instruction) (ret []vmvalue.Value, done bool, err error) {
	op := instr.Op

	switch op {
	case opcode.Pop:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		_, err := in.operands.Pop()
		return nil, false, err

	case opcode.Ret:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		n := frame.Function.NumReturns
		values := make([]vmvalue.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := in.operands.Pop()
			if err != nil {
				return nil, false, err
			}
			values[i] = v
		}
		return values, true, nil

	case opcode.BrTrue, opcode.BrFalse:
		cond, err := in.operands.PopAsBool()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		if cond == (op == opcode.BrTrue) {
			frame.PC = int(instr.Operand)
		}
		return nil, false, nil

	case opcode.Branch:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		frame.PC = int(instr.Operand)
		return nil, false, nil

	case opcode.LdTrue, opcode.LdFalse:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewBool(op == opcode.LdTrue))

	case opcode.LdConst:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewU64(instr.Operand))

	case opcode.LdAddr:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		var a vmvalue.Address
		a[31] = byte(instr.Operand)
		return nil, false, in.operands.Push(vmvalue.NewAddress(a))

	case opcode.LdStr:
		// LdStr is charged the flat size=1 cost and pushes an empty
		// string; the operand is not used. DeriveTypeTag refuses string
		// values, so a string loaded here has no derivable type tag.
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewString(""))

	case opcode.CopyLoc:
		v, err := frame.Locals.CopyLoc(int(instr.Operand))
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(v)

	case opcode.MoveLoc:
		v, err := frame.Locals.MoveLoc(int(instr.Operand))
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(v)

	case opcode.StLoc:
		v, err := in.operands.Pop()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, frame.Locals.StLoc(int(instr.Operand), v)

	case opcode.MutBorrowLoc, opcode.ImmBorrowLoc:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewLocalReference(frame.Locals, int(instr.Operand)))

	case opcode.MutBorrowField, opcode.ImmBorrowField:
		ref, err := in.operands.PopAsReference()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(extendFieldPath(ref, int(instr.Operand)))

	case opcode.ReadRef:
		ref, err := in.operands.PopAsReference()
		if err != nil {
			return nil, false, err
		}
		v, err := in.readRef(ref)
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(v)

	case opcode.WriteRef:
		ref, err := in.operands.PopAsReference()
		if err != nil {
			return nil, false, err
		}
		v, err := in.operands.Pop()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.writeRef(ref, v)

	case opcode.FreezeRef:
		// An immutable/mutable reference distinction is enforced by the
		// verifier (out of scope here); at runtime FreezeRef is a no-op
		// pass-through of the reference value.
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, nil

	case opcode.Add, opcode.Sub, opcode.Mul, opcode.Mod, opcode.Div,
		opcode.BitOr, opcode.BitAnd, opcode.Xor:
		return nil, false, in.binaryArith(op)

	case opcode.Or, opcode.And:
		return nil, false, in.binaryBool(op)

	case opcode.Not:
		b, err := in.operands.PopAsBool()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewBool(!b))

	case opcode.Eq, opcode.Neq:
		rhs, err := in.operands.Pop()
		if err != nil {
			return nil, false, err
		}
		lhs, err := in.operands.Pop()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		eq, err := lhs.Equals(rhs)
		if err != nil {
			return nil, false, err
		}
		if op == opcode.Neq {
			eq = !eq
		}
		return nil, false, in.operands.Push(vmvalue.NewBool(eq))

	case opcode.Lt, opcode.Gt, opcode.Le, opcode.Ge:
		return nil, false, in.compare(op)

	case opcode.Abort:
		code, err := in.operands.PopAsU64()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, vmerrors.New(vmerrors.Aborted).WithSubStatus(code)

	case opcode.GetTxnGasUnitPrice:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewU64(in.gasPrice.Get()))

	case opcode.GetTxnMaxGasUnits:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewU64(in.maxGas.Get()))

	case opcode.GetGasRemaining:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewU64(in.gasBudget.Get()))

	case opcode.GetTxnSenderAddress:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewAddress(in.sender))

	case opcode.GetTxnSequenceNumber:
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewU64(in.seqNum))

	case opcode.Pack:
		n := int(instr.Operand)
		fields := make([]vmvalue.Value, n)
		size := uint64(0)
		for i := n - 1; i >= 0; i-- {
			v, err := in.operands.Pop()
			if err != nil {
				return nil, false, err
			}
			fields[i] = v
			size += vmvalue.MemorySizeWords(v)
		}
		if err := in.chargeInstr(op, size); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewStruct(fields))

	case opcode.Unpack:
		v, err := in.operands.Pop()
		if err != nil {
			return nil, false, err
		}
		s, err := v.AsStruct()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		for _, f := range s.Fields {
			if err := in.operands.Push(f); err != nil {
				return nil, false, err
			}
		}
		return nil, false, nil

	case opcode.Exists:
		addr, err := in.operands.PopAsAddress()
		if err != nil {
			return nil, false, err
		}
		// Charged once, with a size=1 placeholder, before the data cache
		// lookup; unlike the other global-storage ops, no second charge
		// for the resource's actual size follows.
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		path := vmvalue.AccessPath{Address: addr, Path: pathOperand(instr)}
		exists, err := in.cache.ResourceExists(path)
		if err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewBool(exists))

	case opcode.MutBorrowGlobal, opcode.ImmBorrowGlobal:
		addr, err := in.operands.PopAsAddress()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		path := vmvalue.AccessPath{Address: addr, Path: pathOperand(instr)}
		v, err := in.cache.BorrowGlobal(path)
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(vmvalue.NewGlobalReference(path))

	case opcode.MoveFrom:
		addr, err := in.operands.PopAsAddress()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		path := vmvalue.AccessPath{Address: addr, Path: pathOperand(instr)}
		v, err := in.cache.MoveResourceFrom(path)
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.operands.Push(v)

	case opcode.MoveToSender:
		v, err := in.operands.Pop()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		path := vmvalue.AccessPath{Address: in.sender, Path: pathOperand(instr)}
		if err := in.chargeInstr(op, vmvalue.MemorySizeWords(v)); err != nil {
			return nil, false, err
		}
		return nil, false, in.cache.MoveResourceTo(path, v)

	case opcode.CreateAccount:
		// Kept as a transitional bytecode rather than demoted fully to a
		// native opcode encoding (see design notes): pops the new account's
		// address, then re-enters the account module's make function with
		// gas metering disabled around that call, and publishes whatever
		// resource it produces.
		addr, err := in.operands.PopAsAddress()
		if err != nil {
			return nil, false, err
		}
		if err := in.chargeInstr(op, 1); err != nil {
			return nil, false, err
		}
		if in.accountFactory == nil {
			return nil, false, vmerrors.New(vmerrors.MissingDependency).WithMessage("no account factory configured for CreateAccount")
		}
		account, err := in.accountFactory.Make(addr)
		if err != nil {
			return nil, false, err
		}
		path := vmvalue.AccessPath{Address: addr, Path: "account"}
		return nil, false, in.cache.MoveResourceTo(path, account)

	case opcode.Call:
		return nil, false, in.executeCall(frame, instr)

	default:
		return nil, false, vmerrors.New(vmerrors.UnreachableError).WithMessage("unknown opcode")
	}
}

// pathOperand is a placeholder resolving the struct-tag byte path a
// BorrowGlobal/Exists/MoveFrom/MoveToSender's immediate operand encodes;
// module/type resolution is out of scope (the loader is only consumed as
// an interface, never implemented), so the operand is used verbatim as
// the access-path suffix.
func pathOperand(instr Instruction) string {
	return instrPathTable[instr.Operand]
}

var instrPathTable = map[uint64]string{}

// RegisterResourcePath lets a caller (typically a test, or the executor
// wiring a script's constant pool) associate an immediate operand value
// with the resource path string it names, since this runtime does not
// implement the module/type loader that would normally resolve it.
func RegisterResourcePath(operand uint64, path string) {
	instrPathTable[operand] = path
}

func extendFieldPath(ref vmvalue.Reference, fieldIdx int) vmvalue.Value {
	switch r := ref.(type) {
	case vmvalue.LocalReference:
		return vmvalue.NewLocalReference(r.LocalsPtr(), r.Index(), append(append([]int{}, r.FieldPath()...), fieldIdx)...)
	case vmvalue.GlobalReference:
		return vmvalue.NewGlobalReference(r.Path, append(append([]int{}, r.FieldPath...), fieldIdx)...)
	default:
		return vmvalue.Value{}
	}
}

func (in *Interpreter) readRef(ref vmvalue.Reference) (vmvalue.Value, error) {
	switch r := ref.(type) {
	case vmvalue.LocalReference:
		return r.Read()
	case vmvalue.GlobalReference:
		v, err := in.cache.BorrowGlobal(r.Path)
		if err != nil {
			return vmvalue.Value{}, err
		}
		in.cache.ReleaseGlobal(r.Path) // BorrowGlobal above is read-only here; release immediately
		return vmvalue.NavigateFieldPath(v, r.FieldPath)
	default:
		return vmvalue.Value{}, vmerrors.New(vmerrors.TypeMismatch)
	}
}

func (in *Interpreter) writeRef(ref vmvalue.Reference, newVal vmvalue.Value) error {
	switch r := ref.(type) {
	case vmvalue.LocalReference:
		return r.Write(newVal)
	case vmvalue.GlobalReference:
		current, err := in.cache.BorrowGlobal(r.Path)
		if err != nil {
			return err
		}
		in.cache.ReleaseGlobal(r.Path)
		updated, err := vmvalue.WithFieldPath(current, r.FieldPath, newVal)
		if err != nil {
			return err
		}
		in.cache.WriteGlobal(r.Path, updated)
		return nil
	default:
		return vmerrors.New(vmerrors.TypeMismatch)
	}
}

func (in *Interpreter) binaryArith(op opcode.OpCode) error {
	rhs, err := in.operands.PopAsU64()
	if err != nil {
		return err
	}
	lhs, err := in.operands.PopAsU64()
	if err != nil {
		return err
	}
	if err := in.chargeInstr(op, 1); err != nil {
		return err
	}
	var result uint64
	switch op {
	case opcode.Add:
		sum, overflow := safeAddU64(lhs, rhs)
		if overflow {
			return vmerrors.New(vmerrors.ArithmeticError).WithMessage("addition overflow")
		}
		result = sum
	case opcode.Sub:
		if rhs > lhs {
			return vmerrors.New(vmerrors.ArithmeticError).WithMessage("subtraction underflow")
		}
		result = lhs - rhs
	case opcode.Mul:
		product, overflow := safeMulU64(lhs, rhs)
		if overflow {
			return vmerrors.New(vmerrors.ArithmeticError).WithMessage("multiplication overflow")
		}
		result = product
	case opcode.Mod:
		if rhs == 0 {
			return vmerrors.New(vmerrors.ArithmeticError).WithMessage("modulo by zero")
		}
		result = lhs % rhs
	case opcode.Div:
		if rhs == 0 {
			return vmerrors.New(vmerrors.ArithmeticError).WithMessage("division by zero")
		}
		result = lhs / rhs
	case opcode.BitOr:
		result = lhs | rhs
	case opcode.BitAnd:
		result = lhs & rhs
	case opcode.Xor:
		result = lhs ^ rhs
	}
	return in.operands.Push(vmvalue.NewU64(result))
}

func (in *Interpreter) binaryBool(op opcode.OpCode) error {
	rhs, err := in.operands.PopAsBool()
	if err != nil {
		return err
	}
	lhs, err := in.operands.PopAsBool()
	if err != nil {
		return err
	}
	if err := in.chargeInstr(op, 1); err != nil {
		return err
	}
	var result bool
	if op == opcode.Or {
		result = lhs || rhs
	} else {
		result = lhs && rhs
	}
	return in.operands.Push(vmvalue.NewBool(result))
}

func (in *Interpreter) compare(op opcode.OpCode) error {
	rhs, err := in.operands.PopAsU64()
	if err != nil {
		return err
	}
	lhs, err := in.operands.PopAsU64()
	if err != nil {
		return err
	}
	if err := in.chargeInstr(op, 1); err != nil {
		return err
	}
	var result bool
	switch op {
	case opcode.Lt:
		result = lhs < rhs
	case opcode.Gt:
		result = lhs > rhs
	case opcode.Le:
		result = lhs <= rhs
	case opcode.Ge:
		result = lhs >= rhs
	}
	return in.operands.Push(vmvalue.NewBool(result))
}

func safeAddU64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}

func safeMulU64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	product := a * b
	return product, product/a != b
}
