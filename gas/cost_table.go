package gas

import (
	"github.com/tzakian/libra/opcode"
	"github.com/tzakian/libra/params"
)

// GasCost is a (fixed, per-memory-unit) pair: total cost for an instruction
// processing a value of size `size` words is fixed + size*perUnit, matching
// the original gas_schedule.rs CostTable entry shape.
type GasCost struct {
	Fixed   GasUnits
	PerUnit GasUnits
}

// Total computes the instruction's gas cost for a value of the given
// abstract memory size, mirroring GasCost::total in the original: fixed +
// size * per_unit, using UnitaryCast to relate an AbstractMemorySize to the
// GasUnits it's multiplied against.
func (c GasCost) Total(size AbstractMemorySize) GasUnits {
	sizeAsUnits := UnitaryCast[memoryTag, unitsTag](size)
	scaled, err := c.PerUnit.Mul(sizeAsUnits)
	if err != nil {
		// Overflow here means a pathologically large value made it past
		// every earlier size check; treat it as an unconditionally maximal
		// charge rather than panicking mid-interpreter-loop.
		return NewGasUnits(^uint64(0))
	}
	total, err := c.Fixed.Add(scaled)
	if err != nil {
		return NewGasUnits(^uint64(0))
	}
	return total
}

// CostTable maps every opcode to its GasCost, indexed densely by
// opcode.InstructionKey the way the original indexed its Vec<GasCost> by
// instruction_key(op) - 1.
type CostTable struct {
	entries [opcode.FreezeRef + 1]GasCost
}

// Cost looks up the GasCost for op. It panics on an opcode outside the
// table's range, since that can only happen if a new opcode was added to
// the opcode package without a matching cost table entry — a programming
// error, not a runtime condition.
func (t *CostTable) Cost(op opcode.OpCode) GasCost {
	return t.entries[opcode.InstructionKey(op)]
}

func (t *CostTable) set(op opcode.OpCode, fixed, perUnit uint64) {
	t.entries[opcode.InstructionKey(op)] = GasCost{
		Fixed:   NewGasUnits(fixed),
		PerUnit: NewGasUnits(perUnit),
	}
}

// DefaultCostTable returns the standard cost table, mirroring the constant
// table bootstrapped in gas_schedule.rs's zero-cost-schedule fallback path
// plus the per-opcode costs the teacher's gas_table.go hand-assigns for
// EVM-style opcodes. Values are flat per-instruction base costs; variable
// per-byte terms are expressed through PerUnit and combined with the
// instruction's operand size at charge time.
func DefaultCostTable() *CostTable {
	t := &CostTable{}
	t.set(opcode.Pop, 1, 1)
	t.set(opcode.Ret, 638, 1)
	t.set(opcode.BrTrue, 31, 1)
	t.set(opcode.BrFalse, 29, 1)
	t.set(opcode.Branch, 16, 1)
	t.set(opcode.LdConst, 213, 1)
	t.set(opcode.LdAddr, 64, 1)
	t.set(opcode.LdStr, 84, 1)
	t.set(opcode.LdTrue, 6, 1)
	t.set(opcode.LdFalse, 6, 1)
	t.set(opcode.CopyLoc, 8, 1)
	t.set(opcode.MoveLoc, 8, 1)
	t.set(opcode.StLoc, 22, 1)
	t.set(opcode.Call, 1132, 1)
	t.set(opcode.Pack, 2, 1)
	t.set(opcode.Unpack, 2, 1)
	t.set(opcode.ReadRef, 8, 1)
	t.set(opcode.WriteRef, 8, 1)
	t.set(opcode.Add, 45, 1)
	t.set(opcode.Sub, 44, 1)
	t.set(opcode.Mul, 58, 1)
	t.set(opcode.Mod, 59, 1)
	t.set(opcode.Div, 58, 1)
	t.set(opcode.BitOr, 48, 1)
	t.set(opcode.BitAnd, 44, 1)
	t.set(opcode.Xor, 42, 1)
	t.set(opcode.Or, 45, 1)
	t.set(opcode.And, 44, 1)
	t.set(opcode.Not, 35, 1)
	t.set(opcode.Eq, 48, 1)
	t.set(opcode.Neq, 51, 1)
	t.set(opcode.Lt, 49, 1)
	t.set(opcode.Gt, 46, 1)
	t.set(opcode.Le, 47, 1)
	t.set(opcode.Ge, 46, 1)
	t.set(opcode.Abort, 39, 1)
	t.set(opcode.GetTxnGasUnitPrice, 8, 1)
	t.set(opcode.GetTxnMaxGasUnits, 8, 1)
	t.set(opcode.GetGasRemaining, 8, 1)
	t.set(opcode.GetTxnSenderAddress, 8, 1)
	t.set(opcode.Exists, 856, 1)
	t.set(opcode.MutBorrowGlobal, 929, 1)
	t.set(opcode.ImmBorrowGlobal, 929, 1)
	t.set(opcode.MoveFrom, 917, 1)
	t.set(opcode.MoveToSender, 774, 1)
	t.set(opcode.CreateAccount, 2366, 1)
	t.set(opcode.MutBorrowLoc, 2, 1)
	t.set(opcode.ImmBorrowLoc, 2, 1)
	t.set(opcode.MutBorrowField, 5, 1)
	t.set(opcode.ImmBorrowField, 5, 1)
	t.set(opcode.GetTxnSequenceNumber, 8, 1)
	t.set(opcode.FreezeRef, 1, 1)
	return t
}

// Schedule is the immutable bundle of gas-related configuration threaded
// explicitly through the interpreter and executor, replacing any
// package-level mutable gas-schedule constants (see design notes).
type Schedule struct {
	CostTable          *CostTable
	MaxGasUnits        GasUnits
	MaxGasPrice        GasPrice
	MinGasPrice        GasPrice
	OperandStackLimit  int
	CallStackLimit     int
}

// DefaultSchedule returns the schedule built from params' fixed constants
// and DefaultCostTable.
func DefaultSchedule() *Schedule {
	return &Schedule{
		CostTable:         DefaultCostTable(),
		MaxGasUnits:       NewGasUnits(params.MaxGasUnits),
		MaxGasPrice:       NewGasPrice(params.MaxGasPrice),
		MinGasPrice:       NewGasPrice(params.MinGasPrice),
		OperandStackLimit: params.OperandStackLimit,
		CallStackLimit:    params.CallStackLimit,
	}
}

// CalculateIntrinsicGas computes the gas charged for a transaction purely
// from its serialized size, mirroring calculate_intrinsic_gas: a flat
// minimum up to LargeTransactionCutoff bytes, plus IntrinsicGasPerByte per
// word of excess beyond the cutoff.
func CalculateIntrinsicGas(transactionSize uint64) GasUnits {
	if transactionSize <= params.LargeTransactionCutoff {
		return NewGasUnits(params.MinTransactionGasUnits)
	}
	excess := transactionSize - params.LargeTransactionCutoff
	words := (excess + params.WordSize - 1) / params.WordSize
	return NewGasUnits(params.MinTransactionGasUnits + words*params.IntrinsicGasPerByte)
}
