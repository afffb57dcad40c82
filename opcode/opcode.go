// Package opcode defines the bytecode instruction set shared by the gas and
// interpreter packages. It is split out on its own so that gas.CostTable can
// index cost entries by OpCode without importing the interpreter, and the
// interpreter can import gas without a cycle.
package opcode

// OpCode identifies a single bytecode instruction. Values start at 1 so that
// the zero value is reserved as "no opcode" rather than aliasing Pop.
type OpCode byte

const (
	Pop OpCode = iota + 1
	Ret
	BrTrue
	BrFalse
	Branch
	LdConst
	LdAddr
	LdStr
	LdTrue
	LdFalse
	CopyLoc
	MoveLoc
	StLoc
	Call
	Pack
	Unpack
	ReadRef
	WriteRef
	Add
	Sub
	Mul
	Mod
	Div
	BitOr
	BitAnd
	Xor
	Or
	And
	Not
	Eq
	Neq
	Lt
	Gt
	Le
	Ge
	Abort
	GetTxnGasUnitPrice
	GetTxnMaxGasUnits
	GetGasRemaining
	GetTxnSenderAddress
	Exists
	MutBorrowGlobal
	ImmBorrowGlobal
	MoveFrom
	MoveToSender
	CreateAccount
	MutBorrowLoc
	ImmBorrowLoc
	MutBorrowField
	ImmBorrowField
	GetTxnSequenceNumber
	FreezeRef
)

// InstructionKey returns the dense, 1-based index used to look an opcode up
// in a CostTable, mirroring the original instruction_key(op) - 1 scheme: the
// enum's ordinal already starts at 1, so the key is the OpCode value itself.
func InstructionKey(op OpCode) int {
	return int(op)
}

// Count is the number of distinct opcodes, used to size per-opcode tables.
func Count() int {
	return int(FreezeRef)
}

func (op OpCode) String() string {
	if name, ok := names[op]; ok {
		return name
	}
	return "UNKNOWN"
}

var names = map[OpCode]string{
	Pop:                   "Pop",
	Ret:                   "Ret",
	BrTrue:                "BrTrue",
	BrFalse:               "BrFalse",
	Branch:                "Branch",
	LdConst:               "LdConst",
	LdAddr:                "LdAddr",
	LdStr:                 "LdStr",
	LdTrue:                "LdTrue",
	LdFalse:               "LdFalse",
	CopyLoc:               "CopyLoc",
	MoveLoc:               "MoveLoc",
	StLoc:                 "StLoc",
	Call:                  "Call",
	Pack:                  "Pack",
	Unpack:                "Unpack",
	ReadRef:               "ReadRef",
	WriteRef:              "WriteRef",
	Add:                   "Add",
	Sub:                   "Sub",
	Mul:                   "Mul",
	Mod:                   "Mod",
	Div:                   "Div",
	BitOr:                 "BitOr",
	BitAnd:                "BitAnd",
	Xor:                   "Xor",
	Or:                    "Or",
	And:                   "And",
	Not:                   "Not",
	Eq:                    "Eq",
	Neq:                   "Neq",
	Lt:                    "Lt",
	Gt:                    "Gt",
	Le:                    "Le",
	Ge:                    "Ge",
	Abort:                 "Abort",
	GetTxnGasUnitPrice:    "GetTxnGasUnitPrice",
	GetTxnMaxGasUnits:     "GetTxnMaxGasUnits",
	GetGasRemaining:       "GetGasRemaining",
	GetTxnSenderAddress:   "GetTxnSenderAddress",
	Exists:                "Exists",
	MutBorrowGlobal:       "MutBorrowGlobal",
	ImmBorrowGlobal:       "ImmBorrowGlobal",
	MoveFrom:              "MoveFrom",
	MoveToSender:          "MoveToSender",
	CreateAccount:         "CreateAccount",
	MutBorrowLoc:          "MutBorrowLoc",
	ImmBorrowLoc:          "ImmBorrowLoc",
	MutBorrowField:        "MutBorrowField",
	ImmBorrowField:        "ImmBorrowField",
	GetTxnSequenceNumber:  "GetTxnSequenceNumber",
	FreezeRef:             "FreezeRef",
}
