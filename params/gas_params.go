// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package params holds the fixed numeric constants of the gas algebra (§4.A
// of the spec). They are plain typed constants, not a mutable global
// schedule: callers that need a variant schedule build their own
// gas.Schedule value rather than mutating these.
package params

const (
	// IntrinsicGasPerByte is charged per transaction byte regardless of what
	// the script does.
	IntrinsicGasPerByte uint64 = 8
	// MinTransactionGasUnits is charged for any transaction up to
	// LargeTransactionCutoff bytes.
	MinTransactionGasUnits uint64 = 600
	// LargeTransactionCutoff is the byte size above which IntrinsicGasPerByte
	// is charged per word of excess.
	LargeTransactionCutoff uint64 = 600
	// WordSize is the size, in bytes, of the word used to round up the
	// intrinsic-gas excess computation.
	WordSize uint64 = 8

	// GlobalMemoryPerByteCost is the per-byte memory-expansion cost for
	// writes through a global reference. No code in this module charges
	// it: WriteRef is charged only its cost-table entry.
	GlobalMemoryPerByteCost uint64 = 8
	// GlobalMemoryPerByteWriteCost is the per-byte cost of data written to
	// a global reference. No code in this module charges it either.
	GlobalMemoryPerByteWriteCost uint64 = 8

	// OperandStackLimit is the hard cap on operand stack depth.
	OperandStackLimit = 1024
	// CallStackLimit is the hard cap on call stack depth.
	CallStackLimit = 1024

	// MaxGasUnits is the maximum number of gas units a transaction may spend.
	MaxGasUnits uint64 = 1_000_000
	// MaxGasPrice is the maximum allowed gas unit price.
	MaxGasPrice uint64 = 10_000
	// MinGasPrice is the minimum allowed gas unit price.
	MinGasPrice uint64 = 0

	// ConstSize is the abstract memory size, in words, of a non-string,
	// non-address constant pushed onto the stack.
	ConstSize uint64 = 1
	// ReferenceSize is the abstract memory size, in words, of a reference
	// value on the stack.
	ReferenceSize uint64 = 8
	// StructSize is the abstract memory size, in words, charged for a bare
	// struct value before its fields are accounted for.
	StructSize uint64 = 2
	// DefaultAccountSize is the abstract memory size, in words, of an
	// account resource.
	DefaultAccountSize uint64 = 32

	// MaxTransactionSizeInBytes bounds the size of transaction payloads the
	// executor will accept; enforcement of this bound is the caller's
	// responsibility (§4.D "Entry contract").
	MaxTransactionSizeInBytes uint64 = 4096

	// AddressLength is the length, in bytes, of an account address.
	AddressLength = 32

	// NativeTypeTagDepthCap bounds the recursion depth of derive_type_tag to
	// harden against malformed type-actual signatures (see spec design notes).
	NativeTypeTagDepthCap = 256
)
