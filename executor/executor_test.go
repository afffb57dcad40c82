package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/gas"
	"github.com/tzakian/libra/interpreter"
	"github.com/tzakian/libra/opcode"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

type noopRemoteView struct{}

func (noopRemoteView) GetResource(vmvalue.AccessPath) ([]byte, bool, error) {
	return nil, false, nil
}

type passingAccountModule struct{}

func (passingAccountModule) Prologue(*datacache.TransactionDataCache, Transaction) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.Executed)
}

func (passingAccountModule) Epilogue(*datacache.TransactionDataCache, Transaction, gas.GasUnits) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.Executed)
}

func (passingAccountModule) Make(vmvalue.Address) (vmvalue.Value, error) {
	return vmvalue.NewStruct([]vmvalue.Value{vmvalue.NewU64(0), vmvalue.NewU64(0)}), nil
}

type rejectingAccountModule struct{}

func (rejectingAccountModule) Prologue(*datacache.TransactionDataCache, Transaction) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.SequenceNumberTooOld)
}

func (rejectingAccountModule) Epilogue(*datacache.TransactionDataCache, Transaction, gas.GasUnits) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.Executed)
}

func (rejectingAccountModule) Make(vmvalue.Address) (vmvalue.Value, error) {
	return vmvalue.NewStruct([]vmvalue.Value{vmvalue.NewU64(0), vmvalue.NewU64(0)}), nil
}

func simpleScript() *interpreter.Function {
	return &interpreter.Function{
		Code: []interpreter.Instruction{
			{Op: opcode.LdConst, Operand: 1},
			{Op: opcode.Pop},
			{Op: opcode.Ret},
		},
	}
}

func abortingScript() *interpreter.Function {
	return &interpreter.Function{
		Code: []interpreter.Instruction{
			{Op: opcode.LdConst, Operand: 7},
			{Op: opcode.Abort},
		},
	}
}

func invariantViolationScript() *interpreter.Function {
	// No Ret and no code at all: the frame's PC is past the end of its
	// code the instant it's scheduled, which the interpreter treats as a
	// bug in the VM itself rather than a script failure.
	return &interpreter.Function{Code: nil}
}

func TestExecuteSucceeds(t *testing.T) {
	exec := New(gas.DefaultSchedule(), passingAccountModule{})
	out := exec.Execute(noopRemoteView{}, Transaction{
		GasUnitPrice: gas.NewGasPrice(1),
		MaxGasUnits:  gas.NewGasUnits(100_000),
		Script:       simpleScript(),
	})
	require.Equal(t, Executed, out.Kind)
	require.True(t, out.Status.Ok())
}

func TestExecuteDiscardsOnPrologueFailure(t *testing.T) {
	exec := New(gas.DefaultSchedule(), rejectingAccountModule{})
	out := exec.Execute(noopRemoteView{}, Transaction{
		GasUnitPrice: gas.NewGasPrice(1),
		MaxGasUnits:  gas.NewGasUnits(100_000),
		Script:       simpleScript(),
	})
	require.Equal(t, Discard, out.Kind)
	require.False(t, out.Status.Ok())
}

func TestExecuteDiscardsInvariantViolationWithoutChargingGas(t *testing.T) {
	exec := New(gas.DefaultSchedule(), passingAccountModule{})
	out := exec.Execute(noopRemoteView{}, Transaction{
		GasUnitPrice: gas.NewGasPrice(1),
		MaxGasUnits:  gas.NewGasUnits(100_000),
		Script:       invariantViolationScript(),
	})
	require.Equal(t, Discard, out.Kind)
	require.False(t, out.Status.Ok())
	require.Equal(t, vmerrors.StatusTypeInvariantViolation, out.Status.Type())
	require.Equal(t, uint64(0), out.GasUsed.Get())
}

func TestExecuteKeepsFailedScriptButStillChargesGas(t *testing.T) {
	exec := New(gas.DefaultSchedule(), passingAccountModule{})
	out := exec.Execute(noopRemoteView{}, Transaction{
		GasUnitPrice: gas.NewGasPrice(1),
		MaxGasUnits:  gas.NewGasUnits(100_000),
		Script:       abortingScript(),
	})
	require.Equal(t, Kept, out.Kind)
	require.False(t, out.Status.Ok())
	require.Greater(t, out.GasUsed.Get(), uint64(0))
}
