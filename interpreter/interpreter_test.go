package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/gas"
	"github.com/tzakian/libra/opcode"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

type noopRemoteView struct{}

func (noopRemoteView) GetResource(vmvalue.AccessPath) ([]byte, bool, error) {
	return nil, false, nil
}

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	cache := datacache.New(noopRemoteView{})
	schedule := gas.DefaultSchedule()
	return New(cache, schedule, Config{
		MaxGasUnits: gas.NewGasUnits(1_000_000),
		GasPrice:    gas.NewGasPrice(1),
	})
}

func TestRunSimpleArithmetic(t *testing.T) {
	in := newTestInterpreter(t)
	fn := &Function{
		NumLocals:  0,
		NumReturns: 1,
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 3},
			{Op: opcode.LdConst, Operand: 4},
			{Op: opcode.Add},
			{Op: opcode.Ret},
		},
	}

	ret, status := in.Run(fn, nil)
	require.True(t, status.Ok())
	require.Len(t, ret, 1)
	got, err := ret[0].AsU64()
	require.NoError(t, err)
	require.Equal(t, uint64(7), got)
}

func TestRunBranch(t *testing.T) {
	in := newTestInterpreter(t)
	fn := &Function{
		NumReturns: 1,
		Code: []Instruction{
			{Op: opcode.LdTrue},
			{Op: opcode.BrTrue, Operand: 3},
			{Op: opcode.LdConst, Operand: 0},
			{Op: opcode.LdConst, Operand: 99},
			{Op: opcode.Ret},
		},
	}
	ret, status := in.Run(fn, nil)
	require.True(t, status.Ok())
	got, err := ret[0].AsU64()
	require.NoError(t, err)
	require.Equal(t, uint64(99), got)
}

func TestAbortProducesExecutionStatus(t *testing.T) {
	in := newTestInterpreter(t)
	fn := &Function{
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 42},
			{Op: opcode.Abort},
		},
	}
	_, status := in.Run(fn, nil)
	require.False(t, status.Ok())
	require.Equal(t, vmerrors.StatusTypeExecution, status.Type())
	require.NotNil(t, status.SubStatus)
	require.Equal(t, uint64(42), *status.SubStatus)
}

func TestDivisionByZeroErrors(t *testing.T) {
	in := newTestInterpreter(t)
	fn := &Function{
		NumReturns: 1,
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 10},
			{Op: opcode.LdConst, Operand: 0},
			{Op: opcode.Div},
			{Op: opcode.Ret},
		},
	}
	_, status := in.Run(fn, nil)
	require.False(t, status.Ok())
}

func TestOutOfGasStopsExecution(t *testing.T) {
	cache := datacache.New(noopRemoteView{})
	schedule := gas.DefaultSchedule()
	in := New(cache, schedule, Config{MaxGasUnits: gas.NewGasUnits(1), GasPrice: gas.NewGasPrice(1)})

	fn := &Function{
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 1},
			{Op: opcode.Ret},
		},
	}
	_, status := in.Run(fn, nil)
	require.False(t, status.Ok())
}

func TestGlobalResourceLifecycle(t *testing.T) {
	RegisterResourcePath(0, "R")
	cache := datacache.New(noopRemoteView{})
	schedule := gas.DefaultSchedule()

	var addr vmvalue.Address
	addr[31] = 7

	in := New(cache, schedule, Config{
		Sender:      addr,
		MaxGasUnits: gas.NewGasUnits(1_000_000),
		GasPrice:    gas.NewGasPrice(1),
	})

	publishFn := &Function{
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 55},
			{Op: opcode.MoveToSender, Operand: 0},
			{Op: opcode.Ret},
		},
	}
	_, status := in.Run(publishFn, nil)
	require.True(t, status.Ok())

	existsFn := &Function{
		NumLocals:  1,
		NumReturns: 1,
		Code: []Instruction{
			{Op: opcode.MoveLoc, Operand: 0},
			{Op: opcode.Exists, Operand: 0},
			{Op: opcode.Ret},
		},
	}
	ret, status := in.Run(existsFn, []vmvalue.Value{vmvalue.NewAddress(addr)})
	require.True(t, status.Ok())
	got, err := ret[0].AsBool()
	require.NoError(t, err)
	require.True(t, got)
}

type fixedModuleCache map[CallTarget]FunctionRef

func (c fixedModuleCache) ResolveFunction(target CallTarget) (FunctionRef, error) {
	ref, ok := c[target]
	if !ok {
		return FunctionRef{}, vmerrors.New(vmerrors.UnknownScript)
	}
	return ref, nil
}

func TestCallInvokesNonNativeFunctionAndReturnsValue(t *testing.T) {
	callee := CallTarget{Module: "Self", Name: "double"}
	cache := fixedModuleCache{
		callee: FunctionRef{Function: &Function{
			NumLocals:  1,
			NumReturns: 1,
			Code: []Instruction{
				{Op: opcode.CopyLoc, Operand: 0},
				{Op: opcode.CopyLoc, Operand: 0},
				{Op: opcode.Add},
				{Op: opcode.Ret},
			},
		}},
	}

	in := New(datacache.New(noopRemoteView{}), gas.DefaultSchedule(), Config{
		MaxGasUnits: gas.NewGasUnits(1_000_000),
		GasPrice:    gas.NewGasPrice(1),
		ModuleCache: cache,
	})

	fn := &Function{
		NumReturns: 1,
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 21},
			{Op: opcode.Call, Callee: &callee, ArgCount: 1},
			{Op: opcode.Ret},
		},
	}

	ret, status := in.Run(fn, nil)
	require.True(t, status.Ok())
	require.Len(t, ret, 1)
	got, err := ret[0].AsU64()
	require.NoError(t, err)
	require.Equal(t, uint64(42), got)
}

func TestCallInvokesNativeFunction(t *testing.T) {
	callee := CallTarget{Module: "Native", Name: "increment"}
	cache := fixedModuleCache{
		callee: FunctionRef{Native: func(in *Interpreter, typeActuals []TypeTag, args []vmvalue.Value) ([]vmvalue.Value, error) {
			n, err := args[0].AsU64()
			if err != nil {
				return nil, err
			}
			return []vmvalue.Value{vmvalue.NewU64(n + 1)}, nil
		}},
	}

	in := New(datacache.New(noopRemoteView{}), gas.DefaultSchedule(), Config{
		MaxGasUnits: gas.NewGasUnits(1_000_000),
		GasPrice:    gas.NewGasPrice(1),
		ModuleCache: cache,
	})

	fn := &Function{
		NumReturns: 1,
		Code: []Instruction{
			{Op: opcode.LdConst, Operand: 41},
			{Op: opcode.Call, Callee: &callee, ArgCount: 1},
			{Op: opcode.Ret},
		},
	}

	ret, status := in.Run(fn, nil)
	require.True(t, status.Ok())
	got, err := ret[0].AsU64()
	require.NoError(t, err)
	require.Equal(t, uint64(42), got)
}

func TestCallWithoutModuleCacheErrors(t *testing.T) {
	callee := CallTarget{Module: "Self", Name: "missing"}
	in := newTestInterpreter(t)

	fn := &Function{
		Code: []Instruction{
			{Op: opcode.Call, Callee: &callee},
		},
	}
	_, status := in.Run(fn, nil)
	require.False(t, status.Ok())
	require.Equal(t, vmerrors.MissingDependency, status.Code)
}

func TestCallOverflowsCallStack(t *testing.T) {
	callee := CallTarget{Module: "Self", Name: "recurse"}
	cache := fixedModuleCache{}
	recursive := &Function{
		Code: []Instruction{
			{Op: opcode.Call, Callee: &callee},
		},
	}
	cache[callee] = FunctionRef{Function: recursive}

	in := New(datacache.New(noopRemoteView{}), gas.DefaultSchedule(), Config{
		MaxGasUnits: gas.NewGasUnits(100_000_000),
		GasPrice:    gas.NewGasPrice(1),
		ModuleCache: cache,
	})

	_, status := in.Run(recursive, nil)
	require.False(t, status.Ok())
	require.Equal(t, vmerrors.CallStackOverflow, status.Code)
}

func TestCallResolvesFormalTypeActual(t *testing.T) {
	callee := CallTarget{Module: "Self", Name: "identityType"}
	var captured TypeTag
	cache := fixedModuleCache{
		callee: FunctionRef{Native: func(in *Interpreter, typeActuals []TypeTag, args []vmvalue.Value) ([]vmvalue.Value, error) {
			captured = typeActuals[0]
			return nil, nil
		}},
	}

	in := New(datacache.New(noopRemoteView{}), gas.DefaultSchedule(), Config{
		MaxGasUnits: gas.NewGasUnits(1_000_000),
		GasPrice:    gas.NewGasPrice(1),
		ModuleCache: cache,
	})

	fn := &Function{
		Code: []Instruction{
			{Op: opcode.Call, Callee: &callee, TypeActuals: []TypeActual{FormalTypeActual(0)}},
			{Op: opcode.Ret},
		},
	}
	frame := NewFrame(fn, nil, []TypeTag{{Kind: vmvalue.KindBool}})
	require.NoError(t, in.calls.Push(frame))
	top, err := in.calls.Top()
	require.NoError(t, err)
	require.NoError(t, in.executeCall(top, fn.Code[0]))
	require.Equal(t, vmvalue.KindBool, captured.Kind)
}

func TestCreateAccountInvokesAccountFactory(t *testing.T) {
	var madeAddr vmvalue.Address
	factory := accountFactoryFunc(func(addr vmvalue.Address) (vmvalue.Value, error) {
		madeAddr = addr
		return vmvalue.NewStruct([]vmvalue.Value{vmvalue.NewU64(0), vmvalue.NewU64(5)}), nil
	})

	var addr vmvalue.Address
	addr[31] = 9
	in := New(datacache.New(noopRemoteView{}), gas.DefaultSchedule(), Config{
		MaxGasUnits:    gas.NewGasUnits(1_000_000),
		GasPrice:       gas.NewGasPrice(1),
		AccountFactory: factory,
	})

	fn := &Function{
		NumLocals: 1,
		Code: []Instruction{
			{Op: opcode.MoveLoc, Operand: 0},
			{Op: opcode.CreateAccount},
			{Op: opcode.Ret},
		},
	}
	_, status := in.Run(fn, []vmvalue.Value{vmvalue.NewAddress(addr)})
	require.True(t, status.Ok())
	require.Equal(t, addr, madeAddr)
}

type accountFactoryFunc func(addr vmvalue.Address) (vmvalue.Value, error)

func (f accountFactoryFunc) Make(addr vmvalue.Address) (vmvalue.Value, error) { return f(addr) }

func TestDeriveTypeTagRecursesStructs(t *testing.T) {
	v := vmvalue.NewStruct([]vmvalue.Value{vmvalue.NewU64(1), vmvalue.NewBool(true)})
	tag, err := DeriveTypeTag(v)
	require.NoError(t, err)
	require.Equal(t, vmvalue.KindStruct, tag.Kind)
	require.Len(t, tag.Fields, 2)
}
