package fuzzer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/executor"
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

func (passingAccountModule) Prologue(*datacache.TransactionDataCache, executor.Transaction) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.Executed)
}

func (passingAccountModule) Epilogue(*datacache.TransactionDataCache, executor.Transaction, gas.GasUnits) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.Executed)
}

func (passingAccountModule) Make(vmvalue.Address) (vmvalue.Value, error) {
	return vmvalue.NewStruct([]vmvalue.Value{vmvalue.NewU64(0), vmvalue.NewU64(0)}), nil
}

var currencyType = AbstractType{Module: "LBR", Name: "T", Meta: MetaCurrency}

func newTestAccount(last byte) *AbstractAccount {
	var addr vmvalue.Address
	addr[31] = last
	return &AbstractAccount{
		Address:   addr,
		Resources: []AbstractResource{{Type: currencyType, Balance: 1000}},
	}
}

func TestInhabitPicksEligibleTemplate(t *testing.T) {
	tmpl := &AbstractTransaction{
		Name: "pay",
		Script: &interpreter.Function{
			Code: []interpreter.Instruction{{Op: opcode.LdConst, Operand: 1}, {Op: opcode.Pop}, {Op: opcode.Ret}},
		},
		Preconditions: []Constraint{HasResource{Type: currencyType}},
	}
	registry := NewTransactionRegistry([]*AbstractTransaction{tmpl})
	state := &AbstractChainState{Accounts: []*AbstractAccount{newTestAccount(1)}}
	rng := rand.New(rand.NewSource(1))

	inst, err := registry.Inhabit(rng, state, state.Accounts[0])
	require.NoError(t, err)
	require.Equal(t, "pay", inst.Template.Name)
}

func TestInhabitNumericRangeConstraint(t *testing.T) {
	tmpl := &AbstractTransaction{
		Name: "bounded",
		Script: &interpreter.Function{
			Code: []interpreter.Instruction{{Op: opcode.Ret}},
		},
		Args: []ArgumentTemplate{
			{Type: ArgU64, Constraint: RangeConstraint{Lower: 10, Upper: 20}},
		},
		Preconditions: []Constraint{HasResource{Type: currencyType}},
	}
	registry := NewTransactionRegistry([]*AbstractTransaction{tmpl})
	state := &AbstractChainState{Accounts: []*AbstractAccount{newTestAccount(1)}}
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 20; i++ {
		inst, err := registry.Inhabit(rng, state, state.Accounts[0])
		require.NoError(t, err)
		v, err := inst.Args[0].AsU64()
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, uint64(10))
		require.LessOrEqual(t, v, uint64(20))
	}
}

func TestGenerateBlockAndApply(t *testing.T) {
	tmpl := &AbstractTransaction{
		Name: "noop",
		Script: &interpreter.Function{
			Code: []interpreter.Instruction{{Op: opcode.LdConst, Operand: 1}, {Op: opcode.Pop}, {Op: opcode.Ret}},
		},
		Preconditions: []Constraint{HasResource{Type: currencyType}},
	}
	registry := NewTransactionRegistry([]*AbstractTransaction{tmpl})
	state := &AbstractChainState{Accounts: []*AbstractAccount{newTestAccount(1), newTestAccount(2)}}

	exec := executor.New(gas.DefaultSchedule(), passingAccountModule{})
	gen := NewGenerator(42, state, registry, exec, noopRemoteView{})

	outputs, err := gen.GenerateBlockAndApply(5)
	require.NoError(t, err)
	require.Len(t, outputs, 5)
	for _, out := range outputs {
		require.Equal(t, executor.Executed, out.Kind)
	}
}

func TestApplyEffectPublishesResource(t *testing.T) {
	state := &AbstractChainState{}
	account := newTestAccount(1)
	newType := AbstractType{Module: "M", Name: "Badge", Meta: MetaPrivilege}

	state.ApplyEffect(account, PublishesResource{Type: newType, InitialBalance: 0})
	_, ok := account.HasResource(newType)
	require.True(t, ok)

	state.ApplyEffect(account, RemovesResource{Type: newType})
	_, ok = account.HasResource(newType)
	require.False(t, ok)
}
