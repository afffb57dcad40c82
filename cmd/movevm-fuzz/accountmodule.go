package main

import (
	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/executor"
	"github.com/tzakian/libra/gas"
	"github.com/tzakian/libra/params"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

// minimalAccountModule is a deliberately simple stand-in for the real
// account-module prologue/epilogue contract: module loading and bytecode
// verification are explicit Non-goals, so this CLI cannot resolve and run
// an actual compiled account module. It still enforces the validation
// checks §4.E names (gas bounds) so the executor's Discard path is
// exercised, and its Epilogue is a no-op success otherwise.
type minimalAccountModule struct {
	schedule *gas.Schedule
}

func (m *minimalAccountModule) Prologue(cache *datacache.TransactionDataCache, txn executor.Transaction) *vmerrors.VMStatus {
	if txn.MaxGasUnits.Get() > params.MaxGasUnits {
		return vmerrors.New(vmerrors.MaxGasUnitsExceedsMaxGasUnitsBound)
	}
	if txn.GasUnitPrice.Get() > params.MaxGasPrice {
		return vmerrors.New(vmerrors.GasUnitPriceAboveMaxBound)
	}
	if txn.GasUnitPrice.Get() < params.MinGasPrice {
		return vmerrors.New(vmerrors.GasUnitPriceBelowMinBound)
	}
	return vmerrors.New(vmerrors.Executed)
}

func (m *minimalAccountModule) Epilogue(cache *datacache.TransactionDataCache, txn executor.Transaction, gasUsed gas.GasUnits) *vmerrors.VMStatus {
	return vmerrors.New(vmerrors.Executed)
}

// Make produces the zeroed default account resource CreateAccount
// publishes for a brand-new address: a fresh sequence number and balance.
func (m *minimalAccountModule) Make(addr vmvalue.Address) (vmvalue.Value, error) {
	return vmvalue.NewStruct([]vmvalue.Value{
		vmvalue.NewU64(0), // sequence number
		vmvalue.NewU64(0), // balance
	}), nil
}
