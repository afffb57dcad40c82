// Package executor implements the Transaction Executor (§4.E): the
// prologue/script/epilogue envelope around one interpreter invocation,
// failed-transaction cleanup, and TransactionOutput assembly.
//
// Grounded on the teacher's core/state_processor.go Process loop (drive a
// transaction against a StateDB, track gas via a GasPool) generalized to
// the prologue/epilogue-carrying account-module contract described in
// original_source's txn_executor.rs.
package executor

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/gas"
	"github.com/tzakian/libra/interpreter"
	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

var (
	metricsGasUsed     = metrics.NewRegisteredHistogram("movevm/executor/gasused", nil, metrics.NewExpDecaySample(1028, 0.015))
	metricsTxnExecuted = metrics.NewRegisteredCounter("movevm/executor/executed", nil)
	metricsTxnDiscard  = metrics.NewRegisteredCounter("movevm/executor/discarded", nil)
)

// Transaction is the minimal input the executor needs: who is sending it,
// their account sequence number, the gas terms they signed, and the
// script/args to run. Signature verification and deserialization from a
// wire format are explicit Non-goals; callers hand over an already
// validated, already deserialized Transaction.
type Transaction struct {
	Sender      vmvalue.Address
	SeqNum      uint64
	GasUnitPrice gas.GasPrice
	MaxGasUnits gas.GasUnits
	Script      *interpreter.Function
	Args        []vmvalue.Value
	RawSize     uint64
}

// AccountModule is the prologue/epilogue contract every sending account is
// expected to satisfy, matching the original's hard-coded account-module
// calls (check sequence number and balance, then debit the computed fee).
// A real implementation would look these functions up through the module
// loader (an explicit Non-goal here); callers supply them directly.
type AccountModule interface {
	// Prologue validates and consumes the transaction's sequence number,
	// and verifies the sender can afford MaxGasUnits*GasUnitPrice,
	// returning a Validation-type VMStatus on failure.
	Prologue(cache *datacache.TransactionDataCache, txn Transaction) *vmerrors.VMStatus
	// Epilogue charges the actual gas fee and advances the sequence
	// number; it runs even after a failed script body so the sender still
	// pays for the gas consumed (§4.E "failed_transaction_cleanup").
	Epilogue(cache *datacache.TransactionDataCache, txn Transaction, gasUsed gas.GasUnits) *vmerrors.VMStatus
	// Make produces the default account resource for a newly created
	// account. It is invoked by the interpreter's CreateAccount opcode as a
	// re-entrant call into the account module with gas metering disabled,
	// rather than the opcode fabricating account state itself.
	Make(addr vmvalue.Address) (vmvalue.Value, error)
}

// StatusKind partitions the outcome of Execute into the three
// buckets named in §4.E/§7: Executed, Kept (ran, but failed), Discard
// (never charged).
type StatusKind int

const (
	Executed StatusKind = iota
	Kept
	Discard
)

// TransactionOutput is the result of running one transaction: its
// materialized write-set, any events it raised, how much gas it used, and
// its final status.
type TransactionOutput struct {
	WriteSet []datacache.WriteOp
	Events   []vmvalue.Value
	GasUsed  gas.GasUnits
	Kind     StatusKind
	Status   *vmerrors.VMStatus
}

// Executor drives one transaction at a time against a RemoteView,
// matching the explicit Non-goal against block-level GasPool bookkeeping:
// aggregating gas across a block of transactions is a consensus concern
// out of scope here.
type Executor struct {
	schedule *gas.Schedule
	account  AccountModule
}

// New constructs an Executor with the given gas schedule and account
// prologue/epilogue contract.
func New(schedule *gas.Schedule, account AccountModule) *Executor {
	return &Executor{schedule: schedule, account: account}
}

// Execute runs txn against remote, returning the resulting
// TransactionOutput. It never returns a Go error: every failure mode is
// represented in the returned TransactionOutput's Status/Kind, matching
// the original's refusal to let a single bad transaction abort the whole
// batch.
func (e *Executor) Execute(remote datacache.RemoteView, txn Transaction) TransactionOutput {
	cache := datacache.New(remote)

	if txn.RawSize > 0 {
		intrinsic := gas.CalculateIntrinsicGas(txn.RawSize)
		if intrinsic.Get() > txn.MaxGasUnits.Get() {
			metricsTxnDiscard.Inc(1)
			return e.discard(vmerrors.New(vmerrors.MaxGasUnitsBelowMinTransactionGasUnits))
		}
	}

	if status := e.account.Prologue(cache, txn); !status.Ok() {
		metricsTxnDiscard.Inc(1)
		log.Debug("movevm: transaction discarded in prologue", "sender", txn.Sender, "status", status)
		return e.discard(status)
	}

	cfg := interpreter.Config{
		Sender:         txn.Sender,
		SeqNum:         txn.SeqNum,
		GasPrice:       txn.GasUnitPrice,
		MaxGasUnits:    txn.MaxGasUnits,
		AccountFactory: e.account,
	}
	vm := interpreter.New(cache, e.schedule, cfg)
	_, status := vm.Run(txn.Script, txn.Args)
	gasUsed := vm.GasUsed()

	if !status.Ok() {
		if status.Type() == vmerrors.StatusTypeInvariantViolation {
			// A bug in the VM itself, not in the script: nothing it did can
			// be trusted enough to charge for, so the transaction is
			// discarded outright rather than Kept (§7).
			metricsTxnDiscard.Inc(1)
			log.Error("movevm: transaction execution hit an invariant violation", "sender", txn.Sender, "status", status)
			return e.discard(status)
		}
		return e.failedTransactionCleanup(cache, txn, status, gasUsed)
	}

	epilogueStatus := e.account.Epilogue(cache, txn, gasUsed)
	if !epilogueStatus.Ok() {
		return e.failedTransactionCleanup(cache, txn, epilogueStatus, gasUsed)
	}

	writeSet, err := cache.MakeWriteSet()
	if err != nil {
		return e.failedTransactionCleanup(cache, txn, err.(*vmerrors.VMStatus), gasUsed)
	}

	metricsGasUsed.Update(int64(gasUsed.Get()))
	metricsTxnExecuted.Inc(1)
	return TransactionOutput{
		WriteSet: writeSet,
		GasUsed:  gasUsed,
		Kind:     Executed,
		Status:   vmerrors.New(vmerrors.Executed),
	}
}

// failedTransactionCleanup clears every write the script body made, then
// still runs the epilogue so the sender pays for the gas they consumed,
// matching failed_transaction_cleanup's rationale for why a failed script
// is Kept rather than Discarded.
func (e *Executor) failedTransactionCleanup(cache *datacache.TransactionDataCache, txn Transaction, cause *vmerrors.VMStatus, gasUsed gas.GasUnits) TransactionOutput {
	cache.Clear()
	log.Warn("movevm: transaction execution failed, running epilogue only", "sender", txn.Sender, "status", cause)

	if epStatus := e.account.Epilogue(cache, txn, gasUsed); !epStatus.Ok() {
		// The epilogue itself failing (e.g. the sender can no longer
		// afford the fee it already signed up for) is unrecoverable for
		// this transaction: discard it rather than charge a fee nobody
		// validated.
		metricsTxnDiscard.Inc(1)
		return e.discard(epStatus)
	}

	writeSet, err := cache.MakeWriteSet()
	if err != nil {
		writeSet = nil
	}
	metricsGasUsed.Update(int64(gasUsed.Get()))
	return TransactionOutput{
		WriteSet: writeSet,
		GasUsed:  gasUsed,
		Kind:     Kept,
		Status:   cause,
	}
}

func (e *Executor) discard(status *vmerrors.VMStatus) TransactionOutput {
	return TransactionOutput{
		Kind:   Discard,
		Status: status,
	}
}
