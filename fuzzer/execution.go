package fuzzer

import (
	"fmt"
	"math/rand"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/tzakian/libra/datacache"
	"github.com/tzakian/libra/executor"
	"github.com/tzakian/libra/gas"
)

var (
	metricsBlocksGenerated = metrics.NewRegisteredCounter("movevm/fuzzer/blocks", nil)
	metricsTxnsApplied     = metrics.NewRegisteredCounter("movevm/fuzzer/txns", nil)
)

// Generator drives the fuzzer's block-generation-and-application loop,
// matching execution.rs's Generator: sign_txn chooses a sender and
// inhabits a template, generate_block_and_apply batches a set of those
// against the executor, and exec asserts every one of them Keep(EXECUTED).
type Generator struct {
	rng        Rand
	state      *AbstractChainState
	registry   *TransactionRegistry
	executor   *executor.Executor
	remote     datacache.RemoteView
	defaultFee gas.GasUnits
}

// NewGenerator constructs a Generator with an explicit seed, so a fuzzer
// run is fully reproducible from (seed, registry, initial state) alone.
func NewGenerator(seed int64, state *AbstractChainState, registry *TransactionRegistry, exec *executor.Executor, remote datacache.RemoteView) *Generator {
	return &Generator{
		rng:        rand.New(rand.NewSource(seed)),
		state:      state,
		registry:   registry,
		executor:   exec,
		remote:     remote,
		defaultFee: gas.NewGasUnits(1),
	}
}

// SignTxn picks a sender uniformly at random from the accounts eligible
// for at least one template, inhabits a template for it, and selects a
// gas currency, mirroring sign_txn's shape (signature material itself is
// out of scope: no signature verification is implemented here).
func (g *Generator) SignTxn() (*InstantiatedTransaction, AbstractType, error) {
	var eligibleSenders []*AbstractAccount
	for _, acc := range g.state.Accounts {
		if len(g.registry.eligible(acc)) > 0 {
			eligibleSenders = append(eligibleSenders, acc)
		}
	}
	if len(eligibleSenders) == 0 {
		return nil, AbstractType{}, fmt.Errorf("fuzzer: no account is eligible to send any transaction template")
	}
	sender := eligibleSenders[g.rng.Intn(len(eligibleSenders))]

	currency, ok := g.state.GasCurrency(g.rng, sender)
	if !ok {
		return nil, AbstractType{}, fmt.Errorf("fuzzer: sender %x holds no currency to pay gas with", sender.Address)
	}

	txn, err := g.registry.Inhabit(g.rng, g.state, sender)
	if err != nil {
		return nil, AbstractType{}, err
	}
	return txn, currency, nil
}

// GenerateBlockAndApply signs and executes n transactions in sequence,
// applying each template's effects to the abstract chain state only after
// the executor confirms the transaction was kept, matching
// generate_block_and_apply's apply-after-confirm ordering.
func (g *Generator) GenerateBlockAndApply(n int) ([]executor.TransactionOutput, error) {
	outputs := make([]executor.TransactionOutput, 0, n)
	for i := 0; i < n; i++ {
		out, err := g.execOne()
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	metricsBlocksGenerated.Inc(1)
	return outputs, nil
}

// execOne signs one transaction, runs it through the executor, and — on a
// StatusKind of Executed — applies the template's effects to the abstract
// chain state, matching exec()'s assertion that every generated
// transaction must be Keep(EXECUTED).
func (g *Generator) execOne() (executor.TransactionOutput, error) {
	inst, currency, err := g.SignTxn()
	if err != nil {
		return executor.TransactionOutput{}, err
	}

	txn := executor.Transaction{
		Sender:       inst.Sender.Address,
		SeqNum:       inst.Sender.SeqNum,
		GasUnitPrice: gas.NewGasPrice(1),
		MaxGasUnits:  gas.NewGasUnits(10_000),
		Script:       inst.Template.Script,
		Args:         inst.Args,
	}

	out := g.executor.Execute(g.remote, txn)
	if out.Kind != executor.Executed {
		return out, fmt.Errorf("fuzzer: transaction %q was not executed cleanly: %v", inst.Template.Name, out.Status)
	}

	inst.Sender.SeqNum++
	for _, eff := range inst.Template.Effects {
		g.state.ApplyEffect(inst.Sender, eff)
	}
	_ = currency

	metricsTxnsApplied.Inc(1)
	log.Debug("movevm: fuzzer applied transaction", "template", inst.Template.Name, "sender", inst.Sender.Address, "gasUsed", out.GasUsed.Get())
	return out, nil
}
