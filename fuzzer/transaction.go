package fuzzer

import (
	"fmt"

	"github.com/tzakian/libra/interpreter"
	"github.com/tzakian/libra/vmvalue"
)

// ArgumentType enumerates what kind of value an AbstractTransaction
// argument slot inhabits, matching TransactionArgumentType.
type ArgumentType int

const (
	ArgU64 ArgumentType = iota
	ArgAddress
	ArgByteArray
)

// ArgumentTemplate is one argument slot of an AbstractTransaction: its
// type and the constraint, if any, the inhabited value must satisfy.
type ArgumentTemplate struct {
	Type       ArgumentType
	Constraint Constraint // nil if unconstrained
}

// AbstractTransaction is a named transaction template: the script body to
// run, its argument slots, the preconditions the sender account must
// satisfy for the template to be chosen, and the effects applying it has
// on the abstract chain state, matching original_source's
// AbstractTransaction.
type AbstractTransaction struct {
	Name          string
	Script        *interpreter.Function
	Args          []ArgumentTemplate
	Preconditions []Constraint
	Effects       []Effect
}

// InstantiatedTransaction is an AbstractTransaction with every argument
// slot inhabited by a concrete Value, ready to hand to the executor.
type InstantiatedTransaction struct {
	Template *AbstractTransaction
	Sender   *AbstractAccount
	Args     []vmvalue.Value
}

// TransactionRegistry holds the set of templates a Generator chooses from.
type TransactionRegistry struct {
	templates []*AbstractTransaction
}

// NewTransactionRegistry builds a registry from a flat list of templates.
func NewTransactionRegistry(templates []*AbstractTransaction) *TransactionRegistry {
	return &TransactionRegistry{templates: templates}
}

// eligible returns the templates whose preconditions account currently
// satisfies.
func (r *TransactionRegistry) eligible(account *AbstractAccount) []*AbstractTransaction {
	var out []*AbstractTransaction
	for _, t := range r.templates {
		if satisfiesAll(account, t.Preconditions) {
			out = append(out, t)
		}
	}
	return out
}

func satisfiesAll(account *AbstractAccount, constraints []Constraint) bool {
	for _, c := range constraints {
		if !satisfies(account, c) {
			return false
		}
	}
	return true
}

func satisfies(account *AbstractAccount, c Constraint) bool {
	switch cc := c.(type) {
	case HasResource:
		_, ok := account.HasResource(cc.Type)
		return ok
	case DoesNotHaveResource:
		_, ok := account.HasResource(cc.Type)
		return !ok
	case RangeConstraint:
		// A RangeConstraint on its own, with no resource named, is checked
		// against the account's first currency-tagged balance, matching
		// the original's use of range constraints to bound a transfer
		// amount against the sender's balance.
		for _, r := range account.Resources {
			if r.Type.Meta == MetaCurrency {
				return r.Balance >= cc.Lower && r.Balance <= cc.Upper
			}
		}
		return false
	case AccountDNE:
		return true // checked against the argument account at inhabitation time, not the sender
	default:
		return false
	}
}

// Inhabit picks a uniformly random eligible template for sender and fills
// in its argument slots, matching transaction.rs's inhabit(): numeric
// arguments under a RangeConstraint are sampled uniformly within bounds,
// address arguments under AccountDNE are sampled up to 64 times until one
// names no existing account (erroring if none does), and unconstrained
// slots are filled with uniform
// random values of the right type.
func (r *TransactionRegistry) Inhabit(rng Rand, state *AbstractChainState, sender *AbstractAccount) (*InstantiatedTransaction, error) {
	candidates := r.eligible(sender)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("fuzzer: no eligible transaction template for sender %x", sender.Address)
	}
	tmpl := candidates[rng.Intn(len(candidates))]

	args := make([]vmvalue.Value, len(tmpl.Args))
	for i, slot := range tmpl.Args {
		v, err := inhabitArg(rng, state, slot)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return &InstantiatedTransaction{Template: tmpl, Sender: sender, Args: args}, nil
}

func inhabitArg(rng Rand, state *AbstractChainState, slot ArgumentTemplate) (vmvalue.Value, error) {
	switch slot.Type {
	case ArgU64:
		if rc, ok := slot.Constraint.(RangeConstraint); ok {
			if rc.Upper < rc.Lower {
				return vmvalue.Value{}, fmt.Errorf("fuzzer: empty range [%d, %d]", rc.Lower, rc.Upper)
			}
			span := rc.Upper - rc.Lower + 1
			return vmvalue.NewU64(rc.Lower + rng.Uint64()%span), nil
		}
		return vmvalue.NewU64(rng.Uint64()), nil

	case ArgAddress:
		if _, ok := slot.Constraint.(AccountDNE); ok {
			for attempt := 0; attempt < 64; attempt++ {
				var a vmvalue.Address
				fillRandomAddress(rng, &a)
				if state.AccountAt(a) == nil {
					return vmvalue.NewAddress(a), nil
				}
			}
			return vmvalue.Value{}, fmt.Errorf("fuzzer: could not sample a non-existent account address")
		}
		var a vmvalue.Address
		fillRandomAddress(rng, &a)
		return vmvalue.NewAddress(a), nil

	case ArgByteArray:
		n := rng.Intn(64)
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(rng.Intn(256))
		}
		return vmvalue.NewByteArray(b), nil

	default:
		return vmvalue.Value{}, fmt.Errorf("fuzzer: unknown argument type %d", slot.Type)
	}
}

func fillRandomAddress(rng Rand, a *vmvalue.Address) {
	for i := range a {
		a[i] = byte(rng.Intn(256))
	}
}
