// Package fuzzer implements the Abstract Fuzzer (§4.F): typed transaction
// templates, constraint-driven argument inhabitation, and block
// generation/application against an AbstractChainState.
//
// Grounded on original_source's transaction-fuzzer crate
// (abstract_state.rs, chain_state.rs, transaction.rs, execution.rs); the
// PRNG is an explicit *rand.Rand seed threaded through Generator rather
// than a process-global random source, resolving the "fuzzer determinism"
// design-note open question in favor of reproducible runs.
package fuzzer

import (
	"github.com/tzakian/libra/vmvalue"
)

// Metadata tags an AbstractType the way original_source's AbstractMetadata
// enum does, letting the fuzzer pick a type by role (a currency, a
// privilege capability, an account-shaped resource) rather than by exact
// identity.
type Metadata int

const (
	MetaNone Metadata = iota
	MetaCurrency
	MetaPrivilege
	MetaAccountType
)

// AbstractType names a Move struct type abstractly: its module/name and
// the metadata tags it carries, enough for constraint matching without a
// full type system.
type AbstractType struct {
	Module string
	Name   string
	Meta   Metadata
}

// AbstractResource is one resource instance an AbstractAccount holds: its
// type, and, for currency-tagged types, a concrete balance the fuzzer
// tracks so RangeConstraint can be checked against it.
type AbstractResource struct {
	Type    AbstractType
	Balance uint64
}

// AbstractAccount is one account in the abstract chain state: its address
// and the resources it currently holds.
type AbstractAccount struct {
	Address   vmvalue.Address
	SeqNum    uint64
	Resources []AbstractResource
}

// HasResource reports whether the account holds a resource of the given
// type, matching the HasResource constraint kind.
func (a *AbstractAccount) HasResource(t AbstractType) (*AbstractResource, bool) {
	for i := range a.Resources {
		if a.Resources[i].Type == t {
			return &a.Resources[i], true
		}
	}
	return nil, false
}

// TypeRegistry indexes known AbstractType values by Metadata, mirroring
// original_source's meta_to_type map, so the fuzzer can uniformly sample
// "some currency type" or "some privilege type" without the caller naming
// one explicitly.
type TypeRegistry struct {
	byMeta map[Metadata][]AbstractType
	all    []AbstractType
}

// NewTypeRegistry builds a registry from a flat list of known types,
// bucketing them by metadata tag.
func NewTypeRegistry(types []AbstractType) *TypeRegistry {
	r := &TypeRegistry{byMeta: make(map[Metadata][]AbstractType)}
	for _, t := range types {
		r.all = append(r.all, t)
		r.byMeta[t.Meta] = append(r.byMeta[t.Meta], t)
	}
	return r
}

// Sample returns a uniformly random type tagged with meta, or ok=false if
// the registry has none.
func (r *TypeRegistry) Sample(rng Rand, meta Metadata) (AbstractType, bool) {
	candidates := r.byMeta[meta]
	if len(candidates) == 0 {
		return AbstractType{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// AbstractChainState is the fuzzer's model of on-chain account state: a
// flat set of AbstractAccount plus the TypeRegistry used to inhabit
// transaction arguments.
type AbstractChainState struct {
	Accounts []*AbstractAccount
	Types    *TypeRegistry
}

// AccountAt returns the account at addr, or nil if none exists, matching
// the AccountDNE constraint's need to check account existence directly.
func (s *AbstractChainState) AccountAt(addr vmvalue.Address) *AbstractAccount {
	for _, a := range s.Accounts {
		if a.Address == addr {
			return a
		}
	}
	return nil
}

// GasCurrency selects, uniformly at random among the currencies for which
// sender holds a matching balance resource, the currency a transaction
// will pay gas in, following get_gas_currency's filter-then-uniform-sample
// algorithm exactly (see SPEC_FULL supplemented features).
func (s *AbstractChainState) GasCurrency(rng Rand, sender *AbstractAccount) (AbstractType, bool) {
	var candidates []AbstractType
	for _, r := range sender.Resources {
		if r.Type.Meta == MetaCurrency {
			candidates = append(candidates, r.Type)
		}
	}
	if len(candidates) == 0 {
		return AbstractType{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// ApplyEffect mutates state according to eff, the way
// AbstractChainState::apply_effect interprets each Effect variant.
func (s *AbstractChainState) ApplyEffect(account *AbstractAccount, eff Effect) {
	switch e := eff.(type) {
	case PublishesResource:
		account.Resources = append(account.Resources, AbstractResource{Type: e.Type, Balance: e.InitialBalance})
	case RemovesResource:
		for i, r := range account.Resources {
			if r.Type == e.Type {
				account.Resources = append(account.Resources[:i], account.Resources[i+1:]...)
				break
			}
		}
	case RotatesKey:
		// Key rotation does not change the abstract resource set tracked
		// here; it is modeled only so a RotatesKey effect can appear in a
		// template without the fuzzer rejecting it.
	case CreatesAccount:
		s.Accounts = append(s.Accounts, &AbstractAccount{Address: e.Address})
	}
}
