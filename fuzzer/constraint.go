package fuzzer

// Constraint is satisfied by one of HasResource, DoesNotHaveResource,
// RangeConstraint and AccountDNE, matching original_source's Constraint
// enum; a closed set expressed as a marker interface rather than a tagged
// union, since each variant carries genuinely different fields.
type Constraint interface {
	isConstraint()
}

// HasResource requires the chosen account already hold a resource of Type.
type HasResource struct {
	Type AbstractType
}

// DoesNotHaveResource requires the chosen account not hold a resource of
// Type.
type DoesNotHaveResource struct {
	Type AbstractType
}

// RangeConstraint requires a numeric argument fall within [Lower, Upper],
// inclusive, matching the original's lower/upper pair.
type RangeConstraint struct {
	Lower uint64
	Upper uint64
}

// AccountDNE requires the address argument not currently name an existing
// account.
type AccountDNE struct{}

func (HasResource) isConstraint()          {}
func (DoesNotHaveResource) isConstraint()  {}
func (RangeConstraint) isConstraint()      {}
func (AccountDNE) isConstraint()           {}

// Effect is satisfied by one of PublishesResource, RemovesResource,
// RotatesKey and CreatesAccount, matching the effect variants
// chain_state.rs applies after a transaction template executes.
type Effect interface {
	isEffect()
}

// PublishesResource models a transaction that leaves a new resource of
// Type published on the account, with InitialBalance if the type is
// currency-tagged.
type PublishesResource struct {
	Type           AbstractType
	InitialBalance uint64
}

// RemovesResource models a transaction that removes a resource of Type
// from the account.
type RemovesResource struct {
	Type AbstractType
}

// RotatesKey models a transaction that rotates the account's
// authentication key; tracked only so templates can name it, since the
// abstract state has no key material to mutate.
type RotatesKey struct{}

// CreatesAccount models a transaction that publishes a brand new account
// at Address.
type CreatesAccount struct {
	Address AbstractAccountAddress
}

func (PublishesResource) isEffect() {}
func (RemovesResource) isEffect()   {}
func (RotatesKey) isEffect()        {}
func (CreatesAccount) isEffect()    {}

// AbstractAccountAddress aliases the vmvalue address type so this file
// doesn't need to import vmvalue solely for the CreatesAccount field.
type AbstractAccountAddress = [32]byte
