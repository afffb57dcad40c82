// Package datacache implements the Data Cache (§4.C): a transactional
// overlay over an immutable RemoteView, addressed by AccessPath, that
// materializes a write-set on success and tracks outstanding global
// borrows so the interpreter can detect a dangling reference.
//
// Grounded on the teacher's core/state journal idiom (journal_arbitrum.go's
// dirty-entry-with-revert shape), generalized from per-account Ethereum
// state to per-access-path resource slots, and cross-checked against
// original_source's data_cache.rs for the Clean/Dirty/Deleted overlay
// states and write-set ordering.
package datacache

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/tzakian/libra/vmerrors"
	"github.com/tzakian/libra/vmvalue"
)

// RemoteView is the read-only view of global storage the data cache
// overlays; a real implementation would be backed by a network call or a
// local KV store, neither of which is this package's concern (explicit
// Non-goal: no on-disk KV store implementation).
type RemoteView interface {
	// GetResource returns the serialized resource at path, or ok=false if
	// no resource is published there.
	GetResource(path vmvalue.AccessPath) (data []byte, ok bool, err error)
}

// entryState is the overlay state of one access path, mirroring the
// Clean/Dirty/Deleted triple from the original data_cache.rs.
type entryState int

const (
	stateClean entryState = iota
	stateDirty
	stateDeleted
)

type entry struct {
	state entryState
	value vmvalue.Value
}

// TransactionDataCache is the per-transaction overlay. It is not safe for
// concurrent use; the executor owns exactly one per transaction execution
// and discards it (successful or not) once the transaction finishes.
type TransactionDataCache struct {
	remote RemoteView
	// snapshot is a byte-keyed front cache of resources pulled from remote,
	// avoiding re-fetching (and re-deserializing) a resource read earlier
	// in the same transaction, the way the teacher uses fastcache as a
	// front for trie node lookups.
	snapshot *fastcache.Cache
	data     map[vmvalue.AccessPath]*entry
	// borrows counts outstanding GlobalReference values per path, released
	// when the interpreter pops a frame whose locals held one (see
	// interpreter.releaseFrameBorrows). A nonzero count at MoveFrom time
	// means a live reference would dangle, and MoveFrom must refuse.
	borrows map[vmvalue.AccessPath]int
}

// New constructs an empty overlay over remote.
func New(remote RemoteView) *TransactionDataCache {
	return &TransactionDataCache{
		remote:   remote,
		snapshot: fastcache.New(32 * 1024 * 1024),
		data:     make(map[vmvalue.AccessPath]*entry),
		borrows:  make(map[vmvalue.AccessPath]int),
	}
}

func (c *TransactionDataCache) load(path vmvalue.AccessPath) (vmvalue.Value, bool, error) {
	if e, ok := c.data[path]; ok {
		if e.state == stateDeleted {
			return vmvalue.Value{}, false, nil
		}
		return e.value, true, nil
	}
	key := []byte(path.String())
	if cached, ok := c.snapshot.HasGet(nil, key); ok {
		v, _, err := vmvalue.Deserialize(cached)
		if err != nil {
			return vmvalue.Value{}, false, vmerrors.New(vmerrors.DataFormatError).WithMessage(err.Error())
		}
		return v, true, nil
	}
	raw, ok, err := c.remote.GetResource(path)
	if err != nil {
		return vmvalue.Value{}, false, vmerrors.New(vmerrors.RemoteDataError).WithMessage(err.Error())
	}
	if !ok {
		return vmvalue.Value{}, false, nil
	}
	v, _, err := vmvalue.Deserialize(raw)
	if err != nil {
		return vmvalue.Value{}, false, vmerrors.New(vmerrors.DataFormatError).WithMessage(err.Error())
	}
	c.snapshot.Set(key, raw)
	return v, true, nil
}

// ResourceExists reports whether a resource is published at path, matching
// the Exists opcode's semantics.
func (c *TransactionDataCache) ResourceExists(path vmvalue.AccessPath) (bool, error) {
	_, ok, err := c.load(path)
	return ok, err
}

// BorrowGlobal returns the resource at path and marks it borrowed,
// matching MutBorrowGlobal/ImmBorrowGlobal. It errors with
// ResourceDoesNotExist if nothing is published there.
func (c *TransactionDataCache) BorrowGlobal(path vmvalue.AccessPath) (vmvalue.Value, error) {
	v, ok, err := c.load(path)
	if err != nil {
		return vmvalue.Value{}, err
	}
	if !ok {
		return vmvalue.Value{}, vmerrors.New(vmerrors.ResourceDoesNotExist)
	}
	c.borrows[path]++
	return v, nil
}

// ReleaseGlobal decrements path's outstanding-borrow count. Called by the
// interpreter when a frame holding a GlobalReference into path is popped,
// approximating the original's Rc<RefCell<>> drop-based release without
// true Go-side reference counting (see design notes).
func (c *TransactionDataCache) ReleaseGlobal(path vmvalue.AccessPath) {
	if n, ok := c.borrows[path]; ok {
		if n <= 1 {
			delete(c.borrows, path)
		} else {
			c.borrows[path] = n - 1
		}
	}
}

// WriteGlobal stores newVal at path, whether or not an entry already
// exists; used by the interpreter to write through a live GlobalReference.
func (c *TransactionDataCache) WriteGlobal(path vmvalue.AccessPath, newVal vmvalue.Value) {
	c.data[path] = &entry{state: stateDirty, value: newVal}
}

// MoveResourceTo publishes v at path. It errors with
// ResourceAlreadyExists if the path is already occupied, matching
// MoveToSender's "cannot overwrite an existing resource" invariant.
func (c *TransactionDataCache) MoveResourceTo(path vmvalue.AccessPath, v vmvalue.Value) error {
	_, ok, err := c.load(path)
	if err != nil {
		return err
	}
	if ok {
		return vmerrors.New(vmerrors.ResourceAlreadyExists)
	}
	c.data[path] = &entry{state: stateDirty, value: v}
	return nil
}

// MoveResourceFrom removes and returns the resource at path, matching
// MoveFrom. It errors with DanglingReference if the path has an
// outstanding borrow, since removing it would leave any live
// GlobalReference pointing at nothing.
func (c *TransactionDataCache) MoveResourceFrom(path vmvalue.AccessPath) (vmvalue.Value, error) {
	if c.borrows[path] > 0 {
		return vmvalue.Value{}, vmerrors.New(vmerrors.DanglingReference)
	}
	v, ok, err := c.load(path)
	if err != nil {
		return vmvalue.Value{}, err
	}
	if !ok {
		return vmvalue.Value{}, vmerrors.New(vmerrors.ResourceDoesNotExist)
	}
	c.data[path] = &entry{state: stateDeleted}
	return v, nil
}

// WriteOp is one entry of a materialized write-set: either a Set of a
// serialized value or a Delete.
type WriteOp struct {
	Path   vmvalue.AccessPath
	Delete bool
	Value  []byte
}

// MakeWriteSet materializes every Dirty/Deleted entry into a deterministic,
// path-ordered slice of WriteOp, matching make_write_set's requirement that
// the write-set be independent of map iteration order.
func (c *TransactionDataCache) MakeWriteSet() ([]WriteOp, error) {
	paths := make([]vmvalue.AccessPath, 0, len(c.data))
	for p, e := range c.data {
		if e.state != stateClean {
			paths = append(paths, p)
		}
	}
	sortAccessPaths(paths)

	ops := make([]WriteOp, 0, len(paths))
	for _, p := range paths {
		e := c.data[p]
		if e.state == stateDeleted {
			ops = append(ops, WriteOp{Path: p, Delete: true})
			continue
		}
		enc, err := vmvalue.Serialize(e.value)
		if err != nil {
			return nil, vmerrors.New(vmerrors.ValueSerializationError).WithMessage(err.Error())
		}
		ops = append(ops, WriteOp{Path: p, Value: enc})
	}
	return ops, nil
}

// Clear discards every dirty/deleted entry and outstanding borrow, used by
// failed_transaction_cleanup to reset the cache before running the
// epilogue (§4.E).
func (c *TransactionDataCache) Clear() {
	c.data = make(map[vmvalue.AccessPath]*entry)
	c.borrows = make(map[vmvalue.AccessPath]int)
}

func sortAccessPaths(paths []vmvalue.AccessPath) {
	// Simple insertion sort: write-sets are expected to be small (a
	// handful of resources per transaction), so this avoids importing
	// sort.Slice's reflection-based comparator for a closed, tiny key
	// type.
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && lessAccessPath(paths[j], paths[j-1]); j-- {
			paths[j], paths[j-1] = paths[j-1], paths[j]
		}
	}
}

func lessAccessPath(a, b vmvalue.AccessPath) bool {
	for i := range a.Address {
		if a.Address[i] != b.Address[i] {
			return a.Address[i] < b.Address[i]
		}
	}
	return a.Path < b.Path
}
