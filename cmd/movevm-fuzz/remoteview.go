package main

import "github.com/tzakian/libra/vmvalue"

// memoryRemoteView is a trivial in-memory RemoteView backing the fuzzer
// CLI; it never changes after construction, so every published resource
// the fuzzer's own executed transactions create lives only in the
// per-transaction data cache overlay, matching a fresh chain with no
// pre-existing global state.
type memoryRemoteView struct{}

func (memoryRemoteView) GetResource(vmvalue.AccessPath) ([]byte, bool, error) {
	return nil, false, nil
}
