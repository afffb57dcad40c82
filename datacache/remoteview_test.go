package datacache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tzakian/libra/vmvalue"
)

type emptyRemoteView struct{}

func (emptyRemoteView) GetResource(vmvalue.AccessPath) ([]byte, bool, error) {
	return nil, false, nil
}

type fixedRemoteView struct {
	path vmvalue.AccessPath
	data []byte
}

func (v fixedRemoteView) GetResource(p vmvalue.AccessPath) ([]byte, bool, error) {
	if p == v.path {
		return v.data, true, nil
	}
	return nil, false, nil
}

func testPath() vmvalue.AccessPath {
	return vmvalue.AccessPath{Address: vmvalue.Address{1}, Path: "R"}
}

func TestMoveResourceToAndFrom(t *testing.T) {
	c := New(emptyRemoteView{})
	path := testPath()

	require.NoError(t, c.MoveResourceTo(path, vmvalue.NewU64(5)))

	exists, err := c.ResourceExists(path)
	require.NoError(t, err)
	require.True(t, exists)

	err = c.MoveResourceTo(path, vmvalue.NewU64(6))
	require.Error(t, err, "publishing over an existing resource must fail")

	v, err := c.MoveResourceFrom(path)
	require.NoError(t, err)
	got, _ := v.AsU64()
	require.Equal(t, uint64(5), got)

	exists, err = c.ResourceExists(path)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMoveResourceFromMissingErrors(t *testing.T) {
	c := New(emptyRemoteView{})
	_, err := c.MoveResourceFrom(testPath())
	require.Error(t, err)
}

func TestBorrowGlobalBlocksMoveFrom(t *testing.T) {
	c := New(emptyRemoteView{})
	path := testPath()
	require.NoError(t, c.MoveResourceTo(path, vmvalue.NewU64(1)))

	_, err := c.BorrowGlobal(path)
	require.NoError(t, err)

	_, err = c.MoveResourceFrom(path)
	require.Error(t, err, "moving a resource with a live borrow must fail as a dangling reference")

	c.ReleaseGlobal(path)
	_, err = c.MoveResourceFrom(path)
	require.NoError(t, err, "once the borrow is released, the move should succeed")
}

func TestMakeWriteSetIsDeterministicallyOrdered(t *testing.T) {
	c := New(emptyRemoteView{})
	pathA := vmvalue.AccessPath{Address: vmvalue.Address{2}, Path: "A"}
	pathB := vmvalue.AccessPath{Address: vmvalue.Address{1}, Path: "B"}

	require.NoError(t, c.MoveResourceTo(pathB, vmvalue.NewU64(1)))
	require.NoError(t, c.MoveResourceTo(pathA, vmvalue.NewU64(2)))

	ops, err := c.MakeWriteSet()
	require.NoError(t, err)
	require.Len(t, ops, 2)
	require.Equal(t, pathB, ops[0].Path, "pathB's address sorts before pathA's")
	require.Equal(t, pathA, ops[1].Path)
}

func TestLoadFallsThroughToRemote(t *testing.T) {
	path := testPath()
	enc, err := vmvalue.Serialize(vmvalue.NewU64(77))
	require.NoError(t, err)

	c := New(fixedRemoteView{path: path, data: enc})
	exists, err := c.ResourceExists(path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestClearResetsOverlay(t *testing.T) {
	c := New(emptyRemoteView{})
	path := testPath()
	require.NoError(t, c.MoveResourceTo(path, vmvalue.NewU64(1)))
	c.Clear()

	exists, err := c.ResourceExists(path)
	require.NoError(t, err)
	require.False(t, exists)
}
