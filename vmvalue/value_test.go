package vmvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	t.Run("bool round trip", func(t *testing.T) {
		v := NewBool(true)
		b, err := v.AsBool()
		require.NoError(t, err)
		require.True(t, b)
	})

	t.Run("wrong accessor errors", func(t *testing.T) {
		v := NewU64(42)
		_, err := v.AsBool()
		require.Error(t, err)
	})

	t.Run("invalid sentinel", func(t *testing.T) {
		v := NewInvalid()
		require.True(t, v.IsInvalid())
	})
}

func TestValueEquals(t *testing.T) {
	t.Run("different kinds are not equal", func(t *testing.T) {
		eq, err := NewU64(1).Equals(NewBool(true))
		require.NoError(t, err)
		require.False(t, eq)
	})

	t.Run("structs compare field-wise", func(t *testing.T) {
		a := NewStruct([]Value{NewU64(1), NewBool(true)})
		b := NewStruct([]Value{NewU64(1), NewBool(true)})
		c := NewStruct([]Value{NewU64(2), NewBool(true)})

		eq, err := a.Equals(b)
		require.NoError(t, err)
		require.True(t, eq)

		eq, err = a.Equals(c)
		require.NoError(t, err)
		require.False(t, eq)
	})
}

func TestLocalsMoveDiscipline(t *testing.T) {
	locals := NewLocals(2)
	require.NoError(t, locals.StLoc(0, NewU64(7)))

	v, err := locals.MoveLoc(0)
	require.NoError(t, err)
	got, _ := v.AsU64()
	require.Equal(t, uint64(7), got)

	_, err = locals.MoveLoc(0)
	require.Error(t, err, "moving an already-moved local must fail")
}

func TestLocalsCopyRequiresInitialized(t *testing.T) {
	locals := NewLocals(1)
	_, err := locals.CopyLoc(0)
	require.Error(t, err)
}

func TestLocalReferenceReadWrite(t *testing.T) {
	locals := NewLocals(1)
	require.NoError(t, locals.StLoc(0, NewStruct([]Value{NewU64(1), NewU64(2)})))

	refVal := NewLocalReference(locals, 0, 1)
	ref, err := refVal.AsReference()
	require.NoError(t, err)
	lref := ref.(LocalReference)

	v, err := lref.Read()
	require.NoError(t, err)
	got, _ := v.AsU64()
	require.Equal(t, uint64(2), got)

	require.NoError(t, lref.Write(NewU64(99)))
	v, err = lref.Read()
	require.NoError(t, err)
	got, _ = v.AsU64()
	require.Equal(t, uint64(99), got)
}

func TestSerializeRoundTrip(t *testing.T) {
	original := NewStruct([]Value{
		NewU64(42),
		NewBool(true),
		NewByteArray([]byte{1, 2, 3}),
		NewString("hello"),
	})
	enc, err := Serialize(original)
	require.NoError(t, err)

	decoded, rest, err := Deserialize(enc)
	require.NoError(t, err)
	require.Empty(t, rest)

	eq, err := original.Equals(decoded)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestMemorySizeWords(t *testing.T) {
	require.Equal(t, uint64(1), MemorySizeWords(NewU64(1)))
	require.Equal(t, uint64(1), MemorySizeWords(NewByteArray(nil)))
	require.Equal(t, uint64(1), MemorySizeWords(NewByteArray([]byte{1, 2, 3, 4, 5, 6, 7, 8})))
	require.Equal(t, uint64(2), MemorySizeWords(NewByteArray([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9})))
}
