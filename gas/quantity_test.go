package gas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tzakian/libra/opcode"
)

func TestQuantityArithmetic(t *testing.T) {
	t.Run("add within bounds", func(t *testing.T) {
		a := NewGasUnits(10)
		b := NewGasUnits(20)
		sum, err := a.Add(b)
		require.NoError(t, err)
		require.Equal(t, uint64(30), sum.Get())
	})

	t.Run("sub underflow errors", func(t *testing.T) {
		a := NewGasUnits(5)
		b := NewGasUnits(10)
		_, err := a.Sub(b)
		require.Error(t, err)
	})

	t.Run("mul overflow errors", func(t *testing.T) {
		a := NewGasUnits(^uint64(0))
		b := NewGasUnits(2)
		_, err := a.Mul(b)
		require.Error(t, err)
	})

	t.Run("div by zero errors", func(t *testing.T) {
		a := NewGasUnits(10)
		b := NewGasUnits(0)
		_, err := a.Div(b)
		require.Error(t, err)
	})

	t.Run("map applies function", func(t *testing.T) {
		a := NewGasUnits(10)
		doubled := a.Map(func(v uint64) uint64 { return v * 2 })
		require.Equal(t, uint64(20), doubled.Get())
	})
}

func TestUnitaryCast(t *testing.T) {
	size := NewMemorySize(7)
	asUnits := UnitaryCast[memoryTag, unitsTag](size)
	require.Equal(t, uint64(7), asUnits.Get())
}

func TestGasCostTotal(t *testing.T) {
	cost := GasCost{Fixed: NewGasUnits(10), PerUnit: NewGasUnits(2)}
	total := cost.Total(NewMemorySize(5))
	require.Equal(t, uint64(20), total.Get())
}

func TestCalculateIntrinsicGas(t *testing.T) {
	t.Run("small transaction gets the flat minimum", func(t *testing.T) {
		g := CalculateIntrinsicGas(100)
		require.Equal(t, uint64(600), g.Get())
	})

	t.Run("large transaction pays per excess word", func(t *testing.T) {
		g := CalculateIntrinsicGas(600 + 80)
		require.Equal(t, uint64(600+10*8), g.Get())
	})
}

func TestDefaultCostTableCoversEveryOpcode(t *testing.T) {
	table := DefaultCostTable()
	require.NotNil(t, table)
	for op := opcode.OpCode(1); int(op) <= opcode.Count(); op++ {
		require.NotZero(t, table.Cost(op).Fixed.Get(), "opcode %s has no cost table entry", op)
	}
}
