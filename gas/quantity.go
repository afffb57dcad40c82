// Package gas implements the gas algebra (§4.A): the three phantom-typed
// quantity newtypes (AbstractMemorySize, GasUnits, GasPrice), the cost
// table that maps an opcode to a GasCost, and calculate_intrinsic_gas.
//
// Grounded on the teacher's core/vm/gas_table.go gas-function shapes and
// common/math.SafeAdd/SafeMul checked arithmetic, generalized with a Go
// generic phantom-tag pattern to recover the original gas_schedule.rs
// GasAlgebra trait's compile-time-distinct newtypes without three
// hand-duplicated copies of the same arithmetic.
package gas

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
)

// memoryTag, unitsTag and priceTag are never instantiated; they exist only
// to make Quantity[memoryTag] a distinct type from Quantity[unitsTag], the
// way the original gas_schedule.rs kept GasUnits and AbstractMemorySize from
// being interchangeable despite sharing a u64 representation.
type memoryTag struct{}
type unitsTag struct{}
type priceTag struct{}

// Quantity is a checked-arithmetic newtype over uint64, parameterized by a
// phantom tag so that AbstractMemorySize, GasUnits and GasPrice cannot be
// mixed up at compile time even though they share an implementation.
type Quantity[Tag any] struct {
	val uint64
}

// NewQuantity constructs a Quantity from a raw uint64, mirroring the
// original GasAlgebra::new.
func NewQuantity[Tag any](v uint64) Quantity[Tag] {
	return Quantity[Tag]{val: v}
}

// Get returns the raw uint64 carried by the quantity, mirroring
// GasAlgebra::get.
func (q Quantity[Tag]) Get() uint64 {
	return q.val
}

// Map applies f to the carried value and rewraps the result, mirroring
// GasAlgebra::map.
func (q Quantity[Tag]) Map(f func(uint64) uint64) Quantity[Tag] {
	return Quantity[Tag]{val: f(q.val)}
}

// Map2 combines two quantities of the same tag with f, mirroring
// GasAlgebra::map2.
func (q Quantity[Tag]) Map2(other Quantity[Tag], f func(a, b uint64) uint64) Quantity[Tag] {
	return Quantity[Tag]{val: f(q.val, other.val)}
}

// App is map2 generalized to return a plain value rather than a Quantity,
// mirroring GasAlgebra::app. GasCost.Total does not use it; Total combines
// size and per-unit cost through UnitaryCast and Mul.
func (q Quantity[Tag]) App(other Quantity[Tag], f func(a, b uint64) uint64) uint64 {
	return f(q.val, other.val)
}

// Add returns q+other, erroring on overflow via the teacher's checked
// arithmetic helpers rather than silently wrapping.
func (q Quantity[Tag]) Add(other Quantity[Tag]) (Quantity[Tag], error) {
	sum, overflow := math.SafeAdd(q.val, other.val)
	if overflow {
		return Quantity[Tag]{}, fmt.Errorf("gas: overflow adding %d + %d", q.val, other.val)
	}
	return Quantity[Tag]{val: sum}, nil
}

// Sub returns q-other, erroring if other exceeds q.
func (q Quantity[Tag]) Sub(other Quantity[Tag]) (Quantity[Tag], error) {
	if other.val > q.val {
		return Quantity[Tag]{}, fmt.Errorf("gas: underflow subtracting %d - %d", q.val, other.val)
	}
	return Quantity[Tag]{val: q.val - other.val}, nil
}

// Mul returns q*other, erroring on overflow.
func (q Quantity[Tag]) Mul(other Quantity[Tag]) (Quantity[Tag], error) {
	product, overflow := math.SafeMul(q.val, other.val)
	if overflow {
		return Quantity[Tag]{}, fmt.Errorf("gas: overflow multiplying %d * %d", q.val, other.val)
	}
	return Quantity[Tag]{val: product}, nil
}

// Div returns q/other, erroring on division by zero.
func (q Quantity[Tag]) Div(other Quantity[Tag]) (Quantity[Tag], error) {
	if other.val == 0 {
		return Quantity[Tag]{}, fmt.Errorf("gas: division by zero")
	}
	return Quantity[Tag]{val: q.val / other.val}, nil
}

// UnitaryCast converts a Quantity of one tag into a Quantity of another,
// the only legal way to cross between AbstractMemorySize, GasUnits and
// GasPrice. Mirrors GasAlgebra::unitary_cast, which the original reserves
// for the handful of call sites that must relate two distinct units (gas
// cost -> gas units, gas units -> intrinsic size).
func UnitaryCast[From, To any](q Quantity[From]) Quantity[To] {
	return Quantity[To]{val: q.val}
}

// AbstractMemorySize measures value/struct memory footprint in words.
type AbstractMemorySize = Quantity[memoryTag]

// GasUnits measures machine-independent gas consumption.
type GasUnits = Quantity[unitsTag]

// GasPrice measures the price of one GasUnits in the transaction's chosen
// currency.
type GasPrice = Quantity[priceTag]

// NewMemorySize, NewGasUnits and NewGasPrice are typed convenience
// constructors so call sites don't need to spell out the generic
// instantiation.
func NewMemorySize(v uint64) AbstractMemorySize { return NewQuantity[memoryTag](v) }
func NewGasUnits(v uint64) GasUnits             { return NewQuantity[unitsTag](v) }
func NewGasPrice(v uint64) GasPrice             { return NewQuantity[priceTag](v) }
