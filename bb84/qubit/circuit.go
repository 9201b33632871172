package qubit

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

// Single-qubit gates as 2x2 complex matrices. The Hadamard gate rotates
// between the Z and X bases, so an X-basis measurement is a Hadamard
// followed by a computational-basis measurement.
var (
	gateX = mat.NewCDense(2, 2, []complex128{
		0, 1,
		1, 0,
	})
	gateH = mat.NewCDense(2, 2, []complex128{
		invSqrt2, invSqrt2,
		invSqrt2, -invSqrt2,
	})
)

const invSqrt2 = complex(math.Sqrt2/2, 0)

// A CircuitQubit is a statevector-backed State. Instead of the closed-form
// measurement rule in Qubit, it prepares an explicit two-amplitude state
// with X/H gates and samples measurement outcomes from the Born rule. It
// satisfies the same contract as Qubit and can be substituted for it
// anywhere in the protocol.
type CircuitQubit struct {
	basis Basis
	bit   byte
	amps  *mat.CDense // 2x1 statevector
}

// NewCircuit prepares a statevector for the given basis and bit:
// no gates for |0⟩, X for |1⟩, H for |+⟩, X then H for |−⟩.
func NewCircuit(b Basis, bit byte) (*CircuitQubit, error) {
	if !b.valid() {
		return nil, qerrors.InvalidParameterf("basis %d", b)
	}
	if bit > 1 {
		return nil, qerrors.InvalidParameterf("bit %d", bit)
	}
	amps := mat.NewCDense(2, 1, []complex128{1, 0})
	if bit == 1 {
		amps = applyGate(gateX, amps)
	}
	if b == X {
		amps = applyGate(gateH, amps)
	}
	return &CircuitQubit{basis: b, bit: bit, amps: amps}, nil
}

// Circuit is a Factory producing statevector-backed qubits.
func Circuit(b Basis, bit byte) (State, error) {
	return NewCircuit(b, bit)
}

// Basis returns the preparation basis.
func (q *CircuitQubit) Basis() Basis { return q.basis }

// Bit returns the classical bit encoded at preparation.
func (q *CircuitQubit) Bit() byte { return q.bit }

// Amplitudes returns the (α, β) statevector components over the
// computational basis.
func (q *CircuitQubit) Amplitudes() (complex128, complex128) {
	return q.amps.At(0, 0), q.amps.At(1, 0)
}

// Measure rotates the statevector into the measurement basis and samples
// the outcome from the squared amplitudes. The stored statevector is not
// modified: repeated measurements are independent draws, matching the
// closed-form Qubit behavior.
func (q *CircuitQubit) Measure(b Basis, rng *rand.Rand) (byte, error) {
	if !b.valid() {
		return 0, qerrors.InvalidParameterf("measurement basis %d", b)
	}
	v := q.amps
	if b == X {
		v = applyGate(gateH, v)
	}
	a0 := v.At(0, 0)
	p0 := real(a0)*real(a0) + imag(a0)*imag(a0)
	if rng.Float64() < p0 {
		return 0, nil
	}
	return 1, nil
}

// applyGate left-multiplies a 2x1 statevector by a 2x2 gate. CDense has
// no general multiply, so the product is written out.
func applyGate(g *mat.CDense, v *mat.CDense) *mat.CDense {
	out := mat.NewCDense(2, 1, nil)
	out.Set(0, 0, g.At(0, 0)*v.At(0, 0)+g.At(0, 1)*v.At(1, 0))
	out.Set(1, 0, g.At(1, 0)*v.At(0, 0)+g.At(1, 1)*v.At(1, 0))
	return out
}
