// Package qubit models two-state quantum bits prepared in one of the two
// conjugate BB84 bases, along with the probabilistic measurement rule that
// the protocol's security rests on.
package qubit

import (
	"math/rand"

	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

// A Basis is the measurement frame a qubit is prepared or measured in:
// Z (computational) or X (Hadamard/conjugate).
type Basis uint8

const (
	Z Basis = iota
	X
)

// String returns "Z" or "X".
func (b Basis) String() string {
	switch b {
	case Z:
		return "Z"
	case X:
		return "X"
	}
	return "?"
}

// MarshalText implements encoding.TextMarshaler so bases serialize as
// their letter names.
func (b Basis) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, qerrors.InvalidParameterf("basis %d", b)
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Basis) UnmarshalText(text []byte) error {
	parsed, err := ParseBasis(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBasis converts "Z" or "X" to a Basis.
func ParseBasis(s string) (Basis, error) {
	switch s {
	case "Z":
		return Z, nil
	case "X":
		return X, nil
	}
	return 0, qerrors.InvalidParameterf("basis %q", s)
}

func (b Basis) valid() bool { return b == Z || b == X }

// A State is a prepared two-level quantum state that can be measured in a
// chosen basis. Measuring with the preparation basis is deterministic;
// measuring with the other basis yields an independent uniform draw on
// every call. Implementations must not mutate on measurement: each qubit
// is measured at most once per protocol run, and repeated wrong-basis
// measurements are modeled as independent draws rather than collapse.
type State interface {
	Measure(b Basis, rng *rand.Rand) (byte, error)
}

// A Factory builds a State from a basis and classical bit. It is the
// substitution point between the closed-form qubit below and the
// statevector-backed circuit implementation.
type Factory func(b Basis, bit byte) (State, error)

// A Qubit is an immutable two-state quantum bit prepared in a single
// basis with a single classical bit value.
type Qubit struct {
	basis Basis
	bit   byte
}

// New returns a Qubit prepared in basis b with classical value bit, or
// ErrInvalidParameter if either is outside its domain.
func New(b Basis, bit byte) (Qubit, error) {
	if !b.valid() {
		return Qubit{}, qerrors.InvalidParameterf("basis %d", b)
	}
	if bit > 1 {
		return Qubit{}, qerrors.InvalidParameterf("bit %d", bit)
	}
	return Qubit{basis: b, bit: bit}, nil
}

// Simulated is a Factory producing closed-form Qubits.
func Simulated(b Basis, bit byte) (State, error) {
	return New(b, bit)
}

// Basis returns the preparation basis.
func (q Qubit) Basis() Basis { return q.basis }

// Bit returns the classical bit encoded at preparation.
func (q Qubit) Bit() byte { return q.bit }

// Ket returns the Dirac notation for the prepared state: |0⟩ or |1⟩ in
// the Z basis, |+⟩ or |−⟩ in the X basis.
func (q Qubit) Ket() string {
	if q.basis == Z {
		if q.bit == 0 {
			return "|0⟩"
		}
		return "|1⟩"
	}
	if q.bit == 0 {
		return "|+⟩"
	}
	return "|−⟩"
}

// Measure observes the qubit in basis b, drawing any randomness from rng.
// A matching basis returns the prepared bit; a mismatched basis returns a
// uniform bit independent of the prepared value.
func (q Qubit) Measure(b Basis, rng *rand.Rand) (byte, error) {
	if !b.valid() {
		return 0, qerrors.InvalidParameterf("measurement basis %d", b)
	}
	if b == q.basis {
		return q.bit, nil
	}
	return byte(rng.Intn(2)), nil
}

// Random returns a qubit with uniformly random basis and bit, as prepared
// by Alice for one transmission slot.
func Random(rng *rand.Rand) Qubit {
	q, _ := New(Basis(rng.Intn(2)), byte(rng.Intn(2)))
	return q
}

// RandomBasis returns a uniformly random measurement basis.
func RandomBasis(rng *rand.Rand) Basis {
	return Basis(rng.Intn(2))
}

// Batch prepares n qubits with independent random bases and bits.
func Batch(n int, rng *rand.Rand) []Qubit {
	qs := make([]Qubit, n)
	for i := range qs {
		qs[i] = Random(rng)
	}
	return qs
}

// MeasureBatch measures each state with the basis at the same index,
// returning the outcomes. Fails with ErrLengthMismatch if the sequences
// differ in length.
func MeasureBatch(states []State, bases []Basis, rng *rand.Rand) ([]byte, error) {
	if len(states) != len(bases) {
		return nil, qerrors.LengthMismatchf("%d states vs %d bases", len(states), len(bases))
	}
	out := make([]byte, len(states))
	for i, s := range states {
		bit, err := s.Measure(bases[i], rng)
		if err != nil {
			return nil, err
		}
		out[i] = bit
	}
	return out, nil
}
