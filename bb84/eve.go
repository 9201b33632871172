package bb84

import (
	"math/rand"

	"github.com/qkdlab/bb84sim/bb84/qubit"
	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

// A Strategy names an eavesdropping approach.
type Strategy string

const (
	// InterceptResend measures intercepted qubits in a random basis and
	// forwards freshly prepared replacements, disturbing the channel
	// whenever the basis guess is wrong.
	InterceptResend Strategy = "intercept-resend"

	// Passive forwards every qubit untouched and records nothing.
	Passive Strategy = "passive"
)

// An Eavesdropper simulates Eve sitting on the quantum channel between
// Alice and Bob. It is scoped to a single protocol run unless explicitly
// Reset.
type Eavesdropper struct {
	prob     float64
	strategy Strategy
	rng      *rand.Rand
	newState qubit.Factory

	intercepted int
	bases       []qubit.Basis
	bits        []byte
	indices     []int
}

// EveStats is a read-only snapshot of an Eavesdropper's activity.
type EveStats struct {
	TotalIntercepted    int         `json:"total_intercepted"`
	InterceptRate       float64     `json:"intercept_rate"`
	BasesUsed           BasisCounts `json:"bases_used"`
	BitsMeasured        BitCounts   `json:"bits_measured"`
	InterceptionIndices []int       `json:"interception_indices"`
}

// BasisCounts tallies measurement bases by name.
type BasisCounts struct {
	Z int `json:"Z"`
	X int `json:"X"`
}

// BitCounts tallies measured bit values.
type BitCounts struct {
	Zeros int `json:"0"`
	Ones  int `json:"1"`
}

// NewEavesdropper builds an Eavesdropper that intercepts each qubit
// independently with probability prob using the given strategy. Replacement
// qubits are built with newState, which defaults to qubit.Simulated.
// Fails with ErrInvalidParameter if prob is outside [0, 1] or the strategy
// is unrecognized.
func NewEavesdropper(prob float64, strategy Strategy, rng *rand.Rand, newState qubit.Factory) (*Eavesdropper, error) {
	if prob < 0 || prob > 1 {
		return nil, qerrors.InvalidParameterf("intercept probability %v", prob)
	}
	if strategy != InterceptResend && strategy != Passive {
		return nil, qerrors.InvalidParameterf("strategy %q", strategy)
	}
	if rng == nil {
		return nil, qerrors.InvalidParameterf("nil Rand")
	}
	if newState == nil {
		newState = qubit.Simulated
	}
	return &Eavesdropper{prob: prob, strategy: strategy, rng: rng, newState: newState}, nil
}

// Intercept passes a qubit sequence through Eve, returning the same-length
// sequence Bob will receive. Under the passive strategy the input is
// returned unchanged. Under intercept-resend, each qubit is independently
// intercepted with the configured probability: Eve measures it in a random
// basis and forwards a new qubit prepared from her own basis and outcome;
// uninterested qubits pass through as-is.
func (e *Eavesdropper) Intercept(states []qubit.State) ([]qubit.State, error) {
	if e.strategy == Passive {
		return states, nil
	}
	out := make([]qubit.State, len(states))
	for i, s := range states {
		if e.rng.Float64() >= e.prob {
			out[i] = s
			continue
		}
		resent, err := e.interceptOne(s)
		if err != nil {
			return nil, err
		}
		out[i] = resent
		e.indices = append(e.indices, i)
		e.intercepted++
	}
	return out, nil
}

// interceptOne performs the intercept-resend attack on a single qubit:
// measure in a random basis, record the outcome, and prepare the
// replacement from what Eve saw. The original qubit's true state is never
// forwarded.
func (e *Eavesdropper) interceptOne(s qubit.State) (qubit.State, error) {
	basis := qubit.RandomBasis(e.rng)
	bit, err := s.Measure(basis, e.rng)
	if err != nil {
		return nil, err
	}
	e.bases = append(e.bases, basis)
	e.bits = append(e.bits, bit)
	return e.newState(basis, bit)
}

// Statistics returns a snapshot of Eve's activity. It does not mutate the
// eavesdropper.
func (e *Eavesdropper) Statistics() EveStats {
	s := EveStats{
		TotalIntercepted:    e.intercepted,
		InterceptRate:       e.prob,
		InterceptionIndices: append([]int{}, e.indices...),
	}
	for _, b := range e.bases {
		if b == qubit.Z {
			s.BasesUsed.Z++
		} else {
			s.BasesUsed.X++
		}
	}
	for _, bit := range e.bits {
		if bit == 0 {
			s.BitsMeasured.Zeros++
		} else {
			s.BitsMeasured.Ones++
		}
	}
	return s
}

// Reset clears all counters and records so the eavesdropper can be reused
// across runs without reconstruction.
func (e *Eavesdropper) Reset() {
	e.intercepted = 0
	e.bases = nil
	e.bits = nil
	e.indices = nil
}
