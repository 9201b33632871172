// Package bb84 simulates the BB84 quantum key distribution protocol: two
// parties establish a shared secret bit-string over a simulated quantum
// channel, with an optional eavesdropper whose intercept-resend attack
// becomes statistically detectable through the quantum bit error rate.
package bb84

import (
	"math/rand"
	"sort"

	"github.com/qkdlab/bb84sim/bb84/bitstring"
	"github.com/qkdlab/bb84sim/bb84/qubit"
	"github.com/qkdlab/bb84sim/bb84/stats"
	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

// DefaultKeyLength and DefaultMultiplier are the conventional protocol
// parameters: a multiplier of 4 compensates for the ~50% sifting loss plus
// error-check and truncation losses.
const (
	DefaultKeyLength  = 256
	DefaultMultiplier = 4
)

// Options packages together the arguments necessary to construct a
// Protocol. Rand has no reasonable default and must be non-nil.
type Options struct {
	// KeyLength is the desired final key length in bits. Must be positive.
	KeyLength int

	// TransmissionMultiplier scales KeyLength up to the number of qubits
	// actually transmitted. Must be at least 2.
	TransmissionMultiplier int

	// Rand is the randomness source for preparation, measurement and
	// eavesdropping decisions. Seed it for deterministic runs.
	Rand *rand.Rand

	// NewState builds prepared qubits; defaults to qubit.Simulated. Use
	// qubit.Circuit for the statevector backend.
	NewState qubit.Factory
}

// A Protocol runs BB84 key establishment between a simulated Alice and
// Bob. Each Execute call is self-contained; concurrent callers should use
// separate Protocol instances since the randomness source is not
// synchronized.
type Protocol struct {
	keyLength  int
	multiplier int
	rng        *rand.Rand
	newState   qubit.Factory
}

// New returns a Protocol configured per opts, or ErrInvalidParameter if
// the options are nonsensical.
func New(opts Options) (*Protocol, error) {
	if opts.KeyLength <= 0 {
		return nil, qerrors.InvalidParameterf("key length %d", opts.KeyLength)
	}
	if opts.TransmissionMultiplier < 2 {
		return nil, qerrors.InvalidParameterf("transmission multiplier %d", opts.TransmissionMultiplier)
	}
	if opts.Rand == nil {
		return nil, qerrors.InvalidParameterf("nil Rand")
	}
	newState := opts.NewState
	if newState == nil {
		newState = qubit.Simulated
	}
	return &Protocol{
		keyLength:  opts.KeyLength,
		multiplier: opts.TransmissionMultiplier,
		rng:        opts.Rand,
		newState:   newState,
	}, nil
}

// A Result is the complete record of one protocol run. It is owned by the
// caller; the engine retains no reference to it.
type Result struct {
	AliceBits  bitstring.Bits `json:"alice_bits"`
	AliceBases []qubit.Basis  `json:"alice_bases"`
	BobBits    bitstring.Bits `json:"bob_bits"`
	BobBases   []qubit.Basis  `json:"bob_bases"`

	SiftedAliceBits bitstring.Bits `json:"sifted_alice_bits"`
	SiftedBobBits   bitstring.Bits `json:"sifted_bob_bits"`
	MatchingIndices []int          `json:"matching_indices"`

	ErrorRate      float64 `json:"error_rate"`
	ErrorsFound    int     `json:"errors_found"`
	CheckedIndices []int   `json:"checked_indices"`
	SampleSize     int     `json:"sample_size"`
	IsSecure       bool    `json:"is_secure"`

	FinalKey bitstring.Bits `json:"final_key"`

	TotalTransmitted  int     `json:"total_transmitted"`
	TotalSifted       int     `json:"total_sifted"`
	FinalKeyLength    int     `json:"final_key_length"`
	SiftingEfficiency float64 `json:"sifting_efficiency"` // percent

	EavesdropperPresent bool      `json:"eavesdropper_present"`
	EavesdropperStats   *EveStats `json:"eavesdropper_stats,omitempty"`
}

// Execute runs the six protocol stages in order: Alice prepares random
// qubits, the sequence optionally passes through an eavesdropper, Bob
// measures in random bases, matching-basis pairs are sifted, a random
// sample of sifted bits estimates the error rate, and the sampled bits
// are discarded before truncating to the final key.
func (p *Protocol) Execute(withEve bool, interceptRate float64) (*Result, error) {
	aliceBits, aliceBases, states, err := p.prepare()
	if err != nil {
		return nil, err
	}

	var eveStats *EveStats
	if withEve {
		eve, err := NewEavesdropper(interceptRate, InterceptResend, p.rng, p.newState)
		if err != nil {
			return nil, err
		}
		if states, err = eve.Intercept(states); err != nil {
			return nil, err
		}
		s := eve.Statistics()
		eveStats = &s
	}

	bobBits, bobBases, err := p.measure(states)
	if err != nil {
		return nil, err
	}

	siftedAlice, siftedBob, matching := sift(aliceBits, aliceBases, bobBits, bobBases)
	errRate, errs, checked, sampleSize := p.estimateErrors(siftedAlice, siftedBob)
	finalKey := p.amplify(siftedAlice, checked)

	transmitted := len(aliceBits)
	sifted := len(siftedAlice)
	eff := 0.0
	if transmitted > 0 {
		eff = float64(sifted) / float64(transmitted) * 100
	}

	return &Result{
		AliceBits:           aliceBits,
		AliceBases:          aliceBases,
		BobBits:             bobBits,
		BobBases:            bobBases,
		SiftedAliceBits:     siftedAlice,
		SiftedBobBits:       siftedBob,
		MatchingIndices:     matching,
		ErrorRate:           errRate,
		ErrorsFound:         errs,
		CheckedIndices:      checked,
		SampleSize:          sampleSize,
		IsSecure:            errRate <= stats.QBERThreshold,
		FinalKey:            finalKey,
		TotalTransmitted:    transmitted,
		TotalSifted:         sifted,
		FinalKeyLength:      len(finalKey),
		SiftingEfficiency:   eff,
		EavesdropperPresent: withEve,
		EavesdropperStats:   eveStats,
	}, nil
}

// prepare draws KeyLength x TransmissionMultiplier random (basis, bit)
// pairs for Alice and builds one prepared state per pair.
func (p *Protocol) prepare() (bitstring.Bits, []qubit.Basis, []qubit.State, error) {
	n := p.keyLength * p.multiplier
	bits := make(bitstring.Bits, n)
	bases := make([]qubit.Basis, n)
	states := make([]qubit.State, n)
	for i := 0; i < n; i++ {
		bits[i] = byte(p.rng.Intn(2))
		bases[i] = qubit.RandomBasis(p.rng)
		s, err := p.newState(bases[i], bits[i])
		if err != nil {
			return nil, nil, nil, err
		}
		states[i] = s
	}
	return bits, bases, states, nil
}

// measure draws one random basis per received state and measures it.
func (p *Protocol) measure(states []qubit.State) (bitstring.Bits, []qubit.Basis, error) {
	bases := make([]qubit.Basis, len(states))
	for i := range bases {
		bases[i] = qubit.RandomBasis(p.rng)
	}
	bits, err := qubit.MeasureBatch(states, bases, p.rng)
	if err != nil {
		return nil, nil, err
	}
	return bitstring.Bits(bits), bases, nil
}

// sift keeps the (Alice bit, Bob bit) pairs at every index where the
// preparation and measurement bases agree, in ascending index order.
func sift(aliceBits bitstring.Bits, aliceBases []qubit.Basis, bobBits bitstring.Bits, bobBases []qubit.Basis) (siftedAlice, siftedBob bitstring.Bits, matching []int) {
	for i := range aliceBases {
		if aliceBases[i] != bobBases[i] {
			continue
		}
		siftedAlice = append(siftedAlice, aliceBits[i])
		siftedBob = append(siftedBob, bobBits[i])
		matching = append(matching, i)
	}
	return siftedAlice, siftedBob, matching
}

// estimateErrors publicly compares a random sample of the sifted bits.
// The sample size is max(1, min(n/10, n/2)); the sampled indices are
// reported sorted. The error rate divides by the nominal sample size even
// when the sifted set is empty.
func (p *Protocol) estimateErrors(siftedAlice, siftedBob bitstring.Bits) (rate float64, errs int, checked []int, sampleSize int) {
	n := len(siftedAlice)
	sampleSize = n / 10
	if n/2 < sampleSize {
		sampleSize = n / 2
	}
	if sampleSize < 1 {
		sampleSize = 1
	}

	take := sampleSize
	if take > n {
		take = n
	}
	checked = append([]int{}, p.rng.Perm(n)[:take]...)
	sort.Ints(checked)

	for _, i := range checked {
		if siftedAlice[i] != siftedBob[i] {
			errs++
		}
	}
	rate = float64(errs) / float64(sampleSize)
	return rate, errs, checked, sampleSize
}

// amplify removes the publicly revealed (checked) bits from the sifted
// sequence and truncates to the configured key length. A short key is
// not an error.
func (p *Protocol) amplify(siftedAlice bitstring.Bits, checked []int) bitstring.Bits {
	revealed := make(map[int]struct{}, len(checked))
	for _, i := range checked {
		revealed[i] = struct{}{}
	}
	key := make(bitstring.Bits, 0, p.keyLength)
	for i, bit := range siftedAlice {
		if _, ok := revealed[i]; ok {
			continue
		}
		key = append(key, bit)
		if len(key) == p.keyLength {
			break
		}
	}
	return key
}
