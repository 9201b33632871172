// Package bitstring provides utilities for operating on unpacked sequences
// of classical bits: the sifted sequences and final keys produced by a BB84
// run, and the binary/hex/base64 encodings the API exposes them in.
package bitstring

import (
	"encoding/base64"
	"strconv"
	"strings"

	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

// Bits is an ordered sequence of classical bits, one byte per bit. Values
// other than 0 and 1 are treated as 1 by the encoders.
type Bits []byte

// Parse converts a binary string such as "10110101" to Bits.
func Parse(s string) (Bits, error) {
	b := make(Bits, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			b[i] = 0
		case '1':
			b[i] = 1
		default:
			return nil, qerrors.InvalidParameterf("bit string byte %q at index %d", s[i], i)
		}
	}
	return b, nil
}

// String renders the bits as a binary string.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		if bit&1 == 0 {
			sb.WriteByte('0')
		} else {
			sb.WriteByte('1')
		}
	}
	return sb.String()
}

// MarshalJSON serializes Bits as a binary string rather than the base64
// encoding []byte would otherwise get.
func (b Bits) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(b.String())), nil
}

// UnmarshalJSON parses a quoted binary string.
func (b *Bits) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Hex encodes the bits as uppercase hex digits, four bits per digit, with
// a trailing partial nibble zero-padded on the right.
func (b Bits) Hex() string {
	var sb strings.Builder
	sb.Grow((len(b) + 3) / 4)
	for i := 0; i < len(b); i += 4 {
		var v byte
		for j := 0; j < 4; j++ {
			v <<= 1
			if i+j < len(b) {
				v |= b[i+j] & 1
			}
		}
		sb.WriteByte("0123456789ABCDEF"[v])
	}
	return sb.String()
}

// FromHex decodes a hex string (either case) into four bits per digit.
func FromHex(s string) (Bits, error) {
	b := make(Bits, 0, len(s)*4)
	for i := 0; i < len(s); i++ {
		v, err := strconv.ParseUint(string(s[i]), 16, 8)
		if err != nil {
			return nil, qerrors.InvalidParameterf("hex digit %q at index %d", s[i], i)
		}
		for shift := 3; shift >= 0; shift-- {
			b = append(b, byte(v>>shift)&1)
		}
	}
	return b, nil
}

// Bytes packs the bits MSB-first into bytes, padding with trailing zero
// bits up to a multiple of 8.
func (b Bits) Bytes() []byte {
	if len(b) == 0 {
		return []byte{}
	}
	out := make([]byte, (len(b)+7)/8)
	for i, bit := range b {
		if bit&1 == 1 {
			out[i/8] |= 1 << (7 - i%8)
		}
	}
	return out
}

// FromBytes unpacks every bit of data, MSB-first within each byte.
func FromBytes(data []byte) Bits {
	b := make(Bits, 0, len(data)*8)
	for _, by := range data {
		for shift := 7; shift >= 0; shift-- {
			b = append(b, (by>>shift)&1)
		}
	}
	return b
}

// Base64 encodes the MSB-first byte packing in standard base64.
func (b Bits) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Bytes())
}

// FromBase64 decodes a base64 string into its constituent bits.
func FromBase64(s string) (Bits, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, qerrors.InvalidParameterf("base64: %v", err)
	}
	return FromBytes(data), nil
}

// Weight returns the Hamming weight, the number of 1 bits.
func (b Bits) Weight() int {
	n := 0
	for _, bit := range b {
		if bit&1 == 1 {
			n++
		}
	}
	return n
}

// HammingDistance returns the number of positions at which a and b differ,
// or ErrLengthMismatch if they are not the same length.
func HammingDistance(a, b Bits) (int, error) {
	if len(a) != len(b) {
		return 0, qerrors.LengthMismatchf("%d vs %d bits", len(a), len(b))
	}
	d := 0
	for i := range a {
		if a[i]&1 != b[i]&1 {
			d++
		}
	}
	return d, nil
}

// XOR returns the bitwise exclusive-or of two equal-length sequences.
func XOR(a, b Bits) (Bits, error) {
	if len(a) != len(b) {
		return nil, qerrors.LengthMismatchf("%d vs %d bits", len(a), len(b))
	}
	out := make(Bits, len(a))
	for i := range a {
		out[i] = (a[i] ^ b[i]) & 1
	}
	return out, nil
}

// An Encoding names one of the display encodings for a key.
type Encoding string

const (
	Binary Encoding = "binary"
	Hex    Encoding = "hex"
	Base64 Encoding = "base64"
)

// Display renders the bits in enc, inserting a space every group
// characters for readability. group <= 0 disables grouping.
func (b Bits) Display(enc Encoding, group int) (string, error) {
	var raw string
	switch enc {
	case Binary:
		raw = b.String()
	case Hex:
		raw = b.Hex()
	case Base64:
		raw = b.Base64()
	default:
		return "", qerrors.InvalidParameterf("encoding %q", enc)
	}
	if group <= 0 || len(raw) <= group {
		return raw, nil
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i += group {
		if i > 0 {
			sb.WriteByte(' ')
		}
		end := i + group
		if end > len(raw) {
			end = len(raw)
		}
		sb.WriteString(raw[i:end])
	}
	return sb.String(), nil
}

// Quality summarizes how balanced a key is. A usable key should have a
// ones-ratio near 0.5.
type Quality struct {
	Length   int     `json:"length"`
	Ones     int     `json:"ones"`
	Zeros    int     `json:"zeros"`
	Balance  float64 `json:"balance"`
	Balanced bool    `json:"is_balanced"`
}

// Quality computes balance metrics for the key. A key is considered
// balanced when its ones-ratio lies in [0.4, 0.6].
func (b Bits) Quality() Quality {
	ones := b.Weight()
	q := Quality{
		Length: len(b),
		Ones:   ones,
		Zeros:  len(b) - ones,
	}
	if q.Length > 0 {
		q.Balance = float64(ones) / float64(q.Length)
	}
	q.Balanced = q.Balance >= 0.4 && q.Balance <= 0.6
	return q
}
