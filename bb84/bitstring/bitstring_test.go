package bitstring

import (
	"encoding/json"
	"errors"
	"testing"

	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

func TestParseAndString(t *testing.T) {
	b, err := Parse("10110101")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Bits{1, 0, 1, 1, 0, 1, 0, 1}
	if len(b) != len(want) {
		t.Fatalf("Parse == %v, want %v", b, want)
	}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("Parse == %v, want %v", b, want)
		}
	}
	if b.String() != "10110101" {
		t.Errorf("String == %q, want 10110101", b.String())
	}
}

func TestParseRejectsNonBits(t *testing.T) {
	if _, err := Parse("10120"); !errors.Is(err, qerrors.ErrInvalidParameter) {
		t.Errorf("Parse(10120) == %v, want ErrInvalidParameter", err)
	}
}

func TestHex(t *testing.T) {
	tcs := []struct {
		bits string
		want string
	}{
		{"10101101", "AD"},
		{"1010", "A"},
		{"10", "8"}, // trailing nibble zero-padded
		{"", ""},
	}
	for _, tc := range tcs {
		b, err := Parse(tc.bits)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.bits, err)
		}
		if got := b.Hex(); got != tc.want {
			t.Errorf("Hex(%q) == %q, want %q", tc.bits, got, tc.want)
		}
	}
}

func TestFromHex(t *testing.T) {
	b, err := FromHex("ad")
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if b.String() != "10101101" {
		t.Errorf("FromHex(ad) == %s, want 10101101", b)
	}
	if _, err := FromHex("xy"); !errors.Is(err, qerrors.ErrInvalidParameter) {
		t.Errorf("FromHex(xy) == %v, want ErrInvalidParameter", err)
	}
}

func TestBase64RoundTrip(t *testing.T) {
	b, _ := Parse("1010110111000011")
	got, err := FromBase64(b.Base64())
	if err != nil {
		t.Fatalf("FromBase64: %v", err)
	}
	if got.String() != b.String() {
		t.Errorf("round trip == %s, want %s", got, b)
	}
	if _, err := FromBase64("!!!!"); !errors.Is(err, qerrors.ErrInvalidParameter) {
		t.Errorf("FromBase64(!!!!) == %v, want ErrInvalidParameter", err)
	}
}

func TestJSONBinaryString(t *testing.T) {
	b, _ := Parse("0110")
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"0110"` {
		t.Errorf("Marshal == %s, want \"0110\"", data)
	}
	var back Bits
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.String() != "0110" {
		t.Errorf("Unmarshal == %s, want 0110", back)
	}
}

func TestHammingDistance(t *testing.T) {
	a, _ := Parse("1010")
	b, _ := Parse("1001")
	d, err := HammingDistance(a, b)
	if err != nil {
		t.Fatalf("HammingDistance: %v", err)
	}
	if d != 2 {
		t.Errorf("HammingDistance == %d, want 2", d)
	}
	if _, err := HammingDistance(a, b[:3]); !errors.Is(err, qerrors.ErrLengthMismatch) {
		t.Errorf("HammingDistance(mismatch) == %v, want ErrLengthMismatch", err)
	}
}

func TestXOR(t *testing.T) {
	a, _ := Parse("1100")
	b, _ := Parse("1010")
	out, err := XOR(a, b)
	if err != nil {
		t.Fatalf("XOR: %v", err)
	}
	if out.String() != "0110" {
		t.Errorf("XOR == %s, want 0110", out)
	}
	if _, err := XOR(a, b[:2]); !errors.Is(err, qerrors.ErrLengthMismatch) {
		t.Errorf("XOR(mismatch) == %v, want ErrLengthMismatch", err)
	}
}

func TestDisplayGrouping(t *testing.T) {
	b, _ := Parse("10110101")
	got, err := b.Display(Binary, 4)
	if err != nil {
		t.Fatalf("Display: %v", err)
	}
	if got != "1011 0101" {
		t.Errorf("Display(binary, 4) == %q, want \"1011 0101\"", got)
	}
	got, err = b.Display(Hex, 0)
	if err != nil {
		t.Fatalf("Display: %v", err)
	}
	if got != "B5" {
		t.Errorf("Display(hex) == %q, want B5", got)
	}
	if _, err := b.Display(Encoding("octal"), 0); !errors.Is(err, qerrors.ErrInvalidParameter) {
		t.Errorf("Display(octal) == %v, want ErrInvalidParameter", err)
	}
}

func TestQuality(t *testing.T) {
	b, _ := Parse("11110000")
	q := b.Quality()
	if q.Length != 8 || q.Ones != 4 || q.Zeros != 4 {
		t.Errorf("Quality == %+v", q)
	}
	if q.Balance != 0.5 || !q.Balanced {
		t.Errorf("Quality == %+v, want balanced at 0.5", q)
	}

	skewed, _ := Parse("11111110")
	if q := skewed.Quality(); q.Balanced {
		t.Errorf("Quality(%s).Balanced == true, want false", skewed)
	}

	if q := (Bits{}).Quality(); q.Balance != 0 || q.Balanced {
		t.Errorf("Quality(empty) == %+v, want zero and unbalanced", q)
	}
}
