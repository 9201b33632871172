package stats

import (
	"math"
	"testing"
)

func TestExpectedQBER(t *testing.T) {
	tcs := []struct {
		rate, want float64
	}{
		{0, 0},
		{0.5, 0.125},
		{1.0, 0.25},
	}
	for _, tc := range tcs {
		if got := ExpectedQBER(tc.rate); got != tc.want {
			t.Errorf("ExpectedQBER(%v) == %v, want %v", tc.rate, got, tc.want)
		}
	}
}

func TestIsSecureBoundary(t *testing.T) {
	tcs := []struct {
		qber float64
		want bool
	}{
		{0, true},
		{0.05, true},
		{0.11, true}, // boundary counts as secure
		{0.1100001, false},
		{0.25, false},
	}
	for _, tc := range tcs {
		if got := IsSecure(tc.qber); got != tc.want {
			t.Errorf("IsSecure(%v) == %v, want %v", tc.qber, got, tc.want)
		}
	}
}

func TestMutualInformation(t *testing.T) {
	if got := MutualInformation(0); got != 1.0 {
		t.Errorf("MutualInformation(0) == %v, want 1", got)
	}
	if got := MutualInformation(1); got != 1.0 {
		t.Errorf("MutualInformation(1) == %v, want 1", got)
	}
	if got := MutualInformation(0.5); math.Abs(got) > 1e-12 {
		t.Errorf("MutualInformation(0.5) == %v, want 0", got)
	}
	// H(0.11) ~= 0.4999, so 1 - H ~= 0.5001.
	if got := MutualInformation(0.11); math.Abs(got-0.5) > 0.01 {
		t.Errorf("MutualInformation(0.11) == %v, want ~0.5", got)
	}
}

func TestSecureKeyRate(t *testing.T) {
	if got := SecureKeyRate(0.11, 0.5); got != 0 {
		t.Errorf("SecureKeyRate at threshold == %v, want 0", got)
	}
	if got := SecureKeyRate(0, 0.5); got != 0.5 {
		t.Errorf("SecureKeyRate(0, 0.5) == %v, want 0.5", got)
	}
}

func TestEfficiencyScore(t *testing.T) {
	// Ideal run: half sifted, no errors, a quarter kept as key.
	got := EfficiencyScore(0.5, 0, 0.25)
	want := 0.5*40 + 30 + 0.25*30
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EfficiencyScore(0.5, 0, 0.25) == %v, want %v", got, want)
	}
	// QBER at or beyond the threshold zeroes the middle term.
	got = EfficiencyScore(0.5, 0.3, 0.25)
	want = 0.5*40 + 0 + 0.25*30
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EfficiencyScore(0.5, 0.3, 0.25) == %v, want %v", got, want)
	}
}

func TestRatingFor(t *testing.T) {
	tcs := []struct {
		score float64
		want  Rating
	}{
		{95, Excellent},
		{80, Excellent},
		{79.9, Good},
		{60, Good},
		{40, Fair},
		{20, Poor},
		{19.9, Critical},
		{0, Critical},
	}
	for _, tc := range tcs {
		if got := RatingFor(tc.score); got != tc.want {
			t.Errorf("RatingFor(%v) == %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(1024, 512, 256, 0, 51, false)
	if s.Transmission.TotalQubits != 1024 || s.Transmission.SiftedBits != 512 {
		t.Errorf("Transmission == %+v", s.Transmission)
	}
	if s.Transmission.SiftingEfficiency != 50.0 {
		t.Errorf("SiftingEfficiency == %v, want 50", s.Transmission.SiftingEfficiency)
	}
	if s.Transmission.KeyGenerationRate != 25.0 {
		t.Errorf("KeyGenerationRate == %v, want 25", s.Transmission.KeyGenerationRate)
	}
	if s.Security.QBER != 0 || !s.Security.IsSecure || s.Security.EavesdropperDetected {
		t.Errorf("Security == %+v", s.Security)
	}
	if s.Security.SecurityThreshold != 11.0 {
		t.Errorf("SecurityThreshold == %v, want 11", s.Security.SecurityThreshold)
	}
	if s.InformationTheory.MutualInformation != 1.0 {
		t.Errorf("MutualInformation == %v, want 1", s.InformationTheory.MutualInformation)
	}
	if s.InformationTheory.SecureKeyRate != 50.0 {
		t.Errorf("SecureKeyRate == %v, want 50", s.InformationTheory.SecureKeyRate)
	}
	// 0.5*40 + 30 + 0.25*30 = 57.5.
	if s.Performance.EfficiencyScore != 57.5 || s.Performance.Rating != Fair {
		t.Errorf("Performance == %+v, want score 57.5 rated Fair", s.Performance)
	}
}

func TestSummarizeDetectsEavesdropper(t *testing.T) {
	s := Summarize(1024, 512, 0, 13, 51, true)
	if s.Security.IsSecure {
		t.Errorf("IsSecure with QBER %v, want insecure", s.Security.QBER)
	}
	if !s.Security.EavesdropperDetected {
		t.Error("EavesdropperDetected == false with Eve present and QBER over threshold")
	}
	if s.InformationTheory.SecureKeyRate != 0 {
		t.Errorf("SecureKeyRate == %v, want 0 over threshold", s.InformationTheory.SecureKeyRate)
	}
}

func TestCompareRuns(t *testing.T) {
	runs := []Summary{
		Summarize(1024, 512, 256, 0, 51, false),
		Summarize(1024, 500, 200, 5, 50, false),
		Summarize(1024, 480, 0, 13, 48, true),
	}
	c := CompareRuns(runs)
	if c.TotalRuns != 3 {
		t.Errorf("TotalRuns == %d, want 3", c.TotalRuns)
	}
	if c.SecuritySummary.SecureRuns != 2 || c.SecuritySummary.InsecureRuns != 1 {
		t.Errorf("SecuritySummary == %+v, want 2 secure / 1 insecure", c.SecuritySummary)
	}
	if math.Abs(c.SecuritySummary.SuccessRate-66.67) > 0.01 {
		t.Errorf("SuccessRate == %v, want 66.67", c.SecuritySummary.SuccessRate)
	}
	for _, r := range runs {
		if c.BestRun.Performance.EfficiencyScore < r.Performance.EfficiencyScore {
			t.Errorf("best run score %v below run score %v",
				c.BestRun.Performance.EfficiencyScore, r.Performance.EfficiencyScore)
		}
		if c.WorstRun.Performance.EfficiencyScore > r.Performance.EfficiencyScore {
			t.Errorf("worst run score %v above run score %v",
				c.WorstRun.Performance.EfficiencyScore, r.Performance.EfficiencyScore)
		}
	}
}

func TestCompareRunsEmpty(t *testing.T) {
	c := CompareRuns(nil)
	if c.TotalRuns != 0 {
		t.Errorf("CompareRuns(nil).TotalRuns == %d, want 0", c.TotalRuns)
	}
}

func TestAnalyzeTrend(t *testing.T) {
	tr := AnalyzeTrend([]float64{0.01, 0.02, 0.01, 0.02})
	if tr.Count != 4 || tr.SecureCount != 4 || tr.InsecureCount != 0 {
		t.Errorf("Trend == %+v", tr)
	}
	if tr.Stability != "Stable" {
		t.Errorf("Stability == %q, want Stable for a tight series", tr.Stability)
	}
	if tr.MinQBER != 1.0 || tr.MaxQBER != 2.0 {
		t.Errorf("Min/Max == %v/%v, want 1/2", tr.MinQBER, tr.MaxQBER)
	}

	tr = AnalyzeTrend([]float64{0.0, 0.25, 0.05, 0.30})
	if tr.Stability != "Unstable" {
		t.Errorf("Stability == %q, want Unstable for a wide series", tr.Stability)
	}
	if tr.SecureCount != 2 || tr.InsecureCount != 2 {
		t.Errorf("secure split == %d/%d, want 2/2", tr.SecureCount, tr.InsecureCount)
	}
}

func TestAnalyzeTrendEmpty(t *testing.T) {
	if tr := AnalyzeTrend(nil); tr.Count != 0 {
		t.Errorf("AnalyzeTrend(nil) == %+v, want zero", tr)
	}
}
