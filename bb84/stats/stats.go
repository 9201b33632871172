// Package stats provides pure statistical analysis over finished BB84
// runs: error rates, information-theoretic bounds, efficiency scoring and
// multi-run comparison. It operates on counts and rates only, never on
// qubit objects.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// QBERThreshold is the standard BB84 security threshold: a protocol run
// with QBER at or below 11% is considered secure.
const QBERThreshold = 0.11

// SiftingEfficiency returns the fraction of transmitted qubits that
// survived basis sifting. The theoretical value is ~0.5 for uniformly
// random bases.
func SiftingEfficiency(transmitted, sifted int) float64 {
	if transmitted == 0 {
		return 0
	}
	return float64(sifted) / float64(transmitted)
}

// QBER returns the quantum bit error rate: the fraction of checked bits
// that disagreed between Alice and Bob.
func QBER(errors, checked int) float64 {
	if checked == 0 {
		return 0
	}
	return float64(errors) / float64(checked)
}

// KeyRate returns the fraction of transmitted qubits that became final
// key bits.
func KeyRate(finalKeyLength, transmitted int) float64 {
	if transmitted == 0 {
		return 0
	}
	return float64(finalKeyLength) / float64(transmitted)
}

// MutualInformation returns the information-theoretic bound on key
// agreement between Alice and Bob: 1 - H(qber), where H is the binary
// entropy function. The limiting value at qber of exactly 0 or 1 is 1.0.
func MutualInformation(qber float64) float64 {
	if qber == 0 || qber == 1 {
		return 1.0
	}
	h := -qber*math.Log2(qber) - (1-qber)*math.Log2(1-qber)
	return 1.0 - h
}

// SecureKeyRate estimates the secure key bits extractable per transmitted
// qubit: siftingEfficiency x (1 - H(qber)), or 0 once the QBER reaches
// the security threshold.
func SecureKeyRate(qber, siftingEfficiency float64) float64 {
	if qber >= QBERThreshold {
		return 0
	}
	return siftingEfficiency * MutualInformation(qber)
}

// IsSecure reports whether a QBER is at or below the security threshold.
// The boundary at exactly 0.11 is secure.
func IsSecure(qber float64) bool {
	return qber <= QBERThreshold
}

// ExpectedQBER returns the theoretical QBER induced by an intercept-resend
// attack at the given intercept rate: Eve guesses the wrong basis half the
// time, and a wrong guess flips Bob's bit half the time, so the error
// rate is rate x 0.25.
func ExpectedQBER(interceptRate float64) float64 {
	return interceptRate * 0.25
}

// EfficiencyScore combines sifting efficiency (weight 40), QBER margin
// below the threshold (30) and key generation rate (30) into a 0-100
// score. All inputs are fractions in [0, 1].
func EfficiencyScore(siftingEfficiency, qber, keyRate float64) float64 {
	qberPenalty := qber / QBERThreshold
	if qberPenalty > 1 {
		qberPenalty = 1
	}
	return siftingEfficiency*40 + (1-qberPenalty)*30 + keyRate*30
}

// A Rating is the qualitative band an efficiency score falls in.
type Rating string

const (
	Excellent Rating = "Excellent"
	Good      Rating = "Good"
	Fair      Rating = "Fair"
	Poor      Rating = "Poor"
	Critical  Rating = "Critical"
)

// RatingFor maps a 0-100 efficiency score to its band.
func RatingFor(score float64) Rating {
	switch {
	case score >= 80:
		return Excellent
	case score >= 60:
		return Good
	case score >= 40:
		return Fair
	case score >= 20:
		return Poor
	default:
		return Critical
	}
}

// Transmission holds the sifting and key-generation counts from one run.
// Rates are percentages.
type Transmission struct {
	TotalQubits       int     `json:"total_qubits"`
	SiftedBits        int     `json:"sifted_bits"`
	FinalKeyBits      int     `json:"final_key_bits"`
	SiftingEfficiency float64 `json:"sifting_efficiency"`
	KeyGenerationRate float64 `json:"key_generation_rate"`
}

// Security holds the error-check outcome from one run. QBER is a
// percentage; the threshold is the fixed 11.0.
type Security struct {
	QBER                 float64 `json:"qber"`
	ErrorsFound          int     `json:"errors_found"`
	BitsChecked          int     `json:"bits_checked"`
	IsSecure             bool    `json:"is_secure"`
	SecurityThreshold    float64 `json:"security_threshold"`
	EavesdropperDetected bool    `json:"eavesdropper_detected"`
}

// InformationTheory holds the entropy-derived metrics from one run.
type InformationTheory struct {
	MutualInformation float64 `json:"mutual_information"`
	SecureKeyRate     float64 `json:"secure_key_rate"`
	ExpectedFinalBits int     `json:"expected_final_bits"`
}

// Performance holds the aggregate efficiency score and its band.
type Performance struct {
	EfficiencyScore float64 `json:"efficiency_score"`
	Rating          Rating  `json:"rating"`
}

// A Summary is the complete derived statistics record for one run.
type Summary struct {
	Transmission      Transmission      `json:"transmission"`
	Security          Security          `json:"security"`
	InformationTheory InformationTheory `json:"information_theory"`
	Performance       Performance       `json:"performance"`
}

// Summarize derives the full statistics record from a run's raw counts.
func Summarize(transmitted, sifted, finalKeyLength, errors, checked int, eavesdropperPresent bool) Summary {
	siftEff := SiftingEfficiency(transmitted, sifted)
	qber := QBER(errors, checked)
	keyRate := KeyRate(finalKeyLength, transmitted)
	mutual := MutualInformation(qber)
	secureRate := SecureKeyRate(qber, siftEff)
	secure := IsSecure(qber)
	score := EfficiencyScore(siftEff, qber, keyRate)

	return Summary{
		Transmission: Transmission{
			TotalQubits:       transmitted,
			SiftedBits:        sifted,
			FinalKeyBits:      finalKeyLength,
			SiftingEfficiency: round(siftEff*100, 2),
			KeyGenerationRate: round(keyRate*100, 2),
		},
		Security: Security{
			QBER:                 round(qber*100, 4),
			ErrorsFound:          errors,
			BitsChecked:          checked,
			IsSecure:             secure,
			SecurityThreshold:    QBERThreshold * 100,
			EavesdropperDetected: eavesdropperPresent && !secure,
		},
		InformationTheory: InformationTheory{
			MutualInformation: round(mutual, 4),
			SecureKeyRate:     round(secureRate*100, 2),
			ExpectedFinalBits: int(float64(transmitted) * secureRate),
		},
		Performance: Performance{
			EfficiencyScore: round(score, 2),
			Rating:          RatingFor(score),
		},
	}
}

// Averages holds per-metric means across runs, in percent.
type Averages struct {
	SiftingEfficiency float64 `json:"sifting_efficiency"`
	QBER              float64 `json:"qber"`
	KeyGenerationRate float64 `json:"key_generation_rate"`
}

// SecuritySummary counts secure versus insecure runs.
type SecuritySummary struct {
	SecureRuns   int     `json:"secure_runs"`
	InsecureRuns int     `json:"insecure_runs"`
	SuccessRate  float64 `json:"success_rate"`
}

// A Comparison aggregates statistics across multiple protocol runs.
type Comparison struct {
	TotalRuns       int             `json:"total_runs"`
	Averages        Averages        `json:"averages"`
	SecuritySummary SecuritySummary `json:"security_summary"`
	BestRun         Summary         `json:"best_run"`
	WorstRun        Summary         `json:"worst_run"`
}

// CompareRuns averages the key metrics over the given run summaries and
// picks the best and worst run by efficiency score. An empty input yields
// the zero Comparison.
func CompareRuns(runs []Summary) Comparison {
	if len(runs) == 0 {
		return Comparison{}
	}

	siftEffs := make([]float64, len(runs))
	qbers := make([]float64, len(runs))
	keyRates := make([]float64, len(runs))
	secure := 0
	best, worst := 0, 0
	for i, r := range runs {
		siftEffs[i] = r.Transmission.SiftingEfficiency
		qbers[i] = r.Security.QBER
		keyRates[i] = r.Transmission.KeyGenerationRate
		if r.Security.IsSecure {
			secure++
		}
		if r.Performance.EfficiencyScore > runs[best].Performance.EfficiencyScore {
			best = i
		}
		if r.Performance.EfficiencyScore < runs[worst].Performance.EfficiencyScore {
			worst = i
		}
	}

	n := len(runs)
	return Comparison{
		TotalRuns: n,
		Averages: Averages{
			SiftingEfficiency: round(stat.Mean(siftEffs, nil), 2),
			QBER:              round(stat.Mean(qbers, nil), 4),
			KeyGenerationRate: round(stat.Mean(keyRates, nil), 2),
		},
		SecuritySummary: SecuritySummary{
			SecureRuns:   secure,
			InsecureRuns: n - secure,
			SuccessRate:  round(float64(secure)/float64(n)*100, 2),
		},
		BestRun:  runs[best],
		WorstRun: runs[worst],
	}
}

// A Trend describes the distribution of QBER values across a series of
// measurements. Percent-valued fields.
type Trend struct {
	Count         int     `json:"count"`
	AverageQBER   float64 `json:"average_qber"`
	MinQBER       float64 `json:"min_qber"`
	MaxQBER       float64 `json:"max_qber"`
	StdDeviation  float64 `json:"std_deviation"`
	SecureCount   int     `json:"secure_count"`
	InsecureCount int     `json:"insecure_count"`
	Stability     string  `json:"stability"`
}

// AnalyzeTrend summarizes a series of QBER fractions. A series is judged
// Stable when its population standard deviation is below 0.02.
func AnalyzeTrend(qbers []float64) Trend {
	if len(qbers) == 0 {
		return Trend{}
	}
	secure := 0
	for _, q := range qbers {
		if IsSecure(q) {
			secure++
		}
	}
	sd := stat.PopStdDev(qbers, nil)
	stability := "Stable"
	if sd >= 0.02 {
		stability = "Unstable"
	}
	return Trend{
		Count:         len(qbers),
		AverageQBER:   round(stat.Mean(qbers, nil)*100, 4),
		MinQBER:       round(floats.Min(qbers)*100, 4),
		MaxQBER:       round(floats.Max(qbers)*100, 4),
		StdDeviation:  round(sd*100, 4),
		SecureCount:   secure,
		InsecureCount: len(qbers) - secure,
		Stability:     stability,
	}
}

// round rounds v to the given number of decimal places, matching the
// precision the API reports values with.
func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
