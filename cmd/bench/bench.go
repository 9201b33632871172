// bench.go runs the BB84 simulation for each entry in the cartesian
// product of a collection of tuning parameters, e.g. key length and
// eavesdropper intercept rate, and outputs a CSV of averaged statistics
// for each combination, e.g. mean QBER and secure-run count.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"text/template"

	flag "github.com/spf13/pflag"

	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/stats"
)

var (
	keyLengths = flag.IntSlice("key-lengths", []int{256},
		"The final key lengths, in bits, to sweep over.")
	interceptRates = flag.Float64Slice("intercept-rates", []float64{0, 0.25, 0.5, 1.0},
		"The eavesdropper intercept rates to sweep over. 0 disables the eavesdropper.")
	multiplier = flag.Int("multiplier", 4,
		"The transmission multiplier applied to every key length.")
	runs = flag.Int("runs", 25,
		"Protocol runs to average per parameter combination.")
	seed = flag.Int64("seed", 42,
		"Seed for the simulation's randomness source.")
)

const (
	header   = "KeyLength, InterceptRate, AvgQBER, AvgSiftingEff, AvgKeyBits, SecureRuns, Runs"
	lineTmpl = "{{.KeyLength}}, {{.InterceptRate}}, {{printf \"%.4f\" .AvgQBER}}, {{printf \"%.4f\" .AvgSiftingEff}}, {{printf \"%.1f\" .AvgKeyBits}}, {{.SecureRuns}}, {{.Runs}}\n"
)

// A Result packages together the averaged outcome of benchmarking a
// single parameterization for easy formatting.
type Result struct {
	KeyLength     int
	InterceptRate float64
	AvgQBER       float64
	AvgSiftingEff float64
	AvgKeyBits    float64
	SecureRuns    int
	Runs          int
}

func main() {
	flag.Parse()
	fmt.Println(header)
	tmpl := template.Must(template.New("line").Parse(lineTmpl))
	rng := rand.New(rand.NewSource(*seed))
	for _, kl := range *keyLengths {
		for _, rate := range *interceptRates {
			r, err := bench(kl, rate, rng)
			if err != nil {
				log.Fatalf("Benching (keyLength: %d, rate: %f): %v", kl, rate, err)
			}
			tmpl.Execute(os.Stdout, r)
		}
	}
}

func bench(keyLength int, rate float64, rng *rand.Rand) (Result, error) {
	p, err := bb84.New(bb84.Options{
		KeyLength:              keyLength,
		TransmissionMultiplier: *multiplier,
		Rand:                   rng,
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{KeyLength: keyLength, InterceptRate: rate, Runs: *runs}
	var qberSum, siftSum, keySum float64
	for i := 0; i < *runs; i++ {
		out, err := p.Execute(rate > 0, rate)
		if err != nil {
			return Result{}, err
		}
		qberSum += out.ErrorRate
		siftSum += stats.SiftingEfficiency(out.TotalTransmitted, out.TotalSifted)
		keySum += float64(out.FinalKeyLength)
		if out.IsSecure {
			res.SecureRuns++
		}
	}
	res.AvgQBER = qberSum / float64(*runs)
	res.AvgSiftingEff = siftSum / float64(*runs)
	res.AvgKeyBits = keySum / float64(*runs)
	return res, nil
}
