package server

import (
	"time"

	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/bitstring"
	"github.com/qkdlab/bb84sim/bb84/stats"
)

// Request bounds enforced at the API boundary. The engine itself only
// requires a positive key length and a multiplier of at least 2.
const (
	minKeyLength  = 64
	maxKeyLength  = 1024
	minMultiplier = 2
	maxMultiplier = 10
)

// ExecuteRequest configures a single protocol run. Omitted fields take
// the server's configured defaults.
type ExecuteRequest struct {
	KeyLength                 int      `json:"key_length,omitempty"`
	TransmissionMultiplier    int      `json:"transmission_multiplier,omitempty"`
	WithEavesdropper          bool     `json:"with_eavesdropper"`
	EavesdropperInterceptRate *float64 `json:"eavesdropper_intercept_rate,omitempty"`
	Backend                   string   `json:"backend,omitempty"`
}

// KeyData is the final key in every representation the API exposes.
type KeyData struct {
	Binary  string            `json:"binary"`
	Hex     string            `json:"hex"`
	Base64  string            `json:"base64"`
	Length  int               `json:"length"`
	Quality bitstring.Quality `json:"quality"`
}

// ExecuteResponse is the complete result of one protocol run.
type ExecuteResponse struct {
	Success           bool                    `json:"success"`
	RunID             string                  `json:"run_id"`
	Key               KeyData                 `json:"key"`
	Transmission      stats.Transmission      `json:"transmission"`
	Security          stats.Security          `json:"security"`
	InformationTheory stats.InformationTheory `json:"information_theory"`
	Performance       stats.Performance       `json:"performance"`
	Eavesdropper      *bb84.EveStats          `json:"eavesdropper,omitempty"`
	ExecutionTimeMs   float64                 `json:"execution_time_ms"`
	Timestamp         time.Time               `json:"timestamp"`
	ProtocolVersion   string                  `json:"protocol_version"`
}

// BatchRequest asks for the same configuration to be run several times.
type BatchRequest struct {
	Config ExecuteRequest `json:"config"`
	Runs   int            `json:"runs"`
}

// BatchResponse aggregates a batch of runs. Failed runs are counted, not
// propagated.
type BatchResponse struct {
	TotalRuns       int               `json:"total_runs"`
	SuccessfulRuns  int               `json:"successful_runs"`
	FailedRuns      int               `json:"failed_runs"`
	Results         []ExecuteResponse `json:"results"`
	Summary         *stats.Comparison `json:"summary,omitempty"`
	ExecutionTimeMs float64           `json:"execution_time_ms"`
}

// AnalyzeRequest asks for the theoretical impact of a set of eavesdropper
// intercept rates.
type AnalyzeRequest struct {
	InterceptRates []float64 `json:"intercept_rates"`
}

// AnalyzeRow is one intercept-rate scenario. Rates are percentages.
type AnalyzeRow struct {
	InterceptRate float64 `json:"intercept_rate"`
	ExpectedQBER  float64 `json:"expected_qber"`
	IsSecure      bool    `json:"is_secure"`
	Status        string  `json:"status"`
}

// AnalyzeResponse is the theoretical eavesdropper analysis.
type AnalyzeResponse struct {
	Analysis           []AnalyzeRow `json:"analysis"`
	DetectionThreshold float64      `json:"detection_threshold"`
	Summary            string       `json:"summary"`
}

// InfoResponse describes the protocol and its configurable parameters.
type InfoResponse struct {
	Protocol    string            `json:"protocol"`
	Description string            `json:"description"`
	Steps       []string          `json:"steps"`
	Parameters  map[string]string `json:"parameters"`
	Backends    []string          `json:"backends"`
	Threshold   float64           `json:"qber_threshold"`
}

// ThresholdResponse explains the QBER security threshold.
type ThresholdResponse struct {
	Threshold   float64      `json:"threshold"`
	Explanation string       `json:"explanation"`
	Examples    []AnalyzeRow `json:"examples"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Backend   string    `json:"backend"`
	Timestamp time.Time `json:"timestamp"`
}
