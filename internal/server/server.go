// Package server exposes the BB84 simulation engine as a REST API: single
// and batched protocol execution, theoretical eavesdropper analysis, and
// protocol metadata.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/qubit"
	"github.com/qkdlab/bb84sim/bb84/stats"
	"github.com/qkdlab/bb84sim/internal/config"
	qerrors "github.com/qkdlab/bb84sim/internal/errors"
)

// detectionThreshold is the intercept rate at which the expected QBER of
// an intercept-resend attack crosses the 11% security threshold:
// 0.11 / 0.25.
const detectionThreshold = 0.44

// Server is the HTTP server for the BB84 simulation API.
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	tracer trace.Tracer
}

// New creates a Server with all routes registered.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		tracer: otel.Tracer("bb84sim/server"),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.withCORS(s.mux).ServeHTTP(w, r)
}

// routes registers all HTTP routes on the server mux.
func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/protocol/info", s.handleInfo)
	s.mux.HandleFunc("GET /api/security/threshold", s.handleThreshold)

	s.mux.HandleFunc("POST /api/protocol/execute", s.handleExecute)
	s.mux.HandleFunc("POST /api/protocol/batch", s.handleBatch)
	s.mux.HandleFunc("POST /api/analyze/eavesdropper", s.handleAnalyze)

	s.mux.HandleFunc("GET /api/protocol/stream", s.handleStream)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "bb84sim",
		Backend:   s.cfg.Backend,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.normalize(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, span := s.tracer.Start(r.Context(), "bb84.execute",
		trace.WithAttributes(
			attribute.Int("bb84.key_length", req.KeyLength),
			attribute.Int("bb84.transmission_multiplier", req.TransmissionMultiplier),
			attribute.Bool("bb84.with_eavesdropper", req.WithEavesdropper),
		))
	defer span.End()

	resp, err := s.runOnce(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(w, statusFor(err), err.Error())
		return
	}
	span.SetAttributes(
		attribute.Float64("bb84.qber", resp.Security.QBER),
		attribute.Bool("bb84.secure", resp.Security.IsSecure),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validateBatch(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "bb84.batch",
		trace.WithAttributes(attribute.Int("bb84.runs", req.Runs)))
	defer span.End()

	resp := s.executeBatch(ctx, req, nil)
	span.SetAttributes(
		attribute.Int("bb84.successful_runs", resp.SuccessfulRuns),
		attribute.Int("bb84.failed_runs", resp.FailedRuns),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.InterceptRates) == 0 {
		writeError(w, http.StatusBadRequest, "intercept_rates must be non-empty")
		return
	}
	for _, rate := range req.InterceptRates {
		if rate < 0 || rate > 1 {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("intercept rate %v outside [0, 1]", rate))
			return
		}
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis:           analyzeRates(req.InterceptRates),
		DetectionThreshold: detectionThreshold,
		Summary: fmt.Sprintf(
			"Analyzed %d intercept rates. Eavesdropping is detectable when the intercept rate exceeds %.0f%% (expected QBER above %.0f%%).",
			len(req.InterceptRates), detectionThreshold*100, stats.QBERThreshold*100),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Protocol:    "BB84",
		Description: "Simulated BB84 quantum key distribution with an optional intercept-resend eavesdropper.",
		Steps: []string{
			"Alice prepares qubits in random bases",
			"Quantum transmission (optional eavesdropper)",
			"Bob measures in random bases",
			"Basis sifting",
			"Error estimation",
			"Privacy amplification",
		},
		Parameters: map[string]string{
			"key_length":                  fmt.Sprintf("desired final key length in bits (%d-%d)", minKeyLength, maxKeyLength),
			"transmission_multiplier":     fmt.Sprintf("transmission overhead factor (%d-%d)", minMultiplier, maxMultiplier),
			"with_eavesdropper":           "simulate an intercept-resend attacker",
			"eavesdropper_intercept_rate": "fraction of qubits Eve intercepts (0.0-1.0)",
			"backend":                     "qubit implementation: simulated or circuit",
		},
		Backends:  []string{"simulated", "circuit"},
		Threshold: stats.QBERThreshold * 100,
	})
}

func (s *Server) handleThreshold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThresholdResponse{
		Threshold: stats.QBERThreshold * 100,
		Explanation: "A QBER above 11% indicates the channel is compromised: an " +
			"intercept-resend attack on every qubit induces an expected QBER of 25%, " +
			"so interception beyond 44% of the traffic is statistically detectable.",
		Examples: analyzeRates([]float64{0, 0.2, 0.4, 0.5, 0.6, 0.8, 1}),
	})
}

// runOnce executes a single protocol run for an already-normalized
// request and packages the full API response.
func (s *Server) runOnce(req ExecuteRequest) (ExecuteResponse, error) {
	start := time.Now()

	factory, version, err := backendFor(req.Backend)
	if err != nil {
		return ExecuteResponse{}, err
	}
	p, err := bb84.New(bb84.Options{
		KeyLength:              req.KeyLength,
		TransmissionMultiplier: req.TransmissionMultiplier,
		Rand:                   rand.New(rand.NewSource(rand.Int63())),
		NewState:               factory,
	})
	if err != nil {
		return ExecuteResponse{}, err
	}
	res, err := p.Execute(req.WithEavesdropper, *req.EavesdropperInterceptRate)
	if err != nil {
		return ExecuteResponse{}, err
	}

	sum := stats.Summarize(res.TotalTransmitted, res.TotalSifted, res.FinalKeyLength,
		res.ErrorsFound, res.SampleSize, res.EavesdropperPresent)

	return ExecuteResponse{
		Success: true,
		RunID:   uuid.New().String(),
		Key: KeyData{
			Binary:  res.FinalKey.String(),
			Hex:     res.FinalKey.Hex(),
			Base64:  res.FinalKey.Base64(),
			Length:  res.FinalKeyLength,
			Quality: res.FinalKey.Quality(),
		},
		Transmission:      sum.Transmission,
		Security:          sum.Security,
		InformationTheory: sum.InformationTheory,
		Performance:       sum.Performance,
		Eavesdropper:      res.EavesdropperStats,
		ExecutionTimeMs:   float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:         time.Now().UTC(),
		ProtocolVersion:   version,
	}, nil
}

// normalize fills omitted fields from the server defaults and enforces
// the API bounds, which are narrower than the engine's own invariants.
func (s *Server) normalize(req *ExecuteRequest) error {
	if req.KeyLength == 0 {
		req.KeyLength = s.cfg.Protocol.KeyLength
	}
	if req.TransmissionMultiplier == 0 {
		req.TransmissionMultiplier = s.cfg.Protocol.TransmissionMultiplier
	}
	if req.EavesdropperInterceptRate == nil {
		rate := s.cfg.Protocol.InterceptRate
		req.EavesdropperInterceptRate = &rate
	}
	if req.Backend == "" {
		req.Backend = s.cfg.Backend
	}

	if req.KeyLength < minKeyLength || req.KeyLength > maxKeyLength {
		return qerrors.InvalidParameterf("key_length %d outside [%d, %d]", req.KeyLength, minKeyLength, maxKeyLength)
	}
	if req.TransmissionMultiplier < minMultiplier || req.TransmissionMultiplier > maxMultiplier {
		return qerrors.InvalidParameterf("transmission_multiplier %d outside [%d, %d]", req.TransmissionMultiplier, minMultiplier, maxMultiplier)
	}
	if rate := *req.EavesdropperInterceptRate; rate < 0 || rate > 1 {
		return qerrors.InvalidParameterf("eavesdropper_intercept_rate %v outside [0, 1]", rate)
	}
	if _, _, err := backendFor(req.Backend); err != nil {
		return err
	}
	return nil
}

func (s *Server) validateBatch(req *BatchRequest) error {
	maxRuns := s.cfg.Batch.MaxRuns
	if req.Runs < 1 || req.Runs > maxRuns {
		return qerrors.InvalidParameterf("runs %d outside [1, %d]", req.Runs, maxRuns)
	}
	return s.normalize(&req.Config)
}

// backendFor resolves a backend name to its qubit factory and the
// protocol version string reported in responses.
func backendFor(name string) (qubit.Factory, string, error) {
	switch name {
	case "", "simulated":
		return qubit.Simulated, "BB84-Simulated", nil
	case "circuit":
		return qubit.Circuit, "BB84-Circuit", nil
	}
	return nil, "", qerrors.InvalidParameterf("backend %q", name)
}

// analyzeRates builds the expected-QBER table for a set of intercept
// rates.
func analyzeRates(rates []float64) []AnalyzeRow {
	rows := make([]AnalyzeRow, len(rates))
	for i, rate := range rates {
		expected := stats.ExpectedQBER(rate)
		secure := stats.IsSecure(expected)
		status := "Secure"
		if !secure {
			status = "Detected"
		}
		rows[i] = AnalyzeRow{
			InterceptRate: rate * 100,
			ExpectedQBER:  expected * 100,
			IsSecure:      secure,
			Status:        status,
		}
	}
	return rows
}

// statusFor maps engine errors to HTTP status codes: configuration
// mistakes are the caller's fault, everything else is unexpected.
func statusFor(err error) int {
	if errors.Is(err, qerrors.ErrInvalidParameter) || errors.Is(err, qerrors.ErrLengthMismatch) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code and
// message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
