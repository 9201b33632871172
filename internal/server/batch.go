package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/qkdlab/bb84sim/bb84/stats"
)

// runOutcome carries one run's result out of the worker pool.
type runOutcome struct {
	resp ExecuteResponse
	ok   bool
}

// executeBatch runs req.Runs independent protocol executions across a
// bounded worker pool. Runs are embarrassingly parallel: a failed or
// panicking run is counted and skipped without affecting its siblings.
// If emit is non-nil it is called once per successful run, in completion
// order, before the aggregate response is built.
func (s *Server) executeBatch(ctx context.Context, req BatchRequest, emit func(ExecuteResponse)) BatchResponse {
	start := time.Now()

	workers := s.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > req.Runs {
		workers = req.Runs
	}

	jobs := make(chan struct{})
	outcomes := make(chan runOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				outcomes <- s.safeRun(req.Config)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := 0; i < req.Runs; i++ {
			select {
			case jobs <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		results   []ExecuteResponse
		summaries []stats.Summary
	)
	for o := range outcomes {
		if !o.ok {
			continue
		}
		results = append(results, o.resp)
		summaries = append(summaries, stats.Summary{
			Transmission:      o.resp.Transmission,
			Security:          o.resp.Security,
			InformationTheory: o.resp.InformationTheory,
			Performance:       o.resp.Performance,
		})
		if emit != nil {
			emit(o.resp)
		}
	}

	resp := BatchResponse{
		TotalRuns:       req.Runs,
		SuccessfulRuns:  len(results),
		FailedRuns:      req.Runs - len(results),
		Results:         results,
		ExecutionTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if len(summaries) > 0 {
		cmp := stats.CompareRuns(summaries)
		resp.Summary = &cmp
	}
	return resp
}

// safeRun executes one protocol run, converting panics and errors into a
// counted failure.
func (s *Server) safeRun(cfg ExecuteRequest) (out runOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[batch] run panicked: %v", r)
			out = runOutcome{}
		}
	}()
	resp, err := s.runOnce(cfg)
	if err != nil {
		log.Printf("[batch] run failed: %v", err)
		return runOutcome{}
	}
	return runOutcome{resp: resp, ok: true}
}
