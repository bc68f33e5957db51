package backtest

import (
	"strings"
	"testing"
)

// newSweepConfig returns a sweep over the fast period of a crossover run
// against the 20-bar rising market.
func newSweepConfig() *SweepConfig {
	return &SweepConfig{
		Run: RunConfig{
			Title:   "acme",
			Base:    "USD",
			Symbol:  "ACME",
			Initial: map[string]float64{"USD": 1000},
			Strategy: StrategyConfig{
				Name:   "sma-cross",
				Params: map[string]float64{"slow": 5},
			},
		},
		Grid: map[string][]float64{"fast": {2, 3, 4}},
	}
}

func TestRunSweep(t *testing.T) {
	market := newTrendingMarket(t)
	cfg := newSweepConfig()
	jobs, err := cfg.Jobs()
	if err != nil {
		t.Fatalf("Jobs() failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("Jobs() expanded to %d jobs, want 3", len(jobs))
	}

	results := RunSweep(market, jobs, 2)
	if len(results) != len(jobs) {
		t.Fatalf("RunSweep() returned %d results, want %d", len(results), len(jobs))
	}
	for i, res := range results {
		if res.Name != jobs[i].Name {
			t.Errorf("results[%d].Name = %q, want %q (job order preserved)", i, res.Name, jobs[i].Name)
		}
		if res.Err != nil {
			t.Errorf("job %q failed: %v", res.Name, res.Err)
			continue
		}
		if res.Report == nil {
			t.Errorf("job %q has no report", res.Name)
			continue
		}
		if res.Report.Title != res.Name {
			t.Errorf("report title = %q, want %q", res.Report.Title, res.Name)
		}
	}
}

func TestRunSweep_SerialMatchesParallel(t *testing.T) {
	market := newTrendingMarket(t)
	cfg := newSweepConfig()
	jobs, err := cfg.Jobs()
	if err != nil {
		t.Fatalf("Jobs() failed: %v", err)
	}
	serial := RunSweep(market, jobs, 1)
	parallel := RunSweep(market, jobs, 8)
	for i := range jobs {
		if serial[i].Err != nil || parallel[i].Err != nil {
			t.Fatalf("job %q failed: serial %v, parallel %v", jobs[i].Name, serial[i].Err, parallel[i].Err)
		}
		a, b := serial[i].Report.FinalValue, parallel[i].Report.FinalValue
		if a.String() != b.String() {
			t.Errorf("job %q final value differs: serial %s, parallel %s", jobs[i].Name, a, b)
		}
	}
}

func TestRunSweep_ErrorIsolation(t *testing.T) {
	market := newTrendingMarket(t)
	cfg := newSweepConfig()
	jobs, err := cfg.Jobs()
	if err != nil {
		t.Fatalf("Jobs() failed: %v", err)
	}
	// Sabotage the middle job: a crossover with fast >= slow fails its
	// strategy init.
	jobs[1].Config.Strategy.Params["slow"] = 1

	results := RunSweep(market, jobs, 2)
	if results[1].Err == nil {
		t.Error("sabotaged job should report an error")
	}
	if !strings.Contains(results[1].Err.Error(), "sma cross") {
		t.Errorf("sabotaged job error = %v, want a strategy init failure", results[1].Err)
	}
	for _, i := range []int{0, 2} {
		if results[i].Err != nil {
			t.Errorf("job %q should be unaffected, got: %v", results[i].Name, results[i].Err)
		}
	}
}

func TestRunSweep_NoJobs(t *testing.T) {
	market := newTrendingMarket(t)
	if results := RunSweep(market, nil, 4); len(results) != 0 {
		t.Errorf("RunSweep() with no jobs returned %d results", len(results))
	}
}
