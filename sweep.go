package backtest

import (
	"fmt"
	"sort"
	"sync"
)

// Job is one independent simulation of a sweep. Each job owns its portfolio
// and strategy exclusively; only the market data is shared, read-only.
type Job struct {
	Name   string
	Config *RunConfig
}

// JobResult carries the outcome of a single job. A failed job reports its
// error here; it never aborts the rest of the batch.
type JobResult struct {
	Name   string
	Report *RunReport
	Err    error
}

// Jobs expands the sweep's parameter grid into the list of jobs, one per
// combination, in a deterministic order.
func (c *SweepConfig) Jobs() ([]Job, error) {
	params := make([]string, 0, len(c.Grid))
	for name := range c.Grid {
		if len(c.Grid[name]) == 0 {
			return nil, fmt.Errorf("sweep grid parameter %q has no values", name)
		}
		params = append(params, name)
	}
	sort.Strings(params)

	combos := []map[string]float64{{}}
	for _, name := range params {
		var next []map[string]float64
		for _, combo := range combos {
			for _, v := range c.Grid[name] {
				grown := make(map[string]float64, len(combo)+1)
				for k, kv := range combo {
					grown[k] = kv
				}
				grown[name] = v
				next = append(next, grown)
			}
		}
		combos = next
	}

	out := make([]Job, 0, len(combos))
	for _, combo := range combos {
		cfg := c.Run // shallow copy, maps below are replaced not mutated
		merged := make(map[string]float64, len(c.Run.Strategy.Params)+len(combo))
		for k, v := range c.Run.Strategy.Params {
			merged[k] = v
		}
		name := cfg.Title
		for _, pname := range params {
			merged[pname] = combo[pname]
			name = fmt.Sprintf("%s %s=%v", name, pname, combo[pname])
		}
		cfg.Strategy.Params = merged
		cfg.Title = name
		out = append(out, Job{Name: name, Config: &cfg})
	}
	return out, nil
}

// RunSweep runs every job against the shared, read-only market data, at most
// 'workers' at a time, and returns one result per job in job order.
//
// Cancellation and timeouts belong to the caller; a sweep simply stops
// dispatching once its job list is consumed.
func RunSweep(market *MarketData, jobs []Job, workers int) []JobResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	results := make([]JobResult, len(jobs))
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = runJob(market, jobs[i])
			}
		}()
	}
	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}

// runJob runs one simulation end to end, capturing the error instead of
// propagating it.
func runJob(market *MarketData, job Job) JobResult {
	res := JobResult{Name: job.Name}
	p, err := job.Config.NewPortfolio(market)
	if err != nil {
		res.Err = err
		return res
	}
	s, err := job.Config.NewStrategyFor()
	if err != nil {
		res.Err = err
		return res
	}
	if err := p.Run(s); err != nil {
		res.Err = err
		return res
	}
	res.Report, res.Err = NewRunReport(p)
	return res
}
