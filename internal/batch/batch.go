// Package batch runs the same scenario across a range of seeds in
// parallel. Worlds are fully independent, so each run gets its own
// goroutine, world and metric set; results land in a pre-sized slice
// by index.
package batch

import (
	"context"
	"sync"

	"github.com/san-kum/shatter/internal/metrics"
	"github.com/san-kum/shatter/internal/scenario"
	"github.com/san-kum/shatter/internal/world"
)

// Run is the outcome of one seeded simulation.
type Run struct {
	Seed    int64
	Ticks   int
	Metrics map[string]float64
}

// Sweep describes a seed sweep: numRuns simulations of one scenario,
// seeded seedStart, seedStart+1, ...
type Sweep struct {
	build     scenario.Builder
	cfg       world.Config
	duration  float64
	seedStart int64
	numRuns   int
}

func NewSweep(build scenario.Builder, cfg world.Config, duration float64, seedStart int64, numRuns int) *Sweep {
	return &Sweep{
		build:     build,
		cfg:       cfg,
		duration:  duration,
		seedStart: seedStart,
		numRuns:   numRuns,
	}
}

// Run executes all seeds concurrently and returns the per-seed results
// in seed order. The first error (usually context cancellation) wins.
func (s *Sweep) Run(ctx context.Context) ([]Run, error) {
	results := make([]Run, s.numRuns)
	errs := make([]error, s.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < s.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = s.runOne(ctx, s.seedStart+int64(idx))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Sweep) runOne(ctx context.Context, seed int64) (Run, error) {
	w := s.build(s.cfg, seed)
	mset := metrics.Defaults()

	ticks := int(s.duration / s.cfg.StepDt)
	for i := 0; i < ticks; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return Run{}, err
			}
		}
		w.Step()
		for _, m := range mset {
			m.Observe(w)
		}
	}

	run := Run{Seed: seed, Ticks: ticks, Metrics: make(map[string]float64, len(mset))}
	for _, m := range mset {
		run.Metrics[m.Name()] = m.Value()
	}
	return run, nil
}

// Stat summarizes one metric across a sweep.
type Stat struct {
	Mean float64
	Min  float64
	Max  float64
}

// Aggregate reduces per-seed metric values to mean/min/max per metric.
func Aggregate(runs []Run) map[string]Stat {
	out := make(map[string]Stat)
	counts := make(map[string]int)
	for _, r := range runs {
		for name, v := range r.Metrics {
			s, seen := out[name]
			if !seen {
				s = Stat{Min: v, Max: v}
			}
			s.Mean += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
			out[name] = s
			counts[name]++
		}
	}
	for name, s := range out {
		s.Mean /= float64(counts[name])
		out[name] = s
	}
	return out
}
