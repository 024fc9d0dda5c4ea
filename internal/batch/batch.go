// Package batch solves a collection of independent case pairs across a
// bounded worker pool. Every case owns its problem model and solution;
// workers share nothing mutable.
package batch

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/AntoineSebert/scheduling-solver/internal/loader"
	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
	"github.com/AntoineSebert/scheduling-solver/internal/solver"
)

// Case is one task/configuration file pair.
type Case struct {
	Name     string
	TaskFile string
	ConfFile string
}

// Result is the outcome of one case. Err covers load, validation and
// engine failures; Status is only meaningful when Err is nil.
type Result struct {
	Case    Case
	Status  schedule.Status
	Err     error
	Elapsed time.Duration
}

// Runner solves cases concurrently.
type Runner struct {
	Workers int
	Opts    solver.Options
	Log     hclog.Logger
}

// Run solves every case and returns results in input order. Cancellation
// of ctx stops dispatching new cases; in-flight solves observe the same
// context through the solver.
func (r *Runner) Run(ctx context.Context, cases []Case) []Result {
	log := r.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([]Result, len(cases))
	sem := make(chan struct{}, workers)
	done := make(chan int, len(cases))

	dispatched := 0
	for i, c := range cases {
		if ctx.Err() != nil {
			results[i] = Result{Case: c, Err: ctx.Err()}
			done <- i
			dispatched++
			continue
		}
		sem <- struct{}{}
		dispatched++
		go func(i int, c Case) {
			defer func() { <-sem; done <- i }()
			results[i] = r.solveOne(ctx, log, c)
		}(i, c)
	}

	for n := 0; n < dispatched; n++ {
		<-done
	}
	return results
}

func (r *Runner) solveOne(ctx context.Context, log hclog.Logger, c Case) Result {
	start := time.Now()
	log.Debug("solving case", "case", c.Name)

	problem, err := loader.Build(c.TaskFile, c.ConfFile)
	if err != nil {
		return Result{Case: c, Err: err, Elapsed: time.Since(start)}
	}

	s := solver.New(log.Named(c.Name), nil, r.Opts)
	sol, err := s.Solve(ctx, problem)
	if err != nil {
		return Result{Case: c, Err: err, Elapsed: time.Since(start)}
	}

	log.Info("case solved", "case", c.Name, "status", sol.Status.String(), "elapsed", time.Since(start))
	return Result{Case: c, Status: sol.Status, Elapsed: time.Since(start)}
}
