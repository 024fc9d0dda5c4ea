// Package solver compiles a validated Problem into a scheduling model,
// hands it to a constraint engine under a caller-supplied budget, and
// extracts the resulting schedule table.
package solver

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/AntoineSebert/scheduling-solver/internal/analyzer"
	"github.com/AntoineSebert/scheduling-solver/internal/engine"
	"github.com/AntoineSebert/scheduling-solver/internal/model"
	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
)

// Options bounds one solve attempt.
type Options struct {
	TimeLimit time.Duration // zero = no wall-clock limit
	NodeLimit int           // zero = no node limit
	Policy    engine.Policy
}

// EngineFailure wraps an error from the search engine itself. It is
// fatal and distinct from an Infeasible verdict.
type EngineFailure struct {
	Err error
}

func (e *EngineFailure) Error() string { return "engine failure: " + e.Err.Error() }

func (e *EngineFailure) Unwrap() error { return e.Err }

// Solver runs the feasibility pre-check and the full constraint search.
type Solver struct {
	log  hclog.Logger
	eng  engine.Engine
	opts Options
}

// New creates a Solver. A nil engine selects the default search engine; a
// nil logger disables logging.
func New(log hclog.Logger, eng engine.Engine, opts Options) *Solver {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if eng == nil {
		eng = engine.NewSearch(log.Named("engine"))
	}
	if opts.Policy == "" {
		opts.Policy = engine.PolicyMaximinSlack
	}
	return &Solver{log: log, eng: eng, opts: opts}
}

// Solve computes a schedule for the problem. Infeasible and Unknown are
// reported through the Solution status; an error means the engine failed.
func (s *Solver) Solve(ctx context.Context, p *model.Problem) (*schedule.Solution, error) {
	pre := analyzer.Precheck(p)
	s.log.Debug("pre-check", "verdict", pre.Verdict.String(), "reason", pre.Reason)
	if pre.Verdict == analyzer.Reject {
		s.log.Info("problem rejected before search", "reason", pre.Reason)
		return &schedule.Solution{Status: schedule.Infeasible, Hyperperiod: p.Hyperperiod()}, nil
	}

	req := buildRequest(p, s.opts)

	if s.opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TimeLimit)
		defer cancel()
	}

	start := time.Now()
	out, err := s.eng.Solve(ctx, req)
	if err != nil {
		return nil, &EngineFailure{Err: err}
	}
	s.log.Info("search done",
		"verdict", out.Verdict.String(), "nodes", out.Nodes, "elapsed", time.Since(start))

	return extract(p, req, out), nil
}
