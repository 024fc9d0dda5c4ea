package solver

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/AntoineSebert/scheduling-solver/internal/engine"
	"github.com/AntoineSebert/scheduling-solver/internal/model"
	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
)

func mustProblem(t *testing.T, arch model.Architecture, app model.Application) *model.Problem {
	t.Helper()
	p, err := model.New(arch, app)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}
	return p
}

func mustSolve(t *testing.T, p *model.Problem, opts Options) *schedule.Solution {
	t.Helper()
	sol, err := New(nil, nil, opts).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	return sol
}

// expectWellFormed checks the hard invariants every feasible schedule must
// satisfy: slices on one core never overlap, jobs start at or after their
// release, and every job finishes by its absolute deadline.
func expectWellFormed(t *testing.T, p *model.Problem, sol *schedule.Solution) {
	t.Helper()
	lastEnd := make(map[[2]int]int)
	for _, sl := range sol.Slices {
		key := [2]int{sl.CpuID, sl.CoreID}
		if sl.Start < lastEnd[key] {
			t.Errorf("slice %+v overlaps the previous slice on its core", sl)
		}
		lastEnd[key] = sl.End
	}
	for _, pl := range sol.Placements {
		task, ok := p.TaskByID(pl.TaskID)
		if !ok {
			t.Fatalf("placement references unknown task %d", pl.TaskID)
		}
		release := task.Offset + pl.JobIndex*task.Period
		if pl.Start < release {
			t.Errorf("task %d job %d starts at %d, before release %d", pl.TaskID, pl.JobIndex, pl.Start, release)
		}
		if pl.Finish > release+task.Deadline {
			t.Errorf("task %d job %d finishes at %d, after deadline %d", pl.TaskID, pl.JobIndex, pl.Finish, release+task.Deadline)
		}
	}
}

func TestSolve_Feasible(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}}}},
		model.Application{Tasks: []model.Task{
			{ID: 0, Name: "a", WCET: 3, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
			{ID: 1, Name: "b", WCET: 4, Period: 20, Deadline: 20, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
		}},
	)
	sol := mustSolve(t, p, Options{})
	if sol.Status != schedule.Feasible {
		t.Fatalf("expected feasible, got %s", sol.Status)
	}
	// Two releases of task 0 plus one of task 1 over the 20-unit hyperperiod.
	if len(sol.Placements) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(sol.Placements))
	}
	expectWellFormed(t, p, sol)
}

func TestSolve_InfeasibleOverload(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}}}},
		model.Application{Tasks: []model.Task{
			{ID: 0, Name: "a", WCET: 6, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
			{ID: 1, Name: "b", WCET: 5, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
			{ID: 2, Name: "c", WCET: 2, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
		}},
	)
	sol := mustSolve(t, p, Options{})
	if sol.Status != schedule.Infeasible {
		t.Fatalf("expected infeasible, got %s", sol.Status)
	}
	if len(sol.Placements) != 0 {
		t.Errorf("an infeasible solution must carry no placements, got %d", len(sol.Placements))
	}
}

func TestSolve_InfeasibleChainBudget(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}, {ID: 1, MacroTick: 1}}}},
		model.Application{
			Tasks: []model.Task{
				{ID: 0, Name: "a", WCET: 5, Period: 20, Deadline: 20, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
				{ID: 1, Name: "b", WCET: 5, Period: 20, Deadline: 20, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 1},
			},
			Chains: []model.Chain{
				{Name: "tight", Budget: 8, Priority: big.NewRat(1, 1), Runnables: []string{"a", "b"}},
			},
		},
	)
	if sol := mustSolve(t, p, Options{}); sol.Status != schedule.Infeasible {
		t.Fatalf("expected infeasible, got %s", sol.Status)
	}
}

func TestSolve_NoPreemptionSingleSlices(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: model.NoPreemption}}}},
		model.Application{Tasks: []model.Task{
			{ID: 0, Name: "tick", WCET: 1, Period: 5, Deadline: 5, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
			{ID: 1, Name: "bulk", WCET: 6, Period: 15, Deadline: 15, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
		}},
	)
	sol := mustSolve(t, p, Options{})
	if sol.Status != schedule.Feasible {
		t.Fatalf("expected feasible, got %s", sol.Status)
	}
	// Without preemption every job runs as one contiguous block.
	if len(sol.Slices) != len(sol.Placements) {
		t.Fatalf("expected one slice per job, got %d slices for %d jobs", len(sol.Slices), len(sol.Placements))
	}
	expectWellFormed(t, p, sol)
}

func TestSolve_ChainSpansReported(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}}}},
		model.Application{
			Tasks: []model.Task{
				{ID: 0, Name: "a", WCET: 2, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
				{ID: 1, Name: "b", WCET: 2, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
			},
			Chains: []model.Chain{
				{Name: "c", Budget: 10, Priority: big.NewRat(1, 1), Runnables: []string{"a", "b"}},
			},
		},
	)
	sol := mustSolve(t, p, Options{})
	if sol.Status != schedule.Feasible {
		t.Fatalf("expected feasible, got %s", sol.Status)
	}
	// a runs [0, 2), b runs [2, 4): the worst span is 4.
	if got := sol.ChainSpans["c"]; got != 4 {
		t.Errorf("expected chain span 4, got %d", got)
	}
}

func TestSolve_JitterBound(t *testing.T) {
	build := func(jitter int) *model.Problem {
		return mustProblem(t,
			model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}}}},
			model.Application{Tasks: []model.Task{
				{ID: 0, Name: "a", WCET: 2, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
				{ID: 1, Name: "b", WCET: 1, Period: 10, Deadline: 10, MaxJitter: jitter, CpuID: 0, CoreID: 0},
			}},
		)
	}

	// b is delayed to t=2 by a; a zero jitter bound forbids that, but a
	// failed simulation proves nothing, so the verdict is Unknown.
	if sol := mustSolve(t, build(0), Options{}); sol.Status != schedule.Unknown {
		t.Errorf("expected unknown under a zero jitter bound, got %s", sol.Status)
	}
	if sol := mustSolve(t, build(5), Options{}); sol.Status != schedule.Feasible {
		t.Errorf("expected feasible under a loose jitter bound, got %s", sol.Status)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	arch := model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}, {ID: 1, MacroTick: 1}}}}
	app := model.Application{
		Tasks: []model.Task{
			{ID: 0, Name: "a", WCET: 3, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: model.Unassigned},
			{ID: 1, Name: "b", WCET: 4, Period: 20, Deadline: 20, MaxJitter: model.Unassigned, CpuID: 0, CoreID: model.Unassigned},
			{ID: 2, Name: "c", WCET: 5, Period: 20, Deadline: 20, MaxJitter: model.Unassigned, CpuID: 0, CoreID: model.Unassigned},
		},
	}

	first := mustSolve(t, mustProblem(t, arch, app), Options{})
	second := mustSolve(t, mustProblem(t, arch, app), Options{})
	if first.Status != second.Status {
		t.Fatalf("statuses differ: %s vs %s", first.Status, second.Status)
	}
	if len(first.Placements) != len(second.Placements) {
		t.Fatalf("placement counts differ: %d vs %d", len(first.Placements), len(second.Placements))
	}
	for i := range first.Placements {
		if first.Placements[i] != second.Placements[i] {
			t.Errorf("placement %d differs: %+v vs %+v", i, first.Placements[i], second.Placements[i])
		}
	}
}

func TestBuildRequest_JitterWindow(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}}}},
		model.Application{Tasks: []model.Task{
			{ID: 0, Name: "a", WCET: 2, Period: 10, Deadline: 10, MaxJitter: 3, CpuID: 0, CoreID: 0},
		}},
	)
	req := buildRequest(p, Options{Policy: engine.PolicyMaximinSlack})
	if len(req.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(req.Jobs))
	}
	// min(deadline - wcet, release + jitter) = min(8, 3)
	if got := req.Jobs[0].LatestStart; got != 3 {
		t.Errorf("expected latest start 3, got %d", got)
	}
}

func TestBuildRequest_InducedPaths(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}}}},
		model.Application{
			Tasks: []model.Task{
				{ID: 0, Name: "fast", WCET: 1, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
				{ID: 1, Name: "slow", WCET: 1, Period: 20, Deadline: 20, MaxJitter: model.Unassigned, CpuID: 0, CoreID: 0},
			},
			Chains: []model.Chain{
				{Name: "c", Budget: 20, Priority: big.NewRat(1, 1), Runnables: []string{"fast", "slow"}},
			},
		},
	)
	req := buildRequest(p, Options{Policy: engine.PolicyMaximinSlack})
	if len(req.Chains) != 1 {
		t.Fatalf("expected 1 chain, got %d", len(req.Chains))
	}
	// The head released at 10 finds no slow job releasing at or after 10
	// inside the hyperperiod, so only the head at 0 induces a path.
	paths := req.Chains[0].Paths
	if len(paths) != 1 || len(paths[0]) != 2 {
		t.Fatalf("expected one complete 2-job path, got %v", paths)
	}
	if req.Jobs[paths[0][0]].Release != 0 || req.Jobs[paths[0][1]].Release != 0 {
		t.Errorf("expected both path jobs released at 0, got %v", paths)
	}
}

type stubEngine struct {
	out *engine.Outcome
	err error
}

func (s *stubEngine) Solve(context.Context, *engine.Request) (*engine.Outcome, error) {
	return s.out, s.err
}

func TestSolve_EngineFailure(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}, {ID: 1, MacroTick: 1}}}},
		model.Application{Tasks: []model.Task{
			{ID: 0, Name: "a", WCET: 2, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: model.Unassigned},
		}},
	)
	s := New(nil, &stubEngine{err: fmt.Errorf("backend gone")}, Options{})
	_, err := s.Solve(context.Background(), p)
	var fail *EngineFailure
	if !errors.As(err, &fail) {
		t.Fatalf("expected an EngineFailure, got %v", err)
	}
}

func TestSolve_UnknownVerdict(t *testing.T) {
	p := mustProblem(t,
		model.Architecture{{ID: 0, Cores: []model.Core{{ID: 0, MacroTick: 1}, {ID: 1, MacroTick: 1}}}},
		model.Application{Tasks: []model.Task{
			{ID: 0, Name: "a", WCET: 2, Period: 10, Deadline: 10, MaxJitter: model.Unassigned, CpuID: 0, CoreID: model.Unassigned},
		}},
	)
	s := New(nil, &stubEngine{out: &engine.Outcome{Verdict: engine.Unknown}}, Options{})
	sol, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != schedule.Unknown {
		t.Errorf("expected unknown, got %s", sol.Status)
	}
}
