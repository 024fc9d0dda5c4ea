package solver

import (
	"github.com/AntoineSebert/scheduling-solver/internal/engine"
	"github.com/AntoineSebert/scheduling-solver/internal/model"
	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
)

// extract translates the engine's variable assignment into the schedule
// table handed to external reporting: one placement per job plus the
// execution slices, ordered by core then start time.
func extract(p *model.Problem, req *engine.Request, out *engine.Outcome) *schedule.Solution {
	sol := &schedule.Solution{
		Status:      statusOf(out.Verdict),
		Hyperperiod: p.Hyperperiod(),
	}
	if out.Best == nil {
		return sol
	}

	best := out.Best
	for jIdx, j := range req.Jobs {
		task := req.Tasks[j.Task]
		core := req.Cores[best.CoreOf[j.Task]]
		sol.Placements = append(sol.Placements, schedule.Placement{
			TaskID:   task.ID,
			JobIndex: j.Index,
			CpuID:    core.CpuID,
			CoreID:   core.CoreID,
			Start:    best.StartOf[jIdx],
			Finish:   best.FinishOf[jIdx],
		})
	}
	for _, sl := range best.Slices {
		j := req.Jobs[sl.Job]
		task := req.Tasks[j.Task]
		core := req.Cores[best.CoreOf[j.Task]]
		sol.Slices = append(sol.Slices, schedule.Slice{
			TaskID:   task.ID,
			JobIndex: j.Index,
			CpuID:    core.CpuID,
			CoreID:   core.CoreID,
			Start:    sl.Start,
			End:      sl.End,
		})
	}
	if len(best.Spans) > 0 {
		sol.ChainSpans = make(map[string]int, len(best.Spans))
		for name, span := range best.Spans {
			sol.ChainSpans[name] = span
		}
	}
	sol.Sort()
	return sol
}

func statusOf(v engine.Verdict) schedule.Status {
	switch v {
	case engine.Feasible:
		return schedule.Feasible
	case engine.Infeasible:
		return schedule.Infeasible
	}
	return schedule.Unknown
}
