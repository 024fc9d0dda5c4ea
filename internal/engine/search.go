package engine

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// Search is the default Engine: branch-and-bound over core assignments
// with exact utilization pruning, each candidate timeline built by
// fixed-priority simulation. It is deliberately not a general-purpose
// constraint engine; any engine honoring the Request contract can replace
// it behind the Engine interface.
type Search struct {
	log hclog.Logger
}

// NewSearch creates a Search engine. A nil logger disables logging.
func NewSearch(log hclog.Logger) *Search {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Search{log: log}
}

var ratUnit = big.NewRat(1, 1)

type searchState struct {
	req  *Request
	prio []int // task index -> priority rank (deadline-monotonic)

	assign []int      // task index -> core index, -1 while undecided
	util   []*big.Rat // per-core utilization of the current branch

	nodes     int
	found     bool
	simFailed bool // some candidate failed simulation, so exhaustion proves nothing
	stopped   bool // budget ran out or first-feasible hit

	best      *Assignment
	bestScore score

	ctx context.Context
}

// Solve implements Engine.
func (s *Search) Solve(ctx context.Context, req *Request) (*Outcome, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	st := &searchState{
		req:    req,
		prio:   priorityRanks(req.Tasks),
		assign: make([]int, len(req.Tasks)),
		util:   make([]*big.Rat, len(req.Cores)),
		ctx:    ctx,
	}
	for i := range st.assign {
		st.assign[i] = -1
	}
	for i := range st.util {
		st.util[i] = new(big.Rat)
	}

	st.descend(0)

	out := &Outcome{Nodes: st.nodes, Best: st.best}
	switch {
	case st.found:
		out.Verdict = Feasible
		out.Reason = "satisfying assignment found"
	case st.stopped:
		out.Verdict = Unknown
		out.Reason = "search budget exhausted"
	case !st.simFailed:
		// Every branch died on an exact utilization certificate, so no
		// assignment at all can carry the load.
		out.Verdict = Infeasible
		out.Reason = "every core assignment exceeds unit utilization on some core"
	default:
		out.Verdict = Unknown
		out.Reason = "assignment space exhausted without proof of infeasibility"
	}
	s.log.Debug("search finished",
		"verdict", out.Verdict.String(), "nodes", out.Nodes, "reason", out.Reason)
	return out, nil
}

// descend assigns cores to tasks [i:) depth-first. The budget is checked
// on every visited node, not just at leaves: a subtree whose branches all
// die on the utilization prune must still respect the deadline.
func (st *searchState) descend(i int) {
	if st.stopped {
		return
	}
	if st.ctx.Err() != nil {
		st.stopped = true
		return
	}
	if max := st.req.Limits.MaxNodes; max > 0 && st.nodes >= max {
		st.stopped = true
		return
	}
	st.nodes++

	if i == len(st.req.Tasks) {
		st.evaluate()
		return
	}

	t := st.req.Tasks[i]
	share := big.NewRat(int64(t.WCET), int64(t.Period))
	for _, core := range t.Candidates {
		st.util[core].Add(st.util[core], share)
		if st.util[core].Cmp(ratUnit) <= 0 {
			st.assign[i] = core
			st.descend(i + 1)
			st.assign[i] = -1
		}
		st.util[core].Sub(st.util[core], share)
		if st.stopped {
			return
		}
	}
}

// evaluate simulates one complete assignment and scores it.
func (st *searchState) evaluate() {
	slices, startOf, finishOf, ok := st.buildTimeline()
	if !ok {
		st.simFailed = true
		return
	}

	spans, ok := chainSpans(st.req, finishOf)
	if !ok {
		st.simFailed = true
		return
	}

	sc := scoreOf(st.req, spans)
	if st.best == nil || sc.better(st.bestScore) {
		coreOf := make([]int, len(st.assign))
		copy(coreOf, st.assign)
		st.best = &Assignment{CoreOf: coreOf, Slices: slices, StartOf: startOf, FinishOf: finishOf, Spans: spans}
		st.bestScore = sc
	}
	st.found = true
	if st.req.Policy == PolicyFirstFeasible {
		st.stopped = true
	}
}

// buildTimeline simulates every core under the current assignment.
func (st *searchState) buildTimeline() (slices []Slice, startOf, finishOf []int, ok bool) {
	startOf = make([]int, len(st.req.Jobs))
	finishOf = make([]int, len(st.req.Jobs))

	perCore := make([][]*simJob, len(st.req.Cores))
	for jIdx, j := range st.req.Jobs {
		core := st.assign[j.Task]
		t := st.req.Tasks[j.Task]
		perCore[core] = append(perCore[core], &simJob{
			idx:      jIdx,
			release:  j.Release,
			latest:   j.LatestStart,
			deadline: j.AbsDeadline,
			wcet:     t.WCET,
			prio:     st.prio[j.Task],
		})
	}

	for core, jobs := range perCore {
		if len(jobs) == 0 {
			continue
		}
		coreSlices, violation := simulateCore(st.req.Cores[core], jobs)
		if violation != "" {
			return nil, nil, nil, false
		}
		slices = append(slices, coreSlices...)
		for _, j := range jobs {
			startOf[j.idx] = j.start
			finishOf[j.idx] = j.finish
		}
	}
	return slices, startOf, finishOf, true
}

// priorityRanks orders tasks deadline-monotonically (ascending deadline,
// then period, then id), which coincides with rate-monotonic order when
// deadlines equal periods.
func priorityRanks(tasks []TaskSpec) []int {
	idx := make([]int, len(tasks))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ta, tb := tasks[idx[a]], tasks[idx[b]]
		if ta.Deadline != tb.Deadline {
			return ta.Deadline < tb.Deadline
		}
		if ta.Period != tb.Period {
			return ta.Period < tb.Period
		}
		return ta.ID < tb.ID
	})
	ranks := make([]int, len(tasks))
	for rank, i := range idx {
		ranks[i] = rank
	}
	return ranks
}

func checkRequest(req *Request) error {
	if req.Horizon <= 0 {
		return fmt.Errorf("request horizon %d must be positive", req.Horizon)
	}
	if len(req.Cores) == 0 {
		return fmt.Errorf("request has no cores")
	}
	for _, t := range req.Tasks {
		if len(t.Candidates) == 0 {
			return fmt.Errorf("task %d has no candidate cores", t.ID)
		}
		for _, c := range t.Candidates {
			if c < 0 || c >= len(req.Cores) {
				return fmt.Errorf("task %d candidate core %d out of range", t.ID, c)
			}
		}
	}
	for _, j := range req.Jobs {
		if j.Task < 0 || j.Task >= len(req.Tasks) {
			return fmt.Errorf("job references task index %d out of range", j.Task)
		}
	}
	return nil
}
