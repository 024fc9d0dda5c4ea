package solver

import (
	"math/big"
	"sort"

	"github.com/AntoineSebert/scheduling-solver/internal/engine"
	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// buildRequest compiles the Problem into the engine's scheduling model:
// a flattened core table, per-task candidate core sets, per-job start
// windows, and per-chain induced job paths.
func buildRequest(p *model.Problem, opts Options) *engine.Request {
	req := &engine.Request{
		Horizon: p.Hyperperiod(),
		Policy:  opts.Policy,
		Limits:  engine.Limits{MaxNodes: opts.NodeLimit},
	}

	// Flattened core table, cpus then cores by ascending id.
	arch := make(model.Architecture, len(p.Architecture()))
	copy(arch, p.Architecture())
	sort.Slice(arch, func(i, j int) bool { return arch[i].ID < arch[j].ID })
	coreIdx := make(map[[2]int]int)
	cpuCores := make(map[int][]int) // cpu id -> core indexes
	for _, cpu := range arch {
		cores := make([]model.Core, len(cpu.Cores))
		copy(cores, cpu.Cores)
		sort.Slice(cores, func(i, j int) bool { return cores[i].ID < cores[j].ID })
		for _, core := range cores {
			idx := len(req.Cores)
			coreIdx[[2]int{cpu.ID, core.ID}] = idx
			cpuCores[cpu.ID] = append(cpuCores[cpu.ID], idx)
			req.Cores = append(req.Cores, engine.CoreSpec{
				CpuID:        cpu.ID,
				CoreID:       core.ID,
				MacroTick:    core.MacroTick,
				NoPreemption: core.MacroTick == model.NoPreemption,
			})
		}
	}

	taskIdx := make(map[int]int, len(p.Tasks()))
	for i, t := range p.Tasks() {
		var candidates []int
		if t.CoreID != model.Unassigned {
			candidates = []int{coreIdx[[2]int{t.CpuID, t.CoreID}]}
		} else {
			candidates = append(candidates, cpuCores[t.CpuID]...)
		}
		taskIdx[t.ID] = i
		req.Tasks = append(req.Tasks, engine.TaskSpec{
			ID:         t.ID,
			Name:       t.Name,
			WCET:       t.WCET,
			Period:     t.Period,
			Deadline:   t.Deadline,
			Candidates: candidates,
		})
	}

	// Jobs over one hyperperiod. The start window upper end folds the
	// jitter bound and the deadline together; MaxJitter -1 means only the
	// deadline binds.
	jobIdx := make(map[[2]int]int)
	jobsOf := make(map[int][]int) // task id -> job indexes, ascending release
	for _, j := range p.Jobs() {
		t, _ := p.TaskByID(j.TaskID)
		latest := j.AbsDeadline - t.WCET
		if t.MaxJitter != model.Unassigned && j.Release+t.MaxJitter < latest {
			latest = j.Release + t.MaxJitter
		}
		idx := len(req.Jobs)
		jobIdx[[2]int{j.TaskID, j.Index}] = idx
		jobsOf[j.TaskID] = append(jobsOf[j.TaskID], idx)
		req.Jobs = append(req.Jobs, engine.JobSpec{
			Task:        taskIdx[j.TaskID],
			Index:       j.Index,
			Release:     j.Release,
			LatestStart: latest,
			AbsDeadline: j.AbsDeadline,
		})
	}

	for _, c := range p.Chains() {
		req.Chains = append(req.Chains, engine.ChainSpec{
			Name:     c.Name,
			Budget:   c.Budget,
			Priority: new(big.Rat).Set(c.Priority),
			Paths:    inducedPaths(req, jobsOf, p.ChainOrder(c.Name)),
		})
	}

	return req
}

// inducedPaths expands a chain's task order into concrete job paths: one
// per head job, each downstream job being the one with the nearest
// non-earlier release than its upstream job. Paths running past the
// hyperperiod are skipped rather than wrapped.
func inducedPaths(req *engine.Request, jobsOf map[int][]int, order []int) [][]int {
	if len(order) == 0 {
		return nil
	}
	var paths [][]int
	for _, head := range jobsOf[order[0]] {
		path := []int{head}
		prevRelease := req.Jobs[head].Release
		complete := true
		for _, taskID := range order[1:] {
			next := -1
			for _, j := range jobsOf[taskID] {
				if req.Jobs[j].Release >= prevRelease {
					next = j
					break
				}
			}
			if next == -1 {
				complete = false
				break
			}
			path = append(path, next)
			prevRelease = req.Jobs[next].Release
		}
		if complete {
			paths = append(paths, path)
		}
	}
	return paths
}
