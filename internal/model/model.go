package model

import (
	"math/big"
	"sort"
)

// Problem is the validated, immutable scheduling problem. Build one with
// New; accessors never mutate it, and derived data (jobs) is regenerated
// on demand rather than cached mutably.
type Problem struct {
	arch   Architecture
	tasks  []Task
	chains []Chain

	byID        map[int]int      // task id -> index into tasks
	byName      map[string]int   // task name -> index into tasks
	chainTasks  map[string][]int // chain name -> task ids in topological order
	hyperperiod int
}

// New validates the architecture and application and constructs a Problem.
// Invalid input is rejected with a *ValidationError listing every violated
// invariant; nothing is silently repaired.
func New(arch Architecture, app Application) (*Problem, error) {
	p := &Problem{
		byID:       make(map[int]int, len(app.Tasks)),
		byName:     make(map[string]int, len(app.Tasks)),
		chainTasks: make(map[string][]int, len(app.Chains)),
	}

	// Defensive copies so later mutation of the caller's slices cannot
	// reach into the snapshot.
	p.arch = make(Architecture, len(arch))
	copy(p.arch, arch)
	for i := range p.arch {
		cores := make([]Core, len(arch[i].Cores))
		copy(cores, arch[i].Cores)
		p.arch[i].Cores = cores
	}
	p.tasks = make([]Task, len(app.Tasks))
	copy(p.tasks, app.Tasks)
	p.chains = make([]Chain, len(app.Chains))
	copy(p.chains, app.Chains)

	if err := p.validate(); err != nil {
		return nil, err
	}

	p.hyperperiod = 1
	for _, t := range p.tasks {
		p.hyperperiod = lcm(p.hyperperiod, t.Period)
	}

	return p, nil
}

// Architecture returns the platform description.
func (p *Problem) Architecture() Architecture { return p.arch }

// Tasks returns all tasks in input order.
func (p *Problem) Tasks() []Task { return p.tasks }

// Chains returns all chains in input order.
func (p *Problem) Chains() []Chain { return p.chains }

// Hyperperiod is the least common multiple of all task periods.
func (p *Problem) Hyperperiod() int { return p.hyperperiod }

// TaskByID returns the task with the given id.
func (p *Problem) TaskByID(id int) (Task, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Task{}, false
	}
	return p.tasks[i], true
}

// TaskByName returns the task with the given name.
func (p *Problem) TaskByName(name string) (Task, bool) {
	i, ok := p.byName[name]
	if !ok {
		return Task{}, false
	}
	return p.tasks[i], true
}

// Cpu returns the cpu with the given id.
func (p *Problem) Cpu(id int) (Cpu, bool) {
	for _, c := range p.arch {
		if c.ID == id {
			return c, true
		}
	}
	return Cpu{}, false
}

// TasksOnCpu returns the tasks assigned to the given cpu.
func (p *Problem) TasksOnCpu(cpuID int) []Task {
	var out []Task
	for _, t := range p.tasks {
		if t.CpuID == cpuID {
			out = append(out, t)
		}
	}
	return out
}

// TasksByCore returns the tasks pinned to one core. Tasks with an
// unassigned core are not included.
func (p *Problem) TasksByCore(cpuID, coreID int) []Task {
	var out []Task
	for _, t := range p.tasks {
		if t.CpuID == cpuID && t.CoreID == coreID {
			out = append(out, t)
		}
	}
	return out
}

// ChainOrder returns the chain's task ids in topological (head to tail)
// order.
func (p *Problem) ChainOrder(name string) []int {
	order := p.chainTasks[name]
	out := make([]int, len(order))
	copy(out, order)
	return out
}

// Jobs generates every job release over one hyperperiod, grouped by task
// input order then ascending index. The slice is freshly built on each
// call; task t contributes Hyperperiod/Period(t) jobs.
func (p *Problem) Jobs() []Job {
	var jobs []Job
	for _, t := range p.tasks {
		count := p.hyperperiod / t.Period
		for k := 0; k < count; k++ {
			release := t.Offset + k*t.Period
			jobs = append(jobs, Job{
				TaskID:      t.ID,
				Index:       k,
				Release:     release,
				AbsDeadline: release + t.Deadline,
			})
		}
	}
	return jobs
}

// Utilization returns the exact summed WCET/Period of the given tasks.
func Utilization(tasks []Task) *big.Rat {
	u := new(big.Rat)
	for _, t := range tasks {
		u.Add(u, big.NewRat(int64(t.WCET), int64(t.Period)))
	}
	return u
}

// chainEdges returns the deduplicated union of consecutive-runnable edges
// across all chains, keyed by task id with sorted adjacency for
// deterministic traversal.
func (p *Problem) chainEdges() map[int][]int {
	adj := make(map[int][]int)
	seen := make(map[[2]int]bool)
	for _, c := range p.chains {
		for i := 0; i+1 < len(c.Runnables); i++ {
			from := p.tasks[p.byName[c.Runnables[i]]].ID
			to := p.tasks[p.byName[c.Runnables[i+1]]].ID
			key := [2]int{from, to}
			if seen[key] {
				continue
			}
			seen[key] = true
			adj[from] = append(adj[from], to)
		}
	}
	for k := range adj {
		sort.Ints(adj[k])
	}
	return adj
}

// detectCycle returns a cycle among the chain edges as a task-id path, or
// nil if the union graph is acyclic. DFS with coloring: white (unvisited),
// gray (in progress), black (done).
func (p *Problem) detectCycle(adj map[int][]int) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[int]int)
	parent := make(map[int]int)

	var dfs func(node int) []int
	dfs = func(node int) []int {
		color[node] = gray
		for _, next := range adj[node] {
			if color[next] == gray {
				cycle := []int{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	ids := make([]int, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
