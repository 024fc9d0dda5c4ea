package analyzer

import (
	"fmt"
	"math/big"

	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// Verdict is the three-valued result of the pre-check.
type Verdict int

const (
	// Unknown means neither feasibility nor infeasibility could be
	// established quickly; the full solver decides.
	Unknown Verdict = iota
	// Accept means the configuration is provably feasible.
	Accept
	// Reject means the configuration is provably infeasible; the Reason
	// names the certificate.
	Reject
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Report is the outcome of Precheck.
type Report struct {
	Verdict Verdict
	Reason  string
}

var ratOne = big.NewRat(1, 1)

// Precheck short-circuits clearly infeasible or clearly feasible problems
// before the full search. Reject always carries a proof that no schedule
// exists; Accept always carries a sufficient guarantee; anything weaker is
// Unknown.
func Precheck(p *model.Problem) Report {
	// Assignment-independent certificates.
	for _, t := range p.Tasks() {
		if t.WCET > t.Deadline {
			return Report{Reject, fmt.Sprintf("task %d: wcet %d exceeds deadline %d", t.ID, t.WCET, t.Deadline)}
		}
	}
	for _, c := range p.Chains() {
		sum := 0
		for _, id := range p.ChainOrder(c.Name) {
			t, _ := p.TaskByID(id)
			sum += t.WCET
		}
		if sum > c.Budget {
			return Report{Reject, fmt.Sprintf("chain %q: summed wcet %d exceeds budget %d", c.Name, sum, c.Budget)}
		}
	}
	for _, cpu := range p.Architecture() {
		// Tasks pinned to a specific core (a single-core cpu pins
		// implicitly) must fit that core exactly.
		for _, core := range cpu.Cores {
			pinned := p.TasksByCore(cpu.ID, core.ID)
			if len(cpu.Cores) == 1 {
				pinned = p.TasksOnCpu(cpu.ID)
			}
			if Utilization(pinned).Cmp(ratOne) > 0 {
				return Report{Reject, fmt.Sprintf("cpu %d core %d: utilization %s exceeds 1", cpu.ID, core.ID, Utilization(pinned).RatString())}
			}
		}
		// However tasks are spread, a cpu cannot carry more than one full
		// unit of utilization per core.
		total := Utilization(p.TasksOnCpu(cpu.ID))
		if total.Cmp(big.NewRat(int64(len(cpu.Cores)), 1)) > 0 {
			return Report{Reject, fmt.Sprintf("cpu %d: utilization %s exceeds %d cores", cpu.ID, total.RatString(), len(cpu.Cores))}
		}
	}

	// Sufficient acceptance: every task pinned, no chains to bound, every
	// deadline at least its period, and every loaded core fully preemptive
	// and under the Liu–Layland bound.
	if len(p.Chains()) > 0 {
		return Report{Unknown, "chain budgets require the full solver"}
	}
	for _, t := range p.Tasks() {
		cpu, _ := p.Cpu(t.CpuID)
		if t.CoreID == model.Unassigned && len(cpu.Cores) > 1 {
			return Report{Unknown, fmt.Sprintf("task %d has no core assignment", t.ID)}
		}
		if t.Deadline < t.Period {
			return Report{Unknown, fmt.Sprintf("task %d: deadline %d tighter than period %d", t.ID, t.Deadline, t.Period)}
		}
		if t.MaxJitter != model.Unassigned {
			return Report{Unknown, fmt.Sprintf("task %d: jitter bound %d requires the full solver", t.ID, t.MaxJitter)}
		}
	}
	for _, cpu := range p.Architecture() {
		for _, core := range cpu.Cores {
			set := p.TasksByCore(cpu.ID, core.ID)
			if len(cpu.Cores) == 1 {
				set = p.TasksOnCpu(cpu.ID)
			}
			if len(set) == 0 {
				continue
			}
			// The Liu–Layland bound assumes a fully preemptive core; any
			// coarser macrotick invalidates it as a sufficient condition.
			if core.MacroTick != 1 {
				return Report{Unknown, fmt.Sprintf("cpu %d core %d: macrotick %d restricts preemption, the bound test does not apply", cpu.ID, core.ID, core.MacroTick)}
			}
			if !FitsSufficientBound(set) {
				return Report{Unknown, fmt.Sprintf("cpu %d core %d: utilization above the sufficient bound", cpu.ID, core.ID)}
			}
		}
	}
	return Report{Accept, "all cores pass the utilization bound test"}
}
