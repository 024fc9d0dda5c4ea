package model

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hashicorp/go-multierror"
)

// ValidationError reports every invariant violated by the input. It is
// returned by New before any solve attempt; partial repair never happens.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	return "invalid problem: " + e.err.Error()
}

func (e *ValidationError) Unwrap() error { return e.err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ratZero = new(big.Rat)
	ratOne  = big.NewRat(1, 1)
)

func (p *Problem) validate() error {
	var merr *multierror.Error

	if len(p.arch) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("architecture has no cpus"))
	}

	cpuIDs := make(map[int]bool, len(p.arch))
	for _, cpu := range p.arch {
		if cpuIDs[cpu.ID] {
			merr = multierror.Append(merr, fmt.Errorf("duplicate cpu id %d", cpu.ID))
		}
		cpuIDs[cpu.ID] = true

		if len(cpu.Cores) == 0 {
			merr = multierror.Append(merr, fmt.Errorf("cpu %d has no cores", cpu.ID))
		}
		coreIDs := make(map[int]bool, len(cpu.Cores))
		for _, core := range cpu.Cores {
			if coreIDs[core.ID] {
				merr = multierror.Append(merr, fmt.Errorf("cpu %d: duplicate core id %d", cpu.ID, core.ID))
			}
			coreIDs[core.ID] = true
			if core.MacroTick <= 0 && core.MacroTick != NoPreemption {
				merr = multierror.Append(merr,
					fmt.Errorf("cpu %d core %d: macrotick %d must be positive or the no-preemption sentinel", cpu.ID, core.ID, core.MacroTick))
			}
		}
	}

	for i, t := range p.tasks {
		if _, dup := p.byID[t.ID]; dup {
			merr = multierror.Append(merr, fmt.Errorf("duplicate task id %d", t.ID))
		} else {
			p.byID[t.ID] = i
		}
		if _, dup := p.byName[t.Name]; dup {
			merr = multierror.Append(merr, fmt.Errorf("duplicate task name %q", t.Name))
		} else {
			p.byName[t.Name] = i
		}

		if t.Name == "" {
			merr = multierror.Append(merr, fmt.Errorf("task %d has no name", t.ID))
		}
		if t.WCET <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("task %d: wcet %d must be positive", t.ID, t.WCET))
		}
		if t.Period <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("task %d: period %d must be positive", t.ID, t.Period))
		}
		if t.Deadline <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("task %d: deadline %d must be positive", t.ID, t.Deadline))
		}
		if t.Offset < 0 {
			merr = multierror.Append(merr, fmt.Errorf("task %d: offset %d must not be negative", t.ID, t.Offset))
		} else if t.Period > 0 && t.Offset >= t.Period {
			merr = multierror.Append(merr, fmt.Errorf("task %d: offset %d must be within period %d", t.ID, t.Offset, t.Period))
		}
		if t.MaxJitter < Unassigned {
			merr = multierror.Append(merr, fmt.Errorf("task %d: max jitter %d must be -1 or non-negative", t.ID, t.MaxJitter))
		}

		cpu, ok := p.Cpu(t.CpuID)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("task %d references unknown cpu %d", t.ID, t.CpuID))
			continue
		}
		if t.CoreID != Unassigned {
			found := false
			for _, core := range cpu.Cores {
				if core.ID == t.CoreID {
					found = true
					break
				}
			}
			if !found {
				merr = multierror.Append(merr, fmt.Errorf("task %d references core %d not on cpu %d", t.ID, t.CoreID, t.CpuID))
			}
		}
	}

	chainNames := make(map[string]bool, len(p.chains))
	resolvable := true
	for _, c := range p.chains {
		if chainNames[c.Name] {
			merr = multierror.Append(merr, fmt.Errorf("duplicate chain name %q", c.Name))
		}
		chainNames[c.Name] = true

		if c.Budget <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("chain %q: budget %d must be positive", c.Name, c.Budget))
		}
		if c.Priority == nil {
			merr = multierror.Append(merr, fmt.Errorf("chain %q has no priority", c.Name))
		} else if c.Priority.Cmp(ratZero) < 0 || c.Priority.Cmp(ratOne) > 0 {
			merr = multierror.Append(merr, fmt.Errorf("chain %q: priority %s outside [0, 1]", c.Name, c.Priority.RatString()))
		}
		if len(c.Runnables) == 0 {
			merr = multierror.Append(merr, fmt.Errorf("chain %q has no runnables", c.Name))
		}
		for _, name := range c.Runnables {
			if _, ok := p.byName[name]; !ok {
				merr = multierror.Append(merr, fmt.Errorf("chain %q references unknown task %q", c.Name, name))
				resolvable = false
			}
		}
	}

	// Cycle detection only makes sense once every runnable resolves.
	if resolvable && merr.ErrorOrNil() == nil {
		adj := p.chainEdges()
		if cycle := p.detectCycle(adj); cycle != nil {
			merr = multierror.Append(merr, fmt.Errorf("chain dependencies contain a cycle through tasks %v", cycle))
		}
		for _, c := range p.chains {
			order := make([]int, len(c.Runnables))
			for i, name := range c.Runnables {
				order[i] = p.tasks[p.byName[name]].ID
			}
			p.chainTasks[c.Name] = order
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return &ValidationError{err: err}
	}
	return nil
}
