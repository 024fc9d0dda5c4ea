// Package engine is the seam between the scheduling solver and the
// combinatorial search backing it. The solver compiles a Problem into a
// Request; an Engine returns one of {Feasible, Infeasible, Unknown} under
// a caller-supplied budget, or an error when the engine itself fails.
// Search is the default implementation.
package engine

import (
	"context"
	"fmt"
	"math/big"
)

// Verdict is the engine's answer for one request.
type Verdict int

const (
	// Unknown means the budget ran out (or the search space was exhausted
	// without proof) before feasibility was settled.
	Unknown Verdict = iota
	// Feasible means a satisfying assignment was found.
	Feasible
	// Infeasible means the engine proved no assignment satisfies the hard
	// constraints.
	Infeasible
)

func (v Verdict) String() string {
	switch v {
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	}
	return "unknown"
}

// Policy selects how chain budget slack ranks otherwise-feasible
// schedules. It is a soft objective, never a hard constraint.
type Policy string

const (
	// PolicyFirstFeasible stops at the first satisfying assignment.
	PolicyFirstFeasible Policy = "first-feasible"
	// PolicyMaximinSlack compares normalized chain slack lexicographically,
	// chains ordered by descending priority. The default.
	PolicyMaximinSlack Policy = "maximin-slack"
	// PolicyWeightedSlack maximizes the priority-weighted slack sum.
	PolicyWeightedSlack Policy = "weighted-slack"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFirstFeasible, PolicyMaximinSlack, PolicyWeightedSlack:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown objective policy %q", s)
}

// CoreSpec is one schedulable core in the flattened core table.
type CoreSpec struct {
	CpuID        int
	CoreID       int
	MacroTick    int // minimum contiguous execution quantum
	NoPreemption bool
}

// TaskSpec is one periodic task. Candidates indexes Request.Cores; a
// pinned task has exactly one candidate.
type TaskSpec struct {
	ID         int
	Name       string
	WCET       int
	Period     int
	Deadline   int
	Candidates []int
}

// JobSpec is one release of a task. LatestStart already folds the jitter
// window and the deadline together; the engine never starts a job before
// its nominal release, so the early half of the jitter window is unused.
type JobSpec struct {
	Task        int // index into Request.Tasks
	Index       int
	Release     int
	LatestStart int
	AbsDeadline int
}

// ChainSpec is one task chain with its induced job paths precomputed by
// the solver: each path lists job indexes head to tail.
type ChainSpec struct {
	Name     string
	Budget   int
	Priority *big.Rat
	Paths    [][]int
}

// Limits bounds the search effort. The context deadline bounds wall time;
// MaxNodes bounds visited search nodes, partial assignments included.
// Zero means no node limit.
type Limits struct {
	MaxNodes int
}

// Request is a complete scheduling model handed to an Engine.
type Request struct {
	Horizon int // hyperperiod; bounds releases, not finishes
	Cores   []CoreSpec
	Tasks   []TaskSpec
	Jobs    []JobSpec
	Chains  []ChainSpec
	Policy  Policy
	Limits  Limits
}

// Slice is one contiguous execution interval [Start, End) of a job.
type Slice struct {
	Job   int // index into Request.Jobs
	Start int
	End   int
}

// Assignment is a satisfying (or best-so-far) solution candidate.
type Assignment struct {
	CoreOf   []int          // task index -> core index
	Slices   []Slice        // all cores, ordered by core then start
	StartOf  []int          // per job: first slice start
	FinishOf []int          // per job: last slice end
	Spans    map[string]int // worst end-to-end span per chain
}

// Outcome is the engine's result. Best is non-nil whenever at least one
// candidate satisfied every hard constraint, even under an Unknown
// verdict.
type Outcome struct {
	Verdict Verdict
	Best    *Assignment
	Nodes   int
	Reason  string
}

// Engine solves one scheduling request synchronously. An error return
// signals an engine failure, distinct from an Infeasible verdict.
type Engine interface {
	Solve(ctx context.Context, req *Request) (*Outcome, error)
}
