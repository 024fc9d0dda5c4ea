// Package schedule defines the solve result handed to external reporting:
// a schedule table plus an overall status. It carries no solving logic.
package schedule

import "sort"

// Status is the overall verdict of one solve attempt.
type Status int

const (
	// Unknown means the search budget ran out without proof; the
	// best-found schedule, if any, is still included.
	Unknown Status = iota
	// Feasible means every hard constraint is satisfied by the schedule.
	Feasible
	// Infeasible means no satisfying schedule exists; terminal and
	// non-retryable.
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	}
	return "unknown"
}

// Placement is the summary row for one job: where it ran and its first
// start and last finish.
type Placement struct {
	TaskID   int
	JobIndex int
	CpuID    int
	CoreID   int
	Start    int
	Finish   int
}

// Slice is one contiguous execution interval of a job. A preempted job
// contributes several slices; on a no-preemption core there is exactly
// one per job.
type Slice struct {
	TaskID   int
	JobIndex int
	CpuID    int
	CoreID   int
	Start    int
	End      int
}

// Solution is a schedule table for one solve attempt. Each attempt owns
// its Solution independently.
type Solution struct {
	Status      Status
	Hyperperiod int
	Placements  []Placement
	Slices      []Slice
	ChainSpans  map[string]int // worst observed end-to-end span per chain
}

// Sort orders placements and slices by cpu, core, then start time.
func (s *Solution) Sort() {
	sort.Slice(s.Placements, func(i, j int) bool {
		a, b := s.Placements[i], s.Placements[j]
		if a.CpuID != b.CpuID {
			return a.CpuID < b.CpuID
		}
		if a.CoreID != b.CoreID {
			return a.CoreID < b.CoreID
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.TaskID < b.TaskID
	})
	sort.Slice(s.Slices, func(i, j int) bool {
		a, b := s.Slices[i], s.Slices[j]
		if a.CpuID != b.CpuID {
			return a.CpuID < b.CpuID
		}
		if a.CoreID != b.CoreID {
			return a.CoreID < b.CoreID
		}
		return a.Start < b.Start
	})
}
