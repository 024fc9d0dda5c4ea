package model

import "math/big"

// NoPreemption is the reserved MacroTick value meaning a core never
// preempts: once a job starts it runs as a single uninterrupted block.
const NoPreemption = 9999999

// Unassigned marks a Task.CoreID left for the solver to decide, and a
// Task.MaxJitter with no bound.
const Unassigned = -1

// Cpu is a processor owning one or more cores.
type Cpu struct {
	ID    int    `json:"id"`
	Cores []Core `json:"cores"`
}

// Core is a processing unit within a Cpu. MacroTick is the scheduling
// granularity in microseconds: the minimum contiguous execution quantum,
// or NoPreemption.
type Core struct {
	ID        int `json:"id"`
	MacroTick int `json:"macrotick"`
}

// Task is a periodic task. All timing quantities are integer microseconds.
type Task struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	WCET      int    `json:"wcet"`
	Period    int    `json:"period"`
	Deadline  int    `json:"deadline"`   // relative to each release
	Offset    int    `json:"offset"`     // first release, in [0, Period)
	MaxJitter int    `json:"max_jitter"` // Unassigned = unconstrained
	CpuID     int    `json:"cpu_id"`
	CoreID    int    `json:"core_id"`    // Unassigned = solver decides
}

// Chain is an ordered flow of tasks with an end-to-end latency budget.
// Runnables lists task names from head to tail; the union of all chain
// edges must form a DAG.
type Chain struct {
	Name      string   `json:"name"`
	Budget    int      `json:"budget"`
	Priority  *big.Rat `json:"-"` // in [0, 1]
	Runnables []string `json:"runnables"`
}

// Architecture is the platform description consumed by New.
type Architecture []Cpu

// Application is the task-set description consumed by New.
type Application struct {
	Tasks  []Task
	Chains []Chain
}

// Job is one periodic release of a Task within the hyperperiod.
type Job struct {
	TaskID      int
	Index       int
	Release     int // Offset + Index*Period
	AbsDeadline int // Release + Deadline
}
