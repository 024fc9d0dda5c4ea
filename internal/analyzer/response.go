package analyzer

import (
	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// ResponseVerdict classifies the outcome of the response-time recurrence
// for one task.
type ResponseVerdict int

const (
	// ResponseOK means the recurrence converged within the task's deadline.
	ResponseOK ResponseVerdict = iota
	// ResponseExceedsDeadline means the converged bound misses the deadline:
	// a definite failure for this core under rate-monotonic priorities.
	ResponseExceedsDeadline
	// ResponseDiverged means the recurrence did not converge within one
	// hyperperiod of the core's task set. Never treated as feasible or
	// infeasible.
	ResponseDiverged
)

func (v ResponseVerdict) String() string {
	switch v {
	case ResponseOK:
		return "ok"
	case ResponseExceedsDeadline:
		return "exceeds-deadline"
	case ResponseDiverged:
		return "diverged"
	}
	return "unknown"
}

// Response is the worst-case completion bound computed for one task.
type Response struct {
	TaskID  int
	Bound   int // meaningless when Verdict is ResponseDiverged
	Verdict ResponseVerdict
}

// ResponseTimes runs iterative response-time analysis on the tasks of one
// core under rate-monotonic priority order. For each task the candidate
// completion time is its own WCET plus interference from every
// higher-priority task, iterated to a fixed point and capped at the task
// set's hyperperiod.
func ResponseTimes(tasks []model.Task) []Response {
	sorted := RateMonotonic(tasks)

	cap := 1
	for _, t := range sorted {
		cap = lcm(cap, t.Period)
	}

	out := make([]Response, len(sorted))
	for i, t := range sorted {
		r := Response{TaskID: t.ID, Verdict: ResponseOK}

		bound := t.WCET
		for {
			next := t.WCET
			for _, hp := range sorted[:i] {
				next += ceilDiv(bound, hp.Period) * hp.WCET
			}
			if next == bound {
				break
			}
			bound = next
			if bound > cap {
				r.Verdict = ResponseDiverged
				break
			}
		}

		if r.Verdict != ResponseDiverged {
			r.Bound = bound
			if bound > t.Deadline {
				r.Verdict = ResponseExceedsDeadline
			}
		}
		out[i] = r
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
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
