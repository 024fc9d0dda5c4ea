// Package analyzer implements fixed-priority (rate-monotonic) feasibility
// analysis: the Liu–Layland utilization bound, iterative response-time
// analysis, and a fast accept/reject/unknown pre-check run ahead of the
// full solver.
package analyzer

import (
	"math"
	"math/big"
	"sort"

	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// Utilization returns the exact summed WCET/Period of the given tasks.
func Utilization(tasks []model.Task) *big.Rat {
	return model.Utilization(tasks)
}

// SufficientBound returns the Liu–Layland bound n*(2^(1/n) - 1) for n
// tasks. Utilization at or under the bound is a sufficient (not
// necessary) guarantee of rate-monotonic schedulability.
func SufficientBound(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n) * (math.Pow(2, 1/float64(n)) - 1)
}

// FitsSufficientBound reports whether the task set passes the utilization
// bound test. A false result proves nothing and must defer to the full
// solver.
func FitsSufficientBound(tasks []model.Task) bool {
	if len(tasks) == 0 {
		return true
	}
	u, _ := Utilization(tasks).Float64()
	return u <= SufficientBound(len(tasks))
}

// RateMonotonic returns a copy of tasks in rate-monotonic priority order:
// ascending period, ties broken by ascending id.
func RateMonotonic(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].ID < out[j].ID
	})
	return out
}
