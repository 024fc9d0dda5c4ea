package engine

import "fmt"

// simJob is the mutable per-job state of one core simulation.
type simJob struct {
	idx       int // index into Request.Jobs
	release   int
	latest    int // latest permitted start
	deadline  int
	wcet      int
	prio      int // rank, lower runs first
	remaining int
	start     int // first slice start, -1 until scheduled
	finish    int // last slice end
}

// simulateCore builds the execution timeline of one core under fixed
// priorities. Preemption is taken only at multiples of the core's
// MacroTick; a no-preemption core runs every job as a single block. The
// returned string names the first violated constraint, empty on success.
func simulateCore(core CoreSpec, jobs []*simJob) ([]Slice, string) {
	var slices []Slice
	unfinished := len(jobs)

	for _, j := range jobs {
		j.remaining = j.wcet
		j.start = -1
	}

	t := 0
	for unfinished > 0 {
		cur := pickJob(jobs, t)
		if cur == nil {
			t = nextRelease(jobs, t)
			continue
		}

		end := t + cur.remaining
		if !core.NoPreemption {
			if r, ok := nextPreemptingRelease(jobs, cur, t, end); ok {
				if p := ceilTo(r, core.MacroTick); p < end {
					end = p
				}
			}
		}

		if cur.start == -1 {
			cur.start = t
			if t > cur.latest {
				return nil, fmt.Sprintf("job %d starts at %d, after its latest start %d", cur.idx, t, cur.latest)
			}
		}
		slices = append(slices, Slice{Job: cur.idx, Start: t, End: end})
		cur.remaining -= end - t
		if cur.remaining == 0 {
			cur.finish = end
			unfinished--
			if end > cur.deadline {
				return nil, fmt.Sprintf("job %d finishes at %d, after its deadline %d", cur.idx, end, cur.deadline)
			}
		}
		t = end
	}

	return slices, ""
}

// pickJob returns the highest-priority released, unfinished job at time t.
// Ties fall to the earlier release, then the lower job index.
func pickJob(jobs []*simJob, t int) *simJob {
	var best *simJob
	for _, j := range jobs {
		if j.remaining == 0 || j.release > t {
			continue
		}
		if best == nil || less(j, best) {
			best = j
		}
	}
	return best
}

func less(a, b *simJob) bool {
	if a.prio != b.prio {
		return a.prio < b.prio
	}
	if a.release != b.release {
		return a.release < b.release
	}
	return a.idx < b.idx
}

// nextRelease returns the earliest release strictly after t among
// unfinished jobs.
func nextRelease(jobs []*simJob, t int) int {
	next := -1
	for _, j := range jobs {
		if j.remaining == 0 || j.release <= t {
			continue
		}
		if next == -1 || j.release < next {
			next = j.release
		}
	}
	return next
}

// nextPreemptingRelease returns the earliest release in (t, end) of a job
// with strictly higher priority than cur.
func nextPreemptingRelease(jobs []*simJob, cur *simJob, t, end int) (int, bool) {
	r, ok := -1, false
	for _, j := range jobs {
		if j.remaining == 0 || j.prio >= cur.prio {
			continue
		}
		if j.release > t && j.release < end && (!ok || j.release < r) {
			r, ok = j.release, true
		}
	}
	return r, ok
}

// ceilTo rounds v up to the next multiple of quantum.
func ceilTo(v, quantum int) int {
	if quantum <= 1 {
		return v
	}
	return (v + quantum - 1) / quantum * quantum
}
