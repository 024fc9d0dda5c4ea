package engine

import (
	"math/big"
	"sort"
)

// score ranks feasible candidates under the selected policy. Vectors are
// compared lexicographically; an empty vector means all candidates rank
// equal (first found wins).
type score struct {
	vec []*big.Rat
}

// better reports whether s outranks o.
func (s score) better(o score) bool {
	for i := range s.vec {
		if i >= len(o.vec) {
			return false
		}
		switch s.vec[i].Cmp(o.vec[i]) {
		case 1:
			return true
		case -1:
			return false
		}
	}
	return false
}

// chainSpans computes each chain's worst induced end-to-end span (tail
// finish minus head release). The second result is false when some span
// exceeds its chain's budget, which fails the candidate.
func chainSpans(req *Request, finishOf []int) (map[string]int, bool) {
	spans := make(map[string]int, len(req.Chains))
	for _, c := range req.Chains {
		worst := 0
		for _, path := range c.Paths {
			if len(path) == 0 {
				continue
			}
			head := req.Jobs[path[0]]
			tail := path[len(path)-1]
			span := finishOf[tail] - head.Release
			if span > worst {
				worst = span
			}
		}
		if worst > c.Budget {
			return nil, false
		}
		spans[c.Name] = worst
	}
	return spans, true
}

// scoreOf builds the candidate's score from its chain spans. Chains are
// visited by descending priority (ties by name) so that lexicographic
// comparison favors higher-priority chains first.
func scoreOf(req *Request, spans map[string]int) score {
	switch req.Policy {
	case PolicyFirstFeasible:
		return score{}
	case PolicyWeightedSlack:
		sum := new(big.Rat)
		for _, c := range req.Chains {
			slack := normalizedSlack(c, spans[c.Name])
			sum.Add(sum, slack.Mul(slack, c.Priority))
		}
		return score{vec: []*big.Rat{sum}}
	default: // PolicyMaximinSlack
		ordered := make([]ChainSpec, len(req.Chains))
		copy(ordered, req.Chains)
		sort.Slice(ordered, func(i, j int) bool {
			if c := ordered[i].Priority.Cmp(ordered[j].Priority); c != 0 {
				return c > 0
			}
			return ordered[i].Name < ordered[j].Name
		})
		vec := make([]*big.Rat, len(ordered))
		for i, c := range ordered {
			vec[i] = normalizedSlack(c, spans[c.Name])
		}
		return score{vec: vec}
	}
}

// normalizedSlack is (budget - span) / budget.
func normalizedSlack(c ChainSpec, span int) *big.Rat {
	return big.NewRat(int64(c.Budget-span), int64(c.Budget))
}
