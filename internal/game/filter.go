package game

import (
	"sort"
	"strconv"
)

// AmountKind selects which of the two stake columns an operation targets.
type AmountKind string

const (
	KindFirst  AmountKind = "first"
	KindSecond AmountKind = "second"
)

// Comparison is one side of the limit-filter predicate. A blank or
// non-numeric Value means the side places no restriction and passes.
type Comparison struct {
	Op    string `json:"op"`
	Value string `json:"value"`
}

// Eval applies the comparison to an amount. Unknown operators and
// unparseable values default to pass, matching the permissive form inputs
// of the admin screens.
func (c Comparison) Eval(amount int64) bool {
	if c.Value == "" {
		return true
	}
	threshold, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return true
	}
	a := float64(amount)
	switch c.Op {
	case ">=":
		return a >= threshold
	case ">":
		return a > threshold
	case "<=":
		return a <= threshold
	case "<":
		return a < threshold
	case "==":
		return a == threshold
	default:
		return true
	}
}

// SearchResult is one qualifying number in the advanced-filter view.
type SearchResult struct {
	Number string   `json:"number"`
	Amount int64    `json:"amount"`
	Users  []string `json:"users"`
}

// SearchFilter returns the numbers whose total for the given amount kind
// is positive and whose number matches the search query. Users lists the
// distinct usernames contributing a positive amount, in first-seen order.
// Results are sorted ascending by number string.
func SearchFilter(entries []EntryAmounts, query string, kind AmountKind) []SearchResult {
	totals := make(map[string]int64)
	users := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, e := range entries {
		amt := e.First
		if kind == KindSecond {
			amt = e.Second
		}
		totals[e.Number] += amt
		if amt > 0 {
			if seen[e.Number] == nil {
				seen[e.Number] = make(map[string]bool)
			}
			if !seen[e.Number][e.Username] {
				seen[e.Number][e.Username] = true
				users[e.Number] = append(users[e.Number], e.Username)
			}
		}
	}

	var out []SearchResult
	for number, total := range totals {
		if total <= 0 || !Matches(number, query) {
			continue
		}
		out = append(out, SearchResult{Number: number, Amount: total, Users: users[number]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// CalcResult is one row of the limit-based filter/calculate view. The
// result columns hold the amount in excess of the limit, floored at zero.
type CalcResult struct {
	Number       string `json:"number"`
	FirstTotal   int64  `json:"first_total"`
	SecondTotal  int64  `json:"second_total"`
	FirstResult  int64  `json:"first_result"`
	SecondResult int64  `json:"second_result"`
}

// LimitFilter computes, for every aggregated number, how much of each
// amount kind exceeds the given limit. A number is included when either
// comparison side passes and at least one result is positive. Results are
// sorted ascending by number string.
func LimitFilter(summaries map[string]*NumberSummary, firstLimit, secondLimit int64, firstCmp, secondCmp Comparison) []CalcResult {
	var out []CalcResult
	for number, s := range summaries {
		firstResult := s.FirstTotal - firstLimit
		if firstResult < 0 {
			firstResult = 0
		}
		secondResult := s.SecondTotal - secondLimit
		if secondResult < 0 {
			secondResult = 0
		}
		if !firstCmp.Eval(s.FirstTotal) && !secondCmp.Eval(s.SecondTotal) {
			continue
		}
		if firstResult <= 0 && secondResult <= 0 {
			continue
		}
		out = append(out, CalcResult{
			Number:       number,
			FirstTotal:   s.FirstTotal,
			SecondTotal:  s.SecondTotal,
			FirstResult:  firstResult,
			SecondResult: secondResult,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
