package game

import "fmt"

// NumberTarget is the amount an admin wants removed from one number.
type NumberTarget struct {
	Number string `json:"number"`
	First  int64  `json:"first"`
	Second int64  `json:"second"`
}

// Amounts is a pair of stake totals for one economic unit.
type Amounts struct {
	First  int64
	Second int64
}

// PlannedDeduction is one per-entry deduction in a computed plan.
type PlannedDeduction struct {
	TransactionID int    `json:"transaction_id"`
	Number        string `json:"number"`
	First         int64  `json:"first"`
	Second        int64  `json:"second"`
}

// Shortfall records a target that could not be fully collected. Shortfalls
// are warnings, not failures; the rest of the plan still commits.
type Shortfall struct {
	Number string `json:"number"`
	First  int64  `json:"first"`
	Second int64  `json:"second"`
}

// Plan is the complete result of one planning run across all targets.
type Plan struct {
	Items      []PlannedDeduction `json:"items"`
	Shortfalls []Shortfall        `json:"shortfalls"`
	Errors     []string           `json:"errors"`
}

// rowState is one physical entry row within an economic unit.
type rowState struct {
	id     int
	first  int64
	second int64
}

// PlanDeductions computes the per-entry deduction plan for a set of number
// targets. Entries carry live (already netted) amounts; originals maps each
// economic unit id to its pre-deduction totals.
//
// Per number, the target is split across contributing users in proportion
// to each user's share of the number's original total, clamped to what the
// user currently has available and to the still-unmet target. Within a
// user the fill is greedy in entry order and itemized per physical row,
// each item clamped to that row's live amount, so a stored deduction never
// exceeds the row it attaches to. Split rows sharing an original
// transaction id count their originals once and are planned at most once
// per run.
//
// Entries whose unit is missing from originals are skipped with a recorded
// error. Targets left unmet after every user is drained become shortfalls.
func PlanDeductions(targets []NumberTarget, entries []EntryAmounts, originals map[int]Amounts) *Plan {
	plan := &Plan{}
	visited := make(map[string]bool)

	for _, target := range targets {
		planNumber(plan, target, entries, originals, visited)
	}
	return plan
}

func planNumber(plan *Plan, target NumberTarget, entries []EntryAmounts, originals map[int]Amounts, visited map[string]bool) {
	remFirst := clampNonNegative(target.First)
	remSecond := clampNonNegative(target.Second)
	if remFirst == 0 && remSecond == 0 {
		return
	}

	// Group this number's entries by user, collecting the physical rows of
	// each economic unit and preserving first-seen order throughout.
	type userState struct {
		id        int
		unitOrder []int
		units     map[int][]rowState
		origFirst int64
		origSecond int64
		curFirst  int64
		curSecond int64
	}
	var userOrder []int
	users := make(map[int]*userState)

	for _, e := range entries {
		if e.Number != target.Number {
			continue
		}
		if e.ID == 0 {
			plan.Errors = append(plan.Errors, fmt.Sprintf("number %s: entry with empty transaction id skipped", target.Number))
			continue
		}
		key := fmt.Sprintf("%d-%s", e.UnitID, target.Number)
		if visited[key] {
			continue
		}
		orig, ok := originals[e.UnitID]
		if !ok {
			plan.Errors = append(plan.Errors, fmt.Sprintf("number %s: no original amounts for transaction %d, skipped", target.Number, e.ID))
			continue
		}

		u, seen := users[e.UserID]
		if !seen {
			u = &userState{id: e.UserID, units: make(map[int][]rowState)}
			users[e.UserID] = u
			userOrder = append(userOrder, e.UserID)
		}
		if _, unitSeen := u.units[e.UnitID]; !unitSeen {
			u.unitOrder = append(u.unitOrder, e.UnitID)
			// Originals are per unit, counted once per planning run.
			u.origFirst += orig.First
			u.origSecond += orig.Second
		}
		u.units[e.UnitID] = append(u.units[e.UnitID], rowState{
			id:     e.ID,
			first:  clampNonNegative(e.First),
			second: clampNonNegative(e.Second),
		})
		u.curFirst += clampNonNegative(e.First)
		u.curSecond += clampNonNegative(e.Second)
	}

	var numberOrigFirst, numberOrigSecond int64
	for _, uid := range userOrder {
		numberOrigFirst += users[uid].origFirst
		numberOrigSecond += users[uid].origSecond
	}

	for _, uid := range userOrder {
		if remFirst == 0 && remSecond == 0 {
			break
		}
		u := users[uid]

		userRemFirst := min(proportionalShare(u.origFirst, numberOrigFirst, target.First), remFirst, u.curFirst)
		userRemSecond := min(proportionalShare(u.origSecond, numberOrigSecond, target.Second), remSecond, u.curSecond)

		for _, unitID := range u.unitOrder {
			if userRemFirst == 0 && userRemSecond == 0 {
				break
			}
			key := fmt.Sprintf("%d-%s", unitID, target.Number)
			if visited[key] {
				continue
			}
			visited[key] = true

			// Itemize per physical row so each stored deduction stays
			// within the row it nets against.
			for _, row := range u.units[unitID] {
				dFirst := clampNonNegative(min(row.first, userRemFirst))
				dSecond := clampNonNegative(min(row.second, userRemSecond))
				if dFirst == 0 && dSecond == 0 {
					continue
				}

				userRemFirst -= dFirst
				userRemSecond -= dSecond
				remFirst -= dFirst
				remSecond -= dSecond

				plan.Items = append(plan.Items, PlannedDeduction{
					TransactionID: row.id,
					Number:        target.Number,
					First:         dFirst,
					Second:        dSecond,
				})
				if userRemFirst == 0 && userRemSecond == 0 {
					break
				}
			}
		}
	}

	if remFirst > 0 || remSecond > 0 {
		plan.Shortfalls = append(plan.Shortfalls, Shortfall{
			Number: target.Number,
			First:  remFirst,
			Second: remSecond,
		})
	}
}

// proportionalShare floors userOriginal/numberOriginal of the target.
// Integer division keeps amounts in whole minor units; leftovers from
// flooring end up as shortfalls rather than fractional deductions.
func proportionalShare(userOriginal, numberOriginal, target int64) int64 {
	if numberOriginal <= 0 || target <= 0 || userOriginal <= 0 {
		return 0
	}
	return userOriginal * target / numberOriginal
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
