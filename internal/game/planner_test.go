package game

import "testing"

func originalsFrom(entries []EntryAmounts) map[int]Amounts {
	out := make(map[int]Amounts)
	for _, e := range entries {
		a := out[e.UnitID]
		a.First += e.First
		a.Second += e.Second
		out[e.UnitID] = a
	}
	return out
}

func totalPlanned(p *Plan) (first, second int64) {
	for _, item := range p.Items {
		first += item.First
		second += item.Second
	}
	return
}

func TestPlanEvenSplit(t *testing.T) {
	// Two users at 50/50 on "07", firstLimit=20 gives a target of 80;
	// each user must lose exactly 40, leaving both at 10.
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "07", UserID: 1, First: 50},
		{ID: 2, UnitID: 2, Number: "07", UserID: 2, First: 50},
	}
	plan := PlanDeductions(
		[]NumberTarget{{Number: "07", First: 80}},
		entries, originalsFrom(entries),
	)

	if len(plan.Errors) != 0 || len(plan.Shortfalls) != 0 {
		t.Fatalf("unexpected errors/shortfalls: %+v", plan)
	}
	if len(plan.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", plan.Items)
	}
	for _, item := range plan.Items {
		if item.First != 40 {
			t.Errorf("entry %d: deducted %d, want 40", item.TransactionID, item.First)
		}
	}
}

func TestPlanProportionalFairness(t *testing.T) {
	// 60/40 split, target 50: A gets at most 30, B at most 20.
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "42", UserID: 1, First: 60},
		{ID: 2, UnitID: 2, Number: "42", UserID: 2, First: 40},
	}
	plan := PlanDeductions(
		[]NumberTarget{{Number: "42", First: 50}},
		entries, originalsFrom(entries),
	)

	byEntry := make(map[int]int64)
	for _, item := range plan.Items {
		byEntry[item.TransactionID] = item.First
	}
	if byEntry[1] != 30 {
		t.Errorf("user A deduction = %d, want 30", byEntry[1])
	}
	if byEntry[2] != 20 {
		t.Errorf("user B deduction = %d, want 20", byEntry[2])
	}
}

func TestPlanClampedByCurrentAvailability(t *testing.T) {
	// Original 60/40 but user A already had 50 deducted: only 10 live.
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "42", UserID: 1, First: 10},
		{ID: 2, UnitID: 2, Number: "42", UserID: 2, First: 40},
	}
	originals := map[int]Amounts{
		1: {First: 60},
		2: {First: 40},
	}
	plan := PlanDeductions([]NumberTarget{{Number: "42", First: 50}}, entries, originals)

	byEntry := make(map[int]int64)
	for _, item := range plan.Items {
		byEntry[item.TransactionID] = item.First
	}
	// A's proportional share is 30 but only 10 is available.
	if byEntry[1] != 10 {
		t.Errorf("user A deduction = %d, want 10", byEntry[1])
	}
	if byEntry[2] != 20 {
		t.Errorf("user B deduction = %d, want 20", byEntry[2])
	}
	// The 20 that flooring and clamping left uncollected is a shortfall.
	if len(plan.Shortfalls) != 1 || plan.Shortfalls[0].First != 20 {
		t.Errorf("shortfalls = %+v", plan.Shortfalls)
	}
}

func TestPlanShortfallStillCommits(t *testing.T) {
	// Target 100 with only 80 available: plan sums to 80, shortfall 20.
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "5", UserID: 1, First: 30},
		{ID: 2, UnitID: 2, Number: "5", UserID: 2, First: 50},
	}
	plan := PlanDeductions(
		[]NumberTarget{{Number: "5", First: 100}},
		entries, originalsFrom(entries),
	)

	first, _ := totalPlanned(plan)
	if first != 80 {
		t.Errorf("planned total = %d, want 80", first)
	}
	if len(plan.Shortfalls) != 1 {
		t.Fatalf("shortfalls = %+v", plan.Shortfalls)
	}
	if sf := plan.Shortfalls[0]; sf.Number != "5" || sf.First != 20 {
		t.Errorf("shortfall = %+v", sf)
	}
}

func TestPlanConservation(t *testing.T) {
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "77", UserID: 1, First: 33, Second: 12},
		{ID: 2, UnitID: 2, Number: "77", UserID: 2, First: 67, Second: 8},
		{ID: 3, UnitID: 3, Number: "78", UserID: 1, First: 15, Second: 0},
	}
	originals := originalsFrom(entries)
	plan := PlanDeductions([]NumberTarget{
		{Number: "77", First: 55, Second: 20},
		{Number: "78", First: 999},
	}, entries, originals)

	perUnit := make(map[int]Amounts)
	for _, item := range plan.Items {
		a := perUnit[item.TransactionID]
		a.First += item.First
		a.Second += item.Second
		perUnit[item.TransactionID] = a
		if item.First < 0 || item.Second < 0 {
			t.Errorf("negative deduction: %+v", item)
		}
	}
	for id, ded := range perUnit {
		orig := originals[id]
		if ded.First > orig.First || ded.Second > orig.Second {
			t.Errorf("unit %d deducted %+v beyond original %+v", id, ded, orig)
		}
	}
}

func TestPlanSplitEntriesOneUnit(t *testing.T) {
	// A ring entry stored as two rows under one original transaction id is
	// one economic unit: its originals count once, and the deduction is
	// itemized per row so no stored deduction exceeds the row it attaches to.
	entries := []EntryAmounts{
		{ID: 10, UnitID: 10, Number: "123", UserID: 1, First: 20},
		{ID: 11, UnitID: 10, Number: "123", UserID: 1, First: 20},
	}
	originals := map[int]Amounts{10: {First: 40}}
	plan := PlanDeductions([]NumberTarget{{Number: "123", First: 40}}, entries, originals)

	byRow := make(map[int]int64)
	for _, item := range plan.Items {
		byRow[item.TransactionID] += item.First
	}
	if byRow[10] != 20 || byRow[11] != 20 {
		t.Errorf("per-row deductions = %v, want {10:20 11:20}", byRow)
	}
	first, _ := totalPlanned(plan)
	if first != 40 {
		t.Errorf("planned total = %d, want 40", first)
	}
	if len(plan.Shortfalls) != 0 {
		t.Errorf("shortfalls = %+v", plan.Shortfalls)
	}
}

func TestPlanSplitRowsNetExactlyPerRow(t *testing.T) {
	// Uneven split rows under one unit. Every item must fit inside its own
	// row's live amount, so per-row netting (live = stored - deductions)
	// reads back to zero instead of clamping excess away on one row while
	// siblings keep showing full amounts.
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "42", UserID: 1, First: 60},
		{ID: 3, UnitID: 1, Number: "42", UserID: 1, First: 40},
	}
	originals := map[int]Amounts{1: {First: 100}}
	plan := PlanDeductions([]NumberTarget{{Number: "42", First: 100}}, entries, originals)

	rowAmounts := map[int]int64{1: 60, 3: 40}
	live := map[int]int64{1: 60, 3: 40}
	var total int64
	for _, item := range plan.Items {
		if item.First > rowAmounts[item.TransactionID] {
			t.Errorf("row %d: deduction %d exceeds the row's amount %d",
				item.TransactionID, item.First, rowAmounts[item.TransactionID])
		}
		live[item.TransactionID] -= item.First
		total += item.First
	}
	if total != 100 {
		t.Errorf("planned total = %d, want the full unit original 100", total)
	}
	for id, remaining := range live {
		if remaining != 0 {
			t.Errorf("row %d: live amount after netting = %d, want 0", id, remaining)
		}
	}
	if len(plan.Shortfalls) != 0 {
		t.Errorf("shortfalls = %+v", plan.Shortfalls)
	}
}

func TestPlanMissingOriginalsRecordedNotFatal(t *testing.T) {
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "9", UserID: 1, First: 50},
		{ID: 2, UnitID: 2, Number: "9", UserID: 2, First: 50},
	}
	originals := map[int]Amounts{1: {First: 50}} // unit 2 missing
	plan := PlanDeductions([]NumberTarget{{Number: "9", First: 60}}, entries, originals)

	if len(plan.Errors) != 1 {
		t.Fatalf("expected one recorded error, got %v", plan.Errors)
	}
	// Unit 1 still contributes; its share is the full remaining original.
	first, _ := totalPlanned(plan)
	if first != 50 {
		t.Errorf("planned total = %d, want 50", first)
	}
	if len(plan.Shortfalls) != 1 || plan.Shortfalls[0].First != 10 {
		t.Errorf("shortfalls = %+v", plan.Shortfalls)
	}
}

func TestPlanIndependentAmountKinds(t *testing.T) {
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "3", UserID: 1, First: 100, Second: 40},
	}
	plan := PlanDeductions(
		[]NumberTarget{{Number: "3", First: 25, Second: 40}},
		entries, originalsFrom(entries),
	)
	if len(plan.Items) != 1 {
		t.Fatalf("items = %+v", plan.Items)
	}
	if plan.Items[0].First != 25 || plan.Items[0].Second != 40 {
		t.Errorf("item = %+v", plan.Items[0])
	}
}

func TestPlanZeroTargetProducesNothing(t *testing.T) {
	entries := []EntryAmounts{{ID: 1, UnitID: 1, Number: "4", UserID: 1, First: 10}}
	plan := PlanDeductions([]NumberTarget{{Number: "4"}}, entries, originalsFrom(entries))
	if len(plan.Items) != 0 || len(plan.Shortfalls) != 0 {
		t.Errorf("plan = %+v", plan)
	}
}
