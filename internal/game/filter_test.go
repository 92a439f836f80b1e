package game

import (
	"reflect"
	"testing"
)

func TestComparisonEval(t *testing.T) {
	tests := []struct {
		op     string
		value  string
		amount int64
		want   bool
	}{
		{">=", "1", 1, true},
		{">=", "1", 0, false},
		{">", "10", 10, false},
		{">", "10", 11, true},
		{"<=", "5", 5, true},
		{"<", "5", 5, false},
		{"==", "7", 7, true},
		{"==", "7", 8, false},
		{">=", "", 0, true},      // blank value passes
		{">=", "abc", 0, true},   // unparseable value passes
		{"between", "5", 0, true}, // unknown operator passes
	}
	for _, tt := range tests {
		c := Comparison{Op: tt.op, Value: tt.value}
		if got := c.Eval(tt.amount); got != tt.want {
			t.Errorf("Comparison{%q,%q}.Eval(%d) = %v, want %v", tt.op, tt.value, tt.amount, got, tt.want)
		}
	}
}

func TestSearchFilter(t *testing.T) {
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "123", Username: "alice", First: 40},
		{ID: 2, UnitID: 2, Number: "123", Username: "bob", First: 10},
		{ID: 3, UnitID: 3, Number: "123", Username: "alice", First: 5},
		{ID: 4, UnitID: 4, Number: "456", Username: "carol", First: 20},
		{ID: 5, UnitID: 5, Number: "189", Username: "dave", First: 0, Second: 30},
	}

	got := SearchFilter(entries, "starts:1", KindFirst)
	if len(got) != 1 {
		t.Fatalf("expected one qualifying number, got %d: %+v", len(got), got)
	}
	if got[0].Number != "123" || got[0].Amount != 55 {
		t.Errorf("got %+v", got[0])
	}
	// Contributing users de-duplicated, first-seen order.
	if !reflect.DeepEqual(got[0].Users, []string{"alice", "bob"}) {
		t.Errorf("users = %v", got[0].Users)
	}

	// 189 has zero First total and must not qualify for KindFirst,
	// but does for KindSecond.
	second := SearchFilter(entries, "starts:1", KindSecond)
	if len(second) != 1 || second[0].Number != "189" || second[0].Amount != 30 {
		t.Errorf("second kind: %+v", second)
	}
}

func TestSearchFilterSortedAscending(t *testing.T) {
	entries := []EntryAmounts{
		{ID: 1, UnitID: 1, Number: "90", Username: "a", First: 1},
		{ID: 2, UnitID: 2, Number: "09", Username: "a", First: 1},
		{ID: 3, UnitID: 3, Number: "19", Username: "a", First: 1},
	}
	got := SearchFilter(entries, "ends:9", KindFirst)
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].Number != "09" || got[1].Number != "19" {
		t.Errorf("not sorted: %+v", got)
	}
}

func TestLimitFilter(t *testing.T) {
	summaries := map[string]*NumberSummary{
		"07": {Number: "07", FirstTotal: 100, SecondTotal: 0, EntryCount: 2},
		"08": {Number: "08", FirstTotal: 15, SecondTotal: 40, EntryCount: 1},
		"09": {Number: "09", FirstTotal: 10, SecondTotal: 10, EntryCount: 1},
	}
	hasAny := Comparison{Op: ">=", Value: "1"}

	got := LimitFilter(summaries, 20, 20, hasAny, hasAny)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(got), got)
	}
	if got[0].Number != "07" || got[0].FirstResult != 80 || got[0].SecondResult != 0 {
		t.Errorf("07: %+v", got[0])
	}
	if got[1].Number != "08" || got[1].FirstResult != 0 || got[1].SecondResult != 20 {
		t.Errorf("08: %+v", got[1])
	}
	// "09" is under both limits: both results zero, excluded.
}

func TestLimitFilterComparisonExcludes(t *testing.T) {
	summaries := map[string]*NumberSummary{
		"11": {Number: "11", FirstTotal: 100, SecondTotal: 100},
	}
	never := Comparison{Op: "<", Value: "0"}
	if got := LimitFilter(summaries, 10, 10, never, never); len(got) != 0 {
		t.Errorf("expected no rows, got %+v", got)
	}
	// One passing side is enough.
	pass := Comparison{Op: ">=", Value: "1"}
	if got := LimitFilter(summaries, 10, 10, never, pass); len(got) != 1 {
		t.Errorf("expected one row, got %+v", got)
	}
}
