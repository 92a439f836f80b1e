package game

// NumberSummary holds the per-number totals for one entry type.
type NumberSummary struct {
	Number      string `json:"number"`
	FirstTotal  int64  `json:"first_total"`
	SecondTotal int64  `json:"second_total"`
	EntryCount  int    `json:"entry_count"`
}

// EntryAmounts is the minimal view of a live entry the pure game logic
// operates on. Repositories map storage rows into this shape.
type EntryAmounts struct {
	ID         int
	UnitID     int // original transaction id for split rows, else ID
	Number     string
	UserID     int
	Username   string
	First      int64
	Second     int64
}

// Aggregate groups entries by number and sums amounts. One pass, order
// independent; numbers with no entries are simply absent from the map.
func Aggregate(entries []EntryAmounts) map[string]*NumberSummary {
	out := make(map[string]*NumberSummary)
	for _, e := range entries {
		s, ok := out[e.Number]
		if !ok {
			s = &NumberSummary{Number: e.Number}
			out[e.Number] = s
		}
		s.FirstTotal += e.First
		s.SecondTotal += e.Second
		s.EntryCount++
	}
	return out
}
