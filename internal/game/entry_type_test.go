package game

import "testing"

func TestParseEntryType(t *testing.T) {
	for _, s := range []string{"open", "Akra", " RING ", "packet"} {
		if _, err := ParseEntryType(s); err != nil {
			t.Errorf("ParseEntryType(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseEntryType("double"); err == nil {
		t.Error("expected error for unknown entry type")
	}
}

func TestEntryTypeWidths(t *testing.T) {
	tests := []struct {
		et        EntryType
		width     int
		rangeSize int
	}{
		{Open, 1, 10},
		{Akra, 2, 100},
		{Ring, 3, 1000},
		{Packet, 4, 10000},
	}
	for _, tt := range tests {
		if tt.et.Width() != tt.width {
			t.Errorf("%s width = %d, want %d", tt.et, tt.et.Width(), tt.width)
		}
		if tt.et.RangeSize() != tt.rangeSize {
			t.Errorf("%s range = %d, want %d", tt.et, tt.et.RangeSize(), tt.rangeSize)
		}
	}
}

func TestPad(t *testing.T) {
	if got := Akra.Pad("7"); got != "07" {
		t.Errorf("Akra.Pad(7) = %q", got)
	}
	if got := Ring.Pad("42"); got != "042" {
		t.Errorf("Ring.Pad(42) = %q", got)
	}
	if got := Open.Pad("5"); got != "5" {
		t.Errorf("Open.Pad(5) = %q", got)
	}
	if got := Packet.Pad("12345"); got != "12345" {
		t.Errorf("over-width numbers must pass through, got %q", got)
	}
}

func TestValidNumber(t *testing.T) {
	if !Akra.ValidNumber("07") || !Akra.ValidNumber("7") {
		t.Error("short numeric strings are valid before padding")
	}
	if Akra.ValidNumber("123") {
		t.Error("over-width number accepted")
	}
	if Akra.ValidNumber("") || Akra.ValidNumber("a7") {
		t.Error("empty/non-numeric number accepted")
	}
}

func TestAllNumbers(t *testing.T) {
	open := Open.AllNumbers()
	if len(open) != 10 || open[0] != "0" || open[9] != "9" {
		t.Errorf("open range: %v", open)
	}
	ring := Ring.AllNumbers()
	if len(ring) != 1000 || ring[0] != "000" || ring[999] != "999" {
		t.Errorf("ring range ends: %s..%s (%d)", ring[0], ring[len(ring)-1], len(ring))
	}
	if Packet.AllNumbers() != nil {
		t.Error("packet must not enumerate its 10,000-number range")
	}
}
