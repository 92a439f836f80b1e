package game

import (
	"fmt"
	"strings"
)

// EntryType identifies the game an entry belongs to. Each type fixes the
// number width and the size of the playable range.
type EntryType string

const (
	Open   EntryType = "open"   // 1 digit, 0-9
	Akra   EntryType = "akra"   // 2 digits, 00-99
	Ring   EntryType = "ring"   // 3 digits, 000-999
	Packet EntryType = "packet" // 4 digits, 0000-9999
)

type entryTypeInfo struct {
	width     int
	rangeSize int
}

var entryTypes = map[EntryType]entryTypeInfo{
	Open:   {width: 1, rangeSize: 10},
	Akra:   {width: 2, rangeSize: 100},
	Ring:   {width: 3, rangeSize: 1000},
	Packet: {width: 4, rangeSize: 10000},
}

// ParseEntryType validates a raw entry type string.
func ParseEntryType(s string) (EntryType, error) {
	et := EntryType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := entryTypes[et]; !ok {
		return "", fmt.Errorf("invalid entry type: %q", s)
	}
	return et, nil
}

// Width returns the fixed digit width for numbers of this type.
func (et EntryType) Width() int {
	return entryTypes[et].width
}

// RangeSize returns the count of playable numbers (10^width).
func (et EntryType) RangeSize() int {
	return entryTypes[et].rangeSize
}

// Valid reports whether the entry type is one of the four games.
func (et EntryType) Valid() bool {
	_, ok := entryTypes[et]
	return ok
}

// Pad zero-pads a number string to the type's fixed width.
// Strings already at or beyond the width are returned unchanged.
func (et EntryType) Pad(number string) string {
	w := entryTypes[et].width
	if len(number) >= w {
		return number
	}
	return strings.Repeat("0", w-len(number)) + number
}

// ValidNumber reports whether the string is a correctly sized numeric
// number for this type (after padding).
func (et EntryType) ValidNumber(number string) bool {
	if len(number) == 0 || len(number) > et.Width() {
		return false
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// AllNumbers enumerates every playable number for the type, zero-padded.
// Callers overlay this on aggregation results for "all numbers" views.
// Packet (10,000 numbers) is deliberately excluded; those views only list
// numbers that actually have entries.
func (et EntryType) AllNumbers() []string {
	if et == Packet {
		return nil
	}
	info := entryTypes[et]
	out := make([]string, 0, info.rangeSize)
	for i := 0; i < info.rangeSize; i++ {
		out = append(out, et.Pad(fmt.Sprintf("%d", i)))
	}
	return out
}
