package game

import "strings"

// Matches evaluates an admin search query against a number string.
//
// The grammar is evaluated in a fixed precedence order and the first
// matching rule wins. Admin workflows depend on the exact ordering to
// distinguish e.g. "all numbers starting with 1" from "numbers with 1 in
// position 2", so the rule families below must not be reordered.
//
//	starts:<s>   prefix match
//	ends:<s>     suffix match
//	middle:<d>   3-digit numbers whose middle digit is d
//	X*, X**...   first digit is X
//	*X, **...X   last digit is X
//	*X*, *X**... second digit is X
//	**X*         third digit is X
//	<s>*         legacy prefix
//	*<s>         legacy suffix
//	<a>*<b>      legacy prefix AND suffix
//	<s>          substring
//
// An empty query matches nothing. Matching is case-insensitive.
func Matches(number, query string) bool {
	number = strings.ToLower(strings.TrimSpace(number))
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return false
	}

	if s, ok := strings.CutPrefix(query, "starts:"); ok {
		return s != "" && strings.HasPrefix(number, s)
	}
	if s, ok := strings.CutPrefix(query, "ends:"); ok {
		return s != "" && strings.HasSuffix(number, s)
	}
	if d, ok := strings.CutPrefix(query, "middle:"); ok {
		return len(d) == 1 && len(number) == 3 && number[1] == d[0]
	}

	if strings.Contains(query, "*") {
		if ok, matched := matchPositional(number, query); ok {
			return matched
		}
		return matchLegacyWildcard(number, query)
	}

	return strings.Contains(number, query)
}

// matchPositional handles the single-digit positional wildcard families.
// The first return value reports whether the query belongs to one of the
// positional families at all; only then is the second value meaningful.
func matchPositional(number, query string) (bool, bool) {
	leading := 0
	for leading < len(query) && query[leading] == '*' {
		leading++
	}
	trailing := 0
	for trailing < len(query) && query[len(query)-1-trailing] == '*' {
		trailing++
	}
	// Exactly one non-star character between the star runs.
	if leading+trailing+1 != len(query) {
		return false, false
	}
	ch := query[leading]

	switch {
	case leading == 0 && trailing >= 1:
		// X*, X**... first digit
		return true, digitAt(number, 0, ch)
	case leading >= 1 && trailing == 0:
		// *X, **...X last digit
		return true, len(number) > 0 && number[len(number)-1] == ch
	case leading == 1 && trailing >= 1:
		// *X*, *X**... second digit
		return true, digitAt(number, 1, ch)
	case leading == 2 && trailing == 1:
		// **X* third digit
		return true, digitAt(number, 2, ch)
	}
	return false, false
}

// matchLegacyWildcard handles the older multi-character wildcard forms.
func matchLegacyWildcard(number, query string) bool {
	if strings.HasSuffix(query, "*") && strings.Count(query, "*") == 1 {
		return strings.HasPrefix(number, strings.TrimSuffix(query, "*"))
	}
	if strings.HasPrefix(query, "*") && strings.Count(query, "*") == 1 {
		return strings.HasSuffix(number, strings.TrimPrefix(query, "*"))
	}
	parts := strings.Split(query, "*")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return strings.HasPrefix(number, parts[0]) && strings.HasSuffix(number, parts[1])
	}
	return false
}

func digitAt(number string, idx int, ch byte) bool {
	return idx < len(number) && number[idx] == ch
}
