// Package stringalgos implements the edit-distance family of algorithms
// the textual predicates use to compare entity text against targets,
// substrings, and wildcard patterns.
package stringalgos

import "strings"

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// EditDistance returns the Levenshtein distance between s1 and s2: the
// minimum number of single-character insertions, deletions, or
// substitutions needed to turn s1 into s2.
func EditDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	m := make([][]int, len(r1)+1)
	for i := range m {
		m[i] = make([]int, len(r2)+1)
		m[i][0] = i
	}
	for j := range m[0] {
		m[0][j] = j
	}

	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			m[i][j] = min3(1+m[i-1][j], 1+m[i][j-1], cost+m[i-1][j-1])
		}
	}
	return m[len(r1)][len(r2)]
}

// RelativeEditDistance normalizes EditDistance into [0, 1]: 0 if the
// strings are identical, 1 if they share nothing.
func RelativeEditDistance(s1, s2 string) float64 {
	if s1 == "" && s2 == "" {
		return 0.0
	}
	maxLen := len([]rune(s1))
	if l := len([]rune(s2)); l > maxLen {
		maxLen = l
	}
	return float64(EditDistance(s1, s2)) / float64(maxLen)
}

// SubstringEditDistance returns the minimum number of edits to t required
// to make it a substring of s.
func SubstringEditDistance(s, t string) int {
	rs, rt := []rune(s), []rune(t)
	if len(rs) == 0 {
		return len(rt)
	}
	if len(rt) == 0 {
		return 0
	}

	m := make([][]int, len(rs)+1)
	for i := range m {
		m[i] = make([]int, len(rt)+1)
	}
	for j := range m[0] {
		m[0][j] = j
	}

	for i := 1; i <= len(rs); i++ {
		for j := 1; j <= len(rt); j++ {
			cost := 1
			if rs[i-1] == rt[j-1] {
				cost = 0
			}
			m[i][j] = min3(1+m[i-1][j], 1+m[i][j-1], cost+m[i-1][j-1])
		}
	}

	best := m[0][len(rt)]
	for i := 1; i <= len(rs); i++ {
		if m[i][len(rt)] < best {
			best = m[i][len(rt)]
		}
	}
	return best
}

// PatternEditDistance returns the minimum number of edits to s required to
// match pattern, where any pattern character appearing as a key in
// standsFor matches any character in the corresponding value.
func PatternEditDistance(s, pattern string, standsFor map[rune]string) int {
	rs, rp := []rune(s), []rune(pattern)
	if len(rs) == 0 {
		return len(rp)
	}
	if len(rp) == 0 {
		return len(rs)
	}

	m := make([][]int, len(rs)+1)
	for i := range m {
		m[i] = make([]int, len(rp)+1)
		m[i][0] = i
	}
	for j := range m[0] {
		m[0][j] = j
	}

	for i := 1; i <= len(rs); i++ {
		for j := 1; j <= len(rp); j++ {
			var cost int
			if class, ok := standsFor[rp[j-1]]; ok {
				if strings.ContainsRune(class, rs[i-1]) {
					cost = 0
				} else {
					cost = 1
				}
			} else if rs[i-1] == rp[j-1] {
				cost = 0
			} else {
				cost = 1
			}
			m[i][j] = min3(1+m[i-1][j], 1+m[i][j-1], cost+m[i-1][j-1])
		}
	}
	return m[len(rs)][len(rp)]
}
