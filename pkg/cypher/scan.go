package cypher

import "strings"

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// (), [], or {} — the same "respect bracket depth" trick
// NornicDB's parseProperties uses for comma-separated property lists,
// generalized here to whole path lists.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// findKeyword returns the index of the first case-insensitive, word-
// bounded occurrence of kw in s at depth 0, or -1.
func findKeyword(s, kw string) int {
	upper := strings.ToUpper(s)
	kw = strings.ToUpper(kw)
	depth := 0
	for i := 0; i+len(kw) <= len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth != 0 {
			continue
		}
		if upper[i:i+len(kw)] != kw {
			continue
		}
		if i > 0 && isIdentByte(s[i-1]) {
			continue
		}
		end := i + len(kw)
		if end < len(s) && isIdentByte(s[end]) {
			continue
		}
		return i
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// balancedParen finds the substring inside the first "(...)" starting at or
// after start, respecting nested parens, and returns the content (without
// the outer parens), the index of the opening paren, and the index just
// past the closing paren.
func balancedParen(s string, start int) (content string, openIdx, end int, ok bool) {
	open := strings.IndexByte(s[start:], '(')
	if open < 0 {
		return "", 0, 0, false
	}
	open += start
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], open, i + 1, true
			}
		}
	}
	return "", 0, 0, false
}
