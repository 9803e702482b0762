package cypher

import (
	"regexp"
	"strings"
)

// applyWhere scans a WHERE clause body for the handful of predicate shapes
// §4.3/§4.5 require, and folds each into the already-built node/edge IR.
// Predicates this scanner doesn't recognize are silently ignored — per
// §4.3's failure policy, an unrecognized WHERE fragment should narrow
// nothing rather than abort the whole query.
func (c *compiler) applyWhere(where string) {
	for _, group := range splitTopLevel(where, ',') {
		for _, clause := range splitAnd(group) {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			switch {
			case containsRe.MatchString(clause):
				c.applyContains(clause)
			case notLabelsRe.MatchString(clause):
				c.applyNotLabels(clause)
			case timeOrderRe.MatchString(clause):
				c.applyTimeOrder(clause)
			case listComprehensionRe.MatchString(clause):
				c.applyListComprehension(clause)
			}
		}
	}
}

var andSplitRe = regexp.MustCompile(`(?i)\s+AND\s+`)

// splitAnd splits a WHERE group on top-level " AND " boundaries, respecting
// bracket depth so a list comprehension's own "WHERE x = ..." isn't split.
func splitAnd(s string) []string {
	depth := 0
	var parts []string
	last := 0
	locs := andSplitRe.FindAllStringIndex(s, -1)
	for _, loc := range locs {
		for i := last; i < loc[0]; i++ {
			switch s[i] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			}
		}
		if depth == 0 {
			parts = append(parts, s[last:loc[0]])
			last = loc[1]
		}
	}
	parts = append(parts, s[last:])
	return parts
}

var (
	containsRe          = regexp.MustCompile(`(?i)^\s*([A-Za-z_][A-Za-z0-9_]*)\.name\s+CONTAINS\s+['"]([^'"]*)['"]\s*$`)
	notLabelsRe         = regexp.MustCompile(`(?i)^\s*NOT\s+labels\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)\s*=\s*['"]?:?([A-Za-z_][A-Za-z0-9_]*)['"]?\s*$`)
	timeOrderRe         = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\.time\s*(<|<=|>|>=)\s*([A-Za-z_][A-Za-z0-9_]*)\.time\s*$`)
	listComprehensionRe = regexp.MustCompile(`(?is)^\s*\[\s*x\s+IN\s+labels\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)\s+WHERE\s+x\s*=\s*['"]([^'"]*)['"]\s*\]`)
)

// applyContains handles "a.name CONTAINS 'substr'" — a substring filter on
// the node bound to the given variable (§3.6, §4.5.1).
func (c *compiler) applyContains(clause string) {
	m := containsRe.FindStringSubmatch(clause)
	if m == nil {
		return
	}
	id, ok := c.byName[m[1]]
	if !ok {
		return
	}
	c.nodes[id].Filter = &NodeFilter{NodeID: id, Pattern: regexp.QuoteMeta(m[2])}
}

// applyNotLabels handles "NOT labels(a) = ':Bot'" — a negative label
// constraint folded into the node's label-mask spec at the end of
// Compile (§4.5.1).
func (c *compiler) applyNotLabels(clause string) {
	m := notLabelsRe.FindStringSubmatch(clause)
	if m == nil {
		return
	}
	id, ok := c.byName[m[1]]
	if !ok {
		return
	}
	c.negLabels[id] = append(c.negLabels[id], m[2])
}

// applyTimeOrder handles "e1.time < e2.time" by assigning small, distinct
// Timestamp values to the two referenced edges so the matcher's temporal
// check (§4.5.2) enforces the requested relative order. "<" style
// comparisons get 5 then 10; ">" style is handled by swapping which edge
// gets which value.
func (c *compiler) applyTimeOrder(clause string) {
	m := timeOrderRe.FindStringSubmatch(clause)
	if m == nil {
		return
	}
	leftVar, op, rightVar := m[1], m[2], m[3]
	leftIdx, ok1 := c.edgeVars[leftVar]
	rightIdx, ok2 := c.edgeVars[rightVar]
	if !ok1 || !ok2 {
		return
	}
	earlier, later := leftIdx, rightIdx
	if op == ">" || op == ">=" {
		earlier, later = later, earlier
	}
	c.edges[earlier].Timestamp = 5
	c.edges[later].Timestamp = 10
}

// applyListComprehension handles "[x IN labels(p) WHERE x = 'Label']",
// APOC's idiom for restricting which edge labels a shortestPath/
// allShortestPaths star edge may traverse (§4.7). p must name the path
// variable bound by the star edge; since this compiler doesn't track path
// variables separately from their sole star edge, it applies the
// restriction to every star edge in the query that has no label yet.
func (c *compiler) applyListComprehension(clause string) {
	m := listComprehensionRe.FindStringSubmatch(clause)
	if m == nil {
		return
	}
	label := m[2]
	for i := range c.edges {
		if c.edges[i].Star != nil && c.edges[i].Star.LabelMask == "" {
			c.edges[i].Star.LabelMask = label
		}
	}
}
