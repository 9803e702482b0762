package cypher

import (
	"regexp"
	"strconv"
	"strings"
)

// compiler holds the mutable state while turning a Cypher query string into
// a Query. One compiler instance handles exactly one query.
type compiler struct {
	nodes     []QueryNode
	edges     []QueryEdge
	byName    map[string]uint32
	negLabels map[uint32][]string
	edgeVars  map[string]int
}

func newCompiler() *compiler {
	return &compiler{byName: make(map[string]uint32), negLabels: make(map[uint32][]string)}
}

// Compile parses a Cypher query string into its intermediate
// representation. A malformed query returns a wrapped ErrParse.
func Compile(query string) (*Query, error) {
	c := newCompiler()

	matchSeg, whereSeg, err := splitClauses(query)
	if err != nil {
		return nil, err
	}

	for _, pathItem := range splitTopLevel(matchSeg, ',') {
		pathItem = strings.TrimSpace(pathItem)
		if pathItem == "" {
			continue
		}
		if err := c.compilePath(pathItem); err != nil {
			return nil, err
		}
	}

	if whereSeg != "" {
		c.applyWhere(whereSeg)
	}

	for id, negs := range c.negLabels {
		n := &c.nodes[id]
		tokens := negTokens(negs)
		if n.Label == "" {
			n.Label = tokens
		} else {
			n.Label = n.Label + ";" + tokens
		}
	}

	return &Query{Nodes: c.nodes, Edges: c.edges}, nil
}

func negTokens(labels []string) string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = "~" + l
	}
	return strings.Join(out, ";")
}

// splitClauses locates the WHERE and RETURN keywords (at bracket depth 0)
// and returns the MATCH-clause body (with the leading MATCH keywords
// stripped) and the WHERE-clause body (possibly empty).
func splitClauses(query string) (matchSeg, whereSeg string, err error) {
	matchIdx := findKeyword(query, "MATCH")
	if matchIdx < 0 {
		return "", "", wrapParse("no MATCH clause found")
	}
	whereIdx := findKeyword(query, "WHERE")
	returnIdx := findKeyword(query, "RETURN")

	end := len(query)
	if returnIdx >= 0 {
		end = returnIdx
	}
	matchEnd := end
	if whereIdx >= 0 {
		matchEnd = whereIdx
		whereSeg = strings.TrimSpace(query[whereIdx+len("WHERE") : end])
	}
	matchSeg = query[matchIdx+len("MATCH") : matchEnd]
	// Fold any additional top-level MATCH keywords into the same comma
	// list, per §4.3's "multiple comma-separated MATCH paths".
	matchSeg = regexp.MustCompile(`(?i)\bMATCH\b`).ReplaceAllString(matchSeg, ",")
	return matchSeg, whereSeg, nil
}

func wrapParse(msg string) error {
	return &parseError{msg: msg}
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return "cypher: parse error: " + e.msg }
func (e *parseError) Unwrap() error { return ErrParse }

// compilePath parses one comma-separated path item: a possible
// shortestPath()/allShortestPaths() wrapper, an optional path-variable
// binding ("p = "), then an alternating node/edge chain.
func (c *compiler) compilePath(item string) error {
	item = strings.TrimSpace(item)

	shortest := true
	isWrappedStar := false
	lower := strings.ToLower(item)
	if idx := strings.Index(lower, "allshortestpaths("); idx >= 0 {
		shortest, isWrappedStar = false, true
		item = unwrapFuncCall(item, idx, len("allshortestpaths("))
	} else if idx := strings.Index(lower, "shortestpath("); idx >= 0 {
		shortest, isWrappedStar = true, true
		item = unwrapFuncCall(item, idx, len("shortestpath("))
	}

	// Strip a leading "var = " path-variable binding.
	if m := pathVarAssignRe.FindStringSubmatch(item); m != nil {
		item = item[len(m[0]):]
	}

	return c.compileChain(item, shortest, isWrappedStar)
}

var pathVarAssignRe = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_]*\s*=\s*`)

// unwrapFuncCall returns the content of the balanced-paren call starting at
// item[idx:idx+prefixLen-1] (the '(' immediately after the function name).
func unwrapFuncCall(item string, idx, prefixLen int) string {
	openAt := idx + prefixLen - 1
	content, _, _, ok := balancedParen(item, openAt)
	if !ok {
		return item
	}
	return content
}

// compileChain walks alternating node/edge tokens in a single path pattern.
func (c *compiler) compileChain(pattern string, defaultShortest, forceStar bool) error {
	pos := 0
	prevNode := int64(-1)
	prevClose := -1

	for {
		content, openIdx, closeIdx, ok := balancedParen(pattern, pos)
		if !ok {
			break
		}
		nodeID, err := c.resolveNode(content)
		if err != nil {
			return err
		}

		if prevNode >= 0 {
			edgeSeg := pattern[prevClose:openIdx]
			if err := c.compileEdge(edgeSeg, uint32(prevNode), nodeID, defaultShortest, forceStar); err != nil {
				return err
			}
		}

		prevNode = int64(nodeID)
		prevClose = closeIdx
		pos = closeIdx
	}

	if prevNode < 0 {
		return wrapParse("no node pattern found in path")
	}
	return nil
}

// resolveNode parses "(var:Label1:Label2 {name:'x', ...})" content and
// returns the dense QueryNode id, creating the node (or reusing the one
// already bound to var) as needed.
func (c *compiler) resolveNode(content string) (uint32, error) {
	content = strings.TrimSpace(content)

	var props string
	if brace := strings.IndexByte(content, '{'); brace >= 0 {
		props = content[brace:]
		content = strings.TrimSpace(content[:brace])
	}

	parts := strings.Split(content, ":")
	varName := strings.TrimSpace(parts[0])
	var labels []string
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p != "" {
			labels = append(labels, p)
		}
	}

	id, existed := c.getOrCreateNode(varName)
	if len(labels) > 0 {
		spec := strings.Join(labels, ";")
		if c.nodes[id].Label == "" {
			c.nodes[id].Label = spec
		} else if !existed {
			c.nodes[id].Label = spec
		}
	}

	if props != "" {
		if m := namePropRe.FindStringSubmatch(props); m != nil {
			c.nodes[id].Filter = &NodeFilter{NodeID: id, Pattern: "^" + regexp.QuoteMeta(m[1]) + "$"}
		}
	}

	return id, nil
}

var namePropRe = regexp.MustCompile(`name\s*:\s*['"]([^'"]*)['"]`)

// getOrCreateNode resolves a (possibly empty/anonymous) variable name to a
// dense QueryNode id, creating a fresh node when the name is empty or not
// yet seen. existed reports whether an already-bound node was reused.
func (c *compiler) getOrCreateNode(name string) (id uint32, existed bool) {
	if name != "" {
		if id, ok := c.byName[name]; ok {
			return id, true
		}
	}
	id = uint32(len(c.nodes))
	c.nodes = append(c.nodes, QueryNode{ID: id, Name: name})
	if name != "" {
		c.byName[name] = id
	}
	return id, false
}

// compileEdge parses the syntax between two node patterns — e.g. "-[e1:REL]->",
// "<-[e1:REL]-", "-->", "-[*]->", "-[:REL*2..2]->", "-[*=A;B]->" — and
// either appends a plain QueryEdge, a star QueryEdge, or desugars a
// fixed-length star into a chain of unit edges through anonymous
// intermediate nodes (§4.3).
func (c *compiler) compileEdge(seg string, left, right uint32, defaultShortest, forceStar bool) error {
	backward := strings.HasPrefix(strings.TrimSpace(seg), "<")
	src, dst := left, right
	if backward {
		src, dst = right, left
	}

	bracket := ""
	if lb := strings.IndexByte(seg, '['); lb >= 0 {
		if rb := strings.IndexByte(seg, ']'); rb > lb {
			bracket = seg[lb+1 : rb]
		}
	}
	if bracket == "" {
		c.edges = append(c.edges, QueryEdge{Src: src, Dst: dst, Label: "ANY", Timestamp: TimestampUnordered})
		return nil
	}

	info := parseRelBracket(bracket)
	if info.varName != "" {
		// Edge variables are not resolved to node ids; record nothing
		// structural here. They matter only for WHERE time-ordering,
		// which applyWhere locates by re-scanning the raw query text.
		c.edgeVarIndex(info.varName, len(c.edges))
	}

	if !info.isStar {
		label := info.typeSpec
		if label == "" {
			label = "ANY"
		}
		c.edges = append(c.edges, QueryEdge{Src: src, Dst: dst, Label: label, Timestamp: TimestampUnordered})
		return nil
	}

	if info.minHops >= 0 && info.minHops == info.maxHops {
		// Fixed-length: desugar into minHops unit edges through fresh
		// anonymous intermediate nodes.
		label := info.typeSpec
		if label == "" {
			label = "ANY"
		}
		prev := src
		for i := 0; i < info.minHops; i++ {
			next := dst
			if i < info.minHops-1 {
				next, _ = c.getOrCreateNode("")
			}
			c.edges = append(c.edges, QueryEdge{Src: prev, Dst: next, Label: label, Timestamp: TimestampUnordered})
			prev = next
		}
		return nil
	}

	shortest := defaultShortest
	_ = forceStar
	c.edges = append(c.edges, QueryEdge{
		Src: src, Dst: dst, Label: "ANY", Timestamp: TimestampUnordered,
		Star: &StarSpec{Shortest: shortest, LabelMask: info.labelRestriction},
	})
	return nil
}

// edgeVarIndex remembers which QueryEdge index a Cypher edge variable maps
// to, for applyWhere's temporal-ordering pass.
func (c *compiler) edgeVarIndex(name string, idx int) {
	if c.edgeVars == nil {
		c.edgeVars = make(map[string]int)
	}
	c.edgeVars[name] = idx
}

type relInfo struct {
	varName          string
	typeSpec         string
	isStar           bool
	labelRestriction string
	minHops, maxHops int
}

// parseRelBracket parses the content of a "[...]" relationship pattern.
func parseRelBracket(content string) relInfo {
	content = strings.TrimSpace(content)
	starIdx := strings.IndexByte(content, '*')
	if starIdx < 0 {
		v, t := splitVarType(content)
		return relInfo{varName: v, typeSpec: t, minHops: -1, maxHops: -1}
	}

	before := content[:starIdx]
	after := strings.TrimSpace(content[starIdx+1:])
	v, t := splitVarType(before)

	info := relInfo{varName: v, isStar: true, minHops: -1, maxHops: -1}
	switch {
	case strings.HasPrefix(after, "="):
		info.labelRestriction = strings.TrimSpace(after[1:])
	case after == "":
		info.labelRestriction = t
	default:
		info.labelRestriction = t
		if dots := strings.Index(after, ".."); dots >= 0 {
			lo, _ := strconv.Atoi(strings.TrimSpace(after[:dots]))
			hi, _ := strconv.Atoi(strings.TrimSpace(after[dots+2:]))
			info.minHops, info.maxHops = lo, hi
		} else if n, err := strconv.Atoi(after); err == nil {
			info.minHops, info.maxHops = n, n
		}
	}
	return info
}

func splitVarType(s string) (varName, typeSpec string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	parts := strings.SplitN(s, ":", 2)
	varName = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		typeSpec = strings.TrimSpace(parts[1])
	}
	return varName, typeSpec
}
