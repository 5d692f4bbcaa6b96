package scpi

import (
	"fmt"
	"strings"
)

// treeNode is one mnemonic level of the static command tree. Nodes are
// built once at context creation and never mutated afterwards.
type treeNode struct {
	mnemonic string // as written in the pattern, e.g. "MEASure"
	short    string // canonical abbreviation, upper case
	long     string // full mnemonic, upper case
	optional bool   // pattern wrapped the segment in brackets
	numeric  bool   // pattern declared a numeric suffix (#)

	parent   *treeNode
	children []*treeNode

	set   *Command // handler for the plain form
	query *Command // handler for the ? form
}

// commonCommand is a *XXX command; common headers live outside the tree.
type commonCommand struct {
	mnemonic string // upper case, without * and ?
	query    bool
	cmd      *Command
}

type commandTree struct {
	root   *treeNode
	common []commonCommand
}

// suffixAbsent marks a numeric header position whose suffix was omitted;
// CommandNumbers substitutes the caller's default.
const suffixAbsent int32 = -1

type patternSegment struct {
	mnemonic string
	optional bool
	numeric  bool
}

// splitPattern breaks "SOURce:VOLTage[:LEVel]" into its segments,
// honoring brackets around whole segments.
func splitPattern(pattern string) ([]patternSegment, error) {
	var segs []patternSegment
	optional := false
	start := 0

	flush := func(end int) {
		raw := pattern[start:end]
		raw = strings.TrimPrefix(raw, ":")
		if raw == "" {
			return
		}
		numeric := strings.HasSuffix(raw, "#")
		raw = strings.TrimSuffix(raw, "#")
		segs = append(segs, patternSegment{mnemonic: raw, optional: optional, numeric: numeric})
	}

	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '[':
			flush(i)
			if optional {
				return nil, fmt.Errorf("nested bracket in pattern %q", pattern)
			}
			optional = true
			start = i + 1
		case ']':
			if !optional {
				return nil, fmt.Errorf("unbalanced bracket in pattern %q", pattern)
			}
			flush(i)
			optional = false
			start = i + 1
		case ':':
			if i == start {
				continue // leading colon of a segment
			}
			flush(i)
			start = i
		}
	}
	if optional {
		return nil, fmt.Errorf("unbalanced bracket in pattern %q", pattern)
	}
	flush(len(pattern))

	if len(segs) == 0 {
		return nil, fmt.Errorf("empty pattern %q", pattern)
	}
	return segs, nil
}

// shortForm extracts the canonical abbreviation: the leading run of
// upper-case letters and digits of the mnemonic.
func shortForm(mnemonic string) string {
	for i := 0; i < len(mnemonic); i++ {
		c := mnemonic[i]
		if c >= 'a' && c <= 'z' {
			return strings.ToUpper(mnemonic[:i])
		}
	}
	return strings.ToUpper(mnemonic)
}

func newCommandTree(commands []*Command) (*commandTree, error) {
	t := &commandTree{root: &treeNode{}}
	for _, cmd := range commands {
		if err := t.register(cmd); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *commandTree) register(cmd *Command) error {
	pattern := cmd.Pattern
	if pattern == "" {
		return fmt.Errorf("empty command pattern")
	}

	query := strings.HasSuffix(pattern, "?")
	pattern = strings.TrimSuffix(pattern, "?")

	if strings.HasPrefix(pattern, "*") {
		mnemonic := strings.ToUpper(pattern[1:])
		if mnemonic == "" {
			return fmt.Errorf("empty common command pattern %q", cmd.Pattern)
		}
		for _, cc := range t.common {
			if cc.mnemonic == mnemonic && cc.query == query {
				return nil // first registration wins
			}
		}
		t.common = append(t.common, commonCommand{mnemonic: mnemonic, query: query, cmd: cmd})
		return nil
	}

	segs, err := splitPattern(strings.TrimPrefix(pattern, ":"))
	if err != nil {
		return err
	}

	node := t.root
	for _, seg := range segs {
		node = node.child(seg)
	}
	if query {
		if node.query == nil {
			node.query = cmd
		}
	} else {
		if node.set == nil {
			node.set = cmd
		}
	}
	return nil
}

// child finds or creates the child node for a pattern segment
func (n *treeNode) child(seg patternSegment) *treeNode {
	long := strings.ToUpper(seg.mnemonic)
	for _, c := range n.children {
		if c.long == long && c.numeric == seg.numeric {
			if seg.optional {
				c.optional = true
			}
			return c
		}
	}
	c := &treeNode{
		mnemonic: seg.mnemonic,
		short:    shortForm(seg.mnemonic),
		long:     long,
		optional: seg.optional,
		numeric:  seg.numeric,
		parent:   n,
	}
	n.children = append(n.children, c)
	return c
}

// matchPattern checks a header mnemonic against a pattern mnemonic,
// accepting the short form, the long form, and any prefix in between:
// "MEASure" matches MEAS, MEASUR and MEASURE but not MEA.
func matchPattern(pattern, value string) bool {
	value = strings.ToUpper(value)

	pIdx := 0
	vIdx := 0

	for pIdx < len(pattern) && vIdx < len(value) {
		pChar := pattern[pIdx]
		vChar := value[vIdx]

		pCharUpper := pChar
		if pChar >= 'a' && pChar <= 'z' {
			pCharUpper = pChar - 32
		}

		if pCharUpper == vChar {
			pIdx++
			vIdx++
			continue
		}

		// Skip lowercase letters in pattern (optional long form)
		if pChar >= 'a' && pChar <= 'z' {
			pIdx++
			continue
		}

		return false
	}

	if vIdx == len(value) {
		for pIdx < len(pattern) && pattern[pIdx] >= 'a' && pattern[pIdx] <= 'z' {
			pIdx++
		}
		return pIdx == len(pattern)
	}

	return false
}

// headerSegment is one :-delimited piece of a compound header, split into
// its mnemonic and optional trailing numeric suffix.
type headerSegment struct {
	mnemonic string
	suffix   int32 // suffixAbsent when no digits were present
}

func splitHeader(header string) []headerSegment {
	parts := strings.Split(header, ":")
	segs := make([]headerSegment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		end := len(p)
		for end > 0 && isDigit(p[end-1]) {
			end--
		}
		seg := headerSegment{mnemonic: p[:end], suffix: suffixAbsent}
		if end < len(p) {
			var v int32
			for i := end; i < len(p); i++ {
				v = v*10 + int32(p[i]-'0')
			}
			seg.suffix = v
		}
		segs = append(segs, seg)
	}
	return segs
}

// matchResult carries the outcome of a tree resolution
type matchResult struct {
	cmd         *Command
	node        *treeNode
	suffixes    [maxHeaderSuffixes]int32
	suffixCount int
	errCode     int16 // 0 on success
}

// resolve walks the tree for a compound header. start is the node whose
// children the first mnemonic is matched against: the root for absolute
// headers, the previously matched leaf's parent for relative ones.
func (t *commandTree) resolve(header string, start *treeNode) matchResult {
	query := strings.HasSuffix(header, "?")
	header = strings.TrimSuffix(header, "?")

	if start == nil {
		start = t.root
	}

	segs := splitHeader(header)
	if len(segs) == 0 {
		return matchResult{errCode: ErrUndefinedHeader}
	}

	var res matchResult
	leaf := matchSegments(start, segs, query, &res)
	if leaf == nil {
		return matchResult{errCode: ErrUndefinedHeader}
	}

	var cmd *Command
	if query {
		cmd = leaf.query
	} else {
		cmd = leaf.set
	}

	for i := 0; i < res.suffixCount; i++ {
		s := res.suffixes[i]
		if s == suffixAbsent {
			continue
		}
		if s == 0 || (cmd.MaxSuffix > 0 && s > cmd.MaxSuffix) {
			return matchResult{errCode: ErrHeaderSuffixOutOfRange}
		}
	}

	res.cmd = cmd
	return res
}

// matchSegments recursively matches header segments at node, trying
// direct children first and then descending through skippable optional
// children. It returns the leaf holding the requested handler form.
func matchSegments(node *treeNode, segs []headerSegment, query bool, res *matchResult) *treeNode {
	if len(segs) == 0 {
		leaf := handlerNode(node, query)
		if leaf != nil {
			// relative headers in the same message resolve against the
			// level of the last explicitly written mnemonic, not against
			// implicitly descended optional levels
			res.node = node
		}
		return leaf
	}

	seg := segs[0]
	for _, c := range node.children {
		if !segmentMatches(c, seg) {
			continue
		}
		mark := res.suffixCount
		if c.numeric && res.suffixCount < maxHeaderSuffixes {
			res.suffixes[res.suffixCount] = seg.suffix
			res.suffixCount++
		}
		if leaf := matchSegments(c, segs[1:], query, res); leaf != nil {
			return leaf
		}
		res.suffixCount = mark
	}

	// an optional level may be omitted from the header entirely
	for _, c := range node.children {
		if !c.optional {
			continue
		}
		mark := res.suffixCount
		if c.numeric && res.suffixCount < maxHeaderSuffixes {
			res.suffixes[res.suffixCount] = suffixAbsent
			res.suffixCount++
		}
		if leaf := matchSegments(c, segs, query, res); leaf != nil {
			return leaf
		}
		res.suffixCount = mark
	}

	return nil
}

func segmentMatches(node *treeNode, seg headerSegment) bool {
	if seg.suffix != suffixAbsent && !node.numeric {
		return false
	}
	return matchPattern(node.mnemonic, seg.mnemonic)
}

// handlerNode resolves trailing optional levels: SOURce:VOLTage[:LEVel]
// matched by SOUR:VOLT still dispatches the LEVel leaf.
func handlerNode(node *treeNode, query bool) *treeNode {
	if query && node.query != nil {
		return node
	}
	if !query && node.set != nil {
		return node
	}
	for _, c := range node.children {
		if !c.optional {
			continue
		}
		if leaf := handlerNode(c, query); leaf != nil {
			return leaf
		}
	}
	return nil
}

// resolveCommon looks up a *XXX header. Common command mnemonics have no
// short/long split; matching is a case-insensitive comparison.
func (t *commandTree) resolveCommon(header string) matchResult {
	query := strings.HasSuffix(header, "?")
	mnemonic := strings.ToUpper(strings.TrimSuffix(strings.TrimPrefix(header, "*"), "?"))

	for _, cc := range t.common {
		if cc.query == query && cc.mnemonic == mnemonic {
			return matchResult{cmd: cc.cmd}
		}
	}
	return matchResult{errCode: ErrUndefinedHeader}
}
