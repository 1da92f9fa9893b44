package traj

import (
	"path"
	"strconv"
	"strings"
	"unicode"
)

// Mask is an atom selection expression. The supported syntax is:
//
//	*            all atoms
//	:1-3,7       residues by (1-based, sequential) number
//	:ALA,GL?     residues by name, with * and ? wildcards
//	@1-10,15     atoms by (1-based) number
//	@CA,H*       atoms by name
//	::A,B        chains
//	:1-3@CA      consecutive selectors intersect
//	! & | ( )    negation, intersection, union and grouping
//
// The resolved indexes are zero-based and increasing. A Mask that selects no atoms
// is an error.
type Mask string

// Select resolves the mask against top.
func (M Mask) Select(top *Topology) ([]int, error) {
	if top.Len() == 0 {
		return nil, newError(StateError, "Mask.Select", "mask %q applied to an empty topology", string(M))
	}
	p := &maskParser{src: string(M), top: top, res: top.Residues()}
	sel, err := p.parse()
	if err != nil {
		return nil, err
	}
	ret := make([]int, 0, len(sel))
	for i, v := range sel {
		if v {
			ret = append(ret, i)
		}
	}
	if len(ret) == 0 {
		return nil, newError(ConfigError, "Mask.Select", "mask %q selects zero atoms out of %d", string(M), top.Len())
	}
	return ret, nil
}

func (M Mask) String() string { return string(M) }

// AtomIndices is an explicit, ordered list of zero-based atom indexes. It is
// the alternative to a Mask string. The order is kept, as are repeated indexes.
type AtomIndices []int

// Select checks that every index is within top and returns a copy of the list.
func (A AtomIndices) Select(top *Topology) ([]int, error) {
	if len(A) == 0 {
		return nil, newError(ConfigError, "AtomIndices.Select", "empty atom index list")
	}
	n := top.Len()
	for k, v := range A {
		if v < 0 || v >= n {
			return nil, newError(BoundsError, "AtomIndices.Select", "atom index %d (position %d) out of range [0,%d)", v, k, n)
		}
	}
	return append([]int(nil), A...), nil
}

type maskParser struct {
	src string
	pos int
	top *Topology
	res []Residue
}

func (p *maskParser) errorf(format string, args ...interface{}) error {
	e := newError(ConfigError, "Mask.Select", format, args...)
	e.message = "mask " + strconv.Quote(p.src) + ": " + e.message
	return e
}

func (p *maskParser) skip() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *maskParser) peek() byte {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *maskParser) parse() ([]bool, error) {
	if strings.TrimSpace(p.src) == "" {
		return nil, p.errorf("empty mask")
	}
	sel, err := p.or()
	if err != nil {
		return nil, err
	}
	if c := p.peek(); c != 0 {
		return nil, p.errorf("unexpected %q at position %d", c, p.pos)
	}
	return sel, nil
}

func (p *maskParser) or() ([]bool, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek() == '|' {
		p.pos++
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		for i := range left {
			left[i] = left[i] || right[i]
		}
	}
	return left, nil
}

func (p *maskParser) and() ([]bool, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.peek() == '&' {
		p.pos++
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		for i := range left {
			left[i] = left[i] && right[i]
		}
	}
	return left, nil
}

func (p *maskParser) not() ([]bool, error) {
	if p.peek() == '!' {
		p.pos++
		sel, err := p.not()
		if err != nil {
			return nil, err
		}
		for i := range sel {
			sel[i] = !sel[i]
		}
		return sel, nil
	}
	return p.primary()
}

// primary parses a parenthesized expression or a run of selectors, which intersect.
func (p *maskParser) primary() ([]bool, error) {
	c := p.peek()
	if c == '(' {
		p.pos++
		sel, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return sel, nil
	}
	var sel []bool
	for {
		c = p.peek()
		if c != ':' && c != '@' && c != '*' {
			break
		}
		s, err := p.selector()
		if err != nil {
			return nil, err
		}
		if sel == nil {
			sel = s
			continue
		}
		for i := range sel {
			sel[i] = sel[i] && s[i]
		}
	}
	if sel == nil {
		if c == 0 {
			return nil, p.errorf("unexpected end of mask")
		}
		return nil, p.errorf("unexpected %q at position %d", c, p.pos)
	}
	return sel, nil
}

func (p *maskParser) selector() ([]bool, error) {
	n := p.top.Len()
	sel := make([]bool, n)
	switch {
	case p.src[p.pos] == '*':
		p.pos++
		for i := range sel {
			sel[i] = true
		}
		return sel, nil
	case strings.HasPrefix(p.src[p.pos:], "::"):
		p.pos += 2
		items, err := p.items()
		if err != nil {
			return nil, err
		}
		for i, at := range p.top.Atoms {
			for _, it := range items {
				if match(it, at.Chain) {
					sel[i] = true
					break
				}
			}
		}
	case p.src[p.pos] == ':':
		p.pos++
		items, err := p.items()
		if err != nil {
			return nil, err
		}
		for ri, r := range p.res {
			ok, err := p.matchItems(items, ri+1, r.Name)
			if err != nil {
				return nil, err
			}
			if ok {
				for j := r.First; j < r.Last; j++ {
					sel[j] = true
				}
			}
		}
	default: //'@'
		p.pos++
		items, err := p.items()
		if err != nil {
			return nil, err
		}
		for i, at := range p.top.Atoms {
			ok, err := p.matchItems(items, i+1, at.Name)
			if err != nil {
				return nil, err
			}
			sel[i] = ok
		}
	}
	return sel, nil
}

// items reads a comma-separated list of names, numbers or ranges.
func (p *maskParser) items() ([]string, error) {
	var ret []string
	for {
		start := p.pos
		for p.pos < len(p.src) && !strings.ContainsRune(" \t\n,:@&|!()", rune(p.src[p.pos])) {
			p.pos++
		}
		if p.pos == start {
			return nil, p.errorf("empty selector item at position %d", p.pos)
		}
		ret = append(ret, p.src[start:p.pos])
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		return ret, nil
	}
}

// matchItems reports whether the 1-based number num or the name match any of the items.
// Items starting with a digit are numbers or ranges, the rest are name patterns.
func (p *maskParser) matchItems(items []string, num int, name string) (bool, error) {
	for _, it := range items {
		if it[0] < '0' || it[0] > '9' {
			if match(it, name) {
				return true, nil
			}
			continue
		}
		lo, hi, err := p.numRange(it)
		if err != nil {
			return false, err
		}
		if num >= lo && num <= hi {
			return true, nil
		}
	}
	return false, nil
}

func (p *maskParser) numRange(it string) (int, int, error) {
	fields := strings.SplitN(it, "-", 2)
	lo, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, p.errorf("bad number %q", it)
	}
	hi := lo
	if len(fields) == 2 {
		hi, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, p.errorf("bad range %q", it)
		}
	}
	if hi < lo {
		return 0, 0, p.errorf("range %q ends before it starts", it)
	}
	return lo, hi, nil
}

func match(pattern, name string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == name
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
