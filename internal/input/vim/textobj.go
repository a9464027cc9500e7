package vim

import (
	"regexp"
	"sort"

	"github.com/dshills/modalkit/internal/input/register"
)

// ObjectContext is the input of a text object function.
type ObjectContext struct {
	Snap  *Snapshot
	Caret int

	// Count is the effective count, at least 1.
	Count int
}

// Span is the region a text object selects. For line-wise spans Start
// and End are offsets inside the first and last line.
type Span struct {
	Start, End int
	Wise       register.Wise
}

// ObjectFunc selects a text object around the caret.
type ObjectFunc func(c *ObjectContext) (Span, error)

// TextObject selects text by structure rather than by movement.
type TextObject struct {
	// Name is the object identifier (e.g., "inner-word").
	Name string

	// Keys are the key notations selecting the object (e.g., "iw").
	Keys []string

	Fn ObjectFunc
}

// Select runs the text object.
func (o *TextObject) Select(c *ObjectContext) (Span, error) {
	if c.Count <= 0 {
		c.Count = 1
	}
	if c.Snap.Len() == 0 {
		return Span{}, ErrNoObjectFound
	}
	return o.Fn(c)
}

type objectBody func(c *ObjectContext, inner bool) (Span, error)

// TextObjects returns the built-in text objects.
func TextObjects() []*TextObject {
	var objs []*TextObject
	add := func(name string, keys []string, fn objectBody) {
		objs = append(objs, variants(name, keys, fn)...)
	}

	add("word", []string{"w"}, func(c *ObjectContext, inner bool) (Span, error) {
		return wordObject(c, inner, false)
	})
	add("WORD", []string{"W"}, func(c *ObjectContext, inner bool) (Span, error) {
		return wordObject(c, inner, true)
	})
	add("paragraph", []string{"p"}, paragraphObject)
	add("entire", []string{"e"}, entireObject)
	add("tag", []string{"t"}, tagObject)
	add("double-quote", []string{`"`}, quoteObject('"'))
	add("single-quote", []string{"'"}, quoteObject('\''))
	add("back-quote", []string{"`"}, quoteObject('`'))
	add("paren", []string{"(", ")", "b"}, bracketObject('(', ')'))
	add("bracket", []string{"[", "]"}, bracketObject('[', ']'))
	add("brace", []string{"{", "}", "B"}, bracketObject('{', '}'))
	add("angle", []string{"<lt>", ">"}, bracketObject('<', '>'))
	return objs
}

// variants builds the inner (i) and around (a) objects of body.
func variants(name string, keys []string, body objectBody) []*TextObject {
	inner := &TextObject{Name: "inner-" + name}
	around := &TextObject{Name: "around-" + name}
	for _, k := range keys {
		inner.Keys = append(inner.Keys, "i"+k)
		around.Keys = append(around.Keys, "a"+k)
	}
	inner.Fn = func(c *ObjectContext) (Span, error) { return body(c, true) }
	around.Fn = func(c *ObjectContext) (Span, error) { return body(c, false) }
	return []*TextObject{inner, around}
}

func wordObject(c *ObjectContext, inner, big bool) (Span, error) {
	s := c.Snap
	pos := clamp(c.Caret, 0, s.Len()-1)
	line := s.Line(pos)
	ls, le := s.LineStart(line), s.LineEnd(line)
	if ls == le {
		return Span{}, ErrNoObjectFound
	}
	pos = min(pos, le-1)

	class := func(i int) int { return charClass(s.At(i), big) }
	runEnd := func(i int) int {
		cls := class(i)
		for i < le && class(i) == cls {
			i++
		}
		return i
	}

	start := pos
	for start > ls && class(start-1) == class(pos) {
		start--
	}
	end := runEnd(pos)
	onBlank := class(pos) == 0

	switch {
	case inner:
		for n := 1; n < c.Count && end < le; n++ {
			end = runEnd(end)
		}
	case onBlank:
		// Leading white space plus the words after it.
		for n := 0; n < c.Count && end < le; n++ {
			end = runEnd(end)
			if n+1 < c.Count && end < le {
				end = runEnd(end)
			}
		}
	default:
		for n := 1; n < c.Count && end < le; n++ {
			if class(end) == 0 {
				end = runEnd(end)
			}
			if end < le {
				end = runEnd(end)
			}
		}
		if end < le && class(end) == 0 {
			end = runEnd(end)
		} else {
			for start > ls && class(start-1) == 0 {
				start--
			}
		}
	}
	return Span{Start: start, End: end, Wise: register.Charwise}, nil
}

func paragraphObject(c *ObjectContext, inner bool) (Span, error) {
	s := c.Snap
	last := s.LineCount() - 1
	line := s.Line(c.Caret)
	blank := s.IsBlankLine(line)

	start := line
	for start > 0 && s.IsBlankLine(start-1) == blank {
		start--
	}
	end := line
	for end < last && s.IsBlankLine(end+1) == blank {
		end++
	}

	runs := c.Count
	if !inner {
		runs = 2 * c.Count
	}
	for i := 1; i < runs; i++ {
		if end >= last {
			if inner {
				return Span{}, ErrNoObjectFound
			}
			break
		}
		b := s.IsBlankLine(end + 1)
		end++
		for end < last && s.IsBlankLine(end+1) == b {
			end++
		}
	}
	if !inner && !s.IsBlankLine(end) {
		for start > 0 && s.IsBlankLine(start-1) {
			start--
		}
	}
	return Span{Start: s.LineStart(start), End: s.LineStart(end), Wise: register.Linewise}, nil
}

func entireObject(c *ObjectContext, inner bool) (Span, error) {
	s := c.Snap
	start, end := 0, s.LineCount()-1
	if inner {
		for start <= end && s.IsBlankLine(start) {
			start++
		}
		for end >= start && s.IsBlankLine(end) {
			end--
		}
		if start > end {
			return Span{}, ErrNoObjectFound
		}
	}
	return Span{Start: s.LineStart(start), End: s.LineStart(end), Wise: register.Linewise}, nil
}

// quoteObject pairs quotes on the caret line from its start. The caret
// may sit inside a pair or before the first pair.
func quoteObject(q rune) objectBody {
	return func(c *ObjectContext, inner bool) (Span, error) {
		s := c.Snap
		line := s.Line(c.Caret)
		ls, le := s.LineStart(line), s.LineEnd(line)

		var quotes []int
		for i := ls; i < le; i++ {
			if s.At(i) == q && (i == ls || s.At(i-1) != '\\') {
				quotes = append(quotes, i)
			}
		}

		open, close := -1, -1
		for i := 0; i+1 < len(quotes); i += 2 {
			if quotes[i] <= c.Caret && c.Caret <= quotes[i+1] {
				open, close = quotes[i], quotes[i+1]
				break
			}
		}
		if open < 0 {
			for i := 0; i+1 < len(quotes); i += 2 {
				if quotes[i] > c.Caret {
					open, close = quotes[i], quotes[i+1]
					break
				}
			}
		}
		if open < 0 {
			return Span{}, ErrNoObjectFound
		}

		if inner {
			return Span{Start: open + 1, End: close, Wise: register.Charwise}, nil
		}
		start, end := open, close+1
		if end < le && isBlank(s.At(end)) {
			for end < le && isBlank(s.At(end)) {
				end++
			}
		} else {
			for start > ls && isBlank(s.At(start-1)) {
				start--
			}
		}
		return Span{Start: start, End: end, Wise: register.Charwise}, nil
	}
}

// enclosingOpen returns the unmatched open bracket before off.
func enclosingOpen(s *Snapshot, off int, open, close rune) (int, bool) {
	depth := 0
	for i := off; i >= 0; i-- {
		switch s.At(i) {
		case close:
			depth++
		case open:
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

func bracketObject(open, close rune) objectBody {
	return func(c *ObjectContext, inner bool) (Span, error) {
		s := c.Snap
		pos := clamp(c.Caret, 0, s.Len()-1)

		var o int
		var ok bool
		if s.At(pos) == open {
			o, ok = pos, true
		} else {
			o, ok = enclosingOpen(s, pos-1, open, close)
		}
		for n := 1; ok && n < c.Count; n++ {
			o, ok = enclosingOpen(s, o-1, open, close)
		}
		if !ok {
			return Span{}, ErrNoObjectFound
		}

		cl := -1
		depth := 0
		for i := o + 1; i < s.Len() && cl < 0; i++ {
			switch s.At(i) {
			case open:
				depth++
			case close:
				if depth == 0 {
					cl = i
				}
				depth--
			}
		}
		if cl < 0 {
			return Span{}, ErrNoObjectFound
		}

		if !inner {
			return Span{Start: o, End: cl + 1, Wise: register.Charwise}, nil
		}
		start, end := o+1, cl
		// A block whose brackets sit on their own lines keeps them.
		if s.At(start) == '\n' && s.Line(cl) > s.Line(start) {
			start++
			if clLine := s.Line(cl); blankBetween(s, s.LineStart(clLine), cl) {
				end = s.LineStart(clLine)
			}
		}
		return Span{Start: start, End: max(start, end), Wise: register.Charwise}, nil
	}
}

var tagPattern = regexp.MustCompile(`<(/?)([^\s/>]+)[^>]*?(/?)>`)

type tagPair struct {
	openStart, openEnd   int
	closeStart, closeEnd int
}

// tagObject selects the count-th innermost tag block around the caret.
func tagObject(c *ObjectContext, inner bool) (Span, error) {
	s := c.Snap
	str := string(s.text)
	offs := runeOffsets(str)

	type openTag struct {
		name       string
		start, end int
	}
	var stack []openTag
	var found []tagPair
	for _, m := range tagPattern.FindAllStringSubmatchIndex(str, -1) {
		closing := m[3] > m[2]
		selfClosing := m[7] > m[6]
		name := str[m[4]:m[5]]
		start, end := offs[m[0]], offs[m[1]]
		switch {
		case selfClosing:
		case !closing:
			stack = append(stack, openTag{name: name, start: start, end: end})
		default:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == name {
					found = append(found, tagPair{
						openStart: stack[i].start, openEnd: stack[i].end,
						closeStart: start, closeEnd: end,
					})
					stack = stack[:i]
					break
				}
			}
		}
	}

	var around []tagPair
	for _, p := range found {
		if p.openStart <= c.Caret && c.Caret < p.closeEnd {
			around = append(around, p)
		}
	}
	if len(around) < c.Count {
		return Span{}, ErrNoObjectFound
	}
	sort.Slice(around, func(i, j int) bool {
		return around[i].closeEnd-around[i].openStart < around[j].closeEnd-around[j].openStart
	})

	p := around[c.Count-1]
	if inner {
		return Span{Start: p.openEnd, End: p.closeStart, Wise: register.Charwise}, nil
	}
	return Span{Start: p.openStart, End: p.closeEnd, Wise: register.Charwise}, nil
}
