package vim

// MotionKind categorizes motions by how an operator treats their range.
type MotionKind uint8

const (
	// Exclusive motions stop before the target.
	Exclusive MotionKind = iota

	// Inclusive motions include the rune under the target.
	Inclusive

	// Linewise motions operate on whole lines.
	Linewise
)

// String returns the kind name.
func (k MotionKind) String() string {
	switch k {
	case Exclusive:
		return "exclusive"
	case Inclusive:
		return "inclusive"
	case Linewise:
		return "linewise"
	default:
		return "unknown"
	}
}

// MotionContext is the input of a motion function.
type MotionContext struct {
	Snap  *Snapshot
	State *State
	Caret int

	// Count is the effective count, at least 1.
	Count int

	// HasCount reports whether a count was typed.
	HasCount bool

	// Char is the character argument of f, t, F and T.
	Char rune

	// Str is the pattern argument of / and ?.
	Str string

	// Operator is set while an operator waits for this motion.
	Operator bool

	// Kind starts as the motion's kind. Motions like ; and % change it.
	Kind MotionKind
}

// MotionFunc computes the target offset of a motion.
type MotionFunc func(c *MotionContext) (int, error)

// Motion is a caret movement that can also select an operator range.
type Motion struct {
	// Name is the motion identifier (e.g., "word-forward").
	Name string

	// Keys are the key notations that trigger this motion.
	Keys []string

	// Kind is the default kind of the motion.
	Kind MotionKind

	// NeedsChar marks motions followed by a character argument.
	NeedsChar bool

	// NeedsString marks motions followed by a command-line string.
	NeedsString bool

	// KeepColumn marks motions that leave the desired column alone.
	KeepColumn bool

	// Numbered makes deletes over this motion go to the numbered
	// registers even within one line.
	Numbered bool

	Fn MotionFunc
}

// Eval runs the motion.
func (m *Motion) Eval(c *MotionContext) (int, error) {
	c.Kind = m.Kind
	if c.Count <= 0 {
		c.Count = 1
	}
	return m.Fn(c)
}

// Standard motions.
var (
	MotionLeft = &Motion{
		Name: "left", Keys: []string{"h", "<Left>", "<C-h>"},
		Kind: Exclusive, Fn: left,
	}
	MotionRight = &Motion{
		Name: "right", Keys: []string{"l", "<Right>"},
		Kind: Exclusive, Fn: right,
	}
	MotionBackspace = &Motion{
		Name: "backspace", Keys: []string{"<BS>"},
		Kind: Exclusive, Fn: backspace,
	}
	MotionSpace = &Motion{
		Name: "space", Keys: []string{"<Space>"},
		Kind: Exclusive, Fn: space,
	}
	MotionDown = &Motion{
		Name: "down", Keys: []string{"j", "<Down>", "<C-n>", "<C-j>"},
		Kind: Linewise, KeepColumn: true, Fn: down,
	}
	MotionUp = &Motion{
		Name: "up", Keys: []string{"k", "<Up>", "<C-p>"},
		Kind: Linewise, KeepColumn: true, Fn: up,
	}
	MotionWordForward = &Motion{
		Name: "word-forward", Keys: []string{"w", "<S-Right>"},
		Kind: Exclusive, Fn: wordForward(false),
	}
	MotionWORDForward = &Motion{
		Name: "WORD-forward", Keys: []string{"W", "<C-Right>"},
		Kind: Exclusive, Fn: wordForward(true),
	}
	MotionWordBackward = &Motion{
		Name: "word-backward", Keys: []string{"b", "<S-Left>"},
		Kind: Exclusive, Fn: wordBackward(false),
	}
	MotionWORDBackward = &Motion{
		Name: "WORD-backward", Keys: []string{"B", "<C-Left>"},
		Kind: Exclusive, Fn: wordBackward(true),
	}
	MotionWordEnd = &Motion{
		Name: "word-end", Keys: []string{"e"},
		Kind: Inclusive, Fn: wordEnd(false, false),
	}
	MotionWORDEnd = &Motion{
		Name: "WORD-end", Keys: []string{"E"},
		Kind: Inclusive, Fn: wordEnd(true, false),
	}
	MotionLineStart = &Motion{
		Name: "line-start", Keys: []string{"0", "<Home>"},
		Kind: Exclusive, Fn: lineStart,
	}
	MotionFirstNonBlank = &Motion{
		Name: "first-non-blank", Keys: []string{"^"},
		Kind: Exclusive, Fn: firstNonBlank,
	}
	MotionLineEnd = &Motion{
		Name: "line-end", Keys: []string{"$", "<End>"},
		Kind: Inclusive, KeepColumn: true, Fn: lineEnd,
	}
	MotionCurrentLine = &Motion{
		Name: "current-line", Keys: []string{"_"},
		Kind: Linewise, Fn: currentLine,
	}
	MotionFirstLine = &Motion{
		Name: "first-line", Keys: []string{"gg", "<C-Home>"},
		Kind: Linewise, Fn: gotoLine(false),
	}
	MotionLastLine = &Motion{
		Name: "last-line", Keys: []string{"G", "<C-End>"},
		Kind: Linewise, Fn: gotoLine(true),
	}
	MotionFindChar = &Motion{
		Name: "find-char", Keys: []string{"f"},
		Kind: Inclusive, NeedsChar: true, Fn: findChar(true, false),
	}
	MotionFindCharBackward = &Motion{
		Name: "find-char-backward", Keys: []string{"F"},
		Kind: Exclusive, NeedsChar: true, Fn: findChar(false, false),
	}
	MotionTillChar = &Motion{
		Name: "till-char", Keys: []string{"t"},
		Kind: Inclusive, NeedsChar: true, Fn: findChar(true, true),
	}
	MotionTillCharBackward = &Motion{
		Name: "till-char-backward", Keys: []string{"T"},
		Kind: Exclusive, NeedsChar: true, Fn: findChar(false, true),
	}
	MotionRepeatFind = &Motion{
		Name: "repeat-find", Keys: []string{";"},
		Kind: Inclusive, Fn: repeatFind(false),
	}
	MotionRepeatFindReverse = &Motion{
		Name: "repeat-find-reverse", Keys: []string{","},
		Kind: Inclusive, Fn: repeatFind(true),
	}
	MotionParagraphForward = &Motion{
		Name: "paragraph-forward", Keys: []string{"}"},
		Kind: Exclusive, Numbered: true, Fn: paragraphForward,
	}
	MotionParagraphBackward = &Motion{
		Name: "paragraph-backward", Keys: []string{"{"},
		Kind: Exclusive, Numbered: true, Fn: paragraphBackward,
	}
	MotionMatchPair = &Motion{
		Name: "match-pair", Keys: []string{"%"},
		Kind: Inclusive, Numbered: true, Fn: matchPair,
	}
	MotionSearchNext = &Motion{
		Name: "search-next", Keys: []string{"n"},
		Kind: Exclusive, Numbered: true, Fn: searchNext(false),
	}
	MotionSearchPrevious = &Motion{
		Name: "search-previous", Keys: []string{"N"},
		Kind: Exclusive, Numbered: true, Fn: searchNext(true),
	}
	MotionSearchForward = &Motion{
		Name: "search-forward", Keys: []string{"/"},
		Kind: Exclusive, NeedsString: true, Numbered: true, Fn: searchPattern(false),
	}
	MotionSearchBackward = &Motion{
		Name: "search-backward", Keys: []string{"?"},
		Kind: Exclusive, NeedsString: true, Numbered: true, Fn: searchPattern(true),
	}
)

// motionChangeWord and motionChangeWORD replace w and W after c when the
// caret is on a non-blank.
var (
	motionChangeWord = &Motion{Name: "change-word", Kind: Inclusive, Fn: wordEnd(false, true)}
	motionChangeWORD = &Motion{Name: "change-WORD", Kind: Inclusive, Fn: wordEnd(true, true)}
)

// Motions returns the built-in motions.
func Motions() []*Motion {
	return []*Motion{
		MotionLeft, MotionRight, MotionBackspace, MotionSpace,
		MotionDown, MotionUp,
		MotionWordForward, MotionWORDForward, MotionWordBackward, MotionWORDBackward,
		MotionWordEnd, MotionWORDEnd,
		MotionLineStart, MotionFirstNonBlank, MotionLineEnd, MotionCurrentLine,
		MotionFirstLine, MotionLastLine,
		MotionFindChar, MotionFindCharBackward, MotionTillChar, MotionTillCharBackward,
		MotionRepeatFind, MotionRepeatFindReverse,
		MotionParagraphForward, MotionParagraphBackward,
		MotionMatchPair,
		MotionSearchNext, MotionSearchPrevious,
		MotionSearchForward, MotionSearchBackward,
	}
}

func left(c *MotionContext) (int, error) {
	col := c.Snap.Column(c.Caret)
	if col == 0 {
		return 0, ErrMotionFailed
	}
	return c.Caret - min(c.Count, col), nil
}

func right(c *MotionContext) (int, error) {
	line := c.Snap.Line(c.Caret)
	limit := c.Snap.LastChar(line)
	if c.Operator {
		limit = c.Snap.LineEnd(line)
	}
	if c.Caret >= limit {
		return 0, ErrMotionFailed
	}
	return min(c.Caret+c.Count, limit), nil
}

func backspace(c *MotionContext) (int, error) {
	s := c.Snap
	off := c.Caret
	for i := 0; i < c.Count; i++ {
		line := s.Line(off)
		switch {
		case off > s.LineStart(line):
			off--
		case line > 0:
			off = s.LastChar(line - 1)
		}
	}
	if off == c.Caret {
		return 0, ErrMotionFailed
	}
	return off, nil
}

func space(c *MotionContext) (int, error) {
	s := c.Snap
	off := c.Caret
	for i := 0; i < c.Count; i++ {
		line := s.Line(off)
		switch {
		case off < s.LastChar(line):
			off++
		case line < s.LineCount()-1:
			off = s.LineStart(line + 1)
		case c.Operator && off < s.LineEnd(line):
			off = s.LineEnd(line)
		}
	}
	if off == c.Caret {
		return 0, ErrMotionFailed
	}
	return off, nil
}

func down(c *MotionContext) (int, error) {
	line := c.Snap.Line(c.Caret)
	last := c.Snap.LineCount() - 1
	if line >= last {
		return 0, ErrMotionFailed
	}
	return c.Snap.OffsetAt(min(line+c.Count, last), c.State.Curswant, false), nil
}

func up(c *MotionContext) (int, error) {
	line := c.Snap.Line(c.Caret)
	if line == 0 {
		return 0, ErrMotionFailed
	}
	return c.Snap.OffsetAt(max(line-c.Count, 0), c.State.Curswant, false), nil
}

// nextWordStart returns the start of the word after off. An empty line
// counts as a word.
func nextWordStart(s *Snapshot, off int, big bool) int {
	n := s.Len()
	if off >= n {
		return n
	}
	if cls := charClass(s.At(off), big); cls != 0 {
		for off < n && charClass(s.At(off), big) == cls {
			off++
		}
	}
	for off < n {
		r := s.At(off)
		if r == '\n' {
			off++
			if off < n && s.At(off) == '\n' {
				return off
			}
			continue
		}
		if !isBlank(r) {
			break
		}
		off++
	}
	return off
}

func wordForward(big bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		s := c.Snap
		if c.Caret >= s.Len() {
			return 0, ErrMotionFailed
		}
		off := c.Caret
		for i := 0; i < c.Count && off < s.Len(); i++ {
			off = nextWordStart(s, off, big)
		}

		if c.Operator {
			// The last word moved over ends the range when the target is
			// on a later line.
			line := s.Line(off)
			if line > s.Line(c.Caret) && blankBetween(s, s.LineStart(line), off) {
				off = s.LineEnd(line - 1)
			}
		} else if off >= s.Len() && s.ClampNormal(off) == c.Caret {
			return 0, ErrMotionFailed
		}
		return off, nil
	}
}

func blankBetween(s *Snapshot, start, end int) bool {
	for i := start; i < end; i++ {
		if !isBlank(s.At(i)) {
			return false
		}
	}
	return true
}

// wordEnd moves to the end of the count-th word. With stay set, a caret
// already on the last rune of a word counts as the first end, as cw
// requires.
func wordEnd(big, stay bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		s := c.Snap
		n := s.Len()
		off := c.Caret
		for i := 0; i < c.Count; i++ {
			if !(stay && i == 0) {
				off++
			}
			for off < n && charClass(s.At(off), big) == 0 {
				off++
			}
			if off >= n {
				if i == 0 && !stay && c.Caret >= n-1 {
					return 0, ErrMotionFailed
				}
				return max(n-1, 0), nil
			}
			cls := charClass(s.At(off), big)
			for off+1 < n && charClass(s.At(off+1), big) == cls {
				off++
			}
		}
		return off, nil
	}
}

func wordBackward(big bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		s := c.Snap
		if c.Caret == 0 {
			return 0, ErrMotionFailed
		}
		off := c.Caret
		for i := 0; i < c.Count && off > 0; i++ {
			off--
			for off > 0 && charClass(s.At(off), big) == 0 {
				if s.At(off) == '\n' && s.At(off-1) == '\n' {
					break
				}
				off--
			}
			if charClass(s.At(off), big) == 0 {
				continue
			}
			cls := charClass(s.At(off), big)
			for off > 0 && charClass(s.At(off-1), big) == cls {
				off--
			}
		}
		return off, nil
	}
}

func lineStart(c *MotionContext) (int, error) {
	return c.Snap.LineStart(c.Snap.Line(c.Caret)), nil
}

func firstNonBlank(c *MotionContext) (int, error) {
	return c.Snap.FirstNonBlank(c.Snap.Line(c.Caret)), nil
}

func lineEnd(c *MotionContext) (int, error) {
	line := min(c.Snap.Line(c.Caret)+c.Count-1, c.Snap.LineCount()-1)
	c.State.Curswant = MaxColumn
	return c.Snap.LastChar(line), nil
}

func currentLine(c *MotionContext) (int, error) {
	line := min(c.Snap.Line(c.Caret)+c.Count-1, c.Snap.LineCount()-1)
	return c.Snap.FirstNonBlank(line), nil
}

func gotoLine(last bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		line := 0
		switch {
		case c.HasCount:
			line = min(c.Count-1, c.Snap.LineCount()-1)
		case last:
			line = c.Snap.LineCount() - 1
		}
		return c.Snap.FirstNonBlank(line), nil
	}
}

// findInLine returns the offset of the count-th r on the caret line.
// With skip set, a match right next to the caret is ignored, so that a
// repeated t or T moves on.
func findInLine(s *Snapshot, caret int, r rune, count int, forward, till, skip bool) (int, bool) {
	line := s.Line(caret)
	start, end := s.LineStart(line), s.LineEnd(line)

	step := 1
	if !forward {
		step = -1
	}
	off := caret + step
	if till && skip {
		off += step
	}

	found := 0
	for off >= start && off < end {
		if s.At(off) == r {
			found++
			if found == count {
				if till {
					return off - step, true
				}
				return off, true
			}
		}
		off += step
	}
	return 0, false
}

func findChar(forward, till bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		c.State.find = findState{char: c.Char, forward: forward, till: till, valid: true}
		off, ok := findInLine(c.Snap, c.Caret, c.Char, c.Count, forward, till, false)
		if !ok {
			return 0, ErrMotionFailed
		}
		return off, nil
	}
}

func repeatFind(reverse bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		r, forward, till, ok := c.State.LastFind()
		if !ok {
			return 0, ErrMotionFailed
		}
		if reverse {
			forward = !forward
		}
		if forward {
			c.Kind = Inclusive
		} else {
			c.Kind = Exclusive
		}
		off, ok := findInLine(c.Snap, c.Caret, r, c.Count, forward, till, true)
		if !ok {
			return 0, ErrMotionFailed
		}
		return off, nil
	}
}

// isEmptyLine reports whether line has no runes; paragraphs end there.
func isEmptyLine(s *Snapshot, line int) bool {
	return s.LineStart(line) == s.LineEnd(line)
}

func paragraphForward(c *MotionContext) (int, error) {
	s := c.Snap
	last := s.LineCount() - 1
	line := s.Line(c.Caret)
	if line == last && c.Caret >= s.LastChar(line) {
		return 0, ErrMotionFailed
	}
	for i := 0; i < c.Count && line < last; i++ {
		for line < last && isEmptyLine(s, line) {
			line++
		}
		for line < last && !isEmptyLine(s, line) {
			line++
		}
	}
	if isEmptyLine(s, line) {
		return s.LineStart(line), nil
	}
	if c.Operator {
		return s.Len(), nil
	}
	return s.LastChar(line), nil
}

func paragraphBackward(c *MotionContext) (int, error) {
	s := c.Snap
	line := s.Line(c.Caret)
	if c.Caret == 0 {
		return 0, ErrMotionFailed
	}
	for i := 0; i < c.Count && line > 0; i++ {
		for line > 0 && isEmptyLine(s, line) {
			line--
		}
		for line > 0 && !isEmptyLine(s, line) {
			line--
		}
	}
	return s.LineStart(line), nil
}

var pairs = map[rune]struct {
	other   rune
	forward bool
}{
	'(': {')', true}, ')': {'(', false},
	'[': {']', true}, ']': {'[', false},
	'{': {'}', true}, '}': {'{', false},
}

// matchPair jumps to the bracket matching the first bracket at or after
// the caret on its line. With a count it goes to that percentage of
// the buffer instead.
func matchPair(c *MotionContext) (int, error) {
	s := c.Snap
	if c.HasCount {
		if c.Count > 100 {
			return 0, ErrMotionFailed
		}
		c.Kind = Linewise
		line := (c.Count*s.LineCount()+99)/100 - 1
		return s.FirstNonBlank(line), nil
	}

	end := s.LineEnd(s.Line(c.Caret))
	off := c.Caret
	for off < end {
		if _, ok := pairs[s.At(off)]; ok {
			break
		}
		off++
	}
	if off >= end {
		return 0, ErrMotionFailed
	}

	if m, ok := matchBracket(s, off); ok {
		return m, nil
	}
	return 0, ErrMotionFailed
}

// matchBracket returns the offset of the bracket matching the one at off.
func matchBracket(s *Snapshot, off int) (int, bool) {
	r := s.At(off)
	p, ok := pairs[r]
	if !ok {
		return 0, false
	}
	step := 1
	if !p.forward {
		step = -1
	}
	depth := 0
	for i := off + step; i >= 0 && i < s.Len(); i += step {
		switch s.At(i) {
		case r:
			depth++
		case p.other:
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

func searchNext(reverse bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		pattern, backward, ok := c.State.LastSearch()
		if !ok {
			return 0, ErrNoPreviousPattern
		}
		if reverse {
			backward = !backward
		}
		return Search(c.Snap, c.Caret, pattern, !backward, c.Count)
	}
}

func searchPattern(backward bool) MotionFunc {
	return func(c *MotionContext) (int, error) {
		pattern := c.Str
		if pattern == "" {
			last, _, ok := c.State.LastSearch()
			if !ok {
				return 0, ErrNoPreviousPattern
			}
			pattern = last
		}
		c.State.SetSearch(pattern, backward)
		return Search(c.Snap, c.Caret, pattern, !backward, c.Count)
	}
}
