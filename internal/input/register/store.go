package register

import (
	"fmt"
	"strings"
	"sync"
)

// Evaluator evaluates source for the expression register.
type Evaluator interface {
	Evaluate(src string) (string, error)
}

// Store is the register view of one editor. Named and numbered registers
// are delegated to the Shared store; every other slot is private.
type Store struct {
	shared *Shared

	mu        sync.RWMutex
	slots     map[rune]Payload
	clipboard ClipboardBridge
	option    ClipboardOption
	evaluator Evaluator
	lastExpr  string
}

// NewStore creates a register view backed by shared. A nil shared gets a
// private Shared store.
func NewStore(shared *Shared) *Store {
	if shared == nil {
		shared = NewShared()
	}
	return &Store{
		shared: shared,
		slots:  make(map[rune]Payload),
	}
}

// Shared returns the process-wide register set.
func (s *Store) Shared() *Shared {
	return s.shared
}

// SetClipboard sets the bridge used by the + and * registers. Without a
// bridge they behave like ordinary private registers.
func (s *Store) SetClipboard(c ClipboardBridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = c
}

// SetClipboardOption applies the 'clipboard' setting.
func (s *Store) SetClipboardOption(opt ClipboardOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.option = opt
}

// ClipboardOption returns the 'clipboard' setting.
func (s *Store) ClipboardOption() ClipboardOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.option
}

// SetEvaluator sets the evaluator used by the expression register.
func (s *Store) SetEvaluator(e Evaluator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluator = e
}

// DefaultRegister returns the register used when none is given.
func (s *Store) DefaultRegister() rune {
	switch s.ClipboardOption() {
	case ClipboardUnnamed:
		return Selection
	case ClipboardUnnamedPlus:
		return Clipboard
	default:
		return Unnamed
	}
}

// Read returns the content of a register. Uppercase names read the
// lowercase register.
func (s *Store) Read(name rune) (Payload, bool) {
	name = Normalize(name)

	switch Classify(name) {
	case KindInvalid, KindBlackHole:
		return Payload{}, false
	case KindNamed, KindLastYank, KindNumbered:
		return s.shared.Get(name)
	case KindClipboard:
		if p, ok := s.readClipboard(); ok {
			return p, true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.slots[name]
	if !ok {
		return Payload{}, false
	}
	p.Keys = p.Keys.Clone()
	return p, true
}

func (s *Store) readClipboard() (Payload, bool) {
	s.mu.RLock()
	c := s.clipboard
	s.mu.RUnlock()
	if c == nil {
		return Payload{}, false
	}

	text, wise, ok, err := c.Read()
	if err != nil || !ok {
		return Payload{}, false
	}
	return Payload{Text: text, Wise: wise}.normalize(), true
}

// Write stores p in a register. An uppercase name, or appendMode,
// appends to the existing content instead of replacing it.
func (s *Store) Write(name rune, p Payload, appendMode bool) error {
	if IsAppend(name) {
		appendMode = true
	}
	name = Normalize(name)

	switch Classify(name) {
	case KindInvalid:
		return fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	case KindBlackHole:
		return nil
	case KindLastInserted, KindCommand, KindSearch, KindFileName, KindExpression:
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	case KindNamed, KindLastYank, KindNumbered:
		if appendMode {
			s.shared.Append(name, p)
		} else {
			s.shared.Set(name, p)
		}
		return nil
	}

	if appendMode {
		if old, ok := s.Read(name); ok {
			p = appendPayload(old, p)
		}
	}
	p = p.normalize()

	if Classify(name) == KindClipboard {
		s.mu.RLock()
		c := s.clipboard
		s.mu.RUnlock()
		if c != nil {
			if err := c.Write(p.Text, p.Wise); err != nil {
				return fmt.Errorf("clipboard write: %w", err)
			}
		}
	}

	s.mu.Lock()
	s.slots[name] = p
	s.mu.Unlock()
	return nil
}

// RotateNumbered shifts registers 1-8 into 2-9 and stores p in 1.
func (s *Store) RotateNumbered(p Payload) {
	s.shared.Rotate(p)
}

// Resolution is the set of register writes produced by one yank or delete.
type Resolution struct {
	// Targets are written in order. The first one may be an uppercase
	// append register.
	Targets []rune

	// Rotate stores the payload in 1 after shifting the delete history.
	Rotate bool
}

// ResolveEffective applies the default register policy.
//
// An explicit register always wins and the unnamed register follows it.
// Without one, a yank writes the default register and 0; a delete writes
// the default register and either rotates the numbered registers
// (multi-line) or writes - (small, within one line). The black hole
// register resolves to no writes at all.
func (s *Store) ResolveEffective(explicit rune, isDelete, isSmall bool) Resolution {
	def := s.DefaultRegister()
	if explicit == BlackHole {
		return Resolution{}
	}

	if explicit != 0 && explicit != def {
		targets := []rune{explicit}
		if explicit != Unnamed {
			targets = append(targets, Unnamed)
		}
		return Resolution{Targets: targets}
	}

	targets := []rune{def}
	if def != Unnamed {
		targets = append(targets, Unnamed)
	}
	if !isDelete {
		return Resolution{Targets: append(targets, LastYank)}
	}
	if isSmall {
		return Resolution{Targets: append(targets, SmallDelete)}
	}
	return Resolution{Targets: targets, Rotate: true}
}

// Record records the result of a yank or delete according to
// ResolveEffective.
func (s *Store) Record(explicit rune, p Payload, isDelete, isSmall bool) error {
	res := s.ResolveEffective(explicit, isDelete, isSmall)
	if len(res.Targets) == 0 {
		return nil
	}
	if res.Rotate {
		s.RotateNumbered(p)
	}

	if err := s.Write(res.Targets[0], p, false); err != nil {
		return err
	}

	// The unnamed register holds what the first target now contains.
	follow := p
	if IsAppend(res.Targets[0]) {
		if merged, ok := s.Read(res.Targets[0]); ok {
			follow = merged
		}
	}
	for _, name := range res.Targets[1:] {
		if err := s.Write(name, follow, false); err != nil {
			return err
		}
	}
	return nil
}

// SetLastInserted updates the . register.
func (s *Store) SetLastInserted(text string) {
	s.setSpecial(LastInserted, text)
}

// SetLastCommand updates the : register.
func (s *Store) SetLastCommand(cmd string) {
	s.setSpecial(LastCommand, cmd)
}

// SetLastSearch updates the / register.
func (s *Store) SetLastSearch(pattern string) {
	s.setSpecial(LastSearch, pattern)
}

// SetFileName updates the % register.
func (s *Store) SetFileName(name string) {
	s.setSpecial(FileName, name)
}

func (s *Store) setSpecial(name rune, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = Payload{Text: text}
}

// SetExpression evaluates src and stores the result in the = register.
func (s *Store) SetExpression(src string) (Payload, error) {
	s.mu.RLock()
	ev := s.evaluator
	s.mu.RUnlock()
	if ev == nil {
		return Payload{}, ErrNoEvaluator
	}

	if strings.TrimSpace(src) == "" {
		s.mu.RLock()
		src = s.lastExpr
		s.mu.RUnlock()
	}

	result, err := ev.Evaluate(src)
	if err != nil {
		return Payload{}, err
	}

	p := Payload{Text: result, Wise: guessWise(result)}
	s.mu.Lock()
	s.lastExpr = src
	s.slots[Expression] = p
	s.mu.Unlock()
	return p, nil
}

// LastExpression returns the source of the last evaluated expression.
func (s *Store) LastExpression() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastExpr
}

// Entry is one register in a listing.
type Entry struct {
	Name    rune
	Payload Payload
}

// All returns every non-empty register in display order.
func (s *Store) All() []Entry {
	var out []Entry
	for _, name := range displayOrder {
		if p, ok := s.Read(name); ok && !p.IsEmpty() {
			out = append(out, Entry{Name: name, Payload: p})
		}
	}
	return out
}

// Reset clears the private registers of this view.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[rune]Payload)
	s.lastExpr = ""
}
