package macro

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/register"
)

// DefaultMaxDepth bounds nested macro playback (@a calling @a).
const DefaultMaxDepth = 100

// Register names with a special meaning for Play.
const (
	// LastPlayed replays the register played most recently (@@).
	LastPlayed = '@'

	// CommandLine replays the last command line (@:).
	CommandLine = ':'
)

// FeedFunc dispatches a key sequence through the engine.
type FeedFunc func(keys key.Sequence) error

// Player replays macros stored in registers. Playback is synchronous and
// re-entrant: the feed function may itself play a macro.
type Player struct {
	store *register.Store

	mu       sync.Mutex
	last     rune
	depth    int
	maxDepth int
}

// NewPlayer creates a player that reads macros from store.
func NewPlayer(store *register.Store) *Player {
	return &Player{store: store, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth sets the nesting limit. Values below 1 are ignored.
func (p *Player) SetMaxDepth(n int) {
	if n < 1 {
		return
	}
	p.mu.Lock()
	p.maxDepth = n
	p.mu.Unlock()
}

// LastRegister returns the register played most recently, or 0.
func (p *Player) LastRegister() rune {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// IsPlaying returns true while a macro is being played.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth > 0
}

// Resolve returns the keys played by @name. @@ resolves to the last played
// register and @: to the last command line followed by <CR>.
func (p *Player) Resolve(name rune) (rune, key.Sequence, error) {
	if name == LastPlayed {
		p.mu.Lock()
		name = p.last
		p.mu.Unlock()
		if name == 0 {
			return 0, nil, ErrNoPreviousMacro
		}
	}

	if name == CommandLine {
		pl, ok := p.store.Read(register.LastCommand)
		if !ok || pl.Text == "" {
			return name, nil, fmt.Errorf("%w: %q", ErrEmptyRegister, name)
		}
		seq := key.Sequence{key.Char(':')}
		seq = seq.Concat(key.FromText(pl.Text))
		seq = append(seq, key.Special(key.KeyEnter))
		return name, seq, nil
	}

	if !register.IsValid(name) {
		return name, nil, fmt.Errorf("%w: %q", register.ErrInvalidRegister, name)
	}
	pl, ok := p.store.Read(name)
	if !ok || pl.IsEmpty() {
		return name, nil, fmt.Errorf("%w: %q", ErrEmptyRegister, name)
	}
	return register.Normalize(name), pl.Sequence(), nil
}

// Play feeds the macro in name count times. Playback stops at the first
// error returned by feed; repetitions already played are kept.
func (p *Player) Play(ctx context.Context, name rune, count int, feed FeedFunc) error {
	if feed == nil {
		return fmt.Errorf("feed function cannot be nil")
	}

	resolved, seq, err := p.Resolve(name)
	if err != nil {
		return err
	}
	if count < 1 {
		count = 1
	}

	p.mu.Lock()
	if p.depth >= p.maxDepth {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTooDeep, p.maxDepth)
	}
	p.depth++
	p.last = resolved
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.depth--
		p.mu.Unlock()
	}()

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := feed(seq.Clone()); err != nil {
			return fmt.Errorf("playing register %q: %w", resolved, err)
		}
	}
	return nil
}
