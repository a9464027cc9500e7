package key

import "github.com/gdamore/tcell/v2"

// FromTcell converts a terminal key event into an Event.
// The boolean is false for keys that have no notation (e.g. bare Ctrl+Space).
func FromTcell(ev *tcell.EventKey) (Event, bool) {
	mods := convertMod(ev.Modifiers())

	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		return NewRuneEvent(ev.Rune(), mods), true
	case k == tcell.KeyEscape:
		return NewSpecialEvent(KeyEscape, mods), true
	case k == tcell.KeyEnter:
		return NewSpecialEvent(KeyEnter, mods), true
	case k == tcell.KeyTab:
		return NewSpecialEvent(KeyTab, mods), true
	case k == tcell.KeyBacktab:
		return NewSpecialEvent(KeyTab, mods.With(ModShift)), true
	case k == tcell.KeyBackspace || k == tcell.KeyBackspace2:
		return NewSpecialEvent(KeyBackspace, mods.Without(ModCtrl)), true
	case k == tcell.KeyDelete:
		return NewSpecialEvent(KeyDelete, mods), true
	case k == tcell.KeyInsert:
		return NewSpecialEvent(KeyInsert, mods), true
	case k == tcell.KeyHome:
		return NewSpecialEvent(KeyHome, mods), true
	case k == tcell.KeyEnd:
		return NewSpecialEvent(KeyEnd, mods), true
	case k == tcell.KeyPgUp:
		return NewSpecialEvent(KeyPageUp, mods), true
	case k == tcell.KeyPgDn:
		return NewSpecialEvent(KeyPageDown, mods), true
	case k == tcell.KeyUp:
		return NewSpecialEvent(KeyUp, mods), true
	case k == tcell.KeyDown:
		return NewSpecialEvent(KeyDown, mods), true
	case k == tcell.KeyLeft:
		return NewSpecialEvent(KeyLeft, mods), true
	case k == tcell.KeyRight:
		return NewSpecialEvent(KeyRight, mods), true
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		return NewSpecialEvent(KeyF1+Key(k-tcell.KeyF1), mods), true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return NewRuneEvent('a'+rune(k-tcell.KeyCtrlA), mods.With(ModCtrl)), true
	case k == tcell.KeyCtrlBackslash:
		return NewRuneEvent('\\', ModCtrl), true
	case k == tcell.KeyCtrlRightSq:
		return NewRuneEvent(']', ModCtrl), true
	case k == tcell.KeyCtrlCarat:
		return NewRuneEvent('^', ModCtrl), true
	case k == tcell.KeyCtrlUnderscore:
		return NewRuneEvent('_', ModCtrl), true
	}
	return Event{}, false
}

// convertMod converts tcell modifiers to Modifier.
func convertMod(m tcell.ModMask) Modifier {
	var mods Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(ModMeta)
	}
	return mods
}
