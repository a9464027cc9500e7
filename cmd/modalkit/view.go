package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/modalkit/internal/app"
	"github.com/dshills/modalkit/internal/input"
)

const tabStop = 8

var (
	styleText      = tcell.StyleDefault
	styleSelection = tcell.StyleDefault.Reverse(true)
	styleTilde     = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleError     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleStatus    = tcell.StyleDefault.Bold(true)
)

// view draws a session's buffer and status on a screen.
type view struct {
	screen tcell.Screen
	sess   *app.Session
	msgs   *app.MessageLog

	// top is the first visible line.
	top int
	// seen is the number of messages already shown. A new message
	// replaces the mode indicator until the next key.
	seen  int
	last  app.Message
	keyed bool
}

func newView(screen tcell.Screen, s *app.Session) *view {
	v := &view{screen: screen, sess: s}
	v.msgs, _ = s.Notifier().(*app.MessageLog)
	return v
}

func (v *view) draw() {
	st := v.sess.Engine().Status()
	w, h := v.screen.Size()
	rows := max(h-1, 1)

	if st.Line < v.top {
		v.top = st.Line
	} else if st.Line >= v.top+rows {
		v.top = st.Line - rows + 1
	}

	v.screen.Clear()
	buf := v.sess.Document().Buffer
	selStart, selEnd := -1, -1
	if st.HasSelection {
		selStart, selEnd = min(st.Anchor, st.Caret), max(st.Anchor, st.Caret)
	}

	cursorX, cursorY := 0, st.Line-v.top
	for y := range rows {
		line := v.top + y
		if line >= buf.LineCount() {
			v.screen.SetContent(0, y, '~', nil, styleTilde)
			continue
		}
		start, _ := buf.LineStart(line)
		end, _ := buf.LineEnd(line)
		text, _ := buf.Text(start, end)

		x := 0
		for i, r := range []rune(text) {
			if line == st.Line && i == st.Column {
				cursorX = x
			}
			style := styleText
			if off := start + i; off >= selStart && off <= selEnd {
				style = styleSelection
			}
			if r == '\t' {
				for range tabStop - x%tabStop {
					if x < w {
						v.screen.SetContent(x, y, ' ', nil, style)
					}
					x++
				}
				continue
			}
			if x < w {
				v.screen.SetContent(x, y, r, nil, style)
			}
			x += max(runewidth.RuneWidth(r), 1)
		}
		if line == st.Line && st.Column >= end-start {
			cursorX = x
		}
	}

	v.drawStatus(st, w, h-1)
	if st.CommandLine != "" {
		v.screen.ShowCursor(min(runewidth.StringWidth(st.CommandLine), w-1), h-1)
	} else {
		v.screen.ShowCursor(min(cursorX, w-1), cursorY)
	}
	v.screen.Show()
}

func (v *view) drawStatus(st input.Status, w, y int) {
	if st.CommandLine != "" {
		v.text(0, y, w, st.CommandLine, styleText)
		return
	}

	if v.msgs != nil {
		switch total := v.msgs.Total(); {
		case total != v.seen:
			v.last, _ = v.msgs.Last()
			v.seen = total
		case v.keyed:
			v.last = app.Message{}
		}
		v.keyed = false
	}

	left, style := st.Display, styleStatus
	if st.Recording != 0 {
		left += fmt.Sprintf(" recording @%c", st.Recording)
	}
	if v.last.Text != "" {
		left, style = v.last.Text, styleText
		if v.last.Error {
			style = styleError
		}
	}
	v.text(0, y, w, left, style)

	right := fmt.Sprintf("%-10s %d,%d", st.PendingKeys, st.Line+1, st.Column+1)
	if v.sess.Document().IsModified() {
		right = "[+] " + right
	}
	v.text(max(w-runewidth.StringWidth(right)-1, 0), y, w, right, styleText)
}

// keyPressed clears the message line at the next draw.
func (v *view) keyPressed() {
	v.keyed = true
}

func (v *view) text(x, y, w int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= w {
			return
		}
		v.screen.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
}
