// Package editor implements the single-line input buffer spec.md §4.6
// describes: insertion/deletion, history navigation, password masking and
// the Tab-triggered completion hook. It is deliberately not a
// bubbles/textinput wrapping — the original aparte's Input (original_source/
// src/plugins/ui.rs) hand-rolls the same readline-style bindings
// (ctrl+a/b/e/f/h/w/u/k alongside the named arrows) against its own byte
// buffer and cursor, and this module's cursor-overlay renderer
// (internal/tty.RenderWithCursor) already expects to draw over an arbitrary
// content string rather than delegate to a component with its own cursor.
package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Editor holds one line's editing state: the buffer, the cursor's byte
// offset within it, input history and the password-echo flag.
type Editor struct {
	buf    string
	cursor int // byte offset into buf

	history    []string
	historyIdx int // len(history) means "not browsing"
	draft      string

	password bool
}

// New creates an empty, non-password Editor.
func New() *Editor {
	return &Editor{historyIdx: 0}
}

// Buf returns the current buffer contents.
func (e *Editor) Buf() string { return e.buf }

// Cursor returns the cursor's byte offset into Buf().
func (e *Editor) Cursor() int { return e.cursor }

// VisualCol returns the cursor's on-screen column, accounting for
// double-width runes (CJK, etc) via go-runewidth — spec.md §4.6's
// {byte, visual_col} cursor pair.
func (e *Editor) VisualCol() int {
	return runewidth.StringWidth(e.buf[:e.cursor])
}

// IsPassword reports whether the editor is currently masking its echo.
func (e *Editor) IsPassword() bool { return e.password }

// SetPassword toggles masked rendering (spec.md's password()). The mode
// reverts to normal automatically after the next Validate.
func (e *Editor) SetPassword(on bool) { e.password = on }

// SetBuf replaces the buffer and cursor verbatim — how the editor accepts an
// Event::Completed(new_buf, new_cursor) reply to its own AutoComplete
// request.
func (e *Editor) SetBuf(buf string, cursor int) {
	e.buf = buf
	e.cursor = clampCursor(buf, cursor)
}

// Validate clears the buffer, returning it along with whether it was in
// password mode, and pushes it onto history unless it was empty or a
// password. Password mode is cleared regardless, per spec.md §4.6.
func (e *Editor) Validate() (buf string, wasPassword bool) {
	buf, wasPassword = e.buf, e.password
	if buf != "" && !wasPassword {
		e.history = append(e.history, buf)
	}
	e.buf, e.cursor = "", 0
	e.password = false
	e.historyIdx = len(e.history)
	e.draft = ""
	return buf, wasPassword
}

// Display returns the buffer as it should be shown — masked to '*' per rune
// in password mode, verbatim otherwise. The Input view overlays the cursor
// on top of this via internal/tty.RenderWithCursor at DisplayCol.
func (e *Editor) Display() string {
	if !e.password {
		return e.buf
	}
	return strings.Repeat("*", utf8.RuneCountInString(e.buf))
}

// DisplayCol is the cursor's visual column within Display() — equal to
// VisualCol() outside password mode, or the plain rune count into the mask
// otherwise, since every masked rune is single-width.
func (e *Editor) DisplayCol() int {
	if !e.password {
		return e.VisualCol()
	}
	return utf8.RuneCountInString(e.buf[:e.cursor])
}

// Insert inserts s (one key's worth of runes) at the cursor.
func (e *Editor) Insert(s string) {
	e.buf = e.buf[:e.cursor] + s + e.buf[e.cursor:]
	e.cursor += len(s)
}

// Backspace deletes the rune before the cursor.
func (e *Editor) Backspace() {
	if e.cursor == 0 {
		return
	}
	start := prevRuneStart(e.buf, e.cursor)
	e.buf = e.buf[:start] + e.buf[e.cursor:]
	e.cursor = start
}

// Delete removes the rune at the cursor (delete-forward).
func (e *Editor) Delete() {
	if e.cursor >= len(e.buf) {
		return
	}
	_, size := utf8.DecodeRuneInString(e.buf[e.cursor:])
	e.buf = e.buf[:e.cursor] + e.buf[e.cursor+size:]
}

// Home moves the cursor to byte 0.
func (e *Editor) Home() { e.cursor = 0 }

// End moves the cursor to the end of the buffer.
func (e *Editor) End() { e.cursor = len(e.buf) }

// Left moves the cursor back one rune.
func (e *Editor) Left() {
	if e.cursor > 0 {
		e.cursor = prevRuneStart(e.buf, e.cursor)
	}
}

// Right moves the cursor forward one rune.
func (e *Editor) Right() {
	if e.cursor < len(e.buf) {
		_, size := utf8.DecodeRuneInString(e.buf[e.cursor:])
		e.cursor += size
	}
}

// BackwardDeleteWord deletes from the cursor back to the start of the
// previous word (ctrl+w).
func (e *Editor) BackwardDeleteWord() {
	start := wordStartBefore(e.buf, e.cursor)
	e.buf = e.buf[:start] + e.buf[e.cursor:]
	e.cursor = start
}

// KillToStart deletes from the start of the buffer to the cursor (ctrl+u).
func (e *Editor) KillToStart() {
	e.buf = e.buf[e.cursor:]
	e.cursor = 0
}

// KillToEnd deletes from the cursor to the end of the buffer (ctrl+k).
func (e *Editor) KillToEnd() {
	e.buf = e.buf[:e.cursor]
}

// HistoryPrev recalls the previous history entry, stashing the in-progress
// buffer as a draft so HistoryNext can restore it.
func (e *Editor) HistoryPrev() {
	if e.historyIdx == 0 {
		return
	}
	if e.historyIdx == len(e.history) {
		e.draft = e.buf
	}
	e.historyIdx--
	e.buf = e.history[e.historyIdx]
	e.cursor = len(e.buf)
}

// HistoryNext advances toward the most recent history entry, restoring the
// stashed draft once past the end.
func (e *Editor) HistoryNext() {
	if e.historyIdx >= len(e.history) {
		return
	}
	e.historyIdx++
	if e.historyIdx == len(e.history) {
		e.buf = e.draft
	} else {
		e.buf = e.history[e.historyIdx]
	}
	e.cursor = len(e.buf)
}

func prevRuneStart(s string, from int) int {
	i := from - 1
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// wordStartBefore finds the start of the word immediately preceding cursor,
// skipping any trailing whitespace first — the readline backward-word rule.
func wordStartBefore(s string, cursor int) int {
	i := cursor
	for i > 0 && s[i-1] == ' ' {
		i = prevRuneStart(s, i)
	}
	for i > 0 && s[i-1] != ' ' {
		i = prevRuneStart(s, i)
	}
	return i
}

func clampCursor(buf string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(buf) {
		return len(buf)
	}
	return cursor
}
