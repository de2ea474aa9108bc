package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rune_(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+k":
		return tea.KeyMsg{Type: tea.KeyCtrlK}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	panic("unknown key " + s)
}

func TestInsertAndCursorAdvance(t *testing.T) {
	e := New()
	e.HandleKey(rune_('h'))
	e.HandleKey(rune_('i'))
	assert.Equal(t, "hi", e.Buf())
	assert.Equal(t, 2, e.Cursor())
}

func TestBackspaceRemovesPrecedingRune(t *testing.T) {
	e := New()
	e.Insert("hi")
	e.HandleKey(key("backspace"))
	assert.Equal(t, "h", e.Buf())
}

func TestLeftRightMoveCursorWithinBounds(t *testing.T) {
	e := New()
	e.Insert("hi")
	e.HandleKey(key("left"))
	assert.Equal(t, 1, e.Cursor())
	e.HandleKey(key("left"))
	e.HandleKey(key("left")) // already at 0, must not go negative
	assert.Equal(t, 0, e.Cursor())
	e.HandleKey(key("right"))
	assert.Equal(t, 1, e.Cursor())
}

func TestValidateClearsBufferAndPushesHistory(t *testing.T) {
	e := New()
	e.Insert("/join room@conf")
	buf, pw := e.Validate()
	assert.Equal(t, "/join room@conf", buf)
	assert.False(t, pw)
	assert.Equal(t, "", e.Buf())
}

func TestValidateDoesNotPushPasswordToHistory(t *testing.T) {
	e := New()
	e.SetPassword(true)
	e.Insert("hunter2")
	buf, pw := e.Validate()
	assert.Equal(t, "hunter2", buf)
	assert.True(t, pw)

	e.HandleKey(key("up"))
	assert.Equal(t, "", e.Buf(), "a password must never surface from history")
}

func TestPasswordModeResetsAfterValidate(t *testing.T) {
	e := New()
	e.SetPassword(true)
	e.Insert("secret")
	e.Validate()
	assert.False(t, e.IsPassword())
}

func TestDisplayMasksBufferInPasswordMode(t *testing.T) {
	e := New()
	e.SetPassword(true)
	e.Insert("ab")
	assert.Equal(t, "**", e.Display())
}

func TestHistoryPrevAndNextRoundTripThroughDraft(t *testing.T) {
	e := New()
	e.Insert("first")
	e.Validate()
	e.Insert("second")
	e.Validate()
	e.Insert("in progress")

	e.HandleKey(key("up"))
	require.Equal(t, "second", e.Buf())
	e.HandleKey(key("up"))
	require.Equal(t, "first", e.Buf())
	e.HandleKey(key("up")) // no more history, stays put
	require.Equal(t, "first", e.Buf())

	e.HandleKey(key("down"))
	require.Equal(t, "second", e.Buf())
	e.HandleKey(key("down"))
	require.Equal(t, "in progress", e.Buf(), "draft must be restored past the newest entry")
}

func TestBackwardDeleteWordRemovesPrecedingWord(t *testing.T) {
	e := New()
	e.Insert("hello there")
	e.HandleKey(key("ctrl+w"))
	assert.Equal(t, "hello ", e.Buf())
}

func TestKillToStartAndKillToEnd(t *testing.T) {
	e := New()
	e.Insert("hello world")
	e.HandleKey(key("left"))
	e.HandleKey(key("left"))
	e.HandleKey(key("left"))
	e.HandleKey(key("left"))
	e.HandleKey(key("left")) // cursor now before "world"

	e2 := *e
	e2.KillToEnd()
	assert.Equal(t, "hello ", e2.Buf())

	e3 := *e
	e3.KillToStart()
	assert.Equal(t, "world", e3.Buf())
}

func TestHandleKeyReportsTabAsRequestCompletion(t *testing.T) {
	e := New()
	assert.Equal(t, RequestCompletion, e.HandleKey(key("tab")))
}

func TestHandleKeyReportsEnterAsValidate(t *testing.T) {
	e := New()
	assert.Equal(t, Validate, e.HandleKey(key("enter")))
}

func TestHandleKeyReportsOtherKeysAsResetCompletion(t *testing.T) {
	e := New()
	assert.Equal(t, ResetCompletion, e.HandleKey(rune_('x')))
}

func TestSetBufClampsCursorToBufferBounds(t *testing.T) {
	e := New()
	e.SetBuf("hi", 99)
	assert.Equal(t, 2, e.Cursor())
	e.SetBuf("hi", -5)
	assert.Equal(t, 0, e.Cursor())
}

func TestVisualColAccountsForDoubleWidthRunes(t *testing.T) {
	e := New()
	e.Insert("日本語")
	assert.Equal(t, 6, e.VisualCol())
}
