package editor

import tea "github.com/charmbracelet/bubbletea"

// Action classifies what a key press asked the surrounding UI plugin to do,
// since Validate/Tab/"anything else" each drive a different event per
// spec.md §4.6 — the editor itself has no account/conversation to address
// an AutoComplete event with, so it reports the intent and leaves scheduling
// to the caller.
type Action int

const (
	// None is the zero value; HandleKey never returns it (a key consumed
	// purely as an edit operation reports ResetCompletion).
	None Action = iota
	// Validate means Enter was pressed: the caller should read Validate().
	Validate
	// RequestCompletion means Tab was pressed: the caller should schedule
	// event.AutoComplete with the editor's current Buf()/Cursor().
	RequestCompletion
	// ResetCompletion means some other key ended a completion cycle: the
	// caller should schedule event.ResetCompletion.
	ResetCompletion
	// Unhandled means the key was not a recognized editing key (e.g. a
	// control key with no binding) and the caller may route it elsewhere.
	Unhandled
)

// HandleKey applies msg's editing effect (if any) and reports what the
// surrounding UI plugin should do next. Binding table matches the original
// aparte's Input (ctrl+a/b/e/f/h/w/u/k alongside the named arrows), switched
// on msg.Type the way wilbur182-forge's keymap.keyToString does rather than
// msg.String(), so every case names a concrete tea.Key constant.
func (e *Editor) HandleKey(msg tea.KeyMsg) Action {
	switch msg.Type {
	case tea.KeyEnter:
		return Validate
	case tea.KeyTab:
		return RequestCompletion
	case tea.KeyBackspace, tea.KeyCtrlH:
		e.Backspace()
	case tea.KeyDelete:
		e.Delete()
	case tea.KeyHome, tea.KeyCtrlA:
		e.Home()
	case tea.KeyEnd, tea.KeyCtrlE:
		e.End()
	case tea.KeyLeft, tea.KeyCtrlB:
		e.Left()
	case tea.KeyRight, tea.KeyCtrlF:
		e.Right()
	case tea.KeyUp:
		e.HistoryPrev()
	case tea.KeyDown:
		e.HistoryNext()
	case tea.KeyCtrlW:
		e.BackwardDeleteWord()
	case tea.KeyCtrlU:
		e.KillToStart()
	case tea.KeyCtrlK:
		e.KillToEnd()
	case tea.KeyRunes:
		e.Insert(string(msg.Runes))
		return ResetCompletion
	case tea.KeySpace:
		e.Insert(" ")
		return ResetCompletion
	default:
		return Unhandled
	}
	return ResetCompletion
}
