package ui

// FrameLayout shows exactly one child — keyed by the currently active
// window — at a time, occupying the whole rectangle the spec's top-level
// tree carves out for the conversation/console window body
// ([TitleBar, FrameLayout<window>, WinBar, Input]). Switching the active key
// (Alt-a, /win) swaps which child renders without re-measuring the
// others, matching wilbur182-forge's tab-switch idiom in internal/app/model.go
// (ActivePlugin swaps which plugin's View is composited, the rest keep their
// state).
type FrameLayout[Key comparable] struct {
	Base
	children map[Key]View
	active   Key
	hasKey   bool
}

// NewFrameLayout builds an empty FrameLayout with the given declared size.
func NewFrameLayout[Key comparable](wDecl, hDecl Dimension) *FrameLayout[Key] {
	return &FrameLayout[Key]{
		Base:     NewBase(wDecl, hDecl),
		children: make(map[Key]View),
	}
}

// Put registers or replaces the view shown for key.
func (f *FrameLayout[Key]) Put(key Key, v View) {
	f.children[key] = v
	f.SetDirty(true)
}

// Remove drops the view registered for key. If key was active, no view
// renders until SetActive selects another.
func (f *FrameLayout[Key]) Remove(key Key) {
	delete(f.children, key)
	if f.hasKey && f.active == key {
		f.hasKey = false
	}
	f.SetDirty(true)
}

// SetActive switches which registered child renders. A no-op (and no
// redraw) if key is already active.
func (f *FrameLayout[Key]) SetActive(key Key) {
	if f.hasKey && f.active == key {
		return
	}
	f.active, f.hasKey = key, true
	f.SetDirty(true)
}

// Active returns the currently selected key and whether one is set.
func (f *FrameLayout[Key]) Active() (Key, bool) {
	return f.active, f.hasKey
}

func (f *FrameLayout[Key]) current() (View, bool) {
	if !f.hasKey {
		return nil, false
	}
	v, ok := f.children[f.active]
	return v, ok
}

func (f *FrameLayout[Key]) Measure(maxW, maxH int) (int, int) {
	f.measureSelf(maxW, maxH, maxW, maxH)
	for _, c := range f.children {
		c.Measure(f.w, f.h)
	}
	return f.w, f.h
}

func (f *FrameLayout[Key]) Layout(x, y int) {
	f.Base.Layout(x, y)
	for _, c := range f.children {
		c.Layout(x, y)
	}
}

func (f *FrameLayout[Key]) Render() string {
	c, ok := f.current()
	if !ok {
		return padBlock("", f.w, f.h)
	}
	return padBlock(c.Render(), f.w, f.h)
}

// HandleEvent delivers ev only to the active child — background windows do
// not redraw off events they cannot currently show, matching spec.md §4.7's
// unread-tracking split (the window accumulates unread state, but nothing
// renders until it becomes active).
func (f *FrameLayout[Key]) HandleEvent(ev any) bool {
	c, ok := f.current()
	if !ok {
		return false
	}
	dirty := c.HandleEvent(ev)
	if dirty {
		f.SetDirty(true)
	}
	return dirty
}
