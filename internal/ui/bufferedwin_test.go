package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLine string

func (l logLine) String() string { return string(l) }

func TestBufferedWinAppendFollowsTailWhileAtBottom(t *testing.T) {
	b := NewBufferedWin[logLine](Match(), Match())
	b.Measure(20, 3)

	for i := 0; i < 10; i++ {
		b.Append(logLine("line"))
	}

	require.Len(t, b.Items(), 10)
	assert.True(t, b.atBottom)
}

func TestBufferedWinScrollingUpStopsFollowingTail(t *testing.T) {
	b := NewBufferedWin[logLine](Match(), Match())
	b.Measure(20, 3)
	for i := 0; i < 10; i++ {
		b.Append(logLine("line"))
	}

	b.vp.GotoTop()
	b.atBottom = b.vp.AtBottom()
	assert.False(t, b.atBottom)

	b.Append(logLine("new"))
	assert.False(t, b.atBottom, "appending while scrolled up must not yank the view back down")
}

func TestBufferedWinGotoBottomResumesFollowing(t *testing.T) {
	b := NewBufferedWin[logLine](Match(), Match())
	b.Measure(20, 3)
	for i := 0; i < 10; i++ {
		b.Append(logLine("line"))
	}
	b.vp.GotoTop()
	b.atBottom = false

	b.GotoBottom()
	assert.True(t, b.atBottom)
}
