package ui

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/aparte-go/aparte/internal/styles"
)

// ListView renders a grouped, scrollable item list — the roster
// (ListView[string, model.Contact], grouped by presence bucket) or a group
// window's occupant list
// (ListView[model.Role, model.Occupant]) per spec.md §4.5 — with each
// group's name as a header line above its items. A RenderScrollbar column
// is drawn alongside when the item count exceeds the viewport, matching
// this package's existing scrollbar/divider helpers rather than a second
// bubbles/viewport, since groups headers aren't addressable scrollable
// content the way a flat message log is.
type ListView[G comparable, I any] struct {
	Base

	groupKey  func(I) G
	groupName func(G) string
	itemKey   func(I) string // dedupe identity; "" disables uniqueness
	itemLess  func(a, b I) bool
	groupLess func(a, b G) bool

	noneGroup  bool
	noneLabel  string
	items      []I
	scrollOff  int
}

// NewListView builds a ListView. groupKey extracts an item's group;
// groupName renders a group's header text.
func NewListView[G comparable, I any](wDecl, hDecl Dimension, groupKey func(I) G, groupName func(G) string) *ListView[G, I] {
	return &ListView[G, I]{
		Base:      NewBase(wDecl, hDecl),
		groupKey:  groupKey,
		groupName: groupName,
	}
}

// WithNoneGroup permits items whose group renders under label instead of
// being dropped (spec.md's with_none_group()).
func (l *ListView[G, I]) WithNoneGroup(label string) *ListView[G, I] {
	l.noneGroup, l.noneLabel = true, label
	return l
}

// WithUniqueItem dedupes items by the xxhash of key(item), keeping the most
// recently set value for a repeated key (spec.md's with_unique_item()).
func (l *ListView[G, I]) WithUniqueItem(key func(I) string) *ListView[G, I] {
	l.itemKey = key
	return l
}

// WithSortItem keeps each group's items in less order (spec.md's
// with_sort_item()).
func (l *ListView[G, I]) WithSortItem(less func(a, b I) bool) *ListView[G, I] {
	l.itemLess = less
	return l
}

// WithSortGroup orders the groups themselves; unordered (map iteration
// order is avoided by falling back to groupName) if unset.
func (l *ListView[G, I]) WithSortGroup(less func(a, b G) bool) *ListView[G, I] {
	l.groupLess = less
	return l
}

// Items returns the current item set, as last passed to SetItems (post
// dedupe).
func (l *ListView[G, I]) Items() []I { return l.items }

// SetItems replaces the full item set.
func (l *ListView[G, I]) SetItems(items []I) {
	if l.itemKey != nil {
		seen := make(map[uint64]int, len(items))
		deduped := make([]I, 0, len(items))
		for _, it := range items {
			h := xxhash.Sum64String(l.itemKey(it))
			if idx, ok := seen[h]; ok {
				deduped[idx] = it
				continue
			}
			seen[h] = len(deduped)
			deduped = append(deduped, it)
		}
		items = deduped
	}
	l.items = items
	l.SetDirty(true)
}

type listGroup[G comparable, I any] struct {
	key   G
	label string
	items []I
}

func (l *ListView[G, I]) groups() []listGroup[G, I] {
	order := make([]G, 0)
	byKey := make(map[G][]int)
	for i, it := range l.items {
		g := l.groupKey(it)
		if _, ok := byKey[g]; !ok {
			order = append(order, g)
		}
		byKey[g] = append(byKey[g], i)
	}

	if l.groupLess != nil {
		sort.Slice(order, func(a, b int) bool { return l.groupLess(order[a], order[b]) })
	} else {
		sort.Slice(order, func(a, b int) bool { return l.groupName(order[a]) < l.groupName(order[b]) })
	}

	out := make([]listGroup[G, I], 0, len(order))
	for _, g := range order {
		idxs := byKey[g]
		items := make([]I, len(idxs))
		for i, idx := range idxs {
			items[i] = l.items[idx]
		}
		if l.itemLess != nil {
			sort.Slice(items, func(a, b int) bool { return l.itemLess(items[a], items[b]) })
		}
		label := l.groupName(g)
		if label == "" && l.noneGroup {
			label = l.noneLabel
		}
		out = append(out, listGroup[G, I]{key: g, label: label, items: items})
	}
	return out
}

func (l *ListView[G, I]) Measure(maxW, maxH int) (int, int) {
	l.measureSelf(maxW, maxH, maxW, maxH)
	return l.w, l.h
}

func (l *ListView[G, I]) Render() string {
	c := styles.GetCurrentTheme().Colors
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Secondary))

	var sb strings.Builder
	var totalLines int
	for _, g := range l.groups() {
		totalLines += 1 + len(g.items)
	}

	scrollW := 0
	var scrollbar string
	if totalLines > l.h {
		scrollW = 1
		scrollbar = RenderScrollbar(ScrollbarParams{
			TotalItems:   totalLines,
			ScrollOffset: l.scrollOff,
			VisibleItems: l.h,
			TrackHeight:  l.h,
		})
	}

	itemW := l.w - scrollW
	if itemW < 1 {
		itemW = l.w
	}

	lines := make([]string, 0, totalLines)
	for _, g := range l.groups() {
		lines = append(lines, headerStyle.Render(g.label))
		for _, it := range g.items {
			lines = append(lines, renderListItem(it, itemW))
		}
	}
	visible := sliceWindow(lines, l.scrollOff, l.h)
	body := lipgloss.NewStyle().Width(itemW).Render(strings.Join(visible, "\n"))

	if scrollW > 0 {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, body, scrollbar))
	} else {
		sb.WriteString(body)
	}
	return padBlock(sb.String(), l.w, l.h)
}

func renderListItem(it any, width int) string {
	s, ok := it.(interface{ String() string })
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().Width(width).Render(s.String())
}

func sliceWindow(lines []string, offset, height int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(lines) {
		offset = len(lines)
	}
	end := offset + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[offset:end]
}

// ScrollBy moves the scroll offset by delta lines, clamped to the content.
func (l *ListView[G, I]) ScrollBy(delta int) {
	l.scrollOff += delta
	total := 0
	for _, g := range l.groups() {
		total += 1 + len(g.items)
	}
	if maxOff := total - l.h; l.scrollOff > maxOff {
		l.scrollOff = maxOff
	}
	if l.scrollOff < 0 {
		l.scrollOff = 0
	}
	l.SetDirty(true)
}

func (l *ListView[G, I]) HandleEvent(ev any) bool {
	return false
}
