package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nachoal/sse-chat-go/history"
	"github.com/nachoal/sse-chat-go/tui/styles"
)

const sidebarWidth = 30

// sidebar is the scrollable list of past conversations
type sidebar struct {
	entries   []history.Entry
	selected  int
	offset    int
	height    int
	loading   bool
	exhausted bool
}

// setEntries replaces the rows and keeps the cursor on the same conversation
// when it is still listed.
func (s *sidebar) setEntries(entries []history.Entry) {
	var selectedID int64
	if e, ok := s.selectedEntry(); ok {
		selectedID = e.ID
	}
	s.entries = entries
	s.selected = 0
	for i, e := range entries {
		if e.ID == selectedID {
			s.selected = i
			break
		}
	}
	s.clamp()
}

func (s *sidebar) setHeight(h int) {
	s.height = h
	s.clamp()
}

func (s *sidebar) move(delta int) {
	s.selected += delta
	s.clamp()
}

func (s *sidebar) clamp() {
	if s.selected >= len(s.entries) {
		s.selected = len(s.entries) - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}

	rows := s.visibleRows()
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+rows {
		s.offset = s.selected - rows + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// visibleRows is the number of entry rows below the title and above the hint
func (s *sidebar) visibleRows() int {
	rows := s.height - 2
	if rows < 1 {
		return 1
	}
	return rows
}

func (s *sidebar) atEnd() bool {
	return len(s.entries) == 0 || s.selected == len(s.entries)-1
}

func (s *sidebar) atTop() bool {
	return s.selected == 0
}

func (s *sidebar) selectedEntry() (history.Entry, bool) {
	if s.selected < 0 || s.selected >= len(s.entries) {
		return history.Entry{}, false
	}
	return s.entries[s.selected], true
}

// view renders the sidebar content, width cells wide and at most height rows
func (s *sidebar) view(st *styles.Styles, width int, currentID int64, focused bool) string {
	lines := make([]string, 0, s.height)
	lines = append(lines, st.SidebarTitle.Render("History"))

	if len(s.entries) == 0 {
		lines = append(lines, st.SidebarHint.Render(truncateTitle("no conversations yet", width)))
		return strings.Join(lines, "\n")
	}

	end := s.offset + s.visibleRows()
	if end > len(s.entries) {
		end = len(s.entries)
	}
	for i := s.offset; i < end; i++ {
		e := s.entries[i]
		cursor := "  "
		style := st.SidebarItem
		switch {
		case i == s.selected && focused:
			cursor = "▸ "
			style = st.SidebarSelected
		case e.ID == currentID:
			cursor = "• "
			style = st.SidebarCurrent
		case i == s.selected:
			cursor = "› "
		}
		lines = append(lines, cursor+style.Render(truncateTitle(e.DisplayTitle(), width-2)))
	}

	var hint string
	switch {
	case s.loading:
		hint = "loading…"
	case s.exhausted:
		hint = "end of history"
	case end == len(s.entries):
		hint = "pgdn for more"
	}
	if hint != "" {
		lines = append(lines, st.SidebarHint.Render(truncateTitle(hint, width)))
	}
	return strings.Join(lines, "\n")
}

// truncateTitle cuts s to width terminal cells. Wide runes count as two.
func truncateTitle(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}
