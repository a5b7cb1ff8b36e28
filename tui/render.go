package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nachoal/sse-chat-go/chat"
	"github.com/nachoal/sse-chat-go/tui/styles"
)

const (
	assistantMessageWrapWidth = 74
	minWrapWidth              = 20
)

// newRenderer builds the markdown renderer for a transcript pane of the
// given inner width.
func newRenderer(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		// Non-colored output keeps assistant text readable on any terminal theme.
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(wrapWidth(width)),
	)
	if err != nil {
		return nil
	}
	return renderer
}

func wrapWidth(width int) int {
	if width <= 0 || width > assistantMessageWrapWidth {
		return assistantMessageWrapWidth
	}
	if width < minWrapWidth {
		return minWrapWidth
	}
	return width
}

// renderTranscript renders every message of the conversation, separated by a
// blank line.
func renderTranscript(msgs []chat.Message, renderer *glamour.TermRenderer, st *styles.Styles, width int) string {
	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case chat.RoleUser:
			blocks = append(blocks, renderUserMessage(st, m, width))
		case chat.RoleTool:
			blocks = append(blocks, renderToolMessage(st, m))
		case chat.RoleAssistant:
			if m.Text == chat.ErrorMarker {
				blocks = append(blocks, renderErrorMessage(st, strings.TrimSpace(m.Text)))
				continue
			}
			blocks = append(blocks, renderAssistantMessage(st, renderer, m, width))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderUserMessage(st *styles.Styles, m chat.Message, width int) string {
	var b strings.Builder
	b.WriteString(st.UserLabel.Render("You:"))
	for i := range m.Images {
		b.WriteString("\n")
		b.WriteString(st.Attachment.Render(fmt.Sprintf("[Image #%d]", i+1)))
	}
	if text := strings.TrimSpace(m.Text); text != "" {
		b.WriteString("\n")
		b.WriteString(st.UserText.Render(wordwrap.String(text, wrapWidth(width))))
	}
	return b.String()
}

func renderAssistantMessage(st *styles.Styles, renderer *glamour.TermRenderer, m chat.Message, width int) string {
	sections := []string{st.AssistantLabel.Render("Assistant:")}

	if strings.TrimSpace(m.Think) != "" {
		sections = append(sections, renderThinking(st, m, width))
	}

	switch {
	case strings.TrimSpace(m.Text) != "":
		sections = append(sections, renderMarkdown(renderer, m.Text, width))
	case m.Streaming && m.Think == "":
		sections = append(sections, st.Label.Render("…"))
	}

	return strings.Join(sections, "\n")
}

// renderThinking shows the reasoning trace, or a one-line summary of it when
// the message is collapsed.
func renderThinking(st *styles.Styles, m chat.Message, width int) string {
	if m.ThinkCollapsed {
		lines := strings.Count(strings.TrimSpace(m.Think), "\n") + 1
		return st.ThinkTag.Render(fmt.Sprintf("<thinking traces: %d lines, ctrl+t to expand>", lines))
	}
	return fmt.Sprintf("%s\n%s\n%s",
		st.ThinkTag.Render("<thinking traces>"),
		st.ThinkText.Render(wrapThinkingTrace(m.Think, width)),
		st.ThinkTag.Render("</thinking traces>"),
	)
}

func renderMarkdown(renderer *glamour.TermRenderer, text string, width int) string {
	if renderer != nil {
		if rendered, err := renderer.Render(text); err == nil {
			return strings.Trim(rendered, "\n")
		}
	}
	// Fallback without glamour
	return wordwrap.String(strings.TrimSpace(text), wrapWidth(width))
}

func wrapThinkingTrace(trace string, width int) string {
	if strings.TrimSpace(trace) == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSpace(trace), "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		wrapped = append(wrapped, wordwrap.String(line, wrapWidth(width)))
	}
	return strings.Join(wrapped, "\n")
}

func renderToolMessage(st *styles.Styles, m chat.Message) string {
	return st.ToolLine.Render(fmt.Sprintf("⚙ tool: %s", m.Content))
}

func renderErrorMessage(st *styles.Styles, content string) string {
	return st.ErrorLine.Render(fmt.Sprintf("❌ %s", content))
}
