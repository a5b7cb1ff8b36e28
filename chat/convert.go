package chat

import (
	"strings"

	"github.com/nachoal/sse-chat-go/backend"
)

// FromStored converts persisted messages into transcript messages. Loaded
// reasoning starts collapsed and roles other than user, assistant and tool
// are skipped.
func FromStored(stored []backend.StoredMessage) []Message {
	out := make([]Message, 0, len(stored))
	for _, sm := range stored {
		text, images := flatten(sm.Content)
		switch Role(sm.Role) {
		case RoleUser:
			out = append(out, Message{Role: RoleUser, Text: text, Images: images, ThinkCollapsed: true})
		case RoleAssistant:
			out = append(out, Message{Role: RoleAssistant, Text: text, ThinkCollapsed: true})
		case RoleTool:
			out = append(out, Message{Role: RoleTool, ToolName: text, Content: text, ThinkCollapsed: true})
		}
	}
	return out
}

// ToStored converts transcript messages back into the persisted shape.
// Reasoning is not persisted by the backend and is left out.
func ToStored(msgs []Message) []backend.StoredMessage {
	out := make([]backend.StoredMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			parts := make([]backend.ContentPart, 0, len(m.Images)+1)
			for _, img := range m.Images {
				parts = append(parts, backend.ImageURLPart(img))
			}
			if m.Text != "" {
				parts = append(parts, backend.TextPart(m.Text))
			}
			out = append(out, backend.StoredMessage{Role: string(RoleUser), Content: backend.PartsContent(parts...)})
		case RoleAssistant:
			out = append(out, backend.StoredMessage{Role: string(RoleAssistant), Content: backend.StringContent(m.Text)})
		case RoleTool:
			out = append(out, backend.StoredMessage{Role: string(RoleTool), Content: backend.StringContent(m.Content)})
		}
	}
	return out
}

func flatten(c backend.MessageContent) (string, []string) {
	if !c.IsParts {
		return c.Text, nil
	}
	var b strings.Builder
	var images []string
	for _, p := range c.Parts {
		switch p.Type {
		case backend.PartText:
			b.WriteString(p.Text)
		case backend.PartImageURL:
			if p.ImageURL != nil {
				images = append(images, p.ImageURL.URL)
			}
		}
	}
	return b.String(), images
}
