package chat

import "slices"

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// UnknownTool labels a tool call that arrived without a name
const UnknownTool = "Unknown Tool"

// ErrorMarker is the text of the synthetic message appended when a stream
// fails.
const ErrorMarker = "\n[error: connection lost]"

// Message is one turn of the transcript
type Message struct {
	Role Role

	// Text is the answer (assistant) or the prompt (user).
	Text string
	// Think is the reasoning trace of an assistant message.
	Think string
	// Images holds the data URLs attached to a user message.
	Images []string

	// ToolName and Content describe a tool message.
	ToolName string
	Content  string

	Streaming      bool
	ThinkCollapsed bool
}

// UserMessage builds a user turn
func UserMessage(text string, images []string) Message {
	return Message{Role: RoleUser, Text: text, Images: slices.Clone(images)}
}

// ToolMessage builds a tool turn labelled with name
func ToolMessage(name string) Message {
	label := name
	if label == "" {
		label = UnknownTool
	}
	return Message{Role: RoleTool, ToolName: name, Content: label}
}

// ErrorMessage builds the synthetic assistant message shown after a failure
func ErrorMessage() Message {
	return Message{Role: RoleAssistant, Text: ErrorMarker}
}

// IsEmpty reports whether an assistant message has received nothing yet
func (m Message) IsEmpty() bool {
	return m.Text == "" && m.Think == "" && len(m.Images) == 0 && m.Content == ""
}

// Clone returns a deep copy
func (m Message) Clone() Message {
	m.Images = slices.Clone(m.Images)
	return m
}
