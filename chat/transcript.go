package chat

// Transcript is the ordered list of messages of one conversation. Only the
// last message may be streaming. A Transcript is not safe for concurrent use;
// its owner serializes access.
type Transcript struct {
	messages []Message
}

// NewTranscript creates a transcript holding msgs
func NewTranscript(msgs ...Message) *Transcript {
	t := &Transcript{}
	t.Replace(msgs)
	return t
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Append adds m at the end. The previous last message stops streaming.
func (t *Transcript) Append(m Message) {
	if n := len(t.messages); n > 0 {
		t.messages[n-1].Streaming = false
	}
	t.messages = append(t.messages, m.Clone())
}

// Last returns the last message, or nil for an empty transcript. The pointer
// is valid until the next Append, RemoveLast, Replace or Reset.
func (t *Transcript) Last() *Message {
	if len(t.messages) == 0 {
		return nil
	}
	return &t.messages[len(t.messages)-1]
}

// At returns the message at index i, or nil when out of range
func (t *Transcript) At(i int) *Message {
	if i < 0 || i >= len(t.messages) {
		return nil
	}
	return &t.messages[i]
}

// RemoveLast drops the last message and returns it
func (t *Transcript) RemoveLast() (Message, bool) {
	n := len(t.messages)
	if n == 0 {
		return Message{}, false
	}
	m := t.messages[n-1]
	t.messages[n-1] = Message{}
	t.messages = t.messages[:n-1]
	return m, true
}

// Replace swaps the whole content. Streaming flags are cleared on all but the
// last message.
func (t *Transcript) Replace(msgs []Message) {
	t.messages = make([]Message, 0, len(msgs))
	for _, m := range msgs {
		t.Append(m)
	}
}

// Reset empties the transcript
func (t *Transcript) Reset() {
	t.messages = nil
}

// Snapshot returns a deep copy of the messages
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.Clone()
	}
	return out
}

// StreamingCount returns how many messages are flagged as streaming
func (t *Transcript) StreamingCount() int {
	n := 0
	for _, m := range t.messages {
		if m.Streaming {
			n++
		}
	}
	return n
}

// SetThinkCollapsed collapses or expands the reasoning of every assistant
// message.
func (t *Transcript) SetThinkCollapsed(collapsed bool) {
	for i := range t.messages {
		if t.messages[i].Role == RoleAssistant {
			t.messages[i].ThinkCollapsed = collapsed
		}
	}
}
